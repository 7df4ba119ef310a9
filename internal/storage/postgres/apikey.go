package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/omii/storefront/internal/domain/auth"
)

const (
	getAPIKeyByHashSQL = `SELECT id, key_hash, name, customer_id, role, b2b
	FROM api_keys WHERE key_hash = $1 AND active = TRUE`

	upsertAPIKeySQL = `INSERT INTO api_keys (id, key_hash, name, customer_id, role, b2b, active)
	VALUES ($1, $2, $3, $4, $5, $6, TRUE)
	ON CONFLICT (id) DO UPDATE SET
		key_hash = EXCLUDED.key_hash,
		name = EXCLUDED.name,
		customer_id = EXCLUDED.customer_id,
		role = EXCLUDED.role,
		b2b = EXCLUDED.b2b,
		active = TRUE`
)

var _ auth.Repository = (*APIKeyRepository)(nil)

// APIKeyRepository provides API key lookups backed by PostgreSQL.
type APIKeyRepository struct {
	pool *pgxpool.Pool
}

// NewAPIKeyRepository returns an APIKeyRepository that uses the given pool.
func NewAPIKeyRepository(pool *pgxpool.Pool) *APIKeyRepository {
	return &APIKeyRepository{pool: pool}
}

// FindByHash looks up an active API key by its HMAC-SHA256 hash.
func (r *APIKeyRepository) FindByHash(ctx context.Context, hash string) (*auth.Identity, error) {
	rows, err := r.pool.Query(ctx, getAPIKeyByHashSQL, hash)
	if err != nil {
		return nil, fmt.Errorf("finding api key by hash: %w", err)
	}

	id, err := pgx.CollectExactlyOneRow(rows, scanIdentity)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, auth.ErrKeyNotFound
		}
		return nil, fmt.Errorf("finding api key by hash: %w", err)
	}
	return &id, nil
}

// Upsert inserts or replaces an API key identity. Used by cmd/seed-db.
func (r *APIKeyRepository) Upsert(ctx context.Context, id auth.Identity) error {
	_, err := r.pool.Exec(ctx, upsertAPIKeySQL,
		id.ID, id.KeyHash, id.Name, id.CustomerID, string(id.Role), id.B2B,
	)
	if err != nil {
		return fmt.Errorf("upserting api key %q: %w", id.ID, err)
	}
	return nil
}

func scanIdentity(row pgx.CollectableRow) (auth.Identity, error) {
	var (
		id   auth.Identity
		role string
	)
	err := row.Scan(&id.ID, &id.KeyHash, &id.Name, &id.CustomerID, &role, &id.B2B)
	id.Role = auth.Role(role)
	return id, err
}
