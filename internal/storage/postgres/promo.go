package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/omii/storefront/internal/domain/promo"
)

const (
	getPromoByCodeSQL = `SELECT code, kind, value, min_subtotal, max_discount, valid_until, active, description
	FROM promo_codes WHERE UPPER(code) = UPPER($1) AND active = TRUE`

	upsertPromoSQL = `INSERT INTO promo_codes (code, kind, value, min_subtotal, max_discount, valid_until, active, description)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (code) DO UPDATE SET
		kind = EXCLUDED.kind,
		value = EXCLUDED.value,
		min_subtotal = EXCLUDED.min_subtotal,
		max_discount = EXCLUDED.max_discount,
		valid_until = EXCLUDED.valid_until,
		active = EXCLUDED.active,
		description = EXCLUDED.description`
)

var _ promo.Repository = (*PromoRepository)(nil)

// PromoRepository implements promo.Repository backed by PostgreSQL.
type PromoRepository struct {
	pool *pgxpool.Pool
}

// NewPromoRepository returns a PromoRepository that uses the given pool.
func NewPromoRepository(pool *pgxpool.Pool) *PromoRepository {
	return &PromoRepository{pool: pool}
}

// FindByCode looks up an active promo rule by its code (case-insensitive).
// Returns promo.ErrInvalidPromo when no matching active rule exists.
func (r *PromoRepository) FindByCode(ctx context.Context, code string) (*promo.Rule, error) {
	rows, err := r.pool.Query(ctx, getPromoByCodeSQL, code)
	if err != nil {
		return nil, fmt.Errorf("finding promo by code %q: %w", code, err)
	}

	rule, err := pgx.CollectExactlyOneRow(rows, scanPromoRule)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, promo.ErrInvalidPromo
		}
		return nil, fmt.Errorf("finding promo by code %q: %w", code, err)
	}
	return &rule, nil
}

// Upsert inserts or replaces a promo rule. Used by the seeding tools.
func (r *PromoRepository) Upsert(ctx context.Context, rule promo.Rule) error {
	var validUntil *time.Time
	if !rule.ValidUntil.IsZero() {
		validUntil = &rule.ValidUntil
	}
	_, err := r.pool.Exec(ctx, upsertPromoSQL,
		rule.Code, string(rule.Kind), rule.Value, rule.MinSubtotal, rule.MaxDiscount,
		validUntil, rule.Active, rule.Description,
	)
	if err != nil {
		return fmt.Errorf("upserting promo %q: %w", rule.Code, err)
	}
	return nil
}

func scanPromoRule(row pgx.CollectableRow) (promo.Rule, error) {
	var (
		rule       promo.Rule
		kind       string
		validUntil *time.Time
	)
	err := row.Scan(
		&rule.Code, &kind, &rule.Value, &rule.MinSubtotal, &rule.MaxDiscount,
		&validUntil, &rule.Active, &rule.Description,
	)
	rule.Kind = promo.Kind(kind)
	if validUntil != nil {
		rule.ValidUntil = *validUntil
	}
	return rule, err
}
