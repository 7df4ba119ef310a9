package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/omii/storefront/internal/domain/product"
)

const (
	listProductsSQL = `SELECT id, name, price, bulk_price, min_bulk_quantity, stock, category, image
		FROM products ORDER BY id`

	getProductByIDSQL = `SELECT id, name, price, bulk_price, min_bulk_quantity, stock, category, image
		FROM products WHERE id = $1`

	getProductsByIDsSQL = `SELECT id, name, price, bulk_price, min_bulk_quantity, stock, category, image
		FROM products WHERE id = ANY($1)`

	upsertProductSQL = `INSERT INTO products (id, name, price, bulk_price, min_bulk_quantity, stock, category, image)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			price = EXCLUDED.price,
			bulk_price = EXCLUDED.bulk_price,
			min_bulk_quantity = EXCLUDED.min_bulk_quantity,
			stock = EXCLUDED.stock,
			category = EXCLUDED.category,
			image = EXCLUDED.image`
)

var _ product.Repository = (*ProductRepository)(nil)

// ProductRepository implements product.Repository backed by PostgreSQL.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// List returns all products from the catalog ordered by ID.
func (r *ProductRepository) List(ctx context.Context) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx, listProductsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

// GetByID returns a single product by its identifier.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*product.Product, error) {
	rows, err := r.pool.Query(ctx, getProductByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}
	return &p, nil
}

// GetByIDs returns products matching any of the given IDs.
func (r *ProductRepository) GetByIDs(ctx context.Context, ids []string) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx, getProductsByIDsSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("getting products by ids: %w", err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

// Upsert inserts or replaces a catalog product. Used by cmd/seed-db.
func (r *ProductRepository) Upsert(ctx context.Context, p product.Product) error {
	var (
		bulkPrice *decimal.Decimal
		minBulk   *int32
	)
	if p.HasBulkPricing() {
		bulkPrice = &p.BulkPrice
		mb := int32(p.MinBulkQuantity)
		minBulk = &mb
	}
	_, err := r.pool.Exec(ctx, upsertProductSQL,
		p.ID, p.Name, p.Price, bulkPrice, minBulk, p.Stock, p.Category, p.Image,
	)
	if err != nil {
		return fmt.Errorf("upserting product %q: %w", p.ID, err)
	}
	return nil
}

func scanProduct(row pgx.CollectableRow) (product.Product, error) {
	var (
		p         product.Product
		bulkPrice *decimal.Decimal
		minBulk   *int32
	)
	err := row.Scan(
		&p.ID, &p.Name, &p.Price, &bulkPrice, &minBulk,
		&p.Stock, &p.Category, &p.Image,
	)
	if bulkPrice != nil {
		p.BulkPrice = *bulkPrice
	}
	if minBulk != nil {
		p.MinBulkQuantity = int(*minBulk)
	}
	return p, err
}
