// Package product provides the inventory model, the stock ledger rules and the
// PostgreSQL repository behind them.
package product

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/MikeMC777/costeo/internal/db"
	"github.com/MikeMC777/costeo/internal/plan"
)

type Query struct {
	TenantID string
	Q        string
	Limit    int
	Offset   int
}

type Repository interface {
	// Create inserts p unless the tenant already holds maxProducts products
	// (0 means unlimited), in which case it returns plan.ErrLimitReached.
	Create(ctx context.Context, p *Product, maxProducts int) error
	GetByID(ctx context.Context, tenantID, id string) (*Product, error)
	FindByName(ctx context.Context, tenantID, name string) (*Product, error)
	List(ctx context.Context, q Query) ([]Product, error)
	ListAll(ctx context.Context, tenantID string) ([]Product, error)
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, tenantID, id string) (bool, error)
	LowStock(ctx context.Context, tenantID string) ([]Product, error)
	ApplyMovements(ctx context.Context, tenantID, createdBy string, batch []BatchMovement) ([]Movement, error)
	ListMovements(ctx context.Context, tenantID, productID string, limit, offset int) ([]Movement, error)
	ListAllMovements(ctx context.Context, tenantID string) ([]Movement, error)
}

type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(pool *pgxpool.Pool) *PGRepo { return &PGRepo{db: pool} }

const productCols = `id, tenant_id, name, sku, unit, package_qty::text, package_price::text,
	unit_cost::text, stock::text, min_stock::text, created_at, updated_at`

const movementCols = `id, tenant_id, product_id, kind, quantity::text, unit_cost::text, reason,
	stock_before::text, stock_after::text, created_by, created_at`

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.TenantID, &p.Name, &p.SKU, &p.Unit, &p.PackageQty, &p.PackagePrice,
		&p.UnitCost, &p.Stock, &p.MinStock, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func scanMovement(row pgx.Row) (Movement, error) {
	var m Movement
	err := row.Scan(&m.ID, &m.TenantID, &m.ProductID, &m.Kind, &m.Quantity, &m.UnitCost, &m.Reason,
		&m.StockBefore, &m.StockAfter, &m.CreatedBy, &m.CreatedAt)
	return m, err
}

func collect[T any](rows pgx.Rows, scan func(pgx.Row) (T, error)) ([]T, error) {
	defer rows.Close()
	out := []T{}
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (r *PGRepo) Create(ctx context.Context, p *Product, maxProducts int) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Serializes creates per tenant so the count below stays true until commit.
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext('products:' || $1))`, p.TenantID); err != nil {
		return err
	}
	var n int
	if err := tx.QueryRow(ctx, `SELECT count(*) FROM products WHERE tenant_id=$1`, p.TenantID).Scan(&n); err != nil {
		return err
	}
	if !plan.Allow(maxProducts, n) {
		return plan.ErrLimitReached
	}

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO products (id, tenant_id, name, sku, unit, package_qty, package_price, unit_cost, stock, min_stock, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,NOW(),NOW())
		RETURNING created_at, updated_at
	`, p.ID, p.TenantID, p.Name, p.SKU, p.Unit, p.PackageQty, p.PackagePrice, p.UnitCost, p.Stock, p.MinStock).
		Scan(&p.CreatedAt, &p.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicateName
	}
	if err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *PGRepo) GetByID(ctx context.Context, tenantID, id string) (*Product, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if !db.ValidID(id) {
		return nil, ErrNotFound
	}
	p, err := scanProduct(r.db.QueryRow(ctx, `SELECT `+productCols+` FROM products WHERE tenant_id=$1 AND id=$2`, tenantID, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PGRepo) FindByName(ctx context.Context, tenantID, name string) (*Product, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	p, err := scanProduct(r.db.QueryRow(ctx, `
		SELECT `+productCols+` FROM products WHERE tenant_id=$1 AND lower(name)=lower($2)
	`, tenantID, strings.TrimSpace(name)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PGRepo) List(ctx context.Context, q Query) ([]Product, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	limit := q.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	rows, err := r.db.Query(ctx, `
		SELECT `+productCols+`
		FROM products
		WHERE tenant_id = $1 AND ($2 = '' OR name ILIKE '%'||$2||'%' OR sku ILIKE '%'||$2||'%')
		ORDER BY name
		LIMIT $3 OFFSET $4
	`, q.TenantID, strings.TrimSpace(q.Q), limit, offset)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanProduct)
}

func (r *PGRepo) ListAll(ctx context.Context, tenantID string) ([]Product, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	rows, err := r.db.Query(ctx, `SELECT `+productCols+` FROM products WHERE tenant_id=$1 ORDER BY name`, tenantID)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanProduct)
}

func (r *PGRepo) Update(ctx context.Context, p *Product) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tag, err := r.db.Exec(ctx, `
		UPDATE products
		SET name = $3, sku = $4, unit = $5, package_qty = $6, package_price = $7,
		    unit_cost = $8, min_stock = $9, updated_at = NOW()
		WHERE tenant_id = $1 AND id = $2
	`, p.TenantID, p.ID, p.Name, p.SKU, p.Unit, p.PackageQty, p.PackagePrice, p.UnitCost, p.MinStock)
	if isUniqueViolation(err) {
		return ErrDuplicateName
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepo) Delete(ctx context.Context, tenantID, id string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if !db.ValidID(id) {
		return false, nil
	}
	cmd, err := r.db.Exec(ctx, `DELETE FROM products WHERE tenant_id=$1 AND id=$2`, tenantID, id)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23503" {
		return false, ErrInUse
	}
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *PGRepo) LowStock(ctx context.Context, tenantID string) ([]Product, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := r.db.Query(ctx, `
		SELECT `+productCols+` FROM products
		WHERE tenant_id=$1 AND stock <= min_stock
		ORDER BY name
	`, tenantID)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanProduct)
}

// ApplyMovements locks every product involved, applies the movements in order and
// writes the ledger rows in one transaction. Any rule violation rolls everything back.
func (r *PGRepo) ApplyMovements(ctx context.Context, tenantID, createdBy string, batch []BatchMovement) ([]Movement, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	for _, b := range batch {
		if !db.ValidID(b.ProductID) {
			return nil, ErrNotFound
		}
	}
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	out := make([]Movement, 0, len(batch))
	for _, b := range batch {
		p, err := scanProduct(tx.QueryRow(ctx, `
			SELECT `+productCols+` FROM products WHERE tenant_id=$1 AND id=$2 FOR UPDATE
		`, tenantID, b.ProductID))
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		if err != nil {
			return nil, err
		}

		m, err := Apply(&p, b.MovementRequest)
		if err != nil {
			return nil, err
		}
		m.ID = uuid.NewString()
		m.CreatedBy = createdBy

		if _, err := tx.Exec(ctx, `
			UPDATE products SET stock = $3, unit_cost = $4, updated_at = NOW()
			WHERE tenant_id = $1 AND id = $2
		`, tenantID, p.ID, p.Stock, p.UnitCost); err != nil {
			return nil, err
		}
		if err := tx.QueryRow(ctx, `
			INSERT INTO stock_movements (id, tenant_id, product_id, kind, quantity, unit_cost, reason, stock_before, stock_after, created_by, created_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,NOW())
			RETURNING created_at
		`, m.ID, tenantID, p.ID, m.Kind, m.Quantity, m.UnitCost, m.Reason, m.StockBefore, m.StockAfter, m.CreatedBy).
			Scan(&m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, tx.Commit(ctx)
}

func (r *PGRepo) ListMovements(ctx context.Context, tenantID, productID string, limit, offset int) ([]Movement, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if !db.ValidID(productID) {
		return []Movement{}, nil
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := r.db.Query(ctx, `
		SELECT `+movementCols+` FROM stock_movements
		WHERE tenant_id=$1 AND product_id=$2
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`, tenantID, productID, limit, offset)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanMovement)
}

func (r *PGRepo) ListAllMovements(ctx context.Context, tenantID string) ([]Movement, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	rows, err := r.db.Query(ctx, `
		SELECT `+movementCols+` FROM stock_movements WHERE tenant_id=$1 ORDER BY created_at
	`, tenantID)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanMovement)
}

// InventoryValue sums stock * unit cost over a product list.
func InventoryValue(ps []Product) decimal.Decimal {
	total := decimal.Zero
	for _, p := range ps {
		total = total.Add(p.Value())
	}
	return total
}
