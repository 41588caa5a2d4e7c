package recipe

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MikeMC777/costeo/internal/db"
	"github.com/MikeMC777/costeo/internal/plan"
)

type Repository interface {
	// Create inserts r unless the tenant already holds maxRecipes recipes
	// (0 means unlimited), in which case it returns plan.ErrLimitReached.
	Create(ctx context.Context, r *Recipe, maxRecipes int) error
	GetByID(ctx context.Context, tenantID, id string) (*Recipe, error)
	List(ctx context.Context, tenantID, q string, limit, offset int) ([]Recipe, error)
	ListAll(ctx context.Context, tenantID string) ([]Recipe, error)
	Count(ctx context.Context, tenantID string) (int, error)
	Update(ctx context.Context, r *Recipe) error
	Delete(ctx context.Context, tenantID, id string) (bool, error)
}

type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(pool *pgxpool.Pool) *PGRepo { return &PGRepo{db: pool} }

const recipeCols = `id, tenant_id, name, yield_qty::text, extra_cost::text, fees_pct::text,
	taxes_pct::text, profit_pct::text, notes, created_at, updated_at`

func scanRecipe(row pgx.Row) (Recipe, error) {
	var r Recipe
	err := row.Scan(&r.ID, &r.TenantID, &r.Name, &r.YieldQty, &r.ExtraCost, &r.FeesPct,
		&r.TaxesPct, &r.ProfitPct, &r.Notes, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

func insertItems(ctx context.Context, tx pgx.Tx, r *Recipe) error {
	for i := range r.Items {
		it := &r.Items[i]
		if it.ID == "" {
			it.ID = uuid.NewString()
		}
		it.RecipeID = r.ID
		if _, err := tx.Exec(ctx, `
			INSERT INTO recipe_items (id, recipe_id, product_id, quantity, position)
			VALUES ($1,$2,$3,$4,$5)
		`, it.ID, r.ID, it.ProductID, it.Quantity, i); err != nil {
			return err
		}
	}
	return nil
}

func (r *PGRepo) Create(ctx context.Context, rec *Recipe, maxRecipes int) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext('recipes:' || $1))`, rec.TenantID); err != nil {
		return err
	}
	var n int
	if err := tx.QueryRow(ctx, `SELECT count(*) FROM recipes WHERE tenant_id=$1`, rec.TenantID).Scan(&n); err != nil {
		return err
	}
	if !plan.Allow(maxRecipes, n) {
		return plan.ErrLimitReached
	}

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if err := tx.QueryRow(ctx, `
		INSERT INTO recipes (id, tenant_id, name, yield_qty, extra_cost, fees_pct, taxes_pct, profit_pct, notes, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,NOW(),NOW())
		RETURNING created_at, updated_at
	`, rec.ID, rec.TenantID, rec.Name, rec.YieldQty, rec.ExtraCost, rec.FeesPct, rec.TaxesPct, rec.ProfitPct, rec.Notes).
		Scan(&rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return err
	}
	if err := insertItems(ctx, tx, rec); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *PGRepo) GetByID(ctx context.Context, tenantID, id string) (*Recipe, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if !db.ValidID(id) {
		return nil, ErrNotFound
	}
	rec, err := scanRecipe(r.db.QueryRow(ctx, `SELECT `+recipeCols+` FROM recipes WHERE tenant_id=$1 AND id=$2`, tenantID, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	items, err := r.items(ctx, []string{rec.ID})
	if err != nil {
		return nil, err
	}
	rec.Items = items[rec.ID]
	return &rec, nil
}

func (r *PGRepo) items(ctx context.Context, recipeIDs []string) (map[string][]Item, error) {
	out := make(map[string][]Item, len(recipeIDs))
	if len(recipeIDs) == 0 {
		return out, nil
	}
	rows, err := r.db.Query(ctx, `
		SELECT id, recipe_id, product_id, quantity::text
		FROM recipe_items WHERE recipe_id = ANY($1)
		ORDER BY recipe_id, position
	`, recipeIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.RecipeID, &it.ProductID, &it.Quantity); err != nil {
			return nil, err
		}
		out[it.RecipeID] = append(out[it.RecipeID], it)
	}
	return out, rows.Err()
}

func (r *PGRepo) list(ctx context.Context, sql string, args ...any) ([]Recipe, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	out := []Recipe{}
	for rows.Next() {
		rec, err := scanRecipe(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, rec)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	ids := make([]string, len(out))
	for i := range out {
		ids[i] = out[i].ID
	}
	items, err := r.items(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Items = items[out[i].ID]
	}
	return out, nil
}

func (r *PGRepo) List(ctx context.Context, tenantID, q string, limit, offset int) ([]Recipe, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return r.list(ctx, `
		SELECT `+recipeCols+` FROM recipes
		WHERE tenant_id=$1 AND ($2 = '' OR name ILIKE '%'||$2||'%')
		ORDER BY name
		LIMIT $3 OFFSET $4
	`, tenantID, strings.TrimSpace(q), limit, offset)
}

func (r *PGRepo) ListAll(ctx context.Context, tenantID string) ([]Recipe, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	return r.list(ctx, `SELECT `+recipeCols+` FROM recipes WHERE tenant_id=$1 ORDER BY name`, tenantID)
}

func (r *PGRepo) Count(ctx context.Context, tenantID string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var n int
	err := r.db.QueryRow(ctx, `SELECT count(*) FROM recipes WHERE tenant_id=$1`, tenantID).Scan(&n)
	return n, err
}

// Update rewrites the recipe header and replaces its items.
func (r *PGRepo) Update(ctx context.Context, rec *Recipe) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = tx.QueryRow(ctx, `
		UPDATE recipes
		SET name = $3, yield_qty = $4, extra_cost = $5, fees_pct = $6, taxes_pct = $7,
		    profit_pct = $8, notes = $9, updated_at = NOW()
		WHERE tenant_id = $1 AND id = $2
		RETURNING created_at, updated_at
	`, rec.TenantID, rec.ID, rec.Name, rec.YieldQty, rec.ExtraCost, rec.FeesPct, rec.TaxesPct, rec.ProfitPct, rec.Notes).
		Scan(&rec.CreatedAt, &rec.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM recipe_items WHERE recipe_id=$1`, rec.ID); err != nil {
		return err
	}
	for i := range rec.Items {
		rec.Items[i].ID = ""
	}
	if err := insertItems(ctx, tx, rec); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *PGRepo) Delete(ctx context.Context, tenantID, id string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if !db.ValidID(id) {
		return false, nil
	}
	cmd, err := r.db.Exec(ctx, `DELETE FROM recipes WHERE tenant_id=$1 AND id=$2`, tenantID, id)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}
