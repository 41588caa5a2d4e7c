package sheet

import (
	"context"
	"errors"

	"github.com/MikeMC777/costeo/internal/plan"
	"github.com/MikeMC777/costeo/internal/product"
)

// ImportReason is the ledger reason for stock counts changed by an import.
const ImportReason = "stock count from spreadsheet import"

type Result struct {
	Created int        `json:"created"`
	Updated int        `json:"updated"`
	Errors  []RowError `json:"errors"`
}

// Import upserts rows by product name within the tenant. New products count
// against maxProducts; a changed stock on an existing product is written as an
// adjustment so the ledger stays complete. Rows are written one by one: on
// error the returned Result still counts the rows written before it.
func Import(ctx context.Context, repo product.Repository, tenantID, userID string, rows []Row, maxProducts int) (Result, error) {
	res := Result{Errors: []RowError{}}
	for _, row := range rows {
		p := row.Product
		p.TenantID = tenantID

		cur, err := repo.FindByName(ctx, tenantID, p.Name)
		switch {
		case errors.Is(err, product.ErrNotFound):
			if err := repo.Create(ctx, &p, maxProducts); err != nil {
				if errors.Is(err, product.ErrDuplicateName) || errors.Is(err, plan.ErrLimitReached) {
					res.Errors = append(res.Errors, RowError{Row: row.Line, Message: err.Error()})
					continue
				}
				return res, err
			}
			res.Created++
		case err != nil:
			return res, err
		default:
			repriced := !cur.SamePackage(p)
			cur.SKU, cur.Unit = p.SKU, p.Unit
			cur.PackageQty, cur.PackagePrice, cur.MinStock = p.PackageQty, p.PackagePrice, p.MinStock
			if repriced {
				cur.Reprice()
			}
			if err := repo.Update(ctx, cur); err != nil {
				return res, err
			}
			if row.HasStock && !p.Stock.Equal(cur.Stock) {
				if _, err := repo.ApplyMovements(ctx, tenantID, userID, []product.BatchMovement{{
					ProductID: cur.ID,
					MovementRequest: product.MovementRequest{
						Kind:     product.Adjustment,
						Quantity: p.Stock,
						Reason:   ImportReason,
					},
				}}); err != nil {
					return res, err
				}
			}
			res.Updated++
		}
	}
	return res, nil
}
