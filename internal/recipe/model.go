// Package recipe holds recipes (bills of materials over tenant products) and the
// costing that turns them into a unit cost and a suggested price.
package recipe

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MikeMC777/costeo/internal/pricing"
)

var (
	ErrNotFound = errors.New("recipe not found")
	ErrInvalid  = errors.New("invalid recipe")
)

type Recipe struct {
	ID        string          `json:"id"`
	TenantID  string          `json:"tenant_id"`
	Name      string          `json:"name"`
	YieldQty  decimal.Decimal `json:"yield_qty"`
	ExtraCost decimal.Decimal `json:"extra_cost"`
	FeesPct   decimal.Decimal `json:"fees_pct"`
	TaxesPct  decimal.Decimal `json:"taxes_pct"`
	ProfitPct decimal.Decimal `json:"profit_pct"`
	Notes     string          `json:"notes,omitempty"`
	Items     []Item          `json:"items"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type Item struct {
	ID        string          `json:"id"`
	RecipeID  string          `json:"recipe_id"`
	ProductID string          `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
}

func (r Recipe) Percentages() pricing.Percentages {
	return pricing.Percentages{Fees: r.FeesPct, Taxes: r.TaxesPct, Profit: r.ProfitPct}
}

func (r *Recipe) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Notes = strings.TrimSpace(r.Notes)
}

func (r Recipe) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalid)
	}
	if len(r.Name) > 120 {
		return fmt.Errorf("%w: name is too long", ErrInvalid)
	}
	if !r.YieldQty.IsPositive() {
		return fmt.Errorf("%w: yield_qty must be greater than zero", ErrInvalid)
	}
	if r.ExtraCost.IsNegative() {
		return fmt.Errorf("%w: extra_cost must be non-negative", ErrInvalid)
	}
	if err := r.Percentages().Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if len(r.Items) == 0 {
		return fmt.Errorf("%w: at least one item is required", ErrInvalid)
	}
	seen := make(map[string]bool, len(r.Items))
	for i, it := range r.Items {
		if it.ProductID == "" {
			return fmt.Errorf("%w: item %d has no product_id", ErrInvalid, i+1)
		}
		if !it.Quantity.IsPositive() {
			return fmt.Errorf("%w: item %d quantity must be greater than zero", ErrInvalid, i+1)
		}
		if seen[it.ProductID] {
			return fmt.Errorf("%w: product %s appears twice", ErrInvalid, it.ProductID)
		}
		seen[it.ProductID] = true
	}
	return nil
}

// ProductIDs lists the products the recipe consumes, in item order.
func (r Recipe) ProductIDs() []string {
	out := make([]string, 0, len(r.Items))
	for _, it := range r.Items {
		out = append(out, it.ProductID)
	}
	return out
}

// RecipeRequest payload for POST/PUT /recipes.
// swagger:model RecipeRequest
type RecipeRequest struct {
	Name      string          `json:"name"       example:"Chocolate cake"`
	YieldQty  decimal.Decimal `json:"yield_qty"  example:"12"`
	ExtraCost decimal.Decimal `json:"extra_cost" example:"3.50"`
	FeesPct   decimal.Decimal `json:"fees_pct"   example:"5"`
	TaxesPct  decimal.Decimal `json:"taxes_pct"  example:"8"`
	ProfitPct decimal.Decimal `json:"profit_pct" example:"30"`
	Notes     string          `json:"notes"`
	Items     []ItemRequest   `json:"items"`
}

type ItemRequest struct {
	ProductID string          `json:"product_id" example:"4e7d4e5c-5cb9-4a3f-9f21-7e1a4f9f2b2a"`
	Quantity  decimal.Decimal `json:"quantity"   example:"0.5"`
}

func (in RecipeRequest) Recipe(tenantID string) Recipe {
	r := Recipe{
		TenantID:  tenantID,
		Name:      in.Name,
		YieldQty:  in.YieldQty,
		ExtraCost: in.ExtraCost,
		FeesPct:   in.FeesPct,
		TaxesPct:  in.TaxesPct,
		ProfitPct: in.ProfitPct,
		Notes:     in.Notes,
	}
	for _, it := range in.Items {
		r.Items = append(r.Items, Item{ProductID: strings.TrimSpace(it.ProductID), Quantity: it.Quantity})
	}
	r.Normalize()
	return r
}

// ProduceRequest payload for POST /recipes/:id/produce.
// swagger:model ProduceRequest
type ProduceRequest struct {
	Batches decimal.Decimal `json:"batches" example:"2"`
}
