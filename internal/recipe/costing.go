package recipe

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/MikeMC777/costeo/internal/pricing"
	"github.com/MikeMC777/costeo/internal/product"
)

type Line struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Unit      string          `json:"unit"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
	LineCost  decimal.Decimal `json:"line_cost"`
}

// Costing is the cost breakdown of one recipe at current product costs.
type Costing struct {
	RecipeID        string          `json:"recipe_id"`
	Name            string          `json:"name"`
	Lines           []Line          `json:"lines"`
	IngredientsCost decimal.Decimal `json:"ingredients_cost"`
	ExtraCost       decimal.Decimal `json:"extra_cost"`
	TotalCost       decimal.Decimal `json:"total_cost"`
	YieldQty        decimal.Decimal `json:"yield_qty"`
	UnitCost        decimal.Decimal `json:"unit_cost"`
	Suggested       pricing.Result  `json:"suggested"`
}

// Cost prices every item with the unit cost of the matching product. A missing
// product means the recipe references something outside the tenant.
func Cost(r Recipe, products map[string]product.Product) (Costing, error) {
	c := Costing{
		RecipeID:  r.ID,
		Name:      r.Name,
		ExtraCost: r.ExtraCost,
		YieldQty:  r.YieldQty,
		Lines:     make([]Line, 0, len(r.Items)),
	}
	if !r.YieldQty.IsPositive() {
		return Costing{}, fmt.Errorf("%w: yield_qty must be greater than zero", ErrInvalid)
	}

	sum := decimal.Zero
	for _, it := range r.Items {
		p, ok := products[it.ProductID]
		if !ok {
			return Costing{}, fmt.Errorf("%w: product %s", product.ErrNotFound, it.ProductID)
		}
		line := it.Quantity.Mul(p.UnitCost).Round(4)
		c.Lines = append(c.Lines, Line{
			ProductID: p.ID,
			Name:      p.Name,
			Unit:      p.Unit,
			Quantity:  it.Quantity,
			UnitCost:  p.UnitCost,
			LineCost:  line,
		})
		sum = sum.Add(line)
	}

	c.IngredientsCost = sum.Round(2)
	c.TotalCost = sum.Add(r.ExtraCost).Round(2)
	c.UnitCost = sum.Add(r.ExtraCost).Div(r.YieldQty).Round(4)

	res, err := pricing.Markup(c.UnitCost, r.Percentages())
	if err != nil {
		return Costing{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	c.Suggested = res
	return c, nil
}

// ProductionReason is the ledger reason written for every ingredient consumed.
func ProductionReason(r Recipe, batches decimal.Decimal) string {
	return fmt.Sprintf("production of %s x%s", r.Name, batches.String())
}

// Production builds the exit movements that consume the ingredients of the given
// number of batches.
func Production(r Recipe, batches decimal.Decimal) ([]product.BatchMovement, error) {
	if !batches.IsPositive() {
		return nil, fmt.Errorf("%w: batches must be greater than zero", ErrInvalid)
	}
	if len(r.Items) == 0 {
		return nil, fmt.Errorf("%w: recipe has no items", ErrInvalid)
	}
	reason := ProductionReason(r, batches)
	out := make([]product.BatchMovement, 0, len(r.Items))
	for _, it := range r.Items {
		out = append(out, product.BatchMovement{
			ProductID: it.ProductID,
			MovementRequest: product.MovementRequest{
				Kind:     product.Exit,
				Quantity: it.Quantity.Mul(batches),
				Reason:   reason,
			},
		})
	}
	return out, nil
}
