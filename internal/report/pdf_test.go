package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeMC777/costeo/internal/product"
	"github.com/MikeMC777/costeo/internal/recipe"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

var now = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

func TestRecipeSheet(t *testing.T) {
	r := recipe.Recipe{
		Name: "Pão de queijo", YieldQty: d("20"), ExtraCost: d("2"),
		FeesPct: d("5"), TaxesPct: d("10"), ProfitPct: d("25"),
		Items: []recipe.Item{{ProductID: "p1", Quantity: d("0.5")}},
	}
	c, err := recipe.Cost(r, map[string]product.Product{
		"p1": {ID: "p1", Name: "Polvilho", Unit: "kg", UnitCost: d("12")},
	})
	require.NoError(t, err)

	out, err := RecipeSheet(c, now)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
}

func TestStockReport(t *testing.T) {
	out, err := StockReport([]product.Product{
		{Name: "Açúcar", Unit: "kg", Stock: d("1"), MinStock: d("2"), UnitCost: d("4.5")},
		{Name: "Farinha", Unit: "kg", Stock: d("10"), MinStock: d("2"), UnitCost: d("5")},
	}, now)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))

	empty, err := StockReport(nil, now)
	require.NoError(t, err)
	assert.NotEmpty(t, empty)
}
