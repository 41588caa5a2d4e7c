// Package report renders the PDF documents: the recipe cost sheet and the stock
// report.
package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"

	"github.com/MikeMC777/costeo/internal/product"
	"github.com/MikeMC777/costeo/internal/recipe"
)

type doc struct {
	pdf *gofpdf.Fpdf
	tr  func(string) string
}

func newDoc(title string, now time.Time) *doc {
	pdf := gofpdf.New("P", "mm", "A4", "")
	d := &doc{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}
	pdf.SetTitle(title, true)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, d.tr(title), "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 6, "Generated "+now.Format("2006-01-02 15:04"), "", 1, "C", false, 0, "")
	pdf.Ln(5)
	return d
}

func (d *doc) header(widths []float64, cols ...string) {
	d.pdf.SetFont("Arial", "B", 10)
	d.pdf.SetFillColor(230, 230, 230)
	for i, c := range cols {
		ln := 0
		if i == len(cols)-1 {
			ln = 1
		}
		d.pdf.CellFormat(widths[i], 8, d.tr(c), "1", ln, "C", true, 0, "")
	}
	d.pdf.SetFont("Arial", "", 10)
}

func (d *doc) row(widths []float64, aligns []string, cells ...string) {
	for i, c := range cells {
		ln := 0
		if i == len(cells)-1 {
			ln = 1
		}
		d.pdf.CellFormat(widths[i], 7, d.tr(c), "1", ln, aligns[i], false, 0, "")
	}
}

func (d *doc) line(label, value string) {
	d.pdf.SetFont("Arial", "B", 11)
	d.pdf.CellFormat(70, 7, d.tr(label), "", 0, "L", false, 0, "")
	d.pdf.SetFont("Arial", "", 11)
	d.pdf.CellFormat(0, 7, d.tr(value), "", 1, "L", false, 0, "")
}

func (d *doc) bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := d.pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func money(v decimal.Decimal) string { return v.StringFixed(2) }

// RecipeSheet renders the cost breakdown and the suggested price of a recipe.
func RecipeSheet(c recipe.Costing, now time.Time) ([]byte, error) {
	d := newDoc("Cost sheet: "+c.Name, now)

	widths := []float64{70, 20, 30, 35, 35}
	aligns := []string{"L", "C", "R", "R", "R"}
	d.header(widths, "Ingredient", "Unit", "Quantity", "Unit cost", "Line cost")
	for _, l := range c.Lines {
		d.row(widths, aligns, l.Name, l.Unit, l.Quantity.String(), l.UnitCost.StringFixed(4), money(l.LineCost))
	}
	d.pdf.Ln(6)

	d.line("Ingredients", money(c.IngredientsCost))
	d.line("Extra costs", money(c.ExtraCost))
	d.line("Total cost", money(c.TotalCost))
	d.line("Yield", c.YieldQty.String())
	d.line("Unit cost", c.UnitCost.StringFixed(4))
	d.pdf.Ln(4)
	d.line("Markup multiplier", c.Suggested.Multiplier.String())
	d.line("Suggested price", money(c.Suggested.SalePrice))
	d.line("Fees", money(c.Suggested.FeesAmount))
	d.line("Taxes", money(c.Suggested.TaxesAmount))
	d.line("Profit", money(c.Suggested.ProfitAmount))
	return d.bytes()
}

// StockReport lists every product with its stock value and flags low stock.
func StockReport(ps []product.Product, now time.Time) ([]byte, error) {
	d := newDoc("Stock report", now)

	widths := []float64{60, 15, 25, 25, 30, 35}
	aligns := []string{"L", "C", "R", "R", "R", "R"}
	d.header(widths, "Product", "Unit", "Stock", "Minimum", "Unit cost", "Value")

	low := 0
	for _, p := range ps {
		name := p.Name
		if p.LowStock() {
			low++
			name += " *"
		}
		d.row(widths, aligns, name, p.Unit, p.Stock.String(), p.MinStock.String(), p.UnitCost.StringFixed(4), money(p.Value()))
	}
	d.pdf.Ln(6)

	d.line("Products", fmt.Sprintf("%d", len(ps)))
	d.line("Low stock (*)", fmt.Sprintf("%d", low))
	d.line("Inventory value", money(product.InventoryValue(ps)))
	return d.bytes()
}
