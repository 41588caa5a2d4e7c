package product

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound      = errors.New("product not found")
	ErrDuplicateName = errors.New("product with this name already exists")
	ErrInvalid       = errors.New("invalid product")
	ErrInUse         = errors.New("product is used by a recipe")
)

// Decimal places stored for money and quantity columns.
const (
	MoneyPlaces int32 = 2
	QtyPlaces   int32 = 4
)

// Units accepted for stock keeping.
var Units = []string{"un", "kg", "g", "l", "ml", "cx"}

// Product is a raw material or resale item owned by a tenant.
// NUMERIC columns are read as text and carried as decimals to avoid rounding errors.
type Product struct {
	ID           string          `json:"id"`
	TenantID     string          `json:"tenant_id"`
	Name         string          `json:"name"`
	SKU          string          `json:"sku,omitempty"`
	Unit         string          `json:"unit"`
	PackageQty   decimal.Decimal `json:"package_qty"`
	PackagePrice decimal.Decimal `json:"package_price"`
	UnitCost     decimal.Decimal `json:"unit_cost"`
	Stock        decimal.Decimal `json:"stock"`
	MinStock     decimal.Decimal `json:"min_stock"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// LowStock reports whether the product is at or below its minimum.
func (p Product) LowStock() bool {
	return p.Stock.LessThanOrEqual(p.MinStock)
}

// Value is what the stock on hand cost.
func (p Product) Value() decimal.Decimal {
	return p.Stock.Mul(p.UnitCost).Round(2)
}

// Normalize trims the text fields.
func (p *Product) Normalize() {
	p.Name = strings.TrimSpace(p.Name)
	p.SKU = strings.TrimSpace(p.SKU)
	p.Unit = strings.ToLower(strings.TrimSpace(p.Unit))
}

// Reprice sets the unit cost from the package data. Entry movements keep a
// weighted average in UnitCost, so only call it when the package changed.
func (p *Product) Reprice() {
	if p.PackageQty.IsPositive() {
		p.UnitCost = p.PackagePrice.Div(p.PackageQty).Round(4)
	}
}

// SamePackage reports whether o has the package quantity and price of p.
func (p Product) SamePackage(o Product) bool {
	return p.PackageQty.Equal(o.PackageQty) && p.PackagePrice.Equal(o.PackagePrice)
}

func (p Product) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalid)
	}
	if len(p.Name) > 120 {
		return fmt.Errorf("%w: name is too long", ErrInvalid)
	}
	if !validUnit(p.Unit) {
		return fmt.Errorf("%w: unit must be one of %s", ErrInvalid, strings.Join(Units, ", "))
	}
	if !p.PackageQty.IsPositive() {
		return fmt.Errorf("%w: package_qty must be greater than zero", ErrInvalid)
	}
	if p.PackagePrice.IsNegative() {
		return fmt.Errorf("%w: package_price must be non-negative", ErrInvalid)
	}
	if p.Stock.IsNegative() {
		return fmt.Errorf("%w: stock must be non-negative", ErrInvalid)
	}
	if p.MinStock.IsNegative() {
		return fmt.Errorf("%w: min_stock must be non-negative", ErrInvalid)
	}
	if !fits(p.PackagePrice, MoneyPlaces) {
		return fmt.Errorf("%w: package_price accepts at most %d decimal places", ErrInvalid, MoneyPlaces)
	}
	qtys := []struct {
		name string
		v    decimal.Decimal
	}{{"package_qty", p.PackageQty}, {"stock", p.Stock}, {"min_stock", p.MinStock}}
	for _, q := range qtys {
		if !fits(q.v, QtyPlaces) {
			return fmt.Errorf("%w: %s accepts at most %d decimal places", ErrInvalid, q.name, QtyPlaces)
		}
	}
	return nil
}

// fits reports whether v has no more than places significant decimals.
func fits(v decimal.Decimal, places int32) bool {
	return v.Equal(v.Round(places))
}

func validUnit(u string) bool {
	for _, x := range Units {
		if u == x {
			return true
		}
	}
	return false
}

// HTTPError represents a standard error in JSON.
// swagger:model
type HTTPError struct {
	// Error message
	// example: not found
	Error string `json:"error"`
}

// ListResponse represents the paginated response of products.
// swagger:model
type ListResponse struct {
	Q      string    `json:"q,omitempty"`
	Limit  int       `json:"limit"`
	Offset int       `json:"offset"`
	Items  []Product `json:"items"`
}

// CreateProductRequest payload of creation.
// swagger:model CreateProductRequest
type CreateProductRequest struct {
	Name         string          `json:"name"          example:"Farinha de trigo"`
	SKU          string          `json:"sku"           example:"FT-5KG"`
	Unit         string          `json:"unit"          example:"kg"`
	PackageQty   decimal.Decimal `json:"package_qty"   example:"5"`
	PackagePrice decimal.Decimal `json:"package_price" example:"24.90"`
	Stock        decimal.Decimal `json:"stock"         example:"10"`
	MinStock     decimal.Decimal `json:"min_stock"     example:"2"`
}

// UpdateProductRequest payload of partial update. Stock only changes through
// movements, so it is not part of this payload.
// swagger:model UpdateProductRequest
type UpdateProductRequest struct {
	Name         *string          `json:"name"`
	SKU          *string          `json:"sku"`
	Unit         *string          `json:"unit"`
	PackageQty   *decimal.Decimal `json:"package_qty"`
	PackagePrice *decimal.Decimal `json:"package_price"`
	MinStock     *decimal.Decimal `json:"min_stock"`
}

// Apply copies the present fields onto p and reports whether the package
// quantity or price was part of the request.
func (r UpdateProductRequest) Apply(p *Product) (repriced bool) {
	if r.Name != nil {
		p.Name = *r.Name
	}
	if r.SKU != nil {
		p.SKU = *r.SKU
	}
	if r.Unit != nil {
		p.Unit = *r.Unit
	}
	if r.PackageQty != nil {
		p.PackageQty = *r.PackageQty
	}
	if r.PackagePrice != nil {
		p.PackagePrice = *r.PackagePrice
	}
	if r.MinStock != nil {
		p.MinStock = *r.MinStock
	}
	return r.PackageQty != nil || r.PackagePrice != nil
}
