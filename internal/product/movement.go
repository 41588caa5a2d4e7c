package product

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

var (
	ErrInsufficientStock = errors.New("quantity exceeds current stock")
	ErrInvalidMovement   = errors.New("invalid movement")
)

const (
	MinReasonLen = 10
	MaxReasonLen = 500
)

type MovementKind string

const (
	Entry      MovementKind = "entry"
	Exit       MovementKind = "exit"
	Adjustment MovementKind = "adjustment"
)

// Movement is one row of the stock ledger.
type Movement struct {
	ID          string              `json:"id"`
	TenantID    string              `json:"tenant_id"`
	ProductID   string              `json:"product_id"`
	Kind        MovementKind        `json:"kind"`
	Quantity    decimal.Decimal     `json:"quantity"`
	UnitCost    decimal.NullDecimal `json:"unit_cost"`
	Reason      string              `json:"reason"`
	StockBefore decimal.Decimal     `json:"stock_before"`
	StockAfter  decimal.Decimal     `json:"stock_after"`
	CreatedBy   string              `json:"created_by"`
	CreatedAt   time.Time           `json:"created_at"`
}

// MovementRequest payload for POST /products/:id/movements.
// swagger:model MovementRequest
type MovementRequest struct {
	Kind     MovementKind     `json:"kind"      example:"exit"`
	Quantity decimal.Decimal  `json:"quantity"  example:"1.5"`
	UnitCost *decimal.Decimal `json:"unit_cost" example:"4.98"`
	Reason   string           `json:"reason"    example:"Used in the weekend production"`
}

// BatchMovement targets one product inside a multi-product write.
type BatchMovement struct {
	ProductID string
	MovementRequest
}

// ValidateReason returns the trimmed reason or an error when its length is outside
// MinReasonLen..MaxReasonLen characters.
func ValidateReason(reason string) (string, error) {
	r := strings.TrimSpace(reason)
	n := utf8.RuneCountInString(r)
	if n < MinReasonLen || n > MaxReasonLen {
		return "", fmt.Errorf("%w: reason must be between %d and %d characters", ErrInvalidMovement, MinReasonLen, MaxReasonLen)
	}
	return r, nil
}

// Apply validates req against the product's current stock and mutates p to the
// post-movement state. The returned Movement carries the before/after snapshot.
func Apply(p *Product, req MovementRequest) (Movement, error) {
	reason, err := ValidateReason(req.Reason)
	if err != nil {
		return Movement{}, err
	}
	if req.Quantity.IsNegative() {
		return Movement{}, fmt.Errorf("%w: quantity must be positive", ErrInvalidMovement)
	}
	if req.Kind != Adjustment && req.Quantity.IsZero() {
		return Movement{}, fmt.Errorf("%w: quantity must be positive", ErrInvalidMovement)
	}

	m := Movement{
		TenantID:    p.TenantID,
		ProductID:   p.ID,
		Kind:        req.Kind,
		Quantity:    req.Quantity,
		Reason:      reason,
		StockBefore: p.Stock,
	}

	switch req.Kind {
	case Entry:
		if req.UnitCost != nil {
			if req.UnitCost.IsNegative() {
				return Movement{}, fmt.Errorf("%w: unit_cost must be non-negative", ErrInvalidMovement)
			}
			total := p.Stock.Add(req.Quantity)
			p.UnitCost = p.Stock.Mul(p.UnitCost).Add(req.Quantity.Mul(*req.UnitCost)).Div(total).Round(4)
			m.UnitCost = decimal.NewNullDecimal(*req.UnitCost)
		}
		p.Stock = p.Stock.Add(req.Quantity)
	case Exit:
		if req.Quantity.GreaterThan(p.Stock) {
			return Movement{}, ErrInsufficientStock
		}
		p.Stock = p.Stock.Sub(req.Quantity)
	case Adjustment:
		p.Stock = req.Quantity
	default:
		return Movement{}, fmt.Errorf("%w: kind must be entry, exit or adjustment", ErrInvalidMovement)
	}

	m.StockAfter = p.Stock
	return m, nil
}
