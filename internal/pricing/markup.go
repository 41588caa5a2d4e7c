// Package pricing implements the markup calculator: deriving a sale price from a
// cost and the percentages of the price reserved for fees, taxes and profit.
package pricing

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrNegativeCost     = errors.New("cost must be non-negative")
	ErrPercentRange     = errors.New("percentages must be between 0 and 100")
	ErrPercentTotal     = errors.New("fees, taxes and profit must add up to less than 100%")
	ErrPriceNotPositive = errors.New("price must be positive")
)

var hundred = decimal.NewFromInt(100)

type Percentages struct {
	Fees   decimal.Decimal `json:"fees_pct"`
	Taxes  decimal.Decimal `json:"taxes_pct"`
	Profit decimal.Decimal `json:"profit_pct"`
}

func (p Percentages) Total() decimal.Decimal {
	return p.Fees.Add(p.Taxes).Add(p.Profit)
}

func (p Percentages) Validate() error {
	for _, v := range []decimal.Decimal{p.Fees, p.Taxes, p.Profit} {
		if v.IsNegative() || v.GreaterThanOrEqual(hundred) {
			return ErrPercentRange
		}
	}
	if p.Total().GreaterThanOrEqual(hundred) {
		return ErrPercentTotal
	}
	return nil
}

type Result struct {
	Cost         decimal.Decimal `json:"cost"`
	Multiplier   decimal.Decimal `json:"multiplier"`
	SalePrice    decimal.Decimal `json:"sale_price"`
	FeesAmount   decimal.Decimal `json:"fees_amount"`
	TaxesAmount  decimal.Decimal `json:"taxes_amount"`
	ProfitAmount decimal.Decimal `json:"profit_amount"`
}

// Multiplier returns 100 / (100 - fees - taxes - profit), unrounded.
func Multiplier(p Percentages) (decimal.Decimal, error) {
	if err := p.Validate(); err != nil {
		return decimal.Zero, err
	}
	return hundred.Div(hundred.Sub(p.Total())), nil
}

func Markup(cost decimal.Decimal, p Percentages) (Result, error) {
	if cost.IsNegative() {
		return Result{}, ErrNegativeCost
	}
	m, err := Multiplier(p)
	if err != nil {
		return Result{}, err
	}
	// the sale price is derived from the multiplier as reported
	m = m.Round(4)
	price := cost.Mul(m).Round(2)
	fees := price.Mul(p.Fees).Div(hundred).Round(2)
	taxes := price.Mul(p.Taxes).Div(hundred).Round(2)
	return Result{
		Cost:         cost,
		Multiplier:   m,
		SalePrice:    price,
		FeesAmount:   fees,
		TaxesAmount:  taxes,
		ProfitAmount: price.Sub(cost).Sub(fees).Sub(taxes),
	}, nil
}

type MarginResult struct {
	Price        decimal.Decimal `json:"price"`
	ProfitAmount decimal.Decimal `json:"profit_amount"`
	ProfitPct    decimal.Decimal `json:"profit_pct"`
	Multiplier   decimal.Decimal `json:"multiplier"`
}

// Margin reports what profit a given price actually leaves once fees and taxes are
// taken out. A negative result means the price does not cover the cost.
func Margin(cost, price, feesPct, taxesPct decimal.Decimal) (MarginResult, error) {
	if cost.IsNegative() {
		return MarginResult{}, ErrNegativeCost
	}
	if !price.IsPositive() {
		return MarginResult{}, ErrPriceNotPositive
	}
	for _, v := range []decimal.Decimal{feesPct, taxesPct} {
		if v.IsNegative() || v.GreaterThanOrEqual(hundred) {
			return MarginResult{}, ErrPercentRange
		}
	}
	deductions := price.Mul(feesPct.Add(taxesPct)).Div(hundred)
	profit := price.Sub(cost).Sub(deductions).Round(2)
	res := MarginResult{
		Price:        price,
		ProfitAmount: profit,
		ProfitPct:    profit.Div(price).Mul(hundred).Round(2),
	}
	if cost.IsPositive() {
		res.Multiplier = price.Div(cost).Round(4)
	}
	return res, nil
}
