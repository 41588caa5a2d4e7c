// Package affiliate implements the referral program: affiliates with tracked codes,
// referrals of paying tenants and the commissions earned on their invoices.
package affiliate

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound           = errors.New("affiliate not found")
	ErrCommissionNotFound = errors.New("commission not found")
	ErrDuplicateCode      = errors.New("affiliate code already in use")
	ErrInvalid            = errors.New("invalid affiliate")
	ErrInvalidTransition  = errors.New("invalid commission status transition")
)

const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

type CommissionStatus string

const (
	Pending   CommissionStatus = "pending"
	Approved  CommissionStatus = "approved"
	Paid      CommissionStatus = "paid"
	Cancelled CommissionStatus = "cancelled"
)

var hundred = decimal.NewFromInt(100)

type Affiliate struct {
	ID                    string          `json:"id"`
	UserID                *string         `json:"user_id,omitempty"`
	Name                  string          `json:"name"`
	Email                 string          `json:"email"`
	Code                  string          `json:"code"`
	CommissionPct         decimal.Decimal `json:"commission_pct"`
	DiscountPct           decimal.Decimal `json:"discount_pct"`
	StripeCouponID        string          `json:"stripe_coupon_id,omitempty"`
	StripePromotionCodeID string          `json:"stripe_promotion_code_id,omitempty"`
	Status                string          `json:"status"`
	Clicks                int64           `json:"clicks"`
	CreatedAt             time.Time       `json:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at"`
}

func (a Affiliate) Active() bool { return a.Status == StatusActive }

type Referral struct {
	ID                   string    `json:"id"`
	AffiliateID          string    `json:"affiliate_id"`
	TenantID             string    `json:"tenant_id"`
	StripeSubscriptionID string    `json:"stripe_subscription_id"`
	CreatedAt            time.Time `json:"created_at"`
}

type Commission struct {
	ID               string           `json:"id"`
	AffiliateID      string           `json:"affiliate_id"`
	ReferralID       string           `json:"referral_id"`
	StripeInvoiceID  string           `json:"stripe_invoice_id"`
	SaleAmount       decimal.Decimal  `json:"sale_amount"`
	CommissionAmount decimal.Decimal  `json:"commission_amount"`
	Currency         string           `json:"currency"`
	Status           CommissionStatus `json:"status"`
	AvailableAt      time.Time        `json:"available_at"`
	PaidAt           *time.Time       `json:"paid_at,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// Summary is what an affiliate sees about their own program.
type Summary struct {
	Affiliate Affiliate                            `json:"affiliate"`
	Referrals int                                  `json:"referrals"`
	Totals    map[CommissionStatus]decimal.Decimal `json:"totals"`
}

// CommissionFilter narrows the back-office commission list.
type CommissionFilter struct {
	Status      CommissionStatus
	AffiliateID string
	Limit       int
	Offset      int
}

// CalcCommission is amount x pct / 100, rounded to cents.
func CalcCommission(amount, pct decimal.Decimal) decimal.Decimal {
	return amount.Mul(pct).Div(hundred).Round(2)
}

var transitions = map[CommissionStatus][]CommissionStatus{
	Pending:  {Approved, Cancelled},
	Approved: {Paid, Cancelled},
}

// CanTransition reports whether a commission may move from one status to another.
// Paid and cancelled are terminal.
func CanTransition(from, to CommissionStatus) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

func ParseCommissionStatus(s string) (CommissionStatus, error) {
	switch st := CommissionStatus(strings.ToLower(strings.TrimSpace(s))); st {
	case Pending, Approved, Paid, Cancelled:
		return st, nil
	}
	return "", fmt.Errorf("%w: unknown commission status %q", ErrInvalidTransition, s)
}

// CreateRequest payload for POST /admin/affiliates.
// swagger:model CreateAffiliateRequest
type CreateRequest struct {
	UserID        string          `json:"user_id"`
	Name          string          `json:"name"           example:"Maria Confeiteira"`
	Email         string          `json:"email"          example:"maria@example.com"`
	Code          string          `json:"code"           example:"MARIA10"`
	CommissionPct decimal.Decimal `json:"commission_pct" example:"20"`
	DiscountPct   decimal.Decimal `json:"discount_pct"   example:"10"`
}

// StatusRequest payload for the status endpoints.
// swagger:model StatusRequest
type StatusRequest struct {
	Status string `json:"status" example:"approved"`
}
