// Package billing runs paid plans through Stripe: checkout sessions, the webhook
// that keeps subscriptions and tenant plans in sync, and back-office plan changes.
package billing

import (
	"errors"
	"time"

	"github.com/MikeMC777/costeo/internal/plan"
)

var (
	ErrNotFound         = errors.New("subscription not found")
	ErrPlanNotPaid      = errors.New("plan is not a paid plan")
	ErrPriceMissing     = errors.New("no stripe price configured for plan")
	ErrBadSignature     = errors.New("invalid webhook signature")
	ErrPayloadTooLarge  = errors.New("webhook payload too large")
	ErrNotConfigured    = errors.New("stripe is not configured")
	ErrAlreadyCancelled = errors.New("subscription already cancelled")
)

// MaxWebhookBytes caps the webhook body.
const MaxWebhookBytes = 1 << 20

type Status string

const (
	StatusActive     Status = "active"
	StatusTrialing   Status = "trialing"
	StatusPastDue    Status = "past_due"
	StatusCanceled   Status = "canceled"
	StatusUnpaid     Status = "unpaid"
	StatusIncomplete Status = "incomplete"
)

// Entitled reports whether a subscription in this status keeps its paid plan.
// past_due keeps it while Stripe retries the charge.
func (s Status) Entitled() bool {
	return s == StatusActive || s == StatusTrialing || s == StatusPastDue
}

type Subscription struct {
	TenantID             string     `json:"tenant_id"`
	StripeCustomerID     string     `json:"stripe_customer_id"`
	StripeSubscriptionID string     `json:"stripe_subscription_id"`
	Plan                 plan.Tier  `json:"plan"`
	Status               Status     `json:"status"`
	CurrentPeriodEnd     *time.Time `json:"current_period_end,omitempty"`
	CancelAtPeriodEnd    bool       `json:"cancel_at_period_end"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// Prices maps plan names to Stripe price ids.
type Prices map[string]string

func (p Prices) For(t plan.Tier) (string, error) {
	if !t.Paid() {
		return "", ErrPlanNotPaid
	}
	id := p[string(t)]
	if id == "" {
		return "", ErrPriceMissing
	}
	return id, nil
}

// Plan resolves a Stripe price id back to the plan it sells.
func (p Prices) Plan(priceID string) (plan.Tier, bool) {
	for name, id := range p {
		if id != "" && id == priceID {
			return plan.Tier(name), true
		}
	}
	return "", false
}

// CheckoutRequest payload for POST /billing/checkout.
// swagger:model CheckoutRequest
type CheckoutRequest struct {
	Plan          string `json:"plan"           example:"professional"`
	AffiliateCode string `json:"affiliate_code" example:"MARIA10"`
}

// CheckoutResponse is the hosted checkout page to redirect the customer to.
// swagger:model CheckoutResponse
type CheckoutResponse struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}

// CancelRequest payload for POST /admin/subscriptions/:tenant_id/cancel.
// swagger:model CancelRequest
type CancelRequest struct {
	AtPeriodEnd bool `json:"at_period_end"`
}

// PlanRequest payload for PUT /admin/subscriptions/:tenant_id/plan.
// swagger:model PlanRequest
type PlanRequest struct {
	Plan string `json:"plan" example:"enterprise"`
}
