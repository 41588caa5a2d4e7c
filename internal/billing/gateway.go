package billing

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// CheckoutParams describes a subscription checkout for one tenant.
type CheckoutParams struct {
	TenantID        string
	Email           string
	Plan            string
	PriceID         string
	AffiliateCode   string
	PromotionCodeID string
	SuccessURL      string
	CancelURL       string
}

// Gateway is the slice of the Stripe API the billing service uses.
type Gateway interface {
	CreateCheckout(ctx context.Context, p CheckoutParams) (*stripe.CheckoutSession, error)
	CancelSubscription(ctx context.Context, subscriptionID string, atPeriodEnd bool) (*stripe.Subscription, error)
	ChangePrice(ctx context.Context, subscriptionID, priceID string) (*stripe.Subscription, error)
	CreatePromotion(ctx context.Context, code string, percentOff decimal.Decimal) (couponID, promotionCodeID string, err error)
	SetPromotionActive(ctx context.Context, promotionCodeID string, active bool) error
}

type StripeGateway struct {
	api *client.API
}

func NewStripeGateway(secretKey string) *StripeGateway {
	return &StripeGateway{api: client.New(secretKey, nil)}
}

func (g *StripeGateway) CreateCheckout(ctx context.Context, p CheckoutParams) (*stripe.CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		ClientReferenceID: stripe.String(p.TenantID),
		SuccessURL:        stripe.String(p.SuccessURL),
		CancelURL:         stripe.String(p.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{Price: stripe.String(p.PriceID), Quantity: stripe.Int64(1)},
		},
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: map[string]string{"tenant_id": p.TenantID, "plan": p.Plan},
		},
	}
	if p.Email != "" {
		params.CustomerEmail = stripe.String(p.Email)
	}
	if p.PromotionCodeID != "" {
		params.Discounts = []*stripe.CheckoutSessionDiscountParams{
			{PromotionCode: stripe.String(p.PromotionCodeID)},
		}
	} else {
		params.AllowPromotionCodes = stripe.Bool(true)
	}
	params.Context = ctx
	params.AddMetadata("tenant_id", p.TenantID)
	params.AddMetadata("plan", p.Plan)
	params.AddMetadata("affiliate_code", p.AffiliateCode)
	return g.api.CheckoutSessions.New(params)
}

func (g *StripeGateway) CancelSubscription(ctx context.Context, id string, atPeriodEnd bool) (*stripe.Subscription, error) {
	if atPeriodEnd {
		params := &stripe.SubscriptionParams{CancelAtPeriodEnd: stripe.Bool(true)}
		params.Context = ctx
		return g.api.Subscriptions.Update(id, params)
	}
	params := &stripe.SubscriptionCancelParams{}
	params.Context = ctx
	return g.api.Subscriptions.Cancel(id, params)
}

// ChangePrice swaps the price of the subscription's single item, prorating the
// difference.
func (g *StripeGateway) ChangePrice(ctx context.Context, id, priceID string) (*stripe.Subscription, error) {
	get := &stripe.SubscriptionParams{}
	get.Context = ctx
	sub, err := g.api.Subscriptions.Get(id, get)
	if err != nil {
		return nil, err
	}
	if sub.Items == nil || len(sub.Items.Data) == 0 {
		return nil, errors.New("subscription has no items")
	}
	params := &stripe.SubscriptionParams{
		Items: []*stripe.SubscriptionItemsParams{
			{ID: stripe.String(sub.Items.Data[0].ID), Price: stripe.String(priceID)},
		},
		ProrationBehavior: stripe.String("create_prorations"),
		CancelAtPeriodEnd: stripe.Bool(false),
	}
	params.Context = ctx
	return g.api.Subscriptions.Update(id, params)
}

// CreatePromotion creates a forever percent-off coupon and a customer facing
// promotion code with the same text as the affiliate code.
func (g *StripeGateway) CreatePromotion(ctx context.Context, code string, percentOff decimal.Decimal) (string, string, error) {
	cp := &stripe.CouponParams{
		Name:       stripe.String("Affiliate " + code),
		PercentOff: stripe.Float64(percentOff.InexactFloat64()),
		Duration:   stripe.String(string(stripe.CouponDurationForever)),
	}
	cp.Context = ctx
	coupon, err := g.api.Coupons.New(cp)
	if err != nil {
		return "", "", fmt.Errorf("coupon: %w", err)
	}
	pp := &stripe.PromotionCodeParams{
		Coupon: stripe.String(coupon.ID),
		Code:   stripe.String(code),
	}
	pp.Context = ctx
	promo, err := g.api.PromotionCodes.New(pp)
	if err != nil {
		return "", "", fmt.Errorf("promotion code: %w", err)
	}
	return coupon.ID, promo.ID, nil
}

func (g *StripeGateway) SetPromotionActive(ctx context.Context, id string, active bool) error {
	params := &stripe.PromotionCodeParams{Active: stripe.Bool(active)}
	params.Context = ctx
	_, err := g.api.PromotionCodes.Update(id, params)
	return err
}
