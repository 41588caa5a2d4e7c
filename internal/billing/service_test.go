package billing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeMC777/costeo/internal/affiliate"
	"github.com/MikeMC777/costeo/internal/plan"
)

var testPrices = Prices{"professional": "price_pro", "enterprise": "price_ent"}

type harness struct {
	svc   *Service
	repo  *memRepo
	gw    *fakeGateway
	plans *fakePlans
	affs  *fakeAffiliates
}

func newHarness() *harness {
	affs := &fakeAffiliates{active: map[string]affiliate.Affiliate{
		"MARIA10": {ID: "aff-1", Code: "MARIA10", Status: affiliate.StatusActive, StripePromotionCodeID: "promo_MARIA10"},
	}}
	h := &harness{repo: newMemRepo(), gw: &fakeGateway{}, plans: &fakePlans{}, affs: affs}
	h.svc = NewService(h.repo, h.gw, h.plans, h.affs, Options{
		Prices:        testPrices,
		AppURL:        "https://app.test",
		WebhookSecret: testSecret,
	})
	return h
}

func TestPrices(t *testing.T) {
	id, err := testPrices.For(plan.Professional)
	require.NoError(t, err)
	assert.Equal(t, "price_pro", id)

	_, err = testPrices.For(plan.Free)
	assert.ErrorIs(t, err, ErrPlanNotPaid)
	_, err = Prices{}.For(plan.Enterprise)
	assert.ErrorIs(t, err, ErrPriceMissing)

	tier, ok := testPrices.Plan("price_ent")
	assert.True(t, ok)
	assert.Equal(t, plan.Enterprise, tier)
	_, ok = testPrices.Plan("")
	assert.False(t, ok)
}

func TestCheckout(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	out, err := h.svc.Checkout(ctx, "tenant-1", "owner@example.com", CheckoutRequest{Plan: "Professional", AffiliateCode: "maria10"})
	require.NoError(t, err)
	assert.Equal(t, "cs_test_1", out.SessionID)
	require.Len(t, h.gw.checkouts, 1)
	p := h.gw.checkouts[0]
	assert.Equal(t, "tenant-1", p.TenantID)
	assert.Equal(t, "price_pro", p.PriceID)
	assert.Equal(t, "professional", p.Plan)
	assert.Equal(t, "MARIA10", p.AffiliateCode)
	assert.Equal(t, "promo_MARIA10", p.PromotionCodeID)
	assert.Equal(t, "https://app.test/billing/cancel", p.CancelURL)

	_, err = h.svc.Checkout(ctx, "tenant-1", "", CheckoutRequest{Plan: "enterprise", AffiliateCode: "NOPE1234"})
	require.NoError(t, err)
	assert.Empty(t, h.gw.checkouts[1].AffiliateCode)
	assert.Empty(t, h.gw.checkouts[1].PromotionCodeID)

	_, err = h.svc.Checkout(ctx, "tenant-1", "", CheckoutRequest{Plan: "free"})
	assert.ErrorIs(t, err, ErrPlanNotPaid)
	_, err = h.svc.Checkout(ctx, "tenant-1", "", CheckoutRequest{Plan: "gold"})
	assert.ErrorIs(t, err, plan.ErrUnknownTier)

	h.gw.err = errors.New("stripe down")
	_, err = h.svc.Checkout(ctx, "tenant-1", "", CheckoutRequest{Plan: "enterprise"})
	assert.Error(t, err)

	bare := NewService(newMemRepo(), nil, &fakePlans{}, nil, Options{Prices: testPrices})
	_, err = bare.Checkout(ctx, "tenant-1", "", CheckoutRequest{Plan: "professional"})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestCancel(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	require.NoError(t, h.repo.Upsert(ctx, &Subscription{TenantID: "tenant-1", StripeSubscriptionID: "sub_1", Plan: plan.Professional, Status: StatusActive}))

	sub, err := h.svc.Cancel(ctx, "tenant-1", true)
	require.NoError(t, err)
	assert.True(t, sub.CancelAtPeriodEnd)
	assert.Equal(t, StatusActive, sub.Status)
	require.NotNil(t, sub.CurrentPeriodEnd)
	assert.Empty(t, h.plans.plans, "plan kept until period end")

	sub, err = h.svc.Cancel(ctx, "tenant-1", false)
	require.NoError(t, err)
	assert.Equal(t, StatusCanceled, sub.Status)
	assert.Equal(t, plan.Free, h.plans.plans["tenant-1"])
	assert.False(t, h.gw.cancelled["sub_1"])

	_, err = h.svc.Cancel(ctx, "tenant-1", false)
	assert.ErrorIs(t, err, ErrAlreadyCancelled)
	_, err = h.svc.Cancel(ctx, "tenant-2", false)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestChangePlan(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	require.NoError(t, h.repo.Upsert(ctx, &Subscription{TenantID: "tenant-1", StripeSubscriptionID: "sub_1", Plan: plan.Professional, Status: StatusActive}))

	sub, err := h.svc.ChangePlan(ctx, "tenant-1", "enterprise")
	require.NoError(t, err)
	assert.Equal(t, plan.Enterprise, sub.Plan)
	assert.Equal(t, "price_ent", h.gw.swapped["sub_1"])
	assert.Equal(t, plan.Enterprise, h.plans.plans["tenant-1"])

	stored, _ := h.repo.GetByTenant(ctx, "tenant-1")
	assert.Equal(t, plan.Enterprise, stored.Plan)

	_, err = h.svc.ChangePlan(ctx, "tenant-1", "free")
	assert.ErrorIs(t, err, ErrPlanNotPaid)
	_, err = h.svc.ChangePlan(ctx, "tenant-9", "professional")
	assert.ErrorIs(t, err, ErrNotFound)
}
