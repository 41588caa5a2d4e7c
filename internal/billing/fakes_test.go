package billing

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v76"

	"github.com/MikeMC777/costeo/internal/affiliate"
	"github.com/MikeMC777/costeo/internal/plan"
)

type memRepo struct {
	mu     sync.Mutex
	subs   map[string]*Subscription // by tenant
	events map[string]string
}

func newMemRepo() *memRepo {
	return &memRepo{subs: map[string]*Subscription{}, events: map[string]string{}}
}

func (m *memRepo) Upsert(_ context.Context, s *Subscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.subs[s.TenantID] = &cp
	return nil
}

func (m *memRepo) GetByTenant(_ context.Context, tenantID string) (*Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.subs[tenantID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *memRepo) GetBySubscriptionID(_ context.Context, id string) (*Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.subs {
		if s.StripeSubscriptionID == id {
			cp := *s
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memRepo) SetStatus(_ context.Context, id string, status Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.subs {
		if s.StripeSubscriptionID == id {
			s.Status = status
			return nil
		}
	}
	return ErrNotFound
}

func (m *memRepo) List(_ context.Context, status string, _, _ int) ([]Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []Subscription{}
	for _, s := range m.subs {
		if status == "" || string(s.Status) == status {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (m *memRepo) ClaimEvent(_ context.Context, id, typ string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.events[id]; ok {
		return false, nil
	}
	m.events[id] = typ
	return true, nil
}

func (m *memRepo) ReleaseEvent(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.events, id)
	return nil
}

type fakeGateway struct {
	checkouts []CheckoutParams
	cancelled map[string]bool // subscription -> at period end
	swapped   map[string]string
	err       error
}

func (f *fakeGateway) CreateCheckout(_ context.Context, p CheckoutParams) (*stripe.CheckoutSession, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.checkouts = append(f.checkouts, p)
	return &stripe.CheckoutSession{ID: "cs_test_1", URL: "https://checkout.stripe.test/cs_test_1"}, nil
}

func (f *fakeGateway) CancelSubscription(_ context.Context, id string, atPeriodEnd bool) (*stripe.Subscription, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.cancelled == nil {
		f.cancelled = map[string]bool{}
	}
	f.cancelled[id] = atPeriodEnd
	st := &stripe.Subscription{ID: id, Status: stripe.SubscriptionStatusActive, CancelAtPeriodEnd: atPeriodEnd, CurrentPeriodEnd: 1780000000}
	if !atPeriodEnd {
		st.Status = stripe.SubscriptionStatusCanceled
	}
	return st, nil
}

func (f *fakeGateway) ChangePrice(_ context.Context, id, priceID string) (*stripe.Subscription, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.swapped == nil {
		f.swapped = map[string]string{}
	}
	f.swapped[id] = priceID
	return &stripe.Subscription{ID: id, Status: stripe.SubscriptionStatusActive}, nil
}

func (f *fakeGateway) CreatePromotion(_ context.Context, code string, _ decimal.Decimal) (string, string, error) {
	return "coupon_" + code, "promo_" + code, nil
}

func (f *fakeGateway) SetPromotionActive(context.Context, string, bool) error { return nil }

type fakePlans struct {
	mu    sync.Mutex
	plans map[string]plan.Tier
}

func (f *fakePlans) SetPlan(_ context.Context, tenantID string, tier plan.Tier) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.plans == nil {
		f.plans = map[string]plan.Tier{}
	}
	f.plans[tenantID] = tier
	return nil
}

type fakeAffiliates struct {
	active    map[string]affiliate.Affiliate
	referrals map[string]string // tenant -> code
	invoices  []affiliate.InvoicePaid
}

func (f *fakeAffiliates) ActiveByCode(_ context.Context, code string) (*affiliate.Affiliate, error) {
	a, ok := f.active[affiliate.NormalizeCode(code)]
	if !ok {
		return nil, affiliate.ErrNotFound
	}
	return &a, nil
}

func (f *fakeAffiliates) RecordReferral(_ context.Context, code, tenantID, _ string) (*affiliate.Referral, error) {
	if code == "" {
		return nil, nil
	}
	if f.referrals == nil {
		f.referrals = map[string]string{}
	}
	f.referrals[tenantID] = code
	return &affiliate.Referral{TenantID: tenantID}, nil
}

func (f *fakeAffiliates) RecordInvoicePaid(_ context.Context, inv affiliate.InvoicePaid) (*affiliate.Commission, error) {
	f.invoices = append(f.invoices, inv)
	return &affiliate.Commission{StripeInvoiceID: inv.InvoiceID}, nil
}
