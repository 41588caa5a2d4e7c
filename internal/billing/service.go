package billing

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v76"

	"github.com/MikeMC777/costeo/internal/affiliate"
	"github.com/MikeMC777/costeo/internal/plan"
)

// PlanSetter changes the plan a tenant is entitled to. The user-service client
// implements it.
type PlanSetter interface {
	SetPlan(ctx context.Context, tenantID string, tier plan.Tier) error
}

// Affiliates is what billing needs from the referral program.
type Affiliates interface {
	ActiveByCode(ctx context.Context, code string) (*affiliate.Affiliate, error)
	RecordReferral(ctx context.Context, code, tenantID, subscriptionID string) (*affiliate.Referral, error)
	RecordInvoicePaid(ctx context.Context, inv affiliate.InvoicePaid) (*affiliate.Commission, error)
}

type Options struct {
	Prices        Prices
	AppURL        string
	WebhookSecret string
}

type Service struct {
	repo       Repository
	gateway    Gateway
	plans      PlanSetter
	affiliates Affiliates
	opts       Options
	events     *prometheus.CounterVec
	now        func() time.Time
}

// NewService wires billing. gateway may be nil when no Stripe key is configured;
// calls that need Stripe then fail with ErrNotConfigured.
func NewService(repo Repository, gateway Gateway, plans PlanSetter, affiliates Affiliates, opts Options) *Service {
	return &Service{
		repo:       repo,
		gateway:    gateway,
		plans:      plans,
		affiliates: affiliates,
		opts:       opts,
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "costeo",
			Name:      "stripe_webhook_events_total",
			Help:      "Stripe webhook events by type and outcome",
		}, []string{"type", "result"}),
		now: time.Now,
	}
}

// Collector exposes the webhook counter for registration.
func (s *Service) Collector() prometheus.Collector { return s.events }

func (s *Service) Checkout(ctx context.Context, tenantID, email string, in CheckoutRequest) (*CheckoutResponse, error) {
	tier, err := plan.Parse(in.Plan)
	if err != nil {
		return nil, err
	}
	price, err := s.opts.Prices.For(tier)
	if err != nil {
		return nil, err
	}
	if s.gateway == nil {
		return nil, ErrNotConfigured
	}

	p := CheckoutParams{
		TenantID:   tenantID,
		Email:      email,
		Plan:       string(tier),
		PriceID:    price,
		SuccessURL: s.opts.AppURL + "/billing/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  s.opts.AppURL + "/billing/cancel",
	}
	if in.AffiliateCode != "" && s.affiliates != nil {
		a, err := s.affiliates.ActiveByCode(ctx, in.AffiliateCode)
		switch {
		case errors.Is(err, affiliate.ErrNotFound):
			logrus.WithField("code", in.AffiliateCode).Info("[billing] checkout with unknown affiliate code")
		case err != nil:
			return nil, err
		default:
			p.AffiliateCode = a.Code
			p.PromotionCodeID = a.StripePromotionCodeID
		}
	}

	sess, err := s.gateway.CreateCheckout(ctx, p)
	if err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{"tenant": tenantID, "plan": tier, "session": sess.ID}).Info("[billing] checkout created")
	return &CheckoutResponse{SessionID: sess.ID, URL: sess.URL}, nil
}

func (s *Service) Subscription(ctx context.Context, tenantID string) (*Subscription, error) {
	return s.repo.GetByTenant(ctx, tenantID)
}

func (s *Service) List(ctx context.Context, status string, limit, offset int) ([]Subscription, error) {
	return s.repo.List(ctx, status, limit, offset)
}

// Cancel ends a tenant's subscription now or at the end of the paid period.
// Immediate cancellation drops the tenant to free right away.
func (s *Service) Cancel(ctx context.Context, tenantID string, atPeriodEnd bool) (*Subscription, error) {
	if s.gateway == nil {
		return nil, ErrNotConfigured
	}
	sub, err := s.repo.GetByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if sub.Status == StatusCanceled {
		return nil, ErrAlreadyCancelled
	}
	st, err := s.gateway.CancelSubscription(ctx, sub.StripeSubscriptionID, atPeriodEnd)
	if err != nil {
		return nil, err
	}
	applyStripe(sub, st)
	if !atPeriodEnd {
		sub.Status = StatusCanceled
	}
	if err := s.repo.Upsert(ctx, sub); err != nil {
		return nil, err
	}
	if !sub.Status.Entitled() {
		if err := s.plans.SetPlan(ctx, tenantID, plan.Free); err != nil {
			return nil, err
		}
	}
	logrus.WithFields(logrus.Fields{"tenant": tenantID, "at_period_end": atPeriodEnd}).Info("[billing] subscription cancelled")
	return sub, nil
}

// ChangePlan moves an active subscription to another paid plan.
func (s *Service) ChangePlan(ctx context.Context, tenantID, planName string) (*Subscription, error) {
	tier, err := plan.Parse(planName)
	if err != nil {
		return nil, err
	}
	price, err := s.opts.Prices.For(tier)
	if err != nil {
		return nil, err
	}
	if s.gateway == nil {
		return nil, ErrNotConfigured
	}
	sub, err := s.repo.GetByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if sub.Status == StatusCanceled {
		return nil, ErrAlreadyCancelled
	}
	st, err := s.gateway.ChangePrice(ctx, sub.StripeSubscriptionID, price)
	if err != nil {
		return nil, err
	}
	applyStripe(sub, st)
	sub.Plan = tier
	if err := s.repo.Upsert(ctx, sub); err != nil {
		return nil, err
	}
	if err := s.plans.SetPlan(ctx, tenantID, tier); err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{"tenant": tenantID, "plan": tier}).Info("[billing] plan changed")
	return sub, nil
}

// applyStripe copies status and period fields from a Stripe subscription.
func applyStripe(sub *Subscription, st *stripe.Subscription) {
	if st == nil {
		return
	}
	if st.Status != "" {
		sub.Status = Status(st.Status)
	}
	sub.CancelAtPeriodEnd = st.CancelAtPeriodEnd
	if st.CurrentPeriodEnd > 0 {
		t := time.Unix(st.CurrentPeriodEnd, 0).UTC()
		sub.CurrentPeriodEnd = &t
	}
	if st.Customer != nil && st.Customer.ID != "" {
		sub.StripeCustomerID = st.Customer.ID
	}
}
