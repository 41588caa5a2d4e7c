package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/MikeMC777/costeo/internal/affiliate"
	"github.com/MikeMC777/costeo/internal/db"
	"github.com/MikeMC777/costeo/internal/plan"
)

// HandleWebhook verifies a Stripe event and applies it once. Events already
// claimed by another delivery are acknowledged without side effects; a failed
// event is released so Stripe's retry applies it.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	if len(payload) > MaxWebhookBytes {
		return ErrPayloadTooLarge
	}
	ev, err := webhook.ConstructEventWithOptions(payload, signature, s.opts.WebhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		s.events.WithLabelValues("unknown", "bad_signature").Inc()
		return fmt.Errorf("%w: %v", ErrBadSignature, err)
	}
	typ := string(ev.Type)
	log := logrus.WithFields(logrus.Fields{"event": ev.ID, "type": typ})

	claimed, err := s.repo.ClaimEvent(ctx, ev.ID, typ)
	if err != nil {
		return err
	}
	if !claimed {
		s.events.WithLabelValues(typ, "duplicate").Inc()
		log.Info("[billing] duplicate webhook event")
		return nil
	}

	handled, err := s.dispatch(ctx, ev)
	if err != nil {
		s.events.WithLabelValues(typ, "error").Inc()
		log.WithError(err).Error("[billing] webhook event failed")
		if rerr := s.repo.ReleaseEvent(context.WithoutCancel(ctx), ev.ID); rerr != nil {
			log.WithError(rerr).Error("[billing] release webhook event")
		}
		return err
	}
	result := "ignored"
	if handled {
		result = "ok"
	}
	s.events.WithLabelValues(typ, result).Inc()
	log.WithField("result", result).Info("[billing] webhook event")
	return nil
}

func (s *Service) dispatch(ctx context.Context, ev stripe.Event) (bool, error) {
	if ev.Data == nil {
		return false, nil
	}
	raw := ev.Data.Raw
	switch ev.Type {
	case "checkout.session.completed":
		return true, s.onCheckoutCompleted(ctx, raw)
	case "customer.subscription.updated":
		return true, s.onSubscriptionChanged(ctx, raw, false)
	case "customer.subscription.deleted":
		return true, s.onSubscriptionChanged(ctx, raw, true)
	case "invoice.paid":
		return true, s.onInvoicePaid(ctx, raw)
	case "invoice.payment_failed":
		return true, s.onPaymentFailed(ctx, raw)
	}
	return false, nil
}

func (s *Service) onCheckoutCompleted(ctx context.Context, raw json.RawMessage) error {
	var cs stripe.CheckoutSession
	if err := json.Unmarshal(raw, &cs); err != nil {
		return fmt.Errorf("decode checkout session: %w", err)
	}
	if cs.Subscription == nil || cs.Subscription.ID == "" {
		return nil
	}
	tenantID := cs.ClientReferenceID
	if tenantID == "" {
		tenantID = cs.Metadata["tenant_id"]
	}
	tier, err := plan.Parse(cs.Metadata["plan"])
	if !db.ValidID(tenantID) || err != nil || !tier.Paid() {
		logrus.WithField("session", cs.ID).Warn("[billing] checkout session without tenant or plan")
		return nil
	}

	sub := &Subscription{
		TenantID:             tenantID,
		StripeSubscriptionID: cs.Subscription.ID,
		Plan:                 tier,
		Status:               StatusActive,
	}
	if cs.Customer != nil {
		sub.StripeCustomerID = cs.Customer.ID
	}
	if err := s.repo.Upsert(ctx, sub); err != nil {
		return err
	}
	if err := s.plans.SetPlan(ctx, tenantID, tier); err != nil {
		return err
	}
	if s.affiliates != nil {
		if _, err := s.affiliates.RecordReferral(ctx, cs.Metadata["affiliate_code"], tenantID, sub.StripeSubscriptionID); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) onSubscriptionChanged(ctx context.Context, raw json.RawMessage, deleted bool) error {
	var st stripe.Subscription
	if err := json.Unmarshal(raw, &st); err != nil {
		return fmt.Errorf("decode subscription: %w", err)
	}
	sub, err := s.repo.GetBySubscriptionID(ctx, st.ID)
	if errors.Is(err, ErrNotFound) {
		tenantID := st.Metadata["tenant_id"]
		if tenantID == "" {
			logrus.WithField("subscription", st.ID).Warn("[billing] subscription for unknown tenant")
			return nil
		}
		sub = &Subscription{TenantID: tenantID, StripeSubscriptionID: st.ID, Plan: plan.Free}
	} else if err != nil {
		return err
	}

	applyStripe(sub, &st)
	if tier, ok := s.priceTier(&st); ok {
		sub.Plan = tier
	}
	if deleted {
		sub.Status = StatusCanceled
	}
	if err := s.repo.Upsert(ctx, sub); err != nil {
		return err
	}
	effective := sub.Plan
	if !sub.Status.Entitled() {
		effective = plan.Free
	}
	return s.plans.SetPlan(ctx, sub.TenantID, effective)
}

func (s *Service) priceTier(st *stripe.Subscription) (plan.Tier, bool) {
	if st.Items == nil {
		return "", false
	}
	for _, it := range st.Items.Data {
		if it != nil && it.Price != nil {
			if tier, ok := s.opts.Prices.Plan(it.Price.ID); ok {
				return tier, true
			}
		}
	}
	return "", false
}

// invoiceSubscription resolves the stored subscription an invoice was billed for.
func (s *Service) invoiceSubscription(ctx context.Context, raw json.RawMessage) (*stripe.Invoice, *Subscription, error) {
	var inv stripe.Invoice
	if err := json.Unmarshal(raw, &inv); err != nil {
		return nil, nil, fmt.Errorf("decode invoice: %w", err)
	}
	if inv.Subscription == nil || inv.Subscription.ID == "" {
		return &inv, nil, nil
	}
	sub, err := s.repo.GetBySubscriptionID(ctx, inv.Subscription.ID)
	if errors.Is(err, ErrNotFound) {
		logrus.WithField("invoice", inv.ID).Warn("[billing] invoice for unknown subscription")
		return &inv, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	return &inv, sub, nil
}

func (s *Service) onInvoicePaid(ctx context.Context, raw json.RawMessage) error {
	inv, sub, err := s.invoiceSubscription(ctx, raw)
	if err != nil || sub == nil || s.affiliates == nil {
		return err
	}
	_, err = s.affiliates.RecordInvoicePaid(ctx, affiliate.InvoicePaid{
		InvoiceID:      inv.ID,
		TenantID:       sub.TenantID,
		SubscriptionID: sub.StripeSubscriptionID,
		AmountPaid:     decimal.New(inv.AmountPaid, -2),
		Currency:       string(inv.Currency),
	})
	return err
}

func (s *Service) onPaymentFailed(ctx context.Context, raw json.RawMessage) error {
	_, sub, err := s.invoiceSubscription(ctx, raw)
	if err != nil || sub == nil {
		return err
	}
	logrus.WithField("tenant", sub.TenantID).Warn("[billing] invoice payment failed")
	return s.repo.SetStatus(ctx, sub.StripeSubscriptionID, StatusPastDue)
}
