package affiliate

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/MikeMC777/costeo/internal/db"
	"github.com/MikeMC777/costeo/internal/notify"
)

// Promotions creates and toggles the Stripe discount attached to an affiliate code.
type Promotions interface {
	CreatePromotion(ctx context.Context, code string, percentOff decimal.Decimal) (couponID, promotionCodeID string, err error)
	SetPromotionActive(ctx context.Context, promotionCodeID string, active bool) error
}

// InvoicePaid is the part of a paid Stripe invoice commissions are computed from.
type InvoicePaid struct {
	InvoiceID      string
	TenantID       string
	SubscriptionID string
	AmountPaid     decimal.Decimal
	Currency       string
}

type Service struct {
	repo     Repository
	promos   Promotions
	mailer   notify.Mailer
	holdDays int
	now      func() time.Time
}

func NewService(repo Repository, promos Promotions, mailer notify.Mailer, holdDays int) *Service {
	if mailer == nil {
		mailer = notify.LogMailer{}
	}
	return &Service{repo: repo, promos: promos, mailer: mailer, holdDays: holdDays, now: time.Now}
}

func (s *Service) Create(ctx context.Context, in CreateRequest) (*Affiliate, error) {
	a := &Affiliate{
		Name:          strings.TrimSpace(in.Name),
		Email:         strings.ToLower(strings.TrimSpace(in.Email)),
		CommissionPct: in.CommissionPct,
		DiscountPct:   in.DiscountPct,
		Status:        StatusActive,
	}
	if uid := strings.TrimSpace(in.UserID); uid != "" {
		if !db.ValidID(uid) {
			return nil, fmt.Errorf("%w: user_id must be a uuid", ErrInvalid)
		}
		a.UserID = &uid
	}
	if a.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalid)
	}
	if addr, err := mail.ParseAddress(a.Email); err != nil || addr.Address != a.Email {
		return nil, fmt.Errorf("%w: email is invalid", ErrInvalid)
	}
	if !a.CommissionPct.IsPositive() || a.CommissionPct.GreaterThan(hundred) {
		return nil, fmt.Errorf("%w: commission_pct must be greater than 0 and at most 100", ErrInvalid)
	}
	if a.DiscountPct.IsNegative() || a.DiscountPct.GreaterThanOrEqual(hundred) {
		return nil, fmt.Errorf("%w: discount_pct must be at least 0 and below 100", ErrInvalid)
	}
	if !a.CommissionPct.Equal(a.CommissionPct.Round(2)) || !a.DiscountPct.Equal(a.DiscountPct.Round(2)) {
		return nil, fmt.Errorf("%w: percentages accept at most 2 decimal places", ErrInvalid)
	}

	generated := strings.TrimSpace(in.Code) == ""
	a.Code = NormalizeCode(in.Code)
	if generated {
		a.Code = GenerateCode(a.Name)
	}
	if err := ValidateCode(a.Code); err != nil {
		return nil, err
	}
	for attempt := 0; ; attempt++ {
		_, err := s.repo.GetByCode(ctx, a.Code)
		if errors.Is(err, ErrNotFound) {
			break
		}
		if err != nil {
			return nil, err
		}
		if !generated || attempt == 4 {
			return nil, ErrDuplicateCode
		}
		a.Code = GenerateCode(a.Name)
	}

	if a.DiscountPct.IsPositive() && s.promos != nil {
		coupon, promo, err := s.promos.CreatePromotion(ctx, a.Code, a.DiscountPct)
		if err != nil {
			return nil, fmt.Errorf("create stripe promotion: %w", err)
		}
		a.StripeCouponID, a.StripePromotionCodeID = coupon, promo
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{"affiliate": a.ID, "code": a.Code}).Info("[affiliate] created")
	return a, nil
}

func (s *Service) List(ctx context.Context, status string, limit, offset int) ([]Affiliate, error) {
	return s.repo.List(ctx, status, limit, offset)
}

// SetStatus activates or deactivates an affiliate and its Stripe promotion code.
func (s *Service) SetStatus(ctx context.Context, id, status string) (*Affiliate, error) {
	if status != StatusActive && status != StatusInactive {
		return nil, fmt.Errorf("%w: status must be active or inactive", ErrInvalid)
	}
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.Status == status {
		return a, nil
	}
	if a.StripePromotionCodeID != "" && s.promos != nil {
		if err := s.promos.SetPromotionActive(ctx, a.StripePromotionCodeID, status == StatusActive); err != nil {
			return nil, fmt.Errorf("update stripe promotion: %w", err)
		}
	}
	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return nil, err
	}
	a.Status = status
	return a, nil
}

// Click counts a visit to a tracked link. It reports whether the code belongs to
// an active affiliate.
func (s *Service) Click(ctx context.Context, code string) (bool, error) {
	code = NormalizeCode(code)
	if ValidateCode(code) != nil {
		return false, nil
	}
	return s.repo.IncrementClicks(ctx, code)
}

// ActiveByCode returns the affiliate behind a code, or ErrNotFound when the code
// is unknown or inactive.
func (s *Service) ActiveByCode(ctx context.Context, code string) (*Affiliate, error) {
	code = NormalizeCode(code)
	if ValidateCode(code) != nil {
		return nil, ErrNotFound
	}
	a, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if !a.Active() {
		return nil, ErrNotFound
	}
	return a, nil
}

// RecordReferral attributes a tenant to the affiliate whose code was used at
// checkout. Unknown codes and already referred tenants are ignored.
func (s *Service) RecordReferral(ctx context.Context, code, tenantID, subscriptionID string) (*Referral, error) {
	if code == "" || tenantID == "" {
		return nil, nil
	}
	a, err := s.ActiveByCode(ctx, code)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	ref := &Referral{AffiliateID: a.ID, TenantID: tenantID, StripeSubscriptionID: subscriptionID}
	created, err := s.repo.CreateReferral(ctx, ref)
	if err != nil {
		return nil, err
	}
	if !created {
		return nil, nil
	}
	logrus.WithFields(logrus.Fields{"affiliate": a.ID, "tenant": tenantID}).Info("[affiliate] referral recorded")
	return ref, nil
}

// RecordInvoicePaid creates the pending commission for a paid invoice of a
// referred tenant. It returns nil when the tenant was not referred, the invoice
// paid nothing or the invoice was already counted.
func (s *Service) RecordInvoicePaid(ctx context.Context, inv InvoicePaid) (*Commission, error) {
	if !inv.AmountPaid.IsPositive() || inv.InvoiceID == "" {
		return nil, nil
	}
	ref, err := s.repo.ReferralByTenant(ctx, inv.TenantID)
	if errors.Is(err, ErrReferralNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	a, err := s.repo.GetByID(ctx, ref.AffiliateID)
	if err != nil {
		return nil, err
	}
	if !a.Active() {
		return nil, nil
	}

	now := s.now().UTC()
	c := &Commission{
		AffiliateID:      a.ID,
		ReferralID:       ref.ID,
		StripeInvoiceID:  inv.InvoiceID,
		SaleAmount:       inv.AmountPaid,
		CommissionAmount: CalcCommission(inv.AmountPaid, a.CommissionPct),
		Currency:         strings.ToLower(inv.Currency),
		Status:           Pending,
		AvailableAt:      now.AddDate(0, 0, s.holdDays),
	}
	created, err := s.repo.CreateCommission(ctx, c)
	if err != nil {
		return nil, err
	}
	if !created {
		return nil, nil
	}
	logrus.WithFields(logrus.Fields{
		"affiliate": a.ID,
		"invoice":   inv.InvoiceID,
		"amount":    c.CommissionAmount.String(),
	}).Info("[affiliate] commission recorded")
	return c, nil
}

func (s *Service) ListCommissions(ctx context.Context, f CommissionFilter) ([]Commission, error) {
	return s.repo.ListCommissions(ctx, f)
}

// Transition moves a commission to a new status. Paying it notifies the affiliate.
func (s *Service) Transition(ctx context.Context, id string, to CommissionStatus) (*Commission, error) {
	c, err := s.repo.GetCommission(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(c.Status, to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, c.Status, to)
	}
	var paidAt *time.Time
	if to == Paid {
		now := s.now().UTC()
		paidAt = &now
	}
	if err := s.repo.TransitionCommission(ctx, id, c.Status, to, paidAt); err != nil {
		return nil, err
	}
	c.Status = to
	if paidAt != nil {
		c.PaidAt = paidAt
		s.notifyPaid(ctx, c)
	}
	return c, nil
}

func (s *Service) notifyPaid(ctx context.Context, c *Commission) {
	a, err := s.repo.GetByID(ctx, c.AffiliateID)
	if err != nil {
		logrus.WithError(err).WithField("commission", c.ID).Warn("[affiliate] payout email: affiliate lookup failed")
		return
	}
	amount := fmt.Sprintf("%s %s", strings.ToUpper(c.Currency), c.CommissionAmount.StringFixed(2))
	err = s.mailer.Send(ctx, notify.Message{
		To:      a.Email,
		Subject: "Your commission has been paid",
		Text: fmt.Sprintf("Hello %s,\n\nWe paid your commission of %s for invoice %s.\n\nThank you for referring customers.",
			a.Name, amount, c.StripeInvoiceID),
	})
	if err != nil {
		logrus.WithError(err).WithField("commission", c.ID).Warn("[affiliate] payout email failed")
	}
}

// ApproveMatured releases pending commissions whose hold period has ended.
func (s *Service) ApproveMatured(ctx context.Context) (int64, error) {
	n, err := s.repo.ApproveMatured(ctx, s.now().UTC())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		logrus.WithField("commissions", n).Info("[affiliate] approved matured commissions")
	}
	return n, nil
}

func (s *Service) Summary(ctx context.Context, userID string) (*Summary, error) {
	a, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	refs, err := s.repo.CountReferrals(ctx, a.ID)
	if err != nil {
		return nil, err
	}
	totals, err := s.repo.CommissionTotals(ctx, a.ID)
	if err != nil {
		return nil, err
	}
	for _, st := range []CommissionStatus{Pending, Approved, Paid, Cancelled} {
		if _, ok := totals[st]; !ok {
			totals[st] = decimal.Zero
		}
	}
	return &Summary{Affiliate: *a, Referrals: refs, Totals: totals}, nil
}
