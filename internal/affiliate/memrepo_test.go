package affiliate

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// memRepo is an in-memory Repository for service tests.
type memRepo struct {
	mu          sync.Mutex
	affiliates  map[string]*Affiliate
	referrals   map[string]*Referral // by tenant
	commissions map[string]*Commission
}

func newMemRepo() *memRepo {
	return &memRepo{
		affiliates:  map[string]*Affiliate{},
		referrals:   map[string]*Referral{},
		commissions: map[string]*Commission{},
	}
}

func (m *memRepo) Create(_ context.Context, a *Affiliate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, x := range m.affiliates {
		if x.Code == a.Code {
			return ErrDuplicateCode
		}
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	cp := *a
	m.affiliates[a.ID] = &cp
	return nil
}

func (m *memRepo) find(pred func(*Affiliate) bool) (*Affiliate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.affiliates {
		if pred(a) {
			cp := *a
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memRepo) GetByID(_ context.Context, id string) (*Affiliate, error) {
	return m.find(func(a *Affiliate) bool { return a.ID == id })
}

func (m *memRepo) GetByCode(_ context.Context, code string) (*Affiliate, error) {
	return m.find(func(a *Affiliate) bool { return a.Code == code })
}

func (m *memRepo) GetByUserID(_ context.Context, uid string) (*Affiliate, error) {
	return m.find(func(a *Affiliate) bool { return a.UserID != nil && *a.UserID == uid })
}

func (m *memRepo) List(_ context.Context, status string, _, _ int) ([]Affiliate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []Affiliate{}
	for _, a := range m.affiliates {
		if status == "" || a.Status == status {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (m *memRepo) UpdateStatus(_ context.Context, id, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.affiliates[id]
	if !ok {
		return ErrNotFound
	}
	a.Status = status
	return nil
}

func (m *memRepo) IncrementClicks(_ context.Context, code string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.affiliates {
		if a.Code == code && a.Active() {
			a.Clicks++
			return true, nil
		}
	}
	return false, nil
}

func (m *memRepo) CreateReferral(_ context.Context, r *Referral) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.referrals[r.TenantID]; ok {
		return false, nil
	}
	r.ID = uuid.NewString()
	cp := *r
	m.referrals[r.TenantID] = &cp
	return true, nil
}

func (m *memRepo) ReferralByTenant(_ context.Context, tenantID string) (*Referral, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.referrals[tenantID]
	if !ok {
		return nil, ErrReferralNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *memRepo) CountReferrals(_ context.Context, affiliateID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, r := range m.referrals {
		if r.AffiliateID == affiliateID {
			n++
		}
	}
	return n, nil
}

func (m *memRepo) CreateCommission(_ context.Context, c *Commission) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, x := range m.commissions {
		if x.StripeInvoiceID == c.StripeInvoiceID {
			return false, nil
		}
	}
	c.ID = uuid.NewString()
	cp := *c
	m.commissions[c.ID] = &cp
	return true, nil
}

func (m *memRepo) GetCommission(_ context.Context, id string) (*Commission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.commissions[id]
	if !ok {
		return nil, ErrCommissionNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memRepo) ListCommissions(_ context.Context, f CommissionFilter) ([]Commission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []Commission{}
	for _, c := range m.commissions {
		if (f.Status == "" || c.Status == f.Status) && (f.AffiliateID == "" || c.AffiliateID == f.AffiliateID) {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (m *memRepo) TransitionCommission(_ context.Context, id string, from, to CommissionStatus, paidAt *time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.commissions[id]
	if !ok || c.Status != from {
		return ErrInvalidTransition
	}
	c.Status = to
	if paidAt != nil {
		c.PaidAt = paidAt
	}
	return nil
}

func (m *memRepo) ApproveMatured(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, c := range m.commissions {
		if c.Status == Pending && !c.AvailableAt.After(now) {
			c.Status = Approved
			n++
		}
	}
	return n, nil
}

func (m *memRepo) CommissionTotals(_ context.Context, affiliateID string) (map[CommissionStatus]decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[CommissionStatus]decimal.Decimal{}
	for _, c := range m.commissions {
		if c.AffiliateID == affiliateID {
			out[c.Status] = out[c.Status].Add(c.CommissionAmount)
		}
	}
	return out, nil
}
