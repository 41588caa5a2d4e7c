package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/MikeMC777/costeo/internal/affiliate"
	"github.com/MikeMC777/costeo/internal/auth"
	"github.com/MikeMC777/costeo/internal/billing"
	"github.com/MikeMC777/costeo/internal/plan"
)

func init() {
	gin.SetMode(gin.TestMode)
	logrus.SetOutput(io.Discard)
}

//
// ===== service stubs =====
//

type stubBilling struct {
	subs         map[string]*billing.Subscription
	checkoutArgs []string
	payload      []byte
	signature    string
	webhookErr   error
	cancelled    map[string]bool
	lastStatus   string
}

func newStubBilling() *stubBilling {
	return &stubBilling{subs: map[string]*billing.Subscription{}, cancelled: map[string]bool{}}
}

func (s *stubBilling) Checkout(_ context.Context, tenantID, email string, in billing.CheckoutRequest) (*billing.CheckoutResponse, error) {
	tier, err := plan.Parse(in.Plan)
	if err != nil {
		return nil, err
	}
	if !tier.Paid() {
		return nil, billing.ErrPlanNotPaid
	}
	s.checkoutArgs = []string{tenantID, email, in.Plan, in.AffiliateCode}
	return &billing.CheckoutResponse{SessionID: "cs_test_1", URL: "https://checkout.stripe.com/c/cs_test_1"}, nil
}

func (s *stubBilling) Subscription(_ context.Context, tenantID string) (*billing.Subscription, error) {
	sub, ok := s.subs[tenantID]
	if !ok {
		return nil, billing.ErrNotFound
	}
	return sub, nil
}

func (s *stubBilling) List(_ context.Context, status string, _, _ int) ([]billing.Subscription, error) {
	s.lastStatus = status
	out := []billing.Subscription{}
	for _, sub := range s.subs {
		if status == "" || string(sub.Status) == status {
			out = append(out, *sub)
		}
	}
	return out, nil
}

func (s *stubBilling) Cancel(_ context.Context, tenantID string, atPeriodEnd bool) (*billing.Subscription, error) {
	sub, ok := s.subs[tenantID]
	if !ok {
		return nil, billing.ErrNotFound
	}
	if sub.Status == billing.StatusCanceled {
		return nil, billing.ErrAlreadyCancelled
	}
	s.cancelled[tenantID] = atPeriodEnd
	if atPeriodEnd {
		sub.CancelAtPeriodEnd = true
	} else {
		sub.Status = billing.StatusCanceled
	}
	return sub, nil
}

func (s *stubBilling) ChangePlan(_ context.Context, tenantID, planName string) (*billing.Subscription, error) {
	tier, err := plan.Parse(planName)
	if err != nil {
		return nil, err
	}
	sub, ok := s.subs[tenantID]
	if !ok {
		return nil, billing.ErrNotFound
	}
	sub.Plan = tier
	return sub, nil
}

func (s *stubBilling) HandleWebhook(_ context.Context, payload []byte, signature string) error {
	s.payload, s.signature = payload, signature
	return s.webhookErr
}

type stubAffiliates struct {
	byCode      map[string]*affiliate.Affiliate
	clicks      map[string]int
	commissions map[string]*affiliate.Commission
	lastFilter  affiliate.CommissionFilter
}

func newStubAffiliates() *stubAffiliates {
	return &stubAffiliates{
		byCode:      map[string]*affiliate.Affiliate{},
		clicks:      map[string]int{},
		commissions: map[string]*affiliate.Commission{},
	}
}

func (s *stubAffiliates) Create(_ context.Context, in affiliate.CreateRequest) (*affiliate.Affiliate, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, affiliate.ErrInvalid
	}
	code := affiliate.NormalizeCode(in.Code)
	if _, ok := s.byCode[code]; ok {
		return nil, affiliate.ErrDuplicateCode
	}
	a := &affiliate.Affiliate{ID: "aff-" + code, Name: in.Name, Email: in.Email, Code: code, Status: affiliate.StatusActive}
	s.byCode[code] = a
	return a, nil
}

func (s *stubAffiliates) List(context.Context, string, int, int) ([]affiliate.Affiliate, error) {
	out := []affiliate.Affiliate{}
	for _, a := range s.byCode {
		out = append(out, *a)
	}
	return out, nil
}

func (s *stubAffiliates) SetStatus(_ context.Context, id, status string) (*affiliate.Affiliate, error) {
	if status != affiliate.StatusActive && status != affiliate.StatusInactive {
		return nil, affiliate.ErrInvalid
	}
	for _, a := range s.byCode {
		if a.ID == id {
			a.Status = status
			return a, nil
		}
	}
	return nil, affiliate.ErrNotFound
}

func (s *stubAffiliates) Click(_ context.Context, code string) (bool, error) {
	a, ok := s.byCode[code]
	if !ok || !a.Active() {
		return false, nil
	}
	s.clicks[code]++
	return true, nil
}

func (s *stubAffiliates) ListCommissions(_ context.Context, f affiliate.CommissionFilter) ([]affiliate.Commission, error) {
	s.lastFilter = f
	out := []affiliate.Commission{}
	for _, c := range s.commissions {
		if f.Status == "" || c.Status == f.Status {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (s *stubAffiliates) Transition(_ context.Context, id string, to affiliate.CommissionStatus) (*affiliate.Commission, error) {
	c, ok := s.commissions[id]
	if !ok {
		return nil, affiliate.ErrCommissionNotFound
	}
	if !affiliate.CanTransition(c.Status, to) {
		return nil, affiliate.ErrInvalidTransition
	}
	c.Status = to
	return c, nil
}

func (s *stubAffiliates) Summary(_ context.Context, userID string) (*affiliate.Summary, error) {
	for _, a := range s.byCode {
		if a.UserID != nil && *a.UserID == userID {
			return &affiliate.Summary{Affiliate: *a, Referrals: 2}, nil
		}
	}
	return nil, affiliate.ErrNotFound
}

//
// ===== router with the real handlers =====
//

const (
	secret = "test-secret"
	appURL = "https://app.costeo.test"
)

type harness struct {
	r        *gin.Engine
	bill     *stubBilling
	aff      *stubAffiliates
	known    map[string]bool
	usersErr error
	owner    string
	admin    string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{r: gin.New(), bill: newStubBilling(), aff: newStubAffiliates(), known: map[string]bool{"u1": true, "u9": true}}
	signer := auth.NewSigner(secret)
	var err error
	if h.owner, _, err = signer.Issue("u1", "t1", auth.RoleOwner, "ana@example.com"); err != nil {
		t.Fatalf("issue: %v", err)
	}
	if h.admin, _, err = signer.Issue("u9", "t9", auth.RoleAdmin, "root@example.com"); err != nil {
		t.Fatalf("issue: %v", err)
	}
	users := func(_ context.Context, id string) (bool, error) { return h.known[id], h.usersErr }
	routes(h.r, signer, users, h.bill, h.aff, appURL)
	return h
}

func (h *harness) do(method, path, token, body string) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != "" {
		rd = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.r.ServeHTTP(w, req)
	return w
}

//
// ===== tests =====
//

func TestCheckout(t *testing.T) {
	h := newHarness(t)

	if w := h.do(http.MethodPost, "/billing/checkout", "", `{"plan":"professional"}`); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}

	w := h.do(http.MethodPost, "/billing/checkout", h.owner, `{"plan":"professional","affiliate_code":"MARIA10"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var out billing.CheckoutResponse
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	if out.URL == "" || strings.Join(h.bill.checkoutArgs, ",") != "t1,ana@example.com,professional,MARIA10" {
		t.Fatalf("unexpected checkout: %+v args=%v", out, h.bill.checkoutArgs)
	}

	if w := h.do(http.MethodPost, "/billing/checkout", h.owner, `{"plan":"free"}`); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for free plan, got %d", w.Code)
	}
	if w := h.do(http.MethodPost, "/billing/checkout", h.owner, `{"plan":"gold"}`); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown plan, got %d", w.Code)
	}

	if w := h.do(http.MethodGet, "/billing/subscription", h.owner, ""); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 without subscription, got %d", w.Code)
	}
	h.bill.subs["t1"] = &billing.Subscription{TenantID: "t1", Plan: plan.Professional, Status: billing.StatusActive}
	if w := h.do(http.MethodGet, "/billing/subscription", h.owner, ""); w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
}

func TestDeletedUserIsRejected(t *testing.T) {
	h := newHarness(t)

	delete(h.known, "u1")
	if w := h.do(http.MethodGet, "/billing/subscription", h.owner, ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for deleted user, got %d body=%s", w.Code, w.Body.String())
	}
	delete(h.known, "u9")
	if w := h.do(http.MethodGet, "/admin/subscriptions", h.admin, ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for deleted admin, got %d", w.Code)
	}

	h.known["u9"] = true
	h.usersErr = errors.New("connection refused")
	if w := h.do(http.MethodGet, "/admin/subscriptions", h.admin, ""); w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502 when the user-service is down, got %d", w.Code)
	}

	if w := h.do(http.MethodGet, "/r/MARIA10", "", ""); w.Code != http.StatusFound {
		t.Fatalf("public routes skip the user check, got %d", w.Code)
	}
}

func TestWebhook(t *testing.T) {
	h := newHarness(t)

	req := httptest.NewRequest(http.MethodPost, "/billing/webhook", strings.NewReader(`{"id":"evt_1"}`))
	req.Header.Set("Stripe-Signature", "t=1,v1=abc")
	w := httptest.NewRecorder()
	h.r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if string(h.bill.payload) != `{"id":"evt_1"}` || h.bill.signature != "t=1,v1=abc" {
		t.Fatalf("payload not passed through: %q %q", h.bill.payload, h.bill.signature)
	}

	h.bill.webhookErr = billing.ErrBadSignature
	if w := h.do(http.MethodPost, "/billing/webhook", "", `{}`); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad signature, got %d", w.Code)
	}

	h.bill.webhookErr = nil
	big := `{"pad":"` + strings.Repeat("x", billing.MaxWebhookBytes) + `"}`
	if w := h.do(http.MethodPost, "/billing/webhook", "", big); w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", w.Code)
	}
}

func TestReferralLink(t *testing.T) {
	h := newHarness(t)
	h.aff.byCode["MARIA10"] = &affiliate.Affiliate{ID: "a1", Code: "MARIA10", Status: affiliate.StatusActive}

	w := h.do(http.MethodGet, "/r/maria10", "", "")
	if w.Code != http.StatusFound || w.Header().Get("Location") != appURL+"/signup?ref=MARIA10" {
		t.Fatalf("unexpected redirect %d %q", w.Code, w.Header().Get("Location"))
	}
	if h.aff.clicks["MARIA10"] != 1 {
		t.Fatalf("click not counted: %v", h.aff.clicks)
	}

	w = h.do(http.MethodGet, "/r/NOPE99", "", "")
	if w.Code != http.StatusFound || w.Header().Get("Location") != appURL+"/signup" {
		t.Fatalf("unknown codes redirect without ref, got %d %q", w.Code, w.Header().Get("Location"))
	}
}

func TestAdminSubscriptions(t *testing.T) {
	h := newHarness(t)
	h.bill.subs["t1"] = &billing.Subscription{TenantID: "t1", Plan: plan.Professional, Status: billing.StatusActive}

	if w := h.do(http.MethodGet, "/admin/subscriptions", h.owner, ""); w.Code != http.StatusForbidden {
		t.Fatalf("owner must not reach admin routes, got %d", w.Code)
	}
	w := h.do(http.MethodGet, "/admin/subscriptions?status=active", h.admin, "")
	if w.Code != http.StatusOK || h.bill.lastStatus != "active" {
		t.Fatalf("status=%d filter=%q", w.Code, h.bill.lastStatus)
	}

	if w := h.do(http.MethodPut, "/admin/subscriptions/t1/plan", h.admin, `{"plan":"enterprise"}`); w.Code != http.StatusOK {
		t.Fatalf("change plan status=%d body=%s", w.Code, w.Body.String())
	}
	if h.bill.subs["t1"].Plan != plan.Enterprise {
		t.Fatalf("plan not changed: %+v", h.bill.subs["t1"])
	}

	if w := h.do(http.MethodPost, "/admin/subscriptions/t1/cancel", h.admin, `{"at_period_end":true}`); w.Code != http.StatusOK {
		t.Fatalf("cancel status=%d body=%s", w.Code, w.Body.String())
	}
	if !h.bill.cancelled["t1"] {
		t.Fatalf("expected cancel at period end")
	}
	if w := h.do(http.MethodPost, "/admin/subscriptions/t1/cancel", h.admin, ""); w.Code != http.StatusOK {
		t.Fatalf("cancel without body status=%d body=%s", w.Code, w.Body.String())
	}
	if w := h.do(http.MethodPost, "/admin/subscriptions/t1/cancel", h.admin, ""); w.Code != http.StatusConflict {
		t.Fatalf("expected 409 on second cancel, got %d", w.Code)
	}
	if w := h.do(http.MethodPost, "/admin/subscriptions/nope/cancel", h.admin, ""); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestAdminAffiliatesAndCommissions(t *testing.T) {
	h := newHarness(t)

	body := `{"name":"Maria","email":"maria@example.com","code":"maria10","commission_pct":"20","discount_pct":"10"}`
	w := h.do(http.MethodPost, "/admin/affiliates", h.admin, body)
	if w.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var a affiliate.Affiliate
	_ = json.Unmarshal(w.Body.Bytes(), &a)
	if w := h.do(http.MethodPost, "/admin/affiliates", h.admin, body); w.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate code, got %d", w.Code)
	}
	if w := h.do(http.MethodPost, "/admin/affiliates", h.admin, `{"name":" "}`); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if w := h.do(http.MethodGet, "/admin/affiliates", h.admin, ""); w.Code != http.StatusOK {
		t.Fatalf("list status=%d", w.Code)
	}

	if w := h.do(http.MethodPut, "/admin/affiliates/"+a.ID+"/status", h.admin, `{"status":"inactive"}`); w.Code != http.StatusOK {
		t.Fatalf("status change=%d body=%s", w.Code, w.Body.String())
	}
	if w := h.do(http.MethodGet, "/r/MARIA10", "", ""); w.Header().Get("Location") != appURL+"/signup" {
		t.Fatalf("inactive affiliates must not get the ref, got %q", w.Header().Get("Location"))
	}

	h.aff.commissions["c1"] = &affiliate.Commission{ID: "c1", AffiliateID: a.ID, Status: affiliate.Pending}
	w = h.do(http.MethodGet, "/admin/commissions?status=pending&affiliate_id="+a.ID, h.admin, "")
	if w.Code != http.StatusOK || h.aff.lastFilter.Status != affiliate.Pending || h.aff.lastFilter.AffiliateID != a.ID {
		t.Fatalf("status=%d filter=%+v", w.Code, h.aff.lastFilter)
	}
	if w := h.do(http.MethodGet, "/admin/commissions?status=lost", h.admin, ""); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown status, got %d", w.Code)
	}

	if w := h.do(http.MethodPut, "/admin/commissions/c1/status", h.admin, `{"status":"approved"}`); w.Code != http.StatusOK {
		t.Fatalf("approve status=%d body=%s", w.Code, w.Body.String())
	}
	if w := h.do(http.MethodPut, "/admin/commissions/c1/status", h.admin, `{"status":"pending"}`); w.Code != http.StatusConflict {
		t.Fatalf("expected 409 for backwards transition, got %d", w.Code)
	}
	if w := h.do(http.MethodPut, "/admin/commissions/nope/status", h.admin, `{"status":"paid"}`); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestAffiliateSummary(t *testing.T) {
	h := newHarness(t)
	uid := "u1"
	h.aff.byCode["ANA2026"] = &affiliate.Affiliate{ID: "a2", UserID: &uid, Code: "ANA2026", Status: affiliate.StatusActive}

	w := h.do(http.MethodGet, "/affiliates/me", h.owner, "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"referrals":2`) {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if w := h.do(http.MethodGet, "/affiliates/me", h.admin, ""); w.Code != http.StatusNotFound {
		t.Fatalf("users without an affiliate get 404, got %d", w.Code)
	}
}
