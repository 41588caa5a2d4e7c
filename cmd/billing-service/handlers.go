package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/MikeMC777/costeo/internal/affiliate"
	"github.com/MikeMC777/costeo/internal/auth"
	"github.com/MikeMC777/costeo/internal/billing"
	"github.com/MikeMC777/costeo/internal/httpx"
	"github.com/MikeMC777/costeo/internal/plan"
)

type billingService interface {
	Checkout(ctx context.Context, tenantID, email string, in billing.CheckoutRequest) (*billing.CheckoutResponse, error)
	Subscription(ctx context.Context, tenantID string) (*billing.Subscription, error)
	List(ctx context.Context, status string, limit, offset int) ([]billing.Subscription, error)
	Cancel(ctx context.Context, tenantID string, atPeriodEnd bool) (*billing.Subscription, error)
	ChangePlan(ctx context.Context, tenantID, planName string) (*billing.Subscription, error)
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
}

type affiliateService interface {
	Create(ctx context.Context, in affiliate.CreateRequest) (*affiliate.Affiliate, error)
	List(ctx context.Context, status string, limit, offset int) ([]affiliate.Affiliate, error)
	SetStatus(ctx context.Context, id, status string) (*affiliate.Affiliate, error)
	Click(ctx context.Context, code string) (bool, error)
	ListCommissions(ctx context.Context, f affiliate.CommissionFilter) ([]affiliate.Commission, error)
	Transition(ctx context.Context, id string, to affiliate.CommissionStatus) (*affiliate.Commission, error)
	Summary(ctx context.Context, userID string) (*affiliate.Summary, error)
}

func routes(r *gin.Engine, signer *auth.Signer, users httpx.UserCheck, svc billingService, aff affiliateService, appURL string) {
	r.POST("/billing/webhook", webhookHandler(svc))
	r.GET("/r/:code", referralLinkHandler(aff, appURL))

	authed := r.Group("/", httpx.Auth(signer), httpx.KnownUser(users))
	authed.POST("/billing/checkout", checkoutHandler(svc))
	authed.GET("/billing/subscription", subscriptionHandler(svc))
	authed.GET("/affiliates/me", affiliateSummaryHandler(aff))

	admin := r.Group("/admin", httpx.Auth(signer), httpx.KnownUser(users), httpx.RequireRole(auth.RoleAdmin))
	admin.GET("/subscriptions", listSubscriptionsHandler(svc))
	admin.POST("/subscriptions/:tenant_id/cancel", cancelSubscriptionHandler(svc))
	admin.PUT("/subscriptions/:tenant_id/plan", changePlanHandler(svc))
	admin.POST("/affiliates", createAffiliateHandler(aff))
	admin.GET("/affiliates", listAffiliatesHandler(aff))
	admin.PUT("/affiliates/:id/status", affiliateStatusHandler(aff))
	admin.GET("/commissions", listCommissionsHandler(aff))
	admin.PUT("/commissions/:id/status", commissionStatusHandler(aff))
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, billing.ErrPlanNotPaid), errors.Is(err, plan.ErrUnknownTier),
		errors.Is(err, affiliate.ErrInvalid), errors.Is(err, billing.ErrBadSignature):
		httpx.Error(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, billing.ErrNotFound), errors.Is(err, affiliate.ErrNotFound),
		errors.Is(err, affiliate.ErrCommissionNotFound):
		httpx.Error(c, http.StatusNotFound, err.Error())
	case errors.Is(err, billing.ErrAlreadyCancelled), errors.Is(err, affiliate.ErrDuplicateCode),
		errors.Is(err, affiliate.ErrInvalidTransition):
		httpx.Error(c, http.StatusConflict, err.Error())
	case errors.Is(err, billing.ErrPayloadTooLarge):
		httpx.Error(c, http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, billing.ErrNotConfigured), errors.Is(err, billing.ErrPriceMissing):
		_ = c.Error(err)
		httpx.Error(c, http.StatusServiceUnavailable, "billing is not available")
	default:
		_ = c.Error(err)
		httpx.Error(c, http.StatusInternalServerError, "internal error")
	}
}

// @Summary  Start a Stripe Checkout for a paid plan
// @Tags     billing
// @Accept   json
// @Produce  json
// @Security Bearer
// @Param    body body billing.CheckoutRequest true "plan and optional affiliate code"
// @Success  200 {object} billing.CheckoutResponse
// @Failure  400,503 {object} map[string]string
// @Router   /billing/checkout [post]
func checkoutHandler(svc billingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in billing.CheckoutRequest
		if err := c.ShouldBindJSON(&in); err != nil {
			httpx.Error(c, http.StatusBadRequest, "invalid body")
			return
		}
		email := ""
		if cl := httpx.Claims(c); cl != nil {
			email = cl.Email
		}
		out, err := svc.Checkout(c.Request.Context(), httpx.TenantID(c), email, in)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

// @Summary  Subscription of the caller's tenant
// @Tags     billing
// @Produce  json
// @Security Bearer
// @Success  200 {object} billing.Subscription
// @Failure  404 {object} map[string]string
// @Router   /billing/subscription [get]
func subscriptionHandler(svc billingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		sub, err := svc.Subscription(c.Request.Context(), httpx.TenantID(c))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, sub)
	}
}

// @Summary  Stripe webhook endpoint
// @Tags     billing
// @Accept   json
// @Param    Stripe-Signature header string true "signature"
// @Success  200
// @Failure  400,413 {object} map[string]string
// @Router   /billing/webhook [post]
func webhookHandler(svc billingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, billing.MaxWebhookBytes)
		payload, err := io.ReadAll(c.Request.Body)
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeError(c, billing.ErrPayloadTooLarge)
				return
			}
			httpx.Error(c, http.StatusBadRequest, "unreadable body")
			return
		}
		if err := svc.HandleWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature")); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"received": true})
	}
}

// @Summary  Tracked affiliate link
// @Tags     affiliates
// @Param    code path string true "affiliate code"
// @Success  302
// @Router   /r/{code} [get]
func referralLinkHandler(aff affiliateService, appURL string) gin.HandlerFunc {
	return func(c *gin.Context) {
		target := appURL + "/signup"
		code := affiliate.NormalizeCode(c.Param("code"))
		ok, err := aff.Click(c.Request.Context(), code)
		if err != nil {
			_ = c.Error(err)
		}
		if ok {
			target += "?ref=" + url.QueryEscape(code)
		}
		c.Redirect(http.StatusFound, target)
	}
}

// @Summary  Clicks, referrals and commission totals of the caller
// @Tags     affiliates
// @Produce  json
// @Security Bearer
// @Success  200 {object} affiliate.Summary
// @Failure  404 {object} map[string]string
// @Router   /affiliates/me [get]
func affiliateSummaryHandler(aff affiliateService) gin.HandlerFunc {
	return func(c *gin.Context) {
		sum, err := aff.Summary(c.Request.Context(), httpx.UserID(c))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, sum)
	}
}

// @Summary  List subscriptions (back-office)
// @Tags     admin
// @Produce  json
// @Security Bearer
// @Param    status query string false "subscription status"
// @Param    limit  query int    false "page size (max 100)"
// @Param    offset query int    false "offset"
// @Router   /admin/subscriptions [get]
func listSubscriptionsHandler(svc billingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, offset := httpx.Page(c)
		status := strings.TrimSpace(c.Query("status"))
		items, err := svc.List(c.Request.Context(), status, limit, offset)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": items, "status": status, "limit": limit, "offset": offset})
	}
}

// @Summary  Cancel a tenant's subscription (back-office)
// @Tags     admin
// @Accept   json
// @Produce  json
// @Security Bearer
// @Param    tenant_id path string                true  "tenant id"
// @Param    body      body billing.CancelRequest false "when to cancel"
// @Success  200 {object} billing.Subscription
// @Router   /admin/subscriptions/{tenant_id}/cancel [post]
func cancelSubscriptionHandler(svc billingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in billing.CancelRequest
		if err := c.ShouldBindJSON(&in); err != nil && !errors.Is(err, io.EOF) {
			httpx.Error(c, http.StatusBadRequest, "invalid body")
			return
		}
		sub, err := svc.Cancel(c.Request.Context(), c.Param("tenant_id"), in.AtPeriodEnd)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, sub)
	}
}

// @Summary  Move a tenant to another paid plan (back-office)
// @Tags     admin
// @Accept   json
// @Produce  json
// @Security Bearer
// @Param    tenant_id path string              true "tenant id"
// @Param    body      body billing.PlanRequest true "plan"
// @Success  200 {object} billing.Subscription
// @Router   /admin/subscriptions/{tenant_id}/plan [put]
func changePlanHandler(svc billingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in billing.PlanRequest
		if err := c.ShouldBindJSON(&in); err != nil {
			httpx.Error(c, http.StatusBadRequest, "invalid body")
			return
		}
		sub, err := svc.ChangePlan(c.Request.Context(), c.Param("tenant_id"), in.Plan)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, sub)
	}
}

// @Summary  Create an affiliate (back-office)
// @Tags     admin
// @Accept   json
// @Produce  json
// @Security Bearer
// @Param    body body affiliate.CreateRequest true "affiliate"
// @Success  201 {object} affiliate.Affiliate
// @Failure  400,409 {object} map[string]string
// @Router   /admin/affiliates [post]
func createAffiliateHandler(aff affiliateService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in affiliate.CreateRequest
		if err := c.ShouldBindJSON(&in); err != nil {
			httpx.Error(c, http.StatusBadRequest, "invalid body")
			return
		}
		a, err := aff.Create(c.Request.Context(), in)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, a)
	}
}

// @Summary  List affiliates (back-office)
// @Tags     admin
// @Produce  json
// @Security Bearer
// @Param    status query string false "active or inactive"
// @Param    limit  query int    false "page size (max 100)"
// @Param    offset query int    false "offset"
// @Router   /admin/affiliates [get]
func listAffiliatesHandler(aff affiliateService) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, offset := httpx.Page(c)
		status := strings.TrimSpace(c.Query("status"))
		items, err := aff.List(c.Request.Context(), status, limit, offset)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": items, "status": status, "limit": limit, "offset": offset})
	}
}

// @Summary  Activate or deactivate an affiliate (back-office)
// @Tags     admin
// @Accept   json
// @Produce  json
// @Security Bearer
// @Param    id   path string                  true "affiliate id"
// @Param    body body affiliate.StatusRequest true "status"
// @Success  200 {object} affiliate.Affiliate
// @Router   /admin/affiliates/{id}/status [put]
func affiliateStatusHandler(aff affiliateService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in affiliate.StatusRequest
		if err := c.ShouldBindJSON(&in); err != nil {
			httpx.Error(c, http.StatusBadRequest, "invalid body")
			return
		}
		a, err := aff.SetStatus(c.Request.Context(), c.Param("id"), strings.TrimSpace(in.Status))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, a)
	}
}

// @Summary  List commissions (back-office)
// @Tags     admin
// @Produce  json
// @Security Bearer
// @Param    status       query string false "pending, approved, paid or cancelled"
// @Param    affiliate_id query string false "affiliate id"
// @Param    limit        query int    false "page size (max 100)"
// @Param    offset       query int    false "offset"
// @Router   /admin/commissions [get]
func listCommissionsHandler(aff affiliateService) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, offset := httpx.Page(c)
		f := affiliate.CommissionFilter{AffiliateID: strings.TrimSpace(c.Query("affiliate_id")), Limit: limit, Offset: offset}
		if s := strings.TrimSpace(c.Query("status")); s != "" {
			st, err := affiliate.ParseCommissionStatus(s)
			if err != nil {
				httpx.Error(c, http.StatusBadRequest, err.Error())
				return
			}
			f.Status = st
		}
		items, err := aff.ListCommissions(c.Request.Context(), f)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": items, "limit": limit, "offset": offset})
	}
}

// @Summary  Approve, pay or cancel a commission (back-office)
// @Tags     admin
// @Accept   json
// @Produce  json
// @Security Bearer
// @Param    id   path string                  true "commission id"
// @Param    body body affiliate.StatusRequest true "status"
// @Success  200 {object} affiliate.Commission
// @Failure  400,404,409 {object} map[string]string
// @Router   /admin/commissions/{id}/status [put]
func commissionStatusHandler(aff affiliateService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in affiliate.StatusRequest
		if err := c.ShouldBindJSON(&in); err != nil {
			httpx.Error(c, http.StatusBadRequest, "invalid body")
			return
		}
		to, err := affiliate.ParseCommissionStatus(in.Status)
		if err != nil {
			httpx.Error(c, http.StatusBadRequest, err.Error())
			return
		}
		com, err := aff.Transition(c.Request.Context(), c.Param("id"), to)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, com)
	}
}
