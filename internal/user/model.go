package user

import (
	"time"

	"github.com/MikeMC777/costeo/internal/plan"
)

type User struct {
	ID           string    `json:"id"`
	TenantID     string    `json:"tenant_id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Tenant is the business account that owns all inventory rows.
type Tenant struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Plan          plan.Tier  `json:"plan"`
	PlanExpiresAt *time.Time `json:"plan_expires_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func (t Tenant) EffectivePlan(now time.Time) plan.Tier {
	return plan.Effective(t.Plan, t.PlanExpiresAt, now)
}

// SignupRequest payload for POST /auth/signup.
// swagger:model SignupRequest
type SignupRequest struct {
	BusinessName string `json:"business_name" example:"Doces da Ana"`
	Name         string `json:"name"          example:"Ana Souza"`
	Email        string `json:"email"         example:"ana@example.com"`
	Password     string `json:"password"      example:"s3cret-pass"`
}

// LoginRequest payload for POST /auth/login.
// swagger:model LoginRequest
type LoginRequest struct {
	Email    string `json:"email"    example:"ana@example.com"`
	Password string `json:"password" example:"s3cret-pass"`
}

// TokenResponse is returned by signup and login.
// swagger:model TokenResponse
type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      User      `json:"user"`
}

// MeResponse is returned by GET /users/me.
// swagger:model MeResponse
type MeResponse struct {
	User   User        `json:"user"`
	Tenant Tenant      `json:"tenant"`
	Plan   plan.Tier   `json:"plan"`
	Limits plan.Limits `json:"limits"`
}

// RoleRequest payload for PUT /admin/users/:id/role.
// swagger:model RoleRequest
type RoleRequest struct {
	Role string `json:"role" example:"member"`
}

// PlanGrantRequest payload for PUT /admin/tenants/:id/plan.
// swagger:model PlanGrantRequest
type PlanGrantRequest struct {
	Plan      string     `json:"plan"       example:"professional"`
	ExpiresAt *time.Time `json:"expires_at" example:"2026-12-31T23:59:59Z"`
}
