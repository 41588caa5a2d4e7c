package user

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/MikeMC777/costeo/internal/auth"
	"github.com/MikeMC777/costeo/internal/plan"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// Accounts implements signup, login and the back-office plan grant on top of the
// repository and the token signer.
type Accounts struct {
	repo   Repository
	signer *auth.Signer
	now    func() time.Time
}

func NewAccounts(repo Repository, signer *auth.Signer) *Accounts {
	return &Accounts{repo: repo, signer: signer, now: time.Now}
}

func (a *Accounts) issue(u *User) (*TokenResponse, error) {
	tok, exp, err := a.signer.Issue(u.ID, u.TenantID, u.Role, u.Email)
	if err != nil {
		return nil, err
	}
	return &TokenResponse{Token: tok, ExpiresAt: exp, User: *u}, nil
}

func (a *Accounts) Signup(ctx context.Context, in SignupRequest) (*TokenResponse, error) {
	business := strings.TrimSpace(in.BusinessName)
	name := strings.TrimSpace(in.Name)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	switch {
	case business == "" || name == "":
		return nil, fmt.Errorf("%w: business_name and name are required", ErrInvalidInput)
	case !validEmail(email):
		return nil, fmt.Errorf("%w: email is invalid", ErrInvalidInput)
	case len(in.Password) < MinPasswordLen:
		return nil, fmt.Errorf("%w: password must have at least %d characters", ErrInvalidInput, MinPasswordLen)
	case len(in.Password) > MaxPasswordBytes:
		return nil, fmt.Errorf("%w: password must have at most %d bytes", ErrInvalidInput, MaxPasswordBytes)
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	t := &Tenant{ID: uuid.NewString(), Name: business, Plan: plan.Free}
	u := &User{
		ID:           uuid.NewString(),
		TenantID:     t.ID,
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         auth.RoleOwner,
	}
	if err := a.repo.CreateWithTenant(ctx, t, u); err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{"tenant": t.ID, "user": u.ID}).Info("[user] signup")
	return a.issue(u)
}

func (a *Accounts) Login(ctx context.Context, in LoginRequest) (*TokenResponse, error) {
	if in.Email == "" || in.Password == "" {
		return nil, fmt.Errorf("%w: email and password are required", ErrInvalidInput)
	}
	u, err := a.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(in.Email)))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !CheckPassword(u.PasswordHash, in.Password) {
		return nil, ErrInvalidCredentials
	}
	return a.issue(u)
}

func (a *Accounts) Me(ctx context.Context, userID string) (*MeResponse, error) {
	u, err := a.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	t, err := a.repo.GetTenant(ctx, u.TenantID)
	if err != nil {
		return nil, err
	}
	tier := t.EffectivePlan(a.now())
	return &MeResponse{User: *u, Tenant: *t, Plan: tier, Limits: tier.Limits()}, nil
}

// GrantPlan sets a plan by hand. An expiry in the past is rejected.
func (a *Accounts) GrantPlan(ctx context.Context, tenantID string, in PlanGrantRequest) (*Tenant, error) {
	tier, err := plan.Parse(in.Plan)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if in.ExpiresAt != nil && !in.ExpiresAt.After(a.now()) {
		return nil, fmt.Errorf("%w: expires_at must be in the future", ErrInvalidInput)
	}
	if err := a.repo.SetPlan(ctx, tenantID, tier, in.ExpiresAt); err != nil {
		return nil, err
	}
	return a.repo.GetTenant(ctx, tenantID)
}

func (a *Accounts) ChangeRole(ctx context.Context, id, role string) error {
	if !auth.ValidRole(role) {
		return fmt.Errorf("%w: role must be admin, owner or member", ErrInvalidInput)
	}
	return a.repo.UpdateRole(ctx, id, role)
}

// ExpirePlans is run by the daily job.
func (a *Accounts) ExpirePlans(ctx context.Context) (int64, error) {
	n, err := a.repo.ExpirePlans(ctx, a.now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		logrus.WithField("tenants", n).Info("[user] expired manual plans")
	}
	return n, nil
}

func validEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}
