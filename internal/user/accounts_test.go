package user

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeMC777/costeo/internal/auth"
	"github.com/MikeMC777/costeo/internal/plan"
)

func TestSignupAndLogin(t *testing.T) {
	repo := newMemRepo()
	signer := auth.NewSigner("test-secret")
	acc := NewAccounts(repo, signer)
	ctx := context.Background()

	res := seed(t, repo)
	assert.Equal(t, "ana@example.com", res.User.Email)
	assert.Equal(t, auth.RoleOwner, res.User.Role)
	assert.Equal(t, plan.Free, repo.tenants[res.User.TenantID].Plan)
	assert.NotEqual(t, "password1", repo.users[res.User.ID].PasswordHash)

	claims, err := signer.Parse(res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.TenantID, claims.TenantID)

	_, err = acc.Signup(ctx, SignupRequest{BusinessName: "Other", Name: "X", Email: "ana@example.com", Password: "password2"})
	assert.ErrorIs(t, err, ErrAlreadyExist)

	_, err = acc.Signup(ctx, SignupRequest{BusinessName: "Other", Name: "X", Email: "x@example.com", Password: "short"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = acc.Signup(ctx, SignupRequest{BusinessName: "Other", Name: "X", Email: "x@example.com", Password: strings.Repeat("a", MaxPasswordBytes+1)})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = acc.Signup(ctx, SignupRequest{BusinessName: "Other", Name: "X", Email: "y@example.com", Password: strings.Repeat("ç", MaxPasswordBytes/2)})
	require.NoError(t, err)

	_, err = acc.Signup(ctx, SignupRequest{BusinessName: "Other", Name: "X", Email: "not-an-email", Password: "password2"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	in, err := acc.Login(ctx, LoginRequest{Email: " ANA@example.com ", Password: "password1"})
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, in.User.ID)

	_, err = acc.Login(ctx, LoginRequest{Email: "ana@example.com", Password: "wrong-pass"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = acc.Login(ctx, LoginRequest{Email: "nobody@example.com", Password: "password1"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestGrantPlanAndExpire(t *testing.T) {
	repo := newMemRepo()
	acc := NewAccounts(repo, auth.NewSigner("test-secret"))
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	acc.now = func() time.Time { return now }
	ctx := context.Background()
	owner := seed(t, repo)
	tid := owner.User.TenantID

	exp := now.Add(48 * time.Hour)
	tn, err := acc.GrantPlan(ctx, tid, PlanGrantRequest{Plan: "professional", ExpiresAt: &exp})
	require.NoError(t, err)
	assert.Equal(t, plan.Professional, tn.Plan)

	me, err := acc.Me(ctx, owner.User.ID)
	require.NoError(t, err)
	assert.Equal(t, plan.Professional, me.Plan)
	assert.True(t, me.Limits.PDFExport)

	past := now.Add(-time.Minute)
	_, err = acc.GrantPlan(ctx, tid, PlanGrantRequest{Plan: "professional", ExpiresAt: &past})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = acc.GrantPlan(ctx, tid, PlanGrantRequest{Plan: "platinum"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = acc.GrantPlan(ctx, "missing", PlanGrantRequest{Plan: "free"})
	assert.ErrorIs(t, err, ErrTenantNotFound)

	now = now.Add(72 * time.Hour)
	n, err := acc.ExpirePlans(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, plan.Free, repo.tenants[tid].Plan)
}

func TestChangeRole(t *testing.T) {
	repo := newMemRepo()
	acc := NewAccounts(repo, auth.NewSigner("test-secret"))
	owner := seed(t, repo)

	require.NoError(t, acc.ChangeRole(context.Background(), owner.User.ID, auth.RoleMember))
	assert.Equal(t, auth.RoleMember, repo.users[owner.User.ID].Role)
	assert.ErrorIs(t, acc.ChangeRole(context.Background(), owner.User.ID, "root"), ErrInvalidInput)
	assert.ErrorIs(t, acc.ChangeRole(context.Background(), "missing", auth.RoleMember), ErrNotFound)
}
