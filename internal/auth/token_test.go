package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParse(t *testing.T) {
	s := NewSigner("secret")
	raw, exp, err := s.Issue("u1", "t1", RoleOwner, "ana@example.com")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(TokenTTL), exp, time.Minute)

	cl, err := s.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "u1", cl.UserID)
	assert.Equal(t, "t1", cl.TenantID)
	assert.Equal(t, RoleOwner, cl.Role)
	assert.Equal(t, "u1", cl.Subject)
}

func TestParse_Rejects(t *testing.T) {
	s := NewSigner("secret")
	raw, _, err := s.Issue("u1", "t1", RoleOwner, "ana@example.com")
	require.NoError(t, err)

	_, err = NewSigner("other").Parse(raw)
	assert.ErrorIs(t, err, ErrInvalidToken, "wrong secret")

	_, err = s.Parse(raw + "x")
	assert.ErrorIs(t, err, ErrInvalidToken, "tampered")

	late := NewSigner("secret")
	late.now = func() time.Time { return time.Now().Add(TokenTTL + time.Minute) }
	_, err = late.Parse(raw)
	assert.ErrorIs(t, err, ErrInvalidToken, "expired")

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: "u1", TenantID: "t1"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = s.Parse(none)
	assert.ErrorIs(t, err, ErrInvalidToken, "alg none")

	anon, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{Role: RoleAdmin}).SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = s.Parse(anon)
	assert.ErrorIs(t, err, ErrInvalidToken, "claims without user and tenant")
}

func TestValidRole(t *testing.T) {
	for _, r := range []string{RoleAdmin, RoleOwner, RoleMember} {
		assert.True(t, ValidRole(r), r)
	}
	assert.False(t, ValidRole("root"))
	assert.False(t, ValidRole(""))
}
