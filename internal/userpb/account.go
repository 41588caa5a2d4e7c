package userpb

import (
	"errors"
	"time"

	"google.golang.org/protobuf/types/known/structpb"
)

// Account is the decoded GetAccount reply.
type Account struct {
	UserID   string `json:"user_id"`
	TenantID string `json:"tenant_id"`
	Role     string `json:"role"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Plan     string `json:"plan"`
}

func (a Account) Struct() (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"user_id":   a.UserID,
		"tenant_id": a.TenantID,
		"role":      a.Role,
		"email":     a.Email,
		"name":      a.Name,
		"plan":      a.Plan,
	})
}

func AccountFromStruct(s *structpb.Struct) Account {
	return Account{
		UserID:   str(s, "user_id"),
		TenantID: str(s, "tenant_id"),
		Role:     str(s, "role"),
		Email:    str(s, "email"),
		Name:     str(s, "name"),
		Plan:     str(s, "plan"),
	}
}

// SetPlanRequest is the decoded SetPlan argument. A nil ExpiresAt means the plan
// does not lapse on its own (Stripe manages it).
type SetPlanRequest struct {
	TenantID  string
	Plan      string
	ExpiresAt *time.Time
}

func (r SetPlanRequest) Struct() (*structpb.Struct, error) {
	m := map[string]any{
		"tenant_id": r.TenantID,
		"plan":      r.Plan,
	}
	if r.ExpiresAt != nil {
		m["expires_at"] = r.ExpiresAt.UTC().Format(time.RFC3339)
	}
	return structpb.NewStruct(m)
}

func SetPlanFromStruct(s *structpb.Struct) (SetPlanRequest, error) {
	r := SetPlanRequest{TenantID: str(s, "tenant_id"), Plan: str(s, "plan")}
	if r.TenantID == "" || r.Plan == "" {
		return r, errors.New("tenant_id and plan are required")
	}
	if v := str(s, "expires_at"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return r, errors.New("expires_at must be RFC3339")
		}
		r.ExpiresAt = &t
	}
	return r, nil
}

func str(s *structpb.Struct, key string) string {
	if s == nil {
		return ""
	}
	v, ok := s.GetFields()[key]
	if !ok {
		return ""
	}
	return v.GetStringValue()
}
