package affiliate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPGRepo_MalformedIDsAreNotFound(t *testing.T) {
	repo := NewPGRepo(nil)
	ctx := context.Background()

	_, err := repo.GetByID(ctx, "abc")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = repo.GetByUserID(ctx, "abc")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repo.UpdateStatus(ctx, "abc", StatusInactive), ErrNotFound)
	_, err = repo.GetCommission(ctx, "abc")
	assert.ErrorIs(t, err, ErrCommissionNotFound)
	assert.ErrorIs(t, repo.TransitionCommission(ctx, "abc", Pending, Approved, nil), ErrCommissionNotFound)
}
