package billing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPGRepo_MalformedTenantIsNotFound(t *testing.T) {
	repo := NewPGRepo(nil)

	_, err := repo.GetByTenant(context.Background(), "tenant-1")
	assert.ErrorIs(t, err, ErrNotFound)
}
