package product

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// A nil pool proves malformed ids are answered before any query runs.
func TestPGRepo_MalformedIDsAreNotFound(t *testing.T) {
	repo := NewPGRepo(nil)
	ctx := context.Background()

	_, err := repo.GetByID(ctx, "t1", "abc")
	assert.ErrorIs(t, err, ErrNotFound)

	ok, err := repo.Delete(ctx, "t1", "1; DROP TABLE products")
	require.NoError(t, err)
	assert.False(t, ok)

	ms, err := repo.ListMovements(ctx, "t1", "abc", 20, 0)
	require.NoError(t, err)
	assert.Empty(t, ms)

	_, err = repo.ApplyMovements(ctx, "t1", "u1", []BatchMovement{{ProductID: "abc"}})
	assert.ErrorIs(t, err, ErrNotFound)
}
