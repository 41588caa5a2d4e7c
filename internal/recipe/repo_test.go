package recipe

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPGRepo_MalformedIDsAreNotFound(t *testing.T) {
	repo := NewPGRepo(nil)

	_, err := repo.GetByID(context.Background(), "t1", "abc")
	assert.ErrorIs(t, err, ErrNotFound)

	ok, err := repo.Delete(context.Background(), "t1", "abc")
	require.NoError(t, err)
	assert.False(t, ok)
}
