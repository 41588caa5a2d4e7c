package db

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestValidID(t *testing.T) {
	assert.True(t, ValidID(uuid.NewString()))
	assert.True(t, ValidID("4E7D4E5C-5CB9-4A3F-9F21-7E1A4F9F2B2A"))
	for _, id := range []string{"", "abc", "4e7d4e5c5cb94a3f9f217e1a4f9f2b2a", "{4e7d4e5c-5cb9-4a3f-9f21-7e1a4f9f2b2a}", "4e7d4e5c-5cb9-4a3f-9f21-7e1a4f9f2bzz"} {
		assert.False(t, ValidID(id), id)
	}
}
