package plan

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	for in, want := range map[string]Tier{"free": Free, " Professional ": Professional, "ENTERPRISE": Enterprise} {
		got, err := Parse(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	for _, in := range []string{"", "gold", "pro"} {
		_, err := Parse(in)
		assert.ErrorIs(t, err, ErrUnknownTier, in)
	}
}

func TestLimits(t *testing.T) {
	free := Free.Limits()
	assert.Equal(t, 30, free.MaxProducts)
	assert.Equal(t, 10, free.MaxRecipes)
	assert.False(t, free.SpreadsheetImport || free.PDFExport || free.Backup)

	pro := Professional.Limits()
	assert.Equal(t, 500, pro.MaxProducts)
	assert.True(t, pro.SpreadsheetImport && pro.PDFExport && pro.Backup)

	assert.Zero(t, Enterprise.Limits().MaxProducts)
	assert.False(t, Free.Paid())
	assert.True(t, Professional.Paid())
	assert.True(t, Enterprise.Paid())
}

func TestEffective(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	later, earlier := now.Add(time.Hour), now.Add(-time.Hour)

	assert.Equal(t, Professional, Effective(Professional, nil, now))
	assert.Equal(t, Professional, Effective(Professional, &later, now))
	assert.Equal(t, Free, Effective(Professional, &earlier, now))
	assert.Equal(t, Free, Effective(Enterprise, &now, now), "expiry is inclusive")
	assert.Equal(t, Free, Effective(Tier("legacy"), nil, now))
}

func TestAllow(t *testing.T) {
	assert.True(t, Allow(30, 29))
	assert.False(t, Allow(30, 30))
	assert.True(t, Allow(0, 100000), "zero means unlimited")
}
