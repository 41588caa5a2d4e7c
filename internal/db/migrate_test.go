package db

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateURL(t *testing.T) {
	assert.Equal(t, "pgx5://u:p@localhost:5432/costeo?sslmode=disable",
		MigrateURL("postgres://u:p@localhost:5432/costeo?sslmode=disable"))
	assert.Equal(t, "pgx5://u@db/costeo", MigrateURL("postgresql://u@db/costeo"))
	assert.Equal(t, "pgx5://already", MigrateURL("pgx5://already"))
}

func TestMigrationsArePaired(t *testing.T) {
	files, err := fs.Glob(migrations, "migrations/*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	ups, downs := map[string]bool{}, map[string]bool{}
	for _, f := range files {
		name := strings.TrimPrefix(f, "migrations/")
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		default:
			t.Fatalf("unexpected migration file %s", name)
		}
	}
	assert.Equal(t, ups, downs)
}

func TestSchemaHasUniqueKeys(t *testing.T) {
	b, err := migrations.ReadFile("migrations/000003_billing.up.sql")
	require.NoError(t, err)
	sql := string(b)
	assert.Contains(t, sql, "stripe_invoice_id TEXT NOT NULL UNIQUE")
	assert.Contains(t, sql, "tenant_id              UUID NOT NULL UNIQUE")

	b, err = migrations.ReadFile("migrations/000002_inventory.up.sql")
	require.NoError(t, err)
	assert.Contains(t, string(b), "(tenant_id, lower(name))")
}
