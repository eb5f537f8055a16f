package storage

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

// newPostgresRegistry connects to RAGBOT_POSTGRES_URL and empties the ragbot tables.
// Tests using it are skipped when the variable is unset.
func newPostgresRegistry(t *testing.T) *PostgresRegistry {
	t.Helper()
	dsn := os.Getenv("RAGBOT_POSTGRES_URL")
	if dsn == "" {
		t.Skip("RAGBOT_POSTGRES_URL not set")
	}
	ctx := context.Background()
	db, err := NewDB(ctx, dsn)
	require.NoError(t, err)
	reg := NewPostgresRegistry(db)
	t.Cleanup(func() { _ = reg.Close() })

	require.NoError(t, reg.InitSchema(ctx))
	_, err = db.Pool.Exec(ctx, `TRUNCATE ragbot_corpus, ragbot_files, ragbot_llm_calls RESTART IDENTITY`)
	require.NoError(t, err)
	return reg
}

func TestPostgresRegistryContract(t *testing.T) {
	runRegistryContract(t, newPostgresRegistry(t))
}

func TestPostgresRegistryConcurrentAppendsKeepEveryEntry(t *testing.T) {
	runConcurrentAppends(t, newPostgresRegistry(t))
}

func TestPostgresRegistryRecordsCalls(t *testing.T) {
	runCallAuditContract(t, newPostgresRegistry(t))
}

func TestPostgresRegistryInitSchemaIsIdempotent(t *testing.T) {
	reg := newPostgresRegistry(t)
	require.NoError(t, reg.InitSchema(context.Background()))
}
