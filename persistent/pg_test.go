package persistent

import (
	"context"
	"testing"

	"github.com/uptrace/bun"
)

// openTestDb connects to the database started by cmd/testenv. Tests are
// skipped in short mode or when no database is configured.
func openTestDb(t *testing.T) *bun.DB {
	if testing.Short() || TestEnvDsn() == "" {
		t.SkipNow()
	}
	db, err := PgOpenTest(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}
