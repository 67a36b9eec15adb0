package testutil

import (
	"database/sql"
	"os"
	"testing"

	"github.com/grecko-app/grecko/storage/database"
)

// DatabaseURLEnv names the variable holding the test database URL.
const DatabaseURLEnv = "GRECKO_TEST_DATABASE_URL"

// PrepareDB opens and migrates the test database and empties its tables.
// The test is skipped when no test database is configured.
func PrepareDB(t *testing.T) *sql.DB {
	t.Helper()
	dbURL := os.Getenv(DatabaseURLEnv)
	if dbURL == "" {
		t.Skipf("%s not set", DatabaseURLEnv)
	}

	db, err := database.OpenURL(dbURL)
	if err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	if err = database.Migrate(db, "up"); err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	if _, err = db.Exec(`TRUNCATE TABLE goal, gpa_history`); err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}
