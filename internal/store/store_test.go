// store_test.go provides a shared test database helper for all store
// integration tests. Tests are skipped if PostgreSQL is not available.
package store

import (
	"database/sql"
	"os"
	"testing"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/google/uuid"
	"github.com/pressly/goose/v3"

	"printforge/internal/database"
	"printforge/internal/models"
)

// testDSN returns the PostgreSQL connection string for testing.
// Uses environment variables with defaults matching docker-compose.yml.
func testDSN() string {
	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "printforge")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "printforge")
	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB opens a connection to the test database and runs migrations.
// If the database is unavailable, the test is skipped. A cleanup
// function is registered to close the connection when the test finishes.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	dsn := testDSN()
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Skipf("skipping integration test: cannot open DB: %v", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping integration test: DB not reachable: %v", err)
	}

	// Run migrations to ensure the schema is current.
	if err := database.Migrate(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	// Downgrade goose global state.
	goose.SetBaseFS(nil)

	t.Cleanup(func() { db.Close() })
	return db
}

// cleanEntries removes test entries by title. Child asset rows go with
// them via ON DELETE CASCADE. Call in t.Cleanup().
func cleanEntries(t *testing.T, db *sql.DB, titles ...string) {
	t.Helper()
	for _, title := range titles {
		db.Exec("DELETE FROM entries WHERE title = $1", title)
	}
}

// cleanCategories removes test categories by id. Call in t.Cleanup().
func cleanCategories(t *testing.T, db *sql.DB, ids ...string) {
	t.Helper()
	for _, id := range ids {
		db.Exec("DELETE FROM categories WHERE id = $1", id)
	}
}

// mustCreateEntry inserts a minimal entry for a test and returns it.
func mustCreateEntry(t *testing.T, s *EntryStore, kind models.EntryKind, title string) *models.Entry {
	t.Helper()
	created, err := s.Create(&models.Entry{
		Kind:        kind,
		Title:       title,
		CategoryID:  models.UncategorizedID,
		ThumbBucket: "printforge-content",
		ThumbKey:    "test/" + uuid.NewString() + "/thumb.jpg",
		ThumbURL:    "https://cdn.test/thumb.jpg",
		Active:      true,
	})
	if err != nil {
		t.Fatalf("create entry %q: %v", title, err)
	}
	return created
}
