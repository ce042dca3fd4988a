package database

import (
	"database/sql"
	"fmt"
	"log/slog"
)

// Seed populates the database with initial development data: a couple of
// categories and one sample design, so the dashboard has something to
// show on first boot. No-op when entries already exist.
func Seed(db *sql.DB) error {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM entries").Scan(&count); err != nil {
		return fmt.Errorf("seed check entries: %w", err)
	}

	if count > 0 {
		slog.Info("database already seeded, skipping")
		return nil
	}

	_, err := db.Exec(`
		INSERT INTO categories (id, label) VALUES
			('miniatures', 'Miniatures'),
			('home-decor', 'Home Decor')
		ON CONFLICT (id) DO NOTHING
	`)
	if err != nil {
		return fmt.Errorf("seed categories: %w", err)
	}

	_, err = db.Exec(`
		INSERT INTO entries (kind, title, blurb, price_label, category_id, sort_order, active)
		VALUES ('design', 'Sample Planter', 'A spiral vase-mode planter.', '$4', 'home-decor', 0, TRUE)
	`)
	if err != nil {
		return fmt.Errorf("seed sample entry: %w", err)
	}

	slog.Info("database seeded with sample catalog data")
	return nil
}
