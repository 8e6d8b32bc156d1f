package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hostelcart/hostelcart-backend/pkg/migrate"
)

func TestStoreOrdersMigrationEnforcesSingleEmission(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_store_orders.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no store orders migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE IF NOT EXISTS store_orders",
		"CREATE UNIQUE INDEX ux_store_orders_group ON store_orders (group_order_id)",
		"FOREIGN KEY (store_order_id) REFERENCES store_orders(id) ON DELETE CASCADE",
		"CHECK (line_total >= 0)",
		"DROP TABLE IF EXISTS store_orders",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestMigrationDirValidates(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("migrations dir invalid: %v", err)
	}
}
