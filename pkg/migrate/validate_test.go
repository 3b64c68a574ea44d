package migrate

import (
	"strings"
	"testing"
	"testing/fstest"
)

func TestEmbeddedMigrationsAreValid(t *testing.T) {
	if err := Validate(); err != nil {
		t.Fatalf("embedded migrations invalid: %v", err)
	}
}

func TestUserSessionsMigrationContainsSchema(t *testing.T) {
	data, err := embedded.ReadFile("migrations/20260301090000_create_user_sessions_table.sql")
	if err != nil {
		t.Fatalf("read migration: %v", err)
	}
	content := string(data)
	for _, sub := range []string{
		"CREATE TABLE IF NOT EXISTS user_sessions",
		"token_digest CHAR(64) PRIMARY KEY",
		"CREATE INDEX IF NOT EXISTS idx_user_sessions_user_id",
		"DROP TABLE IF EXISTS user_sessions",
	} {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestValidateFSRejectsBadFiles(t *testing.T) {
	up := "-- +goose Up\nSELECT 1;\n"
	full := up + "-- +goose Down\nSELECT 1;\n"

	cases := map[string]fstest.MapFS{
		"bad name": {
			"m/create_things.sql": {Data: []byte(full)},
		},
		"duplicate version": {
			"m/20260101000000_a.sql": {Data: []byte(full)},
			"m/20260101000000_b.sql": {Data: []byte(full)},
		},
		"missing down": {
			"m/20260101000000_a.sql": {Data: []byte(up)},
		},
	}
	for name, fsys := range cases {
		if err := validateFS(fsys, "m"); err == nil {
			t.Errorf("%s: expected validation error", name)
		}
	}

	ok := fstest.MapFS{
		"m/20260101000000_a.sql": {Data: []byte(full)},
		"m/README.md":            {Data: []byte("ignored")},
	}
	if err := validateFS(ok, "m"); err != nil {
		t.Fatalf("expected valid fs, got %v", err)
	}
}
