package storage

import (
	"io/fs"
	"strings"
	"testing"
)

// TestEmbeddedMigrationsPaired verifies every embedded up migration has a
// matching down migration.
func TestEmbeddedMigrationsPaired(t *testing.T) {
	names, err := fs.Glob(migrations, "migrations/*.sql")
	if err != nil {
		t.Fatal(err)
	}
	if len(names) == 0 {
		t.Fatal("no embedded migrations")
	}
	seen := map[string]int{}
	for _, n := range names {
		base := strings.TrimSuffix(strings.TrimSuffix(strings.TrimSuffix(n, ".sql"), ".up"), ".down")
		seen[base]++
	}
	for base, n := range seen {
		if n != 2 {
			t.Errorf("%s has %d files, want up and down", base, n)
		}
	}
}

// TestInitMigrationCreatesTables verifies the schema covers the repository tables.
func TestInitMigrationCreatesTables(t *testing.T) {
	data, err := fs.ReadFile(migrations, "migrations/000001_init.up.sql")
	if err != nil {
		t.Fatal(err)
	}
	for _, table := range []string{"users", "workout_sets", "sync_logs"} {
		if !strings.Contains(string(data), "CREATE TABLE IF NOT EXISTS "+table) {
			t.Errorf("init migration does not create %s", table)
		}
	}
	if !strings.Contains(string(data), "PRIMARY KEY (user_id, session_id, exercise_number, set_number)") {
		t.Error("workout_sets lacks the conflict key used by InsertWorkoutSets")
	}
}
