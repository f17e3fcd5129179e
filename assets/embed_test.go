package assets

import (
	"strings"
	"testing"
)

func TestMigrations(t *testing.T) {
	ms, err := Migrations()
	if err != nil {
		t.Fatalf("Migrations: %v", err)
	}
	if len(ms) == 0 {
		t.Fatal("no migrations embedded")
	}
	if ms[0].Name != "migrations/001_games.sql" {
		t.Errorf("first migration = %s", ms[0].Name)
	}
	if !strings.Contains(ms[0].SQL, "CREATE TABLE IF NOT EXISTS games") {
		t.Errorf("games table missing from %s", ms[0].Name)
	}
	for i := 1; i < len(ms); i++ {
		if ms[i-1].Name >= ms[i].Name {
			t.Errorf("migrations out of order: %s, %s", ms[i-1].Name, ms[i].Name)
		}
	}
}
