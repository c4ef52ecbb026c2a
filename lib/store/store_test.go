package store

import "testing"

func TestPostgresConfigDSN(t *testing.T) {
	cfg := PostgresConfig{Host: "db", Port: 5433, Database: "modes_state", User: "u", Password: "p"}
	got := cfg.dsn()
	want := "host=db port=5433 dbname=modes_state user=u password=p sslmode=disable"
	if got != want {
		t.Errorf("dsn = %q, want %q", got, want)
	}

	cfg.SSLMode = "require"
	if got := cfg.dsn(); got != "host=db port=5433 dbname=modes_state user=u password=p sslmode=require" {
		t.Errorf("dsn with sslmode = %q", got)
	}
}

func TestDefaultConfigHasSaneBatching(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.BatchSize <= 0 {
		t.Error("default batch size must be positive")
	}
	if cfg.FlushInterval <= 0 {
		t.Error("default flush interval must be positive")
	}
}
