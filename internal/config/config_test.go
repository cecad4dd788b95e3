package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Listen != DefaultListen {
		t.Fatalf("listen = %q, want %q", cfg.Server.Listen, DefaultListen)
	}
	if cfg.Database.DSN != DefaultDSN {
		t.Fatalf("dsn = %q, want %q", cfg.Database.DSN, DefaultDSN)
	}
	if cfg.Log.Level != "info" {
		t.Fatalf("log level = %q, want info", cfg.Log.Level)
	}
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	doc := `
server:
  listen: ":9000"
database:
  dsn: "file:ledger.db"
log:
  level: debug
ledger:
  retry-attempts: 5
  sweep-interval-minutes: 30
`
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CREDITLEDGER_DSN", "postgres://ledger@localhost/ledger")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Listen != ":9000" {
		t.Fatalf("listen = %q", cfg.Server.Listen)
	}
	if cfg.Database.DSN != "postgres://ledger@localhost/ledger" {
		t.Fatalf("env override lost, dsn = %q", cfg.Database.DSN)
	}
	if cfg.Log.Level != "debug" {
		t.Fatalf("log level = %q", cfg.Log.Level)
	}
	if cfg.Ledger.RetryAttempts != 5 || cfg.Ledger.SweepIntervalMinutes != 30 {
		t.Fatalf("ledger tuning = %+v", cfg.Ledger)
	}
}

func TestLoadMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server: [oops"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}
