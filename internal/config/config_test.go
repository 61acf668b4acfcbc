package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	t.Setenv("ENVIRONMENT", "test")
	t.Setenv("TABLE_PREFIX", "")
	t.Setenv("LISTING_CACHE_TTL", "90s")
	t.Setenv("LOG_MAX_FILES", "not-a-number")

	cfg := Load()

	if cfg.TablePrefix != "test_" {
		t.Errorf("TablePrefix = %q, want test_", cfg.TablePrefix)
	}
	if cfg.ListingCacheTTL != 90*time.Second {
		t.Errorf("ListingCacheTTL = %v, want 90s", cfg.ListingCacheTTL)
	}
	if cfg.LogMaxFiles != 10 {
		t.Errorf("LogMaxFiles = %d, want default 10", cfg.LogMaxFiles)
	}
	if cfg.IsDev() {
		t.Error("IsDev() = true in test environment")
	}
}

func TestGetTablePrefix(t *testing.T) {
	tests := []struct {
		env      string
		override string
		want     string
	}{
		{env: "prod", want: "prod_"},
		{env: "dev", want: "dev_"},
		{env: "staging", want: "dev_"},
		{env: "prod", override: "demo_", want: "demo_"},
	}

	for _, tt := range tests {
		t.Setenv("TABLE_PREFIX", tt.override)
		if got := getTablePrefix(tt.env); got != tt.want {
			t.Errorf("getTablePrefix(%q) with override %q = %q, want %q", tt.env, tt.override, got, tt.want)
		}
	}
}

func TestSetupLogFile_Prunes(t *testing.T) {
	dir := t.TempDir()
	for _, ts := range []string{"2024-01-01T00-00-00", "2024-01-02T00-00-00", "2024-01-03T00-00-00"} {
		if err := os.WriteFile(filepath.Join(dir, "server-"+ts+".log"), nil, 0644); err != nil {
			t.Fatal(err)
		}
	}
	// Logs of other binaries are left alone.
	if err := os.WriteFile(filepath.Join(dir, "seed-2024-01-01T00-00-00.log"), nil, 0644); err != nil {
		t.Fatal(err)
	}

	f, err := SetupLogFile(dir, "server", 2)
	if err != nil {
		t.Fatalf("SetupLogFile() error = %v", err)
	}
	defer f.Close()

	servers, _ := filepath.Glob(filepath.Join(dir, "server-*.log"))
	if len(servers) != 2 {
		t.Errorf("kept %d server logs, want 2", len(servers))
	}
	if _, err := os.Stat(filepath.Join(dir, "seed-2024-01-01T00-00-00.log")); err != nil {
		t.Errorf("seed log removed: %v", err)
	}
}
