package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	def := DefaultConfig()
	if cfg.Store.Path != def.Store.Path {
		t.Errorf("Store.Path = %q, want default %q", cfg.Store.Path, def.Store.Path)
	}
	if cfg.Store.Capacity != 1000 {
		t.Errorf("Store.Capacity = %d, want 1000", cfg.Store.Capacity)
	}
	if cfg.Predict.Length != 8 {
		t.Errorf("Predict.Length = %d, want 8", cfg.Predict.Length)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config must validate: %v", err)
	}
}

func TestSaveLoadRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "bitprof.yaml")

	cfg := DefaultConfig()
	cfg.Store.Path = "/var/lib/bitprof/records.json"
	cfg.Store.FragmentDirs = []string{"/var/lib/bitprof/a", "/var/lib/bitprof/b"}
	cfg.Store.Capacity = 42
	cfg.Consolidation.MinInterval = "10s"
	cfg.Consolidation.MaxInterval = "90s"
	cfg.Consolidation.WatchFragments = true
	cfg.Predict.Length = 16

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Store.Path != cfg.Store.Path {
		t.Errorf("Store.Path = %q, want %q", loaded.Store.Path, cfg.Store.Path)
	}
	if len(loaded.Store.FragmentDirs) != 2 {
		t.Fatalf("FragmentDirs = %v, want 2 entries", loaded.Store.FragmentDirs)
	}
	if loaded.Store.Capacity != 42 {
		t.Errorf("Store.Capacity = %d, want 42", loaded.Store.Capacity)
	}
	if !loaded.Consolidation.WatchFragments {
		t.Error("WatchFragments not preserved")
	}
	if got := loaded.GetMinInterval(); got != 10*time.Second {
		t.Errorf("GetMinInterval = %v, want 10s", got)
	}
	if got := loaded.GetMaxInterval(); got != 90*time.Second {
		t.Errorf("GetMaxInterval = %v, want 90s", got)
	}
	if loaded.Predict.Length != 16 {
		t.Errorf("Predict.Length = %d, want 16", loaded.Predict.Length)
	}
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	partial := []byte("store:\n  capacity: 7\n")
	if err := os.WriteFile(path, partial, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Store.Capacity != 7 {
		t.Errorf("Store.Capacity = %d, want 7", cfg.Store.Capacity)
	}
	if cfg.Predict.Length != 8 {
		t.Errorf("Predict.Length = %d, want default 8", cfg.Predict.Length)
	}
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("store: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for malformed YAML")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("BITPROF_STORE_PATH", "/tmp/override.json")
	t.Setenv("BITPROF_FRAGMENT_DIRS", "/tmp/a, /tmp/b ,")
	t.Setenv("BITPROF_LOG_LEVEL", "debug")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Store.Path != "/tmp/override.json" {
		t.Errorf("Store.Path = %q, want env override", cfg.Store.Path)
	}
	if len(cfg.Store.FragmentDirs) != 2 ||
		cfg.Store.FragmentDirs[0] != "/tmp/a" || cfg.Store.FragmentDirs[1] != "/tmp/b" {
		t.Errorf("FragmentDirs = %v, want [/tmp/a /tmp/b]", cfg.Store.FragmentDirs)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"Defaults", func(c *Config) {}, false},
		{"EmptyStorePath", func(c *Config) { c.Store.Path = "" }, true},
		{"ZeroCapacity", func(c *Config) { c.Store.Capacity = 0 }, true},
		{"NegativePredictLength", func(c *Config) { c.Predict.Length = -1 }, true},
		{"InvertedIntervals", func(c *Config) {
			c.Consolidation.MinInterval = "300s"
			c.Consolidation.MaxInterval = "60s"
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestIntervalGetterFallbacks(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Consolidation.MinInterval = "not-a-duration"
	cfg.Consolidation.MaxInterval = ""

	if got := cfg.GetMinInterval(); got != 60*time.Second {
		t.Errorf("GetMinInterval fallback = %v, want 60s", got)
	}
	if got := cfg.GetMaxInterval(); got != 300*time.Second {
		t.Errorf("GetMaxInterval fallback = %v, want 300s", got)
	}
}
