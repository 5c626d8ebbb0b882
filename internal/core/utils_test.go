package core

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestSplitList(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"single", "Iron ore", []string{"Iron ore"}},
		{"several", "Iron ore;Adamant bar;Feathers", []string{"Iron ore", "Adamant bar", "Feathers"}},
		{"blank entries", "A;;B;", []string{"A", "B"}},
		{"whitespace", " A ; B ", []string{"A", "B"}},
		{"empty", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitList(tt.input, ';')
			if len(got) != len(tt.want) {
				t.Fatalf("SplitList(%q) = %v, want %v", tt.input, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("SplitList(%q)[%d] = %q, want %q", tt.input, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestRandomTokenIsFresh(t *testing.T) {
	a, b := RandomToken(), RandomToken()
	if a == "" || b == "" {
		t.Fatal("Expected non-empty tokens")
	}
	if a == b {
		t.Errorf("Expected two different tokens, got %q twice", a)
	}
}

func TestNewLoggerLevels(t *testing.T) {
	var buf bytes.Buffer

	quiet := NewLogger(&buf, false, true)
	quiet.Info("hidden")
	quiet.Warn("shown")
	if strings.Contains(buf.String(), "hidden") {
		t.Error("Expected quiet logger to drop info messages")
	}
	if !strings.Contains(buf.String(), "shown") {
		t.Error("Expected quiet logger to keep warnings")
	}

	buf.Reset()
	verbose := NewLogger(&buf, true, false)
	verbose.Debug("details")
	if !strings.Contains(buf.String(), "details") {
		t.Error("Expected verbose logger to print debug messages")
	}
}

func TestOrDiscard(t *testing.T) {
	logger := OrDiscard(nil)
	if logger == nil {
		t.Fatal("Expected a usable logger")
	}
	logger.Info("goes nowhere")
}

func TestLoadConfigDefaults(t *testing.T) {
	// Empty variables count as unset
	t.Setenv("GE_INSPECTOR_STORE_PATH", "")
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.StorePath != StorePath() {
		t.Errorf("StorePath = %q, want %q", cfg.StorePath, StorePath())
	}
	if cfg.Cooldown != DefaultUpdateCooldown {
		t.Errorf("Cooldown = %v, want %v", cfg.Cooldown, DefaultUpdateCooldown)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("GE_INSPECTOR_STORE_PATH", dir+"/price.json")
	t.Setenv("GE_INSPECTOR_COOLDOWN", "30m")
	t.Setenv("GE_INSPECTOR_RETRIES", "5")
	t.Setenv("GE_INSPECTOR_ENRICH_BATCH", "4")
	t.Setenv("GE_INSPECTOR_FUZZ", "0.1")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.StorePath != dir+"/price.json" {
		t.Errorf("StorePath = %q", cfg.StorePath)
	}
	if cfg.Cooldown != 30*time.Minute {
		t.Errorf("Cooldown = %v, want 30m", cfg.Cooldown)
	}
	if cfg.Retries != 5 {
		t.Errorf("Retries = %d, want 5", cfg.Retries)
	}
	if cfg.EnrichBatch != 4 {
		t.Errorf("EnrichBatch = %d, want 4", cfg.EnrichBatch)
	}
	if cfg.FuzzFactor != 0.1 {
		t.Errorf("FuzzFactor = %v, want 0.1", cfg.FuzzFactor)
	}
	if cfg.LockPath != LockPath() {
		t.Errorf("LockPath = %q, want default %q", cfg.LockPath, LockPath())
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"temp equals store", func(c *Config) { c.TempPath = c.StorePath }, true},
		{"negative retries", func(c *Config) { c.Retries = -1 }, true},
		{"zero batch", func(c *Config) { c.EnrichBatch = 0 }, true},
		{"negative fuzz", func(c *Config) { c.FuzzFactor = -0.5 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
