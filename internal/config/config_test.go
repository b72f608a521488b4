package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/KyungWonPark/StateSpace/internal/similarity"
	log "github.com/sirupsen/logrus"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config is invalid: %v", err)
	}
	if cfg.Method() != similarity.Rank {
		t.Errorf("default method = %v, want spearman", cfg.Method())
	}
	if cfg.Delimiter() != '\t' {
		t.Errorf("default delimiter = %q, want tab", cfg.Delimiter())
	}
	if !cfg.Processing.DotProductRequiresMask {
		t.Error("dot-product scoring should require a mask by default")
	}
}

func TestLoadConfigMissingFileGivesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(os.TempDir(), "statespace-no-such-config.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Processing.Method != "spearman" {
		t.Errorf("method = %q, want spearman", cfg.Processing.Method)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir, err := os.MkdirTemp("", "statespace-config-*")
	if err != nil {
		t.Fatalf("Failed to create temporary directory: %v", err)
	}
	defer os.RemoveAll(dir)

	cfg := DefaultConfig()
	cfg.Processing.Method = "pearson"
	cfg.Processing.ZScore = true
	cfg.Processing.Markers.Run = ""
	cfg.Output.Delimiter = ","
	cfg.Resources.ReferenceSets["custom"] = map[string]string{CoverageCortical: "mine"}

	path := filepath.Join(dir, "nested", "config.yaml")
	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	got, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if got.Method() != similarity.Linear || !got.Processing.ZScore {
		t.Errorf("processing = %+v", got.Processing)
	}
	if got.Processing.Markers.Run != "" || got.Processing.Markers.Subject != "sub-" {
		t.Errorf("markers = %+v", got.Processing.Markers)
	}
	if got.Delimiter() != ',' {
		t.Errorf("delimiter = %q, want ','", got.Delimiter())
	}
	if got.Resources.ReferenceSets["custom"][CoverageCortical] != "mine" {
		t.Errorf("reference sets = %v", got.Resources.ReferenceSets)
	}
}

func TestLoadConfigPartialOverride(t *testing.T) {
	dir, err := os.MkdirTemp("", "statespace-config-*")
	if err != nil {
		t.Fatalf("Failed to create temporary directory: %v", err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "config.yaml")
	data := []byte("processing:\n  method: dot\noutput:\n  verbose: 1\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Method() != similarity.InnerProduct {
		t.Errorf("method = %v, want dot", cfg.Method())
	}
	if cfg.Resources.MaskDir != "masks" {
		t.Errorf("unset fields should keep their defaults, mask dir = %q", cfg.Resources.MaskDir)
	}

	cfg.ConfigureLogging()
	if log.GetLevel() != log.DebugLevel {
		t.Errorf("log level = %v, want debug", log.GetLevel())
	}
	log.SetLevel(log.InfoLevel)
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"method", func(c *Config) { c.Processing.Method = "kendall" }},
		{"workers", func(c *Config) { c.Processing.Workers = 0 }},
		{"delimiter", func(c *Config) { c.Output.Delimiter = ";;" }},
		{"verbose", func(c *Config) { c.Output.Verbose = 3 }},
		{"coverage", func(c *Config) { c.Resources.ReferenceSets["gradients"]["subcortical"] = "x" }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate should fail")
			}
		})
	}
}
