// Package config describes where the StateSpace tools find their reference
// maps and masks, how they score inputs and what they write. Every command
// reads one YAML file and overrides it with flags.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/KyungWonPark/StateSpace/internal/identity"
	"github.com/KyungWonPark/StateSpace/internal/similarity"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Coverage names accepted for reference sets.
const (
	CoverageAll      = "all"
	CoverageCortical = "cortical_only"
)

// Config is the resource layout, scoring options and output settings of a run.
type Config struct {
	// Resources locate the bundled reference maps, masks and task maps
	Resources struct {
		// Root is the resource directory every other path is relative to
		Root string `yaml:"root"`

		// MaskDir holds <mask>.nii.gz files
		MaskDir string `yaml:"maskDir"`

		// TaskDir holds the task contrast maps scored by corrtasks
		TaskDir string `yaml:"taskDir"`

		// Extension of every volume file in the resource directories
		Extension string `yaml:"extension"`

		// ReferenceSets maps set name -> coverage -> directory
		ReferenceSets map[string]map[string]string `yaml:"referenceSets"`
	} `yaml:"resources"`

	// Processing controls how inputs are standardised, masked and scored
	Processing struct {
		// Method is spearman, pearson or dot
		Method string `yaml:"method"`

		// ZScore standardises each input over voxels and time before masking
		ZScore bool `yaml:"zscore"`

		// Workers is the number of goroutines used for matrix work
		Workers int `yaml:"workers"`

		// DotProductRequiresMask masks inputs before dot-product scoring too
		DotProductRequiresMask bool `yaml:"dotProductRequiresMask"`

		// RenumberRuns makes each subject's run labels start at 1
		RenumberRuns bool `yaml:"renumberRuns"`

		Markers identity.Markers `yaml:"markers"`
	} `yaml:"processing"`

	// Output controls the score tables and diagnostics
	Output struct {
		// Dir receives every table, named <prefix>_<method>[_zscore]
		Dir string `yaml:"dir"`

		// Delimiter of the written tables, "\t" or ","
		Delimiter string `yaml:"delimiter"`

		// SaveMasked writes every masked input volume for inspection
		SaveMasked bool `yaml:"saveMasked"`

		// Long also writes the long-form table
		Long bool `yaml:"long"`

		// Npy also writes the wide table values as a .npy matrix
		Npy bool `yaml:"npy"`

		// Verbose is -1 (warnings only), 0 (progress) or 1 (debug)
		Verbose int `yaml:"verbose"`
	} `yaml:"output"`
}

// DefaultConfig returns the BIDS-marker, rank-correlation setup with
// resources under ./resources and tab-separated tables under ./results.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Resources.Root = "resources"
	cfg.Resources.MaskDir = "masks"
	cfg.Resources.TaskDir = "tasks"
	cfg.Resources.Extension = ".nii.gz"
	cfg.Resources.ReferenceSets = map[string]map[string]string{
		"gradients": {
			CoverageAll:      filepath.Join("gradients", "cortical_subcortical"),
			CoverageCortical: filepath.Join("gradients", "cortical"),
		},
	}

	cfg.Processing.Method = similarity.Rank.String()
	cfg.Processing.ZScore = false
	cfg.Processing.Workers = runtime.NumCPU()
	cfg.Processing.DotProductRequiresMask = true
	cfg.Processing.Markers = identity.BIDS()

	cfg.Output.Dir = "results"
	cfg.Output.Delimiter = "\t"
	cfg.Output.Long = false
	cfg.Output.Npy = false
	cfg.Output.Verbose = 0

	return cfg
}

// LoadConfig overlays the YAML file at configPath on DefaultConfig. A missing
// file is not an error: the tools run on defaults and flags alone.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(configPath)
	if os.IsNotExist(err) {
		return cfg, nil
	} else if err != nil {
		return nil, fmt.Errorf("reading StateSpace config %s: %w", configPath, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing StateSpace config %s: %w", configPath, err)
	}

	return cfg, nil
}

// SaveConfig writes cfg as YAML, so the settings of a run can be kept next
// to its score tables and replayed with -config.
func SaveConfig(cfg *Config, configPath string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding StateSpace config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", configPath, err)
	}
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("writing StateSpace config %s: %w", configPath, err)
	}

	return nil
}

// Validate checks values that would otherwise fail deep inside a run.
func (c *Config) Validate() error {
	if _, err := similarity.ParseMethod(c.Processing.Method); err != nil {
		return err
	}
	if c.Processing.Workers < 1 {
		return fmt.Errorf("processing.workers must be at least 1, got %d", c.Processing.Workers)
	}
	if d := []rune(c.Output.Delimiter); len(d) != 1 {
		return fmt.Errorf("output.delimiter must be a single character, got %q", c.Output.Delimiter)
	}
	if c.Output.Verbose < -1 || c.Output.Verbose > 1 {
		return fmt.Errorf("output.verbose must be -1, 0 or 1, got %d", c.Output.Verbose)
	}
	for set, coverages := range c.Resources.ReferenceSets {
		for coverage := range coverages {
			if coverage != CoverageAll && coverage != CoverageCortical {
				return fmt.Errorf("reference set %s: unknown coverage %q", set, coverage)
			}
		}
	}
	return nil
}

// Method returns the parsed similarity method.
func (c *Config) Method() similarity.Method {
	m, _ := similarity.ParseMethod(c.Processing.Method)
	return m
}

// Delimiter returns the table delimiter rune.
func (c *Config) Delimiter() rune {
	if d := []rune(c.Output.Delimiter); len(d) == 1 {
		return d[0]
	}
	return '\t'
}

// ConfigureLogging sets the logrus level from Output.Verbose.
func (c *Config) ConfigureLogging() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	switch {
	case c.Output.Verbose < 0:
		log.SetLevel(log.WarnLevel)
	case c.Output.Verbose == 0:
		log.SetLevel(log.InfoLevel)
	default:
		log.SetLevel(log.DebugLevel)
	}
}
