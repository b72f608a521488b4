// Package cli holds the flags shared by the StateSpace commands.
package cli

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/KyungWonPark/StateSpace/internal/config"
	"github.com/KyungWonPark/StateSpace/internal/statespace"
	"github.com/carbocation/pfx"
)

// Flags are the command-line overrides of the YAML configuration.
type Flags struct {
	ConfigPath   string
	Mask         string
	ReferenceSet string
	Coverage     string
	Name         string
	Method       string
	ZScore       bool
	OutputDir    string
	Verbose      int
	SaveMasked   bool
	Long         bool
	Npy          bool
	WriteConfig  string
}

// Register adds the shared flags to fs.
func Register(fs *flag.FlagSet, defaultMask string) *Flags {
	f := &Flags{}
	fs.StringVar(&f.ConfigPath, "config", "statespace.yaml", "YAML configuration file")
	fs.StringVar(&f.Mask, "mask", defaultMask, "Mask name in the resource mask directory, or a mask file")
	fs.StringVar(&f.ReferenceSet, "refs", "gradients", "Reference map set")
	fs.StringVar(&f.Coverage, "coverage", config.CoverageAll, "Reference coverage: all or cortical_only")
	fs.StringVar(&f.Name, "name", "", "Prefix of the output files")
	fs.StringVar(&f.Method, "method", "", "Similarity method: spearman, pearson or dot (default from config)")
	fs.BoolVar(&f.ZScore, "zscore", false, "Z-score each input over voxels and time before scoring")
	fs.StringVar(&f.OutputDir, "out", "", "Output directory (default from config, or $RESULT)")
	fs.IntVar(&f.Verbose, "v", 0, "Verbosity: -1 warnings only, 0 progress, 1 debug")
	fs.BoolVar(&f.SaveMasked, "save-masked", false, "Write every masked input volume for inspection")
	fs.BoolVar(&f.Long, "long", false, "Also write the long-form table")
	fs.BoolVar(&f.Npy, "npy", false, "Also write the scores as a .npy matrix")
	fs.StringVar(&f.WriteConfig, "write-config", "", "Write the effective configuration to this file")
	return f
}

// Load reads the configuration and applies the flags that were set on fs.
// $DATA and $RESULT fill in the resource root and output directory when the
// configuration leaves them at their defaults.
func (f *Flags) Load(fs *flag.FlagSet) (*config.Config, error) {
	cfg, err := config.LoadConfig(f.ConfigPath)
	if err != nil {
		return nil, pfx.Err(err)
	}

	defaults := config.DefaultConfig()
	if dir := os.Getenv("DATA"); dir != "" && cfg.Resources.Root == defaults.Resources.Root {
		cfg.Resources.Root = dir
	}
	if dir := os.Getenv("RESULT"); dir != "" && cfg.Output.Dir == defaults.Output.Dir {
		cfg.Output.Dir = dir
	}

	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "method":
			cfg.Processing.Method = f.Method
		case "zscore":
			cfg.Processing.ZScore = f.ZScore
		case "out":
			cfg.Output.Dir = f.OutputDir
		case "v":
			cfg.Output.Verbose = f.Verbose
		case "save-masked":
			cfg.Output.SaveMasked = f.SaveMasked
		case "long":
			cfg.Output.Long = f.Long
		case "npy":
			cfg.Output.Npy = f.Npy
		}
	})

	if err := cfg.Validate(); err != nil {
		return nil, pfx.Err(err)
	}
	cfg.ConfigureLogging()

	if f.WriteConfig != "" {
		if err := config.SaveConfig(cfg, f.WriteConfig); err != nil {
			return nil, pfx.Err(err)
		}
	}

	return cfg, nil
}

// Runner loads the configuration and builds a runner with the run options.
func (f *Flags) Runner(fs *flag.FlagSet) (*statespace.Runner, statespace.Options, error) {
	cfg, err := f.Load(fs)
	if err != nil {
		return nil, statespace.Options{}, err
	}
	r, err := statespace.NewRunner(cfg)
	if err != nil {
		return nil, statespace.Options{}, err
	}
	return r, statespace.Options{
		Mask:         f.Mask,
		ReferenceSet: f.ReferenceSet,
		Coverage:     f.Coverage,
		Name:         f.Name,
	}, nil
}

// Inputs expands glob patterns among args into a sorted, de-duplicated list
// of paths. Arguments without glob metacharacters are kept as given.
func Inputs(args []string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	for _, arg := range args {
		matches, err := filepath.Glob(arg)
		if err != nil {
			return nil, pfx.Err(fmt.Errorf("bad pattern %q: %w", arg, err))
		}
		if len(matches) == 0 {
			matches = []string{arg}
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				out = append(out, m)
			}
		}
	}
	sort.Strings(out)
	return out, nil
}

// Report prints the written files and skipped inputs of a run.
func Report(res *statespace.Result) {
	for _, path := range res.Files {
		fmt.Printf("Wrote %s\n", path)
	}
	for _, s := range res.Skipped {
		fmt.Printf("Skipped %s: %v\n", s.Path, s.Err)
	}
}
