// Package resources locates and loads the reference maps, masks and task
// maps that ship alongside the tools.
package resources

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/KyungWonPark/StateSpace/internal/align"
	"github.com/KyungWonPark/StateSpace/internal/config"
	"github.com/KyungWonPark/StateSpace/internal/identity"
	"github.com/KyungWonPark/StateSpace/internal/similarity"
	"github.com/KyungWonPark/StateSpace/internal/volume"
	"github.com/carbocation/pfx"
	log "github.com/sirupsen/logrus"
)

// Catalog resolves resource names to files under a root directory.
type Catalog struct {
	Root          string
	MaskDir       string
	TaskDir       string
	Extension     string
	ReferenceSets map[string]map[string]string
}

// NewCatalog builds a catalog from the resources section of cfg.
func NewCatalog(cfg *config.Config) *Catalog {
	return &Catalog{
		Root:          cfg.Resources.Root,
		MaskDir:       cfg.Resources.MaskDir,
		TaskDir:       cfg.Resources.TaskDir,
		Extension:     cfg.Resources.Extension,
		ReferenceSets: cfg.Resources.ReferenceSets,
	}
}

// MaskPath returns the file of a named mask. An existing path is returned
// unchanged so callers can pass their own mask file.
func (c *Catalog) MaskPath(name string) (string, error) {
	if fi, err := os.Stat(name); err == nil && !fi.IsDir() {
		return name, nil
	}

	path := filepath.Join(c.Root, c.MaskDir, name+c.Extension)
	if _, err := os.Stat(path); err != nil {
		return "", pfx.Err(fmt.Errorf("mask %q: %w", name, err))
	}
	return path, nil
}

// ReferenceDir returns the directory of a reference set at a coverage.
func (c *Catalog) ReferenceDir(set, coverage string) (string, error) {
	coverages, ok := c.ReferenceSets[set]
	if !ok {
		return "", pfx.Err(fmt.Errorf("unknown reference set %q", set))
	}
	dir, ok := coverages[coverage]
	if !ok {
		return "", pfx.Err(fmt.Errorf("reference set %q has no %q coverage", set, coverage))
	}
	return filepath.Join(c.Root, dir), nil
}

// ReferencePaths lists the reference maps of a set, sorted by name.
func (c *Catalog) ReferencePaths(set, coverage string) ([]string, error) {
	dir, err := c.ReferenceDir(set, coverage)
	if err != nil {
		return nil, err
	}
	paths, err := c.glob(dir)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, pfx.Err(fmt.Errorf("no reference maps in %s", dir))
	}
	return paths, nil
}

// TaskPaths lists the bundled task maps, sorted by name.
func (c *Catalog) TaskPaths() ([]string, error) {
	return c.glob(filepath.Join(c.Root, c.TaskDir))
}

func (c *Catalog) glob(dir string) ([]string, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*"+c.Extension))
	if err != nil {
		return nil, pfx.Err(err)
	}
	sort.Strings(paths)
	return paths, nil
}

// Reference is a loaded reference map.
type Reference struct {
	Name   string
	Path   string
	Volume *volume.Volume
}

// Similarity returns the form the similarity engine scores against.
func (r Reference) Similarity() similarity.Reference {
	return similarity.Reference{Name: r.Name, Values: r.Volume.Data}
}

// LoadReferences loads every path and aligns it onto grid when grid is not nil.
func LoadReferences(paths []string, grid *volume.Volume) ([]Reference, error) {
	refs := make([]Reference, 0, len(paths))
	for _, path := range paths {
		v, err := volume.Load(path)
		if err != nil {
			return nil, err
		}
		if v.NDim() != 3 && v.Timepoints() != 1 {
			return nil, pfx.Err(fmt.Errorf("reference map %s is 4-D", path))
		}
		if grid != nil {
			if v, err = align.Align(v, grid); err != nil {
				return nil, err
			}
		}

		refs = append(refs, Reference{Name: identity.Stem(path), Path: path, Volume: v})

		log.WithFields(log.Fields{
			"reference": identity.Stem(path),
			"shape":     v.Shape,
		}).Debug("Loaded reference map")
	}
	return refs, nil
}

// Names returns the reference names in order.
func Names(refs []Reference) []string {
	out := make([]string, len(refs))
	for i, r := range refs {
		out[i] = r.Name
	}
	return out
}

// Volumes returns the reference volumes in order.
func Volumes(refs []Reference) []*volume.Volume {
	out := make([]*volume.Volume, len(refs))
	for i, r := range refs {
		out[i] = r.Volume
	}
	return out
}
