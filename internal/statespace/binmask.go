package statespace

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/KyungWonPark/StateSpace/internal/align"
	"github.com/KyungWonPark/StateSpace/internal/errs"
	"github.com/KyungWonPark/StateSpace/internal/mask"
	"github.com/KyungWonPark/StateSpace/internal/resources"
	"github.com/KyungWonPark/StateSpace/internal/volume"
	log "github.com/sirupsen/logrus"
)

// Mask construction methods.
const (
	// GradOnly binarizes the reference maps, which must share their support.
	GradOnly = "grad_only"
	// AllMaps intersects the supports of the task maps and the reference maps.
	AllMaps = "all_maps"
)

// BinMask builds a mask from the reference maps of opts and saves it to the
// catalog's mask directory as gradientmask_<coverage> or
// combinedmask_<coverage>. For GradOnly, maps whose support differs from the
// first are reported with a *errs.ConsistencyError, and the first map's mask
// is saved regardless. taskPaths default to the bundled task maps.
func (r *Runner) BinMask(method string, opts Options, taskPaths []string) (string, error) {
	refPaths, err := r.Catalog.ReferencePaths(opts.ReferenceSet, opts.Coverage)
	if err != nil {
		return "", err
	}
	refs, err := resources.LoadReferences(refPaths, nil)
	if err != nil {
		return "", err
	}

	var (
		m           *volume.Volume
		consistency error
		name        string
	)

	switch method {
	case GradOnly:
		name = "gradientmask_" + opts.Coverage
		m, err = mask.FromReferences(resources.Volumes(refs), resources.Names(refs))
		var ce *errs.ConsistencyError
		if errors.As(err, &ce) {
			log.WithField("divergent", ce.Divergent).Warn("Reference masks do not match, keeping the first")
			consistency, err = err, nil
		}
		if err != nil {
			return "", err
		}

	case AllMaps:
		name = "combinedmask_" + opts.Coverage
		if len(taskPaths) == 0 {
			if taskPaths, err = r.Catalog.TaskPaths(); err != nil {
				return "", err
			}
		}

		grid := refs[0].Volume
		maps := resources.Volumes(refs)
		for _, path := range taskPaths {
			v, err := volume.Load(path)
			if err != nil {
				return "", err
			}
			if v, err = align.Align(v, grid); err != nil {
				return "", err
			}
			maps = append(maps, v)
		}
		if m, err = mask.Intersect(maps...); err != nil {
			return "", err
		}

	default:
		return "", fmt.Errorf("unknown mask method %q (want %s or %s)", method, GradOnly, AllMaps)
	}

	out := filepath.Join(r.Catalog.Root, r.Catalog.MaskDir, name+".nii.gz")
	written, err := volume.Save(m, out)
	if err != nil {
		return "", err
	}

	log.WithFields(log.Fields{
		"path":   written,
		"voxels": mask.Count(m),
	}).Info("Saved mask")

	return written, consistency
}
