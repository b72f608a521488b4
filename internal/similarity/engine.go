package similarity

import (
	"fmt"
	"path/filepath"

	"github.com/KyungWonPark/StateSpace/internal/align"
	"github.com/KyungWonPark/StateSpace/internal/errs"
	"github.com/KyungWonPark/StateSpace/internal/mask"
	"github.com/KyungWonPark/StateSpace/internal/volume"
	log "github.com/sirupsen/logrus"
)

// Reference is a named reference map, already on the mask grid.
type Reference struct {
	Name   string
	Values []float64
}

// ApplyMask multiplies v voxel-wise by m. v is first aligned onto the mask
// grid when their spatial shapes differ, and a 3-D mask is repeated over the
// timepoints of a 4-D volume.
func ApplyMask(v, m *volume.Volume) (*volume.Volume, error) {
	aligned := v
	if !v.SameGrid(m) {
		log.WithFields(log.Fields{
			"volume":     v.Name(),
			"shape":      v.Shape,
			"mask_shape": m.Shape,
		}).Debug("Shape mismatch, aligning volume onto mask")

		var err error
		if aligned, err = align.Align(v, m); err != nil {
			return nil, err
		}
	}

	full := m
	if m.Timepoints() != aligned.Timepoints() {
		if m.NDim() != 3 {
			return nil, &errs.PreconditionError{
				Path:   v.Name(),
				Reason: fmt.Sprintf("mask has %d timepoints, volume has %d", m.Timepoints(), aligned.Timepoints()),
			}
		}
		var err error
		if full, err = mask.BroadcastTime(m, aligned.Timepoints()); err != nil {
			return nil, err
		}
	}

	out := volume.New(aligned.Shape, aligned.Affine)
	out.Path = v.Path
	for i, x := range aligned.Data {
		// off-mask voxels are zero even when the input is NaN there
		if full.Data[i] != 0 {
			out.Data[i] = x * full.Data[i]
		}
	}
	return out, nil
}

// Engine holds everything needed to turn a loaded volume into scores.
type Engine struct {
	Method Method
	// Mask is 3-D and defines the grid every volume is scored on.
	Mask *volume.Volume
	// RequireMaskForDot masks volumes before InnerProduct scoring too. When
	// false, InnerProduct volumes are only aligned onto the mask grid.
	RequireMaskForDot bool
	// SaveMasked writes each prepared volume to OutputDir for inspection.
	SaveMasked bool
	OutputDir  string
}

// Prepare applies the mask to v (or only aligns it, see RequireMaskForDot).
func (e *Engine) Prepare(name string, v *volume.Volume) (*volume.Volume, error) {
	if e.Mask == nil {
		return nil, fmt.Errorf("similarity engine has no mask")
	}

	var (
		prepared *volume.Volume
		err      error
	)
	if e.Method == InnerProduct && !e.RequireMaskForDot {
		prepared, err = align.Align(v, e.Mask)
	} else {
		prepared, err = ApplyMask(v, e.Mask)
	}
	if err != nil {
		return nil, err
	}

	if e.SaveMasked {
		path := filepath.Join(e.OutputDir, name+"_masked.nii.gz")
		if _, err := volume.Save(prepared, path); err != nil {
			log.WithError(err).WithField("volume", name).Warn("Could not save masked volume")
		}
	}

	return prepared, nil
}

// ScoreAll scores one vector against every reference, in order.
func (e *Engine) ScoreAll(refs []Reference, vec []float64) ([]float64, error) {
	out := make([]float64, len(refs))
	for i, ref := range refs {
		s, err := Score(ref.Values, vec, e.Method)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", ref.Name, err)
		}
		out[i] = s
	}
	return out, nil
}
