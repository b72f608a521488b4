// Package mask builds binary voxel masks and combines them.
package mask

import (
	"fmt"

	"github.com/KyungWonPark/StateSpace/internal/errs"
	"github.com/KyungWonPark/StateSpace/internal/volume"
	log "github.com/sirupsen/logrus"
)

// Binarize sets every non-zero voxel to 1 and every zero voxel to 0.
// NaN is non-zero.
func Binarize(v *volume.Volume) *volume.Volume {
	out := volume.New(v.Shape, v.Affine)
	out.Path = v.Path
	for i, x := range v.Data {
		if x != 0 {
			out.Data[i] = 1
		}
	}
	return out
}

// Intersect is the voxel-wise logical AND of the binarized inputs. The result
// takes the affine of the first mask.
func Intersect(masks ...*volume.Volume) (*volume.Volume, error) {
	if len(masks) == 0 {
		return nil, &errs.PreconditionError{Reason: "no masks to intersect"}
	}

	out := Binarize(masks[0])
	out.Path = ""
	for _, m := range masks[1:] {
		if !m.SameGrid(out) || m.Timepoints() != out.Timepoints() {
			return nil, &errs.PreconditionError{
				Path:   m.Name(),
				Reason: fmt.Sprintf("mask shape %v does not match %v", m.Shape, out.Shape),
			}
		}
		for i, x := range m.Data {
			if x == 0 {
				out.Data[i] = 0
			}
		}
	}

	return out, nil
}

// BroadcastTime repeats a 3-D mask along a new trailing time axis.
func BroadcastTime(m *volume.Volume, timepoints int) (*volume.Volume, error) {
	if m.NDim() != 3 {
		return nil, fmt.Errorf("cannot broadcast a %d-D mask over time", m.NDim())
	}
	if timepoints < 1 {
		return nil, fmt.Errorf("cannot broadcast over %d timepoints", timepoints)
	}

	s := m.Spatial()
	out := volume.New([]int{s[0], s[1], s[2], timepoints}, m.Affine)
	for t := 0; t < timepoints; t++ {
		copy(out.Frame(t), m.Data)
	}
	return out, nil
}

// Equal reports whether two masks cover the same voxels, and how many differ.
func Equal(a, b *volume.Volume) (bool, int) {
	if !a.SameGrid(b) || a.Timepoints() != b.Timepoints() {
		return false, -1
	}
	diff := 0
	for i := range a.Data {
		if (a.Data[i] != 0) != (b.Data[i] != 0) {
			diff++
		}
	}
	return diff == 0, diff
}

// FromReferences binarizes reference maps that are expected to share the same
// support. The mask of the first map is always returned. When any other map
// binarizes differently, a *errs.ConsistencyError is returned alongside it.
func FromReferences(maps []*volume.Volume, names []string) (*volume.Volume, error) {
	if len(maps) == 0 {
		return nil, &errs.PreconditionError{Reason: "no reference maps to build a mask from"}
	}

	name := func(i int) string {
		if i < len(names) {
			return names[i]
		}
		return maps[i].Name()
	}

	primary := Binarize(maps[0])
	var consistency *errs.ConsistencyError

	for i := 1; i < len(maps); i++ {
		candidate := Binarize(maps[i])
		if same, diff := Equal(primary, candidate); !same {
			if consistency == nil {
				consistency = &errs.ConsistencyError{Primary: name(0)}
			}
			consistency.Divergent = append(consistency.Divergent, name(i))
			consistency.Voxels = append(consistency.Voxels, diff)
		}
	}

	log.WithFields(log.Fields{
		"maps":   len(maps),
		"voxels": Count(primary),
	}).Debug("Built reference mask")

	if consistency != nil {
		return primary, consistency
	}
	return primary, nil
}

// Count returns the number of non-zero voxels.
func Count(m *volume.Volume) int {
	n := 0
	for _, x := range m.Data {
		if x != 0 {
			n++
		}
	}
	return n
}
