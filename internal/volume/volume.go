// Package volume holds 3-D and 4-D scalar images together with their
// voxel-to-world affine, and reads/writes them as NIfTI-1 files.
package volume

import (
	"fmt"
	"math"
)

// Volume is a 3-D (x, y, z) or 4-D (x, y, z, t) image.
// Data is stored x fastest, then y, z and t, so the frame of timepoint t is
// the contiguous run Data[t*NumVoxels() : (t+1)*NumVoxels()].
type Volume struct {
	Shape  []int
	Affine [4][4]float64
	Data   []float64

	// Path is the file the volume was read from, empty for derived volumes.
	Path string
}

// Identity returns the identity affine.
func Identity() [4][4]float64 {
	return [4][4]float64{
		{1, 0, 0, 0},
		{0, 1, 0, 0},
		{0, 0, 1, 0},
		{0, 0, 0, 1},
	}
}

// New allocates a zero-filled volume.
func New(shape []int, affine [4][4]float64) *Volume {
	if len(shape) != 3 && len(shape) != 4 {
		panic(fmt.Sprintf("volume: shape must have 3 or 4 dimensions, got %v", shape))
	}
	n := 1
	for _, s := range shape {
		n *= s
	}
	return &Volume{
		Shape:  append([]int(nil), shape...),
		Affine: affine,
		Data:   make([]float64, n),
	}
}

// FromData wraps data without copying.
func FromData(shape []int, affine [4][4]float64, data []float64) (*Volume, error) {
	if len(shape) != 3 && len(shape) != 4 {
		return nil, fmt.Errorf("shape must have 3 or 4 dimensions, got %v", shape)
	}
	n := 1
	for _, s := range shape {
		if s <= 0 {
			return nil, fmt.Errorf("shape %v has a non-positive dimension", shape)
		}
		n *= s
	}
	if n != len(data) {
		return nil, fmt.Errorf("shape %v needs %d values, got %d", shape, n, len(data))
	}
	return &Volume{Shape: append([]int(nil), shape...), Affine: affine, Data: data}, nil
}

// NDim is 3 or 4.
func (v *Volume) NDim() int { return len(v.Shape) }

// Spatial returns the x, y, z extent.
func (v *Volume) Spatial() [3]int {
	return [3]int{v.Shape[0], v.Shape[1], v.Shape[2]}
}

// Timepoints is 1 for a 3-D volume.
func (v *Volume) Timepoints() int {
	if len(v.Shape) < 4 {
		return 1
	}
	return v.Shape[3]
}

// NumVoxels is the number of voxels in one frame.
func (v *Volume) NumVoxels() int {
	return v.Shape[0] * v.Shape[1] * v.Shape[2]
}

// Index returns the offset of (x, y, z, t) in Data.
func (v *Volume) Index(x, y, z, t int) int {
	return x + v.Shape[0]*(y+v.Shape[1]*(z+v.Shape[2]*t))
}

// At returns the value at (x, y, z, t).
func (v *Volume) At(x, y, z, t int) float64 {
	return v.Data[v.Index(x, y, z, t)]
}

// Frame returns the data of timepoint t. The slice aliases Data.
func (v *Volume) Frame(t int) []float64 {
	n := v.NumVoxels()
	return v.Data[t*n : (t+1)*n]
}

// SameGrid reports whether both volumes have the same spatial shape.
func (v *Volume) SameGrid(o *Volume) bool {
	return v.Spatial() == o.Spatial()
}

// Clone returns a deep copy.
func (v *Volume) Clone() *Volume {
	return &Volume{
		Shape:  append([]int(nil), v.Shape...),
		Affine: v.Affine,
		Data:   append([]float64(nil), v.Data...),
		Path:   v.Path,
	}
}

// Name is the path when known.
func (v *Volume) Name() string {
	return v.Path
}

// VoxelSizes returns the length of the first three affine columns.
func (v *Volume) VoxelSizes() [3]float64 {
	var out [3]float64
	for c := 0; c < 3; c++ {
		var ss float64
		for r := 0; r < 3; r++ {
			ss += v.Affine[r][c] * v.Affine[r][c]
		}
		out[c] = math.Sqrt(ss)
	}
	return out
}
