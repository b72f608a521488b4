// Package align places volumes onto the voxel grid of another volume.
package align

import (
	"fmt"
	"math"

	"github.com/KyungWonPark/StateSpace/internal/errs"
	"github.com/KyungWonPark/StateSpace/internal/volume"
	"github.com/gonum/matrix/mat64"
	log "github.com/sirupsen/logrus"
)

// Align resamples source onto the grid of target with nearest-neighbour
// interpolation. When both already share a spatial shape, source is returned
// unchanged. A 4-D source keeps its timepoint count and is resampled frame by
// frame. The result carries the target's affine, and target voxels falling
// outside the source grid are 0.
func Align(source, target *volume.Volume) (*volume.Volume, error) {
	if source.SameGrid(target) {
		return source, nil
	}

	vox2vox, err := voxelMapping(source, target)
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"source":       source.Name(),
		"source_shape": source.Shape,
		"target_shape": target.Shape,
	}).Debug("Resampling onto target grid")

	shape := []int{target.Shape[0], target.Shape[1], target.Shape[2]}
	if source.NDim() == 4 {
		shape = append(shape, source.Timepoints())
	}
	out := volume.New(shape, target.Affine)
	out.Path = source.Path

	lookup := sourceIndices(vox2vox, source.Spatial(), target.Spatial())

	for t := 0; t < source.Timepoints(); t++ {
		src := source.Frame(t)
		dst := out.Frame(t)
		for i, j := range lookup {
			if j >= 0 {
				dst[i] = src[j]
			}
		}
	}

	return out, nil
}

// voxelMapping returns inv(A_source) * A_target, the map from target voxel
// coordinates to source voxel coordinates.
func voxelMapping(source, target *volume.Volume) (*mat64.Dense, error) {
	if reason := checkAffine(source.Affine); reason != "" {
		return nil, &errs.AlignmentError{Source: source.Name(), Target: target.Name(), Reason: "source " + reason}
	}
	if reason := checkAffine(target.Affine); reason != "" {
		return nil, &errs.AlignmentError{Source: source.Name(), Target: target.Name(), Reason: "target " + reason}
	}

	srcAffine := affineDense(source.Affine)
	tgtAffine := affineDense(target.Affine)

	var inv mat64.Dense
	if err := inv.Inverse(srcAffine); err != nil {
		return nil, &errs.AlignmentError{
			Source: source.Name(),
			Target: target.Name(),
			Reason: fmt.Sprintf("source affine is singular: %v", err),
		}
	}

	var vox2vox mat64.Dense
	vox2vox.Mul(&inv, tgtAffine)

	return &vox2vox, nil
}

// sourceIndices returns, for every voxel of the target grid, the flat index
// of its nearest source voxel or -1 when it falls outside the source.
func sourceIndices(vox2vox *mat64.Dense, src, tgt [3]int) []int {
	lookup := make([]int, tgt[0]*tgt[1]*tgt[2])

	ijk := mat64.NewDense(4, 1, []float64{0, 0, 0, 1})
	var mapped mat64.Dense

	i := 0
	for z := 0; z < tgt[2]; z++ {
		for y := 0; y < tgt[1]; y++ {
			for x := 0; x < tgt[0]; x++ {
				ijk.Set(0, 0, float64(x))
				ijk.Set(1, 0, float64(y))
				ijk.Set(2, 0, float64(z))
				mapped.Mul(vox2vox, ijk)

				sx := int(math.Round(mapped.At(0, 0)))
				sy := int(math.Round(mapped.At(1, 0)))
				sz := int(math.Round(mapped.At(2, 0)))

				if sx < 0 || sy < 0 || sz < 0 || sx >= src[0] || sy >= src[1] || sz >= src[2] {
					lookup[i] = -1
				} else {
					lookup[i] = sx + src[0]*(sy+src[1]*sz)
				}
				i++
			}
		}
	}

	return lookup
}

func checkAffine(a [4][4]float64) string {
	allZero := true
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			if math.IsNaN(a[r][c]) || math.IsInf(a[r][c], 0) {
				return "affine has non-finite entries"
			}
			if r < 3 && c < 3 && a[r][c] != 0 {
				allZero = false
			}
		}
	}
	if allZero {
		return "affine has no spatial scaling"
	}
	return ""
}

func affineDense(a [4][4]float64) *mat64.Dense {
	data := make([]float64, 0, 16)
	for r := 0; r < 4; r++ {
		data = append(data, a[r][:]...)
	}
	return mat64.NewDense(4, 4, data)
}
