package align

import (
	"errors"
	"math"
	"testing"

	"github.com/KyungWonPark/StateSpace/internal/errs"
	"github.com/KyungWonPark/StateSpace/internal/volume"
)

func scaled(s float64) [4][4]float64 {
	return [4][4]float64{
		{s, 0, 0, 0},
		{0, s, 0, 0},
		{0, 0, s, 0},
		{0, 0, 0, 1},
	}
}

func TestAlignSameGridReturnsSource(t *testing.T) {
	src := volume.New([]int{3, 3, 3}, scaled(2))
	tgt := volume.New([]int{3, 3, 3, 4}, scaled(1))

	got, err := Align(src, tgt)
	if err != nil {
		t.Fatalf("Align failed: %v", err)
	}
	if got != src {
		t.Error("Align should return the source when grids already match")
	}
}

func TestAlignDownsample(t *testing.T) {
	// 4x4x4 at 1 mm onto 2x2x2 at 2 mm: target voxel i maps to source voxel 2i.
	src := volume.New([]int{4, 4, 4}, scaled(1))
	for z := 0; z < 4; z++ {
		for y := 0; y < 4; y++ {
			for x := 0; x < 4; x++ {
				src.Data[src.Index(x, y, z, 0)] = float64(100*x + 10*y + z)
			}
		}
	}
	tgt := volume.New([]int{2, 2, 2}, scaled(2))

	got, err := Align(src, tgt)
	if err != nil {
		t.Fatalf("Align failed: %v", err)
	}
	if got.Affine != tgt.Affine {
		t.Errorf("affine = %v, want target affine", got.Affine)
	}

	for z := 0; z < 2; z++ {
		for y := 0; y < 2; y++ {
			for x := 0; x < 2; x++ {
				want := float64(100*2*x + 10*2*y + 2*z)
				if v := got.At(x, y, z, 0); v != want {
					t.Errorf("(%d,%d,%d) = %v, want %v", x, y, z, v, want)
				}
			}
		}
	}
}

func TestAlignOutsideSourceIsZero(t *testing.T) {
	src := volume.New([]int{2, 2, 2}, scaled(1))
	for i := range src.Data {
		src.Data[i] = 5
	}
	tgt := volume.New([]int{4, 2, 2}, scaled(1))

	got, err := Align(src, tgt)
	if err != nil {
		t.Fatalf("Align failed: %v", err)
	}

	for z := 0; z < 2; z++ {
		for y := 0; y < 2; y++ {
			for x := 0; x < 4; x++ {
				want := 5.0
				if x >= 2 {
					want = 0
				}
				if v := got.At(x, y, z, 0); v != want {
					t.Errorf("(%d,%d,%d) = %v, want %v", x, y, z, v, want)
				}
			}
		}
	}
}

func TestAlignKeepsTimepoints(t *testing.T) {
	src := volume.New([]int{2, 2, 2, 3}, scaled(1))
	for tp := 0; tp < 3; tp++ {
		frame := src.Frame(tp)
		for i := range frame {
			frame[i] = float64(tp + 1)
		}
	}
	tgt := volume.New([]int{3, 3, 3}, scaled(1))

	got, err := Align(src, tgt)
	if err != nil {
		t.Fatalf("Align failed: %v", err)
	}
	if got.Timepoints() != 3 || got.NDim() != 4 {
		t.Fatalf("shape = %v, want 4-D with 3 timepoints", got.Shape)
	}
	for tp := 0; tp < 3; tp++ {
		if v := got.At(1, 1, 1, tp); v != float64(tp+1) {
			t.Errorf("t=%d: %v, want %v", tp, v, tp+1)
		}
		if v := got.At(2, 2, 2, tp); v != 0 {
			t.Errorf("t=%d outside voxel: %v, want 0", tp, v)
		}
	}
}

func TestAlignInvalidAffine(t *testing.T) {
	singular := scaled(1)
	singular[2][2] = 0

	nonFinite := scaled(1)
	nonFinite[0][3] = math.NaN()

	tests := []struct {
		name   string
		affine [4][4]float64
	}{
		{"singular", singular},
		{"non-finite", nonFinite},
		{"all zero", [4][4]float64{}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			src := volume.New([]int{2, 2, 2}, tc.affine)
			tgt := volume.New([]int{3, 3, 3}, scaled(1))

			_, err := Align(src, tgt)
			var ae *errs.AlignmentError
			if !errors.As(err, &ae) {
				t.Fatalf("error = %v, want an AlignmentError", err)
			}
		})
	}
}
