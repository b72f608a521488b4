package mask

import (
	"errors"
	"math"
	"testing"

	"github.com/KyungWonPark/StateSpace/internal/errs"
	"github.com/KyungWonPark/StateSpace/internal/volume"
)

func filled(shape []int, values ...float64) *volume.Volume {
	v := volume.New(shape, volume.Identity())
	for i := range v.Data {
		v.Data[i] = values[i%len(values)]
	}
	return v
}

func TestBinarize(t *testing.T) {
	v := filled([]int{2, 2, 2}, 0, -3.5, 0.001, math.NaN(), 0, 7, 0, 1)
	want := []float64{0, 1, 1, 1, 0, 1, 0, 1}

	got := Binarize(v)
	for i := range want {
		if got.Data[i] != want[i] {
			t.Errorf("voxel %d = %v, want %v", i, got.Data[i], want[i])
		}
	}
	if got.Affine != v.Affine {
		t.Error("Binarize should keep the affine")
	}
}

func TestBinarizeIdempotent(t *testing.T) {
	inputs := []*volume.Volume{
		filled([]int{3, 3, 3}, 0, 1, 2, -1),
		filled([]int{2, 2, 2, 3}, 0.5, 0, 0),
		filled([]int{1, 1, 1}, 0),
	}

	for _, v := range inputs {
		once := Binarize(v)
		twice := Binarize(once)
		for i := range once.Data {
			if once.Data[i] != twice.Data[i] {
				t.Fatalf("shape %v voxel %d: binarize twice = %v, once = %v", v.Shape, i, twice.Data[i], once.Data[i])
			}
		}
	}
}

func TestIntersect(t *testing.T) {
	a := filled([]int{2, 2, 1}, 1, 1, 0, 3)
	b := filled([]int{2, 2, 1}, 2, 0, 5, 1)

	got, err := Intersect(a, b)
	if err != nil {
		t.Fatalf("Intersect failed: %v", err)
	}
	want := []float64{1, 0, 0, 1}
	for i := range want {
		if got.Data[i] != want[i] {
			t.Errorf("voxel %d = %v, want %v", i, got.Data[i], want[i])
		}
	}

	if _, err := Intersect(a, filled([]int{2, 2, 2}, 1)); !errs.IsPrecondition(err) {
		t.Errorf("mismatched shapes: error = %v, want a precondition error", err)
	}
	if _, err := Intersect(); !errs.IsPrecondition(err) {
		t.Errorf("no masks: error = %v, want a precondition error", err)
	}
}

func TestBroadcastTime(t *testing.T) {
	m := filled([]int{2, 1, 1}, 1, 0)

	got, err := BroadcastTime(m, 3)
	if err != nil {
		t.Fatalf("BroadcastTime failed: %v", err)
	}
	if got.Timepoints() != 3 || got.NDim() != 4 {
		t.Fatalf("shape = %v, want [2 1 1 3]", got.Shape)
	}
	for tp := 0; tp < 3; tp++ {
		if got.At(0, 0, 0, tp) != 1 || got.At(1, 0, 0, tp) != 0 {
			t.Errorf("frame %d = %v", tp, got.Frame(tp))
		}
	}

	if _, err := BroadcastTime(got, 2); err == nil {
		t.Error("broadcasting a 4-D mask should fail")
	}
}

func TestFromReferences(t *testing.T) {
	a := filled([]int{2, 2, 1}, 0.3, 0, -1, 2)
	b := filled([]int{2, 2, 1}, 9, 0, 4, 1)
	c := filled([]int{2, 2, 1}, 1, 1, 1, 0)

	t.Run("consistent", func(t *testing.T) {
		m, err := FromReferences([]*volume.Volume{a, b}, []string{"g1", "g2"})
		if err != nil {
			t.Fatalf("FromReferences failed: %v", err)
		}
		if Count(m) != 3 {
			t.Errorf("mask has %d voxels, want 3", Count(m))
		}
	})

	t.Run("divergent", func(t *testing.T) {
		m, err := FromReferences([]*volume.Volume{a, b, c}, []string{"g1", "g2", "g3"})

		var ce *errs.ConsistencyError
		if !errors.As(err, &ce) {
			t.Fatalf("error = %v, want a ConsistencyError", err)
		}
		if m == nil {
			t.Fatal("the primary mask should still be returned")
		}
		if same, _ := Equal(m, Binarize(a)); !same {
			t.Error("the returned mask should be the first map's mask")
		}
		if len(ce.Divergent) != 1 || ce.Divergent[0] != "g3" || ce.Voxels[0] != 2 {
			t.Errorf("divergent = %v voxels = %v, want [g3] [2]", ce.Divergent, ce.Voxels)
		}
	})
}
