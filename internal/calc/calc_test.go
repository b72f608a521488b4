package calc

import (
	"math"
	"testing"

	"github.com/KyungWonPark/StateSpace/internal/volume"
	"github.com/gonum/matrix/mat64"
)

func TestZScoring(t *testing.T) {
	p := NewPool(3)

	// mean 2.5, sample variance 5/3
	in := mat64.NewDense(2, 2, []float64{1, 2, 3, 4})
	out := mat64.NewDense(2, 2, nil)

	if err := p.ZScoring(in, out); err != nil {
		t.Fatalf("ZScoring failed: %v", err)
	}

	sd := math.Sqrt(5.0 / 3.0)
	want := []float64{-1.5 / sd, -0.5 / sd, 0.5 / sd, 1.5 / sd}
	for i, w := range want {
		if got := out.At(i/2, i%2); math.Abs(got-w) > 1e-12 {
			t.Errorf("z[%d] = %v, want %v", i, got, w)
		}
	}
}

func TestZScoringInPlace(t *testing.T) {
	p := NewPool(2)
	m := mat64.NewDense(3, 2, []float64{2, 4, 4, 4, 5, 5})

	if err := p.ZScoring(m, m); err != nil {
		t.Fatalf("ZScoring failed: %v", err)
	}

	var sum float64
	for r := 0; r < 3; r++ {
		for c := 0; c < 2; c++ {
			sum += m.At(r, c)
		}
	}
	if math.Abs(sum) > 1e-12 {
		t.Errorf("z-scored values sum to %v, want 0", sum)
	}
}

func TestZScoringErrors(t *testing.T) {
	p := NewPool(1)

	if err := p.ZScoring(mat64.NewDense(2, 2, []float64{3, 3, 3, 3}), mat64.NewDense(2, 2, nil)); err == nil {
		t.Error("constant input should fail")
	}
	if err := p.ZScoring(mat64.NewDense(2, 2, nil), mat64.NewDense(2, 3, nil)); err == nil {
		t.Error("mismatched dims should fail")
	}
}

func TestAccAvg(t *testing.T) {
	p := NewPool(4)

	sum := mat64.NewDense(2, 3, nil)
	inputs := [][]float64{
		{1, 2, 3, 4, 5, 6},
		{3, 2, 1, 0, -1, -2},
	}
	for _, data := range inputs {
		if err := p.Acc(mat64.NewDense(2, 3, data), sum); err != nil {
			t.Fatalf("Acc failed: %v", err)
		}
	}

	mean := mat64.NewDense(2, 3, nil)
	if err := p.Avg(sum, mean, float64(len(inputs))); err != nil {
		t.Fatalf("Avg failed: %v", err)
	}
	want := []float64{2, 2, 2, 2, 2, 2}
	for i, w := range want {
		if got := mean.At(i/3, i%3); got != w {
			t.Errorf("mean[%d] = %v, want %v", i, got, w)
		}
	}

	if err := p.Avg(sum, mean, 0); err == nil {
		t.Error("Avg by zero should fail")
	}
	if err := p.Acc(mat64.NewDense(1, 3, nil), sum); err == nil {
		t.Error("Acc with mismatched dims should fail")
	}
}

func TestVolumeMatrixView(t *testing.T) {
	v := volume.New([]int{2, 1, 1, 3}, volume.Identity())
	for i := range v.Data {
		v.Data[i] = float64(i)
	}

	m := FromVolume(v)
	rows, cols := m.Dims()
	if rows != 3 || cols != 2 {
		t.Fatalf("dims = %dx%d, want 3x2", rows, cols)
	}
	if m.At(2, 1) != 5 {
		t.Errorf("At(2,1) = %v, want 5", m.At(2, 1))
	}

	m.Set(0, 0, -1)
	if v.Data[0] != -1 {
		t.Error("FromVolume should share the volume data")
	}

	back, err := ToVolume(m, v)
	if err != nil {
		t.Fatalf("ToVolume failed: %v", err)
	}
	if back.Timepoints() != 3 || back.Data[5] != 5 {
		t.Errorf("ToVolume = %v %v", back.Shape, back.Data)
	}
	if _, err := ToVolume(mat64.NewDense(2, 2, nil), v); err == nil {
		t.Error("ToVolume with the wrong dims should fail")
	}

	if NewPool(0).Workers() < 1 {
		t.Error("NewPool(0) should use at least one worker")
	}
}
