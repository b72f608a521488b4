// Package similarity scores brain maps against reference maps.
package similarity

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/KyungWonPark/StateSpace/internal/errs"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Method selects the similarity measure.
type Method int

const (
	// Rank is Spearman's rank correlation with midranks for ties.
	Rank Method = iota
	// Linear is Pearson's correlation followed by the Fisher transform atanh(r).
	Linear
	// InnerProduct is the unnormalised dot product.
	InnerProduct
)

// ParseMethod accepts the method names used on the command line and in
// configuration files.
func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "spearman", "rank":
		return Rank, nil
	case "pearson", "linear":
		return Linear, nil
	case "dot", "inner_product", "dotproduct":
		return InnerProduct, nil
	}
	return Rank, fmt.Errorf("unknown similarity method %q (want spearman, pearson or dot)", s)
}

func (m Method) String() string {
	switch m {
	case Rank:
		return "spearman"
	case Linear:
		return "pearson"
	case InnerProduct:
		return "dot"
	}
	return fmt.Sprintf("Method(%d)", int(m))
}

// Score compares two flattened volumes voxel by voxel. Rank and Linear return
// NaN when either vector is constant or holds a NaN. Vectors of different length are a
// *errs.PreconditionError.
func Score(ref, target []float64, method Method) (float64, error) {
	if len(ref) != len(target) {
		return math.NaN(), &errs.PreconditionError{
			Reason: fmt.Sprintf("%s needs vectors of equal length, got %d and %d", method, len(ref), len(target)),
		}
	}

	switch method {
	case InnerProduct:
		return floats.Dot(ref, target), nil

	case Linear:
		if floats.HasNaN(ref) || floats.HasNaN(target) || constant(ref) || constant(target) {
			return math.NaN(), nil
		}
		r := stat.Correlation(ref, target, nil)
		return math.Atanh(clamp(r)), nil

	case Rank:
		if floats.HasNaN(ref) || floats.HasNaN(target) || constant(ref) || constant(target) {
			return math.NaN(), nil
		}
		return clamp(stat.Correlation(ranks(ref), ranks(target), nil)), nil
	}

	return math.NaN(), fmt.Errorf("unknown similarity method %d", int(method))
}

// ranks assigns 1-based ranks, giving tied values the mean of their ranks.
func ranks(x []float64) []float64 {
	idx := make([]int, len(x))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return x[idx[a]] < x[idx[b]] })

	out := make([]float64, len(x))
	for i := 0; i < len(idx); {
		j := i + 1
		for j < len(idx) && x[idx[j]] == x[idx[i]] {
			j++
		}
		// positions i..j-1 hold ranks i+1..j
		mid := float64(i+1+j) / 2
		for k := i; k < j; k++ {
			out[idx[k]] = mid
		}
		i = j
	}
	return out
}

func constant(x []float64) bool {
	if len(x) < 2 {
		return true
	}
	for _, v := range x[1:] {
		if v != x[0] {
			return false
		}
	}
	return true
}

func clamp(r float64) float64 {
	if r > 1 {
		return 1
	}
	if r < -1 {
		return -1
	}
	return r
}
