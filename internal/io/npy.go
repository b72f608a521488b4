package io

import (
	"fmt"
	"math"

	"github.com/KyungWonPark/StateSpace/internal/score"
	"github.com/gonum/matrix/mat64"
	"github.com/kshedden/gonpy"
)

// Mat64toNpy writes mat64 matrix to Python numpy npy binary file
func Mat64toNpy(path string, matrix *mat64.Dense) error {
	rows, cols := matrix.Dims()

	w, err := gonpy.NewFileWriter(path)
	if err != nil {
		return fmt.Errorf("[Mat64toNpy] Failed to open file: %v", err)
	}
	w.Shape = []int{rows, cols}
	w.Version = 2

	data := make([]float64, 0, rows*cols)
	for r := 0; r < rows; r++ {
		data = append(data, matrix.RawRowView(r)...)
	}
	if err := w.WriteFloat64(data); err != nil {
		return fmt.Errorf("[Mat64toNpy] Failed to write file: %v", err)
	}

	return nil
}

// NpytoMat64 reads Python numpy npy binary file as mat64 matrix
func NpytoMat64(path string) (*mat64.Dense, error) {
	r, err := gonpy.NewFileReader(path)
	if err != nil {
		return nil, fmt.Errorf("[NpytoMat64] Failed to open file: %v", err)
	}
	if len(r.Shape) != 2 {
		return nil, fmt.Errorf("[NpytoMat64] %s has shape %v, want a 2-D array", path, r.Shape)
	}

	data, err := r.GetFloat64()
	if err != nil {
		return nil, fmt.Errorf("[NpytoMat64] Failed to read file: %v", err)
	}

	return mat64.NewDense(r.Shape[0], r.Shape[1], data), nil
}

// WideToMat64 returns the score cells of a wide table as a matrix, one row per
// key. Missing cells are NaN.
func WideToMat64(w *score.Wide) *mat64.Dense {
	rows, cols := len(w.Rows), len(w.Columns)
	if rows == 0 || cols == 0 {
		return nil
	}

	m := mat64.NewDense(rows, cols, nil)
	for i, row := range w.Rows {
		for c := range w.Columns {
			v := row.Values[c]
			if !row.Present[c] {
				v = math.NaN()
			}
			m.Set(i, c, v)
		}
	}
	return m
}

// WideToNpy writes the score cells of a wide table as a .npy matrix.
func WideToNpy(path string, w *score.Wide) error {
	m := WideToMat64(w)
	if m == nil {
		return fmt.Errorf("[WideToNpy] table is empty")
	}
	return Mat64toNpy(path, m)
}
