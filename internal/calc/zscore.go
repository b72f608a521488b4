package calc

import (
	"fmt"

	"github.com/gonum/matrix/mat64"
	"gonum.org/v1/gonum/stat"
)

type statistic struct {
	avg float64
	std float64
}

func zScoring(inputMat *mat64.Dense, outputMat *mat64.Dense, stats statistic, index int) {
	_, inputCols := inputMat.Dims()

	for t := 0; t < inputCols; t++ {
		value := inputMat.At(index, t)
		newValue := (value - stats.avg) / stats.std
		outputMat.Set(index, t, newValue)
	}
}

// ZScoring standardises the whole matrix with its mean and sample standard
// deviation (n-1). inputMat and outputMat may be the same matrix.
func (p *Pool) ZScoring(inputMat *mat64.Dense, outputMat *mat64.Dense) error {
	if err := checkDims("ZScoring", inputMat, outputMat); err != nil {
		return err
	}

	rows, cols := inputMat.Dims()
	if rows*cols < 2 {
		return fmt.Errorf("[ERROR] ZScoring: need at least 2 values, got %d", rows*cols)
	}

	var stats statistic
	stats.avg, stats.std = stat.MeanStdDev(flatten(inputMat), nil)
	if stats.std == 0 {
		return fmt.Errorf("[ERROR] ZScoring: standard deviation is 0")
	}

	p.forEachRow(rows, func(index int) {
		zScoring(inputMat, outputMat, stats, index)
	})

	return nil
}
