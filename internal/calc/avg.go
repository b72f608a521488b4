package calc

import (
	"fmt"

	"github.com/gonum/matrix/mat64"
)

func avg(inputMat *mat64.Dense, outputMat *mat64.Dense, div float64, index int) {
	_, inputCols := inputMat.Dims()

	for t := 0; t < inputCols; t++ {
		value := inputMat.At(index, t) / div
		outputMat.Set(index, t, value)
	}
}

// Avg divides inputMat by div into outputMat, which turns an accumulated sum
// of div matrices into their mean.
func (p *Pool) Avg(inputMat *mat64.Dense, outputMat *mat64.Dense, div float64) error {
	if err := checkDims("Avg", inputMat, outputMat); err != nil {
		return err
	}
	if div == 0 {
		return fmt.Errorf("[ERROR] Avg: division by zero")
	}

	rows, _ := inputMat.Dims()
	p.forEachRow(rows, func(index int) {
		avg(inputMat, outputMat, div, index)
	})

	return nil
}
