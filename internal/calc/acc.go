package calc

import (
	"github.com/gonum/matrix/mat64"
)

func acc(inputMat *mat64.Dense, outputMat *mat64.Dense, index int) {
	_, inputCols := inputMat.Dims()

	for t := 0; t < inputCols; t++ {
		value := outputMat.At(index, t) + inputMat.At(index, t)
		outputMat.Set(index, t, value)
	}
}

// Acc adds inputMat into outputMat element-wise.
func (p *Pool) Acc(inputMat *mat64.Dense, outputMat *mat64.Dense) error {
	if err := checkDims("Acc", inputMat, outputMat); err != nil {
		return err
	}

	rows, _ := inputMat.Dims()
	p.forEachRow(rows, func(index int) {
		acc(inputMat, outputMat, index)
	})

	return nil
}
