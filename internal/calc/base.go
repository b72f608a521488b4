package calc

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/KyungWonPark/StateSpace/internal/volume"
	"github.com/gonum/matrix/mat64"
)

// Pool fans the rows of a matrix out to a fixed number of goroutines.
type Pool struct {
	numWorkers int
}

// NewPool returns a Pool with numWorkers goroutines, or one per CPU when
// numWorkers is not positive.
func NewPool(numWorkers int) *Pool {
	if numWorkers < 1 {
		numWorkers = runtime.NumCPU()
	}
	return &Pool{numWorkers: numWorkers}
}

// Workers is the number of goroutines used per call.
func (p *Pool) Workers() int {
	return p.numWorkers
}

// forEachRow calls job once for every row index, from numWorkers goroutines.
func (p *Pool) forEachRow(rows int, job func(row int)) {
	order := make(chan int, p.numWorkers)
	var wg sync.WaitGroup

	wg.Add(rows)

	for i := 0; i < p.numWorkers; i++ {
		go func() {
			for {
				index, ok := <-order
				if !ok {
					return
				}
				job(index)
				wg.Done()
			}
		}()
	}

	for i := 0; i < rows; i++ {
		order <- i
	}

	wg.Wait()
	close(order)
}

func checkDims(name string, inputMat, outputMat *mat64.Dense) error {
	inputRows, inputCols := inputMat.Dims()
	outputRows, outputCols := outputMat.Dims()

	if inputRows != outputRows || inputCols != outputCols {
		return fmt.Errorf("[ERROR] %s: input dims: %d by %d when output dims: %d by %d", name, inputRows, inputCols, outputRows, outputCols)
	}
	return nil
}

// FromVolume views a volume as a timepoint-by-voxel matrix. The matrix shares
// the volume's data.
func FromVolume(v *volume.Volume) *mat64.Dense {
	return mat64.NewDense(v.Timepoints(), v.NumVoxels(), v.Data)
}

// ToVolume wraps a timepoint-by-voxel matrix as a volume shaped like like.
func ToVolume(m *mat64.Dense, like *volume.Volume) (*volume.Volume, error) {
	rows, cols := m.Dims()
	if rows != like.Timepoints() || cols != like.NumVoxels() {
		return nil, fmt.Errorf("[ERROR] ToVolume: matrix is %d by %d, volume %v needs %d by %d", rows, cols, like.Shape, like.Timepoints(), like.NumVoxels())
	}
	return volume.FromData(like.Shape, like.Affine, flatten(m))
}

// flatten returns the matrix values row by row, without copying when the
// matrix is contiguous.
func flatten(m *mat64.Dense) []float64 {
	raw := m.RawMatrix()
	if raw.Stride == raw.Cols {
		return raw.Data[:raw.Rows*raw.Cols]
	}
	out := make([]float64, 0, raw.Rows*raw.Cols)
	for r := 0; r < raw.Rows; r++ {
		out = append(out, m.RawRowView(r)...)
	}
	return out
}
