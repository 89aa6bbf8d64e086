package utils

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/blas/blas64"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

type Matrix struct {
	M        *mat.Dense
	readOnly bool
	name     string
}

func NewMatrix(nr, nc int, dataO ...[]float64) (R Matrix) {
	var m *mat.Dense
	if len(dataO) != 0 {
		if len(dataO[0]) != nr*nc {
			err := fmt.Errorf("mismatch in allocation: NewMatrix nr,nc = %v,%v, len(data[0]) = %v", nr, nc, len(dataO[0]))
			panic(err)
		}
		m = mat.NewDense(nr, nc, dataO[0])
	} else {
		m = mat.NewDense(nr, nc, make([]float64, nr*nc))
	}
	R = Matrix{
		m,
		false,
		"unnamed - hint: pass a variable name to SetReadOnly()",
	}
	return
}

// Dims, At and T minimally satisfy the mat.Matrix interface.
func (m Matrix) Dims() (r, c int)          { return m.M.Dims() }
func (m Matrix) At(i, j int) float64       { return m.M.At(i, j) }
func (m Matrix) T() mat.Matrix             { return m.M.T() }
func (m Matrix) RawMatrix() blas64.General { return m.M.RawMatrix() }
func (m Matrix) Data() []float64           { return m.M.RawMatrix().Data }

// Chainable methods (extended)
func (m *Matrix) SetReadOnly(name ...string) Matrix {
	if len(name) != 0 {
		m.name = name[0]
	}
	m.readOnly = true
	return *m
}

func (m Matrix) Add(A Matrix) Matrix { // Changes receiver
	m.checkWritable()
	m.checkDims(A)
	floats.Add(m.Data(), A.Data())
	return m
}

func (m Matrix) Scale(a float64) Matrix { // Changes receiver
	m.checkWritable()
	floats.Scale(a, m.Data())
	return m
}

func (m Matrix) Max() (max float64) {
	return floats.Max(m.Data())
}

// MaxAbs is the largest magnitude in the matrix, NaN if any element is NaN
func (m Matrix) MaxAbs() (max float64) {
	for _, val := range m.Data() {
		if math.IsNaN(val) {
			return math.NaN()
		}
		if math.Abs(val) > max {
			max = math.Abs(val)
		}
	}
	return
}

// FindNot returns the indices of the elements that do not satisfy
// element <op> val, including NaN elements.
func (m Matrix) FindNot(op EvalOp, val float64) (I Index2D) {
	var (
		nr, nc         = m.Dims()
		data           = m.Data()
		rowInd, colInd Index
	)
	for i := 0; i < nr; i++ {
		for j := 0; j < nc; j++ {
			if !op.Eval(data[j+nc*i], val) {
				rowInd = append(rowInd, i)
				colInd = append(colInd, j)
			}
		}
	}
	I, _ = NewIndex2D(rowInd, colInd)
	return
}

func (m Matrix) checkWritable() {
	if m.readOnly {
		err := fmt.Errorf("attempt to write to a read only matrix named: \"%v\"", m.name)
		panic(err)
	}
}

func (m Matrix) checkDims(A Matrix) {
	var (
		nr, nc   = m.Dims()
		nrA, ncA = A.Dims()
	)
	if nr != nrA || nc != ncA {
		err := fmt.Errorf("dimension mismatch: %v x %v and %v x %v", nr, nc, nrA, ncA)
		panic(err)
	}
}
