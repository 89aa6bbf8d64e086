package utils

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatrix(t *testing.T) {
	// Accumulate and scale
	{
		M := NewMatrix(2, 3)
		A := NewMatrix(2, 3, []float64{
			1, 2, 3,
			4, 5, 6,
		})
		M.Add(A).Add(A).Scale(0.5)
		assert.Equal(t, A.Data(), M.Data())
		assert.Equal(t, 6., M.Max())
		M.Scale(-1)
		assert.Equal(t, 6., M.MaxAbs())
		assert.Equal(t, -4., M.At(1, 0))
	}
	// FindNot catches NaN
	{
		M := NewMatrix(2, 2, []float64{
			1, 3,
			math.NaN(), 0,
		})
		I := M.FindNot(LessOrEqual, 1)
		assert.Equal(t, 2, I.Len)
		assert.Equal(t, Index{0, 1}, I.RI)
		assert.Equal(t, Index{1, 0}, I.CI)
		assert.True(t, math.IsNaN(M.MaxAbs()))
	}
	// Misuse panics
	{
		A := NewMatrix(2, 2)
		assert.Panics(t, func() { A.Add(NewMatrix(2, 3)) })
		assert.Panics(t, func() { NewMatrix(2, 2, []float64{1}) })
		assert.NotPanics(t, func() { A.Scale(2) })
		A.SetReadOnly("A")
		assert.Panics(t, func() { A.Scale(2) })
		assert.Panics(t, func() { A.Add(NewMatrix(2, 2)) })
	}
}

func TestEvalOp(t *testing.T) {
	assert.True(t, Equal.Eval(1, 1))
	assert.True(t, Less.Eval(1, 2))
	assert.True(t, Greater.Eval(2, 1))
	assert.True(t, LessOrEqual.Eval(1, 1))
	assert.True(t, GreaterOrEqual.Eval(1, 1))
	for _, op := range []EvalOp{Equal, Less, Greater, LessOrEqual, GreaterOrEqual} {
		assert.False(t, op.Eval(math.NaN(), 1))
	}
	_, err := NewIndex2D(Index{1}, Index{})
	assert.Error(t, err)
}
