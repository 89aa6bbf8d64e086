package snapshot

import (
	"errors"
	"testing"

	"github.com/ctessum/sparse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGrid(t *testing.T) {
	g, err := NewGrid([]string{"x", "z"}, []int{4, 8}, []float64{0.5, 0.25}, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, g.NDim())
	assert.Equal(t, 32, g.NumCells())
	assert.Equal(t, []float64{2, 2}, g.Width())
	assert.InDelta(t, 0.125, g.CellVolume(), 1.e-15)
	k, err := g.AxisIndex("z")
	assert.NoError(t, err)
	assert.Equal(t, 1, k)
	_, err = g.AxisIndex("y")
	assert.Error(t, err)

	_, err = NewGrid([]string{"x"}, []int{4, 8}, []float64{1}, nil)
	assert.Error(t, err)

	geom, err := NewGeometry("thetaMode")
	assert.NoError(t, err)
	assert.Equal(t, ThetaMode, geom)
	_, err = NewGeometry("spherical")
	assert.Error(t, err)
}

func TestFieldSliceAcross(t *testing.T) {
	g, _ := NewGrid([]string{"x", "y", "z"}, []int{2, 3, 2}, []float64{1, 1, 1}, nil)
	data := sparse.ZerosDense(2, 3, 2)
	for i := 0; i < 2; i++ {
		for j := 0; j < 3; j++ {
			for k := 0; k < 2; k++ {
				data.Set(float64(100*i+10*j+k), i, j, k)
			}
		}
	}
	f, err := NewField(NewFieldKey("divE", ""), Cartesian, g, data)
	require.NoError(t, err)
	assert.Equal(t, "divE", f.Key.String())
	// Center of y is plane 1
	{
		s, err := f.SliceAcross("y", 0)
		require.NoError(t, err)
		assert.Equal(t, []int{2, 2}, s.Shape())
		assert.Equal(t, []string{"x", "z"}, s.Grid.AxisLabels)
		assert.Equal(t, []float64{10, 11, 110, 111}, s.Data.Elements)
	}
	// Ends of the axis
	{
		s, err := f.SliceAcross("y", -1)
		require.NoError(t, err)
		assert.Equal(t, 0., s.Data.Get(0, 0))
		s, err = f.SliceAcross("y", 1)
		require.NoError(t, err)
		assert.Equal(t, 20., s.Data.Get(0, 0))
	}
	{
		_, err = f.SliceAcross("r", 0)
		assert.Error(t, err)
		_, err = f.SliceAcross("y", 1.5)
		assert.Error(t, err)
	}
}

func TestFieldUnroll(t *testing.T) {
	g, _ := NewGrid([]string{"r", "z"}, []int{2, 1}, []float64{0.5, 1}, []float64{0, -1})
	data := sparse.ZerosDense(3, 2, 1)
	// mode 0, Re(mode 1), Im(mode 1)
	data.Set(1, 0, 0, 0)
	data.Set(2, 0, 1, 0)
	data.Set(0.5, 1, 0, 0)
	data.Set(0.25, 1, 1, 0)
	data.Set(9, 2, 0, 0)
	data.Set(9, 2, 1, 0)
	f, err := NewField(NewFieldKey("divE", ""), ThetaMode, g, data)
	require.NoError(t, err)
	assert.Equal(t, 2, f.Modes())

	u, err := f.Unroll()
	require.NoError(t, err)
	assert.Equal(t, []int{1, 4}, u.Shape())
	assert.Equal(t, []float64{1.75, 0.5, 1.5, 2.25}, u.Data.Elements)
	assert.Equal(t, []float64{-1, -1}, u.Grid.Offset)

	// Even mode component count is rejected
	_, err = NewField(NewFieldKey("divE", ""), ThetaMode, g, sparse.ZerosDense(2, 2, 1))
	assert.Error(t, err)
	// Cartesian fields cannot be unrolled
	gc, _ := NewGrid([]string{"x", "z"}, []int{2, 1}, []float64{1, 1}, nil)
	fc, _ := NewField(NewFieldKey("divE", ""), Cartesian, gc, sparse.ZerosDense(2, 1))
	_, err = fc.Unroll()
	assert.Error(t, err)
}

func TestFieldCellCentered(t *testing.T) {
	nodal, _ := NewGrid([]string{"x", "z"}, []int{3, 2}, []float64{1, 1}, nil)
	domain, _ := NewGrid([]string{"x", "z"}, []int{2, 2}, []float64{1, 1}, nil)
	data := sparse.ZerosDense(3, 2)
	for i := range data.Elements {
		data.Elements[i] = float64(i)
	}
	f, err := NewField(NewFieldKey("E", "x"), Cartesian, nodal, data)
	require.NoError(t, err)
	c, err := f.CellCentered(domain)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 2}, c.Shape())
	assert.Equal(t, []float64{1, 2, 3, 4}, c.Data.Elements)
	assert.Equal(t, []float64{0.5, 0.5}, c.Position)

	// Already centered data is copied, not shared
	c2, err := c.CellCentered(domain)
	require.NoError(t, err)
	c2.Data.Elements[0] = -1
	assert.Equal(t, 1., c.Data.Elements[0])

	bad, _ := NewGrid([]string{"x", "z"}, []int{5, 2}, []float64{1, 1}, nil)
	fb, _ := NewField(NewFieldKey("E", "x"), Cartesian, bad, sparse.ZerosDense(5, 2))
	_, err = fb.CellCentered(domain)
	assert.Error(t, err)

	M, err := c.Matrix()
	require.NoError(t, err)
	nr, nc := M.Dims()
	assert.Equal(t, 2, nr)
	assert.Equal(t, 2, nc)
	assert.Equal(t, 3., M.At(1, 0))
	assert.InDelta(t, 30., c.SumSquares(), 1.e-12)
	assert.InDelta(t, 10., c.SumAbs(), 1.e-12)
}

func TestSpecies(t *testing.T) {
	s, err := NewSpecies("electrons", []float64{1, 2}, []float64{0, 0}, []float64{0, 0}, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, []float64{1, 1}, s.Weight)
	assert.Greater(t, s.Mass, 0.)
	_, err = NewSpecies("electrons", []float64{1, 2}, []float64{0}, []float64{0, 0}, nil)
	assert.Error(t, err)
	_, err = NewSpecies("electrons", []float64{1}, []float64{0}, []float64{0}, []float64{1, 2})
	assert.Error(t, err)
}

func TestMemorySeries(t *testing.T) {
	g, _ := NewGrid([]string{"x", "z"}, []int{2, 2}, []float64{1, 1}, nil)
	ms := NewMemorySeries()
	for _, it := range []Iteration{20, 0, 10} {
		snap := NewMemorySnapshot(it, float64(it)*1.e-9, Cartesian, g)
		f, err := NewField(NewFieldKey("divE", ""), Cartesian, g, sparse.ZerosDense(2, 2))
		require.NoError(t, err)
		snap.AddField(f)
		ms.Add(snap)
	}
	assert.Equal(t, []Iteration{0, 10, 20}, ms.Iterations())

	its, err := IterationsWindow(ms, 1, 3)
	assert.NoError(t, err)
	assert.Equal(t, []Iteration{10, 20}, its)
	_, err = IterationsWindow(ms, 2, 4)
	assert.Error(t, err)
	_, err = IterationsWindow(ms, 2, 2)
	assert.Error(t, err)

	last, err := Last(ms)
	require.NoError(t, err)
	assert.Equal(t, Iteration(20), last.Iteration())
	_, err = last.Species("electrons")
	assert.True(t, errors.Is(err, ErrNotFound))
	_, err = ms.Open(5)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, []FieldKey{{"divE", ""}}, last.FieldKeys())
}

func TestInferDomain(t *testing.T) {
	cell, _ := NewGrid([]string{"x", "z"}, []int{4, 4}, []float64{1, 1}, nil)
	node, _ := NewGrid([]string{"x", "z"}, []int{5, 4}, []float64{1, 1}, nil)
	f1, _ := NewField(NewFieldKey("E", "x"), Cartesian, node, sparse.ZerosDense(5, 4))
	f2, _ := NewField(NewFieldKey("E", "z"), Cartesian, cell, sparse.ZerosDense(4, 4))
	g, err := InferDomain([]*Field{f1, f2})
	require.NoError(t, err)
	assert.Equal(t, []int{4, 4}, g.Cells)
	// The first field's grid is not modified
	assert.Equal(t, []int{5, 4}, f1.Grid.Cells)
	_, err = InferDomain(nil)
	assert.Error(t, err)
}
