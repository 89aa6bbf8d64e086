package snapshot

import (
	"fmt"

	"github.com/ctessum/sparse"
	"gonum.org/v1/gonum/floats"

	"github.com/notargets/picverify/utils"
)

type FieldKey struct {
	Record, Component string
}

func NewFieldKey(record, component string) FieldKey {
	return FieldKey{Record: record, Component: component}
}

// String is the record name followed by the component, "Ex" or "divE"
func (k FieldKey) String() string { return k.Record + k.Component }

// Field is one component of a mesh record. For cartesian data the array shape
// matches Grid.Cells. ThetaMode data carries a leading azimuthal mode axis of
// length 2m-1 ahead of the (r, z) axes described by Grid, ordered as the
// real part of mode 0 followed by the real and imaginary parts of modes 1..m-1.
type Field struct {
	Key      FieldKey
	Geometry Geometry
	Grid     Grid
	Position []float64 // staggering of the samples within a cell, in cell units
	Data     *sparse.DenseArray
}

func NewField(key FieldKey, geom Geometry, grid Grid, data *sparse.DenseArray) (f *Field, err error) {
	f = &Field{
		Key:      key,
		Geometry: geom,
		Grid:     grid,
		Data:     data,
	}
	if err = f.checkShape(); err != nil {
		return nil, err
	}
	return
}

func (f *Field) checkShape() (err error) {
	var (
		shape = f.Data.Shape
		nd    = f.Grid.NDim()
		lead  = 0
	)
	if f.Geometry == ThetaMode {
		lead = 1
		if len(shape) == 0 || shape[0]%2 != 1 {
			return fmt.Errorf("field %s: thetaMode data must have an odd number of mode components, shape %v",
				f.Key, shape)
		}
	}
	if len(shape) != nd+lead {
		return fmt.Errorf("field %s: data shape %v does not match %d grid axes %v",
			f.Key, shape, nd, f.Grid.AxisLabels)
	}
	for i := 0; i < nd; i++ {
		if shape[i+lead] != f.Grid.Cells[i] {
			return fmt.Errorf("field %s: data shape %v does not match grid cells %v",
				f.Key, shape, f.Grid.Cells)
		}
	}
	return
}

func (f *Field) Shape() []int { return f.Data.Shape }

func (f *Field) Modes() int {
	if f.Geometry != ThetaMode {
		return 1
	}
	return (f.Data.Shape[0] + 1) / 2
}

// SumSquares is the sum over all elements of the squared values
func (f *Field) SumSquares() float64 {
	return floats.Dot(f.Data.Elements, f.Data.Elements)
}

func (f *Field) SumAbs() float64 {
	return floats.Norm(f.Data.Elements, 1)
}

// SliceAcross removes a cartesian axis by taking the plane at a relative
// position in [-1, 1] along it, -1 is the first sample and 1 the last.
func (f *Field) SliceAcross(axis string, rel float64) (s *Field, err error) {
	var (
		k int
	)
	if f.Geometry != Cartesian {
		return nil, fmt.Errorf("field %s: slicing is only supported for cartesian data", f.Key)
	}
	if rel < -1 || rel > 1 {
		return nil, fmt.Errorf("field %s: slice position %v is outside [-1, 1]", f.Key, rel)
	}
	if k, err = f.Grid.AxisIndex(axis); err != nil {
		return
	}
	var (
		shape  = f.Data.Shape
		n      = shape[k]
		plane  = int(0.5 * (rel + 1) * float64(n))
		outDim = make([]int, 0, len(shape)-1)
	)
	if plane >= n {
		plane = n - 1
	}
	for i, l := range shape {
		if i != k {
			outDim = append(outDim, l)
		}
	}
	out := sparse.ZerosDense(outDim...)
	inIdx := make([]int, len(shape))
	forEachIndex(outDim, func(outIdx []int) {
		for i, j := 0, 0; i < len(shape); i++ {
			if i == k {
				inIdx[i] = plane
				continue
			}
			inIdx[i] = outIdx[j]
			j++
		}
		out.Set(f.Data.Get(inIdx...), outIdx...)
	})
	s = &Field{
		Key:      f.Key,
		Geometry: Cartesian,
		Grid:     f.Grid.without(k),
		Data:     out,
	}
	if len(f.Position) == len(shape) {
		for i, p := range f.Position {
			if i != k {
				s.Position = append(s.Position, p)
			}
		}
	}
	return
}

// Unroll reconstructs a thetaMode field in the plane theta = 0, pi. The result
// is a cartesian (z, r) field where r runs from -rmax to rmax, the negative
// half holding the theta = pi values mirrored across the axis.
func (f *Field) Unroll() (u *Field, err error) {
	if f.Geometry != ThetaMode {
		return nil, fmt.Errorf("field %s: unroll requires thetaMode data", f.Key)
	}
	var (
		ir, iz int
	)
	if ir, err = f.Grid.AxisIndex("r"); err != nil {
		return
	}
	if iz, err = f.Grid.AxisIndex("z"); err != nil {
		return
	}
	var (
		nm     = f.Data.Shape[0]
		nr, nz = f.Grid.Cells[ir], f.Grid.Cells[iz]
		out    = sparse.ZerosDense(nz, 2*nr)
		idx    = make([]int, 3)
	)
	at := func(c, r, z int) float64 {
		idx[0], idx[1+ir], idx[1+iz] = c, r, z
		return f.Data.Get(idx...)
	}
	for z := 0; z < nz; z++ {
		for r := 0; r < nr; r++ {
			var (
				zero   = at(0, r, z)
				plus   = zero
				minus  = zero
				parity = -1.
			)
			// Real part of mode m sits at 2m-1, cos(m*pi) alternates sign
			for c := 1; c < nm; c += 2 {
				re := at(c, r, z)
				plus += re
				minus += parity * re
				parity = -parity
			}
			out.Set(plus, z, nr+r)
			out.Set(minus, z, nr-1-r)
		}
	}
	rmax := f.Grid.Offset[ir] + f.Grid.Spacing[ir]*float64(nr)
	u = &Field{
		Key:      f.Key,
		Geometry: Cartesian,
		Grid: Grid{
			AxisLabels: []string{"z", "r"},
			Cells:      []int{nz, 2 * nr},
			Spacing:    []float64{f.Grid.Spacing[iz], f.Grid.Spacing[ir]},
			Offset:     []float64{f.Grid.Offset[iz], -rmax},
		},
		Data: out,
	}
	return
}

// CellCentered resamples a cartesian field onto the cells of domain. Axes
// whose length already equals the cell count are kept, nodal axes with one
// extra sample are averaged onto the cells between each pair of nodes.
func (f *Field) CellCentered(domain Grid) (c *Field, err error) {
	if f.Geometry != Cartesian {
		return nil, fmt.Errorf("field %s: cell centering requires cartesian data", f.Key)
	}
	if domain.NDim() != f.Grid.NDim() {
		return nil, fmt.Errorf("field %s: %d axes cannot be centered on a %d axis domain",
			f.Key, f.Grid.NDim(), domain.NDim())
	}
	data := f.Data
	for k, nc := range domain.Cells {
		switch data.Shape[k] {
		case nc:
		case nc + 1:
			data = applyAlongAxis(data, k, utils.NewNodeToCellOperator(nc))
		default:
			return nil, fmt.Errorf("field %s: axis %s has %d samples, expected %d or %d",
				f.Key, domain.AxisLabels[k], data.Shape[k], nc, nc+1)
		}
	}
	if data == f.Data {
		data = f.Data.Copy()
	}
	c = &Field{
		Key:      f.Key,
		Geometry: Cartesian,
		Grid:     domain,
		Position: make([]float64, domain.NDim()),
		Data:     data,
	}
	for i := range c.Position {
		c.Position[i] = 0.5
	}
	return
}

// Matrix returns a copy of a two dimensional field, rows along the first axis
func (f *Field) Matrix() (M utils.Matrix, err error) {
	shape := f.Data.Shape
	if len(shape) != 2 {
		return M, fmt.Errorf("field %s: matrix requires two dimensional data, shape %v", f.Key, shape)
	}
	data := make([]float64, len(f.Data.Elements))
	copy(data, f.Data.Elements)
	M = utils.NewMatrix(shape[0], shape[1], data)
	return
}

// applyAlongAxis multiplies every 1D line of data along axis k by op
func applyAlongAxis(data *sparse.DenseArray, k int, op utils.CSR) *sparse.DenseArray {
	var (
		nOut, nIn = op.Dims()
		outDim    = append([]int(nil), data.Shape...)
		line      = make([]float64, nIn)
		idx       = make([]int, len(outDim))
	)
	outDim[k] = nOut
	out := sparse.ZerosDense(outDim...)
	outerDim := append([]int(nil), data.Shape...)
	outerDim[k] = 1
	forEachIndex(outerDim, func(outer []int) {
		copy(idx, outer)
		for i := 0; i < nIn; i++ {
			idx[k] = i
			line[i] = data.Get(idx...)
		}
		for i, val := range op.MulVec(line) {
			idx[k] = i
			out.Set(val, idx...)
		}
	})
	return out
}

// forEachIndex calls fn for every index of an array with the given shape,
// last axis fastest. The index slice is reused between calls.
func forEachIndex(shape []int, fn func(idx []int)) {
	for _, n := range shape {
		if n == 0 {
			return
		}
	}
	idx := make([]int, len(shape))
	for {
		fn(idx)
		k := len(shape) - 1
		for ; k >= 0; k-- {
			idx[k]++
			if idx[k] < shape[k] {
				break
			}
			idx[k] = 0
		}
		if k < 0 {
			return
		}
	}
}
