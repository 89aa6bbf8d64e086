/*
Package snapshot holds the in-memory model of simulation output: mesh fields
on a regular grid, particle species, and the snapshots and time series that
group them by iteration.
*/
package snapshot

import (
	"fmt"
	"strings"
)

type Geometry uint8

const (
	Cartesian Geometry = iota
	ThetaMode
)

func (g Geometry) String() string {
	if g == ThetaMode {
		return "thetaMode"
	}
	return "cartesian"
}

func NewGeometry(label string) (g Geometry, err error) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "", "cartesian":
		g = Cartesian
	case "thetamode":
		g = ThetaMode
	default:
		err = fmt.Errorf("unsupported geometry %q", label)
	}
	return
}

// Grid describes a regular grid. Cells, Spacing and Offset are per axis, in
// the order of AxisLabels, with lengths in meters.
type Grid struct {
	AxisLabels []string
	Cells      []int
	Spacing    []float64
	Offset     []float64
}

func NewGrid(labels []string, cells []int, spacing, offset []float64) (g Grid, err error) {
	nd := len(labels)
	if len(cells) != nd || len(spacing) != nd {
		err = fmt.Errorf("grid axes mismatch: %d labels, %d cell counts, %d spacings",
			nd, len(cells), len(spacing))
		return
	}
	if offset == nil {
		offset = make([]float64, nd)
	}
	if len(offset) != nd {
		err = fmt.Errorf("grid axes mismatch: %d labels, %d offsets", nd, len(offset))
		return
	}
	g = Grid{
		AxisLabels: append([]string(nil), labels...),
		Cells:      append([]int(nil), cells...),
		Spacing:    append([]float64(nil), spacing...),
		Offset:     append([]float64(nil), offset...),
	}
	return
}

func (g Grid) NDim() int { return len(g.AxisLabels) }

func (g Grid) NumCells() (n int) {
	n = 1
	for _, c := range g.Cells {
		n *= c
	}
	return
}

// Width is the physical extent of the grid along each axis.
func (g Grid) Width() (w []float64) {
	w = make([]float64, g.NDim())
	for i := range w {
		w[i] = g.Spacing[i] * float64(g.Cells[i])
	}
	return
}

// CellVolume is the product over axes of the domain width divided by the
// number of cells.
func (g Grid) CellVolume() (dV float64) {
	dV = 1
	for i, w := range g.Width() {
		dV *= w / float64(g.Cells[i])
	}
	return
}

func (g Grid) AxisIndex(label string) (ind int, err error) {
	for i, l := range g.AxisLabels {
		if l == label {
			return i, nil
		}
	}
	return -1, fmt.Errorf("axis %q not in grid axes %v", label, g.AxisLabels)
}

// without returns the grid with axis k removed
func (g Grid) without(k int) Grid {
	drop := func(n int) (keep []int) {
		for i := 0; i < n; i++ {
			if i != k {
				keep = append(keep, i)
			}
		}
		return
	}
	out := Grid{}
	for _, i := range drop(g.NDim()) {
		out.AxisLabels = append(out.AxisLabels, g.AxisLabels[i])
		out.Cells = append(out.Cells, g.Cells[i])
		out.Spacing = append(out.Spacing, g.Spacing[i])
		out.Offset = append(out.Offset, g.Offset[i])
	}
	return out
}
