/*
Package DivE averages the divergence of E recorded near an embedded boundary
over a window of iterations and checks that it stays within a tolerance.
*/
package DivE

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/notargets/picverify/snapshot"
	"github.com/notargets/picverify/types"
	"github.com/notargets/picverify/utils"
)

const (
	DefaultRecord    = "divE"
	DefaultSliceAxis = "y"
)

type Averager struct {
	Series        snapshot.Series
	Dim           types.Dimensionality
	NCell         int
	Record        string
	SliceAxis     string  // 3d only, the axis normal to the averaged plane
	SlicePosition float64 // 3d only, in [-1, 1], 0 is the center
	Logger        *slog.Logger
}

func NewAverager(series snapshot.Series, dim types.Dimensionality, ncell int) *Averager {
	return &Averager{
		Series:    series,
		Dim:       dim,
		NCell:     ncell,
		Record:    DefaultRecord,
		SliceAxis: DefaultSliceAxis,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// GetAvgDivE returns the element wise mean of divE over the iterations at
// positions start..end-1 of the series.
func GetAvgDivE(series snapshot.Series, start, end, ncell int, dim types.Dimensionality) (avg utils.Matrix, err error) {
	return NewAverager(series, dim, ncell).Average(start, end)
}

func (a *Averager) Average(start, end int) (avg utils.Matrix, err error) {
	var (
		its    []snapshot.Iteration
		nr, nc int
	)
	if a.NCell <= 0 {
		return avg, fmt.Errorf("cell count must be positive, have %d", a.NCell)
	}
	if its, err = snapshot.IterationsWindow(a.Series, start, end); err != nil {
		return
	}
	nr, nc = a.Dim.AveragedShape(a.NCell)
	sum := utils.NewMatrix(nr, nc)
	for _, it := range its {
		var (
			plane utils.Matrix
		)
		if plane, err = a.Plane(it); err != nil {
			return
		}
		if pr, pc := plane.Dims(); pr != nr || pc != nc {
			return avg, fmt.Errorf("iteration %d: %s has shape (%d, %d), expected (%d, %d) for %s with %d cells",
				it, a.Record, pr, pc, nr, nc, a.Dim, a.NCell)
		}
		sum.Add(plane)
		a.Logger.Debug("accumulated", "iteration", it, "max", plane.MaxAbs())
	}
	sum.Scale(1. / float64(len(its)))
	avg = sum.SetReadOnly("average of " + a.Record)
	a.Logger.Info("averaged", "record", a.Record, "iterations", len(its),
		"first", its[0], "last", its[len(its)-1])
	return
}

// Plane reads the record at one iteration and reduces it to the two
// dimensional array that is averaged: a slice of 3d data, 2d data as is, or
// rz data unrolled across the axis.
func (a *Averager) Plane(it snapshot.Iteration) (M utils.Matrix, err error) {
	var (
		snap snapshot.Snapshot
		f    *snapshot.Field
	)
	if snap, err = a.Series.Open(it); err != nil {
		return
	}
	if f, err = snap.Field(snapshot.NewFieldKey(a.Record, "")); err != nil {
		return
	}
	switch a.Dim {
	case types.Dim_3D:
		if f.Geometry != snapshot.Cartesian || f.Grid.NDim() != 3 {
			return M, fmt.Errorf("iteration %d: 3d requires cartesian data with 3 axes, have %s with axes %v",
				it, f.Geometry, f.Grid.AxisLabels)
		}
		if f, err = f.SliceAcross(a.SliceAxis, a.SlicePosition); err != nil {
			return
		}
	case types.Dim_2D:
		if f.Geometry != snapshot.Cartesian || f.Grid.NDim() != 2 {
			return M, fmt.Errorf("iteration %d: 2d requires cartesian data with 2 axes, have %s with axes %v",
				it, f.Geometry, f.Grid.AxisLabels)
		}
	case types.Dim_RZ:
		if f, err = f.Unroll(); err != nil {
			return
		}
	default:
		return M, fmt.Errorf("unsupported dimensionality %s", a.Dim)
	}
	return f.Matrix()
}

// CheckTolerance fails when any element of avg is not <= tol, NaN included.
func CheckTolerance(avg utils.Matrix, tol float64) (err error) {
	I := avg.FindNot(utils.LessOrEqual, tol)
	if I.Len == 0 {
		return
	}
	return &utils.ToleranceError{
		Quantity:  DefaultRecord,
		Value:     avg.Max(),
		Tolerance: tol,
		Count:     I.Len,
		Message:   fmt.Sprintf("Test did not pass: one or more elements exceed the tolerance of %v.", tol),
	}
}

// Report prints the outcome of CheckTolerance to w and returns its error
func Report(w io.Writer, avg utils.Matrix, tol float64) (err error) {
	if err = CheckTolerance(avg, tol); err != nil {
		return
	}
	fmt.Fprintln(w, "All elements of are within the tolerance.")
	return
}
