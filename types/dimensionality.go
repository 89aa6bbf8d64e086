package types

import (
	"fmt"
	"strings"
)

type Dimensionality uint8

const (
	Dim_None Dimensionality = iota
	Dim_3D
	Dim_2D
	Dim_RZ
)

var DimensionalityNameMap = map[string]Dimensionality{
	"3d": Dim_3D,
	"2d": Dim_2D,
	"rz": Dim_RZ,
}

// Search order when a dimensionality is inferred from a test name
var dimensionalitySearch = []string{"3d", "2d", "rz"}

func (d Dimensionality) String() string {
	switch d {
	case Dim_3D:
		return "3d"
	case Dim_2D:
		return "2d"
	case Dim_RZ:
		return "rz"
	}
	return "none"
}

func NewDimensionality(label string) (d Dimensionality, err error) {
	var (
		ok bool
	)
	if d, ok = DimensionalityNameMap[strings.ToLower(strings.TrimSpace(label))]; !ok {
		err = fmt.Errorf("unknown dimensionality %q, must be one of 3d, 2d, rz", label)
	}
	return
}

// ParseDimensionalityInTestName returns the first of "3d", "2d", "rz" found in
// the lower cased test name.
func ParseDimensionalityInTestName(testName string) (d Dimensionality, err error) {
	name := strings.ToLower(testName)
	for _, label := range dimensionalitySearch {
		if strings.Contains(name, label) {
			return DimensionalityNameMap[label], nil
		}
	}
	err = fmt.Errorf("unable to find a dimensionality (3d, 2d, rz) in test name %q", testName)
	return
}

// DivETolerance is the largest averaged divE allowed near the embedded
// boundary for each dimensionality.
func (d Dimensionality) DivETolerance() float64 {
	switch d {
	case Dim_3D, Dim_RZ:
		return 1.e-10
	default:
		return 1.e-9
	}
}

// AveragedShape is the shape of the averaged divE array for a grid with ncell
// cells along each axis. RZ data is unrolled across the axis, doubling the
// radial extent.
func (d Dimensionality) AveragedShape(ncell int) (nr, nc int) {
	if d == Dim_RZ {
		return ncell, 2 * ncell
	}
	return ncell, ncell
}
