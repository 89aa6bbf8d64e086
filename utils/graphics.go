package utils

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

type ColorName uint8

const (
	White ColorName = iota
	Blue
	Red
	Green
	Black
)

func GetColor(name ColorName) (c color.RGBA) {
	switch name {
	case White:
		c = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	case Blue:
		c = color.RGBA{R: 50, G: 0, B: 255, A: 255}
	case Red:
		c = color.RGBA{R: 255, G: 0, B: 50, A: 255}
	case Green:
		c = color.RGBA{R: 25, G: 255, B: 25, A: 255}
	case Black:
		c = color.RGBA{R: 0, G: 0, B: 0, A: 255}
	}
	return
}

// Extent is the data space covered by an image: xmin, xmax, ymin, ymax
type Extent [4]float64

// matrixGrid presents a Matrix as an image with its first row at the bottom,
// each element centered in its own pixel of the extent.
type matrixGrid struct {
	M      Matrix
	Extent Extent
}

func (g matrixGrid) Dims() (c, r int) {
	nr, nc := g.M.Dims()
	return nc, nr
}

func (g matrixGrid) Z(c, r int) float64 { return g.M.At(r, c) }

func (g matrixGrid) X(c int) float64 {
	_, nc := g.M.Dims()
	dx := (g.Extent[1] - g.Extent[0]) / float64(nc)
	return g.Extent[0] + (float64(c)+0.5)*dx
}

func (g matrixGrid) Y(r int) float64 {
	nr, _ := g.M.Dims()
	dy := (g.Extent[3] - g.Extent[2]) / float64(nr)
	return g.Extent[2] + (float64(r)+0.5)*dy
}

type HeatMapPlot struct {
	Title, XLabel, YLabel string
	Extent                Extent
	Curves                []plotter.XYs
	Width, Height         vg.Length
	Colors                int
}

func NewHeatMapPlot(title, xLabel, yLabel string, extent Extent) (hp *HeatMapPlot) {
	return &HeatMapPlot{
		Title:  title,
		XLabel: xLabel,
		YLabel: yLabel,
		Extent: extent,
		Width:  6 * vg.Inch,
		Height: 6 * vg.Inch,
		Colors: 255,
	}
}

func (hp *HeatMapPlot) AddCurve(xys plotter.XYs) {
	hp.Curves = append(hp.Curves, xys)
}

// Save renders M with a diverging blue/red palette centered on zero and
// writes it to fileName, the format follows the file extension.
func (hp *HeatMapPlot) Save(M Matrix, fileName string) (err error) {
	var (
		vMax = symmetricLimit(M)
		cm   = moreland.SmoothBlueRed()
		line *plotter.Line
	)
	cm.SetMax(vMax)
	cm.SetMin(-vMax)
	hm := plotter.NewHeatMap(matrixGrid{M: M, Extent: hp.Extent}, cm.Palette(hp.Colors))
	hm.Min, hm.Max = -vMax, vMax
	hm.Underflow, hm.Overflow = GetColor(Blue), GetColor(Red)
	hm.NaN = GetColor(Green)

	p := plot.New()
	p.Title.Text = hp.Title
	p.X.Label.Text = hp.XLabel
	p.Y.Label.Text = hp.YLabel
	p.Add(hm)
	for _, xys := range hp.Curves {
		if line, err = plotter.NewLine(xys); err != nil {
			return fmt.Errorf("unable to plot curve: %w", err)
		}
		line.Color = GetColor(Black)
		line.Dashes = []vg.Length{vg.Points(6), vg.Points(3)}
		p.Add(line)
	}
	p.X.Min, p.X.Max = hp.Extent[0], hp.Extent[1]
	p.Y.Min, p.Y.Max = hp.Extent[2], hp.Extent[3]
	if err = p.Save(hp.Width, hp.Height, fileName); err != nil {
		return fmt.Errorf("unable to save plot %s: %w", fileName, err)
	}
	return
}

// CircleCurves samples the upper and lower halves of a circle of the given
// radius centered on the origin at n abscissae.
func CircleCurves(radius float64, n int) (upper, lower plotter.XYs) {
	if n < 2 {
		n = 2
	}
	upper, lower = make(plotter.XYs, n), make(plotter.XYs, n)
	dx := 2 * radius / float64(n-1)
	for i := 0; i < n; i++ {
		x := -radius + float64(i)*dx
		y := math.Sqrt(math.Max(radius*radius-x*x, 0))
		upper[i].X, upper[i].Y = x, y
		lower[i].X, lower[i].Y = x, -y
	}
	return
}

func symmetricLimit(M Matrix) (vMax float64) {
	for _, val := range M.Data() {
		if math.IsNaN(val) || math.IsInf(val, 0) {
			continue
		}
		vMax = math.Max(vMax, math.Abs(val))
	}
	if vMax == 0 {
		vMax = 1
	}
	return
}
