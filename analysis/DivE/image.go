package DivE

import (
	"github.com/notargets/picverify/utils"
)

const (
	DefaultImageFile      = "AverageddivE.png"
	DefaultBoundaryRadius = 7.
	boundarySamples       = 400
)

type Image struct {
	FileName       string
	Title          string
	XLabel, YLabel string
	Extent         utils.Extent
	BoundaryRadius float64 // Zero omits the embedded boundary outline
}

func NewImage(fileName string) *Image {
	return &Image{
		FileName:       fileName,
		Title:          "Averaged divE",
		XLabel:         "x (m)",
		YLabel:         "z (m)",
		Extent:         utils.Extent{-10, 10, -10, 10},
		BoundaryRadius: DefaultBoundaryRadius,
	}
}

// Save renders the averaged field with the embedded boundary drawn as a
// dashed circle.
func (im *Image) Save(avg utils.Matrix) error {
	hp := utils.NewHeatMapPlot(im.Title, im.XLabel, im.YLabel, im.Extent)
	if im.BoundaryRadius > 0 {
		upper, lower := utils.CircleCurves(im.BoundaryRadius, boundarySamples)
		hp.AddCurve(upper)
		hp.AddCurve(lower)
	}
	return hp.Save(avg, im.FileName)
}
