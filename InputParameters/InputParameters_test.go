package InputParameters

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/picverify/types"
)

func TestDivEParameters(t *testing.T) {
	ip := NewDivEParameters()
	input := []byte(`
Title: "embedded boundary removal depth"
Dimensionality: rz
NCell: 16
StartIteration: 2
EndIteration: 4
`)
	require.NoError(t, ip.Parse(input))
	assert.Equal(t, 16, ip.NCell)
	// Defaults survive
	assert.Equal(t, "AverageddivE.png", ip.ImageFile)
	assert.Equal(t, 7., ip.BoundaryRadius)
	assert.Equal(t, "divE", ip.Record)
	assert.NoError(t, ip.Validate())

	d, err := ip.GetDimensionality()
	assert.NoError(t, err)
	assert.Equal(t, types.Dim_RZ, d)
	assert.Equal(t, 1.e-10, ip.GetTolerance(d))
	start, end, err := ip.IterationWindow(10)
	assert.NoError(t, err)
	assert.Equal(t, 2, start)
	assert.Equal(t, 4, end)

	// A window and explicit iterations do not mix
	ip.Window = "30:50"
	assert.Error(t, ip.Validate())
	ip.StartIteration, ip.EndIteration = DefaultStartIteration, DefaultEndIteration
	assert.NoError(t, ip.Validate())
	start, end, err = ip.IterationWindow(60)
	assert.NoError(t, err)
	assert.Equal(t, 30, start)
	assert.Equal(t, 50, end)

	ip.Tolerance = 1.e-6
	assert.Equal(t, 1.e-6, ip.GetTolerance(d))
	var buf bytes.Buffer
	ip.Print(&buf)
	assert.Equal(t, "\"embedded boundary removal depth\"\t\t= Title\n"+
		"[rz]\t\t\t= Dimensionality\n"+
		"[]\t\t\t= Test Name\n"+
		"[16]\t\t\t\t= NCell\n"+
		"[30:50]\t\t\t= Window\n"+
		"1.000e-06\t\t= Tolerance\n", buf.String())
	{
		ip := NewDivEParameters()
		ip.TestName = "embedded_boundary_removal_depth_2d"
		d, err := ip.GetDimensionality()
		assert.NoError(t, err)
		assert.Equal(t, types.Dim_2D, d)
		assert.Equal(t, 1.e-9, ip.GetTolerance(d))
		ip.TestName = "embedded_boundary"
		_, err = ip.GetDimensionality()
		assert.Error(t, err)
		ip.Dimensionality = "4d"
		_, err = ip.GetDimensionality()
		assert.Error(t, err)
	}
	// Windows
	{
		ip := NewDivEParameters()
		for window, want := range map[string][2]int{
			"5:9": {5, 9}, ":": {0, 60}, "end": {59, 60}, "7": {7, 8}, "7:7": {7, 8}, ":10": {0, 10}, "55:": {55, 60},
		} {
			ip.Window = window
			start, end, err := ip.IterationWindow(60)
			assert.NoError(t, err, window)
			assert.Equal(t, want, [2]int{start, end}, window)
		}
		for _, window := range []string{"30-50", "abc", "30..50", "1:2:3", "a:5", "5:b"} {
			ip.Window = window
			_, _, err := ip.IterationWindow(60)
			assert.Error(t, err, window)
			assert.Error(t, ip.Validate(), window)
		}
	}
	{
		ip := NewDivEParameters()
		ip.NCell = 0
		assert.Error(t, ip.Validate())
		ip = NewDivEParameters()
		ip.Extent = [4]float64{1, -1, 0, 1}
		assert.Error(t, ip.Validate())
	}
}

func TestEnergyParameters(t *testing.T) {
	ep := NewEnergyParameters()
	assert.NoError(t, ep.Validate())
	assert.Equal(t, 1.e-3, ep.FieldTolerance)
	assert.Equal(t, 1.e-8, ep.ParticleTolerance)
	assert.Equal(t, 2, ep.Row)
	assert.Equal(t, 2, ep.Column)

	fileName := filepath.Join(t.TempDir(), "energy.yaml")
	require.NoError(t, os.WriteFile(fileName, []byte(`
Species:
  - Name: positrons
Separator: space
ColumnName: total(J)
`), 0644))
	require.NoError(t, ReadFile(fileName, ep))
	require.NoError(t, ep.Validate())
	assert.Equal(t, 1, len(ep.Species))
	assert.Equal(t, types.ElectronMass, ep.Species[0].Mass)
	sep, err := ep.SeparatorRune()
	assert.NoError(t, err)
	assert.Equal(t, ' ', sep)
	assert.Equal(t, "total(J)", ep.ColumnName)

	ep.Species = []SpeciesParameters{{Name: "muons"}}
	assert.Error(t, ep.Validate())
	ep = NewEnergyParameters()
	ep.Separator = ";;"
	assert.Error(t, ep.Validate())

	var buf bytes.Buffer
	NewEnergyParameters().Print(&buf)
	assert.Contains(t, buf.String(), "[electrons]\t\t= Species, mass 9.10938e-31\n")
	assert.Contains(t, buf.String(), "1.000e-08\t\t= Particle Energy Tolerance\n")

	assert.Error(t, ReadFile(filepath.Join(t.TempDir(), "missing.yaml"), ep))
	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("NCell: [1, 2"), 0644))
	assert.Error(t, ReadFile(bad, NewDivEParameters()))
}
