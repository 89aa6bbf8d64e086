package InputParameters

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ghodss/yaml"

	"github.com/notargets/picverify/types"
	"github.com/notargets/picverify/utils"
)

const (
	DefaultStartIteration = 30
	DefaultEndIteration   = 50
)

// Parameters of the divE averaging check, obtained from the YAML input file
type DivEParameters struct {
	Title          string     `json:"Title"`
	Dimensionality string     `json:"Dimensionality"` // 3d, 2d or rz, found in TestName when empty
	TestName       string     `json:"TestName"`
	Record         string     `json:"Record"`
	NCell          int        `json:"NCell"`
	StartIteration int        `json:"StartIteration"`
	EndIteration   int        `json:"EndIteration"` // Exclusive
	Window         string     `json:"Window"`       // "30:50", exclusive of Start/EndIteration
	Tolerance      float64    `json:"Tolerance"`    // Zero selects the tolerance of the dimensionality
	SliceAxis      string     `json:"SliceAxis"`
	SlicePosition  float64    `json:"SlicePosition"`
	ImageFile      string     `json:"ImageFile"`
	Extent         [4]float64 `json:"Extent"`
	BoundaryRadius float64    `json:"BoundaryRadius"`
}

func NewDivEParameters() *DivEParameters {
	return &DivEParameters{
		Title:          "embedded boundary removal depth",
		Record:         "divE",
		NCell:          32,
		StartIteration: DefaultStartIteration,
		EndIteration:   DefaultEndIteration,
		SliceAxis:      "y",
		ImageFile:      "AverageddivE.png",
		Extent:         [4]float64{-10, 10, -10, 10},
		BoundaryRadius: 7,
	}
}

func (ip *DivEParameters) Parse(data []byte) error {
	return yaml.Unmarshal(data, ip)
}

// GetDimensionality uses the Dimensionality field when set, otherwise the
// dimensionality named in the test name.
func (ip *DivEParameters) GetDimensionality() (d types.Dimensionality, err error) {
	if len(strings.TrimSpace(ip.Dimensionality)) != 0 {
		return types.NewDimensionality(ip.Dimensionality)
	}
	return types.ParseDimensionalityInTestName(ip.TestName)
}

func (ip *DivEParameters) GetTolerance(d types.Dimensionality) float64 {
	if ip.Tolerance > 0 {
		return ip.Tolerance
	}
	return d.DivETolerance()
}

// IterationWindow returns the [start, end) positions in a list of nIterations
func (ip *DivEParameters) IterationWindow(nIterations int) (start, end int, err error) {
	if len(strings.TrimSpace(ip.Window)) != 0 {
		if start, end, err = utils.ParseWindow(ip.Window, nIterations); err != nil {
			err = fmt.Errorf("Window: %w", err)
		}
		return
	}
	return ip.StartIteration, ip.EndIteration, nil
}

func (ip *DivEParameters) Validate() (err error) {
	if ip.NCell <= 0 {
		return fmt.Errorf("NCell must be positive, have %d", ip.NCell)
	}
	if ip.SlicePosition < -1 || ip.SlicePosition > 1 {
		return fmt.Errorf("SlicePosition must be within [-1, 1], have %v", ip.SlicePosition)
	}
	if ip.Extent[1] <= ip.Extent[0] || ip.Extent[3] <= ip.Extent[2] {
		return fmt.Errorf("invalid image extent %v", ip.Extent)
	}
	if len(strings.TrimSpace(ip.Window)) != 0 {
		if ip.StartIteration != DefaultStartIteration || ip.EndIteration != DefaultEndIteration {
			return fmt.Errorf("set either Window %q or StartIteration, EndIteration [%d:%d], not both",
				ip.Window, ip.StartIteration, ip.EndIteration)
		}
		if _, _, err = ip.IterationWindow(0); err != nil {
			return
		}
	}
	return
}

func (ip *DivEParameters) Print(w io.Writer) {
	fmt.Fprintf(w, "\"%s\"\t\t= Title\n", ip.Title)
	fmt.Fprintf(w, "[%s]\t\t\t= Dimensionality\n", ip.Dimensionality)
	fmt.Fprintf(w, "[%s]\t\t\t= Test Name\n", ip.TestName)
	fmt.Fprintf(w, "[%d]\t\t\t\t= NCell\n", ip.NCell)
	if len(ip.Window) != 0 {
		fmt.Fprintf(w, "[%s]\t\t\t= Window\n", ip.Window)
	} else {
		fmt.Fprintf(w, "[%d:%d]\t\t\t= Iterations\n", ip.StartIteration, ip.EndIteration)
	}
	if ip.Tolerance > 0 {
		fmt.Fprintf(w, "%8.3e\t\t= Tolerance\n", ip.Tolerance)
	}
}

type SpeciesParameters struct {
	Name string  `json:"Name"`
	Mass float64 `json:"Mass"` // kg, zero looks the mass up by species name
}

// Parameters of the energy cross check
type EnergyParameters struct {
	Title             string              `json:"Title"`
	Species           []SpeciesParameters `json:"Species"`
	ElectricRecord    string              `json:"ElectricRecord"`
	MagneticRecord    string              `json:"MagneticRecord"`
	ReducedDir        string              `json:"ReducedDir"`
	FieldFile         string              `json:"FieldFile"`
	ParticleFile      string              `json:"ParticleFile"`
	Separator         string              `json:"Separator"`
	Row               int                 `json:"Row"`
	Column            int                 `json:"Column"`
	ColumnName        string              `json:"ColumnName"` // Overrides Column when set, "total(J)"
	FieldTolerance    float64             `json:"FieldTolerance"`
	ParticleTolerance float64             `json:"ParticleTolerance"`
}

func NewEnergyParameters() *EnergyParameters {
	return &EnergyParameters{
		Title: "reduced diagnostics",
		Species: []SpeciesParameters{
			{Name: "electrons", Mass: types.ElectronMass},
			{Name: "protons", Mass: types.ProtonMass},
		},
		ElectricRecord:    "E",
		MagneticRecord:    "B",
		ReducedDir:        "./diags/reducedfiles",
		FieldFile:         "EF.txt",
		ParticleFile:      "EP.txt",
		Separator:         ",",
		Row:               2,
		Column:            2,
		FieldTolerance:    1.e-3,
		ParticleTolerance: 1.e-8,
	}
}

func (ep *EnergyParameters) Parse(data []byte) error {
	return yaml.Unmarshal(data, ep)
}

// SeparatorRune is the column separator of the reduced files, "space" or " "
// for the simulation's default writer.
func (ep *EnergyParameters) SeparatorRune() (r rune, err error) {
	switch ep.Separator {
	case "", ",":
		return ',', nil
	case " ", "space":
		return ' ', nil
	case "\t", "tab":
		return '\t', nil
	}
	if rs := []rune(ep.Separator); len(rs) == 1 {
		return rs[0], nil
	}
	return 0, fmt.Errorf("separator must be a single character, have %q", ep.Separator)
}

func (ep *EnergyParameters) Validate() (err error) {
	for i, sp := range ep.Species {
		if len(sp.Name) == 0 {
			return fmt.Errorf("species %d has no name", i)
		}
		if sp.Mass == 0 {
			mass, ok := types.SpeciesMassMap[sp.Name]
			if !ok {
				return fmt.Errorf("no mass given for species %s", sp.Name)
			}
			ep.Species[i].Mass = mass
		}
	}
	if ep.Row < 0 || ep.Column < 0 {
		return fmt.Errorf("row and column must not be negative, have %d, %d", ep.Row, ep.Column)
	}
	if ep.FieldTolerance <= 0 || ep.ParticleTolerance <= 0 {
		return fmt.Errorf("tolerances must be positive, have %v, %v", ep.FieldTolerance, ep.ParticleTolerance)
	}
	_, err = ep.SeparatorRune()
	return
}

func (ep *EnergyParameters) Print(w io.Writer) {
	fmt.Fprintf(w, "\"%s\"\t\t= Title\n", ep.Title)
	for _, sp := range ep.Species {
		fmt.Fprintf(w, "[%s]\t\t= Species, mass %8.5e\n", sp.Name, sp.Mass)
	}
	fmt.Fprintf(w, "[%s]\t= Reduced Diagnostics\n", ep.ReducedDir)
	fmt.Fprintf(w, "%8.3e\t\t= Field Energy Tolerance\n", ep.FieldTolerance)
	fmt.Fprintf(w, "%8.3e\t\t= Particle Energy Tolerance\n", ep.ParticleTolerance)
}

// ReadFile overlays the parameters in a YAML file on the receiver's values
func ReadFile(fileName string, ip interface{ Parse([]byte) error }) (err error) {
	var (
		data []byte
	)
	if data, err = os.ReadFile(fileName); err != nil {
		return
	}
	if err = ip.Parse(data); err != nil {
		err = fmt.Errorf("unable to parse input parameters %s: %w", fileName, err)
	}
	return
}
