package types

// Physical constants in SI units, CODATA 2018
const (
	SpeedOfLight = 299792458.
	ElectronMass = 9.1093837015e-31
	ProtonMass   = 1.67262192369e-27
	Epsilon0     = 8.8541878128e-12
	Mu0          = 1.25663706212e-06
)

var SpeciesMassMap = map[string]float64{
	"electrons": ElectronMass,
	"electron":  ElectronMass,
	"positrons": ElectronMass,
	"protons":   ProtonMass,
	"proton":    ProtonMass,
}
