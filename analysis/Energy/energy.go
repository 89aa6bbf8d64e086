/*
Package Energy recomputes the field and particle energies of a snapshot and
compares them with the totals recorded by the reduced diagnostics.
*/
package Energy

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"path/filepath"

	"github.com/notargets/picverify/InputParameters"
	"github.com/notargets/picverify/readfiles"
	"github.com/notargets/picverify/snapshot"
	"github.com/notargets/picverify/types"
	"github.com/notargets/picverify/utils"
)

var components = []string{"x", "y", "z"}

// KineticEnergy is the weighted sum of sqrt(p²c²+m²c⁴)-mc² over the particles
// of a species, evaluated as p²c²/(sqrt(p²c²+m²c⁴)+mc²) to keep the small
// momentum limit accurate.
func KineticEnergy(sp *snapshot.Species, mass float64) (ke float64) {
	var (
		c   = types.SpeedOfLight
		mc2 = mass * c * c
	)
	px, py, pz := sp.Momentum[0], sp.Momentum[1], sp.Momentum[2]
	for i, w := range sp.Weight {
		p2c2 := (px[i]*px[i] + py[i]*py[i] + pz[i]*pz[i]) * c * c
		if p2c2 == 0 {
			continue
		}
		ke += w * p2c2 / (math.Sqrt(p2c2+mc2*mc2) + mc2)
	}
	return
}

// ParticleEnergy returns the total kinetic energy of the listed species and
// the energy of each. A species missing from the snapshot contributes zero.
func ParticleEnergy(snap snapshot.Snapshot, species []InputParameters.SpeciesParameters) (total float64, each []float64, err error) {
	each = make([]float64, len(species))
	for i, spp := range species {
		var (
			sp *snapshot.Species
		)
		if sp, err = snap.Species(spp.Name); err != nil {
			if errors.Is(err, snapshot.ErrNotFound) {
				err = nil
				continue
			}
			return
		}
		mass := spp.Mass
		if mass == 0 {
			mass = sp.Mass
		}
		if mass <= 0 {
			return 0, nil, fmt.Errorf("species %s has no mass", spp.Name)
		}
		each[i] = KineticEnergy(sp, mass)
		total += each[i]
	}
	return
}

// FieldEnergy integrates ½ε₀E² + ½B²/μ₀ over the cells of the snapshot's
// domain, resampling nodal components onto the cell centers first.
func FieldEnergy(snap snapshot.Snapshot, eRecord, bRecord string) (total, eEnergy, bEnergy float64, err error) {
	var (
		domain = snap.Domain()
		dV     = domain.CellVolume()
		e2, b2 float64
	)
	if domain.NDim() == 0 {
		return 0, 0, 0, fmt.Errorf("iteration %d: snapshot has no domain", snap.Iteration())
	}
	if e2, err = sumSquares(snap, eRecord, domain); err != nil {
		return
	}
	if b2, err = sumSquares(snap, bRecord, domain); err != nil {
		return
	}
	eEnergy = 0.5 * types.Epsilon0 * e2 * dV
	bEnergy = 0.5 / types.Mu0 * b2 * dV
	total = eEnergy + bEnergy
	return
}

func sumSquares(snap snapshot.Snapshot, record string, domain snapshot.Grid) (s2 float64, err error) {
	for _, comp := range components {
		var (
			f, c *snapshot.Field
		)
		if f, err = snap.Field(snapshot.NewFieldKey(record, comp)); err != nil {
			return
		}
		if c, err = f.CellCentered(domain); err != nil {
			return
		}
		s2 += c.SumSquares()
	}
	return
}

// Result holds both comparisons of one check
type Result struct {
	Iteration                                             snapshot.Iteration
	FieldEnergy, FieldReference, FieldDifference          float64
	ParticleEnergy, ParticleReference, ParticleDifference float64
	FieldTolerance, ParticleTolerance                     float64
}

func (r Result) Print(w io.Writer) {
	fmt.Fprintln(w, "difference of field energy:", r.FieldDifference)
	fmt.Fprintln(w, "tolerance of field energy:", r.FieldTolerance)
	fmt.Fprintln(w, "difference of particle energy:", r.ParticleDifference)
	fmt.Fprintln(w, "tolerance of particle energy:", r.ParticleTolerance)
}

type Checker struct {
	Params *InputParameters.EnergyParameters
	Logger *slog.Logger
}

func NewChecker(ep *InputParameters.EnergyParameters) *Checker {
	return &Checker{
		Params: ep,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// Reference reads the recorded total from a file in the reduced
// diagnostics directory.
func (c *Checker) Reference(file string) (val float64, err error) {
	var (
		ep  = c.Params
		sep rune
		t   *readfiles.ReducedTable
		col = ep.Column
	)
	if sep, err = ep.SeparatorRune(); err != nil {
		return
	}
	if t, err = readfiles.ReadReducedTable(filepath.Join(ep.ReducedDir, file), sep); err != nil {
		return
	}
	if len(ep.ColumnName) != 0 {
		if col, err = t.Column(ep.ColumnName); err != nil {
			return
		}
	}
	return t.Value(ep.Row, col)
}

// Check computes the energies of snap, compares them with the reduced
// diagnostics and prints both differences to w before reporting failures.
func (c *Checker) Check(snap snapshot.Snapshot, w io.Writer) (r Result, err error) {
	var (
		ep               = c.Params
		fErr, pErr       error
		eEnergy, bEnergy float64
		each             []float64
	)
	if err = ep.Validate(); err != nil {
		return
	}
	r = Result{
		Iteration:         snap.Iteration(),
		FieldTolerance:    ep.FieldTolerance,
		ParticleTolerance: ep.ParticleTolerance,
	}
	if r.ParticleEnergy, each, err = ParticleEnergy(snap, ep.Species); err != nil {
		return
	}
	for i, sp := range ep.Species {
		c.Logger.Debug("particle energy", "species", sp.Name, "energy", each[i])
	}
	if r.FieldEnergy, eEnergy, bEnergy, err = FieldEnergy(snap, ep.ElectricRecord, ep.MagneticRecord); err != nil {
		return
	}
	c.Logger.Debug("field energy", "E", eEnergy, "B", bEnergy)
	if r.FieldReference, err = c.Reference(ep.FieldFile); err != nil {
		return
	}
	if r.ParticleReference, err = c.Reference(ep.ParticleFile); err != nil {
		return
	}
	r.FieldDifference, fErr = utils.CheckDifference("field energy",
		r.FieldEnergy, r.FieldReference, ep.FieldTolerance)
	r.ParticleDifference, pErr = utils.CheckDifference("particle energy",
		r.ParticleEnergy, r.ParticleReference, ep.ParticleTolerance)
	c.Logger.Info("energy", "iteration", r.Iteration,
		"field", r.FieldEnergy, "fieldReference", r.FieldReference,
		"particle", r.ParticleEnergy, "particleReference", r.ParticleReference)
	if w != nil {
		r.Print(w)
	}
	err = errors.Join(fErr, pErr)
	return
}
