package Energy

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/notargets/picverify/InputParameters"
	"github.com/notargets/picverify/readfiles"
	"github.com/notargets/picverify/snapshot"
)

// Reducer writes the field and particle energy tables of a series in the
// reduced diagnostics format, one row per iteration.
type Reducer struct {
	Params *InputParameters.EnergyParameters
	OutDir string
}

func NewReducer(ep *InputParameters.EnergyParameters, outDir string) *Reducer {
	return &Reducer{Params: ep, OutDir: outDir}
}

func (rd *Reducer) writers() (ef, ep *readfiles.ReducedWriter, err error) {
	var (
		sep rune
	)
	if sep, err = rd.Params.SeparatorRune(); err != nil {
		return
	}
	ef = readfiles.NewReducedWriter(filepath.Join(rd.OutDir, rd.Params.FieldFile), sep,
		"total(J)", "E(J)", "B(J)")
	cols := []string{"total(J)"}
	for _, sp := range rd.Params.Species {
		cols = append(cols, sp.Name+"(J)")
	}
	ep = readfiles.NewReducedWriter(filepath.Join(rd.OutDir, rd.Params.ParticleFile), sep, cols...)
	return
}

// Append adds the energies of one snapshot to both tables
func (rd *Reducer) Append(snap snapshot.Snapshot) (err error) {
	var (
		ef, ep                 *readfiles.ReducedWriter
		fTotal, eTotal, bTotal float64
		pTotal                 float64
		each                   []float64
	)
	if err = rd.Params.Validate(); err != nil {
		return
	}
	if ef, ep, err = rd.writers(); err != nil {
		return
	}
	if err = os.MkdirAll(rd.OutDir, 0755); err != nil {
		return
	}
	if fTotal, eTotal, bTotal, err = FieldEnergy(snap, rd.Params.ElectricRecord, rd.Params.MagneticRecord); err != nil {
		return
	}
	if pTotal, each, err = ParticleEnergy(snap, rd.Params.Species); err != nil {
		return
	}
	step := int(snap.Iteration())
	if err = ef.Append(step, snap.Time(), fTotal, eTotal, bTotal); err != nil {
		return
	}
	return ep.Append(step, snap.Time(), append([]float64{pTotal}, each...)...)
}

// Reduce appends a row for every iteration of the series and returns the
// number of rows written.
func (rd *Reducer) Reduce(s snapshot.Series) (n int, err error) {
	for _, it := range s.Iterations() {
		var (
			snap snapshot.Snapshot
		)
		if snap, err = s.Open(it); err != nil {
			return
		}
		if err = rd.Append(snap); err != nil {
			return n, fmt.Errorf("iteration %d: %w", it, err)
		}
		n++
	}
	return
}
