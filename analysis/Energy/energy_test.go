package Energy

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/ctessum/sparse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/picverify/InputParameters"
	"github.com/notargets/picverify/snapshot"
	"github.com/notargets/picverify/types"
	"github.com/notargets/picverify/utils"
)

// newUniformSnapshot holds uniform E and B on a 2x2x2 domain of 0.5 m cells.
// E is stored on the nodes along its own axis, B on the cell centers.
func newUniformSnapshot(t *testing.T, it snapshot.Iteration, E0, B0 float64) *snapshot.MemorySnapshot {
	domain, err := snapshot.NewGrid([]string{"x", "y", "z"}, []int{2, 2, 2}, []float64{.5, .5, .5}, nil)
	require.NoError(t, err)
	snap := snapshot.NewMemorySnapshot(it, float64(it)*1.e-15, snapshot.Cartesian, domain)
	for k, comp := range []string{"x", "y", "z"} {
		cells := []int{2, 2, 2}
		cells[k] = 3
		g, err := snapshot.NewGrid(domain.AxisLabels, cells, domain.Spacing, nil)
		require.NoError(t, err)
		e := sparse.ZerosDense(cells...)
		for i := range e.Elements {
			e.Elements[i] = E0
		}
		fe, err := snapshot.NewField(snapshot.NewFieldKey("E", comp), snapshot.Cartesian, g, e)
		require.NoError(t, err)
		b := sparse.ZerosDense(2, 2, 2)
		for i := range b.Elements {
			b.Elements[i] = B0
		}
		fb, err := snapshot.NewField(snapshot.NewFieldKey("B", comp), snapshot.Cartesian, domain, b)
		require.NoError(t, err)
		snap.AddField(fe).AddField(fb)
	}
	return snap
}

// addParticles gives every species one particle moving at 0.6c along x
func addParticles(t *testing.T, snap *snapshot.MemorySnapshot, weight float64, names ...string) {
	for _, name := range names {
		m := types.SpeciesMassMap[name]
		p := 0.75 * m * types.SpeedOfLight
		sp, err := snapshot.NewSpecies(name, []float64{p}, []float64{0}, []float64{0}, []float64{weight})
		require.NoError(t, err)
		snap.AddSpecies(sp)
	}
}

func writeReduced(t *testing.T, dir, file string, rows ...string) {
	content := "#[0]step(),[1]time(s),[2]total(J),[3]E(J),[4]B(J)\n"
	for _, row := range rows {
		content += row + "\n"
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, file), []byte(content), 0644))
}

func TestKineticEnergy(t *testing.T) {
	var (
		c  = types.SpeedOfLight
		me = types.ElectronMass
	)
	// gamma = 1.25 at 0.6c, so each particle carries 0.25 m c²
	p := 0.75 * me * c
	sp, err := snapshot.NewSpecies("electrons", []float64{p, 0}, []float64{0, p}, []float64{0, 0}, []float64{2, 3})
	require.NoError(t, err)
	ke := KineticEnergy(sp, me)
	want := 5 * 0.25 * me * c * c
	assert.InDelta(t, want, ke, 1.e-12*want)

	// Non relativistic limit is p²/2m, where the direct form loses all digits
	p = 1.e-6 * me * c
	sp, err = snapshot.NewSpecies("electrons", []float64{p}, []float64{0}, []float64{0}, nil)
	require.NoError(t, err)
	want = p * p / (2 * me)
	ke = KineticEnergy(sp, me)
	assert.InDelta(t, want, ke, 1.e-9*want)

	// Matches the difference form where that one is accurate
	p = 3 * me * c
	sp, err = snapshot.NewSpecies("electrons", []float64{0}, []float64{0}, []float64{p}, nil)
	require.NoError(t, err)
	want = math.Sqrt(p*p*c*c+me*me*c*c*c*c) - me*c*c
	assert.InDelta(t, want, KineticEnergy(sp, me), 1.e-12*want)

	// Zero momentum carries no energy regardless of weight
	sp, err = snapshot.NewSpecies("protons", []float64{0}, []float64{0}, []float64{0}, []float64{1.e10})
	require.NoError(t, err)
	assert.Equal(t, 0., KineticEnergy(sp, types.ProtonMass))
}

func TestParticleEnergy(t *testing.T) {
	snap := newUniformSnapshot(t, 0, 0, 0)
	addParticles(t, snap, 1, "electrons", "protons")
	species := InputParameters.NewEnergyParameters().Species
	total, each, err := ParticleEnergy(snap, species)
	require.NoError(t, err)
	require.Equal(t, 2, len(each))
	c2 := types.SpeedOfLight * types.SpeedOfLight
	assert.InDelta(t, 0.25*types.ElectronMass*c2, each[0], 1.e-26)
	assert.InDelta(t, 0.25*types.ProtonMass*c2, each[1], 1.e-23)
	assert.InDelta(t, each[0]+each[1], total, 1.e-30)

	// Missing species contribute nothing
	snap = newUniformSnapshot(t, 0, 0, 0)
	addParticles(t, snap, 1, "electrons")
	total, each, err = ParticleEnergy(snap, species)
	require.NoError(t, err)
	assert.Equal(t, 0., each[1])
	assert.Equal(t, each[0], total)

	// Unknown mass is an error
	snap.AddSpecies(&snapshot.Species{Name: "muons", Weight: []float64{}})
	_, _, err = ParticleEnergy(snap, []InputParameters.SpeciesParameters{{Name: "muons"}})
	assert.Error(t, err)
}

func TestFieldEnergy(t *testing.T) {
	var (
		E0, B0 = 3., 2.e-3
		dV     = 0.125
		nCells = 8.
	)
	snap := newUniformSnapshot(t, 0, E0, B0)
	total, eEnergy, bEnergy, err := FieldEnergy(snap, "E", "B")
	require.NoError(t, err)
	wantE := 0.5 * types.Epsilon0 * 3 * E0 * E0 * nCells * dV
	wantB := 0.5 / types.Mu0 * 3 * B0 * B0 * nCells * dV
	assert.InDelta(t, wantE, eEnergy, 1.e-12*wantE)
	assert.InDelta(t, wantB, bEnergy, 1.e-12*wantB)
	assert.InDelta(t, wantE+wantB, total, 1.e-12*(wantE+wantB))

	// A missing component is an error
	_, _, _, err = FieldEnergy(snap, "E", "H")
	assert.True(t, errors.Is(err, snapshot.ErrNotFound))
}

func TestCheckZero(t *testing.T) {
	dir := t.TempDir()
	writeReduced(t, dir, "EF.txt", "0,0.0,0.0,0.0,0.0", "1,1.0,0.0,0.0,0.0")
	writeReduced(t, dir, "EP.txt", "0,0.0,0.0,0.0,0.0", "1,1.0,0.0,0.0,0.0")
	snap := newUniformSnapshot(t, 1, 0, 0)
	// Species present without particles
	for _, name := range []string{"electrons", "protons"} {
		sp, err := snapshot.NewSpecies(name, []float64{}, []float64{}, []float64{}, []float64{})
		require.NoError(t, err)
		snap.AddSpecies(sp)
	}
	ep := InputParameters.NewEnergyParameters()
	ep.ReducedDir = dir
	var buf bytes.Buffer
	r, err := NewChecker(ep).Check(snap, &buf)
	require.NoError(t, err)
	assert.Equal(t, 0., r.FieldDifference)
	assert.Equal(t, 0., r.ParticleDifference)
	assert.Equal(t, "difference of field energy: 0\n"+
		"tolerance of field energy: 0.001\n"+
		"difference of particle energy: 0\n"+
		"tolerance of particle energy: 1e-08\n", buf.String())
}

func TestCheckFailure(t *testing.T) {
	dir := t.TempDir()
	writeReduced(t, dir, "EF.txt", "0,0.0,1.0,0.0,0.0", "1,1.0,1.0,0.0,0.0")
	writeReduced(t, dir, "EP.txt", "0,0.0,0.0", "1,1.0,0.0")
	snap := newUniformSnapshot(t, 1, 0, 0)
	ep := InputParameters.NewEnergyParameters()
	ep.ReducedDir = dir
	var buf bytes.Buffer
	r, err := NewChecker(ep).Check(snap, &buf)
	require.Error(t, err)
	assert.True(t, utils.IsToleranceError(err))
	assert.Equal(t, 1., r.FieldDifference)
	assert.Equal(t, 0., r.ParticleDifference)
	// Both differences are printed before failing
	assert.Contains(t, buf.String(), "difference of field energy: 1\n")
	assert.Contains(t, buf.String(), "difference of particle energy: 0\n")

	// A short table is not a tolerance failure
	writeReduced(t, dir, "EP.txt", "0,0.0,0.0")
	_, err = NewChecker(ep).Check(snap, nil)
	require.Error(t, err)
	assert.False(t, utils.IsToleranceError(err))

	// Missing reduced diagnostics
	ep.ReducedDir = filepath.Join(dir, "missing")
	_, err = NewChecker(ep).Check(snap, nil)
	assert.Error(t, err)
}

func TestReduceThenCheck(t *testing.T) {
	dir := t.TempDir()
	ms := snapshot.NewMemorySeries()
	for _, it := range []snapshot.Iteration{0, 10, 20} {
		snap := newUniformSnapshot(t, it, 1.e3*float64(it+1), 1.e-4*float64(it+1))
		addParticles(t, snap, 1.e8*float64(it+1), "electrons", "protons")
		ms.Add(snap)
	}
	ep := InputParameters.NewEnergyParameters()
	ep.ReducedDir = dir
	n, err := NewReducer(ep, dir).Reduce(ms)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	// Row 2 of the tables is iteration 10
	snap, err := ms.Open(10)
	require.NoError(t, err)
	r, err := NewChecker(ep).Check(snap, nil)
	require.NoError(t, err)
	assert.Less(t, r.FieldDifference, ep.FieldTolerance)
	assert.Less(t, r.ParticleDifference, ep.ParticleTolerance)

	// Columns may be selected by name
	ep.ColumnName = "total(J)"
	_, err = NewChecker(ep).Check(snap, nil)
	require.NoError(t, err)
	ep.ColumnName = "electrons(J)"
	_, err = NewChecker(ep).Check(snap, nil)
	assert.Error(t, err)

	// Any other iteration does not match row 2
	ep.ColumnName = ""
	snap, err = ms.Open(20)
	require.NoError(t, err)
	_, err = NewChecker(ep).Check(snap, nil)
	assert.True(t, utils.IsToleranceError(err))
}
