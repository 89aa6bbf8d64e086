package Checksum

import (
	"math"
	"os"
	"strings"
	"testing"

	"github.com/ctessum/sparse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/picverify/snapshot"
	"github.com/notargets/picverify/utils"
)

func newTestSnapshot(t *testing.T, scale float64) snapshot.Snapshot {
	g, err := snapshot.NewGrid([]string{"x", "z"}, []int{2, 2}, []float64{1, 1}, nil)
	require.NoError(t, err)
	snap := snapshot.NewMemorySnapshot(5, 0, snapshot.Cartesian, g)
	for _, key := range []snapshot.FieldKey{
		snapshot.NewFieldKey("E", "x"),
		snapshot.NewFieldKey("divE", ""),
	} {
		data := sparse.ZerosDense(2, 2)
		copy(data.Elements, []float64{-1 * scale, 2, -3, 4})
		f, err := snapshot.NewField(key, snapshot.Cartesian, g, data)
		require.NoError(t, err)
		snap.AddField(f)
	}
	sp, err := snapshot.NewSpecies("electrons", []float64{-1, 1}, []float64{0, 2}, []float64{0, 0}, []float64{3, 4})
	require.NoError(t, err)
	snap.AddSpecies(sp)
	return snap
}

func TestCompute(t *testing.T) {
	cs, err := Compute(newTestSnapshot(t, 1))
	require.NoError(t, err)
	assert.Equal(t, Checksum{
		"lev=0": {"Ex": 10, "divE": 10},
		"electrons": {
			"particle_momentum_x": 2,
			"particle_momentum_y": 2,
			"particle_momentum_z": 0,
			"particle_weight":     7,
		},
	}, cs)
}

func TestResetEvaluate(t *testing.T) {
	b := NewBenchmark(t.TempDir(), "reduced_diags")
	cs, err := Compute(newTestSnapshot(t, 1))
	require.NoError(t, err)
	// No benchmark yet
	assert.Error(t, b.Evaluate(cs))
	require.NoError(t, b.Reset(cs))
	assert.NoError(t, b.Evaluate(cs))

	data, err := os.ReadFile(b.FileName())
	require.NoError(t, err)
	text := string(data)
	assert.True(t, strings.Index(text, `"electrons"`) < strings.Index(text, `"lev=0"`))
	assert.Contains(t, text, "\n    \"electrons\": {")

	// Within the relative tolerance
	cs2, err := Compute(newTestSnapshot(t, 1+1.e-12))
	require.NoError(t, err)
	assert.NoError(t, b.Evaluate(cs2))

	// Perturbed data fails on both mesh components
	cs3, err := Compute(newTestSnapshot(t, 1.5))
	require.NoError(t, err)
	err = b.Evaluate(cs3)
	require.Error(t, err)
	assert.True(t, utils.IsToleranceError(err))
	assert.Contains(t, err.Error(), "lev=0 Ex")
	assert.Contains(t, err.Error(), "lev=0 divE")

	// Key sets must match exactly
	delete(cs3["lev=0"], "Ex")
	err = b.Evaluate(cs3)
	require.Error(t, err)
	assert.False(t, utils.IsToleranceError(err))
	delete(cs3, "electrons")
	assert.Error(t, b.Evaluate(cs3))

	assert.Error(t, NewBenchmark(t.TempDir(), "").Reset(cs))

	// NaN and Inf sums cannot become a benchmark
	for _, v := range []float64{math.NaN(), math.Inf(1)} {
		cs4, err := Compute(newTestSnapshot(t, v))
		require.NoError(t, err)
		err = b.Reset(cs4)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "lev=0 Ex")
	}
	// The stored benchmark is unchanged
	assert.NoError(t, b.Evaluate(cs))
}
