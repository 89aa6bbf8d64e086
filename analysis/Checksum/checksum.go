/*
Package Checksum reduces a snapshot to sums of absolute values per mesh
component and per particle quantity, and compares them with a stored
benchmark.
*/
package Checksum

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/notargets/picverify/snapshot"
	"github.com/notargets/picverify/utils"
)

const (
	MeshKey           = "lev=0"
	DefaultRTol       = 1.e-9
	DefaultATol       = 1.e-40
	DefaultBenchmarks = "./benchmarks_json"
)

// Checksum maps "lev=0" or a species name to the sums of that group
type Checksum map[string]map[string]float64

func Compute(snap snapshot.Snapshot) (cs Checksum, err error) {
	cs = make(Checksum)
	if keys := snap.FieldKeys(); len(keys) != 0 {
		mesh := make(map[string]float64, len(keys))
		for _, k := range keys {
			var (
				f *snapshot.Field
			)
			if f, err = snap.Field(k); err != nil {
				return nil, err
			}
			mesh[k.String()] = f.SumAbs()
		}
		cs[MeshKey] = mesh
	}
	for _, name := range snap.SpeciesNames() {
		var (
			sp *snapshot.Species
		)
		if sp, err = snap.Species(name); err != nil {
			return nil, err
		}
		group := make(map[string]float64)
		for i, comp := range []string{"x", "y", "z"} {
			group["particle_momentum_"+comp] = sumAbs(sp.Momentum[i])
		}
		group["particle_weight"] = sumAbs(sp.Weight)
		cs[name] = group
	}
	return
}

func sumAbs(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	return floats.Norm(x, 1)
}

func Read(fileName string) (cs Checksum, err error) {
	var (
		data []byte
	)
	if data, err = os.ReadFile(fileName); err != nil {
		return
	}
	if err = json.Unmarshal(data, &cs); err != nil {
		err = fmt.Errorf("unable to parse benchmark %s: %w", fileName, err)
	}
	return
}

// Write stores the checksum as indented JSON, keys sorted. Benchmarks must
// be finite.
func (cs Checksum) Write(fileName string) (err error) {
	var (
		data []byte
	)
	for _, g := range cs.groups() {
		for _, k := range sortedKeys(cs[g]) {
			if v := cs[g][k]; math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("checksum %s %s is %v, a benchmark cannot be written from non finite data", g, k, v)
			}
		}
	}
	if data, err = json.MarshalIndent(cs, "", "    "); err != nil {
		return
	}
	return os.WriteFile(fileName, append(data, '\n'), 0644)
}

func (cs Checksum) groups() (names []string) {
	for name := range cs {
		names = append(names, name)
	}
	sort.Strings(names)
	return
}

type Benchmark struct {
	Dir      string
	TestName string
	RTol     float64
	ATol     float64
}

func NewBenchmark(dir, testName string) *Benchmark {
	return &Benchmark{
		Dir:      dir,
		TestName: testName,
		RTol:     DefaultRTol,
		ATol:     DefaultATol,
	}
}

func (b *Benchmark) FileName() string {
	return filepath.Join(b.Dir, b.TestName+".json")
}

// Reset replaces the stored benchmark with cs
func (b *Benchmark) Reset(cs Checksum) (err error) {
	if len(b.TestName) == 0 {
		return fmt.Errorf("benchmark needs a test name")
	}
	if err = os.MkdirAll(b.Dir, 0755); err != nil {
		return
	}
	return cs.Write(b.FileName())
}

// Evaluate compares cs with the stored benchmark. The groups and keys must
// match exactly and every value must satisfy |a-b| <= atol + rtol*|b|. All
// mismatches are reported together.
func (b *Benchmark) Evaluate(cs Checksum) (err error) {
	var (
		ref  Checksum
		errs []error
	)
	if ref, err = Read(b.FileName()); err != nil {
		return
	}
	if !sameKeys(cs.groups(), ref.groups()) {
		return fmt.Errorf("%s: groups %v do not match the benchmark groups %v",
			b.TestName, cs.groups(), ref.groups())
	}
	for _, g := range ref.groups() {
		keys, refKeys := sortedKeys(cs[g]), sortedKeys(ref[g])
		if !sameKeys(keys, refKeys) {
			errs = append(errs, fmt.Errorf("%s: %s keys %v do not match the benchmark keys %v",
				b.TestName, g, keys, refKeys))
			continue
		}
		for _, k := range refKeys {
			a, r := cs[g][k], ref[g][k]
			tol := b.ATol + b.RTol*math.Abs(r)
			if diff := math.Abs(a - r); !(diff <= tol) {
				errs = append(errs, &utils.ToleranceError{
					Quantity:  g + " " + k,
					Value:     diff,
					Tolerance: tol,
					Message: fmt.Sprintf("%s: %s %s is %v, benchmark %v, difference %v exceeds %v",
						b.TestName, g, k, a, r, diff, tol),
				})
			}
		}
	}
	return errors.Join(errs...)
}

func sortedKeys(m map[string]float64) (keys []string) {
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return
}

func sameKeys(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
