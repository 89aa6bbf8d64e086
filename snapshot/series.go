package snapshot

import (
	"errors"
	"fmt"
	"sort"
)

var ErrNotFound = errors.New("not found")

type Iteration int

// Snapshot is the simulation output written at one iteration
type Snapshot interface {
	Iteration() Iteration
	Time() float64
	// Domain is the cell grid of the simulation, fields may be nodal on it
	Domain() Grid
	Geometry() Geometry
	Field(key FieldKey) (*Field, error)
	FieldKeys() []FieldKey
	Species(name string) (*Species, error)
	SpeciesNames() []string
}

// Series is an ordered sequence of snapshots, opened one at a time
type Series interface {
	Iterations() []Iteration
	Open(it Iteration) (Snapshot, error)
	Close() error
}

// IterationsWindow returns the iterations at positions start..end-1 of the
// series list, the window is by position, not by iteration number.
func IterationsWindow(s Series, start, end int) (its []Iteration, err error) {
	all := s.Iterations()
	if start < 0 || end > len(all) || end <= start {
		return nil, fmt.Errorf("iteration window [%d, %d) is not within the %d available iterations",
			start, end, len(all))
	}
	return all[start:end], nil
}

type MemorySnapshot struct {
	iteration Iteration
	time      float64
	domain    Grid
	geometry  Geometry
	fields    map[FieldKey]*Field
	species   map[string]*Species
}

func NewMemorySnapshot(it Iteration, time float64, geom Geometry, domain Grid) *MemorySnapshot {
	return &MemorySnapshot{
		iteration: it,
		time:      time,
		domain:    domain,
		geometry:  geom,
		fields:    make(map[FieldKey]*Field),
		species:   make(map[string]*Species),
	}
}

func (s *MemorySnapshot) Iteration() Iteration { return s.iteration }
func (s *MemorySnapshot) Time() float64        { return s.time }
func (s *MemorySnapshot) Domain() Grid         { return s.domain }
func (s *MemorySnapshot) Geometry() Geometry   { return s.geometry }

func (s *MemorySnapshot) AddField(f *Field) *MemorySnapshot {
	s.fields[f.Key] = f
	return s
}

func (s *MemorySnapshot) AddSpecies(sp *Species) *MemorySnapshot {
	s.species[sp.Name] = sp
	return s
}

func (s *MemorySnapshot) Field(key FieldKey) (f *Field, err error) {
	var ok bool
	if f, ok = s.fields[key]; !ok {
		err = fmt.Errorf("field %s at iteration %d: %w", key, s.iteration, ErrNotFound)
	}
	return
}

func (s *MemorySnapshot) FieldKeys() (keys []FieldKey) {
	for k := range s.fields {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	return
}

func (s *MemorySnapshot) Species(name string) (sp *Species, err error) {
	var ok bool
	if sp, ok = s.species[name]; !ok {
		err = fmt.Errorf("species %s at iteration %d: %w", name, s.iteration, ErrNotFound)
	}
	return
}

func (s *MemorySnapshot) SpeciesNames() (names []string) {
	for n := range s.species {
		names = append(names, n)
	}
	sort.Strings(names)
	return
}

// MemorySeries is a Series whose snapshots are already loaded
type MemorySeries struct {
	snapshots map[Iteration]Snapshot
}

func NewMemorySeries(snaps ...Snapshot) *MemorySeries {
	ms := &MemorySeries{snapshots: make(map[Iteration]Snapshot)}
	for _, s := range snaps {
		ms.Add(s)
	}
	return ms
}

func (ms *MemorySeries) Add(s Snapshot) *MemorySeries {
	ms.snapshots[s.Iteration()] = s
	return ms
}

func (ms *MemorySeries) Iterations() (its []Iteration) {
	for it := range ms.snapshots {
		its = append(its, it)
	}
	sort.Slice(its, func(i, j int) bool { return its[i] < its[j] })
	return
}

func (ms *MemorySeries) Open(it Iteration) (s Snapshot, err error) {
	var ok bool
	if s, ok = ms.snapshots[it]; !ok {
		err = fmt.Errorf("iteration %d: %w", it, ErrNotFound)
	}
	return
}

func (ms *MemorySeries) Close() error { return nil }

// Last opens the final snapshot of a series
func Last(s Series) (snap Snapshot, err error) {
	its := s.Iterations()
	if len(its) == 0 {
		return nil, fmt.Errorf("series has no iterations: %w", ErrNotFound)
	}
	return s.Open(its[len(its)-1])
}

// InferDomain returns the cell grid shared by a set of cartesian fields, taken
// as the smallest sample count along each axis. Nodal fields carry one extra
// sample per axis.
func InferDomain(fields []*Field) (g Grid, err error) {
	if len(fields) == 0 {
		return g, fmt.Errorf("no fields to infer a domain from")
	}
	f0 := fields[0].Grid
	if g, err = NewGrid(f0.AxisLabels, f0.Cells, f0.Spacing, f0.Offset); err != nil {
		return
	}
	for _, f := range fields[1:] {
		if f.Grid.NDim() != g.NDim() {
			return g, fmt.Errorf("field %s has %d axes, expected %d", f.Key, f.Grid.NDim(), g.NDim())
		}
		for i, n := range f.Grid.Cells {
			if n < g.Cells[i] {
				g.Cells[i] = n
			}
		}
	}
	return
}
