package readfiles

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"

	"github.com/notargets/picverify/snapshot"
)

/*
netCDF snapshot layout

Global attributes:
	geometry         "cartesian" or "thetaMode"
	axis_labels      comma separated, "x,y,z"
	grid_spacing     []float64, meters
	grid_offset      []float64, meters
	base_grid_cells  []int32, optional
	iteration, time  single iteration files only

An optional "iteration" dimension indexes the iterations of a file, with
"iteration" and "time" variables along it. Mesh components are variables
carrying "record" and "component" attributes plus optional "position" and
"unitSI". Particles are "<species>_momentum_x|y|z" and "<species>_weighting".
*/

const (
	ncIterationDim = "iteration"
	ncTimeVar      = "time"
)

type netcdfSeries struct {
	file    *os.File
	f       *cdf.File
	its     []snapshot.Iteration
	times   []float64
	indexed bool // variables carry a leading iteration dimension
}

// OpenNetCDF opens a netCDF classic file of one or more iterations
func OpenNetCDF(fileName string) (s snapshot.Series, err error) {
	var (
		ns = &netcdfSeries{}
	)
	if ns.file, err = os.Open(fileName); err != nil {
		return
	}
	if ns.f, err = cdf.Open(ns.file); err != nil {
		ns.file.Close()
		return nil, fmt.Errorf("unable to read netCDF file %s: %w", fileName, err)
	}
	if err = ns.readIterations(); err != nil {
		ns.file.Close()
		return nil, fmt.Errorf("%s: %w", fileName, err)
	}
	return ns, nil
}

func (ns *netcdfSeries) readIterations() (err error) {
	h := ns.f.Header
	if lengths := h.Lengths(ncIterationDim); len(lengths) != 0 {
		var its, times []float64
		ns.indexed = true
		if its, err = ns.readVariable(ncIterationDim, -1); err != nil {
			return
		}
		for _, v := range its {
			ns.its = append(ns.its, snapshot.Iteration(v))
		}
		if len(h.Lengths(ncTimeVar)) != 0 {
			if times, err = ns.readVariable(ncTimeVar, -1); err != nil {
				return
			}
		}
		ns.times = make([]float64, len(ns.its))
		copy(ns.times, times)
		return
	}
	it, _ := ncFloats(h.GetAttribute("", "iteration"))
	tm, _ := ncFloats(h.GetAttribute("", "time"))
	ns.its = []snapshot.Iteration{0}
	ns.times = []float64{0}
	if len(it) == 1 {
		ns.its[0] = snapshot.Iteration(it[0])
	}
	if len(tm) == 1 {
		ns.times[0] = tm[0]
	}
	return
}

func (ns *netcdfSeries) Iterations() (its []snapshot.Iteration) {
	its = append(its, ns.its...)
	sort.Slice(its, func(i, j int) bool { return its[i] < its[j] })
	return
}

func (ns *netcdfSeries) Close() error { return ns.file.Close() }

func (ns *netcdfSeries) Open(it snapshot.Iteration) (snap snapshot.Snapshot, err error) {
	var (
		rec = -1
	)
	for i, v := range ns.its {
		if v == it {
			rec = i
		}
	}
	if rec < 0 {
		return nil, fmt.Errorf("iteration %d: %w", it, snapshot.ErrNotFound)
	}
	ms, err := ns.readSnapshot(rec)
	if err != nil {
		return nil, fmt.Errorf("iteration %d: %w", it, err)
	}
	return ms, nil
}

func (ns *netcdfSeries) readSnapshot(rec int) (snap *snapshot.MemorySnapshot, err error) {
	var (
		h       = ns.f.Header
		geom    snapshot.Geometry
		labels  []string
		spacing []float64
		offset  []float64
		fields  []*snapshot.Field
		domain  snapshot.Grid
		species = map[string]*ncSpecies{}
	)
	if s, ok := h.GetAttribute("", "geometry").(string); ok {
		if geom, err = snapshot.NewGeometry(s); err != nil {
			return
		}
	}
	if s, ok := h.GetAttribute("", "axis_labels").(string); ok && len(s) != 0 {
		labels = strings.Split(s, ",")
	}
	spacing, _ = ncFloats(h.GetAttribute("", "grid_spacing"))
	offset, _ = ncFloats(h.GetAttribute("", "grid_offset"))

	for _, v := range h.Variables() {
		if v == ncIterationDim || v == ncTimeVar {
			continue
		}
		if name, part, ok := particleVariable(v); ok {
			var data []float64
			if data, err = ns.readVariable(v, rec); err != nil {
				return
			}
			sp, ok := species[name]
			if !ok {
				sp = &ncSpecies{}
				species[name] = sp
			}
			sp.set(part, data)
			continue
		}
		var f *snapshot.Field
		if f, err = ns.readField(v, rec, geom, labels, spacing, offset); err != nil {
			return nil, fmt.Errorf("variable %s: %w", v, err)
		}
		fields = append(fields, f)
	}
	if len(fields) != 0 {
		if domain, err = ncDomain(fields, h.GetAttribute("", "base_grid_cells")); err != nil {
			return
		}
	}
	snap = snapshot.NewMemorySnapshot(ns.its[rec], ns.times[rec], geom, domain)
	for _, f := range fields {
		snap.AddField(f)
	}
	names := make([]string, 0, len(species))
	for name := range species {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		var sp *snapshot.Species
		if sp, err = species[name].toSpecies(name); err != nil {
			return
		}
		snap.AddSpecies(sp)
	}
	return
}

func (ns *netcdfSeries) readField(v string, rec int, geom snapshot.Geometry, labels []string,
	spacing, offset []float64) (f *snapshot.Field, err error) {
	var (
		h         = ns.f.Header
		data      []float64
		shape     = ns.shape(v)
		cells     = shape
		record, _ = h.GetAttribute(v, "record").(string)
		comp, _   = h.GetAttribute(v, "component").(string)
		grid      snapshot.Grid
	)
	if len(record) == 0 {
		record = v
	}
	if data, err = ns.readVariable(v, rec); err != nil {
		return
	}
	if geom == snapshot.ThetaMode {
		if len(shape) == 0 {
			return nil, fmt.Errorf("thetaMode data without a mode axis")
		}
		cells = shape[1:]
	}
	if labels == nil {
		labels = defaultAxisLabels(len(cells))
	}
	if spacing == nil {
		spacing = make([]float64, len(cells))
		for i := range spacing {
			spacing[i] = 1
		}
	}
	if grid, err = snapshot.NewGrid(labels, cells, spacing, offset); err != nil {
		return
	}
	arr := sparse.ZerosDense(shape...)
	if len(arr.Elements) != len(data) {
		return nil, fmt.Errorf("dims are %v but array length is %d", shape, len(data))
	}
	copy(arr.Elements, data)
	if unitSI, _ := ncFloats(h.GetAttribute(v, "unitSI")); len(unitSI) == 1 {
		for i := range arr.Elements {
			arr.Elements[i] *= unitSI[0]
		}
	}
	if f, err = snapshot.NewField(snapshot.NewFieldKey(record, comp), geom, grid, arr); err != nil {
		return
	}
	f.Position, _ = ncFloats(h.GetAttribute(v, "position"))
	return
}

// shape is the variable shape without the iteration dimension
func (ns *netcdfSeries) shape(v string) []int {
	lengths := ns.f.Header.Lengths(v)
	if ns.isIndexed(v) {
		return lengths[1:]
	}
	return lengths
}

func (ns *netcdfSeries) isIndexed(v string) bool {
	dims := ns.f.Header.Dimensions(v)
	return ns.indexed && len(dims) != 0 && dims[0] == ncIterationDim && v != ncIterationDim && v != ncTimeVar
}

// readVariable reads one iteration of v, or all of it when rec < 0
func (ns *netcdfSeries) readVariable(v string, rec int) (data []float64, err error) {
	var (
		start, end []int
		n          = -1
	)
	if rec >= 0 && ns.isIndexed(v) {
		lengths := ns.f.Header.Lengths(v)
		start, end = make([]int, len(lengths)), append([]int(nil), lengths...)
		start[0], end[0] = rec, rec+1
		n = 1
		for _, l := range lengths[1:] {
			n *= l
		}
	}
	r := ns.f.Reader(v, start, end)
	buf := r.Zero(n)
	if _, err = r.Read(buf); err != nil {
		return nil, fmt.Errorf("unable to read netCDF variable %s: %w", v, err)
	}
	if data, err = ncFloats(buf); err != nil {
		err = fmt.Errorf("netCDF variable %s: %w", v, err)
	}
	return
}

func ncDomain(fields []*snapshot.Field, baseCells any) (domain snapshot.Grid, err error) {
	var (
		vals  []float64
		cells []int
	)
	if vals, err = ncFloats(baseCells); err != nil {
		return
	}
	for _, c := range vals {
		cells = append(cells, int(c))
	}
	return inferDomain(fields, cells)
}

// particleVariable splits "electrons_momentum_x" into the species and the
// record part "momentum_x".
func particleVariable(v string) (species, part string, ok bool) {
	for _, suffix := range []string{"_momentum_x", "_momentum_y", "_momentum_z", "_weighting"} {
		if strings.HasSuffix(v, suffix) {
			return strings.TrimSuffix(v, suffix), suffix[1:], true
		}
	}
	return
}

type ncSpecies struct {
	p [3][]float64
	w []float64
}

func (s *ncSpecies) set(part string, data []float64) {
	switch part {
	case "momentum_x":
		s.p[0] = data
	case "momentum_y":
		s.p[1] = data
	case "momentum_z":
		s.p[2] = data
	case "weighting":
		s.w = data
	}
}

func (s *ncSpecies) toSpecies(name string) (*snapshot.Species, error) {
	for i, c := range []string{"x", "y", "z"} {
		if s.p[i] == nil && (s.w != nil || s.p[(i+1)%3] != nil) {
			return nil, fmt.Errorf("species %s has no momentum_%s variable", name, c)
		}
	}
	return snapshot.NewSpecies(name, s.p[0], s.p[1], s.p[2], s.w)
}

// ncFloats converts the numeric types the cdf package returns to float64
func ncFloats(v any) (out []float64, err error) {
	switch a := v.(type) {
	case nil:
		return nil, nil
	case []float64:
		return append(out, a...), nil
	case []float32:
		out = make([]float64, len(a))
		for i, x := range a {
			out[i] = float64(x)
		}
	case []int32:
		out = make([]float64, len(a))
		for i, x := range a {
			out[i] = float64(x)
		}
	case []int16:
		out = make([]float64, len(a))
		for i, x := range a {
			out[i] = float64(x)
		}
	default:
		err = fmt.Errorf("unsupported netCDF value type %T", v)
	}
	return
}

// WriteNetCDF writes snapshots to a netCDF classic file. More than one
// snapshot adds an iteration dimension, which requires the variables of every
// snapshot to share their shapes.
func WriteNetCDF(fileName string, snaps ...snapshot.Snapshot) (err error) {
	var (
		w       *os.File
		f       *cdf.File
		first   snapshot.Snapshot
		indexed = len(snaps) > 1
		dims    = map[string]int{}
		vars    []ncVariable
	)
	if len(snaps) == 0 {
		return fmt.Errorf("no snapshots to write to %s", fileName)
	}
	first = snaps[0]
	if vars, err = ncVariables(snaps); err != nil {
		return
	}
	if indexed {
		dims[ncIterationDim] = len(snaps)
	}
	for _, v := range vars {
		for i, d := range v.dims {
			dims[d] = v.shape[i]
		}
	}
	dimNames := make([]string, 0, len(dims))
	for d := range dims {
		dimNames = append(dimNames, d)
	}
	sort.Strings(dimNames)
	lengths := make([]int, len(dimNames))
	for i, d := range dimNames {
		lengths[i] = dims[d]
	}
	h := cdf.NewHeader(dimNames, lengths)
	h.AddAttribute("", "geometry", first.Geometry().String())
	if d := first.Domain(); d.NDim() != 0 {
		h.AddAttribute("", "axis_labels", strings.Join(d.AxisLabels, ","))
		h.AddAttribute("", "grid_spacing", d.Spacing)
		h.AddAttribute("", "grid_offset", d.Offset)
		if first.Geometry() == snapshot.Cartesian {
			cells := make([]int32, d.NDim())
			for i, c := range d.Cells {
				cells[i] = int32(c)
			}
			h.AddAttribute("", "base_grid_cells", cells)
		}
	}
	if indexed {
		h.AddVariable(ncIterationDim, []string{ncIterationDim}, []float64{0})
		h.AddVariable(ncTimeVar, []string{ncIterationDim}, []float64{0})
	} else {
		h.AddAttribute("", "iteration", []float64{float64(first.Iteration())})
		h.AddAttribute("", "time", []float64{first.Time()})
	}
	for _, v := range vars {
		vDims := v.dims
		if indexed {
			vDims = append([]string{ncIterationDim}, v.dims...)
		}
		h.AddVariable(v.name, vDims, []float64{0})
		for k, a := range v.attrs {
			h.AddAttribute(v.name, k, a)
		}
	}
	h.Define()

	if w, err = os.Create(fileName); err != nil {
		return
	}
	defer w.Close()
	if f, err = cdf.Create(w, h); err != nil {
		return fmt.Errorf("unable to create netCDF file %s: %w", fileName, err)
	}
	if indexed {
		its, times := make([]float64, len(snaps)), make([]float64, len(snaps))
		for i, s := range snaps {
			its[i], times[i] = float64(s.Iteration()), s.Time()
		}
		if err = writeNCVariable(f, ncIterationDim, its); err != nil {
			return
		}
		if err = writeNCVariable(f, ncTimeVar, times); err != nil {
			return
		}
	}
	for _, v := range vars {
		var data []float64
		for _, s := range snaps {
			var d []float64
			if d, err = v.values(s); err != nil {
				return
			}
			data = append(data, d...)
		}
		if err = writeNCVariable(f, v.name, data); err != nil {
			return fmt.Errorf("writing variable %s to netCDF file: %w", v.name, err)
		}
	}
	return cdf.UpdateNumRecs(w)
}

type ncVariable struct {
	name   string
	dims   []string
	shape  []int
	attrs  map[string]any
	values func(s snapshot.Snapshot) ([]float64, error)
}

// ncVariables lists the variables of the first snapshot and checks the others
// against it.
func ncVariables(snaps []snapshot.Snapshot) (vars []ncVariable, err error) {
	first := snaps[0]
	for _, key := range first.FieldKeys() {
		var f *snapshot.Field
		if f, err = first.Field(key); err != nil {
			return
		}
		v := ncVariable{
			name:  key.String(),
			shape: append([]int(nil), f.Shape()...),
			attrs: map[string]any{"record": key.Record},
		}
		if len(key.Component) != 0 {
			v.attrs["component"] = key.Component
		}
		if f.Position != nil {
			v.attrs["position"] = f.Position
		}
		lead := 0
		if f.Geometry == snapshot.ThetaMode {
			v.dims = append(v.dims, fmt.Sprintf("mode_%d", v.shape[0]))
			lead = 1
		}
		for i, l := range f.Grid.AxisLabels {
			v.dims = append(v.dims, fmt.Sprintf("%s_%d", l, v.shape[i+lead]))
		}
		key := key
		v.values = func(s snapshot.Snapshot) ([]float64, error) {
			g, err := s.Field(key)
			if err != nil {
				return nil, err
			}
			if !equalInts(g.Shape(), v.shape) {
				return nil, fmt.Errorf("field %s at iteration %d has shape %v, expected %v",
					key, s.Iteration(), g.Shape(), v.shape)
			}
			return g.Data.Elements, nil
		}
		vars = append(vars, v)
	}
	for _, name := range first.SpeciesNames() {
		var sp *snapshot.Species
		if sp, err = first.Species(name); err != nil {
			return
		}
		if sp.Len() == 0 {
			// netCDF has no zero length fixed dimensions
			continue
		}
		dim := name + "_particles"
		for k, part := range []string{"momentum_x", "momentum_y", "momentum_z", "weighting"} {
			name, k := name, k
			np := sp.Len()
			vars = append(vars, ncVariable{
				name:  name + "_" + part,
				dims:  []string{dim},
				shape: []int{np},
				values: func(s snapshot.Snapshot) ([]float64, error) {
					sp, err := s.Species(name)
					if err != nil {
						return nil, err
					}
					if sp.Len() != np {
						return nil, fmt.Errorf("species %s at iteration %d has %d particles, expected %d",
							name, s.Iteration(), sp.Len(), np)
					}
					if k == 3 {
						return sp.Weight, nil
					}
					return sp.Momentum[k], nil
				},
			})
		}
	}
	return
}

func writeNCVariable(f *cdf.File, v string, data []float64) (err error) {
	end := f.Header.Lengths(v)
	start := make([]int, len(end))
	w := f.Writer(v, start, end)
	_, err = w.Write(data)
	return
}
