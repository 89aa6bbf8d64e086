package readfiles

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/ctessum/sparse"

	"github.com/notargets/picverify/snapshot"
)

// Key of the single component of a scalar record in openPMD JSON
const openPMDScalar = "\vScalar"

const (
	defaultMeshesPath    = "fields"
	defaultParticlesPath = "particles"
)

type jsonAttribute struct {
	Datatype string          `json:"datatype"`
	Value    json.RawMessage `json:"value"`
}

type jsonAttributes map[string]jsonAttribute

func (a jsonAttributes) has(key string) bool {
	_, ok := a[key]
	return ok
}

func (a jsonAttributes) Float(key string, def float64) (v float64, err error) {
	at, ok := a[key]
	if !ok {
		return def, nil
	}
	if err = json.Unmarshal(at.Value, &v); err != nil {
		err = fmt.Errorf("attribute %s: %w", key, err)
	}
	return
}

func (a jsonAttributes) Floats(key string) (v []float64, err error) {
	at, ok := a[key]
	if !ok {
		return nil, nil
	}
	if err = json.Unmarshal(at.Value, &v); err != nil {
		var s float64
		if json.Unmarshal(at.Value, &s) == nil {
			return []float64{s}, nil
		}
		err = fmt.Errorf("attribute %s: %w", key, err)
	}
	return
}

func (a jsonAttributes) Ints(key string) (v []int, err error) {
	at, ok := a[key]
	if !ok {
		return nil, nil
	}
	if err = json.Unmarshal(at.Value, &v); err != nil {
		err = fmt.Errorf("attribute %s: %w", key, err)
	}
	return
}

func (a jsonAttributes) Strings(key string) (v []string, err error) {
	at, ok := a[key]
	if !ok {
		return nil, nil
	}
	if err = json.Unmarshal(at.Value, &v); err != nil {
		var s string
		if json.Unmarshal(at.Value, &s) == nil {
			return []string{s}, nil
		}
		err = fmt.Errorf("attribute %s: %w", key, err)
	}
	return
}

func (a jsonAttributes) String(key, def string) (v string, err error) {
	at, ok := a[key]
	if !ok {
		return def, nil
	}
	if err = json.Unmarshal(at.Value, &v); err != nil {
		err = fmt.Errorf("attribute %s: %w", key, err)
	}
	return
}

type jsonNode map[string]json.RawMessage

func parseNode(raw []byte) (n jsonNode, err error) {
	if err = json.Unmarshal(raw, &n); err != nil {
		err = fmt.Errorf("malformed openPMD JSON group: %w", err)
	}
	return
}

func (n jsonNode) attributes() (a jsonAttributes, err error) {
	raw, ok := n["attributes"]
	if !ok {
		return jsonAttributes{}, nil
	}
	if err = json.Unmarshal(raw, &a); err != nil {
		err = fmt.Errorf("malformed openPMD attributes: %w", err)
	}
	return
}

func (n jsonNode) child(name string) (c jsonNode, ok bool, err error) {
	var raw json.RawMessage
	if raw, ok = n[name]; !ok {
		return
	}
	c, err = parseNode(raw)
	return
}

// children lists the sub groups in sorted order
func (n jsonNode) children() (names []string) {
	for k := range n {
		switch k {
		case "attributes", "data", "datatype":
			continue
		}
		names = append(names, k)
	}
	sort.Strings(names)
	return
}

// isComponent is true for groups that hold data or a constant value
func (n jsonNode) isComponent() (bool, error) {
	if _, ok := n["data"]; ok {
		return true, nil
	}
	a, err := n.attributes()
	if err != nil {
		return false, err
	}
	return a.has("value") && a.has("shape"), nil
}

// decodeComponent returns the SI values of a record component and its shape
func decodeComponent(n jsonNode) (data []float64, shape []int, attrs jsonAttributes, err error) {
	var (
		unitSI float64
	)
	if attrs, err = n.attributes(); err != nil {
		return
	}
	if unitSI, err = attrs.Float("unitSI", 1); err != nil {
		return
	}
	if raw, ok := n["data"]; ok {
		var v any
		if err = json.Unmarshal(raw, &v); err != nil {
			err = fmt.Errorf("malformed record data: %w", err)
			return
		}
		if data, shape, err = flattenArray(v); err != nil {
			return
		}
	} else {
		var value float64
		if value, err = attrs.Float("value", 0); err != nil {
			return
		}
		if shape, err = attrs.Ints("shape"); err != nil {
			return
		}
		n := 1
		for _, l := range shape {
			n *= l
		}
		data = make([]float64, n)
		for i := range data {
			data[i] = value
		}
	}
	if unitSI != 1 {
		for i := range data {
			data[i] *= unitSI
		}
	}
	return
}

// flattenArray converts nested JSON arrays into C ordered values and a shape,
// null entries become NaN.
func flattenArray(v any) (data []float64, shape []int, err error) {
	switch a := v.(type) {
	case float64:
		return []float64{a}, nil, nil
	case nil:
		return []float64{math.NaN()}, nil, nil
	case []any:
		var inner []int
		for i, e := range a {
			d, s, err := flattenArray(e)
			if err != nil {
				return nil, nil, err
			}
			if i == 0 {
				inner = s
			} else if !equalInts(s, inner) {
				return nil, nil, fmt.Errorf("ragged array: element %d has shape %v, expected %v", i, s, inner)
			}
			data = append(data, d...)
		}
		shape = append([]int{len(a)}, inner...)
		return
	default:
		return nil, nil, fmt.Errorf("unexpected value %v of type %T in record data", v, v)
	}
}

func equalInts(a, b []int) bool {
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

// openPMDDocument is one parsed openPMD JSON file
type openPMDDocument struct {
	root          jsonNode
	data          jsonNode
	meshesPath    string
	particlesPath string
}

func parseOpenPMDDocument(b []byte) (doc *openPMDDocument, err error) {
	var (
		attrs jsonAttributes
		ok    bool
	)
	doc = &openPMDDocument{}
	if doc.root, err = parseNode(b); err != nil {
		return nil, err
	}
	if attrs, err = doc.root.attributes(); err != nil {
		return nil, err
	}
	if doc.meshesPath, err = attrs.String("meshesPath", defaultMeshesPath); err != nil {
		return nil, err
	}
	if doc.particlesPath, err = attrs.String("particlesPath", defaultParticlesPath); err != nil {
		return nil, err
	}
	doc.meshesPath = strings.Trim(doc.meshesPath, "/")
	doc.particlesPath = strings.Trim(doc.particlesPath, "/")
	if doc.data, ok, err = doc.root.child("data"); err != nil {
		return nil, err
	} else if !ok {
		return nil, fmt.Errorf("openPMD JSON has no data group")
	}
	return
}

func (doc *openPMDDocument) Iterations() (its []snapshot.Iteration, err error) {
	for _, key := range doc.data.children() {
		var it int
		if it, err = strconv.Atoi(key); err != nil {
			return nil, fmt.Errorf("iteration key %q is not an integer", key)
		}
		its = append(its, snapshot.Iteration(it))
	}
	sort.Slice(its, func(i, j int) bool { return its[i] < its[j] })
	return
}

func (doc *openPMDDocument) Snapshot(it snapshot.Iteration) (snap snapshot.Snapshot, err error) {
	var (
		node jsonNode
		ok   bool
	)
	if node, ok, err = doc.data.child(strconv.Itoa(int(it))); err != nil {
		return
	} else if !ok {
		return nil, fmt.Errorf("iteration %d: %w", it, snapshot.ErrNotFound)
	}
	ms, err := doc.decodeIteration(it, node)
	if err != nil {
		return nil, fmt.Errorf("iteration %d: %w", it, err)
	}
	return ms, nil
}

func (doc *openPMDDocument) decodeIteration(it snapshot.Iteration, node jsonNode) (snap *snapshot.MemorySnapshot, err error) {
	var (
		attrs            jsonAttributes
		time, timeUnitSI float64
		fields           []*snapshot.Field
		geom             = snapshot.Cartesian
		domain           snapshot.Grid
		meshes, parts    jsonNode
		ok               bool
	)
	if attrs, err = node.attributes(); err != nil {
		return
	}
	if time, err = attrs.Float("time", 0); err != nil {
		return
	}
	if timeUnitSI, err = attrs.Float("timeUnitSI", 1); err != nil {
		return
	}
	if meshes, ok, err = node.child(doc.meshesPath); err != nil {
		return
	} else if ok {
		if fields, err = decodeMeshes(meshes); err != nil {
			return
		}
	}
	if len(fields) != 0 {
		geom = fields[0].Geometry
		if domain, err = decodeDomain(attrs, fields); err != nil {
			return
		}
	}
	snap = snapshot.NewMemorySnapshot(it, time*timeUnitSI, geom, domain)
	for _, f := range fields {
		snap.AddField(f)
	}
	if parts, ok, err = node.child(doc.particlesPath); err != nil {
		return
	} else if ok {
		for _, name := range parts.children() {
			var (
				spNode jsonNode
				sp     *snapshot.Species
			)
			if spNode, _, err = parts.child(name); err != nil {
				return
			}
			if sp, err = decodeSpecies(name, spNode); err != nil {
				return
			}
			snap.AddSpecies(sp)
		}
	}
	return
}

// decodeDomain uses the baseGridCells iteration attribute when present
func decodeDomain(attrs jsonAttributes, fields []*snapshot.Field) (domain snapshot.Grid, err error) {
	var (
		cells []int
	)
	if cells, err = attrs.Ints("baseGridCells"); err != nil {
		return
	}
	return inferDomain(fields, cells)
}

func decodeMeshes(meshes jsonNode) (fields []*snapshot.Field, err error) {
	for _, record := range meshes.children() {
		var (
			rNode, cNode jsonNode
			rAttrs       jsonAttributes
			comps        = map[string]jsonNode{}
			isComp, ok   bool
		)
		if rNode, _, err = meshes.child(record); err != nil {
			return
		}
		if rAttrs, err = rNode.attributes(); err != nil {
			return
		}
		if cNode, ok, err = rNode.child(openPMDScalar); err != nil {
			return
		} else if ok {
			comps[""] = cNode
		} else if isComp, err = rNode.isComponent(); err != nil {
			return
		} else if isComp {
			comps[""] = rNode
		} else {
			for _, c := range rNode.children() {
				if comps[c], _, err = rNode.child(c); err != nil {
					return
				}
			}
		}
		var names []string
		for c := range comps {
			names = append(names, c)
		}
		sort.Strings(names)
		for _, c := range names {
			var f *snapshot.Field
			if f, err = decodeMeshComponent(snapshot.NewFieldKey(record, c), rAttrs, comps[c]); err != nil {
				return nil, fmt.Errorf("mesh %s%s: %w", record, c, err)
			}
			fields = append(fields, f)
		}
	}
	return
}

func decodeMeshComponent(key snapshot.FieldKey, rAttrs jsonAttributes, n jsonNode) (f *snapshot.Field, err error) {
	var (
		data            []float64
		shape           []int
		cAttrs          jsonAttributes
		geomLabel       string
		geom            snapshot.Geometry
		labels          []string
		spacing, offset []float64
		gridUnitSI      float64
		grid            snapshot.Grid
		position        []float64
	)
	if data, shape, cAttrs, err = decodeComponent(n); err != nil {
		return
	}
	if geomLabel, err = rAttrs.String("geometry", "cartesian"); err != nil {
		return
	}
	if geom, err = snapshot.NewGeometry(geomLabel); err != nil {
		return
	}
	if labels, err = rAttrs.Strings("axisLabels"); err != nil {
		return
	}
	if spacing, err = rAttrs.Floats("gridSpacing"); err != nil {
		return
	}
	if offset, err = rAttrs.Floats("gridGlobalOffset"); err != nil {
		return
	}
	if gridUnitSI, err = rAttrs.Float("gridUnitSI", 1); err != nil {
		return
	}
	cells := shape
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
	for i := range spacing {
		spacing[i] *= gridUnitSI
	}
	for i := range offset {
		offset[i] *= gridUnitSI
	}
	if grid, err = snapshot.NewGrid(labels, cells, spacing, offset); err != nil {
		return
	}
	arr := sparse.ZerosDense(shape...)
	copy(arr.Elements, data)
	if f, err = snapshot.NewField(key, geom, grid, arr); err != nil {
		return
	}
	if position, err = cAttrs.Floats("position"); err != nil {
		return
	}
	if position == nil {
		if position, err = rAttrs.Floats("position"); err != nil {
			return
		}
	}
	f.Position = position
	return
}

func decodeSpecies(name string, n jsonNode) (sp *snapshot.Species, err error) {
	var (
		mom, wNode jsonNode
		hasMom     bool
		hasW       bool
		p          [3][]float64
		w          []float64
	)
	if wNode, hasW, err = n.child("weighting"); err != nil {
		return
	}
	if hasW {
		if c, ok, _ := wNode.child(openPMDScalar); ok {
			wNode = c
		}
		if w, _, _, err = decodeComponent(wNode); err != nil {
			return nil, fmt.Errorf("species %s weighting: %w", name, err)
		}
	}
	if mom, hasMom, err = n.child("momentum"); err != nil {
		return
	}
	if !hasMom {
		if len(w) != 0 {
			return nil, fmt.Errorf("species %s has %d particles but no momentum", name, len(w))
		}
		return snapshot.NewSpecies(name, nil, nil, nil, nil)
	}
	for i, c := range []string{"x", "y", "z"} {
		var (
			cNode jsonNode
			ok    bool
		)
		if cNode, ok, err = mom.child(c); err != nil {
			return
		} else if !ok {
			return nil, fmt.Errorf("species %s momentum has no %s component", name, c)
		}
		if p[i], _, _, err = decodeComponent(cNode); err != nil {
			return nil, fmt.Errorf("species %s momentum/%s: %w", name, c, err)
		}
	}
	if sp, err = snapshot.NewSpecies(name, p[0], p[1], p[2], w); err != nil {
		return
	}
	err = unweightMomentum(sp, mom)
	return
}

// unweightMomentum converts macroparticle momenta to per particle momenta
// when the record is flagged macroWeighted.
func unweightMomentum(sp *snapshot.Species, mom jsonNode) (err error) {
	var (
		attrs              jsonAttributes
		macroWeighted, pow float64
	)
	if attrs, err = mom.attributes(); err != nil {
		return
	}
	if macroWeighted, err = attrs.Float("macroWeighted", 0); err != nil {
		return
	}
	if macroWeighted == 0 {
		return
	}
	if pow, err = attrs.Float("weightingPower", 1); err != nil {
		return
	}
	for i, w := range sp.Weight {
		scale := math.Pow(w, pow)
		if scale == 0 {
			continue
		}
		for k := 0; k < 3; k++ {
			sp.Momentum[k][i] /= scale
		}
	}
	return
}

func defaultAxisLabels(nd int) []string {
	switch nd {
	case 1:
		return []string{"z"}
	case 2:
		return []string{"x", "z"}
	case 3:
		return []string{"x", "y", "z"}
	}
	labels := make([]string, nd)
	for i := range labels {
		labels[i] = fmt.Sprintf("axis%d", i)
	}
	return labels
}
