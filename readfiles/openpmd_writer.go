package readfiles

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/notargets/picverify/snapshot"
)

type jsonGroup map[string]any

func newAttribute(datatype string, value any) jsonGroup {
	return jsonGroup{"datatype": datatype, "value": value}
}

// EncodeOpenPMD renders snapshots as one openPMD JSON document. Values are
// written in SI units.
func EncodeOpenPMD(snaps ...snapshot.Snapshot) (b []byte, err error) {
	encoding := "fileBased"
	if len(snaps) > 1 {
		encoding = "groupBased"
	}
	data := jsonGroup{}
	for _, snap := range snaps {
		var node jsonGroup
		if node, err = encodeIteration(snap); err != nil {
			return nil, fmt.Errorf("iteration %d: %w", snap.Iteration(), err)
		}
		data[strconv.Itoa(int(snap.Iteration()))] = node
	}
	root := jsonGroup{
		"attributes": jsonGroup{
			"openPMD":           newAttribute("STRING", "1.1.0"),
			"basePath":          newAttribute("STRING", "/data/%T/"),
			"meshesPath":        newAttribute("STRING", defaultMeshesPath+"/"),
			"particlesPath":     newAttribute("STRING", defaultParticlesPath+"/"),
			"iterationEncoding": newAttribute("STRING", encoding),
		},
		"data": data,
	}
	return json.Marshal(root)
}

// WriteOpenPMDJSON writes snapshots to fileName, zstd compressed when the name
// ends in .zst.
func WriteOpenPMDJSON(fileName string, snaps ...snapshot.Snapshot) (err error) {
	var (
		b []byte
	)
	if b, err = EncodeOpenPMD(snaps...); err != nil {
		return
	}
	return WriteMaybeCompressed(fileName, b)
}

func encodeIteration(snap snapshot.Snapshot) (node jsonGroup, err error) {
	attrs := jsonGroup{
		"time":       newAttribute("DOUBLE", snap.Time()),
		"timeUnitSI": newAttribute("DOUBLE", 1.),
	}
	if d := snap.Domain(); d.NDim() != 0 && snap.Geometry() == snapshot.Cartesian {
		attrs["baseGridCells"] = newAttribute("VEC_ULONGLONG", d.Cells)
	}
	meshes := jsonGroup{}
	for _, key := range snap.FieldKeys() {
		var f *snapshot.Field
		if f, err = snap.Field(key); err != nil {
			return
		}
		if err = checkEncodable(key.String(), f.Data.Elements); err != nil {
			return
		}
		comp := jsonGroup{
			"attributes": jsonGroup{
				"unitSI": newAttribute("DOUBLE", 1.),
			},
			"data": nestArray(f.Data.Elements, f.Data.Shape),
		}
		if f.Position != nil {
			comp["attributes"].(jsonGroup)["position"] = newAttribute("VEC_DOUBLE", f.Position)
		}
		recordAttrs := jsonGroup{
			"geometry":         newAttribute("STRING", f.Geometry.String()),
			"axisLabels":       newAttribute("VEC_STRING", f.Grid.AxisLabels),
			"gridSpacing":      newAttribute("VEC_DOUBLE", f.Grid.Spacing),
			"gridGlobalOffset": newAttribute("VEC_DOUBLE", f.Grid.Offset),
			"gridUnitSI":       newAttribute("DOUBLE", 1.),
			"dataOrder":        newAttribute("STRING", "C"),
		}
		if len(key.Component) == 0 {
			// Scalar records hold their data inline
			for k, v := range comp["attributes"].(jsonGroup) {
				recordAttrs[k] = v
			}
			meshes[key.Record] = jsonGroup{"attributes": recordAttrs, "data": comp["data"]}
			continue
		}
		record, ok := meshes[key.Record].(jsonGroup)
		if !ok {
			record = jsonGroup{"attributes": recordAttrs}
			meshes[key.Record] = record
		}
		record[key.Component] = comp
	}
	particles := jsonGroup{}
	for _, name := range snap.SpeciesNames() {
		var sp *snapshot.Species
		if sp, err = snap.Species(name); err != nil {
			return
		}
		for i, c := range []string{"x", "y", "z"} {
			if err = checkEncodable(name+" momentum "+c, sp.Momentum[i]); err != nil {
				return
			}
		}
		if err = checkEncodable(name+" weighting", sp.Weight); err != nil {
			return
		}
		mom := jsonGroup{
			"attributes": jsonGroup{
				"macroWeighted":  newAttribute("UINT", 0),
				"weightingPower": newAttribute("DOUBLE", 1.),
			},
		}
		for i, c := range []string{"x", "y", "z"} {
			mom[c] = jsonGroup{
				"attributes": jsonGroup{"unitSI": newAttribute("DOUBLE", 1.)},
				"data":       nestArray(sp.Momentum[i], []int{sp.Len()}),
			}
		}
		particles[name] = jsonGroup{
			"momentum": mom,
			"weighting": jsonGroup{
				"attributes": jsonGroup{"unitSI": newAttribute("DOUBLE", 1.)},
				"data":       nestArray(sp.Weight, []int{sp.Len()}),
			},
		}
	}
	node = jsonGroup{
		"attributes":         attrs,
		defaultMeshesPath:    meshes,
		defaultParticlesPath: particles,
	}
	return
}

// checkEncodable rejects infinite samples, which JSON cannot hold
func checkEncodable(name string, data []float64) error {
	for i, v := range data {
		if math.IsInf(v, 0) {
			return fmt.Errorf("%s: sample %d is %v, infinite values cannot be written to JSON", name, i, v)
		}
	}
	return nil
}

// nestArray is the inverse of flattenArray, NaN is written as null
func nestArray(data []float64, shape []int) any {
	if len(shape) == 0 {
		if len(data) == 0 || math.IsNaN(data[0]) {
			return nil
		}
		return data[0]
	}
	var (
		n      = shape[0]
		stride = 1
	)
	for _, l := range shape[1:] {
		stride *= l
	}
	out := make([]any, n)
	for i := 0; i < n; i++ {
		out[i] = nestArray(data[i*stride:(i+1)*stride], shape[1:])
	}
	return out
}
