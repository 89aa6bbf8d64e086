package readfiles

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/notargets/picverify/snapshot"
)

type Format uint8

const (
	FormatUnknown Format = iota
	FormatOpenPMDJSON
	FormatNetCDF
)

func (f Format) String() string {
	switch f {
	case FormatOpenPMDJSON:
		return "openPMD JSON"
	case FormatNetCDF:
		return "netCDF"
	}
	return "unknown"
}

func FormatOf(fileName string) Format {
	switch {
	case strings.HasSuffix(fileName, ".json"), strings.HasSuffix(fileName, ".json"+zstdExt):
		return FormatOpenPMDJSON
	case strings.HasSuffix(fileName, ".nc"):
		return FormatNetCDF
	}
	return FormatUnknown
}

var (
	iterationFileRE   = regexp.MustCompile(`(\d+)\.(json|json\.zst|nc)$`)
	iterationFormatRE = regexp.MustCompile(`%0?\d*T`)
)

/*
Open returns the series stored at path, which is one of:
  - a directory of files numbered by iteration, "diag_000050.json.zst"
  - a file name pattern with the iteration as %T, "diags/diag1/openpmd_%T.json"
  - a single openPMD JSON or netCDF file holding every iteration
*/
func Open(path string) (s snapshot.Series, err error) {
	var (
		info os.FileInfo
	)
	if iterationFormatRE.MatchString(filepath.Base(path)) {
		return openPattern(path)
	}
	if info, err = os.Stat(path); err != nil {
		return
	}
	if info.IsDir() {
		return openDirectory(path)
	}
	return openFile(path)
}

func openFile(fileName string) (s snapshot.Series, err error) {
	switch FormatOf(fileName) {
	case FormatOpenPMDJSON:
		var (
			b   []byte
			doc *openPMDDocument
		)
		if b, err = ReadMaybeCompressed(fileName); err != nil {
			return
		}
		if doc, err = parseOpenPMDDocument(b); err != nil {
			return nil, fmt.Errorf("%s: %w", fileName, err)
		}
		return newDocumentSeries(doc)
	case FormatNetCDF:
		return OpenNetCDF(fileName)
	}
	return nil, fmt.Errorf("unable to determine the format of %s", fileName)
}

func openDirectory(dir string) (s snapshot.Series, err error) {
	var (
		entries []os.DirEntry
		files   []string
		single  []string
	)
	if entries, err = os.ReadDir(dir); err != nil {
		return
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := filepath.Join(dir, e.Name())
		if iterationFileRE.MatchString(e.Name()) {
			files = append(files, name)
		} else if FormatOf(name) != FormatUnknown {
			single = append(single, name)
		}
	}
	if len(files) == 0 {
		if len(single) == 1 {
			return openFile(single[0])
		}
		return nil, fmt.Errorf("no snapshot files found in %s", dir)
	}
	return newFileSeries(files, func(fileName string) (it int, err error) {
		m := iterationFileRE.FindStringSubmatch(filepath.Base(fileName))
		return strconv.Atoi(m[1])
	})
}

func openPattern(pattern string) (s snapshot.Series, err error) {
	var (
		loc            = iterationFormatRE.FindStringIndex(pattern)
		prefix, suffix = pattern[:loc[0]], pattern[loc[1]:]
		files          []string
	)
	if files, err = filepath.Glob(prefix + "*" + suffix); err != nil {
		return
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no files match %s", pattern)
	}
	return newFileSeries(files, func(fileName string) (it int, err error) {
		num := strings.TrimSuffix(strings.TrimPrefix(fileName, prefix), suffix)
		if it, err = strconv.Atoi(num); err != nil {
			err = fmt.Errorf("file %s does not match %s: %w", fileName, pattern, err)
		}
		return
	})
}

// fileSeries holds one file per iteration, read when the iteration is opened
type fileSeries struct {
	files map[snapshot.Iteration]string
}

func newFileSeries(files []string, iterationOf func(string) (int, error)) (snapshot.Series, error) {
	fs := &fileSeries{files: make(map[snapshot.Iteration]string)}
	for _, f := range files {
		it, err := iterationOf(f)
		if err != nil {
			return nil, err
		}
		if prev, ok := fs.files[snapshot.Iteration(it)]; ok {
			return nil, fmt.Errorf("iteration %d is stored in both %s and %s", it, prev, f)
		}
		fs.files[snapshot.Iteration(it)] = f
	}
	return fs, nil
}

func (fs *fileSeries) Iterations() (its []snapshot.Iteration) {
	for it := range fs.files {
		its = append(its, it)
	}
	sort.Slice(its, func(i, j int) bool { return its[i] < its[j] })
	return
}

func (fs *fileSeries) Open(it snapshot.Iteration) (snap snapshot.Snapshot, err error) {
	var (
		fileName string
		ok       bool
		inner    snapshot.Series
	)
	if fileName, ok = fs.files[it]; !ok {
		return nil, fmt.Errorf("iteration %d: %w", it, snapshot.ErrNotFound)
	}
	if inner, err = openFile(fileName); err != nil {
		return
	}
	defer inner.Close()
	its := inner.Iterations()
	// A file written without its iteration number holds a single iteration
	if len(its) == 1 && its[0] != it {
		if snap, err = inner.Open(its[0]); err != nil {
			return
		}
		return relabel(snap, it), nil
	}
	return inner.Open(it)
}

func (fs *fileSeries) Close() error { return nil }

// documentSeries serves every iteration of one parsed openPMD JSON document
type documentSeries struct {
	doc *openPMDDocument
	its []snapshot.Iteration
}

func newDocumentSeries(doc *openPMDDocument) (snapshot.Series, error) {
	its, err := doc.Iterations()
	if err != nil {
		return nil, err
	}
	return &documentSeries{doc: doc, its: its}, nil
}

func (ds *documentSeries) Iterations() []snapshot.Iteration { return ds.its }

func (ds *documentSeries) Open(it snapshot.Iteration) (snapshot.Snapshot, error) {
	return ds.doc.Snapshot(it)
}

func (ds *documentSeries) Close() error { return nil }

type relabeled struct {
	snapshot.Snapshot
	it snapshot.Iteration
}

func (r relabeled) Iteration() snapshot.Iteration { return r.it }

func relabel(snap snapshot.Snapshot, it snapshot.Iteration) snapshot.Snapshot {
	return relabeled{Snapshot: snap, it: it}
}

// inferDomain returns the base grid of a snapshot. The cartesian E and B
// components set it when present, otherwise every cartesian field does.
// Non nil baseCells replace the inferred cell counts.
func inferDomain(fields []*snapshot.Field, baseCells []int) (domain snapshot.Grid, err error) {
	var (
		cart []*snapshot.Field
		em   []*snapshot.Field
	)
	if len(fields) == 0 {
		return domain, fmt.Errorf("no fields to infer a domain from")
	}
	for _, f := range fields {
		if f.Geometry != snapshot.Cartesian {
			continue
		}
		cart = append(cart, f)
		if f.Key.Record == "E" || f.Key.Record == "B" {
			em = append(em, f)
		}
	}
	if len(cart) == 0 {
		g := fields[0].Grid
		return snapshot.NewGrid(g.AxisLabels, g.Cells, g.Spacing, g.Offset)
	}
	if len(em) != 0 {
		cart = em
	}
	if domain, err = snapshot.InferDomain(cart); err != nil {
		return
	}
	if baseCells != nil {
		if len(baseCells) != domain.NDim() {
			return domain, fmt.Errorf("base grid cells %v do not match %d grid axes", baseCells, domain.NDim())
		}
		copy(domain.Cells, baseCells)
	}
	return
}
