package readfiles

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// Reduced diagnostics are text tables of scalar quantities, one row per
// recorded step, headed by a row of the form
//
//	#[0]step(),[1]time(s),[2]total(J),[3]E(J),[4]B(J)
const DefaultReducedSeparator = ','

var reducedColumnRE = regexp.MustCompile(`^\[(\d+)\](.*)$`)

type ReducedTable struct {
	FileName string
	Columns  []string   // names from the header row, "step()", "time(s)", ...
	Rows     [][]string // every row of the file, the header row is row 0
}

func ReadReducedTable(fileName string, sep rune) (t *ReducedTable, err error) {
	var (
		file *os.File
	)
	if file, err = os.Open(fileName); err != nil {
		return
	}
	defer file.Close()
	if t, err = ParseReducedTable(file, sep); err != nil {
		return nil, fmt.Errorf("%s: %w", fileName, err)
	}
	t.FileName = fileName
	return
}

// ParseReducedTable splits r into rows of fields. Blank lines are kept as
// rows without fields so that row numbers match line numbers.
func ParseReducedTable(r io.Reader, sep rune) (t *ReducedTable, err error) {
	var (
		scanner = bufio.NewScanner(r)
		line    int
	)
	t = &ReducedTable{}
	for scanner.Scan() {
		var (
			text = strings.TrimRight(scanner.Text(), "\r")
			row  []string
		)
		line++
		if len(strings.TrimSpace(text)) == 0 {
			t.Rows = append(t.Rows, []string{})
			continue
		}
		reader := csv.NewReader(strings.NewReader(text))
		reader.Comma = sep
		reader.FieldsPerRecord = -1
		reader.TrimLeadingSpace = sep != ' '
		if row, err = reader.Read(); err != nil {
			return nil, fmt.Errorf("malformed reduced diagnostics table at line %d: %w", line, err)
		}
		t.Rows = append(t.Rows, row)
	}
	if err = scanner.Err(); err != nil {
		return nil, err
	}
	if len(t.Rows) != 0 && len(t.Rows[0]) != 0 && strings.HasPrefix(t.Rows[0][0], "#") {
		for i, name := range t.Rows[0] {
			if i == 0 {
				name = strings.TrimPrefix(name, "#")
			}
			if m := reducedColumnRE.FindStringSubmatch(name); m != nil {
				name = m[2]
			}
			t.Columns = append(t.Columns, name)
		}
	}
	return
}

// Column returns the index of the named column, "total(J)" or "[2]total(J)"
func (t *ReducedTable) Column(name string) (col int, err error) {
	if m := reducedColumnRE.FindStringSubmatch(name); m != nil {
		name = m[2]
	}
	for i, c := range t.Columns {
		if c == name {
			return i, nil
		}
	}
	return -1, fmt.Errorf("no column %q in reduced diagnostics %s, columns are %v", name, t.FileName, t.Columns)
}

// Value parses the entry at a row and column of the file, counting the header
// as row 0 and blank lines as rows.
func (t *ReducedTable) Value(row, col int) (val float64, err error) {
	if row < 0 || row >= len(t.Rows) {
		return 0, fmt.Errorf("reduced diagnostics %s has %d rows, row %d requested", t.FileName, len(t.Rows), row)
	}
	if col < 0 || col >= len(t.Rows[row]) {
		return 0, fmt.Errorf("reduced diagnostics %s row %d has %d columns, column %d requested",
			t.FileName, row, len(t.Rows[row]), col)
	}
	s := strings.TrimSpace(t.Rows[row][col])
	if val, err = strconv.ParseFloat(s, 64); err != nil {
		err = fmt.Errorf("reduced diagnostics %s row %d column %d: %w", t.FileName, row, col, err)
	}
	return
}

// ReducedWriter appends rows to a reduced diagnostics file, writing the header
// row when the file is new or empty.
type ReducedWriter struct {
	FileName string
	Sep      rune
	Columns  []string // value columns after step and time, "total(J)"
}

func NewReducedWriter(fileName string, sep rune, columns ...string) *ReducedWriter {
	return &ReducedWriter{
		FileName: fileName,
		Sep:      sep,
		Columns:  columns,
	}
}

func (rw *ReducedWriter) header() (h []string) {
	names := append([]string{"step()", "time(s)"}, rw.Columns...)
	for i, name := range names {
		h = append(h, fmt.Sprintf("[%d]%s", i, name))
	}
	h[0] = "#" + h[0]
	return
}

func (rw *ReducedWriter) Append(step int, time float64, values ...float64) (err error) {
	var (
		file *os.File
		info os.FileInfo
	)
	if len(values) != len(rw.Columns) {
		return fmt.Errorf("%s: %d values for %d columns", rw.FileName, len(values), len(rw.Columns))
	}
	if file, err = os.OpenFile(rw.FileName, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644); err != nil {
		return
	}
	defer func() {
		err = errors.Join(err, file.Close())
	}()
	if info, err = file.Stat(); err != nil {
		return
	}
	w := csv.NewWriter(file)
	w.Comma = rw.Sep
	if info.Size() == 0 {
		if err = w.Write(rw.header()); err != nil {
			return
		}
	}
	row := []string{strconv.Itoa(step), fmt.Sprintf("%.14e", time)}
	for _, v := range values {
		row = append(row, fmt.Sprintf("%.14e", v))
	}
	if err = w.Write(row); err != nil {
		return
	}
	w.Flush()
	return w.Error()
}
