// Package loader reads workbooks (one YAML or JSON file, or a directory of
// CSV files, one per sheet) and turns their rows into compiler records.
package loader

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/texbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/texbuilder/internal/foundation/normalization"
	"git.home.luguber.info/inful/texbuilder/internal/records"
)

// Sheet is a grid of cell values, header row first.
type Sheet [][]string

// Workbook holds either named sheets or records given directly.
type Workbook struct {
	Sheets map[string]Sheet
	// Direct is set when the file carries records instead of sheets.
	Direct *records.Set
}

type workbookFile struct {
	Sheets      map[string]Sheet `yaml:"sheets"`
	records.Set `yaml:",inline"`
}

// Load reads path. A directory is read as CSV sheets; any other path is
// parsed as YAML, which also accepts JSON.
func Load(path string) (*Workbook, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFoundError("workbook not found").WithContext("path", path).Build()
		}
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "stat workbook").WithContext("path", path).Build()
	}
	if info.IsDir() {
		return loadCSVDir(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "read workbook").WithContext("path", path).Build()
	}
	return Parse(data)
}

// Parse decodes a YAML or JSON workbook.
func Parse(data []byte) (*Workbook, error) {
	var f workbookFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.WrapError(err, errors.CategoryInput, "parse workbook").Build()
	}
	if len(f.Sheets) > 0 {
		return &Workbook{Sheets: f.Sheets}, nil
	}
	set := f.Set
	return &Workbook{Direct: &set}, nil
}

func loadCSVDir(dir string) (*Workbook, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "list sheets").WithContext("path", dir).Build()
	}
	if len(matches) == 0 {
		return nil, errors.InputError("no CSV sheets in directory").WithContext("path", dir).Build()
	}

	wb := &Workbook{Sheets: make(map[string]Sheet, len(matches))}
	for _, m := range matches {
		fh, err := os.Open(m)
		if err != nil {
			return nil, errors.WrapError(err, errors.CategoryFileSystem, "open sheet").WithContext("path", m).Build()
		}
		sheet, err := ReadCSV(fh)
		_ = fh.Close()
		if err != nil {
			return nil, errors.WrapError(err, errors.CategoryInput, "parse sheet").WithContext("path", m).Build()
		}
		wb.Sheets[strings.TrimSuffix(filepath.Base(m), filepath.Ext(m))] = sheet
	}
	return wb, nil
}

// ReadCSV reads a comma separated grid. Rows may differ in length and a
// leading byte order mark is dropped.
func ReadCSV(r io.Reader) (Sheet, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) > 0 && len(rows[0]) > 0 {
		rows[0][0] = strings.TrimPrefix(rows[0][0], "\ufeff")
	}
	return Sheet(rows), nil
}

// SheetNames lists the sheet names in sorted order.
func (w *Workbook) SheetNames() []string {
	names := make([]string, 0, len(w.Sheets))
	for n := range w.Sheets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Sheet finds a sheet by name. Surrounding quotes are ignored, and the name is
// also tried with underscores and spaces swapped and then case-insensitively.
func (w *Workbook) Sheet(name string) (Sheet, bool) {
	name = strings.Trim(strings.TrimSpace(name), `'"`)
	candidates := []string{name, strings.ReplaceAll(name, "_", " "), strings.ReplaceAll(name, " ", "_")}
	for _, c := range candidates {
		if s, ok := w.Sheets[c]; ok {
			return s, true
		}
	}
	want := sheetKey(name)
	for n, s := range w.Sheets {
		if sheetKey(n) == want {
			return s, true
		}
	}
	return nil, false
}

func sheetKey(name string) string {
	return strings.ReplaceAll(normalization.Fold(name), "_", " ")
}
