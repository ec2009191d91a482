package loader

import (
	"regexp"
	"strconv"
	"strings"
)

var reA1 = regexp.MustCompile(`^([A-Za-z]{1,3})(\d{1,7})(?::([A-Za-z]{1,3})(\d{1,7}))?$`)

// Sheet limits of the workbook format; references past XFD1048576 are invalid.
const (
	maxRows    = 1048576
	maxColumns = 16384
)

// Range is a zero-based, inclusive cell rectangle.
type Range struct {
	Row0, Col0, Row1, Col1 int
}

func columnIndex(letters string) int {
	n := 0
	for _, r := range strings.ToUpper(letters) {
		n = n*26 + int(r-'A'+1)
	}
	return n - 1
}

// ParseA1 parses "B2" or "A1:E4"; "$" anchors are ignored and reversed
// corners are swapped.
func ParseA1(ref string) (Range, bool) {
	m := reA1.FindStringSubmatch(strings.ReplaceAll(strings.TrimSpace(ref), "$", ""))
	if m == nil {
		return Range{}, false
	}
	r0, err := strconv.Atoi(m[2])
	if err != nil || r0 < 1 || r0 > maxRows {
		return Range{}, false
	}
	rg := Range{Row0: r0 - 1, Col0: columnIndex(m[1])}
	rg.Row1, rg.Col1 = rg.Row0, rg.Col0
	if m[3] != "" {
		r1, err := strconv.Atoi(m[4])
		if err != nil || r1 < 1 || r1 > maxRows {
			return Range{}, false
		}
		rg.Row1, rg.Col1 = r1-1, columnIndex(m[3])
	}
	if rg.Col0 >= maxColumns || rg.Col1 >= maxColumns {
		return Range{}, false
	}
	if rg.Row1 < rg.Row0 {
		rg.Row0, rg.Row1 = rg.Row1, rg.Row0
	}
	if rg.Col1 < rg.Col0 {
		rg.Col0, rg.Col1 = rg.Col1, rg.Col0
	}
	return rg, true
}

// Slice cuts the range out of s. Cells outside the sheet read as empty and
// rows left entirely empty are dropped.
func (rg Range) Slice(s Sheet) [][]string {
	width := rg.Col1 - rg.Col0 + 1
	var out [][]string
	for r := rg.Row0; r <= rg.Row1 && r < len(s); r++ {
		row := make([]string, width)
		for c := range row {
			if col := rg.Col0 + c; col < len(s[r]) {
				row[c] = s[r][col]
			}
		}
		if !blankRow(row) {
			out = append(out, row)
		}
	}
	return out
}

// SplitDataRef splits "'Datos Tablas'!A1:E4" into sheet name and range.
// ok is false for inline CSV payloads.
func SplitDataRef(ref string) (sheet, cells string, ok bool) {
	ref = strings.TrimSpace(ref)
	sheet, cells, ok = strings.Cut(ref, "!")
	if !ok || strings.ContainsAny(sheet, "\n,") {
		return "", "", false
	}
	return strings.Trim(strings.TrimSpace(sheet), `'"`), strings.TrimSpace(cells), true
}
