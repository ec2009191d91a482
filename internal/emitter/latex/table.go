package latex

import (
	"strconv"
	"strings"

	"git.home.luguber.info/inful/texbuilder/internal/refs"
)

const longTableFirstColumnWidth = `0.34\textwidth`

// Table renders an indexed table. Small tables use tabladoradoCorto with a
// tabularx body; larger ones use xltabular inside tabladoradoLargo, split
// by rows or by columns past the configured limits.
func (e *Emitter) Table(m refs.Meta) string {
	if m.Table == nil {
		return ""
	}
	t := m.Table
	label := floatLabel(refs.KindTable, m.ID, m.Caption)
	caption := Escape(m.Caption)

	var b strings.Builder
	data := normalizeWidth(t.Data)
	switch {
	case len(data) == 0:
		b.WriteString("\\begin{tabladoradoCorto}\n")
		b.WriteString("  \\caption{" + caption + "}\n")
		b.WriteString("  \\label{" + label + "}\n")
		b.WriteString("  % Sin datos cargados\n")
		b.WriteString("\\end{tabladoradoCorto}\n")
	case len(data[0]) <= e.opts.MaxColumns && len(data)-1 <= e.opts.CompactRows:
		b.WriteString("\\begin{tabladoradoCorto}\n")
		b.WriteString("  \\caption{" + caption + "}\n")
		b.WriteString("  \\label{" + label + "}\n")
		b.WriteString(compactTable(data))
		b.WriteString("\\end{tabladoradoCorto}\n")
	default:
		b.WriteString("\\begin{tabladoradoLargo}\n")
		if len(data[0]) <= e.opts.MaxColumns {
			b.WriteString(e.splitByRows(data, caption, label))
		} else {
			b.WriteString(e.splitByColumns(data, caption, label))
		}
		b.WriteString("\\end{tabladoradoLargo}\n")
	}
	if strings.TrimSpace(t.Source) != "" {
		b.WriteString(e.sourceBlock(t.Source))
	}
	b.WriteString("\n")
	return b.String()
}

// normalizeWidth pads or cuts every row to the header width.
func normalizeWidth(data [][]string) [][]string {
	if len(data) == 0 || len(data[0]) == 0 {
		return nil
	}
	width := len(data[0])
	out := make([][]string, len(data))
	for i, row := range data {
		switch {
		case len(row) == width:
			out[i] = row
		case len(row) > width:
			out[i] = row[:width]
		default:
			padded := make([]string, width)
			copy(padded, row)
			out[i] = padded
		}
	}
	return out
}

func formatRow(row []string, header, long bool) []string {
	out := make([]string, len(row))
	for i, c := range row {
		out[i] = formatCell(c, i, header, long)
	}
	return out
}

func compactTable(data [][]string) string {
	cols := len(data[0])
	var b strings.Builder
	b.WriteString("  \\begin{tabularx}{\\textwidth}{V" + strings.Repeat("v", cols-1) + "}\n")
	b.WriteString("    \\toprule\n")
	header := formatRow(data[0], true, false)
	for i, h := range header {
		header[i] = "\\encabezadodorado{" + h + "}"
	}
	b.WriteString("    \\rowcolor{gobmxDorado} " + strings.Join(header, " & ") + " \\\\\n")
	b.WriteString("    \\midrule\n")
	for _, row := range data[1:] {
		b.WriteString("    " + strings.Join(formatRow(row, false, false), " & ") + " \\\\\n")
	}
	b.WriteString("    \\bottomrule\n")
	b.WriteString("  \\end{tabularx}\n")
	return b.String()
}

func longHeaderRow(header []string) string {
	cells := formatRow(header, true, true)
	for i, c := range cells {
		if i == 0 {
			cells[i] = "\\encabezadodorado{" + c + "}"
		} else {
			cells[i] = "\\encabezadodorado{\\SENERVHeader{" + c + "}}"
		}
	}
	return strings.Join(cells, " & ")
}

// longTable renders one xltabular part. caption is written only when non-empty.
func longTable(header []string, rows [][]string, caption, label string) string {
	cols := len(header)
	n := strconv.Itoa(cols)
	head := longHeaderRow(header)

	var b strings.Builder
	b.WriteString("  \\setlength{\\SENERLongTableFirstColWidth}{" + longTableFirstColumnWidth + "}\n")
	b.WriteString("  \\begin{xltabular}{\\textwidth}{Q" + strings.Repeat("Z", cols-1) + "}\n")
	if caption != "" {
		b.WriteString("    \\caption{" + caption + "}\\label{" + label + "}\\\\\n")
	}

	b.WriteString("    \\toprule\n")
	b.WriteString("    \\rowcolor{gobmxDorado} " + head + " \\\\\n")
	b.WriteString("    \\midrule\n")
	b.WriteString("    \\endfirsthead\n\n")

	b.WriteString("    \\multicolumn{" + n + "}{l}{\\small\\textit{Continuación...}} \\\\\n")
	b.WriteString("    \\toprule\n")
	b.WriteString("    \\rowcolor{gobmxDorado} " + head + " \\\\\n")
	b.WriteString("    \\midrule\n")
	b.WriteString("    \\endhead\n\n")

	b.WriteString("    \\midrule\n")
	b.WriteString("    \\multicolumn{" + n + "}{r}{\\small\\textit{Continúa en la siguiente página...}} \\\\\n")
	b.WriteString("    \\endfoot\n\n")

	b.WriteString("    \\bottomrule\n")
	b.WriteString("    \\endlastfoot\n\n")

	for _, row := range rows {
		b.WriteString("    " + strings.Join(formatRow(row, false, true), " & ") + " \\\\\n")
	}
	b.WriteString("  \\end{xltabular}\n")
	return b.String()
}

// splitByRows emits one long table, or several parts of RowsPerPart rows
// separated by page breaks when the body is longer.
func (e *Emitter) splitByRows(data [][]string, caption, label string) string {
	header, body := data[0], data[1:]
	if len(body) <= e.opts.RowsPerPart {
		return longTable(header, body, caption, label)
	}

	var b strings.Builder
	for start := 0; start < len(body); start += e.opts.RowsPerPart {
		end := min(start+e.opts.RowsPerPart, len(body))
		partCaption := ""
		if start == 0 {
			partCaption = caption
		}
		b.WriteString(longTable(header, body[start:end], partCaption, label))
		if end < len(body) {
			b.WriteString("\n  \\clearpage\n  {\\small\\textit{Continuación Tabla. " + caption + "}}\n\n")
		}
	}
	return b.String()
}

// splitByColumns emits parts holding the first column plus up to
// MaxColumns-1 further columns each.
func (e *Emitter) splitByColumns(data [][]string, caption, label string) string {
	width := len(data[0])
	perPart := e.opts.MaxColumns - 1

	var b strings.Builder
	for first := 1; first < width; first += perPart {
		last := min(first+perPart, width)
		cols := append([]int{0}, seq(first, last)...)

		project := func(row []string) []string {
			out := make([]string, len(cols))
			for i, c := range cols {
				out[i] = row[c]
			}
			return out
		}

		partCaption := caption
		if first > 1 {
			partCaption = ""
			b.WriteString("\n  \\clearpage\n  {\\small\\textit{Continuación Tabla. " + caption + "}}\n  \\vspace{0.15em}\n\n")
		}
		rows := make([][]string, 0, len(data)-1)
		for _, row := range data[1:] {
			rows = append(rows, project(row))
		}
		b.WriteString(longTable(project(data[0]), rows, partCaption, label))
	}
	return b.String()
}

func seq(from, to int) []int {
	out := make([]int, 0, to-from)
	for i := from; i < to; i++ {
		out = append(out, i)
	}
	return out
}
