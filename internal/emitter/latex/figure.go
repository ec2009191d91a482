package latex

import (
	"strings"

	"git.home.luguber.info/inful/texbuilder/internal/foundation/normalization"
	"git.home.luguber.info/inful/texbuilder/internal/refs"
)

// floatLabel is the \label key of a float: its reference ID, or a label
// derived from the caption when the float has no ID.
func floatLabel(kind refs.Kind, id, caption string) string {
	if id == "" {
		id = normalization.Label(caption)
	}
	return labelPrefix(kind) + id
}

// Figure renders an indexed figure.
func (e *Emitter) Figure(m refs.Meta) string {
	if m.Figure == nil {
		return ""
	}
	f := m.Figure
	path := strings.TrimSpace(f.Path)
	alt := strings.TrimSpace(f.AltText)

	var b strings.Builder
	b.WriteString("\\Needspace{18\\baselineskip}\n")
	b.WriteString("\\begin{figure}[H]\n")
	b.WriteString("  {\\centering\n")
	if path != "" {
		graphic := "\\includegraphics[width=" + e.opts.FigureWidth + "\\textwidth]{" + path + "}"
		if alt != "" {
			b.WriteString("  % Texto alternativo para accesibilidad\n")
			b.WriteString("  \\pdftooltip{" + graphic + "}{" + Escape(alt) + "}\n")
		} else {
			b.WriteString("  " + graphic + "\n")
		}
	}
	b.WriteString("  \\par}\n")
	b.WriteString("  \\raggedright\n")
	if m.Caption != "" {
		b.WriteString("  \\caption{" + Escape(m.Caption) + "}\n")
	}
	if m.ID != "" || m.Caption != "" {
		b.WriteString("  \\label{" + floatLabel(refs.KindFigure, m.ID, m.Caption) + "}\n")
	}
	b.WriteString("\\end{figure}\n")
	b.WriteString(e.sourceBlock(f.Source))
	b.WriteString("\n")
	return b.String()
}

func (e *Emitter) sourceBlock(source string) string {
	if strings.TrimSpace(source) == "" {
		return ""
	}
	return "\\vspace{-4pt}\n\\fuente{" + e.Source(source) + "}\n"
}
