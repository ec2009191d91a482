package markdown

import (
	"net/url"
	"strings"

	"git.home.luguber.info/inful/texbuilder/internal/refs"
)

func anchorTag(kind refs.Kind, id string) string {
	if id == "" {
		return ""
	}
	return `<a id="` + anchor(kind, id) + `"></a>` + "\n\n"
}

// destination percent-encodes each segment of an image path, so nothing in
// it can end the link or open a tag.
func destination(path string) string {
	segs := strings.Split(strings.ReplaceAll(path, `\`, "/"), "/")
	for i, seg := range segs {
		segs[i] = url.PathEscape(seg)
	}
	return strings.Join(segs, "/")
}

func caption(kind refs.Kind, m refs.Meta) string {
	label := kind.Label()
	if m.ID != "" {
		label += " " + Escape(m.ID)
	}
	if m.Caption != "" {
		label += ": " + Escape(m.Caption)
	}
	return label
}

func (e *Emitter) source(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	return "*Fuente: " + e.RenderInline(text, nil) + "*\n\n"
}

func (e *Emitter) Figure(m refs.Meta) string {
	if m.Figure == nil {
		return ""
	}
	f := m.Figure

	var b strings.Builder
	b.WriteString(anchorTag(refs.KindFigure, m.ID))
	if path := strings.TrimSpace(f.Path); path != "" {
		alt := strings.TrimSpace(f.AltText)
		if alt == "" {
			alt = m.Caption
		}
		b.WriteString("![" + Escape(alt) + "](" + destination(path) + ")\n\n")
	}
	b.WriteString("*" + caption(refs.KindFigure, m) + "*\n\n")
	b.WriteString(e.source(f.Source))
	return b.String()
}

func (e *Emitter) Table(m refs.Meta) string {
	if m.Table == nil {
		return ""
	}
	t := m.Table

	var b strings.Builder
	b.WriteString(anchorTag(refs.KindTable, m.ID))
	b.WriteString("**" + caption(refs.KindTable, m) + "**\n\n")
	if len(t.Data) == 0 || len(t.Data[0]) == 0 {
		b.WriteString("*Sin datos cargados*\n\n")
	} else {
		b.WriteString(gfmTable(t.Data))
		b.WriteString("\n")
	}
	b.WriteString(e.source(t.Source))
	return b.String()
}

func row(cells []string, width int) string {
	out := make([]string, width)
	for i := range out {
		if i < len(cells) {
			out[i] = Escape(strings.TrimSpace(strings.ReplaceAll(cells[i], "\n", " ")))
		}
	}
	return "| " + strings.Join(out, " | ") + " |\n"
}

// gfmTable renders data as a pipe table; rows are cut or padded to the header width.
func gfmTable(data [][]string) string {
	width := len(data[0])
	var b strings.Builder
	b.WriteString(row(data[0], width))
	sep := make([]string, width)
	for i := range sep {
		sep[i] = "---"
	}
	b.WriteString("| " + strings.Join(sep, " | ") + " |\n")
	for _, r := range data[1:] {
		b.WriteString(row(r, width))
	}
	return b.String()
}
