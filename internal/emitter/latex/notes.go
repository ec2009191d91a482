package latex

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"git.home.luguber.info/inful/texbuilder/internal/emitter"
)

var (
	// A note marker such as "1/" or "a/" starting a word of a source line.
	reSourceNote = regexp.MustCompile(`(?:^|\s)([0-9]+/|[a-zA-Z]+/)`)
	// Trailing note markers on a table cell: "1,234 1/" or "Total a/,b/".
	reCellNotes = regexp.MustCompile(`^(.*?)\s+([0-9]+/(?:,[0-9]+/)*|[a-zA-Z]+/(?:,[a-zA-Z]+/)*)\s*$`)
	reDecimal   = regexp.MustCompile(`^\s*-?\d+\.(\d+)\s*$`)

	numberPrinter = message.NewPrinter(language.AmericanEnglish)
)

func noteID(marker string) string {
	return "nota" + strings.Replace(marker, "/", "", 1)
}

type sourceNote struct {
	marker string
	text   string
}

// splitSource separates the main source text from its numbered or lettered notes.
func splitSource(text string) (string, []sourceNote) {
	flat := strings.Join(strings.Fields(emitter.NormalizeBreaks(text)), " ")

	var idx [][]int
	for _, m := range reSourceNote.FindAllStringSubmatchIndex(flat, -1) {
		// The marker must end the word, so "www.sener.gob.mx/datos" is not a note.
		if m[3] == len(flat) || flat[m[3]] == ' ' {
			idx = append(idx, m)
		}
	}
	if idx == nil {
		return flat, nil
	}

	main := strings.TrimSpace(flat[:idx[0][2]])
	notes := make([]sourceNote, 0, len(idx))
	for i, m := range idx {
		end := len(flat)
		if i+1 < len(idx) {
			end = idx[i+1][2]
		}
		notes = append(notes, sourceNote{
			marker: flat[m[2]:m[3]],
			text:   strings.TrimSpace(flat[m[3]:end]),
		})
	}
	return main, notes
}

// Source renders the argument of \fuente{}: the main text followed by an
// itemized list of hyper-targeted notes.
func (e *Emitter) Source(text string) string {
	main, notes := splitSource(text)

	var b strings.Builder
	if main != "" {
		b.WriteString(e.RenderInline(main, nil))
	}
	if len(notes) > 0 {
		b.WriteString("\n\n{\\fontsize{9pt}{11pt}\\selectfont\n\\begin{itemize}\n")
		for _, n := range notes {
			b.WriteString("  \\item[\\hypertarget{" + noteID(n.marker) + "}{" + Escape(n.marker) + "}] " + e.RenderInline(n.text, nil) + "\n")
		}
		b.WriteString("\\end{itemize}\n}")
	}
	return b.String()
}

// formatCell renders one table cell. Long decimals are rounded to four
// digits with grouping, trailing note markers become linked superscripts and,
// in long-table body rows, leading spaces of the first column become indentation.
func formatCell(raw string, col int, header, long bool) string {
	if raw == "" {
		return ""
	}

	if m := reDecimal.FindStringSubmatch(raw); m != nil && len(m[1]) > 4 {
		if v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil {
			return Escape(numberPrinter.Sprint(number.Decimal(v, number.MaxFractionDigits(4))))
		}
	}

	var out string
	if m := reCellNotes.FindStringSubmatch(raw); m != nil {
		color := "black"
		if header {
			color = "white"
		}
		markers := strings.Split(m[2], ",")
		links := make([]string, len(markers))
		for i, marker := range markers {
			links[i] = "\\hyperlink{" + noteID(marker) + "}{\\textcolor{" + color + "}{" + Escape(marker) + "}}"
		}
		out = Escape(m[1]) + " \\textsuperscript{" + strings.Join(links, ",") + "}"
	} else {
		out = Escape(raw)
	}

	if long && col == 0 && !header {
		spaces := len(raw) - len(strings.TrimLeft(raw, " \t"))
		if spaces == 1 {
			out = "\\quad " + strings.TrimLeft(out, " \t")
		} else if spaces > 1 {
			em := strconv.FormatFloat(float64(spaces*45)/100, 'f', -1, 64)
			out = "\\hspace{" + em + "em} " + strings.TrimLeft(out, " \t")
		}
	}
	return out
}
