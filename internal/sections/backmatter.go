package sections

import (
	"strings"

	"git.home.luguber.info/inful/texbuilder/internal/emitter"
	"git.home.luguber.info/inful/texbuilder/internal/records"
)

func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.Split(strings.ReplaceAll(text, "\r", "\n"), "\n")
}

// DirectoryEntries reads alternating name and role lines. Blank lines are
// ignored; a trailing name gets an empty role.
func DirectoryEntries(text string) []emitter.DirectoryEntry {
	var lines []string
	for _, l := range splitLines(text) {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}

	entries := make([]emitter.DirectoryEntry, 0, (len(lines)+1)/2)
	for i := 0; i < len(lines); i += 2 {
		e := emitter.DirectoryEntry{Name: lines[i]}
		if i+1 < len(lines) {
			e.Role = lines[i+1]
		}
		entries = append(entries, e)
	}
	return entries
}

// backCover joins the body lines with line breaks. A blank line becomes a
// paragraph break and suppresses the line break before it.
func (p *Processor) backCover(s records.Section) string {
	lines := splitLines(strings.TrimSpace(s.Body))
	section := strings.TrimSpace(s.Order)

	var b strings.Builder
	for i, l := range lines {
		l = strings.TrimSpace(l)
		last := i == len(lines)-1
		if l == "" {
			if !last {
				b.WriteString(p.out.ParagraphBreak())
			}
			continue
		}
		b.WriteString(p.parser.Inline(l, section))
		if !last && strings.TrimSpace(lines[i+1]) != "" {
			b.WriteString(p.out.LineBreak())
		}
	}
	return b.String()
}
