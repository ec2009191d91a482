package markdown

import (
	"strings"

	"git.home.luguber.info/inful/texbuilder/internal/emitter/latex"
	"git.home.luguber.info/inful/texbuilder/internal/records"
)

// Preamble is empty: document metadata goes to the frontmatter in Finalize.
func (e *Emitter) Preamble(records.Document, bool) string { return "" }

func (e *Emitter) TitleBlock(doc records.Document) string {
	var b strings.Builder
	b.WriteString("# " + Escape(strings.TrimSpace(doc.Title)) + "\n\n")
	if s := strings.TrimSpace(doc.Subtitle); s != "" {
		b.WriteString("## " + Escape(s) + "\n\n")
	}
	var byline []string
	for _, v := range []string{doc.Author, doc.Institution, latex.FormatDate(doc.Date)} {
		if v = strings.TrimSpace(v); v != "" {
			byline = append(byline, Escape(v))
		}
	}
	if len(byline) > 0 {
		b.WriteString("*" + strings.Join(byline, " · ") + "*\n\n")
	}
	return b.String()
}

func (e *Emitter) FrontMatterPage(title, renderedBody string) string {
	return "## " + Escape(title) + "\n\n" + strings.TrimRight(renderedBody, "\n") + "\n\n"
}

func (e *Emitter) KeyFacts(title string, items []string) string {
	var b strings.Builder
	b.WriteString("## " + Escape(title) + "\n\n")
	for _, item := range items {
		b.WriteString("- " + Escape(item) + "\n")
	}
	b.WriteString("\n")
	return b.String()
}

// FloatLists is empty; Markdown has no generated list of figures.
func (e *Emitter) FloatLists(bool, bool) string { return "" }

func (e *Emitter) Glossary(entries []records.Term) string {
	var b strings.Builder
	b.WriteString("## Glosario\n\n")
	for _, t := range entries {
		b.WriteString("**" + Escape(strings.TrimSpace(t.Term)) + "**: " + Escape(strings.TrimSpace(t.Definition)) + "\n\n")
	}
	return b.String()
}

func (e *Emitter) Bibliography(entries []records.BibEntry) string {
	var b strings.Builder
	b.WriteString("## Referencias\n\n")
	for _, entry := range entries {
		var parts []string
		if a := strings.TrimSpace(entry.Author); a != "" {
			if y := strings.TrimSpace(entry.Year); y != "" {
				a += " (" + y + ")"
			}
			parts = append(parts, Escape(a))
		}
		if t := strings.TrimSpace(entry.Title); t != "" {
			parts = append(parts, "*"+Escape(t)+"*")
		}
		if p := strings.TrimSpace(entry.Publisher); p != "" {
			parts = append(parts, Escape(p))
		}
		if u := strings.TrimSpace(entry.URL); u != "" {
			parts = append(parts, autolink(u))
		}
		if len(parts) == 0 {
			parts = append(parts, Escape(entry.Key))
		}
		b.WriteString("- " + strings.Join(parts, ". ") + "\n")
	}
	b.WriteString("\n")
	return b.String()
}

func (e *Emitter) Acronyms(entries []records.Term) string {
	data := [][]string{{"Sigla", "Significado"}}
	for _, t := range entries {
		data = append(data, []string{t.Term, t.Definition})
	}
	return "## Siglas y Acrónimos\n\n" + gfmTable(data) + "\n"
}

func (e *Emitter) DirectoryPage(directory string) string {
	return "## Directorio\n\n" + directory + "\n\n"
}

func (e *Emitter) BackCoverPage(_ records.Document, backCover string) string {
	return "---\n\n" + backCover + "\n"
}

func (e *Emitter) End() string { return "" }

// autolink wraps web URLs in angle brackets; anything else stays text.
func autolink(u string) string {
	lower := strings.ToLower(u)
	if (strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")) &&
		!strings.ContainsAny(u, "<> \t\"") {
		return "<" + u + ">"
	}
	return Escape(u)
}
