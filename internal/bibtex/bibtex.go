// Package bibtex writes bibliography records as a BibTeX database.
package bibtex

import (
	"strings"

	"git.home.luguber.info/inful/texbuilder/internal/records"
)

// FileName is the database name the LaTeX preamble loads.
const FileName = "referencias.bib"

var valueEscaper = strings.NewReplacer(`\`, `\textbackslash{}`, `{`, `\{`, `}`, `\}`, `&`, `\&`, `%`, `\%`, `#`, `\#`, `_`, `\_`)

// Render returns one @type{key, ...} entry per record with a key, in input
// order. The type is lower-cased and defaults to misc.
func Render(entries []records.BibEntry) string {
	var b strings.Builder
	for _, e := range entries {
		key := strings.TrimSpace(e.Key)
		if key == "" {
			continue
		}
		typ := strings.ToLower(strings.TrimSpace(e.Type))
		if typ == "" {
			typ = "misc"
		}

		b.WriteString("@" + typ + "{" + key)
		for _, f := range fields(e) {
			if f.value == "" {
				continue
			}
			b.WriteString(",\n  " + f.name + " = {" + f.value + "}")
		}
		b.WriteString("\n}\n\n")
	}
	return b.String()
}

type field struct {
	name, value string
}

func fields(e records.BibEntry) []field {
	url := strings.TrimSpace(e.URL)
	return []field{
		{"author", valueEscaper.Replace(strings.TrimSpace(e.Author))},
		{"title", valueEscaper.Replace(strings.TrimSpace(e.Title))},
		{"year", valueEscaper.Replace(strings.TrimSpace(e.Year))},
		{"publisher", valueEscaper.Replace(strings.TrimSpace(e.Publisher))},
		{"url", url},
	}
}
