package lint

import (
	"strings"

	"git.home.luguber.info/inful/texbuilder/internal/records"
)

// field is one text cell that may carry markup.
type field struct {
	Location string
	Text     string
}

// textFields lists every field the compiler renders through the inline or
// content parser.
func textFields(set records.Set) []field {
	var out []field
	add := func(loc, text string) {
		if strings.TrimSpace(text) != "" {
			out = append(out, field{Location: loc, Text: text})
		}
	}

	d := set.Document
	add("Documentos.ResumenEjecutivo", d.ExecutiveSummary)
	add("Documentos.DatosClave", d.KeyFacts)
	add("Documentos.Agradecimientos", d.Acknowledgments)
	add("Documentos.Presentacion", d.Presentation)

	for _, s := range set.Sections {
		loc := "Secciones[" + rowKey(s.Order) + "]"
		add(loc+".Titulo", s.Title)
		add(loc+".Contenido", s.Body)
	}
	for _, f := range set.Figures {
		add("Figuras["+rowKey(f.Order)+"].Fuente", f.Source)
	}
	for _, t := range set.Tables {
		add("Tablas["+rowKey(t.Order)+"].Fuente", t.Source)
	}
	for _, g := range set.Glossary {
		add("Glosario["+g.Term+"].Definicion", g.Definition)
	}
	return out
}

func rowKey(order string) string {
	if o := strings.TrimSpace(order); o != "" {
		return o
	}
	return "?"
}

// lineOf returns the 1-based line containing byte offset pos.
func lineOf(text string, pos int) int {
	if pos > len(text) {
		pos = len(text)
	}
	return strings.Count(text[:pos], "\n") + 1
}
