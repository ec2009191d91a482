package sections

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"git.home.luguber.info/inful/texbuilder/internal/content"
	"git.home.luguber.info/inful/texbuilder/internal/diagnostics"
	"git.home.luguber.info/inful/texbuilder/internal/emitter"
	"git.home.luguber.info/inful/texbuilder/internal/emitter/latex"
	"git.home.luguber.info/inful/texbuilder/internal/records"
	"git.home.luguber.info/inful/texbuilder/internal/refs"
)

func newProcessor(figures []records.Figure, opts Options) (*Processor, *refs.Tracker, *diagnostics.List) {
	diags := &diagnostics.List{}
	tr := refs.NewTracker(refs.BuildIndexes(figures, nil, diags))
	out := latex.New(latex.Options{})
	return NewProcessor(out, content.NewParser(out, tr, diags), tr, opts), tr, diags
}

func TestStripAnnexPrefix(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Anexo A. Metodología", "Metodología"},
		{"ANEXO B - Fuentes", "Fuentes"},
		{"anexo C Glosario técnico", "Glosario técnico"},
		{"anexo c minúscula", "minúscula"},
		{"Anexo b. Título", "Título"},
		{"A.1 Fuentes", "Fuentes"},
		{"B2. Supuestos", "Supuestos"},
		{"A.1.2 Detalle", "Detalle"},
		{"Anexo Metodológico", "Anexo Metodológico"},
		{"Metodología", "Metodología"},
		{"Anexo A. B. Doble", "B. Doble"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StripAnnexPrefix(tt.in), tt.in)
	}
}

func TestBackCoverLevelVariants(t *testing.T) {
	p, _, _ := newProcessor(nil, Options{})
	out := p.Process([]records.Section{
		{Order: "1", Level: "Datos finales SENER", Body: "Línea uno\nLínea dos"},
	})
	assert.Empty(t, out.Body)
	assert.Contains(t, out.BackCover, "Línea uno")
}

func TestHeadingLevel(t *testing.T) {
	tests := []struct {
		level string
		want  emitter.HeadingLevel
	}{
		{"seccion", emitter.LevelSection},
		{"anexo", emitter.LevelSection},
		{"subseccion", emitter.LevelSubsection},
		{"subanexo", emitter.LevelSubsection},
		{"subsubseccion", emitter.LevelSubsubsection},
		{"subsubanexo", emitter.LevelSubsubsection},
		{"parrafo", emitter.LevelParagraph},
		{"titulo pequeno", emitter.LevelParagraph},
		{"otro", emitter.LevelSection},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HeadingLevel(tt.level), tt.level)
	}
}

func TestProcessAnnexMode(t *testing.T) {
	p, _, _ := newProcessor(nil, Options{})
	out := p.Process([]records.Section{
		{Order: "1", Level: "Sección", Title: "A. Introducción", Body: "Texto."},
		{Order: "2", Level: "Anexo", Title: "Anexo A. Metodología"},
		{Order: "3", Level: "Subanexo", Title: "A.1 Fuentes"},
		{Order: "4", Level: "Anexo", Title: "Anexo B. Datos"},
		{Order: "5", Level: "Sección", Title: "B. Otra"},
	})

	assert.Equal(t, 1, strings.Count(out.Body, `\anexos`))
	assert.Contains(t, out.Body, "\\section{A. Introducción}\n\nTexto.\n\n\n")
	assert.Contains(t, out.Body, `\section{Metodología}`)
	assert.Contains(t, out.Body, `\subsection{Fuentes}`)
	assert.Contains(t, out.Body, `\section{Datos}`)
	assert.Contains(t, out.Body, `\section{B. Otra}`, "non-annex levels keep their prefix")
	assert.Less(t, strings.Index(out.Body, `\section{A. Introducción}`), strings.Index(out.Body, `\anexos`))
}

func TestProcessSpecialLevels(t *testing.T) {
	p, _, _ := newProcessor(nil, Options{})
	out := p.Process([]records.Section{
		{Order: "1", Level: "Portada", Title: "Diagnóstico", Body: "Estado actual"},
		{Order: "2", Level: "Portada", Title: "Estrategia", Body: "Objetivos"},
		{Order: "3", Level: "Directorio", Body: "Ana Pérez\nSecretaria\n\nLuis Gómez\nSubsecretario"},
		{Order: "4", Level: "Datos finales", Body: "Línea 1\nLínea 2\n\nLínea 3"},
		{Order: "5", Level: "Párrafo", Title: "Nota", Body: "x"},
	})

	assert.Contains(t, out.Body, "\\portadaseccion{1}{Diagnóstico}{Estado actual}")
	assert.Contains(t, out.Body, "\\portadaseccion{2}{Estrategia}{Objetivos}")
	assert.Contains(t, out.Body, "\\paragraph{Nota}")
	assert.NotContains(t, out.Body, "Ana Pérez")
	assert.Contains(t, out.Directory, "Ana Pérez")
	assert.Contains(t, out.Directory, "Subsecretario")
	assert.Equal(t, "Línea 1\\\\\nLínea 2\\\\[0.5cm]\nLínea 3", out.BackCover)
}

func TestDirectoryEntries(t *testing.T) {
	got := DirectoryEntries("Ana\nSecretaria\r\n\nLuis")
	assert.Equal(t, []emitter.DirectoryEntry{{Name: "Ana", Role: "Secretaria"}, {Name: "Luis"}}, got)
}

func TestAutoPlace(t *testing.T) {
	figs := []records.Figure{
		{Order: "1", SectionOrder: "2", Caption: "Citada", Path: "a.png"},
		{Order: "2", SectionOrder: "2", Caption: "Huérfana", Path: "b.png"},
	}

	p, tr, _ := newProcessor(figs, Options{AutoPlace: true})
	out := p.Process([]records.Section{{Order: "2", Title: "Datos", Body: "[[figura:FIG-2-1]]"}})
	assert.Equal(t, 1, strings.Count(out.Body, `\label{fig:FIG-2-1}`))
	assert.Equal(t, 1, strings.Count(out.Body, `\label{fig:FIG-2-2}`))
	assert.True(t, tr.Referenced(refs.KindFigure, "FIG-2-2"))

	p, tr, _ = newProcessor(figs, Options{})
	out = p.Process([]records.Section{{Order: "2", Title: "Datos", Body: "[[figura:FIG-2-1]]"}})
	assert.NotContains(t, out.Body, `fig:FIG-2-2`)
	assert.False(t, tr.Referenced(refs.KindFigure, "FIG-2-2"))
}
