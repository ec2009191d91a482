// Package compiler assembles a complete document from records: preamble,
// front matter, float lists, sections, glossary, bibliography, acronyms,
// directory and back cover.
package compiler

import (
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"git.home.luguber.info/inful/texbuilder/internal/content"
	"git.home.luguber.info/inful/texbuilder/internal/diagnostics"
	"git.home.luguber.info/inful/texbuilder/internal/emitter"
	"git.home.luguber.info/inful/texbuilder/internal/emitter/latex"
	"git.home.luguber.info/inful/texbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/texbuilder/internal/records"
	"git.home.luguber.info/inful/texbuilder/internal/refs"
	"git.home.luguber.info/inful/texbuilder/internal/sections"
)

var reKeyFactSeparator = regexp.MustCompile(`[;\n]`)

// Options select the dialect and optional behavior of one compilation.
type Options struct {
	// Emitter renders the output; a default LaTeX emitter when nil.
	Emitter emitter.Emitter
	// AutoPlace embeds owned figures and tables that are never referenced.
	AutoPlace bool
}

// Result is the compiled text plus the separately returned parts and all
// non-fatal diagnostics.
type Result struct {
	Text        string                   `json:"text"`
	Directory   string                   `json:"directory,omitempty"`
	BackCover   string                   `json:"back_cover,omitempty"`
	Diagnostics []diagnostics.Diagnostic `json:"diagnostics"`
}

// Context is the state of one compilation. It is never shared between calls.
type Context struct {
	Refs        *refs.Tracker
	Diagnostics *diagnostics.List
}

// NewContext indexes the figures and tables of set into a fresh context.
func NewContext(set records.Set) *Context {
	diags := &diagnostics.List{}
	return &Context{
		Refs:        refs.NewTracker(refs.BuildIndexes(set.Figures, set.Tables, diags)),
		Diagnostics: diags,
	}
}

// Validate checks the fields a document cannot be compiled without.
func Validate(doc records.Document) error {
	switch {
	case strings.TrimSpace(doc.ID) == "":
		return errors.InputError("document has no identifier").
			ForDocument(doc.ID).
			Field("id").
			Build()
	case strings.TrimSpace(doc.Title) == "":
		return errors.InputError("document has no title").
			ForDocument(doc.ID).
			Field("title").
			Build()
	}
	return nil
}

// Compile renders set. Only an invalid document record is an error; every
// other problem is reported in Result.Diagnostics.
func Compile(set records.Set, opts Options) (*Result, error) {
	if err := Validate(set.Document); err != nil {
		return nil, err
	}
	out := opts.Emitter
	if out == nil {
		out = latex.New(latex.Options{})
	}

	ctx := NewContext(set)
	a := &assembler{
		out:    out,
		ctx:    ctx,
		parser: content.NewParser(out, ctx.Refs, ctx.Diagnostics),
		set:    set,
	}
	text, sec := a.assemble(opts)

	if finalizer, ok := out.(emitter.Finalizer); ok {
		finalized, err := finalizer.Finalize(set.Document, text)
		if err != nil {
			return nil, errors.WrapError(err, errors.CategoryCompile, "finalize output").
				ForDocument(set.Document.ID).
				WithContext("format", out.Name()).
				Build()
		}
		text = finalized
	}

	return &Result{
		Text:        text,
		Directory:   sec.Directory,
		BackCover:   sec.BackCover,
		Diagnostics: ctx.Diagnostics.Items(),
	}, nil
}

type assembler struct {
	out    emitter.Emitter
	ctx    *Context
	parser *content.Parser
	set    records.Set
}

func (a *assembler) assemble(opts Options) (string, sections.Output) {
	doc := a.set.Document
	var b strings.Builder

	b.WriteString(a.out.Preamble(doc, len(a.set.Bibliography) > 0))
	b.WriteString(a.out.TitleBlock(doc))
	b.WriteString(a.frontMatter(doc))
	b.WriteString(a.out.FloatLists(len(a.set.Figures) > 0, len(a.set.Tables) > 0))

	secs := records.SortSections(a.set.Sections)
	if len(secs) == 0 {
		a.ctx.Diagnostics.Report(diagnostics.New(diagnostics.EmptySectionSet,
			"document has no sections", "document_id", doc.ID))
	}
	proc := sections.NewProcessor(a.out, a.parser, a.ctx.Refs, sections.Options{AutoPlace: opts.AutoPlace})
	sec := proc.Process(secs)
	b.WriteString(sec.Body)

	if glossary := sortTerms(a.set.Glossary); len(glossary) > 0 {
		b.WriteString(a.out.Glossary(glossary))
	}
	if len(a.set.Bibliography) > 0 {
		b.WriteString(a.out.Bibliography(a.set.Bibliography))
	}
	if acronyms := sortTerms(a.set.Acronyms); len(acronyms) > 0 {
		b.WriteString(a.out.Acronyms(acronyms))
	}
	if sec.Directory != "" {
		b.WriteString(a.out.DirectoryPage(sec.Directory))
	}
	if sec.BackCover != "" {
		b.WriteString(a.out.BackCoverPage(doc, sec.BackCover))
	}
	b.WriteString(a.out.End())

	a.ctx.Refs.ReportUnused(a.ctx.Diagnostics)
	return b.String(), sec
}

func (a *assembler) frontMatter(doc records.Document) string {
	var b strings.Builder
	pages := []struct {
		title, text string
	}{
		{"Agradecimientos", doc.Acknowledgments},
		{"Presentación", doc.Presentation},
		{"Resumen Ejecutivo", doc.ExecutiveSummary},
	}
	for _, page := range pages {
		if strings.TrimSpace(page.text) == "" {
			continue
		}
		b.WriteString(a.out.FrontMatterPage(page.title, a.parser.Parse(page.text, page.title)))
	}
	if facts := KeyFacts(doc.KeyFacts); len(facts) > 0 {
		b.WriteString(a.out.KeyFacts("Datos Clave", facts))
	}
	return b.String()
}

// KeyFacts splits the key facts field on semicolons and newlines.
func KeyFacts(raw string) []string {
	var out []string
	for _, part := range reKeyFactSeparator.Split(raw, -1) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// sortTerms drops incomplete entries and orders the rest with Spanish collation.
func sortTerms(in []records.Term) []records.Term {
	out := make([]records.Term, 0, len(in))
	for _, t := range in {
		if strings.TrimSpace(t.Term) != "" && strings.TrimSpace(t.Definition) != "" {
			out = append(out, t)
		}
	}
	c := collate.New(language.Spanish, collate.IgnoreCase)
	sort.SliceStable(out, func(i, j int) bool {
		return c.CompareString(strings.TrimSpace(out[i].Term), strings.TrimSpace(out[j].Term)) < 0
	})
	return out
}
