// Package sections walks ordered sections, choosing heading levels and
// handling annex mode, section cards, the directory and the back cover.
package sections

import (
	"regexp"
	"strings"

	"git.home.luguber.info/inful/texbuilder/internal/content"
	"git.home.luguber.info/inful/texbuilder/internal/emitter"
	"git.home.luguber.info/inful/texbuilder/internal/foundation/normalization"
	"git.home.luguber.info/inful/texbuilder/internal/records"
	"git.home.luguber.info/inful/texbuilder/internal/refs"
)

// Annex title prefixes, tried in order; only the first match is removed.
// The annex letter must be followed by a separator or the end of the title.
var annexPrefixes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^anexo\s+[A-Z](?:\d+)?(?:[\.\s\-–]+|$)\s*`),
	regexp.MustCompile(`^[A-Z](?:\.?\d+)*\.?[\s\-–]+\s*`),
}

// StripAnnexPrefix removes one leading "Anexo X" or letter-number prefix.
func StripAnnexPrefix(title string) string {
	for _, re := range annexPrefixes {
		if loc := re.FindStringIndex(title); loc != nil {
			return strings.TrimSpace(title[loc[1]:])
		}
	}
	return title
}

// Output is the result of processing all sections.
type Output struct {
	Body      string
	Directory string
	BackCover string
}

// Options tune section processing.
type Options struct {
	// AutoPlace appends figures and tables owned by a section but never
	// referenced by the time its body is parsed.
	AutoPlace bool
}

// Processor renders sections. It holds annex mode and the section card
// counter, so one Processor serves one compilation.
type Processor struct {
	out     emitter.Emitter
	parser  *content.Parser
	tracker *refs.Tracker
	opts    Options

	annexStarted bool
	cardCounter  int
}

// NewProcessor returns a processor in its initial state.
func NewProcessor(out emitter.Emitter, parser *content.Parser, tracker *refs.Tracker, opts Options) *Processor {
	return &Processor{out: out, parser: parser, tracker: tracker, opts: opts}
}

// Process renders sections, which must already be in document order.
func (p *Processor) Process(secs []records.Section) Output {
	var body strings.Builder
	var directory, backCover string

	for _, s := range secs {
		level := normalization.Fold(s.Level)
		title := strings.TrimSpace(s.Title)

		if strings.Contains(level, "anexo") && !p.annexStarted {
			body.WriteString(p.out.AnnexStart())
			p.annexStarted = true
		}

		switch {
		case level == "portada":
			p.cardCounter++
			body.WriteString(p.out.SectionCard(p.cardCounter, title, strings.TrimSpace(s.Body)))
		case level == "directorio":
			directory = p.out.Directory(DirectoryEntries(s.Body))
		case isBackCover(level):
			backCover = p.backCover(s)
		default:
			body.WriteString(p.section(s, level, title))
		}
	}

	return Output{Body: body.String(), Directory: directory, BackCover: backCover}
}

func isBackCover(level string) bool {
	return strings.Contains(level, "datos finales") || strings.Contains(level, "datosfinales") ||
		strings.Contains(level, "contraportada")
}

// HeadingLevel maps a folded level label to a heading depth.
func HeadingLevel(level string) emitter.HeadingLevel {
	switch {
	case level == "subseccion" || level == "subanexo":
		return emitter.LevelSubsection
	case level == "subsubseccion" || strings.Contains(level, "subsub"):
		return emitter.LevelSubsubsection
	case strings.Contains(level, "parrafo") || strings.Contains(level, "titulo pequeno"):
		return emitter.LevelParagraph
	}
	return emitter.LevelSection
}

func (p *Processor) section(s records.Section, level, title string) string {
	if level == "" {
		level = "seccion"
	}
	if p.annexStarted && (level == "anexo" || level == "subanexo") {
		title = StripAnnexPrefix(title)
	}

	var b strings.Builder
	b.WriteString(p.out.Heading(HeadingLevel(level), title))
	b.WriteString(p.parser.Parse(s.Body, strings.TrimSpace(s.Order)))
	if p.opts.AutoPlace && p.tracker != nil {
		b.WriteString(p.placeOwned(strings.TrimSpace(s.Order)))
	}
	b.WriteString(p.out.SectionEnd())
	return b.String()
}

// placeOwned embeds the section's figures and tables that no reference line
// has placed yet, figures first.
func (p *Processor) placeOwned(order string) string {
	var b strings.Builder
	for _, m := range p.tracker.Figures.OwnedBy(order) {
		if p.tracker.Referenced(refs.KindFigure, m.ID) {
			continue
		}
		p.tracker.Resolve(refs.KindFigure, m.ID)
		b.WriteString(p.out.Figure(m))
	}
	for _, m := range p.tracker.Tables.OwnedBy(order) {
		if p.tracker.Referenced(refs.KindTable, m.ID) {
			continue
		}
		p.tracker.Resolve(refs.KindTable, m.ID)
		b.WriteString(p.out.Table(m))
	}
	return b.String()
}
