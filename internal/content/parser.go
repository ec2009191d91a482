// Package content parses the marked-up body text of one section into
// dialect output: lists, paragraphs, styled blocks and embedded floats.
package content

import (
	"regexp"
	"strings"

	"git.home.luguber.info/inful/texbuilder/internal/diagnostics"
	"git.home.luguber.info/inful/texbuilder/internal/emitter"
	"git.home.luguber.info/inful/texbuilder/internal/refs"
)

var (
	reBlockStart = regexp.MustCompile(`(?i)^\[\[(ejemplo|caja|alerta|info|destacado|recuadro)(?::\s*(.*))?\]\]$`)
	reBlockEnd   = regexp.MustCompile(`(?i)^\[\[/(ejemplo|caja|alerta|info|destacado|recuadro)\]\]$`)
	reListItem   = regexp.MustCompile(`^[-*•]\s+(.*)$`)
	reRefLine    = regexp.MustCompile(`(?i)^\[\[(tabla|figura):([^\]]+)\]\]$`)
)

// Resolver looks references up. Resolve marks the ID as referenced.
type Resolver interface {
	refs.Lookup
	Resolve(kind refs.Kind, id string) (refs.Meta, bool)
}

// Parser renders section bodies through an emitter.Body. A Parser belongs
// to one compilation; it reports into that compilation's diagnostics.
type Parser struct {
	body emitter.Body
	refs Resolver
	rep  diagnostics.Reporter
}

// NewParser returns a parser writing through body.
func NewParser(body emitter.Body, resolver Resolver, rep diagnostics.Reporter) *Parser {
	return &Parser{body: body, refs: resolver, rep: rep}
}

type mode int

const (
	modeNormal mode = iota
	modeList
	modeBlock
)

type openBlock struct {
	kind  emitter.BlockKind
	title string
	depth int
	lines []string
}

// Parse renders text. section identifies the owning section in diagnostics.
//
// Block directives nest: inner [[type]]...[[/type]] pairs are counted and kept
// verbatim, then rendered by the recursive Parse of the block body. A block
// still open at the end of text is closed with what it accumulated.
func (p *Parser) Parse(text, section string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	lines := strings.Split(text, "\n")

	var out strings.Builder
	state := modeNormal
	var block *openBlock

	for i, line := range lines {
		trimmed := strings.TrimSpace(line)

		if state == modeBlock {
			switch {
			case reBlockStart.MatchString(trimmed):
				block.depth++
			case reBlockEnd.MatchString(trimmed):
				if block.depth == 0 {
					out.WriteString(p.wrap(block, section))
					block = nil
					state = modeNormal
					continue
				}
				block.depth--
			}
			block.lines = append(block.lines, line)
			continue
		}

		if m := reBlockStart.FindStringSubmatch(trimmed); m != nil {
			if state == modeList {
				out.WriteString(p.body.ListEnd())
			}
			kind, _ := emitter.ParseBlockKind(m[1])
			block = &openBlock{kind: kind, title: strings.TrimSpace(m[2])}
			state = modeBlock
			continue
		}

		if reBlockEnd.MatchString(trimmed) {
			p.report(diagnostics.New(diagnostics.MalformedBlock,
				"closing block directive without a matching opening",
				"section", section, "directive", trimmed))
			continue
		}

		if m := reListItem.FindStringSubmatch(trimmed); m != nil {
			if state != modeList {
				out.WriteString(p.body.ListStart())
				state = modeList
			}
			p.checkInline(m[1], section)
			out.WriteString(p.body.ListItem(m[1], p.refs))
			continue
		}

		if trimmed == "" {
			if state != modeList {
				out.WriteString(p.body.BlankLine())
			}
			continue
		}

		if state == modeList {
			// A line between items is dropped so the items stay one list.
			if itemAhead(lines[i+1:]) {
				continue
			}
			out.WriteString(p.body.ListEnd())
			state = modeNormal
		}

		if m := reRefLine.FindStringSubmatch(trimmed); m != nil {
			out.WriteString(p.float(m[1], m[2], section))
			continue
		}

		p.checkInline(trimmed, section)
		out.WriteString(p.body.Line(trimmed, p.refs))
	}

	switch state {
	case modeList:
		out.WriteString(p.body.ListEnd())
	case modeBlock:
		p.report(diagnostics.New(diagnostics.MalformedBlock,
			"block directive is never closed",
			"section", section, "block", string(block.kind)))
		out.WriteString(p.wrap(block, section))
	}
	return out.String()
}

// itemAhead reports whether the next non-blank line is a list item.
func itemAhead(lines []string) bool {
	for _, l := range lines {
		t := strings.TrimSpace(l)
		if t == "" {
			continue
		}
		return reListItem.MatchString(t)
	}
	return false
}

func (p *Parser) wrap(b *openBlock, section string) string {
	inner := p.Parse(strings.Join(b.lines, "\n"), section)
	return p.body.WrapBlock(b.kind, b.title, inner)
}

// float embeds the figure or table a reference line names, or a placeholder.
func (p *Parser) float(word, rawID, section string) string {
	kind, _ := refs.ParseKind(word)
	id := strings.TrimSpace(rawID)

	if p.refs != nil {
		if m, ok := p.refs.Resolve(kind, id); ok {
			if kind == refs.KindTable {
				return p.body.Table(m)
			}
			return p.body.Figure(m)
		}
	}

	p.report(diagnostics.New(diagnostics.UnresolvedReference,
		"no "+kind.Label()+" with this reference ID",
		"id", id, "kind", string(kind), "section", section))
	return p.body.Unresolved(kind, id)
}

// checkInline reports inline cross references that do not resolve.
func (p *Parser) checkInline(text, section string) {
	for _, r := range refs.Scan(text) {
		if p.refs != nil {
			if _, ok := p.refs.Lookup(r.Kind, r.ID); ok {
				continue
			}
		}
		p.report(diagnostics.New(diagnostics.UnresolvedReference,
			"inline reference to unknown "+r.Kind.Label(),
			"id", r.ID, "kind", string(r.Kind), "section", section))
	}
}

// Inline renders running text outside the block grammar, reporting
// unresolved inline references like Parse does.
func (p *Parser) Inline(text, section string) string {
	p.checkInline(text, section)
	return p.body.RenderInline(text, p.refs)
}

func (p *Parser) report(d diagnostics.Diagnostic) {
	if p.rep != nil {
		p.rep.Report(d)
	}
}
