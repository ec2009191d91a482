package markdown

import (
	"strings"

	"git.home.luguber.info/inful/texbuilder/internal/emitter"
	"git.home.luguber.info/inful/texbuilder/internal/refs"
)

// RenderInline escapes text and translates the inline tags into Markdown.
// Math is passed through for MathJax-style renderers; citations become
// pandoc-style [@key].
func (e *Emitter) RenderInline(text string, lookup refs.Lookup) string {
	p := &emitter.Protector{}
	return p.Restore(e.render(text, lookup, p))
}

// verbatim neutralizes angle brackets in math and citation keys, which pass
// through unescaped and would otherwise open raw HTML in the HTML dialect.
var verbatim = strings.NewReplacer("<", "&lt;", ">", "&gt;").Replace

func (e *Emitter) render(text string, lookup refs.Lookup, p *emitter.Protector) string {
	s := emitter.NormalizeBreaks(text)
	if s == "" {
		return ""
	}

	keep := func(g []string) string { return p.Keep(verbatim(g[0])) }
	s = emitter.ReplaceGroups(emitter.TagDisplayMath, s, keep)
	s = emitter.ReplaceGroups(emitter.TagInlineMath, s, keep)
	s = emitter.ReplaceGroups(emitter.TagParenMath, s, keep)
	s = emitter.ReplaceGroups(emitter.TagBracketMath, s, keep)
	s = emitter.ReplaceGroups(emitter.TagEquation, s, func(g []string) string {
		return p.Keep("$$" + verbatim(strings.TrimSpace(g[1])) + "$$")
	})
	s = emitter.ReplaceGroups(emitter.TagMath, s, func(g []string) string {
		return p.Keep("$" + verbatim(strings.TrimSpace(g[1])) + "$")
	})
	s = emitter.ReplaceGroups(emitter.TagCite, s, func(g []string) string {
		return p.Keep("[@" + verbatim(strings.TrimSpace(g[1])) + "]")
	})

	s = emitter.ReplaceGroups(refs.InlinePattern, s, func(g []string) string {
		kind, _ := refs.ParseKind(g[1])
		id := strings.TrimSpace(g[2])
		if lookup != nil {
			if m, ok := lookup.Lookup(kind, id); ok {
				label := kind.Label() + " " + Escape(m.ID)
				if m.Caption != "" {
					label += ": " + Escape(m.Caption)
				}
				return p.Keep("[" + label + "](#" + anchor(kind, m.ID) + ")")
			}
		}
		return p.Keep("**" + kind.Label() + " " + Escape(id) + "**")
	})

	s = emitter.ReplaceGroups(emitter.TagFrame, s, func(g []string) string {
		head := "**" + Escape(strings.TrimSpace(g[1])) + "**"
		return p.Keep(head + " " + e.render(g[2], lookup, p))
	})
	s = emitter.ReplaceGroups(emitter.TagNote, s, func(g []string) string {
		return p.Keep("(" + Escape(emitter.NormalizeBreaks(g[1])) + ")")
	})
	s = emitter.ReplaceGroups(emitter.TagHighlight, s, func(g []string) string {
		return p.Keep("**" + e.render(g[1], lookup, p) + "**")
	})
	bold := func(g []string) string { return p.Keep("**" + Escape(strings.TrimSpace(g[1])) + "**") }
	s = emitter.ReplaceGroups(emitter.TagGold, s, bold)
	s = emitter.ReplaceGroups(emitter.TagMaroon, s, bold)

	return Escape(s)
}
