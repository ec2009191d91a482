package latex

import (
	"regexp"
	"strings"

	"git.home.luguber.info/inful/texbuilder/internal/emitter"
	"git.home.luguber.info/inful/texbuilder/internal/refs"
)

// escapedPar matches a literal "\par" word after escaping, written by
// authors to force a paragraph break. "\parametros" is left alone.
var escapedPar = regexp.MustCompile(`\\textbackslash\{\}par\b`)

var quoteStraightener = strings.NewReplacer("“", `"`, "”", `"`, "„", `"`, "‘", "'", "’", "'")

// RenderInline escapes text and translates inline tags: math delimiters,
// [[ecuacion:]], [[math:]], [[cita:]], [[figura:]], [[tabla:]],
// [[recuadro:T]]...[[/recuadro]], [[nota:]], [[destacado:]], [[dorado:]]
// and [[guinda:]].
func (e *Emitter) RenderInline(text string, lookup refs.Lookup) string {
	p := &emitter.Protector{}
	return p.Restore(e.render(text, lookup, p))
}

// render does the work of RenderInline but leaves placeholders in place.
// Nested tag bodies share p so every placeholder is restored once, at the top.
func (e *Emitter) render(text string, lookup refs.Lookup, p *emitter.Protector) string {
	s := emitter.NormalizeBreaks(text)
	if s == "" {
		return ""
	}

	s = emitter.ReplaceGroups(emitter.TagDisplayMath, s, func(g []string) string { return p.Keep("$$" + g[1] + "$$") })
	s = emitter.ReplaceGroups(emitter.TagInlineMath, s, func(g []string) string { return p.Keep("$" + g[1] + "$") })
	s = emitter.ReplaceGroups(emitter.TagParenMath, s, func(g []string) string { return p.Keep(`\(` + g[1] + `\)`) })
	s = emitter.ReplaceGroups(emitter.TagBracketMath, s, func(g []string) string { return p.Keep(`\[` + g[1] + `\]`) })
	s = emitter.ReplaceGroups(emitter.TagEquation, s, func(g []string) string {
		return p.Keep("\\begin{equation}\n" + strings.TrimSpace(g[1]) + "\n\\end{equation}")
	})
	s = emitter.ReplaceGroups(emitter.TagMath, s, func(g []string) string { return p.Keep("$" + strings.TrimSpace(g[1]) + "$") })

	s = emitter.ReplaceGroups(emitter.TagCite, s, func(g []string) string { return p.Keep(`\cite{` + strings.TrimSpace(g[1]) + `}`) })

	s = emitter.ReplaceGroups(refs.InlinePattern, s, func(g []string) string {
		return p.Keep(e.crossReference(g[1], g[2], lookup))
	})

	s = emitter.ReplaceGroups(emitter.TagFrame, s, func(g []string) string {
		title := strings.TrimSpace(g[1])
		arg := ""
		if title != "" {
			arg = "{" + Escape(title) + "}"
		}
		return p.Keep(`\begin{recuadro}` + arg + "\n" + e.render(g[2], lookup, p) + "\n\\end{recuadro}")
	})

	s = emitter.ReplaceGroups(emitter.TagNote, s, func(g []string) string {
		return p.Keep(`\footnote{` + Escape(emitter.NormalizeBreaks(g[1])) + `}`)
	})
	s = emitter.ReplaceGroups(emitter.TagHighlight, s, func(g []string) string {
		return p.Keep("\\begin{destacado}\n" + e.render(g[1], lookup, p) + "\n\\end{destacado}")
	})
	s = emitter.ReplaceGroups(emitter.TagGold, s, func(g []string) string {
		return p.Keep(`\textbf{\textcolor{gobmxDorado}{` + Escape(g[1]) + `}}`)
	})
	s = emitter.ReplaceGroups(emitter.TagMaroon, s, func(g []string) string {
		return p.Keep(`\textbf{\textcolor{gobmxGuinda}{` + Escape(g[1]) + `}}`)
	})

	s = Escape(s)
	s = quoteStraightener.Replace(s)
	return escapedPar.ReplaceAllString(s, "\n\n")
}

// crossReference renders an inline [[figura:ID]] or [[tabla:ID]].
func (e *Emitter) crossReference(word, rawID string, lookup refs.Lookup) string {
	kind, _ := refs.ParseKind(word)
	id := strings.TrimSpace(rawID)
	if lookup != nil {
		if m, ok := lookup.Lookup(kind, id); ok {
			text := kind.Label() + " " + Escape(m.ID)
			if m.Caption != "" {
				text += ` \textemdash{} ` + Escape(m.Caption)
			}
			return `\hyperref[` + labelPrefix(kind) + m.ID + `]{` + text + `}`
		}
	}
	return `\textbf{` + kind.Label() + " " + Escape(id) + `}`
}

func labelPrefix(kind refs.Kind) string {
	if kind == refs.KindTable {
		return "tab:"
	}
	return "fig:"
}
