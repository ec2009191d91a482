package latex

import (
	"git.home.luguber.info/inful/texbuilder/internal/emitter"
	"git.home.luguber.info/inful/texbuilder/internal/refs"
)

func (e *Emitter) ListStart() string { return "\\begin{itemize}\n" }
func (e *Emitter) ListEnd() string   { return "\\end{itemize}\n" }
func (e *Emitter) BlankLine() string { return "\n" }

func (e *Emitter) ListItem(text string, lookup refs.Lookup) string {
	return "  \\item " + e.RenderInline(text, lookup) + "\n"
}

func (e *Emitter) Line(text string, lookup refs.Lookup) string {
	return e.RenderInline(text, lookup) + "\n"
}

// WrapBlock wraps an already rendered body in the environment for kind.
func (e *Emitter) WrapBlock(kind emitter.BlockKind, title, body string) string {
	opts := ""
	if t := Escape(title); t != "" {
		opts = "[title={" + t + "}]"
	}

	var env string
	switch kind {
	case emitter.BlockExample:
		env = "ejemplo"
	case emitter.BlockBox, emitter.BlockFrame:
		env = "recuadro"
	case emitter.BlockAlert:
		env = "calloutWarning"
	case emitter.BlockInfo:
		env = "calloutTip"
	case emitter.BlockHighlight:
		env, opts = "destacado", ""
	default:
		return body
	}
	return "\\begin{" + env + "}" + opts + "\n" + body + "\\end{" + env + "}\n"
}

// Unresolved emits a comment naming a reference that could not be found.
func (e *Emitter) Unresolved(kind refs.Kind, id string) string {
	return "% Referencia a " + string(kind) + ": " + commentSafe(id) + "\n"
}
