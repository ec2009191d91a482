package lint

import (
	"fmt"
	"strings"

	"git.home.luguber.info/inful/texbuilder/internal/foundation/normalization"
	"git.home.luguber.info/inful/texbuilder/internal/records"
	"git.home.luguber.info/inful/texbuilder/internal/refs"
)

var blockTags = map[string]bool{
	"ejemplo": true, "caja": true, "alerta": true,
	"info": true, "destacado": true, "recuadro": true,
}

var inlineTags = map[string]bool{
	"nota": true, "cita": true, "dorado": true, "guinda": true, "math": true,
	"figura": true, "tabla": true, "ecuacion": true, "destacado": true,
}

// tag is one [[...]] token.
type tag struct {
	raw      string
	from, to int
	closing  bool
	name     string
	payload  string
	hasColon bool
	// ownLine is set when the token is the only thing on its line.
	ownLine bool
}

// TagRule checks the [[...]] markup of every text field.
type TagRule struct{}

// Name returns the rule identifier.
func (r *TagRule) Name() string { return "tags" }

// Check lints the markup of every text field in set.
func (r *TagRule) Check(set records.Set, ctx *Context) []Issue {
	var issues []Issue
	for _, f := range textFields(set) {
		issues = append(issues, LintText(f.Location, f.Text, ctx)...)
	}
	return issues
}

func parseTag(text string, from, to int) tag {
	t := tag{raw: text[from:to], from: from, to: to}
	inner := strings.TrimSpace(text[from+2 : to-2])
	if rest, ok := strings.CutPrefix(inner, "/"); ok {
		t.closing = true
		t.name = normalization.Fold(rest)
		return t
	}
	name, payload, ok := strings.Cut(inner, ":")
	t.name = normalization.Fold(name)
	t.payload = payload
	t.hasColon = ok

	lineStart := strings.LastIndex(text[:from], "\n") + 1
	lineEnd := len(text)
	if i := strings.Index(text[to:], "\n"); i >= 0 {
		lineEnd = to + i
	}
	t.ownLine = strings.TrimSpace(text[lineStart:lineEnd]) == t.raw
	return t
}

// scanTags splits text into tag tokens. An opening "[[" with no "]]" after
// it ends the scan with an error issue.
func scanTags(loc, text string) ([]tag, []Issue) {
	var tags []tag
	var issues []Issue
	i := 0
	for i < len(text) {
		open := strings.Index(text[i:], "[[")
		if open < 0 {
			break
		}
		open += i
		end := strings.Index(text[open+2:], "]]")
		if end < 0 {
			issues = append(issues, Issue{
				Location: loc,
				Severity: SeverityError,
				Rule:     "tag-syntax",
				Message:  `Etiqueta sin cerrar: falta "]]".`,
				Line:     lineOf(text, open),
			})
			break
		}
		end += open + 2 + 2
		tags = append(tags, parseTag(text, open, end))
		i = end
	}
	return tags, issues
}

// LintText checks the markup of one text field. ctx may be nil, in which
// case citation keys and reference IDs are not checked against records.
func LintText(loc, text string, ctx *Context) []Issue {
	tags, issues := scanTags(loc, text)
	issue := func(t tag, sev Severity, rule, msg string) {
		issues = append(issues, Issue{Location: loc, Severity: sev, Rule: rule, Message: msg, Line: lineOf(text, t.from)})
	}

	var stack []tag
	for _, t := range tags {
		if t.closing {
			switch {
			case !blockTags[t.name]:
				issue(t, SeverityError, "block-balance",
					fmt.Sprintf(`Cierre inválido: "[[/%s]]" no corresponde a un bloque soportado.`, t.name))
			case len(stack) == 0:
				issue(t, SeverityError, "block-balance", fmt.Sprintf(`Cierre sin apertura: "[[/%s]]".`, t.name))
			case stack[len(stack)-1].name != t.name:
				issue(t, SeverityError, "block-balance",
					fmt.Sprintf(`Cierre incorrecto: se esperaba "[[/%s]]" pero se encontró "[[/%s]]".`,
						stack[len(stack)-1].name, t.name))
			default:
				stack = stack[:len(stack)-1]
			}
			continue
		}

		isBlock := blockTags[t.name]
		if t.name == "destacado" && !t.ownLine {
			isBlock = false
		}

		if isBlock {
			stack = append(stack, t)
			if (t.name == "alerta" || t.name == "info") && strings.TrimSpace(t.payload) == "" {
				issue(t, SeverityWarning, "block-title", fmt.Sprintf(`"[[%s:...]]" debería incluir un título.`, t.name))
			}
			continue
		}
		if !inlineTags[t.name] {
			issue(t, SeverityInfo, "unknown-tag", fmt.Sprintf(`Etiqueta desconocida: "%s".`, t.raw))
			continue
		}
		lintInline(t, ctx, issue)
	}

	for i := len(stack) - 1; i >= 0; i-- {
		issue(stack[i], SeverityError, "block-balance", fmt.Sprintf(`Bloque sin cerrar: falta "[[/%s]]".`, stack[i].name))
	}
	return issues
}

func lintInline(t tag, ctx *Context, issue func(tag, Severity, string, string)) {
	if !t.hasColon {
		issue(t, SeverityError, "inline-tag", fmt.Sprintf(`Etiqueta inline inválida: falta ":" en "[[%s:...]]".`, t.name))
		return
	}
	if strings.Contains(t.payload, "[[") {
		issue(t, SeverityError, "inline-tag", fmt.Sprintf(`No se permite anidar etiquetas dentro de "[[%s:...]]".`, t.name))
	}

	value := strings.TrimSpace(t.payload)
	padded := value != t.payload

	switch t.name {
	case "cita":
		if value == "" {
			issue(t, SeverityError, "inline-tag", "[[cita:CLAVE]] requiere una clave no vacía.")
		}
		if padded {
			issue(t, SeverityError, "inline-tag", "[[cita:CLAVE]] no debe tener espacios al inicio/fin.")
		}
		if value != "" && ctx != nil && len(ctx.Bibliography) > 0 && !ctx.Bibliography[value] {
			issue(t, SeverityWarning, "citation-key", fmt.Sprintf(`La cita "%s" no existe en Bibliografía del documento.`, value))
		}
	case "figura", "tabla":
		kind, _ := refs.ParseKind(t.name)
		if value == "" {
			issue(t, SeverityError, "inline-tag", fmt.Sprintf("[[%s:ID]] requiere un ID no vacío.", t.name))
		}
		if padded {
			issue(t, SeverityWarning, "inline-tag", fmt.Sprintf("[[%s:ID]] no debería incluir espacios al inicio/fin.", t.name))
		}
		if value != "" && ctx != nil {
			if idx := ctx.Refs.Of(kind); idx != nil && idx.Len() > 0 {
				if _, ok := idx.Get(value); !ok {
					issue(t, SeverityWarning, "reference-id",
						fmt.Sprintf(`La %s "%s" no existe en %s del documento.`, t.name, value, sheetOf(kind)))
				}
			}
		}
	case "math":
		if value == "" {
			issue(t, SeverityInfo, "inline-tag", "[[math:...]] está vacío.")
		}
		if strings.Contains(t.payload, "\n") {
			issue(t, SeverityWarning, "inline-tag", "[[math:...]] es inline; evita saltos de línea (usa [[ecuacion:...]]).")
		}
	case "ecuacion":
		if value == "" {
			issue(t, SeverityInfo, "inline-tag", "[[ecuacion:...]] está vacío.")
		}
	}
}

func sheetOf(kind refs.Kind) string {
	if kind == refs.KindTable {
		return "Tablas"
	}
	return "Figuras"
}
