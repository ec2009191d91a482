package lint

import (
	"fmt"
	"strings"

	"git.home.luguber.info/inful/texbuilder/internal/foundation/normalization"
	"git.home.luguber.info/inful/texbuilder/internal/records"
	"git.home.luguber.info/inful/texbuilder/internal/refs"
)

// StructureRule validates the records themselves: required document
// fields, section ordering and float ownership.
type StructureRule struct{}

// Name returns the rule identifier.
func (r *StructureRule) Name() string { return "structure" }

// Check validates set.
func (r *StructureRule) Check(set records.Set, ctx *Context) []Issue {
	var issues []Issue
	issues = append(issues, checkDocument(set.Document)...)
	issues = append(issues, checkSectionOrders(set.Sections)...)
	issues = append(issues, checkOwnership(ctx)...)
	issues = append(issues, checkUnreferenced(set, ctx)...)
	return issues
}

func checkDocument(d records.Document) []Issue {
	var issues []Issue
	if strings.TrimSpace(d.ID) == "" {
		issues = append(issues, Issue{
			Location: "Documentos.ID",
			Severity: SeverityError,
			Rule:     "document-required",
			Message:  "El documento no tiene ID.",
			Fix:      "Completa la columna ID en la hoja Documentos",
		})
	}
	if strings.TrimSpace(d.Title) == "" {
		issues = append(issues, Issue{
			Location: "Documentos.Titulo",
			Severity: SeverityError,
			Rule:     "document-required",
			Message:  "El documento no tiene título.",
			Fix:      "Completa la columna Titulo en la hoja Documentos",
		})
	}
	return issues
}

// checkSectionOrders flags missing orders and duplicated ones. Section cards
// (portada) share the order of the part they open and are exempt.
func checkSectionOrders(sections []records.Section) []Issue {
	var issues []Issue
	seen := make(map[float64]string)
	for _, s := range sections {
		order := strings.TrimSpace(s.Order)
		if order == "" {
			issues = append(issues, Issue{
				Location:    "Secciones[?]",
				Severity:    SeverityWarning,
				Rule:        "section-order",
				Message:     fmt.Sprintf("La sección %q no tiene orden.", s.Title),
				Explanation: "Las secciones sin orden se tratan como orden 0 y aparecen al inicio.",
			})
			continue
		}
		if normalization.Fold(s.Level) == "portada" {
			continue
		}
		v := s.OrderValue()
		if prev, dup := seen[v]; dup {
			issues = append(issues, Issue{
				Location: "Secciones[" + order + "]",
				Severity: SeverityError,
				Rule:     "section-order",
				Message:  fmt.Sprintf("Orden duplicado: %q y %q comparten el orden %s.", prev, s.Title, order),
			})
			continue
		}
		seen[v] = s.Title
	}
	return issues
}

func checkOwnership(ctx *Context) []Issue {
	var issues []Issue
	for _, kind := range []refs.Kind{refs.KindFigure, refs.KindTable} {
		for _, m := range ctx.Refs.Of(kind).All() {
			loc := sheetOf(kind) + "[" + m.ID + "]"
			if m.SectionOrder == "" {
				issues = append(issues, Issue{
					Location: loc,
					Severity: SeverityError,
					Rule:     "float-section",
					Message:  fmt.Sprintf("%s no indica la sección a la que pertenece.", m.ID),
					Fix:      "Completa la columna SeccionOrden",
				})
				continue
			}
			if !ctx.SectionOrders[records.ParseOrder(m.SectionOrder)] {
				issues = append(issues, Issue{
					Location: loc,
					Severity: SeverityError,
					Rule:     "float-section",
					Message:  fmt.Sprintf("%s apunta a la sección %s, que no existe.", m.ID, m.SectionOrder),
				})
			}
		}
	}
	return issues
}

func checkUnreferenced(set records.Set, ctx *Context) []Issue {
	used := make(map[refs.Kind]map[string]bool)
	for _, f := range textFields(set) {
		for _, ref := range refs.Scan(f.Text) {
			if m, ok := ctx.Refs.Lookup(ref.Kind, ref.ID); ok {
				if used[ref.Kind] == nil {
					used[ref.Kind] = make(map[string]bool)
				}
				used[ref.Kind][m.ID] = true
			}
		}
	}

	var issues []Issue
	for _, kind := range []refs.Kind{refs.KindFigure, refs.KindTable} {
		for _, m := range ctx.Refs.Of(kind).All() {
			if used[kind][m.ID] {
				continue
			}
			issues = append(issues, Issue{
				Location: sheetOf(kind) + "[" + m.ID + "]",
				Severity: SeverityWarning,
				Rule:     "float-unreferenced",
				Message:  fmt.Sprintf("%s no se referencia en ningún texto.", m.ID),
				Fix:      fmt.Sprintf("Agrega [[%s:%s]] en el contenido de la sección", kind, m.ID),
			})
		}
	}
	return issues
}
