// Package refs indexes figures and tables by their derived reference IDs
// and tracks which IDs a compilation has referenced.
package refs

import (
	"regexp"
	"strings"

	"git.home.luguber.info/inful/texbuilder/internal/diagnostics"
	"git.home.luguber.info/inful/texbuilder/internal/records"
)

// Kind is the reference kind as written in source text.
type Kind string

const (
	KindFigure Kind = "figura"
	KindTable  Kind = "tabla"
)

// Prefix returns the ID prefix for the kind.
func (k Kind) Prefix() string {
	if k == KindTable {
		return "TBL"
	}
	return "FIG"
}

// Label returns the human name used in rendered references.
func (k Kind) Label() string {
	if k == KindTable {
		return "Tabla"
	}
	return "Figura"
}

// ParseKind maps a tag word to a Kind.
func ParseKind(word string) (Kind, bool) {
	switch strings.ToLower(strings.TrimSpace(word)) {
	case string(KindFigure):
		return KindFigure, true
	case string(KindTable):
		return KindTable, true
	}
	return "", false
}

// Meta describes one indexed figure or table.
type Meta struct {
	ID           string
	Kind         Kind
	Caption      string
	Order        string
	SectionOrder string
	Figure       *records.Figure
	Table        *records.Table
}

// Key derives the composite reference ID. ok is false when order is empty.
func Key(kind Kind, sectionOrder, order string) (string, bool) {
	sectionOrder = strings.TrimSpace(sectionOrder)
	order = strings.TrimSpace(order)
	if order == "" {
		return "", false
	}
	if sectionOrder != "" {
		return kind.Prefix() + "-" + sectionOrder + "-" + order, true
	}
	return kind.Prefix() + "-" + order, true
}

func normalizeID(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}

// Index maps reference IDs to metadata for one kind, remembering insertion order.
type Index struct {
	kind  Kind
	byID  map[string]Meta
	order []string
}

func newIndex(kind Kind) *Index {
	return &Index{kind: kind, byID: make(map[string]Meta)}
}

func (ix *Index) put(m Meta, rep diagnostics.Reporter) {
	key := normalizeID(m.ID)
	if _, exists := ix.byID[key]; exists {
		if rep != nil {
			rep.Report(diagnostics.New(diagnostics.DuplicateReferenceID,
				"duplicate "+ix.kind.Label()+" reference ID, last record wins",
				"id", m.ID, "kind", string(ix.kind)))
		}
	} else {
		ix.order = append(ix.order, key)
	}
	ix.byID[key] = m
}

// Get looks up an ID.
func (ix *Index) Get(id string) (Meta, bool) {
	m, ok := ix.byID[normalizeID(id)]
	return m, ok
}

// Len returns the number of indexed IDs.
func (ix *Index) Len() int { return len(ix.order) }

// All returns the indexed entries in first-seen order.
func (ix *Index) All() []Meta {
	out := make([]Meta, 0, len(ix.order))
	for _, k := range ix.order {
		out = append(out, ix.byID[k])
	}
	return out
}

// OwnedBy returns the entries whose section order equals sectionOrder.
func (ix *Index) OwnedBy(sectionOrder string) []Meta {
	sectionOrder = strings.TrimSpace(sectionOrder)
	if sectionOrder == "" {
		return nil
	}
	var out []Meta
	for _, m := range ix.All() {
		if m.SectionOrder == sectionOrder {
			out = append(out, m)
		}
	}
	return out
}

// Indexes bundles the figure and table indexes.
type Indexes struct {
	Figures *Index
	Tables  *Index
}

// BuildIndexes indexes figures and tables by composite key. Records without
// an order are skipped; duplicates are reported and the last one wins.
func BuildIndexes(figures []records.Figure, tables []records.Table, rep diagnostics.Reporter) Indexes {
	ix := Indexes{Figures: newIndex(KindFigure), Tables: newIndex(KindTable)}

	for i := range figures {
		f := &figures[i]
		id, ok := Key(KindFigure, f.SectionOrder, f.Order)
		if !ok {
			continue
		}
		ix.Figures.put(Meta{
			ID:           id,
			Kind:         KindFigure,
			Caption:      strings.TrimSpace(f.Caption),
			Order:        strings.TrimSpace(f.Order),
			SectionOrder: strings.TrimSpace(f.SectionOrder),
			Figure:       f,
		}, rep)
	}

	for i := range tables {
		t := &tables[i]
		id, ok := Key(KindTable, t.SectionOrder, t.Order)
		if !ok {
			continue
		}
		ix.Tables.put(Meta{
			ID:           id,
			Kind:         KindTable,
			Caption:      strings.TrimSpace(t.Title),
			Order:        strings.TrimSpace(t.Order),
			SectionOrder: strings.TrimSpace(t.SectionOrder),
			Table:        t,
		}, rep)
	}

	return ix
}

// Of returns the index for kind.
func (ix Indexes) Of(kind Kind) *Index {
	if kind == KindTable {
		return ix.Tables
	}
	return ix.Figures
}

// Lookup is a pure lookup that does not mark the ID as referenced.
func (ix Indexes) Lookup(kind Kind, id string) (Meta, bool) {
	idx := ix.Of(kind)
	if idx == nil {
		return Meta{}, false
	}
	return idx.Get(id)
}

// Lookup resolves IDs without side effects. Renderers receive it for inline
// cross references.
type Lookup interface {
	Lookup(kind Kind, id string) (Meta, bool)
}

// InlinePattern matches inline figure and table references anywhere in text.
var InlinePattern = regexp.MustCompile(`(?i)\[\[(figura|tabla):([^\]]*)\]\]`)

// Ref is one reference found in text.
type Ref struct {
	Kind Kind
	ID   string
}

// Scan returns the inline references in text, in order of appearance.
func Scan(text string) []Ref {
	var out []Ref
	for _, m := range InlinePattern.FindAllStringSubmatch(text, -1) {
		kind, _ := ParseKind(m[1])
		out = append(out, Ref{Kind: kind, ID: strings.TrimSpace(m[2])})
	}
	return out
}
