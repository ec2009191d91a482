package refs

import (
	"git.home.luguber.info/inful/texbuilder/internal/diagnostics"
)

// Tracker resolves references against an Indexes value and records which IDs
// were embedded. A Tracker belongs to exactly one compilation.
type Tracker struct {
	Indexes
	referenced map[Kind]map[string]bool
}

// NewTracker returns a tracker with an empty referenced set.
func NewTracker(ix Indexes) *Tracker {
	return &Tracker{
		Indexes: ix,
		referenced: map[Kind]map[string]bool{
			KindFigure: {},
			KindTable:  {},
		},
	}
}

// Resolve looks up id and marks it referenced on success.
func (t *Tracker) Resolve(kind Kind, id string) (Meta, bool) {
	m, ok := t.Lookup(kind, id)
	if ok {
		t.referenced[kind][normalizeID(m.ID)] = true
	}
	return m, ok
}

// Referenced reports whether id has been resolved.
func (t *Tracker) Referenced(kind Kind, id string) bool {
	return t.referenced[kind][normalizeID(id)]
}

// Unused returns indexed entries that were never resolved, in index order.
func (t *Tracker) Unused(kind Kind) []Meta {
	var out []Meta
	for _, m := range t.Of(kind).All() {
		if !t.Referenced(kind, m.ID) {
			out = append(out, m)
		}
	}
	return out
}

// ReportUnused adds one informational diagnostic per unused figure or table.
func (t *Tracker) ReportUnused(rep diagnostics.Reporter) {
	for _, m := range t.Unused(KindFigure) {
		rep.Report(diagnostics.Info(diagnostics.UnusedFigure, "figure is never referenced", "id", m.ID))
	}
	for _, m := range t.Unused(KindTable) {
		rep.Report(diagnostics.Info(diagnostics.UnusedTable, "table is never referenced", "id", m.ID))
	}
}
