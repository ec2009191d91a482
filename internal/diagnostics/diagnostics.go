// Package diagnostics records non-fatal conditions found while compiling.
package diagnostics

import (
	"fmt"
	"sort"
	"strings"
)

// Kind classifies a diagnostic.
type Kind string

const (
	UnresolvedReference  Kind = "UnresolvedReference"
	MalformedBlock       Kind = "MalformedBlock"
	EmptySectionSet      Kind = "EmptySectionSet"
	DuplicateReferenceID Kind = "DuplicateReferenceID"
	UnusedFigure         Kind = "UnusedFigure"
	UnusedTable          Kind = "UnusedTable"
	InvalidTableData     Kind = "InvalidTableData"
)

// Severity of a diagnostic.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Diagnostic is a {kind, message, context} tuple.
type Diagnostic struct {
	Kind     Kind              `json:"kind"`
	Severity Severity          `json:"severity"`
	Message  string            `json:"message"`
	Context  map[string]string `json:"context,omitempty"`
}

func (d Diagnostic) String() string {
	if len(d.Context) == 0 {
		return fmt.Sprintf("%s: %s", d.Kind, d.Message)
	}
	keys := make([]string, 0, len(d.Context))
	for k := range d.Context {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+d.Context[k])
	}
	return fmt.Sprintf("%s: %s (%s)", d.Kind, d.Message, strings.Join(parts, ", "))
}

// New builds a warning diagnostic from alternating context key/value pairs.
func New(kind Kind, message string, kv ...string) Diagnostic {
	d := Diagnostic{Kind: kind, Severity: SeverityWarning, Message: message}
	if len(kv) > 1 {
		d.Context = make(map[string]string, len(kv)/2)
		for i := 0; i+1 < len(kv); i += 2 {
			d.Context[kv[i]] = kv[i+1]
		}
	}
	return d
}

// Info builds an informational diagnostic.
func Info(kind Kind, message string, kv ...string) Diagnostic {
	d := New(kind, message, kv...)
	d.Severity = SeverityInfo
	return d
}

// Reporter accepts diagnostics as they are found.
type Reporter interface {
	Report(d Diagnostic)
}

// List is an append-only diagnostics collector.
type List struct {
	items []Diagnostic
}

// Report appends d.
func (l *List) Report(d Diagnostic) { l.items = append(l.items, d) }

// Items returns the collected diagnostics in report order.
func (l *List) Items() []Diagnostic {
	out := make([]Diagnostic, len(l.items))
	copy(out, l.items)
	return out
}

// Count returns how many diagnostics of kind were reported.
func (l *List) Count(kind Kind) int {
	n := 0
	for _, d := range l.items {
		if d.Kind == kind {
			n++
		}
	}
	return n
}

// HasWarnings reports whether any warning-level diagnostic exists.
func HasWarnings(items []Diagnostic) bool {
	for _, d := range items {
		if d.Severity == SeverityWarning {
			return true
		}
	}
	return false
}

// CountByKind tallies diagnostics per kind.
func CountByKind(items []Diagnostic) map[Kind]int {
	out := make(map[Kind]int)
	for _, d := range items {
		out[d.Kind]++
	}
	return out
}
