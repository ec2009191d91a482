// Package lint checks workbook records before they are compiled: markup
// tags inside text fields, the structure of sections and floats, and the
// whitespace conventions the content parser relies on.
package lint

import (
	"strings"

	"git.home.luguber.info/inful/texbuilder/internal/records"
	"git.home.luguber.info/inful/texbuilder/internal/refs"
)

// Severity indicates the importance level of a linting issue.
type Severity int

const (
	// SeverityInfo marks hints such as unknown tags, which render as plain text.
	SeverityInfo Severity = iota
	// SeverityWarning indicates issues that degrade output but don't block builds.
	SeverityWarning
	// SeverityError indicates markup the compiler will render incorrectly.
	SeverityError
)

// String returns the human-readable severity name.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "INFO"
	case SeverityWarning:
		return "WARNING"
	case SeverityError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Issue represents a single linting problem found in a record field.
type Issue struct {
	Location    string   // Sheet, row key and field, e.g. "Secciones[3].Contenido"
	Severity    Severity // Issue severity level
	Rule        string   // Rule identifier (e.g., "block-balance")
	Message     string   // Brief description of the issue
	Explanation string   // Detailed explanation with context
	Fix         string   // Suggested fix
	Line        int      // Line number inside the field (0 if field-level issue)
}

// Result contains all issues found during linting.
type Result struct {
	Issues      []Issue
	FieldsTotal int // Text fields scanned
}

// HasErrors returns true if any error-level issues exist.
func (r *Result) HasErrors() bool {
	return r.ErrorCount() > 0
}

// HasWarnings returns true if any warning-level issues exist.
func (r *Result) HasWarnings() bool {
	return r.WarningCount() > 0
}

// ErrorCount returns the number of error-level issues.
func (r *Result) ErrorCount() int {
	return r.count(SeverityError)
}

// WarningCount returns the number of warning-level issues.
func (r *Result) WarningCount() int {
	return r.count(SeverityWarning)
}

// InfoCount returns the number of informational issues.
func (r *Result) InfoCount() int {
	return r.count(SeverityInfo)
}

func (r *Result) count(s Severity) int {
	count := 0
	for _, issue := range r.Issues {
		if issue.Severity == s {
			count++
		}
	}
	return count
}

// Context is what rules may consult about the record set.
type Context struct {
	Refs          refs.Indexes
	Bibliography  map[string]bool
	SectionOrders map[float64]bool
}

func newContext(set records.Set) *Context {
	ctx := &Context{
		Refs:          refs.BuildIndexes(set.Figures, set.Tables, nil),
		Bibliography:  make(map[string]bool, len(set.Bibliography)),
		SectionOrders: make(map[float64]bool, len(set.Sections)),
	}
	for _, b := range set.Bibliography {
		if key := strings.TrimSpace(b.Key); key != "" {
			ctx.Bibliography[key] = true
		}
	}
	for _, s := range set.Sections {
		ctx.SectionOrders[s.OrderValue()] = true
	}
	return ctx
}

// Rule defines a check over a record set.
type Rule interface {
	// Name returns the unique identifier for this rule.
	Name() string

	// Check validates the record set and returns any issues found.
	Check(set records.Set, ctx *Context) []Issue
}

// Config contains configuration for the linter.
type Config struct {
	// Quiet suppresses warnings, only showing errors.
	Quiet bool

	// Format specifies output format (text, json).
	Format string

	// Fix prints normalized section text instead of only reporting.
	Fix bool
}
