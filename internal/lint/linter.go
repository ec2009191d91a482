package lint

import "git.home.luguber.info/inful/texbuilder/internal/records"

// Linter runs rules over a record set.
type Linter struct {
	cfg   *Config
	rules []Rule
}

// NewLinter creates a new linter with the given configuration.
func NewLinter(cfg *Config) *Linter {
	if cfg == nil {
		cfg = &Config{Format: "text"}
	}

	return &Linter{
		cfg: cfg,
		rules: []Rule{
			&TagRule{},
			&StructureRule{},
		},
	}
}

// Lint checks set with every rule.
func (l *Linter) Lint(set records.Set) *Result {
	ctx := newContext(set)
	result := &Result{
		Issues:      []Issue{},
		FieldsTotal: len(textFields(set)),
	}

	for _, rule := range l.rules {
		for _, issue := range rule.Check(set, ctx) {
			// Skip info and warnings in quiet mode
			if l.cfg.Quiet && issue.Severity != SeverityError {
				continue
			}
			if issue.Rule == "" {
				issue.Rule = rule.Name()
			}
			result.Issues = append(result.Issues, issue)
		}
	}

	return result
}
