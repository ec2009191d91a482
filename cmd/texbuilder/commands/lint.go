package commands

import (
	"fmt"
	"io"
	"log/slog"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/texbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/texbuilder/internal/lint"
	"git.home.luguber.info/inful/texbuilder/internal/loader"
	"git.home.luguber.info/inful/texbuilder/internal/logfields"
	"git.home.luguber.info/inful/texbuilder/internal/records"
)

// LintCmd implements the 'lint' command.
type LintCmd struct {
	Workbook string `arg:"" optional:"" help:"Workbook file or CSV directory (defaults to input.workbook)" type:"path"`
	Document string `short:"d" help:"Document ID to lint (defaults to input.document_id)"`
	Format   string `short:"f" default:"text" help:"Output format (text or json)" enum:"text,json"`
	Quiet    bool   `short:"q" help:"Quiet mode: only show errors, suppress warnings"`
	Fix      bool   `help:"Print the normalized text of sections whose whitespace would change, as YAML"`
}

func (l *LintCmd) Run(g *Global, root *CLI) error {
	workbook, docID := l.Workbook, l.Document
	if workbook == "" || docID == "" {
		cfg, err := loadConfig(g, root)
		switch {
		case err == nil:
			if workbook == "" {
				workbook = cfg.Input.Workbook
			}
			if docID == "" {
				docID = cfg.Input.DocumentID
			}
		case workbook == "":
			return err
		}
	}
	return l.run(stdout, workbook, docID)
}

func (l *LintCmd) run(w io.Writer, workbook, docID string) error {
	wb, err := loader.Load(workbook)
	if err != nil {
		return err
	}
	set, loadDiags, err := wb.Records(docID)
	if err != nil {
		return err
	}
	for _, d := range loadDiags {
		slog.Warn("Workbook diagnostic", logfields.Kind(string(d.Kind)), slog.String("diagnostic", d.String()))
	}

	if l.Fix {
		return writeNormalized(w, set)
	}

	result := lint.NewLinter(&lint.Config{Quiet: l.Quiet, Format: l.Format}).Lint(set)
	if err := lint.NewFormatter(l.Format).Format(w, result, workbook); err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "format lint output").Build()
	}
	if result.HasErrors() {
		return errors.ValidationError("lint found errors").
			WithContext("errors", result.ErrorCount()).
			ForDocument(set.Document.ID).
			Build()
	}
	return nil
}

// writeNormalized prints the sections lint.Normalize would change.
func writeNormalized(w io.Writer, set records.Set) error {
	normalized, changed := lint.NormalizeSet(set)
	if len(changed) == 0 {
		_, err := fmt.Fprintln(w, "# no section needs normalization")
		return err
	}
	var out struct {
		Sections []records.Section `yaml:"sections"`
	}
	for i, s := range normalized.Sections {
		if s.Body != set.Sections[i].Body {
			out.Sections = append(out.Sections, s)
		}
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(out); err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "encode normalized sections").Build()
	}
	return enc.Close()
}
