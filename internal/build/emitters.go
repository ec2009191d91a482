package build

import (
	"git.home.luguber.info/inful/texbuilder/internal/config"
	"git.home.luguber.info/inful/texbuilder/internal/emitter"
	"git.home.luguber.info/inful/texbuilder/internal/emitter/latex"
	"git.home.luguber.info/inful/texbuilder/internal/emitter/markdown"
	"git.home.luguber.info/inful/texbuilder/internal/foundation/errors"
)

// Emitter returns the emitter and file extension of a configured format.
func Emitter(format config.Format, cc config.CompilerConfig) (emitter.Emitter, string, error) {
	switch format {
	case config.FormatLaTeX:
		return latex.New(latex.Options{
			FigureWidth: cc.FigureWidth,
			MaxColumns:  cc.MaxColumns,
			CompactRows: cc.CompactRows,
			RowsPerPart: cc.RowsPerPart,
		}), ".tex", nil
	case config.FormatMarkdown:
		return markdown.New(), ".md", nil
	case config.FormatHTML:
		return markdown.NewHTML(), ".html", nil
	}
	return nil, "", errors.ValidationError("unsupported output format").
		WithContext("format", string(format)).
		WithContext("valid", config.ValidFormats()).
		Build()
}
