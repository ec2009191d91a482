package config

import (
	"git.home.luguber.info/inful/texbuilder/internal/foundation/normalization"
)

// Format names an output dialect.
type Format string

const (
	FormatLaTeX    Format = "latex"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

var formatNormalizer = normalization.NewEnumNormalizer("output format", map[string]Format{
	"latex":    FormatLaTeX,
	"tex":      FormatLaTeX,
	"markdown": FormatMarkdown,
	"md":       FormatMarkdown,
	"html":     FormatHTML,
}, "")

// ParseFormat normalizes a format name.
func ParseFormat(raw string) (Format, error) {
	return formatNormalizer.NormalizeWithValidation(raw)
}

// ValidFormats lists the accepted format names.
func ValidFormats() []string {
	return formatNormalizer.ValidValues()
}
