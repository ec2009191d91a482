// Package latex renders compiled documents for the sener2025 LaTeX class.
package latex

import "time"

const (
	defaultFigureWidth = "0.8"
	defaultMaxColumns  = 15
	defaultCompactRows = 15
	defaultRowsPerPart = 35
)

// Options tune float rendering.
type Options struct {
	// FigureWidth is the \includegraphics width as a fraction of \textwidth.
	FigureWidth string
	// MaxColumns is the column count above which tables are split by columns.
	MaxColumns int
	// CompactRows is the largest body row count rendered as a compact table.
	CompactRows int
	// RowsPerPart is the body row count above which long tables are split.
	RowsPerPart int
	// Now stamps the PDF creation date; time.Now when nil.
	Now func() time.Time
}

// Emitter implements emitter.Emitter for LaTeX.
type Emitter struct {
	opts Options
}

// New returns a LaTeX emitter, filling unset options with defaults.
func New(opts Options) *Emitter {
	if opts.FigureWidth == "" {
		opts.FigureWidth = defaultFigureWidth
	}
	if opts.MaxColumns < 2 {
		opts.MaxColumns = defaultMaxColumns
	}
	if opts.CompactRows <= 0 {
		opts.CompactRows = defaultCompactRows
	}
	if opts.RowsPerPart <= 0 {
		opts.RowsPerPart = defaultRowsPerPart
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Emitter{opts: opts}
}

func (e *Emitter) Name() string      { return "latex" }
func (e *Emitter) Extension() string { return ".tex" }
