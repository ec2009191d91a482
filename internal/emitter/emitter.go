// Package emitter defines the output dialect contract. The parser, section
// processor and assembler only produce text through these interfaces, so a
// new dialect needs no change outside its own package.
package emitter

import (
	"git.home.luguber.info/inful/texbuilder/internal/foundation/normalization"
	"git.home.luguber.info/inful/texbuilder/internal/records"
	"git.home.luguber.info/inful/texbuilder/internal/refs"
)

// BlockKind is a styled container type.
type BlockKind string

const (
	BlockExample   BlockKind = "ejemplo"
	BlockBox       BlockKind = "caja"
	BlockAlert     BlockKind = "alerta"
	BlockInfo      BlockKind = "info"
	BlockHighlight BlockKind = "destacado"
	BlockFrame     BlockKind = "recuadro"
)

var blockKinds = normalization.NewNormalizer(map[string]BlockKind{
	"ejemplo":   BlockExample,
	"caja":      BlockBox,
	"alerta":    BlockAlert,
	"info":      BlockInfo,
	"destacado": BlockHighlight,
	"recuadro":  BlockFrame,
}, "")

// ParseBlockKind maps a directive word to a BlockKind.
func ParseBlockKind(word string) (BlockKind, bool) {
	return blockKinds.Lookup(word)
}

// HeadingLevel is a structural heading depth.
type HeadingLevel int

const (
	LevelSection HeadingLevel = iota + 1
	LevelSubsection
	LevelSubsubsection
	LevelParagraph
)

// DirectoryEntry is one name/role pair of the credits page.
type DirectoryEntry struct {
	Name string
	Role string
}

// Inline renders running text.
type Inline interface {
	// Escape makes text literal-safe in the target markup.
	Escape(text string) string
	// RenderInline escapes text and translates inline tags. Cross references
	// are looked up through lookup without marking them referenced.
	RenderInline(text string, lookup refs.Lookup) string
}

// Body renders the constructs produced by the content parser.
type Body interface {
	Inline
	ListStart() string
	ListItem(text string, lookup refs.Lookup) string
	ListEnd() string
	Line(text string, lookup refs.Lookup) string
	BlankLine() string
	WrapBlock(kind BlockKind, title, body string) string
	Figure(m refs.Meta) string
	Table(m refs.Meta) string
	Unresolved(kind refs.Kind, id string) string
}

// Structure renders section-level constructs.
type Structure interface {
	AnnexStart() string
	Heading(level HeadingLevel, title string) string
	SectionEnd() string
	SectionCard(n int, title, caption string) string
	Directory(entries []DirectoryEntry) string
	LineBreak() string
	ParagraphBreak() string
}

// Frame renders the document-level parts in the order the assembler asks.
type Frame interface {
	Preamble(doc records.Document, hasBibliography bool) string
	TitleBlock(doc records.Document) string
	FrontMatterPage(title, renderedBody string) string
	KeyFacts(title string, items []string) string
	FloatLists(hasFigures, hasTables bool) string
	Glossary(entries []records.Term) string
	Bibliography(entries []records.BibEntry) string
	Acronyms(entries []records.Term) string
	DirectoryPage(directory string) string
	BackCoverPage(doc records.Document, backCover string) string
	End() string
}

// Emitter is a complete output dialect.
type Emitter interface {
	Name() string
	Extension() string
	Body
	Structure
	Frame
}

// Finalizer is implemented by dialects that post-process the assembled text,
// e.g. to prepend frontmatter computed over the whole body.
type Finalizer interface {
	Finalize(doc records.Document, text string) (string, error)
}
