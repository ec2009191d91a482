// Package records defines the typed input rows a document is compiled from.
package records

import "strings"

// Document holds the metadata and free-text front matter of one document.
type Document struct {
	ID               string `json:"id" yaml:"id"`
	Title            string `json:"title" yaml:"title"`
	Subtitle         string `json:"subtitle,omitempty" yaml:"subtitle,omitempty"`
	Author           string `json:"author,omitempty" yaml:"author,omitempty"`
	Date             string `json:"date,omitempty" yaml:"date,omitempty"`
	Institution      string `json:"institution,omitempty" yaml:"institution,omitempty"`
	Unit             string `json:"unit,omitempty" yaml:"unit,omitempty"`
	ShortName        string `json:"short_name,omitempty" yaml:"short_name,omitempty"`
	Keywords         string `json:"keywords,omitempty" yaml:"keywords,omitempty"`
	Version          string `json:"version,omitempty" yaml:"version,omitempty"`
	ExecutiveSummary string `json:"executive_summary,omitempty" yaml:"executive_summary,omitempty"`
	KeyFacts         string `json:"key_facts,omitempty" yaml:"key_facts,omitempty"`
	Acknowledgments  string `json:"acknowledgments,omitempty" yaml:"acknowledgments,omitempty"`
	Presentation     string `json:"presentation,omitempty" yaml:"presentation,omitempty"`
	CoverImage       string `json:"cover_image,omitempty" yaml:"cover_image,omitempty"`
	BackCoverImage   string `json:"back_cover_image,omitempty" yaml:"back_cover_image,omitempty"`
}

// FileStem returns the base name used for output files. Path separators
// and ".." in the short name become underscores so the stem always names a
// file inside the output directory.
func (d Document) FileStem() string {
	s := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', 0:
			return '_'
		}
		return r
	}, d.ShortName)
	s = strings.ReplaceAll(s, "..", "_")
	if s = strings.Trim(s, ". \t\r\n"); s != "" {
		return s
	}
	return "documento"
}

// Section is one ordered unit of body text.
type Section struct {
	DocumentID string `json:"document_id" yaml:"document_id"`
	Order      string `json:"order" yaml:"order"`
	Level      string `json:"level" yaml:"level"`
	Title      string `json:"title" yaml:"title"`
	Body       string `json:"body" yaml:"body"`
}

// OrderValue returns the numeric order of the section.
func (s Section) OrderValue() float64 { return ParseOrder(s.Order) }

// Figure references an image placed in the document.
type Figure struct {
	DocumentID   string `json:"document_id" yaml:"document_id"`
	Order        string `json:"order" yaml:"order"`
	SectionOrder string `json:"section_order,omitempty" yaml:"section_order,omitempty"`
	Caption      string `json:"caption" yaml:"caption"`
	Path         string `json:"path,omitempty" yaml:"path,omitempty"`
	Source       string `json:"source,omitempty" yaml:"source,omitempty"`
	AltText      string `json:"alt_text,omitempty" yaml:"alt_text,omitempty"`
}

// Table references tabular data placed in the document. Data is filled in
// by the loader from DataRef; Title doubles as the caption.
type Table struct {
	DocumentID   string     `json:"document_id" yaml:"document_id"`
	Order        string     `json:"order" yaml:"order"`
	SectionOrder string     `json:"section_order,omitempty" yaml:"section_order,omitempty"`
	Title        string     `json:"title" yaml:"title"`
	DataRef      string     `json:"data_ref,omitempty" yaml:"data_ref,omitempty"`
	Source       string     `json:"source,omitempty" yaml:"source,omitempty"`
	Data         [][]string `json:"data,omitempty" yaml:"data,omitempty"`
}

// BibEntry is one bibliography record.
type BibEntry struct {
	DocumentID string `json:"document_id" yaml:"document_id"`
	Key        string `json:"key" yaml:"key"`
	Type       string `json:"type,omitempty" yaml:"type,omitempty"`
	Author     string `json:"author,omitempty" yaml:"author,omitempty"`
	Title      string `json:"title,omitempty" yaml:"title,omitempty"`
	Year       string `json:"year,omitempty" yaml:"year,omitempty"`
	Publisher  string `json:"publisher,omitempty" yaml:"publisher,omitempty"`
	URL        string `json:"url,omitempty" yaml:"url,omitempty"`
}

// Term is an acronym or glossary entry.
type Term struct {
	DocumentID string `json:"document_id" yaml:"document_id"`
	Term       string `json:"term" yaml:"term"`
	Definition string `json:"definition" yaml:"definition"`
}

// Set groups every record belonging to one compilation.
type Set struct {
	Document     Document   `json:"document" yaml:"document"`
	Sections     []Section  `json:"sections,omitempty" yaml:"sections,omitempty"`
	Figures      []Figure   `json:"figures,omitempty" yaml:"figures,omitempty"`
	Tables       []Table    `json:"tables,omitempty" yaml:"tables,omitempty"`
	Bibliography []BibEntry `json:"bibliography,omitempty" yaml:"bibliography,omitempty"`
	Acronyms     []Term     `json:"acronyms,omitempty" yaml:"acronyms,omitempty"`
	Glossary     []Term     `json:"glossary,omitempty" yaml:"glossary,omitempty"`
}
