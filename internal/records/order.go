package records

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var leadingNumber = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// ParseOrder reads the leading decimal number of an order cell. Empty or
// non-numeric values yield 0.
func ParseOrder(raw string) float64 {
	m := leadingNumber.FindString(strings.TrimSpace(raw))
	if m == "" {
		return 0
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0
	}
	return v
}

// SortSections returns the sections in ascending order. Ties keep input order.
func SortSections(in []Section) []Section {
	out := make([]Section, len(in))
	copy(out, in)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].OrderValue() < out[j].OrderValue()
	})
	return out
}

// ForDocument keeps the records whose document ID matches id. Records with an
// empty document ID are kept as well, so single-document inputs need not
// repeat the ID on every row.
func ForDocument(set Set, id string) Set {
	id = strings.TrimSpace(id)
	match := func(doc string) bool {
		doc = strings.TrimSpace(doc)
		return doc == "" || doc == id
	}

	out := Set{Document: set.Document}
	for _, s := range set.Sections {
		if match(s.DocumentID) {
			out.Sections = append(out.Sections, s)
		}
	}
	for _, f := range set.Figures {
		if match(f.DocumentID) {
			out.Figures = append(out.Figures, f)
		}
	}
	for _, t := range set.Tables {
		if match(t.DocumentID) {
			out.Tables = append(out.Tables, t)
		}
	}
	for _, b := range set.Bibliography {
		if match(b.DocumentID) {
			out.Bibliography = append(out.Bibliography, b)
		}
	}
	for _, a := range set.Acronyms {
		if match(a.DocumentID) {
			out.Acronyms = append(out.Acronyms, a)
		}
	}
	for _, g := range set.Glossary {
		if match(g.DocumentID) {
			out.Glossary = append(out.Glossary, g)
		}
	}
	return out
}
