package loader

import (
	"strings"

	"git.home.luguber.info/inful/texbuilder/internal/diagnostics"
	"git.home.luguber.info/inful/texbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/texbuilder/internal/records"
)

// DocumentIDs lists the document identifiers in the workbook, in row order.
func (w *Workbook) DocumentIDs() []string {
	if w.Direct != nil {
		if id := strings.TrimSpace(w.Direct.Document.ID); id != "" {
			return []string{id}
		}
		return nil
	}
	var ids []string
	for _, d := range w.documents() {
		if id := strings.TrimSpace(d.ID); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// Records returns the record set of one document with table data resolved.
// An empty docID selects the first document. Problems with table data are
// returned as diagnostics.
func (w *Workbook) Records(docID string) (records.Set, []diagnostics.Diagnostic, error) {
	docID = strings.TrimSpace(docID)

	var set records.Set
	if w.Direct != nil {
		set = *w.Direct
		if docID != "" && strings.TrimSpace(set.Document.ID) != docID {
			return records.Set{}, nil, errors.NotFoundError("document not found in workbook").
				ForDocument(docID).Build()
		}
	} else {
		doc, err := w.selectDocument(docID)
		if err != nil {
			return records.Set{}, nil, err
		}
		set = records.Set{
			Document:     doc,
			Sections:     w.sections(),
			Figures:      w.figures(),
			Tables:       w.tables(),
			Bibliography: w.bibliography(),
			Acronyms:     w.terms(SheetAcronyms, acronymColumns),
			Glossary:     w.terms(SheetGlossary, glossaryColumns),
		}
	}

	set = records.ForDocument(set, set.Document.ID)

	var diags diagnostics.List
	for i := range set.Tables {
		w.resolveTableData(&set.Tables[i], &diags)
	}
	return set, diags.Items(), nil
}

func (w *Workbook) selectDocument(docID string) (records.Document, error) {
	docs := w.documents()
	if len(docs) == 0 {
		return records.Document{}, errors.InputError("workbook has no documents").
			WithContext("sheet", SheetDocuments).Build()
	}
	if docID == "" {
		return docs[0], nil
	}
	for _, d := range docs {
		if strings.TrimSpace(d.ID) == docID {
			return d, nil
		}
	}
	return records.Document{}, errors.NotFoundError("document not found in workbook").
		ForDocument(docID).Build()
}

func (w *Workbook) documents() []records.Document {
	s, ok := w.Sheet(SheetDocuments)
	if !ok || len(s) == 0 {
		return nil
	}
	r := newRowReader(s[0], documentColumns)
	var out []records.Document
	for _, row := range rows(s) {
		out = append(out, records.Document{
			ID:               strings.TrimSpace(r.get(row, "id")),
			Title:            r.get(row, "title"),
			Subtitle:         r.get(row, "subtitle"),
			Author:           r.get(row, "author"),
			Date:             r.get(row, "date"),
			Institution:      r.get(row, "institution"),
			Unit:             r.get(row, "unit"),
			ShortName:        r.get(row, "short_name"),
			Keywords:         r.get(row, "keywords"),
			Version:          r.get(row, "version"),
			ExecutiveSummary: r.get(row, "executive_summary"),
			KeyFacts:         r.get(row, "key_facts"),
			Acknowledgments:  r.get(row, "acknowledgments"),
			Presentation:     r.get(row, "presentation"),
			CoverImage:       r.get(row, "cover_image"),
			BackCoverImage:   r.get(row, "back_cover_image"),
		})
	}
	return out
}

func (w *Workbook) sections() []records.Section {
	s, ok := w.Sheet(SheetSections)
	if !ok || len(s) == 0 {
		return nil
	}
	r := newRowReader(s[0], sectionColumns)
	var out []records.Section
	for _, row := range rows(s) {
		out = append(out, records.Section{
			DocumentID: r.get(row, "document_id"),
			Order:      strings.TrimSpace(r.get(row, "order")),
			Level:      r.get(row, "level"),
			Title:      r.get(row, "title"),
			Body:       r.get(row, "body"),
		})
	}
	return out
}

func (w *Workbook) figures() []records.Figure {
	s, ok := w.Sheet(SheetFigures)
	if !ok || len(s) == 0 {
		return nil
	}
	r := newRowReader(s[0], figureColumns)
	var out []records.Figure
	for _, row := range rows(s) {
		out = append(out, records.Figure{
			DocumentID:   r.get(row, "document_id"),
			Order:        strings.TrimSpace(r.get(row, "order")),
			SectionOrder: strings.TrimSpace(r.get(row, "section_order")),
			Caption:      r.get(row, "caption"),
			Path:         strings.TrimSpace(r.get(row, "path")),
			Source:       r.get(row, "source"),
			AltText:      r.get(row, "alt_text"),
		})
	}
	return out
}

func (w *Workbook) tables() []records.Table {
	s, ok := w.Sheet(SheetTables)
	if !ok || len(s) == 0 {
		return nil
	}
	r := newRowReader(s[0], tableColumns)
	var out []records.Table
	for _, row := range rows(s) {
		out = append(out, records.Table{
			DocumentID:   r.get(row, "document_id"),
			Order:        strings.TrimSpace(r.get(row, "order")),
			SectionOrder: strings.TrimSpace(r.get(row, "section_order")),
			Title:        r.get(row, "title"),
			DataRef:      r.get(row, "data_ref"),
			Source:       r.get(row, "source"),
		})
	}
	return out
}

func (w *Workbook) bibliography() []records.BibEntry {
	s, ok := w.Sheet(SheetBibliography)
	if !ok || len(s) == 0 {
		return nil
	}
	r := newRowReader(s[0], bibliographyColumns)
	var out []records.BibEntry
	for _, row := range rows(s) {
		out = append(out, records.BibEntry{
			DocumentID: r.get(row, "document_id"),
			Key:        strings.TrimSpace(r.get(row, "key")),
			Type:       r.get(row, "type"),
			Author:     r.get(row, "author"),
			Title:      r.get(row, "title"),
			Year:       r.get(row, "year"),
			Publisher:  r.get(row, "publisher"),
			URL:        r.get(row, "url"),
		})
	}
	return out
}

func (w *Workbook) terms(sheet string, columns map[string][]string) []records.Term {
	s, ok := w.Sheet(sheet)
	if !ok || len(s) == 0 {
		return nil
	}
	r := newRowReader(s[0], columns)
	if !r.has("term") {
		return nil
	}
	var out []records.Term
	for _, row := range rows(s) {
		out = append(out, records.Term{
			DocumentID: r.get(row, "document_id"),
			Term:       r.get(row, "term"),
			Definition: r.get(row, "definition"),
		})
	}
	return out
}

// resolveTableData fills t.Data from a sheet range or an inline CSV payload.
// Tables that already carry data are left alone.
func (w *Workbook) resolveTableData(t *records.Table, rep diagnostics.Reporter) {
	if len(t.Data) > 0 || strings.TrimSpace(t.DataRef) == "" {
		return
	}

	if sheetName, cells, ok := SplitDataRef(t.DataRef); ok {
		sheet, found := w.Sheet(sheetName)
		if !found {
			rep.Report(diagnostics.New(diagnostics.InvalidTableData, "table data sheet not found",
				"table", t.Order, "sheet", sheetName, "available", strings.Join(w.SheetNames(), ", ")))
			return
		}
		rg, valid := ParseA1(cells)
		if !valid {
			rep.Report(diagnostics.New(diagnostics.InvalidTableData, "table data range is not in A1 notation",
				"table", t.Order, "range", cells))
			return
		}
		t.Data = rg.Slice(sheet)
		return
	}

	data, err := ReadCSV(strings.NewReader(strings.TrimSpace(t.DataRef)))
	if err != nil {
		rep.Report(diagnostics.New(diagnostics.InvalidTableData, "inline table data is not valid CSV",
			"table", t.Order, "error", err.Error()))
		return
	}
	for _, row := range data {
		for i := range row {
			row[i] = strings.TrimSpace(row[i])
		}
	}
	t.Data = data
}
