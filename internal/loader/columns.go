package loader

import (
	"regexp"
	"strings"

	"git.home.luguber.info/inful/texbuilder/internal/foundation/normalization"
)

// Sheet names of the workbook layout.
const (
	SheetDocuments    = "Documentos"
	SheetSections     = "Secciones"
	SheetFigures      = "Figuras"
	SheetTables       = "Tablas"
	SheetBibliography = "Bibliografia"
	SheetAcronyms     = "Siglas"
	SheetGlossary     = "Glosario"
)

var reNonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// headerKey folds a column header so "Título/Descripción", "titulo_descripcion"
// and "TituloDescripcion" compare equal.
func headerKey(h string) string {
	return reNonAlnum.ReplaceAllString(normalization.Fold(h), "")
}

// Column aliases per record field, already in headerKey form. The first
// matching header wins.
var (
	documentColumns = map[string][]string{
		"id":                {"id", "documentoid", "documentid"},
		"title":             {"titulo", "title"},
		"subtitle":          {"subtitulo", "subtitle"},
		"author":            {"autor", "author"},
		"date":              {"fecha", "date"},
		"institution":       {"institucion", "institution"},
		"unit":              {"unidad", "unit"},
		"short_name":        {"documentocorto", "nombrecorto", "shortname"},
		"keywords":          {"palabrasclave", "keywords"},
		"version":           {"version"},
		"executive_summary": {"resumenejecutivo", "executivesummary"},
		"key_facts":         {"datosclave", "keyfacts"},
		"acknowledgments":   {"agradecimientos", "acknowledgments"},
		"presentation":      {"presentacion", "presentation"},
		"cover_image":       {"portadaruta", "coverimage"},
		"back_cover_image":  {"contraportadaruta", "backcoverimage"},
	}
	sectionColumns = map[string][]string{
		"document_id": {"documentoid", "documentid"},
		"order":       {"orden", "order"},
		"level":       {"nivel", "level"},
		"title":       {"titulo", "title"},
		"body":        {"contenido", "texto", "body"},
	}
	figureColumns = map[string][]string{
		"document_id":   {"documentoid", "documentid"},
		"order":         {"ordenfigura", "orden", "fig", "order"},
		"section_order": {"seccionorden", "idseccion", "sectionorder"},
		"caption":       {"titulo", "caption", "titulodescripcion", "descripcion"},
		"path":          {"rutaarchivo", "rutaimagen", "rutadeimagen", "path"},
		"source":        {"fuente", "source"},
		"alt_text":      {"textoalternativo", "alttext"},
	}
	tableColumns = map[string][]string{
		"document_id":   {"documentoid", "documentid"},
		"order":         {"ordentabla", "orden", "order"},
		"section_order": {"seccionorden", "idseccion", "sectionorder"},
		"title":         {"titulo", "title"},
		"data_ref":      {"datoscsv", "datos", "dataref"},
		"source":        {"fuente", "source"},
	}
	bibliographyColumns = map[string][]string{
		"document_id": {"documentoid", "documentid"},
		"key":         {"clave", "key"},
		"type":        {"tipo", "type"},
		"author":      {"autor", "author"},
		"title":       {"titulo", "title"},
		"year":        {"anio", "ano", "year"},
		"publisher":   {"editorial", "publisher"},
		"url":         {"url"},
	}
	acronymColumns = map[string][]string{
		"document_id": {"documentoid", "documentid"},
		"term":        {"sigla", "term"},
		"definition":  {"descripcion", "definicion", "significado", "definition"},
	}
	glossaryColumns = map[string][]string{
		"document_id": {"documentoid", "documentid"},
		"term":        {"termino", "term"},
		"definition":  {"definicion", "descripcion", "definition"},
	}
)

// rowReader maps record fields to the columns of one sheet.
type rowReader struct {
	index map[string]int
}

func newRowReader(header []string, columns map[string][]string) rowReader {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		k := headerKey(h)
		if _, seen := pos[k]; !seen {
			pos[k] = i
		}
	}
	r := rowReader{index: make(map[string]int, len(columns))}
	for field, aliases := range columns {
		for _, a := range aliases {
			if i, ok := pos[a]; ok {
				r.index[field] = i
				break
			}
		}
	}
	return r
}

func (r rowReader) has(field string) bool {
	_, ok := r.index[field]
	return ok
}

func (r rowReader) get(row []string, field string) string {
	i, ok := r.index[field]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

// rows returns the data rows of s, skipping rows whose cells are all empty.
func rows(s Sheet) [][]string {
	if len(s) < 2 {
		return nil
	}
	out := make([][]string, 0, len(s)-1)
	for _, row := range s[1:] {
		if !blankRow(row) {
			out = append(out, row)
		}
	}
	return out
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
