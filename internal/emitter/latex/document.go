package latex

import (
	"regexp"
	"strconv"
	"strings"

	"git.home.luguber.info/inful/texbuilder/internal/records"
)

const (
	defaultAuthor      = "SENER"
	defaultInstitution = "Secretaría de Energía"
	defaultVersion     = "1.0"
)

var (
	reNumericDate = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`)

	spanishMonths = [...]string{
		"enero", "febrero", "marzo", "abril", "mayo", "junio",
		"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
	}
)

// FormatDate turns DD/MM/YYYY into "D de mes de YYYY"; any other value is
// returned trimmed.
func FormatDate(raw string) string {
	raw = strings.TrimSpace(raw)
	m := reNumericDate.FindStringSubmatch(raw)
	if m == nil {
		return raw
	}
	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return raw
	}
	return strconv.Itoa(day) + " de " + spanishMonths[month-1] + " de " + m[3]
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// Preamble writes document metadata, class and PDF/UA hyperref setup.
func (e *Emitter) Preamble(doc records.Document, hasBibliography bool) string {
	var b strings.Builder
	b.WriteString("\\DocumentMetadata{\n  pdfversion=2.0,\n  lang=es-MX,\n  pdfstandard=ua-2\n}\n\n")
	b.WriteString("\\documentclass{sener2025}\n\n")
	if hasBibliography {
		b.WriteString("\\addbibresource{referencias.bib}\n\n")
	}

	b.WriteString("% --- Metadatos PDF/UA (Accesibilidad Universal) ---\n")
	b.WriteString("\\hypersetup{\n")
	b.WriteString("  pdftitle={" + Escape(firstNonEmpty(doc.Title, "Documento SENER")) + "},\n")
	b.WriteString("  pdfauthor={" + Escape(firstNonEmpty(doc.Author, defaultInstitution)) + "},\n")
	b.WriteString("  pdfsubject={" + Escape(firstNonEmpty(doc.Subtitle, doc.Title, "Documento Institucional")) + "},\n")
	b.WriteString("  pdfkeywords={" + Escape(firstNonEmpty(doc.Keywords, "SENER, Energía, México")) + "},\n")
	b.WriteString("  pdfcreationdate={D:" + e.opts.Now().Format("20060102150405") + "},\n")
	b.WriteString("  pdfversion={" + Escape(firstNonEmpty(doc.Version, defaultVersion)) + "}\n")
	b.WriteString("}\n\n")
	return b.String()
}

// TitleBlock writes the class metadata macros, opens the document and
// emits the cover and table of contents.
func (e *Emitter) TitleBlock(doc records.Document) string {
	var b strings.Builder
	b.WriteString("% --- Metadatos del Documento ---\n")
	b.WriteString("\\title{" + Escape(strings.TrimSpace(doc.Title)) + "}\n")
	if s := strings.TrimSpace(doc.Subtitle); s != "" {
		b.WriteString("\\subtitle{" + Escape(s) + "}\n")
	}
	b.WriteString("\\author{" + Escape(firstNonEmpty(doc.Author, defaultAuthor)) + "}\n")
	b.WriteString("\\date{" + Escape(FormatDate(doc.Date)) + "}\n")
	b.WriteString("\\institucion{" + Escape(firstNonEmpty(doc.Institution, defaultInstitution)) + "}\n")
	if u := strings.TrimSpace(doc.Unit); u != "" {
		b.WriteString("\\unidad{" + Escape(u) + "}\n")
	}
	if s := strings.TrimSpace(doc.ShortName); s != "" {
		b.WriteString("\\setDocumentoCorto{" + Escape(s) + "}\n")
	}
	if k := strings.TrimSpace(doc.Keywords); k != "" {
		b.WriteString("\\palabrasclave{" + Escape(k) + "}\n")
	}
	b.WriteString("\\version{" + Escape(firstNonEmpty(doc.Version, defaultVersion)) + "}\n")

	b.WriteString("\n\\begin{document}\n\n")
	if cover := strings.TrimSpace(doc.CoverImage); cover != "" {
		b.WriteString("\\portadafondo[" + Escape(cover) + "]\n\n")
	} else {
		b.WriteString("\\portadafondo\n\n")
	}
	b.WriteString("\\tableofcontents\n\\newpage\n\n")
	return b.String()
}

func pageTitle(title string) string {
	return "\\clearpage\n\\begin{center}\n{\\Large\\patriafont\\bfseries\\color{gobmxGuinda}" + Escape(title) + "}\\\\[1cm]\n\\end{center}\n\n"
}

// FrontMatterPage writes a titled unnumbered page around an already parsed body.
func (e *Emitter) FrontMatterPage(title, renderedBody string) string {
	return pageTitle(title) + renderedBody + "\n\n"
}

func (e *Emitter) KeyFacts(title string, items []string) string {
	var b strings.Builder
	b.WriteString(pageTitle(title))
	b.WriteString("\\begin{itemize}\n")
	for _, item := range items {
		b.WriteString("  \\item " + Escape(item) + "\n")
	}
	b.WriteString("\\end{itemize}\n\n")
	return b.String()
}

func (e *Emitter) FloatLists(hasFigures, hasTables bool) string {
	var b strings.Builder
	if hasFigures {
		b.WriteString("\\listafiguras\n\\newpage\n\n")
	}
	if hasTables {
		b.WriteString("\\listatablas\n\\newpage\n\n")
	}
	return b.String()
}

func unnumberedSection(title string) string {
	return "\\section*{" + title + "}\n\\phantomsection\n\\addcontentsline{toc}{section}{" + title + "}\n\n"
}

func termEntries(macro string, entries []records.Term) string {
	var b strings.Builder
	for _, t := range entries {
		term, def := strings.TrimSpace(t.Term), strings.TrimSpace(t.Definition)
		if term == "" || def == "" {
			continue
		}
		b.WriteString("\\" + macro + "{" + Escape(term) + "}{" + Escape(def) + "}\n")
	}
	return b.String()
}

// Glossary writes the entries in the order given; callers sort them.
func (e *Emitter) Glossary(entries []records.Term) string {
	return unnumberedSection("Glosario") + termEntries("entradaGlosario", entries) + "\n"
}

// Bibliography prints the biblatex bibliography; the entries themselves go
// to referencias.bib.
func (e *Emitter) Bibliography(entries []records.BibEntry) string {
	if len(entries) == 0 {
		return ""
	}
	return "\\printbibliography\n\n"
}

func (e *Emitter) Acronyms(entries []records.Term) string {
	return unnumberedSection("Siglas y Acrónimos") + termEntries("entradaSigla", entries) + "\n"
}

func (e *Emitter) DirectoryPage(directory string) string {
	return "\\paginacreditos{\n" + directory + "\n}\n"
}

func (e *Emitter) BackCoverPage(doc records.Document, backCover string) string {
	if img := strings.TrimSpace(doc.BackCoverImage); img != "" {
		return "\\contraportada[" + Escape(img) + "]{\n" + backCover + "\n}\n"
	}
	return "\\contraportada{\n" + backCover + "\n}\n"
}

func (e *Emitter) End() string { return "\n\\end{document}\n" }
