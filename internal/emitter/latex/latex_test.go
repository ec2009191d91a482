package latex

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/texbuilder/internal/emitter"
	"git.home.luguber.info/inful/texbuilder/internal/records"
	"git.home.luguber.info/inful/texbuilder/internal/refs"
)

var fixedNow = func() time.Time { return time.Date(2025, 3, 5, 10, 20, 30, 0, time.UTC) }

func TestEscape(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"Texto plano", "Texto plano"},
		{"50% & $5_a #1", `50\% \& \$5\_a \#1`},
		{`\{}`, `\textbackslash{}\{\}`},
		{"~^", `\textasciitilde{}\textasciicircum{}`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Escape(tt.in), tt.in)
	}
	assert.Equal(t, "Sin reservados", Escape(Escape("Sin reservados")))
}

func TestRenderInline(t *testing.T) {
	e := New(Options{})
	ix := refs.BuildIndexes([]records.Figure{{Order: "1", SectionOrder: "2", Caption: "Mapa"}}, nil, nil)

	tests := []struct {
		name, in, want string
	}{
		{"gold and footnote", "Texto [[dorado:oro]] y [[nota:pie]]", `Texto \textbf{\textcolor{gobmxDorado}{oro}} y \footnote{pie}`},
		{"maroon", "[[guinda:50%]]", `\textbf{\textcolor{gobmxGuinda}{50\%}}`},
		{"inline math kept", "Costo $x_1$ y 10%", `Costo $x_1$ y 10\%`},
		{"display math kept", "$$a_b$$", "$$a_b$$"},
		{"citation", "Ver [[cita:sener2024]]", `Ver \cite{sener2024}`},
		{"resolved reference", "Ver [[figura:FIG-2-1]].", `Ver \hyperref[fig:FIG-2-1]{Figura FIG-2-1 \textemdash{} Mapa}.`},
		{"unresolved reference", "Ver [[tabla:TBL-9]]", `Ver \textbf{Tabla TBL-9}`},
		{"quotes", "“hola”", `"hola"`},
		{"untagged brackets", "[[otro]]", "[[otro]]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.RenderInline(tt.in, ix))
		})
	}
}

func TestRenderInlineNestedTags(t *testing.T) {
	e := New(Options{})
	got := e.RenderInline("[[recuadro:Nota]]uno [[dorado:dos]] $x$[[/recuadro]]", nil)
	assert.Equal(t, "\\begin{recuadro}{Nota}\nuno \\textbf{\\textcolor{gobmxDorado}{dos}} $x$\n\\end{recuadro}", got)
	assert.NotContains(t, got, "\uE000")
}

func TestWrapBlock(t *testing.T) {
	e := New(Options{})
	tests := []struct {
		kind  emitter.BlockKind
		title string
		want  string
	}{
		{emitter.BlockAlert, "Cuidado", "\\begin{calloutWarning}[title={Cuidado}]\nTexto importante\n\\end{calloutWarning}\n"},
		{emitter.BlockInfo, "", "\\begin{calloutTip}\nTexto importante\n\\end{calloutTip}\n"},
		{emitter.BlockBox, "A & B", "\\begin{recuadro}[title={A \\& B}]\nTexto importante\n\\end{recuadro}\n"},
		{emitter.BlockHighlight, "ignorado", "\\begin{destacado}\nTexto importante\n\\end{destacado}\n"},
		{emitter.BlockExample, "", "\\begin{ejemplo}\nTexto importante\n\\end{ejemplo}\n"},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.want, e.WrapBlock(tt.kind, tt.title, "Texto importante\n"))
		})
	}
}

func TestListAndUnresolved(t *testing.T) {
	e := New(Options{})
	assert.Equal(t, "  \\item Uno \\& dos\n", e.ListItem("Uno & dos", nil))
	assert.Equal(t, "% Referencia a figura: FIG-9-9\n", e.Unresolved(refs.KindFigure, "FIG-9-9"))
}

func TestStructure(t *testing.T) {
	e := New(Options{})
	assert.Equal(t, "\\subsection{Costos \\& precios}\n\n", e.Heading(emitter.LevelSubsection, "Costos & precios"))
	assert.Equal(t, "\\paragraph{P}\n\n", e.Heading(emitter.LevelParagraph, "P"))
	assert.Equal(t, "\\portadaseccion{2}{Diagnóstico}{Estado actual}\n\n", e.SectionCard(2, "Diagnóstico", "Estado actual"))

	dir := e.Directory([]emitter.DirectoryEntry{{Name: "Ana Pérez", Role: "Secretaria"}})
	assert.Contains(t, dir, "Ana Pérez}\\par\n")
	assert.Contains(t, dir, "Secretaria}\\\\[0.5cm]\n")
}

func figureMeta(f records.Figure) refs.Meta {
	ix := refs.BuildIndexes([]records.Figure{f}, nil, nil)
	return ix.Figures.All()[0]
}

func tableMeta(tb records.Table) refs.Meta {
	ix := refs.BuildIndexes(nil, []records.Table{tb}, nil)
	return ix.Tables.All()[0]
}

func TestFigure(t *testing.T) {
	e := New(Options{})
	out := e.Figure(figureMeta(records.Figure{
		Order: "1", SectionOrder: "2", Caption: "Mapa", Path: "img/mapa.png", AltText: "Mapa de México",
	}))

	assert.True(t, strings.HasPrefix(out, "\\Needspace{18\\baselineskip}\n\\begin{figure}[H]\n"))
	assert.Contains(t, out, `\pdftooltip{\includegraphics[width=0.8\textwidth]{img/mapa.png}}{Mapa de México}`)
	assert.Contains(t, out, "  \\caption{Mapa}\n  \\label{fig:FIG-2-1}\n")
	assert.NotContains(t, out, `\fuente`)

	withSource := e.Figure(figureMeta(records.Figure{Order: "3", Path: "a.png", Source: "SENER"}))
	assert.Contains(t, withSource, "  \\includegraphics[width=0.8\\textwidth]{a.png}\n")
	assert.Contains(t, withSource, "\\vspace{-4pt}\n\\fuente{SENER}\n")
	assert.NotContains(t, withSource, `\caption`)
}

func TestFigureWithoutCaptionKeepsLabel(t *testing.T) {
	out := New(Options{}).Figure(figureMeta(records.Figure{Order: "4", SectionOrder: "1", Path: "b.png"}))
	assert.NotContains(t, out, `\caption`)
	assert.Contains(t, out, "  \\label{fig:FIG-1-4}\n")
}

func TestRenderInlineParBreak(t *testing.T) {
	e := New(Options{})
	br := e.RenderInline(`uno\par dos`, nil)
	assert.True(t, strings.HasPrefix(br, "uno\n\n"), br)
	assert.NotContains(t, br, "textbackslash")
	assert.Equal(t, `C:\textbackslash{}parametros`, e.RenderInline(`C:\parametros`, nil))
}

func TestTableCompactAndEmpty(t *testing.T) {
	e := New(Options{})
	out := e.Table(tableMeta(records.Table{
		Order: "1", Title: "Generación", Data: [][]string{{"A", "B"}, {"1", "2"}, {"3"}},
	}))
	assert.Contains(t, out, "\\begin{tabladoradoCorto}\n  \\caption{Generación}\n  \\label{tab:TBL-1}\n")
	assert.Contains(t, out, `\begin{tabularx}{\textwidth}{Vv}`)
	assert.Contains(t, out, `\rowcolor{gobmxDorado} \encabezadodorado{A} & \encabezadodorado{B} \\`)
	assert.Contains(t, out, "    1 & 2 \\\\\n")
	assert.Contains(t, out, "    3 &  \\\\\n", "short rows are padded")

	empty := e.Table(tableMeta(records.Table{Order: "2", Title: "Vacía"}))
	assert.Contains(t, empty, "% Sin datos cargados")
}

func rows(n, width int) [][]string {
	data := make([][]string, 0, n+1)
	for r := 0; r <= n; r++ {
		row := make([]string, width)
		for c := range row {
			row[c] = "x"
		}
		data = append(data, row)
	}
	return data
}

func TestTableSplitByRows(t *testing.T) {
	e := New(Options{CompactRows: 1, RowsPerPart: 2})
	out := e.Table(tableMeta(records.Table{Order: "1", Title: "Larga", Data: rows(5, 2)}))

	assert.Equal(t, 3, strings.Count(out, `\begin{xltabular}`))
	assert.Equal(t, 1, strings.Count(out, `\caption{`))
	assert.Equal(t, 2, strings.Count(out, `\clearpage`))
	assert.Contains(t, out, `{\small\textit{Continuación Tabla. Larga}}`)
	assert.Contains(t, out, `\encabezadodorado{\SENERVHeader{x}}`)
	assert.True(t, strings.HasPrefix(out, "\\begin{tabladoradoLargo}\n"))
}

func TestTableSimpleLong(t *testing.T) {
	e := New(Options{CompactRows: 1, RowsPerPart: 10})
	out := e.Table(tableMeta(records.Table{Order: "1", Title: "Media", Data: rows(3, 2)}))
	assert.Equal(t, 1, strings.Count(out, `\begin{xltabular}`))
	assert.NotContains(t, out, `\clearpage`)
	assert.Contains(t, out, "    \\caption{Media}\\label{tab:TBL-1}\\\\\n")
}

func TestTableSplitByColumns(t *testing.T) {
	e := New(Options{MaxColumns: 3})
	out := e.Table(tableMeta(records.Table{Order: "1", Title: "Ancha", Data: rows(2, 5)}))

	assert.Equal(t, 2, strings.Count(out, `\begin{xltabular}{\textwidth}{QZZ}`))
	assert.Equal(t, 1, strings.Count(out, `\clearpage`))
	assert.Equal(t, 1, strings.Count(out, `\caption{`))
}

func TestSplitSource(t *testing.T) {
	main, notes := splitSource("INEGI, 2024. 1/ Cifras preliminares. a/ Estimado.")
	assert.Equal(t, "INEGI, 2024.", main)
	require.Len(t, notes, 2)
	assert.Equal(t, sourceNote{marker: "1/", text: "Cifras preliminares."}, notes[0])
	assert.Equal(t, sourceNote{marker: "a/", text: "Estimado."}, notes[1])

	main, notes = splitSource("Datos en https://www.sener.gob.mx/datos")
	assert.Equal(t, "Datos en https://www.sener.gob.mx/datos", main)
	assert.Empty(t, notes)
}

func TestSource(t *testing.T) {
	e := New(Options{})
	out := e.Source("SENER 1/ Preliminar")
	assert.True(t, strings.HasPrefix(out, "SENER\n\n"))
	assert.Contains(t, out, `\item[\hypertarget{nota1}{1/}] Preliminar`)
}

func TestFormatCell(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		col    int
		header bool
		long   bool
		want   string
	}{
		{"empty", "", 1, false, false, ""},
		{"long decimal", "1234.56789", 1, false, false, "1,234.5679"},
		{"short decimal", "12.5", 1, false, false, "12.5"},
		{"note marker", "Total 1/", 1, false, false, `Total \textsuperscript{\hyperlink{nota1}{\textcolor{black}{1/}}}`},
		{"header markers", "Año a/,b/", 1, true, false, `Año \textsuperscript{\hyperlink{notaa}{\textcolor{white}{a/}},\hyperlink{notab}{\textcolor{white}{b/}}}`},
		{"one space indent", " Solar", 0, false, true, `\quad Solar`},
		{"two space indent", "  Hidro", 0, false, true, `\hspace{0.9em} Hidro`},
		{"no indent in compact", "  Hidro", 0, false, false, "  Hidro"},
		{"escaped", "A&B", 2, false, true, `A\&B`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatCell(tt.raw, tt.col, tt.header, tt.long))
		})
	}
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "5 de marzo de 2025", FormatDate("05/03/2025"))
	assert.Equal(t, "31 de diciembre de 2024", FormatDate(" 31/12/2024 "))
	assert.Equal(t, "Marzo 2025", FormatDate("Marzo 2025"))
	assert.Equal(t, "10/13/2025", FormatDate("10/13/2025"))
}

func TestPreambleAndTitleBlock(t *testing.T) {
	e := New(Options{Now: fixedNow})
	doc := records.Document{ID: "D1", Title: "Programa Sectorial", Date: "05/03/2025"}

	pre := e.Preamble(doc, true)
	assert.True(t, strings.HasPrefix(pre, "\\DocumentMetadata{\n  pdfversion=2.0,\n  lang=es-MX,\n  pdfstandard=ua-2\n}\n\n\\documentclass{sener2025}\n\n"))
	assert.Contains(t, pre, "\\addbibresource{referencias.bib}\n")
	assert.Contains(t, pre, "pdftitle={Programa Sectorial}")
	assert.Contains(t, pre, "pdfsubject={Programa Sectorial}")
	assert.Contains(t, pre, "pdfcreationdate={D:20250305102030}")
	assert.NotContains(t, e.Preamble(doc, false), `\addbibresource`)

	title := e.TitleBlock(doc)
	assert.Contains(t, title, "\\title{Programa Sectorial}\n")
	assert.Contains(t, title, "\\author{SENER}\n")
	assert.Contains(t, title, "\\date{5 de marzo de 2025}\n")
	assert.Contains(t, title, "\\institucion{Secretaría de Energía}\n")
	assert.Contains(t, title, "\\version{1.0}\n")
	assert.Contains(t, title, "\\portadafondo\n\n\\tableofcontents\n\\newpage\n\n")
	assert.NotContains(t, title, `\subtitle`)
}

func TestFrameParts(t *testing.T) {
	e := New(Options{})
	assert.Empty(t, e.FloatLists(false, false))
	assert.Equal(t, "\\listatablas\n\\newpage\n\n", e.FloatLists(false, true))

	gl := e.Glossary([]records.Term{{Term: "MW", Definition: "Megawatt"}, {Term: "Sin definición"}})
	assert.Contains(t, gl, "\\section*{Glosario}\n\\phantomsection\n\\addcontentsline{toc}{section}{Glosario}\n\n")
	assert.Contains(t, gl, "\\entradaGlosario{MW}{Megawatt}\n")
	assert.NotContains(t, gl, "Sin definición")

	assert.Contains(t, e.Acronyms([]records.Term{{Term: "CFE", Definition: "Comisión"}}), "\\entradaSigla{CFE}{Comisión}\n")
	assert.Equal(t, "\\printbibliography\n\n", e.Bibliography([]records.BibEntry{{Key: "a"}}))

	facts := e.KeyFacts("Datos Clave", []string{"Uno", "Dos"})
	assert.Contains(t, facts, "\\begin{itemize}\n  \\item Uno\n  \\item Dos\n\\end{itemize}\n")

	assert.Equal(t, "\\contraportada[fin.png]{\nTexto\n}\n", e.BackCoverPage(records.Document{BackCoverImage: "fin.png"}, "Texto"))
	assert.Equal(t, "\\paginacreditos{\nX\n}\n", e.DirectoryPage("X"))
	assert.Equal(t, "\n\\end{document}\n", e.End())
}
