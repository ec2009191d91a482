package markdown

import (
	"strings"
	"testing"

	"github.com/inful/mdfp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	xhtml "golang.org/x/net/html"

	"git.home.luguber.info/inful/texbuilder/internal/compiler"
	"git.home.luguber.info/inful/texbuilder/internal/emitter"
	"git.home.luguber.info/inful/texbuilder/internal/records"
	"git.home.luguber.info/inful/texbuilder/internal/refs"
)

func sampleSet() records.Set {
	return records.Set{
		Document: records.Document{
			ID: "PRG-01", Title: "Programa Sectorial", Author: "SENER",
			Date: "05/03/2025", Keywords: "energía, México",
		},
		Sections: []records.Section{
			{Order: "1", Level: "Sección", Title: "Diagnóstico", Body: "Texto con *asterisco*.\n- Uno\n- Dos\n\n[[alerta:Cuidado]]\nTexto importante\n[[/alerta]]\n[[tabla:TBL-1-1]]"},
		},
		Tables: []records.Table{{
			Order: "1", SectionOrder: "1", Title: "Generación",
			Data: [][]string{{"Fuente", "MW"}, {"Solar", "120"}, {"Eólica|mar", "80"}},
		}},
	}
}

func TestEscape(t *testing.T) {
	assert.Equal(t, `a\*b\_c \[x\] \# \| \<y\>`, Escape("a*b_c [x] # | <y>"))
}

func TestRenderInline(t *testing.T) {
	e := New()
	ix := refs.BuildIndexes([]records.Figure{{Order: "1", SectionOrder: "2", Caption: "Mapa"}}, nil, nil)

	tests := []struct {
		name, in, want string
	}{
		{"gold", "[[dorado:oro]] y más", "**oro** y más"},
		{"math kept", "costo $x_1$", "costo $x_1$"},
		{"cite", "[[cita:sener2024]]", "[@sener2024]"},
		{"resolved", "[[figura:FIG-2-1]]", "[Figura FIG-2-1: Mapa](#fig-fig-2-1)"},
		{"unresolved", "[[tabla:TBL-9]]", "**Tabla TBL-9**"},
		{"note", "dato[[nota:preliminar]]", "dato(preliminar)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.RenderInline(tt.in, ix))
		})
	}
}

func TestWrapBlock(t *testing.T) {
	e := New()
	got := e.WrapBlock(emitter.BlockAlert, "Cuidado", "Texto importante\n")
	assert.Equal(t, "> **Alerta: Cuidado**\n>\n> Texto importante\n\n", got)
}

func TestTable(t *testing.T) {
	e := New()
	ix := refs.BuildIndexes(nil, []records.Table{{Order: "3", Title: "T", Data: [][]string{{"a", "b"}, {"1"}}}}, nil)
	out := e.Table(ix.Tables.All()[0])
	assert.Contains(t, out, `<a id="tab-tbl-3"></a>`)
	assert.Contains(t, out, "**Tabla TBL-3: T**")
	assert.Contains(t, out, "| a | b |\n| --- | --- |\n| 1 |  |\n")
}

func TestFinalizeFingerprint(t *testing.T) {
	res, err := compiler.Compile(sampleSet(), compiler.Options{Emitter: New()})
	require.NoError(t, err)

	require.True(t, strings.HasPrefix(res.Text, "---\n"))
	fields, body, err := Split(res.Text)
	require.NoError(t, err)
	assert.Equal(t, "PRG-01", fields["document_id"])
	assert.Equal(t, []any{"energía", "México"}, fields["keywords"])
	assert.NotEmpty(t, fields[mdfp.FingerprintField])
	assert.True(t, strings.HasPrefix(body, "# Programa Sectorial\n"))

	ok, err := Verify(res.Text)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Verify(strings.Replace(res.Text, "Texto importante", "Texto cambiado", 1))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSplitErrors(t *testing.T) {
	fields, body, err := Split("# Sin frontmatter\n")
	require.NoError(t, err)
	assert.Nil(t, fields)
	assert.Equal(t, "# Sin frontmatter\n", body)

	_, _, err = Split("---\ntitle: x\n")
	assert.ErrorIs(t, err, ErrMissingClosingDelimiter)
}

func findAll(n *xhtml.Node, tag string) []*xhtml.Node {
	var out []*xhtml.Node
	var walk func(*xhtml.Node)
	walk = func(n *xhtml.Node) {
		if n.Type == xhtml.ElementNode && n.Data == tag {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}

func textOf(n *xhtml.Node) string {
	var b strings.Builder
	var walk func(*xhtml.Node)
	walk = func(n *xhtml.Node) {
		if n.Type == xhtml.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

func TestHTMLDialect(t *testing.T) {
	res, err := compiler.Compile(sampleSet(), compiler.Options{Emitter: NewHTML()})
	require.NoError(t, err)

	doc, err := xhtml.Parse(strings.NewReader(res.Text))
	require.NoError(t, err)

	htmlNodes := findAll(doc, "html")
	require.Len(t, htmlNodes, 1)
	assert.Contains(t, htmlNodes[0].Attr, xhtml.Attribute{Key: "lang", Val: "es-MX"})

	titles := findAll(doc, "title")
	require.Len(t, titles, 1)
	assert.Equal(t, "Programa Sectorial", textOf(titles[0]))

	h1 := findAll(doc, "h1")
	require.NotEmpty(t, h1)
	assert.Equal(t, "Programa Sectorial", textOf(h1[0]))

	tables := findAll(doc, "table")
	require.Len(t, tables, 1)
	cells := findAll(tables[0], "td")
	require.Len(t, cells, 4)
	assert.Equal(t, "Eólica|mar", textOf(cells[2]))

	quotes := findAll(doc, "blockquote")
	require.Len(t, quotes, 1)
	assert.Contains(t, textOf(quotes[0]), "Alerta: Cuidado")
	assert.Contains(t, textOf(quotes[0]), "Texto importante")

	items := findAll(doc, "li")
	assert.Len(t, items, 2)
	assert.Contains(t, res.Text, "<em>", "escaped asterisks are literal, so only the date byline is emphasized")
	assert.Contains(t, res.Text, "*asterisco*")
}

func TestHTMLDialectKeepsSectionTextInert(t *testing.T) {
	set := records.Set{
		Document: records.Document{ID: "PRG-01", Title: "Programa"},
		Sections: []records.Section{{
			Order: "1", Level: "Sección", Title: "Costos",
			Body: "Costo $<img src=x onerror=alert(1)>$ y [[cita:<script>alert(2)</script>]]\n" +
				`Ecuación [[ecuacion:a<b>c]] y \(x<y\)` + "\n" +
				"[[figura:---><img src=x onerror=alert(4)>]]\n" +
				"[[figura:FIG-1-1]]\n[[figura:FIG-1-2]]",
		}},
		Figures: []records.Figure{
			{Order: "1", SectionOrder: "1", Caption: "Mapa", Path: "img/mapa.png"},
			{Order: "2", SectionOrder: "1", Caption: "Plano", Path: "x)<img\tsrc=y\tonerror=alert(5)>"},
		},
		Bibliography: []records.BibEntry{
			{Key: "k1", Author: "INEGI", URL: "javascript:alert(3)"},
			{Key: "k2", Author: "SENER", URL: "https://www.gob.mx/sener"},
		},
	}
	res, err := compiler.Compile(set, compiler.Options{Emitter: NewHTML()})
	require.NoError(t, err)

	doc, err := xhtml.Parse(strings.NewReader(res.Text))
	require.NoError(t, err)

	assert.Empty(t, findAll(doc, "script"))
	var srcs []string
	for _, img := range findAll(doc, "img") {
		for _, a := range img.Attr {
			assert.NotEqual(t, "onerror", a.Key)
			if a.Key == "src" {
				srcs = append(srcs, a.Val)
			}
		}
	}
	assert.Equal(t, []string{"img/mapa.png", "x%29%3Cimg%09src=y%09onerror=alert%285%29%3E"}, srcs)
	for _, a := range findAll(doc, "a") {
		for _, attr := range a.Attr {
			if attr.Key == "href" {
				assert.NotContains(t, strings.ToLower(attr.Val), "javascript:")
			}
		}
	}

	assert.Contains(t, res.Text, "<!-- Referencia a figura: img src=x onerror=alert(4) -->")

	body := textOf(findAll(doc, "article")[0])
	assert.Contains(t, body, "$<img src=x onerror=alert(1)>$")
	assert.Contains(t, body, "[@<script>alert(2)</script>]")
}

func TestUnresolvedCommentText(t *testing.T) {
	e := New()
	assert.Equal(t, "<!-- Referencia a figura: FIG-9-9 -->\n", e.Unresolved(refs.KindFigure, "FIG-9-9"))
	assert.Equal(t, "<!-- Referencia a tabla: a-b -->\n", e.Unresolved(refs.KindTable, "a--->b--"))
}

func TestImageDestinationIsEncoded(t *testing.T) {
	assert.Equal(t, "img/mapa%20nuevo.png", destination("img/mapa nuevo.png"))
	assert.Equal(t, "dir/x%29%3Cimg%09y%3E", destination(`dir\x)<img`+"\t"+`y>`))
}

func TestAnchorIsSlug(t *testing.T) {
	assert.Equal(t, "fig-fig-2-1", anchor(refs.KindFigure, "FIG-2-1"))
	assert.Equal(t, "tab-a--onclick-x", anchor(refs.KindTable, `a"-onclick=x`))
}
