package markdown

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
	xhtml "golang.org/x/net/html"

	"git.home.luguber.info/inful/texbuilder/internal/records"
)

// HTMLEmitter renders the Markdown dialect and converts the result to a
// standalone HTML page.
type HTMLEmitter struct {
	Emitter
	md goldmark.Markdown
}

// NewHTML returns an HTML emitter.
func NewHTML() *HTMLEmitter {
	return &HTMLEmitter{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(html.WithUnsafe()),
		),
	}
}

func (e *HTMLEmitter) Name() string      { return "html" }
func (e *HTMLEmitter) Extension() string { return ".html" }

// Finalize converts the Markdown body and wraps it in a page.
func (e *HTMLEmitter) Finalize(doc records.Document, text string) (string, error) {
	var body bytes.Buffer
	if err := e.md.Convert([]byte(text), &body); err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html lang=\"es-MX\">\n<head>\n<meta charset=\"utf-8\">\n")
	b.WriteString("<title>" + xhtml.EscapeString(strings.TrimSpace(doc.Title)) + "</title>\n")
	if k := strings.TrimSpace(doc.Keywords); k != "" {
		b.WriteString("<meta name=\"keywords\" content=\"" + xhtml.EscapeString(k) + "\">\n")
	}
	b.WriteString("</head>\n<body>\n<article>\n")
	b.Write(body.Bytes())
	b.WriteString("</article>\n</body>\n</html>\n")
	return b.String(), nil
}
