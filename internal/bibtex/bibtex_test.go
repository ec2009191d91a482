package bibtex

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"git.home.luguber.info/inful/texbuilder/internal/records"
)

func TestRender(t *testing.T) {
	got := Render([]records.BibEntry{
		{Key: "sener2024", Type: "Report", Author: "SENER", Title: "Balance & perspectivas", Year: "2024", URL: "https://www.gob.mx/sener_datos"},
		{Key: " ", Title: "sin clave"},
		{Key: "cfe", Title: "Informe anual"},
	})

	want := "@report{sener2024,\n" +
		"  author = {SENER},\n" +
		"  title = {Balance \\& perspectivas},\n" +
		"  year = {2024},\n" +
		"  url = {https://www.gob.mx/sener_datos}\n" +
		"}\n\n" +
		"@misc{cfe,\n" +
		"  title = {Informe anual}\n" +
		"}\n\n"
	assert.Equal(t, want, got)
}

func TestRenderEmpty(t *testing.T) {
	assert.Empty(t, Render(nil))
}
