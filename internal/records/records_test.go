package records

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseOrder(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"1", 1},
		{" 2.5 ", 2.5},
		{"10", 10},
		{"", 0},
		{"abc", 0},
		{"3a", 3},
		{"-1", -1},
		{".5", 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.InDelta(t, tt.want, ParseOrder(tt.in), 1e-9)
		})
	}
}

func TestSortSectionsIsStableAndTreatsMissingAsZero(t *testing.T) {
	in := []Section{
		{Order: "3", Title: "C"},
		{Order: "", Title: "missing"},
		{Order: "1", Title: "A"},
		{Order: "x", Title: "non-numeric"},
		{Order: "1", Title: "A2"},
		{Order: "2", Title: "B"},
	}

	got := SortSections(in)

	titles := make([]string, len(got))
	for i, s := range got {
		titles[i] = s.Title
	}
	assert.Equal(t, []string{"missing", "non-numeric", "A", "A2", "B", "C"}, titles)
	assert.Equal(t, "C", in[0].Title, "input must not be reordered")
}

func TestForDocument(t *testing.T) {
	set := Set{
		Document: Document{ID: "DOC-1"},
		Sections: []Section{
			{DocumentID: "DOC-1", Title: "mine"},
			{DocumentID: "DOC-2", Title: "other"},
			{Title: "shared"},
		},
		Figures:  []Figure{{DocumentID: "DOC-2"}, {DocumentID: " DOC-1 "}},
		Acronyms: []Term{{DocumentID: "DOC-1", Term: "SENER"}},
	}

	got := ForDocument(set, "DOC-1")
	assert.Len(t, got.Sections, 2)
	assert.Equal(t, "mine", got.Sections[0].Title)
	assert.Equal(t, "shared", got.Sections[1].Title)
	assert.Len(t, got.Figures, 1)
	assert.Len(t, got.Acronyms, 1)
}

func TestFileStem(t *testing.T) {
	assert.Equal(t, "documento", Document{}.FileStem())
	assert.Equal(t, "PRODESEN", Document{ShortName: " PRODESEN "}.FileStem())
}

func TestFileStemStaysInsideOutputDirectory(t *testing.T) {
	tests := []struct {
		short string
		want  string
	}{
		{"../fuera", "__fuera"},
		{"Informe 1/2", "Informe 1_2"},
		{`..\..\win`, "____win"},
		{"/etc/passwd", "_etc_passwd"},
		{"..", "_"},
		{" . ", "documento"},
		{"v1.2", "v1.2"},
	}
	for _, tt := range tests {
		t.Run(tt.short, func(t *testing.T) {
			got := Document{ShortName: tt.short}.FileStem()
			assert.Equal(t, tt.want, got)
			assert.True(t, filepath.IsLocal(got+".tex"))
		})
	}
}
