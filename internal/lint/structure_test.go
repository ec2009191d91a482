package lint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/texbuilder/internal/records"
)

func issuesByRule(issues []Issue, rule string) []Issue {
	var out []Issue
	for _, i := range issues {
		if i.Rule == rule {
			out = append(out, i)
		}
	}
	return out
}

func TestStructureDocumentRequired(t *testing.T) {
	res := NewLinter(nil).Lint(records.Set{})
	got := issuesByRule(res.Issues, "document-required")
	require.Len(t, got, 2)
	assert.True(t, res.HasErrors())
}

func TestStructureSectionOrders(t *testing.T) {
	set := records.Set{
		Document: records.Document{ID: "D", Title: "T"},
		Sections: []records.Section{
			{Order: "1", Level: "Portada", Title: "Parte uno"},
			{Order: "1", Level: "Sección", Title: "Introducción"},
			{Order: "2", Level: "Sección", Title: "Diagnóstico"},
			{Order: "2.0", Level: "Sección", Title: "Duplicada"},
			{Order: "", Level: "Sección", Title: "Sin orden"},
		},
	}
	got := issuesByRule(NewLinter(nil).Lint(set).Issues, "section-order")
	require.Len(t, got, 2)
	assert.Equal(t, SeverityError, got[0].Severity)
	assert.Contains(t, got[0].Message, "Duplicada")
	assert.Equal(t, SeverityWarning, got[1].Severity)
}

func TestStructureFloats(t *testing.T) {
	set := records.Set{
		Document: records.Document{ID: "D", Title: "T"},
		Sections: []records.Section{{Order: "2", Level: "Sección", Body: "[[figura:FIG-2-1]]"}},
		Figures: []records.Figure{
			{Order: "1", SectionOrder: "2"},
			{Order: "2", SectionOrder: "7"},
		},
		Tables: []records.Table{{Order: "1"}},
	}
	issues := NewLinter(nil).Lint(set).Issues

	owners := issuesByRule(issues, "float-section")
	require.Len(t, owners, 2)
	assert.Equal(t, "Figuras[FIG-7-2]", owners[0].Location)
	assert.Equal(t, "Tablas[TBL-1]", owners[1].Location)

	unused := issuesByRule(issues, "float-unreferenced")
	require.Len(t, unused, 2)
	assert.Contains(t, unused[0].Message, "FIG-7-2")
	assert.Contains(t, unused[1].Message, "TBL-1")
}

func TestLinterQuiet(t *testing.T) {
	set := records.Set{
		Document: records.Document{ID: "D", Title: "T"},
		Sections: []records.Section{{Order: "1", Body: "[[info]]\nx\n[[/info]]\n[[caja]]"}},
	}
	res := NewLinter(&Config{Quiet: true}).Lint(set)
	require.Len(t, res.Issues, 1)
	assert.Equal(t, "block-balance", res.Issues[0].Rule)
	assert.Equal(t, 1, res.FieldsTotal)
}
