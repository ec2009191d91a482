package diagnostics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewAndInfo(t *testing.T) {
	d := New(UnresolvedReference, "no figure with this ID", "id", "FIG-9-9", "kind", "figura")
	assert.Equal(t, SeverityWarning, d.Severity)
	assert.Equal(t, "FIG-9-9", d.Context["id"])
	assert.Equal(t, "UnresolvedReference: no figure with this ID (id=FIG-9-9, kind=figura)", d.String())

	i := Info(UnusedFigure, "figure never referenced")
	assert.Equal(t, SeverityInfo, i.Severity)
	assert.Nil(t, i.Context)
	assert.Equal(t, "UnusedFigure: figure never referenced", i.String())
}

func TestListCollects(t *testing.T) {
	var l List
	l.Report(New(MalformedBlock, "unterminated"))
	l.Report(Info(UnusedTable, "unused"))
	l.Report(New(MalformedBlock, "unterminated"))

	assert.Len(t, l.Items(), 3)
	assert.Equal(t, 2, l.Count(MalformedBlock))
	assert.Equal(t, 0, l.Count(EmptySectionSet))
	assert.True(t, HasWarnings(l.Items()))
	assert.False(t, HasWarnings([]Diagnostic{Info(UnusedFigure, "x")}))
	assert.Equal(t, map[Kind]int{MalformedBlock: 2, UnusedTable: 1}, CountByKind(l.Items()))
}
