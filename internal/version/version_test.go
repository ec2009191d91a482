package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	assert.Equal(t, "texbuilder unknown (commit unknown, built unknown)", String())

	old := Version
	t.Cleanup(func() { Version = old })
	Version = "v0.4.0"
	assert.Contains(t, String(), "texbuilder v0.4.0 ")
}
