package commands

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/texbuilder/internal/build"
	"git.home.luguber.info/inful/texbuilder/internal/config"
	"git.home.luguber.info/inful/texbuilder/internal/eventstore"
	"git.home.luguber.info/inful/texbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/texbuilder/internal/records"
)

func writeWorkbook(t *testing.T, body string) string {
	t.Helper()
	wb := `
sheets:
  Documentos:
    - [ID, Título]
    - [PRG-01, Programa Sectorial]
  Secciones:
    - [DocumentoID, Orden, Nivel, Título, Contenido]
    - [PRG-01, "1", Sección, Introducción, ` + body + `]
    - [PRG-01, "2", Sección, Metas, "Texto limpio."]
`
	path := filepath.Join(t.TempDir(), "libro.yaml")
	require.NoError(t, os.WriteFile(path, []byte(wb), 0o600))
	return path
}

func TestLintCmd(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		format    string
		wantErr   bool
		wantInOut string
	}{
		{"clean text", `"Texto uno."`, "text", false, "Linting workbook:"},
		{"unterminated tag", `"Ver [[ejemplo sin cierre"`, "text", true, "tag-syntax"},
		{"json output", `"Ver [[ejemplo sin cierre"`, "json", true, `"rule": "tag-syntax"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			cmd := &LintCmd{Format: tt.format}
			err := cmd.run(&out, writeWorkbook(t, tt.body), "PRG-01")
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.HasCategory(err, errors.CategoryValidation))
				assert.Equal(t, 2, errors.NewCLIErrorAdapter(false, slog.Default()).ExitCodeFor(err))
			} else {
				require.NoError(t, err)
			}
			assert.Contains(t, out.String(), tt.wantInOut)
		})
	}
}

func TestLintCmd_Fix(t *testing.T) {
	var out bytes.Buffer
	cmd := &LintCmd{Format: "text", Fix: true}
	require.NoError(t, cmd.run(&out, writeWorkbook(t, `"uno  \n\n\n\ndos"`), "PRG-01"))

	var got struct {
		Sections []records.Section `yaml:"sections"`
	}
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &got))
	require.Len(t, got.Sections, 1)
	assert.Equal(t, "1", got.Sections[0].Order)
	assert.Equal(t, "uno\n\ndos", got.Sections[0].Body)

	out.Reset()
	require.NoError(t, cmd.run(&out, writeWorkbook(t, `"ya limpio"`), "PRG-01"))
	assert.Contains(t, out.String(), "no section needs normalization")
}

func TestLintCmd_MissingWorkbook(t *testing.T) {
	err := (&LintCmd{Format: "text"}).run(&bytes.Buffer{}, filepath.Join(t.TempDir(), "nope.yaml"), "")
	require.Error(t, err)
}

func TestBuildCmd_Apply(t *testing.T) {
	cfg := config.Default()
	cmd := &BuildCmd{Document: "PRG-02", Output: "out", Format: []string{"md", "latex"}}
	require.NoError(t, cmd.apply(cfg))
	assert.Equal(t, "PRG-02", cfg.Input.DocumentID)
	assert.Equal(t, "out", cfg.Output.Directory)
	assert.Equal(t, []config.Format{config.FormatMarkdown, config.FormatLaTeX}, cfg.Output.Formats)

	err := (&BuildCmd{Format: []string{"docx"}}).apply(cfg)
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryValidation))
}

func TestPrintResult(t *testing.T) {
	tests := []struct {
		name string
		res  *build.Result
		want []string
	}{
		{"nil", nil, nil},
		{"skipped", &build.Result{Status: build.StatusSkipped, SkipReason: "inputs unchanged"}, []string{"Build skipped: inputs unchanged"}},
		{"failed", &build.Result{Status: build.StatusFailed, BuildID: "b1"}, []string{"Build failed (b1)"}},
		{"success", &build.Result{
			Status:   build.StatusSuccess,
			BuildID:  "b2",
			Duration: 1500 * time.Millisecond,
			Outputs:  []build.Output{{Format: "latex", Path: "salida/programa.tex", Bytes: 42}},
			Archive:  "salida/programa.tar.xz",
		}, []string{"Build success in 1.5s (b2)", "salida/programa.tex (42 bytes, 0 diagnostics)", "archive  salida/programa.tar.xz"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			printResult(&out, tt.res)
			if tt.want == nil {
				assert.Empty(t, out.String())
			}
			for _, w := range tt.want {
				assert.Contains(t, out.String(), w)
			}
		})
	}
}

func TestWriteHistory(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, writeHistory(&out, nil))
	assert.Equal(t, "No builds recorded\n", out.String())

	out.Reset()
	require.NoError(t, writeHistory(&out, []eventstore.BuildSummary{
		{BuildID: "b2", Status: eventstore.StatusFailed, DocumentID: "PRG-01", Trigger: "cli", ErrorStage: "load", ErrorMessage: "workbook not found"},
		{BuildID: "b1", Status: eventstore.StatusSkipped, DocumentID: "PRG-01", Trigger: "schedule", SkipReason: "inputs unchanged"},
	}))
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "STARTED"))
	assert.Contains(t, lines[1], "load: workbook not found")
	assert.Contains(t, lines[2], "inputs unchanged")
}

func TestNewLogger(t *testing.T) {
	var out bytes.Buffer
	logger := newLogger(&out, config.LoggingConfig{Level: config.LogLevelWarn, Format: config.LogFormatJSON}, false)
	logger.Info("hidden")
	logger.Warn("shown", slog.String("document_id", "PRG-01"))

	var rec map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &rec))
	assert.Equal(t, "shown", rec["msg"])
	assert.Equal(t, "PRG-01", rec["document_id"])

	out.Reset()
	newLogger(&out, config.LoggingConfig{}, true).Debug("debug line")
	assert.Contains(t, out.String(), "level=DEBUG")
}
