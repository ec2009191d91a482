package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder_DocumentContext(t *testing.T) {
	err := InputError("document record is missing a title").
		ForDocument("PRG-01").
		Field("title").
		Build()

	assert.Equal(t, CategoryInput, err.Category())
	assert.True(t, err.IsFatal())
	assert.False(t, err.CanRetry())
	assert.Equal(t, "PRG-01", err.DocumentID())
	field, ok := err.Context().GetString(KeyField)
	require.True(t, ok)
	assert.Equal(t, "title", field)
	assert.Equal(t, "[input:fatal] document record is missing a title", err.Error())
}

func TestBuilder_ForDocumentIgnoresEmptyID(t *testing.T) {
	err := InputError("document record has no identifier").ForDocument("").Field("id").Build()
	_, ok := err.Context().Get(KeyDocumentID)
	assert.False(t, ok)
	assert.Empty(t, err.DocumentID())
}

func TestConvenienceConstructors(t *testing.T) {
	tests := []struct {
		name     string
		builder  *ErrorBuilder
		category ErrorCategory
		severity ErrorSeverity
		retry    bool
	}{
		{"ConfigError", ConfigError("x"), CategoryConfig, SeverityFatal, false},
		{"ValidationError", ValidationError("x"), CategoryValidation, SeverityFatal, false},
		{"AuthError", AuthError("x"), CategoryAuth, SeverityError, false},
		{"NetworkError", NetworkError("x"), CategoryNetwork, SeverityError, true},
		{"InputError", InputError("x"), CategoryInput, SeverityFatal, false},
		{"NotFoundError", NotFoundError("x"), CategoryNotFound, SeverityError, false},
		{"GitError", GitError("x"), CategoryGit, SeverityError, true},
		{"BuildError", BuildError("x"), CategoryBuild, SeverityFatal, false},
		{"CompileError", CompileError("x"), CategoryCompile, SeverityError, false},
		{"FileSystemError", FileSystemError("x"), CategoryFileSystem, SeverityError, true},
		{"EventStoreError", EventStoreError("x"), CategoryEventStore, SeverityError, false},
		{"RuntimeError", RuntimeError("x"), CategoryRuntime, SeverityFatal, false},
		{"DaemonError", DaemonError("x"), CategoryDaemon, SeverityFatal, false},
		{"InternalError", InternalError("x"), CategoryInternal, SeverityFatal, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.builder.Build()
			assert.Equal(t, tt.category, err.Category())
			assert.Equal(t, tt.severity, err.Severity())
			assert.Equal(t, tt.retry, err.CanRetry())
		})
	}
}

func TestWrapError(t *testing.T) {
	cause := errors.New("disk full")
	err := WrapError(cause, CategoryFileSystem, "failed to write output").
		WithContext(KeyPath, "salida/programa.tex").
		Build()

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, cause, err.Cause())
	assert.Equal(t, "[filesystem:error] failed to write output: disk full", err.Error())
}

func TestAsClassifiedFindsWrappedError(t *testing.T) {
	inner := InputError("document record is missing a title").ForDocument("DOC-1").Build()
	wrapped := fmt.Errorf("compile: %w", inner)

	got, ok := AsClassified(wrapped)
	require.True(t, ok)
	assert.Equal(t, "DOC-1", got.DocumentID())
	assert.True(t, HasCategory(wrapped, CategoryInput))
	assert.False(t, HasCategory(wrapped, CategoryCompile))
	assert.Equal(t, CategoryInput, GetCategory(wrapped))
	assert.Equal(t, CategoryInternal, GetCategory(errors.New("plain")))
}

func TestIsMatchesCategoryAndMessage(t *testing.T) {
	sentinel := NewError(CategoryAlreadyExists, "a build is already running").Build()
	same := NewError(CategoryAlreadyExists, "a build is already running").Build()
	other := NewError(CategoryDaemon, "a build is already running").Build()

	assert.ErrorIs(t, fmt.Errorf("api: %w", same), sentinel)
	assert.NotErrorIs(t, other, sentinel)
}

func TestErrorContextKeysSorted(t *testing.T) {
	ctx := ErrorContext{}.Set("path", "a").Set("document_id", "b").Set("field", "c")
	assert.Equal(t, []string{"document_id", "field", "path"}, ctx.Keys())

	var empty ErrorContext
	_, ok := empty.Get("x")
	assert.False(t, ok)
	assert.Empty(t, empty.Keys())
}
