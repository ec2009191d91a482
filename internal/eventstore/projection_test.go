package eventstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(ev *BaseEvent, ts time.Time) *BaseEvent {
	ev.EventTimestamp = ts
	return ev
}

func mustEvent(t *testing.T) func(*BaseEvent, error) *BaseEvent {
	return func(ev *BaseEvent, err error) *BaseEvent {
		t.Helper()
		require.NoError(t, err)
		return ev
	}
}

func TestProjectionLifecycle(t *testing.T) {
	must := mustEvent(t)
	base := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	p := NewBuildHistoryProjection(newMemoryStore(t), 10)

	p.Apply(at(must(NewBuildStarted("b1", BuildStartedPayload{DocumentID: "DOC1", Formats: []string{"latex"}, Trigger: "schedule"})), base))
	active := p.GetActiveBuild()
	require.NotNil(t, active)
	assert.Equal(t, "b1", active.BuildID)
	assert.Equal(t, StatusRunning, active.Status)

	p.Apply(at(must(NewDocumentCompiled("b1", DocumentCompiledPayload{Format: "latex", Bytes: 100})), base.Add(time.Second)))
	p.Apply(at(must(NewBuildCompleted("b1", BuildCompletedPayload{
		Artifacts:   map[string]string{"informe.tex": "abc"},
		Diagnostics: map[string]int{"UnusedFigure": 1},
	})), base.Add(2*time.Second)))

	assert.Nil(t, p.GetActiveBuild())
	last := p.GetLastCompletedBuild()
	require.NotNil(t, last)
	assert.Equal(t, StatusSuccess, last.Status)
	assert.Equal(t, "DOC1", last.DocumentID)
	assert.Equal(t, "schedule", last.Trigger)
	assert.Equal(t, 1, last.Documents)
	assert.Equal(t, 2*time.Second, last.Duration)
	assert.Equal(t, "abc", last.Artifacts["informe.tex"])
}

func TestProjectionFailureSkipAndCancel(t *testing.T) {
	must := mustEvent(t)
	base := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	p := NewBuildHistoryProjection(newMemoryStore(t), 10)

	p.Apply(at(must(NewBuildStarted("failed", BuildStartedPayload{})), base))
	p.Apply(at(must(NewBuildFailed("failed", BuildFailedPayload{Stage: "load", Error: "boom"})), base.Add(time.Second)))
	p.Apply(at(must(NewBuildStarted("skipped", BuildStartedPayload{})), base.Add(time.Minute)))
	p.Apply(at(must(NewBuildSkipped("skipped", BuildSkippedPayload{Reason: "unchanged"})), base.Add(time.Minute)))
	p.Apply(at(must(NewBuildStarted("cancelled", BuildStartedPayload{})), base.Add(2*time.Minute)))
	p.Apply(at(must(NewBuildFailed("cancelled", BuildFailedPayload{Stage: "compile", Canceled: true})), base.Add(2*time.Minute)))

	history := p.GetHistory()
	require.Len(t, history, 3)
	assert.Equal(t, StatusCancelled, history[0].Status)
	assert.Equal(t, StatusSkipped, history[1].Status)
	assert.Equal(t, "unchanged", history[1].SkipReason)
	assert.Equal(t, StatusFailed, history[2].Status)
	assert.Equal(t, "load", history[2].ErrorStage)
	assert.Equal(t, "boom", history[2].ErrorMessage)
}

func TestProjectionBoundsHistory(t *testing.T) {
	must := mustEvent(t)
	base := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	p := NewBuildHistoryProjection(newMemoryStore(t), 2)

	for i, id := range []string{"a", "b", "c"} {
		ts := base.Add(time.Duration(i) * time.Minute)
		p.Apply(at(must(NewBuildStarted(id, BuildStartedPayload{})), ts))
		p.Apply(at(must(NewBuildCompleted(id, BuildCompletedPayload{})), ts.Add(time.Second)))
	}

	history := p.GetHistory()
	require.Len(t, history, 2)
	assert.Equal(t, "c", history[0].BuildID)
	_, ok := p.GetBuild("a")
	assert.False(t, ok)
}

func TestHistoryRebuildFromStore(t *testing.T) {
	must := mustEvent(t)
	path := t.TempDir() + "/history.db"
	ctx := t.Context()
	base := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)

	h, err := OpenHistory(ctx, path, 10)
	require.NoError(t, err)
	require.NoError(t, h.Record(ctx, at(must(NewBuildStarted("old", BuildStartedPayload{DocumentID: "D"})), base)))
	require.NoError(t, h.Record(ctx, at(must(NewBuildCompleted("old", BuildCompletedPayload{})), base.Add(time.Second))))
	require.NoError(t, h.Record(ctx, at(must(NewBuildStarted("new", BuildStartedPayload{DocumentID: "D"})), base.Add(time.Hour))))
	require.NoError(t, h.Record(ctx, at(must(NewBuildFailed("new", BuildFailedPayload{Stage: "write"})), base.Add(time.Hour+time.Second))))
	require.NoError(t, h.Close())

	reopened, err := OpenHistory(ctx, path, 10)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	history := reopened.Projection().GetHistory()
	require.Len(t, history, 2)
	assert.Equal(t, "new", history[0].BuildID)
	assert.Equal(t, StatusFailed, history[0].Status)
	assert.Equal(t, "old", history[1].BuildID)
	assert.False(t, reopened.Projection().LastSyncTime().IsZero())

	events, err := reopened.Events(ctx, "old")
	require.NoError(t, err)
	assert.Len(t, events, 2)
}
