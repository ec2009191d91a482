package eventstore

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"
)

// BuildSummary is a read model of one build.
type BuildSummary struct {
	BuildID      string            `json:"build_id"`
	DocumentID   string            `json:"document_id,omitempty"`
	Trigger      string            `json:"trigger,omitempty"`
	Status       string            `json:"status"`
	StartedAt    time.Time         `json:"started_at"`
	CompletedAt  *time.Time        `json:"completed_at,omitempty"`
	Duration     time.Duration     `json:"duration,omitempty"`
	Formats      []string          `json:"formats,omitempty"`
	Documents    int               `json:"documents"`
	Diagnostics  map[string]int    `json:"diagnostics,omitempty"`
	Artifacts    map[string]string `json:"artifacts,omitempty"`
	Commit       string            `json:"commit,omitempty"`
	ErrorStage   string            `json:"error_stage,omitempty"`
	ErrorMessage string            `json:"error_message,omitempty"`
	SkipReason   string            `json:"skip_reason,omitempty"`
}

// BuildHistoryProjection maintains an in-memory view of build history,
// reconstructed from the event store and kept current through Apply.
type BuildHistoryProjection struct {
	mu       sync.RWMutex
	store    Store
	builds   map[string]*BuildSummary
	history  []*BuildSummary // finished builds, newest first
	maxSize  int
	lastSync time.Time
}

// NewBuildHistoryProjection creates a projection backed by store.
func NewBuildHistoryProjection(store Store, maxHistorySize int) *BuildHistoryProjection {
	if maxHistorySize <= 0 {
		maxHistorySize = 100
	}
	return &BuildHistoryProjection{
		store:   store,
		builds:  make(map[string]*BuildSummary),
		maxSize: maxHistorySize,
	}
}

// Rebuild reconstructs the projection from every stored event.
func (p *BuildHistoryProjection) Rebuild(ctx context.Context) error {
	events, err := p.store.GetRange(ctx, time.Time{}, time.Now().Add(time.Hour))
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.builds = make(map[string]*BuildSummary)
	p.history = nil
	for _, ev := range events {
		p.applyLocked(ev)
	}
	sort.SliceStable(p.history, func(i, j int) bool {
		return p.history[i].StartedAt.After(p.history[j].StartedAt)
	})
	p.trimLocked()
	p.lastSync = time.Now()
	return nil
}

// Apply folds a single event into the projection.
func (p *BuildHistoryProjection) Apply(ev Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.applyLocked(ev)
	p.trimLocked()
}

func (p *BuildHistoryProjection) applyLocked(ev Event) {
	buildID := ev.BuildID()
	if buildID == "" {
		return
	}
	summary, ok := p.builds[buildID]
	if !ok {
		summary = &BuildSummary{BuildID: buildID, Status: StatusRunning, StartedAt: ev.Timestamp()}
		p.builds[buildID] = summary
	}

	switch ev.Type() {
	case TypeBuildStarted:
		var payload BuildStartedPayload
		if json.Unmarshal(ev.Payload(), &payload) == nil {
			summary.DocumentID = payload.DocumentID
			summary.Trigger = payload.Trigger
			summary.Formats = payload.Formats
		}
		summary.StartedAt = ev.Timestamp()
		summary.Status = StatusRunning

	case TypeDocumentCompiled:
		summary.Documents++

	case TypeBuildCompleted:
		var payload BuildCompletedPayload
		if json.Unmarshal(ev.Payload(), &payload) == nil {
			summary.Artifacts = payload.Artifacts
			summary.Diagnostics = payload.Diagnostics
			summary.Commit = payload.Commit
		}
		p.finishLocked(summary, ev.Timestamp(), StatusSuccess)

	case TypeBuildFailed:
		status := StatusFailed
		var payload BuildFailedPayload
		if json.Unmarshal(ev.Payload(), &payload) == nil {
			summary.ErrorStage = payload.Stage
			summary.ErrorMessage = payload.Error
			if payload.Canceled {
				status = StatusCancelled
			}
		}
		p.finishLocked(summary, ev.Timestamp(), status)

	case TypeBuildSkipped:
		var payload BuildSkippedPayload
		if json.Unmarshal(ev.Payload(), &payload) == nil {
			summary.SkipReason = payload.Reason
		}
		p.finishLocked(summary, ev.Timestamp(), StatusSkipped)
	}
}

func (p *BuildHistoryProjection) finishLocked(summary *BuildSummary, at time.Time, status string) {
	summary.CompletedAt = &at
	summary.Duration = at.Sub(summary.StartedAt)
	summary.Status = status
	for _, h := range p.history {
		if h.BuildID == summary.BuildID {
			return
		}
	}
	p.history = append([]*BuildSummary{summary}, p.history...)
}

// trimLocked bounds history and drops finished builds that fell out of it.
func (p *BuildHistoryProjection) trimLocked() {
	if len(p.history) > p.maxSize {
		p.history = p.history[:p.maxSize]
	}
	keep := make(map[string]struct{}, len(p.history))
	for _, h := range p.history {
		keep[h.BuildID] = struct{}{}
	}
	for id, summary := range p.builds {
		if summary.Status == StatusRunning {
			continue
		}
		if _, ok := keep[id]; !ok {
			delete(p.builds, id)
		}
	}
}

// GetHistory returns finished builds, newest first.
func (p *BuildHistoryProjection) GetHistory() []BuildSummary {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]BuildSummary, len(p.history))
	for i, h := range p.history {
		out[i] = *h
	}
	return out
}

// GetBuild returns a copy of the summary for buildID.
func (p *BuildHistoryProjection) GetBuild(buildID string) (*BuildSummary, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	summary, ok := p.builds[buildID]
	if !ok {
		return nil, false
	}
	cp := *summary
	return &cp, true
}

// GetActiveBuild returns a currently running build if any.
func (p *BuildHistoryProjection) GetActiveBuild() *BuildSummary {
	p.mu.RLock()
	defer p.mu.RUnlock()

	for _, summary := range p.builds {
		if summary.Status == StatusRunning {
			cp := *summary
			return &cp
		}
	}
	return nil
}

// GetLastCompletedBuild returns the most recently finished build.
func (p *BuildHistoryProjection) GetLastCompletedBuild() *BuildSummary {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if len(p.history) == 0 {
		return nil
	}
	cp := *p.history[0]
	return &cp
}

// LastSyncTime returns when the projection was last rebuilt.
func (p *BuildHistoryProjection) LastSyncTime() time.Time {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lastSync
}
