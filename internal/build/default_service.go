package build

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/texbuilder/internal/archive"
	"git.home.luguber.info/inful/texbuilder/internal/bibtex"
	"git.home.luguber.info/inful/texbuilder/internal/compiler"
	"git.home.luguber.info/inful/texbuilder/internal/config"
	"git.home.luguber.info/inful/texbuilder/internal/diagnostics"
	"git.home.luguber.info/inful/texbuilder/internal/eventstore"
	"git.home.luguber.info/inful/texbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/texbuilder/internal/loader"
	"git.home.luguber.info/inful/texbuilder/internal/logfields"
	"git.home.luguber.info/inful/texbuilder/internal/manifest"
	"git.home.luguber.info/inful/texbuilder/internal/metrics"
	"git.home.luguber.info/inful/texbuilder/internal/observability"
	"git.home.luguber.info/inful/texbuilder/internal/publish"
	"git.home.luguber.info/inful/texbuilder/internal/records"
	"git.home.luguber.info/inful/texbuilder/internal/retry"
	"git.home.luguber.info/inful/texbuilder/internal/version"
)

const (
	BibliographyFile = "referencias.bib"
	DirectoryFile    = "directorio.tex"
	BackCoverFile    = "contraportada.tex"
)

// EventRecorder persists lifecycle events (eventstore.History).
type EventRecorder interface {
	Record(ctx context.Context, ev eventstore.Event) error
}

// Notifier forwards lifecycle events (notify.Publisher).
type Notifier interface {
	Notify(ctx context.Context, documentID string, ev eventstore.Event) error
}

// Publisher commits written outputs somewhere (publish.Publisher).
type Publisher interface {
	Publish(ctx context.Context, srcDir string, files []string, message string) (*publish.Result, error)
}

// PublisherFactory creates a Publisher from configuration.
type PublisherFactory func(cfg config.PublishConfig) Publisher

// DefaultService is the standard implementation of Service.
type DefaultService struct {
	recorder         metrics.Recorder
	history          EventRecorder
	notifier         Notifier
	publisherFactory PublisherFactory
	now              func() time.Time
}

// NewService creates a DefaultService with git publishing and no history.
func NewService() *DefaultService {
	return &DefaultService{
		recorder: metrics.NoopRecorder{},
		publisherFactory: func(cfg config.PublishConfig) Publisher {
			return publish.New(publish.Options{
				Repository:  cfg.Repository,
				URL:         cfg.URL,
				Branch:      cfg.Branch,
				Directory:   cfg.Directory,
				Push:        cfg.Push,
				Username:    cfg.Username,
				Token:       cfg.Token,
				AuthorName:  cfg.AuthorName,
				AuthorEmail: cfg.AuthorEmail,
				Retry:       retry.DefaultPolicy(),
			})
		},
		now: time.Now,
	}
}

// WithRecorder injects a metrics recorder.
func (s *DefaultService) WithRecorder(r metrics.Recorder) *DefaultService {
	if r != nil {
		s.recorder = r
	}
	return s
}

// WithHistory records lifecycle events in h.
func (s *DefaultService) WithHistory(h EventRecorder) *DefaultService {
	s.history = h
	return s
}

// WithNotifier forwards lifecycle events to n.
func (s *DefaultService) WithNotifier(n Notifier) *DefaultService {
	s.notifier = n
	return s
}

// WithPublisherFactory replaces the git publisher (for testing).
func (s *DefaultService) WithPublisherFactory(f PublisherFactory) *DefaultService {
	s.publisherFactory = f
	return s
}

// run carries the state of one Run call.
type run struct {
	svc    *DefaultService
	req    Request
	cfg    *config.Config
	result *Result
	docID  string
}

// Run executes the complete build pipeline.
func (s *DefaultService) Run(ctx context.Context, req Request) (*Result, error) {
	start := s.now()
	result := &Result{BuildID: uuid.NewString(), StartTime: start}
	ctx = observability.WithBuildID(ctx, result.BuildID)

	if req.Config == nil {
		return s.finish(ctx, &run{svc: s, req: req, result: result}, "config",
			errors.ConfigError("config required").Build())
	}
	if req.Trigger == "" {
		req.Trigger = TriggerCLI
	}
	r := &run{svc: s, req: req, cfg: req.Config, result: result}
	r.docID = strings.TrimSpace(req.DocumentID)
	if r.docID == "" {
		r.docID = strings.TrimSpace(req.Config.Input.DocumentID)
	}
	result.OutputDir = req.Config.Output.Directory
	if r.docID != "" {
		ctx = observability.WithDocumentID(ctx, r.docID)
	}

	s.emit(ctx, r, func() (*eventstore.BaseEvent, error) {
		return eventstore.NewBuildStarted(result.BuildID, eventstore.BuildStartedPayload{
			DocumentID: r.docID,
			Workbook:   r.cfg.Input.Workbook,
			Formats:    formatNames(r.cfg.Output.Formats),
			Trigger:    string(req.Trigger),
		})
	})
	observability.InfoContext(ctx, "Build started",
		logfields.Path(r.cfg.Input.Workbook),
		slog.String("trigger", string(req.Trigger)))

	// Stage 1: load
	set, loadDiags, err := r.stage(ctx, "load", func(ctx context.Context) (records.Set, []diagnostics.Diagnostic, error) {
		wb, err := loader.Load(r.cfg.Input.Workbook)
		if err != nil {
			return records.Set{}, nil, err
		}
		return wb.Records(r.docID)
	})
	if err != nil {
		return s.finish(ctx, r, "load", err)
	}
	if r.docID == "" {
		r.docID = set.Document.ID
		ctx = observability.WithDocumentID(ctx, r.docID)
	}
	result.DocumentID = set.Document.ID
	if err := compiler.Validate(set.Document); err != nil {
		return s.finish(ctx, r, "load", err)
	}

	// Stage 2: skip evaluation
	recordsHash, err := manifest.Fingerprint(fingerprintInput{
		Records:  set,
		Formats:  formatNames(r.cfg.Output.Formats),
		Compiler: r.cfg.Compiler,
		Version:  version.Version,
	})
	if err != nil {
		return s.finish(ctx, r, "fingerprint", err)
	}
	if r.cfg.Output.SkipUnchanged && !req.Force {
		if reason, skip := s.canSkip(r.cfg.Output.Directory, recordsHash); skip {
			return s.skip(ctx, r, reason, recordsHash)
		}
	}
	if err := ctx.Err(); err != nil {
		return s.finish(ctx, r, "compile", err)
	}

	// Stage 3: compile every format
	stageStart := s.now()
	sctx := observability.WithStage(ctx, "compile")
	compiled := make([]compiledOutput, 0, len(r.cfg.Output.Formats))
	all := append([]diagnostics.Diagnostic(nil), loadDiags...)
	for _, format := range r.cfg.Output.Formats {
		if err := ctx.Err(); err != nil {
			return s.finish(ctx, r, "compile", err)
		}
		out, ext, err := Emitter(format, r.cfg.Compiler)
		if err != nil {
			return s.finish(ctx, r, "compile", err)
		}
		formatStart := s.now()
		res, err := compiler.Compile(set, compiler.Options{Emitter: out, AutoPlace: r.cfg.Compiler.AutoPlace})
		if err != nil {
			s.recorder.IncStageResult("compile", metrics.ResultFatal)
			return s.finish(ctx, r, "compile", err)
		}
		compiled = append(compiled, compiledOutput{format: format, ext: ext, result: res, duration: s.now().Sub(formatStart)})
		all = append(all, res.Diagnostics...)
		s.recorder.ObserveOutputBytes(string(format), len(res.Text))
		observability.DebugContext(sctx, "Compiled format",
			logfields.Format(string(format)),
			logfields.Diagnostics(len(res.Diagnostics)))
	}
	result.Diagnostics = dedupe(all)
	logDiagnostics(sctx, result.Diagnostics)
	for kind, n := range diagnostics.CountByKind(result.Diagnostics) {
		s.recorder.AddDiagnostics(string(kind), n)
	}
	s.recorder.ObserveStageDuration("compile", s.now().Sub(stageStart))
	if diagnostics.HasWarnings(result.Diagnostics) {
		s.recorder.IncStageResult("compile", metrics.ResultWarning)
		if r.cfg.Compiler.FailOnWarnings {
			return s.finish(ctx, r, "compile", errors.CompileError("compilation produced warnings").
				ForDocument(set.Document.ID).
				WithContext("diagnostics", len(result.Diagnostics)).
				Build())
		}
	} else {
		s.recorder.IncStageResult("compile", metrics.ResultSuccess)
	}

	// Stage 4: write outputs and manifest
	if err := ctx.Err(); err != nil {
		return s.finish(ctx, r, "write", err)
	}
	stageStart = s.now()
	m := &manifest.BuildManifest{
		ID:         result.BuildID,
		DocumentID: set.Document.ID,
		Version:    version.Version,
		Timestamp:  start.UTC(),
		Inputs:     manifest.Inputs{Workbook: r.cfg.Input.Workbook, RecordsHash: recordsHash},
		Plan: manifest.Plan{
			Formats:     formatNames(r.cfg.Output.Formats),
			FigureWidth: r.cfg.Compiler.FigureWidth,
			AutoPlace:   r.cfg.Compiler.AutoPlace,
		},
		Outputs:     manifest.Outputs{Directory: r.cfg.Output.Directory},
		Diagnostics: countStrings(result.Diagnostics),
	}
	if sum, _, err := manifest.HashFile(r.cfg.Input.Workbook); err == nil {
		m.Inputs.WorkbookHash = sum
	}
	if err := r.write(ctx, set, compiled, m); err != nil {
		s.recorder.IncStageResult("write", metrics.ResultFatal)
		return s.finish(ctx, r, "write", err)
	}
	s.recorder.ObserveStageDuration("write", s.now().Sub(stageStart))
	s.recorder.IncStageResult("write", metrics.ResultSuccess)

	// Stage 5: archive
	if r.cfg.Output.Archive {
		name := set.Document.FileStem() + archive.Extension
		dest := filepath.Join(r.cfg.Output.Directory, name)
		if err := archive.Pack(dest, r.cfg.Output.Directory, result.Files, start); err != nil {
			s.recorder.IncStageResult("archive", metrics.ResultFatal)
			return s.finish(ctx, r, "archive", err)
		}
		sum, size, err := manifest.HashFile(dest)
		if err != nil {
			return s.finish(ctx, r, "archive", err)
		}
		m.Outputs.Archive = &manifest.Artifact{Path: name, Size: size, BLAKE3: sum}
		result.Archive = name
		s.recorder.IncStageResult("archive", metrics.ResultSuccess)
	}

	m.Status = string(StatusSuccess)
	m.Duration = s.now().Sub(start).Milliseconds()
	if r.cfg.Output.WriteManifest() {
		if err := m.Write(r.cfg.Output.Directory); err != nil {
			return s.finish(ctx, r, "write", err)
		}
	}
	result.Manifest = m

	// Stage 6: publish
	if r.cfg.Publish.Enabled && s.publisherFactory != nil {
		if err := ctx.Err(); err != nil {
			return s.finish(ctx, r, "publish", err)
		}
		stageStart = s.now()
		files := append([]string(nil), result.Files...)
		if r.cfg.Output.WriteManifest() {
			files = append(files, manifest.FileName)
		}
		message := fmt.Sprintf("Update %s (%s)", set.Document.FileStem(), result.BuildID)
		pub, err := s.publisherFactory(r.cfg.Publish).Publish(ctx, r.cfg.Output.Directory, files, message)
		if err != nil {
			s.recorder.IncStageResult("publish", metrics.ResultFatal)
			return s.finish(ctx, r, "publish", err)
		}
		result.Commit = pub.Commit
		s.recorder.ObserveStageDuration("publish", s.now().Sub(stageStart))
		s.recorder.IncStageResult("publish", metrics.ResultSuccess)
		observability.InfoContext(ctx, "Published outputs",
			slog.String("commit", pub.Commit),
			slog.Bool("changed", pub.Changed),
			slog.Bool("pushed", pub.Pushed))
	}

	return s.finish(ctx, r, "", nil)
}

type fingerprintInput struct {
	Records  records.Set           `json:"records"`
	Formats  []string              `json:"formats"`
	Compiler config.CompilerConfig `json:"compiler"`
	Version  string                `json:"version"`
}

type compiledOutput struct {
	format   config.Format
	ext      string
	result   *compiler.Result
	duration time.Duration
}

// stage wraps the load step with timing and stage results.
func (r *run) stage(ctx context.Context, name string, fn func(context.Context) (records.Set, []diagnostics.Diagnostic, error)) (records.Set, []diagnostics.Diagnostic, error) {
	start := r.svc.now()
	ctx = observability.WithStage(ctx, name)
	set, diags, err := fn(ctx)
	r.svc.recorder.ObserveStageDuration(name, r.svc.now().Sub(start))
	if err != nil {
		r.svc.recorder.IncStageResult(name, metrics.ResultFatal)
		return set, nil, err
	}
	r.svc.recorder.IncStageResult(name, metrics.ResultSuccess)
	return set, diags, nil
}

// write stores every compiled output plus side files and fills m.
func (r *run) write(ctx context.Context, set records.Set, compiled []compiledOutput, m *manifest.BuildManifest) error {
	dir := r.cfg.Output.Directory
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "create output directory").WithContext("path", dir).Build()
	}
	stem := set.Document.FileStem()

	put := func(rel, content string) error {
		if !filepath.IsLocal(rel) {
			return errors.ValidationError("output file escapes the output directory").
				ForDocument(set.Document.ID).
				WithContext(errors.KeyPath, rel).
				Build()
		}
		path := filepath.Join(dir, rel)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return errors.WrapError(err, errors.CategoryFileSystem, "write output").WithContext("path", path).Build()
		}
		if _, err := m.AddArtifact(dir, rel); err != nil {
			return err
		}
		r.result.Files = append(r.result.Files, rel)
		return nil
	}

	for _, c := range compiled {
		rel := stem + c.ext
		if err := put(rel, c.result.Text); err != nil {
			return err
		}
		r.result.Outputs = append(r.result.Outputs, Output{
			Format:      string(c.format),
			Path:        rel,
			Bytes:       len(c.result.Text),
			Diagnostics: len(c.result.Diagnostics),
		})
		r.svc.emit(ctx, r, func() (*eventstore.BaseEvent, error) {
			return eventstore.NewDocumentCompiled(r.result.BuildID, eventstore.DocumentCompiledPayload{
				Format:      string(c.format),
				Path:        rel,
				Bytes:       len(c.result.Text),
				Diagnostics: len(c.result.Diagnostics),
				DurationMS:  c.duration.Milliseconds(),
			})
		})

		if c.format != config.FormatLaTeX {
			continue
		}
		if c.result.Directory != "" {
			if err := put(DirectoryFile, c.result.Directory+"\n"); err != nil {
				return err
			}
		}
		if c.result.BackCover != "" {
			if err := put(BackCoverFile, c.result.BackCover+"\n"); err != nil {
				return err
			}
		}
	}

	if r.cfg.Output.WriteBibliography() && len(set.Bibliography) > 0 {
		if err := put(BibliographyFile, bibtex.Render(set.Bibliography)); err != nil {
			return err
		}
	}
	observability.InfoContext(ctx, "Outputs written",
		logfields.Path(dir),
		slog.Int("files", len(r.result.Files)))
	return nil
}

// canSkip compares the fingerprint with the previous manifest and checks
// that the recorded artifacts are still intact.
func (s *DefaultService) canSkip(dir, recordsHash string) (string, bool) {
	prev, err := manifest.Read(dir)
	if err != nil || prev == nil {
		return "", false
	}
	if prev.Status != string(StatusSuccess) || prev.Inputs.RecordsHash != recordsHash {
		return "", false
	}
	if changed := prev.Verify(dir); len(changed) > 0 {
		return "", false
	}
	return "unchanged", true
}

func (s *DefaultService) skip(ctx context.Context, r *run, reason, recordsHash string) (*Result, error) {
	r.result.Status = StatusSkipped
	r.result.Skipped = true
	r.result.SkipReason = reason
	r.result.EndTime = s.now()
	r.result.Duration = r.result.EndTime.Sub(r.result.StartTime)
	s.recorder.IncStageResult("compile", metrics.ResultSkipped)
	s.recorder.IncBuildOutcome(string(StatusSkipped))
	s.recorder.ObserveBuildDuration(r.result.Duration)
	s.emit(ctx, r, func() (*eventstore.BaseEvent, error) {
		return eventstore.NewBuildSkipped(r.result.BuildID, eventstore.BuildSkippedPayload{Reason: reason, RecordsHash: recordsHash})
	})
	observability.InfoContext(ctx, "Build skipped - inputs unchanged", logfields.Status(string(StatusSkipped)))
	return r.result, nil
}

// finish stamps the result, records the outcome and returns err unchanged.
func (s *DefaultService) finish(ctx context.Context, r *run, stage string, err error) (*Result, error) {
	res := r.result
	res.EndTime = s.now()
	res.Duration = res.EndTime.Sub(res.StartTime)

	switch {
	case err == nil:
		res.Status = StatusSuccess
	case ctx.Err() != nil && (stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded)):
		res.Status = StatusCancelled
	default:
		res.Status = StatusFailed
	}
	s.recorder.IncBuildOutcome(string(res.Status))
	s.recorder.ObserveBuildDuration(res.Duration)

	if err == nil {
		artifacts := make(map[string]string)
		if res.Manifest != nil {
			for _, a := range res.Manifest.Outputs.Artifacts {
				artifacts[a.Path] = a.BLAKE3
			}
		}
		s.emit(ctx, r, func() (*eventstore.BaseEvent, error) {
			return eventstore.NewBuildCompleted(res.BuildID, eventstore.BuildCompletedPayload{
				Status:      string(StatusSuccess),
				Artifacts:   artifacts,
				Diagnostics: countStrings(res.Diagnostics),
				Commit:      res.Commit,
			})
		})
		observability.InfoContext(ctx, "Build completed",
			logfields.Status(string(res.Status)),
			logfields.DurationMS(float64(res.Duration.Milliseconds())),
			logfields.Diagnostics(len(res.Diagnostics)))
		return res, nil
	}

	category := ""
	if ce, ok := errors.AsClassified(err); ok {
		category = string(ce.Category())
	}
	s.emit(ctx, r, func() (*eventstore.BaseEvent, error) {
		return eventstore.NewBuildFailed(res.BuildID, eventstore.BuildFailedPayload{
			Stage:    stage,
			Error:    err.Error(),
			Category: category,
			Canceled: res.Status == StatusCancelled,
		})
	})
	observability.ErrorContext(observability.WithStage(ctx, stage), "Build failed",
		logfields.Status(string(res.Status)),
		logfields.Error(err))
	return res, err
}

// emit records an event in history and forwards it to the notifier.
// Failures are logged; they never fail the build.
func (s *DefaultService) emit(ctx context.Context, r *run, build func() (*eventstore.BaseEvent, error)) {
	if s.history == nil && s.notifier == nil {
		return
	}
	ev, err := build()
	if err != nil {
		observability.WarnContext(ctx, "Failed to create build event", logfields.Error(err))
		return
	}
	// Events are recorded even when the build context was cancelled.
	ectx := context.WithoutCancel(ctx)
	if s.history != nil {
		if err := s.history.Record(ectx, ev); err != nil {
			observability.WarnContext(ctx, "Failed to record build event", logfields.Kind(ev.Type()), logfields.Error(err))
		}
	}
	if s.notifier != nil {
		if err := s.notifier.Notify(ectx, r.docID, ev); err != nil {
			observability.WarnContext(ctx, "Failed to publish build event", logfields.Kind(ev.Type()), logfields.Error(err))
		}
	}
}

func formatNames(formats []config.Format) []string {
	out := make([]string, len(formats))
	for i, f := range formats {
		out[i] = string(f)
	}
	return out
}

// dedupe drops diagnostics repeated by several dialects, keeping first-seen order.
func dedupe(items []diagnostics.Diagnostic) []diagnostics.Diagnostic {
	seen := make(map[string]bool, len(items))
	out := make([]diagnostics.Diagnostic, 0, len(items))
	for _, d := range items {
		key := d.String()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, d)
	}
	return out
}

func countStrings(items []diagnostics.Diagnostic) map[string]int {
	if len(items) == 0 {
		return nil
	}
	out := make(map[string]int)
	for kind, n := range diagnostics.CountByKind(items) {
		out[string(kind)] = n
	}
	return out
}

func logDiagnostics(ctx context.Context, items []diagnostics.Diagnostic) {
	sorted := append([]diagnostics.Diagnostic(nil), items...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Kind < sorted[j].Kind })
	for _, d := range sorted {
		attrs := []slog.Attr{logfields.Kind(string(d.Kind))}
		for k, v := range d.Context {
			attrs = append(attrs, slog.String(k, v))
		}
		if d.Severity == diagnostics.SeverityWarning {
			observability.WarnContext(ctx, d.Message, attrs...)
		} else {
			observability.DebugContext(ctx, d.Message, attrs...)
		}
	}
}
