package daemon

import (
	"context"
	"sync"
	"time"

	ferrors "git.home.luguber.info/inful/texbuilder/internal/foundation/errors"
)

// BuildDebouncerConfig tunes the debouncer.
type BuildDebouncerConfig struct {
	QuietWindow time.Duration
	MaxDelay    time.Duration
}

// BuildRequest is one request for a rebuild.
type BuildRequest struct {
	Reason      string
	Path        string
	RequestedAt time.Time
}

// BuildNow describes a coalesced burst of requests.
type BuildNow struct {
	RequestCount  int
	LastReason    string
	LastPath      string
	FirstRequest  time.Time
	LastRequest   time.Time
	DebounceCause string // quiet, max_delay
}

// BuildDebouncer coalesces bursts of requests into a single build:
//   - a build starts once no request arrived for QuietWindow
//   - a burst cannot postpone a build beyond MaxDelay
//   - requests arriving while a build runs yield exactly one follow-up build
//
// The build callback runs on the Run goroutine.
type BuildDebouncer struct {
	cfg   BuildDebouncerConfig
	build func(context.Context, BuildNow)
	reqCh chan BuildRequest

	mu      sync.Mutex
	pending *BuildNow
}

// NewBuildDebouncer validates cfg and returns a debouncer calling build.
func NewBuildDebouncer(cfg BuildDebouncerConfig, build func(context.Context, BuildNow)) (*BuildDebouncer, error) {
	if build == nil {
		return nil, ferrors.ValidationError("build callback is required").Build()
	}
	if cfg.QuietWindow <= 0 {
		return nil, ferrors.ValidationError("quiet window must be > 0").Build()
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = 10 * cfg.QuietWindow
	}
	return &BuildDebouncer{cfg: cfg, build: build, reqCh: make(chan BuildRequest, 64)}, nil
}

// Request queues a rebuild request without blocking. A full buffer drops
// the request; the pending build already covers it.
func (d *BuildDebouncer) Request(req BuildRequest) {
	if req.RequestedAt.IsZero() {
		req.RequestedAt = time.Now()
	}
	select {
	case d.reqCh <- req:
	default:
	}
}

// Run processes requests until ctx is done.
func (d *BuildDebouncer) Run(ctx context.Context) error {
	if ctx == nil {
		return ferrors.ValidationError("context cannot be nil").Build()
	}

	quietTimer := stoppedTimer()
	maxTimer := stoppedTimer()
	var quietC, maxC <-chan time.Time

	fire := func(cause string) {
		d.mu.Lock()
		now := d.pending
		d.pending = nil
		d.mu.Unlock()
		quietC, maxC = nil, nil
		if now == nil {
			return
		}
		now.DebounceCause = cause
		d.build(ctx, *now)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case req := <-d.reqCh:
			if first := d.onRequest(req); first {
				resetTimer(maxTimer, d.cfg.MaxDelay)
				maxC = maxTimer.C
			}
			resetTimer(quietTimer, d.cfg.QuietWindow)
			quietC = quietTimer.C
		case <-quietC:
			fire("quiet")
		case <-maxC:
			fire("max_delay")
		}
	}
}

func (d *BuildDebouncer) onRequest(req BuildRequest) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	first := d.pending == nil
	if first {
		d.pending = &BuildNow{FirstRequest: req.RequestedAt}
	}
	d.pending.RequestCount++
	d.pending.LastReason = req.Reason
	d.pending.LastPath = req.Path
	d.pending.LastRequest = req.RequestedAt
	return first
}

func stoppedTimer() *time.Timer {
	t := time.NewTimer(time.Hour)
	if !t.Stop() {
		<-t.C
	}
	return t
}

func resetTimer(t *time.Timer, after time.Duration) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	t.Reset(after)
}
