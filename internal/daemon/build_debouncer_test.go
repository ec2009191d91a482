package daemon

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func startDebouncer(t *testing.T, cfg BuildDebouncerConfig, build func(context.Context, BuildNow)) *BuildDebouncer {
	t.Helper()
	d, err := NewBuildDebouncer(cfg, build)
	require.NoError(t, err)
	go func() { _ = d.Run(t.Context()) }()
	return d
}

func TestBuildDebouncer_BurstCoalescesToSingleBuild(t *testing.T) {
	builds := make(chan BuildNow, 10)
	d := startDebouncer(t, BuildDebouncerConfig{QuietWindow: 25 * time.Millisecond, MaxDelay: time.Second},
		func(_ context.Context, now BuildNow) { builds <- now })

	for range 5 {
		d.Request(BuildRequest{Reason: "test", Path: "libro.yaml"})
		time.Sleep(5 * time.Millisecond)
	}

	select {
	case got := <-builds:
		require.Equal(t, 5, got.RequestCount)
		require.Equal(t, "quiet", got.DebounceCause)
		require.Equal(t, "libro.yaml", got.LastPath)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for build")
	}

	select {
	case <-builds:
		t.Fatal("expected only one build for burst")
	case <-time.After(75 * time.Millisecond):
	}
}

func TestBuildDebouncer_MaxDelayForcesBuild(t *testing.T) {
	builds := make(chan BuildNow, 10)
	d := startDebouncer(t, BuildDebouncerConfig{QuietWindow: 50 * time.Millisecond, MaxDelay: 120 * time.Millisecond},
		func(_ context.Context, now BuildNow) { builds <- now })

	stop := time.After(400 * time.Millisecond)
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	var got BuildNow
	for got.RequestCount == 0 {
		select {
		case <-ticker.C:
			d.Request(BuildRequest{Reason: "burst"})
		case got = <-builds:
		case <-stop:
			t.Fatal("max delay did not force a build")
		}
	}
	require.Equal(t, "max_delay", got.DebounceCause)
}

func TestBuildDebouncer_OneFollowUpAfterRunningBuild(t *testing.T) {
	release := make(chan struct{})
	builds := make(chan BuildNow, 10)
	d := startDebouncer(t, BuildDebouncerConfig{QuietWindow: 10 * time.Millisecond, MaxDelay: time.Second},
		func(_ context.Context, now BuildNow) {
			builds <- now
			if now.LastReason == "first" {
				<-release
			}
		})

	d.Request(BuildRequest{Reason: "first"})
	<-builds
	for range 3 {
		d.Request(BuildRequest{Reason: "during"})
	}
	close(release)

	select {
	case got := <-builds:
		require.Equal(t, 3, got.RequestCount)
	case <-time.After(time.Second):
		t.Fatal("expected a follow-up build")
	}
	select {
	case <-builds:
		t.Fatal("expected exactly one follow-up")
	case <-time.After(60 * time.Millisecond):
	}
}

func TestNewBuildDebouncer_Validates(t *testing.T) {
	_, err := NewBuildDebouncer(BuildDebouncerConfig{QuietWindow: time.Second}, nil)
	require.Error(t, err)
	_, err = NewBuildDebouncer(BuildDebouncerConfig{}, func(context.Context, BuildNow) {})
	require.Error(t, err)
}
