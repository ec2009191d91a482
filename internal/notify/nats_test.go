package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/texbuilder/internal/eventstore"
	ferrors "git.home.luguber.info/inful/texbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/texbuilder/internal/retry"
)

type published struct {
	subject string
	data    []byte
}

type fakeStream struct {
	msgs     []published
	err      error
	failures int // transient failures before publishes succeed
	calls    int
}

func (f *fakeStream) Publish(_ context.Context, subject string, data []byte, _ ...jetstream.PublishOpt) (*jetstream.PubAck, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if f.calls <= f.failures {
		return nil, errors.New("nats: timeout")
	}
	f.msgs = append(f.msgs, published{subject: subject, data: data})
	return &jetstream.PubAck{Stream: DefaultStream, Sequence: uint64(len(f.msgs))}, nil
}

type fakeKV map[string][]byte

func (f fakeKV) Put(_ context.Context, key string, value []byte) (uint64, error) {
	f[key] = value
	return uint64(len(f)), nil
}

func TestNotifyPublishesAndStoresTerminalStatus(t *testing.T) {
	stream := &fakeStream{}
	kv := fakeKV{}
	p := &Publisher{js: stream, kv: kv, subject: DefaultSubject}

	started, err := eventstore.NewBuildStarted("b1", eventstore.BuildStartedPayload{DocumentID: "DOC 1"})
	require.NoError(t, err)
	require.NoError(t, p.Notify(t.Context(), "DOC 1", started))
	assert.Empty(t, kv)

	done, err := eventstore.NewBuildCompleted("b1", eventstore.BuildCompletedPayload{})
	require.NoError(t, err)
	require.NoError(t, p.Notify(t.Context(), "DOC 1", done))

	require.Len(t, stream.msgs, 2)
	assert.Equal(t, "texbuilder.builds.buildstarted", stream.msgs[0].subject)
	assert.Equal(t, "texbuilder.builds.buildcompleted", stream.msgs[1].subject)

	var n Notification
	require.NoError(t, json.Unmarshal(stream.msgs[1].data, &n))
	assert.Equal(t, "b1", n.BuildID)
	assert.Equal(t, "DOC 1", n.DocumentID)
	assert.WithinDuration(t, time.Now(), n.Timestamp, time.Minute)
	assert.JSONEq(t, `{"status":"success"}`, string(n.Payload))

	require.Contains(t, kv, "doc.DOC_1")
}

func TestNotifyPublishFailureIsRetryableNetworkError(t *testing.T) {
	p := &Publisher{js: &fakeStream{err: errors.New("no responders")}, subject: DefaultSubject}
	ev, err := eventstore.NewBuildSkipped("b2", eventstore.BuildSkippedPayload{Reason: "unchanged"})
	require.NoError(t, err)

	err = p.Notify(t.Context(), "DOC", ev)
	require.Error(t, err)
	ce, ok := ferrors.AsClassified(err)
	require.True(t, ok)
	assert.Equal(t, ferrors.CategoryNetwork, ce.Category())
	assert.True(t, ce.CanRetry())
}

func TestNotifyRetriesTransientPublishFailures(t *testing.T) {
	stream := &fakeStream{failures: 2}
	p := &Publisher{
		js:      stream,
		subject: DefaultSubject,
		retry:   retry.NewPolicy(retry.ModeFixed, time.Millisecond, time.Millisecond, 2),
	}
	ev, err := eventstore.NewBuildStarted("b3", eventstore.BuildStartedPayload{DocumentID: "DOC"})
	require.NoError(t, err)

	require.NoError(t, p.Notify(t.Context(), "DOC", ev))
	assert.Equal(t, 3, stream.calls)
	assert.Len(t, stream.msgs, 1)
}

func TestStatusKey(t *testing.T) {
	tests := map[string]string{
		"DOC1":          "doc.DOC1",
		"Informe 2025":  "doc.Informe_2025",
		"año/energía":   "doc.a_o/energ_a",
		".lead.":        "doc.lead",
	}
	for in, want := range tests {
		assert.Equal(t, want, StatusKey(in), in)
	}
}
