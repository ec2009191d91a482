// Package notify publishes build lifecycle events to NATS JetStream and
// keeps the latest build status per document in a JetStream key-value bucket.
package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"git.home.luguber.info/inful/texbuilder/internal/eventstore"
	"git.home.luguber.info/inful/texbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/texbuilder/internal/logfields"
	"git.home.luguber.info/inful/texbuilder/internal/retry"
)

const (
	DefaultStream  = "TEXBUILDER"
	DefaultSubject = "texbuilder.builds"
	statusBucket   = "texbuilder_status"
	publishTimeout = 5 * time.Second
)

var reUnsafeKey = regexp.MustCompile(`[^-/_=.a-zA-Z0-9]+`)

// Notification is the message body published for every event.
type Notification struct {
	BuildID    string          `json:"build_id"`
	DocumentID string          `json:"document_id,omitempty"`
	Type       string          `json:"type"`
	Timestamp  time.Time       `json:"timestamp"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}

// Options configure a Publisher.
type Options struct {
	URL     string
	Stream  string
	Subject string
}

type streamPublisher interface {
	Publish(ctx context.Context, subject string, data []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}

type keyValuePutter interface {
	Put(ctx context.Context, key string, value []byte) (uint64, error)
}

// Publisher sends notifications to a JetStream stream.
type Publisher struct {
	conn    *nats.Conn
	js      streamPublisher
	kv      keyValuePutter
	subject string
	retry   retry.Policy
}

// Connect dials NATS and ensures the stream and status bucket exist.
func Connect(ctx context.Context, opts Options) (*Publisher, error) {
	if opts.Stream == "" {
		opts.Stream = DefaultStream
	}
	if opts.Subject == "" {
		opts.Subject = DefaultSubject
	}

	conn, err := nats.Connect(opts.URL, nats.Name("texbuilder"), nats.MaxReconnects(-1))
	if err != nil {
		return nil, errors.NetworkError("failed to connect to NATS").
			WithCause(err).
			WithContext("url", opts.URL).
			Build()
	}
	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, errors.WrapError(err, errors.CategoryNetwork, "failed to create JetStream context").Build()
	}

	if _, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:        opts.Stream,
		Description: "texbuilder build events",
		Subjects:    []string{opts.Subject + ".>"},
		MaxAge:      30 * 24 * time.Hour,
	}); err != nil {
		conn.Close()
		return nil, errors.WrapError(err, errors.CategoryNetwork, "failed to ensure JetStream stream").
			WithContext("stream", opts.Stream).
			Build()
	}

	kv, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      statusBucket,
		Description: "Latest texbuilder build status per document",
		History:     1,
	})
	if err != nil {
		conn.Close()
		return nil, errors.WrapError(err, errors.CategoryNetwork, "failed to ensure status bucket").
			WithContext("bucket", statusBucket).
			Build()
	}

	slog.Info("NATS build notifications enabled",
		logfields.URL(opts.URL),
		slog.String("stream", opts.Stream),
		slog.String("subject", opts.Subject))

	return &Publisher{
		conn:    conn,
		js:      js,
		kv:      kv,
		subject: opts.Subject,
		retry:   retry.NewPolicy(retry.ModeExponential, 200*time.Millisecond, 2*time.Second, 2),
	}, nil
}

// Subject returns the subject an event type is published on.
func (p *Publisher) Subject(eventType string) string {
	return p.subject + "." + strings.ToLower(eventType)
}

// Notify publishes ev. Terminal events also update the status bucket.
func (p *Publisher) Notify(ctx context.Context, documentID string, ev eventstore.Event) error {
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	n := Notification{
		BuildID:    ev.BuildID(),
		DocumentID: documentID,
		Type:       ev.Type(),
		Timestamp:  ev.Timestamp(),
		Payload:    json.RawMessage(ev.Payload()),
	}
	if len(n.Payload) == 0 {
		n.Payload = nil
	}
	data, err := json.Marshal(n)
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "failed to marshal notification").Build()
	}

	msgID := ev.BuildID() + ":" + ev.Type()
	err = p.retry.Do(ctx, "nats publish", func(ctx context.Context) error {
		if _, err := p.js.Publish(ctx, p.Subject(ev.Type()), data, jetstream.WithMsgID(msgID)); err != nil {
			return errors.NetworkError("failed to publish build event").
				WithCause(err).
				WithContext("build_id", ev.BuildID()).
				WithContext("type", ev.Type()).
				Build()
		}
		return nil
	})
	if err != nil {
		return err
	}

	if terminal(ev.Type()) && documentID != "" && p.kv != nil {
		if _, err := p.kv.Put(ctx, StatusKey(documentID), data); err != nil {
			return errors.NetworkError("failed to store build status").
				WithCause(err).
				ForDocument(documentID).
				Build()
		}
	}

	slog.Debug("Published build event",
		logfields.BuildID(ev.BuildID()),
		logfields.DocumentID(documentID),
		logfields.Kind(ev.Type()))
	return nil
}

// StatusKey is the bucket key holding the latest status of documentID.
func StatusKey(documentID string) string {
	return "doc." + strings.Trim(reUnsafeKey.ReplaceAllString(documentID, "_"), ".")
}

func terminal(eventType string) bool {
	switch eventType {
	case eventstore.TypeBuildCompleted, eventstore.TypeBuildFailed, eventstore.TypeBuildSkipped:
		return true
	}
	return false
}

// Close drains the connection.
func (p *Publisher) Close() error {
	if p.conn != nil {
		return p.conn.Drain()
	}
	return nil
}
