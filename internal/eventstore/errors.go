package eventstore

import (
	"git.home.luguber.info/inful/texbuilder/internal/foundation/errors"
)

// storeError wraps a database failure as an eventstore-category error.
func storeError(err error, op string) error {
	return errors.WrapError(err, errors.CategoryEventStore, "event store "+op+" failed").
		WithContext("operation", op).
		Build()
}

func payloadError(err error, eventType, buildID string) error {
	return errors.EventStoreError("failed to marshal "+eventType+" payload").
		WithCause(err).
		WithContext("build_id", buildID).
		Build()
}
