package eventstore

import (
	"git.home.luguber.info/inful/pagehooks/internal/foundation/errors"
)

// Sentinel errors for build history operations. Returned errors wrap the
// underlying cause and match these with errors.Is.
var (
	ErrDatabaseOpenFailed     = errors.EventStoreError("could not open build history database").Build()
	ErrInitializeSchemaFailed = errors.EventStoreError("failed to initialize build history schema").Build()
	ErrEventAppendFailed      = errors.EventStoreError("failed to append event to build history").Build()
	ErrEventQueryFailed       = errors.EventStoreError("failed to query build history").Build()
	ErrMarshalPayloadFailed   = errors.EventStoreError("failed to marshal event payload").Build()
)

func wrap(sentinel error, err error) error {
	ce, _ := errors.AsClassified(sentinel)
	return errors.WrapError(err, ce.Category(), ce.Message()).Build()
}
