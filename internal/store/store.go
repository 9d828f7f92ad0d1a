package store

import (
	"context"
	"errors"
)

// ErrAbort is returned by a transaction func to leave the key untouched.
// An aborted transaction is not an error: the result simply reports
// Committed=false together with the value observed at the key.
var ErrAbort = errors.New("transaction aborted")

// TxFunc receives the current document at a key (nil when absent) and
// returns the next document. Returning nil deletes the key.
type TxFunc func(current []byte) ([]byte, error)

// TxResult reports the outcome of a transaction.
type TxResult struct {
	Committed bool
	// Value is the committed document, or the observed document when the
	// transaction aborted. Nil means the key is absent.
	Value []byte
}

// Subscription is a live per-key change feed. Close stops delivery.
type Subscription interface {
	Close()
}

// Store is the shared realtime key-value store all game clients
// coordinate through. One JSON document lives at each key. The
// transaction is the only concurrency-control primitive: every field
// with cross-writer contention must be mutated through it, plain Set
// and Update are reserved for single-writer keys.
type Store interface {
	// Get returns the document at key, or nil when absent.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set unconditionally overwrites the document at key.
	Set(ctx context.Context, key string, doc []byte) error

	// Update merge-writes top-level fields into the document at key.
	// A nil field value removes the field. Not atomic versus concurrent
	// writers of the same key.
	Update(ctx context.Context, key string, fields map[string]any) error

	// Delete removes the document at key.
	Delete(ctx context.Context, key string) error

	// Transaction atomically applies fn to the document at key, retrying
	// on contention. fn may run more than once and must be pure.
	Transaction(ctx context.Context, key string, fn TxFunc) (TxResult, error)

	// Subscribe delivers the current document immediately, then every
	// committed change, in per-key commit order. The handler receives
	// nil when the key is deleted. Handlers run sequentially.
	Subscribe(ctx context.Context, key string, handler func(doc []byte)) (Subscription, error)

	// RegisterDisconnectCleanup schedules a best-effort delete of key
	// when this client's connection goes away.
	RegisterDisconnectCleanup(key string)

	// Close runs registered disconnect cleanups and releases resources.
	Close() error
}
