package store

import "context"

// DocumentKey is the fixed key under which the serialized document lives in
// whatever storage backend is configured.
const DocumentKey = "pocketbook/document"

// Storage is the byte-level persistence collaborator. Implementations live
// in internal/storage; the store only ever reads and writes one key.
type Storage interface {
	// Get returns the payload stored under key. found is false when the key
	// has never been written.
	Get(ctx context.Context, key string) (payload []byte, found bool, err error)

	// Set writes the payload under key, replacing any previous value.
	Set(ctx context.Context, key string, payload []byte) error
}
