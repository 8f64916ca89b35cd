package store

import (
	"context"
	"errors"
)

// ErrAbsent is returned by Load when no snapshot exists under the key.
var ErrAbsent = errors.New("no snapshot stored under that key")

// Gateway is the engine's opaque key/value snapshot store. The engine
// never sees the storage medium, only the serialized blob.
type Gateway interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, blob []byte) error
}
