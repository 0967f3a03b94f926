// Package storage holds the durable named slots the policy store writes its
// serialized collection into. Every backend stores opaque bytes under a key.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Load when nothing has been saved under the key yet.
var ErrNotFound = errors.New("storage: slot not found")

type Slot interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
}
