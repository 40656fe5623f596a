package screenshot

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("screenshot: not found")

// Object is one stored screenshot payload.
type Object struct {
	Data     []byte
	MIMEType string
}

// Store holds uploaded screenshot binaries keyed by actor and a stable
// opaque id assigned at upload time.
type Store interface {
	Put(ctx context.Context, actorID, id string, obj Object) error
	Get(ctx context.Context, actorID, id string) (Object, error)
	// GetURL returns a short-lived fetch URL; backends without URL
	// support return an empty string.
	GetURL(ctx context.Context, actorID, id string) (string, error)
}
