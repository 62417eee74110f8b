package storage

import (
	"context"
	"io"
)

type UploadResult struct {
	Key      string
	Location string
	ETag     string
}

// ObjectStore persists blobs, here the score-event audit logs of
// completed games. Archives are append-only; nothing prunes them.
type ObjectStore interface {
	Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error)

	PublicURL(key string) string
}
