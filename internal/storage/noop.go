package storage

import (
	"context"
	"errors"
)

// NoopUploader rejects every upload. It stands in when object storage is
// not configured so the rest of the app can still serve reads.
type NoopUploader struct{}

func NewNoop() *NoopUploader {
	return &NoopUploader{}
}

func (*NoopUploader) Upload(_ context.Context, _ string, _ File) (string, error) {
	return "", errors.New("object storage is not configured")
}
