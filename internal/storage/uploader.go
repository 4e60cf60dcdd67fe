package storage

import "context"

// File is an uploaded file buffered fully in memory before it is pushed
// to object storage.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Uploader pushes a buffered file to durable object storage under a
// namespace prefix and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, namespace string, file File) (string, error)
}
