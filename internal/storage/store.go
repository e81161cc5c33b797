package storage

import (
	"context"
	"errors"
)

var ErrNotConfigured = errors.New("file storage is not configured")

type FileStore interface {
	// UploadFile stores file as folder/filename and returns its public URL.
	UploadFile(ctx context.Context, file []byte, filename string, folder string) (string, error)
	// DeleteFile removes the file uploaded as folder/publicID.
	DeleteFile(ctx context.Context, publicID string, folder string) error
}

// UnconfiguredStore rejects every upload. It stands in when no storage
// credentials are set, so records without attachments keep working.
type UnconfiguredStore struct{}

func (UnconfiguredStore) UploadFile(context.Context, []byte, string, string) (string, error) {
	return "", ErrNotConfigured
}

func (UnconfiguredStore) DeleteFile(context.Context, string, string) error {
	return ErrNotConfigured
}
