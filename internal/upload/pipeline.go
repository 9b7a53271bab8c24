// Package upload moves Telegram photos into blob storage.
package upload

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/m3rciful/teleshop/core/logger"
)

// FileSource fetches raw file bytes by Telegram file id.
type FileSource interface {
	Open(ctx context.Context, fileID string) (io.ReadCloser, error)
}

// BlobStore persists a blob and returns its public URL.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// Stages at which an upload can fail.
const (
	StageFetch = "fetch"
	StageStore = "store"
)

// Error reports a failed upload together with the stage that broke.
type Error struct {
	Stage  string
	FileID string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("upload %s failed for file %s: %v", e.Stage, e.FileID, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Pipeline downloads a Telegram photo and stores it under a fresh key.
type Pipeline struct {
	source FileSource
	store  BlobStore
}

// New constructs the upload pipeline.
func New(source FileSource, store BlobStore) *Pipeline {
	return &Pipeline{source: source, store: store}
}

// Upload transfers one photo and returns its public URL. There are no
// retries; the caller decides whether a failure aborts the wizard step.
func (p *Pipeline) Upload(ctx context.Context, fileID string) (string, error) {
	rc, err := p.source.Open(ctx, fileID)
	if err != nil {
		return "", &Error{Stage: StageFetch, FileID: fileID, Err: err}
	}
	data, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		return "", &Error{Stage: StageFetch, FileID: fileID, Err: err}
	}

	key := uuid.NewString() + ".jpg"
	url, err := p.store.Put(ctx, key, data, "image/jpeg")
	if err != nil {
		return "", &Error{Stage: StageStore, FileID: fileID, Err: err}
	}
	logger.Debug(ctx, "upload", "photo.stored",
		slog.String("key", key),
		slog.Int("size_bytes", len(data)),
	)
	return url, nil
}
