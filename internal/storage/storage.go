// Package storage persists uploaded documents and hands back URLs the
// frontend can embed in expense and income records.
package storage

import (
	"context"
	"errors"
	"io"
)

var (
	ErrNotFound    = errors.New("file not found")
	ErrInvalidName = errors.New("invalid file name")
	ErrTooLarge    = errors.New("file too large")
)

// Provider abstracts where uploads live. The local-disk implementation
// is the default; an object-store implementation can replace it without
// touching the handlers.
type Provider interface {
	Save(ctx context.Context, name string, content io.Reader) (string, error)
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}
