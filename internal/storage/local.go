package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/societyos/upkeep/internal/config"
	"go.uber.org/zap"
)

type localProvider struct {
	log     *zap.Logger
	dir     string
	baseURL string
	maxSize int64
}

func NewLocalProvider(cfg config.Config, log *zap.Logger) (Provider, error) {
	dir := filepath.Clean(cfg.UploadDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &localProvider{
		log:     log.Named("storage.local"),
		dir:     dir,
		baseURL: cfg.PublicBaseURL,
		maxSize: cfg.UploadMaxMB * 1024 * 1024,
	}, nil
}

func (p *localProvider) Save(ctx context.Context, name string, content io.Reader) (string, error) {
	_ = ctx
	name = sanitizeName(name)
	if name == "" {
		return "", ErrInvalidName
	}

	// Prefix with a UUID so two uploads of "receipt.pdf" never collide.
	stored := fmt.Sprintf("%s-%s", uuid.NewString(), name)
	path := filepath.Join(p.dir, stored)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", err
	}
	defer f.Close()

	written, err := io.Copy(f, io.LimitReader(content, p.maxSize+1))
	if err != nil {
		os.Remove(path)
		return "", err
	}
	if written > p.maxSize {
		os.Remove(path)
		return "", ErrTooLarge
	}

	p.log.Info("file stored",
		zap.String("name", stored),
		zap.Int64("bytes", written),
	)
	return fmt.Sprintf("%s/uploads/%s", p.baseURL, stored), nil
}

func (p *localProvider) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	_ = ctx
	name = sanitizeName(name)
	if name == "" {
		return nil, ErrInvalidName
	}

	f, err := os.Open(filepath.Join(p.dir, name))
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}

// sanitizeName strips any path component so uploads cannot escape the
// upload directory.
func sanitizeName(name string) string {
	name = filepath.Base(strings.TrimSpace(name))
	if name == "." || name == string(filepath.Separator) {
		return ""
	}
	return name
}
