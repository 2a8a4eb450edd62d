// Package storage holds the blob stores recipe images are written to.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"github.com/spf13/afero"

	"github.com/FACorreiaa/go-recipe-api/config"
)

var ErrInvalidKey = errors.New("invalid storage key")

// ImageStore persists image blobs under slash-separated keys such as
// "uploads/recipe/<uuid>.jpg".
type ImageStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	// Delete removes the object. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// URL is the public address clients fetch the object from.
	URL(key string) string
}

// New builds the store selected by cfg.Backend.
func New(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (ImageStore, error) {
	switch strings.ToLower(cfg.Backend) {
	case "", "file":
		logger.InfoContext(ctx, "Using filesystem image store", slog.String("root", cfg.MediaRoot))
		fs := afero.NewBasePathFs(afero.NewOsFs(), cfg.MediaRoot)
		if err := fs.MkdirAll("/", 0o755); err != nil {
			return nil, fmt.Errorf("creating media root %q: %w", cfg.MediaRoot, err)
		}
		return NewFileStore(fs, cfg.MediaURL), nil
	case "s3":
		logger.InfoContext(ctx, "Using S3 image store",
			slog.String("endpoint", cfg.S3.Endpoint),
			slog.String("bucket", cfg.S3.Bucket))
		return NewS3StoreFromConfig(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// cleanKey rejects keys that would escape the store root.
func cleanKey(key string) (string, error) {
	if key == "" {
		return "", ErrInvalidKey
	}
	cleaned := path.Clean("/" + key)[1:]
	if cleaned == "" || cleaned != strings.TrimPrefix(key, "/") || strings.Contains(key, "..") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return cleaned, nil
}

func joinURL(base, key string) string {
	if base == "" {
		return "/" + key
	}
	return strings.TrimSuffix(base, "/") + "/" + key
}
