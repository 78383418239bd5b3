// Package storage keeps finished videos addressed by job id, either in a local
// directory or in an S3 bucket.
package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"shortreel/internal/config"
	"shortreel/internal/services"
)

// Extension is appended to job ids to form artifact names.
const Extension = ".mp4"

// Store persists rendered artifacts.
type Store interface {
	// Put takes ownership of the file at localPath.
	Put(ctx context.Context, id, localPath string) error
	Exists(ctx context.Context, id string) (bool, error)
	// Open returns services.ErrNotFound when the artifact is absent.
	Open(ctx context.Context, id string) (io.ReadCloser, error)
	// Delete returns services.ErrNotFound when the artifact is absent.
	Delete(ctx context.Context, id string) error
	// List returns the ids of every stored artifact.
	List(ctx context.Context) ([]string, error)
	// Location is a human-readable address for logs and notifications.
	Location(id string) string
}

// NewFromConfig builds the store selected by storage.backend.
func NewFromConfig(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.Storage.Backend {
	case config.StorageLocal:
		return NewLocal(cfg.Paths.VideosDir), nil
	case config.StorageS3:
		return NewS3(ctx, S3Options{
			Bucket:       cfg.Storage.S3Bucket,
			Prefix:       cfg.Storage.S3Prefix,
			Region:       cfg.Storage.S3Region,
			Profile:      cfg.Storage.S3Profile,
			Endpoint:     cfg.Storage.S3Endpoint,
			UsePathStyle: cfg.Storage.S3PathStyle,
		})
	default:
		return nil, services.Wrap(services.ErrConfiguration, "storage", "init",
			fmt.Sprintf("unsupported backend %q", cfg.Storage.Backend), nil)
	}
}

// validID rejects ids that could escape the storage root.
func validID(id string) error {
	id = strings.TrimSpace(id)
	if id == "" || strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return services.Wrap(services.ErrValidation, "storage", "id", fmt.Sprintf("invalid artifact id %q", id), nil)
	}
	return nil
}

func notFound(id string) error {
	return services.Wrap(services.ErrNotFound, "storage", "lookup", fmt.Sprintf("video %s not found", id), nil)
}
