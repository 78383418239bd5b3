package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"shortreel/internal/fileutil"
	"shortreel/internal/services"
)

// Local stores artifacts as <dir>/<id>.mp4.
type Local struct {
	dir  string
	move func(src, dst string) error
}

// NewLocal returns a directory-backed store.
func NewLocal(dir string) *Local {
	return &Local{dir: dir, move: fileutil.MoveFile}
}

func (l *Local) path(id string) string {
	return filepath.Join(l.dir, id+Extension)
}

// Location returns the artifact path.
func (l *Local) Location(id string) string { return l.path(id) }

// Put moves localPath into the store, replacing any previous artifact.
func (l *Local) Put(_ context.Context, id, localPath string) error {
	if err := validID(id); err != nil {
		return err
	}
	if err := l.move(localPath, l.path(id)); err != nil {
		return services.Wrap(services.ErrExternalTool, "storage", "put", id, err)
	}
	return nil
}

// Exists reports whether the artifact is present.
func (l *Local) Exists(_ context.Context, id string) (bool, error) {
	if err := validID(id); err != nil {
		return false, err
	}
	info, err := os.Stat(l.path(id))
	if err == nil {
		return !info.IsDir(), nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// Open streams the artifact.
func (l *Local) Open(_ context.Context, id string) (io.ReadCloser, error) {
	if err := validID(id); err != nil {
		return nil, err
	}
	f, err := os.Open(l.path(id))
	if errors.Is(err, os.ErrNotExist) {
		return nil, notFound(id)
	}
	return f, err
}

// Delete removes the artifact.
func (l *Local) Delete(_ context.Context, id string) error {
	if err := validID(id); err != nil {
		return err
	}
	err := os.Remove(l.path(id))
	if errors.Is(err, os.ErrNotExist) {
		return notFound(id)
	}
	return err
}

// List returns stored ids sorted by name. A missing directory is empty.
func (l *Local) List(context.Context) ([]string, error) {
	entries, err := os.ReadDir(l.dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, Extension) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, Extension))
	}
	sort.Strings(ids)
	return ids, nil
}
