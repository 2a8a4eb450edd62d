package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"path"

	"github.com/spf13/afero"
)

var _ ImageStore = (*FileStore)(nil)

// FileStore writes images to an afero filesystem. In production that is the
// OS filesystem rooted at the media directory.
type FileStore struct {
	fs      afero.Fs
	baseURL string
}

func NewFileStore(fsys afero.Fs, baseURL string) *FileStore {
	return &FileStore{fs: fsys, baseURL: baseURL}
}

func (s *FileStore) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	key, err := cleanKey(key)
	if err != nil {
		return err
	}
	if err := s.fs.MkdirAll(path.Dir("/"+key), 0o755); err != nil {
		return fmt.Errorf("creating directory for %q: %w", key, err)
	}
	if err := afero.WriteReader(s.fs, "/"+key, r); err != nil {
		return fmt.Errorf("writing %q: %w", key, err)
	}
	return nil
}

func (s *FileStore) Delete(_ context.Context, key string) error {
	key, err := cleanKey(key)
	if err != nil {
		return err
	}
	if err := s.fs.Remove("/" + key); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing %q: %w", key, err)
	}
	return nil
}

func (s *FileStore) URL(key string) string {
	return joinURL(s.baseURL, key)
}

// Handler serves the stored files. Mount it with http.StripPrefix on the media URL path.
func (s *FileStore) Handler() http.Handler {
	return http.FileServer(afero.NewHttpFs(s.fs).Dir("/"))
}
