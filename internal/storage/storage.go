package storage

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
)

// Storage keeps uploaded media under a single root. Client paths are
// slash-separated and relative to that root.
type Storage interface {
	Save(clientPath string, content io.Reader) error
	Remove(clientPath string) error
}

type LocalStorage struct {
	root mediaRoot
}

func New(root string) (*LocalStorage, error) {
	media, err := newMediaRoot(root)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(media.abs, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}

	return &LocalStorage{root: media}, nil
}

func (s *LocalStorage) fileTarget(clientPath string) (string, error) {
	resolved, err := s.root.resolve(clientPath)
	if err != nil {
		return "", err
	}
	if resolved == s.root.abs {
		return "", invalidPath("path refers to the storage root", clientPath)
	}
	return resolved, nil
}

// Save writes content to a temporary file next to the destination and
// renames it into place.
func (s *LocalStorage) Save(clientPath string, content io.Reader) error {
	target, err := s.fileTarget(clientPath)
	if err != nil {
		return err
	}

	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create media directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	discard := func(cause error) error {
		_ = os.Remove(tmpName)
		return cause
	}

	if _, err := io.Copy(tmp, content); err != nil {
		_ = tmp.Close()
		return discard(fmt.Errorf("write %q: %w", clientPath, err))
	}
	if err := tmp.Close(); err != nil {
		return discard(fmt.Errorf("close %q: %w", clientPath, err))
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return discard(fmt.Errorf("chmod %q: %w", clientPath, err))
	}
	if err := os.Rename(tmpName, target); err != nil {
		return discard(fmt.Errorf("move %q into place: %w", clientPath, err))
	}

	return nil
}

// Remove deletes a single file. A missing file is not an error.
func (s *LocalStorage) Remove(clientPath string) error {
	target, err := s.fileTarget(clientPath)
	if err != nil {
		return err
	}

	if err := os.Remove(target); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove %q: %w", clientPath, err)
	}

	return nil
}

// ServeHTTP serves stored files read-only. Directories, hidden entries and
// paths that leave the root all answer 404.
func (s *LocalStorage) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	target, err := s.fileTarget(r.URL.Path)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	file, err := os.Open(target)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil || !info.Mode().IsRegular() {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Cache-Control", "public, max-age=86400")
	http.ServeContent(w, r, info.Name(), info.ModTime(), file)
}
