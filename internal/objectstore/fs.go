package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// FSStore is a Store over a directory tree. Each key maps to the file at
// that relative path below the store's root.
type FSStore struct {
	fs afero.Fs
}

// NewFSStore returns a Store rooted at the top of fsys. Use
// afero.NewBasePathFs to root it at a subdirectory, or afero.NewMemMapFs
// for tests.
func NewFSStore(fsys afero.Fs) *FSStore {
	return &FSStore{fs: fsys}
}

func newFS(ep *url.URL) (Store, error) {
	var args struct{}
	if err := parseStoreArgs(ep, &args); err != nil {
		return nil, err
	}
	if ep.Path == "" {
		return nil, fmt.Errorf("file store URL %q has no path", ep.String())
	}
	var root = filepath.FromSlash(ep.Path)
	if info, err := os.Stat(root); err != nil {
		return nil, fmt.Errorf("file store root: %w", err)
	} else if !info.IsDir() {
		return nil, fmt.Errorf("file store root %s is not a directory", root)
	}
	return NewFSStore(afero.NewBasePathFs(afero.NewOsFs(), root)), nil
}

func (s *FSStore) Provider() string { return "fs" }

func (s *FSStore) Exists(_ context.Context, key string) (bool, error) {
	name, err := s.name(key)
	if err != nil {
		return false, err
	}
	return afero.Exists(s.fs, name)
}

func (s *FSStore) Get(_ context.Context, key string) (io.ReadCloser, error) {
	name, err := s.name(key)
	if err != nil {
		return nil, err
	}
	f, err := s.fs.Open(name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return f, err
}

// Put writes to a temporary file beside the destination and renames it
// into place, so readers never observe a partial object.
func (s *FSStore) Put(_ context.Context, key string, content io.ReaderAt, length int64, _ string) error {
	name, err := s.name(key)
	if err != nil {
		return err
	}
	var dir = filepath.Dir(name)
	if err := s.fs.MkdirAll(dir, 0o750); err != nil {
		return err
	}

	f, err := afero.TempFile(s.fs, dir, ".partial-"+filepath.Base(name))
	if err != nil {
		return err
	}
	defer func(tmp string) {
		if rmErr := s.fs.Remove(tmp); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			slog.Warn("failed to clean up temp file", "path", tmp, "error", rmErr)
		}
	}(f.Name())

	_, err = io.Copy(f, io.NewSectionReader(content, 0, length))
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = s.fs.Rename(f.Name(), name)
	}
	return err
}

// List walks the tree below prefix's directory and reports files whose keys
// begin with prefix, in lexical order.
func (s *FSStore) List(_ context.Context, prefix string, callback func(ObjectInfo) error) error {
	var dir = path.Dir(prefix + "x")
	if ok, err := afero.DirExists(s.fs, filepath.FromSlash(dir)); err != nil {
		return err
	} else if !ok {
		return nil
	}

	return afero.Walk(s.fs, filepath.FromSlash(dir), func(name string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || strings.HasPrefix(info.Name(), ".partial-") {
			return nil
		}
		var key = strings.TrimPrefix(filepath.ToSlash(name), "/")
		if !strings.HasPrefix(key, prefix) {
			return nil
		}
		return callback(ObjectInfo{Key: key, Size: info.Size(), ModTime: info.ModTime()})
	})
}

func (s *FSStore) Remove(_ context.Context, key string) error {
	name, err := s.name(key)
	if err != nil {
		return err
	}
	return s.fs.Remove(name)
}

// name maps key to a path within the store, rejecting keys that would
// escape it.
func (s *FSStore) name(key string) (string, error) {
	var clean = path.Clean("/" + key)
	if key == "" || strings.HasSuffix(key, "/") || clean != "/"+strings.TrimPrefix(key, "/") {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	return filepath.FromSlash(strings.TrimPrefix(clean, "/")), nil
}
