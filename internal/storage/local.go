package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// Local stores documents under a directory and serves them below a URL
// prefix. Suitable for development and single-node deployments.
type Local struct {
	basePath  string // filesystem root, e.g. "./data/invoices"
	urlPrefix string // URL prefix the files are served from, e.g. "/files"
}

// NewLocal creates a local filesystem storage.
func NewLocal(basePath, urlPrefix string) *Local {
	return &Local{
		basePath:  basePath,
		urlPrefix: strings.TrimRight(urlPrefix, "/"),
	}
}

// resolve maps a key to a file path inside basePath.
func (l *Local) resolve(key string) (string, error) {
	clean := path.Clean("/" + key)
	if clean == "/" {
		return "", fmt.Errorf("invalid key %q", key)
	}
	return filepath.Join(l.basePath, filepath.FromSlash(clean)), nil
}

func (l *Local) url(key string) string {
	return l.urlPrefix + "/" + strings.TrimLeft(path.Clean("/"+key), "/")
}

func (l *Local) Put(_ context.Context, key string, body io.Reader, _ string) (string, error) {
	dest, err := l.resolve(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", fmt.Errorf("creating directory for %s: %w", key, err)
	}

	// Write to a temporary file first so a reader never sees half a document.
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".upload-*")
	if err != nil {
		return "", fmt.Errorf("creating file %s: %w", key, err)
	}
	if _, err := io.Copy(tmp, body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("writing file %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("closing file %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("moving file %s into place: %w", key, err)
	}

	return l.url(key), nil
}

func (l *Local) Get(_ context.Context, key string) (io.ReadCloser, error) {
	p, err := l.resolve(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("opening file %s: %w", key, err)
	}
	return f, nil
}

func (l *Local) Delete(_ context.Context, key string) error {
	p, err := l.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing file %s: %w", key, err)
	}
	return nil
}

func (l *Local) PresignGet(_ context.Context, key string, _ time.Duration) (string, error) {
	// No access control on local files.
	return l.url(key), nil
}
