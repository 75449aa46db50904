// Package storage holds the file stores for uploaded travel photos: a local
// directory and an S3-compatible bucket. Names are flat; anything that could
// escape the root is rejected with domain.ErrInvalidFileName.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/delcom/travel-log/internal/api/metrics"
	"github.com/delcom/travel-log/internal/core/domain"
)

// Local stores files in a single directory, created on first write.
type Local struct {
	dir string
}

func NewLocal(dir string) *Local {
	return &Local{dir: filepath.Clean(dir)}
}

// Dir returns the storage root.
func (l *Local) Dir() string {
	return l.dir
}

func (l *Local) path(name string) (string, error) {
	if err := checkName(name); err != nil {
		return "", err
	}
	return filepath.Join(l.dir, name), nil
}

// Store writes r to name through a temp file, replacing any existing file.
func (l *Local) Store(_ context.Context, name, _ string, r io.Reader) error {
	dst, err := l.path(name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return fmt.Errorf("create upload dir: %w", err)
	}

	tmp, err := os.CreateTemp(l.dir, ".upload-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return fmt.Errorf("rename %s: %w", name, err)
	}

	metrics.ImagesStoredTotal.WithLabelValues("local").Inc()
	return nil
}

func (l *Local) Open(_ context.Context, name string) (io.ReadCloser, error) {
	p, err := l.path(name)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.ErrFileNotFound
		}
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	return f, nil
}

func (l *Local) Exists(_ context.Context, name string) (bool, error) {
	p, err := l.path(name)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("stat %s: %w", name, err)
	}
	return info.Mode().IsRegular(), nil
}

func (l *Local) Delete(_ context.Context, name string) (bool, error) {
	p, err := l.path(name)
	if err != nil {
		return false, err
	}
	if err := os.Remove(p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("remove %s: %w", name, err)
	}
	return true, nil
}

// Ping returns a readiness check that the directory is usable.
func (l *Local) Ping(context.Context) error {
	return os.MkdirAll(l.dir, 0o755)
}

func checkName(name string) error {
	switch {
	case name == "", name == ".", name == "..":
		return domain.ErrInvalidFileName
	case strings.ContainsAny(name, `/\`), strings.ContainsRune(name, 0):
		return domain.ErrInvalidFileName
	case strings.HasPrefix(name, ".upload-"):
		return domain.ErrInvalidFileName
	}
	return nil
}
