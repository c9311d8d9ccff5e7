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
	"time"
)

const defaultContentType = "application/octet-stream"

// LocalFS stores sheets below a base directory, sharded by the first four
// characters of the key. The content type is kept in a ".meta" file next to
// the sheet.
type LocalFS struct {
	BaseDir   string
	PublicURL string
}

// NewLocalFS creates baseDir if needed. publicURL prefixes the links returned
// by URL; when empty the key itself is returned.
func NewLocalFS(baseDir, publicURL string) (*LocalFS, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create import directory: %w", err)
	}
	return &LocalFS{BaseDir: baseDir, PublicURL: strings.TrimRight(publicURL, "/")}, nil
}

func (d *LocalFS) path(key string) (string, error) {
	if key == "" || key != filepath.Base(key) || strings.HasPrefix(key, ".") {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	if len(key) < 4 {
		return filepath.Join(d.BaseDir, key), nil
	}
	return filepath.Join(d.BaseDir, key[:2], key[2:4], key), nil
}

func (d *LocalFS) Save(_ context.Context, key string, body io.Reader, contentType string) error {
	fullPath, err := d.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return fmt.Errorf("failed to create shard directory: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	if _, err := io.Copy(file, body); err != nil {
		_ = file.Close()
		_ = os.Remove(fullPath)
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(fullPath)
		return fmt.Errorf("failed to close file: %w", err)
	}

	if err := os.WriteFile(fullPath+".meta", []byte(contentType), 0o644); err != nil {
		_ = os.Remove(fullPath)
		return fmt.Errorf("failed to write metadata: %w", err)
	}
	return nil
}

func (d *LocalFS) Get(_ context.Context, key string) (io.ReadCloser, string, error) {
	fullPath, err := d.path(key)
	if err != nil {
		return nil, "", err
	}
	f, err := os.Open(fullPath)
	if err != nil {
		return nil, "", err
	}

	contentType := defaultContentType
	if meta, err := os.ReadFile(fullPath + ".meta"); err == nil && len(meta) > 0 {
		contentType = string(meta)
	}
	return f, contentType, nil
}

func (d *LocalFS) Delete(_ context.Context, key string) error {
	fullPath, err := d.path(key)
	if err != nil {
		return err
	}
	_ = os.Remove(fullPath + ".meta")
	if err := os.Remove(fullPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (d *LocalFS) URL(_ context.Context, key string, _ time.Duration) (string, error) {
	if d.PublicURL == "" {
		return key, nil
	}
	return d.PublicURL + "/" + key, nil
}
