// Package storage keeps project files on the local filesystem. It mirrors
// the Supabase bucket layout so both stores are interchangeable.
package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

type Filesystem struct {
	basePath string
	logger   *slog.Logger
}

func NewFilesystem(basePath string, logger *slog.Logger) (*Filesystem, error) {
	if basePath == "" {
		return nil, fmt.Errorf("storage path required")
	}

	absPath, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("resolve storage path: %w", err)
	}
	if err := os.MkdirAll(absPath, 0o755); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}

	return &Filesystem{
		basePath: absPath,
		logger:   logger.With("system", "storage"),
	}, nil
}

func projectPrefix(userID, projectID uuid.UUID) string {
	return fmt.Sprintf("users/%s/projects/%s/", userID, projectID)
}

// UploadFile stores data and returns its key and a file:// URL.
func (f *Filesystem) UploadFile(userID, projectID uuid.UUID, filename string, data []byte, _ string) (string, string, error) {
	key := projectPrefix(userID, projectID) + filename
	path, err := f.fullPath(key)
	if err != nil {
		return "", "", err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", "", fmt.Errorf("create directory: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return "", "", fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return "", "", fmt.Errorf("rename temp file: %w", err)
	}

	return key, "file://" + filepath.ToSlash(path), nil
}

func (f *Filesystem) DownloadFile(key string) ([]byte, error) {
	path, err := f.fullPath(key)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return data, nil
}

// DeleteProjectFiles removes the project folder. A missing folder is not an
// error.
func (f *Filesystem) DeleteProjectFiles(userID, projectID uuid.UUID) error {
	dir, err := f.fullPath(projectPrefix(userID, projectID))
	if err != nil {
		return err
	}

	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("remove project files: %w", err)
	}

	// Drop the user folder once its last project is gone.
	userDir := filepath.Dir(filepath.Dir(dir))
	if entries, err := os.ReadDir(filepath.Join(userDir, "projects")); err == nil && len(entries) == 0 {
		if err := os.RemoveAll(userDir); err != nil {
			f.logger.Warn("failed to remove empty directory", "dir", userDir, "error", err)
		}
	}

	return nil
}

func (f *Filesystem) fullPath(key string) (string, error) {
	if key == "" {
		return "", ErrInvalidKey
	}

	cleaned := filepath.Clean(key)
	if strings.HasPrefix(cleaned, "..") || filepath.IsAbs(cleaned) {
		return "", ErrInvalidKey
	}

	fullPath := filepath.Join(f.basePath, cleaned)
	if !strings.HasPrefix(fullPath, f.basePath+string(filepath.Separator)) {
		return "", ErrInvalidKey
	}

	return fullPath, nil
}
