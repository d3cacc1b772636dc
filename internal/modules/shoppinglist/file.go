package shoppinglist

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

type fileRepository struct {
	path     string
	defaults Defaults
	logger   *slog.Logger
}

// NewFileRepository stores the document as pretty-printed JSON at path.
func NewFileRepository(path string, defaults Defaults, logger *slog.Logger) Repository {
	return &fileRepository{path: path, defaults: defaults, logger: logger}
}

func (r *fileRepository) ensureDir() error {
	if err := os.MkdirAll(filepath.Dir(r.path), 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	return nil
}

func (r *fileRepository) Load(ctx context.Context) (*Document, error) {
	if err := r.ensureDir(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		doc := r.defaults.Document()
		if err := r.Save(ctx, doc); err != nil {
			return nil, err
		}
		r.logger.Info("created default data file", "path", r.path)
		return doc, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read data file: %w", err)
	}

	doc, err := DecodeDocument(data, r.defaults)
	if err != nil {
		r.logger.Warn("data file is corrupt, using defaults", "path", r.path, "error", err)
		return r.defaults.Document(), nil
	}
	return doc, nil
}

// Save writes to a temporary file in the same directory and renames it over
// the data file, so readers never observe a half-written document.
func (r *fileRepository) Save(ctx context.Context, doc *Document) error {
	if err := r.ensureDir(); err != nil {
		return err
	}

	data, err := EncodeDocument(doc)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(r.path), filepath.Base(r.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write data file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write data file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return fmt.Errorf("failed to write data file: %w", err)
	}
	if err := os.Rename(tmp.Name(), r.path); err != nil {
		return fmt.Errorf("failed to replace data file: %w", err)
	}
	return nil
}
