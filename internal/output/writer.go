package output

import (
	"context"
	"fmt"
	"os"

	"github.com/quantmind-br/downgit-go/internal/domain"
	"github.com/quantmind-br/downgit-go/internal/utils"
)

// Writer writes files into a directory tree
type Writer struct {
	baseDir string
}

// WriterOptions contains options for the writer
type WriterOptions struct {
	BaseDir string
}

var _ domain.Sink = (*Writer)(nil)

// NewWriter creates a new tree writer
func NewWriter(opts WriterOptions) *Writer {
	if opts.BaseDir == "" {
		opts.BaseDir = "."
	}

	return &Writer{baseDir: opts.BaseDir}
}

// Put writes content to rel under the base directory, creating parent
// directories and overwriting any existing file.
func (w *Writer) Put(ctx context.Context, rel string, content []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path, err := utils.SafeJoin(w.baseDir, rel)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrWriteFailed, err)
	}

	if err := utils.EnsureDir(path); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrWriteFailed, err)
	}

	if err := os.WriteFile(path, content, 0644); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrWriteFailed, err)
	}

	return nil
}

// Close returns the base directory
func (w *Writer) Close() (string, error) {
	return w.baseDir, nil
}
