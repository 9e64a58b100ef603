package output

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/quantmind-br/downgit-go/internal/domain"
)

// ZipWriter buffers entries into an in-memory archive and persists it in one
// step on Close, so a failed run never leaves a truncated archive behind.
type ZipWriter struct {
	dir     string
	name    string
	modTime time.Time
	buf     bytes.Buffer
	zw      *zip.Writer
	names   map[string]struct{}
	closed  bool
}

// ZipWriterOptions contains options for the archive writer
type ZipWriterOptions struct {
	Dir     string
	Name    string // archive file name without the .zip extension
	ModTime time.Time
}

var _ domain.Sink = (*ZipWriter)(nil)

// NewZipWriter creates a new archive writer
func NewZipWriter(opts ZipWriterOptions) *ZipWriter {
	if opts.Dir == "" {
		opts.Dir = "."
	}
	if opts.ModTime.IsZero() {
		opts.ModTime = time.Now()
	}

	w := &ZipWriter{
		dir:     opts.Dir,
		name:    opts.Name,
		modTime: opts.ModTime,
		names:   make(map[string]struct{}),
	}
	w.zw = zip.NewWriter(&w.buf)
	return w
}

// Path returns where the archive is written on Close
func (w *ZipWriter) Path() string {
	return ArchivePath(w.dir, w.name)
}

// Put adds one entry to the archive
func (w *ZipWriter) Put(ctx context.Context, name string, content []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if w.closed {
		return fmt.Errorf("%w: archive already closed", domain.ErrArchiveWriteFailed)
	}

	name = strings.TrimPrefix(filepath.ToSlash(name), "/")
	if name == "" {
		return fmt.Errorf("%w: empty entry name", domain.ErrArchiveWriteFailed)
	}
	if _, dup := w.names[name]; dup {
		return fmt.Errorf("%w: duplicate entry %q", domain.ErrArchiveWriteFailed, name)
	}

	f, err := w.zw.CreateHeader(&zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: w.modTime,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrArchiveWriteFailed, err)
	}
	if _, err := f.Write(content); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrArchiveWriteFailed, err)
	}

	w.names[name] = struct{}{}
	return nil
}

// Close finalizes the archive and writes it to <dir>/<name>.zip
func (w *ZipWriter) Close() (string, error) {
	if w.closed {
		return w.Path(), nil
	}
	w.closed = true

	if err := w.zw.Close(); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrArchiveWriteFailed, err)
	}

	path := w.Path()
	if err := writeFileAtomic(path, w.buf.Bytes()); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrArchiveWriteFailed, err)
	}
	w.buf.Reset()
	return path, nil
}

// ArchivePath returns <dir>/<name>.zip
func ArchivePath(dir, name string) string {
	return filepath.Join(dir, name+".zip")
}

// SaveArchive writes pre-built archive bytes verbatim to <dir>/<name>.zip
func SaveArchive(dir, name string, data []byte) (string, error) {
	path := ArchivePath(dir, name)
	if err := writeFileAtomic(path, data); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrArchiveWriteFailed, err)
	}
	return path, nil
}

// RenameFunc maps an archive entry name to its output path. An empty
// result skips the entry.
type RenameFunc func(name string) string

// Rewrap copies every regular entry of archive data into sink under the name
// rename returns. Entries are visited in sorted order. It returns the output
// paths written.
func Rewrap(ctx context.Context, data []byte, sink domain.Sink, rename RenameFunc) ([]string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid archive: %v", domain.ErrArchiveWriteFailed, err)
	}

	files := make([]*zip.File, 0, len(zr.File))
	for _, f := range zr.File {
		if f.FileInfo().IsDir() || !f.Mode().IsRegular() {
			continue
		}
		files = append(files, f)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })

	written := make([]string, 0, len(files))
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return written, err
		}

		out := rename(f.Name)
		if out == "" {
			continue
		}

		content, err := readEntry(f)
		if err != nil {
			return written, fmt.Errorf("%w: read %s: %v", domain.ErrArchiveWriteFailed, f.Name, err)
		}
		if err := sink.Put(ctx, out, content); err != nil {
			return written, err
		}
		written = append(written, out)
	}

	return written, nil
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
