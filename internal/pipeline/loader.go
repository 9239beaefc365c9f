package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// DocumentExtension is the conventional Worldview file extension
const DocumentExtension = ".wvf"

// ErrDocumentTooLarge is returned when input exceeds the configured size bound
var ErrDocumentTooLarge = errors.New("document exceeds size limit")

// Loader reads documents with a size bound applied before parsing
type Loader struct {
	maxBytes int64
}

// NewLoader creates a loader. A non-positive maxBytes disables the bound.
func NewLoader(maxBytes int64) *Loader {
	return &Loader{maxBytes: maxBytes}
}

// MaxBytes returns the configured size bound
func (l *Loader) MaxBytes() int64 {
	return l.maxBytes
}

// Load reads a document from disk
func (l *Loader) Load(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open document: %w", err)
	}
	defer func() { _ = f.Close() }()

	if info, err := f.Stat(); err == nil {
		if info.IsDir() {
			return nil, fmt.Errorf("open document: %s is a directory", path)
		}
		if l.maxBytes > 0 && info.Size() > l.maxBytes {
			return nil, fmt.Errorf("%s: %w (%d > %d bytes)", path, ErrDocumentTooLarge, info.Size(), l.maxBytes)
		}
	}

	return l.ReadAll(f)
}

// ReadAll reads a document from r, failing once more than maxBytes arrive
func (l *Loader) ReadAll(r io.Reader) ([]byte, error) {
	if l.maxBytes <= 0 {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("read document: %w", err)
		}
		return data, nil
	}

	data, err := io.ReadAll(io.LimitReader(r, l.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	if int64(len(data)) > l.maxBytes {
		return nil, fmt.Errorf("%w (limit %d bytes)", ErrDocumentTooLarge, l.maxBytes)
	}
	return data, nil
}

// HasDocumentExtension reports whether path ends in .wvf, ignoring case
func HasDocumentExtension(path string) bool {
	return strings.EqualFold(filepath.Ext(path), DocumentExtension)
}
