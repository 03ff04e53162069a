package kvstore

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
)

// File is a Store keeping one file per key under a directory, optionally
// gzip-compressed. Keys must be usable as file names; the catalog keys are.
// Safe for concurrent use within one process.
type File struct {
	dir      string
	compress bool
	mu       sync.RWMutex
}

// NewFile returns a file-backed store rooted at dir, creating it if needed.
// With compress set, values are written gzip-compressed with a .gz suffix.
func NewFile(dir string, compress bool) (*File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "create store directory")
	}
	return &File{dir: dir, compress: compress}, nil
}

// Get reads the value stored under key. A missing file means the key was
// never set.
func (f *File) Get(key string) (string, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	data, err := os.ReadFile(f.path(key))
	if err != nil {
		return "", false
	}
	if !f.compress {
		return string(data), true
	}

	gz, err := pgzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return "", false
	}
	defer gz.Close()
	raw, err := io.ReadAll(gz)
	if err != nil {
		return "", false
	}
	return string(raw), true
}

// Set overwrites the value stored under key. The write goes through a temp
// file and rename so readers never observe a torn value.
func (f *File) Set(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	payload := []byte(value)
	if f.compress {
		var buf bytes.Buffer
		gz := pgzip.NewWriter(&buf)
		if _, err := gz.Write(payload); err != nil {
			return errors.Wrap(err, "compress value")
		}
		if err := gz.Close(); err != nil {
			return errors.Wrap(err, "flush compressed value")
		}
		payload = buf.Bytes()
	}

	tmp, err := os.CreateTemp(f.dir, key+".*")
	if err != nil {
		return errors.Wrap(err, "create temp file")
	}
	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return errors.Wrap(err, "write value")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrap(err, "close temp file")
	}
	if err := os.Rename(tmp.Name(), f.path(key)); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrap(err, "replace value file")
	}
	return nil
}

func (f *File) path(key string) string {
	name := key
	if f.compress {
		name += ".gz"
	}
	return filepath.Join(f.dir, name)
}
