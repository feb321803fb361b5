// Package cache stores conversations and the model catalog as gob files
// under the data directory.
package cache

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Type names the sub directory a cache keeps its files in.
type Type string

// Cache types.
const (
	ConversationCache Type = "conversations"
	TemporaryCache    Type = "temp"
)

const cacheExt = ".gob"

var errInvalidID = errors.New("invalid id")

// Cache keeps one file per ID in its directory.
type Cache[T any] struct {
	dir string
}

// New opens the cache of the given type under baseDir, creating its
// directory.
func New[T any](baseDir string, cacheType Type) (*Cache[T], error) {
	dir := filepath.Join(baseDir, string(cacheType))
	if err := os.MkdirAll(dir, 0o700); err != nil { //nolint:mnd
		return nil, fmt.Errorf("create cache directory: %w", err)
	}
	return &Cache[T]{dir: dir}, nil
}

func (c *Cache[T]) path(id string) string {
	return filepath.Join(c.dir, id+cacheExt)
}

// Read opens the entry for id and hands it to readFn.
func (c *Cache[T]) Read(id string, readFn func(io.Reader) error) error {
	if id == "" {
		return fmt.Errorf("read: %w", errInvalidID)
	}
	file, err := os.Open(c.path(id))
	if err != nil {
		return fmt.Errorf("read: %w", err)
	}
	defer file.Close() //nolint:errcheck

	if err := readFn(file); err != nil {
		return fmt.Errorf("read: %w", err)
	}
	return nil
}

// Write replaces the entry for id with what writeFn produces. The entry is
// written to a temporary file first, so a failed write keeps the old one.
func (c *Cache[T]) Write(id string, writeFn func(io.Writer) error) error {
	if id == "" {
		return fmt.Errorf("write: %w", errInvalidID)
	}

	tmp, err := os.CreateTemp(c.dir, id+".*.tmp")
	if err != nil {
		return fmt.Errorf("write: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	if err := writeFn(tmp); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	if err := os.Rename(tmp.Name(), c.path(id)); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}

// Delete removes the entry for id.
func (c *Cache[T]) Delete(id string) error {
	if id == "" {
		return fmt.Errorf("delete: %w", errInvalidID)
	}
	if err := os.Remove(c.path(id)); err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	return nil
}
