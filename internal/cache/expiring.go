package cache

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

var errCorrupted = errors.New("invalid cache filename")

// ExpiringCache is a cache implementation that supports expiration of cached items.
type ExpiringCache[T any] struct {
	cache *Cache[T]
}

// NewExpiring creates a new cache instance that supports item expiration.
func NewExpiring[T any](path string) (*ExpiringCache[T], error) {
	cache, err := New[T](path, TemporaryCache)
	if err != nil {
		return nil, fmt.Errorf("create expiring cache: %w", err)
	}
	return &ExpiringCache[T]{cache: cache}, nil
}

func (c *ExpiringCache[T]) filename(id string, expiresAt int64) string {
	return fmt.Sprintf("%s.%d", id, expiresAt)
}

func (c *ExpiringCache[T]) matches(id string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(c.cache.dir, id+".*"))
	if err != nil {
		return nil, fmt.Errorf("glob expiring cache: %w", err)
	}
	return matches, nil
}

// Read reads the item with the given ID. Expired items are removed and
// reported as [os.ErrNotExist].
func (c *ExpiringCache[T]) Read(id string, readFn func(io.Reader) error) error {
	if id == "" {
		return fmt.Errorf("read: %w", errInvalidID)
	}
	matches, err := c.matches(id)
	if err != nil {
		return err
	}
	if len(matches) == 0 {
		return fmt.Errorf("read: %w", os.ErrNotExist)
	}

	_, suffix, ok := strings.Cut(filepath.Base(matches[0]), ".")
	if !ok {
		return errCorrupted
	}
	expiresAt, err := strconv.ParseInt(suffix, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid expiration timestamp: %w", err)
	}

	if expiresAt < time.Now().Unix() {
		if err := os.Remove(matches[0]); err != nil {
			return fmt.Errorf("failed to remove expired cache file: %w", err)
		}
		return os.ErrNotExist
	}

	file, err := os.Open(matches[0])
	if err != nil {
		return fmt.Errorf("failed to open expiring cache file: %w", err)
	}
	defer file.Close() //nolint:errcheck

	return readFn(file)
}

// Write replaces the item with the given ID.
func (c *ExpiringCache[T]) Write(id string, expiresAt int64, writeFn func(io.Writer) error) error {
	if id == "" {
		return fmt.Errorf("write: %w", errInvalidID)
	}
	if err := c.Delete(id); err != nil {
		return err
	}

	file, err := os.Create(filepath.Join(c.cache.dir, c.filename(id, expiresAt)))
	if err != nil {
		return fmt.Errorf("failed to create expiring cache file: %w", err)
	}
	defer file.Close() //nolint:errcheck

	return writeFn(file)
}

// Delete removes an expired cached item by its ID.
func (c *ExpiringCache[T]) Delete(id string) error {
	matches, err := c.matches(id)
	if err != nil {
		return err
	}
	for _, match := range matches {
		if err := os.Remove(match); err != nil {
			return fmt.Errorf("failed to delete expiring cache file: %w", err)
		}
	}
	return nil
}
