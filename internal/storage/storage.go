package storage

import (
	"context"
	"errors"
	"fmt"
)

// Backend stores durable page artifacts under an object key.
// Keys are slash separated and never start with a slash.
type Backend interface {
	Name() string
	Exists(ctx context.Context, key string) (bool, error)
	Read(ctx context.Context, key string) ([]byte, error)
	Write(ctx context.Context, key string, data []byte) error
}

// Locator is implemented by backends able to describe where a key lives.
type Locator interface {
	Location(key string) string
}

var (
	ErrNotFound  = errors.New("storage: object not found")
	ErrStaleRead = errors.New("storage: stale read")
	ErrStorage   = errors.New("storage: operation failed")
	ErrKeyEmpty  = errors.New("storage: object key is required")
)

// NotFoundError reports that the key does not exist in the backend.
type NotFoundError struct {
	Backend string
	Key     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("storage: %s object %q not found", e.Backend, e.Key)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// StaleReadError reports that every read attempt came back from a cache without a body.
type StaleReadError struct {
	Backend  string
	Key      string
	Attempts int
}

func (e *StaleReadError) Error() string {
	return fmt.Sprintf("storage: %s object %q still stale after %d attempts", e.Backend, e.Key, e.Attempts)
}

func (e *StaleReadError) Unwrap() error {
	return ErrStaleRead
}

// Error wraps an I/O or transport failure.
type Error struct {
	Op      string
	Backend string
	Key     string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("storage: %s %s %q: %v", e.Backend, e.Op, e.Key, e.Err)
}

func (e *Error) Unwrap() []error {
	return []error{ErrStorage, e.Err}
}

// IsNotFound reports whether err signals an absent object.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// Location describes where key lives in backend, falling back to backend:key.
func Location(backend Backend, key string) string {
	if locator, ok := backend.(Locator); ok {
		return locator.Location(key)
	}
	return backend.Name() + ":" + key
}
