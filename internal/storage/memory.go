package storage

import (
	"context"
	"strings"
	"sync"
)

// MemoryBackend keeps objects in memory. It counts calls so callers can assert
// that no backend access happened.
type MemoryBackend struct {
	mu      sync.RWMutex
	name    string
	objects map[string][]byte
	calls   int
	failOn  map[string]error
}

// NewMemoryBackend returns an empty backend reporting the supplied name.
func NewMemoryBackend(name string) *MemoryBackend {
	if name == "" {
		name = "memory"
	}
	return &MemoryBackend{name: name, objects: map[string][]byte{}, failOn: map[string]error{}}
}

func (b *MemoryBackend) Name() string {
	return b.name
}

func (b *MemoryBackend) Exists(_ context.Context, key string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls++
	if err := b.failOn["exists"]; err != nil {
		return false, err
	}
	_, ok := b.objects[strings.Trim(key, "/")]
	return ok, nil
}

func (b *MemoryBackend) Read(_ context.Context, key string) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls++
	if err := b.failOn["read"]; err != nil {
		return nil, err
	}
	data, ok := b.objects[strings.Trim(key, "/")]
	if !ok {
		return nil, &NotFoundError{Backend: b.name, Key: key}
	}
	return append([]byte(nil), data...), nil
}

func (b *MemoryBackend) Write(_ context.Context, key string, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls++
	if err := b.failOn["write"]; err != nil {
		return err
	}
	name := strings.Trim(key, "/")
	if name == "" {
		return ErrKeyEmpty
	}
	b.objects[name] = append([]byte(nil), data...)
	return nil
}

// FailOn makes the named operation ("exists", "read", "write") return err. A nil err clears it.
func (b *MemoryBackend) FailOn(op string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err == nil {
		delete(b.failOn, op)
		return
	}
	b.failOn[op] = err
}

// Calls reports how many operations reached the backend.
func (b *MemoryBackend) Calls() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.calls
}

// Keys lists stored keys.
func (b *MemoryBackend) Keys() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	keys := make([]string, 0, len(b.objects))
	for key := range b.objects {
		keys = append(keys, key)
	}
	return keys
}
