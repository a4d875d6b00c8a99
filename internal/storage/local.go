package storage

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
)

const localBackendName = "filesystem"

// LocalBackend maps keys to nested files under a root directory.
type LocalBackend struct {
	fs   billy.Filesystem
	root string
}

// NewLocalBackend opens a backend rooted at dir on the host filesystem.
func NewLocalBackend(dir string) *LocalBackend {
	return NewFilesystemBackend(osfs.New(dir), dir)
}

// NewFilesystemBackend wraps an existing billy filesystem. root only feeds Location.
func NewFilesystemBackend(filesystem billy.Filesystem, root string) *LocalBackend {
	return &LocalBackend{fs: filesystem, root: root}
}

func (b *LocalBackend) Name() string {
	return localBackendName
}

func (b *LocalBackend) Location(key string) string {
	if b.root == "" {
		return key
	}
	return path.Join(b.root, key)
}

// Filesystem exposes the underlying filesystem.
func (b *LocalBackend) Filesystem() billy.Filesystem {
	return b.fs
}

func (b *LocalBackend) Exists(_ context.Context, key string) (bool, error) {
	name, err := cleanKey(key)
	if err != nil {
		return false, err
	}
	info, err := b.fs.Stat(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, &Error{Op: "stat", Backend: localBackendName, Key: name, Err: err}
	}
	return !info.IsDir(), nil
}

func (b *LocalBackend) Read(_ context.Context, key string) ([]byte, error) {
	name, err := cleanKey(key)
	if err != nil {
		return nil, err
	}
	file, err := b.fs.Open(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &NotFoundError{Backend: localBackendName, Key: name}
		}
		return nil, &Error{Op: "open", Backend: localBackendName, Key: name, Err: err}
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, &Error{Op: "read", Backend: localBackendName, Key: name, Err: err}
	}
	return data, nil
}

// Write replaces the file atomically by writing a temp file next to it and renaming.
func (b *LocalBackend) Write(_ context.Context, key string, data []byte) error {
	name, err := cleanKey(key)
	if err != nil {
		return err
	}
	dir := path.Dir(name)
	if dir != "." {
		if err := b.fs.MkdirAll(dir, 0o755); err != nil {
			return &Error{Op: "mkdir", Backend: localBackendName, Key: name, Err: err}
		}
	}

	tmp, err := b.fs.TempFile(dir, ".pagebuilder-")
	if err != nil {
		if errors.Is(err, billy.ErrNotSupported) {
			return b.writeDirect(name, data)
		}
		return &Error{Op: "tempfile", Backend: localBackendName, Key: name, Err: err}
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		_ = b.fs.Remove(tmpName)
		return &Error{Op: "write", Backend: localBackendName, Key: name, Err: err}
	}
	if err := tmp.Close(); err != nil {
		_ = b.fs.Remove(tmpName)
		return &Error{Op: "close", Backend: localBackendName, Key: name, Err: err}
	}
	if err := b.fs.Rename(tmpName, name); err != nil {
		// Some filesystems refuse to rename over an existing file.
		_ = b.fs.Remove(name)
		if retryErr := b.fs.Rename(tmpName, name); retryErr != nil {
			_ = b.fs.Remove(tmpName)
			return &Error{Op: "rename", Backend: localBackendName, Key: name, Err: retryErr}
		}
	}
	return nil
}

func (b *LocalBackend) writeDirect(name string, data []byte) error {
	file, err := b.fs.OpenFile(name, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return &Error{Op: "create", Backend: localBackendName, Key: name, Err: err}
	}
	if _, err := file.Write(data); err != nil {
		file.Close()
		return &Error{Op: "write", Backend: localBackendName, Key: name, Err: err}
	}
	if err := file.Close(); err != nil {
		return &Error{Op: "close", Backend: localBackendName, Key: name, Err: err}
	}
	return nil
}

func cleanKey(key string) (string, error) {
	trimmed := strings.Trim(strings.TrimSpace(key), "/")
	if trimmed == "" {
		return "", ErrKeyEmpty
	}
	cleaned := path.Clean(trimmed)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", &Error{Op: "resolve", Backend: localBackendName, Key: key, Err: fs.ErrInvalid}
	}
	return cleaned, nil
}
