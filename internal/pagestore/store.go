package pagestore

import (
	"context"
	"errors"

	"github.com/goliatone/go-pagebuilder/internal/codec"
	"github.com/goliatone/go-pagebuilder/internal/logging"
	"github.com/goliatone/go-pagebuilder/internal/pagedef"
	"github.com/goliatone/go-pagebuilder/internal/storage"
	"github.com/goliatone/go-pagebuilder/pkg/interfaces"
)

// Store pairs a storage backend with the codec used for its artifacts.
type Store struct {
	backend storage.Backend
	codec   codec.Codec
	logger  interfaces.Logger
}

// Option customises a Store.
type Option func(*Store)

// WithLogger sets the logger used for store diagnostics.
func WithLogger(logger interfaces.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New builds a store.
func New(backend storage.Backend, c codec.Codec, opts ...Option) *Store {
	s := &Store{backend: backend, codec: c, logger: logging.NoOp()}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Name reports the backend name, used as the `source` of resolved pages.
func (s *Store) Name() string {
	return s.backend.Name()
}

func (s *Store) Backend() storage.Backend {
	return s.backend
}

func (s *Store) Codec() codec.Codec {
	return s.codec
}

// ObjectName maps the template path to the backend key.
func (s *Store) ObjectName(path string) string {
	return s.codec.ObjectName(path)
}

// Location describes where the template for path is stored.
func (s *Store) Location(path string) string {
	return storage.Location(s.backend, s.codec.ObjectName(path))
}

func (s *Store) Exists(ctx context.Context, path string) (bool, error) {
	return s.backend.Exists(ctx, s.codec.ObjectName(path))
}

// ReadRaw returns the durable artifact without decoding it.
func (s *Store) ReadRaw(ctx context.Context, path string) ([]byte, error) {
	return s.backend.Read(ctx, s.codec.ObjectName(path))
}

// Read loads and decodes the definition stored for path. Decode failures
// return the partially recovered definition together with the error.
func (s *Store) Read(ctx context.Context, path string) (pagedef.PageDefinition, error) {
	data, err := s.ReadRaw(ctx, path)
	if err != nil {
		return pagedef.PageDefinition{}, err
	}
	def, err := s.codec.Decode(data)
	if def.Path == "" {
		def.Path = pagedef.NormalizePath(path)
	}
	if def.CSSClassName == "" {
		def.CSSClassName = pagedef.ClassName(def.Path)
	}
	return def, err
}

// Write encodes and persists def. Codecs able to splice rewrite an existing
// artifact in place so content they do not own survives.
func (s *Store) Write(ctx context.Context, def pagedef.PageDefinition) error {
	data, err := s.encode(ctx, def)
	if err != nil {
		return err
	}
	if err := s.backend.Write(ctx, s.codec.ObjectName(def.Path), data); err != nil {
		return err
	}
	logging.WithTemplateContext(s.logger, def.Path, s.backend.Name(), "write").
		Debug("pagestore.write.success", "bytes", len(data))
	return nil
}

func (s *Store) encode(ctx context.Context, def pagedef.PageDefinition) ([]byte, error) {
	splicer, ok := s.codec.(codec.Splicer)
	if !ok {
		return s.codec.Encode(def)
	}
	existing, err := s.ReadRaw(ctx, def.Path)
	switch {
	case err == nil:
		spliced, spliceErr := splicer.Splice(existing, def)
		if spliceErr == nil {
			return spliced, nil
		}
		logging.WithTemplateContext(s.logger, def.Path, s.backend.Name(), "splice").
			Warn("pagestore.splice.failed", "error", spliceErr)
		return s.codec.Encode(def)
	case errors.Is(err, storage.ErrNotFound):
		return s.codec.Encode(def)
	default:
		return nil, err
	}
}
