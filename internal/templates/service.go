package templates

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-pagebuilder/internal/cache"
	"github.com/goliatone/go-pagebuilder/internal/codec"
	"github.com/goliatone/go-pagebuilder/internal/logging"
	"github.com/goliatone/go-pagebuilder/internal/pagedef"
	"github.com/goliatone/go-pagebuilder/internal/pagestore"
	"github.com/goliatone/go-pagebuilder/internal/resolver"
	"github.com/goliatone/go-pagebuilder/internal/storage"
	"github.com/goliatone/go-pagebuilder/pkg/interfaces"
)

// Service implements the create, save, load and render-data operations.
type Service interface {
	Create(ctx context.Context, payload pagedef.TemplatePayload) (*WriteResult, error)
	Save(ctx context.Context, payload pagedef.TemplatePayload) (*WriteResult, error)
	LoadRaw(ctx context.Context, path string) (*RawTemplate, error)
	RenderData(ctx context.Context, path string) (*RenderData, error)
	InvalidateCache(ctx context.Context, path string) error
}

// WriteResult describes a persisted definition.
type WriteResult struct {
	Path       string                 `json:"templatePath"`
	Location   string                 `json:"location"`
	Backend    string                 `json:"backend"`
	Created    bool                   `json:"created"`
	Definition pagedef.PageDefinition `json:"-"`
}

// RawTemplate is the durable artifact as stored.
type RawTemplate struct {
	Path        string `json:"templatePath"`
	Source      string `json:"source"`
	ContentType string `json:"contentType"`
	Content     []byte `json:"-"`
}

// RenderData is the decoded definition returned to editing tooling.
type RenderData struct {
	Path             string                      `json:"path"`
	CSSClassName     string                      `json:"cssClassName"`
	ContentOverrides pagedef.ContentOverrides    `json:"contentOverrides"`
	AddedComponents  []pagedef.ComponentInstance `json:"addedComponents"`
	ElementProps     pagedef.ElementProps        `json:"elementProps"`
	Source           string                      `json:"source"`
}

// Config wires the service collaborators.
type Config struct {
	Resolver *resolver.Resolver
	// Primary receives every write.
	Primary *pagestore.Store
	// Bundled holds pre-built sources consulted by LoadRaw when Primary misses.
	Bundled *pagestore.Store
	Cache   interfaces.CacheProvider
	Logger  interfaces.Logger
}

type service struct {
	resolver *resolver.Resolver
	primary  *pagestore.Store
	bundled  *pagestore.Store
	cache    interfaces.CacheProvider
	logger   interfaces.Logger
}

// NewService builds the template service.
func NewService(cfg Config) Service {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NoOp()
	}
	return &service{
		resolver: cfg.Resolver,
		primary:  cfg.Primary,
		bundled:  cfg.Bundled,
		cache:    cfg.Cache,
		logger:   logger,
	}
}

func (s *service) Create(ctx context.Context, payload pagedef.TemplatePayload) (*WriteResult, error) {
	path, err := validatePayloadPath(payload.TemplatePath)
	if err != nil {
		return nil, err
	}
	if s.primary == nil {
		return nil, ErrNoWritableStore
	}
	log := logging.WithTemplateContext(s.logger, path, s.primary.Name(), "create")
	defer s.lock(path)()

	exists, err := s.exists(ctx, path)
	if err != nil {
		return nil, err
	}
	if exists {
		log.Warn("templates.create.duplicate")
		return nil, fmt.Errorf("%w: %s", ErrTemplateExists, path)
	}

	payload.TemplatePath = path
	def := payload.Definition()
	if err := s.primary.Write(ctx, def); err != nil {
		log.Error("templates.create.failed", "error", err)
		return nil, err
	}
	s.invalidate(ctx, path)
	log.Info("templates.create.success", "instances", len(def.Instances))
	return &WriteResult{
		Path:       path,
		Location:   s.primary.Location(path),
		Backend:    s.primary.Name(),
		Created:    true,
		Definition: def,
	}, nil
}

func (s *service) Save(ctx context.Context, payload pagedef.TemplatePayload) (*WriteResult, error) {
	path, err := validatePayloadPath(payload.TemplatePath)
	if err != nil {
		return nil, err
	}
	if payload.Content == nil {
		return nil, ErrContentRequired
	}
	if s.primary == nil {
		return nil, ErrNoWritableStore
	}
	log := logging.WithTemplateContext(s.logger, path, s.primary.Name(), "save")
	defer s.lock(path)()

	def, created := s.current(ctx, path)
	def.ContentOverrides = payload.Content
	if payload.AddedComponents != nil {
		def.Instances = payload.AddedComponents
	}
	if payload.ElementProps != nil {
		def.ElementProps = payload.ElementProps
	}
	def = pagedef.Clone(def)

	if err := s.primary.Write(ctx, def); err != nil {
		log.Error("templates.save.failed", "error", err)
		return nil, err
	}
	s.invalidate(ctx, path)
	log.Info("templates.save.success", "created", created, "instances", len(def.Instances))
	return &WriteResult{
		Path:       path,
		Location:   s.primary.Location(path),
		Backend:    s.primary.Name(),
		Created:    created,
		Definition: def,
	}, nil
}

// lock holds the resolver's per-path write lock until the returned func runs.
func (s *service) lock(path string) func() {
	if s.resolver == nil {
		return func() {}
	}
	return s.resolver.LockPath(path)
}

// current returns the stored definition, or a blank one when none resolves.
// It never schedules a sync since the caller is about to write path itself.
func (s *service) current(ctx context.Context, path string) (pagedef.PageDefinition, bool) {
	if s.resolver != nil {
		if result, err := s.resolver.Resolve(ctx, path, resolver.WithoutSync()); err == nil {
			return result.Definition, false
		}
	} else if def, err := s.primary.Read(ctx, path); err == nil {
		return def, false
	}
	return pagedef.CreateEmpty(path), true
}

func (s *service) exists(ctx context.Context, path string) (bool, error) {
	if s.resolver != nil {
		return s.resolver.Exists(ctx, path)
	}
	return s.primary.Exists(ctx, path)
}

func (s *service) LoadRaw(ctx context.Context, path string) (*RawTemplate, error) {
	normalized, err := validatePayloadPath(path)
	if err != nil {
		return nil, err
	}
	var lastErr error
	for _, store := range s.rawStores() {
		data, err := store.ReadRaw(ctx, normalized)
		if err == nil {
			return &RawTemplate{
				Path:        normalized,
				Source:      store.Name(),
				ContentType: contentType(store.Codec()),
				Content:     data,
			}, nil
		}
		if !storage.IsNotFound(err) {
			logging.WithTemplateContext(s.logger, normalized, store.Name(), "load").
				Warn("templates.load.failed", "error", err)
			lastErr = err
		}
	}
	if lastErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrTemplateUnavailable, lastErr)
	}
	return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, normalized)
}

func (s *service) rawStores() []*pagestore.Store {
	var stores []*pagestore.Store
	if s.primary != nil {
		stores = append(stores, s.primary)
	}
	if s.bundled != nil && s.bundled != s.primary {
		stores = append(stores, s.bundled)
	}
	return stores
}

// RenderData resolves the definition. Decode and transport failures of the
// preferred store surface as ErrTemplateUnavailable, plain absence as not found.
func (s *service) RenderData(ctx context.Context, path string) (*RenderData, error) {
	if strings.TrimSpace(path) == "" {
		return nil, ErrTemplatePathRequired
	}
	if s.resolver == nil {
		return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, path)
	}
	result, err := s.resolver.Resolve(ctx, path)
	if err != nil {
		var notFound *resolver.NotFoundError
		if errors.As(err, &notFound) && notFound.Primary != nil &&
			(errors.Is(notFound.Primary, codec.ErrDecode) || errors.Is(notFound.Primary, storage.ErrStorage)) {
			return nil, fmt.Errorf("%w: %w", ErrTemplateUnavailable, notFound.Primary)
		}
		return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, pagedef.NormalizePath(path))
	}
	def := result.Definition
	return &RenderData{
		Path:             def.Path,
		CSSClassName:     def.CSSClassName,
		ContentOverrides: nonNilOverrides(def.ContentOverrides),
		AddedComponents:  nonNilInstances(def.Instances),
		ElementProps:     nonNilElementProps(def.ElementProps),
		Source:           result.Source,
	}, nil
}

func (s *service) InvalidateCache(ctx context.Context, path string) error {
	normalized, err := validatePayloadPath(path)
	if err != nil {
		return err
	}
	return cache.InvalidatePage(ctx, s.cache, normalized)
}

func (s *service) invalidate(ctx context.Context, path string) {
	if err := cache.InvalidatePage(ctx, s.cache, path); err != nil {
		logging.WithTemplateContext(s.logger, path, "", "invalidate").
			Warn("templates.cache.invalidate_failed", "error", err)
	}
}

func validatePayloadPath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", ErrTemplatePathRequired
	}
	return pagedef.ValidatePath(path)
}

func contentType(c codec.Codec) string {
	if _, ok := c.(*codec.StructuredCodec); ok {
		return "application/json"
	}
	return "text/plain; charset=utf-8"
}

func nonNilOverrides(in pagedef.ContentOverrides) pagedef.ContentOverrides {
	if in == nil {
		return pagedef.ContentOverrides{}
	}
	return in
}

func nonNilInstances(in []pagedef.ComponentInstance) []pagedef.ComponentInstance {
	if in == nil {
		return []pagedef.ComponentInstance{}
	}
	return in
}

func nonNilElementProps(in pagedef.ElementProps) pagedef.ElementProps {
	if in == nil {
		return pagedef.ElementProps{}
	}
	return in
}
