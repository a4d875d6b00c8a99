package di

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"

	"github.com/go-git/go-billy/v5"
	repocache "github.com/goliatone/go-repository-cache/cache"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"github.com/goliatone/go-pagebuilder/internal/auth"
	"github.com/goliatone/go-pagebuilder/internal/cache"
	"github.com/goliatone/go-pagebuilder/internal/codec"
	templatescmd "github.com/goliatone/go-pagebuilder/internal/commands/templates"
	pbhttp "github.com/goliatone/go-pagebuilder/internal/http"
	"github.com/goliatone/go-pagebuilder/internal/languages"
	"github.com/goliatone/go-pagebuilder/internal/logging"
	"github.com/goliatone/go-pagebuilder/internal/logging/console"
	"github.com/goliatone/go-pagebuilder/internal/logging/gologger"
	"github.com/goliatone/go-pagebuilder/internal/pagestore"
	"github.com/goliatone/go-pagebuilder/internal/registry"
	"github.com/goliatone/go-pagebuilder/internal/render"
	"github.com/goliatone/go-pagebuilder/internal/resolver"
	"github.com/goliatone/go-pagebuilder/internal/runtimeconfig"
	"github.com/goliatone/go-pagebuilder/internal/storage"
	"github.com/goliatone/go-pagebuilder/internal/templates"
	"github.com/goliatone/go-pagebuilder/internal/watch"
	"github.com/goliatone/go-pagebuilder/pkg/interfaces"
)

// Container wires the page builder from a runtime configuration.
type Container struct {
	Config runtimeconfig.Config

	hosted         bool
	loggerProvider interfaces.LoggerProvider
	httpClient     storage.HTTPDoer
	localFS        billy.Filesystem
	registry       *registry.Registry
	renderCache    interfaces.CacheProvider

	bunDB         *bun.DB
	ownsDB        bool
	cacheService  repocache.CacheService
	keySerializer repocache.KeySerializer

	mode        string
	localStore  *pagestore.Store
	remoteStore *pagestore.Store
	resolver    *resolver.Resolver
	templateSvc templates.Service
	catalog     *languages.Catalog
	renderer    *render.Renderer
	invalidate  *templatescmd.InvalidateTemplateHandler
	watcher     *watch.Watcher

	closeOnce sync.Once
}

// Option mutates the container before it is finalised.
type Option func(*Container)

// WithLoggerProvider overrides the provider built from Config.Logging.
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(c *Container) {
		c.loggerProvider = provider
	}
}

// WithHosted forces hosted detection, used to resolve Mode "auto".
func WithHosted(hosted bool) Option {
	return func(c *Container) {
		c.hosted = hosted
	}
}

// WithHTTPClient sets the client used by the remote object store.
func WithHTTPClient(client storage.HTTPDoer) Option {
	return func(c *Container) {
		c.httpClient = client
	}
}

// WithLocalFilesystem replaces the host filesystem under Storage.Local.Root.
// Watching is disabled for non-host filesystems.
func WithLocalFilesystem(fs billy.Filesystem) Option {
	return func(c *Container) {
		c.localFS = fs
	}
}

// WithRegistry overrides the builtin component registry.
func WithRegistry(reg *registry.Registry) Option {
	return func(c *Container) {
		c.registry = reg
	}
}

// WithRenderCache overrides the in-memory render cache.
func WithRenderCache(provider interfaces.CacheProvider) Option {
	return func(c *Container) {
		c.renderCache = provider
	}
}

// WithBunDB supplies the database backing the languages table.
func WithBunDB(db *bun.DB) Option {
	return func(c *Container) {
		c.bunDB = db
	}
}

// WithCache overrides the repository cache used by the languages repository.
func WithCache(service repocache.CacheService, serializer repocache.KeySerializer) Option {
	return func(c *Container) {
		c.cacheService = service
		c.keySerializer = serializer
	}
}

// NewContainer validates cfg and builds every collaborator. Close releases
// the watcher and any database the container opened itself.
func NewContainer(cfg runtimeconfig.Config, opts ...Option) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := &Container{
		Config: cfg,
		hosted: runtimeconfig.Hosted(os.LookupEnv),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	if err := c.configureLogger(); err != nil {
		return nil, err
	}
	if err := c.configureStores(); err != nil {
		return nil, err
	}
	c.configureRenderCache()
	c.configureTemplates()
	if err := c.configureLanguages(); err != nil {
		c.Close()
		return nil, err
	}
	if err := c.configureWatcher(); err != nil {
		c.Close()
		return nil, err
	}

	logging.ModuleLogger(c.loggerProvider, "pagebuilder").Info("container.configured",
		"mode", c.mode,
		"local_codec", c.localStore.Codec().Name(),
		"remote", c.remoteStore != nil,
		"languages", cfg.Languages.Source,
		"watch", c.watcher != nil,
	)
	return c, nil
}

func (c *Container) configureLogger() error {
	if c.loggerProvider != nil {
		return nil
	}
	logCfg := c.Config.Logging
	switch strings.ToLower(strings.TrimSpace(logCfg.Provider)) {
	case "gologger":
		provider, err := gologger.NewProvider(gologger.Config{
			Level:     logCfg.Level,
			Format:    logCfg.Format,
			AddSource: logCfg.AddSource,
			Focus:     logCfg.Focus,
		})
		if err != nil {
			return err
		}
		c.loggerProvider = provider
	default:
		level, _ := console.ParseLevel(logCfg.Level)
		c.loggerProvider = console.NewProvider(console.Options{MinLevel: &level})
	}
	return nil
}

func (c *Container) configureStores() error {
	storageLogger := logging.StorageLogger(c.loggerProvider)
	local := c.Config.Storage.Local

	var localCodec codec.Codec = codec.NewSourceCodec()
	if is(local.Codec, runtimeconfig.CodecStructured) {
		localCodec = codec.NewStructuredCodec()
	}
	var localBackend *storage.LocalBackend
	if c.localFS != nil {
		localBackend = storage.NewFilesystemBackend(c.localFS, local.Root)
	} else {
		localBackend = storage.NewLocalBackend(local.Root)
	}
	c.localStore = pagestore.New(localBackend, localCodec, pagestore.WithLogger(storageLogger))

	remote := c.Config.Storage.Remote
	if strings.TrimSpace(remote.BaseURL) != "" {
		backend, err := storage.NewRemoteBackend(storage.RemoteConfig{
			BaseURL:     remote.BaseURL,
			Prefix:      remote.Prefix,
			Token:       remote.Token,
			ReadRetries: remote.ReadRetries,
			RetryDelay:  remote.RetryDelay,
			Client:      c.httpClient,
		})
		if err != nil {
			return err
		}
		c.remoteStore = pagestore.New(backend, codec.NewStructuredCodec(), pagestore.WithLogger(storageLogger))
	}

	c.mode = c.Config.ResolvedMode(c.hosted)
	if c.mode == runtimeconfig.ModeRemote && c.remoteStore == nil {
		// Auto mode on a host without an object store keeps serving local sources.
		storageLogger.Warn("storage.remote.missing", "mode", c.Config.Mode)
		c.mode = runtimeconfig.ModeLocal
	}

	resolverLogger := logging.ResolverLogger(c.loggerProvider)
	cfg := resolver.Config{
		Mode:   resolver.ModeLocalPreferred,
		Local:  c.localStore,
		Sync:   c.Config.Sync.Enabled && c.remoteStore != nil,
		Logger: resolverLogger,
		OnSynced: func(path string) {
			resolverLogger.Debug("resolver.sync.done", "template_path", path)
		},
	}
	if c.remoteStore != nil {
		cfg.Remote = c.remoteStore
	}
	if c.mode == runtimeconfig.ModeRemote {
		cfg.Mode = resolver.ModeRemotePreferred
	}
	c.resolver = resolver.New(cfg)
	return nil
}

func (c *Container) configureRenderCache() {
	if c.renderCache != nil || !c.Config.Cache.Enabled {
		return
	}
	c.renderCache = cache.NewMemory(c.Config.Cache.TTL)
}

func (c *Container) configureTemplates() {
	svcCfg := templates.Config{
		Resolver: c.resolver,
		Primary:  c.localStore,
		Cache:    c.renderCache,
		Logger:   logging.TemplatesLogger(c.loggerProvider),
	}
	if c.mode == runtimeconfig.ModeRemote {
		svcCfg.Primary = c.remoteStore
		svcCfg.Bundled = c.localStore
	}
	c.templateSvc = templates.NewService(svcCfg)
	c.invalidate = templatescmd.NewInvalidateTemplateHandler(c.templateSvc, logging.TemplatesLogger(c.loggerProvider))

	if c.registry == nil {
		c.registry = registry.Builtin()
	}
	c.renderer = render.New(c.registry, render.WithLogger(logging.ModuleLogger(c.loggerProvider, "pagebuilder.render")))
}

func (c *Container) configureLanguages() error {
	langCfg := c.Config.Languages
	logger := logging.LanguagesLogger(c.loggerProvider)
	catalogCfg := languages.CatalogConfig{
		TTL:         langCfg.CacheTTL,
		Fallback:    langCfg.Supported,
		DefaultCode: langCfg.Default,
		Logger:      logger,
	}
	if is(langCfg.Source, runtimeconfig.LanguagesDatabase) || c.bunDB != nil {
		if err := c.openLanguagesDB(); err != nil {
			return err
		}
		c.configureCacheDefaults()
		if c.cacheService != nil {
			catalogCfg.Source = languages.NewBunSourceWithCache(c.bunDB, c.cacheService, c.keySerializer)
		} else {
			catalogCfg.Source = languages.NewBunSource(c.bunDB)
		}
	}
	c.catalog = languages.NewCatalog(catalogCfg)
	return nil
}

func (c *Container) openLanguagesDB() error {
	ctx := context.Background()
	if c.bunDB == nil {
		sqldb, err := sql.Open("sqlite3", c.Config.Languages.DSN)
		if err != nil {
			return fmt.Errorf("di: open languages database: %w", err)
		}
		c.bunDB = bun.NewDB(sqldb, sqlitedialect.New())
		c.ownsDB = true
	}
	if err := languages.Migrate(ctx, c.bunDB); err != nil {
		return fmt.Errorf("di: migrate languages: %w", err)
	}
	seeded, err := languages.Seed(ctx, c.bunDB, c.Config.Languages.Supported, c.Config.Languages.Default)
	if err != nil {
		return fmt.Errorf("di: seed languages: %w", err)
	}
	if seeded > 0 {
		logging.LanguagesLogger(c.loggerProvider).Info("languages.seeded", "count", seeded)
	}
	return nil
}

func (c *Container) configureCacheDefaults() {
	if !c.Config.Cache.Enabled {
		return
	}
	if c.cacheService == nil {
		cfg := repocache.DefaultConfig()
		if ttl := c.Config.Languages.CacheTTL; ttl > 0 {
			cfg.TTL = ttl
		}
		service, err := repocache.NewCacheService(cfg)
		if err == nil {
			c.cacheService = service
		}
	}
	if c.cacheService != nil && c.keySerializer == nil {
		c.keySerializer = repocache.NewDefaultKeySerializer()
	}
}

func (c *Container) configureWatcher() error {
	if !c.Config.Watch.Enabled || c.localFS != nil {
		return nil
	}
	logger := logging.WatchLogger(c.loggerProvider)
	w, err := watch.New(watch.Config{
		Root:     c.Config.Storage.Local.Root,
		Mapper:   c.localStore.Codec(),
		Logger:   logger,
		Debounce: c.Config.Watch.Debounce,
		OnChange: func(path string) {
			cmd := templatescmd.InvalidateTemplateCommand{TemplatePath: path}
			if err := c.invalidate.Execute(context.Background(), cmd); err != nil {
				logger.Warn("watch.invalidate.failed", "template_path", path, "error", err)
			}
		},
	})
	if err != nil {
		return fmt.Errorf("di: create watcher: %w", err)
	}
	c.watcher = w
	return nil
}

// Start begins background work such as filesystem watching.
func (c *Container) Start(ctx context.Context) error {
	if c.watcher == nil {
		return nil
	}
	return c.watcher.Start(ctx)
}

// Handler mounts the template API and the page view routes behind the admin
// token middleware.
func (c *Container) Handler() (http.Handler, error) {
	httpCfg := c.Config.HTTP
	logger := logging.HTTPLogger(c.loggerProvider)
	mux := http.NewServeMux()

	api := pbhttp.NewTemplateAPI(
		pbhttp.WithAdminBasePath(httpCfg.AdminBasePath),
		pbhttp.WithAPIBasePath(httpCfg.APIBasePath),
		pbhttp.WithTemplateService(c.templateSvc),
		pbhttp.WithRegistry(c.registry),
		pbhttp.WithLogger(logger),
	)
	if err := api.Register(mux); err != nil {
		return nil, err
	}

	pageOpts := []pbhttp.PageOption{
		pbhttp.WithAdminChecker(auth.ContextAdmin{}),
		pbhttp.WithPageLogger(logger),
		pbhttp.WithAssets(httpCfg.Stylesheets, httpCfg.Scripts),
		pbhttp.WithEditorEndpoints(api.AdminBasePath()),
		pbhttp.WithExemptPrefixes(exemptPrefixes(httpCfg)...),
	}
	if c.renderCache != nil {
		pageOpts = append(pageOpts, pbhttp.WithPageCache(c.renderCache, c.Config.Cache.TTL))
	}
	pbhttp.NewPageHandler(c.resolver, c.renderer, c.catalog, pageOpts...).Register(mux)

	return auth.TokenMiddleware(auth.TokenConfig{
		Token:    c.Config.Auth.Token,
		Insecure: c.Config.Auth.Insecure,
	})(mux), nil
}

func is(value, want string) bool {
	return strings.EqualFold(strings.TrimSpace(value), want)
}

func exemptPrefixes(cfg runtimeconfig.HTTPConfig) []string {
	prefixes := []string{"/admin", "/api"}
	for _, base := range []string{cfg.AdminBasePath, cfg.APIBasePath} {
		segments := strings.Split(strings.Trim(base, "/"), "/")
		if len(segments) > 0 && segments[0] != "" {
			prefixes = append(prefixes, "/"+segments[0])
		}
	}
	return prefixes
}

// Close stops the watcher, waits for pending syncs and closes an owned database.
func (c *Container) Close() error {
	var errs []error
	c.closeOnce.Do(func() {
		if c.watcher != nil {
			errs = append(errs, c.watcher.Close())
		}
		if c.resolver != nil {
			c.resolver.WaitSync()
		}
		if c.ownsDB && c.bunDB != nil {
			errs = append(errs, c.bunDB.Close())
		}
	})
	return errors.Join(errs...)
}

// Mode reports the resolved deployment mode, local or remote.
func (c *Container) Mode() string {
	return c.mode
}

func (c *Container) LoggerProvider() interfaces.LoggerProvider {
	return c.loggerProvider
}

func (c *Container) TemplateService() templates.Service {
	return c.templateSvc
}

func (c *Container) Resolver() *resolver.Resolver {
	return c.resolver
}

func (c *Container) LocalStore() *pagestore.Store {
	return c.localStore
}

// RemoteStore is nil when no object store is configured.
func (c *Container) RemoteStore() *pagestore.Store {
	return c.remoteStore
}

func (c *Container) Languages() *languages.Catalog {
	return c.catalog
}

func (c *Container) Renderer() *render.Renderer {
	return c.renderer
}

func (c *Container) Registry() *registry.Registry {
	return c.registry
}

// RenderCache is nil when caching is disabled.
func (c *Container) RenderCache() interfaces.CacheProvider {
	return c.renderCache
}
