package runtimeconfig

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Deployment modes.
const (
	ModeLocal  = "local"
	ModeRemote = "remote"
	ModeAuto   = "auto"
)

// Local storage codecs.
const (
	CodecSource     = "source"
	CodecStructured = "structured"
)

// Language sources.
const (
	LanguagesStatic   = "static"
	LanguagesDatabase = "database"
)

var ErrModeInvalid = errors.New("pagebuilder config: mode is invalid")
var ErrLocalRootRequired = errors.New("pagebuilder config: local storage root is required")
var ErrLocalCodecInvalid = errors.New("pagebuilder config: local storage codec is invalid")
var ErrRemoteBaseURLRequired = errors.New("pagebuilder config: remote base url is required in remote mode")
var ErrRemoteRetriesInvalid = errors.New("pagebuilder config: remote read retries must be zero or positive")
var ErrSyncRequiresRemote = errors.New("pagebuilder config: sync requires a remote base url")
var ErrDefaultLanguageInvalid = errors.New("pagebuilder config: default language is invalid")
var ErrLanguagesSourceInvalid = errors.New("pagebuilder config: languages source is invalid")
var ErrLanguagesDSNRequired = errors.New("pagebuilder config: languages dsn is required for the database source")
var ErrHTTPAddrRequired = errors.New("pagebuilder config: http address is required")
var ErrLoggingProviderRequired = errors.New("pagebuilder config: logging provider is required")
var ErrLoggingProviderUnknown = errors.New("pagebuilder config: logging provider is invalid")
var ErrLoggingLevelInvalid = errors.New("pagebuilder config: logging level is invalid")
var ErrLoggingFormatInvalid = errors.New("pagebuilder config: logging format is invalid")

// Config aggregates the page builder runtime settings. Fields use simple
// types so the struct decodes directly from TOML.
type Config struct {
	// Mode selects which store is authoritative: local, remote or auto.
	Mode      string          `toml:"mode"`
	Storage   StorageConfig   `toml:"storage"`
	Sync      SyncConfig      `toml:"sync"`
	Languages LanguagesConfig `toml:"languages"`
	Cache     CacheConfig     `toml:"cache"`
	Watch     WatchConfig     `toml:"watch"`
	HTTP      HTTPConfig      `toml:"http"`
	Auth      AuthConfig      `toml:"auth"`
	Logging   LoggingConfig   `toml:"logging"`
}

// StorageConfig configures both stores.
type StorageConfig struct {
	Local  LocalStorageConfig  `toml:"local"`
	Remote RemoteStorageConfig `toml:"remote"`
}

// LocalStorageConfig configures the filesystem store.
type LocalStorageConfig struct {
	Root  string `toml:"root"`
	Codec string `toml:"codec"`
}

// RemoteStorageConfig configures the HTTP object store.
type RemoteStorageConfig struct {
	BaseURL     string        `toml:"base_url"`
	Prefix      string        `toml:"prefix"`
	Token       string        `toml:"token"`
	ReadRetries int           `toml:"read_retries"`
	RetryDelay  time.Duration `toml:"retry_delay"`
}

// SyncConfig controls copying remote hits into the local store.
type SyncConfig struct {
	Enabled bool `toml:"enabled"`
}

// LanguagesConfig controls the language catalog.
type LanguagesConfig struct {
	Default   string        `toml:"default"`
	Supported []string      `toml:"supported"`
	Source    string        `toml:"source"`
	DSN       string        `toml:"dsn"`
	CacheTTL  time.Duration `toml:"cache_ttl"`
}

// CacheConfig captures render cache toggles.
type CacheConfig struct {
	Enabled bool          `toml:"enabled"`
	TTL     time.Duration `toml:"ttl"`
}

// WatchConfig enables filesystem watching of the local store.
type WatchConfig struct {
	Enabled  bool          `toml:"enabled"`
	Debounce time.Duration `toml:"debounce"`
}

// HTTPConfig configures the bundled server.
type HTTPConfig struct {
	Addr          string   `toml:"addr"`
	AdminBasePath string   `toml:"admin_base_path"`
	APIBasePath   string   `toml:"api_base_path"`
	Stylesheets   []string `toml:"stylesheets"`
	Scripts       []string `toml:"scripts"`
}

// AuthConfig configures the admin token gate.
type AuthConfig struct {
	Token string `toml:"token"`
	// Insecure treats every request as an administrator.
	Insecure bool `toml:"insecure"`
}

// LoggingConfig captures provider-specific options for runtime logging.
type LoggingConfig struct {
	Provider  string   `toml:"provider"`
	Level     string   `toml:"level"`
	Format    string   `toml:"format"`
	AddSource bool     `toml:"add_source"`
	Focus     []string `toml:"focus"`
}

// DefaultConfig returns defaults suitable for local development.
func DefaultConfig() Config {
	return Config{
		Mode: ModeAuto,
		Storage: StorageConfig{
			Local: LocalStorageConfig{
				Root:  "templates",
				Codec: CodecSource,
			},
			Remote: RemoteStorageConfig{
				Prefix:      "templates",
				ReadRetries: 3,
				RetryDelay:  250 * time.Millisecond,
			},
		},
		Languages: LanguagesConfig{
			Default:   "lv",
			Supported: []string{"lv", "en"},
			Source:    LanguagesStatic,
			CacheTTL:  5 * time.Minute,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     time.Minute,
		},
		Watch: WatchConfig{
			Debounce: 100 * time.Millisecond,
		},
		HTTP: HTTPConfig{
			Addr:          ":8080",
			AdminBasePath: "/api/admin/templates",
			APIBasePath:   "/api/templates",
		},
		Logging: LoggingConfig{
			Provider: "console",
			Level:    "info",
		},
	}
}

// ResolvedMode collapses auto into local or remote using hosted.
func (cfg Config) ResolvedMode(hosted bool) string {
	switch normalize(cfg.Mode) {
	case ModeLocal:
		return ModeLocal
	case ModeRemote:
		return ModeRemote
	default:
		if hosted {
			return ModeRemote
		}
		return ModeLocal
	}
}

// Validate performs high-level consistency checks.
func (cfg Config) Validate() error {
	mode := normalize(cfg.Mode)
	switch mode {
	case ModeLocal, ModeRemote, ModeAuto, "":
	default:
		return fmt.Errorf("%w: %s", ErrModeInvalid, cfg.Mode)
	}
	if strings.TrimSpace(cfg.Storage.Local.Root) == "" {
		return ErrLocalRootRequired
	}
	switch normalize(cfg.Storage.Local.Codec) {
	case CodecSource, CodecStructured, "":
	default:
		return fmt.Errorf("%w: %s", ErrLocalCodecInvalid, cfg.Storage.Local.Codec)
	}
	remoteURL := strings.TrimSpace(cfg.Storage.Remote.BaseURL)
	if mode == ModeRemote && remoteURL == "" {
		return ErrRemoteBaseURLRequired
	}
	if cfg.Storage.Remote.ReadRetries < 0 {
		return ErrRemoteRetriesInvalid
	}
	if cfg.Sync.Enabled && remoteURL == "" {
		return ErrSyncRequiresRemote
	}
	if err := cfg.validateLanguages(); err != nil {
		return err
	}
	if strings.TrimSpace(cfg.HTTP.Addr) == "" {
		return ErrHTTPAddrRequired
	}
	return cfg.validateLogging()
}

func (cfg Config) validateLanguages() error {
	if def := strings.TrimSpace(cfg.Languages.Default); def != "" && !languageCode(def) {
		return fmt.Errorf("%w: %s", ErrDefaultLanguageInvalid, def)
	}
	switch normalize(cfg.Languages.Source) {
	case LanguagesStatic, "":
	case LanguagesDatabase:
		if strings.TrimSpace(cfg.Languages.DSN) == "" {
			return ErrLanguagesDSNRequired
		}
	default:
		return fmt.Errorf("%w: %s", ErrLanguagesSourceInvalid, cfg.Languages.Source)
	}
	return nil
}

func (cfg Config) validateLogging() error {
	provider := normalize(cfg.Logging.Provider)
	if provider == "" {
		return ErrLoggingProviderRequired
	}
	if !isSupportedProvider(provider) {
		return fmt.Errorf("%w: %s", ErrLoggingProviderUnknown, provider)
	}
	if level := strings.TrimSpace(cfg.Logging.Level); level != "" && !isSupportedLevel(level) {
		return fmt.Errorf("%w: %s", ErrLoggingLevelInvalid, level)
	}
	if provider == "gologger" {
		if format := strings.TrimSpace(cfg.Logging.Format); format != "" && !isSupportedFormat(format) {
			return fmt.Errorf("%w: %s", ErrLoggingFormatInvalid, format)
		}
	}
	return nil
}

func normalize(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func languageCode(code string) bool {
	if len(code) < 2 {
		return false
	}
	for _, r := range code {
		if (r < 'a' || r > 'z') && r != '-' {
			return false
		}
	}
	return true
}

func isSupportedProvider(provider string) bool {
	switch provider {
	case "console", "gologger":
		return true
	default:
		return false
	}
}

func isSupportedLevel(level string) bool {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal":
		return true
	default:
		return false
	}
}

func isSupportedFormat(format string) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json", "console", "pretty":
		return true
	default:
		return false
	}
}
