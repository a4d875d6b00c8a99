package pagebuilder

import (
	"os"

	"github.com/goliatone/go-pagebuilder/internal/runtimeconfig"
)

var (
	ErrModeInvalid             = runtimeconfig.ErrModeInvalid
	ErrLocalRootRequired       = runtimeconfig.ErrLocalRootRequired
	ErrLocalCodecInvalid       = runtimeconfig.ErrLocalCodecInvalid
	ErrRemoteBaseURLRequired   = runtimeconfig.ErrRemoteBaseURLRequired
	ErrRemoteRetriesInvalid    = runtimeconfig.ErrRemoteRetriesInvalid
	ErrSyncRequiresRemote      = runtimeconfig.ErrSyncRequiresRemote
	ErrDefaultLanguageInvalid  = runtimeconfig.ErrDefaultLanguageInvalid
	ErrLanguagesSourceInvalid  = runtimeconfig.ErrLanguagesSourceInvalid
	ErrLanguagesDSNRequired    = runtimeconfig.ErrLanguagesDSNRequired
	ErrHTTPAddrRequired        = runtimeconfig.ErrHTTPAddrRequired
	ErrLoggingProviderRequired = runtimeconfig.ErrLoggingProviderRequired
	ErrLoggingProviderUnknown  = runtimeconfig.ErrLoggingProviderUnknown
	ErrLoggingLevelInvalid     = runtimeconfig.ErrLoggingLevelInvalid
	ErrLoggingFormatInvalid    = runtimeconfig.ErrLoggingFormatInvalid
)

const (
	ModeLocal  = runtimeconfig.ModeLocal
	ModeRemote = runtimeconfig.ModeRemote
	ModeAuto   = runtimeconfig.ModeAuto
)

type (
	Config              = runtimeconfig.Config
	StorageConfig       = runtimeconfig.StorageConfig
	LocalStorageConfig  = runtimeconfig.LocalStorageConfig
	RemoteStorageConfig = runtimeconfig.RemoteStorageConfig
	SyncConfig          = runtimeconfig.SyncConfig
	LanguagesConfig     = runtimeconfig.LanguagesConfig
	CacheConfig         = runtimeconfig.CacheConfig
	WatchConfig         = runtimeconfig.WatchConfig
	HTTPConfig          = runtimeconfig.HTTPConfig
	AuthConfig          = runtimeconfig.AuthConfig
	LoggingConfig       = runtimeconfig.LoggingConfig
)

func DefaultConfig() Config {
	return runtimeconfig.DefaultConfig()
}

// LoadConfig reads a TOML file over the defaults and applies PAGEBUILDER_*
// environment overrides. A missing file yields the defaults.
func LoadConfig(path string) (Config, error) {
	cfg, err := runtimeconfig.LoadFile(path)
	if err != nil {
		return Config{}, err
	}
	if err := runtimeconfig.ApplyEnv(&cfg, os.LookupEnv); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
