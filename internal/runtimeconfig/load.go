package runtimeconfig

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// LoadFile decodes a TOML file over DefaultConfig. A missing file yields the defaults.
func LoadFile(path string) (Config, error) {
	cfg := DefaultConfig()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return Config{}, fmt.Errorf("pagebuilder config: decode %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("pagebuilder config: unknown keys in %s: %v", path, undecoded)
	}
	return cfg, nil
}

// Hosted reports whether the process runs on a hosted platform where the
// filesystem is read-only and the remote store must be authoritative.
func Hosted(lookup LookupFunc) bool {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if v, ok := lookup("VERCEL"); ok && strings.TrimSpace(v) == "1" {
		return true
	}
	if v, ok := lookup("VERCEL_ENV"); ok && strings.TrimSpace(v) != "" {
		return true
	}
	if v, ok := lookup("PAGEBUILDER_HOSTED"); ok {
		hosted, err := strconv.ParseBool(strings.TrimSpace(v))
		return err == nil && hosted
	}
	return false
}

// ApplyEnv overrides cfg with PAGEBUILDER_* variables.
func ApplyEnv(cfg *Config, lookup LookupFunc) error {
	if cfg == nil {
		return nil
	}
	if lookup == nil {
		lookup = os.LookupEnv
	}
	str := func(key string, target *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*target = strings.TrimSpace(v)
		}
	}
	str("PAGEBUILDER_MODE", &cfg.Mode)
	str("PAGEBUILDER_LOCAL_ROOT", &cfg.Storage.Local.Root)
	str("PAGEBUILDER_LOCAL_CODEC", &cfg.Storage.Local.Codec)
	str("PAGEBUILDER_REMOTE_URL", &cfg.Storage.Remote.BaseURL)
	str("PAGEBUILDER_REMOTE_PREFIX", &cfg.Storage.Remote.Prefix)
	str("BLOB_READ_WRITE_TOKEN", &cfg.Storage.Remote.Token)
	str("PAGEBUILDER_REMOTE_TOKEN", &cfg.Storage.Remote.Token)
	str("PAGEBUILDER_DEFAULT_LANGUAGE", &cfg.Languages.Default)
	str("PAGEBUILDER_LANGUAGES_SOURCE", &cfg.Languages.Source)
	str("PAGEBUILDER_LANGUAGES_DSN", &cfg.Languages.DSN)
	str("PAGEBUILDER_HTTP_ADDR", &cfg.HTTP.Addr)
	str("PAGEBUILDER_ADMIN_TOKEN", &cfg.Auth.Token)
	str("PAGEBUILDER_LOG_PROVIDER", &cfg.Logging.Provider)
	str("PAGEBUILDER_LOG_LEVEL", &cfg.Logging.Level)
	str("PAGEBUILDER_LOG_FORMAT", &cfg.Logging.Format)

	if v, ok := lookup("PAGEBUILDER_LANGUAGES"); ok && strings.TrimSpace(v) != "" {
		cfg.Languages.Supported = splitList(v)
	}

	bools := map[string]*bool{
		"PAGEBUILDER_SYNC":          &cfg.Sync.Enabled,
		"PAGEBUILDER_CACHE":         &cfg.Cache.Enabled,
		"PAGEBUILDER_WATCH":         &cfg.Watch.Enabled,
		"PAGEBUILDER_AUTH_INSECURE": &cfg.Auth.Insecure,
	}
	for key, target := range bools {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			continue
		}
		parsed, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("pagebuilder config: %s: %w", key, err)
		}
		*target = parsed
	}

	durations := map[string]*time.Duration{
		"PAGEBUILDER_CACHE_TTL":           &cfg.Cache.TTL,
		"PAGEBUILDER_LANGUAGES_CACHE_TTL": &cfg.Languages.CacheTTL,
		"PAGEBUILDER_REMOTE_RETRY_DELAY":  &cfg.Storage.Remote.RetryDelay,
	}
	for key, target := range durations {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			continue
		}
		parsed, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("pagebuilder config: %s: %w", key, err)
		}
		*target = parsed
	}

	if v, ok := lookup("PAGEBUILDER_REMOTE_READ_RETRIES"); ok && strings.TrimSpace(v) != "" {
		retries, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("pagebuilder config: PAGEBUILDER_REMOTE_READ_RETRIES: %w", err)
		}
		cfg.Storage.Remote.ReadRetries = retries
	}
	return nil
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.ToLower(strings.TrimSpace(part)); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
