package languages

import (
	"context"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-pagebuilder/internal/logging"
	"github.com/goliatone/go-pagebuilder/pkg/interfaces"
)

const DefaultCacheTTL = 5 * time.Minute

var codePattern = regexp.MustCompile(`^[a-z]{2,5}(-[a-z]{2,4})?$`)

// LooksLikeLanguage reports whether a path segment has the shape of a language code.
func LooksLikeLanguage(segment string) bool {
	return codePattern.MatchString(segment)
}

// CatalogConfig configures a Catalog.
type CatalogConfig struct {
	Source Source
	// TTL bounds how long a fetched list is served before the source is asked
	// again. Zero uses DefaultCacheTTL, negative disables caching.
	TTL time.Duration
	// Fallback is served when the source fails and nothing was cached yet.
	Fallback []string
	// DefaultCode overrides the default flagged by the source.
	DefaultCode string
	Logger      interfaces.Logger
	Now         func() time.Time
}

// Catalog caches the supported languages with an explicit TTL.
type Catalog struct {
	source      Source
	ttl         time.Duration
	fallback    []string
	defaultCode string
	logger      interfaces.Logger
	now         func() time.Time

	mu        sync.Mutex
	codes     []string
	preferred string
	loadedAt  time.Time
	loaded    bool
}

func NewCatalog(cfg CatalogConfig) *Catalog {
	ttl := cfg.TTL
	if ttl == 0 {
		ttl = DefaultCacheTTL
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NoOp()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	source := cfg.Source
	if source == nil {
		source = StaticSource{Codes: cfg.Fallback, DefaultCode: cfg.DefaultCode}
	}
	return &Catalog{
		source:      source,
		ttl:         ttl,
		fallback:    normalizeCodes(cfg.Fallback),
		defaultCode: strings.ToLower(strings.TrimSpace(cfg.DefaultCode)),
		logger:      logger,
		now:         now,
	}
}

// TTL reports the configured cache lifetime.
func (c *Catalog) TTL() time.Duration {
	return c.ttl
}

// Supported returns the active language codes.
func (c *Catalog) Supported(ctx context.Context) []string {
	codes, _ := c.snapshot(ctx)
	return append([]string(nil), codes...)
}

func (c *Catalog) IsSupported(ctx context.Context, code string) bool {
	codes, _ := c.snapshot(ctx)
	code = strings.ToLower(code)
	for _, candidate := range codes {
		if candidate == code {
			return true
		}
	}
	return false
}

// Default returns the language used for redirects.
func (c *Catalog) Default(ctx context.Context) string {
	codes, preferred := c.snapshot(ctx)
	switch {
	case c.defaultCode != "":
		return c.defaultCode
	case preferred != "":
		return preferred
	case len(codes) > 0:
		return codes[0]
	default:
		return ""
	}
}

// Invalidate forces the next lookup to reach the source.
func (c *Catalog) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loaded = false
}

func (c *Catalog) snapshot(ctx context.Context) ([]string, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loaded && c.ttl > 0 && c.now().Sub(c.loadedAt) < c.ttl {
		return c.codes, c.preferred
	}

	languages, err := c.source.Languages(ctx)
	if err != nil {
		c.logger.Warn("languages.load.failed", "error", err)
		if c.codes == nil {
			return c.fallback, ""
		}
		return c.codes, c.preferred
	}

	codes := make([]string, 0, len(languages))
	preferred := ""
	for _, lang := range languages {
		code := strings.ToLower(strings.TrimSpace(lang.Code))
		if code == "" {
			continue
		}
		codes = append(codes, code)
		if lang.IsDefault && preferred == "" {
			preferred = code
		}
	}
	if len(codes) == 0 {
		codes = c.fallback
	}
	c.codes = codes
	c.preferred = preferred
	c.loadedAt = c.now()
	c.loaded = true
	c.logger.Debug("languages.load.success", "count", len(codes))
	return c.codes, c.preferred
}

func normalizeCodes(codes []string) []string {
	out := make([]string, 0, len(codes))
	for _, code := range codes {
		if normalized := strings.ToLower(strings.TrimSpace(code)); normalized != "" {
			out = append(out, normalized)
		}
	}
	return out
}
