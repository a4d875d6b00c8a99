package cache

import (
	"context"

	"github.com/goliatone/go-pagebuilder/internal/pagedef"
	"github.com/goliatone/go-pagebuilder/pkg/interfaces"
)

const pageKeyPrefix = "page:"

// PageKey builds the render cache key for a template path and variant.
func PageKey(templatePath, variant string) string {
	return PagePrefix(templatePath) + variant
}

// PagePrefix is shared by every cached variant of a template path.
func PagePrefix(templatePath string) string {
	return pageKeyPrefix + pagedef.NormalizePath(templatePath) + "#"
}

// InvalidatePage drops every cached variant of templatePath. Providers
// without prefix support are cleared entirely.
func InvalidatePage(ctx context.Context, provider interfaces.CacheProvider, templatePath string) error {
	if provider == nil {
		return nil
	}
	if invalidator, ok := provider.(interfaces.PrefixInvalidator); ok {
		return invalidator.DeletePrefix(ctx, PagePrefix(templatePath))
	}
	return provider.Clear(ctx)
}
