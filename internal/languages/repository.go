package languages

import (
	"context"
	"strings"

	"github.com/goliatone/go-pagebuilder/internal/identity"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-repository-cache/cache"
	"github.com/goliatone/go-repository-cache/repositorycache"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Source lists the languages pages can be served in.
type Source interface {
	Languages(ctx context.Context) ([]Language, error)
}

// NewLanguageRepository builds the generic repository over the languages table.
func NewLanguageRepository(db *bun.DB) repository.Repository[*Language] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*Language]{
		NewRecord: func() *Language { return &Language{} },
		GetID: func(l *Language) uuid.UUID {
			return l.ID
		},
		SetID: func(l *Language, id uuid.UUID) {
			l.ID = id
		},
		GetIdentifier: func() string {
			return "code"
		},
		GetIdentifierValue: func(l *Language) string {
			return l.Code
		},
	})
}

// BunSource reads active languages from the database.
type BunSource struct {
	repo repository.Repository[*Language]
}

// NewBunSource creates a database source without repository caching.
func NewBunSource(db *bun.DB) *BunSource {
	return NewBunSourceWithCache(db, nil, nil)
}

// NewBunSourceWithCache wraps the repository with go-repository-cache when both
// collaborators are supplied.
func NewBunSourceWithCache(db *bun.DB, cacheService cache.CacheService, serializer cache.KeySerializer) *BunSource {
	base := NewLanguageRepository(db)
	if cacheService != nil && serializer != nil {
		base = repositorycache.New(base, cacheService, serializer)
	}
	return &BunSource{repo: base}
}

func (s *BunSource) Languages(ctx context.Context) ([]Language, error) {
	records, _, err := s.repo.List(ctx, repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("?TableAlias.is_active = TRUE").Order("position ASC", "code ASC")
	}))
	if err != nil {
		return nil, err
	}
	out := make([]Language, 0, len(records))
	for _, record := range records {
		if record == nil {
			continue
		}
		out = append(out, *record)
	}
	return out, nil
}

// StaticSource serves a fixed list of codes. The first code is the default
// unless DefaultCode is set.
type StaticSource struct {
	Codes       []string
	DefaultCode string
}

func (s StaticSource) Languages(context.Context) ([]Language, error) {
	out := make([]Language, 0, len(s.Codes))
	defaultCode := strings.ToLower(strings.TrimSpace(s.DefaultCode))
	for idx, code := range s.Codes {
		normalized := strings.ToLower(strings.TrimSpace(code))
		if normalized == "" {
			continue
		}
		out = append(out, Language{
			ID:        identity.LanguageUUID(normalized),
			Code:      normalized,
			Name:      normalized,
			IsActive:  true,
			IsDefault: normalized == defaultCode || (defaultCode == "" && idx == 0),
			Position:  idx,
		})
	}
	return out, nil
}
