package languages

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-pagebuilder/internal/identity"
	"github.com/uptrace/bun"
)

// Migrate creates the languages table when it does not exist.
func Migrate(ctx context.Context, db *bun.DB) error {
	if _, err := db.NewCreateTable().Model((*Language)(nil)).IfNotExists().Exec(ctx); err != nil {
		return fmt.Errorf("languages: migrate: %w", err)
	}
	return nil
}

// Seed inserts codes that are not stored yet. Existing rows keep their
// activation state and ordering. It returns the number of inserted rows.
func Seed(ctx context.Context, db *bun.DB, codes []string, defaultCode string) (int, error) {
	defaultCode = strings.ToLower(strings.TrimSpace(defaultCode))
	rows := make([]*Language, 0, len(codes))
	for idx, code := range normalizeCodes(codes) {
		rows = append(rows, &Language{
			ID:        identity.LanguageUUID(code),
			Code:      code,
			Name:      code,
			IsActive:  true,
			IsDefault: code == defaultCode || (defaultCode == "" && idx == 0),
			Position:  idx,
		})
	}
	if len(rows) == 0 {
		return 0, nil
	}
	res, err := db.NewInsert().Model(&rows).On("CONFLICT (code) DO NOTHING").Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("languages: seed: %w", err)
	}
	affected, _ := res.RowsAffected()
	return int(affected), nil
}
