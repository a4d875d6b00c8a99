package languages

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Language is a row of the languages table.
type Language struct {
	bun.BaseModel `bun:"table:languages,alias:lang"`

	ID        uuid.UUID `bun:",pk,type:uuid"                                json:"id"`
	Code      string    `bun:"code,notnull,unique"                          json:"code"`
	Name      string    `bun:"name,notnull"                                 json:"name"`
	IsActive  bool      `bun:"is_active,notnull,default:true"               json:"is_active"`
	IsDefault bool      `bun:"is_default,notnull,default:false"             json:"is_default"`
	Position  int       `bun:"position,notnull,default:0"                   json:"position"`
	CreatedAt time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
}
