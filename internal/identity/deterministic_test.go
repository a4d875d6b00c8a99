package identity

import (
	"testing"

	"github.com/google/uuid"
)

func TestLanguageUUIDIsStable(t *testing.T) {
	first := LanguageUUID("LV")
	second := LanguageUUID(" lv ")
	if first == uuid.Nil || first != second {
		t.Fatalf("expected stable non-nil id, got %s and %s", first, second)
	}
	if LanguageUUID("en") == first {
		t.Fatalf("expected distinct codes to produce distinct ids")
	}
	if LanguageUUID("") != uuid.Nil {
		t.Fatalf("expected nil id for empty code")
	}
}
