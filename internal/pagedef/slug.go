package pagedef

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-slug"
)

// PathFromTitle builds a template path for a new page from its language,
// optional parent sections and human title, e.g. ("lv", "Par mums") gives
// "lv/par-mums".
func PathFromTitle(lang, title string, parents ...string) (string, error) {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if lang == "" {
		return "", &PathError{Path: title, Err: ErrPathRequired}
	}
	segments := []string{lang}
	for _, parent := range parents {
		for _, segment := range Segments(parent) {
			normalized, err := slug.Normalize(segment)
			if err != nil {
				return "", fmt.Errorf("pagedef: section %q: %w", segment, err)
			}
			segments = append(segments, normalized)
		}
	}
	leaf, err := slug.Normalize(title)
	if err != nil {
		return "", fmt.Errorf("pagedef: title %q: %w", title, err)
	}
	if leaf == "" {
		return "", &PathError{Path: title, Err: ErrPathRequired}
	}
	return ValidatePath(strings.Join(append(segments, leaf), "/"))
}
