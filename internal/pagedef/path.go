package pagedef

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

var (
	ErrPathRequired  = errors.New("pagedef: template path is required")
	ErrPathTraversal = errors.New("pagedef: template path escapes the template root")
	ErrPathInvalid   = errors.New("pagedef: template path contains invalid characters")
)

// PathError reports why a template path was rejected.
type PathError struct {
	Path string
	Err  error
}

func (e *PathError) Error() string {
	return fmt.Sprintf("%s: %q", e.Err.Error(), e.Path)
}

func (e *PathError) Unwrap() error {
	return e.Err
}

var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9]`)

// NormalizePath trims surrounding whitespace and slashes and collapses empty segments.
func NormalizePath(path string) string {
	segments := strings.Split(strings.TrimSpace(path), "/")
	kept := segments[:0]
	for _, segment := range segments {
		segment = strings.TrimSpace(segment)
		if segment == "" || segment == "." {
			continue
		}
		kept = append(kept, segment)
	}
	return strings.Join(kept, "/")
}

// ValidatePath normalises the path and rejects traversal attempts and
// home-directory shorthand before any storage access happens.
func ValidatePath(path string) (string, error) {
	raw := strings.TrimSpace(path)
	if raw == "" {
		return "", &PathError{Path: path, Err: ErrPathRequired}
	}
	if strings.Contains(raw, "..") || strings.Contains(raw, "~") {
		return "", &PathError{Path: path, Err: ErrPathTraversal}
	}
	for _, r := range raw {
		if r == '\\' || r == 0 || unicode.IsControl(r) {
			return "", &PathError{Path: path, Err: ErrPathInvalid}
		}
	}
	normalized := NormalizePath(raw)
	if normalized == "" {
		return "", &PathError{Path: path, Err: ErrPathRequired}
	}
	return normalized, nil
}

// ClassName derives the structural CSS anchor for a template path.
func ClassName(path string) string {
	return "template-" + nonAlphanumeric.ReplaceAllString(NormalizePath(path), "-")
}

// ComponentName derives the exported name used by generated page sources,
// e.g. "lv/finansejums-uznemumam" becomes "FinansejumsUznemumamTemplate".
func ComponentName(path string) string {
	normalized := NormalizePath(path)
	last := normalized
	if idx := strings.LastIndex(normalized, "/"); idx >= 0 {
		last = normalized[idx+1:]
	}
	parts := strings.FieldsFunc(last, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	var b strings.Builder
	for _, part := range parts {
		runes := []rune(strings.ToLower(part))
		runes[0] = unicode.ToUpper(runes[0])
		b.WriteString(string(runes))
	}
	name := b.String()
	if name == "" || !unicode.IsLetter([]rune(name)[0]) {
		name = "Page" + name
	}
	return name + "Template"
}

// Segments splits a normalised path into its URL segments.
func Segments(path string) []string {
	normalized := NormalizePath(path)
	if normalized == "" {
		return nil
	}
	return strings.Split(normalized, "/")
}
