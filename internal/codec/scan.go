package codec

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var errUnbalanced = errors.New("unbalanced literal")

// literal locates the body of a named initializer inside source text.
type literal struct {
	// declStart is the offset of the `var`/`const` keyword.
	declStart int
	// start and end delimit the literal body, end exclusive.
	start int
	end   int
	// raw is true when the body sits inside a Go raw string literal.
	raw bool
}

func declarationPattern(name string) *regexp.Regexp {
	return regexp.MustCompile(`(?m)(?:^|[^\w.])(?:var|const|let)\s+` + regexp.QuoteMeta(name) + `\b[^=\n]*=\s*`)
}

// findLiteral finds the object or array initializer assigned to name. It
// reports found=false when no declaration exists. Text inside string
// literals and comments never counts as a declaration.
func findLiteral(src string, name string) (literal, bool, error) {
	code := codeMask(src)
	var loc []int
	declStart := -1
	for _, candidate := range declarationPattern(name).FindAllStringIndex(src, -1) {
		start := candidate[0]
		if start < len(src) && !isKeywordStart(src[start]) {
			start++
		}
		if code[start] {
			loc, declStart = candidate, start
			break
		}
	}
	if loc == nil {
		return literal{}, false, nil
	}
	open := -1
	raw := false
	for i := loc[1]; i < len(src); i++ {
		ch := src[i]
		if ch == '{' || ch == '[' {
			open = i
			break
		}
		if ch == '`' {
			raw = true
			continue
		}
		if isIdentChar(ch) || ch == '.' || ch == '(' || ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' {
			continue
		}
		return literal{}, true, fmt.Errorf("%w: %s initializer is not an object or array literal", errUnbalanced, name)
	}
	if open < 0 {
		return literal{}, true, fmt.Errorf("%w: %s initializer has no literal body", errUnbalanced, name)
	}
	end, err := matchBalanced(src, open)
	if err != nil {
		return literal{}, true, fmt.Errorf("%s: %w", name, err)
	}
	return literal{declStart: declStart, start: open, end: end, raw: raw}, true, nil
}

// matchBalanced returns the offset just past the bracket closing src[open].
// Brackets inside quoted strings are ignored and escapes are honoured.
func matchBalanced(src string, open int) (int, error) {
	stack := make([]byte, 0, 16)
	var quote byte
	escaped := false
	for i := open; i < len(src); i++ {
		ch := src[i]
		if quote != 0 {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == quote:
				quote = 0
			}
			continue
		}
		switch ch {
		case '"', '\'':
			quote = ch
		case '{':
			stack = append(stack, '}')
		case '[':
			stack = append(stack, ']')
		case '}', ']':
			if len(stack) == 0 || stack[len(stack)-1] != ch {
				return 0, fmt.Errorf("%w: unexpected %q at offset %d", errUnbalanced, ch, i)
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return i + 1, nil
			}
		}
	}
	return 0, fmt.Errorf("%w: unterminated literal starting at offset %d", errUnbalanced, open)
}

// codeMask marks the offsets of src that are program text rather than part
// of a string, rune, raw string or comment.
func codeMask(src string) []bool {
	mask := make([]bool, len(src)+1)
	mask[len(src)] = true
	for i := 0; i < len(src); i++ {
		ch := src[i]
		switch {
		case ch == '"' || ch == '\'' || ch == '`':
			end := closeQuote(src, i)
			i = end - 1
		case ch == '/' && i+1 < len(src) && src[i+1] == '/':
			end := strings.IndexByte(src[i:], '\n')
			if end < 0 {
				return mask
			}
			i += end - 1
		case ch == '/' && i+1 < len(src) && src[i+1] == '*':
			end := strings.Index(src[i+2:], "*/")
			if end < 0 {
				return mask
			}
			i += end + 3
		default:
			mask[i] = true
		}
	}
	return mask
}

// closeQuote returns the offset just past the literal opened at src[open].
// Raw strings take no escapes. An unterminated literal runs to the end of src.
func closeQuote(src string, open int) int {
	quote := src[open]
	for i := open + 1; i < len(src); i++ {
		switch {
		case src[i] == '\\' && quote != '`':
			i++
		case src[i] == quote:
			return i + 1
		case src[i] == '\n' && quote != '`':
			return i + 1
		}
	}
	return len(src)
}

func isIdentChar(ch byte) bool {
	return ch == '_' || ch >= 'a' && ch <= 'z' || ch >= 'A' && ch <= 'Z' || ch >= '0' && ch <= '9'
}

func isKeywordStart(ch byte) bool {
	return ch == 'v' || ch == 'c' || ch == 'l'
}

// escapeRaw makes JSON safe to embed in a Go raw string literal.
func escapeRaw(body string) string {
	return strings.ReplaceAll(body, "`", `\u0060`)
}
