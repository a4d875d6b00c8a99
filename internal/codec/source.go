package codec

import (
	"encoding/json"
	"fmt"
	"go/token"
	"regexp"
	"strconv"
	"strings"

	"github.com/goliatone/go-pagebuilder/internal/pagedef"
	"mvdan.cc/gofumpt/format"
)

const (
	// DefaultRuntimeImport is the package generated sources render through.
	DefaultRuntimeImport = "github.com/goliatone/go-pagebuilder/pkg/pagekit"

	sourceFile = "page.go"

	contentVar      = "contentOverrides"
	componentsVar   = "addedComponents"
	elementPropsVar = "elementProps"
)

var (
	providerPathPattern = regexp.MustCompile(`TemplatePath:\s*("(?:[^"\\\n]|\\.)*")`)
	legacyPathPattern   = regexp.MustCompile(`templatePath\s*[=:]\s*\{?\s*["']([^"'\n]*)["']`)
	wrapperClassPattern = regexp.MustCompile(`pagekit\.Wrapper\(\s*("(?:[^"\\\n]|\\.)*")`)
	legacyClassPattern  = regexp.MustCompile(`<TemplateWrapper[^>]*?className\s*=\s*\{?\s*["']([^"'\n]*)["']`)
	importPattern       = regexp.MustCompile(`(?m)^import\s*(\(|")`)
	packagePattern      = regexp.MustCompile(`(?m)^package\s+\w+\s*\n`)
	skeletonPattern     = regexp.MustCompile(`(?m)^(?:func\s|export\s+default\s+function)`)
)

// SourceCodec stores definitions as readable Go source that embeds the
// codec-owned fields as initializers and renders the page through pagekit.
type SourceCodec struct {
	runtimeImport string
}

// SourceOption customises the source codec.
type SourceOption func(*SourceCodec)

// WithRuntimeImport overrides the import path of the rendering runtime.
func WithRuntimeImport(path string) SourceOption {
	return func(c *SourceCodec) {
		if strings.TrimSpace(path) != "" {
			c.runtimeImport = strings.TrimSpace(path)
		}
	}
}

// NewSourceCodec returns a generated-source codec.
func NewSourceCodec(opts ...SourceOption) *SourceCodec {
	c := &SourceCodec{runtimeImport: DefaultRuntimeImport}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

func (c *SourceCodec) Name() string {
	return "source"
}

func (c *SourceCodec) ObjectName(path string) string {
	return pagedef.NormalizePath(path) + "/" + sourceFile
}

func (c *SourceCodec) TemplatePath(objectName string) (string, bool) {
	name := strings.Trim(objectName, "/")
	if !strings.HasSuffix(name, "/"+sourceFile) {
		return "", false
	}
	return strings.TrimSuffix(name, "/"+sourceFile), true
}

func (c *SourceCodec) Encode(def pagedef.PageDefinition) ([]byte, error) {
	normalized := normalize(def)
	if normalized.Path == "" {
		return nil, fmt.Errorf("%w: %w", ErrEncode, pagedef.ErrPathRequired)
	}
	content, err := literalJSON(normalized.ContentOverrides)
	if err != nil {
		return nil, err
	}
	components, err := literalJSON(normalized.Instances)
	if err != nil {
		return nil, err
	}

	name := pagedef.ComponentName(normalized.Path)
	var b strings.Builder
	fmt.Fprintf(&b, "// Page template generated by pagebuilder for %q.\n", normalized.Path)
	b.WriteString("// The initializers below are rewritten on save; code around them is preserved.\n\n")
	fmt.Fprintf(&b, "package %s\n\n", PackageName(normalized.Path))
	fmt.Fprintf(&b, "import %q\n\n", c.runtimeImport)
	fmt.Fprintf(&b, "// TemplateProps are the inputs accepted by %s.\n", name)
	b.WriteString("type TemplateProps struct {\n\tLang string\n}\n\n")
	fmt.Fprintf(&b, "var %s = pagekit.Content(`%s`)\n\n", contentVar, content)
	fmt.Fprintf(&b, "var %s = pagekit.Components(`%s`)\n\n", componentsVar, components)
	if len(normalized.ElementProps) > 0 {
		props, err := literalJSON(normalized.ElementProps)
		if err != nil {
			return nil, err
		}
		fmt.Fprintf(&b, "var %s = pagekit.ElementProps(`%s`)\n\n", elementPropsVar, props)
	} else {
		fmt.Fprintf(&b, "var %s pagekit.ElementPropsMap\n\n", elementPropsVar)
	}
	fmt.Fprintf(&b, "// %s renders %s.\n", name, normalized.Path)
	fmt.Fprintf(&b, "func %s(props TemplateProps) pagekit.Page {\n", name)
	b.WriteString("\treturn pagekit.Provider(pagekit.ProviderConfig{\n")
	fmt.Fprintf(&b, "\t\tTemplatePath: %s,\n", strconv.Quote(normalized.Path))
	b.WriteString("\t\tLang: props.Lang,\n")
	fmt.Fprintf(&b, "\t\tInitialContent: %s,\n", contentVar)
	fmt.Fprintf(&b, "\t\tInitialComponents: %s,\n", componentsVar)
	fmt.Fprintf(&b, "\t\tInitialElementProps: %s,\n", elementPropsVar)
	fmt.Fprintf(&b, "\t}, pagekit.Wrapper(%s,\n", strconv.Quote(normalized.CSSClassName))
	b.WriteString("\t\tpagekit.Instances(),\n")
	b.WriteString("\t\tpagekit.EditModeToggle(),\n")
	b.WriteString("\t))\n}\n")

	return formatSource([]byte(b.String())), nil
}

// Decode recovers the codec-owned fields. Missing initializers decode as empty
// collections. A malformed initializer yields the fields recovered so far plus
// a DecodeError.
func (c *SourceCodec) Decode(data []byte) (pagedef.PageDefinition, error) {
	src := string(data)
	def := pagedef.PageDefinition{
		Path:             decodePath(src),
		CSSClassName:     decodeClass(src),
		ContentOverrides: pagedef.ContentOverrides{},
		Instances:        []pagedef.ComponentInstance{},
		ElementProps:     pagedef.ElementProps{},
	}
	if def.CSSClassName == "" && def.Path != "" {
		def.CSSClassName = pagedef.ClassName(def.Path)
	}

	if err := c.decodeInitializer(src, contentVar, &def.ContentOverrides); err != nil {
		return def, err
	}
	if err := c.decodeInitializer(src, componentsVar, &def.Instances); err != nil {
		return def, err
	}
	if err := c.decodeInitializer(src, elementPropsVar, &def.ElementProps); err != nil {
		return def, err
	}
	if def.ContentOverrides == nil {
		def.ContentOverrides = pagedef.ContentOverrides{}
	}
	if def.Instances == nil {
		def.Instances = []pagedef.ComponentInstance{}
	}
	if def.ElementProps == nil {
		def.ElementProps = pagedef.ElementProps{}
	}
	return def, nil
}

func (c *SourceCodec) decodeInitializer(src, name string, target any) error {
	lit, found, err := findLiteral(src, name)
	if !found {
		return nil
	}
	if err != nil {
		return &DecodeError{Codec: c.Name(), Field: name, Err: err}
	}
	if err := json.Unmarshal([]byte(src[lit.start:lit.end]), target); err != nil {
		return &DecodeError{Codec: c.Name(), Field: name, Err: err}
	}
	return nil
}

// Splice rewrites the initializers of an existing source in place and
// inserts the ones it lacks before the rendering skeleton.
func (c *SourceCodec) Splice(existing []byte, def pagedef.PageDefinition) ([]byte, error) {
	normalized := normalize(def)
	src := string(existing)
	if strings.TrimSpace(src) == "" {
		return c.Encode(normalized)
	}

	type initializer struct {
		name  string
		ctor  string
		value any
	}
	initializers := []initializer{
		{name: contentVar, ctor: "Content", value: normalized.ContentOverrides},
		{name: componentsVar, ctor: "Components", value: normalized.Instances},
		{name: elementPropsVar, ctor: "ElementProps", value: normalized.ElementProps},
	}

	var missing []string
	for _, init := range initializers {
		body, err := literalJSON(init.value)
		if err != nil {
			return nil, err
		}
		lit, found, err := findLiteral(src, init.name)
		if err != nil {
			return nil, &DecodeError{Codec: c.Name(), Field: init.name, Err: err}
		}
		if !found {
			if init.name == elementPropsVar {
				if len(normalized.ElementProps) == 0 {
					continue
				}
				if replaced, ok := replaceZeroDeclaration(src, init.name, init.ctor, body); ok {
					src = replaced
					continue
				}
			}
			missing = append(missing, fmt.Sprintf("var %s = pagekit.%s(`%s`)\n", init.name, init.ctor, body))
			continue
		}
		replacement := body
		if !lit.raw {
			replacement = string(compactJSON(init.value))
		}
		src = src[:lit.start] + replacement + src[lit.end:]
	}

	if len(missing) > 0 {
		block := strings.Join(missing, "\n") + "\n"
		if loc := skeletonPattern.FindStringIndex(src); loc != nil {
			insertAt := precedingCommentStart(src, loc[0])
			src = src[:insertAt] + block + src[insertAt:]
		} else {
			src = strings.TrimRight(src, "\n") + "\n\n" + block
		}
		src = ensureImport(src, c.runtimeImport)
	}
	return formatSource([]byte(src)), nil
}

// PackageName derives a valid Go package name from the last path segment.
func PackageName(path string) string {
	segments := pagedef.Segments(path)
	last := "page"
	if len(segments) > 0 {
		last = segments[len(segments)-1]
	}
	var b strings.Builder
	for _, r := range strings.ToLower(last) {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	name := b.String()
	switch {
	case name == "":
		return "page"
	case name[0] >= '0' && name[0] <= '9', token.IsKeyword(name):
		return "page" + name
	}
	return name
}

func decodePath(src string) string {
	code := codeMask(src)
	if m := submatchInCode(providerPathPattern, src, code); m != nil {
		if value, err := strconv.Unquote(m[1]); err == nil {
			return pagedef.NormalizePath(value)
		}
	}
	if m := submatchInCode(legacyPathPattern, src, code); m != nil {
		return pagedef.NormalizePath(m[1])
	}
	return ""
}

func decodeClass(src string) string {
	code := codeMask(src)
	if m := submatchInCode(wrapperClassPattern, src, code); m != nil {
		if value, err := strconv.Unquote(m[1]); err == nil {
			return value
		}
	}
	if m := submatchInCode(legacyClassPattern, src, code); m != nil {
		return m[1]
	}
	return ""
}

// submatchInCode is FindStringSubmatch restricted to matches that start in
// program text.
func submatchInCode(pattern *regexp.Regexp, src string, code []bool) []string {
	for _, loc := range pattern.FindAllStringSubmatchIndex(src, -1) {
		if !code[loc[0]] {
			continue
		}
		match := make([]string, len(loc)/2)
		for i := range match {
			if loc[2*i] >= 0 {
				match[i] = src[loc[2*i]:loc[2*i+1]]
			}
		}
		return match
	}
	return nil
}

func literalJSON(value any) (string, error) {
	data, err := json.MarshalIndent(value, "", "\t")
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrEncode, err)
	}
	return escapeRaw(string(data)), nil
}

func compactJSON(value any) []byte {
	data, _ := json.Marshal(value)
	return data
}

// replaceZeroDeclaration turns `var elementProps pagekit.ElementPropsMap` into an initializer.
func replaceZeroDeclaration(src, name, ctor, body string) (string, bool) {
	pattern := regexp.MustCompile(`(?m)^var\s+` + regexp.QuoteMeta(name) + `\s+[\w.]+\s*$`)
	loc := pattern.FindStringIndex(src)
	if loc == nil {
		return src, false
	}
	decl := fmt.Sprintf("var %s = pagekit.%s(`%s`)", name, ctor, body)
	return src[:loc[0]] + decl + src[loc[1]:], true
}

func precedingCommentStart(src string, at int) int {
	start := at
	for start > 0 {
		prevEnd := start - 1
		lineStart := strings.LastIndex(src[:prevEnd], "\n") + 1
		line := strings.TrimSpace(src[lineStart:prevEnd])
		if !strings.HasPrefix(line, "//") {
			break
		}
		start = lineStart
	}
	return start
}

func ensureImport(src, runtimeImport string) string {
	if strings.Contains(src, strconv.Quote(runtimeImport)) {
		return src
	}
	spec := fmt.Sprintf("import %q\n", runtimeImport)
	if loc := importPattern.FindStringIndex(src); loc != nil {
		return src[:loc[0]] + spec + src[loc[0]:]
	}
	if loc := packagePattern.FindStringIndex(src); loc != nil {
		return src[:loc[1]] + "\n" + spec + src[loc[1]:]
	}
	return spec + src
}

func formatSource(src []byte) []byte {
	formatted, err := format.Source(src, format.Options{})
	if err != nil {
		return src
	}
	return formatted
}
