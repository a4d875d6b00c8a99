package codec

import (
	"errors"
	"strings"
	"testing"

	"github.com/goliatone/go-pagebuilder/internal/pagedef"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func sampleDefinition() pagedef.PageDefinition {
	def := pagedef.CreateEmpty("lv/test/new-page")
	def.ContentOverrides = pagedef.ContentOverrides{
		"intro-1": {
			"heading-line1": "New heading",
			"description":   "Braces { and } and [brackets] with \"quotes\" and `ticks`",
		},
	}
	def.Instances = []pagedef.ComponentInstance{
		{ID: "intro-1", RegistryKey: "intro", Props: map[string]any{"lang": "lv"}},
		{ID: "button-2", RegistryKey: "button", Props: map[string]any{"text": "Go ]}", "size": "lg"}, IsHidden: true},
		{ID: "spacing-3", RegistryKey: "spacing"},
	}
	def.ElementProps = pagedef.ElementProps{
		"intro-1": {"cta": {"href": "/lv/apply", "external": false, "weight": float64(2)}},
	}
	return def
}

func codecs() []Codec {
	return []Codec{NewStructuredCodec(), NewSourceCodec()}
}

func TestRoundTrip(t *testing.T) {
	declarationText := pagedef.WithContentOverride(sampleDefinition(), "intro-1", "heading-line2",
		`example: var addedComponents = {"x": 1}`)
	definitions := map[string]pagedef.PageDefinition{
		"sample":           sampleDefinition(),
		"declaration-text": declarationText,
	}
	for _, c := range codecs() {
		for name, want := range definitions {
			t.Run(c.Name()+"/"+name, func(t *testing.T) {
				encoded, err := c.Encode(want)
				if err != nil {
					t.Fatalf("encode: %v", err)
				}
				got, err := c.Decode(encoded)
				if err != nil {
					t.Fatalf("decode: %v\n%s", err, encoded)
				}
				if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
					t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
				}
			})
		}
	}
}

func TestRoundTripEmptyDefinition(t *testing.T) {
	for _, c := range codecs() {
		t.Run(c.Name(), func(t *testing.T) {
			want := pagedef.CreateEmpty("en/blank")
			encoded, err := c.Encode(want)
			if err != nil {
				t.Fatalf("encode: %v", err)
			}
			got, err := c.Decode(encoded)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if got.Instances == nil || got.ContentOverrides == nil {
				t.Fatalf("expected empty collections, got %+v", got)
			}
			if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
				t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEncodeIsIdempotent(t *testing.T) {
	for _, c := range codecs() {
		first, err := c.Encode(sampleDefinition())
		if err != nil {
			t.Fatalf("%s encode: %v", c.Name(), err)
		}
		decoded, err := c.Decode(first)
		if err != nil {
			t.Fatalf("%s decode: %v", c.Name(), err)
		}
		second, err := c.Encode(decoded)
		if err != nil {
			t.Fatalf("%s re-encode: %v", c.Name(), err)
		}
		if string(first) != string(second) {
			t.Fatalf("%s: expected identical artifacts\nfirst:\n%s\nsecond:\n%s", c.Name(), first, second)
		}
	}
}

func TestEncodeRequiresPath(t *testing.T) {
	for _, c := range codecs() {
		if _, err := c.Encode(pagedef.PageDefinition{}); !errors.Is(err, pagedef.ErrPathRequired) {
			t.Fatalf("%s: expected path required, got %v", c.Name(), err)
		}
	}
}

func TestObjectNames(t *testing.T) {
	structured := NewStructuredCodec()
	source := NewSourceCodec()
	if got := structured.ObjectName("/lv/test/"); got != "lv/test.json" {
		t.Fatalf("unexpected structured object name %q", got)
	}
	if got := source.ObjectName("lv/test"); got != "lv/test/page.go" {
		t.Fatalf("unexpected source object name %q", got)
	}
	if path, ok := source.TemplatePath("lv/test/page.go"); !ok || path != "lv/test" {
		t.Fatalf("unexpected reverse mapping %q %v", path, ok)
	}
	if _, ok := structured.TemplatePath("lv/test/page.go"); ok {
		t.Fatalf("expected structured codec to ignore source files")
	}
}

func TestStructuredDecodeRejectsInvalidDocuments(t *testing.T) {
	c := NewStructuredCodec()
	cases := map[string]string{
		"empty":        "  ",
		"syntax":       `{"path":`,
		"missing path": `{"contentOverrides":{},"instances":[]}`,
		"bad instance": `{"path":"lv/a","contentOverrides":{},"instances":[{"id":"x"}]}`,
		"bad override": `{"path":"lv/a","contentOverrides":{"x":{"y":1}},"instances":[]}`,
	}
	for name, doc := range cases {
		if _, err := c.Decode([]byte(doc)); !IsDecodeError(err) {
			t.Fatalf("%s: expected decode error, got %v", name, err)
		}
	}
}

func TestSourceEncodeLayout(t *testing.T) {
	src, err := NewSourceCodec().Encode(sampleDefinition())
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	text := string(src)
	order := []string{
		"package newpage",
		`import "github.com/goliatone/go-pagebuilder/pkg/pagekit"`,
		"type TemplateProps struct",
		"var contentOverrides = pagekit.Content(`",
		"var addedComponents = pagekit.Components(`",
		"var elementProps = pagekit.ElementProps(`",
		"func NewPageTemplate(props TemplateProps) pagekit.Page",
		`TemplatePath:`,
		`pagekit.Wrapper("template-lv-test-new-page"`,
		"pagekit.EditModeToggle()",
	}
	last := -1
	for _, fragment := range order {
		idx := strings.Index(text, fragment)
		if idx < 0 {
			t.Fatalf("expected %q in generated source:\n%s", fragment, text)
		}
		if idx < last {
			t.Fatalf("expected %q after previous fragments:\n%s", fragment, text)
		}
		last = idx
	}
	if strings.Contains(text, "`ticks`") {
		t.Fatalf("expected backticks to be escaped in raw literals:\n%s", text)
	}
}

func TestSourceDecodeToleratesMissingInitializers(t *testing.T) {
	src := `package about

import "github.com/goliatone/go-pagebuilder/pkg/pagekit"

func AboutTemplate() pagekit.Page {
	return pagekit.Provider(pagekit.ProviderConfig{TemplatePath: "en/about"}, pagekit.Wrapper("template-en-about"))
}
`
	def, err := NewSourceCodec().Decode([]byte(src))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if def.Path != "en/about" || def.CSSClassName != "template-en-about" {
		t.Fatalf("unexpected identity %q %q", def.Path, def.CSSClassName)
	}
	if len(def.ContentOverrides) != 0 || len(def.Instances) != 0 || def.Instances == nil {
		t.Fatalf("expected empty collections, got %+v", def)
	}
}

func TestSourceDecodeAdoptsLegacyMarkup(t *testing.T) {
	src := `import { TemplateProvider } from "@/components/template-provider";

const contentOverrides = {"intro-1":{"heading-line1":"Sveiki {draugi}"}};

export default function Page() {
  return (
    <TemplateProvider templatePath="lv/legacy" initialContent={contentOverrides}>
      <TemplateWrapper className="template-lv-legacy">
        <Intro />
      </TemplateWrapper>
    </TemplateProvider>
  );
}
`
	def, err := NewSourceCodec().Decode([]byte(src))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if def.Path != "lv/legacy" || def.CSSClassName != "template-lv-legacy" {
		t.Fatalf("unexpected identity %q %q", def.Path, def.CSSClassName)
	}
	if got := def.ContentOverrides["intro-1"]["heading-line1"]; got != "Sveiki {draugi}" {
		t.Fatalf("unexpected override %q", got)
	}
	if len(def.Instances) != 0 {
		t.Fatalf("expected no instances, got %+v", def.Instances)
	}
}

func TestSourceDecodeMalformedReturnsPartial(t *testing.T) {
	src := "package broken\n\nvar contentOverrides = pagekit.Content(`{\"a\":{\"b\":\"c\"}}`)\n\nvar addedComponents = pagekit.Components(`[{\"id\":\"x\"`)\n"
	def, err := NewSourceCodec().Decode([]byte(src))
	if !IsDecodeError(err) {
		t.Fatalf("expected decode error, got %v", err)
	}
	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) || decodeErr.Field != "addedComponents" {
		t.Fatalf("expected addedComponents failure, got %#v", err)
	}
	if def.ContentOverrides["a"]["b"] != "c" {
		t.Fatalf("expected partial content overrides, got %+v", def.ContentOverrides)
	}
}

func TestSpliceKeepsHandAuthoredCode(t *testing.T) {
	c := NewSourceCodec()
	original, err := c.Encode(pagedef.CreateEmpty("lv/test/new-page"))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	custom := strings.Replace(string(original), "type TemplateProps struct", "// hero copy reviewed by legal\nconst reviewed = true\n\ntype TemplateProps struct", 1)

	updated := sampleDefinition()
	spliced, err := c.Splice([]byte(custom), updated)
	if err != nil {
		t.Fatalf("splice: %v", err)
	}
	text := string(spliced)
	if !strings.Contains(text, "const reviewed = true") || !strings.Contains(text, "// hero copy reviewed by legal") {
		t.Fatalf("expected hand-authored code to survive:\n%s", text)
	}
	got, err := c.Decode(spliced)
	if err != nil {
		t.Fatalf("decode spliced: %v", err)
	}
	if diff := cmp.Diff(updated, got, cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("splice mismatch (-want +got):\n%s", diff)
	}
}

func TestSpliceInsertsMissingInitializers(t *testing.T) {
	src := `package about

// AboutTemplate renders the about page.
func AboutTemplate() pagekit.Page {
	return pagekit.Provider(pagekit.ProviderConfig{TemplatePath: "en/about"}, pagekit.Wrapper("template-en-about"))
}
`
	def := pagedef.CreateEmpty("en/about")
	def, _ = pagedef.WithInstanceAdded(def, "intro", map[string]any{"lang": "en"}, testTime)

	c := NewSourceCodec()
	spliced, err := c.Splice([]byte(src), def)
	if err != nil {
		t.Fatalf("splice: %v", err)
	}
	text := string(spliced)
	if !strings.Contains(text, `import "github.com/goliatone/go-pagebuilder/pkg/pagekit"`) {
		t.Fatalf("expected runtime import to be added:\n%s", text)
	}
	if strings.Index(text, "var addedComponents") > strings.Index(text, "// AboutTemplate renders") {
		t.Fatalf("expected initializers before the skeleton doc comment:\n%s", text)
	}
	got, err := c.Decode(spliced)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got.Instances) != 1 || got.Instances[0].RegistryKey != "intro" {
		t.Fatalf("unexpected instances %+v", got.Instances)
	}
}

func TestPackageName(t *testing.T) {
	cases := map[string]string{
		"lv/test/new-page": "newpage",
		"en/404":           "page404",
		"en/func":          "pagefunc",
		"":                 "page",
		"lv/ārā":           "r",
	}
	for in, want := range cases {
		if got := PackageName(in); got != want {
			t.Fatalf("PackageName(%q): expected %q, got %q", in, want, got)
		}
	}
}

func TestSpliceIgnoresDeclarationsInsideStrings(t *testing.T) {
	c := NewSourceCodec()
	tricky := pagedef.WithContentOverride(pagedef.CreateEmpty("lv/test/new-page"), "intro-1", "heading-line1",
		`var addedComponents = [{"id":"ghost"}]`)
	original, err := c.Encode(tricky)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	updated := pagedef.WithContentOverride(sampleDefinition(), "intro-1", "heading-line1",
		`var addedComponents = [{"id":"ghost"}]`)
	spliced, err := c.Splice(original, updated)
	if err != nil {
		t.Fatalf("splice: %v", err)
	}
	got, err := c.Decode(spliced)
	if err != nil {
		t.Fatalf("decode spliced: %v\n%s", err, spliced)
	}
	if diff := cmp.Diff(updated, got, cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("splice mismatch (-want +got):\n%s", diff)
	}
}
