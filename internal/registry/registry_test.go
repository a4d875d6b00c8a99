package registry

import (
	"errors"
	"html/template"
	"strings"
	"testing"
)

type stubScope struct {
	overrides map[string]string
	editing   bool
}

func (s stubScope) InstanceID() string { return "stub-1" }
func (s stubScope) Lang() string       { return "lv" }
func (s stubScope) Editing() bool      { return s.editing }
func (s stubScope) Text(elementID, fallback string) template.HTML {
	if value, ok := s.overrides[elementID]; ok {
		return template.HTML(template.HTMLEscapeString(value))
	}
	return template.HTML(template.HTMLEscapeString(fallback))
}
func (s stubScope) MultilineText(elementID, fallback string) template.HTML {
	return s.Text(elementID, fallback)
}
func (s stubScope) ElementProps(string) map[string]any { return nil }

func TestDefaultPropsAreCopies(t *testing.T) {
	reg := Builtin()

	first := reg.DefaultProps("intro")
	first["lang"] = "en"

	second := reg.DefaultProps("intro")
	if second["lang"] != "lv" {
		t.Fatalf("expected registry defaults to stay lv, got %v", second["lang"])
	}
	entry, _ := reg.Lookup("intro")
	entry.DefaultProps["lang"] = "ru"
	if reg.DefaultProps("intro")["lang"] != "lv" {
		t.Fatalf("expected lookup to return a private copy")
	}
}

func TestNewRejectsDuplicatesAndMissingRender(t *testing.T) {
	render := func(Scope, map[string]any) (template.HTML, error) { return "", nil }
	if _, err := New(Entry{Key: "a", Render: render}, Entry{Key: "a", Render: render}); !errors.Is(err, ErrDuplicateKey) {
		t.Fatalf("expected duplicate key error, got %v", err)
	}
	if _, err := New(Entry{Key: "a"}); !errors.Is(err, ErrRenderNil) {
		t.Fatalf("expected render nil error, got %v", err)
	}
	if _, err := New(Entry{Key: " ", Render: render}); !errors.Is(err, ErrKeyRequired) {
		t.Fatalf("expected key required error, got %v", err)
	}
}

func TestMergeProps(t *testing.T) {
	reg := Builtin()
	merged := reg.MergeProps("button", map[string]any{"size": "lg"})
	if merged["size"] != "lg" || merged["text"] != "Click me" {
		t.Fatalf("unexpected merged props %+v", merged)
	}
}

func TestIntroRendersOverrides(t *testing.T) {
	entry, ok := Builtin().Lookup("intro")
	if !ok {
		t.Fatalf("expected intro entry")
	}
	html, err := entry.Render(stubScope{overrides: map[string]string{"heading-line1": "New heading"}}, map[string]any{"lang": "lv", "buttonHref": "/apply"})
	if err != nil {
		t.Fatalf("render intro: %v", err)
	}
	out := string(html)
	if !strings.Contains(out, "New heading") || !strings.Contains(out, "jūsu uzņēmumam") {
		t.Fatalf("expected override and default text, got %s", out)
	}
}

func TestRichTextRendersMarkdown(t *testing.T) {
	entry, _ := Builtin().Lookup("richtext")
	html, err := entry.Render(stubScope{}, map[string]any{"markdown": "Hello *world*"})
	if err != nil {
		t.Fatalf("render richtext: %v", err)
	}
	if !strings.Contains(string(html), "<em>world</em>") {
		t.Fatalf("expected markdown emphasis, got %s", html)
	}
}

func TestListOrdersByCategory(t *testing.T) {
	entries := Builtin().List()
	if len(entries) != 5 {
		t.Fatalf("expected 5 entries, got %d", len(entries))
	}
	if entries[0].Category != "content" {
		t.Fatalf("expected content category first, got %s", entries[0].Category)
	}
	if last := entries[len(entries)-1]; last.Key != "spacing" || !last.Configurable() {
		t.Fatalf("unexpected last entry %+v", entries[len(entries)-1])
	}
}
