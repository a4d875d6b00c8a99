package pagedef

import (
	"errors"
	"testing"
	"time"
)

var testClock = time.UnixMilli(1700000000000)

func ids(def PageDefinition) []string {
	out := make([]string, 0, len(def.Instances))
	for _, inst := range def.Instances {
		out = append(out, inst.ID)
	}
	return out
}

func equalIDs(t *testing.T, got PageDefinition, want ...string) {
	t.Helper()
	gotIDs := ids(got)
	if len(gotIDs) != len(want) {
		t.Fatalf("expected instances %v, got %v", want, gotIDs)
	}
	for i := range want {
		if gotIDs[i] != want[i] {
			t.Fatalf("expected instances %v, got %v", want, gotIDs)
		}
	}
}

func seeded() PageDefinition {
	def := CreateEmpty("lv/test")
	def.Instances = []ComponentInstance{
		{ID: "A", RegistryKey: "intro"},
		{ID: "B", RegistryKey: "intro"},
		{ID: "C", RegistryKey: "intro"},
	}
	return def
}

func TestCreateEmpty(t *testing.T) {
	def := CreateEmpty("/lv/test/new-page/")
	if def.Path != "lv/test/new-page" {
		t.Fatalf("expected normalised path, got %q", def.Path)
	}
	if def.CSSClassName != "template-lv-test-new-page" {
		t.Fatalf("unexpected class name %q", def.CSSClassName)
	}
	if def.ContentOverrides == nil || def.Instances == nil || def.ElementProps == nil {
		t.Fatalf("expected empty collections to be initialised: %+v", def)
	}
}

func TestInsertPreservesOrder(t *testing.T) {
	base := seeded()

	before, inserted := WithInstanceInsertedBefore(base, "B", "X", nil, testClock)
	equalIDs(t, before, "A", inserted.ID, "B", "C")
	equalIDs(t, WithInstanceRemoved(before, "B"), "A", inserted.ID, "C")

	after, inserted := WithInstanceInsertedAfter(base, "B", "X", nil, testClock)
	equalIDs(t, after, "A", "B", inserted.ID, "C")
	equalIDs(t, WithInstanceRemoved(after, "B"), "A", inserted.ID, "C")

	equalIDs(t, base, "A", "B", "C")
}

func TestInsertWithMissingTargetAppends(t *testing.T) {
	base := CreateEmpty("lv/test")
	base.Instances = []ComponentInstance{{ID: "A"}, {ID: "B"}}

	next, inserted := WithInstanceInsertedBefore(base, "nonexistent-id", "X", nil, testClock)
	equalIDs(t, next, "A", "B", inserted.ID)

	next, inserted = WithInstanceInsertedAfter(base, "nonexistent-id", "X", nil, testClock)
	equalIDs(t, next, "A", "B", inserted.ID)
}

func TestWithInstanceAddedCopiesProps(t *testing.T) {
	defaults := map[string]any{"lang": "lv", "nested": map[string]any{"size": "lg"}}
	def, inst := WithInstanceAdded(CreateEmpty("lv/test"), "intro", defaults, testClock)

	if inst.ID != "intro-1700000000000" {
		t.Fatalf("unexpected instance id %q", inst.ID)
	}
	def.Instances[0].Props["lang"] = "en"
	def.Instances[0].Props["nested"].(map[string]any)["size"] = "sm"
	inst.Props["lang"] = "ru"

	if defaults["lang"] != "lv" {
		t.Fatalf("expected defaults to stay untouched, got %v", defaults["lang"])
	}
	if defaults["nested"].(map[string]any)["size"] != "lg" {
		t.Fatalf("expected nested defaults to stay untouched")
	}
}

func TestWithInstanceAddedKeepsIDsUnique(t *testing.T) {
	def, first := WithInstanceAdded(CreateEmpty("lv/test"), "intro", nil, testClock)
	def, second := WithInstanceAdded(def, "intro", nil, testClock)
	if first.ID == second.ID {
		t.Fatalf("expected unique ids, got %q twice", first.ID)
	}
	if len(def.Instances) != 2 {
		t.Fatalf("expected two instances, got %d", len(def.Instances))
	}
}

func TestTransformsDoNotMutateInput(t *testing.T) {
	base := seeded()
	base.ContentOverrides["A"] = map[string]string{"title": "Original"}

	next := WithContentOverride(base, "A", "title", "Changed")
	next = WithInstanceVisibilityToggled(next, "A")
	next = WithInstanceProp(next, "A", "size", "lg")
	next = WithElementProp(next, "A", "cta", "href", "/lv")

	if got := base.ContentOverrides["A"]["title"]; got != "Original" {
		t.Fatalf("expected base override untouched, got %q", got)
	}
	if base.Instances[0].IsHidden || base.Instances[0].Props != nil {
		t.Fatalf("expected base instance untouched, got %+v", base.Instances[0])
	}
	if len(base.ElementProps) != 0 {
		t.Fatalf("expected base element props untouched, got %+v", base.ElementProps)
	}

	if text, _ := next.Text("A", "title"); text != "Changed" {
		t.Fatalf("expected override to apply, got %q", text)
	}
	inst, _ := next.Instance("A")
	if !inst.IsHidden || inst.Props["size"] != "lg" {
		t.Fatalf("expected toggled visibility and prop, got %+v", inst)
	}
	if next.ElementProps["A"]["cta"]["href"] != "/lv" {
		t.Fatalf("expected element prop, got %+v", next.ElementProps)
	}
}

func TestVisibilityToggleRoundTrips(t *testing.T) {
	def := WithInstanceVisibilityToggled(seeded(), "B")
	def = WithInstanceVisibilityToggled(def, "B")
	inst, _ := def.Instance("B")
	if inst.IsHidden {
		t.Fatalf("expected instance to be visible after two toggles")
	}
}

func TestUnknownInstanceTransformsAreNoOps(t *testing.T) {
	base := seeded()
	next := WithInstanceRemoved(base, "missing")
	next = WithInstanceVisibilityToggled(next, "missing")
	next = WithInstanceProp(next, "missing", "k", "v")
	equalIDs(t, next, "A", "B", "C")
}

func TestPayloadDefinitionRoundTrip(t *testing.T) {
	payload := TemplatePayload{
		TemplatePath:    "lv/test/new-page",
		Content:         ContentOverrides{},
		AddedComponents: []ComponentInstance{{ID: "intro-1", RegistryKey: "intro", Props: map[string]any{"lang": "lv"}}},
	}
	def := payload.Definition()
	if def.CSSClassName != "template-lv-test-new-page" {
		t.Fatalf("unexpected class %q", def.CSSClassName)
	}
	back := PayloadFromDefinition(def)
	if back.TemplatePath != payload.TemplatePath || len(back.AddedComponents) != 1 {
		t.Fatalf("unexpected payload %+v", back)
	}
}

func TestValidatePath(t *testing.T) {
	cases := []struct {
		in   string
		want string
		err  error
	}{
		{in: "lv/test", want: "lv/test"},
		{in: "/lv//test/", want: "lv/test"},
		{in: "", err: ErrPathRequired},
		{in: "///", err: ErrPathRequired},
		{in: "../secret", err: ErrPathTraversal},
		{in: "~/secret", err: ErrPathTraversal},
		{in: "lv/../../etc", err: ErrPathTraversal},
		{in: `lv\test`, err: ErrPathInvalid},
	}
	for _, tc := range cases {
		got, err := ValidatePath(tc.in)
		if tc.err != nil {
			if !errors.Is(err, tc.err) {
				t.Fatalf("ValidatePath(%q): expected %v, got %v", tc.in, tc.err, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ValidatePath(%q): unexpected error %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("ValidatePath(%q): expected %q, got %q", tc.in, tc.want, got)
		}
	}
}

func TestComponentName(t *testing.T) {
	cases := map[string]string{
		"lv/finansejums-uznemumam": "FinansejumsUznemumamTemplate",
		"en/about_us":              "AboutUsTemplate",
		"lv":                       "LvTemplate",
		"lv/404":                   "Page404Template",
	}
	for in, want := range cases {
		if got := ComponentName(in); got != want {
			t.Fatalf("ComponentName(%q): expected %q, got %q", in, want, got)
		}
	}
}
