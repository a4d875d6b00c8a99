package pagekit

import (
	"strings"
	"testing"
)

const componentsLiteral = `[
	{"id": "intro-1", "componentKey": "intro", "props": {"lang": "lv"}},
	{"id": "button-2", "componentKey": "button", "isHidden": true}
]`

func TestLiteralDecoders(t *testing.T) {
	content := Content(`{"intro-1": {"heading-line1": "Sveiki"}}`)
	if content["intro-1"]["heading-line1"] != "Sveiki" {
		t.Fatalf("unexpected content %v", content)
	}
	components := Components(componentsLiteral)
	if len(components) != 2 || !components[1].IsHidden || components[0].Props["lang"] != "lv" {
		t.Fatalf("unexpected components %+v", components)
	}
	props := ElementProps(`{"button-2": {"button": {"size": "lg"}}}`)
	if props["button-2"]["button"]["size"] != "lg" {
		t.Fatalf("unexpected element props %v", props)
	}
}

func TestMalformedLiteralPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for malformed literal")
		}
	}()
	_ = Components(`[{"id": "x"`)
}

func TestProviderBuildsDefinition(t *testing.T) {
	var zero ElementPropsMap
	page := Provider(ProviderConfig{
		TemplatePath:        "lv/finansejums",
		Lang:                "lv",
		InitialContent:      Content(`{}`),
		InitialComponents:   Components(componentsLiteral),
		InitialElementProps: zero,
	}, Wrapper("template-lv-finansejums", Instances(), EditModeToggle()))

	def := page.Definition()
	if def.Path != "lv/finansejums" || def.CSSClassName != "template-lv-finansejums" {
		t.Fatalf("unexpected identity %+v", def)
	}
	if def.ElementProps == nil || len(def.Instances) != 2 {
		t.Fatalf("expected populated definition, got %+v", def)
	}
}

func TestPageRenderHonoursLayout(t *testing.T) {
	cfg := ProviderConfig{TemplatePath: "lv/a", Lang: "lv", InitialComponents: Components(componentsLiteral)}

	body, err := Provider(cfg, Wrapper("template-lv-a", Instances(), EditModeToggle())).Body(RenderOptions{Admin: true})
	if err != nil {
		t.Fatalf("body: %v", err)
	}
	out := string(body)
	if !strings.Contains(out, `data-instance-id="intro-1"`) || strings.Contains(out, `data-instance-id="button-2"`) {
		t.Fatalf("expected visible instances only, got %s", out)
	}
	if !strings.Contains(out, `data-action="edit"`) {
		t.Fatalf("expected edit toggle for admins")
	}

	body, _ = Provider(cfg, Wrapper("template-lv-a")).Body(RenderOptions{Admin: true})
	if strings.Contains(string(body), "data-instance-id") || strings.Contains(string(body), `data-action="edit"`) {
		t.Fatalf("expected empty wrapper without parts, got %s", body)
	}
}

func TestPageRenderDocument(t *testing.T) {
	var sb strings.Builder
	page := Provider(ProviderConfig{TemplatePath: "lv/a", Lang: "lv"}, Wrapper("template-lv-a", Instances()))
	if err := page.Render(&sb, RenderOptions{Mode: ModeEdit}); err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(sb.String(), `<html lang="lv">`) || !strings.Contains(sb.String(), "pagebuilder-state") {
		t.Fatalf("unexpected document %s", sb.String())
	}
}
