package registry

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/yuin/goldmark"
)

var builtinTemplates = template.Must(template.New("builtin").Parse(`
{{define "header"}}<header class="pb-header pb-header--{{.Variant}}"><span class="pb-header__brand">{{.Brand}}</span></header>{{end}}
{{define "intro"}}<section class="pb-intro">
<h1 class="pb-intro__heading">{{.Line1}}<br>{{.Line2}}</h1>
<p class="pb-intro__description">{{.Description}}</p>
{{if .Href}}<a class="pb-button pb-button--lg" href="{{.Href}}">{{.ButtonText}}</a>{{end}}
</section>{{end}}
{{define "button"}}<a class="pb-button pb-button--{{.Size}}" href="{{.Href}}">{{.Label}}</a>{{end}}
{{define "spacing"}}<div class="pb-spacing pb-spacing--{{.Size}}" aria-hidden="true"></div>{{end}}
{{define "richtext"}}<div class="pb-richtext">{{.Body}}</div>{{end}}
`))

var introDefaults = map[string]map[string]string{
	"lv": {
		"heading-line1": "Finansējums",
		"heading-line2": "jūsu uzņēmumam",
		"description":   "Pieteikšanās aizņem tikai dažas minūtes.",
		"button-text":   "Pieteikties",
	},
	"en": {
		"heading-line1": "Financing",
		"heading-line2": "for your business",
		"description":   "Applying takes only a few minutes.",
		"button-text":   "Apply now",
	},
	"ru": {
		"heading-line1": "Финансирование",
		"heading-line2": "для вашего бизнеса",
		"description":   "Подача заявки займёт всего несколько минут.",
		"button-text":   "Подать заявку",
	},
}

// Builtin returns the default catalog shipped with the page builder.
func Builtin() *Registry {
	return MustNew(BuiltinEntries()...)
}

// BuiltinEntries lists the default catalog entries.
func BuiltinEntries() []Entry {
	return []Entry{
		{
			Key:          "header",
			Name:         "Header",
			Description:  "Site header with brand name",
			Category:     "layout",
			Kind:         KindComponent,
			DefaultProps: map[string]any{"variant": "light"},
			Props: []PropDefinition{
				{Name: "variant", Label: "Variant", Type: "select", Options: []string{"light", "dark"}, Default: "light"},
			},
			Render: renderHeader,
		},
		{
			Key:          "intro",
			Name:         "Intro",
			Description:  "Hero block with two-line heading, description and call to action",
			Category:     "content",
			Kind:         KindComponent,
			DefaultProps: map[string]any{"lang": "lv", "buttonHref": "#apply"},
			Render:       renderIntro,
		},
		{
			Key:          "button",
			Name:         "Button",
			Description:  "Call to action link",
			Category:     "elements",
			Kind:         KindElement,
			DefaultProps: map[string]any{"text": "Click me", "size": "md", "href": "#"},
			Props: []PropDefinition{
				{Name: "text", Label: "Text", Type: "text", Default: "Click me"},
				{Name: "size", Label: "Size", Type: "select", Options: []string{"sm", "md", "lg"}, Default: "md"},
				{Name: "href", Label: "Link", Type: "url", Default: "#"},
			},
			Render: renderButton,
		},
		{
			Key:          "spacing",
			Name:         "Spacing",
			Description:  "Vertical whitespace",
			Category:     "layout",
			Kind:         KindElement,
			DefaultProps: map[string]any{"size": "md"},
			Props: []PropDefinition{
				{Name: "size", Label: "Size", Type: "select", Options: []string{"sm", "md", "lg", "xl"}, Default: "md"},
			},
			Render: renderSpacing,
		},
		{
			Key:          "richtext",
			Name:         "Rich text",
			Description:  "Markdown formatted text block",
			Category:     "content",
			Kind:         KindElement,
			DefaultProps: map[string]any{"markdown": "Write *something* here."},
			Props: []PropDefinition{
				{Name: "markdown", Label: "Markdown", Type: "textarea", Default: "Write *something* here."},
			},
			Render: renderRichText,
		},
	}
}

func execute(name string, data any) (template.HTML, error) {
	var buf bytes.Buffer
	if err := builtinTemplates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("registry: render %s: %w", name, err)
	}
	return template.HTML(buf.String()), nil
}

func renderHeader(scope Scope, props map[string]any) (template.HTML, error) {
	return execute("header", map[string]any{
		"Variant": stringProp(props, "variant", "light"),
		"Brand":   scope.Text("brand", "Page Builder"),
	})
}

func renderIntro(scope Scope, props map[string]any) (template.HTML, error) {
	lang := stringProp(props, "lang", scope.Lang())
	defaults, ok := introDefaults[lang]
	if !ok {
		defaults = introDefaults["en"]
	}
	return execute("intro", map[string]any{
		"Line1":       scope.Text("heading-line1", defaults["heading-line1"]),
		"Line2":       scope.Text("heading-line2", defaults["heading-line2"]),
		"Description": scope.MultilineText("description", defaults["description"]),
		"ButtonText":  scope.Text("button-text", defaults["button-text"]),
		"Href":        stringProp(props, "buttonHref", ""),
	})
}

func renderButton(scope Scope, props map[string]any) (template.HTML, error) {
	overrides := scope.ElementProps("button")
	return execute("button", map[string]any{
		"Size":  stringProp(overrides, "size", stringProp(props, "size", "md")),
		"Href":  stringProp(overrides, "href", stringProp(props, "href", "#")),
		"Label": scope.Text("label", stringProp(props, "text", "Click me")),
	})
}

func renderSpacing(_ Scope, props map[string]any) (template.HTML, error) {
	return execute("spacing", map[string]any{"Size": stringProp(props, "size", "md")})
}

func renderRichText(_ Scope, props map[string]any) (template.HTML, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(stringProp(props, "markdown", "")), &buf); err != nil {
		return "", fmt.Errorf("registry: render richtext: %w", err)
	}
	return execute("richtext", map[string]any{"Body": template.HTML(buf.String())})
}

func stringProp(props map[string]any, name, fallback string) string {
	if props == nil {
		return fallback
	}
	switch value := props[name].(type) {
	case string:
		if value != "" {
			return value
		}
	case fmt.Stringer:
		return value.String()
	case nil:
	default:
		return fmt.Sprint(value)
	}
	return fallback
}
