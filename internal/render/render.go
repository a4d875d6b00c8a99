package render

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"net/url"
	"strings"

	"github.com/goliatone/go-pagebuilder/internal/logging"
	"github.com/goliatone/go-pagebuilder/internal/pagedef"
	"github.com/goliatone/go-pagebuilder/internal/registry"
	"github.com/goliatone/go-pagebuilder/pkg/interfaces"
)

// Mode selects how a page is rendered.
type Mode string

const (
	ModeView   Mode = "view"
	ModeEdit   Mode = "edit"
	ModeCreate Mode = "create"
)

// Editing reports whether the mode renders edit affordances.
func (m Mode) Editing() bool {
	return m == ModeEdit || m == ModeCreate
}

// Options control one render pass.
type Options struct {
	Mode Mode
	Lang string
	// Admin enables the edit toggle while viewing.
	Admin       bool
	Title       string
	Stylesheets []string
	Scripts     []string
	// SaveEndpoint and ComponentsEndpoint are handed to the editor script.
	SaveEndpoint       string
	ComponentsEndpoint string
	// EditURL is linked from the edit toggle; defaults to "?edit=true".
	EditURL string
}

// EditorState is embedded as JSON in edit mode so the client editor can seed
// its session.
type EditorState struct {
	Mode               Mode                    `json:"mode"`
	Lang               string                  `json:"lang"`
	SaveEndpoint       string                  `json:"saveEndpoint,omitempty"`
	ComponentsEndpoint string                  `json:"componentsEndpoint,omitempty"`
	Payload            pagedef.TemplatePayload `json:"payload"`
}

// Renderer turns definitions into HTML using a component registry.
type Renderer struct {
	registry *registry.Registry
	logger   interfaces.Logger
}

// Option customises a Renderer.
type Option func(*Renderer)

func WithLogger(logger interfaces.Logger) Option {
	return func(r *Renderer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// New builds a renderer. A nil registry uses the builtin catalog.
func New(reg *registry.Registry, opts ...Option) *Renderer {
	if reg == nil {
		reg = registry.Builtin()
	}
	r := &Renderer{registry: reg, logger: logging.NoOp()}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

func (r *Renderer) Registry() *registry.Registry {
	return r.registry
}

// Page writes a complete HTML document for def.
func (r *Renderer) Page(w io.Writer, def pagedef.PageDefinition, opts Options) error {
	opts = withDefaults(opts)
	body, err := r.Body(def, opts)
	if err != nil {
		return err
	}
	title := opts.Title
	if title == "" {
		title = def.Path
	}
	data := map[string]any{
		"Lang":        opts.Lang,
		"Title":       title,
		"Mode":        string(opts.Mode),
		"Body":        body,
		"Stylesheets": opts.Stylesheets,
		"Scripts":     opts.Scripts,
	}
	if opts.Mode.Editing() {
		data["Editor"] = EditorState{
			Mode:               opts.Mode,
			Lang:               opts.Lang,
			SaveEndpoint:       opts.SaveEndpoint,
			ComponentsEndpoint: opts.ComponentsEndpoint,
			Payload:            pagedef.PayloadFromDefinition(def),
		}
	}
	return pageTemplates.ExecuteTemplate(w, "document", data)
}

// Body renders the page wrapper with every visible instance and, when
// editing, the instance controls and the add-component affordance.
func (r *Renderer) Body(def pagedef.PageDefinition, opts Options) (template.HTML, error) {
	opts = withDefaults(opts)
	instances, err := r.Instances(def, opts)
	if err != nil {
		return "", err
	}
	className := def.CSSClassName
	if className == "" {
		className = pagedef.ClassName(def.Path)
	}
	return execute("wrapper", map[string]any{
		"ClassName": className,
		"Path":      def.Path,
		"Mode":      string(opts.Mode),
		"Editing":   opts.Mode.Editing(),
		"Creating":  opts.Mode == ModeCreate,
		"Toggle":    opts.Admin || opts.Mode.Editing(),
		"EditURL":   opts.EditURL,
		"Instances": instances,
	})
}

// Instances renders each instance in order. Hidden instances are skipped while
// viewing and dimmed while editing. Unknown registry keys are skipped while
// viewing and shown as a placeholder while editing.
func (r *Renderer) Instances(def pagedef.PageDefinition, opts Options) ([]template.HTML, error) {
	editing := opts.Mode.Editing()
	out := make([]template.HTML, 0, len(def.Instances))
	for _, inst := range def.Instances {
		if inst.IsHidden && !editing {
			continue
		}
		entry, ok := r.registry.Lookup(inst.RegistryKey)
		if !ok {
			r.logger.Warn("render.component.unknown", "template_path", def.Path, "instance_id", inst.ID, "component_key", inst.RegistryKey)
			if !editing {
				continue
			}
			content, err := execute("missing", map[string]any{"Key": inst.RegistryKey})
			if err != nil {
				return nil, err
			}
			html, err := r.decorate(inst, entry, content, editing)
			if err != nil {
				return nil, err
			}
			out = append(out, html)
			continue
		}

		scope := &instanceScope{
			def:      def,
			instance: inst.ID,
			lang:     opts.Lang,
			editing:  editing,
		}
		content, err := entry.Render(scope, r.registry.MergeProps(inst.RegistryKey, inst.Props))
		if err != nil {
			r.logger.Error("render.component.failed", "template_path", def.Path, "instance_id", inst.ID, "error", err)
			if !editing {
				continue
			}
			content, err = execute("missing", map[string]any{"Key": inst.RegistryKey})
			if err != nil {
				return nil, err
			}
		}
		html, err := r.decorate(inst, entry, content, editing)
		if err != nil {
			return nil, err
		}
		out = append(out, html)
	}
	return out, nil
}

func (r *Renderer) decorate(inst pagedef.ComponentInstance, entry registry.Entry, content template.HTML, editing bool) (template.HTML, error) {
	return execute("instance", map[string]any{
		"ID":           inst.ID,
		"Key":          inst.RegistryKey,
		"Hidden":       inst.IsHidden,
		"Editing":      editing,
		"Configurable": entry.Configurable(),
		"Content":      content,
	})
}

// NotFoundData describes the not-found page.
type NotFoundData struct {
	Path        string
	Lang        string
	CreateURL   string
	Stylesheets []string
}

// NotFound writes the soft not-found page. CreateURL is only shown when set.
func (r *Renderer) NotFound(w io.Writer, data NotFoundData) error {
	return pageTemplates.ExecuteTemplate(w, "notfound", data)
}

// CreateURL appends create=true to the page URL.
func CreateURL(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil {
		return pageURL + "?create=true"
	}
	q := u.Query()
	q.Set("create", "true")
	u.RawQuery = q.Encode()
	return u.String()
}

func withDefaults(opts Options) Options {
	if opts.Mode == "" {
		opts.Mode = ModeView
	}
	if opts.EditURL == "" {
		opts.EditURL = "?edit=true"
	}
	return opts
}

func execute(name string, data any) (template.HTML, error) {
	var buf bytes.Buffer
	if err := pageTemplates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render: %s: %w", name, err)
	}
	return template.HTML(buf.String()), nil
}

type instanceScope struct {
	def      pagedef.PageDefinition
	instance string
	lang     string
	editing  bool
}

func (s *instanceScope) InstanceID() string { return s.instance }
func (s *instanceScope) Lang() string       { return s.lang }
func (s *instanceScope) Editing() bool      { return s.editing }

func (s *instanceScope) Text(elementID, fallback string) template.HTML {
	return s.text(elementID, fallback, false)
}

func (s *instanceScope) MultilineText(elementID, fallback string) template.HTML {
	return s.text(elementID, fallback, true)
}

func (s *instanceScope) text(elementID, fallback string, multiline bool) template.HTML {
	value, ok := s.def.Text(s.instance, elementID)
	if !ok {
		value = fallback
	}
	escaped := template.HTMLEscapeString(value)
	if multiline {
		escaped = strings.ReplaceAll(escaped, "\n", "<br>")
	}
	if !s.editing {
		return template.HTML(escaped)
	}
	html, err := execute("editable", map[string]any{
		"InstanceID": s.instance,
		"ElementID":  elementID,
		"Multiline":  multiline,
		"Value":      template.HTML(escaped),
	})
	if err != nil {
		return template.HTML(escaped)
	}
	return html
}

func (s *instanceScope) ElementProps(elementID string) map[string]any {
	elements := s.def.ElementProps[s.instance]
	if elements == nil {
		return map[string]any{}
	}
	return pagedef.CloneProps(elements[elementID])
}
