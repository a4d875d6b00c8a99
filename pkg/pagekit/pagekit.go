// Package pagekit is the runtime imported by generated page sources. Generated
// files embed their stored state as JSON literals decoded by Content,
// Components and ElementProps, then describe their layout with Provider and
// Wrapper.
package pagekit

import (
	"encoding/json"
	"fmt"
	"html/template"
	"io"

	"github.com/goliatone/go-pagebuilder/internal/pagedef"
	"github.com/goliatone/go-pagebuilder/internal/registry"
	"github.com/goliatone/go-pagebuilder/internal/render"
)

type (
	ContentMap      = pagedef.ContentOverrides
	Instance        = pagedef.ComponentInstance
	ElementPropsMap = pagedef.ElementProps
	Definition      = pagedef.PageDefinition
	Registry        = registry.Registry
	Mode            = render.Mode
)

const (
	ModeView   = render.ModeView
	ModeEdit   = render.ModeEdit
	ModeCreate = render.ModeCreate
)

// Content decodes a content overrides literal. It panics on malformed JSON
// since generated files are only valid with well-formed literals.
func Content(literal string) ContentMap {
	out := ContentMap{}
	mustDecode("contentOverrides", literal, &out)
	return out
}

// Components decodes an instances literal.
func Components(literal string) []Instance {
	out := []Instance{}
	mustDecode("addedComponents", literal, &out)
	return out
}

// ElementProps decodes an element props literal.
func ElementProps(literal string) ElementPropsMap {
	out := ElementPropsMap{}
	mustDecode("elementProps", literal, &out)
	return out
}

func mustDecode(name, literal string, target any) {
	if err := json.Unmarshal([]byte(literal), target); err != nil {
		panic(fmt.Sprintf("pagekit: invalid %s literal: %v", name, err))
	}
}

// ProviderConfig carries the stored state of a generated page.
type ProviderConfig struct {
	TemplatePath        string
	Lang                string
	InitialContent      ContentMap
	InitialComponents   []Instance
	InitialElementProps ElementPropsMap
}

type part int

const (
	partInstances part = iota + 1
	partEditToggle
)

// Part is one piece of a page layout.
type Part struct {
	kind part
}

// Instances renders the placed components.
func Instances() Part { return Part{kind: partInstances} }

// EditModeToggle renders the admin edit toggle.
func EditModeToggle() Part { return Part{kind: partEditToggle} }

// Layout is the page wrapper produced by Wrapper.
type Layout struct {
	ClassName string
	parts     []Part
}

// Wrapper wraps parts in an element carrying className.
func Wrapper(className string, parts ...Part) Layout {
	return Layout{ClassName: className, parts: parts}
}

func (l Layout) has(kind part) bool {
	for _, p := range l.parts {
		if p.kind == kind {
			return true
		}
	}
	return false
}

// Page is a renderable generated page.
type Page struct {
	def    pagedef.PageDefinition
	lang   string
	layout Layout
}

// Provider binds the stored state to a layout.
func Provider(cfg ProviderConfig, layout Layout) Page {
	def := pagedef.CreateEmpty(cfg.TemplatePath)
	if layout.ClassName != "" {
		def.CSSClassName = layout.ClassName
	}
	if cfg.InitialContent != nil {
		def.ContentOverrides = cfg.InitialContent
	}
	if cfg.InitialComponents != nil {
		def.Instances = cfg.InitialComponents
	}
	if cfg.InitialElementProps != nil {
		def.ElementProps = cfg.InitialElementProps
	}
	return Page{def: pagedef.Clone(def), lang: cfg.Lang, layout: layout}
}

// Definition returns a copy of the page state.
func (p Page) Definition() Definition {
	return pagedef.Clone(p.def)
}

func (p Page) Lang() string {
	return p.lang
}

// RenderOptions control Page rendering.
type RenderOptions struct {
	Mode  Mode
	Admin bool
	// Registry defaults to the builtin catalog.
	Registry *Registry
}

// Render writes the complete document for the page.
func (p Page) Render(w io.Writer, opts RenderOptions) error {
	renderer, renderOpts := p.renderer(opts)
	return renderer.Page(w, p.visibleDefinition(), renderOpts)
}

// Body renders the page wrapper without the surrounding document.
func (p Page) Body(opts RenderOptions) (template.HTML, error) {
	renderer, renderOpts := p.renderer(opts)
	return renderer.Body(p.visibleDefinition(), renderOpts)
}

func (p Page) renderer(opts RenderOptions) (*render.Renderer, render.Options) {
	return render.New(opts.Registry), render.Options{
		Mode:  opts.Mode,
		Lang:  p.lang,
		Admin: opts.Admin && p.layout.has(partEditToggle),
	}
}

func (p Page) visibleDefinition() pagedef.PageDefinition {
	def := pagedef.Clone(p.def)
	if !p.layout.has(partInstances) {
		def.Instances = []pagedef.ComponentInstance{}
	}
	return def
}
