// Package pagebuilder assembles pages from a component registry, persists
// them to a local or remote store and serves them with in-place editing for
// administrators.
package pagebuilder

import (
	"context"
	"errors"
	"net/http"

	"github.com/goliatone/go-pagebuilder/internal/di"
	"github.com/goliatone/go-pagebuilder/internal/logging"
	"github.com/goliatone/go-pagebuilder/internal/pagedef"
	"github.com/goliatone/go-pagebuilder/internal/resolver"
	"github.com/goliatone/go-pagebuilder/internal/session"
	"github.com/goliatone/go-pagebuilder/internal/templates"
)

type (
	PageDefinition    = pagedef.PageDefinition
	ComponentInstance = pagedef.ComponentInstance
	ContentOverrides  = pagedef.ContentOverrides
	ElementProps      = pagedef.ElementProps
	TemplatePayload   = pagedef.TemplatePayload
)

// TemplateService exports the create, save, load and render-data contract.
type TemplateService = templates.Service

// Session exports the editing session controller.
type Session = session.Session

// ErrNotFound is reported by Resolve when no store holds the page.
var ErrNotFound = resolver.ErrNotFound

// Module is the top level page builder runtime.
type Module struct {
	container *di.Container
}

// New constructs a module using cfg and optional DI overrides.
func New(cfg Config, opts ...di.Option) (*Module, error) {
	container, err := di.NewContainer(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &Module{container: container}, nil
}

// Container exposes the underlying DI container for advanced integrations.
func (m *Module) Container() *di.Container {
	return m.container
}

func (m *Module) Templates() TemplateService {
	return m.container.TemplateService()
}

// Handler returns the HTTP surface: template API plus page view routes.
func (m *Module) Handler() (http.Handler, error) {
	return m.container.Handler()
}

// Start begins background work such as watching the local template root.
func (m *Module) Start(ctx context.Context) error {
	return m.container.Start(ctx)
}

func (m *Module) Close() error {
	return m.container.Close()
}

// Resolve returns the stored definition for path and the name of the backend
// that served it.
func (m *Module) Resolve(ctx context.Context, path string) (PageDefinition, string, error) {
	result, err := m.container.Resolver().Resolve(ctx, path)
	if err != nil {
		return PageDefinition{}, "", err
	}
	return result.Definition, result.Source, nil
}

// Edit opens an editing session for path. Missing pages open in create mode.
// Saves go directly to the template service.
func (m *Module) Edit(ctx context.Context, path string) (*Session, error) {
	normalized, err := pagedef.ValidatePath(path)
	if err != nil {
		return nil, err
	}
	def, _, err := m.Resolve(ctx, normalized)
	create := false
	if err != nil {
		if !errors.Is(err, resolver.ErrNotFound) {
			return nil, err
		}
		def = pagedef.CreateEmpty(normalized)
		create = true
	}
	svc := m.Templates()
	return session.New(session.Config{
		Definition: def,
		Create:     create,
		Registry:   m.container.Registry(),
		Logger:     logging.SessionLogger(m.container.LoggerProvider()),
		Saver: session.SaverFunc(func(ctx context.Context, payload TemplatePayload) error {
			_, err := svc.Save(ctx, payload)
			return err
		}),
	}), nil
}
