package session

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/goliatone/go-pagebuilder/internal/logging"
	"github.com/goliatone/go-pagebuilder/internal/pagedef"
	"github.com/goliatone/go-pagebuilder/internal/registry"
	"github.com/goliatone/go-pagebuilder/pkg/interfaces"
)

// State is the editing state of a session.
type State string

const (
	StateViewing State = "viewing"
	StateEditing State = "editing"
)

var (
	ErrNotEditing       = errors.New("session: action requires editing mode")
	ErrSaveInProgress   = errors.New("session: save in progress")
	ErrUnknownComponent = errors.New("session: unknown component key")
	ErrNoSaver          = errors.New("session: no saver configured")
)

// Config seeds a session.
type Config struct {
	Definition pagedef.PageDefinition
	// Create starts the session in create mode, which forces editing.
	Create   bool
	Registry *registry.Registry
	Saver    Saver
	Logger   interfaces.Logger
	// OnSaved runs after a successful save with the persisted definition.
	OnSaved func(pagedef.PageDefinition)
	Now     func() time.Time
}

// Session is the in-memory editing controller for one page view.
type Session struct {
	mu       sync.Mutex
	state    State
	creating bool
	saving   bool
	mutated  bool
	seed     pagedef.PageDefinition
	current  pagedef.PageDefinition
	registry *registry.Registry
	saver    Saver
	logger   interfaces.Logger
	onSaved  func(pagedef.PageDefinition)
	now      func() time.Time
}

// New builds a session. A definition without a path is replaced by a blank one.
func New(cfg Config) *Session {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NoOp()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	seed := seedDefinition(cfg.Definition)
	s := &Session{
		state:    StateViewing,
		seed:     seed,
		current:  pagedef.Clone(seed),
		registry: cfg.Registry,
		saver:    cfg.Saver,
		logger:   logging.WithFields(logger, map[string]any{"template_path": seed.Path}),
		onSaved:  cfg.OnSaved,
		now:      now,
	}
	if cfg.Create {
		s.creating = true
		s.state = StateEditing
	}
	return s
}

func seedDefinition(def pagedef.PageDefinition) pagedef.PageDefinition {
	seed := pagedef.CreateEmpty(def.Path)
	if def.CSSClassName != "" {
		seed.CSSClassName = def.CSSClassName
	}
	if def.ContentOverrides != nil {
		seed.ContentOverrides = def.ContentOverrides
	}
	if def.Instances != nil {
		seed.Instances = def.Instances
	}
	if def.ElementProps != nil {
		seed.ElementProps = def.ElementProps
	}
	return pagedef.Clone(seed)
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Creating reports whether the session edits a page that has not been saved yet.
func (s *Session) Creating() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creating
}

func (s *Session) Saving() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saving
}

// Definition returns a copy of the current in-memory definition.
func (s *Session) Definition() pagedef.PageDefinition {
	s.mu.Lock()
	defer s.mu.Unlock()
	return pagedef.Clone(s.current)
}

// Pristine reports whether the current state equals the last seed.
func (s *Session) Pristine() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pristineLocked()
}

func (s *Session) pristineLocked() bool {
	return !s.mutated || reflect.DeepEqual(s.seed, s.current)
}

// Payload projects the current state on the save wire contract.
func (s *Session) Payload() pagedef.TemplatePayload {
	s.mu.Lock()
	defer s.mu.Unlock()
	return payloadOf(s.current)
}

func payloadOf(def pagedef.PageDefinition) pagedef.TemplatePayload {
	payload := pagedef.PayloadFromDefinition(def)
	if payload.Content == nil {
		payload.Content = pagedef.ContentOverrides{}
	}
	if payload.AddedComponents == nil {
		payload.AddedComponents = []pagedef.ComponentInstance{}
	}
	return payload
}

// StartEditing switches to editing. Calling it while editing is a no-op.
func (s *Session) StartEditing() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateEditing {
		return
	}
	s.state = StateEditing
	s.logger.Debug("session.edit.start")
}

// Cancel leaves editing and discards every unsaved change.
func (s *Session) Cancel() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saving {
		return ErrSaveInProgress
	}
	if s.state != StateEditing {
		return nil
	}
	s.state = StateViewing
	s.creating = false
	s.current = pagedef.Clone(s.seed)
	s.mutated = false
	s.logger.Debug("session.edit.cancel")
	return nil
}

// Reseed replaces the seed with a fresh definition unless user edits would be
// lost. It reports whether the new definition was adopted.
func (s *Session) Reseed(def pagedef.PageDefinition) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saving || !s.pristineLocked() {
		s.logger.Debug("session.reseed.ignored")
		return false
	}
	s.seed = seedDefinition(def)
	s.current = pagedef.Clone(s.seed)
	s.mutated = false
	return true
}

func (s *Session) UpdateContent(instanceID, elementID, value string) error {
	return s.mutate("update_content", func(def pagedef.PageDefinition) pagedef.PageDefinition {
		return pagedef.WithContentOverride(def, instanceID, elementID, value)
	})
}

func (s *Session) UpdateProps(instanceID string, props map[string]any) error {
	return s.mutate("update_props", func(def pagedef.PageDefinition) pagedef.PageDefinition {
		return pagedef.WithInstanceProps(def, instanceID, props)
	})
}

func (s *Session) UpdateElementProps(instanceID, elementID string, props map[string]any) error {
	return s.mutate("update_element_props", func(def pagedef.PageDefinition) pagedef.PageDefinition {
		return pagedef.WithElementProps(def, instanceID, elementID, props)
	})
}

func (s *Session) RemoveComponent(instanceID string) error {
	return s.mutate("remove_component", func(def pagedef.PageDefinition) pagedef.PageDefinition {
		return pagedef.WithInstanceRemoved(def, instanceID)
	})
}

func (s *Session) ToggleVisibility(instanceID string) error {
	return s.mutate("toggle_visibility", func(def pagedef.PageDefinition) pagedef.PageDefinition {
		return pagedef.WithInstanceVisibilityToggled(def, instanceID)
	})
}

// AddComponent appends an instance seeded with a private copy of the registry defaults.
func (s *Session) AddComponent(registryKey string) (pagedef.ComponentInstance, error) {
	return s.insert("add_component", registryKey, func(def pagedef.PageDefinition, props map[string]any, at time.Time) (pagedef.PageDefinition, pagedef.ComponentInstance) {
		return pagedef.WithInstanceAdded(def, registryKey, props, at)
	})
}

// InsertBefore places a new instance before targetID, or at the end when the target is gone.
func (s *Session) InsertBefore(targetID, registryKey string) (pagedef.ComponentInstance, error) {
	return s.insert("insert_before", registryKey, func(def pagedef.PageDefinition, props map[string]any, at time.Time) (pagedef.PageDefinition, pagedef.ComponentInstance) {
		return pagedef.WithInstanceInsertedBefore(def, targetID, registryKey, props, at)
	})
}

// InsertAfter places a new instance after targetID, or at the end when the target is gone.
func (s *Session) InsertAfter(targetID, registryKey string) (pagedef.ComponentInstance, error) {
	return s.insert("insert_after", registryKey, func(def pagedef.PageDefinition, props map[string]any, at time.Time) (pagedef.PageDefinition, pagedef.ComponentInstance) {
		return pagedef.WithInstanceInsertedAfter(def, targetID, registryKey, props, at)
	})
}

type insertFunc func(pagedef.PageDefinition, map[string]any, time.Time) (pagedef.PageDefinition, pagedef.ComponentInstance)

func (s *Session) insert(action, registryKey string, fn insertFunc) (pagedef.ComponentInstance, error) {
	var props map[string]any
	if s.registry != nil {
		if _, ok := s.registry.Lookup(registryKey); !ok {
			return pagedef.ComponentInstance{}, fmt.Errorf("%w: %s", ErrUnknownComponent, registryKey)
		}
		props = s.registry.DefaultProps(registryKey)
	}
	var inst pagedef.ComponentInstance
	err := s.mutate(action, func(def pagedef.PageDefinition) pagedef.PageDefinition {
		next, added := fn(def, props, s.now())
		inst = added
		return next
	})
	return inst, err
}

func (s *Session) mutate(action string, fn func(pagedef.PageDefinition) pagedef.PageDefinition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateEditing {
		return ErrNotEditing
	}
	if s.saving {
		return ErrSaveInProgress
	}
	s.current = fn(s.current)
	s.mutated = true
	s.logger.Trace("session.mutate", "action", action)
	return nil
}

// Save persists the current state through the saver. On success the session
// returns to viewing with the saved state as its new seed. On failure it stays
// in editing with every change intact and the error is returned.
func (s *Session) Save(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateEditing {
		s.mu.Unlock()
		return ErrNotEditing
	}
	if s.saving {
		s.mu.Unlock()
		return ErrSaveInProgress
	}
	if s.saver == nil {
		s.mu.Unlock()
		return ErrNoSaver
	}
	s.saving = true
	snapshot := pagedef.Clone(s.current)
	saver := s.saver
	s.mu.Unlock()

	err := saver.Save(ctx, payloadOf(snapshot))

	s.mu.Lock()
	s.saving = false
	if err != nil {
		s.mu.Unlock()
		s.logger.Error("session.save.failed", "error", err)
		return err
	}
	s.state = StateViewing
	s.creating = false
	s.seed = snapshot
	s.current = pagedef.Clone(snapshot)
	s.mutated = false
	onSaved := s.onSaved
	s.mu.Unlock()

	s.logger.Info("session.save.success", "instances", len(snapshot.Instances))
	if onSaved != nil {
		onSaved(pagedef.Clone(snapshot))
	}
	return nil
}
