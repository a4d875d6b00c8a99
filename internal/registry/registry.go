package registry

import (
	"errors"
	"fmt"
	"html/template"
	"sort"
	"strings"

	"github.com/goliatone/go-pagebuilder/internal/pagedef"
)

var (
	ErrDuplicateKey = errors.New("registry: duplicate entry key")
	ErrKeyRequired  = errors.New("registry: entry key is required")
	ErrRenderNil    = errors.New("registry: entry render function is required")
)

// Kind distinguishes full components from smaller elements.
type Kind string

const (
	KindComponent Kind = "component"
	KindElement   Kind = "element"
)

// PropDefinition describes one configurable property shown in the properties editor.
type PropDefinition struct {
	Name    string   `json:"name"`
	Label   string   `json:"label"`
	Type    string   `json:"type"`
	Options []string `json:"options,omitempty"`
	Default any      `json:"default,omitempty"`
}

// Scope is handed to render functions. It resolves editable text against the
// content overrides of the instance being rendered.
type Scope interface {
	InstanceID() string
	Lang() string
	Editing() bool
	Text(elementID, fallback string) template.HTML
	MultilineText(elementID, fallback string) template.HTML
	ElementProps(elementID string) map[string]any
}

// RenderFunc renders one instance with its merged props.
type RenderFunc func(scope Scope, props map[string]any) (template.HTML, error)

// Entry is one renderable unit of the catalog.
type Entry struct {
	Key          string           `json:"key"`
	Name         string           `json:"name"`
	Description  string           `json:"description,omitempty"`
	Category     string           `json:"category,omitempty"`
	Kind         Kind             `json:"kind"`
	DefaultProps map[string]any   `json:"defaultProps"`
	Props        []PropDefinition `json:"props,omitempty"`
	Render       RenderFunc       `json:"-"`
}

// Configurable reports whether the entry declares editable properties.
func (e Entry) Configurable() bool {
	return len(e.Props) > 0
}

// Registry is a closed catalog keyed by a fixed set of keys.
type Registry struct {
	entries map[string]Entry
	order   []string
}

// New builds a registry from the supplied entries.
func New(entries ...Entry) (*Registry, error) {
	r := &Registry{entries: make(map[string]Entry, len(entries))}
	for _, entry := range entries {
		key := strings.TrimSpace(entry.Key)
		if key == "" {
			return nil, ErrKeyRequired
		}
		if entry.Render == nil {
			return nil, fmt.Errorf("%w: %s", ErrRenderNil, key)
		}
		if _, exists := r.entries[key]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateKey, key)
		}
		if entry.Kind == "" {
			entry.Kind = KindComponent
		}
		entry.Key = key
		entry.DefaultProps = pagedef.CloneProps(entry.DefaultProps)
		r.entries[key] = entry
		r.order = append(r.order, key)
	}
	return r, nil
}

// MustNew panics when the entries are invalid.
func MustNew(entries ...Entry) *Registry {
	r, err := New(entries...)
	if err != nil {
		panic(err)
	}
	return r
}

// Lookup returns the entry for key. The returned defaults are a private copy.
func (r *Registry) Lookup(key string) (Entry, bool) {
	if r == nil {
		return Entry{}, false
	}
	entry, ok := r.entries[key]
	if !ok {
		return Entry{}, false
	}
	entry.DefaultProps = pagedef.CloneProps(entry.DefaultProps)
	entry.Props = append([]PropDefinition(nil), entry.Props...)
	return entry, true
}

// DefaultProps returns a fresh copy of the default props registered for key.
func (r *Registry) DefaultProps(key string) map[string]any {
	entry, ok := r.Lookup(key)
	if !ok {
		return map[string]any{}
	}
	if entry.DefaultProps == nil {
		return map[string]any{}
	}
	return entry.DefaultProps
}

// MergeProps overlays instance props on the registry defaults.
func (r *Registry) MergeProps(key string, props map[string]any) map[string]any {
	merged := r.DefaultProps(key)
	for name, value := range pagedef.CloneProps(props) {
		merged[name] = value
	}
	return merged
}

// Keys lists the registered keys in registration order.
func (r *Registry) Keys() []string {
	if r == nil {
		return nil
	}
	return append([]string(nil), r.order...)
}

// List returns entries sorted by category then name.
func (r *Registry) List() []Entry {
	if r == nil {
		return nil
	}
	out := make([]Entry, 0, len(r.order))
	for _, key := range r.order {
		entry, _ := r.Lookup(key)
		out = append(out, entry)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].Name < out[j].Name
	})
	return out
}
