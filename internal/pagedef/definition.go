package pagedef

import (
	"fmt"
	"maps"
	"strconv"
	"time"
)

// CreateEmpty returns a blank definition for the supplied path.
func CreateEmpty(path string) PageDefinition {
	normalized := NormalizePath(path)
	return PageDefinition{
		Path:             normalized,
		CSSClassName:     ClassName(normalized),
		ContentOverrides: ContentOverrides{},
		Instances:        []ComponentInstance{},
		ElementProps:     ElementProps{},
	}
}

// NewInstanceID builds the `{registryKey}-{millis}` identifier used for new instances.
func NewInstanceID(registryKey string, at time.Time) string {
	return fmt.Sprintf("%s-%d", registryKey, at.UnixMilli())
}

// WithContentOverride sets the text for one element of one instance.
func WithContentOverride(def PageDefinition, instanceID, elementID, value string) PageDefinition {
	next := Clone(def)
	if next.ContentOverrides == nil {
		next.ContentOverrides = ContentOverrides{}
	}
	elements := next.ContentOverrides[instanceID]
	if elements == nil {
		elements = map[string]string{}
		next.ContentOverrides[instanceID] = elements
	}
	elements[elementID] = value
	return next
}

// WithInstanceAdded appends a new instance holding its own copy of props.
func WithInstanceAdded(def PageDefinition, registryKey string, props map[string]any, at time.Time) (PageDefinition, ComponentInstance) {
	next := Clone(def)
	inst := next.newInstance(registryKey, props, at)
	next.Instances = append(next.Instances, inst)
	return next, cloneInstance(inst)
}

// WithInstanceInsertedBefore inserts a new instance before targetID. A missing
// target appends the instance to the end instead of failing.
func WithInstanceInsertedBefore(def PageDefinition, targetID, registryKey string, props map[string]any, at time.Time) (PageDefinition, ComponentInstance) {
	return insertRelative(def, targetID, 0, registryKey, props, at)
}

// WithInstanceInsertedAfter inserts a new instance after targetID. A missing
// target appends the instance to the end instead of failing.
func WithInstanceInsertedAfter(def PageDefinition, targetID, registryKey string, props map[string]any, at time.Time) (PageDefinition, ComponentInstance) {
	return insertRelative(def, targetID, 1, registryKey, props, at)
}

func insertRelative(def PageDefinition, targetID string, offset int, registryKey string, props map[string]any, at time.Time) (PageDefinition, ComponentInstance) {
	next := Clone(def)
	inst := next.newInstance(registryKey, props, at)
	idx := next.indexOf(targetID)
	if idx < 0 {
		next.Instances = append(next.Instances, inst)
		return next, cloneInstance(inst)
	}
	pos := idx + offset
	instances := make([]ComponentInstance, 0, len(next.Instances)+1)
	instances = append(instances, next.Instances[:pos]...)
	instances = append(instances, inst)
	instances = append(instances, next.Instances[pos:]...)
	next.Instances = instances
	return next, cloneInstance(inst)
}

// WithInstanceRemoved drops the instance. Overrides keyed by the id become inert.
func WithInstanceRemoved(def PageDefinition, instanceID string) PageDefinition {
	next := Clone(def)
	idx := next.indexOf(instanceID)
	if idx < 0 {
		return next
	}
	next.Instances = append(next.Instances[:idx], next.Instances[idx+1:]...)
	return next
}

// WithInstanceVisibilityToggled flips the hidden flag of an instance.
func WithInstanceVisibilityToggled(def PageDefinition, instanceID string) PageDefinition {
	next := Clone(def)
	if idx := next.indexOf(instanceID); idx >= 0 {
		next.Instances[idx].IsHidden = !next.Instances[idx].IsHidden
	}
	return next
}

// WithInstanceProp sets a single top-level prop on an instance.
func WithInstanceProp(def PageDefinition, instanceID, name string, value any) PageDefinition {
	return WithInstanceProps(def, instanceID, map[string]any{name: value})
}

// WithInstanceProps merges the supplied props over the instance props.
func WithInstanceProps(def PageDefinition, instanceID string, props map[string]any) PageDefinition {
	next := Clone(def)
	idx := next.indexOf(instanceID)
	if idx < 0 {
		return next
	}
	if next.Instances[idx].Props == nil {
		next.Instances[idx].Props = map[string]any{}
	}
	for key, value := range CloneProps(props) {
		next.Instances[idx].Props[key] = value
	}
	return next
}

// WithElementProp sets a property override on an element nested in an instance.
func WithElementProp(def PageDefinition, instanceID, elementID, name string, value any) PageDefinition {
	return WithElementProps(def, instanceID, elementID, map[string]any{name: value})
}

// WithElementProps merges property overrides for an element nested in an instance.
func WithElementProps(def PageDefinition, instanceID, elementID string, props map[string]any) PageDefinition {
	next := Clone(def)
	if next.ElementProps == nil {
		next.ElementProps = ElementProps{}
	}
	elements := next.ElementProps[instanceID]
	if elements == nil {
		elements = map[string]map[string]any{}
		next.ElementProps[instanceID] = elements
	}
	current := elements[elementID]
	if current == nil {
		current = map[string]any{}
		elements[elementID] = current
	}
	for key, value := range CloneProps(props) {
		current[key] = value
	}
	return next
}

func (d *PageDefinition) newInstance(registryKey string, props map[string]any, at time.Time) ComponentInstance {
	id := NewInstanceID(registryKey, at)
	if d.indexOf(id) >= 0 {
		base := id
		for n := 2; d.indexOf(id) >= 0; n++ {
			id = base + "-" + strconv.Itoa(n)
		}
	}
	inst := ComponentInstance{ID: id, RegistryKey: registryKey, Props: CloneProps(props)}
	if inst.Props == nil {
		inst.Props = map[string]any{}
	}
	return inst
}

// Clone returns a deep copy of the definition.
func Clone(def PageDefinition) PageDefinition {
	return PageDefinition{
		Path:             def.Path,
		CSSClassName:     def.CSSClassName,
		ContentOverrides: cloneOverrides(def.ContentOverrides),
		Instances:        cloneInstances(def.Instances),
		ElementProps:     cloneElementProps(def.ElementProps),
	}
}

// CloneProps deep copies a props map, including nested maps and slices.
func CloneProps(props map[string]any) map[string]any {
	if props == nil {
		return nil
	}
	out := make(map[string]any, len(props))
	for key, value := range props {
		out[key] = cloneValue(value)
	}
	return out
}

func cloneValue(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		return CloneProps(typed)
	case []any:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = cloneValue(item)
		}
		return out
	case []string:
		return append([]string(nil), typed...)
	default:
		return value
	}
}

func cloneOverrides(src ContentOverrides) ContentOverrides {
	if src == nil {
		return nil
	}
	out := make(ContentOverrides, len(src))
	for id, elements := range src {
		out[id] = maps.Clone(elements)
	}
	return out
}

func cloneInstances(src []ComponentInstance) []ComponentInstance {
	if src == nil {
		return nil
	}
	out := make([]ComponentInstance, len(src))
	for i, inst := range src {
		out[i] = cloneInstance(inst)
	}
	return out
}

func cloneInstance(inst ComponentInstance) ComponentInstance {
	inst.Props = CloneProps(inst.Props)
	return inst
}

func cloneElementProps(src ElementProps) ElementProps {
	if src == nil {
		return nil
	}
	out := make(ElementProps, len(src))
	for id, elements := range src {
		copied := make(map[string]map[string]any, len(elements))
		for elementID, props := range elements {
			copied[elementID] = CloneProps(props)
		}
		out[id] = copied
	}
	return out
}
