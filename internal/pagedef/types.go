package pagedef

// ContentOverrides maps component instance ids to element ids to the edited text value.
type ContentOverrides map[string]map[string]string

// ElementProps maps component instance ids to element ids to property overrides.
type ElementProps map[string]map[string]map[string]any

// ComponentInstance is one placed, configured occurrence of a registry entry.
type ComponentInstance struct {
	ID          string         `json:"id"`
	RegistryKey string         `json:"componentKey"`
	Props       map[string]any `json:"props,omitempty"`
	IsHidden    bool           `json:"isHidden,omitempty"`
}

// PageDefinition is the unit of persistence for one routable page.
type PageDefinition struct {
	Path             string              `json:"path"`
	CSSClassName     string              `json:"cssClassName"`
	ContentOverrides ContentOverrides    `json:"contentOverrides"`
	Instances        []ComponentInstance `json:"instances"`
	ElementProps     ElementProps        `json:"elementProps,omitempty"`
}

// TemplatePayload is the JSON body exchanged by the create and save endpoints.
type TemplatePayload struct {
	TemplatePath    string              `json:"templatePath"`
	Content         ContentOverrides    `json:"content"`
	AddedComponents []ComponentInstance `json:"addedComponents"`
	ElementProps    ElementProps        `json:"elementProps,omitempty"`
}

// PayloadFromDefinition projects a definition onto the save wire contract.
func PayloadFromDefinition(def PageDefinition) TemplatePayload {
	clone := Clone(def)
	return TemplatePayload{
		TemplatePath:    clone.Path,
		Content:         clone.ContentOverrides,
		AddedComponents: clone.Instances,
		ElementProps:    clone.ElementProps,
	}
}

// Definition converts the payload into a page definition, deriving the class name.
func (p TemplatePayload) Definition() PageDefinition {
	def := CreateEmpty(p.TemplatePath)
	if p.Content != nil {
		def.ContentOverrides = cloneOverrides(p.Content)
	}
	if p.AddedComponents != nil {
		def.Instances = cloneInstances(p.AddedComponents)
	}
	if p.ElementProps != nil {
		def.ElementProps = cloneElementProps(p.ElementProps)
	}
	return def
}

// Instance returns the instance with the supplied id.
func (d PageDefinition) Instance(id string) (ComponentInstance, bool) {
	idx := d.indexOf(id)
	if idx < 0 {
		return ComponentInstance{}, false
	}
	return d.Instances[idx], true
}

// Text returns the override for an element, reporting whether one exists.
func (d PageDefinition) Text(instanceID, elementID string) (string, bool) {
	elements, ok := d.ContentOverrides[instanceID]
	if !ok {
		return "", false
	}
	value, ok := elements[elementID]
	return value, ok
}

func (d PageDefinition) indexOf(id string) int {
	for i, inst := range d.Instances {
		if inst.ID == id {
			return i
		}
	}
	return -1
}
