package models

// ComponentType identifies the widget a configuration form field renders as.
type ComponentType string

const (
	ComponentText        ComponentType = "text"
	ComponentTextarea    ComponentType = "textarea"
	ComponentSelect      ComponentType = "select"
	ComponentMultiSelect ComponentType = "multiselect"
	ComponentCheckbox    ComponentType = "checkbox"
	ComponentRadio       ComponentType = "radio"
	ComponentNumber      ComponentType = "number"
	ComponentSlider      ComponentType = "slider"
	ComponentToggle      ComponentType = "toggle"
	ComponentColor       ComponentType = "color"
	ComponentFile        ComponentType = "file"
	ComponentDate        ComponentType = "date"
	ComponentLabel       ComponentType = "label"
	ComponentDivider     ComponentType = "divider"
	ComponentButton      ComponentType = "button"
)

// IsInput reports whether the component binds to a parameter value. Labels,
// dividers and buttons are presentational and carry no value.
func (t ComponentType) IsInput() bool {
	switch t {
	case ComponentLabel, ComponentDivider, ComponentButton:
		return false
	default:
		return true
	}
}

// DynamicOptions binds a component's option list to an external source whose
// result depends on the current value of a sibling field.
type DynamicOptions struct {
	// Endpoint names the option source, e.g. "models".
	Endpoint string `json:"endpoint" validate:"required"`
	// DependsOn is the sibling component whose value keys the fetch.
	DependsOn string `json:"depends_on,omitempty"`
}

// Constraints carries the validation rules of a component. Pattern and
// length limits are advisory while editing and enforced at save.
type Constraints struct {
	Required  bool     `json:"required,omitempty"`
	Min       *float64 `json:"min,omitempty"`
	Max       *float64 `json:"max,omitempty"`
	MaxLength *int     `json:"max_length,omitempty"`
	Pattern   string   `json:"pattern,omitempty"`
}

// UIComponent is one typed field of a declarative configuration form.
type UIComponent struct {
	Name           string          `json:"name"`
	Type           ComponentType   `json:"type" validate:"required"`
	Label          string          `json:"label,omitempty"`
	Placeholder    string          `json:"placeholder,omitempty"`
	Description    string          `json:"description,omitempty"`
	DefaultValue   *Value          `json:"default_value,omitempty"`
	Options        []string        `json:"options,omitempty"`
	Constraints    Constraints     `json:"constraints"`
	DynamicOptions *DynamicOptions `json:"dynamic_options,omitempty"`
}

// UIGroup is an ordered, titled section of components.
type UIGroup struct {
	Title      string        `json:"title,omitempty"`
	Components []UIComponent `json:"components"`
}

// UISchema is the server-declared description of a node type's
// configuration form.
type UISchema struct {
	Groups []UIGroup `json:"groups"`
}

// Component looks a component up by name across all groups.
func (s *UISchema) Component(name string) (UIComponent, bool) {
	for _, group := range s.Groups {
		for _, component := range group.Components {
			if component.Name == name {
				return component, true
			}
		}
	}

	return UIComponent{}, false
}
