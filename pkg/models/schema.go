package models

// NodeRole marks the structural role a node type plays in the data flow.
// A workflow holds at most one entry-role and one terminal-role node.
type NodeRole string

const (
	RoleNone     NodeRole = ""
	RoleEntry    NodeRole = "entry"
	RoleTerminal NodeRole = "terminal"
)

// InputDef declares a named, typed input port on a node type.
type InputDef struct {
	Name        string `json:"name"     validate:"required"`
	DataType    string `json:"data_type"`
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required,omitempty"`
	// Multiple allows more than one inbound edge on this input.
	Multiple bool `json:"multiple,omitempty"`
}

// OutputDef declares a named, typed output port on a node type.
type OutputDef struct {
	Name        string `json:"name"     validate:"required"`
	DataType    string `json:"data_type"`
	Description string `json:"description,omitempty"`
}

// ParameterDef declares a typed, ordered configuration parameter.
type ParameterDef struct {
	Name         string     `json:"name"     validate:"required"`
	Label        string     `json:"label,omitempty"`
	Type         string     `json:"type"` // string, number, boolean, list, file
	Required     bool       `json:"required,omitempty"`
	DefaultValue *Value     `json:"default_value,omitempty"`
	Options      []string   `json:"options,omitempty"`
}

// NodeTypeSchema is the immutable, server-declared description of a node
// type: identity, ports, parameters and the declarative configuration form.
type NodeTypeSchema struct {
	ID          string         `json:"id"   validate:"required"`
	Name        string         `json:"name" validate:"required"`
	Description string         `json:"description,omitempty"`
	Role        NodeRole       `json:"role,omitempty"`
	Inputs      []InputDef     `json:"inputs"`
	Outputs     []OutputDef    `json:"outputs"`
	Parameters  []ParameterDef `json:"parameters"`
	// ParamSchema is an optional JSON Schema for the whole parameter map,
	// enforced at configuration save time.
	ParamSchema map[string]any `json:"param_schema,omitempty"`
	UIConfig    *UISchema      `json:"ui_config,omitempty"`
}

// Input returns the declared input with the given name.
func (s *NodeTypeSchema) Input(name string) (InputDef, bool) {
	for _, in := range s.Inputs {
		if in.Name == name {
			return in, true
		}
	}

	return InputDef{}, false
}

// Output returns the declared output with the given name.
func (s *NodeTypeSchema) Output(name string) (OutputDef, bool) {
	for _, out := range s.Outputs {
		if out.Name == name {
			return out, true
		}
	}

	return OutputDef{}, false
}

// Parameter returns the declared parameter with the given name.
func (s *NodeTypeSchema) Parameter(name string) (ParameterDef, bool) {
	for _, p := range s.Parameters {
		if p.Name == name {
			return p, true
		}
	}

	return ParameterDef{}, false
}
