package uiengine

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"

	"github.com/flowplane/flowplane/pkg/configcache"
	"github.com/flowplane/flowplane/pkg/models"
)

// State is the lifecycle state of a configuration session.
type State string

const (
	StateIdle    State = "idle"
	StateEditing State = "editing"
	StateSaving  State = "saving"
)

var (
	// ErrNotEditing indicates an operation that requires an open session.
	ErrNotEditing = errors.New("configuration session is not editing")

	// ErrNoUISchema indicates the node type declares no configuration form.
	ErrNoUISchema = errors.New("node type has no ui schema")
)

// Committer receives the validated draft when a session saves. The editor
// wires this to the graph store so the commit is a single call site.
type Committer interface {
	CommitParameters(ctx context.Context, nodeID string, parameters models.Parameters) error
}

// FieldView is the render descriptor for one component: everything the
// canvas needs to draw the field without knowing schema internals.
type FieldView struct {
	Name        string              `json:"name"`
	Type        models.ComponentType `json:"type"`
	Label       string              `json:"label,omitempty"`
	Placeholder string              `json:"placeholder,omitempty"`
	Description string              `json:"description,omitempty"`
	Value       models.Value        `json:"value"`
	HasValue    bool                `json:"has_value"`
	Options     []string            `json:"options,omitempty"`
	Loading     bool                `json:"loading,omitempty"`
	Disabled    bool                `json:"disabled,omitempty"`
	Required    bool                `json:"required,omitempty"`
	Unsupported bool                `json:"unsupported,omitempty"`
	Issues      []Issue             `json:"issues,omitempty"`
}

// GroupView is a rendered form section.
type GroupView struct {
	Title  string      `json:"title,omitempty"`
	Fields []FieldView `json:"fields"`
}

var knownComponents = map[models.ComponentType]bool{
	models.ComponentText:        true,
	models.ComponentTextarea:    true,
	models.ComponentSelect:      true,
	models.ComponentMultiSelect: true,
	models.ComponentCheckbox:    true,
	models.ComponentRadio:       true,
	models.ComponentNumber:      true,
	models.ComponentSlider:      true,
	models.ComponentToggle:      true,
	models.ComponentColor:       true,
	models.ComponentFile:        true,
	models.ComponentDate:        true,
	models.ComponentLabel:       true,
	models.ComponentDivider:     true,
	models.ComponentButton:      true,
}

// Session drives one node's configuration form: it binds the declarative UI
// schema to a draft parameter map, resolves dynamic option sets and commits
// validated edits back through the config cache and the graph.
//
// Edits accumulate in the draft only; the graph never sees a value before a
// successful save. Only one session is Editing at a time (the canvas opens
// at most one panel), so drafts have a single writer.
type Session struct {
	mu sync.Mutex

	nodeID      string
	uiSchema    *models.UISchema
	paramSchema map[string]any
	committed   models.Parameters
	draft       models.Parameters
	state       State

	cache     configcache.Store
	resolver  *OptionResolver
	committer Committer
	logger    *slog.Logger
}

// NewSession builds a session for a node. Call Open before rendering.
func NewSession(
	node *models.Node,
	cache configcache.Store,
	resolver *OptionResolver,
	committer Committer,
	logger *slog.Logger,
) (*Session, error) {
	if node.Data.Schema == nil || node.Data.Schema.UIConfig == nil {
		return nil, ErrNoUISchema
	}

	return &Session{
		nodeID:      node.ID,
		uiSchema:    node.Data.Schema.UIConfig,
		paramSchema: node.Data.Schema.ParamSchema,
		committed:   node.Data.Parameters.Clone(),
		state:       StateIdle,
		cache:       cache,
		resolver:    resolver,
		committer:   committer,
		logger:      logger.With("node_id", node.ID),
	}, nil
}

// Open starts editing. The draft seeds from the cached draft when one is
// present and non-empty, otherwise from the graph's committed parameters,
// so reopening a panel never loses in-progress edits. Dynamic option sets
// for the current governing values start resolving immediately.
func (s *Session) Open(ctx context.Context) error {
	s.mu.Lock()

	seed, err := configcache.Resolve(ctx, s.cache, s.nodeID, s.committed)
	if err != nil {
		s.logger.Warn("Failed to read config cache, using committed parameters", "error", err)
	}

	s.draft = seed
	s.state = StateEditing

	dynamic := s.dynamicComponentsLocked()
	s.mu.Unlock()

	for _, component := range dynamic {
		s.resolveOptions(ctx, component)
	}

	return nil
}

// State returns the session's lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state
}

// NodeID returns the node this session configures.
func (s *Session) NodeID() string {
	return s.nodeID
}

// SetValue records an edit into the draft. When the field governs another
// component's dynamic options, a fetch for the new key starts; the
// dependent selection is only reconciled once the new list has arrived.
func (s *Session) SetValue(ctx context.Context, name string, value models.Value) error {
	s.mu.Lock()

	if s.state != StateEditing {
		s.mu.Unlock()

		return ErrNotEditing
	}

	s.draft[name] = value

	var dependents []models.UIComponent

	for _, group := range s.uiSchema.Groups {
		for _, component := range group.Components {
			if component.DynamicOptions != nil && component.DynamicOptions.DependsOn == name {
				dependents = append(dependents, component)
			}
		}
	}

	s.mu.Unlock()

	for _, component := range dependents {
		s.resolveOptions(ctx, component)
	}

	return nil
}

// Value returns the effective value of a component: draft first, then the
// component's declared default.
func (s *Session) Value(name string) (models.Value, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.effectiveValueLocked(name)
}

func (s *Session) effectiveValueLocked(name string) (models.Value, bool) {
	if value, ok := s.draft[name]; ok {
		return value, true
	}

	component, ok := s.uiSchema.Component(name)
	if ok && component.DefaultValue != nil {
		return *component.DefaultValue, true
	}

	return models.Value{}, false
}

// Render produces the group/field descriptors for the current draft.
// Unknown component types render as an unsupported placeholder instead of
// failing the whole form.
func (s *Session) Render() []GroupView {
	s.mu.Lock()
	defer s.mu.Unlock()

	groups := make([]GroupView, 0, len(s.uiSchema.Groups))

	for _, group := range s.uiSchema.Groups {
		view := GroupView{Title: group.Title, Fields: make([]FieldView, 0, len(group.Components))}

		for _, component := range group.Components {
			view.Fields = append(view.Fields, s.renderFieldLocked(component))
		}

		groups = append(groups, view)
	}

	return groups
}

func (s *Session) renderFieldLocked(component models.UIComponent) FieldView {
	field := FieldView{
		Name:        component.Name,
		Type:        component.Type,
		Label:       component.Label,
		Placeholder: component.Placeholder,
		Description: component.Description,
		Options:     component.Options,
		Required:    component.Constraints.Required,
	}

	if !knownComponents[component.Type] {
		field.Unsupported = true
		field.Disabled = true

		return field
	}

	if component.Type.IsInput() {
		field.Value, field.HasValue = s.effectiveValueLocked(component.Name)
		field.Issues = fieldIssues(component, field.Value, field.HasValue)
	}

	if component.DynamicOptions != nil {
		endpoint := component.DynamicOptions.Endpoint
		key := s.governingKeyLocked(component)

		if options, ok := s.resolver.Cached(endpoint, key); ok {
			field.Options = options
		} else {
			field.Options = nil
		}

		if s.resolver.Loading(endpoint, key) {
			field.Loading = true
			field.Disabled = true
		}
	}

	return field
}

// governingKeyLocked computes the option-cache key for a dynamic component:
// the current effective value of the field it depends on.
func (s *Session) governingKeyLocked(component models.UIComponent) string {
	if component.DynamicOptions == nil || component.DynamicOptions.DependsOn == "" {
		return ""
	}

	value, ok := s.effectiveValueLocked(component.DynamicOptions.DependsOn)
	if !ok || value.Kind != models.KindString {
		return ""
	}

	return value.Str
}

// resolveOptions starts (or joins) the fetch for a dynamic component's
// current key. When the list arrives, a selected value that is no longer
// offered is cleared — but only if the session is still editing and the
// governing field still points at the fetched key. A stale arrival has
// already populated the resolver cache and touches nothing else.
func (s *Session) resolveOptions(ctx context.Context, component models.UIComponent) {
	s.mu.Lock()
	key := s.governingKeyLocked(component)
	s.mu.Unlock()

	endpoint := component.DynamicOptions.Endpoint

	s.resolver.Resolve(ctx, endpoint, key, func(options []string, fetched bool) {
		if !fetched {
			return
		}

		s.mu.Lock()
		defer s.mu.Unlock()

		if s.state != StateEditing {
			return
		}

		if s.governingKeyLocked(component) != key {
			return
		}

		selected, ok := s.draft[component.Name]
		if !ok || selected.Kind != models.KindString || selected.Str == "" {
			return
		}

		if !slices.Contains(options, selected.Str) {
			delete(s.draft, component.Name)
			s.logger.Debug("Cleared stale dependent selection",
				"field", component.Name, "value", selected.Str, "key", key)
		}
	})
}

// Save validates the draft and commits it to the config cache and, through
// the committer, to the graph. Validation failures block the save and name
// every offending field.
func (s *Session) Save(ctx context.Context) error {
	s.mu.Lock()

	if s.state != StateEditing {
		s.mu.Unlock()

		return ErrNotEditing
	}

	s.materializeDefaultsLocked()

	issues := validateAll(s.uiSchema, s.paramSchema, s.draft)
	if len(issues) > 0 {
		s.mu.Unlock()

		return &ValidationError{Issues: issues}
	}

	s.state = StateSaving
	draft := s.draft.Clone()
	s.mu.Unlock()

	if err := s.cache.Save(ctx, s.nodeID, draft); err != nil {
		s.logger.Warn("Failed to cache saved draft", "error", err)
	}

	if err := s.committer.CommitParameters(ctx, s.nodeID, draft); err != nil {
		s.mu.Lock()
		s.state = StateEditing
		s.mu.Unlock()

		return err
	}

	s.mu.Lock()
	s.committed = draft.Clone()
	s.state = StateIdle
	s.mu.Unlock()

	return nil
}

// materializeDefaultsLocked copies declared component defaults into the
// draft for input fields the user never set. The form renders those
// defaults as the field value, so the saved parameters must carry them
// too or a required field that looks populated would block the save.
func (s *Session) materializeDefaultsLocked() {
	for _, group := range s.uiSchema.Groups {
		for _, component := range group.Components {
			if !component.Type.IsInput() || component.DefaultValue == nil {
				continue
			}

			if _, ok := s.draft[component.Name]; ok {
				continue
			}

			if s.draft == nil {
				s.draft = make(models.Parameters)
			}

			s.draft[component.Name] = *component.DefaultValue
		}
	}
}

// Cancel discards the draft and closes the session. Cached drafts from a
// previous save survive; only the unsaved edits of this session are lost.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.draft = s.committed.Clone()
	s.state = StateIdle
}

func (s *Session) dynamicComponentsLocked() []models.UIComponent {
	var dynamic []models.UIComponent

	for _, group := range s.uiSchema.Groups {
		for _, component := range group.Components {
			if component.DynamicOptions != nil {
				dynamic = append(dynamic, component)
			}
		}
	}

	return dynamic
}
