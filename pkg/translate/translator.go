package translate

import (
	"fmt"

	"github.com/flowplane/flowplane/pkg/models"
)

// TypeMapper resolves a schema-level node type identifier to the backend's
// registered execution-type identifier.
type TypeMapper func(schemaType string) (string, bool)

// Translator projects the graph into an ExecutionDAG. Translation is pure:
// it never mutates its inputs, and identical inputs yield byte-identical
// output (node map keys are serialized sorted; edges keep insertion order).
type Translator struct {
	mapTypes TypeMapper
	defaults DefaultPolicy
}

// NewTranslator creates a translator with an injectable type mapping and
// default policy. A nil policy applies no policy defaults.
func NewTranslator(mapTypes TypeMapper, defaults DefaultPolicy) *Translator {
	if defaults == nil {
		defaults = func(*models.Node, models.ParameterDef) (models.Value, bool) {
			return models.Value{}, false
		}
	}

	return &Translator{mapTypes: mapTypes, defaults: defaults}
}

// Translate converts nodes and edges into the wire-level execution DAG,
// filling defaults and rejecting structurally invalid graphs. On failure it
// returns an *Error aggregating every problem and no partial DAG.
func (t *Translator) Translate(nodes []*models.Node, edges []*models.Edge) (*models.ExecutionDAG, error) {
	var problems []error

	// Whole-graph preconditions first: a runnable workflow needs an entry
	// and a terminal node.
	if !hasRole(nodes, models.RoleEntry) {
		problems = append(problems, &StructuralError{Detail: "workflow has no entry node"})
	}

	if !hasRole(nodes, models.RoleTerminal) {
		problems = append(problems, &StructuralError{Detail: "workflow has no terminal node"})
	}

	byID := make(map[string]*models.Node, len(nodes))
	dagNodes := make(map[string]models.DAGNode, len(nodes))

	for _, node := range nodes {
		byID[node.ID] = node

		if node.Data.Schema == nil {
			problems = append(problems, &ValidationError{NodeID: node.ID, Detail: "node has no type schema"})

			continue
		}

		executionType, ok := t.mapTypes(node.Type)
		if !ok {
			problems = append(problems, &ValidationError{
				NodeID: node.ID,
				Detail: fmt.Sprintf("unknown node type %q", node.Type),
			})

			continue
		}

		parameters, paramProblems := t.resolveParameters(node)
		problems = append(problems, paramProblems...)

		dagNodes[node.ID] = models.DAGNode{Type: executionType, Parameters: parameters}
	}

	dagEdges := make([]models.DAGEdge, 0, len(edges))

	for _, edge := range edges {
		source, sourceOk := byID[edge.Source]
		target, targetOk := byID[edge.Target]

		if !sourceOk || !targetOk {
			problems = append(problems, &ValidationError{
				NodeID: edge.Source,
				Detail: fmt.Sprintf("edge %s references a node outside the graph", edge.ID),
			})

			continue
		}

		output, err := resolveHandle(source, edge.SourceHandle, true)
		if err != nil {
			problems = append(problems, err)

			continue
		}

		input, err := resolveHandle(target, edge.TargetHandle, false)
		if err != nil {
			problems = append(problems, err)

			continue
		}

		dagEdges = append(dagEdges, models.DAGEdge{
			From: models.DAGEndpoint{Node: edge.Source, Output: output},
			To:   models.DAGEndpoint{Node: edge.Target, Input: input},
		})
	}

	if len(problems) > 0 {
		return nil, &Error{Problems: problems}
	}

	return &models.ExecutionDAG{Nodes: dagNodes, Edges: dagEdges}, nil
}

// resolveParameters copies a node's parameters and fills defaults for
// required ones: policy default first, then the schema's default_value.
func (t *Translator) resolveParameters(node *models.Node) (map[string]any, []error) {
	var problems []error

	resolved := node.Data.Parameters.Clone()
	if resolved == nil {
		resolved = models.Parameters{}
	}

	for _, param := range node.Data.Schema.Parameters {
		value, present := resolved[param.Name]
		if present && !value.IsEmpty() {
			continue
		}

		if !param.Required {
			continue
		}

		if fallback, ok := t.defaults(node, param); ok {
			resolved[param.Name] = fallback

			continue
		}

		if param.DefaultValue != nil {
			resolved[param.Name] = *param.DefaultValue

			continue
		}

		problems = append(problems, &MissingParameterError{NodeID: node.ID, Parameter: param.Name})
	}

	return resolved.Any(), problems
}

// resolveHandle maps a visual handle name onto the declared port name. The
// names travel verbatim; a handle with no declared port is a validation
// failure, not a silent passthrough.
func resolveHandle(node *models.Node, handle string, isOutput bool) (string, error) {
	if node.Data.Schema == nil {
		return "", &ValidationError{NodeID: node.ID, Detail: "node has no type schema"}
	}

	if isOutput {
		if _, ok := node.Data.Schema.Output(handle); ok {
			return handle, nil
		}

		return "", &ValidationError{
			NodeID: node.ID,
			Detail: fmt.Sprintf("output handle %q is not declared by type %q", handle, node.Type),
		}
	}

	if _, ok := node.Data.Schema.Input(handle); ok {
		return handle, nil
	}

	return "", &ValidationError{
		NodeID: node.ID,
		Detail: fmt.Sprintf("input handle %q is not declared by type %q", handle, node.Type),
	}
}

func hasRole(nodes []*models.Node, role models.NodeRole) bool {
	for _, node := range nodes {
		if node.Role() == role {
			return true
		}
	}

	return false
}
