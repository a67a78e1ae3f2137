package catalog

import "github.com/flowplane/flowplane/pkg/models"

func ptr[T any](v T) *T { return &v }

// RegisterBuiltinSchemas installs the node types every deployment ships
// with. Server-declared types fetched from the catalogue endpoint layer on
// top of these.
func (r *Registry) RegisterBuiltinSchemas() {
	r.Register(QuerySchema(), "query_node")
	r.Register(ResponseSchema(), "response_node")
	r.Register(AgentSchema(), "agent_node")
	r.Register(PromptSchema(), "prompt_node")
	r.Register(KnowledgeBaseSchema(), "knowledge_base_node")
	r.Register(HTTPToolSchema(), "http_tool_node")
}

// QuerySchema is the unique entry-role node: the seed input of a run.
func QuerySchema() *models.NodeTypeSchema {
	return &models.NodeTypeSchema{
		ID:          "query",
		Name:        "Query",
		Description: "Entry point carrying the user's query into the workflow",
		Role:        models.RoleEntry,
		Outputs: []models.OutputDef{
			{Name: "query", DataType: "string", Description: "The query text"},
		},
		Parameters: []models.ParameterDef{
			{Name: "query", Label: "Query", Type: "string", Required: true},
		},
		UIConfig: &models.UISchema{
			Groups: []models.UIGroup{
				{
					Title: "Input",
					Components: []models.UIComponent{
						{
							Name:        "query",
							Type:        models.ComponentTextarea,
							Label:       "Query",
							Placeholder: "What should the workflow answer?",
							Constraints: models.Constraints{Required: true, MaxLength: ptr(4000)},
						},
					},
				},
			},
		},
	}
}

// ResponseSchema is the unique terminal-role node: the run's observable
// output.
func ResponseSchema() *models.NodeTypeSchema {
	return &models.NodeTypeSchema{
		ID:          "response",
		Name:        "Response",
		Description: "Terminal node collecting the workflow's answer",
		Role:        models.RoleTerminal,
		Inputs: []models.InputDef{
			{Name: "input", DataType: "any", Required: true, Multiple: true},
		},
		UIConfig: &models.UISchema{
			Groups: []models.UIGroup{
				{
					Components: []models.UIComponent{
						{
							Name:  "note",
							Type:  models.ComponentLabel,
							Label: "Collects every branch routed into it.",
						},
					},
				},
			},
		},
	}
}

// AgentSchema is the LLM worker node. Its model list depends on the chosen
// service, fetched from the dynamic option endpoint.
func AgentSchema() *models.NodeTypeSchema {
	return &models.NodeTypeSchema{
		ID:          "agent",
		Name:        "Agent",
		Description: "Calls a language model with the incoming context",
		Inputs: []models.InputDef{
			{Name: "input", DataType: "string", Required: true},
			{Name: "context", DataType: "document", Multiple: true},
		},
		Outputs: []models.OutputDef{
			{Name: "output", DataType: "string"},
		},
		Parameters: []models.ParameterDef{
			{Name: "service", Label: "Service", Type: "string", Required: true, Options: []string{"openai", "groq", "anthropic"}},
			{Name: "model", Label: "Model", Type: "string", Required: true},
			{Name: "system_prompt", Label: "System prompt", Type: "string"},
			{Name: "temperature", Label: "Temperature", Type: "number", DefaultValue: ptr(models.Number(0.7))},
		},
		ParamSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"service":       map[string]any{"type": "string"},
				"model":         map[string]any{"type": "string"},
				"system_prompt": map[string]any{"type": "string"},
				"temperature":   map[string]any{"type": "number", "minimum": 0, "maximum": 2},
			},
		},
		UIConfig: &models.UISchema{
			Groups: []models.UIGroup{
				{
					Title: "Model",
					Components: []models.UIComponent{
						{
							Name:         "service",
							Type:         models.ComponentSelect,
							Label:        "Service",
							Options:      []string{"openai", "groq", "anthropic"},
							DefaultValue: ptr(models.String("openai")),
							Constraints:  models.Constraints{Required: true},
						},
						{
							Name:           "model",
							Type:           models.ComponentSelect,
							Label:          "Model",
							Constraints:    models.Constraints{Required: true},
							DynamicOptions: &models.DynamicOptions{Endpoint: "models", DependsOn: "service"},
						},
					},
				},
				{
					Title: "Behavior",
					Components: []models.UIComponent{
						{
							Name:        "system_prompt",
							Type:        models.ComponentTextarea,
							Label:       "System prompt",
							Constraints: models.Constraints{MaxLength: ptr(8000)},
						},
						{
							Name:         "temperature",
							Type:         models.ComponentSlider,
							Label:        "Temperature",
							DefaultValue: ptr(models.Number(0.7)),
							Constraints:  models.Constraints{Min: ptr(0.0), Max: ptr(2.0)},
						},
					},
				},
			},
		},
	}
}

// PromptSchema renders a template over upstream values.
func PromptSchema() *models.NodeTypeSchema {
	return &models.NodeTypeSchema{
		ID:          "prompt",
		Name:        "Prompt",
		Description: "Builds a prompt from a template and upstream values",
		Inputs: []models.InputDef{
			{Name: "variables", DataType: "map", Multiple: true},
		},
		Outputs: []models.OutputDef{
			{Name: "prompt", DataType: "string"},
		},
		Parameters: []models.ParameterDef{
			{Name: "template", Label: "Template", Type: "string", Required: true},
		},
		UIConfig: &models.UISchema{
			Groups: []models.UIGroup{
				{
					Components: []models.UIComponent{
						{
							Name:        "template",
							Type:        models.ComponentTextarea,
							Label:       "Template",
							Placeholder: "Summarize {input} in one paragraph",
							Constraints: models.Constraints{Required: true},
						},
					},
				},
			},
		},
	}
}

// KnowledgeBaseSchema retrieves documents for a query.
func KnowledgeBaseSchema() *models.NodeTypeSchema {
	return &models.NodeTypeSchema{
		ID:          "knowledge-base",
		Name:        "Knowledge Base",
		Description: "Retrieves relevant documents from an uploaded corpus",
		Inputs: []models.InputDef{
			{Name: "query", DataType: "string", Required: true},
		},
		Outputs: []models.OutputDef{
			{Name: "documents", DataType: "document"},
		},
		Parameters: []models.ParameterDef{
			{Name: "corpus", Label: "Corpus", Type: "file", Required: true},
			{Name: "top_k", Label: "Results", Type: "number", DefaultValue: ptr(models.Number(4))},
		},
		UIConfig: &models.UISchema{
			Groups: []models.UIGroup{
				{
					Components: []models.UIComponent{
						{
							Name:        "corpus",
							Type:        models.ComponentFile,
							Label:       "Corpus",
							Constraints: models.Constraints{Required: true},
						},
						{
							Name:         "top_k",
							Type:         models.ComponentNumber,
							Label:        "Results",
							DefaultValue: ptr(models.Number(4)),
							Constraints:  models.Constraints{Min: ptr(1.0), Max: ptr(20.0)},
						},
					},
				},
			},
		},
	}
}

// HTTPToolSchema calls an external HTTP endpoint during a run.
func HTTPToolSchema() *models.NodeTypeSchema {
	return &models.NodeTypeSchema{
		ID:          "http-tool",
		Name:        "HTTP Tool",
		Description: "Calls an HTTP endpoint and forwards the response",
		Inputs: []models.InputDef{
			{Name: "input", DataType: "any"},
		},
		Outputs: []models.OutputDef{
			{Name: "response", DataType: "any"},
		},
		Parameters: []models.ParameterDef{
			{Name: "url", Label: "URL", Type: "string", Required: true},
			{Name: "method", Label: "Method", Type: "string", DefaultValue: ptr(models.String("GET")), Options: []string{"GET", "POST", "PUT", "DELETE"}},
		},
		UIConfig: &models.UISchema{
			Groups: []models.UIGroup{
				{
					Components: []models.UIComponent{
						{
							Name:        "url",
							Type:        models.ComponentText,
							Label:       "URL",
							Placeholder: "https://api.example.com/search",
							Constraints: models.Constraints{Required: true, Pattern: `^https?://`},
						},
						{
							Name:         "method",
							Type:         models.ComponentRadio,
							Label:        "Method",
							Options:      []string{"GET", "POST", "PUT", "DELETE"},
							DefaultValue: ptr(models.String("GET")),
						},
					},
				},
			},
		},
	}
}
