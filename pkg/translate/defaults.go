package translate

import "github.com/flowplane/flowplane/pkg/models"

// Canonical parameter defaults applied by policy before the schema's own
// default_value is consulted.
const (
	// EntrySeedValue seeds the entry node's query parameter so a freshly
	// dropped workflow can run without configuration.
	EntrySeedValue = "Hi there!"

	// DefaultService is the provider selected when a service selector is
	// left unset.
	DefaultService = "openai"
)

// DefaultPolicy supplies a value for a required parameter the user left
// empty. It is consulted before the schema's declared default_value.
type DefaultPolicy func(node *models.Node, param models.ParameterDef) (models.Value, bool)

// StandardDefaults is the built-in policy: the entry-role "query" parameter
// gets the literal seed value, and any "service" selector gets the default
// provider.
func StandardDefaults(node *models.Node, param models.ParameterDef) (models.Value, bool) {
	if node.Role() == models.RoleEntry && param.Name == "query" {
		return models.String(EntrySeedValue), true
	}

	if param.Name == "service" {
		return models.String(DefaultService), true
	}

	return models.Value{}, false
}
