package uiengine

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/flowplane/flowplane/pkg/models"
)

// Issue names a single field problem in a configuration form.
type Issue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError blocks a save and names every offending field.
type ValidationError struct {
	Issues []Issue
}

func (e *ValidationError) Error() string {
	details := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		details = append(details, issue.Field+": "+issue.Message)
	}

	return "configuration is invalid: " + strings.Join(details, "; ")
}

// fieldIssues evaluates a component's constraints against a value. These
// are advisory while editing and enforced at save. The required rule is
// handled separately because presentational components never carry it.
func fieldIssues(component models.UIComponent, value models.Value, present bool) []Issue {
	var issues []Issue

	constraints := component.Constraints

	if !present || value.IsEmpty() {
		return issues
	}

	if value.Kind == models.KindString {
		if constraints.MaxLength != nil && len(value.Str) > *constraints.MaxLength {
			issues = append(issues, Issue{
				Field:   component.Name,
				Message: fmt.Sprintf("must be at most %d characters", *constraints.MaxLength),
			})
		}

		if constraints.Pattern != "" {
			re, err := regexp.Compile(constraints.Pattern)
			if err == nil && !re.MatchString(value.Str) {
				issues = append(issues, Issue{
					Field:   component.Name,
					Message: "does not match the expected format",
				})
			}
		}
	}

	if value.Kind == models.KindNumber {
		if constraints.Min != nil && value.Num < *constraints.Min {
			issues = append(issues, Issue{
				Field:   component.Name,
				Message: fmt.Sprintf("must be at least %v", *constraints.Min),
			})
		}

		if constraints.Max != nil && value.Num > *constraints.Max {
			issues = append(issues, Issue{
				Field:   component.Name,
				Message: fmt.Sprintf("must be at most %v", *constraints.Max),
			})
		}
	}

	return issues
}

// validateAll runs the save-time validation pass: required components must
// have a value, constraint violations block, and when the node type carries
// a parameter JSON Schema the whole draft is validated against it.
func validateAll(schema *models.UISchema, paramSchema map[string]any, draft models.Parameters) []Issue {
	var issues []Issue

	for _, group := range schema.Groups {
		for _, component := range group.Components {
			if !component.Type.IsInput() {
				continue
			}

			value, present := draft[component.Name]

			if component.Constraints.Required && (!present || value.IsEmpty()) {
				issues = append(issues, Issue{Field: component.Name, Message: "is required"})

				continue
			}

			issues = append(issues, fieldIssues(component, value, present)...)
		}
	}

	if paramSchema != nil {
		issues = append(issues, schemaIssues(paramSchema, draft)...)
	}

	return issues
}

// schemaIssues validates the draft against the node type's JSON Schema. A
// schema that itself fails to compile is reported as a single issue rather
// than a crash: the schema is server-declared but only partially trusted.
func schemaIssues(paramSchema map[string]any, draft models.Parameters) []Issue {
	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(paramSchema),
		gojsonschema.NewGoLoader(draft.Any()),
	)
	if err != nil {
		return []Issue{{Field: "", Message: "parameter schema could not be evaluated: " + err.Error()}}
	}

	if result.Valid() {
		return nil
	}

	issues := make([]Issue, 0, len(result.Errors()))
	for _, resultErr := range result.Errors() {
		issues = append(issues, Issue{Field: resultErr.Field(), Message: resultErr.Description()})
	}

	return issues
}
