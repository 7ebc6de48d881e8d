// internal/common/validation/schema.go
package validation

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// ValidationResult reports schema validation outcome with per-field errors.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (r *ValidationResult) Error() string {
	if r.Valid {
		return ""
	}
	out := "validation failed:"
	for _, e := range r.Errors {
		out += fmt.Sprintf(" %s: %s;", e.Field, e.Message)
	}
	return out
}

// submissionSchema covers the fields a credit application must carry when
// it enters the system. Financial fields are opaque strings downstream, so
// only presence and type are checked here.
var submissionSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"firstName":        map[string]interface{}{"type": "string", "minLength": 1},
		"lastName":         map[string]interface{}{"type": "string", "minLength": 1},
		"email":            map[string]interface{}{"type": "string", "minLength": 3},
		"phone":            map[string]interface{}{"type": "string", "minLength": 1},
		"annualIncome":     map[string]interface{}{"type": "string"},
		"employmentStatus": map[string]interface{}{"type": "string"},
		"employer":         map[string]interface{}{"type": "string"},
		"jobTitle":         map[string]interface{}{"type": "string"},
		"vehicleId":        map[string]interface{}{"type": "string"},
	},
	"required": []interface{}{"firstName", "lastName", "email", "phone"},
}

// ValidateSubmission checks a raw submission payload against the schema.
func ValidateSubmission(payload map[string]interface{}) (*ValidationResult, error) {
	return validate(payload, submissionSchema)
}

func validate(data map[string]interface{}, schemaMap map[string]interface{}) (*ValidationResult, error) {
	schemaLoader := gojsonschema.NewGoLoader(schemaMap)
	documentLoader := gojsonschema.NewGoLoader(data)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return nil, fmt.Errorf("schema validation error: %w", err)
	}

	out := &ValidationResult{Valid: result.Valid()}
	for _, desc := range result.Errors() {
		out.Errors = append(out.Errors, ValidationError{
			Field:   desc.Field(),
			Message: desc.Description(),
		})
	}
	return out, nil
}
