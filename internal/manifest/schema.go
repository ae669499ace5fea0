package manifest

import (
	"fmt"
	"strings"
	"sync"

	"github.com/ekoatlas/data-api/internal/models"
	"github.com/xeipuuv/gojsonschema"
)

// documentSchema is the JSON Schema every manifest document satisfies.
const documentSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "title": "section manifest",
  "type": "object",
  "propertyNames": {
    "pattern": "^[^:]+:[^:]+:[^:]+:[^:]+:[^:]+$"
  },
  "additionalProperties": {
    "type": "object",
    "required": ["file"],
    "properties": {
      "file": {"type": "string", "minLength": 1},
      "root": {"type": "string"},
      "cityKeys": {
        "type": "array",
        "items": {"type": "string", "minLength": 1}
      }
    },
    "additionalProperties": false
  }
}`

var compiledSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewStringLoader(documentSchema))
})

// FieldError is a single schema violation.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError lists every violation found in a manifest document.
type ValidationError struct {
	Errors []FieldError
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString("manifest validation failed:")
	for i, err := range ve.Errors {
		sb.WriteString(fmt.Sprintf(" %d. %s: %s;", i+1, err.Field, err.Message))
	}
	return strings.TrimSuffix(sb.String(), ";")
}

// Unwrap classifies schema violations as an invalid manifest.
func (ve *ValidationError) Unwrap() error {
	return models.ErrManifestInvalid
}

// Validate checks a raw manifest document against the manifest schema.
func Validate(raw []byte) error {
	schema, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("failed to compile manifest schema: %w", err)
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrManifestInvalid, err)
	}
	if result.Valid() {
		return nil
	}

	validationErr := &ValidationError{
		Errors: make([]FieldError, 0, len(result.Errors())),
	}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		validationErr.Errors = append(validationErr.Errors, FieldError{
			Field:   field,
			Message: desc.Description(),
		})
	}
	return validationErr
}
