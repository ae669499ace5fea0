package manifest

import (
	"testing"

	"github.com/ekoatlas/data-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		doc   string
		valid bool
	}{
		{"empty", `{}`, true},
		{"file only", `{"CrSt:CrSt:a:1:2019":{"file":"repo/source/a.json"}}`, true},
		{"with hints", `{"CrSt:CrSt:a:1:2019":{"file":"f","root":"data","cityKeys":["il"]}}`, true},
		{"missing file", `{"CrSt:CrSt:a:1:2019":{"root":"data"}}`, false},
		{"empty file", `{"CrSt:CrSt:a:1:2019":{"file":""}}`, false},
		{"bad key", `{"CrSt:a:1:2019":{"file":"f"}}`, false},
		{"unknown field", `{"CrSt:CrSt:a:1:2019":{"file":"f","extra":1}}`, false},
		{"city keys not strings", `{"CrSt:CrSt:a:1:2019":{"file":"f","cityKeys":[1]}}`, false},
		{"not an object", `[]`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate([]byte(tt.doc))
			if tt.valid {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, models.ErrManifestInvalid)
		})
	}
}

func TestValidationError_Message(t *testing.T) {
	err := Validate([]byte(`{"CrSt:CrSt:a:1:2019":{"root":"data"}}`))

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	require.NotEmpty(t, ve.Errors)
	assert.Contains(t, err.Error(), "manifest validation failed")
	assert.Contains(t, err.Error(), "file")
}
