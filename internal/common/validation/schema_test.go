package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const patchSchema = `{
	"type": "object",
	"properties": {
		"fullName": {"type": "string", "maxLength": 5},
		"topSkills": {"type": "array", "maxItems": 2},
		"commitmentAgreed": {"type": "boolean"}
	},
	"required": ["fullName"],
	"additionalProperties": false
}`

func TestSchema_Validate(t *testing.T) {
	schema := MustCompile(patchSchema)

	tests := []struct {
		name      string
		doc       map[string]interface{}
		wantValid bool
		wantField string
	}{
		{"valid", map[string]interface{}{"fullName": "Abebe"}, true, ""},
		{"missing required", map[string]interface{}{"commitmentAgreed": true}, false, "fullName"},
		{"wrong type", map[string]interface{}{"fullName": "A", "commitmentAgreed": "yes"}, false, "commitmentAgreed"},
		{"too many items", map[string]interface{}{"fullName": "A", "topSkills": []string{"a", "b", "c"}}, false, "topSkills"},
		{"too long", map[string]interface{}{"fullName": "Abebe Kebede"}, false, "fullName"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := schema.Validate(tt.doc)
			require.NoError(t, err)
			assert.Equal(t, tt.wantValid, result.Valid)
			if tt.wantField != "" {
				assert.True(t, result.HasErrors(tt.wantField), result.GetErrorMessages())
				assert.Contains(t, result.FieldErrors(), tt.wantField)
			}
		})
	}
}

func TestCompile_RejectsBrokenSchema(t *testing.T) {
	_, err := Compile(`{"type": 12}`)
	assert.Error(t, err)
}

func TestValidateEmail(t *testing.T) {
	assert.True(t, ValidateEmail("a@b.co"))
	assert.True(t, ValidateEmail("first.last+tag@sub.example.et"))
	assert.False(t, ValidateEmail("a@b"))
	assert.False(t, ValidateEmail("a b@c.d"))
	assert.False(t, ValidateEmail(""))
}

func TestValidateURL(t *testing.T) {
	assert.True(t, ValidateURL("https://linkedin.com/in/abebe"))
	assert.False(t, ValidateURL("linkedin.com/in/abebe"))
}
