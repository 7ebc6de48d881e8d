// internal/common/validation/schema_test.go
package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateSubmission(t *testing.T) {
	tests := []struct {
		name    string
		payload map[string]interface{}
		valid   bool
	}{
		{
			name: "complete submission",
			payload: map[string]interface{}{
				"firstName": "Dana", "lastName": "Reyes",
				"email": "dana@example.com", "phone": "+15550100",
				"annualIncome": "82000", "vehicleId": "1",
			},
			valid: true,
		},
		{
			name: "minimal submission",
			payload: map[string]interface{}{
				"firstName": "D", "lastName": "R",
				"email": "d@e", "phone": "1",
			},
			valid: true,
		},
		{
			name: "missing email",
			payload: map[string]interface{}{
				"firstName": "Dana", "lastName": "Reyes", "phone": "+15550100",
			},
			valid: false,
		},
		{
			name: "empty firstName",
			payload: map[string]interface{}{
				"firstName": "", "lastName": "Reyes",
				"email": "dana@example.com", "phone": "+15550100",
			},
			valid: false,
		},
		{
			name: "wrong type for income",
			payload: map[string]interface{}{
				"firstName": "Dana", "lastName": "Reyes",
				"email": "dana@example.com", "phone": "+15550100",
				"annualIncome": 82000,
			},
			valid: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ValidateSubmission(tt.payload)
			require.NoError(t, err)
			assert.Equal(t, tt.valid, result.Valid)
			if !tt.valid {
				assert.NotEmpty(t, result.Errors)
				assert.NotEmpty(t, result.Error())
			}
		})
	}
}
