// internal/workers/matching/rank-applicants/validation.go
package rankapplicants

import (
	"encoding/json"
	"strings"

	"talentmatch-workers/internal/common/validation"
)

var inputSchema = map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"postingId"},
	"properties": map[string]interface{}{
		"postingId": map[string]interface{}{
			"type":      "string",
			"minLength": 1,
		},
		"trigger": map[string]interface{}{
			"type": "string",
			"enum": []interface{}{"manual", "scheduled"},
		},
	},
}

// validateVariables checks the raw job variables against the input schema
// before they are bound to the typed Input.
func validateVariables(variables string) (string, bool) {
	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(variables), &raw); err != nil {
		return "job variables are not a JSON object", false
	}

	result, err := validation.ValidateInput(raw, inputSchema)
	if err != nil {
		return err.Error(), false
	}
	if !result.Valid {
		return strings.Join(result.GetErrorMessages(), "; "), false
	}

	return "", true
}
