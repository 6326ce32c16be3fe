package calculator

import (
	_ "embed"
	"encoding/json"
	"strings"

	"calc-backend/internal/images"
)

const variablesPlaceholder = "{{VARIABLES}}"

//go:embed prompts/analyze_v1.txt
var promptV1 string

// BuildPrompt renders the analysis prompt with vars serialized as a JSON object.
func BuildPrompt(vars images.Vars) string {
	return strings.Replace(strings.TrimSpace(promptV1), variablesPlaceholder, serializeVars(vars), 1)
}

func serializeVars(vars images.Vars) string {
	if len(vars) == 0 {
		return "{}"
	}
	raw, err := json.Marshal(vars)
	if err != nil {
		return "{}"
	}
	return string(raw)
}
