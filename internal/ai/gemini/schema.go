package gemini

import (
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// responseSchema describes the answer the prompt asks for. The model may drift
// from it; coercion in parseResponse decides what is accepted.
const responseSchema = `{
  "type": "object",
  "required": ["score", "missing_keywords", "summary"],
  "properties": {
    "score": {"type": "integer", "minimum": 0, "maximum": 100},
    "missing_keywords": {
      "type": "array",
      "maxItems": 5,
      "items": {"type": "string", "minLength": 1}
    },
    "summary": {"type": "string"}
  }
}`

var compiledSchema = jsonschema.MustCompileString("response.json", responseSchema)

// checkSchema reports how the decoded response deviates from responseSchema.
func checkSchema(data map[string]any) error {
	return compiledSchema.Validate(data)
}
