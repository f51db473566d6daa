package jsonrpc

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const responseSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["jsonrpc", "id"],
  "properties": {
    "jsonrpc": {"const": "2.0"},
    "id": {"type": ["string", "integer", "null"]},
    "error": {
      "type": "object",
      "required": ["code", "message"],
      "properties": {
        "code": {"type": "integer"},
        "message": {"type": "string"}
      }
    }
  },
  "anyOf": [
    {"required": ["result"]},
    {"required": ["error"]}
  ]
}`

var responseSchema = jsonschema.MustCompileString("jsonrpc-response.json", responseSchemaJSON)

// ValidateResponse checks raw against the JSON-RPC 2.0 response shape.
func ValidateResponse(raw []byte) error {
	if len(raw) == 0 {
		return fmt.Errorf("empty response body")
	}
	var doc interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("parse json: %w", err)
	}
	if err := responseSchema.Validate(doc); err != nil {
		return fmt.Errorf("response does not match jsonrpc 2.0: %w", err)
	}
	return nil
}
