package server

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

const solveSchema = `{
	"type": "object",
	"required": ["question", "options"],
	"properties": {
		"courseId": {"type": "string"},
		"quizId": {"type": "string"},
		"question": {"type": "string", "minLength": 1},
		"options": {
			"type": "array",
			"minItems": 1,
			"maxItems": 26,
			"items": {"type": "string"}
		},
		"type": {"enum": ["single", "multiple"]}
	},
	"additionalProperties": false
}`

const wrongAnswerSchema = `{
	"type": "object",
	"required": ["courseId", "quizId"],
	"properties": {
		"courseId": {"type": "string", "minLength": 1},
		"quizId": {"type": "string", "minLength": 1},
		"question": {"type": "string"},
		"questionSig": {"type": "string", "pattern": "^-?[0-9]+$"},
		"option": {"type": "string"},
		"optionSig": {"type": "string", "pattern": "^-?[0-9]+$"}
	},
	"allOf": [
		{"anyOf": [{"required": ["question"]}, {"required": ["questionSig"]}]},
		{"anyOf": [{"required": ["option"]}, {"required": ["optionSig"]}]}
	],
	"additionalProperties": false
}`

func compileSchema(name, src string) (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("parse schema %s: %w", name, err)
	}
	c := jsonschema.NewCompiler()
	url := fmt.Sprintf("schema://%s.json", name)
	if err := c.AddResource(url, doc); err != nil {
		return nil, fmt.Errorf("add schema %s: %w", name, err)
	}
	return c.Compile(url)
}

// validate checks a raw JSON body against schema.
func validate(schema *jsonschema.Schema, body []byte) error {
	v, err := jsonschema.UnmarshalJSON(bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return schema.Validate(v)
}
