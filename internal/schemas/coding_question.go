// Package schemas validates structured intake payloads against JSON Schemas.
package schemas

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const codingQuestionSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "title": "CodingQuestion",
  "type": "object",
  "required": ["title", "test_cases"],
  "properties": {
    "title": {"type": "string", "minLength": 1},
    "description": {"type": "string"},
    "constraints": {"type": "string"},
    "difficulty": {"enum": ["easy", "medium", "hard", ""]},
    "tags": {"type": "array", "items": {"type": "string"}},
    "time_limit_ms": {"type": "integer", "exclusiveMinimum": 0},
    "memory_limit_kb": {"type": "integer", "exclusiveMinimum": 0},
    "test_cases": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["output"],
        "properties": {
          "input": {"type": "string"},
          "output": {"type": "string", "minLength": 1},
          "type": {"enum": ["public", "private", ""]}
        }
      }
    }
  }
}`

var (
	compileOnce    sync.Once
	compiledSchema *jsonschema.Schema
	compileErr     error
)

func schema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("coding_question.schema.json", bytes.NewReader([]byte(codingQuestionSchema))); err != nil {
			compileErr = err
			return
		}
		compiledSchema, compileErr = compiler.Compile("coding_question.schema.json")
	})
	return compiledSchema, compileErr
}

// ValidateCodingQuestion checks one coding-question intake payload against the
// schema. The payload may be any JSON-marshalable value.
func ValidateCodingQuestion(payload interface{}) error {
	s, err := schema()
	if err != nil {
		return fmt.Errorf("compile coding question schema: %w", err)
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal coding question: %w", err)
	}

	var doc interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return err
	}

	return s.Validate(doc)
}
