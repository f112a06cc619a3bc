package report

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// DocumentSchema is the JSON schema every report document satisfies.
const DocumentSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["label", "components", "component_order"],
  "properties": {
    "label": {"type": "string"},
    "launch_time": {"type": "string"},
    "commands": {"type": "array", "items": {"type": "array", "items": {"type": "string"}}},
    "metadata": {"type": "object"},
    "component_order": {"type": "array", "items": {"type": "string"}},
    "components": {
      "type": "object",
      "additionalProperties": {"$ref": "#/definitions/component"}
    }
  },
  "definitions": {
    "component": {
      "type": "object",
      "required": ["name", "unit", "unit_value", "rule", "graph"],
      "properties": {
        "name": {"type": "string", "minLength": 1},
        "unit": {"type": "string"},
        "unit_value": {"type": "number", "exclusiveMinimum": 0},
        "rule": {"enum": ["sum", "max", "min"]},
        "kind": {"enum": ["int", "float"]},
        "threads": {"type": "integer", "minimum": 0},
        "records": {"type": "integer", "minimum": 0},
        "graph": {"type": "array", "items": {"$ref": "#/definitions/node"}},
        "flat": {"type": "array", "items": {"$ref": "#/definitions/node"}},
        "timeline": {"type": "array", "items": {"$ref": "#/definitions/event"}}
      }
    },
    "node": {
      "type": "object",
      "required": ["prefix", "key", "depth", "count", "sum", "min", "max"],
      "properties": {
        "prefix": {"type": "string"},
        "key": {"type": "string"},
        "depth": {"type": "integer", "minimum": 0},
        "count": {"type": "integer", "minimum": 0},
        "sum": {"type": "number"},
        "min": {"type": "number"},
        "max": {"type": "number"}
      }
    },
    "event": {
      "type": "object",
      "required": ["seq", "thread", "key", "value"],
      "properties": {
        "seq": {"type": "integer", "minimum": 1},
        "thread": {"type": "integer", "minimum": 0},
        "key": {"type": "string"},
        "value": {"type": "number"}
      }
    }
  }
}`

var (
	compileOnce    sync.Once
	compiledSchema *jsonschema.Schema
	compileErr     error
)

func documentSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("report.json", strings.NewReader(DocumentSchema)); err != nil {
			compileErr = fmt.Errorf("invalid schema: %w", err)
			return
		}
		compiledSchema, compileErr = compiler.Compile("report.json")
	})
	return compiledSchema, compileErr
}

// Validate checks a serialized document against DocumentSchema.
func Validate(data []byte) error {
	schema, err := documentSchema()
	if err != nil {
		return err
	}

	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("report does not match schema: %w", err)
	}
	return nil
}
