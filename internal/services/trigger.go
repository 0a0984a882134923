package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/medpal/docextract/internal/models"
)

// triggerSchema is the accepted shape of a batch trigger body.
var triggerSchema = map[string]any{
	"type":     "object",
	"required": []string{"objects"},
	"properties": map[string]any{
		"objects": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type":                 "object",
				"required":             []string{"objectKey"},
				"additionalProperties": false,
				"properties": map[string]any{
					"containerRef":   map[string]any{"type": "string"},
					"objectKey":      map[string]any{"type": "string", "minLength": 1},
					"idempotencyKey": map[string]any{"type": "string"},
				},
			},
		},
	},
}

var (
	compiledTrigger *jsonschema.Schema
	compileOnce     sync.Once
	compileErr      error
)

func triggerValidator() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		b, err := json.Marshal(triggerSchema)
		if err != nil {
			compileErr = fmt.Errorf("marshal schema: %w", err)
			return
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("trigger.json", bytes.NewReader(b)); err != nil {
			compileErr = fmt.Errorf("add schema: %w", err)
			return
		}
		compiledTrigger, compileErr = compiler.Compile("trigger.json")
	})
	return compiledTrigger, compileErr
}

// DecodeTrigger validates and decodes a batch trigger body.
func DecodeTrigger(data []byte) (models.TriggerEvent, error) {
	var event models.TriggerEvent
	schema, err := triggerValidator()
	if err != nil {
		return event, fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return event, fmt.Errorf("unmarshal trigger: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return event, fmt.Errorf("trigger does not match schema: %w", err)
	}
	if err := json.Unmarshal(data, &event); err != nil {
		return event, fmt.Errorf("unmarshal trigger: %w", err)
	}
	return event, nil
}
