package backend

import (
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const exerciseEnvelopeSchema = `{
	"type": "object",
	"required": ["success"],
	"properties": {
		"success": {"type": "boolean"},
		"error": {"type": ["string", "null"]},
		"exercise": {
			"type": "object",
			"properties": {
				"title": {"type": ["string", "null"]},
				"description": {"type": ["string", "null"]},
				"hint": {"type": ["string", "null"]},
				"example": {"type": ["string", "null"]}
			}
		}
	},
	"if": {"properties": {"success": {"const": true}}},
	"then": {"required": ["exercise"]}
}`

const checkEnvelopeSchema = `{
	"type": "object",
	"required": ["success"],
	"properties": {
		"success": {"type": "boolean"},
		"error": {"type": ["string", "null"]},
		"result": {
			"type": "object",
			"required": ["passed", "tests"],
			"properties": {
				"passed": {"type": "boolean"},
				"message": {"type": ["string", "null"]},
				"hint": {"type": ["string", "null"]},
				"tests": {
					"type": "array",
					"items": {
						"type": "object",
						"required": ["passed"],
						"properties": {
							"passed": {"type": "boolean"},
							"description": {"type": ["string", "null"]},
							"message": {"type": ["string", "null"]}
						}
					}
				}
			}
		}
	},
	"if": {"properties": {"success": {"const": true}}},
	"then": {"required": ["result"]}
}`

const healthSchema = `{
	"type": "object",
	"required": ["status"],
	"properties": {
		"status": {"type": "string"},
		"message": {"type": "string"}
	}
}`

type envelopeSchemas struct {
	exercise *jsonschema.Schema
	check    *jsonschema.Schema
	health   *jsonschema.Schema
}

func compileSchemas() (*envelopeSchemas, error) {
	exercise, err := jsonschema.CompileString("exercise_envelope.json", exerciseEnvelopeSchema)
	if err != nil {
		return nil, fmt.Errorf("failed to compile exercise schema: %w", err)
	}
	check, err := jsonschema.CompileString("check_envelope.json", checkEnvelopeSchema)
	if err != nil {
		return nil, fmt.Errorf("failed to compile check schema: %w", err)
	}
	health, err := jsonschema.CompileString("health.json", healthSchema)
	if err != nil {
		return nil, fmt.Errorf("failed to compile health schema: %w", err)
	}
	return &envelopeSchemas{exercise: exercise, check: check, health: health}, nil
}
