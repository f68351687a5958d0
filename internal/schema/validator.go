// Package schema generates and enforces the JSON Schema of structured
// transcripts.
package schema

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
	validator "github.com/santhosh-tekuri/jsonschema/v5"

	"clinical-transcript-service/internal/models"
)

const (
	draft2020 = "https://json-schema.org/draft/2020-12/schema"
	schemaURL = "structured-transcript.schema.json"
)

// Validator checks structured transcripts against their JSON Schema.
type Validator struct {
	raw    []byte
	schema *validator.Schema
}

// New builds the structured transcript schema and compiles it.
func New() (*Validator, error) {
	raw, err := StructuredTranscriptSchema()
	if err != nil {
		return nil, err
	}

	compiled, err := validator.CompileString(schemaURL, string(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}

	return &Validator{raw: raw, schema: compiled}, nil
}

// StructuredTranscriptSchema returns the JSON Schema for an array of
// utterance records, reflected from models.Utterance.
func StructuredTranscriptSchema() ([]byte, error) {
	r := &jsonschema.Reflector{
		Anonymous:      true,
		DoNotReference: true,
		ExpandedStruct: true,
	}
	item := r.Reflect(&models.Utterance{})
	item.Version = ""

	itemJSON, err := json.Marshal(item)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal utterance schema: %w", err)
	}

	doc := map[string]any{
		"$schema":     draft2020,
		"title":       "Structured transcript",
		"description": "Transcript lines in original order, each attributed to Doctor or Patient",
		"type":        "array",
		"items":       json.RawMessage(itemJSON),
	}
	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	return out, nil
}

// Schema returns the raw schema document.
func (v *Validator) Schema() []byte {
	return v.raw
}

// Validate checks a structured transcript value.
func (v *Validator) Validate(st models.StructuredTranscript) error {
	payload, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("failed to marshal transcript: %w", err)
	}
	return v.ValidateJSON(payload)
}

// ValidateJSON checks a JSON document against the schema.
func (v *Validator) ValidateJSON(payload []byte) error {
	var doc any
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if err := v.schema.Validate(doc); err != nil {
		return fmt.Errorf("structured transcript does not match schema: %w", err)
	}
	return nil
}
