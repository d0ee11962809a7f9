package screen

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schema/screen.schema.json
var screenSchema string

const schemaURL = "https://sdui.schemas.local/screen.schema.json"

// Validator checks raw payloads against the screen schema before decoding.
type Validator struct {
	envelope *jsonschema.Schema
	list     *jsonschema.Schema
}

// NewValidator compiles the embedded schema.
func NewValidator() (*Validator, error) {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	if err := c.AddResource(schemaURL, strings.NewReader(screenSchema)); err != nil {
		return nil, fmt.Errorf("failed to load screen schema: %w", err)
	}

	envelope, err := c.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("failed to compile screen schema: %w", err)
	}
	list, err := c.Compile(schemaURL + "#/$defs/renderList")
	if err != nil {
		return nil, fmt.Errorf("failed to compile render list schema: %w", err)
	}

	return &Validator{envelope: envelope, list: list}, nil
}

// Validate checks a screen envelope.
func (v *Validator) Validate(data []byte) error {
	return validate(v.envelope, data)
}

// ValidateList checks a bare list of component or section descriptors.
func (v *Validator) ValidateList(data []byte) error {
	return validate(v.list, data)
}

func validate(schema *jsonschema.Schema, data []byte) error {
	doc, err := decodeDocument(data)
	if err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}

// decodeDocument decodes data the way the schema validator expects: numbers
// stay json.Number and trailing content is an error.
func decodeDocument(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, fmt.Errorf("unexpected content after document")
	}
	return doc, nil
}
