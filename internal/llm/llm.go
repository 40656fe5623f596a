package llm

import (
	"context"
	"encoding/json"
	"errors"
)

var ErrInvalidJSON = errors.New("llm: invalid JSON from model")

// Part is an inline media attachment sent alongside the prompt text.
type Part struct {
	MIMEType string
	Data     []byte
}

// Schema is a provider-neutral response schema. Type is "object" or
// "string"; object schemas carry Properties and Required.
type Schema struct {
	Type        string
	Description string
	Properties  map[string]*Schema
	Required    []string
}

type Client interface {
	Name() string
	// GenerateJSON requests a JSON-shaped response constrained to schema.
	// Parts are attached in order after the prompt text.
	GenerateJSON(ctx context.Context, prompt string, parts []Part, schema *Schema) (json.RawMessage, error)
	// GenerateText requests a plain-text response.
	GenerateText(ctx context.Context, prompt string) (string, error)
	Close() error
}
