package llm

import (
	"context"
	"encoding/json"
)

// FakeClient returns deterministic payloads for offline runs and tests.
// When the requested schema nests an updatedTicket object it answers the
// refinement shape, otherwise the four-field ticket shape.
type FakeClient struct{}

func NewFakeClient() *FakeClient { return &FakeClient{} }

func (f *FakeClient) Name() string { return "FakeLLM" }
func (f *FakeClient) Close() error { return nil }

func (f *FakeClient) GenerateJSON(_ context.Context, _ string, _ []Part, schema *Schema) (json.RawMessage, error) {
	ticket := map[string]any{
		"title":           "Fake ticket",
		"type":            "Feature",
		"coreContent":     "## Overview\nFake content.",
		"missingElements": "1. Fake consideration.",
	}
	var obj any = ticket
	if schema != nil {
		if _, ok := schema.Properties["updatedTicket"]; ok {
			obj = map[string]any{
				"updatedTicket": ticket,
				"message":       "Fake answer.",
			}
		}
	}
	b, _ := json.Marshal(obj)
	return json.RawMessage(b), nil
}

func (f *FakeClient) GenerateText(_ context.Context, _ string) (string, error) {
	return "Fake refined text.", nil
}
