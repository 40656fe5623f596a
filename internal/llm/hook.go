package llm

import (
	"context"
	"encoding/json"
)

// PromptHook observes prompts and raw responses, e.g. for trace logging.
type PromptHook interface {
	Before(ctx context.Context, op, prompt string)
	After(ctx context.Context, op string, raw json.RawMessage, err error)
}

type ctxKeyHook struct{}
type ctxKeyOp struct{}

// WithHook wraps a client so that hook observes every GenerateJSON call.
func WithHook(base Client, hook PromptHook) Client {
	return &hooked{base: base, hook: hook}
}

type hooked struct {
	base Client
	hook PromptHook
}

func (h *hooked) Name() string { return h.base.Name() }
func (h *hooked) Close() error { return h.base.Close() }

func (h *hooked) GenerateJSON(ctx context.Context, prompt string, parts []Part, schema *Schema) (json.RawMessage, error) {
	ctx = context.WithValue(ctx, ctxKeyHook{}, h.hook)
	return h.base.GenerateJSON(ctx, prompt, parts, schema)
}

func (h *hooked) GenerateText(ctx context.Context, prompt string) (string, error) {
	ctx = context.WithValue(ctx, ctxKeyHook{}, h.hook)
	return h.base.GenerateText(ctx, prompt)
}

// WithOp tags the context with an operation name ("generate", "refine", ...).
func WithOp(ctx context.Context, op string) context.Context {
	return context.WithValue(ctx, ctxKeyOp{}, op)
}

func HookFrom(ctx context.Context) PromptHook {
	if h, ok := ctx.Value(ctxKeyHook{}).(PromptHook); ok {
		return h
	}
	return nil
}

func OpFrom(ctx context.Context) string {
	if s, ok := ctx.Value(ctxKeyOp{}).(string); ok {
		return s
	}
	return "unknown"
}
