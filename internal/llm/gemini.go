package llm

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"strconv"
	"time"

	genai "google.golang.org/genai"
)

// GeminiClient is a thin wrapper around the official genai client.
type GeminiClient struct {
	cli   *genai.Client
	model string
	rl    *rpsLimiter
}

func NewGeminiClient(ctx context.Context, model string) (*GeminiClient, error) {
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, err
	}
	// Optional RPS limiter via env: LLM_RPS / LLM_BURST.
	var rps float64
	var burst int
	if v := os.Getenv("LLM_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			rps = f
		}
	}
	if v := os.Getenv("LLM_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			burst = n
		}
	}
	return &GeminiClient{cli: cli, model: model, rl: newRPSLimiter(rps, burst)}, nil
}

func (g *GeminiClient) Name() string { return "Gemini:" + g.model }
func (g *GeminiClient) Close() error {
	if g.rl != nil {
		g.rl.Stop()
	}
	return nil
}

func (g *GeminiClient) GenerateJSON(ctx context.Context, prompt string, parts []Part, schema *Schema) (json.RawMessage, error) {
	op := OpFrom(ctx)
	if hook := HookFrom(ctx); hook != nil {
		hook.Before(ctx, op, prompt)
	}

	genParts := make([]*genai.Part, 0, len(parts)+1)
	genParts = append(genParts, &genai.Part{Text: prompt})
	for _, p := range parts {
		genParts = append(genParts, &genai.Part{InlineData: &genai.Blob{MIMEType: p.MIMEType, Data: p.Data}})
	}
	cfg := &genai.GenerateContentConfig{ResponseMIMEType: "application/json"}
	if schema != nil {
		cfg.ResponseSchema = toGenaiSchema(schema)
	}
	log.Printf("LLM request (%s): %d bytes, %d parts", op, len(prompt), len(parts))

	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		// Each API call consumes a limiter token.
		if err := g.rl.Acquire(ctx); err != nil {
			lastErr = err
			break
		}
		resp, err := g.cli.Models.GenerateContent(ctx, g.model,
			[]*genai.Content{{Parts: genParts}}, cfg)
		if err != nil {
			lastErr = err
		} else if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
			lastErr = ErrInvalidJSON
		} else {
			raw := json.RawMessage(resp.Candidates[0].Content.Parts[0].Text)
			if hook := HookFrom(ctx); hook != nil {
				hook.After(ctx, op, raw, nil)
			}
			return raw, nil
		}
		if ctx.Err() != nil {
			break
		}
		time.Sleep(time.Duration(300*(1<<attempt)) * time.Millisecond)
	}
	if hook := HookFrom(ctx); hook != nil {
		hook.After(ctx, op, nil, lastErr)
	}
	return nil, lastErr
}

func (g *GeminiClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	if err := g.rl.Acquire(ctx); err != nil {
		return "", err
	}
	resp, err := g.cli.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{{Parts: []*genai.Part{{Text: prompt}}}}, nil)
	if err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", ErrInvalidJSON
	}
	return resp.Candidates[0].Content.Parts[0].Text, nil
}

func toGenaiSchema(s *Schema) *genai.Schema {
	if s == nil {
		return nil
	}
	out := &genai.Schema{Description: s.Description, Required: s.Required}
	switch s.Type {
	case "object":
		out.Type = genai.TypeObject
	default:
		out.Type = genai.TypeString
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, prop := range s.Properties {
			out.Properties[name] = toGenaiSchema(prop)
		}
	}
	return out
}
