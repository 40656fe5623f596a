package ticket

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ticketsmith/internal/llm"
)

// DefaultTimeout bounds a single model invocation when the caller has
// not set a deadline. Timed-out calls yield no salvageable result.
const DefaultTimeout = 45 * time.Second

// UsageLimiter gates generation volume. The result is computed fresh per
// attempt, immediately before the billed call.
type UsageLimiter interface {
	CheckLimit(ctx context.Context, actorID string) (UsageResult, error)
}

// Generator runs the draft-to-ticket pipeline: limit check, local
// validation, prompt composition, one billed model call, schema parse.
type Generator struct {
	llm     llm.Client
	limiter UsageLimiter
}

func NewGenerator(client llm.Client, limiter UsageLimiter) *Generator {
	return &Generator{llm: client, limiter: limiter}
}

func ticketSchema() *llm.Schema {
	return &llm.Schema{
		Type:        "object",
		Description: "Engineering ticket structure",
		Properties: map[string]*llm.Schema{
			"title":           {Type: "string", Description: "Concise ticket title"},
			"type":            {Type: "string", Description: "Ticket type (Feature, Bug, etc.)"},
			"coreContent":     {Type: "string", Description: "Main markdown content, strictly escaped"},
			"missingElements": {Type: "string", Description: "Engineering considerations in markdown"},
		},
		Required: []string{"title", "type", "coreContent", "missingElements"},
	}
}

// Generate produces a ticket from a draft. Cheap checks run strictly
// before the billed model call; exactly one invocation happens on the
// happy path and failures are never retried here.
func (g *Generator) Generate(ctx context.Context, actorID string, draft Draft) (Generated, error) {
	res, err := g.limiter.CheckLimit(ctx, actorID)
	if err != nil {
		return Generated{}, fmt.Errorf("check limit: %w", err)
	}
	if !res.Allowed {
		return Generated{}, &LimitReachedError{Reason: res.Reason, Limit: res.Limit, Usage: res.Usage}
	}

	if err := validateDraft(draft); err != nil {
		return Generated{}, err
	}

	spec, err := ComposePrompt(draft)
	if err != nil {
		return Generated{}, &ValidationError{Field: "screenshots"}
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultTimeout)
		defer cancel()
	}

	raw, err := g.llm.GenerateJSON(llm.WithOp(ctx, "generate"), spec.Text, spec.Parts, ticketSchema())
	if err != nil {
		return Generated{}, &ProviderError{Err: err}
	}
	return ParseTicketResponse(raw)
}

// ReformText polishes a single draft field for clarity and grammar
// without adding new content.
func (g *Generator) ReformText(ctx context.Context, fieldName, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", &ValidationError{Field: fieldName}
	}
	var b strings.Builder
	b.WriteString(tpmPersona)
	fmt.Fprintf(&b, "\n\nTask: Polish the following %q draft for clarity and grammar.\n", fieldName)
	b.WriteString("Constraint: Do NOT add any new feature details, assumptions, or extra context. Only clarify what is written.\n\n")
	fmt.Fprintf(&b, "Draft: %q\n\n", text)
	b.WriteString("Output only the refined text.\n")

	out, err := g.llm.GenerateText(llm.WithOp(ctx, "reform"), b.String())
	if err != nil {
		return "", &ProviderError{Err: err}
	}
	return strings.TrimSpace(out), nil
}

func validateDraft(d Draft) error {
	if strings.TrimSpace(d.FeatureName) == "" {
		return &ValidationError{Field: "featureName"}
	}
	if strings.TrimSpace(d.Problem) == "" {
		return &ValidationError{Field: "problem"}
	}
	if strings.TrimSpace(d.Behavior) == "" {
		return &ValidationError{Field: "behavior"}
	}
	if d.Type != TypeTechnical && len(d.Formats) == 0 {
		return &ValidationError{Field: "formats"}
	}
	return nil
}
