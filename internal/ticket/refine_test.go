package ticket

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func currentTicket() Generated {
	return Generated{
		Title:           "Dark Mode",
		Type:            "Feature",
		CoreContent:     "## Spec\ntoggle in settings",
		MissingElements: "1. a11y",
	}
}

func refineJSON(t Generated, msg string) json.RawMessage {
	b, _ := json.Marshal(RefineResult{UpdatedTicket: t, Message: msg})
	return b
}

func TestRefine_DiscussionLeavesTicketUnchanged(t *testing.T) {
	cur := currentTicket()
	cli := &stubLLM{raw: refineJSON(cur, "What if we also themed the charts? Some ideas:\n- option A")}
	r := NewRefiner(cli)

	history := []ChatTurn{
		{Role: RoleUser, Content: "could we support charts?"},
		{Role: RoleAssistant, Content: "Yes, via a theme token."},
	}
	got, err := r.Refine(context.Background(), cur, history, "what if users want sepia?")
	if err != nil {
		t.Fatalf("refine: %v", err)
	}
	if got.UpdatedTicket != cur {
		t.Fatalf("discussion turn mutated ticket:\n got %+v\nwant %+v", got.UpdatedTicket, cur)
	}
	if got.Message == "" {
		t.Fatalf("expected assistant message")
	}
}

func TestRefine_PromptCarriesTicketHistoryAndMessage(t *testing.T) {
	cur := currentTicket()
	cli := &stubLLM{raw: refineJSON(cur, "ok")}
	r := NewRefiner(cli)

	history := []ChatTurn{
		{Role: RoleUser, Content: "first question"},
		{Role: RoleAssistant, Content: "first answer"},
	}
	if _, err := r.Refine(context.Background(), cur, history, "yes, do that"); err != nil {
		t.Fatalf("refine: %v", err)
	}
	for _, want := range []string{
		`"title": "Dark Mode"`,
		"User: first question",
		"AI: first answer",
		`Latest User Request: "yes, do that"`,
		"ACTION",
		"DISCUSSION",
	} {
		if !strings.Contains(cli.lastPrompt, want) {
			t.Fatalf("prompt missing %q:\n%s", want, cli.lastPrompt)
		}
	}
	if cli.lastSchema == nil || cli.lastSchema.Properties["updatedTicket"] == nil {
		t.Fatalf("expected nested refinement schema")
	}
	if len(cli.lastParts) != 0 {
		t.Fatalf("refinement sends no image parts")
	}
}

func TestRefine_ProviderFailureWrapped(t *testing.T) {
	boom := errors.New("network down")
	r := NewRefiner(&stubLLM{err: boom})

	_, err := r.Refine(context.Background(), currentTicket(), nil, "add a toggle")
	var rerr *RefinementError
	if !errors.As(err, &rerr) {
		t.Fatalf("expected RefinementError, got %v", err)
	}
	if !errors.Is(err, boom) {
		t.Fatalf("expected cause preserved, got %v", err)
	}
}

func TestRefine_MalformedResponseWrapped(t *testing.T) {
	r := NewRefiner(&stubLLM{raw: json.RawMessage(`{"message":"no ticket"}`)})

	_, err := r.Refine(context.Background(), currentTicket(), nil, "add a toggle")
	var rerr *RefinementError
	if !errors.As(err, &rerr) {
		t.Fatalf("expected RefinementError, got %v", err)
	}
	var merr *MalformedResponseError
	if !errors.As(err, &merr) {
		t.Fatalf("expected wrapped MalformedResponseError, got %v", err)
	}
}
