package chat

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"ticketsmith/internal/llm"
	"ticketsmith/internal/ticket"
)

// blockingLLM holds every GenerateJSON call until released, then either
// answers like the fake client or fails.
type blockingLLM struct {
	mu       sync.Mutex
	gate     chan struct{}
	fail     error
	calls    int
	delegate llm.FakeClient
}

func (b *blockingLLM) Name() string { return "blocking" }
func (b *blockingLLM) Close() error { return nil }

func (b *blockingLLM) GenerateJSON(ctx context.Context, prompt string, parts []llm.Part, schema *llm.Schema) (json.RawMessage, error) {
	b.mu.Lock()
	b.calls++
	b.mu.Unlock()
	if b.gate != nil {
		select {
		case <-b.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if b.fail != nil {
		return nil, b.fail
	}
	return b.delegate.GenerateJSON(ctx, prompt, parts, schema)
}

func (b *blockingLLM) GenerateText(ctx context.Context, prompt string) (string, error) {
	return b.delegate.GenerateText(ctx, prompt)
}

func seedTicket() ticket.Generated {
	return ticket.Generated{
		Title:       "Dark mode",
		Type:        "Feature",
		CoreContent: "## Overview\nAdd dark mode.",
	}
}

func TestSendUnknownSession(t *testing.T) {
	m := NewManager(ticket.NewRefiner(llm.NewFakeClient()))
	if _, err := m.Send(context.Background(), "nope", "hi"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestSendAppendsHistoryAndUpdatesTicket(t *testing.T) {
	m := NewManager(ticket.NewRefiner(llm.NewFakeClient()))
	s := m.Open("s1", seedTicket())

	res, err := m.Send(context.Background(), "s1", "make the title shorter")
	if err != nil {
		t.Fatal(err)
	}
	if res.Message == "" {
		t.Fatal("expected an assistant message")
	}

	hist := s.History()
	if len(hist) != 2 {
		t.Fatalf("history length = %d, want 2", len(hist))
	}
	if hist[0].Role != ticket.RoleUser || hist[0].Content != "make the title shorter" {
		t.Fatalf("first turn = %+v", hist[0])
	}
	if hist[1].Role != ticket.RoleAssistant || hist[1].Content != res.Message {
		t.Fatalf("second turn = %+v", hist[1])
	}
	if s.Ticket() != res.UpdatedTicket {
		t.Fatal("session ticket should track the refinement result")
	}
}

func TestSendFailureLeavesSessionUntouched(t *testing.T) {
	failing := &blockingLLM{fail: errors.New("model down")}
	m := NewManager(ticket.NewRefiner(failing))
	s := m.Open("s1", seedTicket())

	if _, err := m.Send(context.Background(), "s1", "hello"); err == nil {
		t.Fatal("expected an error")
	}
	if len(s.History()) != 0 {
		t.Fatal("failed exchange must not grow the history")
	}
	if s.Ticket() != seedTicket() {
		t.Fatal("failed exchange must not change the ticket")
	}

	// The session recovers once the backend does.
	failing.fail = nil
	if _, err := m.Send(context.Background(), "s1", "hello again"); err != nil {
		t.Fatalf("retry after failure: %v", err)
	}
	if len(s.History()) != 2 {
		t.Fatalf("history length = %d after recovery", len(s.History()))
	}
}

func TestSendWhileInFlightIsBusy(t *testing.T) {
	gate := make(chan struct{})
	backend := &blockingLLM{gate: gate}
	m := NewManager(ticket.NewRefiner(backend))
	m.Open("s1", seedTicket())

	firstDone := make(chan error, 1)
	go func() {
		_, err := m.Send(context.Background(), "s1", "first")
		firstDone <- err
	}()

	// Wait until the first turn is actually inside the model call.
	deadline := time.After(2 * time.Second)
	for {
		backend.mu.Lock()
		started := backend.calls > 0
		backend.mu.Unlock()
		if started {
			break
		}
		select {
		case <-deadline:
			t.Fatal("first send never reached the backend")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	if _, err := m.Send(context.Background(), "s1", "second"); !errors.Is(err, ErrBusy) {
		t.Fatalf("concurrent send err = %v, want ErrBusy", err)
	}

	close(gate)
	if err := <-firstDone; err != nil {
		t.Fatalf("first send: %v", err)
	}
}

func TestCloseEndsSession(t *testing.T) {
	m := NewManager(ticket.NewRefiner(llm.NewFakeClient()))
	m.Open("s1", seedTicket())
	m.Close("s1")
	if _, err := m.Send(context.Background(), "s1", "hi"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
