package chat

import (
	"context"
	"errors"
	"sync"

	"ticketsmith/internal/ticket"
)

var (
	ErrNotFound = errors.New("chat: session not found")
	// ErrBusy means a refinement for this session is already in flight.
	// Concurrent turns would diverge the history, so the caller must
	// wait for the previous exchange to finish.
	ErrBusy = errors.New("chat: refinement in flight")
)

// Session is one editing conversation over a generated ticket. History
// is append-only and grows only on successful exchanges.
type Session struct {
	mu       sync.Mutex
	ticket   ticket.Generated
	history  []ticket.ChatTurn
	inFlight bool
}

func (s *Session) snapshot() (ticket.Generated, []ticket.ChatTurn) {
	hist := make([]ticket.ChatTurn, len(s.history))
	copy(hist, s.history)
	return s.ticket, hist
}

// Ticket returns the session's current ticket state.
func (s *Session) Ticket() ticket.Generated {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ticket
}

// History returns a copy of the session's turn history.
func (s *Session) History() []ticket.ChatTurn {
	s.mu.Lock()
	defer s.mu.Unlock()
	hist := make([]ticket.ChatTurn, len(s.history))
	copy(hist, s.history)
	return hist
}

// Manager owns ephemeral editing sessions. Nothing here is persisted;
// a session lives as long as the authoring flow that opened it.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	refiner  *ticket.Refiner
}

func NewManager(refiner *ticket.Refiner) *Manager {
	return &Manager{sessions: make(map[string]*Session), refiner: refiner}
}

// Open starts (or replaces) the session identified by id with the given
// ticket as its current state.
func (m *Manager) Open(id string, t ticket.Generated) *Session {
	s := &Session{ticket: t}
	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()
	return s
}

func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

func (m *Manager) Close(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

// Send runs one refinement turn for the session. On success the user
// and assistant turns are appended and the ticket state updated; on
// failure nothing changes. A second Send while one is in flight fails
// with ErrBusy.
func (m *Manager) Send(ctx context.Context, sessionID, userMessage string) (ticket.RefineResult, error) {
	s, ok := m.Get(sessionID)
	if !ok {
		return ticket.RefineResult{}, ErrNotFound
	}

	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return ticket.RefineResult{}, ErrBusy
	}
	s.inFlight = true
	cur, hist := s.snapshot()
	s.mu.Unlock()

	res, err := m.refiner.Refine(ctx, cur, hist, userMessage)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight = false
	if err != nil {
		return ticket.RefineResult{}, err
	}
	s.history = append(s.history,
		ticket.ChatTurn{Role: ticket.RoleUser, Content: userMessage},
		ticket.ChatTurn{Role: ticket.RoleAssistant, Content: res.Message},
	)
	s.ticket = res.UpdatedTicket
	return res, nil
}
