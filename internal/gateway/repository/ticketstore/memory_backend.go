package ticketstore

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

func (s *Store) SaveTicket(ctx context.Context, t Ticket) (string, error) {
	t = normalizeTicket(t)
	if t.UserID == "" {
		return "", ErrUnauthorized
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now
	defer s.invalidateCount(t.UserID)

	if s.usesDB() {
		return t.ID, s.saveTicketDB(ctx, t)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tickets[t.ID] = t
	return t.ID, nil
}

func (s *Store) GetTicket(ctx context.Context, id string) (Ticket, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Ticket{}, ErrNotFound
	}
	if s.usesDB() {
		return s.getTicketDB(ctx, id)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tickets[id]
	if !ok {
		return Ticket{}, ErrNotFound
	}
	return t, nil
}

// UpdateTicket applies upd to the ticket iff userID owns it.
func (s *Store) UpdateTicket(ctx context.Context, id, userID string, upd TicketUpdate) error {
	cur, err := s.GetTicket(ctx, id)
	if err != nil {
		return err
	}
	if cur.UserID != strings.TrimSpace(userID) {
		return ErrUnauthorized
	}
	if upd.Title != nil {
		cur.Title = *upd.Title
	}
	if upd.Content != nil {
		cur.Content = *upd.Content
	}
	if upd.MissingElements != nil {
		cur.MissingElements = *upd.MissingElements
	}
	cur.UpdatedAt = time.Now().UTC()

	if s.usesDB() {
		return s.updateTicketDB(ctx, cur)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tickets[cur.ID] = cur
	return nil
}

func (s *Store) ListTickets(ctx context.Context, userID string) ([]Ticket, error) {
	userID = strings.TrimSpace(userID)
	if s.usesDB() {
		return s.listTicketsDB(ctx, userID)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Ticket, 0, 16)
	for _, t := range s.tickets {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// CountTicketsSince reports how many tickets userID saved at or after
// since. Results are memoized per user and calendar month; SaveTicket
// invalidates.
func (s *Store) CountTicketsSince(ctx context.Context, userID string, since time.Time) (int, error) {
	userID = strings.TrimSpace(userID)
	key := userID + "|" + since.Format("2006-01")
	if s.countCache != nil {
		if n, ok := s.countCache.Get(key); ok {
			return n, nil
		}
	}

	var n int
	if s.usesDB() {
		var err error
		n, err = s.countTicketsSinceDB(ctx, userID, since)
		if err != nil {
			return 0, err
		}
	} else {
		s.mu.RLock()
		for _, t := range s.tickets {
			if t.UserID == userID && !t.CreatedAt.Before(since) {
				n++
			}
		}
		s.mu.RUnlock()
	}
	if s.countCache != nil {
		s.countCache.Add(key, n)
	}
	return n, nil
}

func (s *Store) CreateProject(ctx context.Context, userID, name, color string) (Project, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return Project{}, ErrUnauthorized
	}
	p := Project{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      strings.TrimSpace(name),
		Color:     strings.TrimSpace(color),
		CreatedAt: time.Now().UTC(),
	}
	if s.usesDB() {
		return p, s.createProjectDB(ctx, p)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects[p.ID] = p
	return p, nil
}

func (s *Store) ListProjects(ctx context.Context, userID string) ([]Project, error) {
	userID = strings.TrimSpace(userID)
	if s.usesDB() {
		return s.listProjectsDB(ctx, userID)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Project, 0, 8)
	for _, p := range s.projects {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// MoveTicketToProject links a ticket to projectID; empty projectID
// detaches it.
func (s *Store) MoveTicketToProject(ctx context.Context, ticketID, userID, projectID string) error {
	cur, err := s.GetTicket(ctx, ticketID)
	if err != nil {
		return err
	}
	if cur.UserID != strings.TrimSpace(userID) {
		return ErrUnauthorized
	}
	cur.ProjectID = strings.TrimSpace(projectID)
	cur.UpdatedAt = time.Now().UTC()

	if s.usesDB() {
		return s.updateTicketDB(ctx, cur)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tickets[cur.ID] = cur
	return nil
}

func (s *Store) GetSubscription(ctx context.Context, userID string) (Subscription, error) {
	userID = strings.TrimSpace(userID)
	if s.usesDB() {
		return s.getSubscriptionDB(ctx, userID)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	sub, ok := s.subscriptions[userID]
	if !ok {
		return Subscription{}, ErrNotFound
	}
	return sub, nil
}

// UpsertSubscription replaces the user's subscription row with sub.
func (s *Store) UpsertSubscription(ctx context.Context, sub Subscription) error {
	sub.UserID = strings.TrimSpace(sub.UserID)
	if sub.UserID == "" {
		return ErrUnauthorized
	}
	if s.usesDB() {
		return s.upsertSubscriptionDB(ctx, sub)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscriptions[sub.UserID] = sub
	return nil
}
