package ticketstore

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

func (s *Store) ensureSchema(ctx context.Context) error {
	if s == nil || s.db == nil {
		return nil
	}
	s.schemaOnce.Do(func() {
		_, s.schemaErr = s.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS tickets (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  project_id TEXT NOT NULL DEFAULT '',
  title TEXT NOT NULL DEFAULT '',
  type TEXT NOT NULL DEFAULT '',
  content TEXT NOT NULL DEFAULT '',
  missing_elements TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL DEFAULT 'saved',
  created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
  updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_tickets_user_id ON tickets (user_id);
CREATE INDEX IF NOT EXISTS idx_tickets_user_created ON tickets (user_id, created_at);

CREATE TABLE IF NOT EXISTS projects (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  name TEXT NOT NULL DEFAULT '',
  color TEXT NOT NULL DEFAULT '',
  created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_projects_user_id ON projects (user_id);

CREATE TABLE IF NOT EXISTS subscriptions (
  user_id TEXT PRIMARY KEY,
  subscription_id TEXT NOT NULL DEFAULT '',
  price_id TEXT NOT NULL DEFAULT '',
  customer_id TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL DEFAULT '',
  renews_at TIMESTAMP WITH TIME ZONE,
  ends_at TIMESTAMP WITH TIME ZONE
);
`)
	})
	return s.schemaErr
}

func (s *Store) saveTicketDB(ctx context.Context, t Ticket) error {
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO tickets (id, user_id, project_id, title, type, content, missing_elements, status, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		t.ID, t.UserID, t.ProjectID, t.Title, t.Type, t.Content, t.MissingElements, t.Status, t.CreatedAt, t.UpdatedAt)
	return err
}

func (s *Store) getTicketDB(ctx context.Context, id string) (Ticket, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return Ticket{}, err
	}
	row := s.db.QueryRowContext(ctx, `
SELECT id, user_id, project_id, title, type, content, missing_elements, status, created_at, updated_at
FROM tickets WHERE id = $1`, id)
	return scanTicket(row)
}

func (s *Store) updateTicketDB(ctx context.Context, t Ticket) error {
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
UPDATE tickets
SET project_id=$2, title=$3, content=$4, missing_elements=$5, updated_at=$6
WHERE id=$1`,
		t.ID, t.ProjectID, t.Title, t.Content, t.MissingElements, t.UpdatedAt)
	return err
}

func (s *Store) listTicketsDB(ctx context.Context, userID string) ([]Ticket, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT id, user_id, project_id, title, type, content, missing_elements, status, created_at, updated_at
FROM tickets WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Ticket, 0, 16)
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) countTicketsSinceDB(ctx context.Context, userID string, since time.Time) (int, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return 0, err
	}
	var n int
	err := s.db.QueryRowContext(ctx, `
SELECT COUNT(*) FROM tickets WHERE user_id = $1 AND created_at >= $2`, userID, since).Scan(&n)
	return n, err
}

func (s *Store) createProjectDB(ctx context.Context, p Project) error {
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO projects (id, user_id, name, color, created_at)
VALUES ($1,$2,$3,$4,$5)`,
		p.ID, p.UserID, p.Name, p.Color, p.CreatedAt)
	return err
}

func (s *Store) listProjectsDB(ctx context.Context, userID string) ([]Project, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT id, user_id, name, color, created_at
FROM projects WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Project, 0, 8)
	for rows.Next() {
		var p Project
		if err := rows.Scan(&p.ID, &p.UserID, &p.Name, &p.Color, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) getSubscriptionDB(ctx context.Context, userID string) (Subscription, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return Subscription{}, err
	}
	var sub Subscription
	var renews, ends sql.NullTime
	err := s.db.QueryRowContext(ctx, `
SELECT user_id, subscription_id, price_id, customer_id, status, renews_at, ends_at
FROM subscriptions WHERE user_id = $1`, userID).Scan(
		&sub.UserID, &sub.SubscriptionID, &sub.PriceID, &sub.CustomerID, &sub.Status, &renews, &ends)
	if errors.Is(err, sql.ErrNoRows) {
		return Subscription{}, ErrNotFound
	}
	if err != nil {
		return Subscription{}, err
	}
	if renews.Valid {
		sub.RenewsAt = &renews.Time
	}
	if ends.Valid {
		sub.EndsAt = &ends.Time
	}
	return sub, nil
}

func (s *Store) upsertSubscriptionDB(ctx context.Context, sub Subscription) error {
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO subscriptions (user_id, subscription_id, price_id, customer_id, status, renews_at, ends_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (user_id)
DO UPDATE SET subscription_id=EXCLUDED.subscription_id,
  price_id=EXCLUDED.price_id,
  customer_id=EXCLUDED.customer_id,
  status=EXCLUDED.status,
  renews_at=EXCLUDED.renews_at,
  ends_at=EXCLUDED.ends_at`,
		sub.UserID, sub.SubscriptionID, sub.PriceID, sub.CustomerID, sub.Status, sub.RenewsAt, sub.EndsAt)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTicket(row rowScanner) (Ticket, error) {
	var t Ticket
	err := row.Scan(
		&t.ID, &t.UserID, &t.ProjectID, &t.Title, &t.Type,
		&t.Content, &t.MissingElements, &t.Status, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Ticket{}, ErrNotFound
	}
	if err != nil {
		return Ticket{}, err
	}
	return t, nil
}
