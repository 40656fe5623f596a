package ticketstore

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrNotFound     = errors.New("ticketstore: not found")
	ErrUnauthorized = errors.New("ticketstore: not owned by user")
)

// Ticket is a persisted generated ticket.
type Ticket struct {
	ID              string
	UserID          string
	ProjectID       string
	Title           string
	Type            string
	Content         string
	MissingElements string
	Status          string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// TicketUpdate carries the mutable ticket fields; nil means unchanged.
type TicketUpdate struct {
	Title           *string
	Content         *string
	MissingElements *string
}

type Project struct {
	ID        string
	UserID    string
	Name      string
	Color     string
	CreatedAt time.Time
}

// Subscription mirrors the billing provider's view of one user.
type Subscription struct {
	UserID         string
	SubscriptionID string
	PriceID        string
	CustomerID     string
	Status         string
	RenewsAt       *time.Time
	EndsAt         *time.Time
}

func normalizeTicket(t Ticket) Ticket {
	t.ID = strings.TrimSpace(t.ID)
	t.UserID = strings.TrimSpace(t.UserID)
	t.ProjectID = strings.TrimSpace(t.ProjectID)
	if strings.TrimSpace(t.Status) == "" {
		t.Status = "saved"
	}
	return t
}
