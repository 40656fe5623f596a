package limiter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ticketsmith/internal/gateway/repository/ticketstore"
	"ticketsmith/internal/ticket"
)

// FreeMonthlyLimit is the free-tier generation allowance. The count is
// over saved tickets, not raw generations.
const FreeMonthlyLimit = 5

type Service struct {
	store *ticketstore.Store
	limit int
	now   func() time.Time
}

func New(store *ticketstore.Store) *Service {
	return &Service{store: store, limit: FreeMonthlyLimit, now: time.Now}
}

// CheckLimit computes the actor's quota verdict fresh. It is called
// immediately before each billed model call; the quota is a soft UX
// limit, not a security boundary, so check-then-act is acceptable.
func (s *Service) CheckLimit(ctx context.Context, actorID string) (ticket.UsageResult, error) {
	if actorID == "" {
		return ticket.UsageResult{Allowed: false, Reason: "Unauthorized"}, nil
	}

	pro, err := s.isSubscribed(ctx, actorID)
	if err != nil {
		return ticket.UsageResult{}, err
	}
	if pro {
		return ticket.UsageResult{Allowed: true}, nil
	}

	now := s.now().UTC()
	startOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	count, err := s.store.CountTicketsSince(ctx, actorID, startOfMonth)
	if err != nil {
		return ticket.UsageResult{}, fmt.Errorf("count tickets: %w", err)
	}

	if count >= s.limit {
		return ticket.UsageResult{
			Allowed: false,
			Reason:  fmt.Sprintf("You have reached your free limit of %d tickets this month. Upgrade to Pro for unlimited access.", s.limit),
			Limit:   s.limit,
			Usage:   count,
		}, nil
	}
	return ticket.UsageResult{Allowed: true, Limit: s.limit, Usage: count}, nil
}

func (s *Service) isSubscribed(ctx context.Context, actorID string) (bool, error) {
	sub, err := s.store.GetSubscription(ctx, actorID)
	if errors.Is(err, ticketstore.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get subscription: %w", err)
	}
	switch sub.Status {
	case "active", "on_trial":
		return true, nil
	case "cancelled":
		// Cancelled plans stay valid until the paid period ends.
		return sub.EndsAt != nil && sub.EndsAt.After(s.now()), nil
	}
	return false, nil
}
