package billing

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"ticketsmith/internal/gateway/repository/ticketstore"
)

// Event is the billing provider's webhook payload.
type Event struct {
	EventType string    `json:"event_type"`
	Data      EventData `json:"data"`
}

type EventData struct {
	ID           string     `json:"id"`
	Status       string     `json:"status"`
	CustomerID   string     `json:"customer_id"`
	NextBilledAt *time.Time `json:"next_billed_at"`
	EndsAt       *time.Time `json:"ends_at"`
	Items        []struct {
		Price struct {
			ID string `json:"id"`
		} `json:"price"`
	} `json:"items"`
	CustomData struct {
		UserID string `json:"userId"`
	} `json:"custom_data"`
}

type Service struct {
	store  *ticketstore.Store
	secret string
}

func New(store *ticketstore.Store, secret string) *Service {
	return &Service{store: store, secret: secret}
}

// VerifySignature checks an HMAC-SHA256 signature header of the form
// "sha256=<hex>" over the raw body. The comparison is constant-time;
// payloads failing it must never be applied.
func (s *Service) VerifySignature(body []byte, signature string) bool {
	if s.secret == "" || signature == "" {
		return false
	}
	sig := strings.TrimPrefix(strings.TrimSpace(signature), "sha256=")
	expected, err := hex.DecodeString(sig)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(s.secret))
	mac.Write(body)
	return hmac.Equal(mac.Sum(nil), expected)
}

// HandleEvent applies one verified webhook event to subscription state.
// Unknown event types are acknowledged and ignored.
func (s *Service) HandleEvent(ctx context.Context, body []byte) error {
	var evt Event
	if err := json.Unmarshal(body, &evt); err != nil {
		return fmt.Errorf("decode webhook event: %w", err)
	}

	switch evt.EventType {
	case "subscription.created", "subscription.updated":
		userID := strings.TrimSpace(evt.Data.CustomData.UserID)
		if userID == "" {
			// Checkout flows that omit the pass-through user id are
			// reconciled from a later transaction event.
			log.Printf("billing: %s without user id (subscription %s)", evt.EventType, evt.Data.ID)
			return nil
		}
		priceID := ""
		if len(evt.Data.Items) > 0 {
			priceID = evt.Data.Items[0].Price.ID
		}
		sub := ticketstore.Subscription{
			UserID:         userID,
			SubscriptionID: evt.Data.ID,
			PriceID:        priceID,
			CustomerID:     evt.Data.CustomerID,
			Status:         evt.Data.Status,
			RenewsAt:       evt.Data.NextBilledAt,
			EndsAt:         evt.Data.EndsAt,
		}
		if err := s.store.UpsertSubscription(ctx, sub); err != nil {
			return fmt.Errorf("upsert subscription: %w", err)
		}
		log.Printf("billing: updated subscription for user %s (%s)", userID, evt.Data.Status)
		return nil
	case "transaction.completed":
		// Informational for now; subscription.* events carry the state.
		return nil
	default:
		log.Printf("billing: ignoring event %q", evt.EventType)
		return nil
	}
}
