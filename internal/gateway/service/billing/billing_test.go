package billing

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"

	"ticketsmith/internal/gateway/repository/ticketstore"
)

func sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature(t *testing.T) {
	svc := New(ticketstore.New(), "topsecret")
	body := []byte(`{"event_type":"subscription.created"}`)

	require.True(t, svc.VerifySignature(body, sign("topsecret", body)))
	require.False(t, svc.VerifySignature(body, sign("wrong", body)))
	require.False(t, svc.VerifySignature(body, "sha256=not-hex"))
	require.False(t, svc.VerifySignature(body, ""))
	require.False(t, svc.VerifySignature([]byte("tampered"), sign("topsecret", body)))
}

func TestVerifySignatureNoSecretConfigured(t *testing.T) {
	svc := New(ticketstore.New(), "")
	body := []byte("{}")
	// Without a configured secret nothing can be trusted.
	require.False(t, svc.VerifySignature(body, sign("", body)))
}

func TestHandleEventSubscriptionCreated(t *testing.T) {
	store := ticketstore.New()
	svc := New(store, "s")

	body := []byte(`{
		"event_type": "subscription.created",
		"data": {
			"id": "sub-123",
			"status": "active",
			"customer_id": "cust-9",
			"next_billed_at": "2026-09-30T00:00:00Z",
			"items": [{"price": {"id": "price-pro"}}],
			"custom_data": {"userId": "user-1"}
		}
	}`)
	require.NoError(t, svc.HandleEvent(context.Background(), body))

	sub, err := store.GetSubscription(context.Background(), "user-1")
	require.NoError(t, err)
	require.Equal(t, "sub-123", sub.SubscriptionID)
	require.Equal(t, "active", sub.Status)
	require.Equal(t, "price-pro", sub.PriceID)
	require.NotNil(t, sub.RenewsAt)
}

func TestHandleEventSubscriptionUpdatedOverwrites(t *testing.T) {
	store := ticketstore.New()
	svc := New(store, "s")

	created := []byte(`{"event_type":"subscription.created","data":{"id":"sub-1","status":"active","custom_data":{"userId":"u"}}}`)
	require.NoError(t, svc.HandleEvent(context.Background(), created))

	updated := []byte(`{"event_type":"subscription.updated","data":{"id":"sub-1","status":"cancelled","ends_at":"2026-10-01T00:00:00Z","custom_data":{"userId":"u"}}}`)
	require.NoError(t, svc.HandleEvent(context.Background(), updated))

	sub, err := store.GetSubscription(context.Background(), "u")
	require.NoError(t, err)
	require.Equal(t, "cancelled", sub.Status)
	require.NotNil(t, sub.EndsAt)
}

func TestHandleEventIgnoresUnknownTypes(t *testing.T) {
	store := ticketstore.New()
	svc := New(store, "s")

	require.NoError(t, svc.HandleEvent(context.Background(), []byte(`{"event_type":"transaction.completed","data":{}}`)))
	require.NoError(t, svc.HandleEvent(context.Background(), []byte(`{"event_type":"something.else","data":{}}`)))

	_, err := store.GetSubscription(context.Background(), "")
	require.ErrorIs(t, err, ticketstore.ErrNotFound)
}
