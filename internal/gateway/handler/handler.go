package handler

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"ticketsmith/internal/gateway/repository/screenshot"
	"ticketsmith/internal/gateway/repository/ticketstore"
	"ticketsmith/internal/gateway/service/billing"
	"ticketsmith/internal/gateway/service/chat"
	"ticketsmith/internal/jira"
	"ticketsmith/internal/ticket"
)

// Handler serves the HTTP API. All endpoints are JSON except the chat
// websocket.
type Handler struct {
	generator *ticket.Generator
	refiner   *ticket.Refiner
	chat      *chat.Manager
	store     *ticketstore.Store
	shots     screenshot.Store
	billing   *billing.Service
	jira      *jira.Client
}

func New(
	generator *ticket.Generator,
	refiner *ticket.Refiner,
	chatMgr *chat.Manager,
	store *ticketstore.Store,
	shots screenshot.Store,
	billingSvc *billing.Service,
	jiraClient *jira.Client,
) *Handler {
	return &Handler{
		generator: generator,
		refiner:   refiner,
		chat:      chatMgr,
		store:     store,
		shots:     shots,
		billing:   billingSvc,
		jira:      jiraClient,
	}
}

// actorID identifies the caller. Authentication itself happens at the
// edge; by the time a request reaches this service the user id header
// is trusted.
func actorID(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get("X-User-Id"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response failed: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// writeDomainError maps pipeline and store errors onto HTTP statuses.
// Raw model output never reaches the client; it is logged here and the
// caller gets a stable message.
func writeDomainError(w http.ResponseWriter, err error) {
	var (
		validationErr *ticket.ValidationError
		limitErr      *ticket.LimitReachedError
		malformedErr  *ticket.MalformedResponseError
		providerErr   *ticket.ProviderError
		refineErr     *ticket.RefinementError
	)
	switch {
	case errors.As(err, &validationErr):
		writeError(w, http.StatusBadRequest, validationErr.Error())
	case errors.As(err, &limitErr):
		writeJSON(w, http.StatusForbidden, map[string]any{
			"error": limitErr.Reason,
			"limit": limitErr.Limit,
			"usage": limitErr.Usage,
		})
	case errors.As(err, &malformedErr):
		log.Printf("malformed model response: %v", err)
		writeError(w, http.StatusBadGateway, "The AI returned an unexpected response. Please try again.")
	case errors.As(err, &providerErr):
		log.Printf("model provider error: %v", err)
		writeError(w, http.StatusBadGateway, "The AI service is unavailable. Please try again.")
	case errors.As(err, &refineErr):
		log.Printf("refinement error: %v", err)
		writeError(w, http.StatusBadGateway, "Failed to refine the ticket. Please try again.")
	case errors.Is(err, ticketstore.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, ticketstore.ErrUnauthorized):
		writeError(w, http.StatusForbidden, "forbidden")
	default:
		log.Printf("internal error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// screenshotPayload is a client-supplied image: a data URI plus an
// optional description used in prompt composition.
type screenshotPayload struct {
	ID          string `json:"id,omitempty"`
	Data        string `json:"data"`
	Description string `json:"description,omitempty"`
}

func parseScreenshots(payloads []screenshotPayload) ([]ticket.Screenshot, error) {
	shots := make([]ticket.Screenshot, 0, len(payloads))
	for i, p := range payloads {
		rest, ok := strings.CutPrefix(strings.TrimSpace(p.Data), "data:")
		if !ok {
			return nil, fmt.Errorf("screenshot %d: not a data URI", i)
		}
		mime, payload, ok := strings.Cut(rest, ";base64,")
		if !ok {
			return nil, fmt.Errorf("screenshot %d: missing base64 payload", i)
		}
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, fmt.Errorf("screenshot %d: %w", i, err)
		}
		shots = append(shots, ticket.Screenshot{
			ID:          strings.TrimSpace(p.ID),
			Data:        data,
			MIMEType:    mime,
			Description: p.Description,
		})
	}
	return shots, nil
}
