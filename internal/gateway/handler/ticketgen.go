package handler

import (
	"net/http"

	"ticketsmith/internal/ticket"
)

type generateRequest struct {
	FeatureName string              `json:"featureName"`
	Platforms   []string            `json:"platforms"`
	TicketType  string              `json:"ticketType"`
	Problem     string              `json:"problem"`
	Behavior    string              `json:"behavior"`
	Formats     []string            `json:"formats"`
	Screenshots []screenshotPayload `json:"screenshots"`
}

// HandleGenerateTicket runs the full generation pipeline: usage check,
// prompt composition, model call, parse and repair.
func (h *Handler) HandleGenerateTicket(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req generateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	shots, err := parseScreenshots(req.Screenshots)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	draft := ticket.Draft{
		FeatureName: req.FeatureName,
		Platforms:   req.Platforms,
		Type:        ticket.Type(req.TicketType),
		Problem:     req.Problem,
		Behavior:    req.Behavior,
		Formats:     req.Formats,
		Screenshots: shots,
	}
	generated, err := h.generator.Generate(r.Context(), actorID(r), draft)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, generated)
}

type reformRequest struct {
	FieldName string `json:"fieldName"`
	Text      string `json:"text"`
}

// HandleReformText polishes a single draft field.
func (h *Handler) HandleReformText(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req reformRequest
	if !decodeBody(w, r, &req) {
		return
	}
	reformed, err := h.generator.ReformText(r.Context(), req.FieldName, req.Text)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"reformedText": reformed})
}

type refineRequest struct {
	Ticket  ticket.Generated  `json:"ticket"`
	History []ticket.ChatTurn `json:"history"`
	Message string            `json:"message"`
}

// HandleRefineTicket is the stateless refinement endpoint: the client
// supplies the current ticket and conversation history each call. The
// websocket chat endpoint keeps that state server side instead.
func (h *Handler) HandleRefineTicket(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req refineRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}
	result, err := h.refiner.Refine(r.Context(), req.Ticket, req.History, req.Message)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
