package handler

import (
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"ticketsmith/internal/gateway/repository/screenshot"
	"ticketsmith/internal/gateway/repository/ticketstore"
	"ticketsmith/internal/ticket"
)

// maxSaveBodyBytes bounds a save request. Inline screenshots arrive
// base64-encoded, so this sits comfortably above a few images at the
// per-image cap without letting a single request buffer without limit.
const maxSaveBodyBytes = 32 << 20

type saveTicketRequest struct {
	Title           string              `json:"title"`
	Type            string              `json:"type"`
	Content         string              `json:"content"`
	MissingElements string              `json:"missingElements"`
	ProjectID       string              `json:"projectId,omitempty"`
	Screenshots     []screenshotPayload `json:"screenshots"`
}

type ticketResponse struct {
	ID              string    `json:"id"`
	ProjectID       string    `json:"projectId,omitempty"`
	Title           string    `json:"title"`
	Type            string    `json:"type"`
	Content         string    `json:"content"`
	MissingElements string    `json:"missingElements"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func toTicketResponse(t ticketstore.Ticket) ticketResponse {
	return ticketResponse{
		ID:              t.ID,
		ProjectID:       t.ProjectID,
		Title:           t.Title,
		Type:            t.Type,
		Content:         t.Content,
		MissingElements: t.MissingElements,
		Status:          t.Status,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	}
}

// HandleSaveTicket persists a generated ticket. Placeholders are
// resolved against the uploaded screenshots here, at save time, so the
// stored content is self-contained Markdown.
func (h *Handler) HandleSaveTicket(w http.ResponseWriter, r *http.Request) {
	actor := actorID(r)
	if actor == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxSaveBodyBytes)
	var req saveTicketRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Title == "" || req.Content == "" {
		writeError(w, http.StatusBadRequest, "title and content are required")
		return
	}

	shots, err := parseScreenshots(req.Screenshots)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	for i := range shots {
		if shots[i].ID == "" {
			shots[i].ID = uuid.NewString()
		}
		err := h.shots.Put(r.Context(), actor, shots[i].ID, screenshot.Object{
			Data:     shots[i].Data,
			MIMEType: shots[i].MIMEType,
		})
		if err != nil {
			// The ticket is still saved with inline images; the
			// object store copy is an optimization.
			log.Printf("screenshot upload failed for %s: %v", shots[i].ID, err)
		}
	}

	content := ticket.ResolvePlaceholders(req.Content, shots)

	id, err := h.store.SaveTicket(r.Context(), ticketstore.Ticket{
		UserID:          actor,
		ProjectID:       req.ProjectID,
		Title:           req.Title,
		Type:            req.Type,
		Content:         content,
		MissingElements: req.MissingElements,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	saved, err := h.store.GetTicket(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTicketResponse(saved))
}

func (h *Handler) HandleListTickets(w http.ResponseWriter, r *http.Request) {
	actor := actorID(r)
	if actor == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	tickets, err := h.store.ListTickets(r.Context(), actor)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	out := make([]ticketResponse, 0, len(tickets))
	for _, t := range tickets {
		out = append(out, toTicketResponse(t))
	}
	writeJSON(w, http.StatusOK, out)
}

type updateTicketRequest struct {
	Title           *string `json:"title"`
	Content         *string `json:"content"`
	MissingElements *string `json:"missingElements"`
}

func (h *Handler) HandleUpdateTicket(w http.ResponseWriter, r *http.Request) {
	actor := actorID(r)
	if actor == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	id := r.PathValue("id")
	var req updateTicketRequest
	if !decodeBody(w, r, &req) {
		return
	}
	upd := ticketstore.TicketUpdate{
		Title:           req.Title,
		Content:         req.Content,
		MissingElements: req.MissingElements,
	}
	if err := h.store.UpdateTicket(r.Context(), id, actor, upd); err != nil {
		writeDomainError(w, err)
		return
	}
	updated, err := h.store.GetTicket(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTicketResponse(updated))
}

type moveTicketRequest struct {
	ProjectID string `json:"projectId"`
}

func (h *Handler) HandleMoveTicket(w http.ResponseWriter, r *http.Request) {
	actor := actorID(r)
	if actor == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	id := r.PathValue("id")
	var req moveTicketRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.store.MoveTicketToProject(r.Context(), id, actor, req.ProjectID); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"moved": true})
}

// HandleGetScreenshot streams a stored screenshot, or redirects to a
// presigned URL when the backend provides one.
func (h *Handler) HandleGetScreenshot(w http.ResponseWriter, r *http.Request) {
	actor := actorID(r)
	if actor == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	id := r.PathValue("id")

	if url, err := h.shots.GetURL(r.Context(), actor, id); err == nil && url != "" {
		http.Redirect(w, r, url, http.StatusTemporaryRedirect)
		return
	}

	obj, err := h.shots.Get(r.Context(), actor, id)
	if err != nil {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	w.Header().Set("Content-Type", obj.MIMEType)
	_, _ = w.Write(obj.Data)
}
