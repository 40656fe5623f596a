package server

import (
	"net/http"

	"ticketsmith/internal/gateway/handler"
	"ticketsmith/internal/gateway/middleware"
)

func NewMux(h *handler.Handler) http.Handler {
	mux := http.NewServeMux()

	// Generation pipeline
	mux.HandleFunc("POST /api/generate-ticket", h.HandleGenerateTicket)
	mux.HandleFunc("POST /api/reform-text", h.HandleReformText)
	mux.HandleFunc("POST /api/refine-ticket", h.HandleRefineTicket)
	mux.HandleFunc("/ws/chat", h.HandleChatWS)

	// Persistence
	mux.HandleFunc("POST /api/tickets", h.HandleSaveTicket)
	mux.HandleFunc("GET /api/tickets", h.HandleListTickets)
	mux.HandleFunc("PATCH /api/tickets/{id}", h.HandleUpdateTicket)
	mux.HandleFunc("POST /api/tickets/{id}/move", h.HandleMoveTicket)
	mux.HandleFunc("POST /api/projects", h.HandleCreateProject)
	mux.HandleFunc("GET /api/projects", h.HandleListProjects)
	mux.HandleFunc("GET /api/screenshots/{id}", h.HandleGetScreenshot)

	// Billing
	mux.HandleFunc("POST /api/webhooks/billing", h.HandleBillingWebhook)

	// Jira export
	mux.HandleFunc("POST /api/jira/refresh", h.HandleJiraRefresh)
	mux.HandleFunc("GET /api/jira/sites", h.HandleJiraSites)
	mux.HandleFunc("GET /api/jira/projects", h.HandleJiraProjects)
	mux.HandleFunc("GET /api/jira/issue-types", h.HandleJiraIssueTypes)
	mux.HandleFunc("POST /api/jira/export", h.HandleJiraExport)

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return middleware.CORS(mux)
}
