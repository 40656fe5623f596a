package handler

import (
	"net/http"
	"strings"
	"time"
)

func bearerToken(r *http.Request) string {
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	token, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}

type jiraRefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// HandleJiraRefresh exchanges a refresh token for a new pair. Tokens
// live with the client; this service never stores them.
func (h *Handler) HandleJiraRefresh(w http.ResponseWriter, r *http.Request) {
	var req jiraRefreshRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.RefreshToken == "" {
		writeError(w, http.StatusBadRequest, "refreshToken is required")
		return
	}
	tokens, err := h.jira.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		writeError(w, http.StatusBadGateway, "failed to refresh Jira tokens")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"accessToken":  tokens.AccessToken,
		"refreshToken": tokens.RefreshToken,
		"expiresAt":    tokens.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

func (h *Handler) HandleJiraSites(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		writeError(w, http.StatusUnauthorized, "missing Jira access token")
		return
	}
	sites, err := h.jira.ListSites(r.Context(), token)
	if err != nil {
		writeError(w, http.StatusBadGateway, "failed to list Jira sites")
		return
	}
	writeJSON(w, http.StatusOK, sites)
}

func (h *Handler) HandleJiraProjects(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		writeError(w, http.StatusUnauthorized, "missing Jira access token")
		return
	}
	cloudID := r.URL.Query().Get("cloudId")
	if cloudID == "" {
		writeError(w, http.StatusBadRequest, "cloudId is required")
		return
	}
	projects, err := h.jira.ListProjects(r.Context(), token, cloudID)
	if err != nil {
		writeError(w, http.StatusBadGateway, "failed to list Jira projects")
		return
	}
	writeJSON(w, http.StatusOK, projects)
}

func (h *Handler) HandleJiraIssueTypes(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		writeError(w, http.StatusUnauthorized, "missing Jira access token")
		return
	}
	cloudID := r.URL.Query().Get("cloudId")
	projectID := r.URL.Query().Get("projectId")
	if cloudID == "" || projectID == "" {
		writeError(w, http.StatusBadRequest, "cloudId and projectId are required")
		return
	}
	types, err := h.jira.ListIssueTypes(r.Context(), token, cloudID, projectID)
	if err != nil {
		writeError(w, http.StatusBadGateway, "failed to list Jira issue types")
		return
	}
	writeJSON(w, http.StatusOK, types)
}

type jiraExportRequest struct {
	CloudID     string `json:"cloudId"`
	ProjectID   string `json:"projectId"`
	IssueTypeID string `json:"issueTypeId"`
	TicketID    string `json:"ticketId"`
}

// HandleJiraExport creates a Jira issue from a saved ticket. Embedded
// images become issue attachments.
func (h *Handler) HandleJiraExport(w http.ResponseWriter, r *http.Request) {
	actor := actorID(r)
	if actor == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	token := bearerToken(r)
	if token == "" {
		writeError(w, http.StatusUnauthorized, "missing Jira access token")
		return
	}
	var req jiraExportRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.CloudID == "" || req.ProjectID == "" || req.IssueTypeID == "" || req.TicketID == "" {
		writeError(w, http.StatusBadRequest, "cloudId, projectId, issueTypeId and ticketId are required")
		return
	}

	t, err := h.store.GetTicket(r.Context(), req.TicketID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if t.UserID != actor {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	ref, err := h.jira.CreateIssue(r.Context(), token, req.CloudID, req.ProjectID, req.IssueTypeID, t.Title, t.Content)
	if err != nil {
		writeError(w, http.StatusBadGateway, "failed to create Jira issue")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": ref.ID, "key": ref.Key})
}
