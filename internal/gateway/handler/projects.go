package handler

import (
	"net/http"
	"time"
)

type createProjectRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

type projectResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"createdAt"`
}

func (h *Handler) HandleCreateProject(w http.ResponseWriter, r *http.Request) {
	actor := actorID(r)
	if actor == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req createProjectRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	p, err := h.store.CreateProject(r.Context(), actor, req.Name, req.Color)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, projectResponse{
		ID: p.ID, Name: p.Name, Color: p.Color, CreatedAt: p.CreatedAt,
	})
}

func (h *Handler) HandleListProjects(w http.ResponseWriter, r *http.Request) {
	actor := actorID(r)
	if actor == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	projects, err := h.store.ListProjects(r.Context(), actor)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	out := make([]projectResponse, 0, len(projects))
	for _, p := range projects {
		out = append(out, projectResponse{
			ID: p.ID, Name: p.Name, Color: p.Color, CreatedAt: p.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}
