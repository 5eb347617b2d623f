package api

import (
	"context"
	"net/http"
)

// StudentDependencies defines the interface for student lookups.
type StudentDependencies interface {
	Lookup(ctx context.Context, id, externalID string) ([]Entry, error)
}

// StudentsHandler handles student lookup requests.
type StudentsHandler struct {
	deps StudentDependencies
}

// NewStudentsHandler creates a new students handler.
func NewStudentsHandler(deps StudentDependencies) *StudentsHandler {
	return &StudentsHandler{deps: deps}
}

// HandleGetStudent handles GET /sessions/{id}/students/{externalID} requests.
func (h *StudentsHandler) HandleGetStudent(w http.ResponseWriter, r *http.Request) {
	entries, err := h.deps.Lookup(r.Context(), r.PathValue("id"), r.PathValue("externalID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
