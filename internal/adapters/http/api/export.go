package api

import (
	"context"
	"mime"
	"net/http"

	service "github.com/okian/unirank/internal/app"
)

// ExportDependencies defines the interface for ranking exports.
type ExportDependencies interface {
	Export(ctx context.Context, id string) (service.Export, error)
}

// ExportHandler handles export downloads.
type ExportHandler struct {
	deps ExportDependencies
}

// NewExportHandler creates a new export handler.
func NewExportHandler(deps ExportDependencies) *ExportHandler {
	return &ExportHandler{deps: deps}
}

// HandleExport handles GET /sessions/{id}/export requests.
func (h *ExportHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	exp, err := h.deps.Export(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", exp.ContentType+"; charset=utf-8")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": exp.FileName}))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(exp.Body))
}
