package api

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	service "github.com/okian/unirank/internal/app"
	"github.com/okian/unirank/internal/domain/ranking"
)

const (
	// filesField is the multipart field carrying the ranking files.
	filesField = "files"
	// multipartMemory is how much of a form is buffered before spilling to disk.
	multipartMemory = 8 << 20
)

// ImportsHandler handles import batch requests.
type ImportsHandler struct {
	deps           ImportDependencies
	maxUploadBytes int64
}

// NewImportsHandler creates a new imports handler.
func NewImportsHandler(deps ImportDependencies, maxUploadBytes int64) *ImportsHandler {
	return &ImportsHandler{deps: deps, maxUploadBytes: maxUploadBytes}
}

// HandleImport handles POST /sessions/{id}/imports?mode=replace|append requests.
func (h *ImportsHandler) HandleImport(w http.ResponseWriter, r *http.Request) {
	const op = "api.import"
	mode, err := service.ParseImportMode(r.URL.Query().Get("mode"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if r.ContentLength > h.maxUploadBytes {
		writeServiceError(w, fmt.Errorf("%s: %w: limit %d bytes", op, ErrPayloadTooLarge, h.maxUploadBytes))
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeServiceError(w, fmt.Errorf("%s: %w: limit %d bytes", op, ErrPayloadTooLarge, tooLarge.Limit))
			return
		}
		writeServiceError(w, fmt.Errorf("%s: %w: %w", op, ErrBadRequest, err))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	headers := r.MultipartForm.File[filesField]
	selections := make([]ranking.Selection, len(headers))
	for i, fh := range headers {
		selections[i] = multipartSelection{fh: fh}
	}

	res, err := h.deps.Import(r.Context(), r.PathValue("id"), selections, mode)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// multipartSelection adapts an uploaded form file to ranking.Selection.
type multipartSelection struct {
	fh *multipart.FileHeader
}

func (m multipartSelection) Name() string { return m.fh.Filename }
func (m multipartSelection) Size() int64  { return m.fh.Size }
func (m multipartSelection) Open() (io.ReadCloser, error) {
	return m.fh.Open()
}
