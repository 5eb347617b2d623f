package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/okian/unirank/internal/adapters/repository"
	service "github.com/okian/unirank/internal/app"
	"github.com/okian/unirank/internal/domain/ranking"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest      = errors.New("bad request")
	ErrPayloadTooLarge = errors.New("upload exceeds size limit")
	ErrLimitExceeded   = errors.New("limit exceeds maximum")
)

// classify maps an error to an HTTP status and a stable error code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ErrPayloadTooLarge):
		return http.StatusRequestEntityTooLarge, "payload_too_large"
	case errors.Is(err, ErrLimitExceeded):
		return http.StatusBadRequest, "limit_exceeded"
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, service.ErrInvalidImportMode),
		errors.Is(err, repository.ErrInvalidLimit):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, ranking.ErrUnsupportedFileType):
		return http.StatusBadRequest, "unsupported_file_type"
	case errors.Is(err, ranking.ErrStructureInvalid):
		return http.StatusBadRequest, "structure_invalid"
	case errors.Is(err, ranking.ErrEmptyBatch):
		return http.StatusBadRequest, "empty_batch"
	case errors.Is(err, ranking.ErrTooManyFiles):
		return http.StatusBadRequest, "too_many_files"
	case errors.Is(err, ranking.ErrReadFailure):
		return http.StatusUnprocessableEntity, "read_failure"
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, "session_not_found"
	case errors.Is(err, service.ErrStudentNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, service.ErrNotStarted):
		return http.StatusServiceUnavailable, "unavailable"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
