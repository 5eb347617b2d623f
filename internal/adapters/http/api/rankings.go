package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
)

// defaultRankingLimit is used when the request has no limit parameter.
const defaultRankingLimit = 100

// RankingDependencies defines the interface for ranking reads.
type RankingDependencies interface {
	TopN(ctx context.Context, id string, n int) ([]Entry, int, error)
}

type rankingsResponse struct {
	Total   int     `json:"total"`
	Entries []Entry `json:"entries"`
}

// RankingsHandler handles ranking requests.
type RankingsHandler struct {
	deps     RankingDependencies
	maxLimit int
}

// NewRankingsHandler creates a new rankings handler.
func NewRankingsHandler(deps RankingDependencies, maxLimit int) *RankingsHandler {
	return &RankingsHandler{
		deps:     deps,
		maxLimit: maxLimit,
	}
}

// HandleGetRankings handles GET /sessions/{id}/rankings?limit=N requests.
func (h *RankingsHandler) HandleGetRankings(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_rankings"
	n := min(defaultRankingLimit, h.maxLimit)
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		v, err := strconv.Atoi(limitStr)
		if err != nil || v < 1 {
			writeServiceError(w, fmt.Errorf("%s: %w: limit must be a positive integer", op, ErrBadRequest))
			return
		}
		if v > h.maxLimit {
			writeServiceError(w, fmt.Errorf("%s: %w: %d > %d", op, ErrLimitExceeded, v, h.maxLimit))
			return
		}
		n = v
	}
	entries, total, err := h.deps.TopN(r.Context(), r.PathValue("id"), n)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rankingsResponse{Total: total, Entries: entries})
}
