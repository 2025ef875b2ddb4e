package api

import (
	"net/http"
	"strconv"

	"github.com/zhuangyq008/s3-image-process/internal/apperror"
	"github.com/zhuangyq008/s3-image-process/internal/domain"
)

const (
	defaultUsageLimit = 50
	maxUsageLimit     = 1000
)

type usageResponse struct {
	Entries []domain.UsageLog `json:"entries"`
}

// handleUsage lists the most recent usage records, newest first.
func (s *Server) handleUsage(w http.ResponseWriter, r *http.Request) {
	limit := defaultUsageLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxUsageLimit {
			apperror.WriteJSON(w, r, apperror.Validation("limit", "must be an integer in [1, %d]", maxUsageLimit))
			return
		}
		limit = n
	}

	entries, err := s.usage.Recent(r.Context(), limit)
	if err != nil {
		apperror.WriteJSON(w, r, apperror.Store("list usage", err))
		return
	}
	if entries == nil {
		entries = []domain.UsageLog{}
	}
	writeJSON(w, http.StatusOK, usageResponse{Entries: entries})
}
