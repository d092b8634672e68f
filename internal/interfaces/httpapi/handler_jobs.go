package httpapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	jsoniter "github.com/json-iterator/go"

	"github.com/rbakker/trmnl-standings/internal/usecase"
)

type internalRefreshJobRequest struct {
	LeagueIDs []string `json:"league_ids" validate:"omitempty,dive,required"`
}

// RunRefreshJob re-scrapes the requested leagues (all of them when the body
// is empty) and reports the per-league outcome.
func (h *Handler) RunRefreshJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunRefreshJob")
	defer span.End()

	if h.refresher == nil {
		writeError(ctx, w, fmt.Errorf("%w: refresher is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	req, err := decodeInternalRefreshJobRequest(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.refresher.RefreshLeagues(ctx, req.LeagueIDs)
	if err != nil {
		h.logger.WarnContext(ctx, "run refresh job failed", "league_ids", req.LeagueIDs, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, result)
}

func decodeInternalRefreshJobRequest(r *http.Request) (internalRefreshJobRequest, error) {
	decoder := jsoniter.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	var req internalRefreshJobRequest
	if err := decoder.Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			return internalRefreshJobRequest{}, nil
		}
		return internalRefreshJobRequest{}, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
	}

	return req, nil
}
