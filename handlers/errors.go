// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/stimulus-rank/experiment"
	"github.com/danielhkuo/stimulus-rank/middleware"
)

// writeServiceError maps an experiment error to a status and a message safe
// to show the client. Storage details never reach the response.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status, message := http.StatusInternalServerError, "Internal server error"

	switch {
	case errors.Is(err, experiment.ErrInvalidCode):
		status, message = http.StatusBadRequest, "Participant code is required"
	case errors.Is(err, experiment.ErrEmptyRankings),
		errors.Is(err, experiment.ErrInvalidRanking):
		status, message = http.StatusBadRequest, err.Error()
	case errors.Is(err, experiment.ErrCodeNotFound):
		status, message = http.StatusNotFound, "Invalid participant code"
	case errors.Is(err, experiment.ErrCodeUsed):
		status, message = http.StatusForbidden, "This code has already been used"
	case errors.Is(err, experiment.ErrNoVideos):
		status, message = http.StatusNotFound, "No videos available for this group"
	case errors.Is(err, experiment.ErrNoRankings):
		status, message = http.StatusNotFound, "No rankings found for this participant"
	case errors.Is(err, experiment.ErrInsufficientStimuli):
		status, message = http.StatusUnprocessableEntity, "Not enough videos to build a balanced playlist"
	case errors.Is(err, experiment.ErrStaleProgress):
		status, message = http.StatusConflict, "Progress has changed, reload to continue"
	case errors.Is(err, experiment.ErrAlreadyCompleted):
		status, message = http.StatusConflict, "Experiment already completed"
	}

	if status == http.StatusInternalServerError && !errors.Is(err, experiment.ErrPersistence) {
		// Persistence errors were already logged with participant context
		slog.Error("request failed", "path", r.URL.Path, "error", err)
	}
	middleware.ErrorResponse(w, status, message)
}
