// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/stimulus-rank/cliparse"
	"github.com/danielhkuo/stimulus-rank/experiment"
	"github.com/danielhkuo/stimulus-rank/middleware"
	"github.com/danielhkuo/stimulus-rank/models"
)

type ParticipantHandler struct {
	svc *experiment.Service
	cfg cliparse.Config
}

func NewParticipantHandler(svc *experiment.Service, cfg cliparse.Config) *ParticipantHandler {
	return &ParticipantHandler{svc: svc, cfg: cfg}
}

// VerifyCode handles POST /verify-code
func (h *ParticipantHandler) VerifyCode(w http.ResponseWriter, r *http.Request) {
	var req models.VerifyCodeRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	p, err := h.svc.Verify(r.Context(), req.Code)
	switch {
	case errors.Is(err, experiment.ErrCodeNotFound):
		middleware.ErrorResponse(w, http.StatusBadRequest, "Code doesn't exist")
		return
	case errors.Is(err, experiment.ErrCodeUsed):
		middleware.ErrorResponse(w, http.StatusBadRequest, "Code has already been used")
		return
	case err != nil:
		writeServiceError(w, r, err)
		return
	}

	setSessionCookies(w, h.cfg, p.Code)

	middleware.JSONResponse(w, http.StatusOK, models.MessageResponse{
		Message: "Code verified successfully",
	})
}

// GetExperiment handles GET /experiment
func (h *ParticipantHandler) GetExperiment(w http.ResponseWriter, r *http.Request) {
	code, ok := h.requireSession(w, r)
	if !ok {
		return
	}

	st, err := h.svc.State(r.Context(), code)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	participant := models.ParticipantView{
		ID:              st.Participant.ID,
		Code:            st.Participant.Code,
		Group:           st.Participant.Group,
		ProgressCounter: st.Progress.Counter,
	}

	if st.Progress.Completed {
		middleware.JSONResponse(w, http.StatusOK, models.ExperimentResponse{
			Status:      models.StatusCompleted,
			Participant: participant,
		})
		return
	}

	videos := make([]models.PlaylistVideoView, len(st.Playlist))
	for i, v := range st.Playlist {
		videos[i] = models.PlaylistVideoView{
			ID:        v.ID,
			URL:       v.URL,
			Group:     v.Group,
			Thumbnail: v.Thumbnail(),
			Order:     v.Order,
		}
	}

	pool := make([]string, 0, st.Progress.PoolSize)
	for _, v := range st.Playlist[:st.Progress.PoolSize] {
		pool = append(pool, v.ID)
	}

	middleware.JSONResponse(w, http.StatusOK, models.ExperimentResponse{
		Status:       models.StatusWatching,
		Participant:  participant,
		Videos:       videos,
		CurrentIndex: st.Progress.Index,
		RankingPool:  pool,
	})
}

// PostExperiment handles POST /experiment
func (h *ParticipantHandler) PostExperiment(w http.ResponseWriter, r *http.Request) {
	code, ok := h.requireSession(w, r)
	if !ok {
		return
	}

	var req models.ExperimentActionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Action != models.ActionIncrementProgress {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Unknown action: "+req.Action)
		return
	}

	next, err := h.svc.Advance(r.Context(), code, req.ExpectedProgress)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.ProgressResponse{
		Success:         true,
		ProgressCounter: next,
	})
}

// SubmitRankings handles POST /experiment/rankings
func (h *ParticipantHandler) SubmitRankings(w http.ResponseWriter, r *http.Request) {
	code, ok := h.requireSession(w, r)
	if !ok {
		return
	}

	var req models.SubmitRankingsRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	ids := make([]string, len(req.Rankings))
	for i, item := range req.Rankings {
		ids[i] = item.Resolve()
	}

	if err := h.svc.SubmitRankings(r.Context(), code, ids); err != nil {
		writeServiceError(w, r, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.SuccessResponse{Success: true})
}

// requireSession writes 401 and clears stale cookies when the request does
// not carry a valid participant session.
func (h *ParticipantHandler) requireSession(w http.ResponseWriter, r *http.Request) (string, bool) {
	code, err := sessionCode(r, h.cfg.SessionSecret)
	if err != nil {
		if !errors.Is(err, errNoSession) {
			slog.Warn("rejected participant session", "error", err, "remote", middleware.GetClientIP(r))
			clearSessionCookies(w, h.cfg)
		}
		middleware.ErrorResponse(w, http.StatusUnauthorized, "No participant code found")
		return "", false
	}
	return code, true
}
