// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/danielhkuo/stimulus-rank/auth"
	"github.com/danielhkuo/stimulus-rank/cliparse"
	"github.com/danielhkuo/stimulus-rank/experiment"
	"github.com/danielhkuo/stimulus-rank/middleware"
	"github.com/danielhkuo/stimulus-rank/models"
	"github.com/danielhkuo/stimulus-rank/store"
)

type ResearcherHandler struct {
	ro  *store.Restricted
	rw  *store.Privileged
	cfg cliparse.Config
}

func NewResearcherHandler(ro *store.Restricted, rw *store.Privileged, cfg cliparse.Config) *ResearcherHandler {
	return &ResearcherHandler{ro: ro, rw: rw, cfg: cfg}
}

// Login handles POST /researcher/login
func (h *ResearcherHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if err := auth.CheckResearcherLogin(req.Email, req.Password, h.cfg.ResearcherEmail, h.cfg.ResearcherPasswordHash); err != nil {
		slog.Warn("researcher login failed", "email", req.Email, "remote", middleware.GetClientIP(r))
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	token, expiresAt, err := auth.SignResearcherToken(h.cfg.ResearcherEmail, h.cfg.JWTSecret, h.cfg.ResearcherTTL, time.Now())
	if err != nil {
		slog.Error("failed to sign researcher token", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to log in")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.ResearcherCookie,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	slog.Info("researcher logged in", "email", h.cfg.ResearcherEmail)

	middleware.JSONResponse(w, http.StatusOK, models.LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
	})
}

// Logout handles POST /researcher/logout
func (h *ResearcherHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.ResearcherCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	middleware.JSONResponse(w, http.StatusOK, models.SuccessResponse{Success: true})
}

// ListCodes handles GET /researcher/codes
func (h *ResearcherHandler) ListCodes(w http.ResponseWriter, r *http.Request) {
	codes, err := h.ro.ListActiveCodes(r.Context())
	if err != nil {
		slog.Error("failed to list codes", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.CodesResponse{Codes: codes})
}

// CreateCode handles POST /researcher/codes
func (h *ResearcherHandler) CreateCode(w http.ResponseWriter, r *http.Request) {
	var req models.CreateCodeRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if !validGroup(req.Group) {
		middleware.ErrorResponse(w, http.StatusBadRequest, "group must be 1 or 2")
		return
	}

	c, err := experiment.IssueCode(r.Context(), h.rw, req.Group)
	if err != nil {
		slog.Error("failed to create code", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create code")
		return
	}

	slog.Info("participant code created", "participant_id", c.ID, "group", c.Group,
		"researcher", middleware.ResearcherEmail(r.Context()))

	middleware.JSONResponse(w, http.StatusCreated, c)
}

// DeleteCode handles DELETE /researcher/codes/{id}
func (h *ResearcherHandler) DeleteCode(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "id is required")
		return
	}

	err := h.rw.DeactivateCode(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		middleware.ErrorResponse(w, http.StatusNotFound, "Code not found")
		return
	}
	if err != nil {
		slog.Error("failed to deactivate code", "participant_id", id, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	slog.Info("participant code deactivated", "participant_id", id)
	middleware.JSONResponse(w, http.StatusOK, models.SuccessResponse{Success: true})
}

// ListCodeRankings handles GET /researcher/codes/{id}/rankings
func (h *ResearcherHandler) ListCodeRankings(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "id is required")
		return
	}

	rankings, err := h.ro.ListRankings(r.Context(), id)
	if err != nil {
		slog.Error("failed to list rankings", "participant_id", id, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.RankingsResponse{Rankings: rankings})
}

// ListVideos handles GET /researcher/videos
func (h *ResearcherHandler) ListVideos(w http.ResponseWriter, r *http.Request) {
	videos, err := h.ro.ListActiveVideos(r.Context())
	if err != nil {
		slog.Error("failed to list videos", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.VideosResponse{Videos: videos})
}

// CreateVideo handles POST /researcher/videos
func (h *ResearcherHandler) CreateVideo(w http.ResponseWriter, r *http.Request) {
	var req models.VideoRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	v, err := videoFromRequest(req, h.cfg.ThumbnailProxyPath)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	v.ID = auth.NewRowID()
	v.IsActive = true
	v.CreatedAt = time.Now().UTC()

	err = h.rw.CreateVideo(r.Context(), v)
	if errors.Is(err, store.ErrDuplicate) {
		middleware.ErrorResponse(w, http.StatusConflict, "A video with this title or URL already exists")
		return
	}
	if err != nil {
		slog.Error("failed to create video", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create video")
		return
	}

	slog.Info("video created", "video_id", v.ID, "group", v.Group)
	middleware.JSONResponse(w, http.StatusCreated, v)
}

// UpdateVideo handles PUT /researcher/videos/{id}
func (h *ResearcherHandler) UpdateVideo(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "id is required")
		return
	}

	var req models.VideoRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	v, err := videoFromRequest(req, h.cfg.ThumbnailProxyPath)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	v.ID = id

	err = h.rw.UpdateVideo(r.Context(), v)
	switch {
	case errors.Is(err, store.ErrNotFound):
		middleware.ErrorResponse(w, http.StatusNotFound, "Video not found")
		return
	case errors.Is(err, store.ErrDuplicate):
		middleware.ErrorResponse(w, http.StatusConflict, "A video with this title or URL already exists")
		return
	case err != nil:
		slog.Error("failed to update video", "video_id", id, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to update video")
		return
	}

	updated, err := h.ro.GetActiveVideo(r.Context(), id)
	if err != nil {
		slog.Error("failed to reload video", "video_id", id, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	slog.Info("video updated", "video_id", id)
	middleware.JSONResponse(w, http.StatusOK, updated)
}

// DeleteVideo handles DELETE /researcher/videos/{id}
func (h *ResearcherHandler) DeleteVideo(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "id is required")
		return
	}

	err := h.rw.DeactivateVideo(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		middleware.ErrorResponse(w, http.StatusNotFound, "Video not found")
		return
	}
	if err != nil {
		slog.Error("failed to deactivate video", "video_id", id, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	slog.Info("video deactivated", "video_id", id)
	middleware.JSONResponse(w, http.StatusOK, models.SuccessResponse{Success: true})
}

func validGroup(g int) bool {
	return g == models.GroupOne || g == models.GroupTwo
}

// videoFromRequest validates a catalog entry and derives its proxied thumbnail.
func videoFromRequest(req models.VideoRequest, proxyPath string) (models.Video, error) {
	v := models.Video{
		Title:        strings.TrimSpace(req.Title),
		URL:          strings.TrimSpace(req.URL),
		Group:        req.Group,
		Sex:          strings.ToLower(strings.TrimSpace(req.Sex)),
		NarLevel:     strings.ToLower(strings.TrimSpace(req.NarLevel)),
		ThumbnailURL: strings.TrimSpace(req.ThumbnailURL),
	}

	if v.Title == "" {
		return models.Video{}, errors.New("title is required")
	}
	if !isHTTPURL(v.URL) {
		return models.Video{}, errors.New("url must be an absolute http(s) URL")
	}
	if !validGroup(v.Group) {
		return models.Video{}, errors.New("group must be 1 or 2")
	}
	switch v.Sex {
	case "", models.SexMale, models.SexFemale:
	default:
		return models.Video{}, errors.New("sex must be m or f")
	}
	switch v.NarLevel {
	case "", models.NarLevelHigh, models.NarLevelLow:
	default:
		return models.Video{}, errors.New("nar_level must be high or low")
	}
	if v.ThumbnailURL != "" {
		if !isHTTPURL(v.ThumbnailURL) {
			return models.Video{}, errors.New("thumbnail_url must be an absolute http(s) URL")
		}
		v.ThumbnailProxyURL = DriveProxyURL(v.ThumbnailURL, proxyPath)
	}
	return v, nil
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// DriveProxyURL rewrites a Google Drive sharing link into a URL on the image
// proxy. Recognized forms are /file/d/ID/..., /open?id=ID, and /uc?id=ID.
// Anything else returns "".
func DriveProxyURL(raw, proxyPath string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host != "drive.google.com" {
		return ""
	}

	var fileID string
	switch {
	case strings.HasPrefix(u.Path, "/file/d/"):
		fileID, _, _ = strings.Cut(strings.TrimPrefix(u.Path, "/file/d/"), "/")
	case u.Path == "/open" || u.Path == "/uc":
		fileID = u.Query().Get("id")
	}
	if !validDriveID(fileID) {
		return ""
	}

	direct := "https://drive.google.com/uc?export=view&id=" + fileID
	return proxyPath + "?url=" + url.QueryEscape(direct)
}

func validDriveID(id string) bool {
	if id == "" {
		return false
	}
	for _, c := range id {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			return false
		}
	}
	return true
}
