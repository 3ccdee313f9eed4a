// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/danielhkuo/stimulus-rank/experiment"
	"github.com/danielhkuo/stimulus-rank/export"
	"github.com/danielhkuo/stimulus-rank/middleware"
)

type ExportHandler struct {
	svc *experiment.Service
}

func NewExportHandler(svc *experiment.Service) *ExportHandler {
	return &ExportHandler{svc: svc}
}

// ExportResults handles GET /export-results?code=
func (h *ExportHandler) ExportResults(w http.ResponseWriter, r *http.Request) {
	code := strings.TrimSpace(r.URL.Query().Get("code"))
	if code == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "code query parameter is required")
		return
	}

	rows, err := h.svc.Results(r.Context(), code)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	slog.Info("results exported", "code", code, "rows", len(rows),
		"researcher", middleware.ResearcherEmail(r.Context()))

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.Filename(code)+`"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(export.ResultsCSV(rows))); err != nil {
		slog.Error("failed to write export", "code", code, "error", err)
	}
}
