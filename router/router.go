// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"database/sql"
	"net/http"

	"github.com/danielhkuo/stimulus-rank/cliparse"
	"github.com/danielhkuo/stimulus-rank/experiment"
	"github.com/danielhkuo/stimulus-rank/handlers"
	"github.com/danielhkuo/stimulus-rank/middleware"
	"github.com/danielhkuo/stimulus-rank/store"
)

// NewRouter wires every endpoint. restricted serves reads; privileged serves
// playlist creation, progress, finalization and researcher writes. Both may
// be the same handle.
func NewRouter(restricted, privileged *sql.DB, cfg cliparse.Config) (*http.ServeMux, error) {
	policy, err := experiment.ParsePolicy(cfg.PlaylistPolicy)
	if err != nil {
		return nil, err
	}

	ro := store.NewRestricted(restricted)
	rw := store.NewPrivileged(privileged)
	svc := experiment.NewService(ro, rw, policy)

	mux := http.NewServeMux()

	// Initialize handlers
	participantHandler := handlers.NewParticipantHandler(svc, cfg)
	exportHandler := handlers.NewExportHandler(svc)
	researcherHandler := handlers.NewResearcherHandler(ro, rw, cfg)

	researcher := func(h http.HandlerFunc) http.HandlerFunc {
		return middleware.WithLogging(middleware.RequireResearcher(cfg.JWTSecret, h))
	}

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Participant flow (session cookies)
	mux.HandleFunc("POST /verify-code", middleware.WithLogging(participantHandler.VerifyCode))
	mux.HandleFunc("GET /experiment", middleware.WithLogging(participantHandler.GetExperiment))
	mux.HandleFunc("POST /experiment", middleware.WithLogging(participantHandler.PostExperiment))
	mux.HandleFunc("POST /experiment/rankings", middleware.WithLogging(participantHandler.SubmitRankings))

	// Results export
	mux.HandleFunc("GET /export-results", researcher(exportHandler.ExportResults))

	// Researcher session
	mux.HandleFunc("POST /researcher/login", middleware.WithLogging(researcherHandler.Login))
	mux.HandleFunc("POST /researcher/logout", middleware.WithLogging(researcherHandler.Logout))

	// Researcher admin
	mux.HandleFunc("GET /researcher/codes", researcher(researcherHandler.ListCodes))
	mux.HandleFunc("POST /researcher/codes", researcher(researcherHandler.CreateCode))
	mux.HandleFunc("DELETE /researcher/codes/{id}", researcher(researcherHandler.DeleteCode))
	mux.HandleFunc("GET /researcher/codes/{id}/rankings", researcher(researcherHandler.ListCodeRankings))
	mux.HandleFunc("GET /researcher/videos", researcher(researcherHandler.ListVideos))
	mux.HandleFunc("POST /researcher/videos", researcher(researcherHandler.CreateVideo))
	mux.HandleFunc("PUT /researcher/videos/{id}", researcher(researcherHandler.UpdateVideo))
	mux.HandleFunc("DELETE /researcher/videos/{id}", researcher(researcherHandler.DeleteVideo))

	// Root endpoint
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("stimulus-rank API v1"))
	})

	return mux, nil
}
