// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the stimulus-rank API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints. It takes
two database handles, one per capability, which may be the same handle:

	mux, err := router.NewRouter(restrictedDB, privilegedDB, cfg)

# Endpoints

Health:

	GET /health

Participant flow (session cookies set by /verify-code):

	POST /verify-code          - Check a code and start a session
	GET  /experiment           - Playlist, position and ranking pool
	POST /experiment           - Advance progress by one video
	POST /experiment/rankings  - Submit the final ranking

Researcher (token from /researcher/login, cookie or bearer header):

	POST   /researcher/login
	POST   /researcher/logout
	GET    /researcher/codes
	POST   /researcher/codes
	DELETE /researcher/codes/{id}
	GET    /researcher/codes/{id}/rankings
	GET    /researcher/videos
	POST   /researcher/videos
	PUT    /researcher/videos/{id}
	DELETE /researcher/videos/{id}
	GET    /export-results?code=
*/
package router
