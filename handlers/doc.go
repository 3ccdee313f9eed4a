// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the stimulus-rank API.

# Handler Types

  - ParticipantHandler: code verification, experiment state, progress and ranking submission
  - ExportHandler: CSV export of one participant's rankings
  - ResearcherHandler: researcher login plus code and video administration

Participant and export handlers sit on an experiment.Service; the researcher
handler talks to the store directly:

	svc := experiment.NewService(ro, rw, policy)
	participantHandler := handlers.NewParticipantHandler(svc, cfg)

# Sessions

A verified participant carries two HTTP-only cookies: participant_code and
session_id, a random token signed with HMAC over the code. A missing or
mismatched pair answers 401 and clears both cookies.

# Error Mapping

Service errors are mapped to status codes in one place (writeServiceError).
Storage failures are logged with the participant id and reported as a
generic 500.
*/
package handlers
