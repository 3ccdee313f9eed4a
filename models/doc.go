// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Request Types

  - VerifyCodeRequest: code
  - ExperimentActionRequest: action, expected_progress
  - SubmitRankingsRequest: rankings ([{video_id} or {id}])
  - LoginRequest: email, password
  - CreateCodeRequest: group
  - VideoRequest: title, url, group, sex, nar_level, thumbnail_url

# Response Types

  - ExperimentResponse: status, participant, videos, current_index, ranking_pool
  - ProgressResponse: success, progress_counter
  - LoginResponse: token, expires_at
  - ErrorResponse: error, message

# Domain Types

  - ParticipantCode: one-time code with usage flags and progress counter
  - Video: a stimulus in the catalog
  - PlaylistVideo: a video at a 1-based playback position
  - Ranking: participant-assigned preference (1 = most preferred)
  - ResultRow: one line of an exported result

# Constants

Groups are 1 and 2. Demographic tags:

	SexMale      = "m"
	SexFemale    = "f"
	NarLevelHigh = "high"
	NarLevelLow  = "low"
*/
package models
