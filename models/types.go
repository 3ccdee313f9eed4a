// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import "time"

// Experimental arms
const (
	GroupOne = 1
	GroupTwo = 2
)

// Demographic tags used by the stratified playlist policy
const (
	SexMale   = "m"
	SexFemale = "f"

	NarLevelHigh = "high"
	NarLevelLow  = "low"
)

// Experiment status values
const (
	StatusWatching  = "watching"
	StatusCompleted = "completed"
)

// Participant actions
const (
	ActionIncrementProgress = "increment_progress"
)

// Request types

type VerifyCodeRequest struct {
	Code string `json:"code"`
}

type ExperimentActionRequest struct {
	Action string `json:"action"`
	// ExpectedProgress is the counter value the client last saw. Optional.
	ExpectedProgress *int `json:"expected_progress,omitempty"`
}

// RankingItem accepts either {"video_id": ...} or {"id": ...}.
type RankingItem struct {
	VideoID string `json:"video_id"`
	ID      string `json:"id"`
}

// Resolve returns the referenced video id.
func (r RankingItem) Resolve() string {
	if r.VideoID != "" {
		return r.VideoID
	}
	return r.ID
}

type SubmitRankingsRequest struct {
	Rankings []RankingItem `json:"rankings"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type CreateCodeRequest struct {
	Group int `json:"group"`
}

type VideoRequest struct {
	Title        string `json:"title"`
	URL          string `json:"url"`
	Group        int    `json:"group"`
	Sex          string `json:"sex,omitempty"`
	NarLevel     string `json:"nar_level,omitempty"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
}

// Response types

type MessageResponse struct {
	Message string `json:"message"`
}

type SuccessResponse struct {
	Success bool `json:"success"`
}

type ProgressResponse struct {
	Success         bool `json:"success"`
	ProgressCounter int  `json:"progress_counter"`
}

type ParticipantView struct {
	ID              string `json:"id"`
	Code            string `json:"code"`
	Group           int    `json:"group"`
	ProgressCounter int    `json:"progress_counter"`
}

type PlaylistVideoView struct {
	ID        string `json:"id"`
	URL       string `json:"url"`
	Group     int    `json:"group"`
	Thumbnail string `json:"thumbnail"`
	Order     int    `json:"order"`
}

type ExperimentResponse struct {
	Status       string              `json:"status"`
	Participant  ParticipantView     `json:"participant"`
	Videos       []PlaylistVideoView `json:"videos,omitempty"`
	CurrentIndex int                 `json:"current_index"`
	RankingPool  []string            `json:"ranking_pool,omitempty"`
}

type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type CodesResponse struct {
	Codes []ParticipantCode `json:"codes"`
}

type VideosResponse struct {
	Videos []Video `json:"videos"`
}

type RankingsResponse struct {
	Rankings []Ranking `json:"rankings"`
}

// Domain types

type ParticipantCode struct {
	ID              string     `json:"id"`
	Code            string     `json:"code"`
	Group           int        `json:"group"`
	IsUsed          bool       `json:"is_used"`
	IsActive        bool       `json:"is_active"`
	ProgressCounter int        `json:"progress_counter"`
	UsedAt          *time.Time `json:"used_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

type Video struct {
	ID                string    `json:"id"`
	Title             string    `json:"title"`
	URL               string    `json:"url"`
	Group             int       `json:"group"`
	Sex               string    `json:"sex,omitempty"`
	NarLevel          string    `json:"nar_level,omitempty"`
	ThumbnailURL      string    `json:"thumbnail_url,omitempty"`
	ThumbnailProxyURL string    `json:"thumbnail_proxy_url,omitempty"`
	IsActive          bool      `json:"is_active"`
	CreatedAt         time.Time `json:"created_at"`
}

// Thumbnail prefers the proxied URL when one was derived.
func (v Video) Thumbnail() string {
	if v.ThumbnailProxyURL != "" {
		return v.ThumbnailProxyURL
	}
	return v.ThumbnailURL
}

// PlaylistVideo is a video together with its 1-based playback position.
type PlaylistVideo struct {
	Video
	Order int `json:"order"`
}

type Ranking struct {
	ParticipantID string `json:"participant_id"`
	VideoID       string `json:"video_id"`
	Rank          int    `json:"rank"`
}

// ResultRow is one exported line: a ranked video with its metadata.
type ResultRow struct {
	Title    string
	NarLevel string
	Sex      string
	URL      string
	Rank     int
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
