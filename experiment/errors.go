// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package experiment

import (
	"errors"
	"fmt"
	"log/slog"
)

// Authentication failures
var (
	ErrCodeNotFound = errors.New("participant code not found")
	ErrCodeUsed     = errors.New("participant code has already been used")
)

// Validation failures
var (
	ErrInvalidCode    = errors.New("participant code is required")
	ErrEmptyRankings  = errors.New("rankings must not be empty")
	ErrInvalidRanking = errors.New("invalid ranking")
)

// Missing data
var (
	ErrNoVideos            = errors.New("no videos available for this group")
	ErrNoRankings          = errors.New("no rankings found for this participant")
	ErrInsufficientStimuli = errors.New("insufficient stimuli for stratified playlist")
)

// Progress conflicts
var (
	ErrStaleProgress    = errors.New("progress has moved since it was read")
	ErrAlreadyCompleted = errors.New("experiment already completed")
)

// ErrPersistence wraps every storage failure.
var ErrPersistence = errors.New("storage failure")

// AuthResult classifies a submitted participant code.
type AuthResult int

const (
	AuthNotFound AuthResult = iota
	AuthAlreadyUsed
	AuthOK
)

func (r AuthResult) String() string {
	switch r {
	case AuthNotFound:
		return "NOT_FOUND"
	case AuthAlreadyUsed:
		return "ALREADY_USED"
	case AuthOK:
		return "OK"
	}
	return fmt.Sprintf("AuthResult(%d)", int(r))
}

// persistence logs a storage failure with its context and wraps it.
func persistence(op, participantID string, err error) error {
	slog.Error("storage operation failed", "op", op, "participant_id", participantID, "error", err)
	return fmt.Errorf("%w: %s: %w", ErrPersistence, op, err)
}
