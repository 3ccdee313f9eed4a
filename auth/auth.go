// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrInvalidSession     = errors.New("invalid session")
	ErrInvalidToken       = errors.New("invalid token format")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// codeAlphabet leaves out 0/O and 1/I so codes survive being read aloud.
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// CodeLength is the number of characters in a generated participant code
const CodeLength = 8

// GenerateID creates a random hex ID of the specified byte length
func GenerateID(byteLen int) (string, error) {
	b := make([]byte, byteLen)
	_, err := rand.Read(b)
	if err != nil {
		return "", fmt.Errorf("failed to generate random ID: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// NewRowID returns a primary key for a new database row.
func NewRowID() string {
	return uuid.NewString()
}

// GenerateParticipantCode creates a random code for handing out to a participant.
func GenerateParticipantCode() (string, error) {
	b := make([]byte, CodeLength)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate participant code: %w", err)
	}
	out := make([]byte, CodeLength)
	for i, v := range b {
		// 256 is a multiple of 32, so the modulo is unbiased
		out[i] = codeAlphabet[int(v)%len(codeAlphabet)]
	}
	return string(out), nil
}

// NewSessionToken issues a session token bound to a participant code.
// The token is "<session uuid>.<hmac>" so a cookie holding a different code
// will not validate against it.
func NewSessionToken(code, secret string) string {
	sessionID := uuid.NewString()
	return sessionID + "." + signSession(code, sessionID, secret)
}

// ValidateSessionToken checks that token was issued for code.
func ValidateSessionToken(code, token, secret string) error {
	sessionID, sig, ok := strings.Cut(token, ".")
	if !ok || sessionID == "" || sig == "" {
		return ErrInvalidSession
	}
	if _, err := uuid.Parse(sessionID); err != nil {
		return ErrInvalidSession
	}
	expected := signSession(code, sessionID, secret)
	if !hmac.Equal([]byte(sig), []byte(expected)) {
		return ErrInvalidSession
	}
	return nil
}

func signSession(code, sessionID, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(code))
	h.Write([]byte{0})
	h.Write([]byte(sessionID))
	sum := h.Sum(nil)
	// Use URL-safe base64 and trim padding for cookie-friendly values
	return strings.TrimRight(base64.URLEncoding.EncodeToString(sum), "=")
}
