// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/danielhkuo/stimulus-rank/auth"
	"github.com/danielhkuo/stimulus-rank/cliparse"
)

// Participant session cookies
const (
	CodeCookie    = "participant_code"
	SessionCookie = "session_id"
)

var errNoSession = errors.New("no participant session")

// setSessionCookies binds code to the browser for cfg.SessionTTL.
func setSessionCookies(w http.ResponseWriter, cfg cliparse.Config, code string) {
	token := auth.NewSessionToken(code, cfg.SessionSecret)
	expires := time.Now().Add(cfg.SessionTTL)
	for name, value := range map[string]string{CodeCookie: code, SessionCookie: token} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    value,
			Path:     "/",
			Expires:  expires,
			MaxAge:   int(cfg.SessionTTL.Seconds()),
			HttpOnly: true,
			Secure:   cfg.CookieSecure,
			SameSite: http.SameSiteLaxMode,
		})
	}
}

func clearSessionCookies(w http.ResponseWriter, cfg cliparse.Config) {
	for _, name := range []string{CodeCookie, SessionCookie} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   cfg.CookieSecure,
			SameSite: http.SameSiteLaxMode,
		})
	}
}

// sessionCode returns the participant code carried by the request, after
// checking that the session token was issued for that code.
func sessionCode(r *http.Request, secret string) (string, error) {
	codeCookie, err := r.Cookie(CodeCookie)
	if err != nil || codeCookie.Value == "" {
		return "", errNoSession
	}
	sessionCookie, err := r.Cookie(SessionCookie)
	if err != nil || sessionCookie.Value == "" {
		return "", errNoSession
	}
	if err := auth.ValidateSessionToken(codeCookie.Value, sessionCookie.Value, secret); err != nil {
		return "", err
	}
	return codeCookie.Value, nil
}
