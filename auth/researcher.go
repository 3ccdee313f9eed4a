// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"fmt"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const researcherIssuer = "stimulus-rank"

// ResearcherClaims identify a logged-in researcher.
type ResearcherClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// HashPassword returns a bcrypt hash suitable for RESEARCHER_PASSWORD_HASH.
func HashPassword(password string) (string, error) {
	if strings.TrimSpace(password) == "" {
		return "", fmt.Errorf("password must not be empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// CheckResearcherLogin compares submitted credentials against the configured
// researcher account.
func CheckResearcherLogin(email, password, wantEmail, passwordHash string) error {
	if wantEmail == "" || passwordHash == "" {
		return ErrInvalidCredentials
	}
	if !strings.EqualFold(strings.TrimSpace(email), wantEmail) {
		return ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// SignResearcherToken issues an HS256 token for email valid for ttl.
func SignResearcherToken(email, secret string, ttl time.Duration, now time.Time) (string, time.Time, error) {
	jti, err := GenerateID(12)
	if err != nil {
		return "", time.Time{}, err
	}
	expires := now.Add(ttl)
	claims := ResearcherClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Issuer:    researcherIssuer,
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign researcher token: %w", err)
	}
	return signed, expires, nil
}

// ParseResearcherToken validates signature, issuer, and expiry.
func ParseResearcherToken(token, secret string) (*ResearcherClaims, error) {
	parsed, err := jwt.ParseWithClaims(token, &ResearcherClaims{}, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(researcherIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	claims, ok := parsed.Claims.(*ResearcherClaims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
