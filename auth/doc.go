// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides identifier generation, participant session binding,
and researcher authentication.

# Participant Codes

One-time codes handed to participants are 8 characters drawn from an
alphabet without look-alike characters:

	code, err := auth.GenerateParticipantCode()

# Sessions

After a code is verified the participant receives two cookies: the code
itself and a session token bound to it with HMAC-SHA256:

	token := auth.NewSessionToken(code, secret)
	err := auth.ValidateSessionToken(code, token, secret)

The token is "<uuid>.<signature>". Swapping the code cookie for another code
invalidates the session.

# Researchers

The researcher account is configured with an email and a bcrypt hash:

	hash, err := auth.HashPassword(password)
	err = auth.CheckResearcherLogin(email, password, cfg.ResearcherEmail, hash)

Logins are exchanged for an HS256 JWT:

	token, expiresAt, err := auth.SignResearcherToken(email, secret, ttl, time.Now())
	claims, err := auth.ParseResearcherToken(token, secret)

# ID Generation

	id := auth.NewRowID()        // uuid for database rows
	id, err := auth.GenerateID(12) // random hex
*/
package auth
