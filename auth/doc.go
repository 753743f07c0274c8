// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides credential helpers for teams and the auction admin.

# Team Passcodes

Passcodes are never stored. Seeding stores an HMAC-SHA256 digest keyed by
PASSCODE_SALT, and login looks the team up by digest:

	digest := auth.PasscodeDigest(req.Passcode, cfg.PasscodeSalt)

# Team Tokens

A successful login returns a signed token that names its own expiry. The
signing key is derived from TEAM_TOKEN_SECRET (or PASSCODE_SALT when unset)
under a separate label, so it never equals the passcode digest key:

	tokens := auth.NewTokenIssuer(cfg.TokenSecret, cfg.TokenTTL)
	token, expires := tokens.Issue(teamID)

Bid requests present it in X-Team-Token next to X-Team-ID:

	if err := tokens.Validate(teamID, token); err != nil {
	    // 401 Unauthorized; ErrTokenExpired means log in again
	}

Validation uses constant-time comparison.

# Admin Password

The admin password is checked with bcrypt. ADMIN_PASSWORD_HASH is used as
is; a plain ADMIN_PASSWORD is hashed once when the verifier is built:

	v, err := auth.NewAdminVerifier(cfg.AdminPassword, cfg.AdminPasswordHash)
	err = v.Verify(r.Header.Get("X-Admin-Password"))

# IDs

GenerateID returns a random UUID for teams, bids and adjustment rows.
*/
package auth
