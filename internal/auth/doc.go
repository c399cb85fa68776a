// Package auth provides optional bearer-token authentication for the HTTP API.
//
// The bridge listens on loopback by default and needs no authentication.
// When auth.jwt_secret is configured, every /api/ request must carry
// "Authorization: Bearer <jwt>" where the token is HS256-signed with that
// secret, has issuer "gemini-bridge", an unexpired "exp", and a non-empty
// "sub". Tokens are minted with the CLI's token command:
//
//	gemini-bridge token --sub desktop-ui --ttl 720h
//
// The subject is attached to the request context and can be read with
// SubjectFrom. There is no principal store; any valid token is accepted.
package auth
