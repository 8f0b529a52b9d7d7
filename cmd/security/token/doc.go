// Package token issues and verifies the signed tokens that carry playtube
// session identity: short-lived access tokens and longer-lived refresh tokens.
//
// Both kinds share the same JWT shape but are signed with distinct secrets,
// so an access token can never be replayed as a refresh token.
package token
