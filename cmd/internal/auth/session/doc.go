// Package session implements playtube's credential and session-token core:
// login, refresh rotation with reuse detection, logout, and password change.
//
// The account store holds a single refresh token per account. Rotation and
// revocation go through the store's compare-and-set methods, so two refresh
// calls racing on the same token resolve to exactly one winner.
package session
