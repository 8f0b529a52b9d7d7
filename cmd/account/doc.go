// Package account defines playtube's account record and its persistence
// boundary.
//
// The session core consumes the Store interface; it never reaches into
// storage directly. The single stored refresh token per account is the only
// shared mutable field, and every rotation or revocation goes through the
// store's compare-and-set methods.
package account
