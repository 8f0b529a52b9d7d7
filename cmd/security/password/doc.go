// Package password implements one-way credential hashing for playtube accounts.
//
// It uses Argon2id with a random per-call salt and verifies in constant time.
// The encoded form embeds the cost parameters, so hashes produced under older
// defaults remain verifiable after the defaults are raised.
package password
