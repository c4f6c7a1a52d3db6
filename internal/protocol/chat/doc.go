// Package chat builds and opens the end-to-end encrypted chat payload
// carried inside a signed_data envelope (spec.md §3/§4.4).
//
// Each message gets a fresh AES-256-GCM key and 16-byte IV. The key is
// RSA-OAEP-wrapped once per recipient; SymmKeys is ordered by the
// sender's recipient iteration order within each destination server
// group (spec.md §9). A recipient tries every entry in SymmKeys in
// order and keeps the first one that both unwraps and decrypts to a
// plaintext naming them as a participant.
package chat
