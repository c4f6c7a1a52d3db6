// Package store provides file-based persistence for the relay server
// and client: RSA identity keys, the neighbours directory, cached
// client public keys, and the client's local chat log.
//
// All methods are concurrency-safe via internal locking. Key and PEM
// files are written through a temp-file-then-rename so a crash
// mid-write never leaves a torn file on disk; the chat log
// (messages.jsonl) is appended to in place.
package store
