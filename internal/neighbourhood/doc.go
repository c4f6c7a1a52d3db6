// Package neighbourhood owns the reconnect state machine for a
// server's configured peer links (spec.md §4.3): Disconnected →
// Connecting → Handshaking → Connected → Disconnected, retried on a
// fixed backoff that never gives up.
package neighbourhood
