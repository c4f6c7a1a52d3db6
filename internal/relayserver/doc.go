// Package relayserver implements the relay's core: the client-facing
// and peer-facing WebSocket listeners, the local client table, and the
// fan-out/forward rules of spec.md §4.4. The local client table is
// guarded by one coarse lock; network I/O never happens while it is
// held. The peer table lives in internal/neighbourhood, which does its
// own locking.
package relayserver
