// Package clientengine implements C6: the client side of the protocol.
// It owns the client's identity, the WebSocket link to its home
// server, the cached client directory, and the outbound/inbound chat
// paths. The local HTTP facade (C7) drives it; it never talks to a UI
// directly.
package clientengine
