// Package wsconn wraps a gorilla/websocket connection with a
// goroutine-safe write path and a bounded outbound queue, the shape
// both client-facing and peer-facing links in the relay server use
// (spec.md §4.3/§5).
package wsconn
