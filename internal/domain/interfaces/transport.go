package interfaces

// Conn is the minimal duplex message transport both client-facing and
// peer-facing connections implement, backed by internal/wsconn's
// gorilla/websocket wrapper. Framing is a single text message per
// ReadMessage/WriteMessage call, matching the envelope-per-frame wire
// format (spec.md §2).
type Conn interface {
	ReadMessage() ([]byte, error)
	WriteMessage(b []byte) error
	Close() error
	RemoteAddr() string
}
