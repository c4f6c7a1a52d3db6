package neighbourhood

import (
	"context"
	"fmt"
	"net/url"

	"github.com/gorilla/websocket"

	domain "olaf/internal/domain"
	"olaf/internal/wsconn"
)

// Dialer opens a new connection to a peer's server-facing WebSocket
// listener. Production code uses GorillaDialer; tests inject a fake.
type Dialer interface {
	Dial(ctx context.Context, addr domain.Address) (domain.Conn, error)
}

// GorillaDialer dials ws://<addr>/peer using gorilla/websocket.
type GorillaDialer struct {
	Dialer websocket.Dialer
}

// Dial implements Dialer.
func (d GorillaDialer) Dial(ctx context.Context, addr domain.Address) (domain.Conn, error) {
	u := url.URL{Scheme: "ws", Host: addr.String(), Path: "/peer"}
	ws, _, err := d.Dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("neighbourhood: dial %s: %w", addr, err)
	}
	return wsconn.New(ws), nil
}
