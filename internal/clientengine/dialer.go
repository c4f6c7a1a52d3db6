package clientengine

import (
	"context"
	"fmt"
	"net/url"

	"github.com/gorilla/websocket"

	domain "olaf/internal/domain"
	"olaf/internal/wsconn"
)

// Dialer opens the client-facing WebSocket connection to a home
// server. Production code uses GorillaDialer; tests inject a fake.
type Dialer interface {
	Dial(ctx context.Context, addr domain.Address) (domain.Conn, error)
}

// GorillaDialer dials ws://<addr>/client using gorilla/websocket, the
// client-side counterpart of neighbourhood.GorillaDialer.
type GorillaDialer struct {
	Dialer websocket.Dialer
}

// Dial implements Dialer.
func (d GorillaDialer) Dial(ctx context.Context, addr domain.Address) (domain.Conn, error) {
	u := url.URL{Scheme: "ws", Host: addr.String(), Path: "/client"}
	ws, _, err := d.Dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("clientengine: dial %s: %w", addr, err)
	}
	return wsconn.New(ws), nil
}
