package relayserver

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"olaf/internal/crypto"
	domain "olaf/internal/domain"
	"olaf/internal/protocol/envelope"
	"olaf/internal/wsconn"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ServeClients upgrades r to a WebSocket and runs the client-facing
// connection lifecycle (spec.md §4.4's "On client connect").
func (s *Server) ServeClients(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.Log.WithError(err).Warn("client websocket upgrade failed")
		return
	}
	conn := wsconn.New(ws)
	s.handleClientConn(conn)
}

// ServePeers upgrades r to a WebSocket and runs the peer-facing
// connection lifecycle (spec.md §4.4's "On peer connect").
func (s *Server) ServePeers(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.Log.WithError(err).Warn("peer websocket upgrade failed")
		return
	}
	conn := wsconn.New(ws)
	s.handlePeerConn(conn)
}

func (s *Server) handleClientConn(conn domain.Conn) {
	defer conn.Close()

	raw, err := readWithTimeout(conn, HandshakeTimeout)
	if err != nil {
		s.Log.WithError(err).Debug("client handshake: no initial frame")
		return
	}
	s.logFrame("recv", raw)

	env, err := envelope.Parse(raw)
	if err != nil {
		s.Log.WithError(err).Debug("client handshake: unparseable frame")
		return
	}
	it, err := envelope.InnerType(env)
	if err != nil || it != domain.InnerHello {
		s.Log.Debug("client handshake: expected hello")
		return
	}
	var hello domain.HelloPayload
	if err := json.Unmarshal(env.Data, &hello); err != nil {
		s.Log.WithError(err).Debug("client handshake: bad hello payload")
		return
	}
	pub, err := crypto.DecodePublicPEM([]byte(hello.PublicKey))
	if err != nil {
		s.Log.WithError(err).Debug("client handshake: bad public key PEM")
		return
	}
	fp, err := crypto.Fingerprint(pub)
	if err != nil {
		s.Log.WithError(err).Warn("client handshake: fingerprint failed")
		return
	}
	fingerprint := domain.Fingerprint(fp)

	if err := envelope.Verify(env, pub, 0); err != nil {
		s.Log.WithFields(map[string]any{"client": fingerprint}).Debug("client handshake: bad signature")
		return
	}

	s.mu.Lock()
	if _, already := s.clients[fingerprint]; already {
		s.mu.Unlock()
		s.Log.WithField("client", fingerprint).Debug("client handshake: already connected locally")
		return
	}
	handle := &clientHandle{fingerprint: fingerprint, conn: conn, pubKey: pub, lastCounter: env.Counter}
	s.clients[fingerprint] = handle
	clientsConnected.Inc()
	s.mu.Unlock()

	if s.ClientKeys != nil {
		_ = s.ClientKeys.SaveClientKey(fingerprint, []byte(hello.PublicKey))
	}

	s.broadcastClientUpdate()

	defer func() {
		s.mu.Lock()
		delete(s.clients, fingerprint)
		clientsConnected.Dec()
		s.mu.Unlock()
		s.broadcastClientUpdate()
	}()

	s.clientReadLoop(handle)
}

func (s *Server) clientReadLoop(h *clientHandle) {
	for {
		raw, err := h.conn.ReadMessage()
		if err != nil {
			return
		}
		s.logFrame("recv", raw)
		s.handleClientFrame(h, raw)
	}
}

func (s *Server) handlePeerConn(conn domain.Conn) {
	defer conn.Close()

	raw, err := readWithTimeout(conn, HandshakeTimeout)
	if err != nil {
		s.Log.WithError(err).Debug("peer handshake: no initial frame")
		return
	}
	s.logFrame("recv", raw)

	env, err := envelope.Parse(raw)
	if err != nil {
		return
	}
	it, err := envelope.InnerType(env)
	if err != nil || it != domain.InnerServerHello {
		s.Log.Debug("peer handshake: expected server_hello")
		return
	}
	var hello domain.ServerHelloPayload
	if err := json.Unmarshal(env.Data, &hello); err != nil {
		return
	}
	addr := domain.Address(hello.Sender)

	ok, err := s.Registry.ResolveKey(addr)
	if err != nil {
		s.Log.WithError(err).Warn("peer handshake: failed to read neighbour key")
		return
	}
	if !ok {
		s.Log.WithField("peer", addr).Warn("peer handshake: no registered key, rejecting")
		return
	}
	if err := s.Registry.VerifyInbound(addr, env); err != nil {
		s.Log.WithFields(map[string]any{"peer": addr, "error": err}).Warn("peer handshake: bad signature")
		return
	}

	pub, ok := s.Registry.PublicKey(addr)
	if !ok {
		return
	}
	s.Registry.Attach(addr, conn, pub)
	defer s.Registry.Detach(addr)

	s.sendClientUpdateRequest(addr, conn)

	for {
		raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		s.logFrame("recv", raw)
		s.handlePeerFrame(addr, raw)
	}
}

func readWithTimeout(conn domain.Conn, d time.Duration) ([]byte, error) {
	type result struct {
		raw []byte
		err error
	}
	ch := make(chan result, 1)
	go func() {
		raw, err := conn.ReadMessage()
		ch <- result{raw, err}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()

	select {
	case res := <-ch:
		return res.raw, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
