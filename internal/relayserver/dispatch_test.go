package relayserver

import (
	"encoding/json"
	"io"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"

	"olaf/internal/crypto"
	domain "olaf/internal/domain"
	"olaf/internal/neighbourhood"
	"olaf/internal/protocol/envelope"
)

type fakeConn struct {
	mu   sync.Mutex
	sent [][]byte
}

func (c *fakeConn) ReadMessage() ([]byte, error) { return nil, io.EOF }
func (c *fakeConn) WriteMessage(b []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, append([]byte(nil), b...))
	return nil
}
func (c *fakeConn) Close() error       { return nil }
func (c *fakeConn) RemoteAddr() string { return "fake" }

func newTestServer(t *testing.T) *Server {
	t.Helper()
	priv, err := crypto.GenerateRSA()
	if err != nil {
		t.Fatalf("GenerateRSA: %v", err)
	}
	pubPEM, err := crypto.EncodePublicPEM(&priv.PublicKey)
	if err != nil {
		t.Fatalf("EncodePublicPEM: %v", err)
	}
	log := logrus.New()
	log.SetOutput(io.Discard)
	return New("self:9000", priv, pubPEM, nil, nil, log)
}

func addClient(s *Server, fp domain.Fingerprint) *clientHandle {
	conn := &fakeConn{}
	priv, err := crypto.GenerateRSA()
	if err != nil {
		panic(err)
	}
	h := &clientHandle{fingerprint: fp, conn: conn, pubKey: &priv.PublicKey}
	s.mu.Lock()
	s.clients[fp] = h
	s.mu.Unlock()
	return h
}

func TestFanOutLocalExcludesSender(t *testing.T) {
	s := newTestServer(t)
	a := addClient(s, "alice")
	b := addClient(s, "bob")

	s.fanOutLocal([]byte("frame"), "alice")

	aConn := a.conn.(*fakeConn)
	bConn := b.conn.(*fakeConn)
	if len(aConn.sent) != 0 {
		t.Fatal("sender should not receive its own frame")
	}
	if len(bConn.sent) != 1 {
		t.Fatalf("want 1 frame delivered to bob, got %d", len(bConn.sent))
	}
}

func TestFanOutLocalIncludesEveryoneWhenExcludeEmpty(t *testing.T) {
	s := newTestServer(t)
	a := addClient(s, "alice")
	b := addClient(s, "bob")

	s.fanOutLocal([]byte("frame"), "")

	if len(a.conn.(*fakeConn).sent) != 1 || len(b.conn.(*fakeConn).sent) != 1 {
		t.Fatal("expected both clients to receive the frame")
	}
}

func TestReplyClientListIncludesSelfFirst(t *testing.T) {
	s := newTestServer(t)
	addClient(s, "alice")

	h := addClient(s, "bob")
	s.replyClientList(h)

	conn := h.conn.(*fakeConn)
	if len(conn.sent) != 1 {
		t.Fatalf("want 1 reply, got %d", len(conn.sent))
	}

	var msg domain.ClientListMessage
	if err := json.Unmarshal(conn.sent[0], &msg); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if msg.Type != domain.InnerClientList {
		t.Fatalf("want client_list type, got %q", msg.Type)
	}
	if len(msg.Servers) != 1 || msg.Servers[0].Address != "self:9000" {
		t.Fatalf("unexpected servers list: %+v", msg.Servers)
	}
	if len(msg.Servers[0].Clients) != 2 {
		t.Fatalf("want 2 local client PEM keys, got %d", len(msg.Servers[0].Clients))
	}
}

// queuedConn is a domain.Conn whose reads come from a preloaded
// channel, used to drive handlePeerConn through a scripted handshake.
type queuedConn struct {
	mu    sync.Mutex
	sent  [][]byte
	reads chan []byte
}

func newQueuedConn() *queuedConn { return &queuedConn{reads: make(chan []byte, 4)} }

func (c *queuedConn) ReadMessage() ([]byte, error) {
	b, ok := <-c.reads
	if !ok {
		return nil, io.EOF
	}
	return b, nil
}

func (c *queuedConn) WriteMessage(b []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, append([]byte(nil), b...))
	return nil
}
func (c *queuedConn) Close() error       { return nil }
func (c *queuedConn) RemoteAddr() string { return "fake" }

func (c *queuedConn) push(b []byte) { c.reads <- b }

type fakeNeighbourDir struct {
	keys map[domain.Address][]byte
}

func (d *fakeNeighbourDir) LoadNeighbourKey(addr domain.Address) ([]byte, bool, error) {
	b, ok := d.keys[addr]
	return b, ok, nil
}
func (d *fakeNeighbourDir) SaveNeighbourKey(addr domain.Address, pemBytes []byte) error {
	d.keys[addr] = pemBytes
	return nil
}
func (d *fakeNeighbourDir) ListConfigured() []domain.Address { return nil }

// TestHandlePeerConnSendsClientUpdateRequestNotUpdate locks in spec.md
// §4.4's "On accept, send client_update_request": the acceptor must
// ask the dialer for its roster, not broadcast its own unsolicited
// client_update.
func TestHandlePeerConnSendsClientUpdateRequestNotUpdate(t *testing.T) {
	s := newTestServer(t)

	peerPriv, err := crypto.GenerateRSA()
	if err != nil {
		t.Fatalf("GenerateRSA: %v", err)
	}
	peerPEM, err := crypto.EncodePublicPEM(&peerPriv.PublicKey)
	if err != nil {
		t.Fatalf("EncodePublicPEM: %v", err)
	}
	peerAddr := domain.Address("peer:9001")

	dir := &fakeNeighbourDir{keys: map[domain.Address][]byte{peerAddr: peerPEM}}
	s.Registry = neighbourhood.NewRegistry(s.Self, s.Priv, dir, nil, s.Log, s.HandlePeerFrame)

	env, err := envelope.Build(domain.ServerHelloPayload{Type: domain.InnerServerHello, Sender: peerAddr.String()}, peerPriv, 1)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	raw, err := envelope.Marshal(env)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	conn := newQueuedConn()
	conn.push(raw)
	close(conn.reads)

	s.handlePeerConn(conn)

	if len(conn.sent) != 1 {
		t.Fatalf("want 1 frame sent to the new peer, got %d", len(conn.sent))
	}

	var probe domain.TypeOnly
	if err := json.Unmarshal(conn.sent[0], &probe); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if probe.Type == domain.InnerClientUpdate {
		t.Fatal("acceptor must not send an unsolicited client_update")
	}

	var sentEnv domain.Envelope
	if err := json.Unmarshal(conn.sent[0], &sentEnv); err != nil {
		t.Fatalf("Unmarshal envelope: %v", err)
	}
	it, err := envelope.InnerType(sentEnv)
	if err != nil {
		t.Fatalf("InnerType: %v", err)
	}
	if it != domain.InnerClientUpdateRequest {
		t.Fatalf("want client_update_request, got %q", it)
	}
}
