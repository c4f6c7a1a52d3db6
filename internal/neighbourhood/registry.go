package neighbourhood

import (
	"context"
	"crypto/rsa"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	domain "olaf/internal/domain"
	"olaf/internal/crypto"
	"olaf/internal/protocol/envelope"
)

// BackoffInterval, MaxConsecutiveFailures and HandshakeTimeout fix the
// reconnect discipline spec.md §4.3 requires: a peer link never gives
// up, it only slows its logging after repeated failures.
const (
	BackoffInterval        = 2 * time.Second
	MaxConsecutiveFailures = 5
	HandshakeTimeout       = 5 * time.Second
)

// FrameHandler processes one inbound frame from a connected peer. It
// is invoked for every frame after the handshake, including the one
// that completes Handshaking→Connected.
type FrameHandler func(peerAddr domain.Address, raw []byte)

// Registry owns the reconnect state machine for every configured
// neighbour (spec.md §4.3) and the shared connection handle each peer
// link uses for both directions of traffic.
type Registry struct {
	self   domain.Address
	priv   *rsa.PrivateKey
	dir    domain.NeighbourDirectory
	dialer Dialer
	log    *logrus.Logger
	onFrame FrameHandler

	mu    sync.RWMutex
	peers map[domain.Address]*peerHandle
}

// NewRegistry builds a registry for the given configured peer
// addresses. Callers must call Start to begin the C3 reconnect loops.
func NewRegistry(self domain.Address, priv *rsa.PrivateKey, dir domain.NeighbourDirectory, dialer Dialer, log *logrus.Logger, onFrame FrameHandler) *Registry {
	r := &Registry{self: self, priv: priv, dir: dir, dialer: dialer, log: log, onFrame: onFrame, peers: make(map[domain.Address]*peerHandle)}
	for _, addr := range dir.ListConfigured() {
		r.peers[addr] = newPeerHandle(addr)
	}
	return r
}

// Start launches one reconnect goroutine per configured peer. It
// returns once every goroutine has been spawned; the goroutines run
// until ctx is cancelled.
func (r *Registry) Start(ctx context.Context) {
	r.mu.RLock()
	handles := make([]*peerHandle, 0, len(r.peers))
	for _, h := range r.peers {
		handles = append(handles, h)
	}
	r.mu.RUnlock()

	for _, h := range handles {
		go r.reconnectLoop(ctx, h)
	}
}

func (r *Registry) reconnectLoop(ctx context.Context, h *peerHandle) {
	failures := 0
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		h.setState(domain.PeerDisconnected)
		if err := r.connectOnce(ctx, h); err != nil {
			failures++
			if failures <= MaxConsecutiveFailures {
				r.log.WithFields(logrus.Fields{"peer": h.addr, "attempt": failures, "error": err}).Warn("neighbour connect failed")
			} else {
				r.log.WithFields(logrus.Fields{"peer": h.addr, "error": err}).Debug("neighbour still unreachable, continuing to retry")
			}
		} else {
			failures = 0
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(BackoffInterval):
		}
	}
}

// connectOnce dials h, performs the server_hello handshake, and then
// blocks reading frames until the connection fails. A link that reached
// Connected and later drops returns nil, so it does not count as a
// failed attempt.
func (r *Registry) connectOnce(ctx context.Context, h *peerHandle) error {
	h.setState(domain.PeerConnecting)
	if ok, err := r.ResolveKey(h.addr); err != nil {
		r.log.WithFields(logrus.Fields{"peer": h.addr, "error": err}).Warn("failed to read neighbour key")
	} else if !ok {
		r.log.WithField("peer", h.addr).Debug("no neighbour key on file yet, connecting without verification")
	}

	conn, err := r.dialer.Dial(ctx, h.addr)
	if err != nil {
		return err
	}
	defer conn.Close()

	h.setState(domain.PeerHandshaking)
	h.setConn(conn)

	counter := h.nextCounter()
	env, err := envelope.Build(domain.ServerHelloPayload{Type: domain.InnerServerHello, Sender: r.self.String()}, r.priv, counter)
	if err != nil {
		return err
	}
	raw, err := envelope.Marshal(env)
	if err != nil {
		return err
	}
	if err := conn.WriteMessage(raw); err != nil {
		return err
	}

	return r.readLoop(h, conn)
}

func (r *Registry) readLoop(h *peerHandle, conn domain.Conn) error {
	connectedYet := false
	timeout := time.NewTimer(HandshakeTimeout)
	defer timeout.Stop()

	frames := make(chan []byte)
	errs := make(chan error, 1)
	go func() {
		for {
			raw, err := conn.ReadMessage()
			if err != nil {
				errs <- err
				return
			}
			frames <- raw
		}
	}()

	for {
		if !connectedYet {
			select {
			case raw := <-frames:
				h.setState(domain.PeerConnected)
				connectedYet = true
				r.sendClientUpdateRequest(h, conn)
				r.onFrame(h.addr, raw)
				continue
			case err := <-errs:
				h.setState(domain.PeerDisconnected)
				return err
			case <-timeout.C:
				h.setState(domain.PeerConnected)
				connectedYet = true
				r.sendClientUpdateRequest(h, conn)
				continue
			}
		}

		select {
		case raw := <-frames:
			r.onFrame(h.addr, raw)
		case err := <-errs:
			h.setState(domain.PeerDisconnected)
			r.log.WithFields(logrus.Fields{"peer": h.addr, "error": err}).Debug("neighbour link dropped")
			return nil
		}
	}
}

func (r *Registry) sendClientUpdateRequest(h *peerHandle, conn domain.Conn) {
	counter := h.nextCounter()
	env, err := envelope.Build(domain.ClientUpdateRequestPayload{Type: domain.InnerClientUpdateRequest}, r.priv, counter)
	if err != nil {
		r.log.WithError(err).Error("failed to build client_update_request")
		return
	}
	raw, err := envelope.Marshal(env)
	if err != nil {
		r.log.WithError(err).Error("failed to marshal client_update_request")
		return
	}
	if err := conn.WriteMessage(raw); err != nil {
		r.log.WithFields(logrus.Fields{"peer": h.addr, "error": err}).Warn("failed to send client_update_request")
	}
}

// NextCounter returns the next outbound counter for addr's peer link,
// creating a handle for it if none exists yet (an inbound-accepted
// peer not named in this server's own configured neighbour list).
func (r *Registry) NextCounter(addr domain.Address) uint64 {
	r.mu.Lock()
	h, ok := r.peers[addr]
	if !ok {
		h = newPeerHandle(addr)
		r.peers[addr] = h
	}
	r.mu.Unlock()
	return h.nextCounter()
}

// Attach registers an inbound peer connection accepted by the
// server-facing listener (spec.md §4.4's "On peer connect"), marking
// it Connected immediately since the server_hello signature has
// already been validated by the caller.
func (r *Registry) Attach(addr domain.Address, conn domain.Conn, pubKey *rsa.PublicKey) {
	r.mu.Lock()
	h, ok := r.peers[addr]
	if !ok {
		h = newPeerHandle(addr)
		r.peers[addr] = h
	}
	r.mu.Unlock()

	h.mu.Lock()
	h.pubKey = pubKey
	h.mu.Unlock()
	h.setConn(conn)
	h.setState(domain.PeerConnected)
}

// Detach marks addr Disconnected, used when an inbound-accepted peer
// connection (handled entirely by the relay server's own goroutine,
// not a registry reconnect loop) drops.
func (r *Registry) Detach(addr domain.Address) {
	r.mu.RLock()
	h, ok := r.peers[addr]
	r.mu.RUnlock()
	if ok {
		h.setState(domain.PeerDisconnected)
		h.setConn(nil)
	}
}

// Send writes frame to addr's current connection. ok is false (with a
// nil error) when the peer is not Connected, so the relayserver can
// silently drop per spec.md §4.4's forwarding rule.
func (r *Registry) Send(addr domain.Address, frame []byte) (ok bool, err error) {
	r.mu.RLock()
	h, found := r.peers[addr]
	r.mu.RUnlock()
	if !found {
		return false, nil
	}
	return h.send(frame)
}

// Broadcast forwards frame to every currently Connected peer, used for
// the single-hop public_chat forward (spec.md §4.4).
func (r *Registry) Broadcast(frame []byte) {
	r.mu.RLock()
	handles := make([]*peerHandle, 0, len(r.peers))
	for _, h := range r.peers {
		handles = append(handles, h)
	}
	r.mu.RUnlock()

	for _, h := range handles {
		if _, err := h.send(frame); err != nil {
			r.log.WithFields(logrus.Fields{"peer": h.addr, "error": err}).Warn("broadcast to peer failed")
		}
	}
}

// UpdateLastSeen records addr's most recent client_update gossip.
func (r *Registry) UpdateLastSeen(addr domain.Address, clientsPEM []string) {
	r.mu.RLock()
	h, ok := r.peers[addr]
	r.mu.RUnlock()
	if ok {
		h.setLastSeen(clientsPEM)
	}
}

// Snapshot returns the current PeerRecord for every known neighbour,
// used to assemble a client_list reply's remote entries.
func (r *Registry) Snapshot() []domain.PeerRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.PeerRecord, 0, len(r.peers))
	for _, h := range r.peers {
		out = append(out, h.snapshot())
	}
	return out
}

// Fingerprint returns crypto.Fingerprint of pub as a
// domain.Fingerprint.
func Fingerprint(pub *rsa.PublicKey) (domain.Fingerprint, error) {
	fp, err := crypto.Fingerprint(pub)
	return domain.Fingerprint(fp), err
}
