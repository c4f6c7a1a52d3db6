package neighbourhood

import (
	"crypto/rsa"
	"sync"

	domain "olaf/internal/domain"
)

// peerHandle is the registry's live bookkeeping for one configured
// neighbour: its current state, its connection (if any), its
// registered public key, and the PEM client keys it last gossipped.
type peerHandle struct {
	addr domain.Address

	mu         sync.RWMutex
	state      domain.PeerState
	conn       domain.Conn
	pubKey     *rsa.PublicKey
	lastSeen   []string
	outCounter uint64
	inCounter  uint64
}

func newPeerHandle(addr domain.Address) *peerHandle {
	return &peerHandle{addr: addr, state: domain.PeerDisconnected}
}

func (p *peerHandle) setState(s domain.PeerState) {
	p.mu.Lock()
	prev := p.state
	p.state = s
	p.mu.Unlock()

	if prev != domain.PeerConnected && s == domain.PeerConnected {
		peersConnected.Inc()
	} else if prev == domain.PeerConnected && s != domain.PeerConnected {
		peersConnected.Dec()
	}
}

func (p *peerHandle) setConn(c domain.Conn) {
	p.mu.Lock()
	p.conn = c
	p.mu.Unlock()
}

func (p *peerHandle) setLastSeen(clients []string) {
	p.mu.Lock()
	p.lastSeen = clients
	p.mu.Unlock()
}

func (p *peerHandle) nextCounter() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.outCounter++
	return p.outCounter
}

func (p *peerHandle) inboundState() (pub *rsa.PublicKey, lastCounter uint64) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.pubKey, p.inCounter
}

func (p *peerHandle) advanceInbound(counter uint64) {
	p.mu.Lock()
	p.inCounter = counter
	p.mu.Unlock()
}

func (p *peerHandle) snapshot() domain.PeerRecord {
	p.mu.RLock()
	defer p.mu.RUnlock()
	rec := domain.PeerRecord{
		Address:         p.addr,
		State:           p.state,
		LastSeenClients: append([]string(nil), p.lastSeen...),
	}
	return rec
}

// send writes frame to the peer's current connection, if Connected.
// It returns false without error when the peer isn't connected, so
// callers can implement the "if the peer is not currently Connected,
// drop" rule (spec.md §4.4) without treating it as a failure.
func (p *peerHandle) send(frame []byte) (sent bool, err error) {
	p.mu.RLock()
	conn, state := p.conn, p.state
	p.mu.RUnlock()

	if state != domain.PeerConnected || conn == nil {
		return false, nil
	}
	if err := conn.WriteMessage(frame); err != nil {
		return false, err
	}
	return true, nil
}
