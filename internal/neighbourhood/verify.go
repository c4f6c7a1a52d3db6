package neighbourhood

import (
	"crypto/rsa"

	domain "olaf/internal/domain"
	"olaf/internal/crypto"
	"olaf/internal/protocol/envelope"
)

// ResolveKey re-reads the public key registered for addr from the
// neighbours directory and refreshes it on the peer handle. It is
// called on every reconnect attempt rather than caching the key
// forever, so that a key an operator drops into the directory via
// POST /upload_key is picked up on the peer's next reconnect (spec.md
// §4.5) instead of being shadowed by a stale one. It returns ok=false
// when no PEM has been dropped into the directory for this address
// yet (spec.md §4.3: trust-on-first-use, no authenticated admission),
// in which case any previously resolved key is left in place.
func (r *Registry) ResolveKey(addr domain.Address) (ok bool, err error) {
	r.mu.Lock()
	h, found := r.peers[addr]
	if !found {
		h = newPeerHandle(addr)
		r.peers[addr] = h
	}
	r.mu.Unlock()

	pemBytes, ok, err := r.dir.LoadNeighbourKey(addr)
	if err != nil || !ok {
		return false, err
	}
	pub, err := crypto.DecodePublicPEM(pemBytes)
	if err != nil {
		return false, err
	}
	h.mu.Lock()
	h.pubKey = pub
	h.mu.Unlock()
	return true, nil
}

// PublicKey returns the public key currently registered for addr, if
// any (set by ResolveKey or Attach).
func (r *Registry) PublicKey(addr domain.Address) (pub *rsa.PublicKey, ok bool) {
	r.mu.RLock()
	h, found := r.peers[addr]
	r.mu.RUnlock()
	if !found {
		return nil, false
	}
	pub, _ = h.inboundState()
	return pub, pub != nil
}

// VerifyInbound checks a signed_data envelope received from addr
// against that peer's registered key and inbound counter, advancing
// the counter on success.
func (r *Registry) VerifyInbound(addr domain.Address, env domain.Envelope) error {
	r.mu.RLock()
	h, found := r.peers[addr]
	r.mu.RUnlock()
	if !found {
		return envelope.ErrWrongType
	}
	pub, lastCounter := h.inboundState()
	if pub == nil {
		return envelope.ErrWrongType
	}
	if err := envelope.Verify(env, pub, lastCounter); err != nil {
		return err
	}
	h.advanceInbound(env.Counter)
	return nil
}
