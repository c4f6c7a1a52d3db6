package relayserver

import (
	"crypto/rsa"

	domain "olaf/internal/domain"
)

// clientHandle is the server's bookkeeping for one locally connected
// client: its connection handle, its public key, and the counter
// discipline state (spec.md §4.4 step 1/3).
type clientHandle struct {
	fingerprint domain.Fingerprint
	conn        domain.Conn
	pubKey      *rsa.PublicKey
	lastCounter uint64
	failures    int
}
