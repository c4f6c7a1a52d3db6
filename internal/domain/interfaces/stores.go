package interfaces

import domaintypes "olaf/internal/domain/types"

// KeyStore persists an RSA key pair PEM pair for a server or a client,
// optionally passphrase-encrypted at rest (SPEC_FULL.md domain stack).
type KeyStore interface {
	SaveKeyPair(privPEM, pubPEM []byte) error
	LoadKeyPair() (privPEM, pubPEM []byte, ok bool, err error)
}

// NeighbourDirectory reads and writes the neighbours PEM directory
// (spec.md §4.3/§6: "<neighbours>/<host>_<port>_public_key.pem").
type NeighbourDirectory interface {
	LoadNeighbourKey(addr domaintypes.Address) (pemBytes []byte, ok bool, err error)
	SaveNeighbourKey(addr domaintypes.Address, pemBytes []byte) error
	ListConfigured() []domaintypes.Address
}

// ClientKeyCache persists known client public keys across restarts
// (spec.md §6: "<clients>/<fingerprint>.pem").
type ClientKeyCache interface {
	SaveClientKey(fp domaintypes.Fingerprint, pemBytes []byte) error
	LoadClientKey(fp domaintypes.Fingerprint) (pemBytes []byte, ok bool, err error)
}

// MessageLog is the client's local append-only chat history.
type MessageLog interface {
	Append(msg domaintypes.StoredMessage) error
	All() ([]domaintypes.StoredMessage, error)
}

// FileLedger tracks metadata about uploaded files (SPEC_FULL.md domain
// stack: the bbolt-backed upload ledger).
type FileLedger interface {
	Put(rec domaintypes.FileRecord) error
	Get(id string) (domaintypes.FileRecord, bool, error)
	Close() error
}
