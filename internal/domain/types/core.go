package types

// Fingerprint identifies a user or server by the Base64 SHA-256 digest of
// its RSA public key (PEM, SubjectPublicKeyInfo). Fingerprints are
// canonical; display names are never authoritative.
type Fingerprint string

// String returns the string form of the fingerprint.
func (f Fingerprint) String() string { return string(f) }

// Address is a "host:port" pair identifying a server's WebSocket or HTTP
// endpoint, exactly as it appears in NEIGHBOUR_ADDRESSES and
// destination_servers.
type Address string

// String returns the string form of the address.
func (a Address) String() string { return string(a) }
