package crypto

import "errors"

// ErrBadPEM is returned when a PEM block cannot be decoded or is the
// wrong block type for the function called.
var ErrBadPEM = errors.New("crypto: malformed or unexpected PEM block")

// ErrSignature is returned by PSSVerify when a signature does not
// validate against the supplied public key.
var ErrSignature = errors.New("crypto: signature verification failed")
