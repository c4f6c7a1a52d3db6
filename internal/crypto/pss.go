package crypto

import (
	stdcrypto "crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
)

// PSSSaltLength is fixed at 32 bytes, independent of the digest size,
// matching the wire protocol's signature parameters (spec.md §3).
const PSSSaltLength = 32

var pssOpts = &rsa.PSSOptions{SaltLength: PSSSaltLength, Hash: stdcrypto.SHA256}

// PSSSign signs the SHA-256 digest of msg with priv using RSA-PSS
// (MGF1/SHA-256, salt length 32).
func PSSSign(priv *rsa.PrivateKey, msg []byte) ([]byte, error) {
	digest := sha256.Sum256(msg)
	return rsa.SignPSS(rand.Reader, priv, stdcrypto.SHA256, digest[:], pssOpts)
}

// PSSVerify checks sig over msg against pub. It returns ErrSignature on
// any mismatch, masking the underlying rsa package error.
func PSSVerify(pub *rsa.PublicKey, msg, sig []byte) error {
	digest := sha256.Sum256(msg)
	if err := rsa.VerifyPSS(pub, stdcrypto.SHA256, digest[:], sig, pssOpts); err != nil {
		return ErrSignature
	}
	return nil
}
