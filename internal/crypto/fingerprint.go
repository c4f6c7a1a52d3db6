package crypto

import (
	"crypto/rsa"
	"crypto/sha256"
)

// Fingerprint returns base64(SHA-256(PEM public key bytes)) for pub,
// the identity used throughout the mesh (spec.md §3). It hashes the
// armored PEM text, the same serialization
// original_source/common/crypto.py's calculate_fingerprint hashes, not
// the raw DER SubjectPublicKeyInfo — hashing DER instead would produce
// a fingerprint no other OLAF implementation agrees with.
func Fingerprint(pub *rsa.PublicKey) (string, error) {
	pemBytes, err := EncodePublicPEM(pub)
	if err != nil {
		return "", err
	}
	return FingerprintPEM(pemBytes), nil
}

// FingerprintPEM fingerprints a PEM-encoded public key directly, the
// form hello/client_update/client_list carry on the wire.
func FingerprintPEM(pemBytes []byte) string {
	sum := sha256.Sum256(pemBytes)
	return B64(sum[:])
}
