package crypto

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
)

// OAEPEncrypt wraps key under pub using RSA-OAEP with MGF1/SHA-256 and
// an empty label, the scheme every symm_keys entry uses (spec.md §3).
func OAEPEncrypt(pub *rsa.PublicKey, key []byte) ([]byte, error) {
	return rsa.EncryptOAEP(sha256.New(), rand.Reader, pub, key, nil)
}

// OAEPDecrypt reverses OAEPEncrypt.
func OAEPDecrypt(priv *rsa.PrivateKey, ciphertext []byte) ([]byte, error) {
	return rsa.DecryptOAEP(sha256.New(), rand.Reader, priv, ciphertext, nil)
}
