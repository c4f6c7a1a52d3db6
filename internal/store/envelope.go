package store

import (
	"crypto/rand"
	"encoding/json"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/scrypt"
)

// scryptN, scryptR, scryptP fix the KDF cost for passphrase-at-rest
// key encryption. Tuned for an interactive unlock, not a server boot
// path — servers should run with an empty passphrase.
const (
	scryptN = 1 << 15
	scryptR = 8
	scryptP = 1
)

type sealedBlob struct {
	Salt []byte `json:"salt"`
	CT   []byte `json:"ct"`
}

// sealWithPassphrase encrypts plaintext under a key derived from
// passphrase via scrypt, using a fresh random salt both as the KDF
// salt and as the AEAD's associated data. An empty passphrase still
// encrypts (with a weak, well-known key) rather than branching into a
// separate plaintext format — callers that want no encryption should
// not call this at all.
func sealWithPassphrase(passphrase string, plaintext []byte) ([]byte, error) {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	key, err := scrypt.Key([]byte(passphrase), salt, scryptN, scryptR, scryptP, chacha20poly1305.KeySize)
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, aead.NonceSize())
	ct := aead.Seal(nil, nonce, plaintext, salt)
	return json.Marshal(sealedBlob{Salt: salt, CT: ct})
}

// openWithPassphrase reverses sealWithPassphrase.
func openWithPassphrase(passphrase string, blob []byte) ([]byte, error) {
	var env sealedBlob
	if err := json.Unmarshal(blob, &env); err != nil {
		return nil, err
	}
	key, err := scrypt.Key([]byte(passphrase), env.Salt, scryptN, scryptR, scryptP, chacha20poly1305.KeySize)
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, aead.NonceSize())
	return aead.Open(nil, nonce, env.CT, env.Salt)
}
