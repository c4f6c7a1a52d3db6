package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
)

// AESKeySize and GCMNonceSize are fixed by the wire protocol: a
// 32-byte (AES-256) key and a 16-byte nonce carried as ChatPayload.IV
// (spec.md §3 — note this is wider than the GCM-standard 12 bytes).
const (
	AESKeySize   = 32
	GCMNonceSize = 16
)

// GenerateAESKey returns a fresh random 32-byte AES-256 key.
func GenerateAESKey() ([]byte, error) {
	key := make([]byte, AESKeySize)
	_, err := rand.Read(key)
	return key, err
}

// GenerateNonce returns a fresh random 16-byte GCM nonce.
func GenerateNonce() ([]byte, error) {
	nonce := make([]byte, GCMNonceSize)
	_, err := rand.Read(nonce)
	return nonce, err
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCMWithNonceSize(block, GCMNonceSize)
}

// GCMEncrypt seals plaintext under key with nonce, producing
// ciphertext||tag the way ChatPayload.Chat is carried on the wire.
func GCMEncrypt(key, nonce, plaintext []byte) ([]byte, error) {
	if len(nonce) != GCMNonceSize {
		return nil, errors.New("crypto: nonce must be 16 bytes")
	}
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	return gcm.Seal(nil, nonce, plaintext, nil), nil
}

// GCMDecrypt reverses GCMEncrypt.
func GCMDecrypt(key, nonce, ciphertext []byte) ([]byte, error) {
	if len(nonce) != GCMNonceSize {
		return nil, errors.New("crypto: nonce must be 16 bytes")
	}
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	return gcm.Open(nil, nonce, ciphertext, nil)
}
