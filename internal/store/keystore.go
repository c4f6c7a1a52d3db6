package store

import (
	"path/filepath"
	"sync"

	domain "olaf/internal/domain"
)

// KeyFileStore persists an RSA key pair as PEM files under dir
// (spec.md §6: "<config>/private_key.pem", "<config>/public_key.pem").
// When Passphrase is non-empty, the private key PEM is sealed with
// sealWithPassphrase before it touches disk.
type KeyFileStore struct {
	dir        string
	passphrase string
	mu         sync.Mutex
}

// NewKeyFileStore returns a KeyFileStore rooted at dir. An empty
// passphrase stores the private key PEM unencrypted, matching the
// original implementation's default posture for unattended servers.
func NewKeyFileStore(dir, passphrase string) *KeyFileStore {
	return &KeyFileStore{dir: dir, passphrase: passphrase}
}

func (s *KeyFileStore) privPath() string { return filepath.Join(s.dir, "private_key.pem") }
func (s *KeyFileStore) pubPath() string  { return filepath.Join(s.dir, "public_key.pem") }

// SaveKeyPair writes both PEM files, sealing the private key if a
// passphrase was configured.
func (s *KeyFileStore) SaveKeyPair(privPEM, pubPEM []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	toWrite := privPEM
	if s.passphrase != "" {
		sealed, err := sealWithPassphrase(s.passphrase, privPEM)
		if err != nil {
			return err
		}
		toWrite = sealed
	}
	if err := writeFile(s.privPath(), toWrite, 0o600); err != nil {
		return err
	}
	return writeFile(s.pubPath(), pubPEM, 0o644)
}

// LoadKeyPair reads both PEM files, unsealing the private key if a
// passphrase was configured. ok is false when neither file exists yet.
func (s *KeyFileStore) LoadKeyPair() (privPEM, pubPEM []byte, ok bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := readFile(s.privPath())
	if err != nil || raw == nil {
		return nil, nil, false, err
	}
	pub, err := readFile(s.pubPath())
	if err != nil || pub == nil {
		return nil, nil, false, err
	}

	priv := raw
	if s.passphrase != "" {
		priv, err = openWithPassphrase(s.passphrase, raw)
		if err != nil {
			return nil, nil, false, err
		}
	}
	return priv, pub, true, nil
}

var _ domain.KeyStore = (*KeyFileStore)(nil)
