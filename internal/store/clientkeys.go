package store

import (
	"path/filepath"
	"sync"

	domain "olaf/internal/domain"
)

// ClientKeyFileCache persists known client public keys as
// "<fingerprint>.pem" files under dir (spec.md §6), so a client's
// directory survives a restart without waiting on a fresh
// client_list reply.
type ClientKeyFileCache struct {
	dir string
	mu  sync.RWMutex
}

// NewClientKeyFileCache returns a cache rooted at dir.
func NewClientKeyFileCache(dir string) *ClientKeyFileCache {
	return &ClientKeyFileCache{dir: dir}
}

func (c *ClientKeyFileCache) path(fp domain.Fingerprint) string {
	return filepath.Join(c.dir, fp.String()+".pem")
}

// SaveClientKey writes fp's PEM public key.
func (c *ClientKeyFileCache) SaveClientKey(fp domain.Fingerprint, pemBytes []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return writeFile(c.path(fp), pemBytes, 0o644)
}

// LoadClientKey reads fp's cached PEM public key, if any.
func (c *ClientKeyFileCache) LoadClientKey(fp domain.Fingerprint) ([]byte, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	b, err := readFile(c.path(fp))
	if err != nil {
		return nil, false, err
	}
	return b, b != nil, nil
}

var _ domain.ClientKeyCache = (*ClientKeyFileCache)(nil)
