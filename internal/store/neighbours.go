package store

import (
	"path/filepath"
	"strings"
	"sync"

	domain "olaf/internal/domain"
)

// NeighbourFileDirectory reads and writes neighbour public keys as
// "<host>_<port>_public_key.pem" files under dir (spec.md §6), and
// remembers the set of addresses configured at construction time so C3
// can tell a newly-dropped-in key from a configured one it's still
// waiting on.
type NeighbourFileDirectory struct {
	dir       string
	mu        sync.RWMutex
	configured []domain.Address
}

// NewNeighbourFileDirectory returns a directory rooted at dir, tracking
// configured as the full set of peer addresses from NEIGHBOUR_ADDRESSES.
func NewNeighbourFileDirectory(dir string, configured []domain.Address) *NeighbourFileDirectory {
	return &NeighbourFileDirectory{dir: dir, configured: configured}
}

func neighbourFilename(addr domain.Address) string {
	return strings.ReplaceAll(strings.ReplaceAll(addr.String(), ":", "_"), "/", "_") + "_public_key.pem"
}

// LoadNeighbourKey reads the PEM dropped into dir for addr, if any.
func (d *NeighbourFileDirectory) LoadNeighbourKey(addr domain.Address) ([]byte, bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	b, err := readFile(filepath.Join(d.dir, neighbourFilename(addr)))
	if err != nil {
		return nil, false, err
	}
	return b, b != nil, nil
}

// SaveNeighbourKey atomically writes addr's public key PEM. The relay
// calls it from the file store's POST /upload_key handler; a peer's
// key is not saved when it connects (spec.md §4.3 Non-goals).
func (d *NeighbourFileDirectory) SaveNeighbourKey(addr domain.Address, pemBytes []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	return writeFile(filepath.Join(d.dir, neighbourFilename(addr)), pemBytes, 0o644)
}

// ListConfigured returns the neighbour addresses read from
// NEIGHBOUR_ADDRESSES at startup.
func (d *NeighbourFileDirectory) ListConfigured() []domain.Address {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]domain.Address, len(d.configured))
	copy(out, d.configured)
	return out
}

var _ domain.NeighbourDirectory = (*NeighbourFileDirectory)(nil)
