package clientengine

import (
	"crypto/rsa"
	"sort"
	"sync"

	"olaf/internal/crypto"
	domain "olaf/internal/domain"
	"olaf/internal/protocol/chat"
)

// directoryEntry is one known-reachable peer: its public key and the
// server address it's currently homed on (spec.md §4.6: "cache the
// returned client_list as the directory of known-reachable peers").
type directoryEntry struct {
	PubKey     *rsa.PublicKey
	PEM        string
	HomeServer domain.Address
}

// Directory is the client's cached fingerprint -> public key -> home
// server map, rebuilt wholesale on every client_list reply.
type Directory struct {
	mu      sync.RWMutex
	entries map[domain.Fingerprint]directoryEntry
}

func newDirectory() *Directory {
	return &Directory{entries: make(map[domain.Fingerprint]directoryEntry)}
}

// Replace rebuilds the directory from a client_list reply's server
// entries, deriving each client's fingerprint from its PEM key.
func (d *Directory) Replace(servers []domain.ClientListEntry) {
	next := make(map[domain.Fingerprint]directoryEntry, len(d.entries))
	for _, srv := range servers {
		for _, pem := range srv.Clients {
			pub, err := crypto.DecodePublicPEM([]byte(pem))
			if err != nil {
				continue
			}
			fp, err := crypto.Fingerprint(pub)
			if err != nil {
				continue
			}
			next[domain.Fingerprint(fp)] = directoryEntry{PubKey: pub, PEM: pem, HomeServer: domain.Address(srv.Address)}
		}
	}
	d.mu.Lock()
	d.entries = next
	d.mu.Unlock()
}

// Lookup returns the known entry for fp, if any.
func (d *Directory) Lookup(fp domain.Fingerprint) (directoryEntry, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	e, ok := d.entries[fp]
	return e, ok
}

// Fingerprints returns every fingerprint currently known, for C7's
// GET /get_clients.
func (d *Directory) Fingerprints() []domain.Fingerprint {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]domain.Fingerprint, 0, len(d.entries))
	for fp := range d.entries {
		out = append(out, fp)
	}
	return out
}

// groupByServer splits recipients into destination_servers order and,
// within each group, chat.Recipient values in the order they appear
// in fps (spec.md §9: canonical ordering is left to the
// sender, so long as destination_servers itself is sorted-unique).
func (d *Directory) groupByServer(fps []domain.Fingerprint) (destinations []string, grouped []chat.Recipient, missing []domain.Fingerprint) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	byServer := make(map[domain.Address][]chat.Recipient)
	seen := make(map[domain.Address]bool)
	for _, fp := range fps {
		e, ok := d.entries[fp]
		if !ok {
			missing = append(missing, fp)
			continue
		}
		byServer[e.HomeServer] = append(byServer[e.HomeServer], chat.Recipient{Fingerprint: fp, PublicKey: e.PubKey})
		seen[e.HomeServer] = true
	}

	for addr := range seen {
		destinations = append(destinations, addr.String())
	}
	sort.Strings(destinations)

	for _, addr := range destinations {
		grouped = append(grouped, byServer[domain.Address(addr)]...)
	}
	return destinations, grouped, missing
}
