package neighbourhood_test

import (
	"io"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"

	"olaf/internal/crypto"
	domain "olaf/internal/domain"
	"olaf/internal/neighbourhood"
)

// mutableDirectory lets a test simulate an operator dropping a new key
// into the neighbours directory (POST /upload_key) between two
// ResolveKey calls.
type mutableDirectory struct {
	mu  sync.Mutex
	pem []byte
	ok  bool
}

func (d *mutableDirectory) set(pem []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pem, d.ok = pem, true
}

func (d *mutableDirectory) LoadNeighbourKey(addr domain.Address) ([]byte, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pem, d.ok, nil
}

func (d *mutableDirectory) SaveNeighbourKey(addr domain.Address, pemBytes []byte) error {
	d.set(pemBytes)
	return nil
}

func (d *mutableDirectory) ListConfigured() []domain.Address { return nil }

func TestResolveKeyPicksUpRotatedKeyOnNextCall(t *testing.T) {
	priv1, err := crypto.GenerateRSA()
	if err != nil {
		t.Fatalf("GenerateRSA: %v", err)
	}
	priv2, err := crypto.GenerateRSA()
	if err != nil {
		t.Fatalf("GenerateRSA: %v", err)
	}
	pem1, err := crypto.EncodePublicPEM(&priv1.PublicKey)
	if err != nil {
		t.Fatalf("EncodePublicPEM: %v", err)
	}
	pem2, err := crypto.EncodePublicPEM(&priv2.PublicKey)
	if err != nil {
		t.Fatalf("EncodePublicPEM: %v", err)
	}

	dir := &mutableDirectory{}
	dir.set(pem1)

	log := logrus.New()
	log.SetOutput(io.Discard)

	reg := neighbourhood.NewRegistry("self:9001", priv1, dir, nil, log, func(domain.Address, []byte) {})

	if ok, err := reg.ResolveKey("peer:9002"); err != nil || !ok {
		t.Fatalf("ResolveKey (first): ok=%v err=%v", ok, err)
	}
	pub, ok := reg.PublicKey("peer:9002")
	if !ok || !pub.Equal(&priv1.PublicKey) {
		t.Fatal("expected first resolved key to match pem1")
	}

	// Simulate an operator uploading a rotated key, then the peer's
	// next reconnect attempt calling ResolveKey again.
	dir.set(pem2)

	if ok, err := reg.ResolveKey("peer:9002"); err != nil || !ok {
		t.Fatalf("ResolveKey (second): ok=%v err=%v", ok, err)
	}
	pub, ok = reg.PublicKey("peer:9002")
	if !ok || !pub.Equal(&priv2.PublicKey) {
		t.Fatal("expected second resolved key to have picked up the rotated key, not the cached one")
	}
}

func TestResolveKeyKeepsLastKnownKeyWhenFileMissing(t *testing.T) {
	priv, err := crypto.GenerateRSA()
	if err != nil {
		t.Fatalf("GenerateRSA: %v", err)
	}
	pem, err := crypto.EncodePublicPEM(&priv.PublicKey)
	if err != nil {
		t.Fatalf("EncodePublicPEM: %v", err)
	}

	dir := &mutableDirectory{}
	dir.set(pem)

	log := logrus.New()
	log.SetOutput(io.Discard)

	reg := neighbourhood.NewRegistry("self:9001", priv, dir, nil, log, func(domain.Address, []byte) {})

	if ok, err := reg.ResolveKey("peer:9003"); err != nil || !ok {
		t.Fatalf("ResolveKey: ok=%v err=%v", ok, err)
	}

	dir.mu.Lock()
	dir.ok = false
	dir.mu.Unlock()

	if ok, err := reg.ResolveKey("peer:9003"); err != nil || ok {
		t.Fatalf("ResolveKey (missing file): want ok=false err=nil, got ok=%v err=%v", ok, err)
	}
	pub, found := reg.PublicKey("peer:9003")
	if !found || !pub.Equal(&priv.PublicKey) {
		t.Fatal("expected last known key to survive a missing-file read")
	}
}
