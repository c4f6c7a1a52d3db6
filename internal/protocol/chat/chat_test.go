package chat_test

import (
	"testing"

	"olaf/internal/crypto"
	domain "olaf/internal/domain"
	"olaf/internal/protocol/chat"
)

func TestBuildOpenRoundTrip(t *testing.T) {
	senderPriv, err := crypto.GenerateRSA()
	if err != nil {
		t.Fatalf("GenerateRSA sender: %v", err)
	}
	aliceFP, err := crypto.Fingerprint(&senderPriv.PublicKey)
	if err != nil {
		t.Fatalf("Fingerprint sender: %v", err)
	}

	bobPriv, err := crypto.GenerateRSA()
	if err != nil {
		t.Fatalf("GenerateRSA bob: %v", err)
	}
	bobFP, err := crypto.Fingerprint(&bobPriv.PublicKey)
	if err != nil {
		t.Fatalf("Fingerprint bob: %v", err)
	}

	carolPriv, err := crypto.GenerateRSA()
	if err != nil {
		t.Fatalf("GenerateRSA carol: %v", err)
	}
	carolFP, err := crypto.Fingerprint(&carolPriv.PublicKey)
	if err != nil {
		t.Fatalf("Fingerprint carol: %v", err)
	}

	payload, err := chat.Build(
		[]string{"127.0.0.1:9000"},
		domain.Fingerprint(aliceFP),
		[]chat.Recipient{
			{Fingerprint: domain.Fingerprint(bobFP), PublicKey: &bobPriv.PublicKey},
			{Fingerprint: domain.Fingerprint(carolFP), PublicKey: &carolPriv.PublicKey},
		},
		"hi both",
	)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(payload.SymmKeys) != 2 {
		t.Fatalf("want 2 symm_keys, got %d", len(payload.SymmKeys))
	}

	sender, inner, err := chat.Open(payload, bobPriv, domain.Fingerprint(bobFP))
	if err != nil {
		t.Fatalf("Open (bob): %v", err)
	}
	if sender != domain.Fingerprint(aliceFP) {
		t.Fatalf("want sender %s, got %s", aliceFP, sender)
	}
	if inner.Message != "hi both" {
		t.Fatalf("unexpected message %q", inner.Message)
	}

	sender2, _, err := chat.Open(payload, carolPriv, domain.Fingerprint(carolFP))
	if err != nil {
		t.Fatalf("Open (carol): %v", err)
	}
	if sender2 != domain.Fingerprint(aliceFP) {
		t.Fatalf("want sender %s, got %s", aliceFP, sender2)
	}
}

func TestOpenRejectsNonRecipient(t *testing.T) {
	senderPriv, err := crypto.GenerateRSA()
	if err != nil {
		t.Fatalf("GenerateRSA sender: %v", err)
	}
	aliceFP, _ := crypto.Fingerprint(&senderPriv.PublicKey)

	bobPriv, err := crypto.GenerateRSA()
	if err != nil {
		t.Fatalf("GenerateRSA bob: %v", err)
	}
	bobFP, _ := crypto.Fingerprint(&bobPriv.PublicKey)

	eavePriv, err := crypto.GenerateRSA()
	if err != nil {
		t.Fatalf("GenerateRSA eave: %v", err)
	}

	payload, err := chat.Build(nil, domain.Fingerprint(aliceFP),
		[]chat.Recipient{{Fingerprint: domain.Fingerprint(bobFP), PublicKey: &bobPriv.PublicKey}}, "secret")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if _, _, err := chat.Open(payload, eavePriv, "whatever"); err != chat.ErrNotForMe {
		t.Fatalf("want ErrNotForMe, got %v", err)
	}
}
