package envelope_test

import (
	"testing"

	"olaf/internal/crypto"
	domain "olaf/internal/domain"
	"olaf/internal/protocol/envelope"
)

func TestBuildVerifyRoundTrip(t *testing.T) {
	priv, err := crypto.GenerateRSA()
	if err != nil {
		t.Fatalf("GenerateRSA: %v", err)
	}
	payload := domain.PublicChatPayload{
		Type:    domain.InnerPublicChat,
		Sender:  "abc123",
		Message: "hello neighbourhood",
	}

	env, err := envelope.Build(payload, priv, 1)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if err := envelope.Verify(env, &priv.PublicKey, 0); err != nil {
		t.Fatalf("Verify: %v", err)
	}

	it, err := envelope.InnerType(env)
	if err != nil {
		t.Fatalf("InnerType: %v", err)
	}
	if it != domain.InnerPublicChat {
		t.Fatalf("want InnerPublicChat, got %q", it)
	}
}

func TestVerifyRejectsReplayedCounter(t *testing.T) {
	priv, err := crypto.GenerateRSA()
	if err != nil {
		t.Fatalf("GenerateRSA: %v", err)
	}
	env, err := envelope.Build(domain.ClientListRequestPayload{Type: domain.InnerClientListRequest}, priv, 5)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if err := envelope.Verify(env, &priv.PublicKey, 5); err != envelope.ErrReplay {
		t.Fatalf("want ErrReplay for equal counter, got %v", err)
	}
	if err := envelope.Verify(env, &priv.PublicKey, 9); err != envelope.ErrReplay {
		t.Fatalf("want ErrReplay for lower counter, got %v", err)
	}
}

func TestVerifyRejectsTamperedData(t *testing.T) {
	priv, err := crypto.GenerateRSA()
	if err != nil {
		t.Fatalf("GenerateRSA: %v", err)
	}
	env, err := envelope.Build(domain.ClientUpdateRequestPayload{Type: domain.InnerClientUpdateRequest}, priv, 1)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	env.Data = []byte(`{"type":"client_update_request","extra":true}`)
	if err := envelope.Verify(env, &priv.PublicKey, 0); err == nil {
		t.Fatal("expected verification failure on tampered data")
	}
}

func TestVerifyRejectsWrongKey(t *testing.T) {
	priv, err := crypto.GenerateRSA()
	if err != nil {
		t.Fatalf("GenerateRSA: %v", err)
	}
	other, err := crypto.GenerateRSA()
	if err != nil {
		t.Fatalf("GenerateRSA: %v", err)
	}
	env, err := envelope.Build(domain.ClientListRequestPayload{Type: domain.InnerClientListRequest}, priv, 1)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if err := envelope.Verify(env, &other.PublicKey, 0); err == nil {
		t.Fatal("expected verification failure under wrong public key")
	}
}

func TestParseMarshalRoundTrip(t *testing.T) {
	priv, err := crypto.GenerateRSA()
	if err != nil {
		t.Fatalf("GenerateRSA: %v", err)
	}
	env, err := envelope.Build(domain.HelloPayload{Type: domain.InnerHello, PublicKey: "pem"}, priv, 1)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	raw, err := envelope.Marshal(env)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	got, err := envelope.Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got.Counter != env.Counter || got.Signature != env.Signature {
		t.Fatal("round trip lost fields")
	}
}
