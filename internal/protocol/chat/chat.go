package chat

import (
	"crypto/rsa"
	"encoding/json"
	"errors"

	"olaf/internal/crypto"
	domain "olaf/internal/domain"
)

// ErrNotForMe is returned by Open when no symm_keys entry unwraps to a
// plaintext that names the caller as a participant.
var ErrNotForMe = errors.New("chat: message not intended for this client")

// Recipient pairs a fingerprint with its RSA public key, in the order
// the sender wishes symm_keys to be emitted.
type Recipient struct {
	Fingerprint domain.Fingerprint
	PublicKey   *rsa.PublicKey
}

// Build seals message for recipients, returning the wire-ready chat
// payload. senderFingerprint is placed first in the participants list
// (spec.md §3: "sender_fingerprint = participants[0]").
func Build(destinationServers []string, senderFingerprint domain.Fingerprint, recipients []Recipient, message string) (domain.ChatPayload, error) {
	key, err := crypto.GenerateAESKey()
	if err != nil {
		return domain.ChatPayload{}, err
	}
	iv, err := crypto.GenerateNonce()
	if err != nil {
		return domain.ChatPayload{}, err
	}

	participants := make([]string, 0, len(recipients)+1)
	participants = append(participants, senderFingerprint.String())
	for _, r := range recipients {
		participants = append(participants, r.Fingerprint.String())
	}

	inner := domain.ChatInner{Participants: participants, Message: message}
	plaintext, err := json.Marshal(inner)
	if err != nil {
		return domain.ChatPayload{}, err
	}

	ciphertext, err := crypto.GCMEncrypt(key, iv, plaintext)
	if err != nil {
		return domain.ChatPayload{}, err
	}

	symmKeys := make([]string, 0, len(recipients))
	for _, r := range recipients {
		wrapped, err := crypto.OAEPEncrypt(r.PublicKey, key)
		if err != nil {
			return domain.ChatPayload{}, err
		}
		symmKeys = append(symmKeys, crypto.B64(wrapped))
	}

	return domain.ChatPayload{
		Type:               domain.InnerChat,
		DestinationServers: destinationServers,
		IV:                 crypto.B64(iv),
		SymmKeys:           symmKeys,
		Chat:               crypto.B64(ciphertext),
	}, nil
}

// Open tries every symm_keys entry against priv until one unwraps and
// decrypts to a plaintext naming myFingerprint as a participant. It
// returns the decoded inner message and the sender's fingerprint
// (participants[0]).
func Open(payload domain.ChatPayload, priv *rsa.PrivateKey, myFingerprint domain.Fingerprint) (sender domain.Fingerprint, inner domain.ChatInner, err error) {
	iv, err := crypto.B64Decode(payload.IV)
	if err != nil {
		return "", domain.ChatInner{}, err
	}
	ciphertext, err := crypto.B64Decode(payload.Chat)
	if err != nil {
		return "", domain.ChatInner{}, err
	}

	for _, symmKeyB64 := range payload.SymmKeys {
		wrapped, decErr := crypto.B64Decode(symmKeyB64)
		if decErr != nil {
			continue
		}
		key, decErr := crypto.OAEPDecrypt(priv, wrapped)
		if decErr != nil {
			continue
		}
		plaintext, decErr := crypto.GCMDecrypt(key, iv, ciphertext)
		if decErr != nil {
			continue
		}
		var candidate domain.ChatInner
		if json.Unmarshal(plaintext, &candidate) != nil {
			continue
		}
		if !containsFingerprint(candidate.Participants, myFingerprint) {
			continue
		}
		if len(candidate.Participants) == 0 {
			continue
		}
		return domain.Fingerprint(candidate.Participants[0]), candidate, nil
	}
	return "", domain.ChatInner{}, ErrNotForMe
}

func containsFingerprint(participants []string, fp domain.Fingerprint) bool {
	for _, p := range participants {
		if p == fp.String() {
			return true
		}
	}
	return false
}
