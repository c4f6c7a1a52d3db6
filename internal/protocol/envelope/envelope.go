package envelope

import (
	"crypto/rsa"
	"encoding/json"
	"errors"
	"strconv"

	"olaf/internal/crypto"
	domain "olaf/internal/domain"
)

// ErrReplay is returned when a received counter does not strictly
// exceed the sender's last accepted counter.
var ErrReplay = errors.New("envelope: counter is not greater than last accepted")

// ErrWrongType is returned when an envelope's Type field is not
// "signed_data".
var ErrWrongType = errors.New("envelope: not a signed_data frame")

// signedBytes returns the exact bytes PSSSign/PSSVerify operate over:
// the data JSON followed by the decimal counter, with no separator.
func signedBytes(data json.RawMessage, counter uint64) []byte {
	out := make([]byte, 0, len(data)+20)
	out = append(out, data...)
	out = append(out, strconv.FormatUint(counter, 10)...)
	return out
}

// Build marshals payload, signs it with priv under counter, and
// returns the wire-ready signed_data envelope.
func Build(payload any, priv *rsa.PrivateKey, counter uint64) (domain.Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return domain.Envelope{}, err
	}
	sig, err := crypto.PSSSign(priv, signedBytes(data, counter))
	if err != nil {
		return domain.Envelope{}, err
	}
	return domain.Envelope{
		Type:      "signed_data",
		Data:      data,
		Counter:   counter,
		Signature: crypto.B64(sig),
	}, nil
}

// Verify checks env's type, signature under pub, and counter ordering
// against lastCounter. It returns nil only when every check passes.
func Verify(env domain.Envelope, pub *rsa.PublicKey, lastCounter uint64) error {
	if env.Type != "signed_data" {
		return ErrWrongType
	}
	if env.Counter <= lastCounter {
		return ErrReplay
	}
	sig, err := crypto.B64Decode(env.Signature)
	if err != nil {
		return err
	}
	return crypto.PSSVerify(pub, signedBytes(env.Data, env.Counter), sig)
}

// Parse decodes a raw wire frame into an Envelope without verifying it.
func Parse(raw []byte) (domain.Envelope, error) {
	var env domain.Envelope
	err := json.Unmarshal(raw, &env)
	return env, err
}

// InnerType reads the "type" discriminator out of env.Data without
// decoding the full payload.
func InnerType(env domain.Envelope) (domain.InnerType, error) {
	var t domain.TypeOnly
	if err := json.Unmarshal(env.Data, &t); err != nil {
		return "", err
	}
	return t.Type, nil
}

// Marshal serializes env back to its wire JSON form.
func Marshal(env domain.Envelope) ([]byte, error) {
	return json.Marshal(env)
}
