package relayserver

import (
	"crypto/rsa"

	"olaf/internal/crypto"
)

func encodePublicPEMOrEmpty(pub *rsa.PublicKey) (string, error) {
	pemBytes, err := crypto.EncodePublicPEM(pub)
	if err != nil {
		return "", err
	}
	return string(pemBytes), nil
}
