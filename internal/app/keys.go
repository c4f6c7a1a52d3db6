package app

import (
	"crypto/rsa"

	"olaf/internal/crypto"
	domain "olaf/internal/domain"
)

// loadOrGenerateKeys returns the identity stored in ks, generating and
// persisting a fresh RSA-2048 pair on first run (spec.md §4.6/§6:
// "load or generate an RSA-2048 key pair into a persistent config
// directory").
func loadOrGenerateKeys(ks domain.KeyStore) (priv *rsa.PrivateKey, pubPEM []byte, err error) {
	privPEM, pub, ok, err := ks.LoadKeyPair()
	if err != nil {
		return nil, nil, err
	}
	if ok {
		decoded, err := crypto.DecodePrivatePEM(privPEM)
		if err != nil {
			return nil, nil, err
		}
		return decoded, pub, nil
	}

	priv, err = crypto.GenerateRSA()
	if err != nil {
		return nil, nil, err
	}
	privPEM, err = crypto.EncodePrivatePEM(priv)
	if err != nil {
		return nil, nil, err
	}
	pubPEM, err = crypto.EncodePublicPEM(&priv.PublicKey)
	if err != nil {
		return nil, nil, err
	}
	if err := ks.SaveKeyPair(privPEM, pubPEM); err != nil {
		return nil, nil, err
	}
	return priv, pubPEM, nil
}
