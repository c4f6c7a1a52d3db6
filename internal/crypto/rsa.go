package crypto

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
)

// RSABits is the fixed key size for every identity in the mesh.
const RSABits = 2048

// GenerateRSA returns a fresh RSA-2048 key pair (e=65537, the Go
// standard library default).
func GenerateRSA() (*rsa.PrivateKey, error) {
	return rsa.GenerateKey(rand.Reader, RSABits)
}

// EncodePrivatePEM encodes priv as a PKCS#8 "PRIVATE KEY" PEM block.
func EncodePrivatePEM(priv *rsa.PrivateKey) ([]byte, error) {
	der, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return nil, err
	}
	return pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}), nil
}

// EncodePublicPEM encodes pub as an X.509 SubjectPublicKeyInfo
// "PUBLIC KEY" PEM block, matching the wire format carried in hello,
// client_update and client_list messages.
func EncodePublicPEM(pub *rsa.PublicKey) ([]byte, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return nil, err
	}
	return pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}), nil
}

// DecodePrivatePEM reverses EncodePrivatePEM.
func DecodePrivatePEM(data []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, ErrBadPEM
	}
	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, err
	}
	priv, ok := key.(*rsa.PrivateKey)
	if !ok {
		return nil, ErrBadPEM
	}
	return priv, nil
}

// DecodePublicPEM reverses EncodePublicPEM.
func DecodePublicPEM(data []byte) (*rsa.PublicKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, ErrBadPEM
	}
	key, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, err
	}
	pub, ok := key.(*rsa.PublicKey)
	if !ok {
		return nil, ErrBadPEM
	}
	return pub, nil
}
