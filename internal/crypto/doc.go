// Package crypto exposes the fixed primitive set used throughout the
// relay mesh.
//
// Contents
//
//   - RSA-2048/e=65537 key generation and PEM encode/decode (GenerateRSA,
//     EncodePublicPEM, EncodePrivatePEM, DecodePublicPEM, DecodePrivatePEM)
//   - RSA-OAEP (MGF1/SHA-256, empty label) key wrapping (OAEPEncrypt,
//     OAEPDecrypt)
//   - RSA-PSS (SHA-256, MGF1/SHA-256, salt length 32) signing (PSSSign,
//     PSSVerify)
//   - AES-256-GCM payload sealing with a 16-byte IV (GCMEncrypt, GCMDecrypt)
//   - Public-key fingerprints: base64(SHA-256(PEM-encoded public key))
//     (Fingerprint, FingerprintPEM)
//
// # Notes
//
// Every parameter here is fixed by the wire protocol, not configurable:
// there is exactly one key size, one padding scheme, one signature
// scheme, and one cipher. Callers never choose algorithms; they call
// these functions and get the protocol's choices.
package crypto
