package security

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// SignatureMode defines the RSA signature padding scheme
type SignatureMode int

const (
	// SignatureModePKCS1v15 uses PKCS#1 v1.5 padding (A005)
	SignatureModePKCS1v15 SignatureMode = iota
	// SignatureModePSS uses RSA-PSS padding (A006)
	SignatureModePSS
)

var pssOptions = &rsa.PSSOptions{
	SaltLength: 32,
	Hash:       crypto.SHA256,
}

// RSASigner computes electronic signatures over order data
type RSASigner struct {
	privateKey    *rsa.PrivateKey
	signatureMode SignatureMode
}

// NewRSASigner creates a signer with the given padding mode
func NewRSASigner(privateKey *rsa.PrivateKey, mode SignatureMode) (*RSASigner, error) {
	if privateKey == nil {
		return nil, fmt.Errorf("%w: signature private key is required", ErrMissingKey)
	}
	return &RSASigner{privateKey: privateKey, signatureMode: mode}, nil
}

// SignData hashes data with SHA-256 and signs the digest. The result is
// base64 encoded. Data must already be canonical.
func (s *RSASigner) SignData(data []byte) (string, error) {
	if !IsCanonical(data) {
		return "", ErrNotCanonical
	}

	digest := sha256.Sum256(data)

	var (
		signature []byte
		err       error
	)
	switch s.signatureMode {
	case SignatureModePSS:
		signature, err = rsa.SignPSS(rand.Reader, s.privateKey, crypto.SHA256, digest[:], pssOptions)
	default:
		signature, err = rsa.SignPKCS1v15(rand.Reader, s.privateKey, crypto.SHA256, digest[:])
	}
	if err != nil {
		return "", fmt.Errorf("%w: failed to sign: %w", ErrCrypto, err)
	}

	return base64.StdEncoding.EncodeToString(signature), nil
}

// VerifySignature checks a base64 signature produced by SignData
func VerifySignature(publicKey *rsa.PublicKey, mode SignatureMode, data []byte, signatureB64 string) error {
	signature, err := base64.StdEncoding.DecodeString(signatureB64)
	if err != nil {
		return fmt.Errorf("failed to decode signature: %w", err)
	}

	digest := sha256.Sum256(data)
	if mode == SignatureModePSS {
		return rsa.VerifyPSS(publicKey, crypto.SHA256, digest[:], signature, pssOptions)
	}
	return rsa.VerifyPKCS1v15(publicKey, crypto.SHA256, digest[:], signature)
}
