package security

import (
	"crypto/rsa"
	"fmt"
)

// Signer computes the electronic signature of canonical order data.
// Commands depend on this interface so the signed bytes can be observed.
type Signer interface {
	SignData(data []byte) (string, error)
}

// NewSigner creates a signer for an EBICS signature version
func NewSigner(version string, privateKey *rsa.PrivateKey) (Signer, error) {
	mode, err := ModeForVersion(version)
	if err != nil {
		return nil, err
	}
	return NewRSASigner(privateKey, mode)
}

// ModeForVersion maps a signature version to its padding mode
func ModeForVersion(version string) (SignatureMode, error) {
	switch version {
	case SignatureA005:
		return SignatureModePKCS1v15, nil
	case SignatureA006, "":
		return SignatureModePSS, nil
	default:
		return 0, fmt.Errorf("unsupported signature version: %s", version)
	}
}
