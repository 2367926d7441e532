package security

import (
	"crypto/rsa"
	"crypto/x509"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrCertificateExpired is returned when a certificate has expired
	ErrCertificateExpired = errors.New("certificate has expired")
	// ErrCertificateNotYetValid is returned when a certificate is not yet valid
	ErrCertificateNotYetValid = errors.New("certificate is not yet valid")
	// ErrCertificateUntrusted is returned when a certificate is not trusted
	ErrCertificateUntrusted = errors.New("certificate is not trusted")
	// ErrInvalidCertificate is returned for other certificate validation failures
	ErrInvalidCertificate = errors.New("certificate validation failed")
)

// Certificate purposes matching the EBICS key versions
const (
	PurposeSignature      = "signature"
	PurposeAuthentication = "authentication"
	PurposeEncryption     = "encryption"
)

// CertificateValidator validates bank certificates before their keys are
// trusted. Without certificates banks are trusted by key digest only.
type CertificateValidator interface {
	// ValidateCertificate validates a certificate for the given purpose
	ValidateCertificate(cert *x509.Certificate, intermediates []*x509.Certificate, purpose string) error
}

// DefaultCertificateValidator implements traditional PKI validation
type DefaultCertificateValidator struct {
	roots *x509.CertPool
	now   func() time.Time
}

// NewDefaultCertificateValidator creates a validator using traditional PKI.
// A nil pool uses the system roots.
func NewDefaultCertificateValidator(roots *x509.CertPool) *DefaultCertificateValidator {
	return &DefaultCertificateValidator{
		roots: roots,
		now:   time.Now,
	}
}

// ValidateCertificate validates a single certificate against the trust store
func (v *DefaultCertificateValidator) ValidateCertificate(cert *x509.Certificate, chain []*x509.Certificate, purpose string) error {
	if cert == nil {
		return fmt.Errorf("%w: nil certificate", ErrInvalidCertificate)
	}

	// Check expiration
	now := v.now()
	if now.Before(cert.NotBefore) {
		return ErrCertificateNotYetValid
	}
	if now.After(cert.NotAfter) {
		return ErrCertificateExpired
	}

	publicKey, ok := cert.PublicKey.(*rsa.PublicKey)
	if !ok {
		return fmt.Errorf("%w: certificate does not contain RSA public key", ErrInvalidCertificate)
	}
	if err := ValidateRSAPublicKey(publicKey); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidCertificate, err)
	}

	if purpose == PurposeEncryption && cert.KeyUsage != 0 && cert.KeyUsage&x509.KeyUsageKeyEncipherment == 0 {
		return fmt.Errorf("%w: key encipherment not permitted", ErrInvalidCertificate)
	}
	if (purpose == PurposeSignature || purpose == PurposeAuthentication) && cert.KeyUsage != 0 && cert.KeyUsage&x509.KeyUsageDigitalSignature == 0 {
		return fmt.Errorf("%w: digital signature not permitted", ErrInvalidCertificate)
	}

	opts := x509.VerifyOptions{
		Roots:         v.roots,
		CurrentTime:   now,
		Intermediates: x509.NewCertPool(),
		KeyUsages:     []x509.ExtKeyUsage{x509.ExtKeyUsageAny},
	}
	for _, intermediate := range chain {
		opts.Intermediates.AddCert(intermediate)
	}

	if _, err := cert.Verify(opts); err != nil {
		return fmt.Errorf("%w: %v", ErrCertificateUntrusted, err)
	}

	return nil
}
