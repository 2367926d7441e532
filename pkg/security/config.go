package security

import "github.com/sirosfoundation/go-ebics/pkg/compression"

// Option represents a functional option for Envelope
type Option func(*Envelope)

// WithSigner overrides the signer derived from the keyring
func WithSigner(signer Signer) Option {
	return func(e *Envelope) {
		e.signer = signer
	}
}

// WithCompressor sets the compressor used by Protect and Unprotect
func WithCompressor(c *compression.Compressor) Option {
	return func(e *Envelope) {
		e.compressor = c
	}
}
