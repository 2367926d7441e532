package security

import (
	"bytes"
	"encoding/base64"
	"fmt"

	"github.com/beevik/etree"
	"github.com/sirosfoundation/go-ebics/pkg/compression"
)

// Envelope applies the crypto pipeline with the keys of one subscriber.
// It holds no per-transaction state and is safe for concurrent use.
type Envelope struct {
	keys       *Keyring
	compressor *compression.Compressor
	signer     Signer
}

// NewEnvelope creates an envelope for the given keyring
func NewEnvelope(keys *Keyring, opts ...Option) *Envelope {
	if keys == nil {
		keys = &Keyring{}
	}
	e := &Envelope{
		keys:       keys,
		compressor: compression.NewCompressor(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Keys returns the keyring backing the envelope
func (e *Envelope) Keys() *Keyring {
	return e.keys
}

// Compress compresses data with zlib
func (e *Envelope) Compress(data []byte) ([]byte, error) {
	out, err := e.compressor.Compress(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCrypto, err)
	}
	return out, nil
}

// Decompress inflates zlib data
func (e *Envelope) Decompress(data []byte) ([]byte, error) {
	out, err := e.compressor.Decompress(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCrypto, err)
	}
	return out, nil
}

// EncryptRSA wraps a transaction key with the bank's E002 key
func (e *Envelope) EncryptRSA(transactionKey []byte) ([]byte, error) {
	enc, err := NewRSAEncryptor(e.keys.BankEncryption)
	if err != nil {
		return nil, fmt.Errorf("%w: bank encryption key: %w", ErrCrypto, err)
	}
	wrapped, err := enc.WrapKey(transactionKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCrypto, err)
	}
	return wrapped, nil
}

// DecryptRSA unwraps a bank generated transaction key with the user's E002 key
func (e *Envelope) DecryptRSA(wrapped []byte) ([]byte, error) {
	dec, err := NewRSADecryptor(e.keys.UserEncryption)
	if err != nil {
		return nil, fmt.Errorf("%w: user encryption key: %w", ErrCrypto, err)
	}
	key, err := dec.UnwrapKey(wrapped)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCrypto, err)
	}
	return key, nil
}

// SignData computes the base64 electronic signature over canonical data
func (e *Envelope) SignData(data []byte) (string, error) {
	signer := e.signer
	if signer == nil {
		var err error
		signer, err = NewSigner(e.keys.Version(), e.keys.UserSignature)
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrCrypto, err)
		}
	}
	return signer.SignData(data)
}

// Protect compresses, encrypts and base64 encodes a payload
func (e *Envelope) Protect(plain, transactionKey []byte) (string, error) {
	compressed, err := e.Compress(plain)
	if err != nil {
		return "", err
	}

	encrypted, err := EncryptAES(compressed, transactionKey)
	if err != nil {
		return "", err
	}

	return base64.StdEncoding.EncodeToString(encrypted), nil
}

// Unprotect reverses Protect: base64 decode, decrypt, decompress
func (e *Envelope) Unprotect(encoded string, transactionKey []byte) ([]byte, error) {
	encrypted, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid base64 order data: %w", ErrCrypto, err)
	}

	compressed, err := DecryptAES(encrypted, transactionKey)
	if err != nil {
		return nil, err
	}

	return e.Decompress(compressed)
}

// DecryptOrderData extracts DataTransfer/OrderData from a response and
// decrypts it. The returned bytes are still compressed.
func DecryptOrderData(doc *etree.Document, transactionKey []byte) ([]byte, error) {
	el := doc.FindElement("//DataTransfer/OrderData")
	if el == nil {
		return nil, fmt.Errorf("%w: response carries no order data", ErrCrypto)
	}

	encrypted, err := base64.StdEncoding.DecodeString(el.Text())
	if err != nil {
		return nil, fmt.Errorf("%w: invalid base64 order data: %w", ErrCrypto, err)
	}

	return DecryptAES(encrypted, transactionKey)
}

// Canonicalize strips line feeds, carriage returns and tabs
func Canonicalize(data []byte) []byte {
	out := make([]byte, 0, len(data))
	for _, b := range data {
		switch b {
		case '\n', '\r', '\t':
			continue
		}
		out = append(out, b)
	}
	return out
}

// IsCanonical reports whether data is free of line feeds, carriage returns and tabs
func IsCanonical(data []byte) bool {
	return !bytes.ContainsAny(data, "\n\r\t")
}
