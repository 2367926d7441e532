package security

import (
	"crypto/rand"
	"crypto/rsa"
	"fmt"
)

// RSAEncryptor wraps and unwraps E002 transaction keys with RSAES-PKCS1-v1_5
type RSAEncryptor struct {
	recipientPublicKey *rsa.PublicKey
	privateKey         *rsa.PrivateKey
}

// NewRSAEncryptor creates an encryptor wrapping keys for the given recipient
func NewRSAEncryptor(recipientPublicKey *rsa.PublicKey) (*RSAEncryptor, error) {
	if recipientPublicKey == nil {
		return nil, fmt.Errorf("%w: recipient public key is required", ErrMissingKey)
	}
	return &RSAEncryptor{recipientPublicKey: recipientPublicKey}, nil
}

// NewRSADecryptor creates a decryptor unwrapping keys with the given private key
func NewRSADecryptor(privateKey *rsa.PrivateKey) (*RSAEncryptor, error) {
	if privateKey == nil {
		return nil, fmt.Errorf("%w: private key is required", ErrMissingKey)
	}
	return &RSAEncryptor{privateKey: privateKey}, nil
}

// WrapKey encrypts a transaction key for the recipient
func (e *RSAEncryptor) WrapKey(key []byte) ([]byte, error) {
	if e.recipientPublicKey == nil {
		return nil, fmt.Errorf("%w: recipient public key not set", ErrMissingKey)
	}

	wrapped, err := rsa.EncryptPKCS1v15(rand.Reader, e.recipientPublicKey, key)
	if err != nil {
		return nil, fmt.Errorf("RSA key wrapping failed: %w", err)
	}

	return wrapped, nil
}

// UnwrapKey decrypts a wrapped transaction key and checks its length
func (e *RSAEncryptor) UnwrapKey(wrapped []byte) ([]byte, error) {
	if e.privateKey == nil {
		return nil, fmt.Errorf("%w: private key not set", ErrMissingKey)
	}

	key, err := rsa.DecryptPKCS1v15(rand.Reader, e.privateKey, wrapped)
	if err != nil {
		return nil, fmt.Errorf("RSA key unwrapping failed: %w", err)
	}

	if err := ValidateTransactionKey(key); err != nil {
		return nil, err
	}

	return key, nil
}
