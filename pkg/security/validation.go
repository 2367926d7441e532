package security

import (
	"crypto/rsa"
	"errors"
	"fmt"
)

// MinRSAKeyBits is the smallest RSA modulus EBICS accepts for A005/A006, X002 and E002
const MinRSAKeyBits = 1536

var (
	// ErrInvalidPublicKey is returned when a public key is invalid
	ErrInvalidPublicKey = errors.New("invalid public key")
	// ErrInvalidPrivateKey is returned when a private key is invalid
	ErrInvalidPrivateKey = errors.New("invalid private key")
	// ErrInvalidKeySize is returned when a key has an invalid size
	ErrInvalidKeySize = errors.New("invalid key size")
	// ErrWeakKey is returned when a key is cryptographically weak
	ErrWeakKey = errors.New("weak key detected")
)

// ValidateRSAPublicKey checks modulus size and exponent of an RSA key
func ValidateRSAPublicKey(publicKey *rsa.PublicKey) error {
	if publicKey == nil || publicKey.N == nil {
		return fmt.Errorf("%w: nil public key", ErrInvalidPublicKey)
	}

	if bits := publicKey.N.BitLen(); bits < MinRSAKeyBits {
		return fmt.Errorf("%w: RSA key must be at least %d bits, got %d", ErrInvalidKeySize, MinRSAKeyBits, bits)
	}

	if publicKey.E < 3 || publicKey.E%2 == 0 {
		return fmt.Errorf("%w: RSA exponent %d", ErrWeakKey, publicKey.E)
	}

	return nil
}

// ValidateRSAPrivateKey checks an RSA private key and its public half
func ValidateRSAPrivateKey(privateKey *rsa.PrivateKey) error {
	if privateKey == nil {
		return fmt.Errorf("%w: nil private key", ErrInvalidPrivateKey)
	}

	if err := ValidateRSAPublicKey(&privateKey.PublicKey); err != nil {
		return err
	}

	if err := privateKey.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPrivateKey, err)
	}

	return nil
}

// ValidateTransactionKey validates an E002 transaction key
func ValidateTransactionKey(key []byte) error {
	if len(key) != TransactionKeySize {
		return fmt.Errorf("%w: transaction key must be %d bytes, got %d", ErrInvalidKeySize, TransactionKeySize, len(key))
	}

	// Check for all-zero key
	allZeros := true
	for _, b := range key {
		if b != 0 {
			allZeros = false
			break
		}
	}

	if allZeros {
		return fmt.Errorf("%w: all-zero transaction key", ErrWeakKey)
	}

	return nil
}

// SanitizeInputSize validates input data size to prevent DoS attacks
func SanitizeInputSize(data []byte, maxSize int, dataType string) error {
	if maxSize > 0 && len(data) > maxSize {
		return fmt.Errorf("%s size %d exceeds maximum %d bytes", dataType, len(data), maxSize)
	}
	return nil
}
