package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
)

var (
	// ErrCrypto is returned for any failure of the crypto envelope
	ErrCrypto = errors.New("crypto envelope failure")
	// ErrNotCanonical is returned when signing data that still contains line breaks or tabs
	ErrNotCanonical = errors.New("data is not in canonical form")
	// ErrMissingKey is returned when a required key is not configured
	ErrMissingKey = errors.New("key not configured")
)

// GenerateTransactionKey returns a fresh random AES-128 transaction key.
// It reads from crypto/rand and is safe for concurrent use.
func GenerateTransactionKey() ([]byte, error) {
	key := make([]byte, TransactionKeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("%w: failed to generate transaction key: %w", ErrCrypto, err)
	}
	return key, nil
}

// EncryptAES encrypts data with AES-128-CBC as E002 requires: an all-zero
// IV and ISO 10126 padding. The padding bytes are filled with the pad
// length, so the result is deterministic for a given key and plaintext.
func EncryptAES(data, key []byte) ([]byte, error) {
	if err := ValidateTransactionKey(key); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCrypto, err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create AES cipher: %w", ErrCrypto, err)
	}

	padLen := aes.BlockSize - len(data)%aes.BlockSize
	padded := make([]byte, len(data)+padLen)
	copy(padded, data)
	for i := len(data); i < len(padded); i++ {
		padded[i] = byte(padLen)
	}

	iv := make([]byte, aes.BlockSize)
	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)

	return ciphertext, nil
}

// DecryptAES reverses EncryptAES. Only the final pad length byte is
// interpreted, the remaining padding bytes may hold any value.
func DecryptAES(data, key []byte) ([]byte, error) {
	if err := ValidateTransactionKey(key); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCrypto, err)
	}

	if len(data) == 0 || len(data)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("%w: ciphertext length %d is not a multiple of the block size", ErrCrypto, len(data))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create AES cipher: %w", ErrCrypto, err)
	}

	iv := make([]byte, aes.BlockSize)
	plaintext := make([]byte, len(data))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plaintext, data)

	padLen := int(plaintext[len(plaintext)-1])
	if padLen == 0 || padLen > aes.BlockSize {
		return nil, fmt.Errorf("%w: invalid padding length %d", ErrCrypto, padLen)
	}

	return plaintext[:len(plaintext)-padLen], nil
}
