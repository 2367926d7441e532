package security

import (
	"crypto/rsa"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateTransactionKey(t *testing.T) {
	assert.NoError(t, ValidateTransactionKey([]byte("0123456789abcdef")))
	assert.ErrorIs(t, ValidateTransactionKey(make([]byte, 24)), ErrInvalidKeySize)
	assert.ErrorIs(t, ValidateTransactionKey(make([]byte, 16)), ErrWeakKey)
}

func TestValidateRSAPublicKey(t *testing.T) {
	keys := testRSAKeys(t, 1)
	assert.NoError(t, ValidateRSAPublicKey(&keys[0].PublicKey))

	assert.ErrorIs(t, ValidateRSAPublicKey(nil), ErrInvalidPublicKey)
	assert.ErrorIs(t, ValidateRSAPublicKey(&rsa.PublicKey{N: big.NewInt(77), E: 3}), ErrInvalidKeySize)

	even := &rsa.PublicKey{N: keys[0].N, E: 4}
	assert.ErrorIs(t, ValidateRSAPublicKey(even), ErrWeakKey)
}

func TestValidateRSAPrivateKey(t *testing.T) {
	keys := testRSAKeys(t, 1)
	assert.NoError(t, ValidateRSAPrivateKey(keys[0]))
	assert.ErrorIs(t, ValidateRSAPrivateKey(nil), ErrInvalidPrivateKey)
}

func TestSanitizeInputSize(t *testing.T) {
	assert.NoError(t, SanitizeInputSize(make([]byte, 10), 10, "order data"))
	assert.Error(t, SanitizeInputSize(make([]byte, 11), 10, "order data"))
	assert.NoError(t, SanitizeInputSize(make([]byte, 11), 0, "order data"))
}
