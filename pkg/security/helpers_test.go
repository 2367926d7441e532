package security

import (
	"crypto/rand"
	"crypto/rsa"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

var (
	testKeysOnce sync.Once
	testKeys     []*rsa.PrivateKey
	testKeysErr  error
)

// testRSAKeys returns n cached 2048-bit keys (n <= 4)
func testRSAKeys(t *testing.T, n int) []*rsa.PrivateKey {
	t.Helper()

	testKeysOnce.Do(func() {
		for range 4 {
			key, err := rsa.GenerateKey(rand.Reader, 2048)
			if err != nil {
				testKeysErr = err
				return
			}
			testKeys = append(testKeys, key)
		}
	})
	require.NoError(t, testKeysErr)
	return testKeys[:n]
}

// testKeyring builds a keyring where the bank holds the last key
func testKeyring(t *testing.T) (*Keyring, *rsa.PrivateKey) {
	t.Helper()

	keys := testRSAKeys(t, 4)
	return &Keyring{
		SignatureVersion:   SignatureA006,
		UserSignature:      keys[0],
		UserAuthentication: keys[1],
		UserEncryption:     keys[2],
		BankAuthentication: &keys[3].PublicKey,
		BankEncryption:     &keys[3].PublicKey,
	}, keys[3]
}
