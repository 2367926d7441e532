package security

import (
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"fmt"
	"math/big"
	"strings"
)

// Keyring holds the key material of one EBICS subscriber.
//
// User keys are private keys of the subscriber, bank keys are the public
// keys fetched via HPB and verified against the bank's key letter. A
// Keyring is read-only once built and may be shared between transactions.
type Keyring struct {
	// SignatureVersion is A005 or A006
	SignatureVersion string

	UserSignature      *rsa.PrivateKey
	UserAuthentication *rsa.PrivateKey
	UserEncryption     *rsa.PrivateKey

	// Optional certificates for the user keys (EBICS 3.0 style INI/HIA)
	UserSignatureCert *x509.Certificate

	BankAuthentication *rsa.PublicKey
	BankEncryption     *rsa.PublicKey
}

// Validate checks that every present key meets EBICS requirements
func (k *Keyring) Validate() error {
	switch k.SignatureVersion {
	case "", SignatureA005, SignatureA006:
	default:
		return fmt.Errorf("unsupported signature version: %s", k.SignatureVersion)
	}

	for name, key := range map[string]*rsa.PrivateKey{
		"signature":      k.UserSignature,
		"authentication": k.UserAuthentication,
		"encryption":     k.UserEncryption,
	} {
		if key == nil {
			continue
		}
		if err := ValidateRSAPrivateKey(key); err != nil {
			return fmt.Errorf("user %s key: %w", name, err)
		}
	}

	for name, key := range map[string]*rsa.PublicKey{
		"authentication": k.BankAuthentication,
		"encryption":     k.BankEncryption,
	} {
		if key == nil {
			continue
		}
		if err := ValidateRSAPublicKey(key); err != nil {
			return fmt.Errorf("bank %s key: %w", name, err)
		}
	}

	return nil
}

// Version returns the configured signature version, A006 by default
func (k *Keyring) Version() string {
	if k.SignatureVersion == "" {
		return SignatureA006
	}
	return k.SignatureVersion
}

// BankDigests returns the base64 encoded digests of the bank's X002 and
// E002 keys as carried in BankPubKeyDigests.
func (k *Keyring) BankDigests() (authentication, encryption string, err error) {
	if k.BankAuthentication == nil || k.BankEncryption == nil {
		return "", "", fmt.Errorf("%w: bank keys not available", ErrMissingKey)
	}

	auth, err := PublicKeyDigest(k.BankAuthentication)
	if err != nil {
		return "", "", err
	}
	enc, err := PublicKeyDigest(k.BankEncryption)
	if err != nil {
		return "", "", err
	}

	return base64.StdEncoding.EncodeToString(auth), base64.StdEncoding.EncodeToString(enc), nil
}

// PublicKeyDigest computes the EBICS hash of an RSA public key: SHA-256
// over lower case hex exponent, a single space and lower case hex modulus,
// both without leading zeros.
func PublicKeyDigest(publicKey *rsa.PublicKey) ([]byte, error) {
	if publicKey == nil || publicKey.N == nil {
		return nil, fmt.Errorf("%w: nil public key", ErrInvalidPublicKey)
	}

	exponent := strings.TrimLeft(big.NewInt(int64(publicKey.E)).Text(16), "0")
	modulus := strings.TrimLeft(publicKey.N.Text(16), "0")

	sum := sha256.Sum256([]byte(exponent + " " + modulus))
	return sum[:], nil
}

// FormatKeyDigest renders a digest the way key letters print it: upper
// case hex pairs separated by spaces.
func FormatKeyDigest(digest []byte) string {
	pairs := make([]string, len(digest))
	for i, b := range digest {
		pairs[i] = fmt.Sprintf("%02X", b)
	}
	return strings.Join(pairs, " ")
}

// ModulusBase64 returns the unsigned big endian modulus in base64, as used
// in RSAKeyValue elements.
func ModulusBase64(publicKey *rsa.PublicKey) string {
	return base64.StdEncoding.EncodeToString(publicKey.N.Bytes())
}

// ExponentBase64 returns the big endian public exponent in base64
func ExponentBase64(publicKey *rsa.PublicKey) string {
	return base64.StdEncoding.EncodeToString(big.NewInt(int64(publicKey.E)).Bytes())
}
