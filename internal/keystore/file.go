// Package keystore loads EBICS subscriber and bank keys from PEM files.
//
// User keys are RSA private keys in PKCS#1 ("RSA PRIVATE KEY") or PKCS#8
// ("PRIVATE KEY") form. Bank keys may be given as PKIX ("PUBLIC KEY"),
// PKCS#1 ("RSA PUBLIC KEY") or as an X.509 certificate.
package keystore

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirosfoundation/go-ebics/internal/config"
	"github.com/sirosfoundation/go-ebics/pkg/security"
)

// ErrKeyNotFound is returned when a key file does not exist
var ErrKeyNotFound = errors.New("key file not found")

// FileStore reads PEM files and caches the parsed keys by path.
// It is safe for concurrent use.
type FileStore struct {
	mu        sync.RWMutex
	cache     map[string]any
	validator security.CertificateValidator
}

// Option represents a functional option for FileStore
type Option func(*FileStore)

// WithCertificateValidator requires bank keys to be given as certificates
// that pass v
func WithCertificateValidator(v security.CertificateValidator) Option {
	return func(s *FileStore) {
		s.validator = v
	}
}

// NewFileStore creates an empty key store
func NewFileStore(opts ...Option) *FileStore {
	s := &FileStore{cache: make(map[string]any)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PrivateKey returns the RSA private key stored at path
func (s *FileStore) PrivateKey(path string) (*rsa.PrivateKey, error) {
	v, err := s.load("private", path, parsePrivateKey)
	if err != nil {
		return nil, err
	}
	return v.(*rsa.PrivateKey), nil
}

// PublicKey returns the RSA public key stored at path, taken from a
// certificate if the file holds one
func (s *FileStore) PublicKey(path string) (*rsa.PublicKey, error) {
	v, err := s.load("public", path, parsePublicKey)
	if err != nil {
		return nil, err
	}
	return v.(*rsa.PublicKey), nil
}

// Certificate returns the X.509 certificate stored at path
func (s *FileStore) Certificate(path string) (*x509.Certificate, error) {
	v, err := s.load("certificate", path, parseCertificate)
	if err != nil {
		return nil, err
	}
	return v.(*x509.Certificate), nil
}

// Keyring builds the keyring of the configured subscriber. Key files left
// empty in the configuration stay nil, so INI can run before the bank
// keys are known.
func (s *FileStore) Keyring(cfg *config.Config) (*security.Keyring, error) {
	keys := &security.Keyring{SignatureVersion: cfg.User.SignatureVersion}

	private := []struct {
		name string
		path string
		dst  **rsa.PrivateKey
	}{
		{"user signature", cfg.User.Keys.Signature, &keys.UserSignature},
		{"user authentication", cfg.User.Keys.Authentication, &keys.UserAuthentication},
		{"user encryption", cfg.User.Keys.Encryption, &keys.UserEncryption},
	}
	for _, k := range private {
		if k.path == "" {
			continue
		}
		key, err := s.PrivateKey(k.path)
		if err != nil {
			return nil, fmt.Errorf("loading %s key: %w", k.name, err)
		}
		*k.dst = key
	}

	public := []struct {
		name    string
		purpose string
		path    string
		dst     **rsa.PublicKey
	}{
		{"bank authentication", security.PurposeAuthentication, cfg.Bank.Keys.Authentication, &keys.BankAuthentication},
		{"bank encryption", security.PurposeEncryption, cfg.Bank.Keys.Encryption, &keys.BankEncryption},
	}
	for _, k := range public {
		if k.path == "" {
			continue
		}
		if s.validator != nil {
			cert, err := s.Certificate(k.path)
			if err != nil {
				return nil, fmt.Errorf("loading %s certificate: %w", k.name, err)
			}
			if err := s.validator.ValidateCertificate(cert, nil, k.purpose); err != nil {
				return nil, fmt.Errorf("%s certificate: %w", k.name, err)
			}
		}
		key, err := s.PublicKey(k.path)
		if err != nil {
			return nil, fmt.Errorf("loading %s key: %w", k.name, err)
		}
		*k.dst = key
	}

	if path := cfg.User.Keys.Certificate; path != "" {
		cert, err := s.Certificate(path)
		if err != nil {
			return nil, fmt.Errorf("loading user signature certificate: %w", err)
		}
		keys.UserSignatureCert = cert
	}

	if err := keys.Validate(); err != nil {
		return nil, err
	}
	return keys, nil
}

// Close drops all cached keys
func (s *FileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = make(map[string]any)
	return nil
}

// load parses the first PEM block of path. Entries are cached per kind
// since one certificate file serves as certificate and public key.
func (s *FileStore) load(kind, path string, parse func(*pem.Block) (any, error)) (any, error) {
	path = filepath.Clean(path)
	cacheKey := kind + ":" + path

	s.mu.RLock()
	if v, ok := s.cache[cacheKey]; ok {
		s.mu.RUnlock()
		return v, nil
	}
	s.mu.RUnlock()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, path)
		}
		return nil, fmt.Errorf("reading key file: %w", err)
	}

	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("no PEM block found in %s", path)
	}

	v, err := parse(block)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	s.mu.Lock()
	s.cache[cacheKey] = v
	s.mu.Unlock()

	return v, nil
}

func parsePrivateKey(block *pem.Block) (any, error) {
	switch block.Type {
	case "RSA PRIVATE KEY":
		return x509.ParsePKCS1PrivateKey(block.Bytes)
	case "PRIVATE KEY":
		key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, err
		}
		rsaKey, ok := key.(*rsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("key is not an RSA key")
		}
		return rsaKey, nil
	default:
		return nil, fmt.Errorf("unsupported key type: %s", block.Type)
	}
}

func parsePublicKey(block *pem.Block) (any, error) {
	var pub any
	switch block.Type {
	case "RSA PUBLIC KEY":
		return x509.ParsePKCS1PublicKey(block.Bytes)
	case "PUBLIC KEY":
		key, err := x509.ParsePKIXPublicKey(block.Bytes)
		if err != nil {
			return nil, err
		}
		pub = key
	case "CERTIFICATE":
		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return nil, err
		}
		pub = cert.PublicKey
	default:
		return nil, fmt.Errorf("unsupported key type: %s", block.Type)
	}

	rsaKey, ok := pub.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("key is not an RSA key")
	}
	return rsaKey, nil
}

func parseCertificate(block *pem.Block) (any, error) {
	if block.Type != "CERTIFICATE" {
		return nil, fmt.Errorf("unsupported certificate type: %s", block.Type)
	}
	return x509.ParseCertificate(block.Bytes)
}

// LoadCertPool reads every certificate of a PEM bundle into a pool
func LoadCertPool(path string) (*x509.CertPool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading CA file: %w", err)
	}

	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(data) {
		return nil, fmt.Errorf("no certificates found in %s", path)
	}
	return pool, nil
}
