// Package config handles configuration loading for the EBICS client.
//
// Configuration is loaded from a YAML file with support for environment
// variable expansion (${VAR} or $VAR syntax), so key paths and database
// credentials can be injected at runtime. A small set of process settings
// (config path, log level, environment) is read from EBICS_* variables.
//
// # Configuration Sections
//
//   - bank: bank server URL, host ID and the bank's public keys
//   - user: subscriber identity and key files
//   - protocol: EBICS version, product, upload segment size and compression
//   - storage: transaction journal backend (badger or mongodb)
//   - transport: HTTPS timeouts
//
// # Example Configuration
//
//	bank:
//	  url: https://ebics.example-bank.de/ebics
//	  hostId: EXBANK
//	  keys:
//	    authentication: /etc/ebics/bank-x002.pem
//	    encryption: /etc/ebics/bank-e002.pem
//
//	user:
//	  partnerId: PARTNER1
//	  userId: USER1
//	  signatureVersion: A006
//	  keys:
//	    signature: ${EBICS_KEY_DIR}/a006.key
//	    authentication: ${EBICS_KEY_DIR}/x002.key
//	    encryption: ${EBICS_KEY_DIR}/e002.key
//
//	storage:
//	  type: badger
//	  badger:
//	    dir: /var/lib/ebics
//
// See [Load] for loading configuration from a file.
package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/sirosfoundation/go-ebics/pkg/compression"
	"github.com/sirosfoundation/go-ebics/pkg/protocol"
	"github.com/sirosfoundation/go-ebics/pkg/security"
	"github.com/sirosfoundation/go-ebics/pkg/segment"
	"gopkg.in/yaml.v3"
)

// Storage backends
const (
	StorageBadger  = "badger"
	StorageMongoDB = "mongodb"
)

// Config is the root configuration structure
type Config struct {
	Bank      BankConfig      `yaml:"bank"`
	User      UserConfig      `yaml:"user"`
	Protocol  ProtocolConfig  `yaml:"protocol"`
	Storage   StorageConfig   `yaml:"storage"`
	Transport TransportConfig `yaml:"transport"`
}

// BankConfig identifies the bank server
type BankConfig struct {
	URL    string `yaml:"url"`
	HostID string `yaml:"hostId"`
	Keys   struct {
		// PEM encoded public keys or certificates of the bank (X002, E002)
		Authentication string `yaml:"authentication"`
		Encryption     string `yaml:"encryption"`
		// CAFile, when set, requires both bank keys to be certificates
		// issued by one of the CAs in this PEM bundle
		CAFile string `yaml:"caFile"`
	} `yaml:"keys"`
	// VerifyResponses checks the X002 signature of bank responses. It
	// defaults to true when a bank authentication key is configured.
	VerifyResponses *bool `yaml:"verifyResponses"`
}

// UserConfig identifies the subscriber and its keys
type UserConfig struct {
	PartnerID        string `yaml:"partnerId"`
	UserID           string `yaml:"userId"`
	SystemID         string `yaml:"systemId"`
	SignatureVersion string `yaml:"signatureVersion"`
	Keys             struct {
		Signature      string `yaml:"signature"`
		Authentication string `yaml:"authentication"`
		Encryption     string `yaml:"encryption"`
		// Certificate of the signature key, optional
		Certificate string `yaml:"certificate"`
	} `yaml:"keys"`
}

// ProtocolConfig holds request header settings
type ProtocolConfig struct {
	Version         string `yaml:"version"`
	Revision        string `yaml:"revision"`
	Product         string `yaml:"product"`
	ProductLanguage string `yaml:"productLanguage"`
	SecurityMedium  string `yaml:"securityMedium"`
	SegmentSize     int    `yaml:"segmentSize"`
	// CompressionLevel is the deflate level of uploads, 1 to 9 or -1
	CompressionLevel int `yaml:"compressionLevel"`
	// MaxOrderDataSize limits inflated order data in bytes, 0 for no limit
	MaxOrderDataSize int64 `yaml:"maxOrderDataSize"`
}

// StorageConfig selects the transaction journal backend
type StorageConfig struct {
	Type    string        `yaml:"type"`
	Badger  BadgerConfig  `yaml:"badger"`
	MongoDB MongoDBConfig `yaml:"mongodb"`
}

// BadgerConfig holds settings of the local journal
type BadgerConfig struct {
	Dir      string `yaml:"dir"`
	InMemory bool   `yaml:"inMemory"`
}

// MongoDBConfig holds MongoDB connection settings
type MongoDBConfig struct {
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`
	GridFS   struct {
		BucketName     string `yaml:"bucketName"`
		ChunkSizeBytes int32  `yaml:"chunkSizeBytes"`
	} `yaml:"gridfs"`
}

// TransportConfig holds HTTPS client settings
type TransportConfig struct {
	Timeout         time.Duration `yaml:"timeout"`
	IdleConnTimeout time.Duration `yaml:"idleConnTimeout"`
	// MaxResponseSize limits the size of a bank response in bytes
	MaxResponseSize int64 `yaml:"maxResponseSize"`
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(data)
}

// Parse expands environment variables in data and decodes it
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.User.SignatureVersion == "" {
		c.User.SignatureVersion = security.SignatureA006
	}
	if c.Protocol.Version == "" {
		c.Protocol.Version = protocol.VersionH004
	}
	if c.Protocol.Revision == "" {
		c.Protocol.Revision = protocol.RevisionOne
	}
	if c.Protocol.Product == "" {
		c.Protocol.Product = protocol.DefaultProduct
	}
	if c.Protocol.ProductLanguage == "" {
		c.Protocol.ProductLanguage = protocol.DefaultProductLanguage
	}
	if c.Protocol.SecurityMedium == "" {
		c.Protocol.SecurityMedium = protocol.DefaultSecurityMedium
	}
	if c.Protocol.SegmentSize == 0 {
		c.Protocol.SegmentSize = segment.DefaultMaxSize
	}
	if c.Protocol.CompressionLevel == 0 {
		c.Protocol.CompressionLevel = compression.DefaultLevel
	}
	if c.Storage.Type == "" {
		c.Storage.Type = StorageBadger
	}
	if c.Storage.Badger.Dir == "" {
		c.Storage.Badger.Dir = "ebics-data"
	}
	if c.Storage.MongoDB.Database == "" {
		c.Storage.MongoDB.Database = "ebics"
	}
	if c.Storage.MongoDB.GridFS.BucketName == "" {
		c.Storage.MongoDB.GridFS.BucketName = "orderdata"
	}
	if c.Storage.MongoDB.GridFS.ChunkSizeBytes == 0 {
		c.Storage.MongoDB.GridFS.ChunkSizeBytes = 261120 // 255KB
	}
	if c.Transport.Timeout == 0 {
		c.Transport.Timeout = 60 * time.Second
	}
	if c.Transport.IdleConnTimeout == 0 {
		c.Transport.IdleConnTimeout = 90 * time.Second
	}
	if c.Bank.VerifyResponses == nil {
		verify := c.Bank.Keys.Authentication != ""
		c.Bank.VerifyResponses = &verify
	}
}

func (c *Config) validate() error {
	if c.Bank.URL == "" {
		return fmt.Errorf("bank.url is required")
	}
	u, err := url.Parse(c.Bank.URL)
	if err != nil {
		return fmt.Errorf("bank.url: %w", err)
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return fmt.Errorf("bank.url must be an http(s) URL, got '%s'", c.Bank.URL)
	}
	if c.Bank.HostID == "" {
		return fmt.Errorf("bank.hostId is required")
	}
	if c.User.PartnerID == "" {
		return fmt.Errorf("user.partnerId is required")
	}
	if c.User.UserID == "" {
		return fmt.Errorf("user.userId is required")
	}

	switch c.User.SignatureVersion {
	case security.SignatureA005, security.SignatureA006:
	default:
		return fmt.Errorf("user.signatureVersion must be 'A005' or 'A006', got '%s'", c.User.SignatureVersion)
	}

	if c.Protocol.Version != protocol.VersionH004 {
		return fmt.Errorf("protocol.version must be '%s', got '%s'", protocol.VersionH004, c.Protocol.Version)
	}
	if c.Protocol.SegmentSize < 1 || c.Protocol.SegmentSize > segment.DefaultMaxSize {
		return fmt.Errorf("protocol.segmentSize must be between 1 and %d, got %d", segment.DefaultMaxSize, c.Protocol.SegmentSize)
	}
	if !compression.ValidLevel(c.Protocol.CompressionLevel) {
		return fmt.Errorf("protocol.compressionLevel must be -1 or between 1 and 9, got %d", c.Protocol.CompressionLevel)
	}
	if c.Protocol.MaxOrderDataSize < 0 {
		return fmt.Errorf("protocol.maxOrderDataSize must not be negative")
	}

	switch c.Storage.Type {
	case StorageBadger:
	case StorageMongoDB:
		if c.Storage.MongoDB.URI == "" {
			return fmt.Errorf("storage.mongodb.uri is required when type is 'mongodb'")
		}
	default:
		return fmt.Errorf("storage.type must be 'badger' or 'mongodb', got '%s'", c.Storage.Type)
	}

	return nil
}

// Subscriber returns the identity written to request headers
func (c *Config) Subscriber() protocol.Subscriber {
	return protocol.Subscriber{
		HostID:          c.Bank.HostID,
		PartnerID:       c.User.PartnerID,
		UserID:          c.User.UserID,
		SystemID:        c.User.SystemID,
		Product:         c.Protocol.Product,
		ProductLanguage: c.Protocol.ProductLanguage,
		SecurityMedium:  c.Protocol.SecurityMedium,
		Version:         c.Protocol.Version,
		Revision:        c.Protocol.Revision,
	}
}
