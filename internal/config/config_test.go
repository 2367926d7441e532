package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalConfig = `
bank:
  url: https://ebics.example.com/ebics
  hostId: EXBANK
user:
  partnerId: PARTNER1
  userId: USER1
`

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte(minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, "A006", cfg.User.SignatureVersion)
	assert.Equal(t, "H004", cfg.Protocol.Version)
	assert.Equal(t, "1", cfg.Protocol.Revision)
	assert.Equal(t, "0000", cfg.Protocol.SecurityMedium)
	assert.Equal(t, 1024*1024, cfg.Protocol.SegmentSize)
	assert.Equal(t, -1, cfg.Protocol.CompressionLevel)
	assert.Zero(t, cfg.Protocol.MaxOrderDataSize)
	assert.Equal(t, StorageBadger, cfg.Storage.Type)
	assert.Equal(t, "ebics", cfg.Storage.MongoDB.Database)
	assert.Equal(t, "orderdata", cfg.Storage.MongoDB.GridFS.BucketName)
	assert.Equal(t, 60*time.Second, cfg.Transport.Timeout)
	require.NotNil(t, cfg.Bank.VerifyResponses)
	assert.False(t, *cfg.Bank.VerifyResponses)
}

func TestParse_VerifyDefaultsToBankKey(t *testing.T) {
	cfg, err := Parse([]byte(minimalConfig + `
  keys:
    signature: a006.key
`))
	require.NoError(t, err)
	assert.False(t, *cfg.Bank.VerifyResponses)

	cfg, err = Parse([]byte(`
bank:
  url: https://ebics.example.com/ebics
  hostId: EXBANK
  keys:
    authentication: bank-x002.pem
    encryption: bank-e002.pem
user:
  partnerId: PARTNER1
  userId: USER1
`))
	require.NoError(t, err)
	assert.True(t, *cfg.Bank.VerifyResponses)
}

func TestParse_ExpandsEnvironment(t *testing.T) {
	t.Setenv("EBICS_TEST_HOST", "ENVBANK")

	cfg, err := Parse([]byte(`
bank:
  url: https://ebics.example.com/ebics
  hostId: ${EBICS_TEST_HOST}
user:
  partnerId: PARTNER1
  userId: USER1
`))
	require.NoError(t, err)
	assert.Equal(t, "ENVBANK", cfg.Bank.HostID)

	sub := cfg.Subscriber()
	assert.Equal(t, "ENVBANK", sub.HostID)
	assert.Equal(t, "PARTNER1", sub.PartnerID)
	assert.Equal(t, "USER1", sub.UserID)
	assert.Equal(t, "H004", sub.Version)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		extra   string
		wantErr string
	}{
		{
			name:    "signature version",
			extra:   "  signatureVersion: A004\n",
			wantErr: "user.signatureVersion",
		},
		{
			name:    "protocol version",
			extra:   "protocol:\n  version: H005\n",
			wantErr: "protocol.version",
		},
		{
			name:    "segment size",
			extra:   "protocol:\n  segmentSize: 2000000\n",
			wantErr: "protocol.segmentSize",
		},
		{
			name:    "compression level",
			extra:   "protocol:\n  compressionLevel: 12\n",
			wantErr: "protocol.compressionLevel",
		},
		{
			name:    "order data limit",
			extra:   "protocol:\n  maxOrderDataSize: -5\n",
			wantErr: "protocol.maxOrderDataSize",
		},
		{
			name:    "storage type",
			extra:   "storage:\n  type: redis\n",
			wantErr: "storage.type",
		},
		{
			name:    "mongodb uri",
			extra:   "storage:\n  type: mongodb\n",
			wantErr: "storage.mongodb.uri",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(minimalConfig + tt.extra))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParse_MissingIdentity(t *testing.T) {
	_, err := Parse([]byte("bank:\n  url: https://ebics.example.com\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bank.hostId")

	_, err = Parse([]byte("bank:\n  url: ftp://ebics.example.com\n  hostId: X\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bank.url")
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ebics.yaml")
	require.NoError(t, os.WriteFile(path, []byte(minimalConfig), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "EXBANK", cfg.Bank.HostID)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestNewEnvironment(t *testing.T) {
	t.Setenv("EBICS_CONFIG", "/etc/ebics/client.yaml")
	t.Setenv("EBICS_LOG_LEVEL", "DEBUG")
	t.Setenv("EBICS_ENVIRONMENT", "prod")

	e, err := NewEnvironment()
	require.NoError(t, err)
	assert.Equal(t, "/etc/ebics/client.yaml", e.ConfigFile)
	assert.Equal(t, "debug", e.LogLevel)
	assert.Equal(t, "prod", e.Environment)
}

func TestNewEnvironment_Invalid(t *testing.T) {
	t.Setenv("EBICS_ENVIRONMENT", "qa")
	_, err := NewEnvironment()
	assert.ErrorContains(t, err, "EBICS_ENVIRONMENT")

	t.Setenv("EBICS_ENVIRONMENT", "dev")
	t.Setenv("EBICS_LOG_LEVEL", "verbose")
	_, err = NewEnvironment()
	assert.ErrorContains(t, err, "EBICS_LOG_LEVEL")
}
