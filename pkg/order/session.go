package order

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/beevik/etree"
	"github.com/sirosfoundation/go-ebics/pkg/compression"
	"github.com/sirosfoundation/go-ebics/pkg/protocol"
	"github.com/sirosfoundation/go-ebics/pkg/security"
	"github.com/sirosfoundation/go-ebics/pkg/segment"
)

// Session holds the read-only configuration shared by all commands of one
// subscriber. It may be used by concurrent transactions.
type Session struct {
	builder     *protocol.RequestBuilder
	builderOpts []protocol.BuilderOption
	envelope    *security.Envelope
	keys        *security.Keyring
	signer      security.Signer
	compressor  *compression.Compressor
	segmentSize int
	verify      bool
	now         func() time.Time
	logger      *slog.Logger
}

// SessionOption represents a functional option for Session
type SessionOption func(*Session)

// WithSegmentSize sets the maximum upload segment size
func WithSegmentSize(size int) SessionOption {
	return func(s *Session) {
		s.segmentSize = size
	}
}

// WithSigner overrides the electronic signature implementation
func WithSigner(signer security.Signer) SessionOption {
	return func(s *Session) {
		s.signer = signer
	}
}

// WithCompressor sets the codec for order and signature data
func WithCompressor(c *compression.Compressor) SessionOption {
	return func(s *Session) {
		s.compressor = c
	}
}

// WithResponseVerification enables X002 verification of bank responses
func WithResponseVerification(enabled bool) SessionOption {
	return func(s *Session) {
		s.verify = enabled
	}
}

// WithClock sets the time source for documents and headers
func WithClock(now func() time.Time) SessionOption {
	return func(s *Session) {
		s.now = now
	}
}

// WithLogger sets the logger used by commands
func WithLogger(logger *slog.Logger) SessionOption {
	return func(s *Session) {
		s.logger = logger
	}
}

// WithBuilderOptions passes options to the request builder
func WithBuilderOptions(opts ...protocol.BuilderOption) SessionOption {
	return func(s *Session) {
		s.builderOpts = append(s.builderOpts, opts...)
	}
}

// NewSession creates a session for a subscriber and its keys
func NewSession(subscriber protocol.Subscriber, keys *security.Keyring, opts ...SessionOption) *Session {
	if keys == nil {
		keys = &security.Keyring{}
	}

	s := &Session{
		keys:        keys,
		segmentSize: segment.DefaultMaxSize,
		verify:      keys.BankAuthentication != nil,
		now:         time.Now,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	envOpts := []security.Option{}
	if s.signer != nil {
		envOpts = append(envOpts, security.WithSigner(s.signer))
	}
	if s.compressor != nil {
		envOpts = append(envOpts, security.WithCompressor(s.compressor))
	}
	s.envelope = security.NewEnvelope(keys, envOpts...)
	if s.signer == nil {
		s.signer = s.envelope
	}
	builderOpts := append([]protocol.BuilderOption{protocol.WithClock(s.now)}, s.builderOpts...)
	s.builder = protocol.NewRequestBuilder(subscriber, builderOpts...)

	return s
}

// Subscriber returns the identity used in request headers
func (s *Session) Subscriber() protocol.Subscriber {
	return s.builder.Subscriber()
}

// Builder returns the request builder
func (s *Session) Builder() *protocol.RequestBuilder {
	return s.builder
}

// Envelope returns the crypto envelope
func (s *Session) Envelope() *security.Envelope {
	return s.envelope
}

// Logger returns the session logger
func (s *Session) Logger() *slog.Logger {
	return s.logger
}

// authenticate applies the X002 signature to a request
func (s *Session) authenticate(doc *etree.Document) (*etree.Document, error) {
	if err := security.Authenticate(doc, s.keys.UserAuthentication); err != nil {
		return nil, fmt.Errorf("failed to authenticate request: %w", err)
	}
	return doc, nil
}

// bankDigests returns the BankPubKeyDigests of the configured bank keys
func (s *Session) bankDigests() (protocol.BankDigests, error) {
	auth, enc, err := s.keys.BankDigests()
	if err != nil {
		return protocol.BankDigests{}, err
	}
	return protocol.BankDigests{Authentication: auth, Encryption: enc}, nil
}

// Deserialize interprets a raw response for cmd. Error and recovery
// responses fail the transaction and are returned without interpretation.
// Unexpected failures are wrapped as deserialization errors carrying raw.
// Only INI accepts an unauthenticated ebicsKeyManagementResponse.
func (s *Session) Deserialize(cmd Command, tx *Transaction, raw []byte) (*protocol.Response, error) {
	opts := []protocol.Option{protocol.WithRoot(responseRoot(cmd))}
	if s.verify && s.keys.BankAuthentication != nil {
		opts = append(opts, protocol.WithBankAuthentication(s.keys.BankAuthentication))
	}

	resp, err := protocol.Deserialize(raw, opts...)
	if err != nil {
		tx.Fail()
		return nil, protocol.NewDeserializationError(cmd.OrderType(), tx.Phase, raw, err)
	}

	tx.ReturnCode = resp.ReturnCode
	tx.ReportText = resp.ReportText

	if resp.HasError || resp.IsRecoverySync {
		tx.Fail()
		s.logger.Warn("bank rejected request",
			"order_type", cmd.OrderType(),
			"phase", tx.Phase,
			"return_code", resp.ReturnCode,
			"report_text", resp.ReportText,
			"recovery_sync", resp.IsRecoverySync)
		return resp, nil
	}

	if err := tx.matchTransaction(resp); err != nil {
		tx.Fail()
		return nil, protocol.NewDeserializationError(cmd.OrderType(), tx.Phase, raw, err)
	}

	if err := cmd.Interpret(tx, resp); err != nil {
		tx.Fail()
		return nil, protocol.NewDeserializationError(cmd.OrderType(), tx.Phase, raw, err)
	}

	return resp, nil
}
