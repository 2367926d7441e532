package transport

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"io"
	"net/http"
	"time"
)

// TLS version constants
const (
	TLS12 = tls.VersionTLS12
	TLS13 = tls.VersionTLS13
)

// ContentTypeXML is the content type of EBICS requests
const ContentTypeXML = "text/xml; charset=UTF-8"

// DefaultMaxResponseSize bounds the response body read from the bank
const DefaultMaxResponseSize = 64 * 1024 * 1024

// UserAgent is sent with every request
const UserAgent = "go-ebics/1.0"

// RecommendedTLS12CipherSuites are the TLS 1.2 suites offered to the bank
var RecommendedTLS12CipherSuites = []uint16{
	tls.TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384,
	tls.TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256,
	tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
	tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
}

// HTTPSConfig contains HTTPS client configuration
type HTTPSConfig struct {
	MinTLSVersion   uint16
	MaxTLSVersion   uint16
	CipherSuites    []uint16
	Certificates    []tls.Certificate
	RootCAs         *x509.CertPool
	Timeout         time.Duration
	IdleConnTimeout time.Duration
	MaxResponseSize int64
}

// DefaultHTTPSConfig returns a default HTTPS configuration
func DefaultHTTPSConfig() *HTTPSConfig {
	return &HTTPSConfig{
		MinTLSVersion:   TLS12,
		MaxTLSVersion:   TLS13,
		CipherSuites:    RecommendedTLS12CipherSuites,
		Timeout:         30 * time.Second,
		IdleConnTimeout: 90 * time.Second,
		MaxResponseSize: DefaultMaxResponseSize,
	}
}

// StatusError is returned when the bank answers with a status other than 200
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code %d: %s", e.StatusCode, e.Body)
}

// HTTPSClient posts EBICS documents over HTTPS
type HTTPSClient struct {
	client *http.Client
	config *HTTPSConfig
}

// NewHTTPSClient creates a new HTTPS client
func NewHTTPSClient(config *HTTPSConfig) *HTTPSClient {
	if config == nil {
		config = DefaultHTTPSConfig()
	}
	if config.MaxResponseSize <= 0 {
		config.MaxResponseSize = DefaultMaxResponseSize
	}

	tlsConfig := &tls.Config{
		MinVersion:   config.MinTLSVersion,
		MaxVersion:   config.MaxTLSVersion,
		CipherSuites: config.CipherSuites,
		Certificates: config.Certificates,
		RootCAs:      config.RootCAs,
	}

	transport := &http.Transport{
		TLSClientConfig:     tlsConfig,
		IdleConnTimeout:     config.IdleConnTimeout,
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
	}

	return &HTTPSClient{
		client: &http.Client{
			Transport: transport,
			Timeout:   config.Timeout,
		},
		config: config,
	}
}

// NewHTTPSClientWithHTTPClient wraps an existing http.Client, e.g. the one
// of an httptest server
func NewHTTPSClientWithHTTPClient(client *http.Client, config *HTTPSConfig) *HTTPSClient {
	if config == nil {
		config = DefaultHTTPSConfig()
	}
	if config.MaxResponseSize <= 0 {
		config.MaxResponseSize = DefaultMaxResponseSize
	}
	return &HTTPSClient{client: client, config: config}
}

// Send posts body to endpoint and returns the response body
func (c *HTTPSClient) Send(ctx context.Context, endpoint string, body []byte, contentType string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", contentType)
	req.Header.Set("User-Agent", UserAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	limited := io.LimitReader(resp.Body, c.config.MaxResponseSize+1)

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(limited, 4096))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(msg)}
	}

	responseBody, err := io.ReadAll(limited)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(responseBody)) > c.config.MaxResponseSize {
		return nil, fmt.Errorf("response exceeds %d bytes", c.config.MaxResponseSize)
	}

	return responseBody, nil
}

// BankTransport sends EBICS requests to one bank URL
type BankTransport struct {
	client   *HTTPSClient
	endpoint string
}

// NewBankTransport binds client to the bank's EBICS URL
func NewBankTransport(client *HTTPSClient, endpoint string) *BankTransport {
	if client == nil {
		client = NewHTTPSClient(nil)
	}
	return &BankTransport{client: client, endpoint: endpoint}
}

// Endpoint returns the bank URL
func (t *BankTransport) Endpoint() string {
	return t.endpoint
}

// Send posts one EBICS request
func (t *BankTransport) Send(ctx context.Context, body []byte) ([]byte, error) {
	return t.client.Send(ctx, t.endpoint, body, ContentTypeXML)
}
