// Package ebicstest provides a scripted EBICS bank for tests. It builds
// authenticated, encrypted responses the way a bank server does and
// opens the protected payloads of client requests.
package ebicstest

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"testing"

	"github.com/beevik/etree"
	"github.com/sirosfoundation/go-ebics/pkg/protocol"
	"github.com/sirosfoundation/go-ebics/pkg/security"
)

var (
	keysOnce sync.Once
	keys     []*rsa.PrivateKey
	keysErr  error
)

// rsaKeys returns five cached 2048-bit keys
func rsaKeys(tb testing.TB) []*rsa.PrivateKey {
	tb.Helper()

	keysOnce.Do(func() {
		for range 5 {
			key, err := rsa.GenerateKey(rand.Reader, 2048)
			if err != nil {
				keysErr = err
				return
			}
			keys = append(keys, key)
		}
	})
	if keysErr != nil {
		tb.Fatalf("failed to generate test keys: %v", keysErr)
	}
	return keys
}

// Bank holds the bank side keys and the user's public keys
type Bank struct {
	Authentication *rsa.PrivateKey
	Encryption     *rsa.PrivateKey

	UserSignature      *rsa.PublicKey
	UserAuthentication *rsa.PublicKey
	UserEncryption     *rsa.PublicKey

	envelope *security.Envelope
}

// New returns a user keyring (A006) and a bank that knows its public keys
func New(tb testing.TB) (*security.Keyring, *Bank) {
	tb.Helper()

	k := rsaKeys(tb)
	keyring := &security.Keyring{
		SignatureVersion:   security.SignatureA006,
		UserSignature:      k[0],
		UserAuthentication: k[1],
		UserEncryption:     k[2],
		BankAuthentication: &k[3].PublicKey,
		BankEncryption:     &k[4].PublicKey,
	}
	return keyring, &Bank{
		Authentication:     k[3],
		Encryption:         k[4],
		UserSignature:      &k[0].PublicKey,
		UserAuthentication: &k[1].PublicKey,
		UserEncryption:     &k[2].PublicKey,
		envelope:           security.NewEnvelope(&security.Keyring{}),
	}
}

// Reply describes one ebicsResponse
type Reply struct {
	Phase         protocol.Phase
	TransactionID string
	NumSegments   int
	// Segment is written to SegmentNumber when positive
	Segment     int
	LastSegment bool

	Technical  string
	Business   string
	ReportText string

	// TransactionKey is the wrapped download key
	TransactionKey []byte
	OrderData      string

	// Unsigned skips the X002 signature
	Unsigned bool
}

// Response renders and authenticates an ebicsResponse
func (b *Bank) Response(r Reply) ([]byte, error) {
	if r.Technical == "" {
		r.Technical = protocol.CodeOK
	}
	if r.Business == "" {
		r.Business = protocol.CodeOK
	}
	if r.ReportText == "" {
		r.ReportText = "[" + protocol.SymbolicName(r.Technical) + "]"
	}

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	root := doc.CreateElement(protocol.RootResponse)
	root.CreateAttr("xmlns", protocol.NamespaceH004)
	root.CreateAttr("Version", protocol.VersionH004)
	root.CreateAttr("Revision", protocol.RevisionOne)

	header := root.CreateElement("header")
	header.CreateAttr("authenticate", "true")
	static := header.CreateElement("static")
	if r.TransactionID != "" {
		static.CreateElement("TransactionID").SetText(r.TransactionID)
	}
	if r.NumSegments > 0 {
		static.CreateElement("NumSegments").SetText(strconv.Itoa(r.NumSegments))
	}

	mutable := header.CreateElement("mutable")
	mutable.CreateElement("TransactionPhase").SetText(r.Phase.String())
	if r.Segment > 0 {
		seg := mutable.CreateElement("SegmentNumber")
		seg.CreateAttr("lastSegment", strconv.FormatBool(r.LastSegment))
		seg.SetText(strconv.Itoa(r.Segment))
	}
	mutable.CreateElement("ReturnCode").SetText(r.Technical)
	mutable.CreateElement("ReportText").SetText(r.ReportText)

	root.CreateElement("AuthSignature")

	body := root.CreateElement("body")
	if r.TransactionKey != nil || r.OrderData != "" {
		transfer := body.CreateElement("DataTransfer")
		if r.TransactionKey != nil {
			digest, err := security.PublicKeyDigest(b.UserEncryption)
			if err != nil {
				return nil, err
			}
			info := transfer.CreateElement("DataEncryptionInfo")
			info.CreateAttr("authenticate", "true")
			pubDigest := info.CreateElement("EncryptionPubKeyDigest")
			pubDigest.CreateAttr("Version", security.EncryptionE002)
			pubDigest.CreateAttr("Algorithm", protocol.DigestAlgorithm)
			pubDigest.SetText(base64.StdEncoding.EncodeToString(digest))
			info.CreateElement("TransactionKey").SetText(base64.StdEncoding.EncodeToString(r.TransactionKey))
		}
		if r.OrderData != "" {
			transfer.CreateElement("OrderData").SetText(r.OrderData)
		}
	}
	code := body.CreateElement("ReturnCode")
	code.CreateAttr("authenticate", "true")
	code.SetText(r.Business)

	if !r.Unsigned {
		if err := security.Authenticate(doc, b.Authentication); err != nil {
			return nil, err
		}
	}
	return doc.WriteToBytes()
}

// KeyManagementResponse renders the reply to an unsecured request
func (b *Bank) KeyManagementResponse(technical, business string) ([]byte, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	root := doc.CreateElement(protocol.RootKeyManagementResponse)
	root.CreateAttr("xmlns", protocol.NamespaceH004)
	root.CreateAttr("Version", protocol.VersionH004)
	root.CreateAttr("Revision", protocol.RevisionOne)

	header := root.CreateElement("header")
	header.CreateAttr("authenticate", "true")
	header.CreateElement("static")
	mutable := header.CreateElement("mutable")
	mutable.CreateElement("ReturnCode").SetText(technical)
	mutable.CreateElement("ReportText").SetText("[" + protocol.SymbolicName(technical) + "]")

	root.CreateElement("body").CreateElement("ReturnCode").SetText(business)
	return doc.WriteToBytes()
}

// Download is a prepared download: the wrapped key and the protected
// order data of each segment
type Download struct {
	Key            []byte
	TransactionKey []byte
	Segments       []string
}

// PrepareDownload protects parts under one fresh transaction key. Each
// part becomes one independently compressed and encrypted segment.
func (b *Bank) PrepareDownload(parts ...string) (*Download, error) {
	key, err := security.GenerateTransactionKey()
	if err != nil {
		return nil, err
	}
	enc, err := security.NewRSAEncryptor(b.UserEncryption)
	if err != nil {
		return nil, err
	}
	wrapped, err := enc.WrapKey(key)
	if err != nil {
		return nil, err
	}

	d := &Download{Key: key, TransactionKey: wrapped}
	for _, part := range parts {
		seg, err := b.envelope.Protect([]byte(part), key)
		if err != nil {
			return nil, err
		}
		d.Segments = append(d.Segments, seg)
	}
	return d, nil
}

// Upload is the bank's view of a signed upload Initialisation request
type Upload struct {
	Key           []byte
	NumSegments   int
	OrderType     string
	SignatureData []byte
}

// OpenUpload verifies the authentication of an upload Initialisation
// request, unwraps its transaction key and decrypts the signature data.
func (b *Bank) OpenUpload(raw []byte) (*Upload, error) {
	doc, err := b.ReadRequest(raw)
	if err != nil {
		return nil, err
	}

	static := doc.FindElement("//header/static")
	if static == nil {
		return nil, errors.New("static header missing")
	}
	u := &Upload{}
	if el := static.FindElement("./OrderDetails/OrderType"); el != nil {
		u.OrderType = el.Text()
	}
	if el := static.SelectElement("NumSegments"); el != nil {
		u.NumSegments, err = strconv.Atoi(el.Text())
		if err != nil {
			return nil, fmt.Errorf("invalid NumSegments: %w", err)
		}
	}

	keyEl := doc.FindElement("//DataTransfer/DataEncryptionInfo/TransactionKey")
	if keyEl == nil {
		return nil, errors.New("transaction key missing")
	}
	wrapped, err := base64.StdEncoding.DecodeString(keyEl.Text())
	if err != nil {
		return nil, err
	}
	dec, err := security.NewRSADecryptor(b.Encryption)
	if err != nil {
		return nil, err
	}
	if u.Key, err = dec.UnwrapKey(wrapped); err != nil {
		return nil, err
	}

	sigEl := doc.FindElement("//DataTransfer/SignatureData")
	if sigEl == nil {
		return nil, errors.New("signature data missing")
	}
	if u.SignatureData, err = b.envelope.Unprotect(sigEl.Text(), u.Key); err != nil {
		return nil, err
	}
	return u, nil
}

// OrderData joins the segments of the upload Transfer requests and
// removes their protection
func (b *Bank) OrderData(u *Upload, transfers [][]byte) ([]byte, error) {
	var joined string
	for _, raw := range transfers {
		doc, err := b.ReadRequest(raw)
		if err != nil {
			return nil, err
		}
		el := doc.FindElement("//DataTransfer/OrderData")
		if el == nil {
			return nil, errors.New("transfer request without order data")
		}
		joined += el.Text()
	}
	return b.envelope.Unprotect(joined, u.Key)
}

// ReadRequest parses a request and verifies its X002 signature
func (b *Bank) ReadRequest(raw []byte) (*etree.Document, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(raw); err != nil {
		return nil, err
	}
	if err := security.VerifyAuthentication(doc, b.UserAuthentication); err != nil {
		return nil, err
	}
	return doc, nil
}

// Handler produces the reply to one request
type Handler func(request []byte) ([]byte, error)

// Transport replays handlers in order and records every request
type Transport struct {
	mu       sync.Mutex
	handlers []Handler
	requests [][]byte
}

// NewTransport creates a transport answering with handlers in order
func NewTransport(handlers ...Handler) *Transport {
	return &Transport{handlers: handlers}
}

// Respond answers with a fixed payload
func Respond(raw []byte) Handler {
	return func([]byte) ([]byte, error) { return raw, nil }
}

// Fail answers with a transport error
func Fail(err error) Handler {
	return func([]byte) ([]byte, error) { return nil, err }
}

// Send implements the client transport
func (t *Transport) Send(ctx context.Context, body []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	t.mu.Lock()
	t.requests = append(t.requests, append([]byte(nil), body...))
	if len(t.handlers) == 0 {
		t.mu.Unlock()
		return nil, errors.New("unexpected request")
	}
	h := t.handlers[0]
	t.handlers = t.handlers[1:]
	t.mu.Unlock()

	return h(body)
}

// Requests returns the recorded requests
func (t *Transport) Requests() [][]byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([][]byte(nil), t.requests...)
}
