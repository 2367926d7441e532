package protocol

import (
	"crypto/rsa"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"github.com/sirosfoundation/go-ebics/pkg/security"
)

var (
	// ErrMalformedResponse is returned when a response lacks mandatory fields
	ErrMalformedResponse = errors.New("malformed EBICS response")
	// ErrUnexpectedRoot is returned when the document element is not the
	// one the request calls for
	ErrUnexpectedRoot = errors.New("unexpected response root")
)

// Response is the interpreted bank reply to one request
type Response struct {
	// Root is the local name of the document element
	Root string

	Phase         Phase
	TransactionID string
	OrderID       string
	SegmentNumber int
	NumSegments   int
	LastSegment   bool

	TechnicalCode string
	BusinessCode  string
	// ReturnCode is the code that decided the outcome
	ReturnCode string
	ReportText string

	HasError       bool
	IsRecoverySync bool

	// TransactionKey is the RSA wrapped key of a download, if present
	TransactionKey []byte
	// HasOrderData reports whether DataTransfer/OrderData is present
	HasOrderData bool

	// Document is the parsed response for payload extraction
	Document *etree.Document
}

// Options configures Deserialize
type Options struct {
	// BankAuthentication verifies the X002 signature of every document
	// except ebicsKeyManagementResponse when set
	BankAuthentication *rsa.PublicKey
	// Root is the expected document element, any root is accepted when empty
	Root string
}

// Option represents a functional option for Deserialize
type Option func(*Options)

// WithBankAuthentication enables response authentication
func WithBankAuthentication(key *rsa.PublicKey) Option {
	return func(o *Options) {
		o.BankAuthentication = key
	}
}

// WithRoot rejects responses whose document element is not root
func WithRoot(root string) Option {
	return func(o *Options) {
		o.Root = root
	}
}

// Deserialize parses and interprets a raw bank response
func Deserialize(raw []byte, opts ...Option) (*Response, error) {
	var o Options
	for _, opt := range opts {
		opt(&o)
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(raw); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("%w: no root element", ErrMalformedResponse)
	}
	if o.Root != "" && root.Tag != o.Root {
		return nil, fmt.Errorf("%w: got %s, want %s", ErrUnexpectedRoot, root.Tag, o.Root)
	}

	resp := &Response{
		Root:     root.Tag,
		Document: doc,
	}

	header := root.SelectElement("header")
	if header == nil {
		return nil, fmt.Errorf("%w: header missing", ErrMalformedResponse)
	}
	mutable := header.SelectElement("mutable")

	resp.TechnicalCode = childText(mutable, "ReturnCode")
	resp.ReportText = childText(mutable, "ReportText")
	resp.BusinessCode = childText(root.SelectElement("body"), "ReturnCode")
	resp.Phase = Phase(childText(mutable, "TransactionPhase"))

	if resp.TechnicalCode == "" {
		return nil, fmt.Errorf("%w: technical return code missing", ErrMalformedResponse)
	}

	// outcome is decided by the technical code first, then the business code
	resp.ReturnCode = resp.TechnicalCode
	switch {
	case IsRecoverySync(resp.TechnicalCode) || IsRecoverySync(resp.BusinessCode):
		resp.IsRecoverySync = true
		resp.ReturnCode = CodeRecoverySync
		return resp, nil
	case IsError(resp.TechnicalCode):
		resp.HasError = true
		return resp, nil
	case IsError(resp.BusinessCode):
		resp.HasError = true
		resp.ReturnCode = resp.BusinessCode
		return resp, nil
	}
	if resp.BusinessCode != "" && resp.BusinessCode != CodeOK {
		resp.ReturnCode = resp.BusinessCode
	}

	// key management responses carry no AuthSignature
	if o.BankAuthentication != nil && root.Tag != RootKeyManagementResponse {
		if err := security.VerifyAuthentication(doc, o.BankAuthentication); err != nil {
			return nil, err
		}
	}

	static := header.SelectElement("static")
	resp.TransactionID = childText(static, "TransactionID")

	if n := childText(static, "NumSegments"); n != "" {
		v, err := strconv.Atoi(n)
		if err != nil || v < 0 {
			return nil, fmt.Errorf("%w: invalid NumSegments %q", ErrMalformedResponse, n)
		}
		resp.NumSegments = v
	}

	if mutable != nil {
		if seg := mutable.SelectElement("SegmentNumber"); seg != nil {
			v, err := strconv.Atoi(strings.TrimSpace(seg.Text()))
			if err != nil || v < 1 {
				return nil, fmt.Errorf("%w: invalid SegmentNumber %q", ErrMalformedResponse, seg.Text())
			}
			resp.SegmentNumber = v
			resp.LastSegment = seg.SelectAttrValue("lastSegment", "false") == "true"
		}
		resp.OrderID = childText(mutable, "OrderID")
	}

	if dt := root.FindElement("./body/DataTransfer"); dt != nil {
		if key := dt.FindElement("./DataEncryptionInfo/TransactionKey"); key != nil {
			wrapped, err := base64.StdEncoding.DecodeString(strings.TrimSpace(key.Text()))
			if err != nil {
				return nil, fmt.Errorf("%w: invalid TransactionKey: %w", ErrMalformedResponse, err)
			}
			resp.TransactionKey = wrapped
		}
		resp.HasOrderData = dt.SelectElement("OrderData") != nil
	}

	return resp, nil
}

// OrderData returns the raw base64 content of DataTransfer/OrderData
func (r *Response) OrderData() string {
	if r.Document == nil {
		return ""
	}
	el := r.Document.FindElement("//body/DataTransfer/OrderData")
	if el == nil {
		return ""
	}
	return strings.TrimSpace(el.Text())
}

func childText(parent *etree.Element, tag string) string {
	if parent == nil {
		return ""
	}
	el := parent.SelectElement(tag)
	if el == nil {
		return ""
	}
	return strings.TrimSpace(el.Text())
}
