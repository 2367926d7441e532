package protocol

import (
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/google/uuid"
)

// Subscriber identifies the EBICS customer and bank host
type Subscriber struct {
	HostID          string
	PartnerID       string
	UserID          string
	SystemID        string
	Product         string
	ProductLanguage string
	SecurityMedium  string
	Version         string
	Revision        string
}

// DateRange limits a download to bank days between Start and End
type DateRange struct {
	Start time.Time
	End   time.Time
}

// OrderDetails describes the order of an Initialisation request
type OrderDetails struct {
	OrderType      string
	OrderAttribute string
	// OrderID is optional for H004 uploads
	OrderID   string
	DateRange *DateRange
}

// BankDigests are the base64 digests of the bank's X002 and E002 keys
type BankDigests struct {
	Authentication string
	Encryption     string
}

// DataTransfer carries the protected payload of an upload Initialisation
type DataTransfer struct {
	EncryptionPubKeyDigest string
	TransactionKey         string
	SignatureData          string
}

// InitParams holds everything needed for an Initialisation request
type InitParams struct {
	Order       OrderDetails
	BankDigests BankDigests
	// NumSegments is written only for uploads
	NumSegments  int
	Upload       bool
	DataTransfer *DataTransfer
}

// RequestBuilder creates unauthenticated EBICS request documents
type RequestBuilder struct {
	subscriber Subscriber
	now        func() time.Time
	nonce      func() string
}

// BuilderOption represents a functional option for RequestBuilder
type BuilderOption func(*RequestBuilder)

// WithClock overrides the time source used for Timestamp
func WithClock(now func() time.Time) BuilderOption {
	return func(b *RequestBuilder) {
		b.now = now
	}
}

// WithNonceSource overrides the nonce generator
func WithNonceSource(nonce func() string) BuilderOption {
	return func(b *RequestBuilder) {
		b.nonce = nonce
	}
}

// NewRequestBuilder creates a builder for the given subscriber
func NewRequestBuilder(s Subscriber, opts ...BuilderOption) *RequestBuilder {
	if s.Product == "" {
		s.Product = DefaultProduct
	}
	if s.ProductLanguage == "" {
		s.ProductLanguage = DefaultProductLanguage
	}
	if s.SecurityMedium == "" {
		s.SecurityMedium = DefaultSecurityMedium
	}
	if s.Version == "" {
		s.Version = VersionH004
	}
	if s.Revision == "" {
		s.Revision = RevisionOne
	}

	b := &RequestBuilder{
		subscriber: s,
		now:        time.Now,
		nonce:      GenerateNonce,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscriber returns the subscriber the builder was created with
func (b *RequestBuilder) Subscriber() Subscriber {
	return b.subscriber
}

// GenerateNonce returns 16 random bytes as upper case hex
func GenerateNonce() string {
	u := uuid.New()
	return strings.ToUpper(hex.EncodeToString(u[:]))
}

// FormatTimestamp renders a time the way EBICS headers carry it
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}

// FormatDate renders a DateRange bound
func FormatDate(t time.Time) string {
	return t.Format(time.DateOnly)
}

func (b *RequestBuilder) newDocument(rootTag string) (*etree.Document, *etree.Element) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	root := doc.CreateElement(rootTag)
	root.CreateAttr("xmlns", NamespaceH004)
	root.CreateAttr("xmlns:ds", NamespaceDS)
	root.CreateAttr("Version", b.subscriber.Version)
	root.CreateAttr("Revision", b.subscriber.Revision)
	return doc, root
}

func (b *RequestBuilder) identity(static *etree.Element) {
	static.CreateElement("PartnerID").SetText(b.subscriber.PartnerID)
	static.CreateElement("UserID").SetText(b.subscriber.UserID)
	if b.subscriber.SystemID != "" {
		static.CreateElement("SystemID").SetText(b.subscriber.SystemID)
	}
	product := static.CreateElement("Product")
	product.CreateAttr("Language", b.subscriber.ProductLanguage)
	product.SetText(b.subscriber.Product)
}

func orderDetails(parent *etree.Element, order OrderDetails) {
	details := parent.CreateElement("OrderDetails")
	details.CreateElement("OrderType").SetText(order.OrderType)
	if order.OrderID != "" {
		details.CreateElement("OrderID").SetText(order.OrderID)
	}
	details.CreateElement("OrderAttribute").SetText(order.OrderAttribute)
}

// InitRequest builds the Initialisation request of a transaction
func (b *RequestBuilder) InitRequest(p InitParams) *etree.Document {
	doc, root := b.newDocument(RootRequest)

	header := root.CreateElement("header")
	header.CreateAttr("authenticate", "true")

	static := header.CreateElement("static")
	static.CreateElement("HostID").SetText(b.subscriber.HostID)
	static.CreateElement("Nonce").SetText(b.nonce())
	static.CreateElement("Timestamp").SetText(FormatTimestamp(b.now()))
	b.identity(static)

	orderDetails(static, p.Order)
	params := static.FindElement("./OrderDetails").CreateElement("StandardOrderParams")
	if dr := p.Order.DateRange; dr != nil {
		dateRange := params.CreateElement("DateRange")
		dateRange.CreateElement("Start").SetText(FormatDate(dr.Start))
		dateRange.CreateElement("End").SetText(FormatDate(dr.End))
	}

	digests := static.CreateElement("BankPubKeyDigests")
	authDigest := digests.CreateElement("Authentication")
	authDigest.CreateAttr("Version", "X002")
	authDigest.CreateAttr("Algorithm", DigestAlgorithm)
	authDigest.SetText(p.BankDigests.Authentication)
	encDigest := digests.CreateElement("Encryption")
	encDigest.CreateAttr("Version", "E002")
	encDigest.CreateAttr("Algorithm", DigestAlgorithm)
	encDigest.SetText(p.BankDigests.Encryption)

	static.CreateElement("SecurityMedium").SetText(b.subscriber.SecurityMedium)
	if p.Upload {
		static.CreateElement("NumSegments").SetText(strconv.Itoa(p.NumSegments))
	}

	mutable := header.CreateElement("mutable")
	mutable.CreateElement("TransactionPhase").SetText(PhaseInitialisation.String())

	root.CreateElement("AuthSignature")

	body := root.CreateElement("body")
	if dt := p.DataTransfer; dt != nil {
		transfer := body.CreateElement("DataTransfer")

		info := transfer.CreateElement("DataEncryptionInfo")
		info.CreateAttr("authenticate", "true")
		digest := info.CreateElement("EncryptionPubKeyDigest")
		digest.CreateAttr("Version", "E002")
		digest.CreateAttr("Algorithm", DigestAlgorithm)
		digest.SetText(dt.EncryptionPubKeyDigest)
		info.CreateElement("TransactionKey").SetText(dt.TransactionKey)

		signature := transfer.CreateElement("SignatureData")
		signature.CreateAttr("authenticate", "true")
		signature.SetText(dt.SignatureData)
	}

	return doc
}

// TransferRequest builds a Transfer request. For uploads orderData holds
// the segment; downloads pass an empty string.
func (b *RequestBuilder) TransferRequest(transactionID string, segmentNumber int, lastSegment bool, orderData string) *etree.Document {
	doc, root := b.newDocument(RootRequest)

	header := root.CreateElement("header")
	header.CreateAttr("authenticate", "true")

	static := header.CreateElement("static")
	static.CreateElement("HostID").SetText(b.subscriber.HostID)
	static.CreateElement("TransactionID").SetText(transactionID)

	mutable := header.CreateElement("mutable")
	mutable.CreateElement("TransactionPhase").SetText(PhaseTransfer.String())
	segment := mutable.CreateElement("SegmentNumber")
	segment.CreateAttr("lastSegment", strconv.FormatBool(lastSegment))
	segment.SetText(strconv.Itoa(segmentNumber))

	root.CreateElement("AuthSignature")

	body := root.CreateElement("body")
	if orderData != "" {
		body.CreateElement("DataTransfer").CreateElement("OrderData").SetText(orderData)
	}

	return doc
}

// ReceiptRequest builds the closing Receipt request of a download
func (b *RequestBuilder) ReceiptRequest(transactionID, receiptCode string) *etree.Document {
	doc, root := b.newDocument(RootRequest)

	header := root.CreateElement("header")
	header.CreateAttr("authenticate", "true")

	static := header.CreateElement("static")
	static.CreateElement("HostID").SetText(b.subscriber.HostID)
	static.CreateElement("TransactionID").SetText(transactionID)

	mutable := header.CreateElement("mutable")
	mutable.CreateElement("TransactionPhase").SetText(PhaseReceipt.String())

	root.CreateElement("AuthSignature")

	receipt := root.CreateElement("body").CreateElement("TransferReceipt")
	receipt.CreateAttr("authenticate", "true")
	receipt.CreateElement("ReceiptCode").SetText(receiptCode)

	return doc
}

// UnsecuredRequest builds an ebicsUnsecuredRequest (INI, HIA) carrying
// compressed, base64 encoded order data.
func (b *RequestBuilder) UnsecuredRequest(order OrderDetails, orderData string) *etree.Document {
	doc, root := b.newDocument(RootUnsecuredRequest)

	header := root.CreateElement("header")
	header.CreateAttr("authenticate", "true")

	static := header.CreateElement("static")
	static.CreateElement("HostID").SetText(b.subscriber.HostID)
	b.identity(static)
	orderDetails(static, order)
	static.CreateElement("SecurityMedium").SetText(b.subscriber.SecurityMedium)

	header.CreateElement("mutable")

	root.CreateElement("body").CreateElement("DataTransfer").CreateElement("OrderData").SetText(orderData)

	return doc
}

// Serialize renders a request document as bytes
func Serialize(doc *etree.Document) ([]byte, error) {
	return doc.WriteToBytes()
}
