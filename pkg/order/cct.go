package order

import (
	"github.com/beevik/etree"
	"github.com/sirosfoundation/go-ebics/pkg/protocol"
	"github.com/sirosfoundation/go-ebics/pkg/security"
)

// OrderTypeCCT is the SEPA credit transfer upload
const OrderTypeCCT = "CCT"

// CCT uploads a signed pain.001 credit transfer
type CCT struct {
	session  *Session
	transfer *CreditTransfer
}

// NewCCT creates a credit transfer command
func NewCCT(s *Session, transfer *CreditTransfer) (*CCT, error) {
	if transfer == nil {
		return nil, protocol.NewConstructionError(OrderTypeCCT, "", errMissingParams("credit transfer"))
	}
	return &CCT{session: s, transfer: transfer}, nil
}

func (c *CCT) OrderType() string             { return OrderTypeCCT }
func (c *CCT) OrderAttribute() string        { return "OZHNN" }
func (c *CCT) Direction() protocol.Direction { return protocol.Upload }

// Document renders the canonical pain.001 document that is signed and sent
func (c *CCT) Document() ([]byte, error) {
	doc, err := Pain001(c.transfer, c.session.now())
	if err != nil {
		return nil, err
	}
	raw, err := doc.WriteToBytes()
	if err != nil {
		return nil, err
	}
	return security.Canonicalize(raw), nil
}

// BuildInitRequest validates and signs the credit transfer and prepares
// its segments
func (c *CCT) BuildInitRequest(tx *Transaction) (*etree.Document, error) {
	payload, err := c.Document()
	if err != nil {
		return nil, protocol.NewConstructionError(OrderTypeCCT, protocol.PhaseInitialisation, err)
	}

	doc, err := c.session.signedUploadInit(tx, protocol.OrderDetails{
		OrderType:      OrderTypeCCT,
		OrderAttribute: c.OrderAttribute(),
	}, payload, true)
	if err != nil {
		return nil, protocol.NewConstructionError(OrderTypeCCT, protocol.PhaseInitialisation, err)
	}
	return doc, nil
}

// BuildTransferRequests returns one request per segment
func (c *CCT) BuildTransferRequests(tx *Transaction) ([]*etree.Document, error) {
	docs, err := c.session.uploadTransfers(tx)
	if err != nil {
		return nil, protocol.NewConstructionError(OrderTypeCCT, protocol.PhaseTransfer, err)
	}
	return docs, nil
}

// BuildReceiptRequest returns nil, uploads have no receipt
func (c *CCT) BuildReceiptRequest(*Transaction) (*etree.Document, error) {
	return nil, nil
}

// Interpret captures the transaction id and counts confirmed segments
func (c *CCT) Interpret(tx *Transaction, resp *protocol.Response) error {
	return interpretUpload(tx, resp)
}
