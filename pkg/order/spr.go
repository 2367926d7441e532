package order

import (
	"github.com/beevik/etree"
	"github.com/sirosfoundation/go-ebics/pkg/protocol"
)

// OrderTypeSPR suspends the subscriber's access
const OrderTypeSPR = "SPR"

// sprPayload is the placeholder signed instead of order data
var sprPayload = []byte(" ")

// SPR signs a placeholder and announces zero segments
type SPR struct {
	session *Session
}

// NewSPR creates a suspension command
func NewSPR(s *Session) *SPR {
	return &SPR{session: s}
}

func (c *SPR) OrderType() string             { return OrderTypeSPR }
func (c *SPR) OrderAttribute() string        { return "UZHNN" }
func (c *SPR) Direction() protocol.Direction { return protocol.Upload }

// BuildInitRequest signs the placeholder and wraps a fresh transaction key
func (c *SPR) BuildInitRequest(tx *Transaction) (*etree.Document, error) {
	doc, err := c.session.signedUploadInit(tx, protocol.OrderDetails{
		OrderType:      OrderTypeSPR,
		OrderAttribute: c.OrderAttribute(),
	}, sprPayload, false)
	if err != nil {
		return nil, protocol.NewConstructionError(OrderTypeSPR, protocol.PhaseInitialisation, err)
	}
	return doc, nil
}

// BuildTransferRequests returns nil, SPR carries no order data
func (c *SPR) BuildTransferRequests(*Transaction) ([]*etree.Document, error) {
	return nil, nil
}

// BuildReceiptRequest returns nil
func (c *SPR) BuildReceiptRequest(*Transaction) (*etree.Document, error) {
	return nil, nil
}

func (c *SPR) Interpret(tx *Transaction, resp *protocol.Response) error {
	return interpretUpload(tx, resp)
}
