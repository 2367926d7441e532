package order

import (
	"github.com/beevik/etree"
	"github.com/sirosfoundation/go-ebics/pkg/protocol"
)

// OrderTypePTK downloads the customer protocol
const OrderTypePTK = "PTK"

// PTK downloads the customer protocol. The order data is taken from the
// Initialisation response only. When the bank splits the protocol into
// several segments the receipt is still sent, Result reports
// ErrNotComplete and Output returns the first segment.
type PTK struct {
	session   *Session
	dateRange *protocol.DateRange
}

// NewPTK creates a protocol download. dateRange may be nil.
func NewPTK(s *Session, dateRange *protocol.DateRange) *PTK {
	return &PTK{session: s, dateRange: dateRange}
}

func (c *PTK) OrderType() string             { return OrderTypePTK }
func (c *PTK) OrderAttribute() string        { return "DZHNN" }
func (c *PTK) Direction() protocol.Direction { return protocol.Download }

func (c *PTK) BuildInitRequest(*Transaction) (*etree.Document, error) {
	doc, err := c.session.downloadInit(protocol.OrderDetails{
		OrderType:      OrderTypePTK,
		OrderAttribute: c.OrderAttribute(),
		DateRange:      c.dateRange,
	})
	if err != nil {
		return nil, protocol.NewConstructionError(OrderTypePTK, protocol.PhaseInitialisation, err)
	}
	return doc, nil
}

// BuildTransferRequests returns nil
func (c *PTK) BuildTransferRequests(*Transaction) ([]*etree.Document, error) {
	return nil, nil
}

func (c *PTK) BuildReceiptRequest(tx *Transaction) (*etree.Document, error) {
	doc, err := c.session.downloadReceipt(tx)
	if err != nil {
		return nil, protocol.NewConstructionError(OrderTypePTK, protocol.PhaseReceipt, err)
	}
	return doc, nil
}

func (c *PTK) Interpret(tx *Transaction, resp *protocol.Response) error {
	return c.session.interpretDownload(tx, resp, false)
}
