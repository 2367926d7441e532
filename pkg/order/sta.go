package order

import (
	"errors"

	"github.com/beevik/etree"
	"github.com/sirosfoundation/go-ebics/pkg/protocol"
)

// OrderTypeSTA downloads SWIFT MT940 statements
const OrderTypeSTA = "STA"

// STA downloads statements for a date range. It serves every order type
// in StatementOrderTypes.
type STA struct {
	session   *Session
	orderType string
	dateRange protocol.DateRange
}

// NewSTA creates a statement download for orderType
func NewSTA(s *Session, orderType string, dateRange *protocol.DateRange) (*STA, error) {
	if orderType == "" {
		orderType = OrderTypeSTA
	}
	if dateRange == nil {
		return nil, protocol.NewConstructionError(orderType, "", errMissingParams("date range"))
	}
	if dateRange.End.Before(dateRange.Start) {
		return nil, protocol.NewConstructionError(orderType, "", errors.New("date range ends before it starts"))
	}
	return &STA{session: s, orderType: orderType, dateRange: *dateRange}, nil
}

func (c *STA) OrderType() string             { return c.orderType }
func (c *STA) OrderAttribute() string        { return "DZHNN" }
func (c *STA) Direction() protocol.Direction { return protocol.Download }

func (c *STA) BuildInitRequest(*Transaction) (*etree.Document, error) {
	doc, err := c.session.downloadInit(protocol.OrderDetails{
		OrderType:      c.orderType,
		OrderAttribute: c.OrderAttribute(),
		DateRange:      &c.dateRange,
	})
	if err != nil {
		return nil, protocol.NewConstructionError(c.orderType, protocol.PhaseInitialisation, err)
	}
	return doc, nil
}

// BuildTransferRequests returns the requests for the remaining segments,
// or nil when the Initialisation response carried the last one.
func (c *STA) BuildTransferRequests(tx *Transaction) ([]*etree.Document, error) {
	docs, err := c.session.downloadTransfers(tx)
	if err != nil {
		return nil, protocol.NewConstructionError(c.orderType, protocol.PhaseTransfer, err)
	}
	return docs, nil
}

func (c *STA) BuildReceiptRequest(tx *Transaction) (*etree.Document, error) {
	doc, err := c.session.downloadReceipt(tx)
	if err != nil {
		return nil, protocol.NewConstructionError(c.orderType, protocol.PhaseReceipt, err)
	}
	return doc, nil
}

func (c *STA) Interpret(tx *Transaction, resp *protocol.Response) error {
	return c.session.interpretDownload(tx, resp, true)
}
