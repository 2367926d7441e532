package order

import (
	"encoding/base64"
	"fmt"

	"github.com/beevik/etree"
	"github.com/sirosfoundation/go-ebics/pkg/protocol"
	"github.com/sirosfoundation/go-ebics/pkg/security"
)

// OrderTypeINI sends the subscriber's signature public key
const OrderTypeINI = "INI"

// INI announces the user's A005/A006 key in a single unsecured request
type INI struct {
	session *Session
}

// NewINI creates a signature key initialisation command
func NewINI(s *Session) *INI {
	return &INI{session: s}
}

func (c *INI) keyManagement() {}

func (c *INI) OrderType() string             { return OrderTypeINI }
func (c *INI) OrderAttribute() string        { return "DZNNN" }
func (c *INI) Direction() protocol.Direction { return protocol.Upload }

// BuildInitRequest returns nil, INI is a single round trip
func (c *INI) BuildInitRequest(*Transaction) (*etree.Document, error) {
	return nil, nil
}

// BuildTransferRequests returns the one ebicsUnsecuredRequest
func (c *INI) BuildTransferRequests(*Transaction) ([]*etree.Document, error) {
	doc, err := c.request()
	if err != nil {
		return nil, protocol.NewConstructionError(OrderTypeINI, "", err)
	}
	return []*etree.Document{doc}, nil
}

func (c *INI) request() (*etree.Document, error) {
	s := c.session
	if s.keys.UserSignature == nil {
		return nil, fmt.Errorf("%w: user signature key", security.ErrMissingKey)
	}

	sub := s.Subscriber()
	orderData, err := protocol.SignaturePubKeyOrderData(protocol.SignaturePubKey{
		PublicKey:        &s.keys.UserSignature.PublicKey,
		Certificate:      s.keys.UserSignatureCert,
		SignatureVersion: s.keys.Version(),
		PartnerID:        sub.PartnerID,
		UserID:           sub.UserID,
		Timestamp:        s.now(),
	})
	if err != nil {
		return nil, err
	}

	compressed, err := s.envelope.Compress(orderData)
	if err != nil {
		return nil, err
	}

	return s.builder.UnsecuredRequest(protocol.OrderDetails{
		OrderType:      OrderTypeINI,
		OrderAttribute: c.OrderAttribute(),
	}, base64.StdEncoding.EncodeToString(compressed)), nil
}

// BuildReceiptRequest returns nil
func (c *INI) BuildReceiptRequest(*Transaction) (*etree.Document, error) {
	return nil, nil
}

// Interpret completes the transaction on the key management response
func (c *INI) Interpret(tx *Transaction, resp *protocol.Response) error {
	if resp.Root != protocol.RootKeyManagementResponse {
		return fmt.Errorf("unexpected %s in reply to INI", resp.Root)
	}
	tx.advance(StateComplete)
	return nil
}
