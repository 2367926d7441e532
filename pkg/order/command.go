package order

import (
	"fmt"
	"sort"
	"sync"

	"github.com/beevik/etree"
	"github.com/sirosfoundation/go-ebics/pkg/protocol"
)

// Command is one EBICS order type. Builders return nil documents when the
// order type has no request of that phase.
type Command interface {
	OrderType() string
	OrderAttribute() string
	Direction() protocol.Direction

	// BuildInitRequest returns the Initialisation request
	BuildInitRequest(tx *Transaction) (*etree.Document, error)
	// BuildTransferRequests returns the Transfer requests in ascending
	// segment order
	BuildTransferRequests(tx *Transaction) ([]*etree.Document, error)
	// BuildReceiptRequest returns the closing Receipt request
	BuildReceiptRequest(tx *Transaction) (*etree.Document, error)

	// Interpret applies a successful response to the transaction
	Interpret(tx *Transaction, resp *protocol.Response) error
}

// keyManagementCommand is implemented by commands answered with an
// ebicsKeyManagementResponse
type keyManagementCommand interface {
	keyManagement()
}

// responseRoot returns the document element cmd must be answered with
func responseRoot(cmd Command) string {
	if _, ok := cmd.(keyManagementCommand); ok {
		return protocol.RootKeyManagementResponse
	}
	return protocol.RootResponse
}

// Params carries the order specific parameters for a constructor
type Params struct {
	DateRange      *protocol.DateRange
	CreditTransfer *CreditTransfer
}

// Constructor creates a command for an order type
type Constructor func(s *Session, orderType string, p Params) (Command, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Constructor{}
)

// Register adds or replaces the constructor of an order type
func Register(orderType string, c Constructor) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[orderType] = c
}

// Lookup returns the constructor registered for an order type
func Lookup(orderType string) (Constructor, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	c, ok := registry[orderType]
	return c, ok
}

// OrderTypes lists the registered order types in sorted order
func OrderTypes() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	types := make([]string, 0, len(registry))
	for t := range registry {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// New creates a command from the registry
func New(s *Session, orderType string, p Params) (Command, error) {
	c, ok := Lookup(orderType)
	if !ok {
		return nil, protocol.NewConstructionError(orderType, "", fmt.Errorf("unsupported order type %q", orderType))
	}
	return c(s, orderType, p)
}

// StatementOrderTypes are the date range downloads served by the STA command
var StatementOrderTypes = []string{
	"STA", "Z01", "Z53", "Z54", "ZS2", "ZS3", "ZS4", "ZQR", "ZRF", "XTD", "C52", "C53",
}

func init() {
	Register(OrderTypeCCT, func(s *Session, _ string, p Params) (Command, error) {
		return NewCCT(s, p.CreditTransfer)
	})
	Register(OrderTypeINI, func(s *Session, _ string, _ Params) (Command, error) {
		return NewINI(s), nil
	})
	Register(OrderTypePTK, func(s *Session, _ string, p Params) (Command, error) {
		return NewPTK(s, p.DateRange), nil
	})
	Register(OrderTypeSPR, func(s *Session, _ string, _ Params) (Command, error) {
		return NewSPR(s), nil
	})
	for _, t := range StatementOrderTypes {
		Register(t, func(s *Session, orderType string, p Params) (Command, error) {
			return NewSTA(s, orderType, p.DateRange)
		})
	}
}

func errMissingParams(what string) error {
	return fmt.Errorf("missing %s parameters", what)
}
