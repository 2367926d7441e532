package order

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirosfoundation/go-ebics/pkg/protocol"
	"github.com/sirosfoundation/go-ebics/pkg/segment"
)

// State of a transaction
type State int

const (
	StateInitialisation State = iota
	StateTransfer
	StateReceipt
	StateComplete
	StateFailed
)

var stateNames = map[State]string{
	StateInitialisation: "initialisation",
	StateTransfer:       "transfer",
	StateReceipt:        "receipt",
	StateComplete:       "complete",
	StateFailed:         "failed",
}

// String returns the lower case state name
func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Terminal reports whether no further requests follow
func (s State) Terminal() bool {
	return s == StateComplete || s == StateFailed
}

var (
	// ErrNotComplete is returned when reading the result of an unfinished download
	ErrNotComplete = errors.New("transaction not complete")
	// ErrTransactionMismatch is returned for a follow-up response that
	// names another transaction
	ErrTransactionMismatch = errors.New("response belongs to another transaction")
)

// Transaction is the explicit context of one EBICS transaction. It is
// owned by a single command run and is not safe for concurrent use.
type Transaction struct {
	// Reference identifies the run locally, also for orders the bank
	// assigns no transaction id to
	Reference string
	// ID is the bank assigned TransactionID, empty until Initialisation
	ID        string
	OrderType string
	Direction protocol.Direction
	Phase     protocol.Phase
	State     State

	// Key is the AES transaction key
	Key []byte

	// Segments holds the protected order data of an upload
	Segments []string
	// NumSegments is the announced (upload) or reported (download) count
	NumSegments int
	// Acknowledged counts upload segments confirmed by the bank
	Acknowledged int

	// InitSegment and InitLastSegment describe the segment delivered with
	// the Initialisation response of a download
	InitSegment     int
	InitLastSegment bool
	// Truncated is set when a download was acknowledged after the
	// Initialisation segment although the bank announced more
	Truncated bool

	// ReturnCode and ReportText of the last interpreted response
	ReturnCode string
	ReportText string

	data *segment.Reassembler
}

// NewTransaction creates the context for one run of cmd
func NewTransaction(cmd Command) *Transaction {
	return &Transaction{
		Reference: uuid.NewString(),
		OrderType: cmd.OrderType(),
		Direction: cmd.Direction(),
		Phase:     protocol.PhaseInitialisation,
		State:     StateInitialisation,
	}
}

// Fail moves the transaction to the terminal Failed state
func (tx *Transaction) Fail() {
	tx.State = StateFailed
}

// advance moves the transaction to the next state
func (tx *Transaction) advance(state State) {
	tx.State = state
	switch state {
	case StateTransfer:
		tx.Phase = protocol.PhaseTransfer
	case StateReceipt:
		tx.Phase = protocol.PhaseReceipt
	}
}

// allocate sizes the download buffer from the Initialisation response
func (tx *Transaction) allocate(numSegments int) {
	tx.NumSegments = numSegments
	tx.data = segment.NewReassembler(numSegments)
}

// store records one decrypted download segment
func (tx *Transaction) store(segmentNumber int, data []byte, last bool) error {
	if tx.data == nil {
		return fmt.Errorf("segment %d received before initialisation", segmentNumber)
	}
	if err := tx.data.Put(segmentNumber, string(data)); err != nil {
		return err
	}
	if last {
		tx.data.MarkLast()
	}
	return nil
}

// Result returns the downloaded order data once the last segment was
// observed and every segment is present.
func (tx *Transaction) Result() ([]byte, error) {
	if tx.Direction != protocol.Download {
		return nil, fmt.Errorf("%s is not a download", tx.OrderType)
	}
	if tx.data == nil {
		return nil, ErrNotComplete
	}
	data, err := tx.data.Bytes()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotComplete, err)
	}
	return data, nil
}

// Output returns the result of a complete download. A truncated download
// yields the segments collected before the receipt instead.
func (tx *Transaction) Output() ([]byte, error) {
	data, err := tx.Result()
	if err != nil && tx.Truncated && tx.State == StateComplete {
		return []byte(tx.PartialData()), nil
	}
	return data, err
}

// matchTransaction rejects Transfer and Receipt responses naming a
// transaction other than tx
func (tx *Transaction) matchTransaction(resp *protocol.Response) error {
	if resp.Phase == protocol.PhaseInitialisation || tx.ID == "" || resp.TransactionID == "" {
		return nil
	}
	if resp.TransactionID != tx.ID {
		return fmt.Errorf("%w: got %s, want %s", ErrTransactionMismatch, resp.TransactionID, tx.ID)
	}
	return nil
}

// PartialData returns the running concatenation of the segments received
// so far, missing segments rendering as empty strings.
func (tx *Transaction) PartialData() string {
	if tx.data == nil {
		return ""
	}
	return tx.data.Partial()
}

// Received returns the number of download segments stored
func (tx *Transaction) Received() int {
	if tx.data == nil {
		return 0
	}
	return tx.data.Received()
}
