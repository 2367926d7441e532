package order

import (
	"errors"
	"fmt"

	"github.com/beevik/etree"
	"github.com/sirosfoundation/go-ebics/pkg/protocol"
	"github.com/sirosfoundation/go-ebics/pkg/security"
)

// downloadInit builds the Initialisation request of a download
func (s *Session) downloadInit(order protocol.OrderDetails) (*etree.Document, error) {
	digests, err := s.bankDigests()
	if err != nil {
		return nil, err
	}
	return s.authenticate(s.builder.InitRequest(protocol.InitParams{
		Order:       order,
		BankDigests: digests,
	}))
}

// downloadTransfers builds the Transfer requests for the segments that
// follow the one delivered with the Initialisation response.
func (s *Session) downloadTransfers(tx *Transaction) ([]*etree.Document, error) {
	if tx.InitLastSegment || tx.NumSegments <= tx.InitSegment {
		return nil, nil
	}
	if tx.ID == "" {
		return nil, ErrNoTransactionID
	}

	requests := make([]*etree.Document, 0, tx.NumSegments-tx.InitSegment)
	for number := tx.InitSegment + 1; number <= tx.NumSegments; number++ {
		doc, err := s.authenticate(s.builder.TransferRequest(tx.ID, number, number == tx.NumSegments, ""))
		if err != nil {
			return nil, err
		}
		requests = append(requests, doc)
	}
	return requests, nil
}

// downloadReceipt acknowledges the download
func (s *Session) downloadReceipt(tx *Transaction) (*etree.Document, error) {
	if tx.ID == "" {
		return nil, ErrNoTransactionID
	}
	return s.authenticate(s.builder.ReceiptRequest(tx.ID, protocol.ReceiptCodeOK))
}

// interpretDownload advances a download transaction. With transfers
// false only the Initialisation segment is collected and a download of
// more segments is marked Truncated.
func (s *Session) interpretDownload(tx *Transaction, resp *protocol.Response, transfers bool) error {
	switch resp.Phase {
	case protocol.PhaseInitialisation:
		if resp.TransactionID == "" {
			return fmt.Errorf("%w in Initialisation response", ErrNoTransactionID)
		}
		tx.ID = resp.TransactionID
		tx.allocate(resp.NumSegments)
		tx.InitSegment = resp.SegmentNumber
		tx.InitLastSegment = resp.LastSegment

		if resp.NumSegments == 0 {
			tx.data.MarkLast()
			tx.advance(StateReceipt)
			return nil
		}

		if len(resp.TransactionKey) == 0 {
			return errors.New("initialisation response carries no transaction key")
		}
		key, err := s.envelope.DecryptRSA(resp.TransactionKey)
		if err != nil {
			return err
		}
		tx.Key = key

		if tx.InitSegment == 0 {
			tx.InitSegment = 1
		}
		if err := s.storeSegment(tx, resp, tx.InitSegment); err != nil {
			return err
		}

		switch {
		case transfers && !resp.LastSegment:
			tx.advance(StateTransfer)
		case !resp.LastSegment && tx.NumSegments > tx.InitSegment:
			tx.Truncated = true
			s.logger.Warn("acknowledging download after the first segment",
				"order_type", tx.OrderType,
				"segments", tx.NumSegments)
			tx.advance(StateReceipt)
		default:
			tx.advance(StateReceipt)
		}

	case protocol.PhaseTransfer:
		if err := s.storeSegment(tx, resp, resp.SegmentNumber); err != nil {
			return err
		}
		if resp.LastSegment {
			tx.advance(StateReceipt)
		}

	case protocol.PhaseReceipt:
		tx.advance(StateComplete)

	default:
		return fmt.Errorf("unexpected phase %q in download response", resp.Phase)
	}
	return nil
}

// storeSegment decrypts and inflates the order data of one response
func (s *Session) storeSegment(tx *Transaction, resp *protocol.Response, number int) error {
	compressed, err := security.DecryptOrderData(resp.Document, tx.Key)
	if err != nil {
		return err
	}
	plain, err := s.envelope.Decompress(compressed)
	if err != nil {
		return err
	}

	s.logger.Debug("received segment",
		"order_type", tx.OrderType,
		"segment", number,
		"of", tx.NumSegments,
		"last", resp.LastSegment)

	return tx.store(number, plain, resp.LastSegment)
}
