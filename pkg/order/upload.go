package order

import (
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/beevik/etree"
	"github.com/sirosfoundation/go-ebics/pkg/protocol"
	"github.com/sirosfoundation/go-ebics/pkg/security"
	"github.com/sirosfoundation/go-ebics/pkg/segment"
)

// ErrNoTransactionID is returned when a follow-up request is built before
// the Initialisation response assigned a transaction id.
var ErrNoTransactionID = errors.New("no transaction id")

// signedUploadInit signs payload, protects signature and (optionally) the
// payload itself with a fresh transaction key and builds the
// Initialisation request of a signed upload.
func (s *Session) signedUploadInit(tx *Transaction, order protocol.OrderDetails, payload []byte, sendPayload bool) (*etree.Document, error) {
	key, err := security.GenerateTransactionKey()
	if err != nil {
		return nil, err
	}
	tx.Key = key

	signature, err := s.signer.SignData(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to sign order data: %w", err)
	}

	sub := s.Subscriber()
	userSignature, err := protocol.UserSignatureData(protocol.OrderSignature{
		SignatureVersion: s.keys.Version(),
		SignatureValue:   signature,
		PartnerID:        sub.PartnerID,
		UserID:           sub.UserID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build signature data: %w", err)
	}

	signatureData, err := s.envelope.Protect(userSignature, tx.Key)
	if err != nil {
		return nil, err
	}

	tx.Segments = nil
	if sendPayload {
		orderData, err := s.envelope.Protect(payload, tx.Key)
		if err != nil {
			return nil, err
		}
		tx.Segments, err = segment.Split(orderData, s.segmentSize)
		if err != nil {
			return nil, err
		}
	}
	tx.NumSegments = len(tx.Segments)

	wrapped, err := s.envelope.EncryptRSA(tx.Key)
	if err != nil {
		return nil, err
	}

	digests, err := s.bankDigests()
	if err != nil {
		return nil, err
	}

	s.logger.Debug("prepared upload",
		"order_type", order.OrderType,
		"segments", tx.NumSegments,
		"segment_size", s.segmentSize)

	doc := s.builder.InitRequest(protocol.InitParams{
		Order:       order,
		BankDigests: digests,
		NumSegments: tx.NumSegments,
		Upload:      true,
		DataTransfer: &protocol.DataTransfer{
			EncryptionPubKeyDigest: digests.Encryption,
			TransactionKey:         base64.StdEncoding.EncodeToString(wrapped),
			SignatureData:          signatureData,
		},
	})
	return s.authenticate(doc)
}

// uploadTransfers builds one Transfer request per segment. Only the last
// request carries lastSegment="true".
func (s *Session) uploadTransfers(tx *Transaction) ([]*etree.Document, error) {
	if len(tx.Segments) == 0 {
		return nil, nil
	}
	if tx.ID == "" {
		return nil, ErrNoTransactionID
	}

	requests := make([]*etree.Document, 0, len(tx.Segments))
	for i, seg := range tx.Segments {
		number := i + 1
		doc, err := s.authenticate(s.builder.TransferRequest(tx.ID, number, number == len(tx.Segments), seg))
		if err != nil {
			return nil, err
		}
		requests = append(requests, doc)
	}
	return requests, nil
}

// interpretUpload advances an upload transaction
func interpretUpload(tx *Transaction, resp *protocol.Response) error {
	switch resp.Phase {
	case protocol.PhaseInitialisation:
		if resp.TransactionID == "" {
			return fmt.Errorf("%w in Initialisation response", ErrNoTransactionID)
		}
		tx.ID = resp.TransactionID
		if len(tx.Segments) == 0 {
			tx.advance(StateComplete)
			return nil
		}
		tx.advance(StateTransfer)

	case protocol.PhaseTransfer:
		tx.Acknowledged++
		if tx.Acknowledged >= len(tx.Segments) {
			tx.advance(StateComplete)
		}

	default:
		return fmt.Errorf("unexpected phase %q in upload response", resp.Phase)
	}
	return nil
}
