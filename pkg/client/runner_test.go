package client

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/sirosfoundation/go-ebics/internal/ebicstest"
	"github.com/sirosfoundation/go-ebics/pkg/order"
	"github.com/sirosfoundation/go-ebics/pkg/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTransactionID = "0F1E2D3C4B5A69780F1E2D3C4B5A6978"

type memoryJournal struct {
	states []order.State
}

func (j *memoryJournal) Record(_ context.Context, tx *order.Transaction) error {
	j.states = append(j.states, tx.State)
	return nil
}

func newTestRunner(t *testing.T, handlers ...ebicstest.Handler) (*Runner, *ebicstest.Bank, *ebicstest.Transport, *memoryJournal) {
	t.Helper()

	keys, bank := ebicstest.New(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	session := order.NewSession(protocol.Subscriber{
		HostID:    "EBIXHOST",
		PartnerID: "PARTNER1",
		UserID:    "USER0001",
	}, keys, order.WithLogger(logger))

	transport := ebicstest.NewTransport(handlers...)
	journal := &memoryJournal{}
	return NewRunner(session, transport, WithJournal(journal)), bank, transport, journal
}

// respond builds the reply once the bank has authenticated the request
func respond(t *testing.T, bank **ebicstest.Bank, r ebicstest.Reply) ebicstest.Handler {
	return func(req []byte) ([]byte, error) {
		if _, err := (*bank).ReadRequest(req); err != nil {
			return nil, err
		}
		return (*bank).Response(r)
	}
}

func dateRange() *protocol.DateRange {
	return &protocol.DateRange{
		Start: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
	}
}

func TestRun_Download(t *testing.T) {
	var bank *ebicstest.Bank
	var download *ebicstest.Download

	runner, b, transport, journal := newTestRunner(t,
		func(req []byte) ([]byte, error) {
			if _, err := bank.ReadRequest(req); err != nil {
				return nil, err
			}
			return bank.Response(ebicstest.Reply{
				Phase:          protocol.PhaseInitialisation,
				TransactionID:  testTransactionID,
				NumSegments:    2,
				Segment:        1,
				TransactionKey: download.TransactionKey,
				OrderData:      download.Segments[0],
			})
		},
		func(req []byte) ([]byte, error) {
			if _, err := bank.ReadRequest(req); err != nil {
				return nil, err
			}
			return bank.Response(ebicstest.Reply{
				Phase:         protocol.PhaseTransfer,
				TransactionID: testTransactionID,
				Segment:       2,
				LastSegment:   true,
				OrderData:     download.Segments[1],
			})
		},
		respond(t, &bank, ebicstest.Reply{
			Phase:         protocol.PhaseReceipt,
			TransactionID: testTransactionID,
			Technical:     protocol.CodeDownloadPostprocessDone,
		}),
	)
	bank = b

	var err error
	download, err = bank.PrepareDownload(":20:JAN-1\r\n", ":62F:C240131EUR100,00\r\n")
	require.NoError(t, err)

	tx, err := runner.RunOrder(context.Background(), "STA", order.Params{DateRange: dateRange()})
	require.NoError(t, err)
	assert.Equal(t, order.StateComplete, tx.State)
	assert.Equal(t, testTransactionID, tx.ID)
	assert.Len(t, transport.Requests(), 3)

	result, err := tx.Result()
	require.NoError(t, err)
	assert.Equal(t, ":20:JAN-1\r\n:62F:C240131EUR100,00\r\n", string(result))

	assert.Equal(t, []order.State{
		order.StateInitialisation,
		order.StateTransfer,
		order.StateReceipt,
		order.StateComplete,
	}, journal.states)
}

func TestRun_Upload(t *testing.T) {
	var bank *ebicstest.Bank
	var upload *ebicstest.Upload

	runner, b, transport, _ := newTestRunner(t,
		func(req []byte) ([]byte, error) {
			var err error
			if upload, err = bank.OpenUpload(req); err != nil {
				return nil, err
			}
			return bank.Response(ebicstest.Reply{
				Phase:         protocol.PhaseInitialisation,
				TransactionID: testTransactionID,
			})
		},
		respond(t, &bank, ebicstest.Reply{
			Phase:         protocol.PhaseTransfer,
			TransactionID: testTransactionID,
			Segment:       1,
			LastSegment:   true,
		}),
	)
	bank = b

	transfer := &order.CreditTransfer{
		InitiatingParty: "Example GmbH",
		PaymentInfos: []order.PaymentInfo{{
			DebtorName:    "Example GmbH",
			DebtorAccount: "DE02120300000000202051",
			DebtorAgent:   "BYLADEM1001",
			ExecutionDate: "2024-03-04",
			Transactions: []order.CreditTransferTransaction{{
				Amount:          "10.00",
				Currency:        "EUR",
				CreditorName:    "Supplier AG",
				CreditorAccount: "DE89370400440532013000",
				CreditorAgent:   "COBADEFFXXX",
				RemittanceInfo:  "Invoice 42",
			}},
		}},
	}

	tx, err := runner.RunOrder(context.Background(), "CCT", order.Params{CreditTransfer: transfer})
	require.NoError(t, err)
	assert.Equal(t, order.StateComplete, tx.State)

	requests := transport.Requests()
	require.Len(t, requests, 2)
	require.NotNil(t, upload)
	assert.Equal(t, 1, upload.NumSegments)

	payload, err := bank.OrderData(upload, requests[1:])
	require.NoError(t, err)
	assert.Contains(t, string(payload), "<InstdAmt Ccy=\"EUR\">10.00</InstdAmt>")
}

func TestRun_INI(t *testing.T) {
	var bank *ebicstest.Bank
	runner, b, transport, _ := newTestRunner(t, func([]byte) ([]byte, error) {
		return bank.KeyManagementResponse(protocol.CodeOK, protocol.CodeOK)
	})
	bank = b

	tx, err := runner.Run(context.Background(), order.NewINI(runner.Session()))
	require.NoError(t, err)
	assert.Equal(t, order.StateComplete, tx.State)
	assert.Len(t, transport.Requests(), 1)
}

func TestRun_ErrorShortCircuits(t *testing.T) {
	var bank *ebicstest.Bank
	runner, b, transport, journal := newTestRunner(t,
		respond(t, &bank, ebicstest.Reply{
			Phase:    protocol.PhaseInitialisation,
			Business: protocol.CodeNoDownloadDataAvailable,
		}),
	)
	bank = b

	tx, err := runner.RunOrder(context.Background(), "STA", order.Params{DateRange: dateRange()})
	require.Error(t, err)

	var e *protocol.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, protocol.KindProtocol, e.Kind)
	assert.Equal(t, protocol.CodeNoDownloadDataAvailable, e.ReturnCode)
	assert.Equal(t, protocol.PhaseInitialisation, e.Phase)

	assert.Equal(t, order.StateFailed, tx.State)
	assert.Empty(t, tx.ID)
	assert.Len(t, transport.Requests(), 1)
	assert.Equal(t, order.StateFailed, journal.states[len(journal.states)-1])
}

func TestRun_RecoverySync(t *testing.T) {
	var bank *ebicstest.Bank
	runner, b, _, _ := newTestRunner(t,
		respond(t, &bank, ebicstest.Reply{
			Phase:     protocol.PhaseInitialisation,
			Technical: protocol.CodeRecoverySync,
		}),
	)
	bank = b

	tx, err := runner.RunOrder(context.Background(), "PTK", order.Params{})
	assert.True(t, protocol.IsKind(err, protocol.KindRecoverySync))
	assert.Equal(t, order.StateFailed, tx.State)
}

func TestRun_TransportErrorIsNotRetried(t *testing.T) {
	var bank *ebicstest.Bank
	var download *ebicstest.Download
	errReset := errors.New("connection reset by peer")

	runner, b, transport, _ := newTestRunner(t,
		func([]byte) ([]byte, error) {
			return bank.Response(ebicstest.Reply{
				Phase:          protocol.PhaseInitialisation,
				TransactionID:  testTransactionID,
				NumSegments:    3,
				Segment:        1,
				TransactionKey: download.TransactionKey,
				OrderData:      download.Segments[0],
			})
		},
		ebicstest.Fail(errReset),
	)
	bank = b

	var err error
	download, err = bank.PrepareDownload("a", "b", "c")
	require.NoError(t, err)

	tx, err := runner.RunOrder(context.Background(), "Z53", order.Params{DateRange: dateRange()})
	require.Error(t, err)
	assert.True(t, protocol.IsKind(err, protocol.KindTransport))
	assert.ErrorIs(t, err, errReset)
	assert.Equal(t, order.StateFailed, tx.State)
	assert.Len(t, transport.Requests(), 2)
}

func TestRun_CancelledContext(t *testing.T) {
	runner, _, transport, _ := newTestRunner(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tx, err := runner.Run(ctx, order.NewSPR(runner.Session()))
	assert.True(t, protocol.IsKind(err, protocol.KindTransport))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, order.StateFailed, tx.State)
	assert.Len(t, transport.Requests(), 0)
}

func TestRun_ConstructionError(t *testing.T) {
	runner, _, transport, _ := newTestRunner(t)

	_, err := runner.RunOrder(context.Background(), "STA", order.Params{})
	assert.True(t, protocol.IsKind(err, protocol.KindConstruction))
	assert.Empty(t, transport.Requests())
}
