package client

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/beevik/etree"
	"github.com/sirosfoundation/go-ebics/pkg/order"
	"github.com/sirosfoundation/go-ebics/pkg/protocol"
)

// Transport delivers one serialized request and returns the raw response
type Transport interface {
	Send(ctx context.Context, body []byte) ([]byte, error)
}

// Journal records the transaction after every state transition
type Journal interface {
	Record(ctx context.Context, tx *order.Transaction) error
}

// Runner executes order commands of one session
type Runner struct {
	session   *order.Session
	transport Transport
	journal   Journal
	logger    *slog.Logger
}

// Option represents a functional option for Runner
type Option func(*Runner)

// WithJournal records state transitions in j
func WithJournal(j Journal) Option {
	return func(r *Runner) {
		r.journal = j
	}
}

// WithLogger sets the logger, defaulting to the session logger
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// NewRunner creates a runner sending the requests of session over transport
func NewRunner(session *order.Session, transport Transport, opts ...Option) *Runner {
	r := &Runner{
		session:   session,
		transport: transport,
		logger:    session.Logger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

// Session returns the session commands are built for
func (r *Runner) Session() *order.Session {
	return r.session
}

// RunOrder creates the command registered for orderType and runs it
func (r *Runner) RunOrder(ctx context.Context, orderType string, p order.Params) (*order.Transaction, error) {
	cmd, err := order.New(r.session, orderType, p)
	if err != nil {
		return nil, err
	}
	return r.Run(ctx, cmd)
}

// Run executes cmd: Initialisation, the Transfer requests in ascending
// order, then the Receipt. The returned transaction is never nil and
// reflects the state reached, also when an error is returned.
func (r *Runner) Run(ctx context.Context, cmd order.Command) (*order.Transaction, error) {
	tx := order.NewTransaction(cmd)
	log := r.logger.With(
		"order_type", cmd.OrderType(),
		"reference", tx.Reference,
		"direction", cmd.Direction(),
	)

	log.Info("transaction started")
	r.record(ctx, log, tx)

	if err := r.run(ctx, log, cmd, tx); err != nil {
		if !tx.State.Terminal() {
			tx.Fail()
		}
		r.record(ctx, log, tx)
		log.Error("transaction failed",
			"transaction_id", tx.ID,
			"phase", tx.Phase,
			"return_code", tx.ReturnCode,
			"error", err)
		return tx, err
	}

	log.Info("transaction complete",
		"transaction_id", tx.ID,
		"segments", tx.NumSegments,
		"return_code", tx.ReturnCode)
	return tx, nil
}

func (r *Runner) run(ctx context.Context, log *slog.Logger, cmd order.Command, tx *order.Transaction) error {
	doc, err := cmd.BuildInitRequest(tx)
	if err != nil {
		return err
	}
	if doc != nil {
		if err := r.exchange(ctx, log, cmd, tx, doc); err != nil {
			return err
		}
		if tx.State.Terminal() {
			return nil
		}
	}

	docs, err := cmd.BuildTransferRequests(tx)
	if err != nil {
		return err
	}
	for _, doc := range docs {
		if err := r.exchange(ctx, log, cmd, tx, doc); err != nil {
			return err
		}
		if tx.State.Terminal() {
			break
		}
	}

	if tx.State == order.StateReceipt {
		doc, err := cmd.BuildReceiptRequest(tx)
		if err != nil {
			return err
		}
		if doc != nil {
			if err := r.exchange(ctx, log, cmd, tx, doc); err != nil {
				return err
			}
		}
	}

	if tx.State != order.StateComplete {
		return protocol.NewDeserializationError(cmd.OrderType(), tx.Phase, nil,
			fmt.Errorf("transaction ended in state %s", tx.State))
	}
	return nil
}

// exchange sends one request and interprets the response
func (r *Runner) exchange(ctx context.Context, log *slog.Logger, cmd order.Command, tx *order.Transaction, doc *etree.Document) error {
	body, err := protocol.Serialize(doc)
	if err != nil {
		return protocol.NewConstructionError(cmd.OrderType(), tx.Phase, err)
	}

	log.Debug("sending request", "phase", tx.Phase, "bytes", len(body))

	raw, err := r.transport.Send(ctx, body)
	if err != nil {
		tx.Fail()
		return protocol.NewTransportError(cmd.OrderType(), tx.Phase, err)
	}

	resp, err := r.session.Deserialize(cmd, tx, raw)
	if err != nil {
		return err
	}
	if resp.HasError || resp.IsRecoverySync {
		return protocol.NewResponseError(cmd.OrderType(), resp)
	}

	log.Debug("response accepted",
		"phase", resp.Phase,
		"transaction_id", resp.TransactionID,
		"segment", resp.SegmentNumber,
		"state", tx.State,
		"return_code", resp.ReturnCode)
	r.record(ctx, log, tx)
	return nil
}

func (r *Runner) record(ctx context.Context, log *slog.Logger, tx *order.Transaction) {
	if r.journal == nil {
		return
	}
	if err := r.journal.Record(ctx, tx); err != nil {
		log.Warn("failed to record transaction", "state", tx.State, "error", err)
	}
}
