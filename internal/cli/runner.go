package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/sirosfoundation/go-ebics/internal/config"
	"github.com/sirosfoundation/go-ebics/internal/keystore"
	"github.com/sirosfoundation/go-ebics/internal/storage"
	"github.com/sirosfoundation/go-ebics/internal/storage/badgerstore"
	"github.com/sirosfoundation/go-ebics/internal/storage/mongodb"
	"github.com/sirosfoundation/go-ebics/pkg/client"
	"github.com/sirosfoundation/go-ebics/pkg/compression"
	"github.com/sirosfoundation/go-ebics/pkg/order"
	"github.com/sirosfoundation/go-ebics/pkg/protocol"
	"github.com/sirosfoundation/go-ebics/pkg/security"
	"github.com/sirosfoundation/go-ebics/pkg/transport"
)

// openStore opens the configured journal backend
func (a *app) openStore(ctx context.Context) (storage.Store, error) {
	switch a.cfg.Storage.Type {
	case config.StorageMongoDB:
		mongo := a.cfg.Storage.MongoDB
		store, err := mongodb.NewStore(ctx, &mongodb.Config{
			URI:            mongo.URI,
			Database:       mongo.Database,
			GridFSBucket:   mongo.GridFS.BucketName,
			ChunkSizeBytes: mongo.GridFS.ChunkSizeBytes,
		})
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		store, err := badgerstore.NewStore(&badgerstore.Config{
			Dir:        a.cfg.Storage.Badger.Dir,
			InMemory:   a.cfg.Storage.Badger.InMemory,
			SyncWrites: true,
		})
		if err != nil {
			return nil, err
		}
		return store, nil
	}
}

// keyring loads the configured key files, checking bank certificates
// when a CA bundle is configured
func (a *app) keyring() (*security.Keyring, error) {
	var opts []keystore.Option
	if caFile := a.cfg.Bank.Keys.CAFile; caFile != "" {
		pool, err := keystore.LoadCertPool(caFile)
		if err != nil {
			return nil, err
		}
		opts = append(opts, keystore.WithCertificateValidator(security.NewDefaultCertificateValidator(pool)))
	}

	keys, err := keystore.NewFileStore(opts...).Keyring(a.cfg)
	if err != nil {
		return nil, fmt.Errorf("loading keys: %w", err)
	}
	return keys, nil
}

// runOrder wires keys, session, transport and journal and runs one order
func (a *app) runOrder(ctx context.Context, orderType string, params order.Params) (*order.Transaction, error) {
	keys, err := a.keyring()
	if err != nil {
		return nil, err
	}

	session := order.NewSession(a.cfg.Subscriber(), keys,
		order.WithSegmentSize(a.cfg.Protocol.SegmentSize),
		order.WithCompressor(compression.NewCompressor(
			compression.WithLevel(a.cfg.Protocol.CompressionLevel),
			compression.WithMaxSize(a.cfg.Protocol.MaxOrderDataSize))),
		order.WithResponseVerification(*a.cfg.Bank.VerifyResponses),
		order.WithLogger(a.logger))

	httpsConfig := transport.DefaultHTTPSConfig()
	httpsConfig.Timeout = a.cfg.Transport.Timeout
	httpsConfig.IdleConnTimeout = a.cfg.Transport.IdleConnTimeout
	if a.cfg.Transport.MaxResponseSize > 0 {
		httpsConfig.MaxResponseSize = a.cfg.Transport.MaxResponseSize
	}
	bank := transport.NewBankTransport(transport.NewHTTPSClient(httpsConfig), a.cfg.Bank.URL)

	store, err := a.openStore(ctx)
	if err != nil {
		return nil, fmt.Errorf("opening journal: %w", err)
	}
	defer func() {
		if err := store.Close(context.Background()); err != nil {
			a.logger.Warn("failed to close journal", slog.String("error", err.Error()))
		}
	}()

	runner := client.NewRunner(session, bank,
		client.WithJournal(storage.NewJournal(store)),
		client.WithLogger(a.logger))

	tx, err := runner.RunOrder(ctx, orderType, params)
	if err != nil {
		return tx, err
	}

	fmt.Fprintf(a.out, "%s %s: transaction %s, return code %s %s\n",
		orderType, tx.State, transactionID(tx), tx.ReturnCode, tx.ReportText)
	return tx, nil
}

func transactionID(tx *order.Transaction) string {
	if tx.ID != "" {
		return tx.ID
	}
	return tx.Reference
}

// writeResult stores the downloaded order data in path, or prints it
// when path is empty or "-"
func (a *app) writeResult(tx *order.Transaction, path string) error {
	data, err := tx.Output()
	if err != nil {
		return err
	}
	if tx.Truncated {
		a.logger.Warn("order data holds the first segment only",
			slog.String("order_type", tx.OrderType),
			slog.Int("segments", tx.NumSegments))
	}
	if path == "" || path == "-" {
		_, err = a.out.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing order data: %w", err)
	}
	a.logger.Info("order data written", slog.String("path", path), slog.Int("bytes", len(data)))
	return nil
}

// parseDateRange reads the --from/--to flags. Both or neither must be set.
func parseDateRange(from, to string) (*protocol.DateRange, error) {
	if from == "" && to == "" {
		return nil, nil
	}
	if from == "" || to == "" {
		return nil, fmt.Errorf("--from and --to must be given together")
	}

	start, err := time.Parse(time.DateOnly, from)
	if err != nil {
		return nil, fmt.Errorf("invalid --from date: %w", err)
	}
	end, err := time.Parse(time.DateOnly, to)
	if err != nil {
		return nil, fmt.Errorf("invalid --to date: %w", err)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("--to %s is before --from %s", to, from)
	}
	return &protocol.DateRange{Start: start, End: end}, nil
}
