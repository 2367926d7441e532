package cli

import (
	"bytes"
	"context"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sirosfoundation/go-ebics/internal/ebicstest"
	"github.com/sirosfoundation/go-ebics/internal/storage"
	"github.com/sirosfoundation/go-ebics/internal/storage/badgerstore"
	"github.com/sirosfoundation/go-ebics/pkg/protocol"
	"github.com/sirosfoundation/go-ebics/pkg/security"
)

const testTransactionID = "00112233445566778899AABBCCDDEEFF"

func quietEnvironment(t *testing.T) {
	t.Helper()
	t.Setenv("EBICS_ENVIRONMENT", "test")
	t.Setenv("EBICS_LOG_LEVEL", "error")
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writePrivateKey(t *testing.T, path string, key *rsa.PrivateKey) {
	t.Helper()
	data := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
	require.NoError(t, os.WriteFile(path, data, 0o600))
}

func writePublicKey(t *testing.T, path string, key *rsa.PublicKey) {
	t.Helper()
	der, err := x509.MarshalPKIXPublicKey(key)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}), 0o600))
}

// bankServer serves the scripted transport over HTTP
func bankServer(t *testing.T, transport *ebicstest.Transport) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		resp, err := transport.Send(r.Context(), body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/xml; charset=UTF-8")
		_, _ = w.Write(resp)
	}))
	t.Cleanup(srv.Close)
	return srv
}

// writeConfig stores the keys of the fake bank and a matching config file
func writeConfig(t *testing.T, bank *ebicstest.Bank, url string) (path, dataDir string) {
	t.Helper()
	dir := t.TempDir()
	keys, _ := ebicstest.New(t)

	writePrivateKey(t, filepath.Join(dir, "a006.key"), keys.UserSignature)
	writePrivateKey(t, filepath.Join(dir, "x002.key"), keys.UserAuthentication)
	writePrivateKey(t, filepath.Join(dir, "e002.key"), keys.UserEncryption)
	writePublicKey(t, filepath.Join(dir, "bank-x002.pem"), &bank.Authentication.PublicKey)
	writePublicKey(t, filepath.Join(dir, "bank-e002.pem"), &bank.Encryption.PublicKey)

	dataDir = filepath.Join(dir, "journal")
	cfg := fmt.Sprintf(`
bank:
  url: %s
  hostId: EBIXHOST
  keys:
    authentication: %[2]s/bank-x002.pem
    encryption: %[2]s/bank-e002.pem
user:
  partnerId: PARTNER1
  userId: USER0001
  keys:
    signature: %[2]s/a006.key
    authentication: %[2]s/x002.key
    encryption: %[2]s/e002.key
storage:
  type: badger
  badger:
    dir: %[3]s
transport:
  timeout: 10s
`, url, dir, dataDir)

	path = filepath.Join(dir, "ebics.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o600))
	return path, dataDir
}

func TestSTA_DownloadAndHistory(t *testing.T) {
	quietEnvironment(t)

	_, bank := ebicstest.New(t)
	download, err := bank.PrepareDownload(":20:JAN-1\r\n", ":62F:C240131EUR100,00\r\n")
	require.NoError(t, err)

	reply := func(r ebicstest.Reply) ebicstest.Handler {
		return func(req []byte) ([]byte, error) {
			if _, err := bank.ReadRequest(req); err != nil {
				return nil, err
			}
			return bank.Response(r)
		}
	}

	transport := ebicstest.NewTransport(
		reply(ebicstest.Reply{
			Phase:          protocol.PhaseInitialisation,
			TransactionID:  testTransactionID,
			NumSegments:    2,
			Segment:        1,
			TransactionKey: download.TransactionKey,
			OrderData:      download.Segments[0],
		}),
		reply(ebicstest.Reply{
			Phase:         protocol.PhaseTransfer,
			TransactionID: testTransactionID,
			Segment:       2,
			LastSegment:   true,
			OrderData:     download.Segments[1],
		}),
		reply(ebicstest.Reply{
			Phase:         protocol.PhaseReceipt,
			TransactionID: testTransactionID,
			Technical:     protocol.CodeDownloadPostprocessDone,
		}),
	)
	srv := bankServer(t, transport)
	configPath, dataDir := writeConfig(t, bank, srv.URL)

	out, err := execute(t, "sta", "--config", configPath, "--from", "2024-01-01", "--to", "2024-01-31", "-t", "z53")
	require.NoError(t, err)
	assert.Contains(t, out, "Z53 complete: transaction "+testTransactionID)
	assert.Contains(t, out, ":20:JAN-1\r\n:62F:C240131EUR100,00\r\n")
	assert.Len(t, transport.Requests(), 3)

	out, err = execute(t, "history", "--config", configPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Z53")
	assert.Contains(t, out, "complete")
	assert.Contains(t, out, "2/2")

	store, err := badgerstore.NewStore(&badgerstore.Config{Dir: dataDir})
	require.NoError(t, err)
	records, err := store.List(context.Background(), &storage.Filter{OrderType: "Z53"})
	require.NoError(t, err)
	require.NoError(t, store.Close(context.Background()))
	require.Len(t, records, 1)
	assert.Equal(t, testTransactionID, records[0].TransactionID)

	out, err = execute(t, "history", "show", records[0].ID, "--config", configPath, "-o", "-")
	require.NoError(t, err)
	assert.Equal(t, ":20:JAN-1\r\n:62F:C240131EUR100,00\r\n", out)

	out, err = execute(t, "history", "show", records[0].ID, "--config", configPath)
	require.NoError(t, err)
	assert.Contains(t, out, `"orderType": "Z53"`)
}

func TestSTA_BankError(t *testing.T) {
	quietEnvironment(t)

	_, bank := ebicstest.New(t)
	transport := ebicstest.NewTransport(func(req []byte) ([]byte, error) {
		return bank.Response(ebicstest.Reply{
			Phase:      protocol.PhaseInitialisation,
			Business:   "090005",
			ReportText: "EBICS_NO_DOWNLOAD_DATA_AVAILABLE",
		})
	})
	srv := bankServer(t, transport)
	configPath, _ := writeConfig(t, bank, srv.URL)

	_, err := execute(t, "sta", "--config", configPath, "--from", "2024-01-01", "--to", "2024-01-31")
	require.Error(t, err)
	assert.True(t, protocol.IsKind(err, protocol.KindProtocol))
	assert.Len(t, transport.Requests(), 1)
}

func TestPTK_MultiSegmentProtocol(t *testing.T) {
	quietEnvironment(t)

	_, bank := ebicstest.New(t)
	download, err := bank.PrepareDownload("PTK part 1\n", "PTK part 2\n")
	require.NoError(t, err)

	transport := ebicstest.NewTransport(
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
				Phase:         protocol.PhaseReceipt,
				TransactionID: testTransactionID,
				Technical:     protocol.CodeDownloadPostprocessDone,
			})
		},
	)
	srv := bankServer(t, transport)
	configPath, _ := writeConfig(t, bank, srv.URL)

	output := filepath.Join(t.TempDir(), "ptk.txt")
	out, err := execute(t, "ptk", "--config", configPath, "-o", output)
	require.NoError(t, err)
	assert.Contains(t, out, "PTK complete: transaction "+testTransactionID)
	assert.Len(t, transport.Requests(), 2)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, "PTK part 1\n", string(data))
}

func TestCCT_Upload(t *testing.T) {
	quietEnvironment(t)

	_, bank := ebicstest.New(t)
	var upload *ebicstest.Upload
	transport := ebicstest.NewTransport(
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
		func(req []byte) ([]byte, error) {
			if _, err := bank.ReadRequest(req); err != nil {
				return nil, err
			}
			return bank.Response(ebicstest.Reply{
				Phase:         protocol.PhaseTransfer,
				TransactionID: testTransactionID,
				Segment:       1,
				LastSegment:   true,
			})
		},
	)
	srv := bankServer(t, transport)
	configPath, _ := writeConfig(t, bank, srv.URL)

	payments := filepath.Join(t.TempDir(), "payments.yaml")
	require.NoError(t, os.WriteFile(payments, []byte(`
initiating_party: Example GmbH
payment_infos:
  - debtor_name: Example GmbH
    debtor_account: DE02100100109307118603
    debtor_agent: PBNKDEFFXXX
    execution_date: "2024-03-04"
    transactions:
      - end_to_end_id: INV-1
        amount: "125.00"
        currency: EUR
        creditor_name: Supplier AG
        creditor_account: DE75512108001245126199
`), 0o600))

	out, err := execute(t, "cct", payments, "--config", configPath)
	require.NoError(t, err)
	assert.Contains(t, out, "CCT complete: transaction "+testTransactionID)

	require.NotNil(t, upload)
	assert.Equal(t, "CCT", upload.OrderType)
	assert.Equal(t, 1, upload.NumSegments)

	requests := transport.Requests()
	require.Len(t, requests, 2)
	data, err := bank.OrderData(upload, requests[1:])
	require.NoError(t, err)
	assert.Contains(t, string(data), "<EndToEndId>INV-1</EndToEndId>")
	assert.Contains(t, string(data), "<CtrlSum>125.00</CtrlSum>")
}

func TestSTA_FlagValidation(t *testing.T) {
	quietEnvironment(t)
	_, bank := ebicstest.New(t)
	configPath, _ := writeConfig(t, bank, "https://ebics.example.com/ebics")

	_, err := execute(t, "sta", "--config", configPath, "-t", "XYZ", "--from", "2024-01-01", "--to", "2024-01-31")
	assert.ErrorContains(t, err, "unsupported statement order type")

	_, err = execute(t, "sta", "--config", configPath)
	assert.ErrorContains(t, err, "required")
}

func TestLetter(t *testing.T) {
	quietEnvironment(t)
	keys, bank := ebicstest.New(t)
	configPath, _ := writeConfig(t, bank, "https://ebics.example.com/ebics")

	out, err := execute(t, "letter", "--config", configPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Host EBIXHOST, partner PARTNER1, user USER0001")
	assert.Contains(t, out, "User signature (A006, 2048 bit)")
	assert.Contains(t, out, "Bank encryption (E002, 2048 bit)")

	digest, err := security.PublicKeyDigest(&keys.UserSignature.PublicKey)
	require.NoError(t, err)
	assert.Contains(t, out, security.FormatKeyDigest(digest))
}

func TestParseDateRange(t *testing.T) {
	dr, err := parseDateRange("", "")
	require.NoError(t, err)
	assert.Nil(t, dr)

	dr, err = parseDateRange("2024-01-01", "2024-01-31")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), dr.Start)
	assert.Equal(t, time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), dr.End)

	for _, tc := range [][2]string{
		{"2024-01-01", ""},
		{"01.01.2024", "2024-01-31"},
		{"2024-02-01", "2024-01-31"},
	} {
		_, err := parseDateRange(tc[0], tc[1])
		assert.Error(t, err, "%v", tc)
	}
}

func TestLoadCreditTransfer(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "payments.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
initiating_party: Example GmbH
payment_infos:
  - debtor_name: Example GmbH
    debtor_account: DE02100100109307118603
    debtor_agent: PBNKDEFFXXX
    execution_date: "2024-03-04"
    transactions:
      - end_to_end_id: INV-1
        amount: "125.00"
        currency: EUR
        creditor_name: Supplier AG
        creditor_account: DE75512108001245126199
      - amount: "4.50"
        currency: EUR
        creditor_name: Other AG
        creditor_account: DE89370400440532013000
`), 0o600))

	transfer, err := loadCreditTransfer(path)
	require.NoError(t, err)
	assert.Equal(t, "Example GmbH", transfer.InitiatingParty)
	require.Len(t, transfer.PaymentInfos, 1)
	assert.Len(t, transfer.PaymentInfos[0].Transactions, 2)

	sum, n, err := transfer.ControlSum()
	require.NoError(t, err)
	assert.Equal(t, "129.50", sum.StringFixed(2))
	assert.Equal(t, 2, n)

	empty := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(empty, []byte("initiating_party: X\n"), 0o600))
	_, err = loadCreditTransfer(empty)
	assert.ErrorContains(t, err, "no payment_infos")
}
