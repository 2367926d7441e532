package order

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/beevik/etree"
	"github.com/sirosfoundation/go-ebics/internal/ebicstest"
	"github.com/sirosfoundation/go-ebics/pkg/protocol"
	"github.com/stretchr/testify/require"
)

const testTransactionID = "B2A1F6D8C4E3B2A1F6D8C4E3B2A1F6D8"

var testSubscriber = protocol.Subscriber{
	HostID:    "EBIXHOST",
	PartnerID: "PARTNER1",
	UserID:    "USER0001",
}

func fixedNow() time.Time {
	return time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)
}

func newTestSession(t *testing.T, opts ...SessionOption) (*Session, *ebicstest.Bank) {
	t.Helper()

	keys, bank := ebicstest.New(t)
	opts = append([]SessionOption{WithClock(fixedNow)}, opts...)
	return NewSession(testSubscriber, keys, opts...), bank
}

func serialize(t *testing.T, doc *etree.Document) []byte {
	t.Helper()

	raw, err := protocol.Serialize(doc)
	require.NoError(t, err)
	return raw
}

func reply(t *testing.T, bank *ebicstest.Bank, r ebicstest.Reply) []byte {
	t.Helper()

	raw, err := bank.Response(r)
	require.NoError(t, err)
	return raw
}

// recordingSigner captures the data handed to the signature step
type recordingSigner struct {
	signed [][]byte
}

func (r *recordingSigner) SignData(data []byte) (string, error) {
	r.signed = append(r.signed, append([]byte(nil), data...))
	return base64.StdEncoding.EncodeToString([]byte("signature")), nil
}

func testCreditTransfer(n int) *CreditTransfer {
	pi := PaymentInfo{
		DebtorName:    "Example Debtor GmbH",
		DebtorAccount: "DE02120300000000202051",
		DebtorAgent:   "BYLADEM1001",
		ExecutionDate: "2024-03-04",
		BatchBooking:  true,
	}
	for i := range n {
		pi.Transactions = append(pi.Transactions, CreditTransferTransaction{
			EndToEndID:      "E2E-" + string(rune('A'+i)),
			Amount:          "10.00",
			Currency:        "EUR",
			CreditorName:    "Creditor " + string(rune('A'+i)),
			CreditorAccount: "DE89370400440532013000",
			CreditorAgent:   "COBADEFFXXX",
			RemittanceInfo:  "Invoice 2024-" + string(rune('A'+i)),
		})
	}
	return &CreditTransfer{
		InitiatingParty: "Example Debtor GmbH",
		PaymentInfos:    []PaymentInfo{pi},
	}
}

func segmentNumber(t *testing.T, raw []byte) (string, string) {
	t.Helper()

	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromBytes(raw))
	seg := doc.FindElement("//header/mutable/SegmentNumber")
	require.NotNil(t, seg)
	return seg.Text(), seg.SelectAttrValue("lastSegment", "")
}

func base64Decode(s string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(s)
}
