package order

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirosfoundation/go-ebics/pkg/protocol"
)

// ErrInvalidAmount is returned for amounts that are not positive decimals
var ErrInvalidAmount = errors.New("invalid amount")

// DefaultEndToEndID is used when a transaction carries no reference
const DefaultEndToEndID = "NOTPROVIDED"

// CreditTransfer is the input of a CCT order
type CreditTransfer struct {
	InitiatingParty string        `yaml:"initiating_party"`
	PaymentInfos    []PaymentInfo `yaml:"payment_infos"`
}

// PaymentInfo groups credit transfers debited from one account
type PaymentInfo struct {
	DebtorName    string `yaml:"debtor_name"`
	DebtorAccount string `yaml:"debtor_account"`
	DebtorAgent   string `yaml:"debtor_agent"`
	// ExecutionDate is the requested execution date (yyyy-mm-dd)
	ExecutionDate string                      `yaml:"execution_date"`
	BatchBooking  bool                        `yaml:"batch_booking"`
	Transactions  []CreditTransferTransaction `yaml:"transactions"`
}

// CreditTransferTransaction is a single SEPA credit transfer
type CreditTransferTransaction struct {
	EndToEndID      string `yaml:"end_to_end_id"`
	Amount          string `yaml:"amount"`
	Currency        string `yaml:"currency"`
	CreditorName    string `yaml:"creditor_name"`
	CreditorAccount string `yaml:"creditor_account"`
	CreditorAgent   string `yaml:"creditor_agent"`
	RemittanceInfo  string `yaml:"remittance_info"`
}

// ControlSum parses every amount and returns the sum and the number of
// transactions. It fails on the first invalid amount.
func (ct *CreditTransfer) ControlSum() (decimal.Decimal, int, error) {
	sum := decimal.Zero
	count := 0
	for i, pi := range ct.PaymentInfos {
		piSum, err := pi.ControlSum()
		if err != nil {
			return decimal.Zero, 0, fmt.Errorf("payment info %d: %w", i+1, err)
		}
		sum = sum.Add(piSum)
		count += len(pi.Transactions)
	}
	return sum, count, nil
}

// ControlSum returns the sum of the transaction amounts of one payment info
func (pi *PaymentInfo) ControlSum() (decimal.Decimal, error) {
	sum := decimal.Zero
	for i, t := range pi.Transactions {
		amount, err := parseAmount(t.Amount)
		if err != nil {
			return decimal.Zero, fmt.Errorf("transaction %d: %w", i+1, err)
		}
		sum = sum.Add(amount)
	}
	return sum, nil
}

func parseAmount(s string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w %q", ErrInvalidAmount, s)
	}
	if !amount.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w %q: must be positive", ErrInvalidAmount, s)
	}
	return amount, nil
}

// Pain001 renders a credit transfer as pain.001.001.03. All amounts are
// validated before the document is built.
func Pain001(ct *CreditTransfer, now time.Time) (*etree.Document, error) {
	if ct == nil || len(ct.PaymentInfos) == 0 {
		return nil, errors.New("credit transfer without payment infos")
	}

	total, count, err := ct.ControlSum()
	if err != nil {
		return nil, err
	}

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	root := doc.CreateElement("Document")
	root.CreateAttr("xmlns", protocol.NamespacePain)

	initn := root.CreateElement("CstmrCdtTrfInitn")

	grpHdr := initn.CreateElement("GrpHdr")
	grpHdr.CreateElement("MsgId").SetText(protocol.GenerateNonce())
	grpHdr.CreateElement("CreDtTm").SetText(now.UTC().Format("2006-01-02T15:04:05"))
	grpHdr.CreateElement("NbOfTxs").SetText(strconv.Itoa(count))
	grpHdr.CreateElement("CtrlSum").SetText(total.StringFixed(2))
	grpHdr.CreateElement("InitgPty").CreateElement("Nm").SetText(ct.InitiatingParty)

	for _, pi := range ct.PaymentInfos {
		piSum, err := pi.ControlSum()
		if err != nil {
			return nil, err
		}

		pmtInf := initn.CreateElement("PmtInf")
		pmtInf.CreateElement("PmtInfId").SetText(uuid.New().String())
		pmtInf.CreateElement("PmtMtd").SetText("TRF")
		pmtInf.CreateElement("BtchBookg").SetText(strconv.FormatBool(pi.BatchBooking))
		pmtInf.CreateElement("NbOfTxs").SetText(strconv.Itoa(len(pi.Transactions)))
		pmtInf.CreateElement("CtrlSum").SetText(piSum.StringFixed(2))
		pmtInf.CreateElement("PmtTpInf").CreateElement("SvcLvl").CreateElement("Cd").SetText("SEPA")
		pmtInf.CreateElement("ReqdExctnDt").SetText(pi.ExecutionDate)
		pmtInf.CreateElement("Dbtr").CreateElement("Nm").SetText(pi.DebtorName)
		pmtInf.CreateElement("DbtrAcct").CreateElement("Id").CreateElement("IBAN").SetText(pi.DebtorAccount)
		pmtInf.CreateElement("DbtrAgt").CreateElement("FinInstnId").CreateElement("BIC").SetText(pi.DebtorAgent)
		pmtInf.CreateElement("ChrgBr").SetText("SLEV")

		for _, t := range pi.Transactions {
			amount, err := parseAmount(t.Amount)
			if err != nil {
				return nil, err
			}

			endToEnd := t.EndToEndID
			if endToEnd == "" {
				endToEnd = DefaultEndToEndID
			}

			cti := pmtInf.CreateElement("CdtTrfTxInf")
			cti.CreateElement("PmtId").CreateElement("EndToEndId").SetText(endToEnd)
			instdAmt := cti.CreateElement("Amt").CreateElement("InstdAmt")
			instdAmt.CreateAttr("Ccy", t.Currency)
			instdAmt.SetText(amount.StringFixed(2))
			cti.CreateElement("CdtrAgt").CreateElement("FinInstnId").CreateElement("BIC").SetText(t.CreditorAgent)
			cti.CreateElement("Cdtr").CreateElement("Nm").SetText(t.CreditorName)
			cti.CreateElement("CdtrAcct").CreateElement("Id").CreateElement("IBAN").SetText(t.CreditorAccount)
			cti.CreateElement("RmtInf").CreateElement("Ustrd").SetText(t.RemittanceInfo)
		}
	}

	return doc, nil
}
