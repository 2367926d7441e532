package order

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestControlSum(t *testing.T) {
	ct := testCreditTransfer(1)
	sum, n, err := ct.ControlSum()
	require.NoError(t, err)
	assert.True(t, sum.Equal(decimal.RequireFromString("10.00")))
	assert.Equal(t, 1, n)

	ct = testCreditTransfer(2)
	ct.PaymentInfos[0].Transactions[1].Amount = "5.50"
	sum, n, err = ct.ControlSum()
	require.NoError(t, err)
	assert.Equal(t, "15.50", sum.StringFixed(2))
	assert.Equal(t, 2, n)
}

func TestControlSum_InvalidAmount(t *testing.T) {
	ct := testCreditTransfer(2)
	ct.PaymentInfos[0].Transactions[1].Amount = "12,50"

	_, _, err := ct.ControlSum()
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestPain001(t *testing.T) {
	ct := testCreditTransfer(2)
	ct.PaymentInfos[0].Transactions[1].Amount = "5.5"
	ct.PaymentInfos[0].Transactions[1].EndToEndID = ""

	doc, err := Pain001(ct, fixedNow())
	require.NoError(t, err)

	grpHdr := doc.FindElement("//GrpHdr")
	require.NotNil(t, grpHdr)
	assert.Equal(t, "2", grpHdr.SelectElement("NbOfTxs").Text())
	assert.Equal(t, "15.50", grpHdr.SelectElement("CtrlSum").Text())
	assert.Equal(t, "2024-03-01T12:30:00", grpHdr.SelectElement("CreDtTm").Text())
	assert.Len(t, grpHdr.SelectElement("MsgId").Text(), 32)

	pmtInf := doc.FindElement("//PmtInf")
	require.NotNil(t, pmtInf)
	assert.Equal(t, "true", pmtInf.SelectElement("BtchBookg").Text())
	assert.Equal(t, "15.50", pmtInf.SelectElement("CtrlSum").Text())
	assert.NotEmpty(t, pmtInf.SelectElement("PmtInfId").Text())

	txs := pmtInf.SelectElements("CdtTrfTxInf")
	require.Len(t, txs, 2)
	assert.Equal(t, "E2E-A", txs[0].FindElement("./PmtId/EndToEndId").Text())
	assert.Equal(t, DefaultEndToEndID, txs[1].FindElement("./PmtId/EndToEndId").Text())

	amt := txs[1].FindElement("./Amt/InstdAmt")
	assert.Equal(t, "5.50", amt.Text())
	assert.Equal(t, "EUR", amt.SelectAttrValue("Ccy", ""))
	assert.Equal(t, "DE89370400440532013000", txs[1].FindElement("./CdtrAcct/Id/IBAN").Text())
}

func TestPain001_NoPaymentInfos(t *testing.T) {
	_, err := Pain001(&CreditTransfer{}, fixedNow())
	assert.Error(t, err)
}
