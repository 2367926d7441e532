package security

import (
	"strings"
	"testing"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRequest = `<ebicsRequest xmlns="urn:org:ebics:H004" Revision="1" Version="H004">` +
	`<header authenticate="true"><static><HostID>EBIXHOST</HostID><Nonce>ABCDEF</Nonce></static>` +
	`<mutable><TransactionPhase>Initialisation</TransactionPhase></mutable></header>` +
	`<AuthSignature/>` +
	`<body><DataTransfer><DataEncryptionInfo authenticate="true"><TransactionKey>a2V5</TransactionKey></DataEncryptionInfo>` +
	`<OrderData>ZGF0YQ==</OrderData></DataTransfer></body></ebicsRequest>`

func parse(t *testing.T, raw string) *etree.Document {
	t.Helper()
	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromString(raw))
	return doc
}

func TestAuthenticate_SignAndVerify(t *testing.T) {
	keys := testRSAKeys(t, 2)
	doc := parse(t, testRequest)

	require.NoError(t, Authenticate(doc, keys[0]))

	raw, err := doc.WriteToString()
	require.NoError(t, err)

	// round trip through serialization, as the bank sees it
	received := parse(t, raw)
	ref := received.FindElement("//AuthSignature/SignedInfo/Reference")
	require.NotNil(t, ref)
	assert.Equal(t, AuthReferenceURI, ref.SelectAttrValue("URI", ""))
	method := received.FindElement("//AuthSignature/SignedInfo/SignatureMethod")
	require.NotNil(t, method)
	assert.Equal(t, AlgorithmRSASHA256, method.SelectAttrValue("Algorithm", ""))
	assert.NotNil(t, received.FindElement("//AuthSignature/SignatureValue"))
	require.NoError(t, VerifyAuthentication(received, &keys[0].PublicKey))

	err = VerifyAuthentication(received, &keys[1].PublicKey)
	assert.ErrorIs(t, err, ErrAuthentication)
}

func TestAuthenticate_DetectsTampering(t *testing.T) {
	keys := testRSAKeys(t, 1)
	doc := parse(t, testRequest)
	require.NoError(t, Authenticate(doc, keys[0]))

	raw, err := doc.WriteToString()
	require.NoError(t, err)

	tampered := parse(t, strings.Replace(raw, "EBIXHOST", "OTHERHST", 1))
	err = VerifyAuthentication(tampered, &keys[0].PublicKey)
	assert.ErrorIs(t, err, ErrAuthentication)

	// elements outside the authenticated set may change
	untouched := parse(t, strings.Replace(raw, "ZGF0YQ==", "b3RoZXI=", 1))
	assert.NoError(t, VerifyAuthentication(untouched, &keys[0].PublicKey))
}

func TestAuthenticate_CreatesAuthSignature(t *testing.T) {
	keys := testRSAKeys(t, 1)
	doc := parse(t, `<ebicsRequest xmlns="urn:org:ebics:H004"><header authenticate="true"><static/></header><body/></ebicsRequest>`)

	require.NoError(t, Authenticate(doc, keys[0]))

	children := doc.Root().ChildElements()
	require.Len(t, children, 3)
	assert.Equal(t, "AuthSignature", children[1].Tag)
}

func TestAuthenticate_Errors(t *testing.T) {
	keys := testRSAKeys(t, 1)

	assert.ErrorIs(t, Authenticate(parse(t, testRequest), nil), ErrMissingKey)
	assert.Error(t, Authenticate(parse(t, `<ebicsRequest><header/></ebicsRequest>`), keys[0]))
	assert.Error(t, Authenticate(etree.NewDocument(), keys[0]))
}

func TestVerifyAuthentication_Missing(t *testing.T) {
	keys := testRSAKeys(t, 1)

	err := VerifyAuthentication(parse(t, testRequest), &keys[0].PublicKey)
	assert.ErrorIs(t, err, ErrAuthentication)

	err = VerifyAuthentication(parse(t, testRequest), nil)
	assert.ErrorIs(t, err, ErrMissingKey)
}
