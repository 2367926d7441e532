package protocol

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"time"

	"github.com/beevik/etree"
	"github.com/sirosfoundation/go-ebics/pkg/security"
)

// OrderSignature is one electronic signature within UserSignatureData
type OrderSignature struct {
	SignatureVersion string
	SignatureValue   string
	PartnerID        string
	UserID           string
}

// UserSignatureData builds the S001 document carried (protected) in
// SignatureData of signed uploads.
func UserSignatureData(signatures ...OrderSignature) ([]byte, error) {
	doc := etree.NewDocument()
	doc.WriteSettings.CanonicalEndTags = true

	root := doc.CreateElement("UserSignatureData")
	root.CreateAttr("xmlns", NamespaceS001)

	for _, s := range signatures {
		data := root.CreateElement("OrderSignatureData")
		data.CreateElement("SignatureVersion").SetText(s.SignatureVersion)
		data.CreateElement("SignatureValue").SetText(s.SignatureValue)
		data.CreateElement("PartnerID").SetText(s.PartnerID)
		data.CreateElement("UserID").SetText(s.UserID)
	}

	return doc.WriteToBytes()
}

// SignaturePubKey describes the signature key announced with INI
type SignaturePubKey struct {
	PublicKey        *rsa.PublicKey
	Certificate      *x509.Certificate
	SignatureVersion string
	PartnerID        string
	UserID           string
	Timestamp        time.Time
}

// SignaturePubKeyOrderData builds the S001 INI order data
func SignaturePubKeyOrderData(k SignaturePubKey) ([]byte, error) {
	doc := etree.NewDocument()

	root := doc.CreateElement("SignaturePubKeyOrderData")
	root.CreateAttr("xmlns", NamespaceS001)
	root.CreateAttr("xmlns:ds", NamespaceDS)

	info := root.CreateElement("SignaturePubKeyInfo")
	if k.Certificate != nil {
		x509Data := info.CreateElement("ds:X509Data")
		serial := x509Data.CreateElement("ds:X509IssuerSerial")
		serial.CreateElement("ds:X509IssuerName").SetText(k.Certificate.Issuer.String())
		serial.CreateElement("ds:X509SerialNumber").SetText(k.Certificate.SerialNumber.String())
		x509Data.CreateElement("ds:X509Certificate").SetText(base64.StdEncoding.EncodeToString(k.Certificate.Raw))
	}

	value := info.CreateElement("PubKeyValue")
	rsaValue := value.CreateElement("ds:RSAKeyValue")
	rsaValue.CreateElement("ds:Modulus").SetText(security.ModulusBase64(k.PublicKey))
	rsaValue.CreateElement("ds:Exponent").SetText(security.ExponentBase64(k.PublicKey))
	value.CreateElement("TimeStamp").SetText(FormatTimestamp(k.Timestamp))

	info.CreateElement("SignatureVersion").SetText(k.SignatureVersion)

	root.CreateElement("PartnerID").SetText(k.PartnerID)
	root.CreateElement("UserID").SetText(k.UserID)

	return doc.WriteToBytes()
}
