package security

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/beevik/etree"
	"github.com/leifj/signedxml"
)

// ErrAuthentication is returned when an authentication signature does not verify
var ErrAuthentication = errors.New("authentication signature invalid")

// Authenticate computes the X002 signature of doc and stores it in the
// AuthSignature element below the root, creating it after the header if
// needed.
func Authenticate(doc *etree.Document, privateKey *rsa.PrivateKey) error {
	if privateKey == nil {
		return fmt.Errorf("%w: authentication private key is required", ErrMissingKey)
	}

	root := doc.Root()
	if root == nil {
		return fmt.Errorf("no root element found")
	}

	// the ds declaration is in scope of every authenticated element
	if root.SelectAttr("xmlns:ds") == nil {
		root.CreateAttr("xmlns:ds", NSXMLDSig)
	}

	digest, err := authenticatedDigest(root)
	if err != nil {
		return err
	}

	authSig := root.SelectElement("AuthSignature")
	if authSig == nil {
		authSig = etree.NewElement("AuthSignature")
		index := 0
		if header := root.SelectElement("header"); header != nil {
			index = header.Index() + 1
		}
		root.InsertChildAt(index, authSig)
	}
	for _, child := range authSig.ChildElements() {
		authSig.RemoveChild(child)
	}

	signedInfo := authSig.CreateElement("ds:SignedInfo")
	signedInfo.CreateElement("ds:CanonicalizationMethod").CreateAttr("Algorithm", AlgorithmC14N)
	signedInfo.CreateElement("ds:SignatureMethod").CreateAttr("Algorithm", AlgorithmRSASHA256)

	ref := signedInfo.CreateElement("ds:Reference")
	ref.CreateAttr("URI", AuthReferenceURI)
	ref.CreateElement("ds:Transforms").CreateElement("ds:Transform").CreateAttr("Algorithm", AlgorithmC14N)
	ref.CreateElement("ds:DigestMethod").CreateAttr("Algorithm", AlgorithmSHA256)
	ref.CreateElement("ds:DigestValue").SetText(base64.StdEncoding.EncodeToString(digest))

	canonicalSignedInfo, err := canonicalElement(signedInfo)
	if err != nil {
		return fmt.Errorf("failed to canonicalize SignedInfo: %w", err)
	}

	hashed := sha256.Sum256([]byte(canonicalSignedInfo))
	signature, err := rsa.SignPKCS1v15(rand.Reader, privateKey, crypto.SHA256, hashed[:])
	if err != nil {
		return fmt.Errorf("%w: failed to sign: %w", ErrCrypto, err)
	}

	authSig.CreateElement("ds:SignatureValue").SetText(base64.StdEncoding.EncodeToString(signature))
	return nil
}

// VerifyAuthentication checks the X002 signature of a bank response
func VerifyAuthentication(doc *etree.Document, publicKey *rsa.PublicKey) error {
	if publicKey == nil {
		return fmt.Errorf("%w: bank authentication key is required", ErrMissingKey)
	}

	root := doc.Root()
	if root == nil {
		return fmt.Errorf("no root element found")
	}

	authSig := root.SelectElement("AuthSignature")
	if authSig == nil {
		return fmt.Errorf("%w: AuthSignature missing", ErrAuthentication)
	}
	signedInfo := authSig.SelectElement("SignedInfo")
	if signedInfo == nil {
		return fmt.Errorf("%w: SignedInfo missing", ErrAuthentication)
	}

	digestValue := signedInfo.FindElement("./Reference/DigestValue")
	if digestValue == nil {
		return fmt.Errorf("%w: DigestValue missing", ErrAuthentication)
	}
	expected, err := base64.StdEncoding.DecodeString(digestValue.Text())
	if err != nil {
		return fmt.Errorf("%w: invalid DigestValue: %w", ErrAuthentication, err)
	}

	digest, err := authenticatedDigest(root)
	if err != nil {
		return err
	}
	if subtle.ConstantTimeCompare(expected, digest) != 1 {
		return fmt.Errorf("%w: digest mismatch", ErrAuthentication)
	}

	sigValue := authSig.SelectElement("SignatureValue")
	if sigValue == nil {
		return fmt.Errorf("%w: SignatureValue missing", ErrAuthentication)
	}
	signature, err := base64.StdEncoding.DecodeString(sigValue.Text())
	if err != nil {
		return fmt.Errorf("%w: invalid SignatureValue: %w", ErrAuthentication, err)
	}

	canonicalSignedInfo, err := canonicalElement(signedInfo)
	if err != nil {
		return fmt.Errorf("failed to canonicalize SignedInfo: %w", err)
	}
	hashed := sha256.Sum256([]byte(canonicalSignedInfo))
	if err := rsa.VerifyPKCS1v15(publicKey, crypto.SHA256, hashed[:], signature); err != nil {
		return fmt.Errorf("%w: %w", ErrAuthentication, err)
	}

	return nil
}

// authenticatedDigest hashes the canonical forms of all elements flagged
// authenticate="true", concatenated in document order.
func authenticatedDigest(root *etree.Element) ([]byte, error) {
	elements := collectAuthenticated(root, nil)
	if len(elements) == 0 {
		return nil, fmt.Errorf("no elements marked for authentication")
	}

	hash := sha256.New()
	for _, el := range elements {
		canonical, err := canonicalElement(el)
		if err != nil {
			return nil, fmt.Errorf("failed to canonicalize %s: %w", el.Tag, err)
		}
		hash.Write([]byte(canonical))
	}
	return hash.Sum(nil), nil
}

func collectAuthenticated(el *etree.Element, acc []*etree.Element) []*etree.Element {
	if el.SelectAttrValue("authenticate", "") == "true" {
		acc = append(acc, el)
	}
	for _, child := range el.ChildElements() {
		acc = collectAuthenticated(child, acc)
	}
	return acc
}

// canonicalElement renders a document subset with inclusive C14N. Namespace
// declarations in scope are copied onto the apex element first, as the
// canonical form of a subset carries them there.
func canonicalElement(el *etree.Element) (string, error) {
	apex := el.Copy()

	declared := make(map[string]bool)
	for _, attr := range apex.Attr {
		if isNamespaceDecl(attr) {
			declared[attr.FullKey()] = true
		}
	}
	for p := el.Parent(); p != nil; p = p.Parent() {
		for _, attr := range p.Attr {
			if !isNamespaceDecl(attr) || declared[attr.FullKey()] {
				continue
			}
			declared[attr.FullKey()] = true
			apex.CreateAttr(attr.FullKey(), attr.Value)
		}
	}

	doc := etree.NewDocument()
	doc.SetRoot(apex)
	raw, err := doc.WriteToString()
	if err != nil {
		return "", err
	}

	return canonicalize(raw)
}

func isNamespaceDecl(attr etree.Attr) bool {
	return attr.Space == "xmlns" || (attr.Space == "" && attr.Key == "xmlns")
}

func canonicalize(raw string) (string, error) {
	algorithm, ok := signedxml.CanonicalizationAlgorithms[AlgorithmC14N]
	if !ok {
		algorithm, ok = signedxml.CanonicalizationAlgorithms[AlgorithmExcC14N]
	}
	if !ok {
		return "", fmt.Errorf("no canonicalization algorithm available")
	}
	return algorithm.Process(raw, "")
}
