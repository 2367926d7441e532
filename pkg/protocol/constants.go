package protocol

// Namespaces
const (
	NamespaceH004 = "urn:org:ebics:H004"
	NamespaceS001 = "http://www.ebics.org/S001"
	NamespaceDS   = "http://www.w3.org/2000/09/xmldsig#"
	NamespacePain = "urn:iso:std:iso:20022:tech:xsd:pain.001.001.03"
)

// DigestAlgorithm is the digest of bank public keys in BankPubKeyDigests
const DigestAlgorithm = "http://www.w3.org/2001/04/xmlenc#sha256"

// Protocol version and revision
const (
	VersionH004 = "H004"
	RevisionOne = "1"
)

// Root elements
const (
	RootRequest                = "ebicsRequest"
	RootUnsecuredRequest       = "ebicsUnsecuredRequest"
	RootResponse               = "ebicsResponse"
	RootKeyManagementResponse  = "ebicsKeyManagementResponse"
	RootNoPubKeyDigestsRequest = "ebicsNoPubKeyDigestsRequest"
)

// Defaults for the static header
const (
	DefaultSecurityMedium  = "0000"
	DefaultProduct         = "go-ebics"
	DefaultProductLanguage = "en"
)

// ReceiptCodeOK acknowledges a successful download
const ReceiptCodeOK = "0"

// ReceiptCodeReject tells the bank the download could not be processed
const ReceiptCodeReject = "1"

// Phase is the transaction phase carried in TransactionPhase
type Phase string

const (
	PhaseInitialisation Phase = "Initialisation"
	PhaseTransfer       Phase = "Transfer"
	PhaseReceipt        Phase = "Receipt"
)

// String returns the wire form of the phase
func (p Phase) String() string {
	return string(p)
}

// Valid reports whether p is one of the three protocol phases
func (p Phase) Valid() bool {
	switch p {
	case PhaseInitialisation, PhaseTransfer, PhaseReceipt:
		return true
	}
	return false
}

// Direction of the order data flow
type Direction int

const (
	// Upload sends order data to the bank
	Upload Direction = iota
	// Download fetches order data from the bank
	Download
)

// String returns "upload" or "download"
func (d Direction) String() string {
	if d == Download {
		return "download"
	}
	return "upload"
}
