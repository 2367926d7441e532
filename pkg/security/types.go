package security

// Signature versions for electronic signatures (ES)
const (
	SignatureA005 = "A005" // RSASSA-PKCS1-v1_5 with SHA-256
	SignatureA006 = "A006" // RSASSA-PSS with SHA-256
)

// Authentication and encryption versions
const (
	AuthenticationX002 = "X002"
	EncryptionE002     = "E002"
)

// Algorithm URIs used by the X002 authentication signature
const (
	AlgorithmRSASHA256 = "http://www.w3.org/2001/04/xmldsig-more#rsa-sha256"
	AlgorithmSHA256    = "http://www.w3.org/2001/04/xmlenc#sha256"
	AlgorithmC14N      = "http://www.w3.org/TR/2001/REC-xml-c14n-20010315"
	AlgorithmExcC14N   = "http://www.w3.org/2001/10/xml-exc-c14n#"
)

// NSXMLDSig is the XML signature namespace
const NSXMLDSig = "http://www.w3.org/2000/09/xmldsig#"

// AuthReferenceURI selects every element flagged for authentication
const AuthReferenceURI = "#xpointer(//*[@authenticate='true'])"

// TransactionKeySize is the length of an E002 transaction key in bytes
const TransactionKeySize = 16
