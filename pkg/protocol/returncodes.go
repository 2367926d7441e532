package protocol

// Technical return codes (header/mutable/ReturnCode)
const (
	CodeOK                       = "000000"
	CodeDownloadPostprocessDone  = "011000"
	CodeDownloadPostprocessSkip  = "011001"
	CodeSegmentNumberUnderrun    = "011101"
	CodeOrderParamsIgnored       = "031001"
	CodeAuthenticationFailed     = "061001"
	CodeInvalidRequest           = "061002"
	CodeInternalError            = "061099"
	CodeRecoverySync             = "061101"
	CodeInvalidUserOrUserState   = "091002"
	CodeUserUnknown              = "091003"
	CodeInvalidUserState         = "091004"
	CodeInvalidOrderType         = "091005"
	CodeUnsupportedOrderType     = "091006"
	CodeBankPubKeyUpdateRequired = "091008"
	CodeSegmentSizeExceeded      = "091009"
	CodeInvalidXML               = "091010"
	CodeInvalidHostID            = "091011"
	CodeUnknownTransactionID     = "091101"
	CodeTransactionAbort         = "091102"
	CodeMessageReplay            = "091103"
	CodeSegmentNumberExceeded    = "091104"
	CodeInvalidOrderParams       = "091112"
	CodeInvalidRequestContent    = "091113"
	CodeMaxOrderDataSizeExceeded = "091117"
	CodeMaxSegmentsExceeded      = "091118"
	CodeMaxTransactionsExceeded  = "091119"
	CodePartnerIDMismatch        = "091120"
	CodeIncompatibleOrderAttr    = "091121"
)

// Business return codes (body/ReturnCode)
const (
	CodeAuthorisationFailed       = "090003"
	CodeInvalidOrderDataFormat    = "090004"
	CodeNoDownloadDataAvailable   = "090005"
	CodeUnsupportedRequest        = "090006"
	CodeRecoveryNotSupported      = "091105"
	CodeInvalidSignatureFile      = "091111"
	CodeOrderIDUnknown            = "091116"
	CodeOrderIDAlreadyExists      = "091201"
	CodeProcessingError           = "091202"
	CodeUnsupportedSignatureVer   = "091301"
	CodeUnsupportedAuthVersion    = "091302"
	CodeUnsupportedEncryptVersion = "091303"
	CodeKeyLengthSignature        = "091304"
	CodeKeyLengthAuthentication   = "091305"
	CodeKeyLengthEncryption       = "091306"
	CodeNoX509Support             = "091307"
)

var symbolicNames = map[string]string{
	CodeOK:                        "EBICS_OK",
	CodeDownloadPostprocessDone:   "EBICS_DOWNLOAD_POSTPROCESS_DONE",
	CodeDownloadPostprocessSkip:   "EBICS_DOWNLOAD_POSTPROCESS_SKIPPED",
	CodeSegmentNumberUnderrun:     "EBICS_TX_SEGMENT_NUMBER_UNDERRUN",
	CodeOrderParamsIgnored:        "EBICS_ORDER_PARAMS_IGNORED",
	CodeAuthenticationFailed:      "EBICS_AUTHENTICATION_FAILED",
	CodeInvalidRequest:            "EBICS_INVALID_REQUEST",
	CodeInternalError:             "EBICS_INTERNAL_ERROR",
	CodeRecoverySync:              "EBICS_TX_RECOVERY_SYNC",
	CodeInvalidUserOrUserState:    "EBICS_INVALID_USER_OR_USER_STATE",
	CodeUserUnknown:               "EBICS_USER_UNKNOWN",
	CodeInvalidUserState:          "EBICS_INVALID_USER_STATE",
	CodeInvalidOrderType:          "EBICS_INVALID_ORDER_TYPE",
	CodeUnsupportedOrderType:      "EBICS_UNSUPPORTED_ORDER_TYPE",
	CodeBankPubKeyUpdateRequired:  "EBICS_BANK_PUBKEY_UPDATE_REQUIRED",
	CodeSegmentSizeExceeded:       "EBICS_SEGMENT_SIZE_EXCEEDED",
	CodeInvalidXML:                "EBICS_INVALID_XML",
	CodeInvalidHostID:             "EBICS_INVALID_HOST_ID",
	CodeUnknownTransactionID:      "EBICS_TX_UNKNOWN_TXID",
	CodeTransactionAbort:          "EBICS_TX_ABORT",
	CodeMessageReplay:             "EBICS_TX_MESSAGE_REPLAY",
	CodeSegmentNumberExceeded:     "EBICS_TX_SEGMENT_NUMBER_EXCEEDED",
	CodeInvalidOrderParams:        "EBICS_INVALID_ORDER_PARAMS",
	CodeInvalidRequestContent:     "EBICS_INVALID_REQUEST_CONTENT",
	CodeMaxOrderDataSizeExceeded:  "EBICS_MAX_ORDER_DATA_SIZE_EXCEEDED",
	CodeMaxSegmentsExceeded:       "EBICS_MAX_SEGMENTS_EXCEEDED",
	CodeMaxTransactionsExceeded:   "EBICS_MAX_TRANSACTIONS_EXCEEDED",
	CodePartnerIDMismatch:         "EBICS_PARTNER_ID_MISMATCH",
	CodeIncompatibleOrderAttr:     "EBICS_INCOMPATIBLE_ORDER_ATTRIBUTE",
	CodeAuthorisationFailed:       "EBICS_AUTHORISATION_ORDER_TYPE_FAILED",
	CodeInvalidOrderDataFormat:    "EBICS_INVALID_ORDER_DATA_FORMAT",
	CodeNoDownloadDataAvailable:   "EBICS_NO_DOWNLOAD_DATA_AVAILABLE",
	CodeUnsupportedRequest:        "EBICS_UNSUPPORTED_REQUEST_FOR_ORDER_INSTANCE",
	CodeRecoveryNotSupported:      "EBICS_RECOVERY_NOT_SUPPORTED",
	CodeInvalidSignatureFile:      "EBICS_INVALID_SIGNATURE_FILE_FORMAT",
	CodeOrderIDUnknown:            "EBICS_ORDERID_UNKNOWN",
	CodeOrderIDAlreadyExists:      "EBICS_ORDERID_ALREADY_EXISTS",
	CodeProcessingError:           "EBICS_PROCESSING_ERROR",
	CodeUnsupportedSignatureVer:   "EBICS_KEYMGMT_UNSUPPORTED_VERSION_SIGNATURE",
	CodeUnsupportedAuthVersion:    "EBICS_KEYMGMT_UNSUPPORTED_VERSION_AUTHENTICATION",
	CodeUnsupportedEncryptVersion: "EBICS_KEYMGMT_UNSUPPORTED_VERSION_ENCRYPTION",
	CodeKeyLengthSignature:        "EBICS_KEYMGMT_KEYLENGTH_ERROR_SIGNATURE",
	CodeKeyLengthAuthentication:   "EBICS_KEYMGMT_KEYLENGTH_ERROR_AUTHENTICATION",
	CodeKeyLengthEncryption:       "EBICS_KEYMGMT_KEYLENGTH_ERROR_ENCRYPTION",
	CodeNoX509Support:             "EBICS_KEYMGMT_NO_X509_SUPPORT",
}

// SymbolicName returns the EBICS name of a return code, or "" if unknown
func SymbolicName(code string) string {
	return symbolicNames[code]
}

// IsError reports whether a return code signals an error. The second
// digit carries the severity: 0 ok, 1 note, 3 warning, 6 and 9 error.
// An empty code is treated as absent.
func IsError(code string) bool {
	if code == "" {
		return false
	}
	if len(code) != 6 {
		return true
	}
	switch code[1] {
	case '0', '1', '3':
		return false
	}
	return true
}

// IsRecoverySync reports whether the bank asks for transaction recovery
func IsRecoverySync(code string) bool {
	return code == CodeRecoverySync
}
