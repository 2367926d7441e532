package protocol

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies an engine error
type Kind string

const (
	// KindProtocol means the bank rejected a request (HasError)
	KindProtocol Kind = "protocol"
	// KindRecoverySync means the bank demands resynchronisation
	KindRecoverySync Kind = "recovery_sync"
	// KindConstruction means a request could not be composed
	KindConstruction Kind = "construction"
	// KindDeserialization means a response could not be parsed or decrypted
	KindDeserialization Kind = "deserialization"
	// KindTransport means the request could not be delivered
	KindTransport Kind = "transport"
)

// Error is the error value returned by the transaction engine
type Error struct {
	Kind       Kind
	OrderType  string
	Phase      Phase
	ReturnCode string
	ReportText string

	// Payload holds the offending raw response of a deserialization error
	Payload []byte

	Err error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	b.WriteString(" error")
	if e.OrderType != "" {
		fmt.Fprintf(&b, " in %s", e.OrderType)
	}
	if e.Phase != "" {
		fmt.Fprintf(&b, " (%s)", e.Phase)
	}
	if e.ReturnCode != "" {
		fmt.Fprintf(&b, ": %s", e.ReturnCode)
		if e.ReportText != "" {
			fmt.Fprintf(&b, " %s", e.ReportText)
		}
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the kind of the first *Error in err's chain, or "" if none
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err carries an *Error of the given kind
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// wrap returns err unchanged if it already is an engine error
func wrap(kind Kind, orderType string, phase Phase, err error) *Error {
	var existing *Error
	if errors.As(err, &existing) {
		return existing
	}
	return &Error{Kind: kind, OrderType: orderType, Phase: phase, Err: err}
}

// NewConstructionError wraps a failure while composing a request
func NewConstructionError(orderType string, phase Phase, err error) error {
	return wrap(KindConstruction, orderType, phase, err)
}

// NewDeserializationError wraps a failure while interpreting a response,
// keeping the raw payload for diagnosis.
func NewDeserializationError(orderType string, phase Phase, payload []byte, err error) error {
	e := wrap(KindDeserialization, orderType, phase, err)
	if e.Kind == KindDeserialization && e.Payload == nil {
		e.Payload = payload
	}
	return e
}

// NewTransportError wraps a failure of the transport collaborator
func NewTransportError(orderType string, phase Phase, err error) error {
	return wrap(KindTransport, orderType, phase, err)
}

// NewResponseError converts an interpreted error response into an error
// of kind Protocol or RecoverySync. It returns nil for a successful response.
func NewResponseError(orderType string, resp *Response) error {
	switch {
	case resp == nil:
		return nil
	case resp.IsRecoverySync:
		return &Error{
			Kind:       KindRecoverySync,
			OrderType:  orderType,
			Phase:      resp.Phase,
			ReturnCode: resp.ReturnCode,
			ReportText: resp.ReportText,
		}
	case resp.HasError:
		return &Error{
			Kind:       KindProtocol,
			OrderType:  orderType,
			Phase:      resp.Phase,
			ReturnCode: resp.ReturnCode,
			ReportText: resp.ReportText,
		}
	}
	return nil
}
