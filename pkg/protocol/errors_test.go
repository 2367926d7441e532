package protocol

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_Message(t *testing.T) {
	err := &Error{
		Kind:       KindProtocol,
		OrderType:  "STA",
		Phase:      PhaseInitialisation,
		ReturnCode: CodeNoDownloadDataAvailable,
		ReportText: "[EBICS_NO_DOWNLOAD_DATA_AVAILABLE] no data",
	}
	assert.Equal(t, "protocol error in STA (Initialisation): 090005 [EBICS_NO_DOWNLOAD_DATA_AVAILABLE] no data", err.Error())
}

func TestConstructionError_WrapsCause(t *testing.T) {
	cause := errors.New("invalid amount")
	err := NewConstructionError("CCT", PhaseInitialisation, cause)

	assert.True(t, IsKind(err, KindConstruction))
	assert.ErrorIs(t, err, cause)

	var e *Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, "CCT", e.OrderType)
	assert.Equal(t, PhaseInitialisation, e.Phase)
}

func TestDomainErrorsAreNotRewrapped(t *testing.T) {
	domain := NewResponseError("STA", &Response{HasError: true, ReturnCode: CodeInvalidRequest, Phase: PhaseTransfer})
	wrapped := fmt.Errorf("context: %w", domain)

	err := NewDeserializationError("STA", PhaseTransfer, []byte("<raw/>"), wrapped)
	assert.Equal(t, KindProtocol, KindOf(err))
	assert.Same(t, domain, err)

	err = NewConstructionError("STA", PhaseTransfer, domain)
	assert.Same(t, domain, err)
}

func TestDeserializationError_KeepsPayload(t *testing.T) {
	err := NewDeserializationError("PTK", PhaseInitialisation, []byte("<broken"), errors.New("parse"))

	var e *Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, KindDeserialization, e.Kind)
	assert.Equal(t, []byte("<broken"), e.Payload)
}

func TestNewResponseError(t *testing.T) {
	assert.NoError(t, NewResponseError("STA", &Response{}))
	assert.NoError(t, NewResponseError("STA", nil))

	err := NewResponseError("STA", &Response{IsRecoverySync: true, ReturnCode: CodeRecoverySync})
	assert.True(t, IsKind(err, KindRecoverySync))

	err = NewResponseError("STA", &Response{HasError: true, ReturnCode: CodeInvalidRequest})
	assert.True(t, IsKind(err, KindProtocol))
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
	assert.False(t, IsKind(nil, KindTransport))
	assert.True(t, IsKind(NewTransportError("INI", "", errors.New("dial")), KindTransport))
}
