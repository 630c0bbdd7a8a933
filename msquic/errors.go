package msquic

import (
	"errors"

	"github.com/quic-go/quic-go"
)

// StatusError is returned when the native library reports a failure status.
type StatusError struct {
	Status  Status
	Code    Code
	Name    string
	Message string
	Err     error
}

func newStatusError(f Family, s Status, msg string) *StatusError {
	return &StatusError{
		Status:  s,
		Code:    Decode(f, s),
		Name:    StatusName(f, s),
		Message: msg,
	}
}

func (e *StatusError) Error() string {
	text := "msquic: "
	if e.Message != "" {
		text += e.Message + ": "
	}
	text += e.Name
	if e.Err != nil {
		text += ": " + e.Err.Error()
	}
	return text
}

func (e *StatusError) Unwrap() error { return e.Err }

// Is matches another *StatusError with the same Code, or the same raw Status
// when neither code is known.
func (e *StatusError) Is(target error) bool {
	t, ok := target.(*StatusError)
	if !ok {
		return false
	}
	if t.Code != CodeUnknown || e.Code != CodeUnknown {
		return t.Code == e.Code
	}
	return t.Status == e.Status
}

func codeError(c Code) *StatusError {
	return &StatusError{Code: c, Name: c.String()}
}

// Sentinels for errors.Is. They carry no raw Status.
var (
	ErrOutOfMemory        = codeError(CodeOutOfMemory)
	ErrInvalidParameter   = codeError(CodeInvalidParameter)
	ErrInvalidState       = codeError(CodeInvalidState)
	ErrNotSupported       = codeError(CodeNotSupported)
	ErrNotFound           = codeError(CodeNotFound)
	ErrBufferTooSmall     = codeError(CodeBufferTooSmall)
	ErrHandshakeFailure   = codeError(CodeHandshakeFailure)
	ErrAborted            = codeError(CodeAborted)
	ErrAddressInUse       = codeError(CodeAddressInUse)
	ErrConnectionTimeout  = codeError(CodeConnectionTimeout)
	ErrConnectionIdle     = codeError(CodeConnectionIdle)
	ErrInternal           = codeError(CodeInternalError)
	ErrServerBusy         = codeError(CodeServerBusy)
	ErrProtocol           = codeError(CodeProtocolError)
	ErrVersionNegotiation = codeError(CodeVerNegError)

	// ErrPending, returned from a stream receive callback, tells the library
	// the data will be consumed later with Stream.ReceiveComplete.
	ErrPending = codeError(CodePending)
)

var (
	// ErrClosed is returned by operations on a closed object, and fails
	// sends still outstanding when their owning stream is closed.
	ErrClosed = errors.New("msquic: use of closed object")

	ErrCallbackAlreadySet = errors.New("msquic: callback already set")
	ErrNoCallback         = errors.New("msquic: callback is nil")
)

// InitializationError is returned by Open when the library cannot be loaded
// or the registration cannot be opened.
type InitializationError struct {
	Op  string
	Err error
}

func (e *InitializationError) Error() string {
	return "msquic: initialization failed: " + e.Op + ": " + e.Err.Error()
}

func (e *InitializationError) Unwrap() error { return e.Err }

// ApplicationError reports a connection closed by the peer with an
// application error code.
type ApplicationError = quic.ApplicationError

// StreamError reports a stream aborted with an application error code.
type StreamError = quic.StreamError

// QUIC wire values, shared with quic-go.
type (
	ApplicationErrorCode = quic.ApplicationErrorCode
	StreamErrorCode      = quic.StreamErrorCode
	StreamID             = quic.StreamID
	Version              = quic.Version
)
