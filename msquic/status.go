package msquic

import (
	"fmt"
	"strconv"

	"github.com/OkutaniDaichi0106/gomsquic/msquic/internal/native"
)

// Status is a raw QUIC_STATUS value. Its meaning depends on the platform Family.
type Status = native.Status

// Family is the platform family of the native library.
type Family = native.Family

const (
	FamilyPOSIX   = native.FamilyPOSIX
	FamilyWindows = native.FamilyWindows
)

// hostFamily is chosen once, at process start.
var hostFamily = native.DetectFamily()

// HostFamily returns the status family of the running platform.
func HostFamily() Family {
	return hostFamily
}

// Code is the platform independent classification of a Status.
type Code uint8

const (
	CodeUnknown Code = iota
	CodeSuccess
	CodePending
	CodeContinue
	CodeOutOfMemory
	CodeInvalidParameter
	CodeInvalidState
	CodeNotSupported
	CodeNotFound
	CodeBufferTooSmall
	CodeHandshakeFailure
	CodeAborted
	CodeAddressInUse
	CodeConnectionTimeout
	CodeConnectionIdle
	CodeInternalError
	CodeServerBusy
	CodeProtocolError
	CodeVerNegError
)

var codeNames = [...]string{
	CodeUnknown:           "UNKNOWN",
	CodeSuccess:           "SUCCESS",
	CodePending:           "PENDING",
	CodeContinue:          "CONTINUE",
	CodeOutOfMemory:       "OUT_OF_MEMORY",
	CodeInvalidParameter:  "INVALID_PARAMETER",
	CodeInvalidState:      "INVALID_STATE",
	CodeNotSupported:      "NOT_SUPPORTED",
	CodeNotFound:          "NOT_FOUND",
	CodeBufferTooSmall:    "BUFFER_TOO_SMALL",
	CodeHandshakeFailure:  "HANDSHAKE_FAILURE",
	CodeAborted:           "ABORTED",
	CodeAddressInUse:      "ADDRESS_IN_USE",
	CodeConnectionTimeout: "CONNECTION_TIMEOUT",
	CodeConnectionIdle:    "CONNECTION_IDLE",
	CodeInternalError:     "INTERNAL_ERROR",
	CodeServerBusy:        "SERVER_BUSY",
	CodeProtocolError:     "PROTOCOL_ERROR",
	CodeVerNegError:       "VER_NEG_ERROR",
}

func (c Code) String() string {
	if int(c) < len(codeNames) {
		return codeNames[c]
	}
	return "Code(" + strconv.Itoa(int(c)) + ")"
}

var statusTables = map[Family]map[Code]Status{
	FamilyWindows: {
		CodeSuccess:           0x00000000,
		CodePending:           0x000703E5,
		CodeContinue:          0x000704DE,
		CodeOutOfMemory:       0x8007000E,
		CodeInvalidParameter:  0x80070057,
		CodeInvalidState:      0x8007139F,
		CodeNotSupported:      0x80004002,
		CodeNotFound:          0x80070490,
		CodeBufferTooSmall:    0x8007007A,
		CodeHandshakeFailure:  0x80410000,
		CodeAborted:           0x80004004,
		CodeAddressInUse:      0x80072740,
		CodeConnectionTimeout: 0x800704CF,
		CodeConnectionIdle:    0x800704D4,
		CodeInternalError:     0x80004005,
		CodeServerBusy:        0x800704C9,
		CodeProtocolError:     0x800704CD,
		CodeVerNegError:       0x80410001,
	},
	FamilyPOSIX: {
		CodeSuccess:           0,
		CodePending:           0xFFFFFFFE, // -2
		CodeContinue:          0xFFFFFFFF, // -1
		CodeOutOfMemory:       12,         // ENOMEM
		CodeInvalidParameter:  22,         // EINVAL
		CodeInvalidState:      200000002,
		CodeNotSupported:      95, // EOPNOTSUPP
		CodeNotFound:          2,  // ENOENT
		CodeBufferTooSmall:    75, // EOVERFLOW
		CodeHandshakeFailure:  200000009,
		CodeAborted:           200000008,
		CodeAddressInUse:      98,  // EADDRINUSE
		CodeConnectionTimeout: 110, // ETIMEDOUT
		CodeConnectionIdle:    200000011,
		CodeInternalError:     200000012,
		CodeServerBusy:        200000007,
		CodeProtocolError:     200000013,
		CodeVerNegError:       200000014,
	},
}

var decodeTables = func() map[Family]map[Status]Code {
	out := make(map[Family]map[Status]Code, len(statusTables))
	for f, table := range statusTables {
		rev := make(map[Status]Code, len(table))
		for c, s := range table {
			rev[s] = c
		}
		out[f] = rev
	}
	return out
}()

// Decode classifies s for family f. Unknown values return CodeUnknown.
func Decode(f Family, s Status) Code {
	return decodeTables[f][s]
}

// Encode returns the raw status for c in family f.
func Encode(f Family, c Code) (Status, bool) {
	s, ok := statusTables[f][c]
	return s, ok
}

// StatusName returns the symbolic name of s, or its numeric value when the
// family does not define it.
func StatusName(f Family, s Status) string {
	if c := Decode(f, s); c != CodeUnknown {
		return c.String()
	}
	if f == FamilyWindows {
		return fmt.Sprintf("0x%08X", uint32(s))
	}
	return strconv.Itoa(int(int32(s)))
}

// Succeeded reports whether s is a success or progress status in family f.
func Succeeded(f Family, s Status) bool {
	return f.Succeeded(s)
}
