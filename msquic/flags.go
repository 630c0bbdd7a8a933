package msquic

import "github.com/OkutaniDaichi0106/gomsquic/msquic/internal/native"

// Handle is an opaque native object handle.
type Handle = native.Handle

// ExecutionProfile selects how the registration schedules its worker threads.
type ExecutionProfile uint32

const (
	ExecutionProfileLowLatency    ExecutionProfile = 0
	ExecutionProfileMaxThroughput ExecutionProfile = 1
	ExecutionProfileScavenger     ExecutionProfile = 2
	ExecutionProfileRealTime      ExecutionProfile = 3
)

// ConnectionShutdownFlags controls Connection.Shutdown and Session.Shutdown.
// A silent shutdown sends nothing to the peer.
type ConnectionShutdownFlags uint32

const (
	ConnectionShutdownFlagNone   ConnectionShutdownFlags = 0
	ConnectionShutdownFlagSilent ConnectionShutdownFlags = 1
)

// StreamOpenFlags selects the kind of stream opened by Connection.OpenStream.
type StreamOpenFlags uint32

const (
	StreamOpenFlagNone           StreamOpenFlags = 0
	StreamOpenFlagUnidirectional StreamOpenFlags = 1
	StreamOpenFlag0RTT           StreamOpenFlags = 2
)

// StreamStartFlags controls Stream.Start.
type StreamStartFlags uint32

const (
	StreamStartFlagNone        StreamStartFlags = 0
	StreamStartFlagFailBlocked StreamStartFlags = 1
	StreamStartFlagImmediate   StreamStartFlags = 2
	StreamStartFlagAsync       StreamStartFlags = 4
)

// StreamShutdownFlags selects the directions closed by Stream.Shutdown.
type StreamShutdownFlags uint32

const (
	StreamShutdownFlagNone         StreamShutdownFlags = 0
	StreamShutdownFlagGraceful     StreamShutdownFlags = 1
	StreamShutdownFlagAbortSend    StreamShutdownFlags = 2
	StreamShutdownFlagAbortReceive StreamShutdownFlags = 4
	StreamShutdownFlagAbort        StreamShutdownFlags = 6
	StreamShutdownFlagImmediate    StreamShutdownFlags = 8
)

// SendFlags controls Stream.SendAsync. SendFlagFIN ends the send direction
// after the data.
type SendFlags uint32

const (
	SendFlagNone      SendFlags = 0
	SendFlagAllow0RTT SendFlags = 1
	SendFlagFIN       SendFlags = 2
)

// ReceiveFlags describes the data of a ReceiveEvent.
type ReceiveFlags uint32

const (
	ReceiveFlagNone ReceiveFlags = 0
	ReceiveFlag0RTT ReceiveFlags = 1
	ReceiveFlagFIN  ReceiveFlags = 2
)

// ParamLevel selects the object class a parameter applies to.
type ParamLevel = native.ParamLevel

const (
	ParamLevelGlobal       = native.ParamLevelGlobal
	ParamLevelRegistration = native.ParamLevelRegistration
	ParamLevelSession      = native.ParamLevelSession
	ParamLevelListener     = native.ParamLevelListener
	ParamLevelConnection   = native.ParamLevelConnection
	ParamLevelTLS          = native.ParamLevelTLS
	ParamLevelStream       = native.ParamLevelStream
)
