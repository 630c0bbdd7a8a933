package native

// Listener event types.
const (
	ListenerEventNewConnection uint32 = 0
)

// Connection event types.
const (
	ConnectionEventConnected         uint32 = 0
	ConnectionEventShutdownBegin     uint32 = 1
	ConnectionEventShutdownBeginPeer uint32 = 2
	ConnectionEventShutdownComplete  uint32 = 3
	ConnectionEventLocalAddrChanged  uint32 = 4
	ConnectionEventPeerAddrChanged   uint32 = 5
	ConnectionEventNewStream         uint32 = 6
	ConnectionEventStreamsAvailable  uint32 = 7
	ConnectionEventPeerNeedsStreams  uint32 = 8
	ConnectionEventIdealSendBuffer   uint32 = 9
)

// Stream event types.
const (
	StreamEventStartComplete        uint32 = 0
	StreamEventReceive              uint32 = 1
	StreamEventSendComplete         uint32 = 2
	StreamEventPeerSendShutdown     uint32 = 3
	StreamEventPeerSendAborted      uint32 = 4
	StreamEventPeerReceiveAborted   uint32 = 5
	StreamEventSendShutdownComplete uint32 = 6
	StreamEventShutdownComplete     uint32 = 7
	StreamEventIdealSendBufferSize  uint32 = 8
)

// ParamLevel is QUIC_PARAM_LEVEL.
type ParamLevel uint32

const (
	ParamLevelGlobal       ParamLevel = 0
	ParamLevelRegistration ParamLevel = 1
	ParamLevelSession      ParamLevel = 2
	ParamLevelListener     ParamLevel = 3
	ParamLevelConnection   ParamLevel = 4
	ParamLevelTLS          ParamLevel = 5
	ParamLevelStream       ParamLevel = 6
)

// Session parameters.
const (
	ParamSessionTLSTicketKey         uint32 = 0
	ParamSessionPeerBidiStreamCount  uint32 = 1 // uint16
	ParamSessionPeerUnidiStreamCount uint32 = 2 // uint16
	ParamSessionIdleTimeout          uint32 = 3 // uint64, milliseconds
	ParamSessionDisconnectTimeout    uint32 = 4 // uint32, milliseconds
	ParamSessionMaxBytesPerKey       uint32 = 5 // uint64
)

// Connection parameters.
const (
	ParamConnQUICVersion     uint32 = 0  // uint32
	ParamConnLocalAddress    uint32 = 1  // Addr
	ParamConnRemoteAddress   uint32 = 2  // Addr
	ParamConnIdleTimeout     uint32 = 3  // uint64, milliseconds
	ParamConnPeerBidiCount   uint32 = 4  // uint16
	ParamConnPeerUnidiCount  uint32 = 5  // uint16
	ParamConnLocalBidiCount  uint32 = 6  // uint16
	ParamConnLocalUnidiCount uint32 = 7  // uint16
	ParamConnSecConfig       uint32 = 14 // pointer
)

// Stream parameters.
const (
	ParamStreamID          uint32 = 0 // uint64
	ParamStream0RTTLength  uint32 = 1 // uint64
	ParamStreamIdealBuffer uint32 = 2 // uint64
)

// Security configuration flags.
const (
	SecConfigFlagNone          uint32 = 0x00000000
	SecConfigFlagCertHash      uint32 = 0x00000001
	SecConfigFlagCertHashStore uint32 = 0x00000002
	SecConfigFlagCertContext   uint32 = 0x00000004
	SecConfigFlagCertFile      uint32 = 0x00000008
	SecConfigFlagEnableOCSP    uint32 = 0x00000010
	SecConfigFlagCertNull      uint32 = 0xF0000000
)
