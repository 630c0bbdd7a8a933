package native

import "unsafe"

// Handle is an HQUIC: an opaque pointer sized value owned by the native library.
type Handle uintptr

// Status is a raw QUIC_STATUS value.
type Status uint32

// APIVersion is the version passed to MsQuicOpen.
const APIVersion = 1

// Buffer mirrors QUIC_BUFFER.
type Buffer struct {
	Length uint32
	Buffer *byte
}

// Bytes returns the memory referenced by b. The slice aliases native memory.
func (b *Buffer) Bytes() []byte {
	if b.Buffer == nil || b.Length == 0 {
		return nil
	}
	return unsafe.Slice(b.Buffer, b.Length)
}

// NewBuffer returns a descriptor over p. The caller keeps p reachable and pinned.
func NewBuffer(p []byte) Buffer {
	if len(p) == 0 {
		return Buffer{}
	}
	return Buffer{Length: uint32(len(p)), Buffer: &p[0]}
}

// RegistrationConfig mirrors QUIC_REGISTRATION_CONFIG.
type RegistrationConfig struct {
	AppName          *byte
	ExecutionProfile uint32
}

// CertificateHash mirrors QUIC_CERTIFICATE_HASH.
type CertificateHash struct {
	ShaHash [20]byte
}

// CertificateHashStore mirrors QUIC_CERTIFICATE_HASH_STORE.
type CertificateHashStore struct {
	Flags     uint32
	ShaHash   [20]byte
	StoreName [128]byte
}

// CertificateFile mirrors QUIC_CERTIFICATE_FILE.
type CertificateFile struct {
	PrivateKeyFile  *byte
	CertificateFile *byte
}

// NewConnectionInfo mirrors QUIC_NEW_CONNECTION_INFO.
type NewConnectionInfo struct {
	QUICVersion        uint32
	LocalAddress       *Addr
	RemoteAddress      *Addr
	CryptoBufferLength uint16
	ALPNListLength     uint16
	ServerNameLength   uint16
	CryptoBuffer       *byte
	ALPNList           *byte
	ServerName         *byte
}

// ListenerEvent mirrors QUIC_LISTENER_EVENT. NEW_CONNECTION is its only variant.
type ListenerEvent struct {
	Type          uint32
	NewConnection ListenerNewConnection
}

// ListenerNewConnection is the NEW_CONNECTION payload. SecurityConfig is an
// out parameter written by the application to accept the connection.
type ListenerNewConnection struct {
	Info           *NewConnectionInfo
	Connection     Handle
	SecurityConfig Handle
}

// ConnectionEvent mirrors QUIC_CONNECTION_EVENT. All payload variants start at
// the same offset; read only the one matching Type.
type ConnectionEvent struct {
	Type    uint32
	payload [2]uint64
}

type ConnectionConnected struct {
	EarlyDataAccepted uint8
}

type ConnectionShutdownBegin struct {
	Status Status
}

type ConnectionShutdownBeginPeer struct {
	ErrorCode uint64
}

type ConnectionShutdownComplete struct {
	TimedOut uint8
}

type ConnectionAddrChanged struct {
	Address *Addr
}

type ConnectionNewStream struct {
	Stream Handle
	Flags  uint32
}

type ConnectionStreamsAvailable struct {
	BidirectionalCount  uint16
	UnidirectionalCount uint16
}

type ConnectionIdealSendBuffer struct {
	NumBytes uint64
}

func (e *ConnectionEvent) Connected() *ConnectionConnected {
	return (*ConnectionConnected)(unsafe.Pointer(&e.payload))
}

func (e *ConnectionEvent) ShutdownBegin() *ConnectionShutdownBegin {
	return (*ConnectionShutdownBegin)(unsafe.Pointer(&e.payload))
}

func (e *ConnectionEvent) ShutdownBeginPeer() *ConnectionShutdownBeginPeer {
	return (*ConnectionShutdownBeginPeer)(unsafe.Pointer(&e.payload))
}

func (e *ConnectionEvent) ShutdownComplete() *ConnectionShutdownComplete {
	return (*ConnectionShutdownComplete)(unsafe.Pointer(&e.payload))
}

func (e *ConnectionEvent) AddrChanged() *ConnectionAddrChanged {
	return (*ConnectionAddrChanged)(unsafe.Pointer(&e.payload))
}

func (e *ConnectionEvent) NewStream() *ConnectionNewStream {
	return (*ConnectionNewStream)(unsafe.Pointer(&e.payload))
}

func (e *ConnectionEvent) StreamsAvailable() *ConnectionStreamsAvailable {
	return (*ConnectionStreamsAvailable)(unsafe.Pointer(&e.payload))
}

func (e *ConnectionEvent) IdealSendBuffer() *ConnectionIdealSendBuffer {
	return (*ConnectionIdealSendBuffer)(unsafe.Pointer(&e.payload))
}

// StreamEvent mirrors QUIC_STREAM_EVENT.
type StreamEvent struct {
	Type    uint32
	payload [4]uint64
}

type StreamStartComplete struct {
	Status Status
	ID     uint64
}

type StreamReceive struct {
	AbsoluteOffset    uint64
	TotalBufferLength uint64
	Buffers           *Buffer
	BufferCount       uint32
	Flags             uint32
}

// BufferSlice returns the receive buffers. They are only valid during the callback.
func (r *StreamReceive) BufferSlice() []Buffer {
	if r.Buffers == nil || r.BufferCount == 0 {
		return nil
	}
	return unsafe.Slice(r.Buffers, r.BufferCount)
}

type StreamSendComplete struct {
	Canceled      uint8
	ClientContext uintptr
}

type StreamAbort struct {
	ErrorCode uint64
}

type StreamSendShutdownComplete struct {
	Graceful uint8
}

type StreamIdealSendBufferSize struct {
	ByteCount uint64
}

func (e *StreamEvent) StartComplete() *StreamStartComplete {
	return (*StreamStartComplete)(unsafe.Pointer(&e.payload))
}

func (e *StreamEvent) Receive() *StreamReceive {
	return (*StreamReceive)(unsafe.Pointer(&e.payload))
}

func (e *StreamEvent) SendComplete() *StreamSendComplete {
	return (*StreamSendComplete)(unsafe.Pointer(&e.payload))
}

// Abort returns the payload of PEER_SEND_ABORTED and PEER_RECEIVE_ABORTED.
func (e *StreamEvent) Abort() *StreamAbort {
	return (*StreamAbort)(unsafe.Pointer(&e.payload))
}

func (e *StreamEvent) SendShutdownComplete() *StreamSendShutdownComplete {
	return (*StreamSendShutdownComplete)(unsafe.Pointer(&e.payload))
}

func (e *StreamEvent) IdealSendBufferSize() *StreamIdealSendBufferSize {
	return (*StreamIdealSendBufferSize)(unsafe.Pointer(&e.payload))
}
