package msquic

import (
	"net/netip"
	"unsafe"

	"github.com/OkutaniDaichi0106/gomsquic/msquic/internal/native"
)

// ListenerEvent is implemented by the events delivered to a ListenerCallback.
type ListenerEvent interface {
	listenerEvent()
}

// NewConnectionInfo describes an inbound connection attempt.
type NewConnectionInfo struct {
	Version    Version
	LocalAddr  netip.AddrPort
	RemoteAddr netip.AddrPort
	ServerName string
	ALPNs      []string

	// CryptoBuffer is a copy of the client's initial crypto data.
	CryptoBuffer []byte
}

// NewConnectionEvent reports an inbound connection. The callback accepts it
// by setting SecurityConfig and installing a callback on Connection.
// Connection is non-owning.
type NewConnectionEvent struct {
	Info           NewConnectionInfo
	Connection     *Connection
	SecurityConfig *SecurityConfig
}

func (*NewConnectionEvent) listenerEvent() {}

// ConnectionEvent is implemented by the events delivered to a ConnectionCallback.
type ConnectionEvent interface {
	connectionEvent()
}

// ConnectedEvent reports a completed handshake.
type ConnectedEvent struct {
	EarlyDataAccepted bool
}

// ShutdownBeginEvent reports a shutdown initiated by the transport.
type ShutdownBeginEvent struct {
	Status Status
	Err    *StatusError
}

// ShutdownBeginPeerEvent reports a shutdown initiated by the peer.
type ShutdownBeginPeerEvent struct {
	ErrorCode ApplicationErrorCode
}

// ShutdownCompleteEvent is the last event of a connection. TimedOut is set
// when the connection ended because the peer stopped responding.
type ShutdownCompleteEvent struct {
	TimedOut bool
}

// LocalAddrChangedEvent reports a new local address after migration or rebinding.
type LocalAddrChangedEvent struct {
	Addr netip.AddrPort
}

// PeerAddrChangedEvent reports that the peer moved to Addr.
type PeerAddrChangedEvent struct {
	Addr netip.AddrPort
}

// NewStreamEvent reports a stream opened by the peer. Stream is non-owning;
// install its callback before returning.
type NewStreamEvent struct {
	Stream *Stream
	Flags  StreamOpenFlags
}

// StreamsAvailableEvent reports how many streams the peer currently allows
// the connection to open.
type StreamsAvailableEvent struct {
	Bidirectional  uint16
	Unidirectional uint16
}

// PeerNeedsStreamsEvent reports that the peer is blocked on the stream limit.
type PeerNeedsStreamsEvent struct{}

// IdealSendBufferEvent reports the amount of data worth keeping queued on
// the connection.
type IdealSendBufferEvent struct {
	NumBytes uint64
}

func (*ConnectedEvent) connectionEvent()         {}
func (*ShutdownBeginEvent) connectionEvent()     {}
func (*ShutdownBeginPeerEvent) connectionEvent() {}
func (*ShutdownCompleteEvent) connectionEvent()  {}
func (*LocalAddrChangedEvent) connectionEvent()  {}
func (*PeerAddrChangedEvent) connectionEvent()   {}
func (*NewStreamEvent) connectionEvent()         {}
func (*StreamsAvailableEvent) connectionEvent()  {}
func (*PeerNeedsStreamsEvent) connectionEvent()  {}
func (*IdealSendBufferEvent) connectionEvent()   {}

// StreamEvent is implemented by the events delivered to a StreamCallback.
type StreamEvent interface {
	streamEvent()
}

// StartCompleteEvent reports the outcome of Stream.Start. Err is set when it
// failed; ID is valid otherwise.
type StartCompleteEvent struct {
	Status Status
	Err    *StatusError
	ID     StreamID
}

// ReceiveEvent carries received data. The data is only readable while the
// callback runs; copy it out with CopyTo or Bytes.
type ReceiveEvent struct {
	AbsoluteOffset    uint64
	TotalBufferLength uint64
	Flags             ReceiveFlags

	bufs []native.Buffer
}

// CopyTo copies received data into dst and returns the number of bytes copied.
// It returns 0 once the callback has returned.
func (e *ReceiveEvent) CopyTo(dst []byte) int {
	n := 0
	for i := range e.bufs {
		if n == len(dst) {
			break
		}
		n += copy(dst[n:], e.bufs[i].Bytes())
	}
	return n
}

// Bytes returns a copy of all received data.
func (e *ReceiveEvent) Bytes() []byte {
	size := 0
	for i := range e.bufs {
		size += int(e.bufs[i].Length)
	}
	out := make([]byte, size)
	e.CopyTo(out)
	return out
}

// FIN reports whether the peer finished sending.
func (e *ReceiveEvent) FIN() bool {
	return e.Flags&ReceiveFlagFIN != 0
}

func (e *ReceiveEvent) invalidate() {
	e.bufs = nil
}

// SendCompleteEvent reports that the library released the buffers of a send.
type SendCompleteEvent struct {
	Token    uintptr
	Canceled bool
}

// PeerSendShutdownEvent reports that the peer finished its send direction.
type PeerSendShutdownEvent struct{}

// PeerSendAbortedEvent reports that the peer aborted its send direction.
type PeerSendAbortedEvent struct {
	ErrorCode StreamErrorCode
}

// PeerReceiveAbortedEvent reports that the peer stopped reading.
type PeerReceiveAbortedEvent struct {
	ErrorCode StreamErrorCode
}

// SendShutdownCompleteEvent reports that the local send direction is closed.
type SendShutdownCompleteEvent struct {
	Graceful bool
}

// StreamShutdownCompleteEvent is the last event of a stream.
type StreamShutdownCompleteEvent struct{}

// IdealSendBufferSizeEvent reports the amount of data worth keeping queued
// on the stream.
type IdealSendBufferSizeEvent struct {
	ByteCount uint64
}

func (*StartCompleteEvent) streamEvent()          {}
func (*ReceiveEvent) streamEvent()                {}
func (*SendCompleteEvent) streamEvent()           {}
func (*PeerSendShutdownEvent) streamEvent()       {}
func (*PeerSendAbortedEvent) streamEvent()        {}
func (*PeerReceiveAbortedEvent) streamEvent()     {}
func (*SendShutdownCompleteEvent) streamEvent()   {}
func (*StreamShutdownCompleteEvent) streamEvent() {}
func (*IdealSendBufferSizeEvent) streamEvent()    {}

// nativeBytes copies n bytes of native memory starting at p.
func nativeBytes(p *byte, n int) []byte {
	if p == nil || n == 0 {
		return nil
	}
	return append([]byte(nil), unsafe.Slice(p, n)...)
}

// parseALPNList splits a TLS ALPN extension body: a sequence of
// length-prefixed protocol names. A truncated entry ends the list.
func parseALPNList(b []byte) []string {
	var out []string
	for len(b) > 0 {
		n := int(b[0])
		if n == 0 || len(b) < 1+n {
			break
		}
		out = append(out, string(b[1:1+n]))
		b = b[1+n:]
	}
	return out
}

func decodeAddr(a *native.Addr) netip.AddrPort {
	if a == nil {
		return netip.AddrPort{}
	}
	addr, err := native.DecodeAddr(a)
	if err != nil {
		return netip.AddrPort{}
	}
	return addr
}

func decodeNewConnectionInfo(info *native.NewConnectionInfo) NewConnectionInfo {
	if info == nil {
		return NewConnectionInfo{}
	}
	return NewConnectionInfo{
		Version:      Version(info.QUICVersion),
		LocalAddr:    decodeAddr(info.LocalAddress),
		RemoteAddr:   decodeAddr(info.RemoteAddress),
		ServerName:   string(nativeBytes(info.ServerName, int(info.ServerNameLength))),
		ALPNs:        parseALPNList(nativeBytes(info.ALPNList, int(info.ALPNListLength))),
		CryptoBuffer: nativeBytes(info.CryptoBuffer, int(info.CryptoBufferLength)),
	}
}
