package msquic

import (
	"encoding/binary"
	"net/netip"
	"sync/atomic"
	"unsafe"

	"github.com/OkutaniDaichi0106/gomsquic/msquic/internal/native"
)

// ConnectionCallback handles connection events. It runs on a native thread.
type ConnectionCallback func(c *Connection, ev ConnectionEvent) error

// Connection is a QUIC connection.
type Connection struct {
	object
	session *Session
	id      string

	callback    ConnectionCallback
	callbackSet atomic.Bool
}

func newConnection(s *Session, h native.Handle, owned bool) *Connection {
	c := &Connection{
		session: s,
		id:      newConnectionID(),
	}
	logger := s.logger
	if logger != nil {
		logger = logger.With("connection_id", c.id)
	}
	c.init(s.reg, owned, logger)
	c.handle.Store(uintptr(h))
	return c
}

// OpenConnection opens a client connection whose events are delivered to cb.
// Call Start to connect.
func (s *Session) OpenConnection(cb ConnectionCallback) (*Connection, error) {
	if cb == nil {
		return nil, ErrNoCallback
	}
	sh, err := s.live()
	if err != nil {
		return nil, err
	}

	c := newConnection(s, 0, true)
	c.callback = cb
	c.callbackSet.Store(true)

	token := c.attach(c)
	h, status := s.reg.api.ConnectionOpen(sh, token)
	if err := s.reg.check(status, "connection open"); err != nil {
		c.detach()
		return nil, err
	}
	c.handle.Store(uintptr(h))
	return c, nil
}

// ID returns the identifier used to correlate the connection's log records.
func (c *Connection) ID() string {
	return c.id
}

// SetCallback installs the event callback of a connection surfaced by a
// listener. It can be set only once.
func (c *Connection) SetCallback(cb ConnectionCallback) error {
	if cb == nil {
		return ErrNoCallback
	}
	h, err := c.live()
	if err != nil {
		return err
	}
	if !c.callbackSet.CompareAndSwap(false, true) {
		return ErrCallbackAlreadySet
	}
	c.callback = cb

	token := c.attach(c)
	c.reg.api.SetCallbackHandler(h, native.HandlerConnection, token)
	return nil
}

// Start connects to serverName on port. The outcome is reported by a
// ConnectedEvent or a shutdown event.
func (c *Connection) Start(serverName string, port uint16) error {
	h, err := c.live()
	if err != nil {
		return err
	}
	status := c.reg.api.ConnectionStart(h, native.AddressFamilyUnspec, serverName, port)
	if err := c.reg.check(status, "connection start"); err != nil {
		if c.logger != nil {
			c.logger.Error("failed to start connection",
				"server_name", serverName,
				"port", port,
				"error", err.Error(),
			)
		}
		return err
	}
	return nil
}

// Shutdown starts closing the connection with an application error code.
func (c *Connection) Shutdown(flags ConnectionShutdownFlags, code ApplicationErrorCode) error {
	h, err := c.live()
	if err != nil {
		return err
	}
	if err := checkErrorCode(c.reg, uint64(code)); err != nil {
		return err
	}
	c.reg.api.ConnectionShutdown(h, uint32(flags), uint64(code))
	return nil
}

// SetSecurityConfig sets the security configuration of the connection.
func (c *Connection) SetSecurityConfig(sc *SecurityConfig) error {
	h, err := c.live()
	if err != nil {
		return err
	}
	if sc == nil || sc.Handle() == 0 {
		return c.reg.localError(CodeInvalidParameter, "set security config: closed config")
	}

	value := make([]byte, unsafe.Sizeof(uintptr(0)))
	*(*uintptr)(unsafe.Pointer(&value[0])) = uintptr(sc.Handle())
	return c.reg.check(c.reg.api.SetParam(h, native.ParamLevelConnection, native.ParamConnSecConfig, value), "set security config")
}

func (c *Connection) addrParam(param uint32, msg string) (netip.AddrPort, error) {
	h, err := c.live()
	if err != nil {
		return netip.AddrPort{}, err
	}
	var addr native.Addr
	if _, status := c.reg.api.GetParam(h, native.ParamLevelConnection, param, addr.Raw()); !c.reg.family.Succeeded(status) {
		return netip.AddrPort{}, newStatusError(c.reg.family, status, msg)
	}
	return native.DecodeAddr(&addr)
}

// LocalAddr returns the local address of the connection.
func (c *Connection) LocalAddr() (netip.AddrPort, error) {
	return c.addrParam(native.ParamConnLocalAddress, "get local address")
}

// RemoteAddr returns the address of the peer.
func (c *Connection) RemoteAddr() (netip.AddrPort, error) {
	return c.addrParam(native.ParamConnRemoteAddress, "get remote address")
}

// QUICVersion returns the negotiated QUIC version.
func (c *Connection) QUICVersion() (Version, error) {
	h, err := c.live()
	if err != nil {
		return 0, err
	}
	value := make([]byte, 4)
	if _, status := c.reg.api.GetParam(h, native.ParamLevelConnection, native.ParamConnQUICVersion, value); !c.reg.family.Succeeded(status) {
		return 0, newStatusError(c.reg.family, status, "get QUIC version")
	}
	return Version(binary.NativeEndian.Uint32(value)), nil
}

// Close closes the connection if it is owning; a non-owning connection only
// stops receiving events. Later calls do nothing.
func (c *Connection) Close() error {
	if c.dispose(c.reg.api.ConnectionClose) && c.logger != nil {
		c.logger.Debug("closed connection", "owned", c.owned)
	}
	return nil
}

// OpenStream opens a local stream whose events are delivered to cb. Call
// Stream.Start to make it visible to the peer.
func (c *Connection) OpenStream(flags StreamOpenFlags, cb StreamCallback) (*Stream, error) {
	if cb == nil {
		return nil, ErrNoCallback
	}
	ch, err := c.live()
	if err != nil {
		return nil, err
	}

	st := newStream(c, 0, true)
	st.callback = cb
	st.callbackSet.Store(true)

	token := st.attach(st)
	h, status := c.reg.api.StreamOpen(ch, uint32(flags), token)
	if err := c.reg.check(status, "stream open"); err != nil {
		st.detach()
		return nil, err
	}
	st.handle.Store(uintptr(h))
	return st, nil
}

func (c *Connection) handleEvent(raw *native.ConnectionEvent) (status native.Status) {
	defer c.reg.recoverCallback("connection", c.logger, &status)

	ev := c.decodeEvent(raw)
	if ev == nil {
		return c.reg.status(CodeSuccess)
	}

	err := c.callback(c, ev)
	if nse, ok := ev.(*NewStreamEvent); ok && err != nil {
		nse.Stream.Close()
	}
	return c.reg.callbackStatus(err, c.logger)
}

func (c *Connection) decodeEvent(raw *native.ConnectionEvent) ConnectionEvent {
	f := c.reg.family

	switch raw.Type {
	case native.ConnectionEventConnected:
		if c.logger != nil {
			c.logger.Info("connection established")
		}
		return &ConnectedEvent{EarlyDataAccepted: raw.Connected().EarlyDataAccepted != 0}
	case native.ConnectionEventShutdownBegin:
		s := raw.ShutdownBegin().Status
		err := newStatusError(f, s, "connection shutdown")
		if c.logger != nil {
			c.logger.Info("connection shutdown by transport", "status", err.Name)
		}
		return &ShutdownBeginEvent{Status: s, Err: err}
	case native.ConnectionEventShutdownBeginPeer:
		code := ApplicationErrorCode(raw.ShutdownBeginPeer().ErrorCode)
		if c.logger != nil {
			c.logger.Info("connection shutdown by peer", "error_code", uint64(code))
		}
		return &ShutdownBeginPeerEvent{ErrorCode: code}
	case native.ConnectionEventShutdownComplete:
		timedOut := raw.ShutdownComplete().TimedOut != 0
		if c.logger != nil {
			c.logger.Debug("connection shutdown complete", "timed_out", timedOut)
		}
		return &ShutdownCompleteEvent{TimedOut: timedOut}
	case native.ConnectionEventLocalAddrChanged:
		return &LocalAddrChangedEvent{Addr: decodeAddr(raw.AddrChanged().Address)}
	case native.ConnectionEventPeerAddrChanged:
		return &PeerAddrChangedEvent{Addr: decodeAddr(raw.AddrChanged().Address)}
	case native.ConnectionEventNewStream:
		ns := raw.NewStream()
		return &NewStreamEvent{
			Stream: newStream(c, ns.Stream, false),
			Flags:  StreamOpenFlags(ns.Flags),
		}
	case native.ConnectionEventStreamsAvailable:
		sa := raw.StreamsAvailable()
		return &StreamsAvailableEvent{
			Bidirectional:  sa.BidirectionalCount,
			Unidirectional: sa.UnidirectionalCount,
		}
	case native.ConnectionEventPeerNeedsStreams:
		return &PeerNeedsStreamsEvent{}
	case native.ConnectionEventIdealSendBuffer:
		return &IdealSendBufferEvent{NumBytes: raw.IdealSendBuffer().NumBytes}
	default:
		if c.logger != nil {
			c.logger.Debug("ignored unknown connection event", "type", raw.Type)
		}
		return nil
	}
}
