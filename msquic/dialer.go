package msquic

import (
	"context"
	"net"
	"strconv"
)

// ConnectionFactory establishes client connections.
type ConnectionFactory interface {
	Connect(ctx context.Context, addr string) (*Connection, error)
}

var _ ConnectionFactory = (*Dialer)(nil)

// Dialer opens client connections on a Session.
type Dialer struct {
	Session *Session

	// Callback, if set, receives every event of the connection, including
	// those delivered while Connect is waiting.
	Callback ConnectionCallback
}

// Connect opens a connection to addr ("host:port") and waits until the
// handshake completes. If ctx is done first, the connection is shut down
// silently and closed.
func (d *Dialer) Connect(ctx context.Context, addr string) (*Connection, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, err
	}
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return nil, err
	}

	connected := newFuture[struct{}]()
	cb := func(c *Connection, ev ConnectionEvent) error {
		switch e := ev.(type) {
		case *ConnectedEvent:
			connected.resolve(struct{}{})
		case *ShutdownBeginEvent:
			connected.fail(e.Err)
		case *ShutdownBeginPeerEvent:
			connected.fail(&ApplicationError{Remote: true, ErrorCode: e.ErrorCode})
		case *ShutdownCompleteEvent:
			if e.TimedOut {
				connected.fail(c.reg.localError(CodeConnectionTimeout, "connect"))
			} else {
				connected.fail(c.reg.localError(CodeAborted, "connect"))
			}
		}
		if d.Callback != nil {
			return d.Callback(c, ev)
		}
		return nil
	}

	conn, err := d.Session.OpenConnection(cb)
	if err != nil {
		return nil, err
	}
	if err := conn.Start(host, uint16(port)); err != nil {
		conn.Close()
		return nil, err
	}

	if _, err := connected.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			conn.Shutdown(ConnectionShutdownFlagSilent, 0)
		}
		conn.Close()
		if conn.logger != nil {
			conn.logger.Error("failed to connect", "address", addr, "error", err.Error())
		}
		return nil, err
	}
	return conn, nil
}
