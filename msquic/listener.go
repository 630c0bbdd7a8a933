package msquic

import (
	"net/netip"

	"github.com/OkutaniDaichi0106/gomsquic/msquic/internal/native"
)

// ListenerCallback handles listener events. It runs on a native thread.
type ListenerCallback func(l *Listener, ev ListenerEvent) error

// Listener accepts inbound connections for a Session.
type Listener struct {
	object
	session  *Session
	callback ListenerCallback
}

// OpenListener opens a listener whose events are delivered to cb.
func (s *Session) OpenListener(cb ListenerCallback) (*Listener, error) {
	if cb == nil {
		return nil, ErrNoCallback
	}
	sh, err := s.live()
	if err != nil {
		return nil, err
	}

	l := &Listener{session: s, callback: cb}
	l.init(s.reg, true, s.logger)

	token := l.attach(l)
	h, status := s.reg.api.ListenerOpen(sh, token)
	if err := s.reg.check(status, "listener open"); err != nil {
		l.detach()
		return nil, err
	}
	l.handle.Store(uintptr(h))
	return l, nil
}

// Start begins accepting connections on addr. An unspecified address with a
// zero port lets the library choose.
func (l *Listener) Start(addr netip.AddrPort) error {
	h, err := l.live()
	if err != nil {
		return err
	}

	local := native.EncodeAddr(addr)
	if err := l.reg.check(l.reg.api.ListenerStart(h, &local), "listener start"); err != nil {
		if l.logger != nil {
			l.logger.Error("failed to start listener",
				"address", addr.String(),
				"error", err.Error(),
			)
		}
		return err
	}

	if l.logger != nil {
		l.logger.Info("listener started", "address", addr.String())
	}
	return nil
}

// Stop stops accepting connections. Established connections are unaffected.
func (l *Listener) Stop() {
	if h, err := l.live(); err == nil {
		l.reg.api.ListenerStop(h)
	}
}

// Close closes the listener. Later calls do nothing.
func (l *Listener) Close() error {
	if l.dispose(l.reg.api.ListenerClose) && l.logger != nil {
		l.logger.Debug("closed listener")
	}
	return nil
}

func (l *Listener) handleEvent(raw *native.ListenerEvent) (status native.Status) {
	defer l.reg.recoverCallback("listener", l.logger, &status)

	switch raw.Type {
	case native.ListenerEventNewConnection:
		nc := &raw.NewConnection
		ev := &NewConnectionEvent{
			Info:       decodeNewConnectionInfo(nc.Info),
			Connection: newConnection(l.session, nc.Connection, false),
		}

		if l.logger != nil {
			l.logger.Debug("new connection",
				"connection_id", ev.Connection.ID(),
				"remote_address", ev.Info.RemoteAddr.String(),
				"server_name", ev.Info.ServerName,
			)
		}

		err := l.callback(l, ev)
		if err == nil && ev.SecurityConfig != nil {
			nc.SecurityConfig = native.Handle(ev.SecurityConfig.Handle())
		}
		if err != nil {
			// The library closes rejected connections itself.
			ev.Connection.Close()
		}
		return l.reg.callbackStatus(err, l.logger)
	default:
		return l.reg.status(CodeSuccess)
	}
}
