package msquic

import (
	"encoding/binary"
	"log/slog"
	"math"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/OkutaniDaichi0106/gomsquic/msquic/internal/native"
	"github.com/quic-go/quic-go/quicvarint"
)

// Session groups listeners and connections sharing one ALPN and one set of
// transport settings. A Session that becomes unreachable without Close is
// closed by a finalizer.
type Session struct {
	reg    *Registration
	handle atomic.Uintptr
	closed atomic.Bool
	logger *slog.Logger

	// alpn is NUL terminated and pinned until Close.
	alpn   []byte
	pinner runtime.Pinner
}

// OpenSession opens a session negotiating alpn.
func (r *Registration) OpenSession(alpn string) (*Session, error) {
	return r.OpenSessionConfig(&SessionConfig{ALPN: alpn})
}

// OpenSessionConfig opens a session and applies the non-zero settings of config.
func (r *Registration) OpenSessionConfig(config *SessionConfig) (*Session, error) {
	if config == nil || config.ALPN == "" {
		return nil, r.localError(CodeInvalidParameter, "session open: empty ALPN")
	}

	s := &Session{
		reg:  r,
		alpn: append([]byte(config.ALPN), 0),
	}
	s.pinner.Pin(&s.alpn[0])

	h, status := r.api.SessionOpen(r.handle, s.alpn, 0)
	if err := r.check(status, "session open"); err != nil {
		s.pinner.Unpin()
		return nil, err
	}
	s.handle.Store(uintptr(h))
	runtime.SetFinalizer(s, (*Session).finalize)

	if r.logger != nil {
		s.logger = r.logger.With("alpn", config.ALPN)
		s.logger.Debug("opened session")
	}

	if err := s.apply(config); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Session) apply(config *SessionConfig) error {
	if config.PeerBidiStreamCount != 0 {
		if err := s.SetPeerBidiStreamCount(config.PeerBidiStreamCount); err != nil {
			return err
		}
	}
	if config.PeerUnidiStreamCount != 0 {
		if err := s.SetPeerUnidiStreamCount(config.PeerUnidiStreamCount); err != nil {
			return err
		}
	}
	if config.IdleTimeout != 0 {
		if err := s.SetIdleTimeout(config.IdleTimeout); err != nil {
			return err
		}
	}
	if config.DisconnectTimeout != 0 {
		if err := s.SetDisconnectTimeout(config.DisconnectTimeout); err != nil {
			return err
		}
	}
	return nil
}

// Handle returns the native handle, or 0 once closed.
func (s *Session) Handle() Handle {
	return Handle(s.handle.Load())
}

func (s *Session) live() (native.Handle, error) {
	h := native.Handle(s.handle.Load())
	if h == 0 || s.closed.Load() {
		return 0, ErrClosed
	}
	return h, nil
}

func (s *Session) setParam(param uint32, value []byte, msg string) error {
	h, err := s.live()
	if err != nil {
		return err
	}
	return s.reg.check(s.reg.api.SetParam(h, native.ParamLevelSession, param, value), msg)
}

// SetPeerBidiStreamCount sets how many bidirectional streams peers may open.
func (s *Session) SetPeerBidiStreamCount(n uint16) error {
	value := binary.NativeEndian.AppendUint16(nil, n)
	return s.setParam(native.ParamSessionPeerBidiStreamCount, value, "set peer bidi stream count")
}

// SetPeerUnidiStreamCount sets how many unidirectional streams peers may open.
func (s *Session) SetPeerUnidiStreamCount(n uint16) error {
	value := binary.NativeEndian.AppendUint16(nil, n)
	return s.setParam(native.ParamSessionPeerUnidiStreamCount, value, "set peer unidi stream count")
}

// SetIdleTimeout sets the connection idle timeout. Zero disables it; other
// values are rounded up to whole milliseconds.
func (s *Session) SetIdleTimeout(d time.Duration) error {
	if d < 0 {
		return s.reg.localError(CodeInvalidParameter, "set idle timeout: negative duration")
	}
	value := binary.NativeEndian.AppendUint64(nil, uint64(ceilMilliseconds(d)))
	return s.setParam(native.ParamSessionIdleTimeout, value, "set idle timeout")
}

// SetDisconnectTimeout sets how long to wait for acknowledgements before
// declaring a path dead, rounded up to whole milliseconds.
func (s *Session) SetDisconnectTimeout(d time.Duration) error {
	if d < 0 {
		return s.reg.localError(CodeInvalidParameter, "set disconnect timeout: out of range")
	}
	ms := ceilMilliseconds(d)
	if ms > math.MaxUint32 {
		return s.reg.localError(CodeInvalidParameter, "set disconnect timeout: out of range")
	}
	value := binary.NativeEndian.AppendUint32(nil, uint32(ms))
	return s.setParam(native.ParamSessionDisconnectTimeout, value, "set disconnect timeout")
}

// Shutdown starts shutting down every connection of the session.
func (s *Session) Shutdown(flags ConnectionShutdownFlags, code ApplicationErrorCode) error {
	h, err := s.live()
	if err != nil {
		return err
	}
	if err := checkErrorCode(s.reg, uint64(code)); err != nil {
		return err
	}
	s.reg.api.SessionShutdown(h, uint32(flags), uint64(code))
	return nil
}

// Close closes the session. Its listeners and connections must be closed first.
func (s *Session) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	runtime.SetFinalizer(s, nil)
	s.release()

	if s.logger != nil {
		s.logger.Debug("closed session")
	}
	return nil
}

func (s *Session) release() {
	if h := native.Handle(s.handle.Swap(0)); h != 0 {
		s.reg.api.SessionClose(h)
	}
	s.pinner.Unpin()
}

// finalize runs when a session is collected without Close. The pinned ALPN
// must be unpinned before the pinner itself is collected.
func (s *Session) finalize() {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}
	if s.reg.logger != nil {
		s.reg.logger.Warn("session collected without Close")
	}
	s.release()
}

// ceilMilliseconds converts a non-negative d to milliseconds so that no
// positive duration becomes 0.
func ceilMilliseconds(d time.Duration) int64 {
	ms := d.Milliseconds()
	if d%time.Millisecond != 0 {
		ms++
	}
	return ms
}

// checkErrorCode rejects codes that do not fit a QUIC variable length integer.
func checkErrorCode(r *Registration, code uint64) error {
	if code > quicvarint.Max {
		return r.localError(CodeInvalidParameter, "error code exceeds 2^62-1")
	}
	return nil
}
