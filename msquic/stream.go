package msquic

import (
	"encoding/binary"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/OkutaniDaichi0106/gomsquic/msquic/internal/native"
)

// StreamCallback handles stream events. It runs on a native thread.
//
// A callback handling a ReceiveEvent may return ErrPending to keep the data
// and acknowledge it later with Stream.ReceiveComplete.
type StreamCallback func(s *Stream, ev StreamEvent) error

// Stream is a QUIC stream.
type Stream struct {
	object
	conn *Connection

	callback    StreamCallback
	callbackSet atomic.Bool

	mu    sync.Mutex
	sends map[uintptr]*pendingSend
}

// pendingSend keeps the buffers of a send pinned until SEND_COMPLETE.
type pendingSend struct {
	future *Future[struct{}]
	bufs   []native.Buffer
	pinner runtime.Pinner
}

func newStream(c *Connection, h native.Handle, owned bool) *Stream {
	s := &Stream{
		conn:  c,
		sends: make(map[uintptr]*pendingSend),
	}
	s.init(c.reg, owned, c.logger)
	s.handle.Store(uintptr(h))
	return s
}

// Connection returns the connection the stream belongs to.
func (s *Stream) Connection() *Connection {
	return s.conn
}

// SetCallback installs the event callback of a peer opened stream. It can be
// set only once.
func (s *Stream) SetCallback(cb StreamCallback) error {
	if cb == nil {
		return ErrNoCallback
	}
	h, err := s.live()
	if err != nil {
		return err
	}
	if !s.callbackSet.CompareAndSwap(false, true) {
		return ErrCallbackAlreadySet
	}
	s.callback = cb

	token := s.attach(s)
	s.reg.api.SetCallbackHandler(h, native.HandlerStream, token)
	return nil
}

// Start makes a locally opened stream usable. With StreamStartFlagAsync the
// outcome is reported by a StartCompleteEvent.
func (s *Stream) Start(flags StreamStartFlags) error {
	h, err := s.live()
	if err != nil {
		return err
	}
	return s.reg.check(s.reg.api.StreamStart(h, uint32(flags)), "stream start")
}

// ID returns the QUIC stream ID. It is assigned once the stream starts.
func (s *Stream) ID() (StreamID, error) {
	h, err := s.live()
	if err != nil {
		return 0, err
	}
	value := make([]byte, 8)
	if _, status := s.reg.api.GetParam(h, native.ParamLevelStream, native.ParamStreamID, value); !s.reg.family.Succeeded(status) {
		return 0, newStatusError(s.reg.family, status, "get stream id")
	}
	return StreamID(binary.NativeEndian.Uint64(value)), nil
}

// SendAsync queues bufs for sending. token correlates the send with its
// SendCompleteEvent and must be unique among the stream's outstanding sends.
// The buffers must not be modified until the returned future settles; it
// fails with ABORTED if the send is canceled and with ErrClosed if the stream
// is closed first.
func (s *Stream) SendAsync(token uintptr, flags SendFlags, bufs ...[]byte) (*Future[struct{}], error) {
	h, err := s.live()
	if err != nil {
		return nil, err
	}
	if s.token.Load() == 0 {
		return nil, s.reg.localError(CodeInvalidState, "stream send: no callback")
	}

	ps := &pendingSend{
		future: newFuture[struct{}](),
		bufs:   make([]native.Buffer, 0, len(bufs)),
	}
	for _, b := range bufs {
		if len(b) == 0 {
			continue
		}
		ps.pinner.Pin(&b[0])
		ps.bufs = append(ps.bufs, native.NewBuffer(b))
	}
	if len(ps.bufs) > 0 {
		ps.pinner.Pin(&ps.bufs[0])
	}

	s.mu.Lock()
	if _, dup := s.sends[token]; dup {
		s.mu.Unlock()
		ps.pinner.Unpin()
		return nil, s.reg.localError(CodeInvalidParameter, "stream send: token in use")
	}
	// Close sets closed before it takes mu, so a send registered here is
	// always seen by Close.
	if s.closed.Load() {
		s.mu.Unlock()
		ps.pinner.Unpin()
		return nil, ErrClosed
	}
	s.sends[token] = ps
	s.mu.Unlock()

	// The completion may run on another thread before StreamSend returns.
	status := s.reg.api.StreamSend(h, ps.bufs, uint32(flags), token)
	if err := s.reg.check(status, "stream send"); err != nil {
		if s.forget(token, ps) {
			ps.pinner.Unpin()
		}
		return nil, err
	}
	return ps.future, nil
}

// forget removes ps from the outstanding sends. It reports false if ps was
// already removed. The last send of a closed stream releases its token.
func (s *Stream) forget(token uintptr, ps *pendingSend) bool {
	s.mu.Lock()
	found := s.sends[token] == ps
	if found {
		delete(s.sends, token)
	}
	drained := len(s.sends) == 0
	s.mu.Unlock()

	if drained && s.closed.Load() {
		s.detach()
	}
	return found
}

func (s *Stream) completeSend(token uintptr, canceled bool) {
	s.mu.Lock()
	ps, ok := s.sends[token]
	s.mu.Unlock()
	if !ok || !s.forget(token, ps) {
		return
	}

	ps.pinner.Unpin()
	if canceled {
		ps.future.fail(s.reg.localError(CodeAborted, "send canceled"))
		return
	}
	ps.future.resolve(struct{}{})
}

// ReceiveComplete acknowledges n bytes of data kept by returning ErrPending.
func (s *Stream) ReceiveComplete(n uint64) error {
	h, err := s.live()
	if err != nil {
		return err
	}
	return s.reg.check(s.reg.api.StreamReceiveComplete(h, n), "stream receive complete")
}

// EnableReceive resumes delivery of ReceiveEvents.
func (s *Stream) EnableReceive() error {
	return s.setReceiveEnabled(true)
}

// DisableReceive pauses delivery of ReceiveEvents.
func (s *Stream) DisableReceive() error {
	return s.setReceiveEnabled(false)
}

func (s *Stream) setReceiveEnabled(enabled bool) error {
	h, err := s.live()
	if err != nil {
		return err
	}
	return s.reg.check(s.reg.api.StreamReceiveSetEnabled(h, enabled), "stream receive set enabled")
}

// Shutdown shuts down one or both directions of the stream.
func (s *Stream) Shutdown(flags StreamShutdownFlags, code StreamErrorCode) error {
	h, err := s.live()
	if err != nil {
		return err
	}
	if err := checkErrorCode(s.reg, uint64(code)); err != nil {
		return err
	}
	return s.reg.check(s.reg.api.StreamShutdown(h, uint32(flags), uint64(code)), "stream shutdown")
}

// Close closes the stream. Closing an owning stream releases the native
// handle and fails outstanding sends with ErrClosed.
//
// A non-owning stream stops delivering events to its callback. The library
// still holds the buffers of its outstanding sends, so their futures settle
// on SendCompleteEvent as usual and the stream leaves the dispatch table once
// the last one completes or the stream shuts down. Later calls do nothing.
func (s *Stream) Close() error {
	if !s.owned {
		s.closeBorrowed()
		return nil
	}
	if !s.dispose(s.reg.api.StreamClose) {
		return nil
	}

	n := s.failSends(ErrClosed)
	if s.logger != nil {
		s.logger.Debug("closed stream", "owned", true, "pending_sends", n)
	}
	return nil
}

func (s *Stream) closeBorrowed() {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}
	s.handle.Store(0)

	s.mu.Lock()
	pending := len(s.sends)
	s.mu.Unlock()
	if pending == 0 {
		s.detach()
	}

	if s.logger != nil {
		s.logger.Debug("closed stream", "owned", false, "pending_sends", pending)
	}
}

// failSends settles every outstanding send with err and returns how many
// there were.
func (s *Stream) failSends(err error) int {
	s.mu.Lock()
	sends := s.sends
	s.sends = make(map[uintptr]*pendingSend)
	s.mu.Unlock()

	for _, ps := range sends {
		ps.pinner.Unpin()
		ps.future.fail(err)
	}
	return len(sends)
}

// drainEvent handles an event of a closed non-owning stream.
func (s *Stream) drainEvent(raw *native.StreamEvent) native.Status {
	switch raw.Type {
	case native.StreamEventSendComplete:
		sc := raw.SendComplete()
		s.completeSend(sc.ClientContext, sc.Canceled != 0)
	case native.StreamEventShutdownComplete:
		s.failSends(s.reg.localError(CodeAborted, "stream shut down"))
		s.detach()
	}
	return s.reg.status(CodeSuccess)
}

func (s *Stream) handleEvent(raw *native.StreamEvent) (status native.Status) {
	defer s.reg.recoverCallback("stream", s.logger, &status)

	if s.closed.Load() {
		return s.drainEvent(raw)
	}

	switch raw.Type {
	case native.StreamEventReceive:
		rcv := raw.Receive()
		ev := &ReceiveEvent{
			AbsoluteOffset:    rcv.AbsoluteOffset,
			TotalBufferLength: rcv.TotalBufferLength,
			Flags:             ReceiveFlags(rcv.Flags),
			bufs:              rcv.BufferSlice(),
		}
		defer ev.invalidate()
		return s.reg.callbackStatus(s.callback(s, ev), s.logger)
	case native.StreamEventSendComplete:
		sc := raw.SendComplete()
		ev := &SendCompleteEvent{Token: sc.ClientContext, Canceled: sc.Canceled != 0}
		s.completeSend(ev.Token, ev.Canceled)
		return s.reg.callbackStatus(s.callback(s, ev), s.logger)
	}

	ev := s.decodeEvent(raw)
	if ev == nil {
		return s.reg.status(CodeSuccess)
	}
	return s.reg.callbackStatus(s.callback(s, ev), s.logger)
}

func (s *Stream) decodeEvent(raw *native.StreamEvent) StreamEvent {
	switch raw.Type {
	case native.StreamEventStartComplete:
		sc := raw.StartComplete()
		ev := &StartCompleteEvent{Status: sc.Status, ID: StreamID(sc.ID)}
		if !s.reg.family.Succeeded(sc.Status) {
			ev.Err = newStatusError(s.reg.family, sc.Status, "stream start")
		}
		return ev
	case native.StreamEventPeerSendShutdown:
		return &PeerSendShutdownEvent{}
	case native.StreamEventPeerSendAborted:
		return &PeerSendAbortedEvent{ErrorCode: StreamErrorCode(raw.Abort().ErrorCode)}
	case native.StreamEventPeerReceiveAborted:
		return &PeerReceiveAbortedEvent{ErrorCode: StreamErrorCode(raw.Abort().ErrorCode)}
	case native.StreamEventSendShutdownComplete:
		return &SendShutdownCompleteEvent{Graceful: raw.SendShutdownComplete().Graceful != 0}
	case native.StreamEventShutdownComplete:
		return &StreamShutdownCompleteEvent{}
	case native.StreamEventIdealSendBufferSize:
		return &IdealSendBufferSizeEvent{ByteCount: raw.IdealSendBufferSize().ByteCount}
	default:
		if s.logger != nil {
			s.logger.Debug("ignored unknown stream event", "type", raw.Type)
		}
		return nil
	}
}
