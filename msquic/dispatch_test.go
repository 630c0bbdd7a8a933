package msquic

import (
	"net/netip"
	"testing"
	"testing/quick"

	"github.com/OkutaniDaichi0106/gomsquic/msquic/internal/native"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestDispatch_UnknownToken(t *testing.T) {
	const token = ^uintptr(0) - 1

	assert.Equal(t, statusSuccess, dispatchListenerEvent(testListenerHandle, token, &native.ListenerEvent{}))
	assert.Equal(t, statusSuccess, dispatchConnectionEvent(testConnectionHandle, token, &native.ConnectionEvent{}))
	assert.Equal(t, statusSuccess, dispatchStreamEvent(testStreamHandle, token, &native.StreamEvent{}))
}

func TestDispatch_WrongObjectKind(t *testing.T) {
	token := handles.register("not a listener")
	defer handles.release(token)

	assert.Equal(t, statusSuccess, dispatchListenerEvent(testListenerHandle, token, &native.ListenerEvent{}))
	assert.Equal(t, statusSuccess, dispatchStreamEvent(testStreamHandle, token, &native.StreamEvent{}))
}

func TestDispatch_PanicContainment(t *testing.T) {
	tests := map[string]func(t *testing.T, reg *Registration, m *MockNative) native.Status{
		"listener": func(t *testing.T, reg *Registration, m *MockNative) native.Status {
			m.On("SessionOpen", testRegistrationHandle, mock.Anything, uintptr(0)).Return(testSessionHandle, native.Status(0))
			m.On("ListenerOpen", testSessionHandle, mock.Anything).Return(testListenerHandle, native.Status(0))

			s, err := reg.OpenSession("test")
			require.NoError(t, err)
			closeAtCleanup(t, s, m)
			l, err := s.OpenListener(func(*Listener, ListenerEvent) error { panic("listener boom") })
			require.NoError(t, err)

			return dispatchListenerEvent(testListenerHandle, l.token.Load(), newConnectionEvent(netip.MustParseAddrPort("10.0.0.1:1")))
		},
		"connection": func(t *testing.T, reg *Registration, m *MockNative) native.Status {
			m.On("SessionOpen", testRegistrationHandle, mock.Anything, uintptr(0)).Return(testSessionHandle, native.Status(0))
			m.On("ConnectionOpen", testSessionHandle, mock.Anything).Return(testConnectionHandle, native.Status(0))

			s, err := reg.OpenSession("test")
			require.NoError(t, err)
			closeAtCleanup(t, s, m)
			c, err := s.OpenConnection(func(*Connection, ConnectionEvent) error { panic("connection boom") })
			require.NoError(t, err)

			return dispatchConnectionEvent(testConnectionHandle, c.token.Load(), &native.ConnectionEvent{Type: native.ConnectionEventConnected})
		},
		"stream": func(t *testing.T, reg *Registration, m *MockNative) native.Status {
			m.On("SessionOpen", testRegistrationHandle, mock.Anything, uintptr(0)).Return(testSessionHandle, native.Status(0))
			m.On("ConnectionOpen", testSessionHandle, mock.Anything).Return(testConnectionHandle, native.Status(0))
			m.On("StreamOpen", testConnectionHandle, uint32(0), mock.Anything).Return(testStreamHandle, native.Status(0))

			s, err := reg.OpenSession("test")
			require.NoError(t, err)
			closeAtCleanup(t, s, m)
			c, err := s.OpenConnection(func(*Connection, ConnectionEvent) error { return nil })
			require.NoError(t, err)
			st, err := c.OpenStream(StreamOpenFlagNone, func(*Stream, StreamEvent) error { panic(assert.AnError) })
			require.NoError(t, err)

			return dispatchStreamEvent(testStreamHandle, st.token.Load(), &native.StreamEvent{Type: native.StreamEventPeerSendShutdown})
		},
	}

	for name, run := range tests {
		t.Run(name, func(t *testing.T) {
			logger, logs := newCapturingLogger()
			reg, m := newTestRegistration(t, FamilyWindows, logger)

			var status native.Status
			require.NotPanics(t, func() {
				status = run(t, reg, m)
			})
			assert.Equal(t, CodeInternalError, Decode(FamilyWindows, status))
			assert.Contains(t, logs.String(), "recovered panic in event callback")
		})
	}
}

// Disposal is idempotent for every owning and non-owning object, and only
// an owning object ever closes its native handle.
func TestObject_DisposeProperty(t *testing.T) {
	property := func(owned bool, closes uint8) bool {
		closes = closes%5 + 1

		var calls int
		var o object
		o.init(nil, owned, nil)
		o.handle.Store(uintptr(testStreamHandle))
		o.attach(&o)
		before := handles.len()

		for range closes {
			o.dispose(func(native.Handle) { calls++ })
		}

		expect := 0
		if owned {
			expect = 1
		}
		return calls == expect &&
			o.Handle() == 0 &&
			handles.len() == before-1
	}

	require.NoError(t, quick.Check(property, nil))
}

// Closing any wrapper any number of times closes the native handle at most
// once, never for a non-owning wrapper, and always leaves the dispatch table.
func TestWrappers_CloseProperty(t *testing.T) {
	kinds := []string{"listener", "connection", "stream"}

	property := func(kind uint8, owned bool, closes uint8) bool {
		closes = closes%5 + 1
		reg, m := newTestRegistration(t, FamilyPOSIX, nil)

		var calls int
		count := func(mock.Arguments) { calls++ }
		m.On("ListenerClose", testListenerHandle).Run(count).Return().Maybe()
		m.On("ConnectionClose", testConnectionHandle).Run(count).Return().Maybe()
		m.On("StreamClose", testStreamHandle).Run(count).Return().Maybe()

		s := &Session{reg: reg}
		c := newConnection(s, testConnectionHandle, true)

		var closer interface {
			Close() error
			Handle() Handle
		}
		var token uintptr
		switch kinds[int(kind)%len(kinds)] {
		case "listener":
			l := &Listener{session: s}
			l.init(reg, owned, nil)
			l.handle.Store(uintptr(testListenerHandle))
			token = l.attach(l)
			closer = l
		case "connection":
			c = newConnection(s, testConnectionHandle, owned)
			token = c.attach(c)
			closer = c
		case "stream":
			st := newStream(c, testStreamHandle, owned)
			token = st.attach(st)
			closer = st
		}

		for range closes {
			if closer.Close() != nil {
				return false
			}
		}

		expect := 0
		if owned {
			expect = 1
		}
		_, registered := handles.lookup(token)
		return calls == expect && closer.Handle() == 0 && !registered
	}

	require.NoError(t, quick.Check(property, nil))
}

func TestObject_LiveAfterDispose(t *testing.T) {
	var o object
	o.init(nil, true, nil)
	o.handle.Store(uintptr(testListenerHandle))

	h, err := o.live()
	require.NoError(t, err)
	assert.Equal(t, testListenerHandle, h)

	o.dispose(func(native.Handle) {})
	_, err = o.live()
	assert.ErrorIs(t, err, ErrClosed)
}
