package msquic

import (
	"bytes"
	"log/slog"
	"sync"
	"testing"

	"github.com/OkutaniDaichi0106/gomsquic/msquic/internal/native"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	testRegistrationHandle native.Handle = 0x1000
	testSessionHandle      native.Handle = 0x2000
	testListenerHandle     native.Handle = 0x3000
	testConnectionHandle   native.Handle = 0x4000
	testStreamHandle       native.Handle = 0x5000
	testSecConfigHandle    native.Handle = 0x6000
)

// recordedLogs is a goroutine safe sink for JSON log lines.
type recordedLogs struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (r *recordedLogs) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.buf.Write(p)
}

func (r *recordedLogs) String() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.buf.String()
}

// newCapturingLogger returns a logger that captures all records as JSON lines.
func newCapturingLogger() (*slog.Logger, *recordedLogs) {
	logs := &recordedLogs{}
	handler := slog.NewJSONHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug})
	return slog.New(handler), logs
}

func newTestRegistration(t *testing.T, family Family, logger *slog.Logger) (*Registration, *MockNative) {
	t.Helper()

	m := &MockNative{}
	m.On("Family").Return(family)
	m.On("RegistrationOpen", "gomsquic", uint32(0)).Return(testRegistrationHandle, native.Status(0))

	reg, err := newRegistration(m, &Config{Logger: logger})
	require.NoError(t, err)
	return reg, m
}

func newTestSession(t *testing.T) (*Session, *MockNative) {
	t.Helper()

	reg, m := newTestRegistration(t, FamilyPOSIX, nil)
	m.On("SessionOpen", testRegistrationHandle, mock.Anything, uintptr(0)).Return(testSessionHandle, native.Status(0))

	s, err := reg.OpenSession("test")
	require.NoError(t, err)
	closeAtCleanup(t, s, m)
	return s, m
}

// closeAtCleanup closes s when the test ends so that its pinned ALPN is
// released even if the test never closes it.
func closeAtCleanup(t *testing.T, s *Session, m *MockNative) {
	t.Cleanup(func() {
		m.On("SessionClose", mock.Anything).Return().Maybe()
		s.Close()
	})
}

// eventRecorder collects the events delivered to a callback.
type eventRecorder[E any] struct {
	mu     sync.Mutex
	events []E
	err    error
}

func (r *eventRecorder[E]) record(ev E) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return r.err
}

func (r *eventRecorder[E]) all() []E {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]E(nil), r.events...)
}

func newTestConnection(t *testing.T) (*Connection, *MockNative, *eventRecorder[ConnectionEvent]) {
	t.Helper()

	s, m := newTestSession(t)
	m.On("ConnectionOpen", testSessionHandle, mock.Anything).Return(testConnectionHandle, native.Status(0))

	rec := &eventRecorder[ConnectionEvent]{}
	c, err := s.OpenConnection(func(c *Connection, ev ConnectionEvent) error {
		return rec.record(ev)
	})
	require.NoError(t, err)
	return c, m, rec
}

func newTestStream(t *testing.T) (*Stream, *MockNative, *eventRecorder[StreamEvent]) {
	t.Helper()

	c, m, _ := newTestConnection(t)
	m.On("StreamOpen", testConnectionHandle, uint32(0), mock.Anything).Return(testStreamHandle, native.Status(0))

	rec := &eventRecorder[StreamEvent]{}
	st, err := c.OpenStream(StreamOpenFlagNone, func(s *Stream, ev StreamEvent) error {
		return rec.record(ev)
	})
	require.NoError(t, err)
	return st, m, rec
}

func posixStatus(c Code) native.Status {
	s, _ := Encode(FamilyPOSIX, c)
	return s
}
