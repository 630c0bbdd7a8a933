package msquic

import (
	"unsafe"

	"github.com/OkutaniDaichi0106/gomsquic/msquic/internal/native"
	"github.com/stretchr/testify/mock"
)

var _ native.API = (*MockNative)(nil)

// MockNative is a mock implementation of native.API using testify/mock
type MockNative struct {
	mock.Mock
}

func (m *MockNative) Family() native.Family {
	args := m.Called()
	return args.Get(0).(native.Family)
}

func (m *MockNative) SetContext(h native.Handle, ctx uintptr) {
	m.Called(h, ctx)
}

func (m *MockNative) GetContext(h native.Handle) uintptr {
	args := m.Called(h)
	return args.Get(0).(uintptr)
}

func (m *MockNative) SetCallbackHandler(h native.Handle, kind native.HandlerKind, ctx uintptr) {
	m.Called(h, kind, ctx)
}

func (m *MockNative) SetParam(h native.Handle, level native.ParamLevel, param uint32, buf []byte) native.Status {
	args := m.Called(h, level, param, append([]byte(nil), buf...))
	return args.Get(0).(native.Status)
}

func (m *MockNative) GetParam(h native.Handle, level native.ParamLevel, param uint32, buf []byte) (uint32, native.Status) {
	args := m.Called(h, level, param, buf)
	return args.Get(0).(uint32), args.Get(1).(native.Status)
}

func (m *MockNative) RegistrationOpen(appName string, profile uint32) (native.Handle, native.Status) {
	args := m.Called(appName, profile)
	return args.Get(0).(native.Handle), args.Get(1).(native.Status)
}

func (m *MockNative) RegistrationClose(h native.Handle) {
	m.Called(h)
}

func (m *MockNative) Close() {
	m.Called()
}

func (m *MockNative) SecConfigCreate(reg native.Handle, flags uint32, cert unsafe.Pointer, principal string, ctx uintptr) native.Status {
	args := m.Called(reg, flags, cert, principal, ctx)
	return args.Get(0).(native.Status)
}

func (m *MockNative) SecConfigDelete(h native.Handle) {
	m.Called(h)
}

func (m *MockNative) SessionOpen(reg native.Handle, alpn []byte, ctx uintptr) (native.Handle, native.Status) {
	args := m.Called(reg, alpn, ctx)
	return args.Get(0).(native.Handle), args.Get(1).(native.Status)
}

func (m *MockNative) SessionClose(h native.Handle) {
	m.Called(h)
}

func (m *MockNative) SessionShutdown(h native.Handle, flags uint32, errorCode uint64) {
	m.Called(h, flags, errorCode)
}

func (m *MockNative) ListenerOpen(session native.Handle, ctx uintptr) (native.Handle, native.Status) {
	args := m.Called(session, ctx)
	return args.Get(0).(native.Handle), args.Get(1).(native.Status)
}

func (m *MockNative) ListenerClose(h native.Handle) {
	m.Called(h)
}

func (m *MockNative) ListenerStart(h native.Handle, addr *native.Addr) native.Status {
	args := m.Called(h, addr)
	return args.Get(0).(native.Status)
}

func (m *MockNative) ListenerStop(h native.Handle) {
	m.Called(h)
}

func (m *MockNative) ConnectionOpen(session native.Handle, ctx uintptr) (native.Handle, native.Status) {
	args := m.Called(session, ctx)
	return args.Get(0).(native.Handle), args.Get(1).(native.Status)
}

func (m *MockNative) ConnectionClose(h native.Handle) {
	m.Called(h)
}

func (m *MockNative) ConnectionShutdown(h native.Handle, flags uint32, errorCode uint64) {
	m.Called(h, flags, errorCode)
}

func (m *MockNative) ConnectionStart(h native.Handle, family uint16, serverName string, port uint16) native.Status {
	args := m.Called(h, family, serverName, port)
	return args.Get(0).(native.Status)
}

func (m *MockNative) StreamOpen(conn native.Handle, flags uint32, ctx uintptr) (native.Handle, native.Status) {
	args := m.Called(conn, flags, ctx)
	return args.Get(0).(native.Handle), args.Get(1).(native.Status)
}

func (m *MockNative) StreamClose(h native.Handle) {
	m.Called(h)
}

func (m *MockNative) StreamStart(h native.Handle, flags uint32) native.Status {
	args := m.Called(h, flags)
	return args.Get(0).(native.Status)
}

func (m *MockNative) StreamShutdown(h native.Handle, flags uint32, errorCode uint64) native.Status {
	args := m.Called(h, flags, errorCode)
	return args.Get(0).(native.Status)
}

func (m *MockNative) StreamSend(h native.Handle, bufs []native.Buffer, flags uint32, ctx uintptr) native.Status {
	args := m.Called(h, bufs, flags, ctx)
	return args.Get(0).(native.Status)
}

func (m *MockNative) StreamReceiveComplete(h native.Handle, length uint64) native.Status {
	args := m.Called(h, length)
	return args.Get(0).(native.Status)
}

func (m *MockNative) StreamReceiveSetEnabled(h native.Handle, enabled bool) native.Status {
	args := m.Called(h, enabled)
	return args.Get(0).(native.Status)
}
