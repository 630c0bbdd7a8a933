package native

import "unsafe"

// RegistrationAPI groups the library wide and registration entry points.
type RegistrationAPI interface {
	// Family reports the platform family the library was built for.
	Family() Family

	SetContext(h Handle, ctx uintptr)
	GetContext(h Handle) uintptr
	SetCallbackHandler(h Handle, kind HandlerKind, ctx uintptr)
	SetParam(h Handle, level ParamLevel, param uint32, buf []byte) Status
	GetParam(h Handle, level ParamLevel, param uint32, buf []byte) (uint32, Status)

	RegistrationOpen(appName string, profile uint32) (Handle, Status)
	RegistrationClose(h Handle)

	// Close releases the API table (MsQuicClose) and unloads the library.
	Close()
}

// SecurityAPI groups the security configuration entry points.
type SecurityAPI interface {
	// SecConfigCreate submits an asynchronous creation. The result is delivered
	// to Callbacks.SecConfigCreateComplete with ctx.
	SecConfigCreate(reg Handle, flags uint32, cert unsafe.Pointer, principal string, ctx uintptr) Status
	SecConfigDelete(h Handle)
}

// SessionAPI groups the session entry points.
type SessionAPI interface {
	// SessionOpen opens a session. alpn must be NUL terminated and stay valid
	// until SessionClose returns.
	SessionOpen(reg Handle, alpn []byte, ctx uintptr) (Handle, Status)
	SessionClose(h Handle)
	SessionShutdown(h Handle, flags uint32, errorCode uint64)
}

// ListenerAPI groups the listener entry points.
type ListenerAPI interface {
	ListenerOpen(session Handle, ctx uintptr) (Handle, Status)
	ListenerClose(h Handle)
	ListenerStart(h Handle, addr *Addr) Status
	ListenerStop(h Handle)
}

// ConnectionAPI groups the connection entry points.
type ConnectionAPI interface {
	ConnectionOpen(session Handle, ctx uintptr) (Handle, Status)
	ConnectionClose(h Handle)
	ConnectionShutdown(h Handle, flags uint32, errorCode uint64)
	ConnectionStart(h Handle, family uint16, serverName string, port uint16) Status
}

// StreamAPI groups the stream entry points.
type StreamAPI interface {
	StreamOpen(conn Handle, flags uint32, ctx uintptr) (Handle, Status)
	StreamClose(h Handle)
	StreamStart(h Handle, flags uint32) Status
	StreamShutdown(h Handle, flags uint32, errorCode uint64) Status
	// StreamSend queues bufs. The descriptors and the memory they reference
	// must stay valid and pinned until the matching SEND_COMPLETE event.
	StreamSend(h Handle, bufs []Buffer, flags uint32, ctx uintptr) Status
	StreamReceiveComplete(h Handle, length uint64) Status
	StreamReceiveSetEnabled(h Handle, enabled bool) Status
}

// API is the complete function table.
type API interface {
	RegistrationAPI
	SecurityAPI
	SessionAPI
	ListenerAPI
	ConnectionAPI
	StreamAPI
}

// HandlerKind selects the callback trampoline installed by SetCallbackHandler.
type HandlerKind uint8

const (
	HandlerListener HandlerKind = iota
	HandlerConnection
	HandlerStream
)

// Callbacks are the Go entry points called from the native trampolines.
// They run on native threads and must never panic.
type Callbacks struct {
	Listener                func(h Handle, ctx uintptr, ev *ListenerEvent) Status
	Connection              func(h Handle, ctx uintptr, ev *ConnectionEvent) Status
	Stream                  func(h Handle, ctx uintptr, ev *StreamEvent) Status
	SecConfigCreateComplete func(ctx uintptr, status Status, secConfig Handle)
}
