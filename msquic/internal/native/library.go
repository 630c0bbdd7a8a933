package native

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"unsafe"
)

// OpenError reports that MsQuicOpen returned a failure status.
type OpenError struct {
	Status Status
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("native: MsQuicOpen failed with status %#x", uint32(e.Status))
}

// caller invokes a C function pointer with the platform C calling convention.
type caller func(fn uintptr, args ...uintptr) uintptr

type trampolines struct {
	listener   uintptr
	connection uintptr
	stream     uintptr
	secConfig  uintptr
}

func (t trampolines) handler(kind HandlerKind) uintptr {
	switch kind {
	case HandlerListener:
		return t.listener
	case HandlerConnection:
		return t.connection
	default:
		return t.stream
	}
}

// Callback trampolines are limited in number by the Go runtime, so they are
// created once per process and always call the latest installed Callbacks.
var (
	trampolineOnce sync.Once
	trampolineSet  trampolines
	callbacks      atomic.Pointer[Callbacks]
)

func installCallbacks(cb Callbacks, newCallback func(fn any) uintptr) trampolines {
	callbacks.Store(&cb)
	trampolineOnce.Do(func() {
		trampolineSet = trampolines{
			listener: newCallback(func(h, ctx, ev uintptr) uintptr {
				return uintptr(callbacks.Load().Listener(Handle(h), ctx, (*ListenerEvent)(unsafe.Pointer(ev))))
			}),
			connection: newCallback(func(h, ctx, ev uintptr) uintptr {
				return uintptr(callbacks.Load().Connection(Handle(h), ctx, (*ConnectionEvent)(unsafe.Pointer(ev))))
			}),
			stream: newCallback(func(h, ctx, ev uintptr) uintptr {
				return uintptr(callbacks.Load().Stream(Handle(h), ctx, (*StreamEvent)(unsafe.Pointer(ev))))
			}),
			secConfig: newCallback(func(ctx, status, secConfig uintptr) uintptr {
				callbacks.Load().SecConfigCreateComplete(ctx, Status(uint32(status)), Handle(secConfig))
				return 0
			}),
		}
	})
	return trampolineSet
}

// Library is the API implementation backed by a loaded msquic shared library.
// The table is copied once at load and never written again.
type Library struct {
	family   Family
	table    Table
	api      uintptr
	closeFn  uintptr
	call     caller
	handlers trampolines
	unload   func()
	closed   atomic.Bool
}

var _ API = (*Library)(nil)

func open(family Family, openFn, closeFn uintptr, call caller, cb Callbacks, newCallback func(any) uintptr, unload func()) (*Library, error) {
	var p runtime.Pinner
	defer p.Unpin()

	api := new(uintptr)
	st := Status(uint32(call(openFn, APIVersion, pin(&p, api))))
	if !family.Succeeded(st) {
		return nil, &OpenError{Status: st}
	}
	if *api == 0 {
		return nil, errors.New("native: MsQuicOpen returned a nil table")
	}

	l := &Library{
		family:  family,
		table:   *(*Table)(unsafe.Pointer(*api)),
		api:     *api,
		closeFn: closeFn,
		call:    call,
		unload:  unload,
	}
	if err := l.table.validate(); err != nil {
		call(closeFn, l.api)
		return nil, err
	}
	l.handlers = installCallbacks(cb, newCallback)
	return l, nil
}

// pin pins v for the lifetime of p and returns its address.
func pin[T any](p *runtime.Pinner, v *T) uintptr {
	if v == nil {
		return 0
	}
	p.Pin(v)
	return uintptr(unsafe.Pointer(v))
}

// cstring returns s as a NUL terminated byte slice.
func cstring(s string) []byte {
	b := make([]byte, len(s)+1)
	copy(b, s)
	return b
}

func boolArg(b bool) uintptr {
	if b {
		return 1
	}
	return 0
}

func (l *Library) status(r uintptr) Status {
	return Status(uint32(r))
}

func (l *Library) Family() Family {
	return l.family
}

func (l *Library) Close() {
	if !l.closed.CompareAndSwap(false, true) {
		return
	}
	l.call(l.closeFn, l.api)
	if l.unload != nil {
		l.unload()
	}
}

func (l *Library) SetContext(h Handle, ctx uintptr) {
	l.call(l.table.SetContext, uintptr(h), ctx)
}

func (l *Library) GetContext(h Handle) uintptr {
	return l.call(l.table.GetContext, uintptr(h))
}

func (l *Library) SetCallbackHandler(h Handle, kind HandlerKind, ctx uintptr) {
	l.call(l.table.SetCallbackHandler, uintptr(h), l.handlers.handler(kind), ctx)
}

func (l *Library) SetParam(h Handle, level ParamLevel, param uint32, buf []byte) Status {
	var p runtime.Pinner
	defer p.Unpin()

	var ptr uintptr
	if len(buf) > 0 {
		ptr = pin(&p, &buf[0])
	}
	return l.status(l.call(l.table.SetParam, uintptr(h), uintptr(level), uintptr(param), uintptr(len(buf)), ptr))
}

func (l *Library) GetParam(h Handle, level ParamLevel, param uint32, buf []byte) (uint32, Status) {
	var p runtime.Pinner
	defer p.Unpin()

	n := new(uint32)
	*n = uint32(len(buf))
	var ptr uintptr
	if len(buf) > 0 {
		ptr = pin(&p, &buf[0])
	}
	st := l.status(l.call(l.table.GetParam, uintptr(h), uintptr(level), uintptr(param), pin(&p, n), ptr))
	return *n, st
}

func (l *Library) RegistrationOpen(appName string, profile uint32) (Handle, Status) {
	var p runtime.Pinner
	defer p.Unpin()

	name := cstring(appName)
	cfg := &RegistrationConfig{AppName: &name[0], ExecutionProfile: profile}
	p.Pin(&name[0])
	h := new(Handle)
	st := l.status(l.call(l.table.RegistrationOpen, pin(&p, cfg), pin(&p, h)))
	return *h, st
}

func (l *Library) RegistrationClose(h Handle) {
	l.call(l.table.RegistrationClose, uintptr(h))
}

func (l *Library) SecConfigCreate(reg Handle, flags uint32, cert unsafe.Pointer, principal string, ctx uintptr) Status {
	var p runtime.Pinner
	defer p.Unpin()

	var principalPtr uintptr
	if principal != "" {
		b := cstring(principal)
		principalPtr = pin(&p, &b[0])
	}
	return l.status(l.call(l.table.SecConfigCreate, uintptr(reg), uintptr(flags), uintptr(cert), principalPtr, ctx, l.handlers.secConfig))
}

func (l *Library) SecConfigDelete(h Handle) {
	l.call(l.table.SecConfigDelete, uintptr(h))
}

func (l *Library) SessionOpen(reg Handle, alpn []byte, ctx uintptr) (Handle, Status) {
	var p runtime.Pinner
	defer p.Unpin()

	var alpnPtr uintptr
	if len(alpn) > 0 {
		alpnPtr = pin(&p, &alpn[0])
	}
	h := new(Handle)
	st := l.status(l.call(l.table.SessionOpen, uintptr(reg), alpnPtr, ctx, pin(&p, h)))
	return *h, st
}

func (l *Library) SessionClose(h Handle) {
	l.call(l.table.SessionClose, uintptr(h))
}

func (l *Library) SessionShutdown(h Handle, flags uint32, errorCode uint64) {
	l.call(l.table.SessionShutdown, uintptr(h), uintptr(flags), uintptr(errorCode))
}

func (l *Library) ListenerOpen(session Handle, ctx uintptr) (Handle, Status) {
	var p runtime.Pinner
	defer p.Unpin()

	h := new(Handle)
	st := l.status(l.call(l.table.ListenerOpen, uintptr(session), l.handlers.listener, ctx, pin(&p, h)))
	return *h, st
}

func (l *Library) ListenerClose(h Handle) {
	l.call(l.table.ListenerClose, uintptr(h))
}

func (l *Library) ListenerStart(h Handle, addr *Addr) Status {
	var p runtime.Pinner
	defer p.Unpin()

	return l.status(l.call(l.table.ListenerStart, uintptr(h), pin(&p, addr)))
}

func (l *Library) ListenerStop(h Handle) {
	l.call(l.table.ListenerStop, uintptr(h))
}

func (l *Library) ConnectionOpen(session Handle, ctx uintptr) (Handle, Status) {
	var p runtime.Pinner
	defer p.Unpin()

	h := new(Handle)
	st := l.status(l.call(l.table.ConnectionOpen, uintptr(session), l.handlers.connection, ctx, pin(&p, h)))
	return *h, st
}

func (l *Library) ConnectionClose(h Handle) {
	l.call(l.table.ConnectionClose, uintptr(h))
}

func (l *Library) ConnectionShutdown(h Handle, flags uint32, errorCode uint64) {
	l.call(l.table.ConnectionShutdown, uintptr(h), uintptr(flags), uintptr(errorCode))
}

func (l *Library) ConnectionStart(h Handle, family uint16, serverName string, port uint16) Status {
	var p runtime.Pinner
	defer p.Unpin()

	var namePtr uintptr
	if serverName != "" {
		b := cstring(serverName)
		namePtr = pin(&p, &b[0])
	}
	return l.status(l.call(l.table.ConnectionStart, uintptr(h), uintptr(family), namePtr, uintptr(port)))
}

func (l *Library) StreamOpen(conn Handle, flags uint32, ctx uintptr) (Handle, Status) {
	var p runtime.Pinner
	defer p.Unpin()

	h := new(Handle)
	st := l.status(l.call(l.table.StreamOpen, uintptr(conn), uintptr(flags), l.handlers.stream, ctx, pin(&p, h)))
	return *h, st
}

func (l *Library) StreamClose(h Handle) {
	l.call(l.table.StreamClose, uintptr(h))
}

func (l *Library) StreamStart(h Handle, flags uint32) Status {
	return l.status(l.call(l.table.StreamStart, uintptr(h), uintptr(flags)))
}

func (l *Library) StreamShutdown(h Handle, flags uint32, errorCode uint64) Status {
	return l.status(l.call(l.table.StreamShutdown, uintptr(h), uintptr(flags), uintptr(errorCode)))
}

func (l *Library) StreamSend(h Handle, bufs []Buffer, flags uint32, ctx uintptr) Status {
	var ptr uintptr
	if len(bufs) > 0 {
		ptr = uintptr(unsafe.Pointer(&bufs[0]))
	}
	st := l.status(l.call(l.table.StreamSend, uintptr(h), ptr, uintptr(len(bufs)), uintptr(flags), ctx))
	runtime.KeepAlive(bufs)
	return st
}

func (l *Library) StreamReceiveComplete(h Handle, length uint64) Status {
	return l.status(l.call(l.table.StreamReceiveComplete, uintptr(h), uintptr(length)))
}

func (l *Library) StreamReceiveSetEnabled(h Handle, enabled bool) Status {
	return l.status(l.call(l.table.StreamReceiveSetEnabled, uintptr(h), boolArg(enabled)))
}
