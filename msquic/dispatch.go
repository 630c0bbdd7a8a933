package msquic

import "github.com/OkutaniDaichi0106/gomsquic/msquic/internal/native"

// statusSuccess is 0 in every family.
const statusSuccess native.Status = 0

// dispatchCallbacks receive every native event of the process and route it
// by context token. Events for released tokens are acknowledged and dropped.
var dispatchCallbacks = native.Callbacks{
	Listener:                dispatchListenerEvent,
	Connection:              dispatchConnectionEvent,
	Stream:                  dispatchStreamEvent,
	SecConfigCreateComplete: dispatchSecConfigComplete,
}

func dispatchListenerEvent(_ native.Handle, ctx uintptr, ev *native.ListenerEvent) native.Status {
	v, _ := handles.lookup(ctx)
	l, ok := v.(*Listener)
	if !ok || ev == nil {
		return statusSuccess
	}
	return l.handleEvent(ev)
}

func dispatchConnectionEvent(_ native.Handle, ctx uintptr, ev *native.ConnectionEvent) native.Status {
	v, _ := handles.lookup(ctx)
	c, ok := v.(*Connection)
	if !ok || ev == nil {
		return statusSuccess
	}
	return c.handleEvent(ev)
}

func dispatchStreamEvent(_ native.Handle, ctx uintptr, ev *native.StreamEvent) native.Status {
	v, _ := handles.lookup(ctx)
	s, ok := v.(*Stream)
	if !ok || ev == nil {
		return statusSuccess
	}
	return s.handleEvent(ev)
}

func dispatchSecConfigComplete(ctx uintptr, status native.Status, h native.Handle) {
	v, _ := handles.take(ctx)
	p, ok := v.(*pendingSecurityConfig)
	if !ok {
		return
	}
	p.complete(status, h)
}
