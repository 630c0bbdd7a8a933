package msquic

import (
	"log/slog"
	"sync/atomic"

	"github.com/OkutaniDaichi0106/gomsquic/msquic/internal/native"
)

// object is the lifetime state shared by listeners, connections and streams.
//
// An owning object closes its native handle on Close. A non-owning object
// was surfaced by an event and only detaches from it.
type object struct {
	reg    *Registration
	owned  bool
	handle atomic.Uintptr
	token  atomic.Uintptr
	closed atomic.Bool
	logger *slog.Logger
}

func (o *object) init(reg *Registration, owned bool, logger *slog.Logger) {
	o.reg = reg
	o.owned = owned
	o.logger = logger
}

// Handle returns the native handle, or 0 once closed.
func (o *object) Handle() Handle {
	return Handle(o.handle.Load())
}

// Owned reports whether Close releases the native handle.
func (o *object) Owned() bool {
	return o.owned
}

// attach registers self as the target of native callbacks. It must run before
// the handle can produce events.
func (o *object) attach(self any) uintptr {
	token := handles.register(self)
	o.token.Store(token)
	return token
}

func (o *object) detach() {
	if token := o.token.Swap(0); token != 0 {
		handles.release(token)
	}
}

// live returns the handle of an open object.
func (o *object) live() (native.Handle, error) {
	h := native.Handle(o.handle.Load())
	if h == 0 || o.closed.Load() {
		return 0, ErrClosed
	}
	return h, nil
}

// dispose runs once per object. The token is released before the native close
// so no event reaches Go code after close has been issued.
func (o *object) dispose(closeFn func(native.Handle)) bool {
	if !o.closed.CompareAndSwap(false, true) {
		return false
	}
	o.detach()
	if h := native.Handle(o.handle.Load()); h != 0 && o.owned {
		closeFn(h)
	}
	o.handle.Store(0)
	return true
}
