package msquic

import "sync"

// handleTable maps the integer context tokens given to the native library back
// to Go objects. Go pointers cannot be stored in native memory, so every
// callback context is a token. Token 0 is never issued.
type handleTable struct {
	mu   sync.RWMutex
	next uintptr
	objs map[uintptr]any
}

var handles = newHandleTable()

func newHandleTable() *handleTable {
	return &handleTable{objs: make(map[uintptr]any)}
}

func (t *handleTable) register(v any) uintptr {
	t.mu.Lock()
	defer t.mu.Unlock()

	for {
		t.next++
		if t.next == 0 {
			continue
		}
		if _, used := t.objs[t.next]; !used {
			break
		}
	}
	t.objs[t.next] = v
	return t.next
}

func (t *handleTable) lookup(token uintptr) (any, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	v, ok := t.objs[token]
	return v, ok
}

func (t *handleTable) release(token uintptr) {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.objs, token)
}

// take removes token and returns the object it mapped to. Only one caller
// observes ok for a given registration.
func (t *handleTable) take(token uintptr) (any, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	v, ok := t.objs[token]
	if ok {
		delete(t.objs, token)
	}
	return v, ok
}

func (t *handleTable) len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return len(t.objs)
}
