package native

import (
	"sync"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	fakeOpenFn  uintptr = 0x1000
	fakeCloseFn uintptr = 0x2000
)

// fakeCaller stands in for the C calling convention: it records every call
// and emulates MsQuicOpen by writing a table pointer to the out parameter.
type fakeCaller struct {
	mu         sync.Mutex
	table      *Table
	openStatus Status
	calls      []fakeCall
}

type fakeCall struct {
	fn   uintptr
	args []uintptr
}

func (f *fakeCaller) call(fn uintptr, args ...uintptr) uintptr {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fakeCall{fn: fn, args: append([]uintptr(nil), args...)})

	if fn == fakeOpenFn {
		if f.openStatus == 0 {
			*(*uintptr)(unsafe.Pointer(args[1])) = uintptr(unsafe.Pointer(f.table))
		}
		return uintptr(f.openStatus)
	}
	return 0
}

func (f *fakeCaller) callsTo(fn uintptr) []fakeCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []fakeCall
	for _, c := range f.calls {
		if c.fn == fn {
			out = append(out, c)
		}
	}
	return out
}

func fullTable() *Table {
	t := &Table{Version: APIVersion}
	fn := uintptr(0x10)
	for _, p := range []*uintptr{
		&t.SetContext, &t.GetContext, &t.SetCallbackHandler, &t.SetParam, &t.GetParam,
		&t.RegistrationOpen, &t.RegistrationClose, &t.SecConfigCreate, &t.SecConfigDelete,
		&t.SessionOpen, &t.SessionClose, &t.SessionShutdown,
		&t.ListenerOpen, &t.ListenerClose, &t.ListenerStart, &t.ListenerStop,
		&t.ConnectionOpen, &t.ConnectionClose, &t.ConnectionShutdown, &t.ConnectionStart,
		&t.StreamOpen, &t.StreamClose, &t.StreamStart, &t.StreamShutdown, &t.StreamSend,
		&t.StreamReceiveComplete, &t.StreamReceiveSetEnabled,
	} {
		*p = fn
		fn += 0x10
	}
	return t
}

func fakeNewCallback() func(any) uintptr {
	next := uintptr(0xF000)
	return func(any) uintptr {
		next++
		return next
	}
}

func openFake(t *testing.T, f *fakeCaller) (*Library, error) {
	t.Helper()
	return open(FamilyPOSIX, fakeOpenFn, fakeCloseFn, f.call, Callbacks{}, fakeNewCallback(), nil)
}

func TestOpen(t *testing.T) {
	f := &fakeCaller{table: fullTable()}

	l, err := openFake(t, f)
	require.NoError(t, err)
	assert.Equal(t, f.table.StreamSend, l.table.StreamSend)
	assert.Equal(t, FamilyPOSIX, l.Family())

	opens := f.callsTo(fakeOpenFn)
	require.Len(t, opens, 1)
	assert.Equal(t, uintptr(APIVersion), opens[0].args[0])
}

func TestOpen_Failure(t *testing.T) {
	f := &fakeCaller{table: fullTable(), openStatus: 22}

	_, err := openFake(t, f)
	var openErr *OpenError
	require.ErrorAs(t, err, &openErr)
	assert.Equal(t, Status(22), openErr.Status)
}

func TestOpen_UnresolvedEntry(t *testing.T) {
	table := fullTable()
	table.StreamSend = 0
	f := &fakeCaller{table: table}

	_, err := openFake(t, f)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "StreamSend")

	// The table is released when it cannot be used.
	assert.Len(t, f.callsTo(fakeCloseFn), 1)
}

func TestLibrary_Close(t *testing.T) {
	f := &fakeCaller{table: fullTable()}
	unloaded := 0
	l, err := open(FamilyPOSIX, fakeOpenFn, fakeCloseFn, f.call, Callbacks{}, fakeNewCallback(), func() { unloaded++ })
	require.NoError(t, err)

	l.Close()
	l.Close()

	assert.Len(t, f.callsTo(fakeCloseFn), 1)
	assert.Equal(t, 1, unloaded)
}

func TestLibrary_Arguments(t *testing.T) {
	f := &fakeCaller{table: fullTable()}
	l, err := openFake(t, f)
	require.NoError(t, err)

	l.SetParam(Handle(7), ParamLevelSession, ParamSessionPeerBidiStreamCount, []byte{100, 0})
	set := f.callsTo(f.table.SetParam)
	require.Len(t, set, 1)
	assert.Equal(t, []uintptr{7, uintptr(ParamLevelSession), uintptr(ParamSessionPeerBidiStreamCount), 2}, set[0].args[:4])

	l.StreamReceiveSetEnabled(Handle(9), true)
	en := f.callsTo(f.table.StreamReceiveSetEnabled)
	require.Len(t, en, 1)
	assert.Equal(t, []uintptr{9, 1}, en[0].args)

	l.ConnectionShutdown(Handle(3), 1, 42)
	sd := f.callsTo(f.table.ConnectionShutdown)
	require.Len(t, sd, 1)
	assert.Equal(t, []uintptr{3, 1, 42}, sd[0].args)

	l.SetCallbackHandler(Handle(5), HandlerStream, 77)
	cb := f.callsTo(f.table.SetCallbackHandler)
	require.Len(t, cb, 1)
	assert.Equal(t, l.handlers.stream, cb[0].args[1])
	assert.Equal(t, uintptr(77), cb[0].args[2])
}
