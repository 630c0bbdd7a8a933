package native

import "fmt"

// Table mirrors the API table returned by MsQuicOpen. Field order is the ABI.
type Table struct {
	Version uint32

	SetContext         uintptr
	GetContext         uintptr
	SetCallbackHandler uintptr
	SetParam           uintptr
	GetParam           uintptr

	RegistrationOpen  uintptr
	RegistrationClose uintptr

	SecConfigCreate uintptr
	SecConfigDelete uintptr

	SessionOpen     uintptr
	SessionClose    uintptr
	SessionShutdown uintptr

	ListenerOpen  uintptr
	ListenerClose uintptr
	ListenerStart uintptr
	ListenerStop  uintptr

	ConnectionOpen     uintptr
	ConnectionClose    uintptr
	ConnectionShutdown uintptr
	ConnectionStart    uintptr

	StreamOpen              uintptr
	StreamClose             uintptr
	StreamStart             uintptr
	StreamShutdown          uintptr
	StreamSend              uintptr
	StreamReceiveComplete   uintptr
	StreamReceiveSetEnabled uintptr
}

type tableEntry struct {
	name string
	fn   uintptr
}

func (t *Table) entries() []tableEntry {
	return []tableEntry{
		{"SetContext", t.SetContext},
		{"GetContext", t.GetContext},
		{"SetCallbackHandler", t.SetCallbackHandler},
		{"SetParam", t.SetParam},
		{"GetParam", t.GetParam},
		{"RegistrationOpen", t.RegistrationOpen},
		{"RegistrationClose", t.RegistrationClose},
		{"SecConfigCreate", t.SecConfigCreate},
		{"SecConfigDelete", t.SecConfigDelete},
		{"SessionOpen", t.SessionOpen},
		{"SessionClose", t.SessionClose},
		{"SessionShutdown", t.SessionShutdown},
		{"ListenerOpen", t.ListenerOpen},
		{"ListenerClose", t.ListenerClose},
		{"ListenerStart", t.ListenerStart},
		{"ListenerStop", t.ListenerStop},
		{"ConnectionOpen", t.ConnectionOpen},
		{"ConnectionClose", t.ConnectionClose},
		{"ConnectionShutdown", t.ConnectionShutdown},
		{"ConnectionStart", t.ConnectionStart},
		{"StreamOpen", t.StreamOpen},
		{"StreamClose", t.StreamClose},
		{"StreamStart", t.StreamStart},
		{"StreamShutdown", t.StreamShutdown},
		{"StreamSend", t.StreamSend},
		{"StreamReceiveComplete", t.StreamReceiveComplete},
		{"StreamReceiveSetEnabled", t.StreamReceiveSetEnabled},
	}
}

// validate fails on the first entry point the library left unresolved.
func (t *Table) validate() error {
	for _, e := range t.entries() {
		if e.fn == 0 {
			return fmt.Errorf("native: unresolved entry point %s", e.name)
		}
	}
	return nil
}
