//go:build windows

package native

import (
	"fmt"
	"syscall"

	"golang.org/x/sys/windows"
)

// DefaultLibraryPath is the library name resolved through the DLL search path.
func DefaultLibraryPath() string {
	return "msquic.dll"
}

// Load opens msquic.dll at path, calls MsQuicOpen and resolves the function
// table. cb receives every native event.
func Load(path string, cb Callbacks) (*Library, error) {
	if path == "" {
		path = DefaultLibraryPath()
	}

	dll, err := windows.LoadDLL(path)
	if err != nil {
		return nil, fmt.Errorf("native: load %s: %w", path, err)
	}
	unload := func() { _ = dll.Release() }

	openProc, err := dll.FindProc("MsQuicOpen")
	if err != nil {
		unload()
		return nil, fmt.Errorf("native: resolve MsQuicOpen: %w", err)
	}
	closeProc, err := dll.FindProc("MsQuicClose")
	if err != nil {
		unload()
		return nil, fmt.Errorf("native: resolve MsQuicClose: %w", err)
	}

	l, err := open(FamilyWindows, openProc.Addr(), closeProc.Addr(), windowsCall, cb, windows.NewCallback, unload)
	if err != nil {
		unload()
		return nil, err
	}
	return l, nil
}

func windowsCall(fn uintptr, args ...uintptr) uintptr {
	r, _, _ := syscall.SyscallN(fn, args...)
	return r
}
