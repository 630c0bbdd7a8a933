//go:build darwin || freebsd || linux

package native

import (
	"fmt"
	"runtime"

	"github.com/ebitengine/purego"
)

// DefaultLibraryPath is the library name resolved through the dynamic loader.
func DefaultLibraryPath() string {
	if runtime.GOOS == "darwin" {
		return "libmsquic.dylib"
	}
	return "libmsquic.so"
}

// Load opens the msquic shared library at path, calls MsQuicOpen and resolves
// the function table. cb receives every native event.
func Load(path string, cb Callbacks) (*Library, error) {
	if path == "" {
		path = DefaultLibraryPath()
	}

	lib, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		return nil, fmt.Errorf("native: load %s: %w", path, err)
	}
	unload := func() { _ = purego.Dlclose(lib) }

	openFn, err := purego.Dlsym(lib, "MsQuicOpen")
	if err != nil {
		unload()
		return nil, fmt.Errorf("native: resolve MsQuicOpen: %w", err)
	}
	closeFn, err := purego.Dlsym(lib, "MsQuicClose")
	if err != nil {
		unload()
		return nil, fmt.Errorf("native: resolve MsQuicClose: %w", err)
	}

	l, err := open(DetectFamily(), openFn, closeFn, puregoCall, cb, purego.NewCallback, unload)
	if err != nil {
		unload()
		return nil, err
	}
	return l, nil
}

func puregoCall(fn uintptr, args ...uintptr) uintptr {
	r, _, _ := purego.SyscallN(fn, args...)
	return r
}
