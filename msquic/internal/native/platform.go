package native

import "runtime"

// Family identifies the platform family of the native library. It decides how
// status codes are encoded.
type Family uint8

const (
	// FamilyPOSIX is the errno based family used on Linux.
	FamilyPOSIX Family = iota
	// FamilyWindows is the HRESULT based family used on Windows.
	FamilyWindows
)

func (f Family) String() string {
	switch f {
	case FamilyPOSIX:
		return "posix"
	case FamilyWindows:
		return "windows"
	default:
		return "unknown"
	}
}

// DetectFamily returns the family of the running platform.
func DetectFamily() Family {
	if runtime.GOOS == "windows" {
		return FamilyWindows
	}
	return FamilyPOSIX
}

// Succeeded reports whether s means the operation succeeded or is still in progress.
//
// Windows statuses are HRESULTs, which fail when the severity bit is set.
// POSIX statuses are negated errno values for progress codes and positive values for failures.
func (f Family) Succeeded(s Status) bool {
	if f == FamilyWindows {
		return int32(s) >= 0
	}
	return int32(s) <= 0
}
