package native

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

type (
	sockaddrInet4 = windows.RawSockaddrInet4
	sockaddrInet6 = windows.RawSockaddrInet6
)

// Address family values carried in Addr.
const (
	AddressFamilyUnspec uint16 = windows.AF_UNSPEC
	AddressFamilyINET   uint16 = windows.AF_INET
	AddressFamilyINET6  uint16 = windows.AF_INET6
)

const (
	sizeofSockaddrInet4 = uint8(unsafe.Sizeof(sockaddrInet4{}))
	sizeofSockaddrInet6 = uint8(unsafe.Sizeof(sockaddrInet6{}))
)

// Family returns the address family.
func (a *Addr) Family() uint16 {
	return a.raw.Family
}

func (a *Addr) setFamily(af uint16, _ uint8) {
	a.raw.Family = af
}
