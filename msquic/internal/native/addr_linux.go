package native

import "golang.org/x/sys/unix"

type (
	sockaddrInet4 = unix.RawSockaddrInet4
	sockaddrInet6 = unix.RawSockaddrInet6
)

// Address family values carried in Addr.
const (
	AddressFamilyUnspec uint16 = unix.AF_UNSPEC
	AddressFamilyINET   uint16 = unix.AF_INET
	AddressFamilyINET6  uint16 = unix.AF_INET6
)

const (
	sizeofSockaddrInet4 = unix.SizeofSockaddrInet4
	sizeofSockaddrInet6 = unix.SizeofSockaddrInet6
)

// Family returns the address family.
func (a *Addr) Family() uint16 {
	return a.raw.Family
}

func (a *Addr) setFamily(af uint16, _ uint8) {
	a.raw.Family = af
}
