package native

import (
	"encoding/binary"
	"errors"
	"fmt"
	"net/netip"
	"strconv"
	"unsafe"
)

// AddrSize is the size of QUIC_ADDR, the size of the IPv6 socket address.
const AddrSize = 28

// Addr mirrors QUIC_ADDR: the union of the platform's IPv4 and IPv6 socket
// address structures, discriminated by the address family.
type Addr struct {
	raw sockaddrInet6
}

var errUnknownAddressFamily = errors.New("native: unknown address family")

func (a *Addr) inet4() *sockaddrInet4 {
	return (*sockaddrInet4)(unsafe.Pointer(&a.raw))
}

// Raw returns the address memory, for use as a GetParam or SetParam buffer.
func (a *Addr) Raw() []byte {
	return (*[AddrSize]byte)(unsafe.Pointer(&a.raw))[:]
}

// Port returns the port in host byte order.
func (a *Addr) Port() uint16 {
	return binary.BigEndian.Uint16(portBytes(&a.raw.Port))
}

// portBytes views a port field, which holds network byte order.
func portBytes(p *uint16) []byte {
	return (*[2]byte)(unsafe.Pointer(p))[:]
}

// EncodeAddr converts ap into the socket address layout of the platform.
// An invalid ap encodes the unspecified address with its port.
func EncodeAddr(ap netip.AddrPort) Addr {
	var a Addr
	addr := ap.Addr()
	switch {
	case !addr.IsValid():
		a.setFamily(AddressFamilyUnspec, 0)
	case addr.Is4():
		a.setFamily(AddressFamilyINET, sizeofSockaddrInet4)
		a.inet4().Addr = addr.As4()
	default:
		a.setFamily(AddressFamilyINET6, sizeofSockaddrInet6)
		a.raw.Addr = addr.As16()
		if zone := addr.Zone(); zone != "" {
			if id, err := strconv.ParseUint(zone, 10, 32); err == nil {
				a.raw.Scope_id = uint32(id)
			}
		}
	}
	binary.BigEndian.PutUint16(portBytes(&a.raw.Port), ap.Port())
	return a
}

// DecodeAddr converts a socket address back to a netip.AddrPort.
func DecodeAddr(a *Addr) (netip.AddrPort, error) {
	if a == nil {
		return netip.AddrPort{}, errors.New("native: nil address")
	}
	port := a.Port()

	switch a.Family() {
	case AddressFamilyUnspec:
		return netip.AddrPortFrom(netip.Addr{}, port), nil
	case AddressFamilyINET:
		return netip.AddrPortFrom(netip.AddrFrom4(a.inet4().Addr), port), nil
	case AddressFamilyINET6:
		addr := netip.AddrFrom16(a.raw.Addr)
		if a.raw.Scope_id != 0 {
			addr = addr.WithZone(strconv.FormatUint(uint64(a.raw.Scope_id), 10))
		}
		return netip.AddrPortFrom(addr, port), nil
	default:
		return netip.AddrPort{}, fmt.Errorf("%w: %d", errUnknownAddressFamily, a.Family())
	}
}
