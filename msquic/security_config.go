package msquic

import (
	"runtime"
	"sync/atomic"
	"unsafe"

	"github.com/OkutaniDaichi0106/gomsquic/msquic/internal/native"
)

// Certificate selects the credential a SecurityConfig is created from.
type Certificate interface {
	// marshal returns the creation flags and the native credential, pinning
	// everything the library reads until creation completes.
	marshal(p *runtime.Pinner) (flags uint32, data unsafe.Pointer)
}

// CertificateHash selects a certificate by SHA-1 thumbprint from the current user's MY store.
type CertificateHash [20]byte

func (c CertificateHash) marshal(p *runtime.Pinner) (uint32, unsafe.Pointer) {
	cert := &native.CertificateHash{ShaHash: c}
	p.Pin(cert)
	return native.SecConfigFlagCertHash, unsafe.Pointer(cert)
}

// CertificateHashStore selects a certificate by thumbprint from a named store.
type CertificateHashStore struct {
	Hash [20]byte

	// StoreName is truncated to 127 bytes.
	StoreName string

	// MachineStore selects the local machine store instead of the current user's.
	MachineStore bool
}

const certificateHashStoreFlagMachineStore = 0x0001

func (c CertificateHashStore) marshal(p *runtime.Pinner) (uint32, unsafe.Pointer) {
	cert := &native.CertificateHashStore{ShaHash: c.Hash}
	if c.MachineStore {
		cert.Flags = certificateHashStoreFlagMachineStore
	}
	copy(cert.StoreName[:len(cert.StoreName)-1], c.StoreName)
	p.Pin(cert)
	return native.SecConfigFlagCertHashStore, unsafe.Pointer(cert)
}

// CertificateFile loads a PEM certificate chain and private key from disk.
type CertificateFile struct {
	PrivateKeyFile  string
	CertificateFile string
}

func (c CertificateFile) marshal(p *runtime.Pinner) (uint32, unsafe.Pointer) {
	cert := &native.CertificateFile{
		PrivateKeyFile:  pinString(p, c.PrivateKeyFile),
		CertificateFile: pinString(p, c.CertificateFile),
	}
	p.Pin(cert)
	return native.SecConfigFlagCertFile, unsafe.Pointer(cert)
}

// NullCertificate creates a configuration without credentials, for clients.
type NullCertificate struct{}

func (NullCertificate) marshal(*runtime.Pinner) (uint32, unsafe.Pointer) {
	return native.SecConfigFlagCertNull, nil
}

func pinString(p *runtime.Pinner, s string) *byte {
	b := append([]byte(s), 0)
	p.Pin(&b[0])
	return &b[0]
}

// SecurityConfig is a TLS configuration usable by listeners and connections.
// A SecurityConfig that becomes unreachable without Close is deleted by a
// finalizer; relying on it leaks the native object until the next GC.
type SecurityConfig struct {
	reg    *Registration
	handle atomic.Uintptr
	closed atomic.Bool
}

func newSecurityConfig(reg *Registration, h native.Handle) *SecurityConfig {
	sc := &SecurityConfig{reg: reg}
	sc.handle.Store(uintptr(h))
	runtime.SetFinalizer(sc, (*SecurityConfig).finalize)
	return sc
}

// Handle returns the native handle, or 0 once closed.
func (sc *SecurityConfig) Handle() Handle {
	return Handle(sc.handle.Load())
}

// Close deletes the native configuration. Later calls do nothing.
func (sc *SecurityConfig) Close() error {
	if !sc.closed.CompareAndSwap(false, true) {
		return nil
	}
	runtime.SetFinalizer(sc, nil)
	sc.release()
	return nil
}

func (sc *SecurityConfig) release() {
	if h := native.Handle(sc.handle.Swap(0)); h != 0 {
		sc.reg.api.SecConfigDelete(h)
	}
}

func (sc *SecurityConfig) finalize() {
	if !sc.closed.CompareAndSwap(false, true) {
		return
	}
	if sc.reg.logger != nil {
		sc.reg.logger.Warn("security config collected without Close")
	}
	sc.release()
}

type pendingSecurityConfig struct {
	reg    *Registration
	future *Future[*SecurityConfig]
	pinner runtime.Pinner
}

func (p *pendingSecurityConfig) complete(status native.Status, h native.Handle) {
	p.pinner.Unpin()

	if !p.reg.family.Succeeded(status) {
		err := newStatusError(p.reg.family, status, "security config create")
		if p.reg.logger != nil {
			p.reg.logger.Error("failed to create security config", "error", err.Error())
		}
		p.future.fail(err)
		return
	}
	p.future.resolve(newSecurityConfig(p.reg, h))
}

// CreateSecurityConfig starts creating a SecurityConfig from cert. The
// returned future settles when the library reports completion, which may
// happen before this method returns.
func (r *Registration) CreateSecurityConfig(cert Certificate) (*Future[*SecurityConfig], error) {
	if cert == nil {
		return nil, r.localError(CodeInvalidParameter, "security config create: nil certificate")
	}

	p := &pendingSecurityConfig{
		reg:    r,
		future: newFuture[*SecurityConfig](),
	}
	flags, data := cert.marshal(&p.pinner)

	token := handles.register(p)
	status := r.api.SecConfigCreate(r.handle, flags, data, "", token)
	if err := r.check(status, "security config create"); err != nil {
		if _, pending := handles.take(token); pending {
			p.pinner.Unpin()
		} else if sc, _, ok := p.future.result(); ok && sc != nil {
			// Completion raced the failing return.
			sc.Close()
		}
		return nil, err
	}
	return p.future, nil
}
