// Package msquic binds the msquic shared library to Go.
//
// The package adapts msquic's callback driven C API into connection and stream
// objects. It does not implement any part of QUIC itself: packet framing,
// congestion control and retransmission all happen inside the native library.
//
// # Object model
//
//   - Registration: loads the library, resolves the API table and owns the
//     registration handle. Root of every other object.
//   - SecurityConfig: TLS configuration created asynchronously from a Certificate.
//   - Session: one ALPN; factory for Listener and Connection.
//   - Listener: accepts inbound connections.
//   - Connection: one QUIC connection.
//   - Stream: one QUIC stream.
//
// # Events
//
// The library reports events on its own threads. Every object that receives
// events registers a callback; the callback runs synchronously on the native
// thread, in the order the library delivered the events, and must not block.
// Returning a *StatusError from a callback reports that status to the library.
// Any other error, and any panic, is reported as INTERNAL_ERROR.
//
// Objects surfaced by events (accepted connections, peer streams) are
// non-owning: closing them never closes the native handle. Install their
// callback with SetCallback before the event callback returns.
//
// # Basic usage
//
//	reg, err := msquic.Open(&msquic.Config{AppName: "echo"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer reg.Close()
//
//	sess, err := reg.OpenSession("h3")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer sess.Close()
//
//	ln, err := sess.OpenListener(func(l *msquic.Listener, ev msquic.ListenerEvent) error {
//	    e := ev.(*msquic.NewConnectionEvent)
//	    e.SecurityConfig = secConfig
//	    return e.Connection.SetCallback(handleConnection)
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer ln.Close()
//
//	err = ln.Start(netip.MustParseAddrPort("0.0.0.0:4433"))
package msquic
