package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/netip"
	"sync/atomic"

	"github.com/OkutaniDaichi0106/gomsquic/msquic"
)

func runServer(ctx context.Context, reg *msquic.Registration, cfg echoConfig, logger *slog.Logger) error {
	addr, err := netip.ParseAddrPort(cfg.Listen)
	if err != nil {
		return fmt.Errorf("parse listen address: %w", err)
	}
	cert, err := cfg.certificate()
	if err != nil {
		return err
	}

	pending, err := reg.CreateSecurityConfig(cert)
	if err != nil {
		return err
	}
	sc, err := pending.Wait(ctx)
	if err != nil {
		return err
	}
	defer sc.Close()

	sess, err := reg.OpenSessionConfig(cfg.sessionConfig())
	if err != nil {
		return err
	}
	defer sess.Close()

	ln, err := sess.OpenListener(func(l *msquic.Listener, ev msquic.ListenerEvent) error {
		nc, ok := ev.(*msquic.NewConnectionEvent)
		if !ok {
			return nil
		}
		nc.SecurityConfig = sc
		return nc.Connection.SetCallback(serveConnection)
	})
	if err != nil {
		return err
	}
	defer ln.Close()

	if err := ln.Start(addr); err != nil {
		return err
	}
	logger.Info("echo server ready", "address", addr.String(), "alpn", cfg.ALPN)

	<-ctx.Done()
	ln.Stop()
	sess.Shutdown(msquic.ConnectionShutdownFlagNone, 0)
	return nil
}

func serveConnection(c *msquic.Connection, ev msquic.ConnectionEvent) error {
	switch e := ev.(type) {
	case *msquic.NewStreamEvent:
		es := &echoStream{}
		return e.Stream.SetCallback(es.handle)
	case *msquic.ShutdownCompleteEvent:
		c.Close()
	}
	return nil
}

// echoStream writes every received chunk back on the same stream.
type echoStream struct {
	sends atomic.Uintptr
}

func (es *echoStream) handle(s *msquic.Stream, ev msquic.StreamEvent) error {
	switch e := ev.(type) {
	case *msquic.ReceiveEvent:
		data := e.Bytes()
		flags := msquic.SendFlagNone
		if e.FIN() {
			flags = msquic.SendFlagFIN
		}
		if len(data) == 0 && flags == msquic.SendFlagNone {
			return nil
		}
		_, err := s.SendAsync(es.sends.Add(1), flags, data)
		return err
	case *msquic.PeerSendAbortedEvent:
		return s.Shutdown(msquic.StreamShutdownFlagAbort, e.ErrorCode)
	case *msquic.StreamShutdownCompleteEvent:
		s.Close()
	}
	return nil
}
