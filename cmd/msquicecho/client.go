package main

import (
	"bytes"
	"context"
	"log/slog"
	"sync"

	"github.com/OkutaniDaichi0106/gomsquic/msquic"
)

func runClient(ctx context.Context, reg *msquic.Registration, cfg echoConfig, logger *slog.Logger) ([]byte, error) {
	sess, err := reg.OpenSessionConfig(cfg.sessionConfig())
	if err != nil {
		return nil, err
	}
	defer sess.Close()

	dialCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	var factory msquic.ConnectionFactory = &msquic.Dialer{Session: sess}
	conn, err := factory.Connect(dialCtx, cfg.Addr)
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	logger.Info("connected", "address", cfg.Addr, "connection_id", conn.ID())

	collector := newReplyCollector()
	stream, err := conn.OpenStream(msquic.StreamOpenFlagNone, collector.handle)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	if err := stream.Start(msquic.StreamStartFlagImmediate); err != nil {
		return nil, err
	}
	sent, err := stream.SendAsync(1, msquic.SendFlagFIN, []byte(cfg.Message))
	if err != nil {
		return nil, err
	}
	if _, err := sent.Wait(ctx); err != nil {
		return nil, err
	}

	reply, err := collector.wait(ctx)
	conn.Shutdown(msquic.ConnectionShutdownFlagNone, 0)
	return reply, err
}

// replyCollector accumulates the echoed bytes until the peer finishes sending.
type replyCollector struct {
	mu   sync.Mutex
	buf  bytes.Buffer
	err  error
	done chan struct{}
	once sync.Once
}

func newReplyCollector() *replyCollector {
	return &replyCollector{done: make(chan struct{})}
}

func (r *replyCollector) finish(err error) {
	r.once.Do(func() {
		r.mu.Lock()
		r.err = err
		r.mu.Unlock()
		close(r.done)
	})
}

func (r *replyCollector) handle(s *msquic.Stream, ev msquic.StreamEvent) error {
	switch e := ev.(type) {
	case *msquic.ReceiveEvent:
		r.mu.Lock()
		r.buf.Write(e.Bytes())
		r.mu.Unlock()
	case *msquic.PeerSendShutdownEvent:
		r.finish(nil)
	case *msquic.PeerSendAbortedEvent:
		r.finish(&msquic.StreamError{ErrorCode: e.ErrorCode, Remote: true})
	case *msquic.StreamShutdownCompleteEvent:
		r.finish(msquic.ErrAborted)
	}
	return nil
}

func (r *replyCollector) wait(ctx context.Context) ([]byte, error) {
	select {
	case <-r.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	return bytes.Clone(r.buf.Bytes()), nil
}
