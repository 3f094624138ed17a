package dispatch

import (
	"context"
	"sync"
	"time"

	"github.com/meshchain/node/log"
	"github.com/meshchain/node/p2p"
	"github.com/meshchain/node/wire"
)

// Server runs the per-connection request loop described in spec.md §5:
// "Each inbound connection is handled by an independent task; within one
// task the wire codec is synchronous." It implements node.Service so a
// node.ServiceRegistry can start and stop it alongside the rest of the
// bootstrap sequence.
type Server struct {
	Listener p2p.Listener
	Deps     Deps
	Log      *log.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Name identifies this service to a ServiceRegistry.
func (s *Server) Name() string { return "dispatch-server" }

// Start begins accepting connections in the background. Returning nil
// immediately matches the Service contract; Accept errors after a clean
// Stop are swallowed, anything else is logged.
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.acceptLoop(ctx)
	}()
	return nil
}

// Stop closes the listener and waits for in-flight connections' tasks to
// observe cancellation and exit.
func (s *Server) Stop() error {
	if s.cancel != nil {
		s.cancel()
	}
	err := s.Listener.Close()
	s.wg.Wait()
	return err
}

func (s *Server) acceptLoop(ctx context.Context) {
	for {
		conn, err := s.Listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return
			default:
			}
			s.logger().Error("accept failed", "error", err)
			return
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.serveConn(ctx, conn)
		}()
	}
}

// serveConn is the independent per-connection task: read one Msg, decode
// its wire.Frame, dispatch it, encode and write the response, repeat until
// the connection errors or ctx is cancelled. A dropped connection cancels
// any pending dispatcher task transitively, since Process's only
// suspension point (NewTransaction's await) is itself ctx-bound.
func (s *Server) serveConn(ctx context.Context, conn p2p.ConnTransport) {
	defer conn.Close()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		msg, err := conn.ReadMsg()
		if err != nil {
			return
		}

		req, _, err := wire.Decode(msg.Payload)
		if err != nil {
			errPayload, encErr := wire.Encode(wire.Error{Reason: wire.ReasonInvalidTransaction})
			if encErr == nil {
				_ = p2p.Send(conn, uint64(wire.TagError), errPayload)
			}
			continue
		}

		resp, err := Process(ctx, req, time.Now(), s.Deps)
		if err != nil {
			s.logger().Error("dispatch failed", "remote", conn.RemoteAddr(), "error", err)
			continue
		}

		payload, err := wire.Encode(resp)
		if err != nil {
			s.logger().Error("encode response failed", "remote", conn.RemoteAddr(), "error", err)
			continue
		}
		if err := p2p.Send(conn, uint64(resp.Tag()), payload); err != nil {
			return
		}
	}
}

func (s *Server) logger() *log.Logger {
	if s.Log != nil {
		return s.Log
	}
	return log.Default().Module("dispatch")
}
