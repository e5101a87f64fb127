package service

import (
	"io"
	"net"
	"sync"

	"github.com/op/go-logging"

	"varlink.org/varlink/common/protocol"
	"varlink.org/varlink/common/socket"
	. "varlink.org/varlink/common/util"
)

// Server accepts connections and feeds their frames through a Service.
// Every connection runs on its own goroutine with one reader, one
// writer and at most one call in flight; the registry is read-only
// while serving, so connections share no mutable state.
type Server struct {
	service *Service
	log     *logging.Logger

	mu       sync.Mutex
	listener net.Listener
	stopped  bool
}

func NewServer(svc *Service) *Server {
	return &Server{service: svc, log: svc.log}
}

// ListenAndServe listens on a varlink address (or an activation
// listener, when present) and serves until Shutdown.
func (srv *Server) ListenAndServe(address string) (err error) {
	listener, err := socket.Listen(address)
	if err != nil {
		return
	}
	return srv.Serve(listener)
}

// Serve accepts connections from the listener until Shutdown.
func (srv *Server) Serve(listener net.Listener) (err error) {
	srv.mu.Lock()
	if srv.stopped {
		srv.mu.Unlock()
		listener.Close()
		return nil
	}
	srv.listener = listener
	srv.mu.Unlock()
	defer listener.Close()

	for {
		conn, acceptErr := listener.Accept()
		if acceptErr != nil {
			if !srv.Running() {
				return nil
			}
			return acceptErr
		}
		go srv.ServeConnection(conn)
	}
}

// Running reports whether the server still accepts connections.
func (srv *Server) Running() bool {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	return !srv.stopped
}

// Shutdown stops accepting connections. In-flight connections finish
// their current call and drain on their next read.
func (srv *Server) Shutdown() {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	srv.stopped = true
	if srv.listener != nil {
		srv.listener.Close()
	}
}

// ServeConnection drives the read-dispatch-write loop of a single
// connection until it closes or a protocol error ends it.
func (srv *Server) ServeConnection(conn io.ReadWriteCloser) {
	defer conn.Close()

	reader := protocol.NewFrameReader(conn)
	writer := protocol.NewFrameWriter(conn)

	for srv.Running() {
		frame, err := reader.ReadFrame()
		if err == io.EOF {
			return
		}
		if err != nil {
			if err != ErrDisconnected {
				srv.log.Error("reading request:", err)
			}
			return
		}

		if err := srv.service.Handle(frame, writer, srv, conn); err != nil {
			if err != ErrDisconnected {
				srv.log.Error("handling call:", err)
			}
			return
		}
	}
}
