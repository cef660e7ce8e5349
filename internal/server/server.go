// Package server accepts client connections and wires them to the
// shared command queue and response bus, grounded on the teacher's
// runtime_ipc.go accept-loop (Listen, goroutine-per-connection Accept
// loop, Stop closes the listener and waits for the loop to exit)
// generalized from its single-shot JSON request/response exchange to
// the pipe-delimited, newline-framed, bidirectional stream spec.md §6
// describes.
package server

import (
	"bufio"
	"net"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/getsentry/sentry-go"

	"github.com/Si1veR123/rs-pedalboard/internal/protocol"
)

// Server listens for TCP client connections, decoding each inbound
// line onto queue and writing every line the bus publishes back to
// every connected client.
type Server struct {
	listener net.Listener
	queue    *protocol.CommandQueue
	bus      *protocol.ResponseBus

	done chan struct{}
	wg   sync.WaitGroup
}

// Listen binds addr and returns a Server ready to Start.
func Listen(addr string, queue *protocol.CommandQueue, bus *protocol.ResponseBus) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Server{listener: ln, queue: queue, bus: bus, done: make(chan struct{})}, nil
}

// Addr reports the bound address, useful when addr was "host:0".
func (s *Server) Addr() net.Addr { return s.listener.Addr() }

// Start begins accepting connections in a goroutine.
func (s *Server) Start() {
	go s.acceptLoop()
}

// Stop closes the listener and waits for the accept loop and every
// still-running connection handler to exit.
func (s *Server) Stop() {
	close(s.done)
	s.listener.Close()
	s.wg.Wait()
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.done:
				return
			default:
				log.Error("server: accept failed", "err", err)
				return
			}
		}
		s.wg.Add(1)
		go s.handleConn(conn)
	}
}

// handleConn pumps inbound lines onto the shared queue and outbound
// bus lines onto the connection until either direction fails — a
// dropped connection simply ends this goroutine per spec.md §7; the
// audio thread and any worker it started (e.g. the tuner) keep running
// until an explicit "disconnect" command says otherwise.
func (s *Server) handleConn(conn net.Conn) {
	defer s.wg.Done()
	defer conn.Close()
	defer func() {
		if r := recover(); r != nil {
			sentry.CurrentHub().Recover(r)
			log.Error("server: connection handler panicked", "panic", r)
		}
	}()

	subID, outbound := s.bus.Subscribe(64)

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for line := range outbound {
			if _, err := conn.Write([]byte(protocol.EncodeLine(line))); err != nil {
				return
			}
		}
	}()

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 4096), 1<<20)
	for scanner.Scan() {
		s.queue.Push(scanner.Text())
	}

	s.bus.Unsubscribe(subID)
	conn.Close()
	<-writerDone
}
