package server

import (
	"bufio"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Si1veR123/rs-pedalboard/internal/protocol"
)

func dial(t testing.TB, addr string) net.Conn {
	t.Helper()
	conn, err := net.DialTimeout("tcp", addr, time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestServer_InboundLinesReachCommandQueue(t *testing.T) {
	queue := protocol.NewCommandQueue(8)
	bus := protocol.NewResponseBus()
	srv, err := Listen("127.0.0.1:0", queue, bus)
	require.NoError(t, err)
	srv.Start()
	defer srv.Stop()

	conn := dial(t, srv.Addr().String())
	_, err = conn.Write([]byte("mute|on\n"))
	require.NoError(t, err)

	select {
	case line := <-queue.Chan():
		assert.Equal(t, "mute|on", line)
	case <-time.After(time.Second):
		t.Fatal("line never reached the command queue")
	}
}

func TestServer_BusLinesReachClient(t *testing.T) {
	queue := protocol.NewCommandQueue(8)
	bus := protocol.NewResponseBus()
	srv, err := Listen("127.0.0.1:0", queue, bus)
	require.NoError(t, err)
	srv.Start()
	defer srv.Stop()

	conn := dial(t, srv.Addr().String())
	reader := bufio.NewReader(conn)

	// give handleConn a moment to subscribe before we publish.
	require.Eventually(t, func() bool {
		bus.Send("ping")
		conn.SetReadDeadline(time.Now().Add(50 * time.Millisecond))
		line, err := reader.ReadString('\n')
		return err == nil && line == "ping\n"
	}, 2*time.Second, 20*time.Millisecond)
}

func TestServer_MultipleClientsEachReceiveBroadcast(t *testing.T) {
	queue := protocol.NewCommandQueue(8)
	bus := protocol.NewResponseBus()
	srv, err := Listen("127.0.0.1:0", queue, bus)
	require.NoError(t, err)
	srv.Start()
	defer srv.Stop()

	connA := dial(t, srv.Addr().String())
	connB := dial(t, srv.Addr().String())
	readerA := bufio.NewReader(connA)
	readerB := bufio.NewReader(connB)

	require.Eventually(t, func() bool {
		bus.Send("xrun")
		connA.SetReadDeadline(time.Now().Add(50 * time.Millisecond))
		connB.SetReadDeadline(time.Now().Add(50 * time.Millisecond))
		lineA, errA := readerA.ReadString('\n')
		lineB, errB := readerB.ReadString('\n')
		return errA == nil && errB == nil && lineA == "xrun\n" && lineB == "xrun\n"
	}, 2*time.Second, 20*time.Millisecond)
}

func TestServer_StopClosesListenerAndWaitsForHandlers(t *testing.T) {
	queue := protocol.NewCommandQueue(8)
	bus := protocol.NewResponseBus()
	srv, err := Listen("127.0.0.1:0", queue, bus)
	require.NoError(t, err)
	srv.Start()

	conn := dial(t, srv.Addr().String())
	_ = conn

	done := make(chan struct{})
	go func() {
		srv.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return")
	}

	_, err = net.DialTimeout("tcp", srv.Addr().String(), 200*time.Millisecond)
	assert.Error(t, err, "the listener must be closed after Stop")
}
