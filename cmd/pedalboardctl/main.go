// Command pedalboardctl is a thin client for pedalboardd's wire
// protocol: it dials the daemon, streams stdin lines to it as commands,
// and prints whatever events come back, mirroring the teacher's
// SendIPCOpen (DialTimeout, write, read response) generalized from one
// request/response exchange to a long-lived bidirectional stream, per
// spec.md §7's "connect attempts time out after 5s" policy.
package main

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/Si1veR123/rs-pedalboard/internal/protocol"
)

const connectTimeout = 5 * time.Second

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: pedalboardctl <host:port> [command|...]")
		os.Exit(1)
	}
	addr := os.Args[1]

	conn, err := net.DialTimeout("tcp", addr, connectTimeout)
	if err != nil {
		log.Fatal("pedalboardctl: connect", "addr", addr, "err", err)
	}
	defer conn.Close()

	go printEvents(conn)

	if len(os.Args) > 2 {
		sendOne(conn, os.Args[2])
		return
	}
	interactive(conn)
}

func sendOne(conn net.Conn, command string) {
	if _, err := conn.Write([]byte(protocol.EncodeLine(command))); err != nil {
		log.Fatal("pedalboardctl: send", "err", err)
	}
	time.Sleep(200 * time.Millisecond)
}

func interactive(conn net.Conn) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		if _, err := conn.Write([]byte(protocol.EncodeLine(line))); err != nil {
			log.Error("pedalboardctl: send failed", "err", err)
			return
		}
		if line == protocol.CmdKill || line == protocol.CmdDisconnect {
			return
		}
	}
}

func printEvents(conn net.Conn) {
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 4096), 1<<20)
	for scanner.Scan() {
		fmt.Println(scanner.Text())
	}
	if err := scanner.Err(); err != nil && err != io.EOF {
		log.Error("pedalboardctl: connection read failed", "err", err)
	}
}
