// Package ipc is the local control surface of the daemon: a unix socket
// taking one JSON message per connection.
package ipc

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
)

const SocketPath = "/tmp/bimo.sock"

// ControlMessage is one command for the daemon: "trigger" to activate as if
// the wake word was heard, "say" to speak Arg directly.
type ControlMessage struct {
	Cmd string `json:"cmd"`
	Arg string `json:"arg,omitempty"`
}

func StartServer(handler func(ControlMessage)) error {
	os.Remove(SocketPath)

	ln, err := net.Listen("unix", SocketPath)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	go serve(ln, handler)

	return nil
}

func serve(ln net.Listener, handler func(ControlMessage)) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			continue
		}
		go handleConn(conn, handler)
	}
}

func handleConn(conn net.Conn, handler func(ControlMessage)) {
	defer conn.Close()

	var msg ControlMessage
	dec := json.NewDecoder(conn)
	if err := dec.Decode(&msg); err != nil {
		return
	}
	handler(msg)
}

func SendCommand(cmd, arg string) error {
	conn, err := net.Dial("unix", SocketPath)
	if err != nil {
		return err
	}
	defer conn.Close()

	enc := json.NewEncoder(conn)
	return enc.Encode(ControlMessage{Cmd: cmd, Arg: arg})
}
