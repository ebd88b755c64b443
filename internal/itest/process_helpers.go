// If you are AI: This file provides helpers for running the roomlink binary against an in-process RTMP server in tests.

package itest

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"roomlink/internal/core/protocol/amf0"
	"roomlink/internal/core/protocol/rtmp"
)

// BuildBinary compiles cmd/roomlink into dir and returns its path.
func BuildBinary(dir string) (string, error) {
	binPath := filepath.Join(dir, "roomlink")
	buildCmd := exec.Command("go", "build", "-o", binPath, "../../cmd/roomlink")
	buildCmd.Stderr = os.Stderr
	if err := buildCmd.Run(); err != nil {
		return "", fmt.Errorf("build binary: %w", err)
	}
	return binPath, nil
}

// WriteConfig writes a client config pointing at rtmpPort and returns its path.
func WriteConfig(dir string, httpPort, rtmpPort int, restricted bool) (string, error) {
	configPath := filepath.Join(dir, "roomlink.yaml")
	content := fmt.Sprintf(`log: {level: debug}
http: {port: %d}
connection:
  ip: 127.0.0.1
  port: %d
  app: room
  auth_cookie: itest
  restricted_area: %t
reconnect:
  base_delay: 100ms
  max_delay: 1s
  secondary_delay: 100ms
`, httpPort, rtmpPort, restricted)
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write config: %w", err)
	}
	return configPath, nil
}

// StartClient writes a config into dir and runs the binary with it.
func StartClient(ctx context.Context, binPath, dir string, httpPort, rtmpPort int) (*exec.Cmd, error) {
	configPath, err := WriteConfig(dir, httpPort, rtmpPort, false)
	if err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, binPath, "run", "--config", configPath)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start client: %w", err)
	}
	return cmd, nil
}

// FreePort returns a TCP port that was free a moment ago.
func FreePort() (int, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, fmt.Errorf("find free port: %w", err)
	}
	defer listener.Close()
	return listener.Addr().(*net.TCPAddr).Port, nil
}

// WaitForStatus polls /healthz until it answers with want.
func WaitForStatus(port, want int, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	url := fmt.Sprintf("http://127.0.0.1:%d/healthz", port)

	last := 0
	for time.Now().Before(deadline) {
		resp, err := http.Get(url)
		if err == nil {
			resp.Body.Close()
			last = resp.StatusCode
			if resp.StatusCode == want {
				return nil
			}
		}
		time.Sleep(50 * time.Millisecond)
	}
	return fmt.Errorf("health endpoint did not return %d within %v (last %d)", want, timeout, last)
}

// RoomServer is a minimal RTMP server: it completes the handshake, answers connect
// with NetConnection.Connect.Success, echoes other commands and records their names.
type RoomServer struct {
	listener net.Listener

	mu       sync.Mutex
	accepted int
	commands []string
	conns    []net.Conn

	// DropFirst closes the first connection right after answering connect.
	DropFirst bool
}

// NewRoomServer listens on a free loopback port.
func NewRoomServer() (*RoomServer, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, err
	}
	s := &RoomServer{listener: listener}
	go s.serve()
	return s, nil
}

// Port returns the listening port.
func (s *RoomServer) Port() int {
	return s.listener.Addr().(*net.TCPAddr).Port
}

// Accepted returns the number of connections accepted so far.
func (s *RoomServer) Accepted() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accepted
}

// Commands returns the names of commands received so far.
func (s *RoomServer) Commands() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.commands...)
}

// Close stops listening and closes every open connection.
func (s *RoomServer) Close() error {
	err := s.listener.Close()
	s.mu.Lock()
	for _, c := range s.conns {
		c.Close()
	}
	s.mu.Unlock()
	return err
}

// serve accepts connections until the listener closes.
func (s *RoomServer) serve() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return
		}
		s.mu.Lock()
		s.accepted++
		n := s.accepted
		s.conns = append(s.conns, conn)
		s.mu.Unlock()
		go s.handle(conn, n)
	}
}

// handle runs one client connection.
func (s *RoomServer) handle(conn net.Conn, n int) {
	defer conn.Close()
	if err := acceptHandshake(conn); err != nil {
		return
	}
	r := rtmp.NewReader(conn)
	w := rtmp.NewWriter(conn, rtmp.DefaultRoutePolicy())
	for {
		msg, err := r.Next()
		if err != nil {
			return
		}
		if msg.Type != rtmp.TypeCommand {
			continue
		}
		s.mu.Lock()
		s.commands = append(s.commands, msg.CommandName())
		s.mu.Unlock()

		if msg.CommandName() != "connect" {
			// Chat-style echo so clients observe their own command.
			if err := w.Write(rtmp.NewCommand(msg.Values...)); err != nil {
				return
			}
			if err := w.Flush(); err != nil {
				return
			}
			continue
		}
		status := amf0.Object{"level": "status", "code": rtmp.StatusConnectSuccess}
		if err := w.Write(rtmp.NewCommand("_result", 1, nil, status)); err != nil {
			return
		}
		if err := w.Flush(); err != nil {
			return
		}
		if n == 1 && s.DropFirst {
			return
		}
	}
}

// acceptHandshake runs the server side of the handshake.
func acceptHandshake(conn net.Conn) error {
	c0c1 := make([]byte, 1+rtmp.HandshakeSize)
	if _, err := io.ReadFull(conn, c0c1); err != nil {
		return err
	}
	s0s1 := make([]byte, 1+rtmp.HandshakeSize)
	s0s1[0] = rtmp.RTMPVersion
	if _, err := conn.Write(s0s1); err != nil {
		return err
	}
	c2 := make([]byte, rtmp.HandshakeSize)
	if _, err := io.ReadFull(conn, c2); err != nil {
		return err
	}
	_, err := conn.Write(c0c1[1:])
	return err
}
