// If you are AI: This file contains integration tests that run the roomlink binary end to end.

package itest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/exec"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// startStack builds the binary and starts it against rtmpPort. It returns the process, the HTTP
// port and the directory holding the config. The process is stopped on cleanup.
func startStack(t *testing.T, rtmpPort int) (*exec.Cmd, int, string) {
	t.Helper()
	if testing.Short() {
		t.Skip("integration test skipped in short mode")
	}

	dir := t.TempDir()
	binPath, err := BuildBinary(dir)
	if err != nil {
		t.Fatalf("Failed to build binary: %v", err)
	}
	httpPort, err := FreePort()
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	cmd, err := StartClient(ctx, binPath, dir, httpPort, rtmpPort)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if cmd.ProcessState == nil {
			cmd.Process.Kill()
			cmd.Wait()
		}
	})
	return cmd, httpPort, dir
}

// stopAndWait sends SIGINT and waits for a clean exit.
func stopAndWait(t *testing.T, cmd *exec.Cmd) {
	t.Helper()
	if err := cmd.Process.Signal(syscall.SIGINT); err != nil {
		t.Fatalf("Failed to send SIGINT: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Process exited with error: %v", err)
		}
	case <-time.After(5 * time.Second):
		cmd.Process.Kill()
		t.Fatal("Client did not exit within 5 seconds after SIGINT")
	}
}

func TestClientConnectsAndShutsDown(t *testing.T) {
	srv, err := NewRoomServer()
	if err != nil {
		t.Fatal(err)
	}
	defer srv.Close()

	cmd, httpPort, _ := startStack(t, srv.Port())

	if err := WaitForStatus(httpPort, http.StatusOK, 10*time.Second); err != nil {
		t.Fatalf("Primary session never became healthy: %v", err)
	}

	resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/api/sessions", httpPort))
	if err != nil {
		t.Fatalf("Failed to query sessions: %v", err)
	}
	defer resp.Body.Close()

	var body struct {
		Sessions []struct {
			Slot  string `json:"slot"`
			State string `json:"state"`
		} `json:"sessions"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode sessions: %v", err)
	}
	if len(body.Sessions) != 2 || body.Sessions[0].State != "connected" {
		t.Errorf("Unexpected sessions response: %+v", body.Sessions)
	}

	commands := srv.Commands()
	if len(commands) == 0 || commands[0] != "connect" {
		t.Errorf("Expected connect as the first command, got %v", commands)
	}

	stopAndWait(t, cmd)
}

func TestClientReconnectsAfterServerDrop(t *testing.T) {
	srv, err := NewRoomServer()
	if err != nil {
		t.Fatal(err)
	}
	srv.DropFirst = true
	defer srv.Close()

	cmd, httpPort, _ := startStack(t, srv.Port())

	deadline := time.Now().Add(10 * time.Second)
	for srv.Accepted() < 2 && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}
	if srv.Accepted() < 2 {
		t.Fatalf("Expected a reconnect, server accepted %d connections", srv.Accepted())
	}
	if err := WaitForStatus(httpPort, http.StatusOK, 10*time.Second); err != nil {
		t.Fatalf("Primary session never recovered: %v", err)
	}

	stopAndWait(t, cmd)
}

func TestHealthUnavailableWithoutServer(t *testing.T) {
	rtmpPort, err := FreePort()
	if err != nil {
		t.Fatal(err)
	}

	cmd, httpPort, _ := startStack(t, rtmpPort)

	if err := WaitForStatus(httpPort, http.StatusServiceUnavailable, 10*time.Second); err != nil {
		t.Fatalf("Expected 503 while no server is reachable: %v", err)
	}

	stopAndWait(t, cmd)
}

func TestEventStreamCarriesEchoedCall(t *testing.T) {
	srv, err := NewRoomServer()
	if err != nil {
		t.Fatal(err)
	}
	defer srv.Close()

	cmd, httpPort, _ := startStack(t, srv.Port())
	if err := WaitForStatus(httpPort, http.StatusOK, 10*time.Second); err != nil {
		t.Fatalf("Primary session never became healthy: %v", err)
	}

	wsURL := fmt.Sprintf("ws://127.0.0.1:%d/events?slot=primary", httpPort)
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect WebSocket: %v", err)
	}
	defer conn.Close()
	defer resp.Body.Close()

	call := `{"name":"privmsg","params":["hello"]}`
	callResp, err := http.Post(fmt.Sprintf("http://127.0.0.1:%d/api/call", httpPort), "application/json", strings.NewReader(call))
	if err != nil {
		t.Fatalf("Failed to post call: %v", err)
	}
	callResp.Body.Close()
	if callResp.StatusCode != http.StatusAccepted {
		t.Fatalf("Expected status 202, got %d", callResp.StatusCode)
	}

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("No echoed privmsg on the event stream: %v (server saw %v)", err, srv.Commands())
		}
		var frame struct {
			Kind    string        `json:"kind"`
			Slot    string        `json:"slot"`
			Command string        `json:"command"`
			Values  []interface{} `json:"values"`
		}
		if err := json.Unmarshal(data, &frame); err != nil {
			t.Fatalf("Failed to decode frame: %v", err)
		}
		if frame.Kind == "message" && frame.Command == "privmsg" {
			if frame.Slot != "primary" || len(frame.Values) != 4 || frame.Values[3] != "hello" {
				t.Errorf("Unexpected frame: %+v", frame)
			}
			break
		}
	}

	stopAndWait(t, cmd)
}
