//go:build unix

// main_unix_test.go
package main

import (
	"bytes"
	"context"
	"io"
	"strconv"
	"syscall"
	"testing"
	"time"

	"tcpchat/internal/wire"
)

func TestTerminateSignalLogsOut(t *testing.T) {
	cfgPath := isolate(t)
	srv := setupTestServer(t)

	in, w := io.Pipe()
	defer w.Close()

	var out, errOut bytes.Buffer
	args := []string{
		"--config", cfgPath,
		"--ip", srv.Host(),
		"--port", strconv.Itoa(srv.Port()),
		"--name", "alice",
	}
	errc := make(chan error, 1)
	go func() { errc <- execute(context.Background(), args, in, &out, &errOut) }()

	// The login frame is sent after the signal handler is installed.
	login, err := srv.Expect(messageTimeout)
	if err != nil {
		t.Fatalf("No login frame: %v", err)
	}
	if login.Type != wire.TypeLogin {
		t.Fatalf("Expected LOGIN, got %v", login.Type)
	}

	if err := syscall.Kill(syscall.Getpid(), syscall.SIGTERM); err != nil {
		t.Fatalf("Kill failed: %v", err)
	}

	select {
	case err := <-errc:
		if err != nil {
			t.Fatalf("Expected clean exit after SIGTERM, got %v", err)
		}
	case <-time.After(messageTimeout):
		t.Fatal("SIGTERM did not end the session")
	}

	logout, err := srv.Expect(messageTimeout)
	if err != nil {
		t.Fatalf("No logout frame: %v", err)
	}
	if logout.Type != wire.TypeLogout || logout.Username != "alice" {
		t.Errorf("Unexpected logout frame: %+v", logout)
	}
}
