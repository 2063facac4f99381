// Package daemonctl lets the CLI observe and drive a running daemon through
// its pid file and HTTP control surface.
package daemonctl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sys/unix"
)

// ErrNotRunning is returned when no live daemon owns the pid file.
var ErrNotRunning = errors.New("shuffler daemon is not running")

// ReadPID parses the pid file at path.
func ReadPID(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("invalid pid file %s", path)
	}
	return pid, nil
}

// ProcessInfo reports whether the process named by the pid file is alive.
// A missing pid file is reported as not running without error.
func ProcessInfo(pidPath string) (bool, int, error) {
	pid, err := ReadPID(pidPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, 0, nil
		}
		return false, 0, err
	}
	if err := unix.Kill(pid, 0); err != nil {
		if errors.Is(err, unix.ESRCH) {
			return false, pid, nil
		}
		if errors.Is(err, unix.EPERM) {
			return true, pid, nil
		}
		return false, pid, err
	}
	return true, pid, nil
}

// Stop sends SIGTERM to the daemon and waits for it to exit.
func Stop(pidPath string, timeout time.Duration) error {
	running, pid, err := ProcessInfo(pidPath)
	if err != nil {
		return err
	}
	if !running {
		return ErrNotRunning
	}
	if err := unix.Kill(pid, unix.SIGTERM); err != nil {
		return fmt.Errorf("signal daemon %d: %w", pid, err)
	}
	return WaitForShutdown(pidPath, timeout)
}

// WaitForShutdown polls until the daemon process is gone.
func WaitForShutdown(pidPath string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		running, _, err := ProcessInfo(pidPath)
		if err == nil && !running {
			return nil
		}
		time.Sleep(200 * time.Millisecond)
	}
	return fmt.Errorf("daemon did not stop within %s", timeout)
}

// ClientAddr converts a bind address into one a local client can dial.
func ClientAddr(bind string) string {
	host, port, err := net.SplitHostPort(strings.TrimSpace(bind))
	if err != nil {
		return bind
	}
	switch host {
	case "", "0.0.0.0":
		host = "127.0.0.1"
	case "::":
		host = "::1"
	}
	return net.JoinHostPort(host, port)
}

// Skip asks the daemon bound at bind to skip the current track.
func Skip(ctx context.Context, bind string) error {
	body, status, err := get(ctx, bind, "/skip")
	if err != nil {
		return err
	}
	if status != http.StatusOK || !strings.Contains(body, `http-equiv="refresh"`) {
		return fmt.Errorf("skip rejected: %s", strings.TrimSpace(stripTags(body)))
	}
	return nil
}

// Status fetches the daemon status page as plain text.
func Status(ctx context.Context, bind string) (string, error) {
	body, status, err := get(ctx, bind, "/")
	if err != nil {
		return "", err
	}
	if status != http.StatusOK {
		return "", fmt.Errorf("status request returned %d", status)
	}
	return strings.TrimSpace(stripTags(body)), nil
}

func get(ctx context.Context, bind, path string) (string, int, error) {
	reqCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, "http://"+ClientAddr(bind)+path, nil)
	if err != nil {
		return "", 0, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("contact daemon: %w", err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return "", resp.StatusCode, fmt.Errorf("read response: %w", err)
	}
	return string(data), resp.StatusCode, nil
}

// stripTags drops markup so the status page reads as text in a terminal.
func stripTags(s string) string {
	var b strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
			b.WriteByte(' ')
		case !inTag:
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
