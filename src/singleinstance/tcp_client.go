package singleinstance

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
)

// Detect reports whether a resident answers PING on port.
func Detect(ctx context.Context, port int) bool {
	addr := net.JoinHostPort(residentHost, strconv.Itoa(normalizePort(port)))
	return ping(addr, timeoutFrom(ctx, 300*time.Millisecond))
}

// Trigger asks the resident on port to run one capture session and returns
// the outcome name it reports. ErrNoResident is returned if nobody answers.
func Trigger(ctx context.Context, port int) (string, error) {
	addr := net.JoinHostPort(residentHost, strconv.Itoa(normalizePort(port)))
	if !ping(addr, timeoutFrom(ctx, 300*time.Millisecond)) {
		return "", ErrNoResident
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoResident, err)
	}
	defer conn.Close()
	if dl, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(dl)
	}
	stop := context.AfterFunc(ctx, func() { _ = conn.SetDeadline(time.Now()) })
	defer stop()

	w := bufio.NewWriter(conn)
	if _, err := w.WriteString(triggerLine); err != nil {
		return "", err
	}
	if err := w.Flush(); err != nil {
		return "", err
	}
	status, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", err
	}
	status = strings.TrimSuffix(status, "\n")
	switch {
	case strings.HasPrefix(status, "OK "):
		return strings.TrimPrefix(status, "OK "), nil
	case strings.HasPrefix(status, "ERROR "):
		return "", errors.New(strings.TrimPrefix(status, "ERROR "))
	}
	return "", fmt.Errorf("unexpected response %q", status)
}

func timeoutFrom(ctx context.Context, def time.Duration) time.Duration {
	if dl, ok := ctx.Deadline(); ok {
		if d := time.Until(dl); d > 0 && d < def {
			return d
		}
	}
	return def
}

func ping(addr string, timeout time.Duration) bool {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return false
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(timeout))
	w := bufio.NewWriter(conn)
	if _, err := w.WriteString(pingRequest); err != nil {
		return false
	}
	if err := w.Flush(); err != nil {
		return false
	}
	resp, err := bufio.NewReader(conn).ReadString('\n')
	return err == nil && resp == pongResponse
}
