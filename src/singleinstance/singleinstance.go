// Package singleinstance guards against two resident processes and lets a
// second invocation ask the resident one to open the picker.
//
// The protocol is line based over loopback TCP:
//
//	PING\n     -> PONG\n
//	TRIGGER\n  -> OK <result>\n | ERROR <message>\n
package singleinstance

import (
	"errors"
)

const (
	residentHost = "127.0.0.1"
	pingRequest  = "PING\n"
	pongResponse = "PONG\n"
	triggerLine  = "TRIGGER\n"

	// DefaultPort is used when no port is configured.
	DefaultPort = 49600
)

var (
	// ErrAlreadyRunning means another process owns the port and answered PING.
	ErrAlreadyRunning = errors.New("another instance is already running")
	// ErrNoResident means nothing answered on the port.
	ErrNoResident = errors.New("no resident instance")
)

// normalizePort clamps a configured port to the unprivileged range.
func normalizePort(port int) int {
	if port <= 0 {
		return DefaultPort
	}
	if port < 1024 {
		return 1024
	}
	if port > 65535 {
		return 65535
	}
	return port
}
