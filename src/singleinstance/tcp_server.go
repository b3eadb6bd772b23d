package singleinstance

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Request is one accepted TRIGGER connection waiting for its outcome.
type Request struct {
	c      net.Conn
	w      *bufio.Writer
	remote string
	once   sync.Once
}

// Remote returns the peer address.
func (r *Request) Remote() string { return r.remote }

// Respond sends the outcome name and closes the connection.
func (r *Request) Respond(result string) error {
	return r.finish("OK " + result + "\n")
}

// RespondError sends an error message and closes the connection.
func (r *Request) RespondError(msg string) error {
	return r.finish("ERROR " + msg + "\n")
}

func (r *Request) finish(line string) error {
	err := net.ErrClosed
	r.once.Do(func() {
		defer r.c.Close()
		if _, err = r.w.WriteString(line); err != nil {
			return
		}
		err = r.w.Flush()
	})
	return err
}

// Server owns the loopback port for the lifetime of the resident process.
type Server struct {
	port     int
	lis      net.Listener
	incoming chan *Request
	done     chan struct{}
	closeMu  sync.Once
}

// NewServer prepares a server for the given port; 0 selects DefaultPort.
func NewServer(port int) *Server {
	return &Server{
		port:     normalizePort(port),
		incoming: make(chan *Request, 8),
		done:     make(chan struct{}),
	}
}

// Start binds the port. If it is taken by a live resident, ErrAlreadyRunning
// is returned.
func (s *Server) Start(ctx context.Context) error {
	if s.lis != nil {
		return nil
	}
	addr := net.JoinHostPort(residentHost, strconv.Itoa(s.port))
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		if ping(addr, 300*time.Millisecond) {
			return fmt.Errorf("%w on %s", ErrAlreadyRunning, addr)
		}
		log.Error().Err(err).Str("addr", addr).Msg("singleinstance: bind failed")
		return err
	}
	s.lis = lis
	log.Info().Str("addr", addr).Msg("singleinstance: listening")
	go s.acceptLoop(ctx)
	return nil
}

// Port returns the configured port.
func (s *Server) Port() int { return s.port }

// Requests yields accepted TRIGGER requests. The channel is never closed;
// select on ctx alongside it.
func (s *Server) Requests() <-chan *Request { return s.incoming }

func (s *Server) acceptLoop(ctx context.Context) {
	for {
		c, err := s.lis.Accept()
		if err != nil {
			return
		}
		go s.handle(ctx, c)
	}
}

func (s *Server) handle(ctx context.Context, c net.Conn) {
	remote := c.RemoteAddr().String()
	_ = c.SetDeadline(time.Now().Add(3 * time.Second))
	line, _ := bufio.NewReader(c).ReadString('\n')
	bw := bufio.NewWriter(c)

	switch line {
	case pingRequest:
		log.Debug().Str("remote", remote).Msg("singleinstance: PING -> PONG")
		_, _ = bw.WriteString(pongResponse)
		_ = bw.Flush()
		_ = c.Close()
	case triggerLine:
		// The picker can stay open for as long as the user likes.
		_ = c.SetDeadline(time.Time{})
		log.Info().Str("remote", remote).Msg("singleinstance: trigger request")
		req := &Request{c: c, w: bw, remote: remote}
		select {
		case s.incoming <- req:
		case <-ctx.Done():
			_ = req.RespondError("shutting down")
		case <-s.done:
			_ = req.RespondError("shutting down")
		}
	default:
		log.Warn().Str("remote", remote).Str("line", line).Msg("singleinstance: unknown request")
		_, _ = bw.WriteString("ERROR unknown request\n")
		_ = bw.Flush()
		_ = c.Close()
	}
}

// Close stops accepting clients.
func (s *Server) Close() error {
	var err error
	s.closeMu.Do(func() {
		close(s.done)
		if s.lis != nil {
			err = s.lis.Close()
		}
	})
	return err
}
