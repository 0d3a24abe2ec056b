// Copyright 2026 The QUDAH Authors
// SPDX-License-Identifier: Apache-2.0

package control

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/qudah-works/qudah/lib/codec"
)

// HandlerFunc processes one request for a specific action. raw is the
// full CBOR request including the "action" field; handlers decode
// their action-specific fields from it. A non-nil result is marshaled
// into the response's "data" field; an error becomes a failure
// response.
type HandlerFunc func(ctx context.Context, raw []byte) (any, error)

// response is the wire envelope for every reply.
type response struct {
	OK    bool             `cbor:"ok"`
	Error string           `cbor:"error,omitempty"`
	Data  codec.RawMessage `cbor:"data,omitempty"`
}

// Protocol limits. CBOR is self-delimiting, so no framing is needed;
// the size cap keeps a misbehaving client from exhausting memory.
const (
	maxRequestSize = 64 * 1024
	ioTimeout      = 10 * time.Second
)

// Server serves the admin protocol on a unix socket. Each accepted
// connection handles exactly one request-response cycle. Register
// actions with Handle before Serve.
type Server struct {
	path     string
	handlers map[string]HandlerFunc
	logger   *slog.Logger
	inFlight sync.WaitGroup
}

// NewServer creates a Server that will listen on path.
func NewServer(path string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		path:     path,
		handlers: make(map[string]HandlerFunc),
		logger:   logger,
	}
}

// Handle registers a handler for an action name. Panics on duplicate
// registration.
func (s *Server) Handle(action string, handler HandlerFunc) {
	if _, exists := s.handlers[action]; exists {
		panic(fmt.Sprintf("control: duplicate handler for action %q", action))
	}
	s.handlers[action] = handler
}

// Serve accepts connections until ctx is cancelled, then waits for
// in-flight requests before returning. A stale socket file at the
// path is removed before listening, and the socket file is removed on
// return.
func (s *Server) Serve(ctx context.Context) error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("control: removing stale socket %s: %w", s.path, err)
	}

	listener, err := net.Listen("unix", s.path)
	if err != nil {
		return fmt.Errorf("control: listening on %s: %w", s.path, err)
	}
	defer func() {
		listener.Close()
		os.Remove(s.path)
	}()

	// Unblock Accept on cancellation.
	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	s.logger.Info("control socket listening", "path", s.path)

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				break
			}
			s.logger.Error("control accept failed", "error", err)
			continue
		}
		s.inFlight.Add(1)
		go func() {
			defer s.inFlight.Done()
			s.serveConn(ctx, conn)
		}()
	}

	s.inFlight.Wait()
	return nil
}

// serveConn runs one request-response cycle.
func (s *Server) serveConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(ioTimeout))

	var raw codec.RawMessage
	if err := codec.NewDecoder(io.LimitReader(conn, maxRequestSize)).Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return
		}
		s.reply(conn, response{Error: fmt.Sprintf("invalid request: %v", err)})
		return
	}

	var header struct {
		Action string `cbor:"action"`
	}
	if err := codec.Unmarshal(raw, &header); err != nil {
		s.reply(conn, response{Error: fmt.Sprintf("invalid request: %v", err)})
		return
	}
	if header.Action == "" {
		s.reply(conn, response{Error: "missing required field: action"})
		return
	}

	handler, exists := s.handlers[header.Action]
	if !exists {
		s.reply(conn, response{Error: fmt.Sprintf("unknown action %q", header.Action)})
		return
	}

	result, err := handler(ctx, []byte(raw))
	if err != nil {
		s.logger.Debug("control action failed", "action", header.Action, "error", err)
		s.reply(conn, response{Error: err.Error()})
		return
	}

	reply := response{OK: true}
	if result != nil {
		data, err := codec.Marshal(result)
		if err != nil {
			s.reply(conn, response{Error: fmt.Sprintf("internal: marshaling response: %v", err)})
			return
		}
		reply.Data = data
	}
	s.reply(conn, reply)
}

// reply writes one response envelope. Write failures are logged at
// debug level; the connection is closing regardless.
func (s *Server) reply(conn net.Conn, r response) {
	conn.SetWriteDeadline(time.Now().Add(ioTimeout))
	if err := codec.NewEncoder(conn).Encode(r); err != nil {
		s.logger.Debug("writing control response", "error", err)
	}
}
