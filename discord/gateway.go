// Copyright 2026 The QUDAH Authors
// SPDX-License-Identifier: Apache-2.0

package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/klauspost/compress/zlib"
)

// Gateway intents requested by the daemon.
const (
	IntentGuilds         = 1 << 0
	IntentGuildWebhooks  = 1 << 5
	IntentGuildMessages  = 1 << 9
	IntentMessageContent = 1 << 15
)

// Gateway opcodes.
const (
	opDispatch       = 0
	opHeartbeat      = 1
	opIdentify       = 2
	opReconnect      = 7
	opInvalidSession = 9
	opHello          = 10
	opHeartbeatACK   = 11
)

// Ready is the payload of the READY dispatch event.
type Ready struct {
	SessionID   string `json:"session_id"`
	User        User   `json:"user"`
	Application struct {
		ID string `json:"id"`
	} `json:"application"`
}

// GatewayConfig holds configuration for creating a Gateway.
//
// Handlers are invoked on a fresh goroutine per event, so two
// messages arriving back to back are processed concurrently; the
// consumer is responsible for its own exclusion (the submission
// arbiter's busy guard depends on exactly this).
type GatewayConfig struct {
	// Client is used to discover the gateway URL.
	Client *Client
	// Token authenticates the gateway session.
	Token string
	// Intents selects which event families the session receives.
	Intents int
	// Logger is used for structured logging. If nil, slog.Default()
	// is used.
	Logger *slog.Logger

	OnReady             func(Ready)
	OnMessageCreate     func(Message)
	OnInteractionCreate func(Interaction)
}

// Gateway is a long-lived event-stream connection. Run blocks,
// reconnecting with backoff, until the context is cancelled.
type Gateway struct {
	config GatewayConfig
	logger *slog.Logger
}

// NewGateway creates a Gateway. The connection is established by Run.
func NewGateway(config GatewayConfig) (*Gateway, error) {
	if config.Client == nil {
		return nil, fmt.Errorf("discord: gateway Client is required")
	}
	if config.Token == "" {
		return nil, fmt.Errorf("discord: gateway Token is required")
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{config: config, logger: logger}, nil
}

// reconnect backoff bounds.
const (
	minReconnectDelay = time.Second
	maxReconnectDelay = time.Minute
)

// Run connects to the gateway and pumps events to the configured
// handlers until ctx is cancelled. Connection failures are logged and
// retried with doubling backoff.
func (g *Gateway) Run(ctx context.Context) error {
	delay := minReconnectDelay
	for {
		connectedAt := time.Now()
		err := g.runConnection(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		// A connection that lived a while earns a fresh backoff.
		if time.Since(connectedAt) > time.Minute {
			delay = minReconnectDelay
		}
		g.logger.Warn("gateway connection lost, reconnecting",
			"error", err,
			"retry_in", delay,
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay = min(delay*2, maxReconnectDelay)
	}
}

// gatewayURLResponse is the body of GET /gateway/bot.
type gatewayURLResponse struct {
	URL string `json:"url"`
}

// payload is the universal gateway frame.
type payload struct {
	Op   int             `json:"op"`
	Data json.RawMessage `json:"d,omitempty"`
	Seq  int64           `json:"s,omitempty"`
	Type string          `json:"t,omitempty"`
}

// helloData is the op 10 payload.
type helloData struct {
	HeartbeatInterval int `json:"heartbeat_interval"`
}

// identifyData is the op 2 payload.
type identifyData struct {
	Token      string `json:"token"`
	Intents    int    `json:"intents"`
	Compress   bool   `json:"compress"`
	Properties struct {
		OS      string `json:"os"`
		Browser string `json:"browser"`
		Device  string `json:"device"`
	} `json:"properties"`
}

// runConnection performs one dial/identify/read cycle. Returns when
// the connection drops, the server asks for a reconnect, or ctx is
// cancelled.
func (g *Gateway) runConnection(ctx context.Context) error {
	var discovered gatewayURLResponse
	if err := g.config.Client.get(ctx, "/gateway/bot", &discovered); err != nil {
		return fmt.Errorf("discovering gateway URL: %w", err)
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx,
		discovered.URL+"/?v=10&encoding=json", nil)
	if err != nil {
		return fmt.Errorf("dialing gateway: %w", err)
	}
	defer conn.Close()

	// Unblock reads when the context is cancelled.
	connCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		<-connCtx.Done()
		conn.Close()
	}()

	hello, err := readPayload(conn)
	if err != nil {
		return fmt.Errorf("reading hello: %w", err)
	}
	if hello.Op != opHello {
		return fmt.Errorf("expected hello (op %d), got op %d", opHello, hello.Op)
	}
	var helloBody helloData
	if err := json.Unmarshal(hello.Data, &helloBody); err != nil {
		return fmt.Errorf("parsing hello: %w", err)
	}

	session := &gatewaySession{conn: conn, logger: g.logger}

	identify := identifyData{
		Token:    g.config.Token,
		Intents:  g.config.Intents,
		Compress: true,
	}
	identify.Properties.OS = "linux"
	identify.Properties.Browser = "qudah"
	identify.Properties.Device = "qudah"
	if err := session.send(opIdentify, identify); err != nil {
		return fmt.Errorf("sending identify: %w", err)
	}

	heartbeat := time.Duration(helloBody.HeartbeatInterval) * time.Millisecond
	go session.heartbeatLoop(connCtx, heartbeat)

	for {
		message, err := readPayload(conn)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("reading gateway payload: %w", err)
		}

		switch message.Op {
		case opDispatch:
			session.setSeq(message.Seq)
			g.dispatch(message)
		case opHeartbeat:
			if err := session.sendHeartbeat(); err != nil {
				return fmt.Errorf("answering heartbeat request: %w", err)
			}
		case opHeartbeatACK:
			// Nothing to do.
		case opReconnect:
			return fmt.Errorf("server requested reconnect")
		case opInvalidSession:
			return fmt.Errorf("server invalidated the session")
		default:
			g.logger.Debug("ignoring gateway opcode", "op", message.Op)
		}
	}
}

// dispatch fans a dispatch payload out to the matching handler on a
// new goroutine. Unknown event types are ignored; the intents keep
// the stream narrow, but Discord still sends lifecycle noise.
func (g *Gateway) dispatch(message payload) {
	switch message.Type {
	case "READY":
		if g.config.OnReady == nil {
			return
		}
		var ready Ready
		if err := json.Unmarshal(message.Data, &ready); err != nil {
			g.logger.Error("parsing READY", "error", err)
			return
		}
		go g.config.OnReady(ready)
	case "MESSAGE_CREATE":
		if g.config.OnMessageCreate == nil {
			return
		}
		var msg Message
		if err := json.Unmarshal(message.Data, &msg); err != nil {
			g.logger.Error("parsing MESSAGE_CREATE", "error", err)
			return
		}
		go g.config.OnMessageCreate(msg)
	case "INTERACTION_CREATE":
		if g.config.OnInteractionCreate == nil {
			return
		}
		var interaction Interaction
		if err := json.Unmarshal(message.Data, &interaction); err != nil {
			g.logger.Error("parsing INTERACTION_CREATE", "error", err)
			return
		}
		go g.config.OnInteractionCreate(interaction)
	}
}

// gatewaySession serializes writes to one websocket connection and
// tracks the last dispatch sequence for heartbeats.
type gatewaySession struct {
	conn   *websocket.Conn
	logger *slog.Logger

	mu  sync.Mutex
	seq int64
}

func (s *gatewaySession) setSeq(seq int64) {
	s.mu.Lock()
	s.seq = seq
	s.mu.Unlock()
}

// send writes one JSON payload. Writes are mutex-serialized because
// the heartbeat loop and the read loop both send.
func (s *gatewaySession) send(op int, data any) error {
	encoded, err := json.Marshal(data)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteJSON(payload{Op: op, Data: encoded})
}

// sendHeartbeat sends op 1 carrying the last seen sequence number.
func (s *gatewaySession) sendHeartbeat() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteJSON(payload{Op: opHeartbeat, Data: json.RawMessage(
		fmt.Sprintf("%d", s.seq))})
}

// heartbeatLoop sends heartbeats at the interval the server asked
// for. A failed write closes the connection, which surfaces in the
// read loop.
func (s *gatewaySession) heartbeatLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.sendHeartbeat(); err != nil {
				s.logger.Debug("heartbeat write failed", "error", err)
				s.conn.Close()
				return
			}
		}
	}
}

// readPayload reads one gateway frame. Binary frames are
// zlib-compressed JSON (the session identifies with compress=true);
// text frames are plain JSON.
func readPayload(conn *websocket.Conn) (payload, error) {
	messageType, data, err := conn.ReadMessage()
	if err != nil {
		return payload{}, err
	}

	if messageType == websocket.BinaryMessage {
		reader, err := zlib.NewReader(bytes.NewReader(data))
		if err != nil {
			return payload{}, fmt.Errorf("opening zlib payload: %w", err)
		}
		data, err = io.ReadAll(reader)
		reader.Close()
		if err != nil {
			return payload{}, fmt.Errorf("inflating payload: %w", err)
		}
	}

	var message payload
	if err := json.Unmarshal(data, &message); err != nil {
		return payload{}, fmt.Errorf("parsing gateway payload: %w", err)
	}
	return message, nil
}
