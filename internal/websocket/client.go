package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	ws "github.com/coder/websocket"

	"github.com/dukerupert/mealplan/internal/apperr"
	"github.com/dukerupert/mealplan/internal/assistant"
)

const (
	sendBufferSize = 16
	pingInterval   = 30 * time.Second
	maxFrameBytes  = 64 << 10
)

// Responder answers one chat turn, keeping whatever history it needs.
type Responder interface {
	Send(ctx context.Context, content string) (*assistant.Reply, error)
}

// Turn is an inbound frame.
type Turn struct {
	Content string `json:"content"`
}

// Frame is an outbound frame: a reply or an error for the preceding turn.
type Frame struct {
	Type        string                 `json:"type"`
	Message     string                 `json:"message,omitempty"`
	ToolResults []assistant.ToolResult `json:"toolResults,omitempty"`
	Error       string                 `json:"error,omitempty"`
}

// Client represents a single chat connection.
type Client struct {
	hub       *Hub
	conn      *ws.Conn
	send      chan []byte
	responder Responder
	logger    *slog.Logger
}

// NewClient creates a Client tied to the given hub and connection.
func NewClient(hub *Hub, conn *ws.Conn, responder Responder, logger *slog.Logger) *Client {
	return &Client{
		hub:       hub,
		conn:      conn,
		send:      make(chan []byte, sendBufferSize),
		responder: responder,
		logger:    logger,
	}
}

// Run registers the client, starts the write pump, and runs the read pump.
// It blocks until the connection is closed, then unregisters.
func (c *Client) Run(ctx context.Context) {
	c.hub.Register(c)
	defer c.hub.Unregister(c)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go c.writePump(ctx, cancel)
	c.readPump(ctx)
}

// readPump answers turns one at a time. It returns on read error
// (connection close), which triggers cleanup.
func (c *Client) readPump(ctx context.Context) {
	c.conn.SetReadLimit(maxFrameBytes)
	for {
		typ, data, err := c.conn.Read(ctx)
		if err != nil {
			return
		}
		if typ != ws.MessageText {
			continue
		}
		if !c.enqueue(ctx, c.handleTurn(ctx, data)) {
			return
		}
	}
}

func (c *Client) handleTurn(ctx context.Context, data []byte) Frame {
	var turn Turn
	if err := json.Unmarshal(data, &turn); err != nil {
		return Frame{Type: "error", Error: "invalid message"}
	}
	if strings.TrimSpace(turn.Content) == "" {
		return Frame{Type: "error", Error: "content is required"}
	}

	reply, err := c.responder.Send(ctx, turn.Content)
	if err != nil {
		var e *apperr.Error
		if errors.As(err, &e) && e.Kind != apperr.Internal {
			return Frame{Type: "error", Error: e.Message}
		}
		c.logger.Error("chat turn failed", "error", err)
		return Frame{Type: "error", Error: "internal server error"}
	}
	return Frame{Type: "reply", Message: reply.Message, ToolResults: reply.ToolResults}
}

func (c *Client) enqueue(ctx context.Context, f Frame) bool {
	data, err := json.Marshal(f)
	if err != nil {
		c.logger.Error("marshal chat frame", "error", err)
		return false
	}
	select {
	case c.send <- data:
		return true
	case <-ctx.Done():
		return false
	}
}

// writePump drains the send channel and writes frames to the WebSocket.
// It also sends periodic pings to detect stale connections.
func (c *Client) writePump(ctx context.Context, cancel context.CancelFunc) {
	defer cancel()
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.Write(ctx, ws.MessageText, msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.Ping(ctx); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}
