package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"mining_webapp/internal/logger"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 30 * time.Second
	pingPeriod = 25 * time.Second
	// one status poll every few seconds is the expected load
	requestTimeout = 10 * time.Second
)

// Dispatcher answers one client request.
type Dispatcher interface {
	Handle(ctx context.Context, userID int64, req Request) Response
}

type Client struct {
	UserID int64
	Conn   *websocket.Conn
	Send   chan []byte

	hub      *Hub
	dispatch Dispatcher

	closeOnce sync.Once
	done      chan struct{}
}

func NewClient(userID int64, conn *websocket.Conn, hub *Hub, dispatch Dispatcher) *Client {
	return &Client{
		UserID:   userID,
		Conn:     conn,
		Send:     make(chan []byte, 64),
		hub:      hub,
		dispatch: dispatch,
		done:     make(chan struct{}),
	}
}

// Run serves the connection until the client disconnects.
func (c *Client) Run() {
	c.hub.register(c)
	go c.writePump()

	c.reply(Response{Type: MsgReady, Success: true})
	c.readPump()
}

func (c *Client) trySend(msg []byte) {
	select {
	case <-c.done:
	case c.Send <- msg:
	default:
		logger.Warn("ws: send buffer full, dropping message", "user_id", c.UserID)
	}
}

func (c *Client) reply(r Response) {
	msg, err := json.Marshal(r)
	if err != nil {
		logger.Error("ws: marshal response", "error", err, "type", r.Type)
		return
	}
	c.trySend(msg)
}

//read
func (c *Client) readPump() {
	defer c.disconnect()

	c.Conn.SetReadLimit(4096)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, msg, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("ws: read error", "user_id", c.UserID, "error", err)
			}
			return
		}
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))

		var req Request
		if err := json.Unmarshal(msg, &req); err != nil {
			c.reply(Response{Type: MsgError, Message: "invalid message"})
			continue
		}
		if req.Type == MsgPing {
			c.reply(Response{Type: MsgPong, ID: req.ID, Success: true})
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		resp := c.dispatch.Handle(ctx, c.UserID, req)
		cancel()
		resp.ID = req.ID
		c.reply(resp)
	}
}

//write
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case <-c.done:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case msg := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				logger.Warn("ws: write error", "user_id", c.UserID, "error", err)
				c.disconnect()
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.disconnect()
				return
			}
		}
	}
}

//disconnect
func (c *Client) disconnect() {
	c.closeOnce.Do(func() {
		c.hub.unregister(c)
		close(c.done)
		_ = c.Conn.Close()
	})
}
