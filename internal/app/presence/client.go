package presence

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"dancefloor/internal/pkg/errs"
	"dancefloor/internal/pkg/logx"
	"dancefloor/internal/pkg/randx"
)

const (
	// timeout duration for writing to the WebSocket connection.
	writeWait = 10 * time.Second

	// maximum time allowed for the server to wait for a Pong message from the client.
	pongWait = 60 * time.Second

	// frequency at which the server sends a Ping message.
	pingPeriod = (pongWait * 9) / 10

	// maximum allowed size (in bytes) of a message sent by the client.
	maxMessageSize = 4096

	// sendBuffer is the number of outbound events queued per connection before new ones are dropped.
	sendBuffer = 256
)

// Client is one WebSocket connection. It implements Peer.
type Client struct {
	// id is minted on construction and never reused.
	id string

	floor *Floor
	conn  *websocket.Conn

	// send queues encoded events for WritePump. It is closed exactly once, by Close.
	send   chan []byte
	mu     sync.Mutex
	closed bool

	logger zerolog.Logger
}

// NewClient wraps conn with a fresh connection id.
func NewClient(floor *Floor, conn *websocket.Conn) *Client {
	id := randx.ConnectionID()

	return &Client{
		id:     id,
		floor:  floor,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		logger: logx.Logger().With().Str("conn_id", id).Logger(),
	}
}

// ID returns the connection identity.
func (c *Client) ID() string {
	return c.id
}

// Send queues msg for delivery without blocking. It returns false when the queue is full or closed.
func (c *Client) Send(msg []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}

	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// Close ends the outbound queue; WritePump then sends a close frame and exits.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// ReadPump reads events until the connection fails, then reports the disconnect to the Floor.
func (c *Client) ReadPump() {
	defer c.cleanupOnDisconnect()

	c.conn.SetReadLimit(maxMessageSize)

	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set read deadline")
		return
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, messageBytes, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Info().Err(err).Msg("Error reading message (Client close/going away)")
			}
			break
		}

		c.processInboundMessage(messageBytes)
	}
}

func (c *Client) cleanupOnDisconnect() {
	c.logger.Debug().Msg("Client connection cleanup starting.")

	if !c.floor.Disconnect(c.id) {
		c.Close()
	}

	if err := c.conn.Close(); err != nil {
		c.logger.Debug().Err(err).Msg("Client connection close error")
	}
}

// processInboundMessage dispatches one client frame. Malformed frames are answered with an error event.
func (c *Client) processInboundMessage(messageBytes []byte) {
	env, err := DecodeEnvelope(messageBytes)
	if err != nil {
		c.logger.Warn().Err(err).
			Bytes("message_bytes", messageBytes).
			Msg("Client sent invalid envelope")
		c.sendError(errs.NewError(errs.ErrInvalidJSONFormat))
		return
	}

	switch env.Type {
	case EventJoin:
		name, err := DecodePayload[string](env)
		if err != nil {
			c.logger.Warn().Err(err).Msg("Client sent invalid join payload")
			c.sendError(errs.NewError(errs.ErrInvalidParams))
			return
		}
		c.floor.Join(c.id, name)

	case EventMove:
		pos, err := DecodePayload[MovePayload](env)
		if err != nil || pos.X == nil || pos.Y == nil {
			c.logger.Warn().Err(err).Str("payload", string(env.Payload)).Msg("Client sent invalid move payload")
			c.sendError(errs.NewError(errs.ErrInvalidParams))
			return
		}
		c.floor.Move(c.id, *pos.X, *pos.Y)

	case EventChangeAvatar:
		c.floor.ChangeAvatar(c.id)

	default:
		c.logger.Warn().Str("msg_type", string(env.Type)).Msg("Client sent unsupported event type")
	}
}

// sendError reports a malformed request to this connection only.
func (c *Client) sendError(customErr *errs.CustomError) {
	msg, err := EncodeEvent(EventError, ErrorPayload{Code: customErr.Code, Message: customErr.Message})
	if err != nil {
		c.logger.Error().Err(err).Msg("Failed to build error event")
		return
	}

	if !c.Send(msg) {
		c.logger.Warn().Msg("Failed to queue error event")
	}
}

// WritePump writes queued events and periodic pings until the queue is closed or a write fails.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()

		if err := c.conn.Close(); err != nil {
			c.logger.Debug().Err(err).Msg("Client connection close error in WritePump")
		}
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !c.writeQueuedMessage(message, ok) {
				return
			}

		case <-ticker.C:
			if !c.writePingMessage() {
				return
			}
		}
	}
}

// writeQueuedMessage returns false when WritePump should stop.
func (c *Client) writeQueuedMessage(message []byte, ok bool) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline")
		return false
	}

	if !ok {
		if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
			c.logger.Debug().Err(err).Msg("Error writing close message")
		}
		return false
	}

	if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
		c.logger.Warn().Err(err).Msg("Error writing message")
		return false
	}

	return true
}

func (c *Client) writePingMessage() bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline on ping")
		return false
	}

	if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
		c.logger.Warn().Err(err).Msg("Error writing ping")
		return false
	}

	return true
}
