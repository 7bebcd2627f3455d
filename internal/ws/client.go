package ws

import (
	"encoding/json"
	"time"

	"ludo_arena/internal/logger"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 30 * time.Second
	pingPeriod = 25 * time.Second

	sendTimeout = 2 * time.Second
)

// Одно живое соединение игрока. Один пользователь может держать
// несколько соединений (вкладок) - их различает ConnID.
type Client struct {
	ConnID      string
	UserID      int64
	DisplayName string

	Conn *websocket.Conn
	Send chan []byte
	Done chan struct{}

	Hub *Hub
}

func NewClient(userID int64, displayName string, conn *websocket.Conn, hub *Hub) *Client {
	return &Client{
		ConnID:      uuid.NewString(),
		UserID:      userID,
		DisplayName: displayName,
		Conn:        conn,
		Send:        make(chan []byte, 256),
		Done:        make(chan struct{}),
		Hub:         hub,
	}
}

func (c *Client) Run() {
	go c.writePump()
	go c.readPump()
	<-c.Done
}

// send сериализует и ставит сообщение в очередь отправки,
// не зависая на мертвом соединении
func (c *Client) send(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		logger.Error("client: ошибка сериализации", "user", c.UserID, "error", err)
		return
	}
	select {
	case c.Send <- data:
	case <-c.Done:
	case <-time.After(sendTimeout):
		logger.Warn("client: таймаут отправки", "user", c.UserID, "type", msg.Type)
	}
}

func (c *Client) sendError(err error) {
	c.send(errorMessage(err))
}

// read
func (c *Client) readPump() {
	defer func() {
		c.Hub.OnDisconnect(c)
		close(c.Done)
		_ = c.Conn.Close()
	}()

	c.Conn.SetReadLimit(4096)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, msg, err := c.Conn.ReadMessage()
		if err != nil {
			logger.Debug("client: соединение закрыто", "user", c.UserID, "error", err)
			return
		}
		c.Hub.Route(c, msg)
	}
}

// write
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.Done:
			return
		}
	}
}
