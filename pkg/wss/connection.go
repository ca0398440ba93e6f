package wss

import (
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var (
	// ErrConnectionClosed 連線已關閉
	ErrConnectionClosed = errors.New("wss: connection closed")
	// ErrSendBufferFull 待送佇列已滿
	ErrSendBufferFull = errors.New("wss: send buffer full")
)

var _ Client = (*connection)(nil)

// connection 封裝 gorilla websocket 連線。
// 讀取在 readPump、寫入在 writePump，各自只有一個 goroutine 操作底層連線。
type connection struct {
	id         string
	remoteAddr string
	hub        *hub
	conn       *websocket.Conn
	send       chan []byte
	tags       sync.Map

	closeOnce sync.Once
	done      chan struct{}
	logger    *slog.Logger
}

func newConnection(h *hub, conn *websocket.Conn, r *http.Request, sendBuffer int, logger *slog.Logger) *connection {
	id := uuid.NewString()
	return &connection{
		id:         id,
		remoteAddr: r.RemoteAddr,
		hub:        h,
		conn:       conn,
		send:       make(chan []byte, sendBuffer),
		done:       make(chan struct{}),
		logger:     logger.With("conn_id", id),
	}
}

func (c *connection) ID() string { return c.id }

func (c *connection) RemoteAddr() string { return c.remoteAddr }

func (c *connection) SetTag(key string, value any) { c.tags.Store(key, value) }

func (c *connection) GetTag(key string) (any, bool) { return c.tags.Load(key) }

// SendMessage 放入待送佇列，不等待實際寫出
func (c *connection) SendMessage(msg string) error {
	select {
	case <-c.done:
		return ErrConnectionClosed
	default:
	}

	select {
	case c.send <- []byte(msg):
		return nil
	case <-c.done:
		return ErrConnectionClosed
	default:
		c.logger.Warn("Send buffer full, dropping message")
		return ErrSendBufferFull
	}
}

// Kick 送出 Close Frame 後關閉連線
func (c *connection) Kick(reason string) error {
	select {
	case <-c.done:
		return ErrConnectionClosed
	default:
	}
	msg := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason)
	err := c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	c.close()
	return err
}

// close 只執行一次：停止 writePump 並關閉底層連線 (readPump 隨之結束)
func (c *connection) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

func (c *connection) readPump(cfg *Config) {
	defer func() {
		c.hub.unregister(c)
		c.close()
	}()

	c.conn.SetReadLimit(cfg.MaxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(cfg.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(cfg.PongWait))
	})

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				c.logger.Warn("Unexpected close", "error", err)
			}
			return
		}
		c.hub.dispatchMessage(c, msg)
	}
}

func (c *connection) writePump(cfg *Config) {
	ticker := time.NewTicker(cfg.PingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case <-c.done:
			return
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(cfg.WriteWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.logger.Debug("Write failed", "error", err)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(cfg.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
