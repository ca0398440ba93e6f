package wss

import (
	"context"
	"log/slog"
	"sync"
)

// hub 管理所有連線與訂閱者，ctx 結束時關閉全部連線
type hub struct {
	ctx    context.Context
	logger *slog.Logger

	mu          sync.RWMutex
	clients     map[*connection]struct{}
	subscribers []Subscriber
}

func newHub(ctx context.Context, logger *slog.Logger) *hub {
	return &hub{
		ctx:     ctx,
		logger:  logger,
		clients: make(map[*connection]struct{}),
	}
}

func (h *hub) run() {
	<-h.ctx.Done()

	h.mu.RLock()
	clients := make([]*connection, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	h.logger.Info("Hub stopping, closing connections", "count", len(clients))
	for _, c := range clients {
		_ = c.Kick("server shutdown")
	}
}

func (h *hub) registerSubscriber(s Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subscribers = append(h.subscribers, s)
}

func (h *hub) snapshotSubscribers() []Subscriber {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]Subscriber(nil), h.subscribers...)
}

// register 加入連線並同步通知 OnConnect，呼叫端需在此之後才啟動 pump
func (h *hub) register(c *connection) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	for _, s := range h.snapshotSubscribers() {
		s.OnConnect(c)
	}
}

// unregister 移除連線，只有第一次移除會通知 OnDisconnect
func (h *hub) unregister(c *connection) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()

	if !ok {
		return
	}
	for _, s := range h.snapshotSubscribers() {
		s.OnDisconnect(c)
	}
}

func (h *hub) dispatchMessage(c *connection, msg []byte) {
	for _, s := range h.snapshotSubscribers() {
		s.OnMessage(c, msg)
	}
}

func (h *hub) count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
