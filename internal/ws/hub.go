package ws

import (
	"encoding/json"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// Hub fans change notifications out to every connected websocket client.
// Only the run loop writes to or closes a client's send channel.
type Hub struct {
	log *zap.Logger

	mu      sync.RWMutex
	clients map[string]*Client

	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	direct     chan directMessage

	seq       atomic.Int64
	done      chan struct{}
	closeOnce sync.Once
}

type directMessage struct {
	client *Client
	data   []byte
}

func NewHub(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	h := &Hub{
		log:        log,
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 256),
		direct:     make(chan directMessage, 256),
		done:       make(chan struct{}),
	}
	go h.run()
	return h
}

// NotifyChanged tells every client that stored data changed. It never blocks,
// so it can be registered as a store update listener.
func (h *Hub) NotifyChanged() {
	seq := h.seq.Add(1)
	h.Broadcast(Envelope{Type: TypeDataChanged, Payload: ChangePayload{Seq: seq}})
}

func (h *Hub) Seq() int64 { return h.seq.Load() }

func (h *Hub) Broadcast(env Envelope) {
	b, err := json.Marshal(env)
	if err != nil {
		h.log.Error("ws broadcast marshal failed", zap.Error(err))
		return
	}
	select {
	case h.broadcast <- b:
	case <-h.done:
	default:
		h.log.Warn("ws broadcast dropped", zap.String("type", env.Type))
	}
}

func (h *Hub) sendTo(c *Client, env Envelope) {
	b, err := json.Marshal(env)
	if err != nil {
		h.log.Error("ws send marshal failed", zap.String("client_id", c.id), zap.Error(err))
		return
	}
	select {
	case h.direct <- directMessage{client: c, data: b}:
	case <-h.done:
	}
}

func (h *Hub) join(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) leave(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client and stops the hub.
func (h *Hub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

func (h *Hub) run() {
	for {
		select {
		case <-h.done:
			h.mu.Lock()
			for id, c := range h.clients {
				delete(h.clients, id)
				close(c.send)
			}
			h.mu.Unlock()
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c.id] = c
			n := len(h.clients)
			h.mu.Unlock()

			h.log.Info("ws client registered", zap.String("client_id", c.id), zap.Int("clients", n))

		case c := <-h.unregister:
			h.mu.Lock()
			h.removeLocked(c)
			h.mu.Unlock()

			h.log.Info("ws client unregistered", zap.String("client_id", c.id))

		case msg := <-h.direct:
			h.mu.Lock()
			if _, ok := h.clients[msg.client.id]; ok {
				h.deliverLocked(msg.client, msg.data)
			}
			h.mu.Unlock()

		case data := <-h.broadcast:
			h.mu.Lock()
			for _, c := range h.clients {
				h.deliverLocked(c, data)
			}
			h.mu.Unlock()
		}
	}
}

// deliverLocked drops a client whose send buffer is full.
func (h *Hub) deliverLocked(c *Client, data []byte) {
	select {
	case c.send <- data:
	default:
		h.log.Warn("ws client too slow, dropping", zap.String("client_id", c.id))
		h.removeLocked(c)
	}
}

func (h *Hub) removeLocked(c *Client) {
	if cur, ok := h.clients[c.id]; ok && cur == c {
		delete(h.clients, c.id)
		close(c.send)
	}
}
