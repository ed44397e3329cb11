package broadcast

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"OptionSentinel/internal/logger"
	"OptionSentinel/internal/metrics"
	"OptionSentinel/internal/model"
)

const (
	sendBuffer = 64
	writeWait  = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Hub maintains active clients and fans analysis responses out to all of
// them as JSON text frames. New clients first receive the latest response
// of every instrument.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	input      chan []byte
	done       chan struct{}
	count      atomic.Int32

	mu     sync.RWMutex
	latest map[model.Instrument][]byte

	log *logger.Logger
}

func NewHub(log *logger.Logger) *Hub {
	if log == nil {
		log = logger.Get()
	}
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		input:      make(chan []byte, sendBuffer),
		done:       make(chan struct{}),
		latest:     make(map[model.Instrument][]byte),
		log:        log.Named("broadcast"),
	}
}

// Run is the hub loop. It owns the client set and returns when ctx is done.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			h.setCount()
			return
		case client := <-h.register:
			h.clients[client] = true
			h.setCount()
			h.log.Infow("client connected", "clients", len(h.clients))
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.setCount()
				h.log.Infow("client disconnected", "clients", len(h.clients))
			}
		case msg := <-h.input:
			for client := range h.clients {
				select {
				case client.send <- msg:
				default:
					// slow client drops this frame
				}
			}
		}
	}
}

func (h *Hub) setCount() {
	h.count.Store(int32(len(h.clients)))
	metrics.WebSocketClients.Set(float64(len(h.clients)))
}

// Clients returns the number of registered clients.
func (h *Hub) Clients() int { return int(h.count.Load()) }

// Publish serializes resp once, remembers it as the instrument's latest and
// queues it for every client. It never blocks the caller.
func (h *Hub) Publish(resp *model.AnalysisResponse) error {
	msg, err := json.Marshal(resp)
	if err != nil {
		return err
	}

	h.mu.Lock()
	h.latest[resp.Instrument] = msg
	h.mu.Unlock()

	select {
	case h.input <- msg:
	default:
		h.log.Warnw("broadcast queue full, dropping frame", "instrument", resp.Instrument)
	}
	return nil
}

// Forget drops the cached latest response of inst.
func (h *Hub) Forget(inst model.Instrument) {
	h.mu.Lock()
	delete(h.latest, inst)
	h.mu.Unlock()
}

// ForgetAll drops every cached response.
func (h *Hub) ForgetAll() {
	h.mu.Lock()
	h.latest = make(map[model.Instrument][]byte)
	h.mu.Unlock()
}

func (h *Hub) snapshot() [][]byte {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([][]byte, 0, len(h.latest))
	for _, inst := range model.Instruments {
		if msg, ok := h.latest[inst]; ok {
			out = append(out, msg)
		}
	}
	return out
}

// ServeHTTP upgrades the connection and registers the client.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warnw("websocket upgrade failed", "error", err)
		return
	}
	client := &Client{hub: h, conn: conn, send: make(chan []byte, sendBuffer)}

	for _, msg := range h.snapshot() {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			h.log.Warnw("send latest responses", "error", err)
			conn.Close()
			return
		}
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()
	for message := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}
