package ws

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/printdesk/printdesk/internal/core"
	"github.com/printdesk/printdesk/internal/printer"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 45 * time.Second
	maxMessageSize = 4096
	sendBuffer     = 64
)

// Hub owns every live websocket connection, assigns session ids and carries
// engine notifications out to the pages. It implements core.Notifier.
type Hub struct {
	engine   *core.Engine
	printers *printer.Registry
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[string]*client
}

type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	done chan struct{}

	closeOnce sync.Once
}

func NewHub(engine *core.Engine, printers *printer.Registry, allowedOrigin string) *Hub {
	return &Hub{
		engine:   engine,
		printers: printers,
		clients:  make(map[string]*client),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if allowedOrigin == "" || allowedOrigin == "*" {
					return true
				}
				return r.Header.Get("Origin") == allowedOrigin
			},
		},
	}
}

// HandleConnection upgrades the HTTP request and runs the session until the
// peer goes away.
func (h *Hub) HandleConnection(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws: upgrade failed: %v", err)
		return
	}

	c := &client{
		id:   uuid.New().String(),
		conn: conn,
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
	}

	h.mu.Lock()
	h.clients[c.id] = c
	h.mu.Unlock()

	log.Printf("ws: session %s connected", c.id)

	go h.writePump(c)
	h.engine.Connect(c.id)
	h.readPump(c)
}

func (h *Hub) readPump(c *client) {
	defer h.drop(c)

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("ws: session %s read error: %v", c.id, err)
			}
			return
		}
		h.dispatch(c, msg)
	}
}

func (h *Hub) dispatch(c *client, msg Message) {
	switch msg.Event {
	case IntentRegisterMerchant:
		if err := h.engine.RegisterMerchant(c.id); err != nil {
			h.sendError(c, err)
		}

	case IntentRegisterClient:
		var data registerClientData
		if err := json.Unmarshal(msg.Data, &data); err != nil || data.ClientID == "" {
			h.sendError(c, errors.New("registerClient requires a clientId"))
			return
		}
		h.engine.RegisterClient(c.id, data.ClientID)

	case IntentConfirmPayment:
		n, err := parseQueueNumber(msg.Data)
		if err != nil {
			h.sendError(c, err)
			return
		}
		if err := h.engine.ConfirmPayment(n); err != nil {
			h.sendError(c, err)
		}

	case IntentRemoveRequest:
		n, err := parseQueueNumber(msg.Data)
		if err != nil {
			h.sendError(c, err)
			return
		}
		if err := h.engine.Cancel(n); err != nil {
			// The request may already be gone; a warning is enough.
			log.Printf("ws: removeRequest %d from %s: %v", n, c.id, err)
		}

	case IntentPrintCompleted:
		n, err := parseQueueNumber(msg.Data)
		if err != nil {
			h.sendError(c, err)
			return
		}
		if err := h.engine.CompletePrint(n); err != nil {
			log.Printf("ws: printCompleted %d from %s: %v", n, c.id, err)
		}

	case IntentGetPrinters:
		h.Send(c.id, core.EventPrinterInfo, h.printers.List())

	default:
		log.Printf("ws: session %s sent unknown event %q", c.id, msg.Event)
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case body := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, body); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Hub) drop(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c.id]; ok {
		delete(h.clients, c.id)
	}
	h.mu.Unlock()

	c.closeOnce.Do(func() { close(c.done) })
	h.engine.Disconnect(c.id)
	log.Printf("ws: session %s disconnected", c.id)
}

// Broadcast implements core.Notifier.
func (h *Hub) Broadcast(event string, payload interface{}) {
	body, err := encode(event, payload)
	if err != nil {
		log.Printf("ws: failed to encode %s broadcast: %v", event, err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		c.enqueue(body)
	}
}

// Send implements core.Notifier. Returns false if the session is gone or its
// buffer is full.
func (h *Hub) Send(sessionID string, event string, payload interface{}) bool {
	body, err := encode(event, payload)
	if err != nil {
		log.Printf("ws: failed to encode %s for %s: %v", event, sessionID, err)
		return false
	}

	h.mu.RLock()
	c, ok := h.clients[sessionID]
	h.mu.RUnlock()
	if !ok {
		return false
	}
	return c.enqueue(body)
}

func (h *Hub) sendError(c *client, err error) {
	body, encErr := encode("error", errorData{Error: err.Error()})
	if encErr != nil {
		return
	}
	c.enqueue(body)
}

// Close shuts every connection down, typically during server shutdown.
func (h *Hub) Close() {
	h.mu.Lock()
	clients := make([]*client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.clients = make(map[string]*client)
	h.mu.Unlock()

	for _, c := range clients {
		c.conn.Close()
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// enqueue never blocks; a session too slow to drain its buffer misses the
// message and will resync from the next queue snapshot.
func (c *client) enqueue(body []byte) bool {
	select {
	case <-c.done:
		return false
	case c.send <- body:
		return true
	default:
		return false
	}
}

func encode(event string, payload interface{}) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Message{Event: event, Data: data})
}
