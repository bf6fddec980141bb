// internal/events/hub.go
//
// Websocket fan-out for one room.
// Responsibilities:
//   - Track subscribers, each with a buffered outbound queue.
//   - Publish encodes an event once and queues it for every subscriber.
//   - Serve the websocket: a write pump drains the queue, a read pump
//     watches for the peer going away.
//
// Notes:
//   - Publish never blocks. A subscriber whose queue is full is dropped and
//     its connection closed; it can reconnect and receive a fresh state.
//   - Clients only listen; anything they send is discarded.

package events

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	DefaultQueue = 256

	writeWait  = 5 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	maxInbound = 512
)

// Hub fans events out to websocket subscribers.
type Hub struct {
	mu      sync.Mutex
	clients map[*Subscription]struct{}
	closed  bool
}

// Subscription is one subscriber's outbound queue. C is closed when the
// subscriber is dropped, unsubscribed, or the hub closes.
type Subscription struct {
	C <-chan []byte

	hub  *Hub
	send chan []byte
	once sync.Once
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*Subscription]struct{})}
}

// Publish implements Sink.
func (h *Hub) Publish(e Event) {
	b, err := json.Marshal(e)
	if err != nil {
		log.Warn().Err(err).Str("type", string(e.Type)).Msg("encode event")
		return
	}
	h.Broadcast(b)
}

// Broadcast queues an encoded message for every subscriber.
func (h *Hub) Broadcast(msg []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.clients {
		select {
		case sub.send <- msg:
		default:
			h.dropLocked(sub)
			log.Warn().Msg("ws: dropped slow subscriber")
		}
	}
}

// Subscribe registers a subscriber whose queue starts with initial.
// queue <= 0 uses DefaultQueue.
func (h *Hub) Subscribe(queue int, initial ...[]byte) *Subscription {
	if queue <= 0 {
		queue = DefaultQueue
	}
	if queue < len(initial) {
		queue = len(initial)
	}
	send := make(chan []byte, queue)
	sub := &Subscription{C: send, hub: h, send: send}
	for _, m := range initial {
		send <- m
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		sub.once.Do(func() { close(send) })
		return sub
	}
	h.clients[sub] = struct{}{}
	return sub
}

// Close unsubscribes. Safe to call more than once.
func (s *Subscription) Close() {
	s.hub.mu.Lock()
	defer s.hub.mu.Unlock()
	s.hub.dropLocked(s)
}

func (h *Hub) dropLocked(sub *Subscription) {
	delete(h.clients, sub)
	sub.once.Do(func() { close(sub.send) })
}

// Len reports the number of live subscribers.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close drops every subscriber and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for sub := range h.clients {
		h.dropLocked(sub)
	}
}

// NewUpgrader allows the given origin, or any origin when it is empty.
func NewUpgrader(origin string) *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			o := r.Header.Get("Origin")
			return origin == "" || o == "" || o == origin
		},
	}
}

// ServeWS upgrades the request and pumps sub's queue to the peer until
// either side goes away. It blocks for the life of the connection.
func ServeWS(up *websocket.Upgrader, w http.ResponseWriter, r *http.Request, sub *Subscription) {
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		sub.Close()
		log.Debug().Err(err).Msg("ws upgrade")
		return
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		readPump(conn)
	}()

	writePump(conn, sub, done)
	sub.Close()
	_ = conn.Close()
	<-done
}

func readPump(conn *websocket.Conn) {
	conn.SetReadLimit(maxInbound)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func writePump(conn *websocket.Conn, sub *Subscription, peerGone <-chan struct{}) {
	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()
	for {
		select {
		case msg, ok := <-sub.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"))
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-peerGone:
			return
		}
	}
}
