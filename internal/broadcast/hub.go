// Package broadcast fans new log events out to live dashboard subscribers.
//
// Every subscriber owns a bounded queue drained by its own writer goroutine.
// Push never blocks: a subscriber whose queue is full, or whose connection
// fails a write, is dropped from the hub and its connection closed.
package broadcast

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/rs/zerolog/log"

	"github.com/logmonitor/logmonitor/internal/metrics"
)

const (
	DefaultBuffer       = 64
	DefaultWriteTimeout = 5 * time.Second
)

// Conn is the part of a websocket connection the hub writes to.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// Subscriber is one live connection registered with the hub.
type Subscriber struct {
	id     uint64
	conn   Conn
	queue  chan []byte
	done   chan struct{}
	exited chan struct{}
	once   sync.Once
}

// ID returns the hub assigned identifier.
func (s *Subscriber) ID() uint64 {
	return s.id
}

func (s *Subscriber) stop() {
	s.once.Do(func() { close(s.done) })
}

// Hub is the registry of live subscribers.
type Hub struct {
	mu     sync.RWMutex
	subs   map[uint64]*Subscriber
	nextID uint64
	closed bool

	buffer       int
	writeTimeout time.Duration
	counters     *metrics.Counters
}

// New returns an empty hub. Zero values select the defaults.
func New(buffer int, writeTimeout time.Duration, counters *metrics.Counters) *Hub {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}

	if writeTimeout <= 0 {
		writeTimeout = DefaultWriteTimeout
	}

	if counters == nil {
		counters = metrics.NewUnregistered()
	}

	return &Hub{
		subs:         make(map[uint64]*Subscriber),
		buffer:       buffer,
		writeTimeout: writeTimeout,
		counters:     counters,
	}
}

// Subscribe registers conn and starts its writer.
func (h *Hub) Subscribe(conn Conn) (*Subscriber, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrHubClosed
	}

	h.nextID++

	s := &Subscriber{
		id:     h.nextID,
		conn:   conn,
		queue:  make(chan []byte, h.buffer),
		done:   make(chan struct{}),
		exited: make(chan struct{}),
	}

	h.subs[s.id] = s
	h.counters.LiveSubscribers.Inc()

	go h.write(s)

	log.Debug().Uint64("subscriber", s.id).Int("total", len(h.subs)).Msg("live subscriber registered")

	return s, nil
}

// Unsubscribe removes s and waits for its writer to stop. The connection is
// left to the caller. Safe to call after s was dropped.
func (h *Hub) Unsubscribe(s *Subscriber) {
	if s == nil {
		return
	}

	if h.remove(s) {
		log.Debug().Uint64("subscriber", s.id).Msg("live subscriber unregistered")
	}

	s.stop()
	<-s.exited
}

// Push enqueues ev for every subscriber and returns how many accepted it.
func (h *Hub) Push(ev Event) int {
	payload, err := json.Marshal(envelope{Event: EventNewLog, Data: ev})
	if err != nil {
		log.Error().Err(err).Msg("failed to encode live event")

		return 0
	}

	var (
		delivered int
		slow      []*Subscriber
	)

	h.mu.RLock()

	for _, s := range h.subs {
		select {
		case s.queue <- payload:
			delivered++
		default:
			slow = append(slow, s)
		}
	}

	h.mu.RUnlock()

	for _, s := range slow {
		h.drop(s, "queue full")
	}

	return delivered
}

// Len returns the number of registered subscribers.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.subs)
}

// Close drops every subscriber and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true

	subs := make([]*Subscriber, 0, len(h.subs))
	for id, s := range h.subs {
		subs = append(subs, s)
		delete(h.subs, id)
		h.counters.LiveSubscribers.Dec()
	}

	h.mu.Unlock()

	for _, s := range subs {
		s.stop()
		_ = s.conn.Close()
		<-s.exited
	}

	log.Info().Int("subscribers", len(subs)).Msg("live hub closed")
}

func (h *Hub) remove(s *Subscriber) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.subs[s.id]; !ok {
		return false
	}

	delete(h.subs, s.id)
	h.counters.LiveSubscribers.Dec()

	return true
}

// drop removes a failing subscriber and closes its connection so the reader
// side notices. It does not wait for the writer.
func (h *Hub) drop(s *Subscriber, reason string) {
	if !h.remove(s) {
		return
	}

	s.stop()
	_ = s.conn.Close()

	h.counters.BroadcastDropped.Inc()
	log.Warn().Uint64("subscriber", s.id).Str("reason", reason).Msg("live subscriber dropped")
}

func (h *Hub) write(s *Subscriber) {
	defer close(s.exited)

	for {
		select {
		case <-s.done:
			return
		case payload := <-s.queue:
			_ = s.conn.SetWriteDeadline(time.Now().Add(h.writeTimeout))

			if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				log.Debug().Err(err).Uint64("subscriber", s.id).Msg("live write failed")
				h.drop(s, "write error")

				return
			}
		}
	}
}
