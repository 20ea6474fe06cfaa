package sse

import (
	"encoding/json"
	"sync"
	"time"
)

// Event types sent on a translation job stream.
const (
	EventProgress = "progress"
	EventResult   = "result"
	EventError    = "error"
	EventDone     = "done"
)

const clientBuffer = 200

// Event is one message of a job stream.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// Hub manages streams per job id
type Hub struct {
	mu      sync.RWMutex
	streams map[string]*Stream
	ttl     time.Duration
	now     func() time.Time
}

// Stream holds the clients and replay buffer of a translation job
type Stream struct {
	clients  []*Client
	buffer   []string
	done     bool
	finished time.Time
	mu       sync.RWMutex
}

// Client holds a channel where encoded events for a job are pushed
type Client struct {
	Ch chan string
}

// NewHub creates a hub that forgets finished streams ttl after they end.
func NewHub(ttl time.Duration) *Hub {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Hub{
		streams: make(map[string]*Stream),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Run removes expired streams until stop is closed.
func (h *Hub) Run(stop <-chan struct{}) {
	ticker := time.NewTicker(h.ttl)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			h.cleanup()
		case <-stop:
			return
		}
	}
}

func (h *Hub) cleanup() {
	h.mu.Lock()
	defer h.mu.Unlock()

	now := h.now()
	for id, stream := range h.streams {
		stream.mu.RLock()
		expired := stream.done && len(stream.clients) == 0 && now.Sub(stream.finished) >= h.ttl
		stream.mu.RUnlock()

		if expired {
			delete(h.streams, id)
		}
	}
}

// Create registers a stream for a new job.
func (h *Hub) Create(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.streams[id]; !ok {
		h.streams[id] = &Stream{}
	}
}

// Exists reports whether the job id is known.
func (h *Hub) Exists(id string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.streams[id]
	return ok
}

// AddClient attaches a client to a job and replays what was sent so far.
// It returns false for unknown jobs.
func (h *Hub) AddClient(id string) (*Client, bool) {
	h.mu.RLock()
	stream, ok := h.streams[id]
	h.mu.RUnlock()
	if !ok {
		return nil, false
	}

	stream.mu.Lock()
	defer stream.mu.Unlock()

	client := &Client{Ch: make(chan string, len(stream.buffer)+clientBuffer)}
	for _, msg := range stream.buffer {
		client.Ch <- msg
	}
	stream.clients = append(stream.clients, client)

	return client, true
}

func (h *Hub) RemoveClient(id string, client *Client) {
	h.mu.RLock()
	stream, ok := h.streams[id]
	h.mu.RUnlock()

	if !ok {
		return
	}

	stream.mu.Lock()
	for i, c := range stream.clients {
		if c == client {
			stream.clients = append(stream.clients[:i], stream.clients[i+1:]...)
			break
		}
	}
	stream.mu.Unlock()
}

// Send buffers ev for late clients and pushes it to connected ones. A done
// event closes the stream.
func (h *Hub) Send(id string, ev Event) error {
	h.mu.RLock()
	stream, ok := h.streams[id]
	h.mu.RUnlock()

	if !ok {
		return nil
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	msg := string(payload)

	stream.mu.Lock()
	defer stream.mu.Unlock()

	if stream.done {
		return nil
	}

	stream.buffer = append(stream.buffer, msg)
	if ev.Type == EventDone {
		stream.done = true
		stream.finished = h.now()
	}

	for _, client := range stream.clients {
		select {
		case client.Ch <- msg:
		default:
			// slow client; it still has the buffered copy on reconnect
		}
	}

	return nil
}
