package websocket

import (
	"context"
	"time"

	"github.com/isdelr/voting-be/internal/models"
	"github.com/rs/zerolog/log"
)

// TallySource reads the current vote count report.
type TallySource interface {
	GetTally(ctx context.Context) ([]models.TallyEntry, error)
}

// Hub maintains the set of active clients and pushes the tally to them.
//
// The hub is the only reader of the tally for subscribers: a new client gets
// a snapshot read after it is registered, and every change notification
// triggers a fresh read inside Run. Reads and sends happen one at a time, so
// the last message a client receives always reflects the latest committed
// change.
type Hub struct {
	source TallySource

	// Registered clients.
	clients map[*Client]bool

	// Pending change notification. Holds at most one; further
	// notifications coalesce into it.
	changed chan struct{}

	// Register requests from the clients.
	Register chan *Client

	// Unregister requests from clients.
	Unregister chan *Client

	// Closed once Run has returned.
	done chan struct{}

	readTimeout time.Duration
}

// NewHub creates a new Hub reading tallies from source.
func NewHub(source TallySource) *Hub {
	return &Hub{
		source:      source,
		clients:     make(map[*Client]bool),
		changed:     make(chan struct{}, 1),
		Register:    make(chan *Client),
		Unregister:  make(chan *Client),
		done:        make(chan struct{}),
		readTimeout: 5 * time.Second,
	}
}

// Run processes registrations and change notifications until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				close(client.Send)
				delete(h.clients, client)
			}
			return
		case client := <-h.Register:
			h.clients[client] = true
			log.Info().Int("total_clients", len(h.clients)).Msg("Client connected")
			if msg := h.snapshot(ctx); msg != nil {
				h.send(client, msg)
			}
		case client := <-h.Unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
				log.Info().Int("total_clients", len(h.clients)).Msg("Client disconnected")
			}
		case <-h.changed:
			if len(h.clients) == 0 {
				continue
			}
			msg := h.snapshot(ctx)
			if msg == nil {
				continue
			}
			for client := range h.clients {
				h.send(client, msg)
			}
		}
	}
}

// Notify marks the tally as changed. It never blocks; a notification that
// arrives while one is already pending is merged into it.
func (h *Hub) Notify() {
	select {
	case h.changed <- struct{}{}:
	default:
	}
}

// Attach registers client. It reports false if the hub has stopped.
func (h *Hub) Attach(client *Client) bool {
	select {
	case h.Register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Detach unregisters client. It is a no-op once the hub has stopped.
func (h *Hub) Detach(client *Client) {
	select {
	case h.Unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) snapshot(ctx context.Context) []byte {
	ctx, cancel := context.WithTimeout(ctx, h.readTimeout)
	defer cancel()

	tally, err := h.source.GetTally(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to read tally for subscribers")
		return nil
	}
	msg, err := Encode(ActionTally, tally)
	if err != nil {
		log.Error().Err(err).Msg("Failed to encode tally message")
		return nil
	}
	return msg
}

// send queues msg for client, dropping the client if it is not keeping up.
func (h *Hub) send(client *Client, msg []byte) {
	select {
	case client.Send <- msg:
	default:
		close(client.Send)
		delete(h.clients, client)
		log.Warn().Int("total_clients", len(h.clients)).Msg("Dropped slow websocket client")
	}
}
