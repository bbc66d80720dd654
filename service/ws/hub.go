package ws

import (
	"encoding/json"

	"CareGene/logger"
	"CareGene/service/natsx"
	"CareGene/tools/safe"

	"github.com/nats-io/nats.go"
)

// Hub holds live connections per user and fans events out to them. It is
// push-only: writes go through the REST surface, the socket just keeps
// inbox views fresh.
type Hub struct {
	clients    map[string]map[*Client]bool // userID -> set of clients
	register   chan *Client
	unregister chan *Client
	broadcast  chan *outbound
}

type outbound struct {
	targets []string
	payload []byte
}

func NewHub() *Hub {
	h := &Hub{
		clients:    make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *outbound, 256),
	}
	safe.Go(h.run)
	return h
}

// AttachBus subscribes the hub to the domain-event subject. Queue group
// is empty on purpose: every instance must see every event because
// a user's socket can be connected to any instance.
func (h *Hub) AttachBus(nm *natsx.NatsManager) error {
	_, err := nm.Subscribe(natsx.EventsSubject, "", func(msg *nats.Msg) {
		var ev natsx.Event
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			logger.Warn("ws: dropping undecodable event")
			return
		}
		h.SendToUsers(ev.Targets, msg.Data)
	})
	return err
}

func (h *Hub) run() {
	for {
		select {
		case c := <-h.register:
			if _, ok := h.clients[c.userID]; !ok {
				h.clients[c.userID] = make(map[*Client]bool)
			}
			h.clients[c.userID][c] = true
		case c := <-h.unregister:
			if conns, ok := h.clients[c.userID]; ok {
				if _, exists := conns[c]; exists {
					delete(conns, c)
					close(c.send)
				}
				if len(conns) == 0 {
					delete(h.clients, c.userID)
				}
			}
		case m := <-h.broadcast:
			for _, target := range m.targets {
				conns, ok := h.clients[target]
				if !ok {
					continue // offline users are simply skipped
				}
				for c := range conns {
					select {
					case c.send <- m.payload:
					default:
						close(c.send)
						delete(conns, c)
					}
				}
			}
		}
	}
}

func (h *Hub) RegisterClient(c *Client) {
	h.register <- c
}

func (h *Hub) UnregisterClient(c *Client) {
	h.unregister <- c
}

// SendToUsers enqueues a payload for the given users' live connections.
func (h *Hub) SendToUsers(userIDs []string, payload []byte) {
	h.broadcast <- &outbound{targets: userIDs, payload: payload}
}
