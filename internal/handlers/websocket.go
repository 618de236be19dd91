package handlers

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/caffeinepub/ace8win-3/internal/models"
	"github.com/caffeinepub/ace8win-3/internal/services"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// refreshInterval is how often the hub checks for time-stale match and
// participant entries while any client is connected.
const refreshInterval = 5 * time.Second

// WebSocketHandler pushes live board updates to connected clients. While a
// view depends on a frequently-changing key, the hub refetches it once its
// freshness window lapses and broadcasts the fresh value; mutations push
// immediately through the Broadcaster interface.
type WebSocketHandler struct {
	queries *services.Queries
	store   *services.SyncStore
	hub     *WebSocketHub
}

type WebSocketHub struct {
	mu            sync.Mutex
	clients       map[models.Principal]*websocket.Conn
	subscriptions map[string]map[models.Principal]bool
	register      chan *Client
	unregister    chan *Client
	broadcast     chan *Message
	subscribe     chan subscription
}

type subscription struct {
	principal models.Principal
	matchID   string
	active    bool
}

type Client struct {
	Principal models.Principal
	Conn      *websocket.Conn
}

type Message struct {
	Type      string           `json:"type"`
	Principal models.Principal `json:"principal,omitempty"`
	MatchID   string           `json:"match_id,omitempty"`
	Data      interface{}      `json:"data"`
}

func NewWebSocketHandler(queries *services.Queries, store *services.SyncStore) *WebSocketHandler {
	hub := &WebSocketHub{
		clients:       make(map[models.Principal]*websocket.Conn),
		subscriptions: make(map[string]map[models.Principal]bool),
		register:      make(chan *Client),
		unregister:    make(chan *Client),
		broadcast:     make(chan *Message, 100),
		subscribe:     make(chan subscription),
	}

	go hub.run()

	h := &WebSocketHandler{
		queries: queries,
		store:   store,
		hub:     hub,
	}

	go h.refreshLoop()

	return h
}

func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	principal := c.MustGet("principal").(models.Principal)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Failed to upgrade to WebSocket: %v", err)
		return
	}

	client := &Client{
		Principal: principal,
		Conn:      conn,
	}

	h.hub.register <- client

	defer func() {
		h.hub.unregister <- client
		conn.Close()
	}()

	for {
		var msg Message
		err := conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		h.handleMessage(client, &msg)
	}
}

func (h *WebSocketHandler) handleMessage(client *Client, msg *Message) {
	switch msg.Type {
	case "PING":
		h.sendPong(client)
	case "SUBSCRIBE_MATCH":
		if matchID, ok := msg.Data.(string); ok {
			h.hub.subscribe <- subscription{principal: client.Principal, matchID: matchID, active: true}
		}
	case "UNSUBSCRIBE_MATCH":
		if matchID, ok := msg.Data.(string); ok {
			h.hub.subscribe <- subscription{principal: client.Principal, matchID: matchID, active: false}
		}
	}
}

func (h *WebSocketHandler) sendPong(client *Client) {
	msg := Message{
		Type: "PONG",
		Data: gin.H{
			"timestamp": time.Now().Unix(),
		},
	}

	client.Conn.WriteJSON(msg)
}

// SendUploadProgress pushes payment-proof upload progress to the uploader.
func (h *WebSocketHandler) SendUploadProgress(principal models.Principal, matchID string, percentage int) {
	h.hub.broadcast <- &Message{
		Type:      "UPLOAD_PROGRESS",
		Principal: principal,
		MatchID:   matchID,
		Data: gin.H{
			"percentage": percentage,
		},
	}
}

// BroadcastMatchesChanged refetches the match list and pushes it to every
// connected client.
func (h *WebSocketHandler) BroadcastMatchesChanged() {
	matches, err := h.queries.Matches(context.Background())
	if err != nil {
		log.Printf("Failed to refresh matches for WS: %v", err)
		return
	}
	h.hub.broadcast <- &Message{
		Type: "MATCHES_UPDATE",
		Data: matches,
	}
}

// BroadcastParticipantsChanged refetches a match's participants and pushes
// them to that match's subscribers.
func (h *WebSocketHandler) BroadcastParticipantsChanged(matchID string) {
	players, err := h.queries.Participants(context.Background(), matchID)
	if err != nil {
		log.Printf("Failed to refresh participants for WS: %v", err)
		return
	}
	h.hub.broadcast <- &Message{
		Type:    "PARTICIPANTS_UPDATE",
		MatchID: matchID,
		Data:    players,
	}
}

// refreshLoop refetches time-stale board entries while clients are
// connected. Keys nobody depends on are left alone.
func (h *WebSocketHandler) refreshLoop() {
	ticker := time.NewTicker(refreshInterval)
	defer ticker.Stop()

	for range ticker.C {
		if !h.hub.hasClients() {
			continue
		}
		for _, key := range h.store.StaleKeys(services.KeyMatches, services.TTLMatches) {
			if key == services.KeyMatches {
				h.BroadcastMatchesChanged()
			}
		}
		for _, matchID := range h.hub.subscribedMatches() {
			for _, key := range h.store.StaleKeys(services.ParticipantsKey(matchID), services.TTLParticipants) {
				if key == services.ParticipantsKey(matchID) {
					h.BroadcastParticipantsChanged(matchID)
				}
			}
		}
	}
}

func (hub *WebSocketHub) run() {
	for {
		select {
		case client := <-hub.register:
			hub.mu.Lock()
			hub.clients[client.Principal] = client.Conn
			hub.mu.Unlock()
			log.Printf("Client registered: %s", client.Principal)

		case client := <-hub.unregister:
			hub.mu.Lock()
			if _, ok := hub.clients[client.Principal]; ok {
				delete(hub.clients, client.Principal)
				for _, subs := range hub.subscriptions {
					delete(subs, client.Principal)
				}
				log.Printf("Client unregistered: %s", client.Principal)
			}
			hub.mu.Unlock()

		case sub := <-hub.subscribe:
			hub.mu.Lock()
			if sub.active {
				if hub.subscriptions[sub.matchID] == nil {
					hub.subscriptions[sub.matchID] = make(map[models.Principal]bool)
				}
				hub.subscriptions[sub.matchID][sub.principal] = true
			} else {
				delete(hub.subscriptions[sub.matchID], sub.principal)
			}
			hub.mu.Unlock()

		case message := <-hub.broadcast:
			hub.broadcastMessage(message)
		}
	}
}

func (hub *WebSocketHub) broadcastMessage(message *Message) {
	hub.mu.Lock()
	defer hub.mu.Unlock()
	switch {
	case message.Principal != "":
		if conn, ok := hub.clients[message.Principal]; ok {
			conn.WriteJSON(message)
		}
	case message.MatchID != "":
		for principal := range hub.subscriptions[message.MatchID] {
			if conn, ok := hub.clients[principal]; ok {
				conn.WriteJSON(message)
			}
		}
	default:
		for _, conn := range hub.clients {
			conn.WriteJSON(message)
		}
	}
}

func (hub *WebSocketHub) hasClients() bool {
	hub.mu.Lock()
	defer hub.mu.Unlock()
	return len(hub.clients) > 0
}

func (hub *WebSocketHub) subscribedMatches() []string {
	hub.mu.Lock()
	defer hub.mu.Unlock()
	var out []string
	for matchID, subs := range hub.subscriptions {
		if len(subs) > 0 {
			out = append(out, matchID)
		}
	}
	return out
}
