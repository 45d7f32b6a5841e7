package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/abrezinsky/quizattack/internal/auth"
	"github.com/abrezinsky/quizattack/internal/logger"
	"github.com/abrezinsky/quizattack/internal/models"
	"github.com/abrezinsky/quizattack/internal/services"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	commandTimeout = 5 * time.Second
	sendBuffer     = 256
)

// Inbound message types
const (
	MsgAnswer  = "answer"
	MsgPause   = "pause"
	MsgUseCard = "use_card"
	MsgState   = "state"
	MsgError   = "error"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Players join from whatever host the share link used
	},
}

type roomMessage struct {
	room string
	msg  models.WSMessage
}

type directMessage struct {
	client *Client
	msg    models.WSMessage
}

// Hub keeps one client set per room and fans room messages out to them
type Hub struct {
	log        logger.Logger
	play       services.PlayServicer
	tokens     *auth.Auth
	rooms      map[string]map[*Client]bool
	broadcast  chan roomMessage
	direct     chan directMessage
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mutex      sync.RWMutex
}

// Client is a middleman between the websocket connection and the hub
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	send     chan models.WSMessage
	room     string
	identity *auth.Identity
}

// inbound is a client message with its payload left raw
type inbound struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// New creates a new Hub instance with injected dependencies
func New(log logger.Logger, play services.PlayServicer, tokens *auth.Auth) *Hub {
	return &Hub{
		log:        log,
		play:       play,
		tokens:     tokens,
		rooms:      make(map[string]map[*Client]bool),
		broadcast:  make(chan roomMessage, sendBuffer),
		direct:     make(chan directMessage, sendBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Start begins the hub's main loop in a goroutine. The loop ends with ctx.
func (h *Hub) Start(ctx context.Context) {
	go h.run(ctx)
}

func (h *Hub) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			close(h.done)
			return

		case client := <-h.register:
			h.mutex.Lock()
			clients := h.rooms[client.room]
			if clients == nil {
				clients = make(map[*Client]bool)
				h.rooms[client.room] = clients
			}
			clients[client] = true
			total := len(clients)
			h.mutex.Unlock()
			h.log.Debug("Client connected", "room", client.room, "room_clients", total)

			go h.sendState(client)

		case client := <-h.unregister:
			h.remove(client)

		case m := <-h.broadcast:
			h.mutex.RLock()
			var slow []*Client
			for client := range h.rooms[m.room] {
				select {
				case client.send <- m.msg:
				default:
					slow = append(slow, client)
				}
			}
			h.mutex.RUnlock()
			for _, client := range slow {
				h.remove(client)
			}

		case d := <-h.direct:
			h.mutex.RLock()
			registered := h.rooms[d.client.room][d.client]
			h.mutex.RUnlock()
			if registered {
				select {
				case d.client.send <- d.msg:
				default:
				}
			}
		}
	}
}

func (h *Hub) remove(client *Client) {
	h.mutex.Lock()
	clients := h.rooms[client.room]
	if _, ok := clients[client]; ok {
		delete(clients, client)
		close(client.send)
		if len(clients) == 0 {
			delete(h.rooms, client.room)
		}
	}
	total := len(clients)
	h.mutex.Unlock()
	h.log.Debug("Client disconnected", "room", client.room, "room_clients", total)
}

func (h *Hub) closeAll() {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	for room, clients := range h.rooms {
		for client := range clients {
			close(client.send)
		}
		delete(h.rooms, room)
	}
}

// sendState gives a new client the room's current game, if one is running
func (h *Hub) sendState(client *Client) {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	snap, err := h.play.State(ctx, client.room)
	if err != nil {
		return
	}
	h.reply(client, MsgState, snap)
}

func (h *Hub) reply(client *Client, msgType string, payload interface{}) {
	select {
	case h.direct <- directMessage{client: client, msg: models.WSMessage{Type: msgType, Payload: payload}}:
	case <-h.done:
	}
}

// BroadcastRoom implements services.Broadcaster. It never blocks on slow clients.
func (h *Hub) BroadcastRoom(roomCode, msgType string, payload interface{}) {
	select {
	case h.broadcast <- roomMessage{room: roomCode, msg: models.WSMessage{Type: msgType, Payload: payload}}:
	case <-h.done:
	}
}

// ClientCount returns the number of clients connected to a room
func (h *Hub) ClientCount(roomCode string) int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.rooms[roomCode])
}

// handle routes a player's message to the play service
func (h *Hub) handle(client *Client, msg inbound) {
	if msg.Type == MsgState {
		go h.sendState(client)
		return
	}
	if client.identity == nil {
		h.reply(client, MsgError, map[string]string{"error": "Join the room first"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	id := client.identity

	var err error
	switch msg.Type {
	case MsgAnswer:
		var p struct {
			Answer *int `json:"answer"`
		}
		if err = json.Unmarshal(msg.Payload, &p); err == nil && p.Answer == nil {
			h.reply(client, MsgError, map[string]string{"error": "answer is required"})
			return
		}
		if err == nil {
			err = h.play.Answer(ctx, client.room, id.PlayerID, *p.Answer)
		}
	case MsgPause:
		err = h.play.TogglePause(ctx, client.room, id.PlayerID)
	case MsgUseCard:
		var p struct {
			UniqueID string `json:"unique_id"`
		}
		if err = json.Unmarshal(msg.Payload, &p); err == nil {
			_, err = h.play.UseCard(ctx, client.room, id.PlayerID, p.UniqueID)
		}
	default:
		h.log.Debug("Ignoring message", "room", client.room, "type", msg.Type)
		return
	}

	if err != nil {
		h.log.Debug("Player command rejected", "room", client.room, "player", id.PlayerID, "type", msg.Type, "error", err)
		h.reply(client, MsgError, map[string]string{"type": msg.Type, "error": err.Error()})
	}
}

// readPump pumps messages from the websocket connection to the hub
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Debug("WebSocket error", "error", err)
			}
			break
		}

		var msg inbound
		if err := json.Unmarshal(message, &msg); err != nil {
			c.hub.reply(c, MsgError, map[string]string{"error": "invalid message"})
			continue
		}
		c.hub.handle(c, msg)
	}
}

// writePump pumps messages from the hub to the websocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(message); err != nil {
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

// ServeWs handles websocket requests for /ws?room=CODE. A valid player token
// lets the client send game commands; without one it only receives.
func (h *Hub) ServeWs(w http.ResponseWriter, r *http.Request) {
	room := services.NormalizeCode(r.URL.Query().Get("room"))
	if room == "" {
		http.Error(w, "room is required", http.StatusBadRequest)
		return
	}

	var identity *auth.Identity
	if h.tokens != nil {
		if id, err := h.tokens.FromRequest(r); err == nil && id.RoomCode == room {
			identity = id
		}
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error("WebSocket upgrade error", "error", err)
		return
	}

	client := &Client{
		hub:      h,
		conn:     conn,
		send:     make(chan models.WSMessage, sendBuffer),
		room:     room,
		identity: identity,
	}
	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	// Allow collection of memory referenced by the caller by doing all work in new goroutines
	go client.writePump()
	go client.readPump()
}
