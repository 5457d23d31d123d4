package hub

import (
	"log"
	"sync"

	"megacity/pkg/envelope"
	"megacity/pkg/models"

	"github.com/gofiber/contrib/websocket"
)

type clientConn struct {
	conn   *websocket.Conn
	userID string
	role   models.Role
	mu     sync.Mutex
}

func (cc *clientConn) send(data []byte) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	if err := cc.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		log.Printf("[HUB] send error user=%s: %v", cc.userID, err)
	}
}

// Hub pushes live booking and fleet events to connected dashboards.
// Connections are indexed by role so admin-only events never reach
// customer or driver sockets.
type Hub struct {
	mu      sync.RWMutex
	clients map[*websocket.Conn]*clientConn
	byRole  map[models.Role][]*clientConn
}

func New() *Hub {
	return &Hub{
		clients: make(map[*websocket.Conn]*clientConn),
		byRole:  make(map[models.Role][]*clientConn),
	}
}

// HandleClientConn owns the socket until it closes. Incoming frames are
// only pings; all real traffic is server-push.
func (h *Hub) HandleClientConn(c *websocket.Conn, userID string, role models.Role) {
	cc := &clientConn{conn: c, userID: userID, role: role}

	h.mu.Lock()
	h.clients[c] = cc
	if role.Valid() {
		h.byRole[role] = append(h.byRole[role], cc)
	}
	h.mu.Unlock()

	log.Printf("[HUB] client connected: user=%s role=%s total=%d", userID, role, h.ClientCount())

	defer func() {
		h.mu.Lock()
		delete(h.clients, c)
		if role.Valid() {
			conns := h.byRole[role]
			for i, conn := range conns {
				if conn == cc {
					h.byRole[role] = append(conns[:i], conns[i+1:]...)
					break
				}
			}
			if len(h.byRole[role]) == 0 {
				delete(h.byRole, role)
			}
		}
		h.mu.Unlock()
		c.Close()
		log.Printf("[HUB] client disconnected: user=%s role=%s total=%d", userID, role, h.ClientCount())
	}()

	for {
		_, raw, err := c.ReadMessage()
		if err != nil {
			return
		}

		env, err := envelope.Unmarshal(raw)
		if err != nil {
			resp := envelope.NewError("error", 400, "invalid frame")
			data, _ := resp.Marshal()
			cc.send(data)
			continue
		}

		if env.Action == "ping" {
			pong := envelope.New("pong")
			data, _ := pong.Marshal()
			cc.send(data)
		}
	}
}

// Broadcast sends an event to every connected client.
func (h *Hub) Broadcast(action string, data interface{}) {
	env, err := envelope.NewEvent(action, data)
	if err != nil {
		log.Printf("[HUB] broadcast marshal failed: %v", err)
		return
	}
	raw, _ := env.Marshal()

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, cc := range h.clients {
		cc.send(raw)
	}
}

// BroadcastRole sends an event only to clients logged in with the role.
func (h *Hub) BroadcastRole(role models.Role, action string, data interface{}) {
	env, err := envelope.NewEvent(action, data)
	if err != nil {
		log.Printf("[HUB] broadcast marshal failed: %v", err)
		return
	}
	raw, _ := env.Marshal()

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, cc := range h.byRole[role] {
		cc.send(raw)
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
