// README: Websocket hub pushing live jeep locations to connected clients.
package live

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"jeepney/internal/modules/location"
)

const writeTimeout = 5 * time.Second

const (
	MessageSnapshot = "snapshot"
	MessageLocation = "location"
)

// Message is the envelope sent to every websocket client.
type Message struct {
	Type      string          `json:"type"`
	Locations []location.View `json:"locations,omitempty"`
	Location  *location.View  `json:"location,omitempty"`
}

// SnapshotFunc returns the locations a new client starts from.
type SnapshotFunc func(ctx context.Context) ([]location.VehicleLocation, error)

var _ location.Notifier = (*Hub)(nil)

// client queues updates until its snapshot has been written, so a snapshot
// never overwrites a newer location.
type client struct {
	mu      sync.Mutex
	conn    *websocket.Conn
	ready   bool
	pending [][]byte
}

func (c *client) write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.ready {
		c.pending = append(c.pending, data)
		return nil
	}
	return c.send(data)
}

// writeSnapshot sends the snapshot followed by any updates queued meanwhile.
func (c *client) writeSnapshot(snapshot []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.send(snapshot); err != nil {
		return err
	}
	for _, data := range c.pending {
		if err := c.send(data); err != nil {
			return err
		}
	}
	c.pending = nil
	c.ready = true
	return nil
}

func (c *client) send(data []byte) error {
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

type Hub struct {
	mu       sync.Mutex
	clients  map[*client]struct{}
	snapshot SnapshotFunc
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

func NewHub(snapshot SnapshotFunc, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients:  make(map[*client]struct{}),
		snapshot: snapshot,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

// ServeWS upgrades the request, sends the current snapshot and keeps the
// client registered until it disconnects. The client is registered before the
// snapshot is read so no update is missed.
func (h *Hub) ServeWS(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	cl := &client{conn: conn}
	h.add(cl)
	go h.readPump(cl)

	locs, err := h.snapshot(c.Request.Context())
	if err != nil {
		h.logger.Warn("ws snapshot failed", zap.Error(err))
		locs = nil
	}
	views := make([]location.View, 0, len(locs))
	for _, l := range locs {
		views = append(views, l.View())
	}
	data, _ := json.Marshal(Message{Type: MessageSnapshot, Locations: views})
	if err := cl.writeSnapshot(data); err != nil {
		h.drop(cl)
	}
}

// Notify broadcasts a single location update to every client.
func (h *Hub) Notify(_ context.Context, loc location.VehicleLocation) error {
	view := loc.View()
	data, err := json.Marshal(Message{Type: MessageLocation, Location: &view})
	if err != nil {
		return err
	}
	for _, cl := range h.snapshotClients() {
		if err := cl.write(data); err != nil {
			h.drop(cl)
		}
	}
	return nil
}

// Clients reports how many websocket clients are connected.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *Hub) Close() {
	for _, cl := range h.snapshotClients() {
		h.drop(cl)
	}
}

func (h *Hub) add(cl *client) {
	h.mu.Lock()
	h.clients[cl] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) drop(cl *client) {
	h.mu.Lock()
	delete(h.clients, cl)
	h.mu.Unlock()
	_ = cl.conn.Close()
}

func (h *Hub) snapshotClients() []*client {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]*client, 0, len(h.clients))
	for cl := range h.clients {
		out = append(out, cl)
	}
	return out
}

// readPump discards inbound frames; it exists to notice disconnects.
func (h *Hub) readPump(cl *client) {
	defer h.drop(cl)
	for {
		if _, _, err := cl.conn.ReadMessage(); err != nil {
			return
		}
	}
}
