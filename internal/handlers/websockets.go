package handlers

import (
	"net/http"
	"sync"
	"time"

	"snapgram/internal/logger"
	"snapgram/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// Send/receive timing configuration and message size limits.
const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMsgSize = 1 << 12 // 4 KB

	// Per-subscriber buffer. A viewer that cannot drain this fast simply
	// misses snaps: delivery is fire-and-forget, there is no backlog.
	subscriberBuffer = 8
)

// Envelope used for WebSocket messages.
type wsEnvelope struct {
	Type  string      `json:"type"`
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
}

// Upgrader for HTTP -> WebSocket. Consider tightening CheckOrigin in production.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true }, // TODO: restrict origins for production
}

// wsHub fans committed uploads out to connected viewers.
type wsHub struct {
	log *logger.Logger

	mu   sync.Mutex
	subs map[chan models.SnapRecord]struct{}
}

func newWSHub(log *logger.Logger) *wsHub {
	return &wsHub{log: log, subs: make(map[chan models.SnapRecord]struct{})}
}

func (hub *wsHub) subscribe() chan models.SnapRecord {
	ch := make(chan models.SnapRecord, subscriberBuffer)
	hub.mu.Lock()
	hub.subs[ch] = struct{}{}
	hub.mu.Unlock()
	return ch
}

func (hub *wsHub) unsubscribe(ch chan models.SnapRecord) {
	hub.mu.Lock()
	delete(hub.subs, ch)
	hub.mu.Unlock()
}

// broadcast never blocks the upload path: a full subscriber buffer drops the
// message for that subscriber only.
func (hub *wsHub) broadcast(rec models.SnapRecord) {
	// The payload stays out of the envelope here; subscribers serialize it
	// themselves on their own write deadlines.
	hub.mu.Lock()
	defer hub.mu.Unlock()
	for ch := range hub.subs {
		select {
		case ch <- rec:
		default:
			if hub.log != nil {
				hub.log.Infow("ws_subscriber_lagging", "dropped_snap", rec.ID)
			}
		}
	}
}

func (h *Handler) wsConnect(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		if h.log != nil {
			h.log.Errorw("ws_upgrade_failed", "err", err)
		}
		return
	}
	defer func() { _ = conn.Close() }()

	// Configure read limits and pong handler to extend read deadline.
	conn.SetReadLimit(maxMsgSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	// Reader goroutine to handle control frames and detect disconnects.
	done := make(chan struct{})
	go h.startReader(conn, done)

	snaps := h.hub.subscribe()
	defer h.hub.unsubscribe(snaps)

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	// Writer/select loop. No initial payload: clients only see snaps created
	// after they connected.
	for {
		select {
		case <-done:
			return
		case <-c.Request.Context().Done():
			return
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				if h.log != nil {
					h.log.Infow("ws_ping_failed", "err", err)
				}
				return
			}
		case rec := <-snaps:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(wsEnvelope{Type: "snap", Data: rec}); err != nil {
				if h.log != nil {
					h.log.Infow("ws_write_failed", "err", err)
				}
				return
			}
		}
	}
}

// Helper: startReader drains incoming messages to handle control frames and detect closure.
func (h *Handler) startReader(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if h.log != nil {
				h.log.Infow("ws_read_closed", "err", err)
			}
			return
		}
	}
}
