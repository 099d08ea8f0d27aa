package ws

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/tickguard/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/tickguard/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/tickguard/internal/pipeline"
	"github.com/GriffinCanCode/tickguard/internal/shared/utils"
)

const writeWait = 10 * time.Second

// Message is a client request.
type Message struct {
	Type   string `json:"type"`
	Symbol string `json:"symbol,omitempty"`
}

// WorkerSummary is the per-worker part of a snapshot push.
type WorkerSummary struct {
	ID        string                  `json:"id"`
	Status    resilience.HealthStatus `json:"status"`
	Circuit   string                  `json:"circuit"`
	CacheSize int                     `json:"cache_size"`
	HitRate   float64                 `json:"hit_rate"`
}

// Snapshot is pushed every interval and on request.
type Snapshot struct {
	Type       string              `json:"type"`
	RunID      string              `json:"run_id"`
	Tick       pipeline.TickReport `json:"tick"`
	Workers    []WorkerSummary     `json:"workers"`
	Indicators []pipeline.Result   `json:"indicators"`
	Timestamp  int64               `json:"timestamp"`
}

// Handler streams worker snapshots over WebSocket connections.
type Handler struct {
	driver   *pipeline.Driver
	metrics  *monitoring.Metrics
	logger   *zap.Logger
	interval time.Duration
	upgrader websocket.Upgrader
}

// NewHandler creates a handler that pushes a snapshot every interval.
// metrics and logger may be nil.
func NewHandler(driver *pipeline.Driver, metrics *monitoring.Metrics, logger *zap.Logger, interval time.Duration) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &Handler{
		driver:   driver,
		metrics:  metrics,
		logger:   logger,
		interval: interval,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // read-only stats, CORS is handled on the HTTP side
			},
		},
	}
}

// HandleConnection upgrades the request and serves the stream until the
// client disconnects.
func (h *Handler) HandleConnection(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	if h.metrics != nil {
		h.metrics.IncWSConnections()
		defer h.metrics.DecWSConnections()
	}

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	requests := make(chan Message, 8)
	go h.readLoop(ctx, cancel, conn, requests)

	s := &session{handler: h, conn: conn}
	if err := s.send("system", map[string]interface{}{
		"type":     "system",
		"message":  "connected to tickguard",
		"run_id":   h.driver.RunID(),
		"interval": h.interval.String(),
	}); err != nil {
		return
	}
	s.writeLoop(ctx, requests)
}

// readLoop is the only reader. Requests are handed to the writer, which
// owns every write on the connection.
func (h *Handler) readLoop(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, requests chan<- Message) {
	defer cancel()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Debug("websocket read error", zap.Error(err))
			}
			return
		}

		var msg Message
		if err := sonic.Unmarshal(data, &msg); err != nil {
			msg = Message{Type: "invalid"}
		}
		h.record("in", messageLabel(msg.Type))

		select {
		case requests <- msg:
		case <-ctx.Done():
			return
		}
	}
}

type session struct {
	handler *Handler
	conn    *websocket.Conn
	symbol  string
}

func (s *session) writeLoop(ctx context.Context, requests <-chan Message) {
	ticker := time.NewTicker(s.handler.interval)
	defer ticker.Stop()

	for {
		var err error
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			err = s.pushSnapshot()
		case msg := <-requests:
			err = s.handle(msg)
		}
		if err != nil {
			s.handler.logger.Debug("websocket write failed", zap.Error(err))
			return
		}
	}
}

func (s *session) handle(msg Message) error {
	switch msg.Type {
	case "ping":
		return s.send("pong", map[string]interface{}{"type": "pong", "timestamp": time.Now().Unix()})
	case "snapshot":
		return s.pushSnapshot()
	case "subscribe":
		symbol := strings.ToUpper(msg.Symbol)
		if symbol != "" {
			if err := utils.ValidateSymbol(symbol); err != nil {
				return s.sendError(err.Error())
			}
		}
		s.symbol = symbol
		return s.pushSnapshot()
	default:
		return s.sendError("unknown message type")
	}
}

func (s *session) pushSnapshot() error {
	return s.send("snapshot", s.handler.snapshot(s.symbol))
}

func (s *session) send(msgType string, v interface{}) error {
	data, err := sonic.Marshal(v)
	if err != nil {
		return err
	}
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return err
	}
	s.handler.record("out", msgType)
	return nil
}

func (s *session) sendError(msg string) error {
	return s.send("error", map[string]interface{}{
		"type":      "error",
		"message":   msg,
		"timestamp": time.Now().Unix(),
	})
}

func (h *Handler) snapshot(symbol string) Snapshot {
	engines := h.driver.Engines()
	workers := make([]WorkerSummary, 0, len(engines))
	for _, e := range engines {
		snap := e.Snapshot()
		workers = append(workers, WorkerSummary{
			ID:        snap.ID,
			Status:    snap.Health.OverallStatus,
			Circuit:   snap.Health.CircuitBreaker.State.String(),
			CacheSize: snap.Cache.Size,
			HitRate:   snap.Cache.HitRate,
		})
	}

	latest := h.driver.Latest()
	if symbol != "" {
		filtered := latest[:0]
		for _, r := range latest {
			if r.Symbol == symbol {
				filtered = append(filtered, r)
			}
		}
		latest = filtered
	}

	return Snapshot{
		Type:       "snapshot",
		RunID:      h.driver.RunID(),
		Tick:       h.driver.LastTick(),
		Workers:    workers,
		Indicators: latest,
		Timestamp:  time.Now().Unix(),
	}
}

// messageLabel keeps client-chosen types out of metric labels.
func messageLabel(msgType string) string {
	switch msgType {
	case "ping", "snapshot", "subscribe":
		return msgType
	default:
		return "invalid"
	}
}

func (h *Handler) record(direction, msgType string) {
	if h.metrics != nil {
		h.metrics.RecordWSMessage(direction, msgType)
	}
}
