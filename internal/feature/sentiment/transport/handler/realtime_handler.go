// Package handler はsentimentフィーチャーのリアルタイム予測チャネルを提供します。
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"review_backend/internal/api"
	"review_backend/internal/feature/sentiment/domain/entity"
	"review_backend/internal/platform/metrics"
	"review_backend/internal/shared/ratelimiter"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	sendBufferSize = 16
)

// イベント名
const (
	EventPredict    = "predict"
	EventPrediction = "prediction"
	EventError      = "error"
	EventPing       = "ping"
	EventPong       = "pong"
)

// SentimentUsecase はテキスト分類のユースケースです。
type SentimentUsecase interface {
	Classify(ctx context.Context, text string) (entity.Prediction, error)
}

// Message はクライアントから届くフレームです。
type Message struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// outbound はサーバーから送るフレームです。
type outbound struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// RealtimeHandler はWebSocket接続ごとに predict イベントを処理します。
type RealtimeHandler struct {
	sentiment  SentimentUsecase
	upgrader   websocket.Upgrader
	newLimiter func() ratelimiter.Limiter
}

// NewRealtimeHandler はRealtimeHandlerの新しいインスタンスを生成します。
// perSecond と burst は接続ごとの predict の頻度制限です。
func NewRealtimeHandler(sentiment SentimentUsecase, perSecond float64, burst int) *RealtimeHandler {
	return &RealtimeHandler{
		sentiment: sentiment,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// CORSと同様に全オリジンを許可
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		newLimiter: func() ratelimiter.Limiter {
			return ratelimiter.NewRateLimiter(perSecond, burst)
		},
	}
}

// ServeWS は GET /ws をWebSocketにアップグレードし、接続が閉じるまでブロックします。
func (h *RealtimeHandler) ServeWS(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrader がエラーレスポンスを書き込み済み
		slog.Warn("websocket upgrade failed", "error", err, "remote_addr", c.ClientIP())
		return
	}

	metrics.RealtimeConnections.Inc()
	defer metrics.RealtimeConnections.Dec()
	slog.Info("realtime client connected", "remote_addr", c.ClientIP())

	cl := &client{
		conn:       conn,
		send:       make(chan outbound, sendBufferSize),
		writerDone: make(chan struct{}),
		limiter:    h.newLimiter(),
		sentiment:  h.sentiment,
		remoteAddr: c.ClientIP(),
	}
	go cl.writePump()
	cl.readPump(c.Request.Context())

	slog.Info("realtime client disconnected", "remote_addr", c.ClientIP())
}

type client struct {
	conn       *websocket.Conn
	send       chan outbound
	writerDone chan struct{}
	limiter    ratelimiter.Limiter
	sentiment  SentimentUsecase
	remoteAddr string
}

// readPump はフレームを順に処理します。send を閉じるのはreadPumpだけです。
func (c *client) readPump(ctx context.Context) {
	defer func() {
		close(c.send)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		slog.Error("failed to set read deadline", "error", err)
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("unexpected websocket close", "error", err, "remote_addr", c.remoteAddr)
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			slog.Debug("ignoring malformed frame", "error", err, "remote_addr", c.remoteAddr)
			continue
		}

		switch msg.Event {
		case EventPredict:
			if !c.enqueue(c.predict(ctx, msg.Data)) {
				return
			}
		case EventPing:
			if !c.enqueue(outbound{Event: EventPong}) {
				return
			}
		default:
			slog.Debug("ignoring unknown event", "event", msg.Event, "remote_addr", c.remoteAddr)
		}
	}
}

func (c *client) predict(ctx context.Context, data json.RawMessage) outbound {
	if !c.limiter.Allow() {
		return outbound{Event: EventError, Data: api.MessageResponse{Message: "rate limit exceeded"}}
	}

	pred, err := c.sentiment.Classify(ctx, predictText(data))
	if err != nil {
		slog.Error("realtime prediction failed", "error", err, "remote_addr", c.remoteAddr)
		return outbound{Event: EventError, Data: api.MessageResponse{Message: err.Error()}}
	}
	return outbound{Event: EventPrediction, Data: api.PredictionResponse{Label: string(pred.Label), Score: pred.Score}}
}

// predictText は文字列以外のデータや欠落を空文字列として扱います。
func predictText(data json.RawMessage) string {
	if len(data) == 0 {
		return ""
	}
	var text string
	if err := json.Unmarshal(data, &text); err != nil {
		return ""
	}
	return text
}

// enqueue はwritePumpが終了していれば false を返します。
func (c *client) enqueue(m outbound) bool {
	select {
	case c.send <- m:
		return true
	case <-c.writerDone:
		return false
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		close(c.writerDone)
		_ = c.conn.Close()
	}()

	for {
		select {
		case m, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				slog.Error("failed to set write deadline", "error", err)
				return
			}
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			payload, err := json.Marshal(m)
			if err != nil {
				slog.Error("failed to encode frame", "error", err, "event", m.Event)
				continue
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				slog.Warn("failed to write frame", "error", err, "remote_addr", c.remoteAddr)
				return
			}
		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
