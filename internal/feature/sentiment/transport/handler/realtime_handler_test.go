package handler

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"review_backend/internal/feature/sentiment/domain/entity"
)

// mockSentimentUsecase is a mock implementation of the SentimentUsecase interface.
type mockSentimentUsecase struct {
	ClassifyFunc func(ctx context.Context, text string) (entity.Prediction, error)

	mu    sync.Mutex
	texts []string
}

// Classify is the mock implementation of the Classify method.
func (m *mockSentimentUsecase) Classify(ctx context.Context, text string) (entity.Prediction, error) {
	m.mu.Lock()
	m.texts = append(m.texts, text)
	m.mu.Unlock()
	if m.ClassifyFunc != nil {
		return m.ClassifyFunc(ctx, text)
	}
	return entity.Prediction{Label: entity.Neutral, Score: 0.5}, nil
}

func (m *mockSentimentUsecase) calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.texts...)
}

type frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func dial(t *testing.T, h *RealtimeHandler) *websocket.Conn {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ws", h.ServeWS)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, raw string) {
	t.Helper()
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(raw)))
}

func receive(t *testing.T, conn *websocket.Conn) frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	var f frame
	require.NoError(t, json.Unmarshal(raw, &f))
	return f
}

func TestRealtimeHandler_Predict(t *testing.T) {
	tests := []struct {
		name     string
		frame    string
		wantText string
	}{
		{name: "string data", frame: `{"event":"predict","data":"Great food"}`, wantText: "Great food"},
		{name: "empty string", frame: `{"event":"predict","data":""}`, wantText: ""},
		{name: "missing data", frame: `{"event":"predict"}`, wantText: ""},
		{name: "null data", frame: `{"event":"predict","data":null}`, wantText: ""},
		{name: "non-string data", frame: `{"event":"predict","data":{"text":"x"}}`, wantText: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := &mockSentimentUsecase{
				ClassifyFunc: func(ctx context.Context, text string) (entity.Prediction, error) {
					return entity.Prediction{Label: entity.Positive, Score: 0.875}, nil
				},
			}
			conn := dial(t, NewRealtimeHandler(uc, 0, 0))

			send(t, conn, tt.frame)
			got := receive(t, conn)

			assert.Equal(t, EventPrediction, got.Event)
			assert.JSONEq(t, `{"label":"positive","score":0.875}`, string(got.Data))
			assert.Equal(t, []string{tt.wantText}, uc.calls())
		})
	}
}

func TestRealtimeHandler_ClassifierError(t *testing.T) {
	uc := &mockSentimentUsecase{
		ClassifyFunc: func(ctx context.Context, text string) (entity.Prediction, error) {
			return entity.Prediction{}, errors.New("model unavailable")
		},
	}
	conn := dial(t, NewRealtimeHandler(uc, 0, 0))

	send(t, conn, `{"event":"predict","data":"hello"}`)
	got := receive(t, conn)

	assert.Equal(t, EventError, got.Event)
	assert.JSONEq(t, `{"message":"model unavailable"}`, string(got.Data))
}

func TestRealtimeHandler_PingAndUnknownEvents(t *testing.T) {
	uc := &mockSentimentUsecase{}
	conn := dial(t, NewRealtimeHandler(uc, 0, 0))

	send(t, conn, `not json`)
	send(t, conn, `{"event":"subscribe","data":"x"}`)
	send(t, conn, `{"event":"ping"}`)

	got := receive(t, conn)
	assert.Equal(t, EventPong, got.Event)
	assert.Empty(t, uc.calls())
}

func TestRealtimeHandler_RateLimit(t *testing.T) {
	uc := &mockSentimentUsecase{}
	conn := dial(t, NewRealtimeHandler(uc, 0.001, 1))

	send(t, conn, `{"event":"predict","data":"one"}`)
	assert.Equal(t, EventPrediction, receive(t, conn).Event)

	send(t, conn, `{"event":"predict","data":"two"}`)
	got := receive(t, conn)
	assert.Equal(t, EventError, got.Event)
	assert.JSONEq(t, `{"message":"rate limit exceeded"}`, string(got.Data))

	assert.Equal(t, []string{"one"}, uc.calls())
}

func TestRealtimeHandler_UnlimitedByDefault(t *testing.T) {
	uc := &mockSentimentUsecase{}
	// PREDICT_RATE_LIMIT=0, PREDICT_BURST=20 (既定値)
	conn := dial(t, NewRealtimeHandler(uc, 0, 20))

	const n = 25
	for i := 0; i < n; i++ {
		send(t, conn, `{"event":"predict","data":"hello"}`)
	}
	for i := 0; i < n; i++ {
		got := receive(t, conn)
		require.Equal(t, EventPrediction, got.Event, "reply %d", i)
	}
	assert.Len(t, uc.calls(), n)
}

func TestRealtimeHandler_SequentialPredictions(t *testing.T) {
	uc := &mockSentimentUsecase{
		ClassifyFunc: func(ctx context.Context, text string) (entity.Prediction, error) {
			if text == "bad" {
				return entity.Prediction{Label: entity.Negative, Score: 0.9}, nil
			}
			return entity.Prediction{Label: entity.Positive, Score: 0.8}, nil
		},
	}
	conn := dial(t, NewRealtimeHandler(uc, 0, 0))

	send(t, conn, `{"event":"predict","data":"bad"}`)
	send(t, conn, `{"event":"predict","data":"good"}`)

	first := receive(t, conn)
	second := receive(t, conn)
	assert.JSONEq(t, `{"label":"negative","score":0.9}`, string(first.Data))
	assert.JSONEq(t, `{"label":"positive","score":0.8}`, string(second.Data))
}

func TestRealtimeHandler_RejectsPlainHTTP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ws", NewRealtimeHandler(&mockSentimentUsecase{}, 0, 0).ServeWS)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/ws", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, 400, w.Code)
}
