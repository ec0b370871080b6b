// Package gemini はGoogle Gemini APIを使用した感情スコアリングを提供します。
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"google.golang.org/genai"

	"review_backend/internal/feature/sentiment/domain/entity"
	"review_backend/internal/feature/sentiment/usecase"
	apphttp "review_backend/internal/platform/http"
)

const (
	// DefaultModel はGemini APIのデフォルトモデルです。
	DefaultModel = "gemini-2.5-flash"

	breakerName = "gemini-sentiment"
)

// ErrEmptyResponse はGeminiが空の応答を返した場合のエラーです。
var ErrEmptyResponse = errors.New("gemini returned an empty response")

// Generator は genai.Models のうち本パッケージが使用するメソッドです。
type Generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Scorer はGeminiにラベルごとの確率をJSONで回答させます。
type Scorer struct {
	gen     Generator
	model   string
	breaker *gobreaker.CircuitBreaker[[]float32]
}

// ScorerがScorerインターフェースを実装していることをコンパイル時に検証します。
var _ usecase.Scorer = (*Scorer)(nil)

// NewScorer はAPIキーでGemini APIクライアントを作成します。
// apiKey が空の場合は GOOGLE_API_KEY などの環境変数が使われます。
func NewScorer(ctx context.Context, apiKey, model string, timeout time.Duration) (*Scorer, error) {
	cfg := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: apphttp.NewHTTPClient(timeout),
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return NewScorerWithGenerator(client.Models, model), nil
}

// NewScorerWithGenerator は任意のGeneratorを使うScorerを生成します。
func NewScorerWithGenerator(gen Generator, model string) *Scorer {
	if model == "" {
		model = DefaultModel
	}
	return &Scorer{
		gen:   gen,
		model: model,
		breaker: gobreaker.NewCircuitBreaker[[]float32](gobreaker.Settings{
			Name:        breakerName,
			MaxRequests: 1,
			Interval:    time.Minute,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				slog.Warn("circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
			},
		}),
	}
}

// Scores はテキストの感情スコアを entity.Labels の順序で返します。
func (s *Scorer) Scores(ctx context.Context, text string) ([]float32, error) {
	return s.breaker.Execute(func() ([]float32, error) {
		return s.generate(ctx, text)
	})
}

func (s *Scorer) generate(ctx context.Context, text string) ([]float32, error) {
	resp, err := s.gen.GenerateContent(ctx, s.model, genai.Text(buildPrompt(text)), responseConfig())
	if err != nil {
		return nil, fmt.Errorf("gemini API request failed: %w", err)
	}
	if resp == nil {
		return nil, ErrEmptyResponse
	}
	body := strings.TrimSpace(resp.Text())
	if body == "" {
		return nil, ErrEmptyResponse
	}
	return parseScores(body)
}

func buildPrompt(text string) string {
	return "Classify the sentiment of the following customer review. " +
		"Return a probability between 0 and 1 for each of negative, neutral and positive; " +
		"the three values must sum to 1.\n\nReview:\n" + text
}

func responseConfig() *genai.GenerateContentConfig {
	props := make(map[string]*genai.Schema, len(entity.Labels))
	required := make([]string, 0, len(entity.Labels))
	for _, l := range entity.Labels {
		props[string(l)] = &genai.Schema{Type: genai.TypeNumber}
		required = append(required, string(l))
	}
	return &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](0),
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type:             genai.TypeObject,
			Properties:       props,
			Required:         required,
			PropertyOrdering: required,
		},
	}
}

func parseScores(body string) ([]float32, error) {
	var raw map[string]*float32
	if err := json.Unmarshal([]byte(body), &raw); err != nil {
		return nil, fmt.Errorf("failed to decode gemini response: %w", err)
	}
	scores := make([]float32, len(entity.Labels))
	for i, l := range entity.Labels {
		v, ok := raw[string(l)]
		if !ok || v == nil {
			return nil, fmt.Errorf("gemini response is missing %q", l)
		}
		scores[i] = *v
	}
	return scores, nil
}
