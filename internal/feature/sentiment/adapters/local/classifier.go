// Package local はプロセス内でTensorFlow.jsモデルを実行する分類器を提供します。
package local

import (
	"context"
	"fmt"
	"log/slog"

	"review_backend/internal/feature/sentiment/domain/entity"
	"review_backend/internal/feature/sentiment/usecase"
	"review_backend/internal/platform/tfjs"
	"review_backend/internal/platform/tokenizer"
)

// Encoder はテキストを固定長のトークンID列に変換します。
type Encoder interface {
	Encode(text string) ([]int32, error)
}

// Predictor はトークンID列からラベルごとのスコアを計算します。
type Predictor interface {
	Predict(ids []int32) ([]float32, error)
}

// Classifier はトークナイザーとモデルを組み合わせたScorer実装です。
type Classifier struct {
	encoder   Encoder
	predictor Predictor
}

// ClassifierがScorerを実装していることをコンパイル時に検証します。
var _ usecase.Scorer = (*Classifier)(nil)

// New は空文字列で試行推論を行い、モデルの出力数がラベル数と一致することを確認します。
func New(encoder Encoder, predictor Predictor) (*Classifier, error) {
	c := &Classifier{encoder: encoder, predictor: predictor}

	scores, err := c.Scores(context.Background(), "")
	if err != nil {
		return nil, fmt.Errorf("warm-up prediction failed: %w", err)
	}
	if len(scores) != len(entity.Labels) {
		return nil, fmt.Errorf("model produces %d outputs, want %d", len(scores), len(entity.Labels))
	}
	return c, nil
}

// Load はモデルと語彙ファイルを読み込みます。起動時に一度だけ呼び出してください。
func Load(modelPath, vocabPath string, maxLength int) (*Classifier, error) {
	tok, err := tokenizer.Load(vocabPath, maxLength)
	if err != nil {
		return nil, fmt.Errorf("failed to load tokenizer: %w", err)
	}
	model, err := tfjs.Load(modelPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load model: %w", err)
	}
	slog.Info("sentiment model loaded", "model_path", modelPath, "vocab_path", vocabPath,
		"max_length", maxLength, "layers", model.LayerNames())

	return New(tok, model)
}

// Scores はテキストをエンコードしてモデルに通します。
func (c *Classifier) Scores(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ids, err := c.encoder.Encode(text)
	if err != nil {
		return nil, err
	}
	return c.predictor.Predict(ids)
}
