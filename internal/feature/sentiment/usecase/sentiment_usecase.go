// Package usecase はsentimentフィーチャーのビジネスロジックを実装します。
package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"review_backend/internal/feature/sentiment/domain/entity"
	"review_backend/internal/platform/metrics"
)

// Scorer はテキストから各ラベルのスコアを算出するバックエンドです。
// スコアは entity.Labels の順序で返す必要があります。
// Goの慣例に従い、インターフェースは利用者（usecase）側で定義します。
type Scorer interface {
	Scores(ctx context.Context, text string) ([]float32, error)
}

// sentimentUsecase は分類器を一度だけ構築して全リクエストで共有します。
type sentimentUsecase struct {
	scorer  Scorer
	backend string
}

// NewSentimentUsecase はsentimentUsecaseの新しいインスタンスを生成します。
// backend はメトリクスとログのラベルとして使用されます。
func NewSentimentUsecase(scorer Scorer, backend string) *sentimentUsecase {
	return &sentimentUsecase{scorer: scorer, backend: backend}
}

// Classify はテキストを分類し、最大スコアのラベルとそのスコアを返します。
// 空文字列も有効な入力です。
func (u *sentimentUsecase) Classify(ctx context.Context, text string) (entity.Prediction, error) {
	start := time.Now()

	pred, err := u.classify(ctx, text)
	metrics.ObserveClassification(u.backend, string(pred.Label), time.Since(start), err)
	if err != nil {
		slog.Error("classification failed", "backend", u.backend, "error", err, "text_length", len(text))
		return entity.Prediction{}, err
	}

	slog.Debug("classified text", "backend", u.backend, "label", pred.Label, "score", pred.Score)
	return pred, nil
}

func (u *sentimentUsecase) classify(ctx context.Context, text string) (entity.Prediction, error) {
	scores, err := u.scorer.Scores(ctx, text)
	if err != nil {
		return entity.Prediction{}, fmt.Errorf("classifier %s failed: %w", u.backend, err)
	}
	pred, err := entity.FromScores(scores)
	if err != nil {
		return entity.Prediction{}, fmt.Errorf("classifier %s: %w", u.backend, err)
	}
	return pred, nil
}
