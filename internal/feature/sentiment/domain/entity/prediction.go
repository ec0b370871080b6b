// Package entity defines the domain entities for the sentiment feature.
package entity

import (
	"errors"
	"fmt"
	"math"
)

// Label is one of the three sentiment categories.
type Label string

const (
	Negative Label = "negative"
	Neutral  Label = "neutral"
	Positive Label = "positive"
)

// Labels is the fixed output order of every classifier backend.
// Ties are broken in favour of the earliest label in this order.
var Labels = []Label{Negative, Neutral, Positive}

var (
	// ErrScoreCount is returned when a backend does not produce one score per label.
	ErrScoreCount = errors.New("classifier must return exactly one score per label")

	// ErrNonFiniteScore is returned when the winning score is NaN or infinite.
	ErrNonFiniteScore = errors.New("classifier returned a non-finite score")
)

// Valid reports whether l is one of Labels.
func (l Label) Valid() bool {
	for _, known := range Labels {
		if l == known {
			return true
		}
	}
	return false
}

// Prediction is the classifier result for one text.
type Prediction struct {
	// Label is the arg-max class.
	Label Label
	// Score is the raw model output for Label.
	Score float64
}

// FromScores picks the highest score. On exact ties the first label in
// Labels order wins.
func FromScores(scores []float32) (Prediction, error) {
	if len(scores) != len(Labels) {
		return Prediction{}, fmt.Errorf("%w: got %d", ErrScoreCount, len(scores))
	}

	best := -1
	for i, s := range scores {
		if math.IsNaN(float64(s)) {
			continue
		}
		if best < 0 || s > scores[best] {
			best = i
		}
	}
	if best < 0 || math.IsInf(float64(scores[best]), 0) {
		return Prediction{}, ErrNonFiniteScore
	}

	return Prediction{Label: Labels[best], Score: float64(scores[best])}, nil
}
