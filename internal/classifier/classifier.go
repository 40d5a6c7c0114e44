// Package classifier defines the image classification capability used by the
// submission pipeline and the helpers shared by its backends.
package classifier

import (
	"context"
	"errors"
	"fmt"
	"math"
)

// UnknownLabel is reported when a backend cannot name its top prediction.
const UnknownLabel = "Unknown"

// ErrInvalidResult indicates a backend produced confidences outside [0, 1].
var ErrInvalidResult = errors.New("invalid classification result")

// Result is the label, its confidence, and the full distribution over the label vocabulary.
type Result struct {
	Label       string
	Confidence  float64
	Predictions map[string]float64
}

// Classifier maps raw image bytes to a classification. Implementations must
// be safe for concurrent use.
type Classifier interface {
	Classify(ctx context.Context, image []byte) (*Result, error)
}

// Func adapts a function to the Classifier interface.
type Func func(ctx context.Context, image []byte) (*Result, error)

// Classify calls f.
func (f Func) Classify(ctx context.Context, image []byte) (*Result, error) {
	return f(ctx, image)
}

// FromDistribution builds a Result from a label vocabulary and the matching
// probability vector. The arg-max becomes the label; ties go to the lowest
// index. When the vocabulary and vector lengths disagree the distribution is
// left empty and the label falls back to UnknownLabel for indices past the
// vocabulary.
func FromDistribution(labels []string, probs []float32) *Result {
	if len(probs) == 0 {
		return &Result{Label: UnknownLabel, Predictions: map[string]float64{}}
	}

	top := 0
	for i, p := range probs {
		if p > probs[top] {
			top = i
		}
	}

	label := UnknownLabel
	if top < len(labels) {
		label = labels[top]
	}

	predictions := make(map[string]float64, len(labels))
	if len(labels) == len(probs) {
		for i, l := range labels {
			predictions[l] = float64(probs[i])
		}
	}

	return &Result{
		Label:       label,
		Confidence:  float64(probs[top]),
		Predictions: predictions,
	}
}

// Validate checks that every confidence in r lies in [0, 1].
func (r *Result) Validate() error {
	if r == nil {
		return fmt.Errorf("%w: empty result", ErrInvalidResult)
	}
	if !inUnitRange(r.Confidence) {
		return fmt.Errorf("%w: confidence %v for %q", ErrInvalidResult, r.Confidence, r.Label)
	}
	for label, p := range r.Predictions {
		if !inUnitRange(p) {
			return fmt.Errorf("%w: probability %v for %q", ErrInvalidResult, p, label)
		}
	}
	return nil
}

func inUnitRange(v float64) bool {
	return !math.IsNaN(v) && v >= 0 && v <= 1
}
