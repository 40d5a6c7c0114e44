// Package rating turns a categorized submission into stars and credits.
package rating

import (
	"math"

	"github.com/example/ewaste-check/internal/waste"
)

const (
	// ConfidenceFloor is the lowest classifier confidence that can earn a rating.
	ConfidenceFloor = 0.35
	// MaxRating is the highest star rating.
	MaxRating = 5
	// MinRating is the lowest non-zero rating; anything that rounds below it is denied.
	MinRating = 1

	creditsPerStar = 10
	creditsPerKg   = 5
)

// Rate combines category, weight, clarity and confidence into a 0-5 star
// rating. Scores are rounded half to even, so a raw 2.5 rates 2 and 3.5 rates 4.
func Rate(category string, weightKg, clarity, confidence, baseReward float64) int {
	if category == waste.Unknown || confidence < ConfidenceFloor {
		return 0
	}

	score := baseReward + weightBonus(weightKg) + clarityAdjustment(clarity)
	score *= confidenceMultiplier(confidence)

	rounded := math.RoundToEven(min(max(score, 0), MaxRating))
	if rounded < MinRating {
		return 0
	}
	return int(rounded)
}

// Credits returns the credits earned for a rating. Denied submissions earn nothing.
func Credits(rating int, weightKg float64) int {
	if rating <= 0 {
		return 0
	}
	return int(math.Floor(float64(rating)*creditsPerStar + weightKg*creditsPerKg))
}

func weightBonus(kg float64) float64 {
	switch {
	case kg >= 5.0:
		return 1.5
	case kg >= 1.0:
		return 1.0
	case kg >= 0.1:
		return 0.5
	default:
		return 0
	}
}

// clarityAdjustment is independent of the clarity gate applied before classification.
func clarityAdjustment(clarity float64) float64 {
	switch {
	case clarity < 0.2:
		return -1.0
	case clarity > 0.4:
		return 0.5
	default:
		return 0
	}
}

func confidenceMultiplier(confidence float64) float64 {
	switch {
	case confidence < 0.6:
		return 0.7
	case confidence < 0.8:
		return 0.85
	default:
		return 1.0
	}
}
