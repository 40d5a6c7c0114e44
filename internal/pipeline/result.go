package pipeline

import (
	"fmt"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/example/ewaste-check/internal/geo"
)

// EvaluationResult is the decision record for one submission.
type EvaluationResult struct {
	Outcome           State              `json:"outcome"`
	DistanceMeters    float64            `json:"distance_meters"`
	ClarityScore      float64            `json:"clarity_score"`
	Label             string             `json:"label"`
	Confidence        float64            `json:"confidence"`
	Predictions       map[string]float64 `json:"all_predictions"`
	Category          string             `json:"waste_category"`
	EstimatedWeightKg float64            `json:"estimated_weight_kg"`
	Recyclability     string             `json:"recyclability"`
	Rating            int                `json:"rating"`
	CreditsEarned     int                `json:"credits_earned"`
	DenialReason      *string            `json:"denial_reason"`
	Message           string             `json:"message"`
}

// Denied reports whether the submission earned nothing.
func (r EvaluationResult) Denied() bool {
	return r.Outcome.Denied()
}

func outOfRangeMessage(distance float64) string {
	return fmt.Sprintf("You are not near a bin. You must be within %.0fm of a registered bin to submit waste. Current distance: %.1fm",
		geo.AllowedRadiusMeters, distance)
}

const (
	poorQualityMessage = "Image quality too poor. Please take a clearer photo."
	notWasteMessage    = "Invalid image. No e-waste detected or confidence too low."
)

func ratingMessage(category string, rating int) string {
	switch {
	case rating >= 4:
		return fmt.Sprintf("Excellent! High-value %s detected. Clear image, good recyclability.", category)
	case rating >= 3:
		return fmt.Sprintf("Good submission! %s detected and accepted.", capitalize(category))
	case rating >= 2:
		return fmt.Sprintf("%s detected but image could be clearer or item is small.", capitalize(category))
	default:
		return "Low-value item detected. Try submitting larger or clearer e-waste."
	}
}

func reason(s string) *string {
	return &s
}

// capitalize builds a Caser per call; Casers are not safe for concurrent use.
func capitalize(s string) string {
	return cases.Title(language.Und).String(s)
}
