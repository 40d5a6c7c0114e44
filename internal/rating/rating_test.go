package rating

import "testing"

func TestRate(t *testing.T) {
	cases := []struct {
		name       string
		category   string
		weightKg   float64
		clarity    float64
		confidence float64
		baseReward float64
		want       int
	}{
		{name: "mobile with clear image", category: "mobile", weightKg: 0.2, clarity: 0.5, confidence: 0.9, baseReward: 2.5, want: 4},
		{name: "unknown category", category: "unknown", weightKg: 10, clarity: 0.9, confidence: 0.99, baseReward: 4.5, want: 0},
		{name: "below confidence floor", category: "laptop", weightKg: 2.0, clarity: 0.5, confidence: 0.3, baseReward: 3.5, want: 0},
		{name: "at confidence floor", category: "laptop", weightKg: 2.025, clarity: 0.3, confidence: 0.35, baseReward: 3.5, want: 3},
		{name: "half rounds to even", category: "charger", weightKg: 0.1, clarity: 0.5, confidence: 0.9, baseReward: 1.5, want: 2},
		{name: "clamped to five", category: "printer", weightKg: 10, clarity: 0.5, confidence: 0.95, baseReward: 4.5, want: 5},
		{name: "good confidence multiplier", category: "mixed", weightKg: 1.2, clarity: 0.1, confidence: 0.7, baseReward: 2.0, want: 2},
		{name: "sub-minimum is denied", category: "charger", weightKg: 0.086, clarity: 0.1, confidence: 0.36, baseReward: 1.5, want: 0},
		{name: "no weight bonus under 100g", category: "battery", weightKg: 0.05, clarity: 0.3, confidence: 0.9, baseReward: 2.0, want: 2},
		{name: "heavy item bonus", category: "monitor", weightKg: 5.0, clarity: 0.3, confidence: 0.85, baseReward: 4.5, want: 5},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Rate(tc.category, tc.weightKg, tc.clarity, tc.confidence, tc.baseReward)
			if got != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, got)
			}
		})
	}
}

func TestRateMixedNearConfidenceFloor(t *testing.T) {
	// "mixed" matches generic words like "device", so the confidence floor is
	// the only thing standing between a vague photo and a reward.
	if got := Rate("mixed", 1.01, 0.3, 0.34, 2.0); got != 0 {
		t.Fatalf("expected 0 just below the floor, got %d", got)
	}
	if got := Rate("mixed", 1.04, 0.3, 0.36, 2.0); got != 2 {
		t.Fatalf("expected 2 just above the floor, got %d", got)
	}
}

func TestRateStaysWithinBounds(t *testing.T) {
	categories := []string{"mobile", "laptop", "charger", "battery", "monitor", "printer", "mixed", "unknown"}
	values := []float64{0, 0.05, 0.15, 0.2, 0.35, 0.41, 0.6, 0.8, 1, 5, 15}

	for _, category := range categories {
		for _, w := range values {
			for _, c := range values {
				for _, conf := range values[:9] {
					got := Rate(category, w, c, conf, 4.5)
					if got < 0 || got > MaxRating {
						t.Fatalf("rating %d out of bounds for %s w=%f clarity=%f conf=%f", got, category, w, c, conf)
					}
				}
			}
		}
	}
}

func TestCredits(t *testing.T) {
	cases := []struct {
		rating   int
		weightKg float64
		want     int
	}{
		{rating: 3, weightKg: 1.2, want: 36},
		{rating: 1, weightKg: 0.086, want: 10},
		{rating: 5, weightKg: 15, want: 125},
		{rating: 4, weightKg: 0.19, want: 40},
		{rating: 0, weightKg: 5, want: 0},
	}

	for _, tc := range cases {
		if got := Credits(tc.rating, tc.weightKg); got != tc.want {
			t.Fatalf("Credits(%d, %f): expected %d, got %d", tc.rating, tc.weightKg, tc.want, got)
		}
	}
}
