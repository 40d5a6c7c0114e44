// Package waste maps classifier labels onto e-waste categories.
package waste

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Unknown is reported for labels that match no profile, both as category and recyclability.
const Unknown = "unknown"

// Recyclability tags.
const (
	Recyclable       = "recyclable"
	PartiallyDamaged = "partially_damaged"
)

// Profile is one row of the category table.
type Profile struct {
	Category      string
	Keywords      []string
	MinWeightKg   float64
	MaxWeightKg   float64
	BaseReward    float64
	Recyclability string
}

// Categorization is the outcome of matching a label against the table.
type Categorization struct {
	Category          string
	EstimatedWeightKg float64
	BaseReward        float64
	Recyclability     string
}

// Profiles is scanned in order and the first matching profile wins, so a
// label such as "cell" resolves to mobile rather than battery.
var Profiles = []Profile{
	{Category: "mobile", Keywords: []string{"mobile", "phone", "smartphone", "cell"}, MinWeightKg: 0.15, MaxWeightKg: 0.25, BaseReward: 2.5, Recyclability: Recyclable},
	{Category: "laptop", Keywords: []string{"laptop", "notebook", "computer"}, MinWeightKg: 1.5, MaxWeightKg: 3.0, BaseReward: 3.5, Recyclability: Recyclable},
	{Category: "charger", Keywords: []string{"charger", "adapter", "cable", "cord"}, MinWeightKg: 0.05, MaxWeightKg: 0.15, BaseReward: 1.5, Recyclability: Recyclable},
	{Category: "battery", Keywords: []string{"battery", "cell"}, MinWeightKg: 0.02, MaxWeightKg: 0.5, BaseReward: 2.0, Recyclability: PartiallyDamaged},
	{Category: "monitor", Keywords: []string{"monitor", "screen", "display", "tv", "television"}, MinWeightKg: 3.0, MaxWeightKg: 10.0, BaseReward: 4.5, Recyclability: Recyclable},
	{Category: "printer", Keywords: []string{"printer", "scanner"}, MinWeightKg: 5.0, MaxWeightKg: 15.0, BaseReward: 4.5, Recyclability: Recyclable},
	{Category: "mixed", Keywords: []string{"electronic", "device", "plastic", "waste", "trash", "mixed"}, MinWeightKg: 0.5, MaxWeightKg: 2.0, BaseReward: 2.0, Recyclability: Recyclable},
}

// Categorize matches label against Profiles and estimates the item weight.
// Higher confidence moves the estimate toward the profile's upper bound.
func Categorize(label string, confidence float64) Categorization {
	normalized := Normalize(label)

	for _, p := range Profiles {
		if !p.matches(normalized) {
			continue
		}
		return Categorization{
			Category:          p.Category,
			EstimatedWeightKg: p.MinWeightKg + (p.MaxWeightKg-p.MinWeightKg)*confidence,
			BaseReward:        p.BaseReward,
			Recyclability:     p.Recyclability,
		}
	}

	return Categorization{Category: Unknown, Recyclability: Unknown}
}

// Normalize folds label into the form keywords are matched against.
func Normalize(label string) string {
	return cases.Lower(language.Und).String(strings.TrimSpace(norm.NFKC.String(label)))
}

func (p Profile) matches(normalized string) bool {
	for _, kw := range p.Keywords {
		if strings.Contains(normalized, kw) {
			return true
		}
	}
	return false
}
