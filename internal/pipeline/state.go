package pipeline

import "fmt"

// State is a step of the submission state machine.
type State int

const (
	Pending State = iota
	GeoChecked
	ClarityChecked
	Classified
	Categorized
	Rated
	Finalized
	DeniedOutOfRange
	DeniedPoorQuality
	DeniedNotWaste
)

var stateNames = map[State]string{
	Pending:           "pending",
	GeoChecked:        "geo_checked",
	ClarityChecked:    "clarity_checked",
	Classified:        "classified",
	Categorized:       "categorized",
	Rated:             "rated",
	Finalized:         "finalized",
	DeniedOutOfRange:  "denied_out_of_range",
	DeniedPoorQuality: "denied_poor_quality",
	DeniedNotWaste:    "denied_not_waste",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Terminal reports whether the pipeline stops in s.
func (s State) Terminal() bool {
	switch s {
	case Finalized, DeniedOutOfRange, DeniedPoorQuality, DeniedNotWaste:
		return true
	default:
		return false
	}
}

// Denied reports whether s is one of the denial outcomes.
func (s State) Denied() bool {
	return s == DeniedOutOfRange || s == DeniedPoorQuality || s == DeniedNotWaste
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a state name.
func (s *State) UnmarshalText(text []byte) error {
	for state, name := range stateNames {
		if name == string(text) {
			*s = state
			return nil
		}
	}
	return fmt.Errorf("unknown pipeline state %q", text)
}
