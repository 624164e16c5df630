package rules

import "fmt"

// Mode selects which supervision ratio applies. The regulatory body defines
// two fieldwork tracks with different oversight requirements.
type Mode string

const (
	ModeStandard     Mode = "Standard"
	ModeConcentrated Mode = "Concentrated"
)

// ParseMode normalizes a user-supplied mode string.
func ParseMode(s string) (Mode, error) {
	switch normalizeMode(s) {
	case ModeStandard:
		return ModeStandard, nil
	case ModeConcentrated:
		return ModeConcentrated, nil
	}
	return "", fmt.Errorf("invalid supervision mode: %s (must be Standard or Concentrated)", s)
}

// DefaultRatio is applied when a ruleset has no entry for the requested mode.
const DefaultRatio = 0.05

// RuleSet is one versioned bundle of compliance parameters. Immutable once
// loaded; the compliance engine owns its copy for the engine's lifetime.
type RuleSet struct {
	Version                    string           `json:"version" mapstructure:"version"`
	MonthlyMinHours            float64          `json:"monthly_min_hours" mapstructure:"monthly_min_hours"`
	MonthlyMaxHours            float64          `json:"monthly_max_hours" mapstructure:"monthly_max_hours"`
	SupervisionRatios          map[Mode]float64 `json:"supervision_ratios" mapstructure:"supervision_ratios"`
	GroupSupervisionMaxPercent float64          `json:"group_supervision_max_percent" mapstructure:"group_supervision_max_percent"`
}

// RatioFor returns the required supervision fraction for a mode, falling
// back to DefaultRatio when the mode is unrecognized.
func (r RuleSet) RatioFor(mode Mode) float64 {
	if ratio, ok := r.SupervisionRatios[mode]; ok {
		return ratio
	}
	return DefaultRatio
}

// FallbackVersion is substituted when a requested version is absent from the
// parameter file.
const FallbackVersion = "2022"

// Default returns the built-in parameter bundle used when no parameter file
// is available. It guarantees an engine can always be constructed, even with
// a corrupted or missing configuration source.
func Default() RuleSet {
	return RuleSet{
		Version:         FallbackVersion,
		MonthlyMinHours: 20,
		MonthlyMaxHours: 130,
		SupervisionRatios: map[Mode]float64{
			ModeStandard:     0.05,
			ModeConcentrated: 0.10,
		},
		GroupSupervisionMaxPercent: 0.50,
	}
}
