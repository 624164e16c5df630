// Package compliance computes monthly fieldwork statistics against a
// versioned ruleset. The engine is purely functional: it performs no I/O,
// holds no mutable state, and assumes the caller has already filtered the
// input to the reporting period.
package compliance

import (
	"github.com/goodtune/fieldtrack/internal/fieldwork"
	"github.com/goodtune/fieldtrack/internal/rules"
)

// MonthlyStats is the aggregate output for one reporting period. It has no
// identity and is recomputed on every call.
type MonthlyStats struct {
	TotalHours         float64 `json:"total_hours"`
	SupervisedHours    float64 `json:"supervised_hours"`
	IndependentHours   float64 `json:"independent_hours"`
	SupervisionPercent float64 `json:"supervision_percent"`

	// Compliance flags
	IsCompliantSupervision bool `json:"is_compliant_supervision"`
	IsCompliantMinHours    bool `json:"is_compliant_min_hours"`
	IsCompliantMaxHours    bool `json:"is_compliant_max_hours"`

	// Guidance
	HoursNeededForRatio float64 `json:"hours_needed_for_ratio"`
}

// Engine evaluates session records against one immutable ruleset and mode.
type Engine struct {
	ruleset rules.RuleSet
	mode    rules.Mode
}

// NewEngine creates an engine bound to a ruleset and supervision mode for
// its lifetime.
func NewEngine(ruleset rules.RuleSet, mode rules.Mode) *Engine {
	return &Engine{ruleset: ruleset, mode: mode}
}

// RuleSet returns the ruleset this engine evaluates against.
func (e *Engine) RuleSet() rules.RuleSet { return e.ruleset }

// Mode returns the supervision mode this engine evaluates against.
func (e *Engine) Mode() rules.Mode { return e.mode }

// CalculateMonthlyStats computes compliance statistics for a set of session
// records. The caller is responsible for restricting records to the
// reporting period; no date filtering happens here.
//
// An empty input reports non-compliance on the minimum-hours axis but
// vacuous compliance on the maximum-hours axis: zero hours never exceed the
// cap.
func (e *Engine) CalculateMonthlyStats(records []fieldwork.SessionRecord) MonthlyStats {
	if len(records) == 0 {
		return MonthlyStats{
			IsCompliantSupervision: false,
			IsCompliantMinHours:    false,
			IsCompliantMaxHours:    true,
		}
	}

	var totalHours, supervisedHours float64
	for _, record := range records {
		totalHours += record.DurationHours
		if record.Supervised() {
			supervisedHours += record.DurationHours
		}
	}
	independentHours := totalHours - supervisedHours

	supervisionPercent := 0.0
	if totalHours > 0 {
		supervisionPercent = supervisedHours / totalHours
	}

	requiredRatio := e.ruleset.RatioFor(e.mode)

	// Guidance figure: how much supervised time would satisfy the ratio at
	// today's total. This deliberately does not solve the fixed point
	// (supervised+x)/(total+x) = ratio, where the added supervision also
	// raises the total; the simpler form matches what trainees are shown.
	targetSupervised := totalHours * requiredRatio
	hoursNeeded := targetSupervised - supervisedHours
	if hoursNeeded < 0 {
		hoursNeeded = 0
	}

	return MonthlyStats{
		TotalHours:             totalHours,
		SupervisedHours:        supervisedHours,
		IndependentHours:       independentHours,
		SupervisionPercent:     supervisionPercent,
		IsCompliantSupervision: supervisionPercent >= requiredRatio,
		IsCompliantMinHours:    totalHours >= e.ruleset.MonthlyMinHours,
		IsCompliantMaxHours:    totalHours <= e.ruleset.MonthlyMaxHours,
		HoursNeededForRatio:    hoursNeeded,
	}
}
