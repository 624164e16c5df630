// Package audit is the save-time gate against records that would create
// audit-risk data: implausibly long sessions and temporally overlapping
// entries. It is the only enforcement point before persistence; there is no
// storage-side re-validation.
package audit

import (
	"fmt"
	"strings"

	"github.com/goodtune/fieldtrack/internal/fieldwork"
)

// DefaultMaxSessionHours is the duration above which a single session is
// considered implausible. A longer session is a known audit red flag for the
// regulatory body. The comparison is strictly greater-than: a 12.0h session
// passes, 12.01h does not.
const DefaultMaxSessionHours = 12.0

// Rule labels identifying which check produced a violation. Exported so the
// save path can attribute rejections without re-running the checks.
const (
	RuleDuration = "duration"
	RuleOverlap  = "overlap"
)

// RuleOf maps a violation message back to the rule that produced it.
func RuleOf(violation string) string {
	if strings.HasPrefix(violation, "AUDIT RISK") {
		return RuleDuration
	}
	return RuleOverlap
}

// Auditor checks candidate session records against history before they are
// persisted. It holds no state beyond its threshold and is safe for
// concurrent use.
type Auditor struct {
	maxSessionHours float64
}

// New creates an auditor with the given single-session duration ceiling.
// A non-positive threshold selects DefaultMaxSessionHours.
func New(maxSessionHours float64) *Auditor {
	if maxSessionHours <= 0 {
		maxSessionHours = DefaultMaxSessionHours
	}
	return &Auditor{maxSessionHours: maxSessionHours}
}

// CheckSaveSafety decides whether persisting candidate is safe given the
// full history. Both checks always run and their findings merge; the save is
// safe only when no findings were produced. Violations are reported as
// messages rather than errors so a caller can present all of them at once.
//
// The check is side-effect-free. It mutates nothing and records nothing, so
// dry-run callers can evaluate a candidate without consequence.
func (a *Auditor) CheckSaveSafety(candidate fieldwork.SessionRecord, history []fieldwork.SessionRecord) (bool, []string) {
	var errors []string

	// Duration sanity. A single sitting above the ceiling is implausible
	// regardless of what else is on the books that day.
	if candidate.DurationHours > a.maxSessionHours {
		errors = append(errors, fmt.Sprintf(
			"AUDIT RISK: session duration (%.2fh) exceeds daily safety limit (%.1fh)",
			candidate.DurationHours, a.maxSessionHours))
	}

	// Temporal overlap against same-day history. Half-open intervals: a
	// session ending exactly when another starts does not overlap.
	for _, existing := range history {
		if existing.Date != candidate.Date {
			continue
		}
		start, end, ok := intervalOf(existing)
		if !ok {
			// Unparsable times in a historical row are skipped, not flagged;
			// the row bypasses overlap detection entirely.
			continue
		}
		if candidate.StartTime.Before(end) && candidate.EndTime.After(start) {
			errors = append(errors, fmt.Sprintf(
				"OVERLAP DETECTED: clashes with entry on %s (%s - %s)",
				candidate.Date, start, end))
			// One overlap is enough to block.
			break
		}
	}

	return len(errors) == 0, errors
}

// intervalOf extracts a record's time-of-day interval. Historical rows may
// carry times that were already parsed or that failed parsing upstream; a
// row whose interval cannot be established is reported as not ok.
func intervalOf(record fieldwork.SessionRecord) (start, end fieldwork.TimeOfDay, ok bool) {
	start, end = record.StartTime, record.EndTime
	if !start.Valid() || !end.Valid() {
		// Either endpoint failed to parse. The surviving endpoint alone does
		// not establish an interval, so the whole row is skipped.
		return start, end, false
	}
	if start == end {
		// A zero-width interval carries no overlap information.
		return start, end, false
	}
	return start, end, true
}
