package fieldwork

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ActivityType classifies a session as direct-service or analytical work.
type ActivityType string

const (
	ActivityRestricted   ActivityType = "Restricted"
	ActivityUnrestricted ActivityType = "Unrestricted"
)

// ParseActivity normalizes a loose activity string onto the closed set.
func ParseActivity(raw string) (ActivityType, error) {
	switch ActivityType(normalizeEnum(raw)) {
	case ActivityRestricted:
		return ActivityRestricted, nil
	case ActivityUnrestricted:
		return ActivityUnrestricted, nil
	default:
		return "", fmt.Errorf("invalid activity type: %s (must be Restricted or Unrestricted)", raw)
	}
}

// UnmarshalJSON implements json.Unmarshaler to normalize casing.
func (a *ActivityType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	normalized, err := ParseActivity(s)
	if err != nil {
		return err
	}
	*a = normalized
	return nil
}

// SupervisionType is the oversight category during a session.
// SupervisionNone is the single canonical "not supervised" variant; empty
// strings, nulls, and the textual "None" all normalize to it at the JSON
// boundary so downstream comparisons are exhaustive.
type SupervisionType string

const (
	SupervisionNone       SupervisionType = "None"
	SupervisionIndividual SupervisionType = "Individual"
	SupervisionGroup      SupervisionType = "Group"
)

// Supervised reports whether the session has any oversight.
func (s SupervisionType) Supervised() bool {
	return s == SupervisionIndividual || s == SupervisionGroup
}

// NormalizeSupervision maps loose input representations onto the closed set.
// Unknown values are reported as errors; absence in any form collapses to
// SupervisionNone.
func NormalizeSupervision(raw string) (SupervisionType, error) {
	switch SupervisionType(normalizeEnum(raw)) {
	case "", SupervisionNone, "Null", "Nil":
		return SupervisionNone, nil
	case SupervisionIndividual:
		return SupervisionIndividual, nil
	case SupervisionGroup:
		return SupervisionGroup, nil
	default:
		return SupervisionNone, fmt.Errorf("invalid supervision type: %s (must be None, Individual, or Group)", raw)
	}
}

// UnmarshalJSON implements json.Unmarshaler with ingestion-boundary
// normalization: null, "", and "None" all become SupervisionNone.
func (s *SupervisionType) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = SupervisionNone
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	normalized, err := NormalizeSupervision(raw)
	if err != nil {
		return err
	}
	*s = normalized
	return nil
}

// MarshalJSON implements json.Marshaler with canonical casing.
func (s SupervisionType) MarshalJSON() ([]byte, error) {
	if s == "" {
		s = SupervisionNone
	}
	return json.Marshal(string(s))
}

// SessionRecord is one logged work interval. Records are immutable once
// persisted; corrections are modeled as delete and reinsert by the caller.
type SessionRecord struct {
	ID              string          `json:"id"`
	TraineeID       string          `json:"trainee_id"`
	Date            string          `json:"date"` // YYYY-MM-DD, local wall-clock date
	StartTime       TimeOfDay       `json:"start_time"`
	EndTime         TimeOfDay       `json:"end_time"`
	DurationHours   float64         `json:"duration_hours"`
	ActivityType    ActivityType    `json:"activity_type"`
	SupervisionType SupervisionType `json:"supervision_type"`
	Supervisor      string          `json:"supervisor"`
	EnergyRating    int             `json:"energy_rating,omitempty"` // 1-5 wellbeing signal, 0 = unset
	Notes           string          `json:"notes,omitempty"`
}

// Validate checks the record's own invariants. It does not consult history;
// cross-record checks belong to the auditor.
func (r *SessionRecord) Validate() error {
	if _, err := ParseDate(r.Date); err != nil {
		return err
	}
	if r.DurationHours <= 0 {
		return fmt.Errorf("duration must be positive, got %.2f", r.DurationHours)
	}
	if r.SupervisionType.Supervised() && strings.TrimSpace(r.Supervisor) == "" {
		return fmt.Errorf("supervisor name is required for supervised sessions")
	}
	if r.EnergyRating != 0 && (r.EnergyRating < 1 || r.EnergyRating > 5) {
		return fmt.Errorf("energy rating must be between 1 and 5, got %d", r.EnergyRating)
	}
	return nil
}

// Supervised reports whether this session counts toward supervised hours.
func (r *SessionRecord) Supervised() bool {
	return r.SupervisionType.Supervised()
}

func normalizeEnum(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}
