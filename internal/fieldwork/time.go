package fieldwork

import (
	"encoding/json"
	"fmt"
	"time"
)

// DateFormat is the wire and storage format for calendar dates.
const DateFormat = "2006-01-02"

// TimeOfDay is a wall-clock time of day with second precision.
// It carries no date and no time zone. The zero value is not a valid
// midnight; it marks a time that was never successfully parsed, which keeps
// decayed historical values distinguishable from a real 00:00:00.
type TimeOfDay struct {
	seconds int // seconds since midnight, 0..86399
	valid   bool
}

// NewTimeOfDay builds a TimeOfDay from clock components.
func NewTimeOfDay(hour, minute, second int) (TimeOfDay, error) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 || second < 0 || second > 59 {
		return TimeOfDay{}, fmt.Errorf("invalid time of day: %02d:%02d:%02d", hour, minute, second)
	}
	return TimeOfDay{seconds: hour*3600 + minute*60 + second, valid: true}, nil
}

// ParseTimeOfDay coerces a clock string in "HH:MM:SS" or "HH:MM" format.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return TimeOfDay{seconds: t.Hour()*3600 + t.Minute()*60 + t.Second(), valid: true}, nil
		}
	}
	return TimeOfDay{}, fmt.Errorf("invalid time of day: %q (expected HH:MM or HH:MM:SS)", s)
}

// Hour returns the hour component (0-23).
func (t TimeOfDay) Hour() int { return t.seconds / 3600 }

// Minute returns the minute component (0-59).
func (t TimeOfDay) Minute() int { return (t.seconds % 3600) / 60 }

// Second returns the second component (0-59).
func (t TimeOfDay) Second() int { return t.seconds % 60 }

// Before reports whether t is earlier in the day than other.
func (t TimeOfDay) Before(other TimeOfDay) bool { return t.seconds < other.seconds }

// After reports whether t is later in the day than other.
func (t TimeOfDay) After(other TimeOfDay) bool { return t.seconds > other.seconds }

// Valid reports whether t came from a successful parse. The zero value is
// not valid; lenient decoding decays malformed input to it.
func (t TimeOfDay) Valid() bool { return t.valid }

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour(), t.Minute(), t.Second())
}

// MarshalJSON implements json.Marshaler, emitting "HH:MM:SS". A value that
// never parsed is emitted as null so it stays invalid across a round trip.
func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	if !t.valid {
		return json.Marshal(nil)
	}
	return json.Marshal(t.String())
}

// UnmarshalJSON implements json.Unmarshaler, accepting "HH:MM:SS" and
// "HH:MM". An unparsable or empty string decays to the zero value instead of
// failing the whole record: historical rows with malformed times must still
// load so the rest of their data stays usable. Callers ingesting new input
// should parse strictly with ParseTimeOfDay.
func (t *TimeOfDay) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*t = TimeOfDay{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseTimeOfDay(s)
	if err != nil {
		*t = TimeOfDay{}
		return nil
	}
	*t = parsed
	return nil
}

// ParseDate validates a calendar date in YYYY-MM-DD format.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateFormat, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date: %q (expected YYYY-MM-DD)", s)
	}
	return d, nil
}
