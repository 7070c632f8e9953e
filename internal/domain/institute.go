package domain

import (
	"fmt"
	"time"
)

// TimeOfDay is a wall-clock time within a day, date-agnostic.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay parses "HH:MM" (24h).
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	var t TimeOfDay
	if _, err := fmt.Sscanf(s, "%d:%d", &t.Hour, &t.Minute); err != nil {
		return TimeOfDay{}, fmt.Errorf("parse time of day %q: %w", s, err)
	}
	if t.Hour < 0 || t.Hour > 23 || t.Minute < 0 || t.Minute > 59 {
		return TimeOfDay{}, fmt.Errorf("time of day %q out of range", s)
	}
	return t, nil
}

// String renders the canonical "HH:MM" form.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Seconds returns the offset from midnight in seconds.
func (t TimeOfDay) Seconds() int {
	return t.Hour*3600 + t.Minute*60
}

// Before reports whether t is strictly earlier in the day than other.
func (t TimeOfDay) Before(other TimeOfDay) bool {
	return t.Seconds() < other.Seconds()
}

// On anchors the time of day to the date of ref, in ref's location.
func (t TimeOfDay) On(ref time.Time) time.Time {
	return time.Date(ref.Year(), ref.Month(), ref.Day(), t.Hour, t.Minute, 0, 0, ref.Location())
}

// Institute is a service provider operating one queue and one daily
// service window. OpensAt/ClosesAt bound the join window; ApproxMinutes is
// the estimated per-person service duration used when assigning windows.
type Institute struct {
	ID                string
	Name              string
	Email             string
	PasswordHash      string
	Address           string
	Zipcode           string
	Phone             string
	OpensAt           TimeOfDay
	ClosesAt          TimeOfDay
	ApproxMinutes     int
	IsProfileComplete bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// ApproxDuration returns the per-person service duration.
func (i *Institute) ApproxDuration() time.Duration {
	return time.Duration(i.ApproxMinutes) * time.Minute
}
