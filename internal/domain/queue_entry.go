package domain

import "time"

// Gender enumerates the categories tracked for aggregate queue stats.
type Gender string

const (
	GenderMale   Gender = "MALE"
	GenderFemale Gender = "FEMALE"
	GenderOther  Gender = "OTHER"
)

// Valid reports whether the gender value is one of the known categories.
func (g Gender) Valid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther:
		return true
	}
	return false
}

// EntryStatus enumerates lifecycle states for a queue entry.
type EntryStatus string

const (
	EntryStatusJoined  EntryStatus = "JOINED"
	EntryStatusLeft    EntryStatus = "LEFT"
	EntryStatusRemoved EntryStatus = "REMOVED"
)

// ServiceWindow is the externally assigned interval during which a queued
// participant is expected to be served.
type ServiceWindow struct {
	Start time.Time
	End   time.Time
}

// QueueEntry is one participant's membership in one institute's queue.
// The (InstituteID, ParticipantID) pair is the natural key: at most one
// entry per pair is JOINED at any instant. JoinOrder is refreshed to the
// requeue time whenever the entry is moved to the back; Seq breaks ties
// between entries with identical JoinOrder.
type QueueEntry struct {
	ID             string
	InstituteID    string
	ParticipantID  string
	Gender         Gender
	JoinOrder      time.Time
	Seq            int64
	Status         EntryStatus
	Window         *ServiceWindow
	MovedToEnd     int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Active reports whether the entry currently occupies a queue position.
func (e *QueueEntry) Active() bool {
	return e.Status == EntryStatusJoined
}

// QueuePosition is the result of a position query.
type QueuePosition struct {
	Position    int
	PeopleAhead int
}

// QueueStats aggregates active entries by gender plus lifecycle counts
// across the institute's whole queue history.
type QueueStats struct {
	Total   int
	Male    int
	Female  int
	Other   int
	Joined  int
	Left    int
	Removed int
}
