package events

import (
	"time"

	"github.com/HarshChauhan10/Queues/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventParticipantJoined  EventType = "participant_joined"
	EventParticipantLeft    EventType = "participant_left"
	EventParticipantRemoved EventType = "participant_removed"
	EventMovedToEnd         EventType = "moved_to_end"
	EventWindowAssigned     EventType = "window_assigned"
)

// Event represents a queue state change emitted by the facade or scheduler.
type Event struct {
	ID            string      `json:"id"`
	Type          EventType   `json:"type"`
	InstituteID   string      `json:"institute_id"`
	ParticipantID string      `json:"participant_id"`
	Timestamp     time.Time   `json:"timestamp"`
	Payload       interface{} `json:"payload,omitempty"`
}

// MovedToEndPayload payload.
type MovedToEndPayload struct {
	Automatic  bool      `json:"automatic"`
	MovedCount int       `json:"moved_count"`
	JoinOrder  time.Time `json:"join_order"`
}

// WindowAssignedPayload payload.
type WindowAssignedPayload struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// ParticipantJoinedPayload payload.
type ParticipantJoinedPayload struct {
	Gender    domain.Gender `json:"gender"`
	JoinOrder time.Time     `json:"join_order"`
}
