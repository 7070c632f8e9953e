package dto

import (
	"time"

	"github.com/HarshChauhan10/Queues/internal/domain"
	"github.com/HarshChauhan10/Queues/internal/service"
)

// QueueEntryResponse is the wire form of a queue entry.
type QueueEntryResponse struct {
	ID            string     `json:"id"`
	InstituteID   string     `json:"institute_id"`
	ParticipantID string     `json:"participant_id"`
	Gender        string     `json:"gender"`
	JoinedAt      time.Time  `json:"joined_at"`
	Status        string     `json:"status"`
	WindowStart   *time.Time `json:"window_start,omitempty"`
	WindowEnd     *time.Time `json:"window_end,omitempty"`
	MovedToEnd    int        `json:"moved_to_end_count"`
}

// NewQueueEntryResponse maps a domain entry.
func NewQueueEntryResponse(entry *domain.QueueEntry) QueueEntryResponse {
	resp := QueueEntryResponse{
		ID:            entry.ID,
		InstituteID:   entry.InstituteID,
		ParticipantID: entry.ParticipantID,
		Gender:        string(entry.Gender),
		JoinedAt:      entry.JoinOrder,
		Status:        string(entry.Status),
		MovedToEnd:    entry.MovedToEnd,
	}
	if entry.Window != nil {
		start, end := entry.Window.Start, entry.Window.End
		resp.WindowStart = &start
		resp.WindowEnd = &end
	}
	return resp
}

// NewQueueEntryResponses maps a listing.
func NewQueueEntryResponses(entries []domain.QueueEntry) []QueueEntryResponse {
	result := make([]QueueEntryResponse, 0, len(entries))
	for i := range entries {
		result = append(result, NewQueueEntryResponse(&entries[i]))
	}
	return result
}

// PositionResponse answers a position query.
type PositionResponse struct {
	Position    int `json:"position"`
	PeopleAhead int `json:"people_ahead"`
}

// StatsResponse aggregates a queue.
type StatsResponse struct {
	Total   int `json:"total"`
	Male    int `json:"male_count"`
	Female  int `json:"female_count"`
	Other   int `json:"other_count"`
	Joined  int `json:"joined_count"`
	Left    int `json:"left_count"`
	Removed int `json:"removed_count"`
}

// NewStatsResponse maps domain stats.
func NewStatsResponse(stats domain.QueueStats) StatsResponse {
	return StatsResponse{
		Total:   stats.Total,
		Male:    stats.Male,
		Female:  stats.Female,
		Other:   stats.Other,
		Joined:  stats.Joined,
		Left:    stats.Left,
		Removed: stats.Removed,
	}
}

// AssignWindowRequest carries an explicit service window; both fields empty
// asks the server to estimate one from the participant's position.
type AssignWindowRequest struct {
	Start *time.Time `json:"start"`
	End   *time.Time `json:"end"`
}

// InstituteSummaryResponse lists an institute with its live queue length.
type InstituteSummaryResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Address    string `json:"address,omitempty"`
	Zipcode    string `json:"zipcode,omitempty"`
	OpensAt    string `json:"opens_at"`
	ClosesAt   string `json:"closes_at"`
	QueueCount int    `json:"queue_count"`
}

// NewInstituteSummaryResponses maps institutes with counts.
func NewInstituteSummaryResponses(items []service.InstituteWithCount) []InstituteSummaryResponse {
	result := make([]InstituteSummaryResponse, 0, len(items))
	for _, item := range items {
		result = append(result, InstituteSummaryResponse{
			ID:         item.Institute.ID,
			Name:       item.Institute.Name,
			Address:    item.Institute.Address,
			Zipcode:    item.Institute.Zipcode,
			OpensAt:    item.Institute.OpensAt.String(),
			ClosesAt:   item.Institute.ClosesAt.String(),
			QueueCount: item.QueueCount,
		})
	}
	return result
}
