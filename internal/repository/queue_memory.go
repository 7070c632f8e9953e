package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/HarshChauhan10/Queues/internal/domain"
	apperrors "github.com/HarshChauhan10/Queues/pkg/util"
)

type pairKey struct {
	instituteID   string
	participantID string
}

// memoryQueueRepository is a mutex-guarded in-memory queue store. It backs
// the engine's unit tests and mirrors the Postgres implementation's
// contract exactly, including per-key serialization and terminal-entry
// retention for stats.
type memoryQueueRepository struct {
	mu      sync.Mutex
	entries []*domain.QueueEntry
	active  map[pairKey]*domain.QueueEntry
	seq     int64
	now     func() time.Time
}

// NewMemoryQueueRepository builds an empty in-memory store.
func NewMemoryQueueRepository() QueueRepository {
	return NewMemoryQueueRepositoryWithClock(time.Now)
}

// NewMemoryQueueRepositoryWithClock injects the clock used for join orders.
func NewMemoryQueueRepositoryWithClock(now func() time.Time) QueueRepository {
	return &memoryQueueRepository{
		active: make(map[pairKey]*domain.QueueEntry),
		now:    now,
	}
}

func (r *memoryQueueRepository) Join(ctx context.Context, instituteID, participantID string, gender domain.Gender) (*domain.QueueEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := pairKey{instituteID, participantID}
	if _, ok := r.active[key]; ok {
		return nil, apperrors.NewAlreadyInQueue(instituteID)
	}

	now := r.now()
	r.seq++
	entry := &domain.QueueEntry{
		ID:            uuid.NewString(),
		InstituteID:   instituteID,
		ParticipantID: participantID,
		Gender:        gender,
		JoinOrder:     now,
		Seq:           r.seq,
		Status:        domain.EntryStatusJoined,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	r.entries = append(r.entries, entry)
	r.active[key] = entry
	return cloneEntry(entry), nil
}

func (r *memoryQueueRepository) FindActive(ctx context.Context, instituteID, participantID string) (*domain.QueueEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.active[pairKey{instituteID, participantID}]
	if !ok {
		return nil, apperrors.NewNotFound("queue entry", nil)
	}
	return cloneEntry(entry), nil
}

func (r *memoryQueueRepository) ListActive(ctx context.Context, instituteID string) ([]domain.QueueEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.listActiveLocked(instituteID), nil
}

func (r *memoryQueueRepository) Position(ctx context.Context, instituteID, participantID string) (domain.QueuePosition, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// One lock-held scan: the answer always reflects a whole snapshot.
	for i, entry := range r.listActiveLocked(instituteID) {
		if entry.ParticipantID == participantID {
			return domain.QueuePosition{Position: i + 1, PeopleAhead: i}, nil
		}
	}
	return domain.QueuePosition{}, apperrors.NewNotFound("queue entry", nil)
}

func (r *memoryQueueRepository) SetStatus(ctx context.Context, instituteID, participantID string, status domain.EntryStatus) (*domain.QueueEntry, error) {
	if status != domain.EntryStatusLeft && status != domain.EntryStatusRemoved {
		return nil, apperrors.NewInvalidTransition("entries can only transition to LEFT or REMOVED")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := pairKey{instituteID, participantID}
	entry, ok := r.active[key]
	if !ok {
		return nil, r.explainMissingActiveLocked(instituteID, participantID)
	}
	entry.Status = status
	entry.UpdatedAt = r.now()
	delete(r.active, key)
	return cloneEntry(entry), nil
}

func (r *memoryQueueRepository) Requeue(ctx context.Context, instituteID, participantID string) (*domain.QueueEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.requeueLocked(instituteID, participantID)
}

func (r *memoryQueueRepository) RequeueExpired(ctx context.Context, instituteID, participantID string, windowEnd time.Time) (*domain.QueueEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.active[pairKey{instituteID, participantID}]
	if !ok {
		return nil, nil
	}
	if entry.Window == nil || !entry.Window.End.Equal(windowEnd) {
		return nil, nil
	}
	return r.requeueLocked(instituteID, participantID)
}

func (r *memoryQueueRepository) requeueLocked(instituteID, participantID string) (*domain.QueueEntry, error) {
	entry, ok := r.active[pairKey{instituteID, participantID}]
	if !ok {
		return nil, r.explainMissingActiveLocked(instituteID, participantID)
	}

	now := r.now()
	r.seq++
	entry.JoinOrder = now
	// A fresh sequence number keeps the entry at the back even when the
	// clock has not advanced between operations.
	entry.Seq = r.seq
	entry.Window = nil
	entry.MovedToEnd++
	entry.UpdatedAt = now
	return cloneEntry(entry), nil
}

func (r *memoryQueueRepository) AssignWindow(ctx context.Context, instituteID, participantID string, start, end time.Time) (*domain.QueueEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.active[pairKey{instituteID, participantID}]
	if !ok {
		return nil, r.explainMissingActiveLocked(instituteID, participantID)
	}
	entry.Window = &domain.ServiceWindow{Start: start, End: end}
	entry.UpdatedAt = r.now()
	return cloneEntry(entry), nil
}

func (r *memoryQueueRepository) ListWindowed(ctx context.Context) ([]domain.QueueEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []domain.QueueEntry
	for _, entry := range r.active {
		if entry.Window != nil {
			result = append(result, *cloneEntry(entry))
		}
	}
	return result, nil
}

func (r *memoryQueueRepository) Stats(ctx context.Context, instituteID string) (domain.QueueStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var stats domain.QueueStats
	for _, entry := range r.entries {
		if entry.InstituteID != instituteID {
			continue
		}
		switch entry.Status {
		case domain.EntryStatusJoined:
			stats.Joined++
			stats.Total++
			switch entry.Gender {
			case domain.GenderMale:
				stats.Male++
			case domain.GenderFemale:
				stats.Female++
			case domain.GenderOther:
				stats.Other++
			}
		case domain.EntryStatusLeft:
			stats.Left++
		case domain.EntryStatusRemoved:
			stats.Removed++
		}
	}
	return stats, nil
}

func (r *memoryQueueRepository) CountActive(ctx context.Context, instituteID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.listActiveLocked(instituteID)), nil
}

func (r *memoryQueueRepository) listActiveLocked(instituteID string) []domain.QueueEntry {
	var result []domain.QueueEntry
	for _, entry := range r.entries {
		if entry.InstituteID == instituteID && entry.Status == domain.EntryStatusJoined {
			result = append(result, *cloneEntry(entry))
		}
	}
	// entries is append-ordered; sort by (join order, seq) to reflect
	// requeues that refreshed join orders.
	for i := 1; i < len(result); i++ {
		for j := i; j > 0 && entryLess(&result[j], &result[j-1]); j-- {
			result[j], result[j-1] = result[j-1], result[j]
		}
	}
	return result
}

func (r *memoryQueueRepository) explainMissingActiveLocked(instituteID, participantID string) error {
	for _, entry := range r.entries {
		if entry.InstituteID == instituteID && entry.ParticipantID == participantID {
			return apperrors.NewInvalidTransition("entry is no longer active")
		}
	}
	return apperrors.NewNotFound("queue entry", nil)
}

func entryLess(a, b *domain.QueueEntry) bool {
	if a.JoinOrder.Equal(b.JoinOrder) {
		return a.Seq < b.Seq
	}
	return a.JoinOrder.Before(b.JoinOrder)
}

func cloneEntry(entry *domain.QueueEntry) *domain.QueueEntry {
	clone := *entry
	if entry.Window != nil {
		window := *entry.Window
		clone.Window = &window
	}
	return &clone
}
