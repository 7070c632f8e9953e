package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/HarshChauhan10/Queues/internal/domain"
	"github.com/HarshChauhan10/Queues/internal/events"
	"github.com/HarshChauhan10/Queues/internal/repository"
	"github.com/HarshChauhan10/Queues/internal/schedule"
	apperrors "github.com/HarshChauhan10/Queues/pkg/util"
)

// InstituteDirectory is the slice of institute persistence the queue facade
// reads window configuration from.
type InstituteDirectory interface {
	GetByID(ctx context.Context, id string) (*domain.Institute, error)
	List(ctx context.Context) ([]domain.Institute, error)
}

// WindowScheduler arms and cancels automatic requeue timers.
type WindowScheduler interface {
	Arm(entry *domain.QueueEntry)
	Cancel(instituteID, participantID string)
}

// QueueService is the public queue contract: join, leave, remove, requeue,
// window assignment, position, listing, and stats. It composes the window
// evaluator, the queue store, and the requeue scheduler; callers arrive
// already authenticated, and institute-scoped actions verify ownership here.
type QueueService struct {
	queue      repository.QueueRepository
	institutes InstituteDirectory
	dispatcher events.Dispatcher
	scheduler  WindowScheduler
	now        func() time.Time
}

// QueueDependencies bundles collaborators for the queue service.
type QueueDependencies struct {
	QueueRepo     repository.QueueRepository
	InstituteRepo InstituteDirectory
	Dispatcher    events.Dispatcher
	Scheduler     WindowScheduler
	Now           func() time.Time
}

// NewQueueService constructs the service.
func NewQueueService(deps QueueDependencies) *QueueService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &QueueService{
		queue:      deps.QueueRepo,
		institutes: deps.InstituteRepo,
		dispatcher: deps.Dispatcher,
		scheduler:  deps.Scheduler,
		now:        now,
	}
}

// InstituteWithCount pairs an institute with its live queue length.
type InstituteWithCount struct {
	Institute  domain.Institute
	QueueCount int
}

// Join places the participant at the back of the institute's queue. Joins
// are admitted only inside the institute's daily window, inclusive at both
// bounds, and a pair can hold at most one active entry.
func (s *QueueService) Join(ctx context.Context, instituteID, participantID string, gender domain.Gender) (*domain.QueueEntry, domain.QueuePosition, error) {
	if !gender.Valid() {
		return nil, domain.QueuePosition{}, apperrors.NewValidationError("unknown gender category", nil)
	}

	institute, err := s.institute(ctx, instituteID)
	if err != nil {
		return nil, domain.QueuePosition{}, err
	}
	if !schedule.CanJoin(institute.OpensAt, institute.ClosesAt, s.now()) {
		return nil, domain.QueuePosition{}, apperrors.NewOutsideWindow(institute.OpensAt.String(), institute.ClosesAt.String())
	}

	entry, err := s.queue.Join(ctx, instituteID, participantID, gender)
	if err != nil {
		return nil, domain.QueuePosition{}, err
	}

	pos, err := s.queue.Position(ctx, instituteID, participantID)
	if err != nil {
		return nil, domain.QueuePosition{}, err
	}

	s.publish(ctx, events.EventParticipantJoined, entry, events.ParticipantJoinedPayload{
		Gender:    entry.Gender,
		JoinOrder: entry.JoinOrder,
	})
	return entry, pos, nil
}

// Leave voluntarily exits the caller's own entry.
func (s *QueueService) Leave(ctx context.Context, instituteID, participantID string) error {
	entry, err := s.queue.SetStatus(ctx, instituteID, participantID, domain.EntryStatusLeft)
	if err != nil {
		return err
	}
	if s.scheduler != nil {
		s.scheduler.Cancel(instituteID, participantID)
	}
	s.publish(ctx, events.EventParticipantLeft, entry, nil)
	return nil
}

// Remove is the institute action that ejects a participant.
func (s *QueueService) Remove(ctx context.Context, callerInstituteID, instituteID, participantID string) error {
	if err := requireOwner(callerInstituteID, instituteID); err != nil {
		return err
	}
	entry, err := s.queue.SetStatus(ctx, instituteID, participantID, domain.EntryStatusRemoved)
	if err != nil {
		return err
	}
	if s.scheduler != nil {
		s.scheduler.Cancel(instituteID, participantID)
	}
	s.publish(ctx, events.EventParticipantRemoved, entry, nil)
	return nil
}

// MoveToEnd is the manual institute-triggered requeue: the entry's join
// order is refreshed, its window cleared, and its moved counter bumped.
func (s *QueueService) MoveToEnd(ctx context.Context, callerInstituteID, instituteID, participantID string) (*domain.QueueEntry, error) {
	if err := requireOwner(callerInstituteID, instituteID); err != nil {
		return nil, err
	}
	entry, err := s.queue.Requeue(ctx, instituteID, participantID)
	if err != nil {
		return nil, err
	}
	if s.scheduler != nil {
		s.scheduler.Cancel(instituteID, participantID)
	}
	s.publish(ctx, events.EventMovedToEnd, entry, events.MovedToEndPayload{
		Automatic:  false,
		MovedCount: entry.MovedToEnd,
		JoinOrder:  entry.JoinOrder,
	})
	return entry, nil
}

// AssignWindow attaches a service window to an active entry and arms the
// automatic requeue for its end. When start/end are zero, the window is
// estimated from the entry's position and the institute's per-person
// duration.
func (s *QueueService) AssignWindow(ctx context.Context, callerInstituteID, instituteID, participantID string, start, end time.Time) (*domain.QueueEntry, error) {
	if err := requireOwner(callerInstituteID, instituteID); err != nil {
		return nil, err
	}

	if start.IsZero() || end.IsZero() {
		institute, err := s.institute(ctx, instituteID)
		if err != nil {
			return nil, err
		}
		pos, err := s.queue.Position(ctx, instituteID, participantID)
		if err != nil {
			return nil, err
		}
		window := schedule.EstimateWindow(institute.OpensAt, institute.ApproxDuration(), pos.Position, s.now())
		start, end = window.Start, window.End
	}
	if !end.After(start) {
		return nil, apperrors.NewValidationError("window end must be after start", nil)
	}

	entry, err := s.queue.AssignWindow(ctx, instituteID, participantID, start, end)
	if err != nil {
		return nil, err
	}
	if s.scheduler != nil {
		s.scheduler.Arm(entry)
	}
	s.publish(ctx, events.EventWindowAssigned, entry, events.WindowAssignedPayload{Start: start, End: end})
	return entry, nil
}

// Position answers the caller's 1-based spot and people-ahead count.
func (s *QueueService) Position(ctx context.Context, instituteID, participantID string) (domain.QueuePosition, error) {
	return s.queue.Position(ctx, instituteID, participantID)
}

// List returns the institute's active entries in service order.
func (s *QueueService) List(ctx context.Context, instituteID string) ([]domain.QueueEntry, error) {
	return s.queue.ListActive(ctx, instituteID)
}

// Stats aggregates the institute's queue by gender and lifecycle status.
func (s *QueueService) Stats(ctx context.Context, instituteID string) (domain.QueueStats, error) {
	return s.queue.Stats(ctx, instituteID)
}

// ListInstitutes returns all institutes with their live queue lengths.
func (s *QueueService) ListInstitutes(ctx context.Context) ([]InstituteWithCount, error) {
	institutes, err := s.institutes.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	result := make([]InstituteWithCount, 0, len(institutes))
	for _, institute := range institutes {
		count, err := s.queue.CountActive(ctx, institute.ID)
		if err != nil {
			return nil, err
		}
		result = append(result, InstituteWithCount{Institute: institute, QueueCount: count})
	}
	return result, nil
}

func (s *QueueService) institute(ctx context.Context, instituteID string) (*domain.Institute, error) {
	institute, err := s.institutes.GetByID(ctx, instituteID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("institute", map[string]any{"institute_id": instituteID})
		}
		return nil, apperrors.MapError(err)
	}
	return institute, nil
}

func requireOwner(callerInstituteID, instituteID string) error {
	if callerInstituteID != instituteID {
		return apperrors.NewForbidden("institute does not own this queue")
	}
	return nil
}

func (s *QueueService) publish(ctx context.Context, eventType events.EventType, entry *domain.QueueEntry, payload interface{}) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:            uuid.NewString(),
		Type:          eventType,
		InstituteID:   entry.InstituteID,
		ParticipantID: entry.ParticipantID,
		Timestamp:     s.now(),
		Payload:       payload,
	})
}
