// Package scheduler fires automatic requeues when an entry's assigned
// service window elapses without the participant being served.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/HarshChauhan10/Queues/internal/domain"
	"github.com/HarshChauhan10/Queues/internal/events"
	"github.com/HarshChauhan10/Queues/internal/observability"
	apperrors "github.com/HarshChauhan10/Queues/pkg/util"
)

const fireTimeout = 5 * time.Second

// Store is the slice of the queue store the scheduler needs. Every fire is
// a query-then-act against current store state; the scheduler never trusts
// the entry captured when the timer was armed.
type Store interface {
	FindActive(ctx context.Context, instituteID, participantID string) (*domain.QueueEntry, error)
	ListWindowed(ctx context.Context) ([]domain.QueueEntry, error)
	RequeueExpired(ctx context.Context, instituteID, participantID string, windowEnd time.Time) (*domain.QueueEntry, error)
}

type pairKey struct {
	instituteID   string
	participantID string
}

type armedTimer struct {
	end   time.Time
	timer *time.Timer
}

// Scheduler keeps one timer per (institute, participant, window-end). Its
// complete schedule is re-derivable from store state alone via Rescan, so a
// restart loses nothing.
type Scheduler struct {
	store      Store
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics
	now        func() time.Time

	mu     sync.Mutex
	timers map[pairKey]*armedTimer
	closed bool
}

// New builds a scheduler. dispatcher and metrics may be nil.
func New(store Store, dispatcher events.Dispatcher, logger *zap.Logger, metrics *observability.Metrics) *Scheduler {
	return &Scheduler{
		store:      store,
		dispatcher: dispatcher,
		logger:     logger,
		metrics:    metrics,
		now:        time.Now,
		timers:     make(map[pairKey]*armedTimer),
	}
}

// Rescan re-derives the full timer set from store state. Entries whose
// window already elapsed are requeued eagerly rather than dropped. Called
// at startup and safe to call again at any time.
func (s *Scheduler) Rescan(ctx context.Context) error {
	entries, err := s.store.ListWindowed(ctx)
	if err != nil {
		return err
	}
	for i := range entries {
		s.Arm(&entries[i])
	}
	s.logger.Info("requeue schedule rebuilt", zap.Int("entries", len(entries)))
	return nil
}

// Arm schedules a one-shot requeue at the entry's window end. Re-arming the
// same pair replaces any previously armed timer; arming an already-elapsed
// window fires immediately. Entries without a window are ignored.
func (s *Scheduler) Arm(entry *domain.QueueEntry) {
	if entry == nil || entry.Window == nil {
		return
	}
	key := pairKey{entry.InstituteID, entry.ParticipantID}
	end := entry.Window.End

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if existing, ok := s.timers[key]; ok {
		if existing.end.Equal(end) {
			s.mu.Unlock()
			return
		}
		existing.timer.Stop()
		delete(s.timers, key)
	}

	delay := end.Sub(s.now())
	if delay <= 0 {
		s.mu.Unlock()
		s.fire(key, end)
		return
	}

	s.timers[key] = &armedTimer{
		end: end,
		timer: time.AfterFunc(delay, func() {
			s.fire(key, end)
		}),
	}
	s.mu.Unlock()

	s.logger.Debug("requeue armed",
		zap.String("institute_id", key.instituteID),
		zap.String("participant_id", key.participantID),
		zap.Time("window_end", end),
	)
}

// Cancel actively drops any armed timer for the pair. The staleness check
// in fire remains the safety net when a timer has already escaped Stop.
func (s *Scheduler) Cancel(instituteID, participantID string) {
	key := pairKey{instituteID, participantID}
	s.mu.Lock()
	defer s.mu.Unlock()
	if armed, ok := s.timers[key]; ok {
		armed.timer.Stop()
		delete(s.timers, key)
	}
}

// Close stops all armed timers. Fires already in flight finish on their own;
// their staleness checks keep them harmless.
func (s *Scheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for key, armed := range s.timers {
		armed.timer.Stop()
		delete(s.timers, key)
	}
}

// fire runs one scheduled requeue. It re-reads the entry fresh and no-ops
// silently when the entry is gone, no longer JOINED, window-less, or armed
// for a different window end — firing is idempotent under re-arming. Errors
// are logged and skipped so one participant never blocks others.
func (s *Scheduler) fire(key pairKey, end time.Time) {
	ctx, cancel := context.WithTimeout(context.Background(), fireTimeout)
	defer cancel()

	s.mu.Lock()
	if armed, ok := s.timers[key]; ok && armed.end.Equal(end) {
		delete(s.timers, key)
	}
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return
	}

	entry, err := s.store.FindActive(ctx, key.instituteID, key.participantID)
	if err != nil {
		if apperrors.CodeOf(err) == apperrors.CodeNotFound {
			return
		}
		s.logger.Error("requeue fire: read entry",
			zap.String("institute_id", key.instituteID),
			zap.String("participant_id", key.participantID),
			zap.Error(err),
		)
		return
	}
	if entry.Window == nil || !entry.Window.End.Equal(end) {
		return
	}

	moved, err := s.store.RequeueExpired(ctx, key.instituteID, key.participantID, end)
	if err != nil {
		s.logger.Error("requeue fire: requeue",
			zap.String("institute_id", key.instituteID),
			zap.String("participant_id", key.participantID),
			zap.Error(err),
		)
		return
	}
	if moved == nil {
		// Window consumed between the read and the update.
		return
	}

	s.logger.Info("entry moved to end of queue",
		zap.String("institute_id", moved.InstituteID),
		zap.String("participant_id", moved.ParticipantID),
		zap.Int("moved_count", moved.MovedToEnd),
	)
	s.metrics.RecordRequeue(moved.InstituteID)
	s.publish(ctx, moved)
}

func (s *Scheduler) publish(ctx context.Context, entry *domain.QueueEntry) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:            uuid.NewString(),
		Type:          events.EventMovedToEnd,
		InstituteID:   entry.InstituteID,
		ParticipantID: entry.ParticipantID,
		Timestamp:     s.now(),
		Payload: events.MovedToEndPayload{
			Automatic:  true,
			MovedCount: entry.MovedToEnd,
			JoinOrder:  entry.JoinOrder,
		},
	})
}
