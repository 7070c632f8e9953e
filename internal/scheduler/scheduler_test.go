package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/HarshChauhan10/Queues/internal/domain"
	"github.com/HarshChauhan10/Queues/internal/events"
	"github.com/HarshChauhan10/Queues/internal/observability"
	"github.com/HarshChauhan10/Queues/internal/repository"
)

const (
	testInstitute   = "institute-clinic"
	testParticipant = "participant-alice"
)

type recordingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *recordingDispatcher) Publish(ctx context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(eventType events.EventType, handler events.EventHandler) {}

func (d *recordingDispatcher) published() []events.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]events.Event{}, d.events...)
}

func newTestScheduler(t *testing.T, store Store, now time.Time) (*Scheduler, *recordingDispatcher, *observability.Metrics) {
	t.Helper()
	dispatcher := &recordingDispatcher{}
	metrics := observability.NewMetrics()
	s := New(store, dispatcher, zap.NewNop(), metrics)
	s.now = func() time.Time { return now }
	t.Cleanup(s.Close)
	return s, dispatcher, metrics
}

func joinWithWindow(t *testing.T, store repository.QueueRepository, start, end time.Time) *domain.QueueEntry {
	t.Helper()
	ctx := context.Background()
	if _, err := store.Join(ctx, testInstitute, testParticipant, domain.GenderFemale); err != nil {
		t.Fatalf("join: %v", err)
	}
	entry, err := store.AssignWindow(ctx, testInstitute, testParticipant, start, end)
	if err != nil {
		t.Fatalf("assign window: %v", err)
	}
	return entry
}

func TestArmElapsedWindowFiresImmediately(t *testing.T) {
	now := time.Date(2024, time.March, 12, 12, 0, 0, 0, time.UTC)
	store := repository.NewMemoryQueueRepository()
	entry := joinWithWindow(t, store, now.Add(-20*time.Minute), now.Add(-10*time.Minute))

	s, dispatcher, metrics := newTestScheduler(t, store, now)
	s.Arm(entry)

	moved, err := store.FindActive(context.Background(), testInstitute, testParticipant)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if moved.MovedToEnd != 1 {
		t.Fatalf("expected one requeue, got %d", moved.MovedToEnd)
	}
	if moved.Window != nil {
		t.Fatal("requeue should clear the window")
	}

	published := dispatcher.published()
	if len(published) != 1 {
		t.Fatalf("expected one event, got %d", len(published))
	}
	if published[0].Type != events.EventMovedToEnd {
		t.Fatalf("unexpected event type %s", published[0].Type)
	}
	payload, ok := published[0].Payload.(events.MovedToEndPayload)
	if !ok {
		t.Fatalf("unexpected payload %T", published[0].Payload)
	}
	if !payload.Automatic || payload.MovedCount != 1 {
		t.Fatalf("unexpected payload %+v", payload)
	}
	if metrics.RequeueCount(testInstitute) != 1 {
		t.Fatalf("expected requeue metric 1, got %d", metrics.RequeueCount(testInstitute))
	}
}

func TestFireTwiceMovesOnce(t *testing.T) {
	now := time.Date(2024, time.March, 12, 12, 0, 0, 0, time.UTC)
	store := repository.NewMemoryQueueRepository()
	end := now.Add(-time.Minute)
	joinWithWindow(t, store, now.Add(-11*time.Minute), end)

	s, dispatcher, _ := newTestScheduler(t, store, now)
	key := pairKey{testInstitute, testParticipant}
	s.fire(key, end)
	s.fire(key, end)

	moved, err := store.FindActive(context.Background(), testInstitute, testParticipant)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if moved.MovedToEnd != 1 {
		t.Fatalf("duplicate fire must not move again, got count %d", moved.MovedToEnd)
	}
	if len(dispatcher.published()) != 1 {
		t.Fatalf("expected one event, got %d", len(dispatcher.published()))
	}
}

func TestFireIgnoresReplacedWindow(t *testing.T) {
	now := time.Date(2024, time.March, 12, 12, 0, 0, 0, time.UTC)
	store := repository.NewMemoryQueueRepository()
	staleEnd := now.Add(-time.Minute)
	joinWithWindow(t, store, now.Add(-11*time.Minute), staleEnd)

	// Window replaced after the timer was armed for the old end.
	newEnd := now.Add(time.Hour)
	if _, err := store.AssignWindow(context.Background(), testInstitute, testParticipant, now, newEnd); err != nil {
		t.Fatalf("replace window: %v", err)
	}

	s, dispatcher, _ := newTestScheduler(t, store, now)
	s.fire(pairKey{testInstitute, testParticipant}, staleEnd)

	entry, err := store.FindActive(context.Background(), testInstitute, testParticipant)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if entry.MovedToEnd != 0 {
		t.Fatal("stale fire must not requeue")
	}
	if entry.Window == nil || !entry.Window.End.Equal(newEnd) {
		t.Fatal("stale fire must not touch the replacement window")
	}
	if len(dispatcher.published()) != 0 {
		t.Fatal("stale fire must not publish")
	}
}

func TestFireIgnoresDepartedParticipant(t *testing.T) {
	now := time.Date(2024, time.March, 12, 12, 0, 0, 0, time.UTC)
	store := repository.NewMemoryQueueRepository()
	end := now.Add(-time.Minute)
	joinWithWindow(t, store, now.Add(-11*time.Minute), end)

	if _, err := store.SetStatus(context.Background(), testInstitute, testParticipant, domain.EntryStatusLeft); err != nil {
		t.Fatalf("leave: %v", err)
	}

	s, dispatcher, _ := newTestScheduler(t, store, now)
	s.fire(pairKey{testInstitute, testParticipant}, end)

	if len(dispatcher.published()) != 0 {
		t.Fatal("fire for a departed participant must be silent")
	}
}

func TestRescanRequeuesElapsedAndArmsFuture(t *testing.T) {
	now := time.Date(2024, time.March, 12, 12, 0, 0, 0, time.UTC)
	store := repository.NewMemoryQueueRepository()
	ctx := context.Background()

	// Elapsed while the process was down.
	joinWithWindow(t, store, now.Add(-30*time.Minute), now.Add(-20*time.Minute))

	// Still in the future.
	if _, err := store.Join(ctx, testInstitute, "participant-bob", domain.GenderMale); err != nil {
		t.Fatalf("join bob: %v", err)
	}
	futureEnd := now.Add(time.Hour)
	if _, err := store.AssignWindow(ctx, testInstitute, "participant-bob", now, futureEnd); err != nil {
		t.Fatalf("assign bob: %v", err)
	}

	s, _, _ := newTestScheduler(t, store, now)
	if err := s.Rescan(ctx); err != nil {
		t.Fatalf("rescan: %v", err)
	}

	moved, err := store.FindActive(ctx, testInstitute, testParticipant)
	if err != nil {
		t.Fatalf("find alice: %v", err)
	}
	if moved.MovedToEnd != 1 {
		t.Fatal("elapsed window should be requeued during rescan")
	}

	s.mu.Lock()
	armed, ok := s.timers[pairKey{testInstitute, "participant-bob"}]
	s.mu.Unlock()
	if !ok || !armed.end.Equal(futureEnd) {
		t.Fatal("future window should be armed, not fired")
	}

	bob, err := store.FindActive(ctx, testInstitute, "participant-bob")
	if err != nil {
		t.Fatalf("find bob: %v", err)
	}
	if bob.MovedToEnd != 0 {
		t.Fatal("future window must not be requeued early")
	}
}

func TestArmReplacesTimerOnNewWindowEnd(t *testing.T) {
	now := time.Date(2024, time.March, 12, 12, 0, 0, 0, time.UTC)
	store := repository.NewMemoryQueueRepository()
	entry := joinWithWindow(t, store, now, now.Add(time.Hour))

	s, _, _ := newTestScheduler(t, store, now)
	s.Arm(entry)

	later, err := store.AssignWindow(context.Background(), testInstitute, testParticipant, now, now.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("reassign: %v", err)
	}
	s.Arm(later)

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.timers) != 1 {
		t.Fatalf("expected a single timer, got %d", len(s.timers))
	}
	armed := s.timers[pairKey{testInstitute, testParticipant}]
	if !armed.end.Equal(later.Window.End) {
		t.Fatalf("timer still armed for old end %s", armed.end)
	}
}

func TestCancelDropsTimer(t *testing.T) {
	now := time.Date(2024, time.March, 12, 12, 0, 0, 0, time.UTC)
	store := repository.NewMemoryQueueRepository()
	entry := joinWithWindow(t, store, now, now.Add(time.Hour))

	s, _, _ := newTestScheduler(t, store, now)
	s.Arm(entry)
	s.Cancel(testInstitute, testParticipant)

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.timers) != 0 {
		t.Fatalf("expected no timers after cancel, got %d", len(s.timers))
	}
}

func TestArmIgnoresEntriesWithoutWindow(t *testing.T) {
	now := time.Date(2024, time.March, 12, 12, 0, 0, 0, time.UTC)
	s, _, _ := newTestScheduler(t, repository.NewMemoryQueueRepository(), now)

	s.Arm(nil)
	s.Arm(&domain.QueueEntry{InstituteID: testInstitute, ParticipantID: testParticipant})

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.timers) != 0 {
		t.Fatalf("expected no timers, got %d", len(s.timers))
	}
}

func TestCloseStopsFiring(t *testing.T) {
	now := time.Date(2024, time.March, 12, 12, 0, 0, 0, time.UTC)
	store := repository.NewMemoryQueueRepository()
	end := now.Add(-time.Minute)
	joinWithWindow(t, store, now.Add(-11*time.Minute), end)

	s, dispatcher, _ := newTestScheduler(t, store, now)
	s.Close()
	s.fire(pairKey{testInstitute, testParticipant}, end)

	entry, err := store.FindActive(context.Background(), testInstitute, testParticipant)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if entry.MovedToEnd != 0 {
		t.Fatal("closed scheduler must not requeue")
	}
	if len(dispatcher.published()) != 0 {
		t.Fatal("closed scheduler must not publish")
	}
}
