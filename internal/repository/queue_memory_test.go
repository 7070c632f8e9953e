package repository_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/HarshChauhan10/Queues/internal/domain"
	"github.com/HarshChauhan10/Queues/internal/repository"
	apperrors "github.com/HarshChauhan10/Queues/pkg/util"
)

const (
	clinicID = "institute-clinic"
	aliceID  = "participant-alice"
	bobID    = "participant-bob"
	caraID   = "participant-cara"
)

func newStore() repository.QueueRepository {
	return repository.NewMemoryQueueRepository()
}

func mustJoin(t *testing.T, store repository.QueueRepository, instituteID, participantID string, gender domain.Gender) *domain.QueueEntry {
	t.Helper()
	entry, err := store.Join(context.Background(), instituteID, participantID, gender)
	if err != nil {
		t.Fatalf("join %s: %v", participantID, err)
	}
	return entry
}

func TestJoinRejectsDuplicateActiveEntry(t *testing.T) {
	store := newStore()
	ctx := context.Background()

	mustJoin(t, store, clinicID, aliceID, domain.GenderFemale)

	_, err := store.Join(ctx, clinicID, aliceID, domain.GenderFemale)
	if apperrors.CodeOf(err) != apperrors.CodeAlreadyInQueue {
		t.Fatalf("expected ALREADY_IN_QUEUE, got %v", err)
	}

	// A different institute is an independent key.
	if _, err := store.Join(ctx, "institute-other", aliceID, domain.GenderFemale); err != nil {
		t.Fatalf("join at second institute: %v", err)
	}
}

func TestConcurrentJoinsYieldExactlyOneSuccess(t *testing.T) {
	store := newStore()
	ctx := context.Background()

	const attempts = 32
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Join(ctx, clinicID, aliceID, domain.GenderOther)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case apperrors.CodeOf(err) == apperrors.CodeAlreadyInQueue:
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if succeeded != 1 {
		t.Fatalf("expected exactly one successful join, got %d", succeeded)
	}
	if conflicts != attempts-1 {
		t.Fatalf("expected %d conflicts, got %d", attempts-1, conflicts)
	}
}

func TestListActiveOrdersByJoinOrder(t *testing.T) {
	store := newStore()
	ctx := context.Background()

	mustJoin(t, store, clinicID, aliceID, domain.GenderFemale)
	mustJoin(t, store, clinicID, bobID, domain.GenderMale)
	mustJoin(t, store, clinicID, caraID, domain.GenderFemale)

	entries, err := store.ListActive(ctx, clinicID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	got := participantIDs(entries)
	want := []string{aliceID, bobID, caraID}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("unexpected order: got %v want %v", got, want)
		}
	}
}

func TestPositionMatchesListing(t *testing.T) {
	store := newStore()
	ctx := context.Background()

	mustJoin(t, store, clinicID, aliceID, domain.GenderFemale)
	mustJoin(t, store, clinicID, bobID, domain.GenderMale)

	entries, err := store.ListActive(ctx, clinicID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, entry := range entries {
		pos, err := store.Position(ctx, clinicID, entry.ParticipantID)
		if err != nil {
			t.Fatalf("position %s: %v", entry.ParticipantID, err)
		}
		if entries[pos.Position-1].ParticipantID != entry.ParticipantID {
			t.Fatalf("position %d inconsistent with listing for %s", pos.Position, entry.ParticipantID)
		}
		if pos.PeopleAhead != pos.Position-1 {
			t.Fatalf("people ahead %d does not match position %d", pos.PeopleAhead, pos.Position)
		}
	}

	if _, err := store.Position(ctx, clinicID, "participant-ghost"); apperrors.CodeOf(err) != apperrors.CodeNotFound {
		t.Fatalf("expected NOT_FOUND for unknown participant, got %v", err)
	}
}

func TestLifecycleTransitions(t *testing.T) {
	store := newStore()
	ctx := context.Background()

	mustJoin(t, store, clinicID, aliceID, domain.GenderFemale)

	if _, err := store.SetStatus(ctx, clinicID, aliceID, domain.EntryStatusLeft); err != nil {
		t.Fatalf("leave: %v", err)
	}

	// Leaving twice is an illegal transition, not a silent success.
	if _, err := store.SetStatus(ctx, clinicID, aliceID, domain.EntryStatusLeft); apperrors.CodeOf(err) != apperrors.CodeInvalidTransition {
		t.Fatalf("expected INVALID_TRANSITION on second leave, got %v", err)
	}
	if _, err := store.SetStatus(ctx, clinicID, aliceID, domain.EntryStatusRemoved); apperrors.CodeOf(err) != apperrors.CodeInvalidTransition {
		t.Fatalf("expected INVALID_TRANSITION on remove after leave, got %v", err)
	}
	if _, err := store.Requeue(ctx, clinicID, aliceID); apperrors.CodeOf(err) != apperrors.CodeInvalidTransition {
		t.Fatalf("expected INVALID_TRANSITION on requeue after leave, got %v", err)
	}

	if _, err := store.SetStatus(ctx, clinicID, bobID, domain.EntryStatusLeft); apperrors.CodeOf(err) != apperrors.CodeNotFound {
		t.Fatalf("expected NOT_FOUND for never-joined participant, got %v", err)
	}

	if _, err := store.SetStatus(ctx, clinicID, aliceID, domain.EntryStatusJoined); apperrors.CodeOf(err) != apperrors.CodeInvalidTransition {
		t.Fatalf("expected INVALID_TRANSITION when setting JOINED directly, got %v", err)
	}
}

func TestRejoinAfterLeaveStartsFresh(t *testing.T) {
	store := newStore()
	ctx := context.Background()

	mustJoin(t, store, clinicID, aliceID, domain.GenderFemale)
	if _, err := store.Requeue(ctx, clinicID, aliceID); err != nil {
		t.Fatalf("requeue: %v", err)
	}
	if _, err := store.SetStatus(ctx, clinicID, aliceID, domain.EntryStatusLeft); err != nil {
		t.Fatalf("leave: %v", err)
	}

	fresh := mustJoin(t, store, clinicID, aliceID, domain.GenderFemale)
	if fresh.MovedToEnd != 0 {
		t.Fatalf("fresh entry should reset moved counter, got %d", fresh.MovedToEnd)
	}
	if fresh.Status != domain.EntryStatusJoined {
		t.Fatalf("fresh entry should be JOINED, got %s", fresh.Status)
	}
}

func TestRequeueMovesEntryToBack(t *testing.T) {
	store := newStore()
	ctx := context.Background()

	mustJoin(t, store, clinicID, aliceID, domain.GenderFemale)
	mustJoin(t, store, clinicID, bobID, domain.GenderMale)

	windowEnd := time.Now().Add(10 * time.Minute)
	if _, err := store.AssignWindow(ctx, clinicID, aliceID, time.Now(), windowEnd); err != nil {
		t.Fatalf("assign window: %v", err)
	}

	moved, err := store.Requeue(ctx, clinicID, aliceID)
	if err != nil {
		t.Fatalf("requeue: %v", err)
	}
	if moved.MovedToEnd != 1 {
		t.Fatalf("expected moved counter 1, got %d", moved.MovedToEnd)
	}
	if moved.Window != nil {
		t.Fatal("requeue must clear the service window")
	}

	entries, err := store.ListActive(ctx, clinicID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	got := participantIDs(entries)
	if got[0] != bobID || got[1] != aliceID {
		t.Fatalf("expected [bob alice] after requeue, got %v", got)
	}
}

func TestRequeueExpiredIsIdempotent(t *testing.T) {
	store := newStore()
	ctx := context.Background()

	mustJoin(t, store, clinicID, aliceID, domain.GenderFemale)

	windowEnd := time.Now().Add(5 * time.Minute)
	if _, err := store.AssignWindow(ctx, clinicID, aliceID, time.Now(), windowEnd); err != nil {
		t.Fatalf("assign window: %v", err)
	}

	first, err := store.RequeueExpired(ctx, clinicID, aliceID, windowEnd)
	if err != nil {
		t.Fatalf("first fire: %v", err)
	}
	if first == nil {
		t.Fatal("first fire should move the entry")
	}
	if first.MovedToEnd != 1 {
		t.Fatalf("expected moved counter 1, got %d", first.MovedToEnd)
	}

	second, err := store.RequeueExpired(ctx, clinicID, aliceID, windowEnd)
	if err != nil {
		t.Fatalf("second fire: %v", err)
	}
	if second != nil {
		t.Fatal("second fire for the same window must be a no-op")
	}

	entry, err := store.FindActive(ctx, clinicID, aliceID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if entry.MovedToEnd != 1 {
		t.Fatalf("double fire incremented the counter: %d", entry.MovedToEnd)
	}
}

func TestRequeueExpiredIgnoresReplacedWindow(t *testing.T) {
	store := newStore()
	ctx := context.Background()

	mustJoin(t, store, clinicID, aliceID, domain.GenderFemale)

	staleEnd := time.Now().Add(5 * time.Minute)
	if _, err := store.AssignWindow(ctx, clinicID, aliceID, time.Now(), staleEnd); err != nil {
		t.Fatalf("assign window: %v", err)
	}
	newEnd := staleEnd.Add(30 * time.Minute)
	if _, err := store.AssignWindow(ctx, clinicID, aliceID, time.Now(), newEnd); err != nil {
		t.Fatalf("replace window: %v", err)
	}

	moved, err := store.RequeueExpired(ctx, clinicID, aliceID, staleEnd)
	if err != nil {
		t.Fatalf("stale fire: %v", err)
	}
	if moved != nil {
		t.Fatal("fire armed for a replaced window must be a no-op")
	}
}

func TestStatsCountsByGenderAndStatus(t *testing.T) {
	store := newStore()
	ctx := context.Background()

	mustJoin(t, store, clinicID, aliceID, domain.GenderFemale)
	mustJoin(t, store, clinicID, bobID, domain.GenderMale)
	mustJoin(t, store, clinicID, caraID, domain.GenderFemale)
	mustJoin(t, store, clinicID, "participant-dave", domain.GenderMale)
	if _, err := store.SetStatus(ctx, clinicID, "participant-dave", domain.EntryStatusRemoved); err != nil {
		t.Fatalf("remove: %v", err)
	}

	stats, err := store.Stats(ctx, clinicID)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Total != 3 || stats.Male != 1 || stats.Female != 2 || stats.Other != 0 {
		t.Fatalf("unexpected gender counts: %+v", stats)
	}
	if stats.Joined != 3 || stats.Removed != 1 || stats.Left != 0 {
		t.Fatalf("unexpected lifecycle counts: %+v", stats)
	}
}

func TestTerminalEntriesVanishFromListing(t *testing.T) {
	store := newStore()
	ctx := context.Background()

	mustJoin(t, store, clinicID, aliceID, domain.GenderFemale)
	mustJoin(t, store, clinicID, bobID, domain.GenderMale)

	if _, err := store.SetStatus(ctx, clinicID, bobID, domain.EntryStatusRemoved); err != nil {
		t.Fatalf("remove: %v", err)
	}

	entries, err := store.ListActive(ctx, clinicID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 1 || entries[0].ParticipantID != aliceID {
		t.Fatalf("expected only alice active, got %v", participantIDs(entries))
	}

	pos, err := store.Position(ctx, clinicID, aliceID)
	if err != nil {
		t.Fatalf("position: %v", err)
	}
	if pos.Position != 1 || pos.PeopleAhead != 0 {
		t.Fatalf("removed entry still affects position: %+v", pos)
	}
}

func participantIDs(entries []domain.QueueEntry) []string {
	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		ids = append(ids, entry.ParticipantID)
	}
	return ids
}
