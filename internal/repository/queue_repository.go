package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/HarshChauhan10/Queues/internal/domain"
	apperrors "github.com/HarshChauhan10/Queues/pkg/util"
)

// QueueRepository is the queue store: the single shared mutable resource of
// the engine. All mutations of join order, lifecycle status, windows, and
// the moved-to-end counter go through it; implementations must serialize
// mutations on the same (institute, participant) key.
type QueueRepository interface {
	// Join creates a fresh JOINED entry, failing with ALREADY_IN_QUEUE when
	// the pair already holds an active one.
	Join(ctx context.Context, instituteID, participantID string, gender domain.Gender) (*domain.QueueEntry, error)
	// FindActive returns the pair's JOINED entry or NOT_FOUND.
	FindActive(ctx context.Context, instituteID, participantID string) (*domain.QueueEntry, error)
	// ListActive returns the institute's JOINED entries ordered by join
	// order ascending, insertion sequence breaking ties.
	ListActive(ctx context.Context, instituteID string) ([]domain.QueueEntry, error)
	// Position locates the participant among the institute's active entries
	// from a single consistent snapshot.
	Position(ctx context.Context, instituteID, participantID string) (domain.QueuePosition, error)
	// SetStatus transitions the active entry to LEFT or REMOVED. A pair with
	// no entry at all yields NOT_FOUND; a pair whose entry already left the
	// JOINED state yields INVALID_TRANSITION.
	SetStatus(ctx context.Context, instituteID, participantID string, status domain.EntryStatus) (*domain.QueueEntry, error)
	// Requeue moves the active entry to the back: join order is refreshed,
	// the service window cleared, and the moved-to-end counter incremented,
	// all atomically.
	Requeue(ctx context.Context, instituteID, participantID string) (*domain.QueueEntry, error)
	// RequeueExpired is the conditional variant used by the scheduler: it
	// requeues only while the entry is still JOINED and its window still
	// ends at windowEnd. A stale fire returns (nil, nil).
	RequeueExpired(ctx context.Context, instituteID, participantID string, windowEnd time.Time) (*domain.QueueEntry, error)
	// AssignWindow attaches a service window to the active entry.
	AssignWindow(ctx context.Context, instituteID, participantID string, start, end time.Time) (*domain.QueueEntry, error)
	// ListWindowed returns every JOINED entry carrying a service window,
	// across all institutes. The scheduler re-derives its timers from it.
	ListWindowed(ctx context.Context) ([]domain.QueueEntry, error)
	// Stats aggregates the institute's queue by gender and lifecycle status.
	Stats(ctx context.Context, instituteID string) (domain.QueueStats, error)
	// CountActive returns the number of JOINED entries for an institute.
	CountActive(ctx context.Context, instituteID string) (int, error)
}

const entryColumns = `id, institute_id, participant_id, gender, join_order, seq, status,
               window_start, window_end, moved_to_end_count, created_at, updated_at`

type queueRepository struct {
	pool *pgxpool.Pool
}

// NewQueueRepository instantiates the Postgres-backed queue store. Per-key
// serialization comes from single-statement read-modify-writes plus the
// partial unique index on active pairs.
func NewQueueRepository(pool *pgxpool.Pool) QueueRepository {
	return &queueRepository{pool: pool}
}

func (r *queueRepository) Join(ctx context.Context, instituteID, participantID string, gender domain.Gender) (*domain.QueueEntry, error) {
	const query = `
        INSERT INTO queue_entries (id, institute_id, participant_id, gender, join_order, status)
        VALUES ($1, $2, $3, $4, NOW(), 'JOINED')
        RETURNING ` + entryColumns
	row := r.pool.QueryRow(ctx, query, uuid.NewString(), instituteID, participantID, string(gender))
	entry, err := scanEntry(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, apperrors.NewAlreadyInQueue(instituteID)
		}
		return nil, apperrors.NewInternalError(err)
	}
	return entry, nil
}

func (r *queueRepository) FindActive(ctx context.Context, instituteID, participantID string) (*domain.QueueEntry, error) {
	const query = `
        SELECT ` + entryColumns + `
        FROM queue_entries
        WHERE institute_id=$1 AND participant_id=$2 AND status='JOINED'`
	entry, err := scanEntry(r.pool.QueryRow(ctx, query, instituteID, participantID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("queue entry", nil)
		}
		return nil, apperrors.NewInternalError(err)
	}
	return entry, nil
}

func (r *queueRepository) ListActive(ctx context.Context, instituteID string) ([]domain.QueueEntry, error) {
	const query = `
        SELECT ` + entryColumns + `
        FROM queue_entries
        WHERE institute_id=$1 AND status='JOINED'
        ORDER BY join_order ASC, seq ASC`
	rows, err := r.pool.Query(ctx, query, instituteID)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

func (r *queueRepository) Position(ctx context.Context, instituteID, participantID string) (domain.QueuePosition, error) {
	// Window function over one snapshot keeps the answer consistent with a
	// concurrently listed queue.
	const query = `
        SELECT pos FROM (
            SELECT participant_id, ROW_NUMBER() OVER (ORDER BY join_order ASC, seq ASC) AS pos
            FROM queue_entries
            WHERE institute_id=$1 AND status='JOINED'
        ) ranked
        WHERE participant_id=$2`
	var pos int
	if err := r.pool.QueryRow(ctx, query, instituteID, participantID).Scan(&pos); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.QueuePosition{}, apperrors.NewNotFound("queue entry", nil)
		}
		return domain.QueuePosition{}, apperrors.NewInternalError(err)
	}
	return domain.QueuePosition{Position: pos, PeopleAhead: pos - 1}, nil
}

func (r *queueRepository) SetStatus(ctx context.Context, instituteID, participantID string, status domain.EntryStatus) (*domain.QueueEntry, error) {
	if status != domain.EntryStatusLeft && status != domain.EntryStatusRemoved {
		return nil, apperrors.NewInvalidTransition("entries can only transition to LEFT or REMOVED")
	}
	const query = `
        UPDATE queue_entries
        SET status=$3, updated_at=NOW()
        WHERE institute_id=$1 AND participant_id=$2 AND status='JOINED'
        RETURNING ` + entryColumns
	entry, err := scanEntry(r.pool.QueryRow(ctx, query, instituteID, participantID, string(status)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, r.explainMissingActive(ctx, instituteID, participantID)
		}
		return nil, apperrors.NewInternalError(err)
	}
	return entry, nil
}

func (r *queueRepository) Requeue(ctx context.Context, instituteID, participantID string) (*domain.QueueEntry, error) {
	const query = `
        UPDATE queue_entries
        SET join_order=NOW(), window_start=NULL, window_end=NULL,
            moved_to_end_count=moved_to_end_count+1, updated_at=NOW()
        WHERE institute_id=$1 AND participant_id=$2 AND status='JOINED'
        RETURNING ` + entryColumns
	entry, err := scanEntry(r.pool.QueryRow(ctx, query, instituteID, participantID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, r.explainMissingActive(ctx, instituteID, participantID)
		}
		return nil, apperrors.NewInternalError(err)
	}
	return entry, nil
}

func (r *queueRepository) RequeueExpired(ctx context.Context, instituteID, participantID string, windowEnd time.Time) (*domain.QueueEntry, error) {
	// The window_end guard makes timer fires idempotent: once the window has
	// been consumed or replaced, a second fire matches zero rows.
	const query = `
        UPDATE queue_entries
        SET join_order=NOW(), window_start=NULL, window_end=NULL,
            moved_to_end_count=moved_to_end_count+1, updated_at=NOW()
        WHERE institute_id=$1 AND participant_id=$2 AND status='JOINED' AND window_end=$3
        RETURNING ` + entryColumns
	entry, err := scanEntry(r.pool.QueryRow(ctx, query, instituteID, participantID, windowEnd))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, apperrors.NewInternalError(err)
	}
	return entry, nil
}

func (r *queueRepository) AssignWindow(ctx context.Context, instituteID, participantID string, start, end time.Time) (*domain.QueueEntry, error) {
	const query = `
        UPDATE queue_entries
        SET window_start=$3, window_end=$4, updated_at=NOW()
        WHERE institute_id=$1 AND participant_id=$2 AND status='JOINED'
        RETURNING ` + entryColumns
	entry, err := scanEntry(r.pool.QueryRow(ctx, query, instituteID, participantID, start, end))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, r.explainMissingActive(ctx, instituteID, participantID)
		}
		return nil, apperrors.NewInternalError(err)
	}
	return entry, nil
}

func (r *queueRepository) ListWindowed(ctx context.Context) ([]domain.QueueEntry, error) {
	const query = `
        SELECT ` + entryColumns + `
        FROM queue_entries
        WHERE status='JOINED' AND window_end IS NOT NULL
        ORDER BY window_end ASC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

func (r *queueRepository) Stats(ctx context.Context, instituteID string) (domain.QueueStats, error) {
	const query = `
        SELECT
            COUNT(*) FILTER (WHERE status='JOINED'),
            COUNT(*) FILTER (WHERE status='JOINED' AND gender='MALE'),
            COUNT(*) FILTER (WHERE status='JOINED' AND gender='FEMALE'),
            COUNT(*) FILTER (WHERE status='JOINED' AND gender='OTHER'),
            COUNT(*) FILTER (WHERE status='JOINED'),
            COUNT(*) FILTER (WHERE status='LEFT'),
            COUNT(*) FILTER (WHERE status='REMOVED')
        FROM queue_entries
        WHERE institute_id=$1`
	var stats domain.QueueStats
	if err := r.pool.QueryRow(ctx, query, instituteID).Scan(
		&stats.Total, &stats.Male, &stats.Female, &stats.Other,
		&stats.Joined, &stats.Left, &stats.Removed,
	); err != nil {
		return domain.QueueStats{}, apperrors.NewInternalError(err)
	}
	return stats, nil
}

func (r *queueRepository) CountActive(ctx context.Context, instituteID string) (int, error) {
	const query = `SELECT COUNT(*) FROM queue_entries WHERE institute_id=$1 AND status='JOINED'`
	var count int
	if err := r.pool.QueryRow(ctx, query, instituteID).Scan(&count); err != nil {
		return 0, apperrors.NewInternalError(err)
	}
	return count, nil
}

// explainMissingActive distinguishes NOT_FOUND (pair never queued) from
// INVALID_TRANSITION (entry exists but already left the JOINED state).
func (r *queueRepository) explainMissingActive(ctx context.Context, instituteID, participantID string) error {
	const query = `SELECT COUNT(*) FROM queue_entries WHERE institute_id=$1 AND participant_id=$2`
	var count int
	if err := r.pool.QueryRow(ctx, query, instituteID, participantID).Scan(&count); err != nil {
		return apperrors.NewInternalError(err)
	}
	if count == 0 {
		return apperrors.NewNotFound("queue entry", nil)
	}
	return apperrors.NewInvalidTransition("entry is no longer active")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*domain.QueueEntry, error) {
	var (
		entry       domain.QueueEntry
		windowStart *time.Time
		windowEnd   *time.Time
	)
	if err := row.Scan(
		&entry.ID,
		&entry.InstituteID,
		&entry.ParticipantID,
		&entry.Gender,
		&entry.JoinOrder,
		&entry.Seq,
		&entry.Status,
		&windowStart,
		&windowEnd,
		&entry.MovedToEnd,
		&entry.CreatedAt,
		&entry.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if windowStart != nil && windowEnd != nil {
		entry.Window = &domain.ServiceWindow{Start: *windowStart, End: *windowEnd}
	}
	return &entry, nil
}

func scanEntries(rows pgx.Rows) ([]domain.QueueEntry, error) {
	var result []domain.QueueEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, apperrors.NewInternalError(err)
		}
		result = append(result, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return result, nil
}
