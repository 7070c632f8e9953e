package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/HarshChauhan10/Queues/internal/domain"
)

// InstituteRepository encapsulates institute account persistence. The queue
// engine reads service-window configuration through it.
type InstituteRepository interface {
	Create(ctx context.Context, institute *domain.Institute) error
	GetByID(ctx context.Context, id string) (*domain.Institute, error)
	GetByEmail(ctx context.Context, email string) (*domain.Institute, error)
	UpdateProfile(ctx context.Context, institute *domain.Institute) error
	List(ctx context.Context) ([]domain.Institute, error)
}

type instituteRepository struct {
	pool *pgxpool.Pool
}

// NewInstituteRepository instantiates repository.
func NewInstituteRepository(pool *pgxpool.Pool) InstituteRepository {
	return &instituteRepository{pool: pool}
}

const instituteColumns = `id, name, email, password_hash,
               COALESCE(address,''), COALESCE(zipcode,''), COALESCE(phone,''),
               open_time, close_time, approx_minutes, is_profile_complete,
               created_at, updated_at`

func (r *instituteRepository) Create(ctx context.Context, institute *domain.Institute) error {
	const query = `
        INSERT INTO institutes (name, email, password_hash)
        VALUES ($1, $2, $3)
        RETURNING id, open_time, close_time, approx_minutes, created_at, updated_at`
	var openTime, closeTime string
	err := r.pool.QueryRow(ctx, query, institute.Name, institute.Email, institute.PasswordHash).
		Scan(&institute.ID, &openTime, &closeTime, &institute.ApproxMinutes, &institute.CreatedAt, &institute.UpdatedAt)
	if err != nil {
		return err
	}
	return applyTimes(institute, openTime, closeTime)
}

func (r *instituteRepository) GetByID(ctx context.Context, id string) (*domain.Institute, error) {
	const query = `SELECT ` + instituteColumns + ` FROM institutes WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *instituteRepository) GetByEmail(ctx context.Context, email string) (*domain.Institute, error) {
	const query = `SELECT ` + instituteColumns + ` FROM institutes WHERE email=$1`
	return r.fetchSingle(ctx, query, email)
}

func (r *instituteRepository) UpdateProfile(ctx context.Context, institute *domain.Institute) error {
	const query = `
        UPDATE institutes
        SET address=$1, zipcode=$2, phone=$3, open_time=$4, close_time=$5,
            approx_minutes=$6, is_profile_complete=$7, updated_at=NOW()
        WHERE id=$8
        RETURNING updated_at`
	return r.pool.QueryRow(ctx, query,
		institute.Address,
		institute.Zipcode,
		institute.Phone,
		institute.OpensAt.String(),
		institute.ClosesAt.String(),
		institute.ApproxMinutes,
		institute.IsProfileComplete,
		institute.ID,
	).Scan(&institute.UpdatedAt)
}

func (r *instituteRepository) List(ctx context.Context) ([]domain.Institute, error) {
	const query = `SELECT ` + instituteColumns + ` FROM institutes ORDER BY name ASC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Institute
	for rows.Next() {
		var (
			institute           domain.Institute
			openTime, closeTime string
		)
		if err := rows.Scan(
			&institute.ID,
			&institute.Name,
			&institute.Email,
			&institute.PasswordHash,
			&institute.Address,
			&institute.Zipcode,
			&institute.Phone,
			&openTime,
			&closeTime,
			&institute.ApproxMinutes,
			&institute.IsProfileComplete,
			&institute.CreatedAt,
			&institute.UpdatedAt,
		); err != nil {
			return nil, err
		}
		if err := applyTimes(&institute, openTime, closeTime); err != nil {
			return nil, err
		}
		result = append(result, institute)
	}
	return result, rows.Err()
}

func (r *instituteRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Institute, error) {
	var (
		institute           domain.Institute
		openTime, closeTime string
	)
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&institute.ID,
		&institute.Name,
		&institute.Email,
		&institute.PasswordHash,
		&institute.Address,
		&institute.Zipcode,
		&institute.Phone,
		&openTime,
		&closeTime,
		&institute.ApproxMinutes,
		&institute.IsProfileComplete,
		&institute.CreatedAt,
		&institute.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if err := applyTimes(&institute, openTime, closeTime); err != nil {
		return nil, err
	}
	return &institute, nil
}

func applyTimes(institute *domain.Institute, openTime, closeTime string) error {
	opens, err := domain.ParseTimeOfDay(openTime)
	if err != nil {
		return err
	}
	closes, err := domain.ParseTimeOfDay(closeTime)
	if err != nil {
		return err
	}
	institute.OpensAt = opens
	institute.ClosesAt = closes
	return nil
}
