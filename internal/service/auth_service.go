package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/HarshChauhan10/Queues/internal/auth"
	"github.com/HarshChauhan10/Queues/internal/config"
	"github.com/HarshChauhan10/Queues/internal/domain"
	"github.com/HarshChauhan10/Queues/internal/repository"
	"github.com/HarshChauhan10/Queues/internal/schedule"
	apperrors "github.com/HarshChauhan10/Queues/pkg/util"
)

// AuthService registers and authenticates participants and institutes.
type AuthService struct {
	users      repository.UserRepository
	institutes repository.InstituteRepository
	tokens     *auth.TokenManager
	bcryptCost int
}

// AuthDependencies bundles repositories for auth service.
type AuthDependencies struct {
	UserRepo      repository.UserRepository
	InstituteRepo repository.InstituteRepository
}

// NewAuthService constructs the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	return &AuthService{
		users:      deps.UserRepo,
		institutes: deps.InstituteRepo,
		tokens:     auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		bcryptCost: cfg.Auth.BcryptCost,
	}
}

// TokenManager exposes the JWT manager for middleware wiring.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokens
}

// RegisterUser creates a participant account and issues a token.
func (s *AuthService) RegisterUser(ctx context.Context, name, email, password string) (*domain.User, string, time.Time, error) {
	if err := validateCredentials(email, password); err != nil {
		return nil, "", time.Time{}, err
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, "", time.Time{}, apperrors.NewInternalError(err)
	}

	user := &domain.User{
		Name:         strings.TrimSpace(name),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if isUniqueViolation(err) {
			return nil, "", time.Time{}, apperrors.NewConflict("email already in use", nil)
		}
		return nil, "", time.Time{}, apperrors.NewInternalError(err)
	}

	token, exp, err := s.tokens.GenerateToken(user.ID, domain.SubjectTypeUser)
	if err != nil {
		return nil, "", time.Time{}, apperrors.NewInternalError(err)
	}
	return user, token, exp, nil
}

// LoginUser authenticates a participant by email and password.
func (s *AuthService) LoginUser(ctx context.Context, email, password string) (*domain.User, string, time.Time, error) {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, "", time.Time{}, apperrors.NewInternalError(err)
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}

	token, exp, err := s.tokens.GenerateToken(user.ID, domain.SubjectTypeUser)
	if err != nil {
		return nil, "", time.Time{}, apperrors.NewInternalError(err)
	}
	return user, token, exp, nil
}

// CompleteUserProfile records the gender and zipcode a participant needs
// before joining queues.
func (s *AuthService) CompleteUserProfile(ctx context.Context, userID string, gender domain.Gender, zipcode string) (*domain.User, error) {
	if !gender.Valid() {
		return nil, apperrors.NewValidationError("unknown gender category", nil)
	}
	if strings.TrimSpace(zipcode) == "" {
		return nil, apperrors.NewValidationError("zipcode required", nil)
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", nil)
		}
		return nil, apperrors.NewInternalError(err)
	}

	user.Gender = gender
	user.Zipcode = strings.TrimSpace(zipcode)
	user.IsProfileComplete = true
	if err := s.users.UpdateProfile(ctx, user); err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return user, nil
}

// RegisterInstitute creates an institute account and issues a token.
func (s *AuthService) RegisterInstitute(ctx context.Context, name, email, password string) (*domain.Institute, string, time.Time, error) {
	if err := validateCredentials(email, password); err != nil {
		return nil, "", time.Time{}, err
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, "", time.Time{}, apperrors.NewInternalError(err)
	}

	institute := &domain.Institute{
		Name:         strings.TrimSpace(name),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: hash,
	}
	if err := s.institutes.Create(ctx, institute); err != nil {
		if isUniqueViolation(err) {
			return nil, "", time.Time{}, apperrors.NewConflict("email already in use", nil)
		}
		return nil, "", time.Time{}, apperrors.NewInternalError(err)
	}

	token, exp, err := s.tokens.GenerateToken(institute.ID, domain.SubjectTypeInstitute)
	if err != nil {
		return nil, "", time.Time{}, apperrors.NewInternalError(err)
	}
	return institute, token, exp, nil
}

// LoginInstitute authenticates an institute by email and password.
func (s *AuthService) LoginInstitute(ctx context.Context, email, password string) (*domain.Institute, string, time.Time, error) {
	institute, err := s.institutes.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, "", time.Time{}, apperrors.NewInternalError(err)
	}
	if err := auth.ComparePassword(institute.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}

	token, exp, err := s.tokens.GenerateToken(institute.ID, domain.SubjectTypeInstitute)
	if err != nil {
		return nil, "", time.Time{}, apperrors.NewInternalError(err)
	}
	return institute, token, exp, nil
}

// InstituteProfileInput carries the fields an institute completes before
// opening its queue.
type InstituteProfileInput struct {
	Address       string
	Zipcode       string
	Phone         string
	OpensAt       string
	ClosesAt      string
	ApproxMinutes int
}

// CompleteInstituteProfile saves contact details and the daily service
// window. Windows crossing midnight are rejected here so the evaluator can
// assume opens <= closes.
func (s *AuthService) CompleteInstituteProfile(ctx context.Context, instituteID string, input InstituteProfileInput) (*domain.Institute, error) {
	if strings.TrimSpace(input.Address) == "" || strings.TrimSpace(input.Zipcode) == "" || strings.TrimSpace(input.Phone) == "" {
		return nil, apperrors.NewValidationError("address, zipcode, and phone are required", nil)
	}

	opens, err := domain.ParseTimeOfDay(input.OpensAt)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid opening time", map[string]any{"opens_at": input.OpensAt})
	}
	closes, err := domain.ParseTimeOfDay(input.ClosesAt)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid closing time", map[string]any{"closes_at": input.ClosesAt})
	}
	if !schedule.ValidWindow(opens, closes) {
		return nil, apperrors.NewValidationError("closing time must not precede opening time", nil)
	}
	if input.ApproxMinutes <= 0 {
		return nil, apperrors.NewValidationError("approx minutes per person must be positive", nil)
	}

	institute, err := s.institutes.GetByID(ctx, instituteID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("institute", nil)
		}
		return nil, apperrors.NewInternalError(err)
	}

	institute.Address = strings.TrimSpace(input.Address)
	institute.Zipcode = strings.TrimSpace(input.Zipcode)
	institute.Phone = strings.TrimSpace(input.Phone)
	institute.OpensAt = opens
	institute.ClosesAt = closes
	institute.ApproxMinutes = input.ApproxMinutes
	institute.IsProfileComplete = true
	if err := s.institutes.UpdateProfile(ctx, institute); err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return institute, nil
}

func validateCredentials(email, password string) error {
	if _, err := mail.ParseAddress(strings.TrimSpace(email)); err != nil {
		return apperrors.NewValidationError("invalid email address", nil)
	}
	if len(password) < 8 {
		return apperrors.NewValidationError("password must be at least 8 characters", nil)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
