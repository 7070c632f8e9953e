package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/HarshChauhan10/Queues/internal/api/dto"
	"github.com/HarshChauhan10/Queues/internal/auth"
	"github.com/HarshChauhan10/Queues/internal/service"
	apperrors "github.com/HarshChauhan10/Queues/pkg/util"
)

// InstitutesHandler exposes auth endpoints for institutes.
type InstitutesHandler struct {
	auth *service.AuthService
}

// NewInstitutesHandler constructs handler.
func NewInstitutesHandler(authService *service.AuthService) *InstitutesHandler {
	return &InstitutesHandler{auth: authService}
}

// Register handles POST /auth/institutes/register.
func (h *InstitutesHandler) Register(c *fiber.Ctx) error {
	var req dto.InstituteRegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Email == "" || req.Password == "" || req.Name == "" {
		return fiber.NewError(http.StatusBadRequest, "name, email, password required")
	}

	institute, token, exp, err := h.auth.RegisterInstitute(c.UserContext(), req.Name, req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": fiber.Map{
			"institute": fiber.Map{
				"id":                  institute.ID,
				"name":                institute.Name,
				"email":               institute.Email,
				"is_profile_complete": institute.IsProfileComplete,
			},
			"auth": dto.AuthResponse{Token: token, ExpiresAt: exp},
		},
	})
}

// Login handles POST /auth/institutes/login.
func (h *InstitutesHandler) Login(c *fiber.Ctx) error {
	var req dto.InstituteLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Email == "" || req.Password == "" {
		return fiber.NewError(http.StatusBadRequest, "email and password required")
	}

	institute, token, exp, err := h.auth.LoginInstitute(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"institute": fiber.Map{
				"id":                  institute.ID,
				"name":                institute.Name,
				"email":               institute.Email,
				"is_profile_complete": institute.IsProfileComplete,
			},
			"auth": dto.AuthResponse{Token: token, ExpiresAt: exp},
		},
	})
}

// CompleteProfile handles POST /auth/institutes/profile.
func (h *InstitutesHandler) CompleteProfile(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Institute == nil {
		return apperrors.NewUnauthorized("institute account required")
	}

	var req dto.InstituteProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	institute, err := h.auth.CompleteInstituteProfile(c.UserContext(), principal.Institute.ID, service.InstituteProfileInput{
		Address:       req.Address,
		Zipcode:       req.Zipcode,
		Phone:         req.Phone,
		OpensAt:       req.OpensAt,
		ClosesAt:      req.ClosesAt,
		ApproxMinutes: req.ApproxMinutes,
	})
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"institute": fiber.Map{
				"id":                        institute.ID,
				"name":                      institute.Name,
				"email":                     institute.Email,
				"address":                   institute.Address,
				"zipcode":                   institute.Zipcode,
				"phonenumber":               institute.Phone,
				"opens_at":                  institute.OpensAt.String(),
				"closes_at":                 institute.ClosesAt.String(),
				"approx_minutes_per_person": institute.ApproxMinutes,
				"is_profile_complete":       institute.IsProfileComplete,
			},
		},
	})
}
