package handlers

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/HarshChauhan10/Queues/internal/api/dto"
	"github.com/HarshChauhan10/Queues/internal/auth"
	"github.com/HarshChauhan10/Queues/internal/service"
	apperrors "github.com/HarshChauhan10/Queues/pkg/util"
)

// QueuesHandler exposes the queue operation surface.
type QueuesHandler struct {
	queues *service.QueueService
}

// NewQueuesHandler constructs handler.
func NewQueuesHandler(queueService *service.QueueService) *QueuesHandler {
	return &QueuesHandler{queues: queueService}
}

// Join handles POST /queues/:instituteID/join.
func (h *QueuesHandler) Join(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("participant account required")
	}
	if !principal.User.IsProfileComplete {
		return apperrors.NewValidationError("complete your profile before joining a queue", nil)
	}

	entry, pos, err := h.queues.Join(c.UserContext(), c.Params("instituteID"), principal.User.ID, principal.User.Gender)
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": fiber.Map{
			"entry":    dto.NewQueueEntryResponse(entry),
			"position": dto.PositionResponse{Position: pos.Position, PeopleAhead: pos.PeopleAhead},
		},
	})
}

// Leave handles DELETE /queues/:instituteID/leave.
func (h *QueuesHandler) Leave(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("participant account required")
	}

	if err := h.queues.Leave(c.UserContext(), c.Params("instituteID"), principal.User.ID); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"message": "left the queue"}})
}

// Position handles GET /queues/:instituteID/position.
func (h *QueuesHandler) Position(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("participant account required")
	}

	pos, err := h.queues.Position(c.UserContext(), c.Params("instituteID"), principal.User.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.PositionResponse{Position: pos.Position, PeopleAhead: pos.PeopleAhead}})
}

// Remove handles DELETE /queues/:instituteID/participants/:participantID.
func (h *QueuesHandler) Remove(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Institute == nil {
		return apperrors.NewUnauthorized("institute account required")
	}

	err := h.queues.Remove(c.UserContext(), principal.Institute.ID, c.Params("instituteID"), c.Params("participantID"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"message": "participant removed"}})
}

// MoveToEnd handles POST /queues/:instituteID/participants/:participantID/move-to-end.
func (h *QueuesHandler) MoveToEnd(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Institute == nil {
		return apperrors.NewUnauthorized("institute account required")
	}

	entry, err := h.queues.MoveToEnd(c.UserContext(), principal.Institute.ID, c.Params("instituteID"), c.Params("participantID"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewQueueEntryResponse(entry)})
}

// AssignWindow handles POST /queues/:instituteID/participants/:participantID/window.
func (h *QueuesHandler) AssignWindow(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Institute == nil {
		return apperrors.NewUnauthorized("institute account required")
	}

	var req dto.AssignWindowRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	var start, end time.Time
	if req.Start != nil {
		start = *req.Start
	}
	if req.End != nil {
		end = *req.End
	}

	entry, err := h.queues.AssignWindow(c.UserContext(), principal.Institute.ID, c.Params("instituteID"), c.Params("participantID"), start, end)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewQueueEntryResponse(entry)})
}

// List handles GET /queues/:instituteID/entries.
func (h *QueuesHandler) List(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Institute == nil {
		return apperrors.NewUnauthorized("institute account required")
	}
	if principal.Institute.ID != c.Params("instituteID") {
		return apperrors.NewForbidden("institute does not own this queue")
	}

	entries, err := h.queues.List(c.UserContext(), c.Params("instituteID"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewQueueEntryResponses(entries)})
}

// Stats handles GET /queues/:instituteID/stats.
func (h *QueuesHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.queues.Stats(c.UserContext(), c.Params("instituteID"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewStatsResponse(stats)})
}

// Institutes handles GET /queues/institutes.
func (h *QueuesHandler) Institutes(c *fiber.Ctx) error {
	items, err := h.queues.ListInstitutes(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewInstituteSummaryResponses(items)})
}
