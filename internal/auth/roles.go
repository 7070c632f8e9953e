package auth

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/HarshChauhan10/Queues/internal/domain"
)

// RequireUser ensures a participant is authenticated.
func RequireUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || principal.SubjectType != domain.SubjectTypeUser || principal.User == nil {
			return fiber.NewError(http.StatusForbidden, "participant account required")
		}
		return c.Next()
	}
}

// RequireInstitute ensures an institute is authenticated.
func RequireInstitute() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || principal.SubjectType != domain.SubjectTypeInstitute || principal.Institute == nil {
			return fiber.NewError(http.StatusForbidden, "institute account required")
		}
		return c.Next()
	}
}

// RequireAnyRole ensures caller is authenticated (participant or institute).
func RequireAnyRole() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := PrincipalFromContext(c); !ok {
			return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
		}
		return c.Next()
	}
}
