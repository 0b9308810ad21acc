package handlers

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/novelnest/backend/internal/services"
	"github.com/novelnest/backend/pkg/logger"
	"github.com/novelnest/backend/pkg/utils"
)

func parseID(value string) (uint, error) {
	parsed, err := strconv.ParseUint(strings.TrimSpace(value), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(parsed), nil
}

func formatID(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func parseIDList(value string) ([]uint, error) {
	parts := strings.Split(value, ",")
	ids := make([]uint, 0, len(parts))
	for _, part := range parts {
		id, err := parseID(part)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// serviceError translates a domain error into the matching status code and
// message. Unrecognized errors are logged and reported as a generic internal
// error so no persistence detail leaks to callers.
func serviceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrUserNotFound):
		return utils.Error(c, fiber.StatusNotFound, "User not found")
	case errors.Is(err, services.ErrUserEmailMismatch):
		return utils.Error(c, fiber.StatusNotFound, "User not found or email mismatch")
	case errors.Is(err, services.ErrEmailTaken):
		return utils.Error(c, fiber.StatusConflict, "User with this email already exists")
	case errors.Is(err, services.ErrInvalidCredentials):
		return utils.Error(c, fiber.StatusUnauthorized, "Invalid email or password")
	case errors.Is(err, services.ErrInvalidRole):
		return utils.Error(c, fiber.StatusBadRequest, "Invalid role. Allowed values: user, admin, superuser")
	case errors.Is(err, services.ErrStoryNotFound):
		return utils.Error(c, fiber.StatusNotFound, "Story not found")
	case errors.Is(err, services.ErrNotStoryAuthor):
		return utils.Error(c, fiber.StatusNotFound, "Story not found or you are not the author")
	case errors.Is(err, services.ErrDeleteForbidden):
		return utils.Error(c, fiber.StatusForbidden, "You are not authorized to delete this story")
	default:
		logger.Error("service_failure", err, map[string]interface{}{
			"method": c.Method(),
			"path":   c.Path(),
		})
		return utils.Error(c, fiber.StatusInternalServerError, "Internal server error")
	}
}
