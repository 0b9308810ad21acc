package handlers

import (
	"net/mail"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/novelnest/backend/internal/models"
	"github.com/novelnest/backend/internal/services"
	"github.com/novelnest/backend/pkg/logger"
	"github.com/novelnest/backend/pkg/utils"
)

type UsersHandler struct {
	Users *services.UserDirectory
}

func NewUsersHandler(users *services.UserDirectory) *UsersHandler {
	return &UsersHandler{Users: users}
}

type registerRequest struct {
	Username string          `json:"username"`
	Email    string          `json:"email"`
	Password string          `json:"password"`
	Role     models.UserRole `json:"role"`
}

func (h *UsersHandler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "Invalid request body")
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	if req.Username == "" {
		return utils.Error(c, fiber.StatusBadRequest, "Username is required")
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "Invalid email format")
	}
	if len(req.Password) < 6 {
		return utils.Error(c, fiber.StatusBadRequest, "Password must be at least 6 characters long")
	}
	if req.Role != "" && !models.ValidRole(req.Role) {
		return utils.Error(c, fiber.StatusBadRequest, "Invalid role. Allowed values: user, admin, superuser")
	}

	err := h.Users.Register(c.Context(), services.RegisterParams{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		return serviceError(c, err)
	}

	logger.Info("user_registered", map[string]interface{}{
		"username": req.Username,
		"email":    req.Email,
	})

	return utils.Message(c, fiber.StatusCreated, "User successfully registered")
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *UsersHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "Invalid request body")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	if req.Email == "" || req.Password == "" {
		return utils.Error(c, fiber.StatusBadRequest, "Email and password are required")
	}

	user, err := h.Users.Authenticate(c.Context(), req.Email, req.Password)
	if err != nil {
		logger.Warn("login_failed", map[string]interface{}{
			"email": req.Email,
			"ip":    c.IP(),
		})
		return serviceError(c, err)
	}

	token, err := utils.GenerateToken(user)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "Internal server error")
	}

	logger.InfoWithUser(formatID(user.ID), "user_login", map[string]interface{}{
		"email": user.Email,
		"ip":    c.IP(),
	})

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"statusCode": fiber.StatusOK,
		"message":    "Login successful",
		"user":       user,
		"token":      token,
	})
}

type updateProfilePictureRequest struct {
	UserID     uint   `json:"userId"`
	Email      string `json:"email"`
	ProfileURL string `json:"profileUrl"`
}

func (h *UsersHandler) UpdateProfilePicture(c *fiber.Ctx) error {
	var req updateProfilePictureRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "Invalid request body")
	}

	if req.UserID == 0 || strings.TrimSpace(req.Email) == "" {
		return utils.Error(c, fiber.StatusBadRequest, "userId and email are required")
	}

	_, err := h.Users.UpdateProfilePicture(c.Context(), req.UserID, req.Email, req.ProfileURL)
	if err != nil {
		return serviceError(c, err)
	}

	return utils.Message(c, fiber.StatusOK, "Profile picture updated successfully")
}

type updateRoleRequest struct {
	UserID uint            `json:"userId"`
	Email  string          `json:"email"`
	Role   models.UserRole `json:"role"`
}

func (h *UsersHandler) UpdateRole(c *fiber.Ctx) error {
	var req updateRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "Invalid request body")
	}

	if req.UserID == 0 || strings.TrimSpace(req.Email) == "" {
		return utils.Error(c, fiber.StatusBadRequest, "userId and email are required")
	}

	_, err := h.Users.UpdateRole(c.Context(), req.UserID, req.Email, req.Role)
	if err != nil {
		return serviceError(c, err)
	}

	return utils.Message(c, fiber.StatusOK, "User role updated successfully")
}

func (h *UsersHandler) Delete(c *fiber.Ctx) error {
	userID, err := parseID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "Invalid user id")
	}

	if err := h.Users.Delete(c.Context(), userID); err != nil {
		return serviceError(c, err)
	}

	logger.Info("user_deleted", map[string]interface{}{"user_id": userID})

	return utils.Message(c, fiber.StatusOK, "User deleted successfully")
}

func (h *UsersHandler) ListAll(c *fiber.Ctx) error {
	users, err := h.Users.ListAll(c.Context())
	if err != nil {
		return serviceError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(users)
}
