package handlers

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/novelnest/backend/internal/middleware"
	"github.com/novelnest/backend/internal/services"
	"github.com/novelnest/backend/pkg/logger"
	"github.com/novelnest/backend/pkg/utils"
)

type StoriesHandler struct {
	Stories *services.StoryCatalog
}

func NewStoriesHandler(stories *services.StoryCatalog) *StoriesHandler {
	return &StoriesHandler{Stories: stories}
}

type createStoryRequest struct {
	Title      string `json:"title"`
	Content    string `json:"content"`
	Type       string `json:"type"`
	UserID     uint   `json:"userId"`
	AuthorName string `json:"authorName"`
}

func (h *StoriesHandler) Create(c *fiber.Ctx) error {
	var req createStoryRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "Invalid request body")
	}

	if strings.TrimSpace(req.Title) == "" ||
		strings.TrimSpace(req.Content) == "" ||
		strings.TrimSpace(req.Type) == "" ||
		strings.TrimSpace(req.AuthorName) == "" {
		return utils.Error(c, fiber.StatusBadRequest, "title, content, type and authorName are required")
	}
	if req.UserID == 0 {
		return utils.Error(c, fiber.StatusBadRequest, "userId is required")
	}

	err := h.Stories.Create(c.Context(), services.CreateStoryParams{
		Title:      req.Title,
		Content:    req.Content,
		Type:       req.Type,
		AuthorID:   req.UserID,
		AuthorName: req.AuthorName,
	})
	if err != nil {
		return serviceError(c, err)
	}

	logger.Info("story_created", map[string]interface{}{
		"author_id": req.UserID,
		"type":      req.Type,
	})

	return utils.Message(c, fiber.StatusCreated, "Story created successfully")
}

func (h *StoriesHandler) Update(c *fiber.Ctx) error {
	caller := middleware.GetCurrentUser(c)
	if caller == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	storyID, err := parseID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "Invalid story id")
	}

	var upd services.StoryUpdate
	if err := c.BodyParser(&upd); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "Invalid request body")
	}

	if err := h.Stories.Update(c.Context(), storyID, caller.ID, upd); err != nil {
		return serviceError(c, err)
	}

	return utils.Message(c, fiber.StatusOK, "Story updated successfully")
}

type deleteStoryRequest struct {
	StoryID uint `json:"storyId"`
	UserID  uint `json:"userId"`
}

func (h *StoriesHandler) Delete(c *fiber.Ctx) error {
	var req deleteStoryRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "Invalid request body")
	}

	if req.StoryID == 0 || req.UserID == 0 {
		return utils.Error(c, fiber.StatusBadRequest, "storyId and userId are required")
	}

	if err := h.Stories.Delete(c.Context(), req.StoryID, req.UserID); err != nil {
		return serviceError(c, err)
	}

	logger.InfoWithUser(formatID(req.UserID), "story_deleted", map[string]interface{}{
		"story_id": req.StoryID,
	})

	return utils.Message(c, fiber.StatusOK, "Story deleted successfully")
}

func (h *StoriesHandler) ByUsers(c *fiber.Ctx) error {
	raw := strings.TrimSpace(c.Query("userIds"))
	if raw == "" {
		return utils.Error(c, fiber.StatusBadRequest, "userIds query parameter is required")
	}

	ids, err := parseIDList(raw)
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "Invalid userIds")
	}

	stories, err := h.Stories.ByAuthorIDs(c.Context(), ids)
	if err != nil {
		return serviceError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"statusCode": fiber.StatusOK,
		"stories":    stories,
	})
}

func (h *StoriesHandler) Sorted(c *fiber.Ctx) error {
	feed, err := h.Stories.Sorted(c.Context())
	if err != nil {
		return serviceError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"statusCode": fiber.StatusOK,
		"data":       feed,
	})
}

func (h *StoriesHandler) ByType(c *fiber.Ctx) error {
	storyType := strings.TrimSpace(c.Params("storyType"))
	if storyType == "" {
		return utils.Error(c, fiber.StatusBadRequest, "Invalid story type")
	}

	items, err := h.Stories.ByType(c.Context(), storyType)
	if err != nil {
		return serviceError(c, err)
	}

	message := fmt.Sprintf("Stories of type '%s' retrieved successfully", storyType)
	return utils.Data(c, fiber.StatusOK, message, items)
}

func (h *StoriesHandler) ByID(c *fiber.Ctx) error {
	storyID, err := parseID(c.Params("storyId"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "Invalid story id")
	}

	detail, err := h.Stories.ByID(c.Context(), storyID)
	if err != nil {
		return serviceError(c, err)
	}

	return utils.Data(c, fiber.StatusOK, "Story retrieved successfully", detail)
}

type addCommentRequest struct {
	UserID  uint   `json:"userId"`
	Comment string `json:"comment"`
}

// AddComment appends a comment. The route runs under OptionalAuth: a caller
// presenting a valid token may omit userId and have it filled from the token.
func (h *StoriesHandler) AddComment(c *fiber.Ctx) error {
	storyID, err := parseID(c.Params("storyId"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "Invalid story id")
	}

	var req addCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "Invalid request body")
	}

	if strings.TrimSpace(req.Comment) == "" {
		return utils.Error(c, fiber.StatusBadRequest, "Comment is required")
	}

	if req.UserID == 0 {
		if current := middleware.GetCurrentUser(c); current != nil {
			req.UserID = current.ID
		}
	}
	if req.UserID == 0 {
		return utils.Error(c, fiber.StatusBadRequest, "userId is required")
	}

	comment, err := h.Stories.AddComment(c.Context(), storyID, req.UserID, req.Comment)
	if err != nil {
		return serviceError(c, err)
	}

	return utils.Data(c, fiber.StatusOK, "Comment added successfully", comment)
}

func (h *StoriesHandler) List(c *fiber.Ctx) error {
	p := utils.ParsePagination(c)

	stories, total, err := h.Stories.List(c.Context(), p.Offset, p.Limit)
	if err != nil {
		return serviceError(c, err)
	}

	return utils.Paginated(c, stories, p.Page, p.Limit, total)
}
