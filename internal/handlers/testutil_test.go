package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/novelnest/backend/internal/database"
	"github.com/novelnest/backend/internal/middleware"
	"github.com/novelnest/backend/internal/models"
	"github.com/novelnest/backend/internal/services"
	"github.com/novelnest/backend/pkg/logger"
	"github.com/novelnest/backend/pkg/utils"
	"gorm.io/gorm"
)

type testEnv struct {
	app *fiber.App
	db  *gorm.DB
}

var testSetupOnce sync.Once

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	testSetupOnce.Do(func() {
		logger.Init()
		utils.ConfigureJWT("test-secret", 24)
	})

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed opening in-memory sqlite database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed getting sql.DB from gorm: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed automigrating models: %v", err)
	}

	userDirectory := services.NewUserDirectory(db)
	storyCatalog := services.NewStoryCatalog(db, userDirectory)

	usersHandler := NewUsersHandler(userDirectory)
	storiesHandler := NewStoriesHandler(storyCatalog)
	authMiddleware := middleware.NewAuthMiddleware(db)

	app := fiber.New(fiber.Config{BodyLimit: 10 * 1024 * 1024})
	app.Use(recover.New(recover.Config{EnableStackTrace: true}))
	app.Use(middleware.CORS("http://localhost:4200"))
	app.Use(middleware.RequestLogger())
	app.Use(middleware.SecurityLogger())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api/v1")

	userRoutes := api.Group("/users")
	userRoutes.Post("/register", usersHandler.Register)
	userRoutes.Post("/login", usersHandler.Login)
	userRoutes.Patch("/update-profile-picture", usersHandler.UpdateProfilePicture)
	userRoutes.Patch("/update-role", usersHandler.UpdateRole)
	userRoutes.Get("/all", usersHandler.ListAll)
	userRoutes.Delete("/:id", usersHandler.Delete)

	storyRoutes := api.Group("/stories")
	storyRoutes.Get("/", storiesHandler.List)
	storyRoutes.Post("/create", storiesHandler.Create)
	storyRoutes.Post("/delete", storiesHandler.Delete)
	storyRoutes.Get("/by-users", storiesHandler.ByUsers)
	storyRoutes.Get("/sorted-stories", storiesHandler.Sorted)
	storyRoutes.Get("/type/:storyType", storiesHandler.ByType)
	storyRoutes.Patch("/:id", authMiddleware.RequireAuth, storiesHandler.Update)
	storyRoutes.Post("/:storyId/comment", authMiddleware.OptionalAuth, storiesHandler.AddComment)
	storyRoutes.Get("/:storyId", storiesHandler.ByID)

	return &testEnv{app: app, db: db}
}

func createTestUser(t *testing.T, db *gorm.DB, username, email string, role models.UserRole, superuserFlag string) (*models.User, string) {
	t.Helper()

	hash, err := utils.HashPassword("password123")
	if err != nil {
		t.Fatalf("failed hashing password: %v", err)
	}

	user := &models.User{
		Username:      username,
		Email:         email,
		PasswordHash:  hash,
		Role:          role,
		SuperuserRole: superuserFlag,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed creating test user: %v", err)
	}

	token, err := utils.GenerateToken(user)
	if err != nil {
		t.Fatalf("failed generating auth token: %v", err)
	}

	return user, token
}

func createTestStory(t *testing.T, db *gorm.DB, author *models.User, title, storyType string) *models.Story {
	t.Helper()

	story := &models.Story{
		Title:      title,
		Content:    "content of " + title,
		Type:       storyType,
		AuthorName: author.Username,
		AuthorID:   author.ID,
		Comments:   []models.StoryComment{},
	}
	if err := db.Create(story).Error; err != nil {
		t.Fatalf("failed creating test story: %v", err)
	}

	return story
}

func authHeaders(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func performRequest(t *testing.T, app *fiber.App, method, path string, body io.Reader, headers map[string]string) *http.Response {
	t.Helper()

	req := httptest.NewRequest(method, path, body)
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := app.Test(req, int((10 * time.Second).Milliseconds()))
	if err != nil {
		t.Fatalf("request %s %s failed: %v", method, path, err)
	}

	return resp
}

func performJSONRequest(t *testing.T, app *fiber.App, method, path string, payload any, headers map[string]string) *http.Response {
	t.Helper()

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("failed to marshal payload: %v", err)
		}
		body = bytes.NewReader(encoded)
	}

	requestHeaders := map[string]string{}
	for key, value := range headers {
		requestHeaders[key] = value
	}
	if payload != nil {
		requestHeaders["Content-Type"] = "application/json"
	}

	return performRequest(t, app, method, path, body, requestHeaders)
}

func decodeJSONMap(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed reading response body: %v", err)
	}

	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatalf("failed decoding JSON response: %v body=%q", err, string(raw))
	}

	return payload
}

func decodeJSONList(t *testing.T, resp *http.Response) []any {
	t.Helper()
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed reading response body: %v", err)
	}

	var payload []any
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatalf("failed decoding JSON response: %v body=%q", err, string(raw))
	}

	return payload
}

func assertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Fatalf("expected status %d, got %d", expected, resp.StatusCode)
	}
}

// assertEnvelope checks the {statusCode, message} body every failure and most
// successes carry.
func assertEnvelope(t *testing.T, body map[string]any, statusCode int, message string) {
	t.Helper()
	if got := int(body["statusCode"].(float64)); got != statusCode {
		t.Fatalf("expected statusCode %d in body, got %d", statusCode, got)
	}
	if got, _ := body["message"].(string); got != message {
		t.Fatalf("expected message %q, got %q", message, got)
	}
}
