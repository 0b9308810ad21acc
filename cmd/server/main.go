package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/novelnest/backend/internal/config"
	"github.com/novelnest/backend/internal/database"
	"github.com/novelnest/backend/internal/handlers"
	"github.com/novelnest/backend/internal/middleware"
	"github.com/novelnest/backend/internal/services"
	"github.com/novelnest/backend/pkg/logger"
	"github.com/novelnest/backend/pkg/utils"
)

func main() {
	_ = godotenv.Load()
	logger.Init()

	cfg := config.Load()
	utils.ConfigureJWT(cfg.JWT.Secret, cfg.JWT.ExpirationHours)

	db, err := database.Connect(cfg.DB)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}

	userDirectory := services.NewUserDirectory(db)
	storyCatalog := services.NewStoryCatalog(db, userDirectory)

	usersHandler := handlers.NewUsersHandler(userDirectory)
	storiesHandler := handlers.NewStoriesHandler(storyCatalog)

	authMiddleware := middleware.NewAuthMiddleware(db)

	app := fiber.New(fiber.Config{BodyLimit: 10 * 1024 * 1024})
	app.Use(recover.New(recover.Config{EnableStackTrace: true}))
	app.Use(middleware.CORS(cfg.Server.AllowOrigins))
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

	listenAddr := fmt.Sprintf(":%s", cfg.Server.Port)

	logger.Info("server_starting", map[string]interface{}{
		"port":    cfg.Server.Port,
		"address": listenAddr,
		"driver":  cfg.DB.Driver,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(listenAddr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Printf("shutting down server due to signal: %s", sig)
		shutdownDone := make(chan struct{})
		go func() {
			_ = app.Shutdown()
			close(shutdownDone)
		}()
		select {
		case <-shutdownDone:
		case <-time.After(10 * time.Second):
			log.Print("forced shutdown timeout reached")
		}
	case err := <-errCh:
		if err != nil {
			log.Fatalf("server error: %v", err)
		}
	}
}
