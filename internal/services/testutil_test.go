package services

import (
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/novelnest/backend/internal/models"
	"github.com/novelnest/backend/pkg/logger"
	"github.com/novelnest/backend/pkg/utils"
	"gorm.io/gorm"
)

var testSetupOnce sync.Once

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	testSetupOnce.Do(func() {
		logger.Init()
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

	if err := db.AutoMigrate(&models.User{}, &models.Story{}); err != nil {
		t.Fatalf("failed automigrating models: %v", err)
	}

	return db
}

func createUser(t *testing.T, db *gorm.DB, username, email string, role models.UserRole, superuserFlag string) *models.User {
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

	return user
}

func createStory(t *testing.T, db *gorm.DB, author *models.User, title, storyType string, createdAt time.Time) *models.Story {
	t.Helper()

	story := &models.Story{
		Title:      title,
		Content:    "content of " + title,
		Type:       storyType,
		AuthorName: author.Username,
		AuthorID:   author.ID,
		Comments:   []models.StoryComment{},
	}
	story.CreatedAt = createdAt

	if err := db.Create(story).Error; err != nil {
		t.Fatalf("failed creating test story: %v", err)
	}

	return story
}
