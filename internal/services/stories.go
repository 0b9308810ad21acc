package services

import (
	"context"
	"fmt"
	"time"

	"github.com/novelnest/backend/internal/models"
	"gorm.io/gorm"
)

// StoryCatalog owns story content. It resolves authors and privilege checks
// through UserDirectory and performs its own persistence against the shared
// database handle.
type StoryCatalog struct {
	DB    *gorm.DB
	Users *UserDirectory
}

func NewStoryCatalog(db *gorm.DB, users *UserDirectory) *StoryCatalog {
	return &StoryCatalog{DB: db, Users: users}
}

type CreateStoryParams struct {
	Title      string
	Content    string
	Type       string
	AuthorID   uint
	AuthorName string
}

// Create persists a new story linked to an existing user. An unknown author
// is a hard ErrUserNotFound.
func (s *StoryCatalog) Create(ctx context.Context, p CreateStoryParams) error {
	author, err := s.Users.FindByID(ctx, p.AuthorID)
	if err != nil {
		return fmt.Errorf("resolving author: %w", err)
	}
	if author == nil {
		return ErrUserNotFound
	}

	story := models.Story{
		Title:      p.Title,
		Content:    p.Content,
		Type:       p.Type,
		AuthorName: p.AuthorName,
		AuthorID:   author.ID,
		Comments:   []models.StoryComment{},
	}

	if err := s.DB.WithContext(ctx).Create(&story).Error; err != nil {
		return fmt.Errorf("creating story: %w", err)
	}

	return nil
}

// StoryUpdate is the allow-list of writable story fields. Nil fields are left
// untouched; no field-level validation is applied on update.
type StoryUpdate struct {
	Title      *string `json:"title"`
	Content    *string `json:"content"`
	Type       *string `json:"type"`
	AuthorName *string `json:"authorName"`
}

// Update applies a partial update to a story owned by callerID. The lookup
// filters on both story id and author id, so a story owned by someone else is
// indistinguishable from a missing one.
func (s *StoryCatalog) Update(ctx context.Context, storyID, callerID uint, upd StoryUpdate) error {
	var story models.Story
	err := s.DB.WithContext(ctx).First(&story, "id = ? AND author_id = ?", storyID, callerID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return ErrNotStoryAuthor
		}
		return fmt.Errorf("loading story: %w", err)
	}

	if upd.Title != nil {
		story.Title = *upd.Title
	}
	if upd.Content != nil {
		story.Content = *upd.Content
	}
	if upd.Type != nil {
		story.Type = *upd.Type
	}
	if upd.AuthorName != nil {
		story.AuthorName = *upd.AuthorName
	}

	if err := s.DB.WithContext(ctx).Save(&story).Error; err != nil {
		return fmt.Errorf("saving story: %w", err)
	}

	return nil
}

// Delete removes a story. Deletion is an elevated-privilege action, not an
// ownership one: only callers whose superuser flag is Y may delete, authors
// included.
func (s *StoryCatalog) Delete(ctx context.Context, storyID, callerID uint) error {
	var story models.Story
	if err := s.DB.WithContext(ctx).First(&story, "id = ?", storyID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return ErrStoryNotFound
		}
		return fmt.Errorf("loading story: %w", err)
	}

	caller, err := s.Users.FindByID(ctx, callerID)
	if err != nil {
		return fmt.Errorf("resolving caller: %w", err)
	}
	if caller == nil {
		return ErrUserNotFound
	}

	if caller.SuperuserRole != models.SuperuserYes {
		return ErrDeleteForbidden
	}

	return s.DB.WithContext(ctx).Delete(&story).Error
}

// ByAuthorIDs returns the stories authored by any of the given users, author
// relation populated, newest first.
func (s *StoryCatalog) ByAuthorIDs(ctx context.Context, ids []uint) ([]models.Story, error) {
	if len(ids) == 0 {
		return []models.Story{}, nil
	}

	var stories []models.Story
	err := s.DB.WithContext(ctx).
		Preload("Author").
		Where("author_id IN ?", ids).
		Order("created_at DESC").
		Find(&stories).Error
	return stories, err
}

// FeedAuthor is the reduced author view embedded in feed projections.
type FeedAuthor struct {
	Name           string  `json:"name"`
	ProfilePicture *string `json:"profilePicture"`
}

// FeedItem is the flat story projection returned by the sorted feed.
type FeedItem struct {
	ID           uint                  `json:"id"`
	StoryTitle   string                `json:"storyTitle"`
	StoryContent string                `json:"storyContent"`
	StoryType    string                `json:"storyType"`
	CreatedAt    time.Time             `json:"createdAt"`
	Views        int                   `json:"views"`
	Comments     []models.StoryComment `json:"comments"`
	Author       FeedAuthor            `json:"author"`
}

type SortedFeed struct {
	SuperUsers []FeedItem `json:"superUsers"`
	Authors    []FeedItem `json:"authors"`
}

// Sorted partitions the catalog into two buckets: stories by superuser-flag
// users and stories by admin-role "authors". Each bucket is ordered newest
// first.
func (s *StoryCatalog) Sorted(ctx context.Context) (*SortedFeed, error) {
	superusers, err := s.Users.ListSuperusers(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing superusers: %w", err)
	}

	authors, err := s.Users.ListAuthors(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing authors: %w", err)
	}

	superuserStories, err := s.ByAuthorIDs(ctx, userIDs(superusers))
	if err != nil {
		return nil, err
	}

	authorStories, err := s.ByAuthorIDs(ctx, userIDs(authors))
	if err != nil {
		return nil, err
	}

	return &SortedFeed{
		SuperUsers: formatFeed(superuserStories),
		Authors:    formatFeed(authorStories),
	}, nil
}

// TypeItem is the projection returned by the by-type listing. AuthorName is
// the resolved author's current username, not the denormalized copy stored on
// the story.
type TypeItem struct {
	ID           uint      `json:"id"`
	StoryTitle   string    `json:"storyTitle"`
	StoryContent string    `json:"storyContent"`
	StoryType    string    `json:"storyType"`
	CreatedAt    time.Time `json:"createdAt"`
	Views        int       `json:"views"`
	AuthorName   string    `json:"authorName"`
}

func (s *StoryCatalog) ByType(ctx context.Context, storyType string) ([]TypeItem, error) {
	var stories []models.Story
	err := s.DB.WithContext(ctx).
		Preload("Author").
		Where("type = ?", storyType).
		Find(&stories).Error
	if err != nil {
		return nil, err
	}

	items := make([]TypeItem, 0, len(stories))
	for _, story := range stories {
		items = append(items, TypeItem{
			ID:           story.ID,
			StoryTitle:   story.Title,
			StoryContent: story.Content,
			StoryType:    story.Type,
			CreatedAt:    story.CreatedAt,
			Views:        story.Views,
			AuthorName:   authorDisplayName(story.Author),
		})
	}

	return items, nil
}

// Detail is the full projection returned by a single-story lookup.
type Detail struct {
	ID           uint                  `json:"id"`
	StoryTitle   string                `json:"storyTitle"`
	StoryContent string                `json:"storyContent"`
	StoryType    string                `json:"storyType"`
	CreatedAt    time.Time             `json:"createdAt"`
	AuthorName   string                `json:"authorName"`
	Views        int                   `json:"views"`
	Comments     []models.StoryComment `json:"comments"`
}

// ByID returns one story and counts the view before responding. The increment
// runs as a single views = views + 1 statement so concurrent readers cannot
// lose counts.
func (s *StoryCatalog) ByID(ctx context.Context, id uint) (*Detail, error) {
	var story models.Story
	err := s.DB.WithContext(ctx).Preload("Author").First(&story, "id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrStoryNotFound
		}
		return nil, fmt.Errorf("loading story: %w", err)
	}

	err = s.DB.WithContext(ctx).
		Model(&story).
		Update("views", gorm.Expr("views + ?", 1)).Error
	if err != nil {
		return nil, fmt.Errorf("counting view: %w", err)
	}
	story.Views++

	return &Detail{
		ID:           story.ID,
		StoryTitle:   story.Title,
		StoryContent: story.Content,
		StoryType:    story.Type,
		CreatedAt:    story.CreatedAt,
		AuthorName:   authorDisplayName(story.Author),
		Views:        story.Views,
		Comments:     story.Comments,
	}, nil
}

// AddComment appends a comment record to the story's embedded comment log and
// returns the appended record. The commenting userId is stored as given; it is
// not checked against the user table.
func (s *StoryCatalog) AddComment(ctx context.Context, storyID, userID uint, text string) (*models.StoryComment, error) {
	var story models.Story
	if err := s.DB.WithContext(ctx).First(&story, "id = ?", storyID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrStoryNotFound
		}
		return nil, fmt.Errorf("loading story: %w", err)
	}

	comment := models.StoryComment{
		UserID:    userID,
		Comment:   text,
		CreatedAt: time.Now().UTC(),
	}
	story.Comments = append(story.Comments, comment)

	if err := s.DB.WithContext(ctx).Save(&story).Error; err != nil {
		return nil, fmt.Errorf("saving story: %w", err)
	}

	return &comment, nil
}

// List returns a page of the whole catalog, newest first, with authors
// populated.
func (s *StoryCatalog) List(ctx context.Context, offset, limit int) ([]models.Story, int64, error) {
	var total int64
	if err := s.DB.WithContext(ctx).Model(&models.Story{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var stories []models.Story
	err := s.DB.WithContext(ctx).
		Preload("Author").
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&stories).Error
	return stories, total, err
}

func userIDs(users []models.User) []uint {
	ids := make([]uint, 0, len(users))
	for _, user := range users {
		ids = append(ids, user.ID)
	}
	return ids
}

func formatFeed(stories []models.Story) []FeedItem {
	items := make([]FeedItem, 0, len(stories))
	for _, story := range stories {
		comments := story.Comments
		if comments == nil {
			comments = []models.StoryComment{}
		}
		items = append(items, FeedItem{
			ID:           story.ID,
			StoryTitle:   story.Title,
			StoryContent: story.Content,
			StoryType:    story.Type,
			CreatedAt:    story.CreatedAt,
			Views:        story.Views,
			Comments:     comments,
			Author: FeedAuthor{
				Name:           authorDisplayName(story.Author),
				ProfilePicture: story.Author.ProfilePicture,
			},
		})
	}
	return items
}

func authorDisplayName(author models.User) string {
	if author.Username == "" {
		return "Unknown"
	}
	return author.Username
}
