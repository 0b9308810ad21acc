package models

import "time"

// StoryComment is one entry of a story's embedded comment log. Comments are
// append-only: there is no edit or delete operation.
type StoryComment struct {
	UserID    uint      `json:"userId"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"createdAt"`
}

type Story struct {
	BaseModel
	Title   string `json:"title" gorm:"type:varchar(255);not null"`
	Content string `json:"content" gorm:"type:text;not null"`
	Type    string `json:"type" gorm:"type:varchar(50);not null;index"`
	// AuthorName is a denormalized copy of the author's display name captured
	// at creation time; feed projections resolve the live username instead.
	AuthorName string         `json:"authorName" gorm:"type:varchar(100);not null"`
	AuthorID   uint           `json:"authorID" gorm:"not null;index"`
	Author     User           `json:"author,omitempty" gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
	Comments   []StoryComment `json:"comments" gorm:"type:jsonb;serializer:json"`
	Views      int            `json:"views" gorm:"not null;default:0"`
}
