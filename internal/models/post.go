package models

import "time"

// Content lifecycle states. Only active content accepts votes.
type ContentStatus string

const (
	StatusActive  ContentStatus = "active"
	StatusHidden  ContentStatus = "hidden"
	StatusDeleted ContentStatus = "deleted"
)

type Post struct {
	ID          int           `gorm:"primaryKey" json:"id"`
	Title       string        `gorm:"not null" json:"title"`
	Body        string        `json:"body,omitempty"`
	Language    string        `json:"language,omitempty"` // dictionary entry language tag, e.g. "es"
	AuthorID    int           `json:"author_id"`
	User        User          `gorm:"foreignKey:AuthorID" json:"user"`
	CommunityID int           `gorm:"index" json:"community_id"`
	Status      ContentStatus `gorm:"type:varchar(16);default:active" json:"status"`
	Score       int           `gorm:"default:0" json:"score"`
	Upvotes     int           `gorm:"default:0" json:"upvotes"`
	Downvotes   int           `gorm:"default:0" json:"downvotes"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

type CreatePostRequest struct {
	Title       string `json:"title"`
	Body        string `json:"body"`
	Language    string `json:"language"`
	CommunityID int    `json:"community_id"`
}
