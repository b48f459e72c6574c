package models

import "time"

// Community - a language community, e.g. "Spanish learners".
type Community struct {
	ID          int       `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"unique;not null" json:"name"`
	Language    string    `json:"language"`
	Description string    `json:"description"`
	CreatedBy   int       `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
}

// Membership model - one row per member per community.
type Membership struct {
	ID          int       `gorm:"primaryKey" json:"id"`
	CommunityID int       `gorm:"not null;uniqueIndex:idx_memberships_member" json:"community_id"`
	UserID      int       `gorm:"not null;uniqueIndex:idx_memberships_member" json:"user_id"`
	User        User      `gorm:"foreignKey:UserID" json:"user"`
	CreatedAt   time.Time `json:"created_at"`
}
