package models

import (
	"fmt"
	"time"
)

// TargetKind is the closed set of content kinds a vote can point at.
type TargetKind string

const (
	TargetPost    TargetKind = "post"
	TargetComment TargetKind = "comment"
)

// Valid reports whether k is one of the known kinds. Switches over
// TargetKind handle both kinds and error on the default branch.
func (k TargetKind) Valid() bool {
	switch k {
	case TargetPost, TargetComment:
		return true
	default:
		return false
	}
}

// ParseTargetKind converts request input into a TargetKind.
func ParseTargetKind(s string) (TargetKind, error) {
	k := TargetKind(s)
	if !k.Valid() {
		return "", fmt.Errorf("unknown target kind %q", s)
	}
	return k, nil
}

// VoteDirection is "up" or "down".
type VoteDirection string

const (
	VoteUp   VoteDirection = "up"
	VoteDown VoteDirection = "down"
)

func (d VoteDirection) Valid() bool {
	return d == VoteUp || d == VoteDown
}

// Vote model - one voter's current stance on one target. The composite
// unique index enforces at most one row per (voter, target).
type Vote struct {
	ID         int           `gorm:"primaryKey" json:"id"`
	VoterID    int           `gorm:"not null;uniqueIndex:idx_votes_voter_target" json:"voter_id"`
	TargetKind TargetKind    `gorm:"type:varchar(16);not null;uniqueIndex:idx_votes_voter_target" json:"target_kind"`
	TargetID   int           `gorm:"not null;uniqueIndex:idx_votes_voter_target;index:idx_votes_target" json:"target_id"`
	Direction  VoteDirection `gorm:"type:varchar(8);not null" json:"direction"`
	Reason     string        `json:"reason,omitempty"` // conventionally filled for downvotes
	Weight     int           `gorm:"default:1" json:"weight"`
	CreatedAt  time.Time     `gorm:"index" json:"created_at"` // reset when the direction switches
}
