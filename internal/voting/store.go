package voting

import (
	"context"
	"time"

	"github.com/openlexica/backend/internal/models"
)

// TargetRef identifies one piece of votable content.
type TargetRef struct {
	Kind models.TargetKind `json:"kind"`
	ID   int               `json:"id"`
}

// Candidate is a target with enough votes on both sides to be considered
// for the controversial ranking.
type Candidate struct {
	TargetID  int
	Upvotes   int
	Downvotes int
}

// Store is the durable home of votes: one row per (voter, target),
// enforced by the store's uniqueness constraint rather than application
// logic. A Get miss is not an error - it returns (nil, nil).
type Store interface {
	Get(ctx context.Context, voterID int, kind models.TargetKind, targetID int) (*models.Vote, error)
	Put(ctx context.Context, vote *models.Vote) error
	// Remove deletes the voter's vote on the target and reports whether
	// a row existed.
	Remove(ctx context.Context, voterID int, kind models.TargetKind, targetID int) (bool, error)

	// CountSince counts votes cast by the voter at or after the given
	// time, any target. Backs the daily cap.
	CountSince(ctx context.Context, voterID int, since time.Time) (int64, error)
	// MostRecent returns the time of the voter's latest vote, or nil if
	// they have never voted. Backs the cooldown.
	MostRecent(ctx context.Context, voterID int) (*time.Time, error)

	// ListControversialCandidates aggregates stored votes per target of
	// the given kind and returns those with at least minUp upvotes and
	// minDown downvotes.
	ListControversialCandidates(ctx context.Context, kind models.TargetKind, minUp, minDown, limit int) ([]Candidate, error)

	// VotesForTargets returns the voter's current direction for each of
	// the given targets; targets without a vote are absent from the map.
	VotesForTargets(ctx context.Context, voterID int, targets []TargetRef) (map[TargetRef]models.VoteDirection, error)

	// DistinctTargets lists every target that currently has at least one
	// vote. Used by the orphan cleanup sweep.
	DistinctTargets(ctx context.Context) ([]TargetRef, error)
	// RemoveForTarget deletes all votes on one target and returns the
	// number removed.
	RemoveForTarget(ctx context.Context, kind models.TargetKind, targetID int) (int64, error)

	// WithVoteLock serializes concurrent casts on the same (voter,
	// target): fn runs with the key held and sees a Store and a
	// ContentDirectory whose writes commit only if fn returns nil, so
	// the vote row and the counter delta land atomically. Two
	// concurrent casts can therefore never both observe the same
	// current vote.
	WithVoteLock(ctx context.Context, voterID int, kind models.TargetKind, targetID int, fn func(tx Store, content ContentDirectory) error) error
}
