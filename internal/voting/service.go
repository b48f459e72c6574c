package voting

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/openlexica/backend/internal/models"
)

// VoteResult is what a cast returns to the request layer.
type VoteResult struct {
	Success   bool                  `json:"success"`
	NewScore  int                   `json:"new_score"`
	Upvotes   int                   `json:"upvotes"`
	Downvotes int                   `json:"downvotes"`
	UserVote  *models.VoteDirection `json:"user_vote"` // nil after a toggle-off
	Message   string                `json:"message"`
}

// Service is the single entry point for casting votes and reading vote
// state. All shared state lives in the store and the content directory,
// so any number of instances can run in parallel.
type Service struct {
	store   Store
	content ContentDirectory
	guard   *Guard
	log     *zap.Logger
	now     func() time.Time
}

func NewService(store Store, content ContentDirectory, guard *Guard, log *zap.Logger) *Service {
	return &Service{
		store:   store,
		content: content,
		guard:   guard,
		log:     log,
		now:     time.Now,
	}
}

// CastVote runs the full cast pipeline: validate, guard, then the
// state-machine transition and score delta under the per-(voter,target)
// lock so concurrent casts on the same key serialize to exactly one
// winning transition and one applied delta.
func (s *Service) CastVote(ctx context.Context, voterID int, kind models.TargetKind, targetID int, direction models.VoteDirection, reason string) (*VoteResult, error) {
	if !direction.Valid() {
		return nil, &ValidationError{Field: "direction", Msg: "must be up or down"}
	}
	if !kind.Valid() {
		return nil, &ValidationError{Field: "target_kind", Msg: "must be post or comment"}
	}
	if targetID <= 0 {
		return nil, &ValidationError{Field: "target_id", Msg: "must be a positive id"}
	}

	if _, err := s.guard.Check(ctx, voterID, kind, targetID); err != nil {
		return nil, err
	}

	var (
		action Action
		stats  *Stats
		next   *models.VoteDirection
	)
	err := s.store.WithVoteLock(ctx, voterID, kind, targetID, func(tx Store, content ContentDirectory) error {
		current, err := tx.Get(ctx, voterID, kind, targetID)
		if err != nil {
			return err
		}

		var currentDir *models.VoteDirection
		if current != nil {
			currentDir = &current.Direction
		}

		var d Deltas
		next, action, d = transition(currentDir, direction)

		switch action {
		case ActionRemoved:
			if _, err := tx.Remove(ctx, voterID, kind, targetID); err != nil {
				return err
			}
		case ActionCreated:
			vote := &models.Vote{
				VoterID:    voterID,
				TargetKind: kind,
				TargetID:   targetID,
				Direction:  *next,
				Weight:     1,
				CreatedAt:  s.now(),
			}
			if *next == models.VoteDown {
				vote.Reason = reason
			}
			if err := tx.Put(ctx, vote); err != nil {
				return err
			}
		case ActionUpdated:
			current.Direction = *next
			current.CreatedAt = s.now()
			current.Reason = ""
			if *next == models.VoteDown {
				current.Reason = reason
			}
			if err := tx.Put(ctx, current); err != nil {
				return err
			}
		}

		// The delta is one atomic increment running in the same
		// transaction as the vote write: they commit together or not
		// at all.
		stats, err = content.ApplyScoreDelta(ctx, kind, targetID, d.Score, d.Up, d.Down)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("vote cast",
		zap.Int("voter_id", voterID),
		zap.String("target_kind", string(kind)),
		zap.Int("target_id", targetID),
		zap.String("action", string(action)),
		zap.Int("score", stats.Score),
	)

	return &VoteResult{
		Success:   true,
		NewScore:  stats.Score,
		Upvotes:   stats.Upvotes,
		Downvotes: stats.Downvotes,
		UserVote:  next,
		Message:   actionMessage(action),
	}, nil
}

func actionMessage(a Action) string {
	switch a {
	case ActionCreated:
		return "Vote recorded"
	case ActionUpdated:
		return "Vote updated"
	case ActionRemoved:
		return "Vote removed"
	}
	return ""
}

// UserVotes returns the voter's current direction for each target;
// targets the voter has not voted on are absent from the map.
func (s *Service) UserVotes(ctx context.Context, voterID int, targets []TargetRef) (map[TargetRef]models.VoteDirection, error) {
	return s.store.VotesForTargets(ctx, voterID, targets)
}

// VoteStats reads a target's counters and derived percentages.
func (s *Service) VoteStats(ctx context.Context, kind models.TargetKind, targetID int) (*Stats, error) {
	if !kind.Valid() {
		return nil, &ValidationError{Field: "target_kind", Msg: "must be post or comment"}
	}
	return s.content.GetStats(ctx, kind, targetID)
}

// CleanupOrphanedVotes deletes votes whose target no longer resolves in
// the content directory and returns how many were removed.
func (s *Service) CleanupOrphanedVotes(ctx context.Context) (int64, error) {
	targets, err := s.store.DistinctTargets(ctx)
	if err != nil {
		return 0, err
	}

	var removed int64
	for _, t := range targets {
		exists, err := s.content.Exists(ctx, t.Kind, t.ID)
		if err != nil {
			return removed, err
		}
		if exists {
			continue
		}
		n, err := s.store.RemoveForTarget(ctx, t.Kind, t.ID)
		if err != nil {
			return removed, err
		}
		removed += n
	}

	if removed > 0 {
		s.log.Info("removed orphaned votes", zap.Int64("count", removed))
	}
	return removed, nil
}
