package voting

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"time"

	"gorm.io/gorm"

	"github.com/openlexica/backend/internal/models"
)

// GormStore is the Postgres-backed vote store. The votes table carries a
// composite unique index on (voter_id, target_kind, target_id), so the
// one-vote-per-target invariant holds even if two writers race past the
// advisory lock.
type GormStore struct {
	db *gorm.DB
	// dirFor builds a ContentDirectory bound to a transaction, so the
	// counter delta inside WithVoteLock commits with the vote write.
	dirFor func(tx *gorm.DB) ContentDirectory
}

func NewGormStore(db *gorm.DB, dirFor func(tx *gorm.DB) ContentDirectory) *GormStore {
	return &GormStore{db: db, dirFor: dirFor}
}

func (s *GormStore) Get(ctx context.Context, voterID int, kind models.TargetKind, targetID int) (*models.Vote, error) {
	var vote models.Vote
	err := s.db.WithContext(ctx).
		Where("voter_id = ? AND target_kind = ? AND target_id = ?", voterID, kind, targetID).
		First(&vote).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get vote: %w", err)
	}
	return &vote, nil
}

func (s *GormStore) Put(ctx context.Context, vote *models.Vote) error {
	if err := s.db.WithContext(ctx).Save(vote).Error; err != nil {
		return fmt.Errorf("put vote: %w", err)
	}
	return nil
}

func (s *GormStore) Remove(ctx context.Context, voterID int, kind models.TargetKind, targetID int) (bool, error) {
	res := s.db.WithContext(ctx).
		Where("voter_id = ? AND target_kind = ? AND target_id = ?", voterID, kind, targetID).
		Delete(&models.Vote{})
	if res.Error != nil {
		return false, fmt.Errorf("remove vote: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (s *GormStore) CountSince(ctx context.Context, voterID int, since time.Time) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Vote{}).
		Where("voter_id = ? AND created_at >= ?", voterID, since).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count votes: %w", err)
	}
	return count, nil
}

func (s *GormStore) MostRecent(ctx context.Context, voterID int) (*time.Time, error) {
	var vote models.Vote
	err := s.db.WithContext(ctx).
		Where("voter_id = ?", voterID).
		Order("created_at desc").
		First(&vote).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("most recent vote: %w", err)
	}
	return &vote.CreatedAt, nil
}

func (s *GormStore) ListControversialCandidates(ctx context.Context, kind models.TargetKind, minUp, minDown, limit int) ([]Candidate, error) {
	var candidates []Candidate
	err := s.db.WithContext(ctx).Raw(`
		SELECT target_id,
		       COUNT(*) FILTER (WHERE direction = 'up')   AS upvotes,
		       COUNT(*) FILTER (WHERE direction = 'down') AS downvotes
		FROM votes
		WHERE target_kind = ?
		GROUP BY target_id
		HAVING COUNT(*) FILTER (WHERE direction = 'up') >= ?
		   AND COUNT(*) FILTER (WHERE direction = 'down') >= ?
		ORDER BY COUNT(*) DESC
		LIMIT ?`, kind, minUp, minDown, limit).
		Scan(&candidates).Error
	if err != nil {
		return nil, fmt.Errorf("list controversial candidates: %w", err)
	}
	return candidates, nil
}

func (s *GormStore) VotesForTargets(ctx context.Context, voterID int, targets []TargetRef) (map[TargetRef]models.VoteDirection, error) {
	result := make(map[TargetRef]models.VoteDirection, len(targets))
	if len(targets) == 0 {
		return result, nil
	}

	byKind := map[models.TargetKind][]int{}
	for _, t := range targets {
		byKind[t.Kind] = append(byKind[t.Kind], t.ID)
	}

	for kind, ids := range byKind {
		var votes []models.Vote
		err := s.db.WithContext(ctx).
			Where("voter_id = ? AND target_kind = ? AND target_id IN ?", voterID, kind, ids).
			Find(&votes).Error
		if err != nil {
			return nil, fmt.Errorf("votes for targets: %w", err)
		}
		for _, v := range votes {
			result[TargetRef{Kind: v.TargetKind, ID: v.TargetID}] = v.Direction
		}
	}
	return result, nil
}

func (s *GormStore) DistinctTargets(ctx context.Context) ([]TargetRef, error) {
	var rows []struct {
		TargetKind models.TargetKind
		TargetID   int
	}
	err := s.db.WithContext(ctx).Model(&models.Vote{}).
		Distinct("target_kind", "target_id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("distinct targets: %w", err)
	}

	targets := make([]TargetRef, 0, len(rows))
	for _, r := range rows {
		targets = append(targets, TargetRef{Kind: r.TargetKind, ID: r.TargetID})
	}
	return targets, nil
}

func (s *GormStore) RemoveForTarget(ctx context.Context, kind models.TargetKind, targetID int) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("target_kind = ? AND target_id = ?", kind, targetID).
		Delete(&models.Vote{})
	if res.Error != nil {
		return 0, fmt.Errorf("remove votes for target: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// WithVoteLock opens a transaction, takes a transaction-scoped advisory
// lock keyed on (voter, target), and runs fn with a store and content
// directory both bound to that transaction. The lock releases on commit
// or rollback, so concurrent casts on the same key queue up instead of
// racing the read-then-write.
func (s *GormStore) WithVoteLock(ctx context.Context, voterID int, kind models.TargetKind, targetID int, fn func(tx Store, content ContentDirectory) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("SELECT pg_advisory_xact_lock(?)", voteLockKey(voterID, kind, targetID)).Error; err != nil {
			return fmt.Errorf("acquire vote lock: %w", err)
		}
		return fn(&GormStore{db: tx, dirFor: s.dirFor}, s.dirFor(tx))
	})
}

func voteLockKey(voterID int, kind models.TargetKind, targetID int) int64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "%d/%s/%d", voterID, kind, targetID)
	return int64(h.Sum64())
}
