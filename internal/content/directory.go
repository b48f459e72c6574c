package content

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/openlexica/backend/internal/models"
	"github.com/openlexica/backend/internal/voting"
)

// Directory adapts the posts/comments tables to the voting core's view
// of the content world: resolve a target, read its counters, and apply
// score deltas as single atomic increments.
type Directory struct {
	db *gorm.DB
}

func NewDirectory(db *gorm.DB) *Directory {
	return &Directory{db: db}
}

func tableFor(kind models.TargetKind) (string, error) {
	switch kind {
	case models.TargetPost:
		return "posts", nil
	case models.TargetComment:
		return "comments", nil
	default:
		return "", fmt.Errorf("unknown target kind %q", kind)
	}
}

func (d *Directory) GetByID(ctx context.Context, kind models.TargetKind, id int) (*voting.Content, error) {
	switch kind {
	case models.TargetPost:
		var post models.Post
		if err := d.db.WithContext(ctx).First(&post, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, &voting.NotFoundError{Kind: kind, ID: id}
			}
			return nil, fmt.Errorf("get post: %w", err)
		}
		return &voting.Content{
			AuthorID:    post.AuthorID,
			CommunityID: post.CommunityID,
			Status:      post.Status,
		}, nil
	case models.TargetComment:
		// Comments carry no community reference; borrow the owning
		// post's community.
		var row struct {
			AuthorID    int
			CommunityID int
			Status      models.ContentStatus
		}
		res := d.db.WithContext(ctx).Raw(`
			SELECT c.author_id, c.status, p.community_id
			FROM comments c
			JOIN posts p ON p.id = c.post_id
			WHERE c.id = ?`, id).
			Scan(&row)
		if res.Error != nil {
			return nil, fmt.Errorf("get comment: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return nil, &voting.NotFoundError{Kind: kind, ID: id}
		}
		return &voting.Content{
			AuthorID:    row.AuthorID,
			CommunityID: row.CommunityID,
			Status:      row.Status,
		}, nil
	default:
		return nil, fmt.Errorf("unknown target kind %q", kind)
	}
}

// ApplyScoreDelta adds all three deltas in one UPDATE so concurrent
// votes on the same target never lose increments, and returns the
// post-update counters from the same statement.
func (d *Directory) ApplyScoreDelta(ctx context.Context, kind models.TargetKind, id, scoreDelta, upDelta, downDelta int) (*voting.Stats, error) {
	table, err := tableFor(kind)
	if err != nil {
		return nil, err
	}

	var row struct {
		Score     int
		Upvotes   int
		Downvotes int
	}
	res := d.db.WithContext(ctx).Raw(fmt.Sprintf(`
		UPDATE %s
		SET score = score + ?, upvotes = upvotes + ?, downvotes = downvotes + ?, updated_at = ?
		WHERE id = ?
		RETURNING score, upvotes, downvotes`, table),
		scoreDelta, upDelta, downDelta, time.Now().UTC(), id).
		Scan(&row)
	if res.Error != nil {
		return nil, fmt.Errorf("apply score delta: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, &voting.NotFoundError{Kind: kind, ID: id}
	}

	stats := voting.NewStats(row.Score, row.Upvotes, row.Downvotes)
	return &stats, nil
}

func (d *Directory) GetStats(ctx context.Context, kind models.TargetKind, id int) (*voting.Stats, error) {
	table, err := tableFor(kind)
	if err != nil {
		return nil, err
	}

	var row struct {
		Score     int
		Upvotes   int
		Downvotes int
	}
	res := d.db.WithContext(ctx).
		Raw(fmt.Sprintf("SELECT score, upvotes, downvotes FROM %s WHERE id = ?", table), id).
		Scan(&row)
	if res.Error != nil {
		return nil, fmt.Errorf("get stats: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, &voting.NotFoundError{Kind: kind, ID: id}
	}

	stats := voting.NewStats(row.Score, row.Upvotes, row.Downvotes)
	return &stats, nil
}

func (d *Directory) Exists(ctx context.Context, kind models.TargetKind, id int) (bool, error) {
	table, err := tableFor(kind)
	if err != nil {
		return false, err
	}

	var count int64
	err = d.db.WithContext(ctx).
		Raw(fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE id = ?", table), id).
		Scan(&count).Error
	if err != nil {
		return false, fmt.Errorf("exists: %w", err)
	}
	return count > 0, nil
}

// Members answers community membership lookups for the abuse guard.
type Members struct {
	db *gorm.DB
}

func NewMembers(db *gorm.DB) *Members {
	return &Members{db: db}
}

func (m *Members) IsMember(ctx context.Context, communityID, userID int) (bool, error) {
	var count int64
	err := m.db.WithContext(ctx).Model(&models.Membership{}).
		Where("community_id = ? AND user_id = ?", communityID, userID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("is member: %w", err)
	}
	return count > 0, nil
}

// Accounts exposes account facts for the guard's age rule.
type Accounts struct {
	db *gorm.DB
}

func NewAccounts(db *gorm.DB) *Accounts {
	return &Accounts{db: db}
}

func (a *Accounts) AccountCreatedAt(ctx context.Context, userID int) (*time.Time, error) {
	var user models.User
	err := a.db.WithContext(ctx).First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("account created at: %w", err)
	}
	return &user.CreatedAt, nil
}
