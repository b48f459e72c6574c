package voting

import (
	"context"
	"math"
	"time"

	"github.com/openlexica/backend/internal/models"
)

// Content is what the content directory knows about a vote target.
// For comments CommunityID is resolved through the owning post.
type Content struct {
	AuthorID    int
	CommunityID int
	Status      models.ContentStatus
}

// Stats are a target's post-update counters plus derived fields.
type Stats struct {
	Score            int `json:"score"`
	Upvotes          int `json:"upvotes"`
	Downvotes        int `json:"downvotes"`
	TotalVotes       int `json:"total_votes"`
	UpvotePercentage int `json:"upvote_percentage"`
}

// NewStats derives TotalVotes and UpvotePercentage from raw counters.
// A target with zero votes gets 0 percent, never a division by zero.
func NewStats(score, upvotes, downvotes int) Stats {
	s := Stats{Score: score, Upvotes: upvotes, Downvotes: downvotes}
	s.TotalVotes = upvotes + downvotes
	if s.TotalVotes > 0 {
		s.UpvotePercentage = int(math.Round(100 * float64(upvotes) / float64(s.TotalVotes)))
	}
	return s
}

// ContentDirectory is the external owner of posts/comments and their
// score counters. ApplyScoreDelta must be a single atomic increment on
// the directory side, never read-modify-write here.
type ContentDirectory interface {
	GetByID(ctx context.Context, kind models.TargetKind, id int) (*Content, error)
	ApplyScoreDelta(ctx context.Context, kind models.TargetKind, id, scoreDelta, upDelta, downDelta int) (*Stats, error)
	GetStats(ctx context.Context, kind models.TargetKind, id int) (*Stats, error)
	Exists(ctx context.Context, kind models.TargetKind, id int) (bool, error)
}

// MemberDirectory answers community membership questions.
type MemberDirectory interface {
	IsMember(ctx context.Context, communityID, userID int) (bool, error)
}

// AccountDirectory exposes the one account fact the guard needs.
type AccountDirectory interface {
	AccountCreatedAt(ctx context.Context, userID int) (*time.Time, error)
}
