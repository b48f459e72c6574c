package voting

import (
	"context"
	"time"

	"github.com/openlexica/backend/internal/models"
)

// Guard denial reasons.
const (
	ReasonTargetInactive = "target inactive"
	ReasonOwnContent     = "cannot vote own content"
	ReasonNotMember      = "not a community member"
	ReasonCooldown       = "voting too fast"
	ReasonDailyLimit     = "daily vote limit reached"
	ReasonAccountTooNew  = "account too new to vote"
)

// GuardConfig tunes the anti-abuse rules.
type GuardConfig struct {
	// Cooldown is the minimum wait between any two votes by one voter.
	Cooldown time.Duration
	// DailyLimit caps votes per voter in a rolling 24h window.
	DailyLimit int
	// MinAccountAge blocks freshly registered accounts from voting.
	// Zero disables the rule.
	MinAccountAge time.Duration
}

// DefaultGuardConfig matches production defaults: 60s cooldown, 100
// votes per day, no account-age requirement.
func DefaultGuardConfig() GuardConfig {
	return GuardConfig{
		Cooldown:   60 * time.Second,
		DailyLimit: 100,
	}
}

// Guard is the stateless policy evaluator answering "may this voter
// vote now?". It reads from the vote store and the directories and
// never mutates anything.
type Guard struct {
	store    Store
	content  ContentDirectory
	members  MemberDirectory
	accounts AccountDirectory
	cfg      GuardConfig
	now      func() time.Time
}

func NewGuard(store Store, content ContentDirectory, members MemberDirectory, accounts AccountDirectory, cfg GuardConfig) *Guard {
	return &Guard{
		store:    store,
		content:  content,
		members:  members,
		accounts: accounts,
		cfg:      cfg,
		now:      time.Now,
	}
}

// Check evaluates the rules in order; the first failure wins and comes
// back as a *PermissionError. On success it returns the resolved target
// so the caller does not have to look it up again.
func (g *Guard) Check(ctx context.Context, voterID int, kind models.TargetKind, targetID int) (*Content, error) {
	// 1. target must resolve and be active
	target, err := g.content.GetByID(ctx, kind, targetID)
	if err != nil {
		if _, ok := err.(*NotFoundError); ok {
			return nil, &PermissionError{Reason: ReasonTargetInactive}
		}
		return nil, err
	}
	if target.Status != models.StatusActive {
		return nil, &PermissionError{Reason: ReasonTargetInactive}
	}

	// 2. no voting on your own content
	if target.AuthorID == voterID {
		return nil, &PermissionError{Reason: ReasonOwnContent}
	}

	// 3. voter must belong to the community owning the target
	member, err := g.members.IsMember(ctx, target.CommunityID, voterID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, &PermissionError{Reason: ReasonNotMember}
	}

	if g.cfg.MinAccountAge > 0 {
		createdAt, err := g.accounts.AccountCreatedAt(ctx, voterID)
		if err != nil {
			return nil, err
		}
		if createdAt != nil && g.now().Sub(*createdAt) < g.cfg.MinAccountAge {
			return nil, &PermissionError{Reason: ReasonAccountTooNew}
		}
	}

	// 4. cooldown between consecutive votes
	if g.cfg.Cooldown > 0 {
		last, err := g.store.MostRecent(ctx, voterID)
		if err != nil {
			return nil, err
		}
		if last != nil {
			if elapsed := g.now().Sub(*last); elapsed < g.cfg.Cooldown {
				return nil, &PermissionError{
					Reason:     ReasonCooldown,
					RetryAfter: g.cfg.Cooldown - elapsed,
				}
			}
		}
	}

	// 5. rolling 24h cap
	if g.cfg.DailyLimit > 0 {
		count, err := g.store.CountSince(ctx, voterID, g.now().Add(-24*time.Hour))
		if err != nil {
			return nil, err
		}
		if count >= int64(g.cfg.DailyLimit) {
			return nil, &PermissionError{Reason: ReasonDailyLimit}
		}
	}

	return target, nil
}
