package voting

import (
	"context"
	"sort"

	"github.com/openlexica/backend/internal/models"
)

// Kind-specific thresholds: a target needs this many votes on each side
// before it can rank as controversial.
const (
	postControversyMin    = 5
	commentControversyMin = 3
)

// RankedItem is one entry of the controversial listing.
type RankedItem struct {
	Kind        models.TargetKind `json:"kind"`
	TargetID    int               `json:"target_id"`
	Score       int               `json:"score"`
	Controversy float64           `json:"controversy"`
}

// controversy measures how evenly split opinion is: min/max of the two
// counts, in (0,1]. One-sided targets score zero.
func controversy(up, down int) float64 {
	if up <= 0 || down <= 0 {
		return 0
	}
	if up < down {
		return float64(up) / float64(down)
	}
	return float64(down) / float64(up)
}

// ControversialContent merges the most contested posts and comments of
// one community, ranked by controversy descending. Comments carry no
// community reference, so scoping goes through the owning post via the
// content directory.
func (s *Service) ControversialContent(ctx context.Context, communityID, limit int) ([]RankedItem, error) {
	if limit <= 0 {
		limit = 10
	}

	var items []RankedItem
	kinds := []struct {
		kind models.TargetKind
		min  int
	}{
		{models.TargetPost, postControversyMin},
		{models.TargetComment, commentControversyMin},
	}

	for _, k := range kinds {
		// Over-fetch per kind; the merged list is truncated below.
		candidates, err := s.store.ListControversialCandidates(ctx, k.kind, k.min, k.min, limit*2)
		if err != nil {
			return nil, err
		}
		for _, c := range candidates {
			target, err := s.content.GetByID(ctx, k.kind, c.TargetID)
			if err != nil {
				if _, ok := err.(*NotFoundError); ok {
					continue // orphaned votes, cleanup will reclaim them
				}
				return nil, err
			}
			if target.CommunityID != communityID || target.Status != models.StatusActive {
				continue
			}
			items = append(items, RankedItem{
				Kind:        k.kind,
				TargetID:    c.TargetID,
				Score:       c.Upvotes - c.Downvotes,
				Controversy: controversy(c.Upvotes, c.Downvotes),
			})
		}
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i].Controversy > items[j].Controversy
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}
