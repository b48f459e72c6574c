package voting

import (
	"context"
	"sync"
	"time"

	"github.com/openlexica/backend/internal/models"
)

// fakeStore keeps votes in a map guarded by one mutex, which also
// doubles as the per-key serialization for WithVoteLock. It has no
// transactions, so dir is handed to the lock callback as-is.
type fakeStore struct {
	mu    sync.Mutex
	votes map[voteKey]*models.Vote
	next  int
	dir   ContentDirectory
}

type voteKey struct {
	voterID int
	kind    models.TargetKind
	id      int
}

func newFakeStore() *fakeStore {
	return &fakeStore{votes: make(map[voteKey]*models.Vote)}
}

func (s *fakeStore) Get(_ context.Context, voterID int, kind models.TargetKind, targetID int) (*models.Vote, error) {
	v, ok := s.votes[voteKey{voterID, kind, targetID}]
	if !ok {
		return nil, nil
	}
	copied := *v
	return &copied, nil
}

func (s *fakeStore) Put(_ context.Context, vote *models.Vote) error {
	if vote.ID == 0 {
		s.next++
		vote.ID = s.next
	}
	copied := *vote
	s.votes[voteKey{vote.VoterID, vote.TargetKind, vote.TargetID}] = &copied
	return nil
}

func (s *fakeStore) Remove(_ context.Context, voterID int, kind models.TargetKind, targetID int) (bool, error) {
	k := voteKey{voterID, kind, targetID}
	if _, ok := s.votes[k]; !ok {
		return false, nil
	}
	delete(s.votes, k)
	return true, nil
}

func (s *fakeStore) CountSince(_ context.Context, voterID int, since time.Time) (int64, error) {
	var count int64
	for _, v := range s.votes {
		if v.VoterID == voterID && !v.CreatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func (s *fakeStore) MostRecent(_ context.Context, voterID int) (*time.Time, error) {
	var latest *time.Time
	for _, v := range s.votes {
		if v.VoterID != voterID {
			continue
		}
		t := v.CreatedAt
		if latest == nil || t.After(*latest) {
			latest = &t
		}
	}
	return latest, nil
}

func (s *fakeStore) ListControversialCandidates(_ context.Context, kind models.TargetKind, minUp, minDown, limit int) ([]Candidate, error) {
	counts := map[int]*Candidate{}
	for _, v := range s.votes {
		if v.TargetKind != kind {
			continue
		}
		c, ok := counts[v.TargetID]
		if !ok {
			c = &Candidate{TargetID: v.TargetID}
			counts[v.TargetID] = c
		}
		if v.Direction == models.VoteUp {
			c.Upvotes++
		} else {
			c.Downvotes++
		}
	}

	var out []Candidate
	for _, c := range counts {
		if c.Upvotes >= minUp && c.Downvotes >= minDown {
			out = append(out, *c)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *fakeStore) VotesForTargets(_ context.Context, voterID int, targets []TargetRef) (map[TargetRef]models.VoteDirection, error) {
	out := make(map[TargetRef]models.VoteDirection)
	for _, t := range targets {
		if v, ok := s.votes[voteKey{voterID, t.Kind, t.ID}]; ok {
			out[t] = v.Direction
		}
	}
	return out, nil
}

func (s *fakeStore) DistinctTargets(_ context.Context) ([]TargetRef, error) {
	seen := map[TargetRef]bool{}
	var out []TargetRef
	for _, v := range s.votes {
		ref := TargetRef{Kind: v.TargetKind, ID: v.TargetID}
		if !seen[ref] {
			seen[ref] = true
			out = append(out, ref)
		}
	}
	return out, nil
}

func (s *fakeStore) RemoveForTarget(_ context.Context, kind models.TargetKind, targetID int) (int64, error) {
	var removed int64
	for k, v := range s.votes {
		if v.TargetKind == kind && v.TargetID == targetID {
			delete(s.votes, k)
			removed++
		}
	}
	return removed, nil
}

func (s *fakeStore) WithVoteLock(_ context.Context, _ int, _ models.TargetKind, _ int, fn func(tx Store, content ContentDirectory) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s, s.dir)
}

// fakeTarget is one votable item the fake directory knows about.
type fakeTarget struct {
	Content
	Stats Stats
}

type fakeDirectory struct {
	mu      sync.Mutex
	targets map[TargetRef]*fakeTarget

	// failDeltaNotFound simulates the target vanishing between the
	// guard check and the delta write.
	failDeltaNotFound bool
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{targets: make(map[TargetRef]*fakeTarget)}
}

func (d *fakeDirectory) addTarget(kind models.TargetKind, id, authorID, communityID int) {
	d.targets[TargetRef{Kind: kind, ID: id}] = &fakeTarget{
		Content: Content{AuthorID: authorID, CommunityID: communityID, Status: models.StatusActive},
	}
}

func (d *fakeDirectory) removeTarget(kind models.TargetKind, id int) {
	delete(d.targets, TargetRef{Kind: kind, ID: id})
}

func (d *fakeDirectory) GetByID(_ context.Context, kind models.TargetKind, id int) (*Content, error) {
	t, ok := d.targets[TargetRef{Kind: kind, ID: id}]
	if !ok {
		return nil, &NotFoundError{Kind: kind, ID: id}
	}
	c := t.Content
	return &c, nil
}

func (d *fakeDirectory) ApplyScoreDelta(_ context.Context, kind models.TargetKind, id, scoreDelta, upDelta, downDelta int) (*Stats, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	t, ok := d.targets[TargetRef{Kind: kind, ID: id}]
	if !ok || d.failDeltaNotFound {
		return nil, &NotFoundError{Kind: kind, ID: id}
	}
	t.Stats = NewStats(t.Stats.Score+scoreDelta, t.Stats.Upvotes+upDelta, t.Stats.Downvotes+downDelta)
	stats := t.Stats
	return &stats, nil
}

func (d *fakeDirectory) GetStats(_ context.Context, kind models.TargetKind, id int) (*Stats, error) {
	t, ok := d.targets[TargetRef{Kind: kind, ID: id}]
	if !ok {
		return nil, &NotFoundError{Kind: kind, ID: id}
	}
	stats := NewStats(t.Stats.Score, t.Stats.Upvotes, t.Stats.Downvotes)
	return &stats, nil
}

func (d *fakeDirectory) Exists(_ context.Context, kind models.TargetKind, id int) (bool, error) {
	_, ok := d.targets[TargetRef{Kind: kind, ID: id}]
	return ok, nil
}

type fakeMembers struct {
	members map[[2]int]bool // (communityID, userID)
}

func newFakeMembers() *fakeMembers {
	return &fakeMembers{members: make(map[[2]int]bool)}
}

func (m *fakeMembers) join(communityID, userID int) {
	m.members[[2]int{communityID, userID}] = true
}

func (m *fakeMembers) IsMember(_ context.Context, communityID, userID int) (bool, error) {
	return m.members[[2]int{communityID, userID}], nil
}

type fakeAccounts struct {
	created map[int]time.Time
}

func newFakeAccounts() *fakeAccounts {
	return &fakeAccounts{created: make(map[int]time.Time)}
}

func (a *fakeAccounts) AccountCreatedAt(_ context.Context, userID int) (*time.Time, error) {
	t, ok := a.created[userID]
	if !ok {
		return nil, nil
	}
	return &t, nil
}
