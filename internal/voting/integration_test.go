package voting_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/openlexica/backend/internal/content"
	"github.com/openlexica/backend/internal/models"
	"github.com/openlexica/backend/internal/voting"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container-backed test in short mode")
	}

	ctx := context.Background()
	pg, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("openlexica_test"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pg.Terminate(ctx) })

	dsn, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Community{},
		&models.Membership{},
		&models.Post{},
		&models.Comment{},
		&models.Vote{},
	))
	return db
}

type world struct {
	db     *gorm.DB
	svc    *voting.Service
	store  *voting.GormStore
	voter  models.User
	author models.User
	comm   models.Community
	post   models.Post
}

func setupWorld(t *testing.T, cfg voting.GuardConfig) *world {
	t.Helper()
	db := setupTestDB(t)

	w := &world{db: db}
	w.voter = models.User{Username: "ana", Email: "ana@example.com", Password: "x"}
	w.author = models.User{Username: "bruno", Email: "bruno@example.com", Password: "x"}
	require.NoError(t, db.Create(&w.voter).Error)
	require.NoError(t, db.Create(&w.author).Error)

	w.comm = models.Community{Name: "spanish", Language: "es", CreatedBy: w.author.ID}
	require.NoError(t, db.Create(&w.comm).Error)
	require.NoError(t, db.Create(&models.Membership{CommunityID: w.comm.ID, UserID: w.voter.ID}).Error)
	require.NoError(t, db.Create(&models.Membership{CommunityID: w.comm.ID, UserID: w.author.ID}).Error)

	w.post = models.Post{Title: "sobremesa", AuthorID: w.author.ID, CommunityID: w.comm.ID, Status: models.StatusActive}
	require.NoError(t, db.Create(&w.post).Error)

	w.store = voting.NewGormStore(db, func(tx *gorm.DB) voting.ContentDirectory {
		return content.NewDirectory(tx)
	})
	directory := content.NewDirectory(db)
	guard := voting.NewGuard(w.store, directory, content.NewMembers(db), content.NewAccounts(db), cfg)
	w.svc = voting.NewService(w.store, directory, guard, zap.NewNop())
	return w
}

func noCooldown() voting.GuardConfig {
	cfg := voting.DefaultGuardConfig()
	cfg.Cooldown = 0
	return cfg
}

func TestIntegrationCastLifecycle(t *testing.T) {
	w := setupWorld(t, noCooldown())
	ctx := context.Background()

	// create
	result, err := w.svc.CastVote(ctx, w.voter.ID, models.TargetPost, w.post.ID, models.VoteUp, "")
	require.NoError(t, err)
	assert.Equal(t, 1, result.NewScore)
	assert.Equal(t, 1, result.Upvotes)

	// switch
	result, err = w.svc.CastVote(ctx, w.voter.ID, models.TargetPost, w.post.ID, models.VoteDown, "wrong definition")
	require.NoError(t, err)
	assert.Equal(t, -1, result.NewScore)
	assert.Equal(t, 0, result.Upvotes)
	assert.Equal(t, 1, result.Downvotes)

	vote, err := w.store.Get(ctx, w.voter.ID, models.TargetPost, w.post.ID)
	require.NoError(t, err)
	require.NotNil(t, vote)
	assert.Equal(t, "wrong definition", vote.Reason)

	// toggle off
	result, err = w.svc.CastVote(ctx, w.voter.ID, models.TargetPost, w.post.ID, models.VoteDown, "")
	require.NoError(t, err)
	assert.Equal(t, 0, result.NewScore)
	assert.Nil(t, result.UserVote)

	var post models.Post
	require.NoError(t, w.db.First(&post, w.post.ID).Error)
	assert.Equal(t, 0, post.Score)
	assert.Equal(t, 0, post.Upvotes)
	assert.Equal(t, 0, post.Downvotes)
}

// The unique index is the backstop for the one-vote-per-target
// invariant even when two rows are inserted directly.
func TestIntegrationUniquenessConstraint(t *testing.T) {
	w := setupWorld(t, noCooldown())
	ctx := context.Background()

	first := &models.Vote{VoterID: w.voter.ID, TargetKind: models.TargetPost, TargetID: w.post.ID, Direction: models.VoteUp, Weight: 1, CreatedAt: time.Now()}
	require.NoError(t, w.store.Put(ctx, first))

	dup := &models.Vote{VoterID: w.voter.ID, TargetKind: models.TargetPost, TargetID: w.post.ID, Direction: models.VoteDown, Weight: 1, CreatedAt: time.Now()}
	assert.Error(t, w.store.Put(ctx, dup))
}

// Concurrent casts on the same (voter, target) must serialize: the end
// state is a valid point of the state machine and the counters agree
// with the stored votes.
func TestIntegrationConcurrentCasts(t *testing.T) {
	w := setupWorld(t, noCooldown())
	ctx := context.Background()

	const casts = 8
	var wg sync.WaitGroup
	for i := 0; i < casts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := w.svc.CastVote(ctx, w.voter.ID, models.TargetPost, w.post.ID, models.VoteUp, "")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	var votes []models.Vote
	require.NoError(t, w.db.Where("voter_id = ? AND target_id = ?", w.voter.ID, w.post.ID).Find(&votes).Error)
	assert.LessOrEqual(t, len(votes), 1)

	var post models.Post
	require.NoError(t, w.db.First(&post, w.post.ID).Error)
	assert.Equal(t, post.Upvotes-post.Downvotes, post.Score)
	assert.Equal(t, len(votes), post.Upvotes)
	assert.Equal(t, 0, post.Downvotes)
	// an even number of up-casts toggles back to no vote
	assert.Equal(t, casts%2, len(votes))
}

func TestIntegrationConcurrentDeltasOnOneTarget(t *testing.T) {
	w := setupWorld(t, noCooldown())
	ctx := context.Background()

	// many voters hitting the same post at once must not lose increments
	const voters = 10
	ids := make([]int, voters)
	for i := 0; i < voters; i++ {
		u := models.User{Username: "voter" + string(rune('a'+i)), Email: string(rune('a'+i)) + "@example.com", Password: "x"}
		require.NoError(t, w.db.Create(&u).Error)
		require.NoError(t, w.db.Create(&models.Membership{CommunityID: w.comm.ID, UserID: u.ID}).Error)
		ids[i] = u.ID
	}

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(voterID int) {
			defer wg.Done()
			_, err := w.svc.CastVote(ctx, voterID, models.TargetPost, w.post.ID, models.VoteUp, "")
			assert.NoError(t, err)
		}(id)
	}
	wg.Wait()

	var post models.Post
	require.NoError(t, w.db.First(&post, w.post.ID).Error)
	assert.Equal(t, voters, post.Upvotes)
	assert.Equal(t, voters, post.Score)
}

func TestIntegrationCooldown(t *testing.T) {
	cfg := voting.DefaultGuardConfig()
	cfg.Cooldown = time.Hour
	w := setupWorld(t, cfg)
	ctx := context.Background()

	_, err := w.svc.CastVote(ctx, w.voter.ID, models.TargetPost, w.post.ID, models.VoteUp, "")
	require.NoError(t, err)

	comment := models.Comment{Body: "nice", AuthorID: w.author.ID, PostID: w.post.ID, Status: models.StatusActive}
	require.NoError(t, w.db.Create(&comment).Error)

	_, err = w.svc.CastVote(ctx, w.voter.ID, models.TargetComment, comment.ID, models.VoteUp, "")
	var perm *voting.PermissionError
	require.ErrorAs(t, err, &perm)
	assert.Equal(t, voting.ReasonCooldown, perm.Reason)
	assert.Greater(t, perm.RetryAfter, time.Duration(0))
}

func TestIntegrationCommentStatsAndDirectory(t *testing.T) {
	w := setupWorld(t, noCooldown())
	ctx := context.Background()

	comment := models.Comment{Body: "hola", AuthorID: w.author.ID, PostID: w.post.ID, Status: models.StatusActive}
	require.NoError(t, w.db.Create(&comment).Error)

	result, err := w.svc.CastVote(ctx, w.voter.ID, models.TargetComment, comment.ID, models.VoteDown, "off topic")
	require.NoError(t, err)
	assert.Equal(t, -1, result.NewScore)

	stats, err := w.svc.VoteStats(ctx, models.TargetComment, comment.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalVotes)
	assert.Equal(t, 0, stats.UpvotePercentage)
}

func TestIntegrationOrphanCleanup(t *testing.T) {
	w := setupWorld(t, noCooldown())
	ctx := context.Background()

	_, err := w.svc.CastVote(ctx, w.voter.ID, models.TargetPost, w.post.ID, models.VoteUp, "")
	require.NoError(t, err)

	// hard-delete the post from under its votes
	require.NoError(t, w.db.Delete(&models.Post{}, w.post.ID).Error)

	removed, err := w.svc.CleanupOrphanedVotes(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, removed, int64(1))

	vote, err := w.store.Get(ctx, w.voter.ID, models.TargetPost, w.post.ID)
	require.NoError(t, err)
	assert.Nil(t, vote)
}

type failingDeltaDirectory struct {
	voting.ContentDirectory
}

func (failingDeltaDirectory) ApplyScoreDelta(_ context.Context, kind models.TargetKind, id, _, _, _ int) (*voting.Stats, error) {
	return nil, &voting.NotFoundError{Kind: kind, ID: id}
}

// A failed counter delta must roll the vote write back with it.
func TestIntegrationDeltaFailureRollsBackVote(t *testing.T) {
	w := setupWorld(t, noCooldown())
	ctx := context.Background()

	store := voting.NewGormStore(w.db, func(tx *gorm.DB) voting.ContentDirectory {
		return failingDeltaDirectory{content.NewDirectory(tx)}
	})
	directory := content.NewDirectory(w.db)
	guard := voting.NewGuard(store, directory, content.NewMembers(w.db), content.NewAccounts(w.db), noCooldown())
	svc := voting.NewService(store, directory, guard, zap.NewNop())

	_, err := svc.CastVote(ctx, w.voter.ID, models.TargetPost, w.post.ID, models.VoteUp, "")
	var nf *voting.NotFoundError
	require.ErrorAs(t, err, &nf)

	vote, err := w.store.Get(ctx, w.voter.ID, models.TargetPost, w.post.ID)
	require.NoError(t, err)
	assert.Nil(t, vote)

	var post models.Post
	require.NoError(t, w.db.First(&post, w.post.ID).Error)
	assert.Equal(t, 0, post.Score)
}

func TestIntegrationControversialCandidatesSQL(t *testing.T) {
	w := setupWorld(t, noCooldown())
	ctx := context.Background()

	// seed raw votes from many voters on two posts
	other := models.Post{Title: "saudade", AuthorID: w.author.ID, CommunityID: w.comm.ID, Status: models.StatusActive}
	require.NoError(t, w.db.Create(&other).Error)

	seed := func(targetID, up, down int) {
		base := targetID * 10000
		for i := 0; i < up+down; i++ {
			dir := models.VoteUp
			if i >= up {
				dir = models.VoteDown
			}
			require.NoError(t, w.db.Create(&models.Vote{
				VoterID: base + i, TargetKind: models.TargetPost, TargetID: targetID,
				Direction: dir, Weight: 1, CreatedAt: time.Now(),
			}).Error)
		}
	}
	seed(w.post.ID, 6, 5)
	seed(other.ID, 6, 1) // below the downvote threshold

	candidates, err := w.store.ListControversialCandidates(ctx, models.TargetPost, 5, 5, 10)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, w.post.ID, candidates[0].TargetID)
	assert.Equal(t, 6, candidates[0].Upvotes)
	assert.Equal(t, 5, candidates[0].Downvotes)
}
