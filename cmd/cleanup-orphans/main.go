// Command cleanup-orphans deletes votes whose post or comment no longer
// exists. Run it periodically, e.g. from cron, or after bulk content
// deletions.
package main

import (
	"context"
	"log"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/openlexica/backend/internal/content"
	"github.com/openlexica/backend/internal/database"
	"github.com/openlexica/backend/internal/voting"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	db := database.New()
	defer db.Close()

	store := voting.NewGormStore(db.GetDB(), func(tx *gorm.DB) voting.ContentDirectory {
		return content.NewDirectory(tx)
	})
	directory := content.NewDirectory(db.GetDB())
	guard := voting.NewGuard(store, directory, content.NewMembers(db.GetDB()), content.NewAccounts(db.GetDB()), voting.DefaultGuardConfig())
	votes := voting.NewService(store, directory, guard, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	removed, err := votes.CleanupOrphanedVotes(ctx)
	if err != nil {
		logger.Fatal("cleanup failed", zap.Error(err), zap.Int64("removed_before_failure", removed))
	}

	logger.Info("cleanup finished", zap.Int64("removed_count", removed))
}
