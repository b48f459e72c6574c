package handlers

import (
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/openlexica/backend/internal/content"
	"github.com/openlexica/backend/internal/voting"
)

// Handler combines all handler types
type Handler struct {
	Auth      *AuthHandler
	Post      *PostHandler
	Comment   *CommentHandler
	Community *CommunityHandler
	User      *UserHandler
	Vote      *VoteHandler
}

// NewHandler creates a unified handler with all sub-handlers. The
// voting core is assembled here: GORM store and directories behind the
// interfaces, guard in front of the cast pipeline.
func NewHandler(db *gorm.DB, guardCfg voting.GuardConfig, log *zap.Logger) *Handler {
	store := voting.NewGormStore(db, func(tx *gorm.DB) voting.ContentDirectory {
		return content.NewDirectory(tx)
	})
	directory := content.NewDirectory(db)
	members := content.NewMembers(db)
	accounts := content.NewAccounts(db)

	guard := voting.NewGuard(store, directory, members, accounts, guardCfg)
	votes := voting.NewService(store, directory, guard, log)

	return &Handler{
		Auth:      NewAuthHandler(db),
		Post:      NewPostHandler(db),
		Comment:   NewCommentHandler(db),
		Community: NewCommunityHandler(db),
		User:      NewUserHandler(db),
		Vote:      NewVoteHandler(votes),
	}
}
