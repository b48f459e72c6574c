package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/openlexica/backend/internal/models"
	"github.com/openlexica/backend/internal/voting"
)

type VoteHandler struct {
	votes *voting.Service
}

func NewVoteHandler(votes *voting.Service) *VoteHandler {
	return &VoteHandler{votes: votes}
}

// castVote is the shared cast path behind the post and comment routes.
func (h *VoteHandler) castVote(c *gin.Context, kind models.TargetKind, param string) {
	voterID, ok := extractUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	targetID, err := strconv.Atoi(c.Param(param))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid target id"})
		return
	}

	var input struct {
		Direction string `json:"direction" binding:"required,oneof=up down"`
		Reason    string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Direction must be up or down"})
		return
	}

	result, err := h.votes.CastVote(c.Request.Context(), voterID, kind, targetID, models.VoteDirection(input.Direction), input.Reason)
	if err != nil {
		h.renderVoteError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *VoteHandler) renderVoteError(c *gin.Context, err error) {
	var validationErr *voting.ValidationError
	var permissionErr *voting.PermissionError
	var notFoundErr *voting.NotFoundError

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Error()})
	case errors.As(err, &permissionErr):
		resp := gin.H{"error": permissionErr.Reason}
		if permissionErr.RetryAfter > 0 {
			resp["retry_after_seconds"] = int(permissionErr.RetryAfter.Seconds())
		}
		c.JSON(http.StatusForbidden, resp)
	case errors.As(err, &notFoundErr):
		c.JSON(http.StatusNotFound, gin.H{"error": notFoundErr.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to vote"})
	}
}

// VotePost casts an up/down vote on a post
func (h *VoteHandler) VotePost(c *gin.Context) {
	h.castVote(c, models.TargetPost, "id")
}

// VoteComment casts an up/down vote on a comment
func (h *VoteHandler) VoteComment(c *gin.Context) {
	h.castVote(c, models.TargetComment, "commentId")
}

func (h *VoteHandler) voteStats(c *gin.Context, kind models.TargetKind, param string) {
	targetID, err := strconv.Atoi(c.Param(param))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid target id"})
		return
	}

	stats, err := h.votes.VoteStats(c.Request.Context(), kind, targetID)
	if err != nil {
		h.renderVoteError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// PostVoteStats returns a post's counters and upvote percentage
func (h *VoteHandler) PostVoteStats(c *gin.Context) {
	h.voteStats(c, models.TargetPost, "id")
}

// CommentVoteStats returns a comment's counters and upvote percentage
func (h *VoteHandler) CommentVoteStats(c *gin.Context) {
	h.voteStats(c, models.TargetComment, "commentId")
}

// MyVotes returns the caller's current vote on each requested target,
// so the frontend can highlight vote buttons in one round trip.
func (h *VoteHandler) MyVotes(c *gin.Context) {
	voterID, ok := extractUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var input struct {
		Targets []voting.TargetRef `json:"targets" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	for _, t := range input.Targets {
		if _, err := models.ParseTargetKind(string(t.Kind)); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	votes, err := h.votes.UserVotes(c.Request.Context(), voterID, input.Targets)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch votes"})
		return
	}

	// one entry per requested target, direction null when not voted
	results := make([]gin.H, 0, len(input.Targets))
	for _, t := range input.Targets {
		entry := gin.H{"kind": t.Kind, "id": t.ID, "direction": nil}
		if dir, ok := votes[t]; ok {
			entry["direction"] = dir
		}
		results = append(results, entry)
	}

	c.JSON(http.StatusOK, gin.H{"votes": results})
}

// Controversial lists a community's most evenly contested posts and comments
func (h *VoteHandler) Controversial(c *gin.Context) {
	communityID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid community id"})
		return
	}

	limit := 10
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	items, err := h.votes.ControversialContent(c.Request.Context(), communityID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to rank content"})
		return
	}
	if items == nil {
		items = []voting.RankedItem{}
	}

	c.JSON(http.StatusOK, items)
}

// CleanupOrphanedVotes sweeps votes whose target no longer exists
func (h *VoteHandler) CleanupOrphanedVotes(c *gin.Context) {
	removed, err := h.votes.CleanupOrphanedVotes(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Cleanup failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"removed_count": removed})
}
