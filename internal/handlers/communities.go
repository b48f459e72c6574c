package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/openlexica/backend/internal/models"
)

type CommunityHandler struct {
	db *gorm.DB
}

func NewCommunityHandler(db *gorm.DB) *CommunityHandler {
	return &CommunityHandler{db: db}
}

// GetCommunities returns all communities
func (h *CommunityHandler) GetCommunities(c *gin.Context) {
	var communities []models.Community

	if err := h.db.Order("name").Find(&communities).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch communities"})
		return
	}

	if communities == nil {
		communities = []models.Community{}
	}

	c.JSON(http.StatusOK, communities)
}

// GetCommunity returns one community with its member count
func (h *CommunityHandler) GetCommunity(c *gin.Context) {
	communityID := c.Param("id")
	var community models.Community

	if err := h.db.First(&community, communityID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Community not found"})
		return
	}

	var memberCount int64
	h.db.Model(&models.Membership{}).Where("community_id = ?", community.ID).Count(&memberCount)

	c.JSON(http.StatusOK, gin.H{
		"id":           community.ID,
		"name":         community.Name,
		"language":     community.Language,
		"description":  community.Description,
		"created_by":   community.CreatedBy,
		"member_count": memberCount,
		"created_at":   community.CreatedAt,
	})
}

// CreateCommunity creates a community; the creator joins automatically
func (h *CommunityHandler) CreateCommunity(c *gin.Context) {
	var input struct {
		Name        string `json:"name" binding:"required"`
		Language    string `json:"language"`
		Description string `json:"description"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Name is required"})
		return
	}

	userID, ok := extractUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	community := models.Community{
		Name:        input.Name,
		Language:    input.Language,
		Description: input.Description,
		CreatedBy:   userID,
	}

	if err := h.db.Create(&community).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Community name already exists"})
		return
	}

	h.db.Create(&models.Membership{CommunityID: community.ID, UserID: userID})

	c.JSON(http.StatusCreated, community)
}

// JoinCommunity adds the caller as a member
func (h *CommunityHandler) JoinCommunity(c *gin.Context) {
	communityID := c.Param("id")
	userID, ok := extractUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var community models.Community
	if err := h.db.First(&community, communityID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Community not found"})
		return
	}

	// Check if already a member
	var existing models.Membership
	err := h.db.Where("community_id = ? AND user_id = ?", community.ID, userID).First(&existing).Error
	if err == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Already a member of this community"})
		return
	}

	membership := models.Membership{
		CommunityID: community.ID,
		UserID:      userID,
	}

	if err := h.db.Create(&membership).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to join community"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Successfully joined community"})
}

// LeaveCommunity removes the caller's membership
func (h *CommunityHandler) LeaveCommunity(c *gin.Context) {
	communityID := c.Param("id")
	userID, ok := extractUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	if err := h.db.Where("community_id = ? AND user_id = ?", communityID, userID).Delete(&models.Membership{}).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to leave community"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Successfully left community"})
}

// GetMembers returns a community's members
func (h *CommunityHandler) GetMembers(c *gin.Context) {
	communityID := c.Param("id")
	var memberships []models.Membership

	h.db.Where("community_id = ?", communityID).Preload("User").Find(&memberships)

	var members []gin.H
	for _, m := range memberships {
		members = append(members, gin.H{
			"id":       m.User.ID,
			"username": m.User.Username,
			"avatar":   m.User.Avatar,
		})
	}
	if members == nil {
		members = []gin.H{}
	}

	c.JSON(http.StatusOK, members)
}
