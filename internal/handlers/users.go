package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/openlexica/backend/internal/models"
)

type UserHandler struct {
	db *gorm.DB
}

func NewUserHandler(db *gorm.DB) *UserHandler {
	return &UserHandler{db: db}
}

// GetUserProfile returns a user's profile
func (h *UserHandler) GetUserProfile(c *gin.Context) {
	userID := c.Param("id")
	var user models.User

	if err := h.db.First(&user, userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	// Get user's posts
	var posts []models.Post
	h.db.Where("author_id = ?", userID).Preload("User").Order("created_at desc").Find(&posts)

	// Communities the user belongs to
	var memberships []models.Membership
	h.db.Where("user_id = ?", userID).Find(&memberships)
	communityIDs := make([]int, 0, len(memberships))
	for _, m := range memberships {
		communityIDs = append(communityIDs, m.CommunityID)
	}

	c.JSON(http.StatusOK, gin.H{
		"user": gin.H{
			"id":        user.ID,
			"username":  user.Username,
			"email":     user.Email,
			"bio":       user.Bio,
			"avatar":    user.Avatar,
			"languages": user.Languages,
		},
		"posts":       posts,
		"communities": communityIDs,
	})
}

func (h *UserHandler) UpdateUserProfile(c *gin.Context) {
	userID := c.Param("id")

	// Get authenticated user ID from middleware
	authUserID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	// Check if user is updating their own profile
	if fmt.Sprintf("%v", authUserID) != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only update your own profile"})
		return
	}

	var input struct {
		Bio       string `json:"bio"`
		Avatar    string `json:"avatar"`
		Languages string `json:"languages"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	if err := h.db.First(&user, userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	if input.Bio != "" {
		user.Bio = input.Bio
	}
	if input.Avatar != "" {
		user.Avatar = input.Avatar
	}
	if input.Languages != "" {
		user.Languages = input.Languages
	}

	if err := h.db.Save(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":        user.ID,
		"username":  user.Username,
		"email":     user.Email,
		"bio":       user.Bio,
		"avatar":    user.Avatar,
		"languages": user.Languages,
	})
}
