package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/openlexica/backend/internal/models"
)

type PostHandler struct {
	db *gorm.DB
}

func NewPostHandler(db *gorm.DB) *PostHandler {
	return &PostHandler{db: db}
}

// GetPosts returns active posts, newest first
func (h *PostHandler) GetPosts(c *gin.Context) {
	var posts []models.Post

	query := h.db.Preload("User").Where("status = ?", models.StatusActive).Order("created_at desc")
	if communityID := c.Query("community_id"); communityID != "" {
		query = query.Where("community_id = ?", communityID)
	}

	if err := query.Find(&posts).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch posts"})
		return
	}

	// If no posts, return empty array not null
	if posts == nil {
		posts = []models.Post{}
	}

	c.JSON(http.StatusOK, posts)
}

// GetPost returns a single post by ID
func (h *PostHandler) GetPost(c *gin.Context) {
	postID := c.Param("id")
	var post models.Post

	if err := h.db.Preload("User").First(&post, postID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	}

	c.JSON(http.StatusOK, post)
}

// CreatePost creates a new post (PROTECTED - requires authentication)
func (h *PostHandler) CreatePost(c *gin.Context) {
	var input struct {
		Title       string `json:"title" binding:"required"`
		Body        string `json:"body"`
		Language    string `json:"language"`
		CommunityID int    `json:"community_id" binding:"required"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Title and community are required"})
		return
	}

	authorID, ok := extractUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var community models.Community
	if err := h.db.First(&community, input.CommunityID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Community not found"})
		return
	}

	post := models.Post{
		Title:       input.Title,
		Body:        input.Body,
		Language:    input.Language,
		AuthorID:    authorID,
		CommunityID: community.ID,
		Status:      models.StatusActive,
	}

	if err := h.db.Create(&post).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create post"})
		return
	}

	// Reload with user information
	h.db.Preload("User").First(&post, post.ID)

	c.JSON(http.StatusCreated, post)
}

// UpdatePost updates an existing post (PROTECTED - requires ownership)
func (h *PostHandler) UpdatePost(c *gin.Context) {
	postID := c.Param("id")

	authorID, ok := extractUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var input struct {
		Title    string `json:"title"`
		Body     string `json:"body"`
		Language string `json:"language"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var post models.Post
	if err := h.db.First(&post, postID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	}

	if post.AuthorID != authorID {
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only edit your own posts"})
		return
	}

	if input.Title != "" {
		post.Title = input.Title
	}
	if input.Body != "" {
		post.Body = input.Body
	}
	if input.Language != "" {
		post.Language = input.Language
	}

	h.db.Save(&post)
	h.db.Preload("User").First(&post, post.ID)

	c.JSON(http.StatusOK, post)
}

// DeletePost deletes a post (PROTECTED - requires ownership). Votes on
// the post are reclaimed by the orphan cleanup sweep.
func (h *PostHandler) DeletePost(c *gin.Context) {
	postID := c.Param("id")

	authorID, ok := extractUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var post models.Post
	if err := h.db.First(&post, postID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	}

	if post.AuthorID != authorID {
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only delete your own posts"})
		return
	}

	if err := h.db.Delete(&post).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete post"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Post deleted successfully"})
}

// GetUserPosts returns all posts by a specific user
func (h *PostHandler) GetUserPosts(c *gin.Context) {
	userID := c.Param("id")
	var posts []models.Post

	if err := h.db.Preload("User").Where("author_id = ?", userID).Order("created_at desc").Find(&posts).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch user posts"})
		return
	}

	if posts == nil {
		posts = []models.Post{}
	}

	c.JSON(http.StatusOK, posts)
}
