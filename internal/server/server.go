package server

import (
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/openlexica/backend/internal/database"
	"github.com/openlexica/backend/internal/handlers"
	"github.com/openlexica/backend/internal/middleware"
	"github.com/openlexica/backend/internal/voting"
)

type Server struct {
	db      database.Service
	handler *handlers.Handler
	logger  *zap.Logger
}

// NewServer creates and configures a new server
func NewServer() *http.Server {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	// Initialize database
	db := database.New()

	// Create unified handler
	handler := handlers.NewHandler(db.GetDB(), guardConfigFromEnv(), logger)

	// Create server instance
	newServer := &Server{
		db:      db,
		handler: handler,
		logger:  logger,
	}

	// Configure Gin router
	router := newServer.RegisterRoutes()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080" // local dev fallback
	}

	// Create HTTP server
	server := &http.Server{
		Addr:         "0.0.0.0:" + port,
		Handler:      router,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	logger.Info("server starting", zap.String("port", port))

	return server
}

// guardConfigFromEnv reads the anti-abuse knobs, falling back to the
// production defaults (60s cooldown, 100 votes/day, no age rule).
func guardConfigFromEnv() voting.GuardConfig {
	cfg := voting.DefaultGuardConfig()
	if v := envInt("VOTE_COOLDOWN_SECONDS"); v != nil {
		cfg.Cooldown = time.Duration(*v) * time.Second
	}
	if v := envInt("VOTE_DAILY_LIMIT"); v != nil {
		cfg.DailyLimit = *v
	}
	if v := envInt("VOTE_MIN_ACCOUNT_AGE_HOURS"); v != nil {
		cfg.MinAccountAge = time.Duration(*v) * time.Hour
	}
	return cfg
}

func envInt(key string) *int {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("ignoring invalid %s=%q", key, raw)
		return nil
	}
	return &v
}

// RegisterRoutes sets up all application routes
func (s *Server) RegisterRoutes() *gin.Engine {
	r := gin.Default()

	// CORS configuration
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * 3600,
	}))

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, s.db.Health())
	})

	// API routes
	api := r.Group("/api")
	{
		// Auth routes (public)
		api.POST("/register", s.handler.Auth.Register)
		api.POST("/login", s.handler.Auth.Login)

		// Post routes (public reads)
		api.GET("/posts", s.handler.Post.GetPosts)
		api.GET("/posts/:id", s.handler.Post.GetPost)
		api.GET("/posts/:id/votes", s.handler.Vote.PostVoteStats)

		// Comment routes (public reads)
		api.GET("/posts/:id/comments", s.handler.Comment.GetComments)
		api.GET("/comments/:commentId/votes", s.handler.Vote.CommentVoteStats)

		// Community routes (public reads)
		api.GET("/communities", s.handler.Community.GetCommunities)
		api.GET("/communities/:id", s.handler.Community.GetCommunity)
		api.GET("/communities/:id/members", s.handler.Community.GetMembers)
		api.GET("/communities/:id/controversial", s.handler.Vote.Controversial)

		// User routes (public reads)
		api.GET("/users/:id", s.handler.User.GetUserProfile)
		api.GET("/users/:id/posts", s.handler.Post.GetUserPosts)

		// Protected routes (authentication required)
		protected := api.Group("")
		protected.Use(middleware.AuthMiddleware())
		{
			// Auth protected routes
			protected.GET("/me", s.handler.Auth.GetMe)

			// Post protected routes
			protected.POST("/posts", s.handler.Post.CreatePost)
			protected.PUT("/posts/:id", s.handler.Post.UpdatePost)
			protected.DELETE("/posts/:id", s.handler.Post.DeletePost)
			protected.POST("/posts/:id/vote", s.handler.Vote.VotePost)

			// Comment protected routes
			protected.POST("/posts/:id/comments", s.handler.Comment.CreateComment)
			protected.PUT("/comments/:commentId", s.handler.Comment.UpdateComment)
			protected.DELETE("/comments/:commentId", s.handler.Comment.DeleteComment)
			protected.POST("/comments/:commentId/vote", s.handler.Vote.VoteComment)

			// Vote lookups and maintenance
			protected.POST("/votes/mine", s.handler.Vote.MyVotes)
			protected.POST("/admin/votes/cleanup", s.handler.Vote.CleanupOrphanedVotes)

			// Community protected routes
			protected.POST("/communities", s.handler.Community.CreateCommunity)
			protected.POST("/communities/:id/join", s.handler.Community.JoinCommunity)
			protected.DELETE("/communities/:id/join", s.handler.Community.LeaveCommunity)

			// User protected routes
			protected.PUT("/users/:id", s.handler.User.UpdateUserProfile)
		}
	}

	return r
}
