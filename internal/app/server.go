// File: internal/app/server.go
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"tradepost_backend/internal/bid"
	"tradepost_backend/internal/config"
	"tradepost_backend/internal/conversation"
	"tradepost_backend/internal/favorite"
	"tradepost_backend/internal/firebase"
	"tradepost_backend/internal/jobs"
	"tradepost_backend/internal/listing"
	"tradepost_backend/internal/middleware"
	"tradepost_backend/internal/notification"
	"tradepost_backend/internal/ratelimit"
	"tradepost_backend/internal/user"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Server holds the dependencies for the HTTP server.
type Server struct {
	httpServer *http.Server
	router     *gin.Engine
	cfg        *config.Config
	logger     *zap.Logger

	listingExpiryJob *jobs.ListingExpiryJob
}

// NewServer wires the router, middleware and routes together.
func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	userHandler *user.Handler,
	listingHandler *listing.Handler,
	bidHandler *bid.Handler,
	conversationHandler *conversation.Handler,
	notificationHandler *notification.Handler,
	favoriteHandler *favorite.Handler,
	listingExpiryJob *jobs.ListingExpiryJob,
	firebaseService *firebase.Service,
	userService user.Service,
	limiter ratelimit.Limiter,
) (*Server, error) {
	gin.SetMode(cfg.GinMode)
	router := gin.New()

	router.Use(middleware.ZapLogger(logger, cfg))
	router.Use(middleware.ErrorHandler(logger))
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader}
	corsConfig.ExposeHeaders = []string{"Content-Length", middleware.RequestIDHeader}
	router.Use(cors.New(corsConfig))

	authMW := middleware.AuthMiddleware(firebaseService, userService, logger.Named("AuthMiddleware"))
	bidLimiterMW := middleware.RateLimit(limiter, "place_bid")
	listingLimiterMW := middleware.RateLimit(limiter, "create_listing")

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "UP", "message": "Tradepost API is healthy!"})
	})

	v1 := router.Group("/api/v1")
	userHandler.RegisterRoutes(v1, authMW)
	listingHandler.RegisterRoutes(v1, authMW, listingLimiterMW)
	bidHandler.RegisterRoutes(v1, authMW, bidLimiterMW)
	conversationHandler.RegisterRoutes(v1, authMW)
	notificationHandler.RegisterRoutes(v1, authMW)
	favoriteHandler.RegisterRoutes(v1, authMW)

	addr := fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return &Server{
		httpServer:       httpServer,
		router:           router,
		cfg:              cfg,
		logger:           logger,
		listingExpiryJob: listingExpiryJob,
	}, nil
}

// Start launches the expiry job and the HTTP listener. It blocks until
// the listener stops.
func (s *Server) Start() error {
	if s.listingExpiryJob != nil {
		if err := s.listingExpiryJob.SetupAndStart(); err != nil {
			s.logger.Error("Failed to setup and start listing expiry job", zap.Error(err))
		}
	}

	s.logger.Info("HTTP Server starting",
		zap.String("address", s.httpServer.Addr),
		zap.String("gin_mode", s.cfg.GinMode),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		s.logger.Error("Failed to start HTTP server", zap.Error(err))
		return err
	}
	s.logger.Info("HTTP Server stopped")
	return nil
}

// Shutdown stops the expiry job and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Attempting graceful server shutdown...")
	if s.listingExpiryJob != nil {
		s.listingExpiryJob.Stop()
	}
	return s.httpServer.Shutdown(ctx)
}
