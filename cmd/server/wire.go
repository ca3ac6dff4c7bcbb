// File: cmd/server/wire.go
//go:build wireinject
// +build wireinject

package main

import (
	"tradepost_backend/internal/app"
	"tradepost_backend/internal/bid"
	"tradepost_backend/internal/config"
	"tradepost_backend/internal/conversation"
	"tradepost_backend/internal/favorite"
	"tradepost_backend/internal/firebase"
	"tradepost_backend/internal/jobs"
	"tradepost_backend/internal/listing"
	"tradepost_backend/internal/notification"
	"tradepost_backend/internal/platform/database"
	"tradepost_backend/internal/platform/logger"
	platformredis "tradepost_backend/internal/platform/redis"
	"tradepost_backend/internal/ratelimit"
	"tradepost_backend/internal/user"

	"github.com/google/wire"
)

// initializeServer is the main Wire injector.
func initializeServer(cfg *config.Config) (*app.Server, func(), error) {
	wire.Build(
		// Platform layer
		logger.New,
		database.NewGORM,
		platformredis.NewClient,
		firebase.NewService,
		ratelimit.NewRedisLimiter,

		// Users
		user.NewGORMRepository,
		user.NewService,
		wire.Bind(new(user.Service), new(*user.ServiceImplementation)),
		user.NewHandler,

		// Notifications
		notification.NewGORMRepository,
		notification.NewService,
		notification.NewHandler,

		// Listings
		listing.NewGORMRepository,
		listing.NewService,
		listing.NewHandler,

		// Bid engine
		bid.NewGORMTxManager,
		bid.NewGORMRepository,
		bid.NewService,
		bid.NewHandler,

		// Conversations
		conversation.NewGORMRepository,
		conversation.NewService,
		conversation.NewHandler,

		// Favorites
		favorite.NewGORMRepository,
		favorite.NewService,
		favorite.NewHandler,

		// Jobs
		jobs.NewListingExpiryJob,

		// Application layer
		app.NewServer,
	)
	return nil, nil, nil
}
