package di

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"proximity-service/cmd/api/infrastructure"
	"proximity-service/internal/adapter/db/mongodb"
	ginhandler "proximity-service/internal/adapter/gin/handler"
	"proximity-service/internal/config"
	"proximity-service/internal/usecase/user"
)

// Container holds all application dependencies
type Container struct {
	Config      *config.Config
	Logger      *zap.Logger
	MongoClient *mongo.Client
	UserRepo    *mongodb.UserRepoMongo
	Sequence    *mongodb.SequenceMongo
	UserUC      user.Usecase
	GinHandler  *ginhandler.UserHandler
}

// NewContainer creates and initializes all application dependencies
func NewContainer(cfg *config.Config, l *zap.Logger) (*Container, error) {
	// Validate configuration before initializing any dependencies
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	client, err := infrastructure.NewMongoClient(cfg, l)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize MongoDB: %w", err)
	}
	db := client.Database(cfg.Mongo.Database)

	repo := mongodb.NewUserRepoMongo(db, l)
	seq := mongodb.NewSequenceMongo(db, l)

	// The near query fails without the 2dsphere index; create it up front.
	if err := repo.EnsureGeoIndex(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ensure geo index: %w", err)
	}

	userUC := user.New(repo, seq, user.Config{
		DefaultRadiusMeters: cfg.Near.RadiusMeters,
		AllowCustomRadius:   cfg.Near.AllowCustomRadius,
	}, l)

	seedCenters, err := cfg.Seed.ParseCenters()
	if err != nil {
		return nil, fmt.Errorf("failed to parse seed centers: %w", err)
	}
	ginHandler := ginhandler.NewUserHandler(userUC, cfg.Seed.Count, seedCenters, l)

	return &Container{
		Config:      cfg,
		Logger:      l,
		MongoClient: client,
		UserRepo:    repo,
		Sequence:    seq,
		UserUC:      userUC,
		GinHandler:  ginHandler,
	}, nil
}

// Close closes all resources held by the container
func (c *Container) Close() error {
	if c.MongoClient != nil {
		if err := infrastructure.CloseMongoClient(c.MongoClient); err != nil {
			return fmt.Errorf("failed to close MongoDB: %w", err)
		}
	}
	return nil
}
