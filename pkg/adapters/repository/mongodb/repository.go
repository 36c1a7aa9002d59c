package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/x/mongo/driver/topology"

	"github.com/wadjakorntonsri/go-linkbio/pkg/core/domain"
	"github.com/wadjakorntonsri/go-linkbio/pkg/logger"
)

const (
	colUsers     = "users"
	colLinktrees = "linktrees"
	colABTests   = "abtests"
	colAnalytics = "analytics"
)

// MongoRepository owns the client and hands out one repository per
// collection.
type MongoRepository struct {
	client *mongo.Client
	db     *mongo.Database

	Linktrees *LinktreeRepository
	ABTests   *ABTestRepository
	Analytics *AnalyticsRepository
	Users     *UserRepository
}

// NewMongoRepository connects, pings and makes sure every index exists.
func NewMongoRepository(ctx context.Context, uri, dbName string) (*MongoRepository, error) {
	clientOptions := options.Client().ApplyURI(uri).
		SetMaxPoolSize(50).
		SetMinPoolSize(5).
		SetConnectTimeout(5 * time.Second).
		SetServerSelectionTimeout(5 * time.Second)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, translate(err)
	}

	db := client.Database(dbName)
	if err := ensureIndexes(ctx, db); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ensure indexes: %w", err)
	}

	logger.GetAppLogger().WithField("database", dbName).Info("Successfully connected to MongoDB")
	return &MongoRepository{
		client:    client,
		db:        db,
		Linktrees: &LinktreeRepository{col: db.Collection(colLinktrees)},
		ABTests:   &ABTestRepository{col: db.Collection(colABTests)},
		Analytics: &AnalyticsRepository{col: db.Collection(colAnalytics)},
		Users:     &UserRepository{col: db.Collection(colUsers)},
	}, nil
}

func indexModels() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colUsers: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		colLinktrees: {
			{Keys: bson.D{{Key: "slug", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		colABTests: {
			{Keys: bson.D{{Key: "userId", Value: 1}}},
			{Keys: bson.D{{Key: "linktreeId", Value: 1}}},
			{Keys: bson.D{{Key: "linkId", Value: 1}, {Key: "status", Value: 1}}},
		},
		colAnalytics: {
			{Keys: bson.D{{Key: "linktreeId", Value: 1}, {Key: "timestamp", Value: -1}}},
			{Keys: bson.D{{Key: "linkId", Value: 1}, {Key: "timestamp", Value: -1}}},
		},
	}
}

func ensureIndexes(ctx context.Context, db *mongo.Database) error {
	for col, models := range indexModels() {
		if _, err := db.Collection(col).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("%s: %w", col, err)
		}
	}
	return nil
}

func (r *MongoRepository) Ping(ctx context.Context) error {
	return translate(r.client.Ping(ctx, nil))
}

func (r *MongoRepository) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.client.Disconnect(ctx); err != nil {
		logger.GetAppLogger().WithError(err).Error("Failed to disconnect MongoDB client")
		return err
	}
	logger.GetAppLogger().Info("Successfully disconnected from MongoDB")
	return nil
}

// translate maps driver errors onto the domain error kinds. Failing to reach
// a server is unavailable (503); a query running past its deadline is a
// timeout (504).
func translate(err error) error {
	if err == nil {
		return nil
	}

	var sse topology.ServerSelectionError
	switch {
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("mongodb: %w", err)
	case mongo.IsDuplicateKeyError(err):
		return domain.Wrap(domain.KindConflict, "conflict", err)
	case errors.As(err, &sse), errors.Is(err, mongo.ErrClientDisconnected), mongo.IsNetworkError(err):
		return domain.Wrap(domain.KindUnavailable, "Database connection failed. Please try again later.", err)
	case mongo.IsTimeout(err), errors.Is(err, context.DeadlineExceeded):
		return domain.Wrap(domain.KindTimeout, "Request timed out. Please try again later.", err)
	default:
		return fmt.Errorf("mongodb: %w", err)
	}
}
