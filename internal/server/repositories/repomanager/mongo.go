package repomanager

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/rentals/internal/server/repositories/listings"
	"github.com/dmitrijs2005/rentals/internal/server/repositories/users"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoRepositoryManager vends MongoDB-backed repositories. Its migrations
// are the collection indexes.
type MongoRepositoryManager struct {
	client   *mongo.Client
	users    *users.MongoRepository
	listings *listings.MongoRepository
}

// NewMongoRepositoryManager connects to uri and binds the repositories to
// database.
func NewMongoRepositoryManager(ctx context.Context, uri, database string) (*MongoRepositoryManager, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect error: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo ping error: %w", err)
	}

	db := client.Database(database)
	return &MongoRepositoryManager{
		client:   client,
		users:    users.NewMongoRepository(db),
		listings: listings.NewMongoRepository(db),
	}, nil
}

func (m *MongoRepositoryManager) Users() users.Repository {
	return m.users
}

func (m *MongoRepositoryManager) Listings() listings.Repository {
	return m.listings
}

func (m *MongoRepositoryManager) RunMigrations(ctx context.Context) error {
	if err := m.users.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("users indexes: %w", err)
	}
	if err := m.listings.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("listings indexes: %w", err)
	}
	return nil
}

func (m *MongoRepositoryManager) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}
