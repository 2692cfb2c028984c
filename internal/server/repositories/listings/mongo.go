package listings

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/dmitrijs2005/rentals/internal/common"
	"github.com/dmitrijs2005/rentals/internal/server/models"
	"github.com/dmitrijs2005/rentals/internal/server/search"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CollectionName is the MongoDB collection holding listing documents.
const CollectionName = "listings"

// MongoRepository implements Repository over a MongoDB collection.
type MongoRepository struct {
	coll *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{coll: db.Collection(CollectionName)}
}

// EnsureIndexes creates the indexes used by category browsing and ordering.
func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "category", Value: 1}}},
		{Keys: bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("mongo error: %w", err)
	}
	return nil
}

// criteriaFilter translates c into a MongoDB query document.
func criteriaFilter(c search.Criteria) bson.M {
	switch c.Kind() {
	case search.KindCategory:
		return bson.M{"category": c.Value()}
	case search.KindTerm:
		re := primitive.Regex{Pattern: regexp.QuoteMeta(c.Value()), Options: "i"}
		or := make(bson.A, 0, len(search.TermFields))
		for _, f := range search.TermFields {
			or = append(or, bson.M{f: re})
		}
		return bson.M{"$or": or}
	default:
		return bson.M{}
	}
}

func (r *MongoRepository) Create(ctx context.Context, l *models.Listing) (*models.Listing, error) {
	doc := l.Clone()
	normalize(doc)

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, common.ErrorConflict
		}
		return nil, fmt.Errorf("mongo error: %w", err)
	}
	return l, nil
}

func (r *MongoRepository) GetByID(ctx context.Context, id string) (*models.Listing, error) {
	l := &models.Listing{}
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(l); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("mongo error: %w", err)
	}
	normalize(l)
	return l, nil
}

func (r *MongoRepository) Find(ctx context.Context, c search.Criteria) ([]*models.Listing, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})

	cur, err := r.coll.Find(ctx, criteriaFilter(c), opts)
	if err != nil {
		return nil, fmt.Errorf("mongo error: %w", err)
	}
	defer cur.Close(ctx)

	result := []*models.Listing{}
	for cur.Next(ctx) {
		l := &models.Listing{}
		if err := cur.Decode(l); err != nil {
			return nil, fmt.Errorf("mongo error: %w", err)
		}
		normalize(l)
		result = append(result, l)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("mongo error: %w", err)
	}

	return result, nil
}

// maxUpdateAttempts bounds the conditional replaces tried by Update. The
// final attempt replaces by _id alone, so the latest writer wins.
const maxUpdateAttempts = 3

// Update re-reads and re-applies mutate whenever another writer replaced the
// document between the read and the replace.
func (r *MongoRepository) Update(ctx context.Context, id string, mutate MutateFunc) (*models.Listing, error) {
	for attempt := 1; ; attempt++ {
		current, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}

		l := current.Clone()
		if err := mutate(l); err != nil {
			return nil, err
		}
		l.ID = current.ID
		l.CreatorID = current.CreatorID

		doc := l.Clone()
		normalize(doc)

		filter := bson.M{"_id": id, "updatedAt": current.UpdatedAt}
		last := attempt >= maxUpdateAttempts
		if last {
			filter = bson.M{"_id": id}
		}

		res, err := r.coll.ReplaceOne(ctx, filter, doc)
		if err != nil {
			return nil, fmt.Errorf("mongo error: %w", err)
		}
		if res.MatchedCount > 0 {
			return l, nil
		}
		if last {
			return nil, common.ErrorNotFound
		}
	}
}

func (r *MongoRepository) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("mongo error: %w", err)
	}
	if res.DeletedCount == 0 {
		return common.ErrorNotFound
	}
	return nil
}

// normalize keeps list fields non-nil so they encode as arrays.
func normalize(l *models.Listing) {
	if l.Amenities == nil {
		l.Amenities = []string{}
	}
	if l.PhotoPaths == nil {
		l.PhotoPaths = []string{}
	}
}
