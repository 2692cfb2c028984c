package listings

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/rentals/internal/common"
	"github.com/dmitrijs2005/rentals/internal/server/models"
	"github.com/dmitrijs2005/rentals/internal/server/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/event"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

const testNS = "rentals.listings"

var (
	t0 = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	t1 = t0.Add(time.Minute)
	t2 = t0.Add(2 * time.Minute)
)

func newMock(t *testing.T) *mtest.T {
	return mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
}

func listingDoc(id string, updated time.Time) bson.D {
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "creator", Value: "u1"},
		{Key: "category", Value: "Cabin"},
		{Key: "title", Value: "Lakeside"},
		{Key: "createdAt", Value: primitive.NewDateTimeFromTime(t0)},
		{Key: "updatedAt", Value: primitive.NewDateTimeFromTime(updated)},
	}
}

func found(docs ...bson.D) bson.D {
	return mtest.CreateCursorResponse(0, testNS, mtest.FirstBatch, docs...)
}

func replaced(n int) bson.D {
	return mtest.CreateSuccessResponse(bson.E{Key: "n", Value: n}, bson.E{Key: "nModified", Value: n})
}

func startedCommands(mt *mtest.T, name string) []*event.CommandStartedEvent {
	var out []*event.CommandStartedEvent
	for _, e := range mt.GetAllStartedEvents() {
		if e.CommandName == name {
			out = append(out, e)
		}
	}
	return out
}

// updateFilter returns the q document of the first statement of an update command.
func updateFilter(mt *mtest.T, e *event.CommandStartedEvent) bson.M {
	mt.Helper()
	var q bson.M
	require.NoError(mt, e.Command.Lookup("updates", "0", "q").Unmarshal(&q))
	return q
}

func setTitle(title string) MutateFunc {
	return func(l *models.Listing) error {
		l.Title = title
		l.ID = "hijacked"
		l.CreatorID = "hijacked"
		return nil
	}
}

func TestCriteriaFilter(t *testing.T) {
	assert.Equal(t, bson.M{}, criteriaFilter(search.All()))
	assert.Equal(t, bson.M{"category": "Cabin"}, criteriaFilter(search.ByCategory("Cabin")))
	assert.Equal(t, bson.M{}, criteriaFilter(search.ByTerm("all")))
}

func TestCriteriaFilter_TermQuotesRegex(t *testing.T) {
	f := criteriaFilter(search.ByTerm("a.b(c"))

	or, ok := f["$or"].(bson.A)
	require.True(t, ok)
	require.Len(t, or, len(search.TermFields))

	for i, field := range search.TermFields {
		clause := or[i].(bson.M)
		re, ok := clause[field].(primitive.Regex)
		require.True(t, ok, field)
		assert.Equal(t, `a\.b\(c`, re.Pattern)
		assert.Equal(t, "i", re.Options)
	}
}

func TestMongoRepository_Create(t *testing.T) {
	mt := newMock(t)

	mt.Run("ok", func(mt *mtest.T) {
		r := &MongoRepository{coll: mt.Coll}
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		l, err := r.Create(context.Background(), &models.Listing{ID: "l1", CreatorID: "u1"})
		require.NoError(mt, err)
		assert.Equal(mt, "l1", l.ID)

		ins := startedCommands(mt, "insert")
		require.Len(mt, ins, 1)
		assert.Equal(mt, "l1", ins[0].Command.Lookup("documents", "0", "_id").StringValue())
		assert.Equal(mt, bson.TypeArray, ins[0].Command.Lookup("documents", "0", "amenities").Type)
	})

	mt.Run("duplicate id", func(mt *mtest.T) {
		r := &MongoRepository{coll: mt.Coll}
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{Code: 11000, Message: "E11000 duplicate key"}))

		_, err := r.Create(context.Background(), &models.Listing{ID: "l1"})
		require.ErrorIs(mt, err, common.ErrorConflict)
	})

	mt.Run("other write error", func(mt *mtest.T) {
		r := &MongoRepository{coll: mt.Coll}
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{Code: 121, Message: "validation failed"}))

		_, err := r.Create(context.Background(), &models.Listing{ID: "l1"})
		require.Error(mt, err)
		assert.False(mt, errors.Is(err, common.ErrorConflict))
	})
}

func TestMongoRepository_GetByID(t *testing.T) {
	mt := newMock(t)

	mt.Run("found", func(mt *mtest.T) {
		r := &MongoRepository{coll: mt.Coll}
		mt.AddMockResponses(found(listingDoc("l1", t1)))

		l, err := r.GetByID(context.Background(), "l1")
		require.NoError(mt, err)
		assert.Equal(mt, "l1", l.ID)
		assert.Equal(mt, "u1", l.CreatorID)
		assert.Equal(mt, "Lakeside", l.Title)
		assert.True(mt, l.UpdatedAt.Equal(t1))
		assert.NotNil(mt, l.Amenities)
		assert.NotNil(mt, l.PhotoPaths)
	})

	mt.Run("missing", func(mt *mtest.T) {
		r := &MongoRepository{coll: mt.Coll}
		mt.AddMockResponses(found())

		_, err := r.GetByID(context.Background(), "nope")
		require.ErrorIs(mt, err, common.ErrorNotFound)
	})

	mt.Run("command error", func(mt *mtest.T) {
		r := &MongoRepository{coll: mt.Coll}
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 13, Message: "unauthorized", Name: "Unauthorized"}))

		_, err := r.GetByID(context.Background(), "l1")
		require.Error(mt, err)
		assert.False(mt, errors.Is(err, common.ErrorNotFound))
	})
}

func TestMongoRepository_Find(t *testing.T) {
	mt := newMock(t)

	mt.Run("sorted by creation", func(mt *mtest.T) {
		r := &MongoRepository{coll: mt.Coll}
		mt.AddMockResponses(found(listingDoc("l1", t0), listingDoc("l2", t0)))

		got, err := r.Find(context.Background(), search.ByCategory("Cabin"))
		require.NoError(mt, err)
		require.Len(mt, got, 2)
		assert.Equal(mt, "l1", got[0].ID)
		assert.Equal(mt, "l2", got[1].ID)

		finds := startedCommands(mt, "find")
		require.Len(mt, finds, 1)
		cmd := finds[0].Command
		assert.Equal(mt, "Cabin", cmd.Lookup("filter", "category").StringValue())

		var sort bson.D
		require.NoError(mt, cmd.Lookup("sort").Unmarshal(&sort))
		keys := make([]string, 0, len(sort))
		for _, e := range sort {
			keys = append(keys, e.Key)
		}
		assert.Equal(mt, []string{"createdAt", "_id"}, keys)
	})

	mt.Run("empty", func(mt *mtest.T) {
		r := &MongoRepository{coll: mt.Coll}
		mt.AddMockResponses(found())

		got, err := r.Find(context.Background(), search.All())
		require.NoError(mt, err)
		assert.NotNil(mt, got)
		assert.Empty(mt, got)
	})

	mt.Run("command error", func(mt *mtest.T) {
		r := &MongoRepository{coll: mt.Coll}
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 2, Message: "bad query", Name: "BadValue"}))

		_, err := r.Find(context.Background(), search.ByTerm("x"))
		require.Error(mt, err)
	})
}

func TestMongoRepository_Update(t *testing.T) {
	mt := newMock(t)

	mt.Run("replaces the read version", func(mt *mtest.T) {
		r := &MongoRepository{coll: mt.Coll}
		mt.AddMockResponses(found(listingDoc("l1", t0)), replaced(1))

		l, err := r.Update(context.Background(), "l1", setTitle("Loft"))
		require.NoError(mt, err)
		assert.Equal(mt, "Loft", l.Title)
		assert.Equal(mt, "l1", l.ID)
		assert.Equal(mt, "u1", l.CreatorID)

		ups := startedCommands(mt, "update")
		require.Len(mt, ups, 1)
		q := updateFilter(mt, ups[0])
		assert.Equal(mt, "l1", q["_id"])
		assert.Equal(mt, primitive.NewDateTimeFromTime(t0), q["updatedAt"])
	})

	mt.Run("concurrent writer is retried", func(mt *mtest.T) {
		r := &MongoRepository{coll: mt.Coll}
		mt.AddMockResponses(
			found(listingDoc("l1", t0)), replaced(0),
			found(listingDoc("l1", t1)), replaced(1),
		)

		l, err := r.Update(context.Background(), "l1", setTitle("Loft"))
		require.NoError(mt, err)
		assert.Equal(mt, "Loft", l.Title)

		ups := startedCommands(mt, "update")
		require.Len(mt, ups, 2)
		assert.Equal(mt, primitive.NewDateTimeFromTime(t1), updateFilter(mt, ups[1])["updatedAt"])
	})

	mt.Run("last attempt wins unconditionally", func(mt *mtest.T) {
		r := &MongoRepository{coll: mt.Coll}
		mt.AddMockResponses(
			found(listingDoc("l1", t0)), replaced(0),
			found(listingDoc("l1", t1)), replaced(0),
			found(listingDoc("l1", t2)), replaced(1),
		)

		l, err := r.Update(context.Background(), "l1", setTitle("Loft"))
		require.NoError(mt, err)
		assert.Equal(mt, "Loft", l.Title)

		ups := startedCommands(mt, "update")
		require.Len(mt, ups, maxUpdateAttempts)
		last := updateFilter(mt, ups[maxUpdateAttempts-1])
		assert.Equal(mt, bson.M{"_id": "l1"}, last)
	})

	mt.Run("deleted while retrying", func(mt *mtest.T) {
		r := &MongoRepository{coll: mt.Coll}
		mt.AddMockResponses(found(listingDoc("l1", t0)), replaced(0), found())

		_, err := r.Update(context.Background(), "l1", setTitle("Loft"))
		require.ErrorIs(mt, err, common.ErrorNotFound)
	})

	mt.Run("missing", func(mt *mtest.T) {
		r := &MongoRepository{coll: mt.Coll}
		mt.AddMockResponses(found())

		_, err := r.Update(context.Background(), "l1", setTitle("Loft"))
		require.ErrorIs(mt, err, common.ErrorNotFound)
		assert.Empty(mt, startedCommands(mt, "update"))
	})

	mt.Run("mutate error aborts", func(mt *mtest.T) {
		r := &MongoRepository{coll: mt.Coll}
		mt.AddMockResponses(found(listingDoc("l1", t0)))

		_, err := r.Update(context.Background(), "l1", func(*models.Listing) error { return assert.AnError })
		require.ErrorIs(mt, err, assert.AnError)
		assert.Empty(mt, startedCommands(mt, "update"))
	})
}

func TestMongoRepository_Delete(t *testing.T) {
	mt := newMock(t)

	mt.Run("ok", func(mt *mtest.T) {
		r := &MongoRepository{coll: mt.Coll}
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))
		require.NoError(mt, r.Delete(context.Background(), "l1"))
	})

	mt.Run("missing", func(mt *mtest.T) {
		r := &MongoRepository{coll: mt.Coll}
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))
		require.ErrorIs(mt, r.Delete(context.Background(), "l1"), common.ErrorNotFound)
	})
}

func TestMongoRepository_EnsureIndexes(t *testing.T) {
	mt := newMock(t)

	mt.Run("ok", func(mt *mtest.T) {
		r := &MongoRepository{coll: mt.Coll}
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		require.NoError(mt, r.EnsureIndexes(context.Background()))
		require.Len(mt, startedCommands(mt, "createIndexes"), 1)
	})

	mt.Run("error", func(mt *mtest.T) {
		r := &MongoRepository{coll: mt.Coll}
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 85, Message: "conflict", Name: "IndexOptionsConflict"}))
		require.Error(mt, r.EnsureIndexes(context.Background()))
	})
}
