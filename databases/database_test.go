package databases_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/linesmerrill/video-hearings-api/databases"
	"github.com/linesmerrill/video-hearings-api/databases/mocks"
)

type query struct {
	collection string
	operation  string
	err        error
}

func TestTraced_ReportsEveryOperation(t *testing.T) {
	dbHelper := &mocks.DatabaseHelper{}
	collectionHelper := &mocks.CollectionHelper{}
	srHelper := &mocks.SingleResultHelper{}

	boom := errors.New("mocked-error")
	srHelper.On("Decode", mock.Anything).Return(boom)
	collectionHelper.On("FindOne", context.Background(), bson.M{"_id": "conf-1"}).Return(srHelper)
	collectionHelper.On("InsertOne", context.Background(), bson.M{"a": 1}).Return(&mocks.InsertOneResultHelper{}, nil)
	dbHelper.On("Collection", "conferences").Return(collectionHelper)

	var seen []query
	traced := databases.Traced(dbHelper, func(ctx context.Context, collection, operation string, took time.Duration, err error) {
		seen = append(seen, query{collection: collection, operation: operation, err: err})
	})

	coll := traced.Collection("conferences")
	res := coll.FindOne(context.Background(), bson.M{"_id": "conf-1"})
	assert.Empty(t, seen, "findOne is reported once decoded")
	assert.ErrorIs(t, res.Decode(&struct{}{}), boom)

	_, err := coll.InsertOne(context.Background(), bson.M{"a": 1})
	assert.NoError(t, err)

	assert.Equal(t, []query{
		{collection: "conferences", operation: "findOne", err: boom},
		{collection: "conferences", operation: "insertOne"},
	}, seen)
}
