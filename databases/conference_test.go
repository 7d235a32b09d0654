package databases_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/linesmerrill/video-hearings-api/conference"
	"github.com/linesmerrill/video-hearings-api/databases"
	"github.com/linesmerrill/video-hearings-api/databases/mocks"
	"github.com/linesmerrill/video-hearings-api/models"
)

func TestConferenceDatabase_FindConference(t *testing.T) {
	dbHelper := &mocks.DatabaseHelper{}
	collectionHelper := &mocks.CollectionHelper{}
	srMissing := &mocks.SingleResultHelper{}
	srErr := &mocks.SingleResultHelper{}
	srCorrect := &mocks.SingleResultHelper{}

	srMissing.On("Decode", mock.Anything).Return(mongo.ErrNoDocuments)
	srErr.On("Decode", mock.Anything).Return(errors.New("mocked-error"))
	srCorrect.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(*models.Conference)
		arg.ID = "conf-1"
		arg.Participants = []models.Participant{{ID: "w"}}
	})

	collectionHelper.On("FindOne", context.Background(), bson.M{"_id": "missing"}).Return(srMissing)
	collectionHelper.On("FindOne", context.Background(), bson.M{"_id": "broken"}).Return(srErr)
	collectionHelper.On("FindOne", context.Background(), bson.M{"_id": "conf-1"}).Return(srCorrect)
	dbHelper.On("Collection", "conferences").Return(collectionHelper)

	confDB := databases.NewConferenceDatabase(dbHelper)

	_, err := confDB.FindConference(context.Background(), "missing")
	assert.ErrorIs(t, err, conference.ErrNotFound)

	_, err = confDB.FindConference(context.Background(), "broken")
	assert.EqualError(t, err, "find conference broken: mocked-error")

	conf, err := confDB.FindConference(context.Background(), "conf-1")
	require.NoError(t, err)
	assert.Equal(t, "conf-1", conf.ID)
	assert.Len(t, conf.Participants, 1)
}

func TestConferenceDatabase_SetHandRaised(t *testing.T) {
	dbHelper := &mocks.DatabaseHelper{}
	collectionHelper := &mocks.CollectionHelper{}

	collectionHelper.On("UpdateOne", context.Background(),
		bson.M{"_id": "conf-1", "participants.id": "w"},
		bson.M{"$set": bson.M{"participants.$.handRaised": true}}).
		Return(&mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil)
	collectionHelper.On("UpdateOne", context.Background(),
		bson.M{"_id": "conf-1", "participants.id": "nobody"}, mock.Anything).
		Return(&mongo.UpdateResult{}, nil)
	dbHelper.On("Collection", "conferences").Return(collectionHelper)

	confDB := databases.NewConferenceDatabase(dbHelper)

	assert.NoError(t, confDB.SetHandRaised(context.Background(), "conf-1", "w", true))
	assert.ErrorIs(t, confDB.SetHandRaised(context.Background(), "conf-1", "nobody", true), conference.ErrNotFound)
}
