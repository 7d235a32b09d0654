package databases_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/linesmerrill/video-hearings-api/config"
	"github.com/linesmerrill/video-hearings-api/databases"
	"github.com/linesmerrill/video-hearings-api/databases/mocks"
	"github.com/linesmerrill/video-hearings-api/models"
)

func TestNewUserDatabase(t *testing.T) {
	t.Setenv("DB_URI", "mongodb://127.0.0.1:27017")
	t.Setenv("DB_NAME", "test")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("VIDEO_BRIDGE_URL", "http://127.0.0.1:9000")
	conf, err := config.New()
	assert.NoError(t, err)

	dbClient, err := databases.NewClient(conf)
	assert.NoError(t, err)

	db := databases.NewDatabase(conf, dbClient)

	userDB := databases.NewUserDatabase(db)

	assert.NotEmpty(t, userDB)
}

func TestUserDatabase_FindByUsername(t *testing.T) {

	// define variables for interfaces
	var dbHelper databases.DatabaseHelper
	var collectionHelper databases.CollectionHelper
	var srHelperErr databases.SingleResultHelper
	var srHelperMissing databases.SingleResultHelper
	var srHelperCorrect databases.SingleResultHelper

	// set interfaces implementation to mocked structures
	dbHelper = &mocks.DatabaseHelper{}
	collectionHelper = &mocks.CollectionHelper{}
	srHelperErr = &mocks.SingleResultHelper{}
	srHelperMissing = &mocks.SingleResultHelper{}
	srHelperCorrect = &mocks.SingleResultHelper{}

	srHelperErr.(*mocks.SingleResultHelper).
		On("Decode", mock.Anything).
		Return(errors.New("mocked-error"))

	srHelperMissing.(*mocks.SingleResultHelper).
		On("Decode", mock.Anything).
		Return(mongo.ErrNoDocuments)

	srHelperCorrect.(*mocks.SingleResultHelper).
		On("Decode", mock.Anything).
		Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(*models.User)
		arg.ID = "mocked-user"
	})

	collectionHelper.(*mocks.CollectionHelper).
		On("FindOne", context.Background(), bson.M{"user.username": "broken@court.net"}).
		Return(srHelperErr)

	collectionHelper.(*mocks.CollectionHelper).
		On("FindOne", context.Background(), bson.M{"user.username": "nobody@court.net"}).
		Return(srHelperMissing)

	collectionHelper.(*mocks.CollectionHelper).
		On("FindOne", context.Background(), bson.M{"user.username": "judge@court.net"}).
		Return(srHelperCorrect)

	dbHelper.(*mocks.DatabaseHelper).
		On("Collection", "users").Return(collectionHelper)

	userDba := databases.NewUserDatabase(dbHelper)

	user, err := userDba.FindByUsername(context.Background(), "broken@court.net")
	assert.Empty(t, user)
	assert.EqualError(t, err, "find user broken@court.net: mocked-error")

	_, err = userDba.FindByUsername(context.Background(), "nobody@court.net")
	assert.ErrorIs(t, err, databases.ErrUserNotFound)

	// lookups are case insensitive
	user, err = userDba.FindByUsername(context.Background(), "Judge@Court.net")
	assert.Equal(t, &models.User{ID: "mocked-user"}, user)
	assert.NoError(t, err)
}
