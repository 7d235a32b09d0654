package databases

// go generate: mockery --name UserDatabase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/linesmerrill/video-hearings-api/models"
)

const userName = "users"

// ErrUserNotFound is returned when no user matches
var ErrUserNotFound = errors.New("user not found")

// UserDatabase contains the methods to use with the user database
type UserDatabase interface {
	FindByUsername(ctx context.Context, username string) (*models.User, error)
}

type userDatabase struct {
	db DatabaseHelper
}

// NewUserDatabase initializes a new instance of user database with the provided db connection
func NewUserDatabase(db DatabaseHelper) UserDatabase {
	return &userDatabase{
		db: db,
	}
}

// FindByUsername looks a user up by username. Usernames are stored lower-cased.
func (u *userDatabase) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	user := &models.User{}
	err := u.db.Collection(userName).FindOne(ctx, bson.M{"user.username": strings.ToLower(username)}).Decode(user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user %s: %w", username, err)
	}
	return user, nil
}
