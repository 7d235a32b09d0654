package databases

// go generate: mockery --name ConferenceDatabase

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/linesmerrill/video-hearings-api/conference"
	"github.com/linesmerrill/video-hearings-api/models"
)

const conferenceName = "conferences"

// ConferenceDatabase contains the methods to use with the conference database
type ConferenceDatabase interface {
	FindConference(ctx context.Context, id string) (*models.Conference, error)
	SetHandRaised(ctx context.Context, conferenceID, participantID string, raised bool) error
}

type conferenceDatabase struct {
	db DatabaseHelper
}

// NewConferenceDatabase initializes a new instance of conference database with the provided db connection
func NewConferenceDatabase(db DatabaseHelper) ConferenceDatabase {
	return &conferenceDatabase{
		db: db,
	}
}

// FindConference loads one conference. A missing document is conference.ErrNotFound.
func (c *conferenceDatabase) FindConference(ctx context.Context, id string) (*models.Conference, error) {
	conf := &models.Conference{}
	err := c.db.Collection(conferenceName).FindOne(ctx, bson.M{"_id": id}).Decode(conf)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, conference.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find conference %s: %w", id, err)
	}
	return conf, nil
}

// SetHandRaised flips the hand raised flag of one participant
func (c *conferenceDatabase) SetHandRaised(ctx context.Context, conferenceID, participantID string, raised bool) error {
	res, err := c.db.Collection(conferenceName).UpdateOne(ctx,
		bson.M{"_id": conferenceID, "participants.id": participantID},
		bson.M{"$set": bson.M{"participants.$.handRaised": raised}})
	if err != nil {
		return fmt.Errorf("set hand raised on %s: %w", participantID, err)
	}
	if res.MatchedCount == 0 {
		return conference.ErrNotFound
	}
	return nil
}
