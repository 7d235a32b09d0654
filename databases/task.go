package databases

// go generate: mockery --name TaskDatabase

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/linesmerrill/video-hearings-api/models"
)

const taskName = "tasks"

// TaskDatabase contains the methods to use with the task database
type TaskDatabase interface {
	InsertAlert(ctx context.Context, alert models.AlertTask) error
	FindByConference(ctx context.Context, conferenceID string) ([]models.AlertTask, error)
}

type taskDatabase struct {
	db DatabaseHelper
}

// NewTaskDatabase initializes a new instance of task database with the provided db connection
func NewTaskDatabase(db DatabaseHelper) TaskDatabase {
	return &taskDatabase{
		db: db,
	}
}

func (t *taskDatabase) InsertAlert(ctx context.Context, alert models.AlertTask) error {
	if _, err := t.db.Collection(taskName).InsertOne(ctx, alert); err != nil {
		return fmt.Errorf("insert alert for %s: %w", alert.ConferenceID, err)
	}
	return nil
}

// FindByConference returns the conference's alerts, oldest first
func (t *taskDatabase) FindByConference(ctx context.Context, conferenceID string) ([]models.AlertTask, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cur, err := t.db.Collection(taskName).Find(ctx, bson.M{"conferenceId": conferenceID}, opts)
	if err != nil {
		return nil, fmt.Errorf("find alerts for %s: %w", conferenceID, err)
	}
	alerts := []models.AlertTask{}
	if err := cur.All(ctx, &alerts); err != nil {
		return nil, fmt.Errorf("decode alerts for %s: %w", conferenceID, err)
	}
	return alerts, nil
}
