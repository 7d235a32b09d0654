// Package videobridge talks to the video provider that physically moves
// participants and endpoints between rooms.
package videobridge

import (
	"context"
	"errors"
	"fmt"

	"github.com/linesmerrill/video-hearings-api/models"
)

// go generate: mockery --name Gateway

// Gateway is the set of bridge commands the core issues
type Gateway interface {
	Transfer(ctx context.Context, conferenceID, participantID string, transferType models.TransferType) error
	JoinParticipantToRoom(ctx context.Context, conferenceID, participantID, roomLabel string) error
	JoinEndpointToRoom(ctx context.Context, conferenceID, endpointID, roomLabel string) error
	LockRoom(ctx context.Context, conferenceID, roomLabel string, locked bool) error
	LeaveRoom(ctx context.Context, conferenceID, participantID, roomLabel string) error
	StartHearing(ctx context.Context, conferenceID, layout string, forceTransferIDs []string, muteGuests bool) error
}

// ProviderError is a non-2xx reply from the bridge. Message is the reply body as sent.
type ProviderError struct {
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("video bridge responded %d: %s", e.StatusCode, e.Message)
}

// Outcome turns a bridge error into the result handed back to the caller. A
// provider reply keeps its status and message, anything else is a fault.
func Outcome(operation string, err error) (models.Result, error) {
	var perr *ProviderError
	if errors.As(err, &perr) {
		return models.ProviderFailure(perr.StatusCode, perr.Message), nil
	}
	return models.Result{}, fmt.Errorf("%s: %w", operation, err)
}
