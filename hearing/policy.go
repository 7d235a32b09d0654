package hearing

import (
	"context"

	"github.com/samber/lo"

	"github.com/linesmerrill/video-hearings-api/models"
)

// CallState is where a participant stands relative to the hearing room
type CallState int

// Call states
const (
	NotCallable CallState = iota
	Callable
	Calling
	InRoom
	Dismissed
)

func (s CallState) String() string {
	switch s {
	case Callable:
		return "Callable"
	case Calling:
		return "Calling"
	case InRoom:
		return "InRoom"
	case Dismissed:
		return "Dismissed"
	}
	return "NotCallable"
}

// refreshFunc fetches the live conference, bypassing any cache
type refreshFunc func(ctx context.Context) (*models.Conference, error)

// Policy decides whether a host may call a participant into the hearing room
type Policy interface {
	Callable(ctx context.Context, conf *models.Conference, p models.Participant, refresh refreshFunc) (bool, error)
}

// PolicyFor picks the policy for the participant's role category
func PolicyFor(p models.Participant) Policy {
	switch {
	case p.IsWitness():
		return witnessPolicy{}
	case p.IsQuickLinkUser():
		return quickLinkPolicy{}
	}
	return notCallablePolicy{}
}

// witnessPolicy holds back a witness with linked participants until one of
// them shares the witness's civilian room.
type witnessPolicy struct{}

func (witnessPolicy) Callable(ctx context.Context, conf *models.Conference, p models.Participant, refresh refreshFunc) (bool, error) {
	linked := p.LinkedIDs()
	if len(linked) == 0 {
		return true, nil
	}

	room, ok := conf.CivilianRoomFor(p.ID)
	if !ok {
		// the cached roster may lag the rooms, look at the live one before refusing
		live, err := refresh(ctx)
		if err != nil {
			return false, err
		}
		if room, ok = live.CivilianRoomFor(p.ID); !ok {
			return false, nil
		}
	}
	return lo.Some(room.Participants, linked), nil
}

type quickLinkPolicy struct{}

func (quickLinkPolicy) Callable(context.Context, *models.Conference, models.Participant, refreshFunc) (bool, error) {
	return true, nil
}

type notCallablePolicy struct{}

func (notCallablePolicy) Callable(context.Context, *models.Conference, models.Participant, refreshFunc) (bool, error) {
	return false, nil
}
