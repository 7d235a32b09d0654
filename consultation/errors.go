package consultation

import (
	"errors"
	"fmt"

	"github.com/linesmerrill/video-hearings-api/models"
)

var (
	// ErrDuplicateInvitation is wrapped by DuplicateInvitationError
	ErrDuplicateInvitation = errors.New("an unresolved invitation already targets this room")
	// ErrUnknownInvitation means the invitation expired, was discarded or never existed
	ErrUnknownInvitation = errors.New("invitation has expired or does not exist")
	// ErrParticipantNotRequired means the participant was not asked to respond
	ErrParticipantNotRequired = errors.New("participant is not required to respond to this invitation")
	// ErrInvitationResolved means the invitation no longer takes a different answer
	ErrInvitationResolved = errors.New("invitation has already been resolved")
	// ErrInvalidAnswer is returned for answers that cannot be recorded
	ErrInvalidAnswer = errors.New("answer cannot be recorded")
	// ErrNoRequiredParticipants is returned when starting an invitation nobody has to answer
	ErrNoRequiredParticipants = errors.New("invitation needs at least one required participant")
	// ErrAmbiguousParticipant is a data integrity fault: one id matched several participants
	ErrAmbiguousParticipant = models.ErrAmbiguousParticipant
)

// DuplicateInvitationError carries the invitation that is already open for the room
type DuplicateInvitationError struct {
	ExistingID string
}

func (e *DuplicateInvitationError) Error() string {
	return fmt.Sprintf("%v: %s", ErrDuplicateInvitation, e.ExistingID)
}

func (e *DuplicateInvitationError) Unwrap() error {
	return ErrDuplicateInvitation
}

// Reasons returned to clients. Client UIs match on these, do not reword them.
const (
	ReasonStaleInvitation      = "Invitation has expired or does not exist; request a new consultation"
	ReasonNotRequired          = "Participant is not required to respond to this invitation"
	ReasonInvitationResolved   = "Invitation has already been resolved"
	ReasonEndpointScreened     = "Endpoint cannot join this room because it is screened from a participant in the room"
	ReasonParticipantScreened  = "Participant cannot join this room because they are screened from a participant in the room"
	ReasonCannotInvite         = "User is not allowed to invite participants to this room"
	ReasonCannotRespond        = "User is not allowed to respond for this participant"
	ReasonNotRequester         = "User is not allowed to make requests for this participant"
	ReasonNotInConsultation    = "Participant is not in a consultation room"
	ReasonConferenceNotFound   = "Conference does not exist"
	ReasonParticipantNotFound  = "Participant does not exist in this conference"
	ReasonEndpointNotFound     = "Endpoint does not exist in this conference"
	ReasonCallerNotParticipant = "Unable to find a participant in this conference for the current user"
)
