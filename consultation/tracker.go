package consultation

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/linesmerrill/video-hearings-api/models"
)

// DefaultExpiry is how long an unresolved invitation stays answerable
const DefaultExpiry = 5 * time.Minute

// entry guards one invitation. Lock order is Tracker.mu then entry.mu, never the reverse.
type entry struct {
	mu  sync.Mutex
	inv Invitation
}

// Tracker keeps outstanding invitations in memory. The index lock only
// protects the map; answers are read-modify-written under the invitation's
// own lock so concurrent answers to one invitation all persist.
type Tracker struct {
	mu          sync.RWMutex
	invitations map[string]*entry
	expiry      time.Duration
	now         func() time.Time
}

// NewTracker creates a tracker expiring invitations after expiry
func NewTracker(expiry time.Duration) *Tracker {
	if expiry <= 0 {
		expiry = DefaultExpiry
	}
	return &Tracker{
		invitations: make(map[string]*entry),
		expiry:      expiry,
		now:         time.Now,
	}
}

// StartInvitation opens an invitation for the required participants. It fails
// with a DuplicateInvitationError when an unresolved invitation for the same
// room already covers any of them.
func (t *Tracker) StartInvitation(conferenceID, roomLabel, requestedByID, requestedForID string, required []string) (string, error) {
	required = lo.Uniq(lo.Compact(required))
	if len(required) == 0 {
		return "", ErrNoRequiredParticipants
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	for id, e := range t.invitations {
		e.mu.Lock()
		inv := e.inv
		e.mu.Unlock()

		if t.expired(inv, now) {
			delete(t.invitations, id)
			continue
		}
		if inv.Resolved || inv.ConferenceID != conferenceID || inv.RoomLabel != roomLabel {
			continue
		}
		if len(lo.Intersect(inv.Required, required)) > 0 {
			return "", &DuplicateInvitationError{ExistingID: id}
		}
	}

	inv := Invitation{
		ID:             uuid.New().String(),
		ConferenceID:   conferenceID,
		RoomLabel:      roomLabel,
		RequestedByID:  requestedByID,
		RequestedForID: requestedForID,
		Required:       required,
		Answers:        make(map[string]models.ConsultationAnswer, len(required)),
		CreatedAt:      now,
	}
	for _, id := range required {
		inv.Answers[id] = models.AnswerNone
	}
	t.invitations[inv.ID] = &entry{inv: inv}

	zap.S().Infow("invitation started",
		"invitationId", inv.ID,
		"conferenceId", conferenceID,
		"roomLabel", roomLabel,
		"required", required)
	return inv.ID, nil
}

// RecordAnswer stores participantID's answer. Replaying an answer is a no-op.
// Negative answers resolve the invitation, after which only the same answer
// may be replayed.
func (t *Tracker) RecordAnswer(invitationID, participantID string, answer models.ConsultationAnswer) error {
	switch answer {
	case models.AnswerAccepted, models.AnswerRejected, models.AnswerCancelled, models.AnswerFailed:
	default:
		return fmt.Errorf("%w: %s", ErrInvalidAnswer, answer)
	}

	e, ok := t.lookup(invitationID)
	if !ok {
		return ErrUnknownInvitation
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if t.expired(e.inv, t.now()) {
		return ErrUnknownInvitation
	}
	if !lo.Contains(e.inv.Required, participantID) {
		return ErrParticipantNotRequired
	}
	if e.inv.Resolved {
		if e.inv.Answers[participantID] == answer {
			return nil
		}
		return ErrInvitationResolved
	}

	e.inv.Answers[participantID] = answer
	if answer.IsNegative() {
		e.inv.Resolved = true
	}
	zap.S().Infow("invitation answered",
		"invitationId", invitationID,
		"participantId", participantID,
		"answer", answer,
		"resolved", e.inv.Resolved)
	return nil
}

// HaveAllParticipantsResponded is true when every required participant has answered
func (t *Tracker) HaveAllParticipantsResponded(invitationID string) (bool, error) {
	inv, ok := t.Get(invitationID)
	if !ok {
		return false, ErrUnknownInvitation
	}
	return inv.AllResponded(), nil
}

// HaveAllParticipantsAccepted is true when every required participant accepted
func (t *Tracker) HaveAllParticipantsAccepted(invitationID string) (bool, error) {
	inv, ok := t.Get(invitationID)
	if !ok {
		return false, ErrUnknownInvitation
	}
	return inv.AllAccepted(), nil
}

// ClaimTransfer resolves a fully accepted invitation. It returns true to
// exactly one caller so concurrent final acceptances issue one transfer.
func (t *Tracker) ClaimTransfer(invitationID string) bool {
	e, ok := t.lookup(invitationID)
	if !ok {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.inv.Resolved || !e.inv.AllAccepted() {
		return false
	}
	e.inv.Resolved = true
	return true
}

// Get returns a copy of the invitation
func (t *Tracker) Get(invitationID string) (Invitation, bool) {
	e, ok := t.lookup(invitationID)
	if !ok {
		return Invitation{}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if t.expired(e.inv, t.now()) {
		return Invitation{}, false
	}
	return e.inv.clone(), true
}

// Discard forgets the invitation
func (t *Tracker) Discard(invitationID string) {
	t.mu.Lock()
	delete(t.invitations, invitationID)
	t.mu.Unlock()
	zap.S().Debugw("invitation discarded", "invitationId", invitationID)
}

// Expire drops every invitation older than the expiry window and returns how many went
func (t *Tracker) Expire(now time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := 0
	for id, e := range t.invitations {
		e.mu.Lock()
		expired := t.expired(e.inv, now)
		e.mu.Unlock()
		if expired {
			delete(t.invitations, id)
			n++
		}
	}
	if n > 0 {
		zap.S().Infow("expired invitations", "count", n)
	}
	return n
}

// Len is the number of invitations held
func (t *Tracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.invitations)
}

func (t *Tracker) lookup(invitationID string) (*entry, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.invitations[invitationID]
	return e, ok
}

func (t *Tracker) expired(inv Invitation, now time.Time) bool {
	return now.Sub(inv.CreatedAt) > t.expiry
}
