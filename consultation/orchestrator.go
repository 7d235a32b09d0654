package consultation

import (
	"context"
	"errors"
	"fmt"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/linesmerrill/video-hearings-api/conference"
	"github.com/linesmerrill/video-hearings-api/models"
	"github.com/linesmerrill/video-hearings-api/videobridge"
)

// Notifier is what the orchestrator publishes through
type Notifier interface {
	NotifyConsultationRequest(conf *models.Conference, invitationID, roomLabel, requestedByID, requestedForID string, recipients []string)
	NotifyAdminConsultationRequest(conf *models.Conference, invitationID, roomLabel, requestedForID string, recipients []string)
	NotifyConsultationResponse(conf *models.Conference, invitationID, roomLabel, requestedForID string, answer models.ConsultationAnswer, recipients []string)
	NotifyParticipantTransferring(conf *models.Conference, participantID, roomLabel string)
	NotifyRoomUpdate(conf *models.Conference, roomLabel string, locked bool)
}

// Orchestrator decides whether a consultation may go ahead and drives the
// tracker, the bridge and the notifier. Every operation returns a Result for
// outcomes the caller can act on; the error is reserved for faults such as
// ErrAmbiguousParticipant or an unreachable bridge.
type Orchestrator struct {
	conferences conference.Provider
	tracker     *Tracker
	bridge      videobridge.Gateway
	notifier    Notifier
}

// NewOrchestrator wires an orchestrator
func NewOrchestrator(conferences conference.Provider, tracker *Tracker, bridge videobridge.Gateway, notifier Notifier) *Orchestrator {
	return &Orchestrator{
		conferences: conferences,
		tracker:     tracker,
		bridge:      bridge,
		notifier:    notifier,
	}
}

// RequestConsultation invites a participant, and everyone linked to them, into
// a room. Nothing moves until they have all accepted.
func (o *Orchestrator) RequestConsultation(ctx context.Context, caller models.Caller, req models.ConsultationRequest) (models.Result, error) {
	conf, res, err := o.loadConference(ctx, req.ConferenceID)
	if conf == nil {
		return res, err
	}

	requestedFor, err := findParticipant(conf, req.RequestedForID)
	if err != nil {
		return models.Result{}, err
	}
	if requestedFor == nil {
		return models.NotFound(ReasonParticipantNotFound), nil
	}

	var requestedByID string
	if req.RequestedByID != "" {
		id, res, ok, err := resolveRequester(conf, caller, req.RequestedByID)
		if !ok {
			return res, err
		}
		requestedByID = id
	}
	admin := requestedByID == ""
	if admin && !caller.IsVhOfficer() {
		return models.NotFound(ReasonParticipantNotFound), nil
	}

	required, err := requiredSet(conf, requestedFor)
	if err != nil {
		return models.Result{}, err
	}
	if screenedFromRoom(conf, req.RoomLabel, participantParties(conf, required)) {
		zap.S().Infow("consultation request blocked by screening",
			"conferenceId", conf.ID,
			"roomLabel", req.RoomLabel,
			"requestedFor", requestedFor.ID)
		return models.BadRequest(ReasonParticipantScreened), nil
	}

	id, err := o.startInvitation(conf, req.RoomLabel, requestedByID, requestedFor.ID, required)
	if err != nil {
		return models.Result{}, err
	}
	if admin {
		o.notifier.NotifyAdminConsultationRequest(conf, id, req.RoomLabel, requestedFor.ID, required)
	} else {
		o.notifier.NotifyConsultationRequest(conf, id, req.RoomLabel, requestedByID, requestedFor.ID, required)
	}
	return models.NoContent().WithInvitation(id), nil
}

// RespondToConsultation records one participant's answer. Only the
// participant themselves, or an officer, may answer. The transfer is issued
// by whichever answer completes the set of acceptances.
func (o *Orchestrator) RespondToConsultation(ctx context.Context, caller models.Caller, req models.ConsultationRequest) (models.Result, error) {
	conf, res, err := o.loadConference(ctx, req.ConferenceID)
	if conf == nil {
		return res, err
	}

	responder, err := findParticipant(conf, req.RequestedForID)
	if err != nil {
		return models.Result{}, err
	}
	if responder == nil {
		return models.NotFound(ReasonParticipantNotFound), nil
	}
	if !caller.Matches(*responder) && !caller.IsVhOfficer() {
		zap.S().Infow("answer rejected, caller is not the responder",
			"conferenceId", conf.ID,
			"caller", caller.Username,
			"responder", responder.ID)
		return models.Unauthorized(ReasonCannotRespond), nil
	}

	inv, ok := o.tracker.Get(req.InvitationID)
	if !ok || inv.ConferenceID != conf.ID {
		return models.NotFound(ReasonStaleInvitation), nil
	}

	if err := o.tracker.RecordAnswer(inv.ID, responder.ID, req.Answer); err != nil {
		switch {
		case errors.Is(err, ErrUnknownInvitation):
			return models.NotFound(ReasonStaleInvitation), nil
		case errors.Is(err, ErrParticipantNotRequired):
			return models.BadRequest(ReasonNotRequired), nil
		case errors.Is(err, ErrInvitationResolved):
			return models.BadRequest(ReasonInvitationResolved), nil
		case errors.Is(err, ErrInvalidAnswer):
			return models.BadRequest(err.Error()), nil
		}
		return models.Result{}, err
	}

	if req.Answer.IsNegative() {
		o.notifier.NotifyConsultationResponse(conf, inv.ID, inv.RoomLabel, inv.RequestedForID, req.Answer, inv.Parties())
		o.tracker.Discard(inv.ID)
		return models.NoContent(), nil
	}

	accepted, err := o.tracker.HaveAllParticipantsAccepted(inv.ID)
	if errors.Is(err, ErrUnknownInvitation) {
		return models.NotFound(ReasonStaleInvitation), nil
	}
	if !accepted {
		o.notifier.NotifyConsultationResponse(conf, inv.ID, inv.RoomLabel, inv.RequestedForID, req.Answer, inv.Parties())
		return models.NoContent(), nil
	}
	if !o.tracker.ClaimTransfer(inv.ID) {
		// a replay, or another final acceptance is already transferring
		return models.NoContent(), nil
	}
	return o.transfer(ctx, conf, inv)
}

// AddEndpointToConsultation moves an endpoint into a room unless screening
// forbids it. A named requester must be the caller's own participant.
func (o *Orchestrator) AddEndpointToConsultation(ctx context.Context, caller models.Caller, conferenceID, endpointID, roomLabel, requestedByID string) (models.Result, error) {
	conf, res, err := o.loadConference(ctx, conferenceID)
	if conf == nil {
		return res, err
	}
	if requestedByID != "" {
		if _, res, ok, err := resolveRequester(conf, caller, requestedByID); !ok {
			return res, err
		}
	}

	ep, ok := conf.FindEndpoint(endpointID)
	if !ok {
		return models.NotFound(ReasonEndpointNotFound), nil
	}
	if screenedFromRoom(conf, roomLabel, []party{endpointParty(*ep)}) {
		zap.S().Infow("endpoint blocked by screening",
			"conferenceId", conf.ID,
			"endpointId", ep.ID,
			"roomLabel", roomLabel)
		return models.BadRequest(ReasonEndpointScreened), nil
	}

	if err := o.bridge.JoinEndpointToRoom(ctx, conf.ID, ep.ID, roomLabel); err != nil {
		return videobridge.Outcome("join endpoint to room", err)
	}
	o.notifier.NotifyParticipantTransferring(conf, ep.ID, roomLabel)
	return models.Accepted(), nil
}

// InviteToConsultation invites one participant. The caller must be the
// invitee, an officer, a judicial participant of the conference, or already
// in the room.
func (o *Orchestrator) InviteToConsultation(ctx context.Context, caller models.Caller, conferenceID, roomLabel, requestedByID, requestedForID string) (models.Result, error) {
	conf, res, err := o.loadConference(ctx, conferenceID)
	if conf == nil {
		return res, err
	}

	target, err := findParticipant(conf, requestedForID)
	if err != nil {
		return models.Result{}, err
	}
	if target == nil {
		return models.NotFound(ReasonParticipantNotFound), nil
	}

	callerParticipants := conf.FindParticipantByUsername(caller.Username)
	inRoom := lo.SomeBy(callerParticipants, func(p *models.Participant) bool {
		return p.CurrentRoom != nil && p.CurrentRoom.Label == roomLabel
	})
	judicial := lo.SomeBy(callerParticipants, func(p *models.Participant) bool { return p.IsJudicial() })
	if !caller.IsVhOfficer() && !caller.Matches(*target) && !judicial && !inRoom {
		zap.S().Infow("invite rejected",
			"conferenceId", conf.ID,
			"caller", caller.Username,
			"roomLabel", roomLabel)
		return models.Unauthorized(ReasonCannotInvite), nil
	}

	if requestedByID != "" {
		id, res, ok, err := resolveRequester(conf, caller, requestedByID)
		if !ok {
			return res, err
		}
		requestedByID = id
	} else if len(callerParticipants) > 0 {
		requestedByID = callerParticipants[0].ID
	}

	id, err := o.startInvitation(conf, roomLabel, requestedByID, target.ID, []string{target.ID})
	if err != nil {
		return models.Result{}, err
	}
	if caller.IsVhOfficer() {
		o.notifier.NotifyAdminConsultationRequest(conf, id, roomLabel, target.ID, []string{target.ID})
	} else {
		o.notifier.NotifyConsultationRequest(conf, id, roomLabel, requestedByID, target.ID, []string{target.ID})
	}
	return models.NoContent().WithInvitation(id), nil
}

// JoinPrivateConsultation moves the caller's own participant straight into a room
func (o *Orchestrator) JoinPrivateConsultation(ctx context.Context, caller models.Caller, conferenceID, participantID, roomLabel string) (models.Result, error) {
	conf, res, err := o.loadConference(ctx, conferenceID)
	if conf == nil {
		return res, err
	}

	p, err := findParticipant(conf, participantID)
	if err != nil {
		return models.Result{}, err
	}
	if p == nil || !caller.Matches(*p) {
		return models.NotFound(ReasonCallerNotParticipant), nil
	}

	id, err := o.startInvitation(conf, roomLabel, p.ID, p.ID, []string{p.ID})
	if err != nil {
		return models.Result{}, err
	}
	if err := o.tracker.RecordAnswer(id, p.ID, models.AnswerAccepted); err != nil {
		return models.Result{}, fmt.Errorf("auto accept private consultation: %w", err)
	}
	inv, ok := o.tracker.Get(id)
	if !ok || !o.tracker.ClaimTransfer(id) {
		return models.NotFound(ReasonStaleInvitation), nil
	}
	return o.transfer(ctx, conf, inv)
}

// LeaveConsultation takes a participant out of whichever consultation room they are in
func (o *Orchestrator) LeaveConsultation(ctx context.Context, conferenceID, participantID string) (models.Result, error) {
	conf, res, err := o.loadConference(ctx, conferenceID)
	if conf == nil {
		return res, err
	}

	p, err := findParticipant(conf, participantID)
	if err != nil {
		return models.Result{}, err
	}
	if p == nil {
		return models.NotFound(ReasonParticipantNotFound), nil
	}
	if p.CurrentRoom == nil || p.CurrentRoom.Label == "" {
		return models.BadRequest(ReasonNotInConsultation), nil
	}

	if err := o.bridge.LeaveRoom(ctx, conf.ID, p.ID, p.CurrentRoom.Label); err != nil {
		return videobridge.Outcome("leave consultation room", err)
	}
	zap.S().Infow("participant left consultation",
		"conferenceId", conf.ID,
		"participantId", p.ID,
		"roomLabel", p.CurrentRoom.Label)
	return models.Accepted(), nil
}

// LockConsultationRoom sets the room lock through the bridge. Bridge failures are returned as they are.
func (o *Orchestrator) LockConsultationRoom(ctx context.Context, conferenceID, roomLabel string, lock bool) (models.Result, error) {
	conf, res, err := o.loadConference(ctx, conferenceID)
	if conf == nil {
		return res, err
	}

	if err := o.bridge.LockRoom(ctx, conf.ID, roomLabel, lock); err != nil {
		return videobridge.Outcome("lock consultation room", err)
	}
	o.notifier.NotifyRoomUpdate(conf, roomLabel, lock)
	return models.NoContent(), nil
}

// transfer publishes Transferring to every party before asking the bridge to
// move anyone, so clients can show the move without racing it.
func (o *Orchestrator) transfer(ctx context.Context, conf *models.Conference, inv Invitation) (models.Result, error) {
	defer o.tracker.Discard(inv.ID)

	if screenedFromRoom(conf, inv.RoomLabel, participantParties(conf, inv.Required)) {
		o.notifier.NotifyConsultationResponse(conf, inv.ID, inv.RoomLabel, inv.RequestedForID, models.AnswerFailed, inv.Parties())
		return models.BadRequest(ReasonParticipantScreened), nil
	}

	o.notifier.NotifyConsultationResponse(conf, inv.ID, inv.RoomLabel, inv.RequestedForID, models.AnswerTransferring, inv.Parties())
	for _, id := range inv.Required {
		if err := o.bridge.JoinParticipantToRoom(ctx, conf.ID, id, inv.RoomLabel); err != nil {
			o.notifier.NotifyConsultationResponse(conf, inv.ID, inv.RoomLabel, inv.RequestedForID, models.AnswerFailed, inv.Parties())
			return videobridge.Outcome("join participant to room", err)
		}
	}
	zap.S().Infow("consultation transfer issued",
		"invitationId", inv.ID,
		"conferenceId", conf.ID,
		"roomLabel", inv.RoomLabel,
		"participants", inv.Required)
	return models.Accepted(), nil
}

// startInvitation replaces any open invitation it collides with, so the
// latest request wins. Parties of the replaced invitation are told it was
// cancelled.
func (o *Orchestrator) startInvitation(conf *models.Conference, roomLabel, requestedByID, requestedForID string, required []string) (string, error) {
	for {
		id, err := o.tracker.StartInvitation(conf.ID, roomLabel, requestedByID, requestedForID, required)
		var dup *DuplicateInvitationError
		if !errors.As(err, &dup) {
			return id, err
		}
		zap.S().Infow("replacing open invitation",
			"invitationId", dup.ExistingID,
			"conferenceId", conf.ID,
			"roomLabel", roomLabel)
		old, ok := o.tracker.Get(dup.ExistingID)
		o.tracker.Discard(dup.ExistingID)
		if ok {
			o.notifier.NotifyConsultationResponse(conf, old.ID, old.RoomLabel, old.RequestedForID, models.AnswerCancelled, old.Parties())
		}
	}
}

func (o *Orchestrator) loadConference(ctx context.Context, id string) (*models.Conference, models.Result, error) {
	conf, err := o.conferences.GetConference(ctx, id)
	if errors.Is(err, conference.ErrNotFound) {
		return nil, models.NotFound(ReasonConferenceNotFound), nil
	}
	if err != nil {
		return nil, models.Result{}, err
	}
	return conf, models.Result{}, nil
}

// resolveRequester checks that id names one of the caller's own participants.
// Officers may request on anyone's behalf.
func resolveRequester(conf *models.Conference, caller models.Caller, id string) (string, models.Result, bool, error) {
	p, err := findParticipant(conf, id)
	if err != nil {
		return "", models.Result{}, false, err
	}
	if p == nil {
		return "", models.NotFound(ReasonParticipantNotFound), false, nil
	}
	if !caller.Matches(*p) && !caller.IsVhOfficer() {
		zap.S().Infow("requester does not belong to caller",
			"conferenceId", conf.ID,
			"caller", caller.Username,
			"requestedBy", p.ID)
		return "", models.Unauthorized(ReasonNotRequester), false, nil
	}
	return p.ID, models.Result{}, true, nil
}

// findParticipant logs integrity faults before handing them back
func findParticipant(conf *models.Conference, id string) (*models.Participant, error) {
	p, err := conf.Participant(id)
	if err != nil {
		zap.S().Errorw("participant id is not unique",
			"conferenceId", conf.ID,
			"participantId", id)
	}
	return p, err
}

// requiredSet is the target plus every linked participant present in the conference
func requiredSet(conf *models.Conference, target *models.Participant) ([]string, error) {
	required := []string{target.ID}
	for _, linkedID := range target.LinkedIDs() {
		linked, err := findParticipant(conf, linkedID)
		if err != nil {
			return nil, err
		}
		if linked != nil {
			required = append(required, linked.ID)
		}
	}
	return lo.Uniq(required), nil
}
