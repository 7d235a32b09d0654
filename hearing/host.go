// Package hearing implements what a host does to the hearing room: calling
// participants in, dismissing them, and starting or leaving the hearing.
package hearing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/linesmerrill/video-hearings-api/conference"
	"github.com/linesmerrill/video-hearings-api/models"
	"github.com/linesmerrill/video-hearings-api/videobridge"
)

// Reasons returned to the caller
const (
	ReasonNotHost             = "User must be either Judge or StaffMember."
	ReasonNotAssigned         = "User is not assigned to this conference."
	ReasonNotCallable         = "Participant is not callable"
	ReasonConferenceNotFound  = "Conference not found"
	ReasonParticipantNotFound = "Participant not found"
)

// HandNotifier publishes hand raise changes
type HandNotifier interface {
	NotifyHandStatus(conf *models.Conference, participantID string, raised bool)
}

// AlertStore persists the alerts raised for the hearing's clerk
// go generate: mockery --name AlertStore
type AlertStore interface {
	InsertAlert(ctx context.Context, alert models.AlertTask) error
}

// HandStore persists a participant's raised hand
type HandStore interface {
	SetHandRaised(ctx context.Context, conferenceID, participantID string, raised bool) error
}

// Invalidator drops a cached conference after it was written to
type Invalidator interface {
	Invalidate(id string)
}

// Call states expire twelve hours after their last change
const (
	callStateLimit = 10000
	callStateTTL   = 12 * time.Hour
)

// Host carries out the host protocol against the video bridge
type Host struct {
	conferences conference.Provider
	bridge      videobridge.Gateway
	notifier    HandNotifier
	alerts      AlertStore
	hands       HandStore
	invalidator Invalidator
	controls    *conference.VideoControlStore

	states *expirable.LRU[string, CallState]
	now    func() time.Time
}

// NewHost wires a Host
func NewHost(conferences conference.Provider, bridge videobridge.Gateway, notifier HandNotifier, alerts AlertStore, hands HandStore, invalidator Invalidator, controls *conference.VideoControlStore) *Host {
	return &Host{
		conferences: conferences,
		bridge:      bridge,
		notifier:    notifier,
		alerts:      alerts,
		hands:       hands,
		invalidator: invalidator,
		controls:    controls,
		states:      expirable.NewLRU[string, CallState](callStateLimit, nil, callStateTTL),
		now:         time.Now,
	}
}

// CallParticipant transfers a callable participant into the hearing room
func (h *Host) CallParticipant(ctx context.Context, caller models.Caller, req models.CallRequest) (models.Result, error) {
	conf, res, err := h.loadConference(ctx, req.ConferenceID)
	if conf == nil {
		return res, err
	}
	if _, res, ok := authorize(conf, caller); !ok {
		return res, nil
	}

	target, err := findParticipant(conf, req.ParticipantID)
	if err != nil {
		return models.Result{}, err
	}
	if target == nil {
		return models.NotFound(ReasonParticipantNotFound), nil
	}

	refresh := func(ctx context.Context) (*models.Conference, error) {
		return h.conferences.ForceGetConference(ctx, conf.ID)
	}
	callable, err := PolicyFor(*target).Callable(ctx, conf, *target, refresh)
	if err != nil {
		return models.Result{}, fmt.Errorf("evaluate callability of %s: %w", target.ID, err)
	}
	if !callable {
		zap.S().Infow("participant is not callable",
			"conferenceId", conf.ID,
			"participantId", target.ID,
			"hearingRole", target.HearingRole)
		h.setState(conf.ID, target.ID, NotCallable)
		return models.Unauthorized(ReasonNotCallable), nil
	}

	h.setState(conf.ID, target.ID, Calling)
	if err := h.bridge.Transfer(ctx, conf.ID, target.ID, models.TransferCall); err != nil {
		h.setState(conf.ID, target.ID, Callable)
		return videobridge.Outcome("call participant", err)
	}
	h.setState(conf.ID, target.ID, InRoom)
	zap.S().Infow("participant called",
		"conferenceId", conf.ID,
		"participantId", target.ID,
		"caller", caller.Username)
	return models.Accepted(), nil
}

// DismissParticipant sends a participant, an endpoint, or the occupant of a
// civilian room back out of the hearing room.
func (h *Host) DismissParticipant(ctx context.Context, caller models.Caller, req models.DismissRequest) (models.Result, error) {
	conf, res, err := h.loadConference(ctx, req.ConferenceID)
	if conf == nil {
		return res, err
	}
	host, res, ok := authorize(conf, caller)
	if !ok {
		return res, nil
	}

	target, err := findParticipant(conf, req.ParticipantID)
	if err != nil {
		return models.Result{}, err
	}
	if target == nil {
		if ep, ok := conf.FindEndpoint(req.ParticipantID); ok {
			if err := h.bridge.Transfer(ctx, conf.ID, ep.ID, models.TransferDismiss); err != nil {
				return videobridge.Outcome("dismiss endpoint", err)
			}
			h.setState(conf.ID, ep.ID, Dismissed)
			return models.Accepted(), nil
		}
		room, ok := conf.FindCivilianRoom(req.ParticipantID)
		if !ok {
			return models.NotFound(ReasonParticipantNotFound), nil
		}
		if target, err = representative(conf, room); err != nil {
			return models.Result{}, err
		}
		if target == nil {
			return models.NotFound(ReasonParticipantNotFound), nil
		}
	}

	if err := h.bridge.Transfer(ctx, conf.ID, target.ID, models.TransferDismiss); err != nil {
		return videobridge.Outcome("dismiss participant", err)
	}
	h.setState(conf.ID, target.ID, Dismissed)
	h.lowerHand(ctx, conf, target.ID)

	if target.IsWitness() || target.IsQuickLinkUser() {
		h.raiseDismissalAlert(ctx, conf, *target, host)
	}
	zap.S().Infow("participant dismissed",
		"conferenceId", conf.ID,
		"participantId", target.ID,
		"caller", caller.Username)
	return models.Accepted(), nil
}

// LeaveHearing takes a host out of the hearing room
func (h *Host) LeaveHearing(ctx context.Context, caller models.Caller, conferenceID, participantID string) (models.Result, error) {
	return h.moveHost(ctx, caller, conferenceID, participantID, models.TransferDismiss)
}

// JoinHearingInSession puts a host into a hearing that is already running
func (h *Host) JoinHearingInSession(ctx context.Context, caller models.Caller, conferenceID, participantID string) (models.Result, error) {
	return h.moveHost(ctx, caller, conferenceID, participantID, models.TransferCall)
}

func (h *Host) moveHost(ctx context.Context, caller models.Caller, conferenceID, participantID string, tt models.TransferType) (models.Result, error) {
	conf, res, err := h.loadConference(ctx, conferenceID)
	if conf == nil {
		return res, err
	}
	if _, res, ok := authorize(conf, caller); !ok {
		return res, nil
	}
	p, err := findParticipant(conf, participantID)
	if err != nil {
		return models.Result{}, err
	}
	if p == nil {
		return models.NotFound(ReasonParticipantNotFound), nil
	}
	if err := h.bridge.Transfer(ctx, conf.ID, p.ID, tt); err != nil {
		return videobridge.Outcome(fmt.Sprintf("%s host", tt), err)
	}
	if tt == models.TransferCall {
		h.setState(conf.ID, p.ID, InRoom)
	} else {
		h.setState(conf.ID, p.ID, Dismissed)
	}
	return models.Accepted(), nil
}

// StartOrResumeVideoHearing starts the hearing, pulling in every session the
// caller has open as a judge or staff member.
func (h *Host) StartOrResumeVideoHearing(ctx context.Context, caller models.Caller, conferenceID string, req models.StartHearingRequest) (models.Result, error) {
	conf, res, err := h.loadConference(ctx, conferenceID)
	if conf == nil {
		return res, err
	}
	if _, res, ok := authorize(conf, caller); !ok {
		return res, nil
	}

	hosts := lo.FilterMap(conf.FindParticipantByUsername(caller.Username), func(p *models.Participant, _ int) (string, bool) {
		return p.ID, p.IsHost()
	})
	layout := req.Layout
	if layout == "" {
		layout = conf.HearingLayout
	}
	muteGuests := true
	if req.MuteGuests != nil {
		muteGuests = *req.MuteGuests
	}

	if err := h.bridge.StartHearing(ctx, conf.ID, layout, hosts, muteGuests); err != nil {
		return videobridge.Outcome("start hearing", err)
	}
	for _, id := range hosts {
		h.setState(conf.ID, id, InRoom)
	}
	zap.S().Infow("hearing started",
		"conferenceId", conf.ID,
		"layout", layout,
		"forceTransfer", hosts,
		"muteGuests", muteGuests)
	return models.Accepted(), nil
}

// SetVideoControlStatuses replaces the conference's media flags
func (h *Host) SetVideoControlStatuses(ctx context.Context, caller models.Caller, conferenceID string, statuses []models.VideoControlStatus) (models.Result, error) {
	conf, res, err := h.loadConference(ctx, conferenceID)
	if conf == nil {
		return res, err
	}
	if _, res, ok := authorize(conf, caller); !ok {
		return res, nil
	}
	h.controls.Set(conf.ID, statuses)
	return models.NoContent(), nil
}

// GetVideoControlStatuses returns the conference's media flags
func (h *Host) GetVideoControlStatuses(conferenceID string) []models.VideoControlStatus {
	return h.controls.Get(conferenceID)
}

// CallState reports the last known state of a participant. Unknown or
// expired entries read as NotCallable.
func (h *Host) CallState(conferenceID, participantID string) CallState {
	s, _ := h.states.Get(stateKey(conferenceID, participantID))
	return s
}

func (h *Host) setState(conferenceID, participantID string, s CallState) {
	h.states.Add(stateKey(conferenceID, participantID), s)
}

// lowerHand clears a dismissed participant's raised hand in storage before
// telling clients about it.
func (h *Host) lowerHand(ctx context.Context, conf *models.Conference, participantID string) {
	if err := h.hands.SetHandRaised(ctx, conf.ID, participantID, false); err != nil {
		// the dismissal already happened
		zap.S().Errorw("failed to lower hand",
			"conferenceId", conf.ID,
			"participantId", participantID,
			"error", err)
	} else {
		h.invalidator.Invalidate(conf.ID)
	}
	h.notifier.NotifyHandStatus(conf, participantID, false)
}

func stateKey(conferenceID, participantID string) string {
	return conferenceID + "/" + participantID
}

func (h *Host) raiseDismissalAlert(ctx context.Context, conf *models.Conference, target models.Participant, host *models.Participant) {
	label := target.HearingRole
	if target.IsQuickLinkUser() {
		label = string(target.Role)
	}
	alert := models.AlertTask{
		ID:           uuid.New().String(),
		ConferenceID: conf.ID,
		OriginID:     target.ID,
		Body:         fmt.Sprintf("%s dismissed by %s", label, host.Role),
		Type:         models.AlertTypeParticipant,
		CreatedAt:    h.now(),
		CreatedBy:    host.Username,
	}
	if err := h.alerts.InsertAlert(ctx, alert); err != nil {
		// the dismissal already happened, the clerk just misses the alert
		zap.S().Errorw("failed to raise dismissal alert",
			"conferenceId", conf.ID,
			"participantId", target.ID,
			"error", err)
	}
}

func (h *Host) loadConference(ctx context.Context, id string) (*models.Conference, models.Result, error) {
	conf, err := h.conferences.GetConference(ctx, id)
	if errors.Is(err, conference.ErrNotFound) {
		return nil, models.NotFound(ReasonConferenceNotFound), nil
	}
	if err != nil {
		return nil, models.Result{}, err
	}
	return conf, models.Result{}, nil
}

// authorize is the host gate shared by every operation. It returns the
// caller's host participant.
func authorize(conf *models.Conference, caller models.Caller) (*models.Participant, models.Result, bool) {
	if !caller.IsHost() {
		return nil, models.Unauthorized(ReasonNotHost), false
	}
	mine := conf.FindParticipantByUsername(caller.Username)
	if len(mine) == 0 {
		zap.S().Infow("caller is not assigned to conference",
			"conferenceId", conf.ID,
			"caller", caller.Username)
		return nil, models.Unauthorized(ReasonNotAssigned), false
	}
	host, ok := lo.Find(mine, func(p *models.Participant) bool { return p.IsHost() })
	if !ok {
		host = mine[0]
	}
	return host, models.Result{}, true
}

// representative is the first member of a civilian room that is a participant
func representative(conf *models.Conference, room *models.CivilianRoom) (*models.Participant, error) {
	for _, id := range room.Participants {
		p, err := findParticipant(conf, id)
		if err != nil {
			return nil, err
		}
		if p != nil {
			return p, nil
		}
	}
	return nil, nil
}

func findParticipant(conf *models.Conference, id string) (*models.Participant, error) {
	p, err := conf.Participant(id)
	if err != nil {
		zap.S().Errorw("participant id is not unique",
			"conferenceId", conf.ID,
			"participantId", id)
	}
	return p, err
}
