package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/linesmerrill/video-hearings-api/api"
	"github.com/linesmerrill/video-hearings-api/conference"
	"github.com/linesmerrill/video-hearings-api/config"
	"github.com/linesmerrill/video-hearings-api/hearing"
	"github.com/linesmerrill/video-hearings-api/models"
)

// HostService is the host call and dismiss protocol
type HostService interface {
	CallParticipant(ctx context.Context, caller models.Caller, req models.CallRequest) (models.Result, error)
	DismissParticipant(ctx context.Context, caller models.Caller, req models.DismissRequest) (models.Result, error)
	LeaveHearing(ctx context.Context, caller models.Caller, conferenceID, participantID string) (models.Result, error)
	JoinHearingInSession(ctx context.Context, caller models.Caller, conferenceID, participantID string) (models.Result, error)
	StartOrResumeVideoHearing(ctx context.Context, caller models.Caller, conferenceID string, req models.StartHearingRequest) (models.Result, error)
	SetVideoControlStatuses(ctx context.Context, caller models.Caller, conferenceID string, statuses []models.VideoControlStatus) (models.Result, error)
	GetVideoControlStatuses(conferenceID string) []models.VideoControlStatus
	CallState(conferenceID, participantID string) hearing.CallState
}

// HandStore persists hand raises
type HandStore interface {
	SetHandRaised(ctx context.Context, conferenceID, participantID string, raised bool) error
}

// AlertReader lists the alerts raised for a conference
type AlertReader interface {
	FindByConference(ctx context.Context, conferenceID string) ([]models.AlertTask, error)
}

// Invalidator drops a memoized conference
type Invalidator interface {
	Invalidate(id string)
}

// Hearing exposes the hearing room over HTTP
type Hearing struct {
	Host        HostService
	Conferences conference.Provider
	Hands       HandStore
	Invalidator Invalidator
	Notifier    hearing.HandNotifier
	Alerts      AlertReader
}

// CallParticipantHandler calls a participant into the hearing room
func (h Hearing) CallParticipantHandler(w http.ResponseWriter, r *http.Request) {
	who, ok := caller(w, r)
	if !ok {
		return
	}
	var req models.CallRequest
	if err := decode(r, &req); err != nil {
		config.ErrorStatus("failed to decode call request", http.StatusBadRequest, w, err)
		return
	}

	res, err := h.Host.CallParticipant(r.Context(), who, req)
	writeResult(w, r, "call participant", res, err)
}

// DismissParticipantHandler sends a participant back out of the hearing room
func (h Hearing) DismissParticipantHandler(w http.ResponseWriter, r *http.Request) {
	who, ok := caller(w, r)
	if !ok {
		return
	}
	var req models.DismissRequest
	if err := decode(r, &req); err != nil {
		config.ErrorStatus("failed to decode dismiss request", http.StatusBadRequest, w, err)
		return
	}

	res, err := h.Host.DismissParticipant(r.Context(), who, req)
	writeResult(w, r, "dismiss participant", res, err)
}

// StartHearingHandler starts or resumes the hearing
func (h Hearing) StartHearingHandler(w http.ResponseWriter, r *http.Request) {
	who, ok := caller(w, r)
	if !ok {
		return
	}
	var req models.StartHearingRequest
	if r.ContentLength != 0 {
		if err := decode(r, &req); err != nil {
			config.ErrorStatus("failed to decode start request", http.StatusBadRequest, w, err)
			return
		}
	}

	res, err := h.Host.StartOrResumeVideoHearing(r.Context(), who, mux.Vars(r)["conference_id"], req)
	writeResult(w, r, "start hearing", res, err)
}

// LeaveHearingHandler takes a host out of the hearing room
func (h Hearing) LeaveHearingHandler(w http.ResponseWriter, r *http.Request) {
	who, ok := caller(w, r)
	if !ok {
		return
	}
	vars := mux.Vars(r)

	res, err := h.Host.LeaveHearing(r.Context(), who, vars["conference_id"], vars["participant_id"])
	writeResult(w, r, "leave hearing", res, err)
}

// JoinHearingHandler puts a host into a hearing already in session
func (h Hearing) JoinHearingHandler(w http.ResponseWriter, r *http.Request) {
	who, ok := caller(w, r)
	if !ok {
		return
	}
	vars := mux.Vars(r)

	res, err := h.Host.JoinHearingInSession(r.Context(), who, vars["conference_id"], vars["participant_id"])
	writeResult(w, r, "join hearing", res, err)
}

// CallStateHandler reports the last known call state of a participant
func (h Hearing) CallStateHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	state := h.Host.CallState(vars["conference_id"], vars["participant_id"])
	writeJSON(w, models.CallStateResponse{
		ConferenceID:  vars["conference_id"],
		ParticipantID: vars["participant_id"],
		State:         state.String(),
	})
}

// HandRaiseHandler raises or lowers a hand. Participants may only change
// their own, hosts may change anyone's.
func (h Hearing) HandRaiseHandler(w http.ResponseWriter, r *http.Request) {
	who, ok := caller(w, r)
	if !ok {
		return
	}
	vars := mux.Vars(r)
	conferenceID, participantID := vars["conference_id"], vars["participant_id"]

	var req models.HandRaiseRequest
	if err := decode(r, &req); err != nil {
		config.ErrorStatus("failed to decode hand raise", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	conf, err := h.Conferences.GetConference(ctx, conferenceID)
	if errors.Is(err, conference.ErrNotFound) {
		config.ErrorStatus(hearing.ReasonConferenceNotFound, http.StatusNotFound, w, nil)
		return
	}
	if err != nil {
		config.ErrorStatus("failed to get conference", http.StatusInternalServerError, w, err)
		return
	}
	p, err := conf.Participant(participantID)
	if err != nil {
		config.ErrorStatus("failed to resolve participant", http.StatusInternalServerError, w, err)
		return
	}
	if p == nil {
		config.ErrorStatus(hearing.ReasonParticipantNotFound, http.StatusNotFound, w, nil)
		return
	}
	if !who.Matches(*p) && !who.IsHost() {
		config.ErrorStatus("forbidden", http.StatusForbidden, w, nil)
		return
	}

	if err := h.Hands.SetHandRaised(ctx, conf.ID, p.ID, req.Raised); err != nil {
		config.ErrorStatus("failed to update hand", http.StatusInternalServerError, w, err)
		return
	}
	h.Invalidator.Invalidate(conf.ID)
	h.Notifier.NotifyHandStatus(conf, p.ID, req.Raised)

	zap.S().Debugw("hand status changed",
		"conferenceId", conf.ID,
		"participantId", p.ID,
		"raised", req.Raised)
	w.WriteHeader(http.StatusNoContent)
}

// GetVideoControlsHandler returns the host controlled media flags
func (h Hearing) GetVideoControlsHandler(w http.ResponseWriter, r *http.Request) {
	statuses := h.Host.GetVideoControlStatuses(mux.Vars(r)["conference_id"])
	if statuses == nil {
		statuses = []models.VideoControlStatus{}
	}
	writeJSON(w, statuses)
}

// SetVideoControlsHandler replaces the host controlled media flags
func (h Hearing) SetVideoControlsHandler(w http.ResponseWriter, r *http.Request) {
	who, ok := caller(w, r)
	if !ok {
		return
	}
	var req models.SetVideoControlStatusesRequest
	if err := decode(r, &req); err != nil {
		config.ErrorStatus("failed to decode video control statuses", http.StatusBadRequest, w, err)
		return
	}

	res, err := h.Host.SetVideoControlStatuses(r.Context(), who, mux.Vars(r)["conference_id"], req.Statuses)
	writeResult(w, r, "set video control statuses", res, err)
}

// AlertsHandler lists the alerts raised for a conference
func (h Hearing) AlertsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	alerts, err := h.Alerts.FindByConference(ctx, mux.Vars(r)["conference_id"])
	if err != nil {
		config.ErrorStatus("failed to get alerts", http.StatusInternalServerError, w, err)
		return
	}
	if alerts == nil {
		alerts = []models.AlertTask{}
	}
	writeJSON(w, alerts)
}
