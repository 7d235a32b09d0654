package handlers

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/linesmerrill/video-hearings-api/config"
	"github.com/linesmerrill/video-hearings-api/models"
)

// ConsultationService runs private consultations between participants
type ConsultationService interface {
	RequestConsultation(ctx context.Context, caller models.Caller, req models.ConsultationRequest) (models.Result, error)
	RespondToConsultation(ctx context.Context, caller models.Caller, req models.ConsultationRequest) (models.Result, error)
	AddEndpointToConsultation(ctx context.Context, caller models.Caller, conferenceID, endpointID, roomLabel, requestedByID string) (models.Result, error)
	InviteToConsultation(ctx context.Context, caller models.Caller, conferenceID, roomLabel, requestedByID, requestedForID string) (models.Result, error)
	JoinPrivateConsultation(ctx context.Context, caller models.Caller, conferenceID, participantID, roomLabel string) (models.Result, error)
	LeaveConsultation(ctx context.Context, conferenceID, participantID string) (models.Result, error)
	LockConsultationRoom(ctx context.Context, conferenceID, roomLabel string, lock bool) (models.Result, error)
}

// Consultation exposes consultation rooms over HTTP
type Consultation struct {
	Service ConsultationService
}

// RequestConsultationHandler invites a participant and anyone linked to them into a room
func (c Consultation) RequestConsultationHandler(w http.ResponseWriter, r *http.Request) {
	who, ok := caller(w, r)
	if !ok {
		return
	}
	var req models.ConsultationRequest
	if err := decode(r, &req); err != nil {
		config.ErrorStatus("failed to decode consultation request", http.StatusBadRequest, w, err)
		return
	}
	zap.S().Debugw("consultation requested",
		"conferenceId", req.ConferenceID,
		"requestedFor", req.RequestedForID,
		"roomLabel", req.RoomLabel)

	res, err := c.Service.RequestConsultation(r.Context(), who, req)
	writeResult(w, r, "request consultation", res, err)
}

// RespondToConsultationHandler records an invitee's answer
func (c Consultation) RespondToConsultationHandler(w http.ResponseWriter, r *http.Request) {
	who, ok := caller(w, r)
	if !ok {
		return
	}
	var req models.ConsultationRequest
	if err := decode(r, &req); err != nil {
		config.ErrorStatus("failed to decode consultation response", http.StatusBadRequest, w, err)
		return
	}

	res, err := c.Service.RespondToConsultation(r.Context(), who, req)
	writeResult(w, r, "respond to consultation", res, err)
}

// InviteToConsultationHandler invites one participant into a room someone is already in
func (c Consultation) InviteToConsultationHandler(w http.ResponseWriter, r *http.Request) {
	who, ok := caller(w, r)
	if !ok {
		return
	}
	var req models.InviteToConsultationRequest
	if err := decode(r, &req); err != nil {
		config.ErrorStatus("failed to decode invite", http.StatusBadRequest, w, err)
		return
	}

	res, err := c.Service.InviteToConsultation(r.Context(), who, req.ConferenceID, req.RoomLabel, req.RequestedByID, req.ParticipantID)
	writeResult(w, r, "invite to consultation", res, err)
}

// JoinPrivateConsultationHandler moves a participant into a room of their own choosing
func (c Consultation) JoinPrivateConsultationHandler(w http.ResponseWriter, r *http.Request) {
	who, ok := caller(w, r)
	if !ok {
		return
	}
	var req models.PrivateConsultationRequest
	if err := decode(r, &req); err != nil {
		config.ErrorStatus("failed to decode private consultation", http.StatusBadRequest, w, err)
		return
	}

	res, err := c.Service.JoinPrivateConsultation(r.Context(), who, req.ConferenceID, req.ParticipantID, req.RoomLabel)
	writeResult(w, r, "join private consultation", res, err)
}

// LeaveConsultationHandler takes a participant out of their consultation room
func (c Consultation) LeaveConsultationHandler(w http.ResponseWriter, r *http.Request) {
	var req models.LeaveConsultationRequest
	if err := decode(r, &req); err != nil {
		config.ErrorStatus("failed to decode leave request", http.StatusBadRequest, w, err)
		return
	}

	res, err := c.Service.LeaveConsultation(r.Context(), req.ConferenceID, req.ParticipantID)
	writeResult(w, r, "leave consultation", res, err)
}

// LockConsultationRoomHandler locks or unlocks a room
func (c Consultation) LockConsultationRoomHandler(w http.ResponseWriter, r *http.Request) {
	var req models.LockRoomRequest
	if err := decode(r, &req); err != nil {
		config.ErrorStatus("failed to decode lock request", http.StatusBadRequest, w, err)
		return
	}

	res, err := c.Service.LockConsultationRoom(r.Context(), req.ConferenceID, req.RoomLabel, req.Lock)
	writeResult(w, r, "lock consultation room", res, err)
}

// EndpointConsultationHandler brings a video endpoint into a room
func (c Consultation) EndpointConsultationHandler(w http.ResponseWriter, r *http.Request) {
	who, ok := caller(w, r)
	if !ok {
		return
	}
	var req models.EndpointConsultationRequest
	if err := decode(r, &req); err != nil {
		config.ErrorStatus("failed to decode endpoint consultation", http.StatusBadRequest, w, err)
		return
	}

	res, err := c.Service.AddEndpointToConsultation(r.Context(), who, req.ConferenceID, req.EndpointID, req.RoomLabel, req.RequestedByID)
	writeResult(w, r, "add endpoint to consultation", res, err)
}
