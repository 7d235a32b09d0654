package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/linesmerrill/video-hearings-api/api"
	"github.com/linesmerrill/video-hearings-api/api/handlers"
	"github.com/linesmerrill/video-hearings-api/conference"
	"github.com/linesmerrill/video-hearings-api/consultation"
	"github.com/linesmerrill/video-hearings-api/models"
	"github.com/linesmerrill/video-hearings-api/notifier"
	"github.com/linesmerrill/video-hearings-api/videobridge"
	"github.com/linesmerrill/video-hearings-api/videobridge/mocks"
)

type stubProvider struct {
	conf *models.Conference
}

func (s *stubProvider) GetConference(ctx context.Context, id string) (*models.Conference, error) {
	if s.conf == nil || s.conf.ID != id {
		return nil, conference.ErrNotFound
	}
	return s.conf.Clone(), nil
}

func (s *stubProvider) ForceGetConference(ctx context.Context, id string) (*models.Conference, error) {
	return s.GetConference(ctx, id)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events map[string]int
}

func (p *recordingPublisher) Publish(group, event string, payload interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.events == nil {
		p.events = make(map[string]int)
	}
	p.events[event]++
}

func (p *recordingPublisher) count(event string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.events[event]
}

func newRequest(t *testing.T, method, target string, body interface{}, who *models.Caller) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	if who != nil {
		req = req.WithContext(api.WithCaller(req.Context(), *who))
	}
	return req
}

func errorBody(message, detail string) string {
	b, _ := json.Marshal(models.ErrorMessageResponse{Response: models.MessageError{Message: message, Error: detail}})
	return string(b)
}

func consultationConference() *models.Conference {
	return &models.Conference{
		ID: "conf-1",
		Participants: []models.Participant{
			{ID: "a", Username: "a@court.net", Role: models.RoleRepresentative},
			{ID: "b", Username: "b@court.net", Role: models.RoleIndividual},
			{ID: "j", Username: "judge@court.net", Role: models.RoleJudge},
		},
	}
}

type consultationFixture struct {
	bridge    *mocks.Gateway
	publisher *recordingPublisher
	handler   handlers.Consultation
}

func newConsultationFixture(t *testing.T, conf *models.Conference) consultationFixture {
	f := consultationFixture{bridge: mocks.NewGateway(t), publisher: &recordingPublisher{}}
	orch := consultation.NewOrchestrator(&stubProvider{conf: conf}, consultation.NewTracker(time.Minute), f.bridge, notifier.New(f.publisher))
	f.handler = handlers.Consultation{Service: orch}
	return f
}

var (
	representative = models.Caller{Username: "a@court.net", Roles: []string{"Representative"}}
	invitee        = models.Caller{Username: "b@court.net", Roles: []string{"Individual"}}
)

func TestConsultation_RequestThenAcceptTransfers(t *testing.T) {
	f := newConsultationFixture(t, consultationConference())
	f.bridge.On("JoinParticipantToRoom", mock.Anything, "conf-1", "b", "Room1").Return(nil).Once()

	rr := httptest.NewRecorder()
	f.handler.RequestConsultationHandler(rr, newRequest(t, http.MethodPost, "/api/v1/consultations/request", models.ConsultationRequest{
		ConferenceID:   "conf-1",
		RequestedByID:  "a",
		RequestedForID: "b",
		RoomLabel:      "Room1",
	}, &representative))

	require.Equal(t, http.StatusNoContent, rr.Code, rr.Body.String())
	invitationID := rr.Header().Get(handlers.InvitationIDHeader)
	require.NotEmpty(t, invitationID)
	assert.Equal(t, 1, f.publisher.count(notifier.EventRequestedConsultation))

	rr = httptest.NewRecorder()
	f.handler.RespondToConsultationHandler(rr, newRequest(t, http.MethodPost, "/api/v1/consultations/respond", models.ConsultationRequest{
		ConferenceID:   "conf-1",
		RequestedForID: "b",
		RoomLabel:      "Room1",
		InvitationID:   invitationID,
		Answer:         models.AnswerAccepted,
	}, &invitee))

	assert.Equal(t, http.StatusAccepted, rr.Code, rr.Body.String())
	assert.Empty(t, rr.Body.String())
}

func TestConsultation_RequestUnknownConference(t *testing.T) {
	f := newConsultationFixture(t, consultationConference())

	rr := httptest.NewRecorder()
	f.handler.RequestConsultationHandler(rr, newRequest(t, http.MethodPost, "/api/v1/consultations/request", models.ConsultationRequest{
		ConferenceID:   "nope",
		RequestedByID:  "a",
		RequestedForID: "b",
		RoomLabel:      "Room1",
	}, &representative))

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, errorBody(consultation.ReasonConferenceNotFound, ""), rr.Body.String())
}

func TestConsultation_RequestValidation(t *testing.T) {
	f := newConsultationFixture(t, consultationConference())

	rr := httptest.NewRecorder()
	f.handler.RequestConsultationHandler(rr, newRequest(t, http.MethodPost, "/api/v1/consultations/request", models.ConsultationRequest{
		ConferenceID:   "conf-1",
		RequestedForID: "b",
	}, &representative))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, errorBody("failed to decode consultation request", "RoomLabel failed on required"), rr.Body.String())
}

func TestConsultation_UnknownFieldsRejected(t *testing.T) {
	f := newConsultationFixture(t, consultationConference())

	rr := httptest.NewRecorder()
	f.handler.LockConsultationRoomHandler(rr, newRequest(t, http.MethodPost, "/api/v1/consultations/lock",
		map[string]interface{}{"conferenceId": "conf-1", "roomLabel": "Room1", "locked": true}, &representative))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	f.bridge.AssertNotCalled(t, "LockRoom", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestConsultation_RespondToStaleInvitation(t *testing.T) {
	f := newConsultationFixture(t, consultationConference())

	rr := httptest.NewRecorder()
	f.handler.RespondToConsultationHandler(rr, newRequest(t, http.MethodPost, "/api/v1/consultations/respond", models.ConsultationRequest{
		ConferenceID:   "conf-1",
		RequestedForID: "b",
		RoomLabel:      "Room1",
		InvitationID:   "gone",
		Answer:         models.AnswerAccepted,
	}, &invitee))

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, errorBody(consultation.ReasonStaleInvitation, ""), rr.Body.String())
}

func TestConsultation_RespondForSomeoneElseIsUnauthorized(t *testing.T) {
	f := newConsultationFixture(t, consultationConference())

	rr := httptest.NewRecorder()
	f.handler.RequestConsultationHandler(rr, newRequest(t, http.MethodPost, "/api/v1/consultations/request", models.ConsultationRequest{
		ConferenceID:   "conf-1",
		RequestedByID:  "a",
		RequestedForID: "b",
		RoomLabel:      "Room1",
	}, &representative))
	require.Equal(t, http.StatusNoContent, rr.Code, rr.Body.String())
	invitationID := rr.Header().Get(handlers.InvitationIDHeader)

	rr = httptest.NewRecorder()
	f.handler.RespondToConsultationHandler(rr, newRequest(t, http.MethodPost, "/api/v1/consultations/respond", models.ConsultationRequest{
		ConferenceID:   "conf-1",
		RequestedForID: "b",
		RoomLabel:      "Room1",
		InvitationID:   invitationID,
		Answer:         models.AnswerAccepted,
	}, &representative))

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, errorBody(consultation.ReasonCannotRespond, ""), rr.Body.String())
}

func TestConsultation_RequestOnBehalfOfAnotherIsUnauthorized(t *testing.T) {
	f := newConsultationFixture(t, consultationConference())

	rr := httptest.NewRecorder()
	f.handler.RequestConsultationHandler(rr, newRequest(t, http.MethodPost, "/api/v1/consultations/request", models.ConsultationRequest{
		ConferenceID:   "conf-1",
		RequestedByID:  "j",
		RequestedForID: "b",
		RoomLabel:      "Room1",
	}, &representative))

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, errorBody(consultation.ReasonNotRequester, ""), rr.Body.String())
	assert.Zero(t, f.publisher.count(notifier.EventRequestedConsultation))
}

func TestConsultation_LockPassesProviderErrorThrough(t *testing.T) {
	f := newConsultationFixture(t, consultationConference())
	f.bridge.On("LockRoom", mock.Anything, "conf-1", "Room1", true).
		Return(&videobridge.ProviderError{StatusCode: http.StatusConflict, Message: "room is busy"})

	rr := httptest.NewRecorder()
	f.handler.LockConsultationRoomHandler(rr, newRequest(t, http.MethodPost, "/api/v1/consultations/lock",
		models.LockRoomRequest{ConferenceID: "conf-1", RoomLabel: "Room1", Lock: true}, &representative))

	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, errorBody("room is busy", ""), rr.Body.String())
	assert.Zero(t, f.publisher.count(notifier.EventRoomUpdate))
}

func TestConsultation_BridgeFaultIsServerError(t *testing.T) {
	conf := consultationConference()
	conf.Participants[1].CurrentRoom = &models.ConsultationRoom{Label: "Room1"}
	f := newConsultationFixture(t, conf)
	f.bridge.On("LeaveRoom", mock.Anything, "conf-1", "b", "Room1").Return(errors.New("dial tcp: connection refused"))

	rr := httptest.NewRecorder()
	f.handler.LeaveConsultationHandler(rr, newRequest(t, http.MethodPost, "/api/v1/consultations/leave",
		models.LeaveConsultationRequest{ConferenceID: "conf-1", ParticipantID: "b"}, &representative))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, rr.Body.String(), "failed to leave consultation")
}

func TestConsultation_PrivateConsultationMovesCaller(t *testing.T) {
	f := newConsultationFixture(t, consultationConference())
	f.bridge.On("JoinParticipantToRoom", mock.Anything, "conf-1", "a", "Room2").Return(nil).Once()

	rr := httptest.NewRecorder()
	f.handler.JoinPrivateConsultationHandler(rr, newRequest(t, http.MethodPost, "/api/v1/consultations/private",
		models.PrivateConsultationRequest{ConferenceID: "conf-1", ParticipantID: "a", RoomLabel: "Room2"}, &representative))

	assert.Equal(t, http.StatusAccepted, rr.Code, rr.Body.String())
}

func TestConsultation_EndpointNotFound(t *testing.T) {
	f := newConsultationFixture(t, consultationConference())

	rr := httptest.NewRecorder()
	f.handler.EndpointConsultationHandler(rr, newRequest(t, http.MethodPost, "/api/v1/consultations/endpoint",
		models.EndpointConsultationRequest{ConferenceID: "conf-1", EndpointID: "ep-9", RoomLabel: "Room1"}, &representative))

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, errorBody(consultation.ReasonEndpointNotFound, ""), rr.Body.String())
}

func TestConsultation_WithoutCallerIsUnauthorized(t *testing.T) {
	f := newConsultationFixture(t, consultationConference())

	rr := httptest.NewRecorder()
	f.handler.RequestConsultationHandler(rr, newRequest(t, http.MethodPost, "/api/v1/consultations/request", models.ConsultationRequest{
		ConferenceID:   "conf-1",
		RequestedForID: "b",
		RoomLabel:      "Room1",
	}, nil))

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, errorBody("unauthorized", ""), rr.Body.String())
}
