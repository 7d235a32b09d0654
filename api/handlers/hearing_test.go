package handlers_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/linesmerrill/video-hearings-api/api/handlers"
	"github.com/linesmerrill/video-hearings-api/conference"
	dbmocks "github.com/linesmerrill/video-hearings-api/databases/mocks"
	"github.com/linesmerrill/video-hearings-api/hearing"
	hearingmocks "github.com/linesmerrill/video-hearings-api/hearing/mocks"
	"github.com/linesmerrill/video-hearings-api/models"
	"github.com/linesmerrill/video-hearings-api/notifier"
	"github.com/linesmerrill/video-hearings-api/videobridge/mocks"
)

type invalidations struct {
	ids []string
}

func (i *invalidations) Invalidate(id string) { i.ids = append(i.ids, id) }

func hearingConference() *models.Conference {
	return &models.Conference{
		ID:            "conf-1",
		HearingLayout: "Dynamic",
		Participants: []models.Participant{
			{ID: "j", Username: "judge@court.net", Role: models.RoleJudge},
			{ID: "w", Username: "witness@court.net", Role: models.RoleIndividual, HearingRole: models.HearingRoleWitness},
			{ID: "b", Username: "b@court.net", Role: models.RoleIndividual},
		},
	}
}

var judge = models.Caller{Username: "judge@court.net", Roles: []string{"Judge"}}

type hearingFixture struct {
	bridge      *mocks.Gateway
	alerts      *hearingmocks.AlertStore
	hands       *dbmocks.ConferenceDatabase
	tasks       *dbmocks.TaskDatabase
	publisher   *recordingPublisher
	invalidated *invalidations
	handler     handlers.Hearing
}

func newHearingFixture(t *testing.T, conf *models.Conference) hearingFixture {
	f := hearingFixture{
		bridge:      mocks.NewGateway(t),
		alerts:      hearingmocks.NewAlertStore(t),
		hands:       dbmocks.NewConferenceDatabase(t),
		tasks:       dbmocks.NewTaskDatabase(t),
		publisher:   &recordingPublisher{},
		invalidated: &invalidations{},
	}
	provider := &stubProvider{conf: conf}
	notif := notifier.New(f.publisher)
	f.handler = handlers.Hearing{
		Host:        hearing.NewHost(provider, f.bridge, notif, f.alerts, f.hands, f.invalidated, conference.NewVideoControlStore()),
		Conferences: provider,
		Hands:       f.hands,
		Invalidator: f.invalidated,
		Notifier:    notif,
		Alerts:      f.tasks,
	}
	return f
}

func TestHearing_CallWitness(t *testing.T) {
	f := newHearingFixture(t, hearingConference())
	f.bridge.On("Transfer", mock.Anything, "conf-1", "w", models.TransferCall).Return(nil).Once()

	rr := httptest.NewRecorder()
	f.handler.CallParticipantHandler(rr, newRequest(t, http.MethodPost, "/api/v1/hearings/call",
		models.CallRequest{ConferenceID: "conf-1", ParticipantID: "w"}, &judge))
	assert.Equal(t, http.StatusAccepted, rr.Code, rr.Body.String())

	req := mux.SetURLVars(newRequest(t, http.MethodGet, "/api/v1/hearings/conf-1/participants/w/call-state", nil, &judge),
		map[string]string{"conference_id": "conf-1", "participant_id": "w"})
	rr = httptest.NewRecorder()
	f.handler.CallStateHandler(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var state models.CallStateResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &state))
	assert.Equal(t, "InRoom", state.State)
}

func TestHearing_CallNonWitnessIsUnauthorized(t *testing.T) {
	f := newHearingFixture(t, hearingConference())

	rr := httptest.NewRecorder()
	f.handler.CallParticipantHandler(rr, newRequest(t, http.MethodPost, "/api/v1/hearings/call",
		models.CallRequest{ConferenceID: "conf-1", ParticipantID: "b"}, &judge))

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, errorBody(hearing.ReasonNotCallable, ""), rr.Body.String())
}

func TestHearing_CallRequiresHost(t *testing.T) {
	f := newHearingFixture(t, hearingConference())
	individual := models.Caller{Username: "b@court.net", Roles: []string{"Individual"}}

	rr := httptest.NewRecorder()
	f.handler.CallParticipantHandler(rr, newRequest(t, http.MethodPost, "/api/v1/hearings/call",
		models.CallRequest{ConferenceID: "conf-1", ParticipantID: "w"}, &individual))

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, errorBody(hearing.ReasonNotHost, ""), rr.Body.String())
}

func TestHearing_DismissWitnessRaisesAlert(t *testing.T) {
	f := newHearingFixture(t, hearingConference())
	f.bridge.On("Transfer", mock.Anything, "conf-1", "w", models.TransferDismiss).Return(nil).Once()
	f.alerts.On("InsertAlert", mock.Anything, mock.MatchedBy(func(a models.AlertTask) bool {
		return a.Body == "Witness dismissed by Judge" && a.OriginID == "w"
	})).Return(nil).Once()
	f.hands.On("SetHandRaised", mock.Anything, "conf-1", "w", false).Return(nil).Once()

	rr := httptest.NewRecorder()
	f.handler.DismissParticipantHandler(rr, newRequest(t, http.MethodPost, "/api/v1/hearings/dismiss",
		models.DismissRequest{ConferenceID: "conf-1", ParticipantID: "w"}, &judge))

	assert.Equal(t, http.StatusAccepted, rr.Code, rr.Body.String())
	assert.NotZero(t, f.publisher.count(notifier.EventHandRaise))
	assert.Equal(t, []string{"conf-1"}, f.invalidated.ids)
}

func TestHearing_StartWithoutBodyUsesDefaults(t *testing.T) {
	f := newHearingFixture(t, hearingConference())
	f.bridge.On("StartHearing", mock.Anything, "conf-1", "Dynamic", []string{"j"}, true).Return(nil).Once()

	req := mux.SetURLVars(newRequest(t, http.MethodPost, "/api/v1/hearings/conf-1/start", nil, &judge),
		map[string]string{"conference_id": "conf-1"})

	rr := httptest.NewRecorder()
	f.handler.StartHearingHandler(rr, req)

	assert.Equal(t, http.StatusAccepted, rr.Code, rr.Body.String())
}

func TestHearing_LeaveAndJoin(t *testing.T) {
	f := newHearingFixture(t, hearingConference())
	f.bridge.On("Transfer", mock.Anything, "conf-1", "j", models.TransferDismiss).Return(nil).Once()
	f.bridge.On("Transfer", mock.Anything, "conf-1", "j", models.TransferCall).Return(nil).Once()
	vars := map[string]string{"conference_id": "conf-1", "participant_id": "j"}

	rr := httptest.NewRecorder()
	f.handler.LeaveHearingHandler(rr, mux.SetURLVars(newRequest(t, http.MethodPost, "/leave", nil, &judge), vars))
	assert.Equal(t, http.StatusAccepted, rr.Code, rr.Body.String())

	rr = httptest.NewRecorder()
	f.handler.JoinHearingHandler(rr, mux.SetURLVars(newRequest(t, http.MethodPost, "/join", nil, &judge), vars))
	assert.Equal(t, http.StatusAccepted, rr.Code, rr.Body.String())
}

func TestHearing_HandRaise(t *testing.T) {
	tests := []struct {
		name   string
		caller models.Caller
		status int
	}{
		{"own hand", models.Caller{Username: "B@court.net", Roles: []string{"Individual"}}, http.StatusNoContent},
		{"host", judge, http.StatusNoContent},
		{"someone else", models.Caller{Username: "witness@court.net", Roles: []string{"Individual"}}, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newHearingFixture(t, hearingConference())
			if tt.status == http.StatusNoContent {
				f.hands.On("SetHandRaised", mock.Anything, "conf-1", "b", true).Return(nil).Once()
			}

			req := mux.SetURLVars(newRequest(t, http.MethodPut, "/hand", models.HandRaiseRequest{Raised: true}, &tt.caller),
				map[string]string{"conference_id": "conf-1", "participant_id": "b"})
			rr := httptest.NewRecorder()
			f.handler.HandRaiseHandler(rr, req)

			assert.Equal(t, tt.status, rr.Code, rr.Body.String())
			if tt.status == http.StatusNoContent {
				assert.Equal(t, []string{"conf-1"}, f.invalidated.ids)
				assert.NotZero(t, f.publisher.count(notifier.EventHandRaise))
			} else {
				assert.Empty(t, f.invalidated.ids)
			}
		})
	}
}

func TestHearing_HandRaiseStoreFailure(t *testing.T) {
	f := newHearingFixture(t, hearingConference())
	f.hands.On("SetHandRaised", mock.Anything, "conf-1", "b", false).Return(errors.New("mocked-error"))

	req := mux.SetURLVars(newRequest(t, http.MethodPut, "/hand", models.HandRaiseRequest{Raised: false}, &judge),
		map[string]string{"conference_id": "conf-1", "participant_id": "b"})
	rr := httptest.NewRecorder()
	f.handler.HandRaiseHandler(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, errorBody("failed to update hand", "mocked-error"), rr.Body.String())
	assert.Zero(t, f.publisher.count(notifier.EventHandRaise))
}

func TestHearing_VideoControls(t *testing.T) {
	f := newHearingFixture(t, hearingConference())
	vars := map[string]string{"conference_id": "conf-1"}
	statuses := []models.VideoControlStatus{{ParticipantID: "w", IsSpotlighted: true}}

	rr := httptest.NewRecorder()
	f.handler.GetVideoControlsHandler(rr, mux.SetURLVars(newRequest(t, http.MethodGet, "/video-controls", nil, &judge), vars))
	assert.Equal(t, "[]", rr.Body.String())

	rr = httptest.NewRecorder()
	f.handler.SetVideoControlsHandler(rr, mux.SetURLVars(newRequest(t, http.MethodPut, "/video-controls",
		models.SetVideoControlStatusesRequest{Statuses: statuses}, &judge), vars))
	require.Equal(t, http.StatusNoContent, rr.Code, rr.Body.String())

	rr = httptest.NewRecorder()
	f.handler.GetVideoControlsHandler(rr, mux.SetURLVars(newRequest(t, http.MethodGet, "/video-controls", nil, &judge), vars))
	var got []models.VideoControlStatus
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, statuses, got)
}

func TestHearing_VideoControlsValidation(t *testing.T) {
	f := newHearingFixture(t, hearingConference())

	rr := httptest.NewRecorder()
	f.handler.SetVideoControlsHandler(rr, mux.SetURLVars(newRequest(t, http.MethodPut, "/video-controls",
		models.SetVideoControlStatusesRequest{Statuses: []models.VideoControlStatus{{IsSpotlighted: true}}}, &judge),
		map[string]string{"conference_id": "conf-1"}))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, errorBody("failed to decode video control statuses", "ParticipantID failed on required"), rr.Body.String())
}

func TestHearing_Alerts(t *testing.T) {
	f := newHearingFixture(t, hearingConference())
	f.tasks.On("FindByConference", mock.Anything, "conf-1").Return([]models.AlertTask{{ID: "t-1", Body: "Witness dismissed by Judge"}}, nil)

	rr := httptest.NewRecorder()
	f.handler.AlertsHandler(rr, mux.SetURLVars(newRequest(t, http.MethodGet, "/alerts", nil, &judge),
		map[string]string{"conference_id": "conf-1"}))

	require.Equal(t, http.StatusOK, rr.Code)
	var got []models.AlertTask
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "t-1", got[0].ID)
}
