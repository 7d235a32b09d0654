package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/linesmerrill/video-hearings-api/api"
	"github.com/linesmerrill/video-hearings-api/api/scheduler"
	"github.com/linesmerrill/video-hearings-api/conference"
	"github.com/linesmerrill/video-hearings-api/config"
	"github.com/linesmerrill/video-hearings-api/consultation"
	"github.com/linesmerrill/video-hearings-api/databases"
	"github.com/linesmerrill/video-hearings-api/hearing"
	"github.com/linesmerrill/video-hearings-api/models"
	"github.com/linesmerrill/video-hearings-api/notifier"
	"github.com/linesmerrill/video-hearings-api/videobridge"
)

// App stores the router and db connection, so it can be reused
type App struct {
	Router    *mux.Router
	Config    config.Config
	Scheduler *scheduler.Scheduler

	client   databases.ClientHelper
	dbHelper databases.DatabaseHelper
	services Services
}

// Services are the domain components the routes are served by
type Services struct {
	Users        databases.UserDatabase
	Consultation ConsultationService
	Host         HostService
	Conferences  conference.Provider
	Hands        HandStore
	Invalidator  Invalidator
	Notifier     hearing.HandNotifier
	Alerts       AlertReader
	Events       EventServer
}

// New creates a new mux router and all the routes
func (a *App) New() *mux.Router {
	// setup go-guardian for middleware
	m := api.NewMiddlewareDB(a.services.Users, a.Config.JWTSecret, a.Config.TokenTTL)
	m.SetupGoGuardian()

	r := mux.NewRouter()
	r.Use(api.MetricsMiddleware, api.TimeoutMiddleware(a.Config.RequestTimeout))

	c := Consultation{Service: a.services.Consultation}
	h := Hearing{
		Host:        a.services.Host,
		Conferences: a.services.Conferences,
		Hands:       a.services.Hands,
		Invalidator: a.services.Invalidator,
		Notifier:    a.services.Notifier,
		Alerts:      a.services.Alerts,
	}
	e := Events{Hub: a.services.Events}
	mh := MetricsHandler{}

	// healthchex
	r.HandleFunc("/health", healthCheckHandler)

	apiCreate := r.PathPrefix("/api/v1").Subrouter()

	apiCreate.Handle("/auth/token", http.HandlerFunc(m.CreateToken)).Methods("POST")
	apiCreate.Handle("/auth/logout", api.Middleware(http.HandlerFunc(m.RevokeToken))).Methods("DELETE")

	apiCreate.Handle("/consultations/request", api.Middleware(http.HandlerFunc(c.RequestConsultationHandler))).Methods("POST")
	apiCreate.Handle("/consultations/respond", api.Middleware(http.HandlerFunc(c.RespondToConsultationHandler))).Methods("POST")
	apiCreate.Handle("/consultations/invite", api.Middleware(http.HandlerFunc(c.InviteToConsultationHandler))).Methods("POST")
	apiCreate.Handle("/consultations/private", api.Middleware(http.HandlerFunc(c.JoinPrivateConsultationHandler))).Methods("POST")
	apiCreate.Handle("/consultations/leave", api.Middleware(http.HandlerFunc(c.LeaveConsultationHandler))).Methods("POST")
	apiCreate.Handle("/consultations/lock", api.Middleware(http.HandlerFunc(c.LockConsultationRoomHandler))).Methods("POST")
	apiCreate.Handle("/consultations/endpoint", api.Middleware(http.HandlerFunc(c.EndpointConsultationHandler))).Methods("POST")

	apiCreate.Handle("/hearings/call", api.Middleware(http.HandlerFunc(h.CallParticipantHandler))).Methods("POST")
	apiCreate.Handle("/hearings/dismiss", api.Middleware(http.HandlerFunc(h.DismissParticipantHandler))).Methods("POST")
	apiCreate.Handle("/hearings/{conference_id}/start", api.Middleware(http.HandlerFunc(h.StartHearingHandler))).Methods("POST")
	apiCreate.Handle("/hearings/{conference_id}/participants/{participant_id}/leave", api.Middleware(http.HandlerFunc(h.LeaveHearingHandler))).Methods("POST")
	apiCreate.Handle("/hearings/{conference_id}/participants/{participant_id}/join", api.Middleware(http.HandlerFunc(h.JoinHearingHandler))).Methods("POST")
	apiCreate.Handle("/hearings/{conference_id}/participants/{participant_id}/call-state", api.Middleware(http.HandlerFunc(h.CallStateHandler))).Methods("GET")
	apiCreate.Handle("/hearings/{conference_id}/participants/{participant_id}/hand", api.Middleware(http.HandlerFunc(h.HandRaiseHandler))).Methods("PUT")
	apiCreate.Handle("/hearings/{conference_id}/video-controls", api.Middleware(http.HandlerFunc(h.GetVideoControlsHandler))).Methods("GET")
	apiCreate.Handle("/hearings/{conference_id}/video-controls", api.Middleware(http.HandlerFunc(h.SetVideoControlsHandler))).Methods("PUT")
	apiCreate.Handle("/hearings/{conference_id}/alerts", api.Middleware(http.HandlerFunc(h.AlertsHandler))).Methods("GET")

	officer := api.RequireRole(models.RoleVhOfficer)
	apiCreate.Handle("/metrics/summary", api.Middleware(officer(http.HandlerFunc(mh.GetMetricsSummary)))).Methods("GET")
	apiCreate.Handle("/metrics/routes", api.Middleware(officer(http.HandlerFunc(mh.GetRoutesHandler)))).Methods("GET")

	r.Handle("/ws/events", api.Middleware(http.HandlerFunc(e.EventsHandler))).Methods("GET")

	return r
}

// Initialize is invoked by main to connect with the database and create a router
func (a *App) Initialize() error {
	client, err := databases.NewClient(&a.Config)
	if err != nil {
		// if we fail to create a new database client, then kill the pod
		zap.S().With(err).Error("failed to create new client")
		return err
	}
	a.client = client

	ctx, cancel := context.WithTimeout(context.Background(), a.Config.QueryTimeout)
	defer cancel()
	if err := client.Connect(ctx); err != nil {
		// if we fail to connect to the database, then kill the pod
		zap.S().With(err).Error("failed to connect to database")
		return err
	}
	a.dbHelper = databases.Traced(databases.NewDatabase(&a.Config, client), api.RecordDBQuery)
	zap.S().Info("video-hearings-api has connected to the database")

	confDB := databases.NewConferenceDatabase(a.dbHelper)
	taskDB := databases.NewTaskDatabase(a.dbHelper)
	cache := conference.NewCache(confDB, a.Config.ConferenceCacheSize, a.Config.ConferenceCacheTTL)

	bridge := videobridge.NewClient(a.Config.BridgeURL, a.Config.BridgeSecret, a.Config.BridgeTimeout)
	bridge.Observe = api.RecordBridgeCall

	hub := notifier.NewHub(a.Config.WSSendBuffer)
	notif := notifier.New(hub)

	tracker := consultation.NewTracker(a.Config.InvitationExpiry)
	a.Scheduler = scheduler.NewScheduler(tracker, a.Config.SweepSchedule)
	if err := a.Scheduler.Start(); err != nil {
		zap.S().With(err).Error("failed to start invitation sweep")
		return err
	}

	a.services = Services{
		Users:        databases.NewUserDatabase(a.dbHelper),
		Consultation: consultation.NewOrchestrator(cache, tracker, bridge, notif),
		Host:         hearing.NewHost(cache, bridge, notif, taskDB, confDB, cache, conference.NewVideoControlStore()),
		Conferences:  cache,
		Hands:        confDB,
		Invalidator:  cache,
		Notifier:     notif,
		Alerts:       taskDB,
		Events:       hub,
	}

	// initialize api router
	a.initializeRoutes()
	return nil
}

// InitializeWith builds the router over already wired services
func (a *App) InitializeWith(s Services) {
	a.services = s
	a.initializeRoutes()
}

// Shutdown stops the invitation sweep and disconnects from the database
func (a *App) Shutdown(ctx context.Context) error {
	if a.Scheduler != nil {
		a.Scheduler.Stop()
	}
	if a.client == nil {
		return nil
	}
	return a.client.Disconnect(ctx)
}

func (a *App) initializeRoutes() {
	a.Router = a.New()
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	b, _ := json.Marshal(models.HealthCheckResponse{
		Alive: true,
	})
	_, _ = io.WriteString(w, string(b))
}
