package handlers

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/linesmerrill/video-hearings-api/notifier"
)

// EventServer upgrades a request and subscribes it to groups
type EventServer interface {
	Serve(w http.ResponseWriter, r *http.Request, groups []string) error
}

// Events streams consultation and hearing events over a websocket
type Events struct {
	Hub EventServer
}

// EventsHandler subscribes the caller to their own group, and officers to the admin group too
func (e Events) EventsHandler(w http.ResponseWriter, r *http.Request) {
	who, ok := caller(w, r)
	if !ok {
		return
	}
	groups := []string{strings.ToLower(who.Username)}
	if who.IsVhOfficer() {
		groups = append(groups, notifier.AdminGroup)
	}

	if err := e.Hub.Serve(w, r, groups); err != nil {
		// the upgrader has already written the response
		zap.S().Warnw("failed to open event stream",
			"username", who.Username,
			"error", err)
	}
}
