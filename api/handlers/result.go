package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/linesmerrill/video-hearings-api/api"
	"github.com/linesmerrill/video-hearings-api/config"
	"github.com/linesmerrill/video-hearings-api/models"
)

// InvitationIDHeader carries the id an invitee answers with
const InvitationIDHeader = "X-Invitation-Id"

// maxBody bounds request bodies
const maxBody = 1 << 20

var validate = validator.New()

// decode reads a JSON body into v and validates it
func decode(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid body: %w", err)
	}
	if err := validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("%s failed on %s", verrs[0].Field(), verrs[0].Tag())
		}
		return err
	}
	return nil
}

// caller returns the authenticated caller, writing a 401 when there is none
func caller(w http.ResponseWriter, r *http.Request) (models.Caller, bool) {
	c, ok := api.CallerFromContext(r.Context())
	if !ok {
		config.ErrorStatus("unauthorized", http.StatusUnauthorized, w, nil)
	}
	return c, ok
}

// writeResult renders a Result. Faults go through config.ErrorStatus as a 500.
func writeResult(w http.ResponseWriter, r *http.Request, operation string, res models.Result, err error) {
	if err != nil {
		zap.S().Errorw("operation failed",
			"operation", operation,
			"path", r.URL.Path,
			"error", err)
		config.ErrorStatus(fmt.Sprintf("failed to %s", operation), http.StatusInternalServerError, w, err)
		return
	}

	if res.InvitationID != "" {
		w.Header().Set(InvitationIDHeader, res.InvitationID)
	}
	status := res.HTTPStatus()
	if res.IsSuccess() {
		w.WriteHeader(status)
		return
	}

	b, _ := json.Marshal(models.ErrorMessageResponse{Response: models.MessageError{Message: res.Reason}})
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(b)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	b, err := json.Marshal(v)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}
