package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap"

	"github.com/linesmerrill/video-hearings-api/models"
)

// Config holds the project config values
type Config struct {
	Env          string        `envconfig:"APP_ENV" default:"development"`
	Port         string        `envconfig:"PORT" default:"8080"`
	BaseURL      string        `envconfig:"BASE_URL"`
	URL          string        `envconfig:"DB_URI" required:"true"`
	DatabaseName string        `envconfig:"DB_NAME" required:"true"`
	QueryTimeout time.Duration `envconfig:"DB_QUERY_TIMEOUT" default:"10s"`

	JWTSecret string        `envconfig:"JWT_SECRET" required:"true"`
	TokenTTL  time.Duration `envconfig:"TOKEN_TTL" default:"12h"`

	BridgeURL     string        `envconfig:"VIDEO_BRIDGE_URL" required:"true"`
	BridgeSecret  string        `envconfig:"VIDEO_BRIDGE_SECRET"`
	BridgeTimeout time.Duration `envconfig:"VIDEO_BRIDGE_TIMEOUT" default:"15s"`

	ConferenceCacheTTL  time.Duration `envconfig:"CONFERENCE_CACHE_TTL" default:"30s"`
	ConferenceCacheSize int           `envconfig:"CONFERENCE_CACHE_SIZE" default:"512"`

	InvitationExpiry time.Duration `envconfig:"INVITATION_EXPIRY" default:"5m"`
	SweepSchedule    string        `envconfig:"INVITATION_SWEEP_SCHEDULE" default:"@every 30s"`

	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"30s"`
	WSSendBuffer   int           `envconfig:"WS_SEND_BUFFER" default:"64"`
}

// New sets up all config related services. A .env file is loaded when present.
func New() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	conf := &Config{}
	if err := envconfig.Process("", conf); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}
	if conf.BridgeSecret == "" {
		conf.BridgeSecret = conf.JWTSecret
	}

	//setup zap logger and replace default logger
	if _, err := setLogger(conf.Env); err != nil {
		return nil, fmt.Errorf("set logger: %w", err)
	}
	return conf, nil
}

// ErrorStatus is a useful function that will log, write http headers and body for a
// give message, status code and err
func ErrorStatus(message string, httpStatusCode int, w http.ResponseWriter, err error) {
	zap.S().Errorw(message, "status", httpStatusCode, "error", err)

	resp := models.ErrorMessageResponse{Response: models.MessageError{Message: message}}
	if err != nil {
		resp.Response.Error = err.Error()
	}
	b, _ := json.Marshal(resp)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatusCode)
	_, _ = w.Write(b)
}
