package logging

import (
	"strings"

	"go.uber.org/zap"
)

// New creates a zap logger for the environment. Production logs JSON at info,
// development logs human readable at debug, anything else gets the example logger.
func New(env string) (*zap.Logger, error) {
	switch strings.ToLower(env) {
	case "production", "prod":
		return zap.NewProduction()
	case "development", "dev":
		return zap.NewDevelopment()
	}
	return zap.NewExample(), nil
}
