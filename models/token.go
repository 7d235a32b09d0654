package models

import "time"

// TokenResponse is returned by the token endpoint
type TokenResponse struct {
	Token     string    `json:"token"`
	ID        string    `json:"_id"`
	ExpiresAt time.Time `json:"expiresAt"`
}
