package videobridge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/linesmerrill/video-hearings-api/models"
)

const tokenLifetime = 5 * time.Minute

// CallObserver is told about every bridge call, used to attach upstream timings to request traces
type CallObserver func(ctx context.Context, operation, target string, duration time.Duration, err error)

// Client is the HTTP implementation of Gateway
type Client struct {
	baseURL    string
	secret     []byte
	httpClient *http.Client
	now        func() time.Time

	// Observe is optional
	Observe CallObserver
}

// NewClient creates a bridge client signing its requests with secret
func NewClient(baseURL, secret string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		secret:     []byte(secret),
		httpClient: &http.Client{Timeout: timeout},
		now:        time.Now,
	}
}

type transferRequest struct {
	TransferType models.TransferType `json:"transferType"`
}

type joinRequest struct {
	ConferenceID  string `json:"conferenceId"`
	ParticipantID string `json:"participantId,omitempty"`
	EndpointID    string `json:"endpointId,omitempty"`
	RoomLabel     string `json:"roomLabel"`
}

type lockRequest struct {
	ConferenceID string `json:"conferenceId"`
	Lock         bool   `json:"lock"`
}

type startHearingRequest struct {
	ConferenceID     string   `json:"conferenceId"`
	Layout           string   `json:"layout"`
	ForceTransferIDs []string `json:"participantsToForceTransfer"`
	MuteGuests       bool     `json:"muteGuests"`
}

// Transfer calls a participant into, or dismisses them from, the hearing room
func (c *Client) Transfer(ctx context.Context, conferenceID, participantID string, transferType models.TransferType) error {
	path := fmt.Sprintf("/conferences/%s/participants/%s/transfer", url.PathEscape(conferenceID), url.PathEscape(participantID))
	return c.do(ctx, "Transfer", http.MethodPost, path, transferRequest{TransferType: transferType})
}

// JoinParticipantToRoom moves a participant into a consultation room
func (c *Client) JoinParticipantToRoom(ctx context.Context, conferenceID, participantID, roomLabel string) error {
	return c.do(ctx, "JoinParticipantToRoom", http.MethodPost, "/consultations/participants", joinRequest{
		ConferenceID:  conferenceID,
		ParticipantID: participantID,
		RoomLabel:     roomLabel,
	})
}

// JoinEndpointToRoom moves an endpoint into a consultation room
func (c *Client) JoinEndpointToRoom(ctx context.Context, conferenceID, endpointID, roomLabel string) error {
	return c.do(ctx, "JoinEndpointToRoom", http.MethodPost, "/consultations/endpoints", joinRequest{
		ConferenceID: conferenceID,
		EndpointID:   endpointID,
		RoomLabel:    roomLabel,
	})
}

// LockRoom sets the lock flag of a consultation room
func (c *Client) LockRoom(ctx context.Context, conferenceID, roomLabel string, locked bool) error {
	path := fmt.Sprintf("/consultations/rooms/%s/lock", url.PathEscape(roomLabel))
	return c.do(ctx, "LockRoom", http.MethodPatch, path, lockRequest{ConferenceID: conferenceID, Lock: locked})
}

// LeaveRoom takes a participant out of their consultation room
func (c *Client) LeaveRoom(ctx context.Context, conferenceID, participantID, roomLabel string) error {
	return c.do(ctx, "LeaveRoom", http.MethodPost, "/consultations/leave", joinRequest{
		ConferenceID:  conferenceID,
		ParticipantID: participantID,
		RoomLabel:     roomLabel,
	})
}

// StartHearing starts or resumes the hearing, pulling forceTransferIDs into the hearing room
func (c *Client) StartHearing(ctx context.Context, conferenceID, layout string, forceTransferIDs []string, muteGuests bool) error {
	return c.do(ctx, "StartHearing", http.MethodPost, "/hearing/start", startHearingRequest{
		ConferenceID:     conferenceID,
		Layout:           layout,
		ForceTransferIDs: forceTransferIDs,
		MuteGuests:       muteGuests,
	})
}

func (c *Client) token() (string, error) {
	now := c.now()
	claims := jwt.RegisteredClaims{
		Issuer:    "video-hearings-api",
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(tokenLifetime)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

func (c *Client) do(ctx context.Context, operation, method, path string, body interface{}) (err error) {
	start := time.Now()
	defer func() {
		if c.Observe != nil {
			c.Observe(ctx, operation, path, time.Since(start), err)
		}
	}()

	b, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", operation, err)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(b))
	if err != nil {
		return fmt.Errorf("build %s request: %w", operation, err)
	}
	token, err := c.token()
	if err != nil {
		return fmt.Errorf("sign %s request: %w", operation, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		zap.S().Errorw("video bridge unreachable",
			"operation", operation,
			"path", path,
			"error", err)
		return fmt.Errorf("%s: %w", operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		zap.S().Warnw("video bridge rejected request",
			"operation", operation,
			"path", path,
			"status", resp.StatusCode)
		return &ProviderError{StatusCode: resp.StatusCode, Message: string(msg)}
	}
	zap.S().Debugw("video bridge call succeeded",
		"operation", operation,
		"path", path,
		"duration", time.Since(start))
	return nil
}
