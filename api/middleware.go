package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/shaj13/go-guardian/auth"
	"github.com/shaj13/go-guardian/auth/strategies/basic"
	"github.com/shaj13/go-guardian/auth/strategies/bearer"
	"github.com/shaj13/go-guardian/store"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/linesmerrill/video-hearings-api/config"
	"github.com/linesmerrill/video-hearings-api/databases"
	"github.com/linesmerrill/video-hearings-api/models"
)

const (
	tokenIssuer = "video-hearings-api"
	// cacheTTL bounds how long a verified token skips signature checks
	cacheTTL = 5 * time.Minute
	// accessTokenParam carries the bearer token for websocket clients that cannot set headers
	accessTokenParam = "access_token"
)

// MiddlewareDB is a struct that holds the database
type MiddlewareDB struct {
	DB       databases.UserDatabase
	Secret   []byte
	TokenTTL time.Duration

	revoked *expirable.LRU[string, struct{}]
}

var authenticator auth.Authenticator
var cache store.Cache

type tokenClaims struct {
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

// NewMiddlewareDB creates the auth middleware state. Revoked token ids are
// remembered for as long as a token can live.
func NewMiddlewareDB(db databases.UserDatabase, secret string, ttl time.Duration) MiddlewareDB {
	return MiddlewareDB{
		DB:       db,
		Secret:   []byte(secret),
		TokenTTL: ttl,
		revoked:  expirable.NewLRU[string, struct{}](10000, nil, ttl),
	}
}

// Middleware authenticates the request and stores the caller on its context
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			if token := r.URL.Query().Get(accessTokenParam); token != "" {
				r = r.Clone(r.Context())
				r.Header.Set("Authorization", "Bearer "+token)
			}
		}

		user, err := authenticator.Authenticate(r)
		if err != nil {
			zap.S().Infow("unauthorized",
				"url", r.URL.Path,
				"error", err)
			config.ErrorStatus("unauthorized", http.StatusUnauthorized, w, nil)
			return
		}
		zap.S().Debugw("user authenticated", "username", user.UserName())

		caller := models.Caller{Username: user.UserName(), Roles: user.Groups()}
		next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), caller)))
	})
}

// RequireRole only lets callers holding role through
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller, ok := CallerFromContext(r.Context())
			if !ok || !caller.HasRole(role) {
				config.ErrorStatus("forbidden", http.StatusForbidden, w, fmt.Errorf("requires role %s", role))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// CreateToken exchanges basic credentials for a signed bearer token
func (m MiddlewareDB) CreateToken(w http.ResponseWriter, r *http.Request) {
	if _, _, ok := r.BasicAuth(); !ok {
		config.ErrorStatus("basic auth required", http.StatusUnauthorized, w, nil)
		return
	}
	info, err := authenticator.Strategy(basic.StrategyKey).Authenticate(r.Context(), r)
	if err != nil {
		config.ErrorStatus("invalid credentials", http.StatusUnauthorized, w, nil)
		return
	}

	token, expiresAt, err := m.issue(info)
	if err != nil {
		config.ErrorStatus("failed to sign token", http.StatusInternalServerError, w, err)
		return
	}
	if err := auth.Append(authenticator.Strategy(bearer.CachedStrategyKey), token, info, r); err != nil {
		zap.S().Warnw("failed to cache issued token", "error", err)
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(models.TokenResponse{Token: token, ID: info.ID(), ExpiresAt: expiresAt})
}

// SetupGoGuardian sets up the go-guardian middleware
func (m MiddlewareDB) SetupGoGuardian() {
	authenticator = auth.New()
	cache = store.NewFIFO(context.Background(), cacheTTL)
	basicStrategy := basic.New(m.ValidateUser, cache)
	tokenStrategy := bearer.New(m.VerifyToken, cache)

	authenticator.EnableStrategy(basic.StrategyKey, basicStrategy)
	authenticator.EnableStrategy(bearer.CachedStrategyKey, tokenStrategy)
}

// ValidateUser checks basic credentials against the users collection
func (m MiddlewareDB) ValidateUser(ctx context.Context, r *http.Request, username, password string) (auth.Info, error) {
	ctx, cancel := WithQueryTimeout(ctx)
	defer cancel()

	user, err := m.DB.FindByUsername(ctx, username)
	if errors.Is(err, databases.ErrUserNotFound) {
		return nil, fmt.Errorf("invalid credentials")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Details.Password), []byte(password)); err != nil {
		return nil, fmt.Errorf("invalid credentials")
	}
	return auth.NewDefaultUser(user.Details.Username, user.ID, user.Details.Roles, nil), nil
}

// VerifyToken checks a bearer token's signature, expiry and revocation
func (m MiddlewareDB) VerifyToken(ctx context.Context, r *http.Request, token string) (auth.Info, error) {
	claims := &tokenClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return m.Secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(tokenIssuer))
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	if m.revoked != nil && m.revoked.Contains(claims.ID) {
		return nil, fmt.Errorf("token revoked")
	}
	return auth.NewDefaultUser(claims.Subject, claims.ID, claims.Roles, nil), nil
}

func (m MiddlewareDB) issue(info auth.Info) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(m.TokenTTL)
	claims := tokenClaims{
		Roles: info.Groups(),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Issuer:    tokenIssuer,
			Subject:   info.UserName(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.Secret)
	return signed, expiresAt, err
}

// RevokeToken revokes the bearer token the request was made with
func (m MiddlewareDB) RevokeToken(w http.ResponseWriter, r *http.Request) {
	reqToken, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || reqToken == "" {
		config.ErrorStatus("bearer token required", http.StatusBadRequest, w, nil)
		return
	}

	if info, err := m.VerifyToken(r.Context(), r, reqToken); err == nil && m.revoked != nil {
		m.revoked.Add(info.ID(), struct{}{})
	}
	if err := auth.Revoke(authenticator.Strategy(bearer.CachedStrategyKey), reqToken, r); err != nil {
		zap.S().Warnw("failed to drop revoked token from cache", "error", err)
	}
	w.WriteHeader(http.StatusNoContent)
}
