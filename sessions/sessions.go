// Package sessions issues and resolves login sessions. Tokens are signed JWTs
// whose payload is kept in redis for the lifetime of the session.
package sessions

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"solarcatalog/models"

	"github.com/dgrijalva/jwt-go"
	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Key layout: session:<token> and refresh:<refresh-token> hold the session
// payload, auth:<email> holds the current token, reset:<token> a user id.
const (
	sessionPrefix = "session:"
	authPrefix    = "auth:"
	refreshPrefix = "refresh:"
	resetPrefix   = "reset:"

	ResetTTL = 30 * time.Minute
)

type Manager struct {
	Redis *redis.Client
	TTL   time.Duration

	key []byte
}

// NewManager expects sessionKey base64 encoded.
func NewManager(client *redis.Client, sessionKey string, ttl time.Duration) (*Manager, error) {
	key, err := base64.StdEncoding.DecodeString(sessionKey)
	if err != nil {
		return nil, errors.Wrap(err, "decode session key")
	}
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Manager{Redis: client, TTL: ttl, key: key}, nil
}

// BearerToken strips the "Bearer " scheme. ok is false when the scheme is
// missing.
func BearerToken(header string) (token string, ok bool) {
	if !strings.HasPrefix(header, "Bearer ") {
		return "", false
	}
	return strings.TrimPrefix(header, "Bearer "), true
}

// Create starts a session for user, dropping any previous session of the same
// email, and returns the "Bearer ..." token.
func (m *Manager) Create(ctx context.Context, user models.User) (string, error) {
	oldToken, _ := m.Redis.Get(ctx, authPrefix+user.Email).Result()
	if oldToken != "" {
		zap.L().Debug("sessions: removing old session", zap.String("email", user.Email))
		m.dropSession(ctx, oldToken)
	}

	mac := hmac.New(sha256.New, m.key)
	mac.Write([]byte(user.Id))
	mac.Write(m.key)

	token := jwt.New(jwt.SigningMethodHS256)
	claims := token.Claims.(jwt.MapClaims)
	claims["user-id"] = user.Id
	claims["session-id"] = base64.StdEncoding.EncodeToString(mac.Sum(nil))
	claims["jti"] = tokenGenerator()
	claims["iat"] = time.Now().Unix()
	claims["expires"] = int(m.TTL.Seconds())

	refreshToken, err := token.SignedString(m.key)
	if err != nil {
		return "", errors.Wrap(err, "sign refresh token")
	}
	claims["refresh-token"] = refreshToken
	claims["user"] = user

	payload, err := json.Marshal(claims)
	if err != nil {
		return "", errors.Wrap(err, "encode session")
	}

	tokenString, err := token.SignedString(m.key)
	if err != nil {
		return "", errors.Wrap(err, "sign token")
	}

	entries := [][2]string{
		{sessionPrefix + tokenString, string(payload)},
		{refreshPrefix + refreshToken, string(payload)},
		{authPrefix + user.Email, tokenString},
	}
	for _, e := range entries {
		if err := m.Redis.Set(ctx, e[0], e[1], m.TTL).Err(); err != nil {
			return "", err
		}
	}

	return fmt.Sprintf("Bearer %s", tokenString), nil
}

// Resolve returns the session behind a bearer token. A missing or expired
// session is ErrUnauthenticated; redis failures are returned as is.
func (m *Manager) Resolve(ctx context.Context, bearer string) (*models.SessionPayload, error) {
	token, ok := BearerToken(bearer)
	if !ok || token == "" {
		return nil, models.ErrUnauthenticated
	}

	raw, err := m.Redis.Get(ctx, sessionPrefix+token).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, models.ErrUnauthenticated
		}
		return nil, err
	}

	if raw == "" {
		return nil, models.ErrUnauthenticated
	}

	var payload models.SessionPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, errors.Wrap(err, "decode session")
	}

	return &payload, nil
}

// Active reports whether email still owns a live session.
func (m *Manager) Active(ctx context.Context, email string) error {
	err := m.Redis.Get(ctx, authPrefix+email).Err()
	if err == redis.Nil {
		return models.ErrUnauthenticated
	}
	return err
}

// Refresh issues a new token for the session that owns payload's refresh
// token. The refresh token is single use.
func (m *Manager) Refresh(ctx context.Context, payload models.SessionPayload) (models.AuthResponse, error) {
	var resp models.AuthResponse

	if payload.RefreshToken == "" {
		return resp, models.ErrUnauthenticated
	}

	key := refreshPrefix + payload.RefreshToken

	raw, err := m.Redis.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return resp, models.ErrUnauthenticated
		}
		return resp, err
	}

	// a concurrent refresh already used it
	if n, err := m.Redis.Del(ctx, key).Result(); err != nil {
		return resp, err
	} else if n == 0 {
		return resp, models.ErrUnauthenticated
	}

	var stored models.SessionPayload
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		return resp, err
	}

	if err := m.Active(ctx, stored.Email); err != nil {
		return resp, err
	}

	resp.User = stored.User
	resp.Token, err = m.Create(ctx, stored.User)
	return resp, err
}

// Destroy signs the session out: the token, its refresh token and the email
// index are all removed.
func (m *Manager) Destroy(ctx context.Context, bearer string, payload models.SessionPayload) error {
	token, _ := BearerToken(bearer)

	keys := []string{sessionPrefix + token, refreshPrefix + payload.RefreshToken, authPrefix + payload.Email}
	for _, k := range keys {
		if err := m.Redis.Del(ctx, k).Err(); err != nil {
			return err
		}
	}

	return nil
}

// dropSession removes a replaced access token and its refresh token.
// Failures only leave keys behind until their TTL.
func (m *Manager) dropSession(ctx context.Context, token string) {
	keys := []string{sessionPrefix + token}

	if raw, err := m.Redis.Get(ctx, sessionPrefix+token).Result(); err == nil {
		var old models.SessionPayload
		if json.Unmarshal([]byte(raw), &old) == nil && old.RefreshToken != "" {
			keys = append(keys, refreshPrefix+old.RefreshToken)
		}
	}

	if err := m.Redis.Del(ctx, keys...).Err(); err != nil {
		zap.L().Warn("sessions: drop old session failed", zap.Error(err))
	}
}

// CreateResetToken stores a single use password reset token for userID.
func (m *Manager) CreateResetToken(ctx context.Context, userID string) (string, error) {
	token := tokenGenerator()
	if err := m.Redis.Set(ctx, resetPrefix+token, userID, ResetTTL).Err(); err != nil {
		return "", err
	}
	return token, nil
}

func (m *Manager) ResetTokenUser(ctx context.Context, token string) (string, error) {
	userID, err := m.Redis.Get(ctx, resetPrefix+token).Result()
	if err == redis.Nil || (err == nil && userID == "") {
		return "", models.ErrNotFound
	}
	return userID, err
}

func (m *Manager) ConsumeResetToken(ctx context.Context, token string) error {
	return m.Redis.Del(ctx, resetPrefix+token).Err()
}

func tokenGenerator() string {
	b := make([]byte, 32)
	rand.Read(b)
	return fmt.Sprintf("%x", b)
}
