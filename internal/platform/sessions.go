// internal/platform/sessions.go
package platform

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"talent-intake/internal/common/auth"
	"talent-intake/internal/common/errors"
	"talent-intake/internal/common/logger"
	"talent-intake/internal/common/metrics"
	"talent-intake/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Authenticator is the identity provider behind sign-in.
type Authenticator interface {
	PasswordGrant(ctx context.Context, email, password string) (*auth.TokenResponse, error)
	ValidateToken(ctx context.Context, token string) (*auth.TokenInfo, error)
	Logout(ctx context.Context, refreshToken string) error
}

// ProfileLookup resolves the dashboard role of a user.
type ProfileLookup interface {
	GetProfile(ctx context.Context, id string) (*models.Profile, error)
}

// SessionManager owns recruiter sessions. Sessions live in Redis under session:<id>; every
// change is published on the events channel and fanned out to observers by Watch.
type SessionManager struct {
	redis    redis.UniversalClient
	auth     Authenticator
	profiles ProfileLookup
	ttl      time.Duration
	channel  string
	logger   logger.Logger

	mu        sync.RWMutex
	observers map[uint64]func(models.SessionEvent)
	nextID    uint64
}

func NewSessionManager(rdb redis.UniversalClient, authn Authenticator, profiles ProfileLookup, ttl time.Duration, channel string, log logger.Logger) *SessionManager {
	if ttl <= 0 {
		ttl = 8 * time.Hour
	}
	if channel == "" {
		channel = "session-events"
	}
	return &SessionManager{
		redis:     rdb,
		auth:      authn,
		profiles:  profiles,
		ttl:       ttl,
		channel:   channel,
		logger:    logger.ForComponent(log, "sessions"),
		observers: make(map[uint64]func(models.SessionEvent)),
	}
}

func sessionKey(id string) string {
	return "session:" + id
}

func userSessionsKey(userID string) string {
	return "session:user:" + userID
}

// SignIn authenticates against the identity provider and opens a session. The role comes
// from the user's profile; users without one are guests.
func (m *SessionManager) SignIn(ctx context.Context, email, password string) (*models.Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, errors.NewAuthenticationError("email and password are required")
	}

	tokens, err := m.auth.PasswordGrant(ctx, email, password)
	if err != nil {
		return nil, err
	}

	info, err := m.auth.ValidateToken(ctx, tokens.AccessToken)
	if err != nil {
		return nil, err
	}

	role := models.RoleGuest
	profile, err := m.profiles.GetProfile(ctx, info.Sub)
	switch {
	case err != nil:
		m.logger.Warn("profile lookup failed, signing in as guest", map[string]interface{}{
			"userId": info.Sub,
			"error":  err,
		})
	case profile != nil && profile.Role.Valid():
		role = profile.Role
	}

	now := time.Now().UTC()
	ttl := m.ttl
	if tokens.RefreshExpiresIn > 0 && time.Duration(tokens.RefreshExpiresIn)*time.Second < ttl {
		ttl = time.Duration(tokens.RefreshExpiresIn) * time.Second
	}

	sess := &models.Session{
		ID:           uuid.New().String(),
		UserID:       info.Sub,
		Email:        email,
		Role:         role,
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		CreatedAt:    now,
		ExpiresAt:    now.Add(ttl),
	}

	if err := m.store(ctx, sess, ttl); err != nil {
		return nil, err
	}
	if err := m.redis.SAdd(ctx, userSessionsKey(sess.UserID), sess.ID).Err(); err != nil {
		m.logger.Warn("failed to index session by user", map[string]interface{}{"error": err})
	}

	m.logger.Info("recruiter signed in", map[string]interface{}{
		"userId":    sess.UserID,
		"sessionId": sess.ID,
		"role":      sess.Role,
	})
	m.publish(ctx, models.SessionEvent{Type: models.SessionSignedIn, SessionID: sess.ID, UserID: sess.UserID, Role: sess.Role})
	return sess, nil
}

func (m *SessionManager) store(ctx context.Context, sess *models.Session, ttl time.Duration) error {
	data, err := json.Marshal(sess.ToStored())
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := m.redis.Set(ctx, sessionKey(sess.ID), data, ttl).Err(); err != nil {
		return errors.NewExternalServiceError("redis", err)
	}
	return nil
}

// GetSession returns the session for id, or nil when there is none or it expired.
func (m *SessionManager) GetSession(ctx context.Context, id string) (*models.Session, error) {
	if id == "" {
		return nil, nil
	}

	data, err := m.redis.Get(ctx, sessionKey(id)).Bytes()
	if stderrors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.NewFetchFailedError("session", err)
	}

	var stored models.StoredSession
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}

	sess := stored.ToSession()
	if sess.IsExpired() {
		return nil, nil
	}
	return sess, nil
}

// SignOut ends the session. Revoking the refresh token is best effort.
func (m *SessionManager) SignOut(ctx context.Context, id string) error {
	sess, err := m.GetSession(ctx, id)
	if err != nil {
		return err
	}
	if sess == nil {
		return nil
	}

	if sess.RefreshToken != "" {
		if err := m.auth.Logout(ctx, sess.RefreshToken); err != nil {
			m.logger.Warn("identity provider logout failed", map[string]interface{}{
				"sessionId": id,
				"error":     err,
			})
		}
	}

	if err := m.redis.Del(ctx, sessionKey(id)).Err(); err != nil {
		return errors.NewExternalServiceError("redis", err)
	}
	m.redis.SRem(ctx, userSessionsKey(sess.UserID), id)

	m.logger.Info("recruiter signed out", map[string]interface{}{
		"userId":    sess.UserID,
		"sessionId": id,
	})
	m.publish(ctx, models.SessionEvent{Type: models.SessionSignedOut, SessionID: id, UserID: sess.UserID})
	return nil
}

// ApplyRoleChange rewrites the role on every live session of userID and returns how many
// sessions were updated.
func (m *SessionManager) ApplyRoleChange(ctx context.Context, userID string, role models.UserRole) (int, error) {
	ids, err := m.redis.SMembers(ctx, userSessionsKey(userID)).Result()
	if err != nil {
		return 0, errors.NewFetchFailedError("user sessions", err)
	}

	updated := 0
	for _, id := range ids {
		sess, err := m.GetSession(ctx, id)
		if err != nil {
			return updated, err
		}
		if sess == nil {
			m.redis.SRem(ctx, userSessionsKey(userID), id)
			continue
		}

		sess.Role = role
		data, err := json.Marshal(sess.ToStored())
		if err != nil {
			return updated, fmt.Errorf("marshal session: %w", err)
		}
		if err := m.redis.Set(ctx, sessionKey(id), data, redis.KeepTTL).Err(); err != nil {
			return updated, errors.NewExternalServiceError("redis", err)
		}
		updated++
		m.publish(ctx, models.SessionEvent{Type: models.SessionRoleChanged, SessionID: id, UserID: userID, Role: role})
	}
	return updated, nil
}

// OnSessionChange registers fn for every session event and returns its unsubscribe func.
func (m *SessionManager) OnSessionChange(fn func(models.SessionEvent)) func() {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.observers[id] = fn
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.observers, id)
			m.mu.Unlock()
		})
	}
}

// Watch subscribes to the events channel and dispatches to observers until ctx is done.
func (m *SessionManager) Watch(ctx context.Context) error {
	sub := m.redis.Subscribe(ctx, m.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("subscribe %s: %w", m.channel, err)
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var event models.SessionEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				m.logger.Warn("dropping malformed session event", map[string]interface{}{"error": err})
				continue
			}
			m.dispatch(event)
		}
	}
}

func (m *SessionManager) dispatch(event models.SessionEvent) {
	m.mu.RLock()
	fns := make([]func(models.SessionEvent), 0, len(m.observers))
	for _, fn := range m.observers {
		fns = append(fns, fn)
	}
	m.mu.RUnlock()

	metrics.SessionEvents.WithLabelValues(string(event.Type)).Inc()
	for _, fn := range fns {
		fn(event)
	}
}

func (m *SessionManager) publish(ctx context.Context, event models.SessionEvent) {
	event.At = time.Now().UTC()
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	if err := m.redis.Publish(ctx, m.channel, data).Err(); err != nil {
		m.logger.Warn("failed to publish session event", map[string]interface{}{
			"type":  event.Type,
			"error": err,
		})
	}
}
