package platform

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"talent-intake/internal/common/auth"
	commonerrors "talent-intake/internal/common/errors"
	"talent-intake/internal/common/logger"
	"talent-intake/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type MockAuthenticator struct {
	PasswordGrantFunc func(ctx context.Context, email, password string) (*auth.TokenResponse, error)
	ValidateTokenFunc func(ctx context.Context, token string) (*auth.TokenInfo, error)
	LogoutFunc        func(ctx context.Context, refreshToken string) error
}

func (m *MockAuthenticator) PasswordGrant(ctx context.Context, email, password string) (*auth.TokenResponse, error) {
	return m.PasswordGrantFunc(ctx, email, password)
}

func (m *MockAuthenticator) ValidateToken(ctx context.Context, token string) (*auth.TokenInfo, error) {
	return m.ValidateTokenFunc(ctx, token)
}

func (m *MockAuthenticator) Logout(ctx context.Context, refreshToken string) error {
	if m.LogoutFunc == nil {
		return nil
	}
	return m.LogoutFunc(ctx, refreshToken)
}

type fakeProfiles map[string]*models.Profile

func (f fakeProfiles) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	return f[id], nil
}

func validAuthenticator() *MockAuthenticator {
	return &MockAuthenticator{
		PasswordGrantFunc: func(ctx context.Context, email, password string) (*auth.TokenResponse, error) {
			if password != "correct" {
				return nil, commonerrors.NewAuthenticationError("invalid email or password")
			}
			return &auth.TokenResponse{AccessToken: "access-" + email, RefreshToken: "refresh", ExpiresIn: 300}, nil
		},
		ValidateTokenFunc: func(ctx context.Context, token string) (*auth.TokenInfo, error) {
			return &auth.TokenInfo{Active: true, Sub: "user-" + token[len("access-"):]}, nil
		},
	}
}

func newSessionManager(t *testing.T, authn Authenticator, profiles ProfileLookup) (*SessionManager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewSessionManager(client, authn, profiles, time.Hour, "session-events", logger.NewTestLogger(t)), mr
}

func TestSignIn_RoleFromProfile(t *testing.T) {
	profiles := fakeProfiles{"user-rec@afriwork.et": {ID: "user-rec@afriwork.et", Role: models.RoleRecruiter}}
	manager, mr := newSessionManager(t, validAuthenticator(), profiles)
	ctx := context.Background()

	sess, err := manager.SignIn(ctx, " rec@afriwork.et ", "correct")
	require.NoError(t, err)
	assert.Equal(t, models.RoleRecruiter, sess.Role)
	assert.Equal(t, "rec@afriwork.et", sess.Email)
	assert.True(t, mr.Exists("session:"+sess.ID))
	assert.Equal(t, time.Hour, mr.TTL("session:"+sess.ID))

	members, err := mr.SMembers("session:user:" + sess.UserID)
	require.NoError(t, err)
	assert.Equal(t, []string{sess.ID}, members)

	loaded, err := manager.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "refresh", loaded.RefreshToken)
	assert.Equal(t, models.RoleRecruiter, loaded.Role)
}

func TestSignIn_NoProfileIsGuest(t *testing.T) {
	manager, _ := newSessionManager(t, validAuthenticator(), fakeProfiles{})

	sess, err := manager.SignIn(context.Background(), "new@afriwork.et", "correct")
	require.NoError(t, err)
	assert.Equal(t, models.RoleGuest, sess.Role)
}

func TestSignIn_Failures(t *testing.T) {
	manager, mr := newSessionManager(t, validAuthenticator(), fakeProfiles{})

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"empty email", "  ", "correct"},
		{"empty password", "rec@afriwork.et", ""},
		{"wrong password", "rec@afriwork.et", "nope"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess, err := manager.SignIn(context.Background(), tt.email, tt.password)
			assert.Nil(t, sess)
			stdErr, ok := commonerrors.AsStandardError(err)
			require.True(t, ok)
			assert.Equal(t, commonerrors.ErrCodeAuthentication, stdErr.Code)
		})
	}
	assert.Empty(t, mr.Keys())
}

func TestGetSession_Missing(t *testing.T) {
	manager, _ := newSessionManager(t, validAuthenticator(), fakeProfiles{})

	sess, err := manager.GetSession(context.Background(), "unknown")
	require.NoError(t, err)
	assert.Nil(t, sess)

	sess, err = manager.GetSession(context.Background(), "")
	require.NoError(t, err)
	assert.Nil(t, sess)
}

func TestSignOut_LogoutFailureIsBestEffort(t *testing.T) {
	authn := validAuthenticator()
	authn.LogoutFunc = func(ctx context.Context, refreshToken string) error {
		return errors.New("keycloak down")
	}
	manager, mr := newSessionManager(t, authn, fakeProfiles{})
	ctx := context.Background()

	sess, err := manager.SignIn(ctx, "rec@afriwork.et", "correct")
	require.NoError(t, err)

	require.NoError(t, manager.SignOut(ctx, sess.ID))
	assert.False(t, mr.Exists("session:"+sess.ID))

	loaded, err := manager.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.Nil(t, loaded)

	// signing out twice is harmless
	require.NoError(t, manager.SignOut(ctx, sess.ID))
}

func TestApplyRoleChange(t *testing.T) {
	profiles := fakeProfiles{"user-rec@afriwork.et": {Role: models.RoleRecruiter}}
	manager, mr := newSessionManager(t, validAuthenticator(), profiles)
	ctx := context.Background()

	first, err := manager.SignIn(ctx, "rec@afriwork.et", "correct")
	require.NoError(t, err)
	second, err := manager.SignIn(ctx, "rec@afriwork.et", "correct")
	require.NoError(t, err)
	mr.Del("session:" + second.ID)

	n, err := manager.ApplyRoleChange(ctx, first.UserID, models.RoleGuest)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	loaded, err := manager.GetSession(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleGuest, loaded.Role)
	assert.Equal(t, time.Hour, mr.TTL("session:"+first.ID))

	members, err := mr.SMembers("session:user:" + first.UserID)
	require.NoError(t, err)
	assert.Equal(t, []string{first.ID}, members)
}

func TestOnSessionChange_Unsubscribe(t *testing.T) {
	manager, _ := newSessionManager(t, validAuthenticator(), fakeProfiles{})

	var got []models.SessionEventType
	unsubscribe := manager.OnSessionChange(func(e models.SessionEvent) { got = append(got, e.Type) })

	manager.dispatch(models.SessionEvent{Type: models.SessionSignedIn})
	unsubscribe()
	unsubscribe()
	manager.dispatch(models.SessionEvent{Type: models.SessionSignedOut})

	assert.Equal(t, []models.SessionEventType{models.SessionSignedIn}, got)
}

func TestWatch_DispatchesAndStops(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	manager := NewSessionManager(client, validAuthenticator(), fakeProfiles{}, time.Hour, "session-events", logger.NewNoOpLogger())

	var (
		mu     sync.Mutex
		events []models.SessionEvent
	)
	manager.OnSessionChange(func(e models.SessionEvent) {
		mu.Lock()
		events = append(events, e)
		mu.Unlock()
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- manager.Watch(ctx) }()

	require.Eventually(t, func() bool {
		return mr.PubSubNumSub("session-events")["session-events"] == 1
	}, 2*time.Second, 10*time.Millisecond)

	payload, err := json.Marshal(models.SessionEvent{Type: models.SessionSignedOut, SessionID: "s1", UserID: "u1"})
	require.NoError(t, err)
	mr.Publish("session-events", "not json")
	mr.Publish("session-events", string(payload))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(events) == 1
	}, 2*time.Second, 10*time.Millisecond)

	mu.Lock()
	assert.Equal(t, "s1", events[0].SessionID)
	assert.Equal(t, models.SessionSignedOut, events[0].Type)
	mu.Unlock()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Watch did not stop after cancel")
	}
}
